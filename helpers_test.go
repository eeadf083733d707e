package refract

import (
	"fmt"
	"math"
	"sync"
)

// near reports whether a numeric value is within float tolerance of want.
// Quantized values land a few ulps off their decimal literals.
func near(v Value, want float64) bool {
	f, ok := v.(float64)
	return ok && math.Abs(f-want) < 1e-9
}

// stubFacade is an in-memory engine boundary for tests.
type stubFacade struct {
	mu          sync.Mutex
	initialized bool
	params      map[string]Value
	rejectNames map[string]bool
	presetOK    bool

	setCalls     []setCall
	presetCalls  []string
	saved        []PresetDescriptor
	deleted      []string
	handlers     map[uint64]func(Event)
	nextHandler  uint64
	enginePreset map[string]map[string]Value
}

type setCall struct {
	name  string
	value Value
	opts  *SetOptions
}

func newStubFacade() *stubFacade {
	return &stubFacade{
		initialized:  true,
		params:       make(map[string]Value),
		rejectNames:  make(map[string]bool),
		presetOK:     true,
		handlers:     make(map[uint64]func(Event)),
		enginePreset: make(map[string]map[string]Value),
	}
}

func (f *stubFacade) IsInitialized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initialized
}

func (f *stubFacade) Param(name string) (Value, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.params[name]
	return v, ok
}

func (f *stubFacade) SetParam(name string, v Value, opts *SetOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.initialized {
		return ErrEngineUnavailable
	}
	if f.rejectNames[name] {
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	f.params[name] = v
	f.setCalls = append(f.setCalls, setCall{name: name, value: v, opts: opts})
	return nil
}

func (f *stubFacade) AllParams() map[string]Value {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]Value, len(f.params))
	for k, v := range f.params {
		out[k] = v
	}
	return out
}

func (f *stubFacade) ApplyPreset(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presetCalls = append(f.presetCalls, name)
	if !f.presetOK {
		return false
	}
	if params, ok := f.enginePreset[name]; ok {
		for k, v := range params {
			f.params[k] = v
		}
	}
	return true
}

func (f *stubFacade) SavePreset(d PresetDescriptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, d)
	return nil
}

func (f *stubFacade) DeletePreset(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *stubFacade) AvailablePresets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.enginePreset))
	for name := range f.enginePreset {
		out = append(out, name)
	}
	return out
}

func (f *stubFacade) Subscribe(fn func(Event)) func() {
	f.mu.Lock()
	f.nextHandler++
	id := f.nextHandler
	f.handlers[id] = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.handlers, id)
		f.mu.Unlock()
	}
}

// emit fans an engine-originated event to subscribers.
func (f *stubFacade) emit(ev Event) {
	f.mu.Lock()
	fns := make([]func(Event), 0, len(f.handlers))
	for _, fn := range f.handlers {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// setCount counts SetParam calls for one engine name.
func (f *stubFacade) setCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.setCalls {
		if c.name == name {
			n++
		}
	}
	return n
}

// lastSet returns the last pushed value for one engine name.
func (f *stubFacade) lastSet(name string) (Value, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.setCalls) - 1; i >= 0; i-- {
		if f.setCalls[i].name == name {
			return f.setCalls[i].value, true
		}
	}
	return nil, false
}

func (f *stubFacade) setInitialized(ok bool) {
	f.mu.Lock()
	f.initialized = ok
	f.mu.Unlock()
}

// stubCapturer is a fake exclusive-capture resource recording its calls.
type stubCapturer struct {
	relative    bool
	failCapture bool
	captured    bool
	log         *[]string
	name        string
}

func (c *stubCapturer) SupportsRelative() bool {
	return c.relative
}

func (c *stubCapturer) Capture() error {
	if c.failCapture {
		return fmt.Errorf("capture unavailable")
	}
	c.captured = true
	if c.log != nil {
		*c.log = append(*c.log, c.name+".capture")
	}
	return nil
}

func (c *stubCapturer) ReleaseCapture() {
	c.captured = false
	if c.log != nil {
		*c.log = append(*c.log, c.name+".release")
	}
}

// recordNotifier collects user-visible notifications.
type recordNotifier struct {
	mu      sync.Mutex
	entries []string
}

func (n *recordNotifier) Notify(level Level, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, level.String()+": "+msg)
}

func (n *recordNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// failingStorage always errors, for storage-failure paths.
type failingStorage struct{}

func (failingStorage) Load() (map[string]Snapshot, error) {
	return nil, &StorageError{Op: "load", Err: fmt.Errorf("disk gone")}
}

func (failingStorage) Save(map[string]Snapshot) error {
	return &StorageError{Op: "save", Err: fmt.Errorf("disk gone")}
}

// testStore builds a store over a sync-mode dispatcher for deterministic
// push accounting.
func testStore(name string, defs []Definition, facade Facade) (*Store, *Dispatcher) {
	d := NewDispatcher(facade, WithSyncDispatch())
	return NewStore(name, defs, facade, d), d
}
