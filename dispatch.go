package refract

import (
	"context"
	"fmt"
	"sync"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// UpdateClass distinguishes drag-driven updates from one-shot ones.
type UpdateClass int32

const (
	// UpdateContinuous is a per-frame update during a drag. Pushed
	// immediately for cheap parameters, coalesced behind the
	// definition's debounce window for expensive ones.
	UpdateContinuous UpdateClass = iota

	// UpdateDiscrete is a committed update: typed entry, buttons, drag
	// release, preset loads. Always pushed immediately, superseding any
	// pending debounced push for the same key.
	UpdateDiscrete
)

// String returns the string representation of the class.
func (c UpdateClass) String() string {
	switch c {
	case UpdateContinuous:
		return "continuous"
	case UpdateDiscrete:
		return "discrete"
	default:
		return "unknown"
	}
}

// PushRequest carries one outbound parameter push through the pipeline.
// Value is already in engine representation.
type PushRequest struct {
	Domain string
	Def    Definition
	Value  Value
}

// Dispatcher routes outbound parameter pushes to the facade. Continuous
// updates to parameters carrying a debounce window are coalesced per key
// with a trailing timer; only the last value in a burst reaches the
// engine. Everything else pushes immediately.
//
// Pushes are fire-and-forget: failures are observed through the pipeline's
// error handler and signals, never returned to the UI path.
type Dispatcher struct {
	pipeline pipz.Chainable[*PushRequest]
	clock    clockz.Clock
	syncMode bool

	mu      sync.Mutex
	pending map[string]*pendingPush
	closed  bool
}

// pendingPush is a debounced update waiting for its window to elapse.
type pendingPush struct {
	req   *PushRequest
	timer clockz.Timer
	stop  chan struct{}
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithClock sets a custom clock for debounce timers.
// Use clockz.NewFakeClock for deterministic tests.
func WithClock(clock clockz.Clock) DispatcherOption {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// WithSyncDispatch disables timer goroutines: debounced updates park until
// Flush is called. Tests use this for fully deterministic coalescing.
func WithSyncDispatch() DispatcherOption {
	return func(d *Dispatcher) {
		d.syncMode = true
	}
}

// NewDispatcher creates a Dispatcher pushing to the given facade.
func NewDispatcher(facade Facade, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		pipeline: newPushPipeline(facade),
		clock:    clockz.RealClock,
		pending:  make(map[string]*pendingPush),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch routes one update. def.Mapped() must hold; unmapped keys never
// reach the dispatcher.
func (d *Dispatcher) Dispatch(domain string, def Definition, v Value, class UpdateClass) {
	req := &PushRequest{Domain: domain, Def: def, Value: v}

	if class == UpdateContinuous && def.Debounce > 0 {
		d.coalesce(req)
		return
	}

	// Immediate push supersedes any pending debounced value for the key.
	d.CancelPending(domain, def.Key)
	d.push(req)
}

// CancelPending drops a pending debounced push for one key, if any.
// Called when a newer update supersedes it or the owning control unmounts.
func (d *Dispatcher) CancelPending(domain, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked(pushKey(domain, key))
}

// Promote fires the pending debounced push for one key immediately, if
// any. Called when a discrete commit lands on the value a continuous
// update already parked; the commit must not wait out the window.
func (d *Dispatcher) Promote(domain, key string) {
	k := pushKey(domain, key)

	d.mu.Lock()
	p, ok := d.pending[k]
	var req *PushRequest
	if ok {
		req = p.req
		d.cancelLocked(k)
	}
	d.mu.Unlock()

	if req != nil {
		d.push(req)
	}
}

// Flush pushes every pending debounced value immediately.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	reqs := make([]*PushRequest, 0, len(d.pending))
	for k, p := range d.pending {
		reqs = append(reqs, p.req)
		d.cancelLocked(k)
	}
	d.mu.Unlock()

	for _, req := range reqs {
		d.push(req)
	}
}

// Close cancels all pending pushes. Further dispatches push immediately
// without debouncing.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k := range d.pending {
		d.cancelLocked(k)
	}
	d.closed = true
}

// coalesce parks req behind its key's trailing debounce window, replacing
// any value already waiting there.
func (d *Dispatcher) coalesce(req *PushRequest) {
	k := pushKey(req.Domain, req.Def.Key)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.push(req)
		return
	}

	if p, ok := d.pending[k]; ok {
		p.req = req
		if p.timer != nil {
			if !p.timer.Stop() {
				select {
				case <-p.timer.C():
				default:
				}
			}
			p.timer.Reset(req.Def.Debounce)
		}
		d.mu.Unlock()
		capitan.Emit(context.Background(), PushCoalesced,
			KeyDomain.Field(req.Domain),
			KeyParam.Field(req.Def.Key),
			KeyDebounce.Field(req.Def.Debounce),
		)
		return
	}

	p := &pendingPush{req: req, stop: make(chan struct{})}
	d.pending[k] = p

	if d.syncMode {
		// Parked until Flush; no timer goroutine.
		d.mu.Unlock()
		return
	}

	p.timer = d.clock.NewTimer(req.Def.Debounce)
	d.mu.Unlock()

	go d.await(k, p)
}

// await fires a parked push when its window elapses.
func (d *Dispatcher) await(k string, p *pendingPush) {
	select {
	case <-p.stop:
		return
	case <-p.timer.C():
	}

	d.mu.Lock()
	cur, ok := d.pending[k]
	if !ok || cur != p {
		d.mu.Unlock()
		return
	}
	req := cur.req
	delete(d.pending, k)
	d.mu.Unlock()

	d.push(req)
}

// cancelLocked removes a pending entry and stops its timer. Caller holds
// d.mu.
func (d *Dispatcher) cancelLocked(k string) {
	p, ok := d.pending[k]
	if !ok {
		return
	}
	delete(d.pending, k)
	close(p.stop)
	if p.timer != nil {
		p.timer.Stop()
	}
}

// push runs one request through the pipeline. Errors are observed inside
// the pipeline; the UI path never blocks on them.
func (d *Dispatcher) push(req *PushRequest) {
	_, _ = d.pipeline.Process(context.Background(), req) //nolint:errcheck // Observed via PushFailed
}

func pushKey(domain, key string) string {
	return domain + "/" + key
}

// newPushPipeline builds the outbound pipeline: one facade push wrapped
// with an error observer. An uninitialized engine is a silent skip, not a
// failure; a later sync catches the value up.
func newPushPipeline(facade Facade) pipz.Chainable[*PushRequest] {
	push := pipz.Apply(pipz.Name("facade-push"), func(ctx context.Context, req *PushRequest) (*PushRequest, error) {
		if !facade.IsInitialized() {
			capitan.Emit(ctx, PushSkipped,
				KeyDomain.Field(req.Domain),
				KeyParam.Field(req.Def.Key),
				KeyFacadeName.Field(req.Def.FacadeName),
			)
			return req, nil
		}

		var opts *SetOptions
		if req.Def.ResetCamera {
			opts = &SetOptions{ResetCamera: true}
		}
		if err := facade.SetParam(req.Def.FacadeName, req.Value, opts); err != nil {
			return req, fmt.Errorf("push %s: %w", req.Def.FacadeName, err)
		}

		capitan.Emit(ctx, PushSent,
			KeyDomain.Field(req.Domain),
			KeyParam.Field(req.Def.Key),
			KeyFacadeName.Field(req.Def.FacadeName),
		)
		return req, nil
	})

	observer := pipz.Effect(pipz.Name("push-error-observer"), func(ctx context.Context, perr *pipz.Error[*PushRequest]) error {
		capitan.Emit(ctx, PushFailed,
			KeyDomain.Field(perr.InputData.Domain),
			KeyParam.Field(perr.InputData.Def.Key),
			KeyError.Field(perr.Err.Error()),
		)
		return nil
	})

	return pipz.NewHandle("push", push, observer)
}
