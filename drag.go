package refract

import (
	"context"
	"strconv"
	"sync"

	"github.com/zoobzio/capitan"
)

// Drag sensitivity defaults.
const (
	// DefaultPixelsPerStep is how many pixels of pointer travel advance
	// the value by one step.
	DefaultPixelsPerStep = 8.0

	// DefaultPrecisionFactor multiplies pixels-per-step while the
	// precision modifier is held, lowering sensitivity.
	DefaultPrecisionFactor = 5.0
)

// DragSession is the transient state of one pointer drag. Created on
// press, destroyed on release, cancel, or forced teardown; it never
// outlives its owning control.
type DragSession struct {
	startValue  float64
	accumulated float64
	startX      float64
	startY      float64
	lastX       float64
	lastY       float64
	precision   bool
	mode        CaptureMode
	tornDown    bool // reentrancy guard: cleanup runs exactly once
}

// PointerEvent is one pointer sample delivered to a control during a
// drag. Relative mode consumes DX; absolute fallback derives deltas from
// X. Precision mirrors the modifier key state at sample time.
type PointerEvent struct {
	X, Y      float64
	DX, DY    float64
	Precision bool
}

// ControlConfig wires a Control to its store, registry, and platform.
type ControlConfig struct {
	// Store and Key locate the parameter this control edits. The
	// definition's Min, Max, and Step drive clamping and quantization.
	Store *Store
	Key   string

	// Registry enforces capture exclusivity across all controls.
	Registry *CaptureRegistry

	// Capturer is the platform capture resource. Nil forces absolute
	// fallback mode.
	Capturer PointerCapturer

	// Hooks drive overlay, marker, and indicator presentation.
	Hooks SessionHooks

	// PixelsPerStep and PrecisionFactor override the defaults when
	// positive.
	PixelsPerStep   float64
	PrecisionFactor float64
}

// Control is a continuous numeric control: it turns raw pointer motion
// into stepped, clamped, quantized parameter updates, and accepts direct
// text entry committing through the same path as drag commits.
type Control struct {
	store           *Store
	key             string
	def             Definition
	registry        *CaptureRegistry
	capturer        PointerCapturer
	hooks           SessionHooks
	pixelsPerStep   float64
	precisionFactor float64

	mu           sync.Mutex
	state        SessionState
	session      *DragSession
	cancelFrame  func()
	framePending bool
}

// NewControl creates a Control for one parameter. The key must exist in
// the store.
func NewControl(cfg ControlConfig) *Control {
	def, _ := cfg.Store.Definition(cfg.Key)
	c := &Control{
		store:           cfg.Store,
		key:             cfg.Key,
		def:             def,
		registry:        cfg.Registry,
		capturer:        cfg.Capturer,
		hooks:           cfg.Hooks,
		pixelsPerStep:   cfg.PixelsPerStep,
		precisionFactor: cfg.PrecisionFactor,
		state:           SessionIdle,
	}
	if c.pixelsPerStep <= 0 {
		c.pixelsPerStep = DefaultPixelsPerStep
	}
	if c.precisionFactor <= 0 {
		c.precisionFactor = DefaultPrecisionFactor
	}
	return c
}

// State returns the session state.
func (c *Control) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mode returns the capture mode of the active session, or CaptureAbsolute
// when idle.
func (c *Control) Mode() CaptureMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session.mode
	}
	return CaptureAbsolute
}

// PointerDown starts a drag session at (x, y). Any session holding the
// exclusive capture resource elsewhere is torn down first.
func (c *Control) PointerDown(x, y float64, precision bool) {
	// A surviving session on this control ends before the registry
	// records the new press; tearing it down afterwards would release
	// the fresh registration.
	c.teardown(false)

	if c.registry != nil {
		c.registry.acquire(c)
	}

	c.mu.Lock()
	start, _ := c.store.Signal(c.key).Read().(float64)
	session := &DragSession{
		startValue: start,
		startX:     x,
		startY:     y,
		lastX:      x,
		lastY:      y,
		precision:  precision,
		mode:       CaptureAbsolute,
	}

	if c.capturer != nil && c.capturer.SupportsRelative() {
		if err := c.capturer.Capture(); err == nil {
			session.mode = CaptureRelative
		}
	}

	c.session = session
	c.state = SessionDragging
	c.mu.Unlock()

	if session.mode == CaptureRelative {
		call(c.hooks.ShowOverlay)
		if c.hooks.ShowMarker != nil {
			c.hooks.ShowMarker(x, y)
		}
	}
	if c.hooks.SetDragIndicator != nil {
		c.hooks.SetDragIndicator(true)
	}

	capitan.Emit(context.Background(), DragStarted,
		KeyDomain.Field(c.store.Name()),
		KeyParam.Field(c.key),
		KeyMode.Field(session.mode.String()),
	)
}

// PointerMove accumulates one pointer sample and schedules a continuous
// update at the next frame boundary. Samples arriving before the frame
// fires fold into it; only the latest accumulated delta is applied.
func (c *Control) PointerMove(ev PointerEvent) {
	c.mu.Lock()
	if c.state != SessionDragging {
		c.mu.Unlock()
		return
	}
	s := c.session

	dx := ev.DX
	if s.mode == CaptureAbsolute {
		dx = ev.X - s.lastX
	}
	s.accumulated += dx
	s.lastX = ev.X
	s.lastY = ev.Y
	s.precision = ev.Precision

	if s.mode == CaptureRelative && c.hooks.MoveMarker != nil {
		// The native cursor is suppressed; the marker tracks the press
		// point plus accumulated travel.
		markerX := s.startX + s.accumulated
		markerY := s.startY
		c.mu.Unlock()
		c.hooks.MoveMarker(markerX, markerY)
		c.mu.Lock()
	}

	if c.framePending {
		c.mu.Unlock()
		return
	}
	c.framePending = true
	c.mu.Unlock()

	if c.hooks.RequestFrame == nil {
		c.applyFrame()
		return
	}
	cancel := c.hooks.RequestFrame(c.applyFrame)
	c.mu.Lock()
	c.cancelFrame = cancel
	c.mu.Unlock()
}

// applyFrame pushes the value for the current accumulated delta through
// the store's continuous path.
func (c *Control) applyFrame() {
	c.mu.Lock()
	if c.state != SessionDragging {
		c.framePending = false
		c.cancelFrame = nil
		c.mu.Unlock()
		return
	}
	v := c.valueFor(c.session.accumulated, c.session.precision)
	c.framePending = false
	c.cancelFrame = nil
	c.mu.Unlock()

	c.store.UpdateContinuous(c.key, v)
}

// Release ends the drag normally: the cleanup set runs, then the final
// value commits through the same discrete path as text entry.
func (c *Control) Release() {
	c.mu.Lock()
	if c.state != SessionDragging {
		c.mu.Unlock()
		return
	}
	v := c.valueFor(c.session.accumulated, c.session.precision)
	c.mu.Unlock()

	c.teardown(false)
	c.commit(v)

	capitan.Emit(context.Background(), DragEnded,
		KeyDomain.Field(c.store.Name()),
		KeyParam.Field(c.key),
	)
}

// Cancel aborts the drag and reverts to the value the session started
// from.
func (c *Control) Cancel() {
	c.mu.Lock()
	if c.state != SessionDragging {
		c.mu.Unlock()
		return
	}
	start := c.session.startValue
	c.mu.Unlock()

	c.teardown(false)
	c.commit(start)
}

// Teardown force-cleans the session on unmount. The cell keeps whatever
// value the drag last applied; any pending debounced push for the key is
// cleared.
func (c *Control) Teardown() {
	c.teardown(false)
	c.store.CancelPending(c.key)
}

// CaptureLost handles involuntary capture loss (the platform revoked the
// exclusive resource). The session ends without a final commit; the cell
// keeps the last applied value.
func (c *Control) CaptureLost() {
	c.teardown(false)
}

// preempt is called by the registry when a competing drag acquires the
// shared resource.
func (c *Control) preempt() {
	c.teardown(true)
}

// CommitText commits a typed value through the same path as a drag
// commit: parse, clamp, quantize, update. On parse failure the control
// reverts: the cell keeps its last committed value and false returns so
// the caller re-renders it.
func (c *Control) CommitText(text string) bool {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		capitan.Emit(context.Background(), EntryReverted,
			KeyDomain.Field(c.store.Name()),
			KeyParam.Field(c.key),
			KeyError.Field(err.Error()),
		)
		return false
	}
	f = Clamp(f, c.def.Min, c.def.Max)
	f = Quantize(f, c.def.Min, c.def.Step)
	return c.commit(f)
}

// commit is the single final-value path for every input modality.
func (c *Control) commit(v float64) bool {
	return c.store.UpdateParameter(c.key, v)
}

// valueFor computes the stepped value for an accumulated pixel delta.
// Caller holds c.mu.
func (c *Control) valueFor(accumulated float64, precision bool) float64 {
	pps := c.pixelsPerStep
	if precision {
		pps *= c.precisionFactor
	}
	v := c.session.startValue + (accumulated/pps)*c.def.Step
	v = Clamp(v, c.def.Min, c.def.Max)
	return Quantize(v, c.def.Min, c.def.Step)
}

// teardown runs the cleanup set exactly once per session, from every exit
// path: release, cancel, unmount, involuntary capture loss, preemption.
func (c *Control) teardown(preempted bool) {
	c.mu.Lock()
	s := c.session
	if s == nil || s.tornDown {
		c.mu.Unlock()
		return
	}
	s.tornDown = true
	c.state = SessionCleanup
	mode := s.mode
	cancelFrame := c.cancelFrame
	c.cancelFrame = nil
	c.framePending = false
	c.mu.Unlock()

	// The cleanup set. Order mirrors acquisition in reverse.
	if cancelFrame != nil {
		cancelFrame()
	}
	if mode == CaptureRelative && c.capturer != nil {
		c.capturer.ReleaseCapture()
	}
	call(c.hooks.HideOverlay)
	call(c.hooks.HideMarker)
	if c.hooks.SetDragIndicator != nil {
		c.hooks.SetDragIndicator(false)
	}
	call(c.hooks.RemoveListeners)
	if c.registry != nil {
		c.registry.release(c)
	}

	c.mu.Lock()
	c.session = nil
	c.state = SessionIdle
	c.mu.Unlock()

	if preempted {
		capitan.Emit(context.Background(), DragPreempted,
			KeyDomain.Field(c.store.Name()),
			KeyParam.Field(c.key),
		)
	}
	capitan.Emit(context.Background(), SessionTornDown,
		KeyDomain.Field(c.store.Name()),
		KeyParam.Field(c.key),
		KeyMode.Field(mode.String()),
	)
}

// call invokes a nil-safe hook.
func call(fn func()) {
	if fn != nil {
		fn()
	}
}
