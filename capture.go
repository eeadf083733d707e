package refract

import "sync"

// PointerCapturer abstracts the platform's exclusive pointer-capture
// resource (pointer lock). It is a single non-reentrant resource: at most
// one consumer receives raw movement deltas at a time.
type PointerCapturer interface {
	// SupportsRelative reports whether exclusive relative-delta capture
	// is available. When false, controls fall back to absolute-position
	// tracking.
	SupportsRelative() bool

	// Capture acquires exclusive capture and suppresses the native
	// cursor. Returns an error when acquisition fails; callers fall
	// back to absolute mode.
	Capture() error

	// ReleaseCapture releases exclusive capture and restores the native
	// cursor. Safe to call when not captured.
	ReleaseCapture()
}

// SessionHooks are the presentation side effects of a drag session:
// capture overlay, application-drawn cursor marker, global drag
// indicators, and animation-frame scheduling. Nil hooks are skipped, so
// headless tests can run without any.
type SessionHooks struct {
	// ShowOverlay and HideOverlay toggle the capture overlay that owns
	// pointer events during a relative-mode drag.
	ShowOverlay func()
	HideOverlay func()

	// ShowMarker, MoveMarker, and HideMarker drive the application-drawn
	// cursor marker that replaces the suppressed native cursor.
	ShowMarker func(x, y float64)
	MoveMarker func(x, y float64)
	HideMarker func()

	// SetDragIndicator toggles global drag-state indicators (body
	// classes, cursor styles).
	SetDragIndicator func(active bool)

	// RequestFrame schedules fn at the next animation-frame boundary and
	// returns a cancel function. Nil runs fn immediately.
	RequestFrame func(fn func()) (cancel func())

	// RemoveListeners detaches any platform listeners installed for the
	// session.
	RemoveListeners func()
}

// CaptureRegistry tracks which control currently owns the exclusive
// capture resource. It is an explicit, injectable registry rather than a
// module-level global, so ownership is auditable and testable.
//
// Invariant: at most one session holds capture at a time. Acquiring while
// another session is active completes that session's teardown before the
// new owner is recorded.
type CaptureRegistry struct {
	mu     sync.Mutex
	active *Control
}

// NewCaptureRegistry creates an empty registry.
func NewCaptureRegistry() *CaptureRegistry {
	return &CaptureRegistry{}
}

// Active returns the control currently holding capture, or nil.
func (r *CaptureRegistry) Active() *Control {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Clear force-tears-down the active session, if any.
func (r *CaptureRegistry) Clear() {
	r.mu.Lock()
	prev := r.active
	r.active = nil
	r.mu.Unlock()

	if prev != nil {
		prev.preempt()
	}
}

// acquire records c as the capture owner, tearing down any previous owner
// first. The previous session's cleanup completes before c is recorded.
func (r *CaptureRegistry) acquire(c *Control) {
	r.mu.Lock()
	prev := r.active
	r.active = nil
	r.mu.Unlock()

	if prev != nil && prev != c {
		prev.preempt()
	}

	r.mu.Lock()
	r.active = c
	r.mu.Unlock()
}

// release clears the registry if c is the current owner.
func (r *CaptureRegistry) release(c *Control) {
	r.mu.Lock()
	if r.active == c {
		r.active = nil
	}
	r.mu.Unlock()
}
