package refract

// SessionState is the lifecycle state of a drag session.
type SessionState int32

const (
	// SessionIdle indicates no active drag. The control accepts a new
	// press.
	SessionIdle SessionState = iota

	// SessionDragging indicates an active drag session holding (or
	// falling back from) the exclusive capture resource.
	SessionDragging

	// SessionCleanup indicates a forced teardown is in progress: unmount,
	// cancel, involuntary capture loss, or preemption by a competing
	// drag. Transient; settles back to SessionIdle.
	SessionCleanup
)

// String returns the string representation of the state.
func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionDragging:
		return "dragging"
	case SessionCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// CaptureMode selects how pointer motion is read during a drag.
type CaptureMode int32

const (
	// CaptureRelative accumulates raw movement deltas under exclusive
	// pointer capture, with the native cursor suppressed and an
	// application-drawn marker repositioned instead.
	CaptureRelative CaptureMode = iota

	// CaptureAbsolute is the fallback when exclusive capture is
	// unsupported: deltas are derived from absolute pointer positions.
	CaptureAbsolute
)

// String returns the string representation of the mode.
func (m CaptureMode) String() string {
	switch m {
	case CaptureRelative:
		return "relative"
	case CaptureAbsolute:
		return "absolute"
	default:
		return "unknown"
	}
}
