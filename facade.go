package refract

// Facade is the rendering engine's parameter boundary as consumed by this
// package. The engine itself is an external collaborator; refract only
// needs get/set/event access to its parameter surface.
//
// Implementations are expected to tolerate calls before initialization by
// returning ErrEngineUnavailable from SetParam and false from
// IsInitialized; stores then keep the UI responsive and catch the engine
// up on the next sync.
type Facade interface {
	// IsInitialized reports whether the engine is ready to accept
	// parameter traffic.
	IsInitialized() bool

	// Param returns the engine-side value for name, and whether the name
	// is known.
	Param(name string) (Value, bool)

	// SetParam pushes a value to the engine. opts may be nil. Unknown
	// names return ErrUnknownParam; an uninitialized engine returns
	// ErrEngineUnavailable.
	SetParam(name string, v Value, opts *SetOptions) error

	// AllParams returns the full engine parameter surface. This is the
	// source of truth when snapshotting presets.
	AllParams() map[string]Value

	// ApplyPreset asks the engine to apply a named built-in or
	// previously saved preset. Returns false when the engine refuses.
	ApplyPreset(name string) bool

	// SavePreset persists a preset descriptor on the engine side.
	SavePreset(d PresetDescriptor) error

	// DeletePreset removes an engine-side preset.
	DeletePreset(name string) error

	// AvailablePresets lists engine-side preset names.
	AvailablePresets() []string

	// Subscribe registers a handler for engine-originated events and
	// returns an unsubscribe function. Handlers run on the engine's
	// dispatch; they must route values inward without echoing them back.
	Subscribe(fn func(Event)) func()
}

// SetOptions carries side-effect requests alongside a parameter push.
type SetOptions struct {
	// ResetCamera asks the engine to reset its camera after applying the
	// value.
	ResetCamera bool
}

// PresetDescriptor is the engine-side preset payload for Facade.SavePreset.
type PresetDescriptor struct {
	Name       string
	Parameters map[string]Value
}

// Event is an engine-originated notification. The set of variants is
// closed: ParamChanged and PresetApplied.
type Event interface {
	isEvent()
}

// ParamChanged reports an engine-side parameter change, such as an
// engine-driven camera drag.
type ParamChanged struct {
	Name   string
	Value  Value
	Source Source
}

func (ParamChanged) isEvent() {}

// PresetApplied reports that the engine finished applying a preset.
type PresetApplied struct {
	Name         string
	AffectedKeys []string
}

func (PresetApplied) isEvent() {}
