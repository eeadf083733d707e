package refract

import "github.com/zoobzio/capitan"

// Field keys for refract events.
var (
	// KeyDomain is the owning domain store name.
	KeyDomain = capitan.NewStringKey("domain")

	// KeyParam is the parameter key within its domain.
	KeyParam = capitan.NewStringKey("param")

	// KeyFacadeName is the engine-side parameter name.
	KeyFacadeName = capitan.NewStringKey("facade_name")

	// KeySource is the propagation source of a write.
	KeySource = capitan.NewStringKey("source")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyPreset is a preset id or name.
	KeyPreset = capitan.NewStringKey("preset")

	// KeyDebounce is the configured debounce window for a push.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyCount is a generic count (synced keys, affected parameters).
	KeyCount = capitan.NewIntKey("count")

	// KeyState is a session or store state name.
	KeyState = capitan.NewStringKey("state")

	// KeyMode is the capture mode of a drag session.
	KeyMode = capitan.NewStringKey("mode")
)
