package refract

import (
	"errors"
	"fmt"
)

// Sentinel errors for the facade and preset boundaries.
var (
	// ErrEngineUnavailable indicates the facade has not finished
	// initializing. UI updates proceed; the engine push is deferred
	// until the next SyncWithFacade.
	ErrEngineUnavailable = errors.New("engine not initialized")

	// ErrUnknownParam indicates the facade rejected a parameter name.
	// Caught per parameter; the rest of a batch still processes.
	ErrUnknownParam = errors.New("unknown engine parameter")

	// ErrPresetNotFound indicates the requested preset id does not exist
	// in the library.
	ErrPresetNotFound = errors.New("preset not found")

	// ErrPresetApply indicates the engine refused to apply a preset.
	// No store is mutated before engine confirmation.
	ErrPresetApply = errors.New("preset apply refused by engine")
)

// StorageError wraps a persistence read/write failure. In-memory state
// remains authoritative for the session when one occurs.
type StorageError struct {
	Op  string // "load" or "save"
	Err error
}

// Error returns the error message.
func (e *StorageError) Error() string {
	return fmt.Sprintf("preset storage %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}
