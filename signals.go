package refract

import "github.com/zoobzio/capitan"

// Store signals.
var (
	// ParamUpdated is emitted when a store cell accepts a new value.
	ParamUpdated = capitan.NewSignal(
		"refract.store.param.updated",
		"Parameter value accepted into a store cell",
	)

	// ParamRejected is emitted when a value fails validation.
	ParamRejected = capitan.NewSignal(
		"refract.store.param.rejected",
		"Parameter value failed validation",
	)

	// StoreSynced is emitted after a store pulls its mapped keys from
	// the engine.
	StoreSynced = capitan.NewSignal(
		"refract.store.synced",
		"Store pulled engine values for all mapped keys",
	)

	// StoreReset is emitted when a store restores its defaults.
	StoreReset = capitan.NewSignal(
		"refract.store.reset",
		"Store restored default values",
	)

	// MirrorApplied is emitted when a peer store applies a mirrored
	// value.
	MirrorApplied = capitan.NewSignal(
		"refract.store.mirror.applied",
		"Mirrored value applied from peer domain",
	)
)

// Dispatcher signals.
var (
	// PushSent is emitted after a successful facade push.
	PushSent = capitan.NewSignal(
		"refract.dispatch.push.sent",
		"Parameter pushed to the engine",
	)

	// PushSkipped is emitted when a push is skipped because the engine
	// is not initialized. A later sync catches the value up.
	PushSkipped = capitan.NewSignal(
		"refract.dispatch.push.skipped",
		"Engine unavailable, push deferred to next sync",
	)

	// PushFailed is emitted when the engine rejects a parameter push.
	PushFailed = capitan.NewSignal(
		"refract.dispatch.push.failed",
		"Engine rejected a parameter push",
	)

	// PushCoalesced is emitted when a debounced update supersedes a
	// pending one.
	PushCoalesced = capitan.NewSignal(
		"refract.dispatch.push.coalesced",
		"Pending debounced push superseded by a newer value",
	)
)

// Drag capture signals.
var (
	// DragStarted is emitted when a session acquires capture.
	DragStarted = capitan.NewSignal(
		"refract.drag.started",
		"Drag session acquired pointer capture",
	)

	// DragEnded is emitted when a session ends normally and commits.
	DragEnded = capitan.NewSignal(
		"refract.drag.ended",
		"Drag session released and committed",
	)

	// DragPreempted is emitted when a competing drag forces a session's
	// teardown.
	DragPreempted = capitan.NewSignal(
		"refract.drag.preempted",
		"Drag session torn down by a competing drag",
	)

	// SessionTornDown is emitted exactly once per session when its
	// cleanup set completes.
	SessionTornDown = capitan.NewSignal(
		"refract.drag.session.torndown",
		"Drag session cleanup completed",
	)

	// EntryReverted is emitted when text entry fails to parse and the
	// control reverts to its last committed value.
	EntryReverted = capitan.NewSignal(
		"refract.entry.reverted",
		"Text entry unparseable, reverted to last value",
	)
)

// Preset signals.
var (
	// PresetAppliedSignal is emitted once per successful apply, after
	// every store has been re-synced.
	PresetAppliedSignal = capitan.NewSignal(
		"refract.preset.applied",
		"Preset applied and all stores synced",
	)

	// PresetApplyFailed is emitted when the engine refuses a preset.
	// No store was mutated.
	PresetApplyFailed = capitan.NewSignal(
		"refract.preset.apply.failed",
		"Engine refused preset, stores untouched",
	)

	// PresetSaved is emitted when a snapshot is persisted.
	PresetSaved = capitan.NewSignal(
		"refract.preset.saved",
		"Preset snapshot persisted",
	)

	// PresetDeleted is emitted when a snapshot is removed.
	PresetDeleted = capitan.NewSignal(
		"refract.preset.deleted",
		"Preset snapshot deleted",
	)

	// StorageFailed is emitted on a persistence read/write failure.
	// In-memory state remains authoritative.
	StorageFailed = capitan.NewSignal(
		"refract.preset.storage.failed",
		"Preset storage operation failed",
	)

	// LibraryReloaded is emitted when the watched preset file changes
	// externally and the library is reloaded.
	LibraryReloaded = capitan.NewSignal(
		"refract.preset.library.reloaded",
		"Preset library reloaded from external change",
	)
)
