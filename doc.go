/*
Package refract keeps an interactive editor's control state and a real-time
rendering engine's parameter surface mutually consistent.

The editor exposes dozens of continuous numeric, color, and vector controls.
Each control writes into a reactive Cell owned by a domain Store; the Store
pushes mapped values out through a Facade to the rendering engine, and pulls
engine-originated changes back in without echoing them. A Dispatcher decides
per parameter whether a push applies immediately or is coalesced behind a
trailing debounce window, so cheap parameters track the pointer in lockstep
while expensive ones (geometry rebuilds) only recompute once per burst.

# Flow

	Control (drag / text entry) → Store → Dispatcher → Facade
	Facade events → Bridge intake → Store cells (tagged SourceEngine, no echo)
	Preset Manager → Facade → SyncWithFacade fan-out to every Store

# Loop prevention

Every propagation carries a Source tag (Local, Peer, Engine). Only
SourceLocal writes are pushed to the facade; values pulled from the engine
or mirrored from a peer domain are applied to cells and stop there.

# Drag capture

A Control turns raw pointer motion into stepped value updates under an
exclusive capture resource. At most one drag session holds capture at a
time; starting a new drag force-tears the previous session down first. The
teardown set (capture release, overlay and marker hidden, global indicators
cleared, pending frame cancelled, listeners removed) runs exactly once per
session regardless of exit path.

# Presets

The Manager snapshots the full cross-domain parameter set from the facade
(the source of truth), persists it as a single JSON blob, and applies
presets atomically at the observable boundary: on engine refusal no store
is touched; on success every store is re-synced before one preset-applied
signal fires.

# Observability

Lifecycle events are emitted as capitan signals with typed field keys; see
signals.go for the catalog. Debounce timers run on an injectable clockz
clock so tests drive time deterministically.
*/
package refract
