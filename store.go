package refract

import (
	"context"

	"github.com/zoobzio/capitan"
)

// Store owns the reactive cells for one functional domain (color,
// lighting, camera, distortion, export) and their engine bindings.
// A singleton per domain, created at startup and alive until teardown.
//
// Writes are tagged with their Source. Only SourceLocal writes reach the
// dispatcher; values arriving from the engine or a peer domain stop at
// the cell, which is what prevents feedback loops.
type Store struct {
	name       string
	facade     Facade
	dispatcher *Dispatcher
	bus        *MirrorBus

	defs       map[string]Definition
	order      []string
	cells      map[string]*Cell[Value]
	byFacade   map[string]string // facade name → key
	mirrors    map[string]mirrorBinding
	mirrorSubs []func()
}

// mirrorBinding links a store key to a shared cross-domain name.
type mirrorBinding struct {
	name          string
	authoritative bool
}

// NewStore creates a Store from its definitions. Definitions are immutable
// after this point.
func NewStore(name string, defs []Definition, facade Facade, dispatcher *Dispatcher) *Store {
	s := &Store{
		name:       name,
		facade:     facade,
		dispatcher: dispatcher,
		defs:       make(map[string]Definition, len(defs)),
		cells:      make(map[string]*Cell[Value], len(defs)),
		byFacade:   make(map[string]string),
		mirrors:    make(map[string]mirrorBinding),
	}
	for _, def := range defs {
		s.defs[def.Key] = def
		s.order = append(s.order, def.Key)
		opts := []CellOption[Value]{WithEquality[Value](valueEqual)}
		if def.Validate != nil {
			opts = append(opts, WithValidator[Value](def.Validate))
		}
		s.cells[def.Key] = NewCell[Value](def.Default, opts...)
		if def.Mapped() {
			s.byFacade[def.FacadeName] = def.Key
		}
	}
	return s
}

// Name returns the domain name.
func (s *Store) Name() string {
	return s.name
}

// Signal returns the reactive cell for a key, or nil for unknown keys.
// UI bindings subscribe here.
func (s *Store) Signal(key string) *Cell[Value] {
	return s.cells[key]
}

// Definition returns the definition for a key.
func (s *Store) Definition(key string) (Definition, bool) {
	def, ok := s.defs[key]
	return def, ok
}

// Values returns a snapshot of all current cell values.
func (s *Store) Values() map[string]Value {
	out := make(map[string]Value, len(s.cells))
	for key, cell := range s.cells {
		out[key] = cell.Read()
	}
	return out
}

// UpdateParameter applies a discrete user edit: validate, write the cell,
// and push to the engine when the key is mapped. Returns false on
// validation failure; the previous value is retained.
func (s *Store) UpdateParameter(key string, v Value) bool {
	return s.apply(key, v, SourceLocal, UpdateDiscrete)
}

// UpdateContinuous applies a drag-driven update. Identical semantics to
// UpdateParameter except that the push may be coalesced behind the
// definition's debounce window.
func (s *Store) UpdateContinuous(key string, v Value) bool {
	return s.apply(key, v, SourceLocal, UpdateContinuous)
}

// UpdateParameters applies a batch all-or-nothing: if any value fails
// validation nothing is written. Cells are applied atomically: no
// subscriber observes a partially applied batch. Engine pushes happen per
// key; a rejection of one name does not stop the others.
func (s *Store) UpdateParameters(batch map[string]Value) bool {
	for key, v := range batch {
		def, ok := s.defs[key]
		if !ok || !def.valid(v) {
			capitan.Emit(context.Background(), ParamRejected,
				KeyDomain.Field(s.name),
				KeyParam.Field(key),
			)
			return false
		}
	}

	Batch(func() {
		for key, v := range batch {
			s.apply(key, v, SourceLocal, UpdateDiscrete)
		}
	})
	return true
}

// Reset restores every cell to its default and pushes mapped defaults to
// the engine.
func (s *Store) Reset() {
	Batch(func() {
		for _, key := range s.order {
			s.apply(key, s.defs[key].Default, SourceLocal, UpdateDiscrete)
		}
	})
	capitan.Emit(context.Background(), StoreReset,
		KeyDomain.Field(s.name),
	)
}

// SyncWithFacade pulls every mapped key from the engine into the cells
// without re-pushing anything. Returns false when the engine is not
// initialized; the cells are left as they are.
func (s *Store) SyncWithFacade() bool {
	if s.facade == nil || !s.facade.IsInitialized() {
		return false
	}

	count := 0
	Batch(func() {
		for _, key := range s.order {
			def := s.defs[key]
			if !def.Mapped() {
				continue
			}
			v, ok := s.facade.Param(def.FacadeName)
			if !ok {
				continue
			}
			if s.apply(key, def.fromEngine(v), SourceEngine, UpdateDiscrete) {
				count++
			}
		}
	})

	capitan.Emit(context.Background(), StoreSynced,
		KeyDomain.Field(s.name),
		KeyCount.Field(count),
	)
	return true
}

// ApplyEngineValue routes an engine-originated change for a facade name
// into the owning cell. The intake path is one-directional: the value is
// tagged SourceEngine and never echoed back out. Returns false when the
// name is not mapped in this store.
func (s *Store) ApplyEngineValue(facadeName string, v Value) bool {
	key, ok := s.byFacade[facadeName]
	if !ok {
		return false
	}
	return s.apply(key, s.defs[key].fromEngine(v), SourceEngine, UpdateDiscrete)
}

// BindMirror links key to a shared cross-domain name on the bus. The
// authoritative domain publishes its local edits and engine-originated
// changes; peers apply incoming values as read-only projections tagged
// SourcePeer and never re-emit.
func (s *Store) BindMirror(bus *MirrorBus, name, key string, authoritative bool) {
	s.bus = bus
	s.mirrors[key] = mirrorBinding{name: name, authoritative: authoritative}

	unsub := bus.Subscribe(name, func(ev MirrorEvent) {
		if ev.Origin == s.name {
			return
		}
		if s.apply(key, ev.Value, SourcePeer, UpdateDiscrete) {
			capitan.Emit(context.Background(), MirrorApplied,
				KeyDomain.Field(s.name),
				KeyParam.Field(key),
				KeySource.Field(ev.Source.String()),
			)
		}
	})
	s.mirrorSubs = append(s.mirrorSubs, unsub)
}

// CancelPending clears any pending debounced push for key. Called when
// the owning control unmounts mid-burst.
func (s *Store) CancelPending(key string) {
	if s.dispatcher != nil {
		s.dispatcher.CancelPending(s.name, key)
	}
}

// Close drops the store's mirror subscriptions.
func (s *Store) Close() {
	for _, unsub := range s.mirrorSubs {
		unsub()
	}
	s.mirrorSubs = nil
}

// apply is the single write path. It validates through the cell, skips
// pushes for unchanged values (idempotence), and routes side effects by
// source: only local writes push to the engine or publish on the mirror
// bus.
func (s *Store) apply(key string, v Value, src Source, class UpdateClass) bool {
	def, ok := s.defs[key]
	if !ok {
		return false
	}
	cell := s.cells[key]

	prev := cell.Read()
	if !cell.Write(v) {
		capitan.Emit(context.Background(), ParamRejected,
			KeyDomain.Field(s.name),
			KeyParam.Field(key),
			KeySource.Field(src.String()),
		)
		return false
	}
	if valueEqual(prev, v) {
		// Identical write: no notification fired, no new push owed. A
		// discrete commit still supersedes a parked debounced push, so
		// a drag release converges the engine immediately instead of
		// after the trailing window.
		if src == SourceLocal && class == UpdateDiscrete && def.Mapped() && s.dispatcher != nil {
			s.dispatcher.Promote(s.name, key)
		}
		return true
	}

	capitan.Emit(context.Background(), ParamUpdated,
		KeyDomain.Field(s.name),
		KeyParam.Field(key),
		KeySource.Field(src.String()),
	)

	if src == SourceLocal && def.Mapped() && s.dispatcher != nil {
		s.dispatcher.Dispatch(s.name, def, def.toEngine(v), class)
	}

	// The authoritative binding propagates local edits and engine intake
	// alike; a stale projection would let two panels disagree on one
	// logical value. Peer writes never re-emit, so no ping-pong.
	if src != SourcePeer {
		if bind, ok := s.mirrors[key]; ok && bind.authoritative && s.bus != nil {
			s.bus.Publish(MirrorEvent{
				Name:   bind.name,
				Value:  v,
				Source: src,
				Origin: s.name,
			})
		}
	}
	return true
}
