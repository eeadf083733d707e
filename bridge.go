package refract

import (
	"context"

	"github.com/zoobzio/capitan"
)

// Bridge is the composition root: it owns the domain stores, the
// dispatcher, the capture registry, the mirror bus, and the preset
// manager, and routes engine-originated events inward.
//
// The intake path is one-directional and distinct from the outward update
// path: values arriving through facade events are written to cells tagged
// SourceEngine and are never echoed back as pushes.
type Bridge struct {
	facade     Facade
	dispatcher *Dispatcher
	registry   *CaptureRegistry
	bus        *MirrorBus
	presets    *Manager

	stores map[string]*Store
	order  []string
	unsub  func()
}

// BridgeOption configures a Bridge.
type BridgeOption func(*bridgeConfig)

type bridgeConfig struct {
	domains        []DomainSpec
	dispatcherOpts []DispatcherOption
	managerOpts    []ManagerOption
}

// WithDomains replaces the built-in domain specs.
func WithDomains(domains []DomainSpec) BridgeOption {
	return func(c *bridgeConfig) {
		c.domains = domains
	}
}

// WithDispatcherOptions forwards options to the bridge's dispatcher.
func WithDispatcherOptions(opts ...DispatcherOption) BridgeOption {
	return func(c *bridgeConfig) {
		c.dispatcherOpts = append(c.dispatcherOpts, opts...)
	}
}

// WithManagerOptions forwards options to the bridge's preset manager.
func WithManagerOptions(opts ...ManagerOption) BridgeOption {
	return func(c *bridgeConfig) {
		c.managerOpts = append(c.managerOpts, opts...)
	}
}

// NewBridge assembles the full parameter bridge over a facade and preset
// storage. The transparency flag is mirrored with the color domain
// authoritative and the export domain a read-only projection.
func NewBridge(facade Facade, storage Storage, opts ...BridgeOption) *Bridge {
	cfg := &bridgeConfig{domains: DefaultDomains()}
	for _, opt := range opts {
		opt(cfg)
	}

	b := &Bridge{
		facade:     facade,
		dispatcher: NewDispatcher(facade, cfg.dispatcherOpts...),
		registry:   NewCaptureRegistry(),
		bus:        NewMirrorBus(),
		stores:     make(map[string]*Store, len(cfg.domains)),
	}

	for _, spec := range cfg.domains {
		store := NewStore(spec.Name, spec.Definitions, facade, b.dispatcher)
		b.stores[spec.Name] = store
		b.order = append(b.order, spec.Name)
	}

	if color, ok := b.stores[DomainColor]; ok {
		color.BindMirror(b.bus, MirrorTransparentBackground, "transparentBackground", true)
	}
	if export, ok := b.stores[DomainExport]; ok {
		export.BindMirror(b.bus, MirrorTransparentBackground, "transparentBackground", false)
	}

	b.presets = NewManager(facade, storage, cfg.managerOpts...)
	for _, name := range b.order {
		b.presets.Register(b.stores[name])
	}

	b.unsub = facade.Subscribe(b.handleEvent)
	return b
}

// Store returns the domain store by name, or nil.
func (b *Bridge) Store(name string) *Store {
	return b.stores[name]
}

// Stores returns the domain stores in registration order.
func (b *Bridge) Stores() []*Store {
	out := make([]*Store, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.stores[name])
	}
	return out
}

// Presets returns the preset manager.
func (b *Bridge) Presets() *Manager {
	return b.presets
}

// Capture returns the exclusive-capture registry shared by all controls.
func (b *Bridge) Capture() *CaptureRegistry {
	return b.registry
}

// Dispatcher returns the update dispatcher.
func (b *Bridge) Dispatcher() *Dispatcher {
	return b.dispatcher
}

// SyncAll pulls every store from the engine. Used once the facade
// finishes initializing, to catch up pushes that were skipped while
// offline. Returns false when the engine is still unavailable.
func (b *Bridge) SyncAll() bool {
	if !b.facade.IsInitialized() {
		return false
	}
	for _, name := range b.order {
		b.stores[name].SyncWithFacade()
	}
	return true
}

// Close detaches the bridge from the facade and cancels pending pushes.
func (b *Bridge) Close() {
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
	b.dispatcher.Close()
	for _, name := range b.order {
		b.stores[name].Close()
	}
}

// handleEvent routes one engine-originated event inward.
func (b *Bridge) handleEvent(ev Event) {
	switch e := ev.(type) {
	case ParamChanged:
		for _, name := range b.order {
			if b.stores[name].ApplyEngineValue(e.Name, e.Value) {
				return
			}
		}

	case PresetApplied:
		// Engine-initiated preset change (its own UI, hotkeys): fan the
		// new state out to every store.
		for _, name := range b.order {
			b.stores[name].SyncWithFacade()
		}
		capitan.Emit(context.Background(), PresetAppliedSignal,
			KeyPreset.Field(e.Name),
			KeyCount.Field(len(e.AffectedKeys)),
		)
	}
}
