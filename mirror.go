package refract

import "sync"

// MirrorEvent is a tagged cross-domain parameter propagation. Origin names
// the publishing domain so subscribers can skip their own publications.
type MirrorEvent struct {
	Name   string
	Value  Value
	Source Source
	Origin string
}

// MirrorBus carries logical values shared between independent domains.
// The authoritative domain publishes on local edits and engine intake;
// peers apply the value to their own cell tagged SourcePeer and never
// re-emit, so two domains can never ping-pong a shared value between
// each other.
type MirrorBus struct {
	mu      sync.Mutex
	subs    map[string]map[uint64]func(MirrorEvent)
	nextSub uint64
}

// NewMirrorBus creates an empty bus.
func NewMirrorBus() *MirrorBus {
	return &MirrorBus{subs: make(map[string]map[uint64]func(MirrorEvent))}
}

// Publish delivers a value change for a shared name to every subscriber.
func (b *MirrorBus) Publish(ev MirrorEvent) {
	b.mu.Lock()
	fns := make([]func(MirrorEvent), 0, len(b.subs[ev.Name]))
	for _, fn := range b.subs[ev.Name] {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Subscribe registers a handler for one shared name. Returns an
// unsubscribe function.
func (b *MirrorBus) Subscribe(name string, fn func(MirrorEvent)) func() {
	b.mu.Lock()
	if b.subs[name] == nil {
		b.subs[name] = make(map[uint64]func(MirrorEvent))
	}
	b.nextSub++
	id := b.nextSub
	b.subs[name][id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs[name], id)
		b.mu.Unlock()
	}
}
