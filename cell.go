package refract

import (
	"sync"
	"sync/atomic"
)

// cellIDs allocates identities for batch deduplication.
var cellIDs atomic.Uint64

// Observable is anything a computed cell can depend on.
type Observable interface {
	// onChange registers a change callback and returns an unsubscribe
	// function. The callback receives no value; dependents re-read.
	onChange(fn func()) func()
}

// Cell is an observable single-value container. Writes notify subscribers
// exactly once per distinct value transition; writing the current value is
// a no-op. A validator, when set, rejects bad writes and keeps the
// previous value.
//
// The dynamic type of T must be comparable unless a custom equality
// function is supplied.
type Cell[T any] struct {
	id       uint64
	mu       sync.Mutex
	value    T
	notified T // last value delivered to subscribers
	validate func(T) bool
	equal    func(a, b T) bool
	subs     map[uint64]func(T)
	nextSub  uint64
}

// CellOption configures a Cell.
type CellOption[T any] func(*Cell[T])

// WithValidator sets a validation predicate. Writes failing it are
// rejected and return false.
func WithValidator[T any](fn func(T) bool) CellOption[T] {
	return func(c *Cell[T]) {
		c.validate = fn
	}
}

// WithEquality overrides the equality test used to suppress duplicate
// notifications. The default compares via interface equality.
func WithEquality[T any](fn func(a, b T) bool) CellOption[T] {
	return func(c *Cell[T]) {
		c.equal = fn
	}
}

// NewCell creates a Cell holding initial.
func NewCell[T any](initial T, opts ...CellOption[T]) *Cell[T] {
	c := &Cell[T]{
		id:       cellIDs.Add(1),
		value:    initial,
		notified: initial,
		equal:    func(a, b T) bool { return any(a) == any(b) },
		subs:     make(map[uint64]func(T)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns the current value.
func (c *Cell[T]) Read() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Write stores v and notifies subscribers if the value changed.
// Returns false when v fails validation; the previous value is retained
// and nobody is notified.
func (c *Cell[T]) Write(v T) bool {
	c.mu.Lock()
	if c.validate != nil && !c.validate(v) {
		c.mu.Unlock()
		return false
	}
	if c.equal(c.value, v) {
		c.mu.Unlock()
		return true
	}
	c.value = v
	c.mu.Unlock()

	if !batches.enqueue(c.id, c.flush) {
		c.flush()
	}
	return true
}

// Subscribe registers fn to receive value changes. The returned function
// unsubscribes; calling it more than once is harmless.
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// onChange implements Observable.
func (c *Cell[T]) onChange(fn func()) func() {
	return c.Subscribe(func(T) { fn() })
}

// flush delivers the pending transition, if any, to subscribers.
// Outside a batch it runs immediately after Write; inside a batch it runs
// once at the outermost batch end, so intermediate values are never seen.
func (c *Cell[T]) flush() {
	c.mu.Lock()
	if c.equal(c.notified, c.value) {
		// Value returned to the last notified state within the batch.
		c.mu.Unlock()
		return
	}
	v := c.value
	c.notified = v
	fns := make([]func(T), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Computed is a read-only cell derived from other observables. It
// re-evaluates synchronously, exactly once per dependency-change batch.
type Computed[T any] struct {
	id      uint64
	cell    *Cell[T]
	compute func() T
	unsubs  []func()
}

// Derive creates a Computed cell from a pure function of its dependencies.
// The function is evaluated once immediately and again whenever any
// dependency changes (once per batch, not once per dependency).
func Derive[T any](compute func() T, deps ...Observable) *Computed[T] {
	d := &Computed[T]{
		id:      cellIDs.Add(1),
		cell:    NewCell(compute()),
		compute: compute,
	}
	for _, dep := range deps {
		d.unsubs = append(d.unsubs, dep.onChange(d.depChanged))
	}
	return d
}

// Read returns the current derived value.
func (d *Computed[T]) Read() T {
	return d.cell.Read()
}

// Subscribe registers fn to receive derived value changes.
func (d *Computed[T]) Subscribe(fn func(T)) func() {
	return d.cell.Subscribe(fn)
}

// onChange implements Observable, so computed cells can feed other
// computed cells.
func (d *Computed[T]) onChange(fn func()) func() {
	return d.cell.onChange(fn)
}

// Detach unsubscribes from all dependencies. The last derived value
// remains readable.
func (d *Computed[T]) Detach() {
	for _, u := range d.unsubs {
		u()
	}
	d.unsubs = nil
}

// depChanged defers the re-evaluation while a batch is settling, so two
// dependencies changing in one batch evaluate the function once.
func (d *Computed[T]) depChanged() {
	if !batches.enqueue(d.id, d.recompute) {
		d.recompute()
	}
}

func (d *Computed[T]) recompute() {
	d.cell.Write(d.compute())
}

// batcher coalesces cell notifications. While a batch is open, each
// written cell defers a single flush keyed by cell identity; flushes run
// in first-write order at the outermost batch end, after every cell in
// the batch already holds its new value.
type batcher struct {
	mu       sync.Mutex
	depth    int
	draining bool
	order    []uint64
	pending  map[uint64]func()
}

var batches = &batcher{pending: make(map[uint64]func())}

// Batch runs fn with cell notifications deferred until fn returns.
// Nested batches flush once, at the outermost end. Within a batch a cell
// notifies at most once, with its final value.
func Batch(fn func()) {
	batches.begin()
	defer batches.end()
	fn()
}

func (b *batcher) begin() {
	b.mu.Lock()
	b.depth++
	b.mu.Unlock()
}

func (b *batcher) end() {
	b.mu.Lock()
	b.depth--
	if b.depth > 0 {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	b.drain()
}

// enqueue queues a deferred flush or recompute keyed by id. Returns false
// when no batch is open and nothing is settling, in which case the caller
// runs immediately. Deduplication means a cell notifies, and a computed
// evaluates, at most once per batch.
func (b *batcher) enqueue(id uint64, fn func()) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.depth == 0 && !b.draining {
		return false
	}
	if _, ok := b.pending[id]; !ok {
		b.order = append(b.order, id)
	}
	b.pending[id] = fn
	return true
}

// drain settles the queue. Entries may enqueue further work (computed
// cascades); it all settles within this drain, still deduplicated.
func (b *batcher) drain() {
	b.mu.Lock()
	if b.draining {
		// A nested Batch inside a settling subscriber; the outer drain
		// finishes the queue.
		b.mu.Unlock()
		return
	}
	b.draining = true
	for len(b.order) > 0 {
		id := b.order[0]
		b.order = b.order[1:]
		fn := b.pending[id]
		delete(b.pending, id)
		b.mu.Unlock()

		fn()

		b.mu.Lock()
	}
	b.draining = false
	b.mu.Unlock()
}
