package slab

import (
	"context"
	"fmt"
	"iter"
	"unsafe"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/time/rate"

	"github.com/hupe1980/slab/internal/conv"
	"github.com/hupe1980/slab/resource"
)

// Pool is a fixed-capacity slab of values of type T.
//
// All capacity slots are reserved up front. Free slots are chained into a
// singly linked free list in ascending index order; allocation pops the head
// and Free pushes the released slot back on the head, so the most recently
// freed slot is the next one handed out. Both are O(1).
//
// Every slot is either Free (on the free list, holding the zero value) or
// Live (holding a constructed value, its bit set in the live bitmap). While a
// constructor runs, its slot is in neither state. The free list always has
// exactly Available() entries.
//
// A Pool is not safe for concurrent use. Wrap it in Locked when several
// goroutines share it.
type Pool[T any] struct {
	id       uint32
	capacity int
	store    *storage[T]
	meta     []slotMeta
	live     *bitset.BitSet
	head     int32
	count    int
	pending  int  // constructors and destructors running
	draining bool // Reset is releasing live values
	closed   bool

	name       string
	destroy    func(*T)
	logger     *Logger
	metrics    MetricsCollector
	controller *resource.Controller
	reserved   int64

	exhaustLog *rate.Limiter
	suppressed uint64

	stats counters
}

type counters struct {
	allocs            uint64
	frees             uint64
	exhausted         uint64
	doubleFrees       uint64
	constructFailures uint64
}

// Stats is a point-in-time summary of a pool.
type Stats struct {
	Capacity int
	Live     int
	Free     int

	// SlotSize is max(sizeof(T), sizeof(uintptr)): the per-object cost a slab
	// with an in-slot free-list link would have.
	SlotSize uintptr
	// BytesReserved is the real footprint: values, per-slot metadata and the
	// live bitmap.
	BytesReserved int64
	OffHeap       bool

	TotalAllocs       uint64 // successful allocations
	TotalFrees        uint64 // releases, including those done by Reset
	Exhausted         uint64 // allocation attempts on a full pool
	DoubleFrees       uint64 // rejected Free calls
	ConstructFailures uint64 // constructor errors and panics rolled back
}

// New creates a pool with room for exactly capacity values of T.
// No value is constructed; every slot starts Free and zeroed.
//
// When a memory controller is configured, New fails fast with an error
// wrapping resource.ErrMemoryLimitExceeded if the budget cannot cover the
// pool. Use NewContext to wait for budget instead.
func New[T any](capacity int, opts ...Option) (*Pool[T], error) {
	return newPool[T](context.Background(), false, capacity, opts)
}

// NewContext is like New but waits for the memory controller to have enough
// budget, until ctx is done.
func NewContext[T any](ctx context.Context, capacity int, opts ...Option) (*Pool[T], error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return newPool[T](ctx, true, capacity, opts)
}

// MustNew is like New but panics on error.
func MustNew[T any](capacity int, opts ...Option) *Pool[T] {
	p, err := New[T](capacity, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func newPool[T any](ctx context.Context, wait bool, capacity int, opts []Option) (*Pool[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if _, err := conv.IntToInt32(capacity); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCapacity, err)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var destroy func(*T)
	if o.destructor != nil {
		fn, ok := o.destructor.(func(*T))
		if !ok {
			return nil, fmt.Errorf("%w: got %T for %T", ErrDestructorType, o.destructor, (*T)(nil))
		}
		destroy = fn
	}

	reserved, err := footprint[T](capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCapacity, err)
	}

	if wait {
		err = o.controller.AcquireMemory(ctx, reserved)
	} else {
		err = o.controller.TryAcquireMemory(reserved)
	}
	if err != nil {
		return nil, fmt.Errorf("slab: reserve %d bytes for %q: %w", reserved, o.name, err)
	}

	var store *storage[T]
	if o.offHeap {
		store, err = newOffHeapStorage[T](capacity)
		if err != nil {
			o.controller.ReleaseMemory(reserved)
			return nil, err
		}
	} else {
		store = newHeapStorage[T](capacity)
	}

	limit := rate.Inf
	if o.exhaustionLogInterval > 0 {
		limit = rate.Every(o.exhaustionLogInterval)
	}

	p := &Pool[T]{
		id:         nextPoolID(),
		capacity:   capacity,
		store:      store,
		meta:       make([]slotMeta, capacity),
		live:       bitset.New(uint(capacity)),
		name:       o.name,
		destroy:    destroy,
		logger:     o.logger.WithPool(o.name, capacity),
		metrics:    o.metricsCollector,
		controller: o.controller,
		reserved:   reserved,
		exhaustLog: rate.NewLimiter(limit, 1),
	}

	for i := range p.meta {
		p.meta[i].gen = firstGen
	}
	p.chain()

	p.metrics.RecordCreate(capacity, reserved)
	p.logger.LogCreated(context.Background(), slotSize[T](), reserved, store.offHeap())

	return p, nil
}

// footprint returns the bytes a pool of n values of T holds for its lifetime.
func footprint[T any](n int) (int64, error) {
	var zero T
	perSlot := int64(unsafe.Sizeof(zero)) + int64(unsafe.Sizeof(slotMeta{}))
	slots, err := conv.MulInt64(perSlot, int64(n))
	if err != nil {
		return 0, err
	}
	bitmap := (int64(n) + 63) / 64 * 8
	return slots + bitmap, nil
}

func slotSize[T any]() uintptr {
	var zero T
	return max(unsafe.Sizeof(zero), unsafe.Sizeof(uintptr(0)))
}

// chain links every slot that is neither live nor under construction into
// the free list in ascending index order.
func (p *Pool[T]) chain() {
	p.head = noSlot
	tail := noSlot
	for i := range p.meta {
		if p.meta[i].next == busy || p.live.Test(uint(i)) {
			continue
		}
		idx := int32(i) //nolint:gosec // bounded by capacity <= MaxInt32
		p.meta[i].next = noSlot
		if tail == noSlot {
			p.head = idx
		} else {
			p.meta[tail].next = idx
		}
		tail = idx
	}
}

// Alloc takes the slot at the head of the free list and constructs a value
// in it by calling init with a pointer to the zeroed slot. A nil init keeps
// the zero value.
//
// If the pool is exhausted Alloc returns None, a nil pointer and a nil
// error: exhaustion is an expected outcome, not a failure.
//
// If init returns an error or panics, the slot is zeroed and put back at the
// head of the free list before the error is returned (or the panic
// continues), so a failed construction never consumes a slot. The slot is
// unlinked while init runs, so init may itself allocate from the pool or
// free other handles. Closing the pool from init fails with ErrBusy.
//
// The returned pointer stays valid until the handle is freed or the pool is
// closed.
func (p *Pool[T]) Alloc(init func(*T) error) (Handle, *T, error) {
	if p.closed {
		return None, nil, ErrClosed
	}
	if p.draining {
		return None, nil, ErrBusy
	}

	idx := p.head
	if idx == noSlot {
		p.exhausted()
		return None, nil, nil
	}

	m := &p.meta[idx]
	p.head = m.next
	m.next = busy

	v := &p.store.values[idx]
	if init != nil {
		if err := p.construct(idx, v, init); err != nil {
			return None, nil, err
		}
	}
	p.meta[idx].next = noSlot

	p.live.Set(uint(idx))
	p.count++
	p.stats.allocs++
	p.metrics.RecordAlloc(p.count, nil)

	return p.handle(idx), v, nil
}

// New allocates a zero value. ok is false if the pool is exhausted or closed.
func (p *Pool[T]) New() (Handle, *T, bool) {
	h, v, err := p.Alloc(nil)
	return h, v, err == nil && v != nil
}

// Insert allocates a copy of val. ok is false if the pool is exhausted or closed.
func (p *Pool[T]) Insert(val T) (Handle, *T, bool) {
	h, v, ok := p.New()
	if ok {
		*v = val
	}
	return h, v, ok
}

func (p *Pool[T]) construct(idx int32, v *T, init func(*T) error) error {
	p.pending++
	defer func() {
		p.pending--
	}()
	defer func() {
		if r := recover(); r != nil {
			p.rollback(idx, fmt.Errorf("slab: constructor panicked: %v", r))
			panic(r)
		}
	}()

	if err := init(v); err != nil {
		p.rollback(idx, err)
		return err
	}
	return nil
}

// rollback returns a slot whose construction failed to the free-list head.
func (p *Pool[T]) rollback(idx int32, cause error) {
	p.store.clear(idx)
	p.meta[idx].next = p.head
	p.head = idx

	p.stats.constructFailures++
	p.metrics.RecordAlloc(p.count, cause)
	p.logger.LogConstructFailed(context.Background(), idx, cause)
}

func (p *Pool[T]) exhausted() {
	p.stats.exhausted++
	p.metrics.RecordExhausted()

	if !p.exhaustLog.Allow() {
		p.suppressed++
		return
	}
	p.logger.LogExhausted(context.Background(), p.count, p.suppressed)
	p.suppressed = 0
}

// Free destroys the value h refers to and returns its slot to the head of
// the free list. On success *h is set to None.
//
// A nil pointer, None, or a handle issued by another pool is ignored and
// Free returns nil. A handle whose slot is already free, or was freed and
// reallocated since h was issued, is rejected with ErrDoubleFree and the
// pool is left unchanged.
func (p *Pool[T]) Free(h *Handle) error {
	if h == nil || h.IsNone() {
		return nil
	}
	if p.closed {
		return ErrClosed
	}
	if !p.owns(*h) {
		p.logger.LogForeignFree(context.Background(), *h)
		return nil
	}

	idx := int32(h.index) //nolint:gosec // owns checked index < capacity
	if p.meta[idx].gen != h.gen || !p.live.Test(uint(idx)) {
		err := fmt.Errorf("%w: %s", ErrDoubleFree, h)
		p.stats.doubleFrees++
		p.metrics.RecordFree(p.count, err)
		p.logger.LogDoubleFree(context.Background(), *h)
		return err
	}

	p.release(idx)
	p.meta[idx].next = p.head
	p.head = idx

	p.stats.frees++
	p.metrics.RecordFree(p.count, nil)

	*h = None
	return nil
}

// release destroys the value in a live slot and marks it Free. The caller
// links the slot into the free list. The slot is no longer live while the
// destructor runs, and chain skips it.
func (p *Pool[T]) release(idx int32) {
	p.live.Clear(uint(idx))
	p.count--
	if p.destroy != nil {
		p.meta[idx].next = busy
		p.pending++
		p.destroy(&p.store.values[idx])
		p.pending--
		p.meta[idx].next = noSlot
	}
	p.store.clear(idx)
	p.meta[idx].gen = nextGen(p.meta[idx].gen)
}

// Get returns the value h refers to, or nil if h is None, foreign, or stale.
func (p *Pool[T]) Get(h Handle) *T {
	idx, ok := p.resolve(h)
	if !ok {
		return nil
	}
	return &p.store.values[idx]
}

// Contains reports whether h refers to a live value of this pool.
func (p *Pool[T]) Contains(h Handle) bool {
	_, ok := p.resolve(h)
	return ok
}

func (p *Pool[T]) owns(h Handle) bool {
	return !p.closed && h.pool == p.id && int(h.index) < p.capacity
}

func (p *Pool[T]) resolve(h Handle) (int32, bool) {
	if !p.owns(h) {
		return 0, false
	}
	idx := int32(h.index) //nolint:gosec // owns checked index < capacity
	if p.meta[idx].gen != h.gen || !p.live.Test(uint(idx)) {
		return 0, false
	}
	return idx, true
}

func (p *Pool[T]) handle(idx int32) Handle {
	return Handle{pool: p.id, index: uint32(idx), gen: p.meta[idx].gen} //nolint:gosec // idx >= 0
}

// Size returns the number of live values.
func (p *Pool[T]) Size() int {
	return p.count
}

// Cap returns the fixed capacity.
func (p *Pool[T]) Cap() int {
	return p.capacity
}

// Available returns the number of free slots. Slots whose constructor or
// destructor is running count as neither free nor live.
func (p *Pool[T]) Available() int {
	if p.closed {
		return 0
	}
	return p.capacity - p.count - p.pending
}

// All iterates over the live values in slot order. Freeing the value
// currently yielded is allowed; allocating during iteration may or may not
// visit the new value.
func (p *Pool[T]) All() iter.Seq2[Handle, *T] {
	return func(yield func(Handle, *T) bool) {
		if p.closed {
			return
		}
		for i, ok := p.live.NextSet(0); ok; i, ok = p.live.NextSet(i + 1) {
			idx := int32(i) //nolint:gosec // bit index < capacity
			if !yield(p.handle(idx), &p.store.values[idx]) {
				return
			}
		}
	}
}

// Reset destroys every live value and restores the initial free-list order.
// Handles issued before Reset become stale. Destructors may free other
// handles, but Alloc fails with ErrBusy until Reset returns. A nested Reset
// is a no-op.
func (p *Pool[T]) Reset() {
	if p.closed || p.draining {
		return
	}

	p.draining = true
	for i, ok := p.live.NextSet(0); ok; i, ok = p.live.NextSet(i + 1) {
		p.release(int32(i)) //nolint:gosec // bit index < capacity
		p.stats.frees++
		p.metrics.RecordFree(p.count, nil)
	}
	p.draining = false
	p.chain()

	if err := p.store.reclaim(); err != nil {
		p.logger.DebugContext(context.Background(), "reclaim hint failed", "error", err)
	}
}

// Stats returns a summary of the pool.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		Capacity:          p.capacity,
		Live:              p.count,
		Free:              p.Available(),
		SlotSize:          slotSize[T](),
		BytesReserved:     p.reserved,
		OffHeap:           p.store.offHeap(),
		TotalAllocs:       p.stats.allocs,
		TotalFrees:        p.stats.frees,
		Exhausted:         p.stats.exhausted,
		DoubleFrees:       p.stats.doubleFrees,
		ConstructFailures: p.stats.constructFailures,
	}
}

func (p *Pool[T]) String() string {
	s := p.Stats()
	return fmt.Sprintf(
		"Pool{name: %s, live: %d/%d, slot: %d B, reserved: %.2f KB, off-heap: %t, allocs: %d, frees: %d, exhausted: %d}",
		p.name,
		s.Live, s.Capacity,
		s.SlotSize,
		float64(s.BytesReserved)/1024,
		s.OffHeap,
		s.TotalAllocs, s.TotalFrees, s.Exhausted,
	)
}

// Close tears the pool down. Values that are still live are destroyed in
// slot order (the destructor runs for each), the storage is released and the
// memory reservation is returned to the controller.
//
// After Close every handle is stale, Alloc and Free return ErrClosed, and
// pointers obtained from the pool must not be used. This already holds for
// destructors run by Close. Close is idempotent.
//
// Close returns ErrBusy and does nothing when called from a constructor, or
// from a destructor run by Free or Reset.
func (p *Pool[T]) Close() error {
	if p.closed {
		return nil
	}
	if p.pending > 0 || p.draining {
		return ErrBusy
	}

	p.closed = true
	destroyed := p.count
	for i, ok := p.live.NextSet(0); ok; i, ok = p.live.NextSet(i + 1) {
		p.release(int32(i)) //nolint:gosec // bit index < capacity
	}

	p.head = noSlot
	p.meta = nil
	err := p.store.close()
	p.controller.ReleaseMemory(p.reserved)

	p.metrics.RecordClose(destroyed)
	p.logger.LogClosed(context.Background(), destroyed, err)

	return err
}
