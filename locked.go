package slab

import (
	"context"
	"sync"
)

// Locked serializes every operation of a Pool behind one mutex.
//
// The free-list pop and push are not atomic, so a Pool shared between
// goroutines needs exactly this discipline. Pointers returned by Alloc, New,
// Insert and Get are not protected: synchronizing access to the values
// themselves is up to the caller.
type Locked[T any] struct {
	mu   sync.Mutex
	pool *Pool[T]
}

// NewLocked creates a Pool and wraps it in a Locked.
func NewLocked[T any](capacity int, opts ...Option) (*Locked[T], error) {
	p, err := New[T](capacity, opts...)
	if err != nil {
		return nil, err
	}
	return Lock(p), nil
}

// NewLockedContext is like NewLocked but waits for memory budget, see NewContext.
func NewLockedContext[T any](ctx context.Context, capacity int, opts ...Option) (*Locked[T], error) {
	p, err := NewContext[T](ctx, capacity, opts...)
	if err != nil {
		return nil, err
	}
	return Lock(p), nil
}

// Lock wraps an existing pool. The caller must not use p directly afterwards.
func Lock[T any](p *Pool[T]) *Locked[T] {
	return &Locked[T]{pool: p}
}

// Alloc is the synchronized form of Pool.Alloc. init runs with the lock held
// and must not call back into l.
func (l *Locked[T]) Alloc(init func(*T) error) (Handle, *T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Alloc(init)
}

// New is the synchronized form of Pool.New.
func (l *Locked[T]) New() (Handle, *T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.New()
}

// Insert is the synchronized form of Pool.Insert.
func (l *Locked[T]) Insert(val T) (Handle, *T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Insert(val)
}

// Free is the synchronized form of Pool.Free.
func (l *Locked[T]) Free(h *Handle) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Free(h)
}

// Get is the synchronized form of Pool.Get.
func (l *Locked[T]) Get(h Handle) *T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Get(h)
}

// Contains is the synchronized form of Pool.Contains.
func (l *Locked[T]) Contains(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Contains(h)
}

// Size is the synchronized form of Pool.Size.
func (l *Locked[T]) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Size()
}

// Cap returns the fixed capacity.
func (l *Locked[T]) Cap() int {
	return l.pool.Cap()
}

// Available is the synchronized form of Pool.Available.
func (l *Locked[T]) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Available()
}

// Range calls fn for every live value in slot order, holding the lock for
// the whole iteration. fn must not call back into l. Iteration stops when fn
// returns false.
func (l *Locked[T]) Range(fn func(Handle, *T) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for h, v := range l.pool.All() {
		if !fn(h, v) {
			return
		}
	}
}

// Reset is the synchronized form of Pool.Reset.
func (l *Locked[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pool.Reset()
}

// Stats is the synchronized form of Pool.Stats.
func (l *Locked[T]) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Stats()
}

func (l *Locked[T]) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.String()
}

// Close is the synchronized form of Pool.Close.
func (l *Locked[T]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pool.Close()
}
