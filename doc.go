// Package slab provides a fixed-capacity, fixed-element-size object pool.
//
// A Pool[T] reserves storage for exactly N values of T when it is created and
// never grows. Free slots are threaded into a singly linked free list, so
// allocation and release are O(1) and never touch the Go allocator.
//
// # Quick Start
//
//	p, err := slab.New[Order](1024)
//	if err != nil { ... }
//	defer p.Close()
//
//	h, o, err := p.Alloc(func(o *Order) error {
//	    o.ID = 42
//	    return nil
//	})
//	if err != nil { ... }      // the constructor failed, no slot was consumed
//	if h.IsNone() { ... }      // the pool is exhausted
//
//	o.Qty = 10                 // o points into the pool's storage
//
//	_ = p.Free(&h)             // h is None afterwards
//
// # Handles
//
// Allocation returns a Handle next to the pointer. A handle carries the
// issuing pool's id, the slot index and the slot's generation, so Free can
// tell a foreign handle (ignored) from a stale or double-freed one
// (ErrDoubleFree) without trusting raw addresses.
//
// # Reuse Order
//
// Slots are handed out in ascending order on a fresh pool. A freed slot goes
// to the head of the free list and is the next one allocated (LIFO), which
// keeps the working set hot in cache.
//
// # Storage
//
// By default values live in one Go slice. WithOffHeap moves them into an
// anonymous memory mapping outside the garbage collector's reach; this
// requires an element type without Go pointers.
//
// # Teardown
//
// Close destroys every value that is still live (running the WithDestructor
// function for each), releases the storage and returns the memory reservation.
//
// # Concurrency
//
// Pool is single-owner. Locked wraps a pool with a mutex for shared use.
package slab
