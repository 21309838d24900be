package slab

import (
	"errors"
)

var (
	// ErrInvalidCapacity is returned by New when the capacity is not in [1, math.MaxInt32].
	ErrInvalidCapacity = errors.New("slab: capacity must be in [1, MaxInt32]")

	// ErrClosed is returned when operating on a pool after Close.
	ErrClosed = errors.New("slab: pool is closed")

	// ErrBusy is returned by Close while a constructor or destructor is
	// running, and by Alloc while Reset is destroying values.
	ErrBusy = errors.New("slab: pool is busy")

	// ErrDoubleFree is returned by Free when the handle refers to a slot that
	// is already free or has been reused since the handle was issued.
	// The pool state is left untouched.
	ErrDoubleFree = errors.New("slab: double free or stale handle")

	// ErrOffHeapPointers is returned when off-heap storage is requested for an
	// element type containing Go pointers, which the garbage collector
	// cannot see outside the Go heap.
	ErrOffHeapPointers = errors.New("slab: off-heap storage requires a pointer-free element type")

	// ErrDestructorType is returned when WithDestructor was given a function
	// for a different element type than the pool's.
	ErrDestructorType = errors.New("slab: destructor does not match element type")
)
