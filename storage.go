package slab

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/hupe1980/slab/internal/mmap"
)

// slotMeta is the free-list bookkeeping of one slot. It lives beside the
// value instead of inside it, so a Free slot never reinterprets the bytes
// of T as a link.
type slotMeta struct {
	next int32  // next free slot, noSlot, or busy
	gen  uint32 // bumped on every release
}

const (
	// noSlot terminates the free list.
	noSlot int32 = -1
	// busy marks a slot whose constructor or destructor is running.
	busy int32 = -2
)

// storage is the fixed backing region of a pool: exactly one T per slot,
// contiguous, never resized.
type storage[T any] struct {
	values  []T
	mapping *mmap.Mapping // non-nil for off-heap storage
}

func newHeapStorage[T any](n int) *storage[T] {
	return &storage[T]{values: make([]T, n)}
}

func newOffHeapStorage[T any](n int) (*storage[T], error) {
	var zero T
	if hasPointers(reflect.TypeOf(&zero).Elem()) {
		return nil, fmt.Errorf("%w: %T", ErrOffHeapPointers, zero)
	}

	size := unsafe.Sizeof(zero)
	if size == 0 {
		return newHeapStorage[T](n), nil
	}

	mapping, err := mmap.MapAnon(int(size) * n)
	if err != nil {
		return nil, fmt.Errorf("slab: failed to map off-heap storage: %w", err)
	}

	data := mapping.Bytes()
	values := unsafe.Slice((*T)(unsafe.Pointer(&data[0])), n) //nolint:gosec // unsafe is required for off-heap storage

	return &storage[T]{values: values, mapping: mapping}, nil
}

func (s *storage[T]) offHeap() bool {
	return s.mapping != nil
}

// clear zeroes one slot.
func (s *storage[T]) clear(i int32) {
	var zero T
	s.values[i] = zero
}

// reclaim hints that the whole region holds only zero values and its pages
// may be dropped until they are touched again.
func (s *storage[T]) reclaim() error {
	if s.mapping == nil {
		return nil
	}
	return s.mapping.Advise(mmap.AccessDontNeed)
}

func (s *storage[T]) close() error {
	s.values = nil
	if s.mapping == nil {
		return nil
	}
	return s.mapping.Close()
}

// hasPointers reports whether values of t may hold Go pointers.
func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
