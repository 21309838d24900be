package slab

import (
	"fmt"
	"sync/atomic"
)

// Handle identifies one allocation of one pool.
//
// It replaces a raw pointer as the unit of ownership: the pool resolves it
// with a bounds check against its own storage, and the generation detects
// handles that outlived their allocation. The zero Handle is None.
type Handle struct {
	pool  uint32
	index uint32
	gen   uint32
}

// None is the zero Handle. It is what allocation returns on an exhausted
// pool and what Free leaves behind in the caller's variable.
var None Handle

// IsNone reports whether h refers to no allocation.
func (h Handle) IsNone() bool {
	return h == None
}

// Index returns the slot index within the issuing pool.
func (h Handle) Index() int {
	return int(h.index)
}

func (h Handle) String() string {
	if h.IsNone() {
		return "slab.None"
	}
	return fmt.Sprintf("slab.Handle{pool: %d, slot: %d, gen: %d}", h.pool, h.index, h.gen)
}

// poolIDs hands out process-unique pool identifiers, so a handle presented to
// the wrong pool is recognized as foreign even when its index is in range.
var poolIDs atomic.Uint32

func nextPoolID() uint32 {
	for {
		if id := poolIDs.Add(1); id != 0 {
			return id
		}
	}
}

// firstGen is the generation of a slot that was never released.
// Generation 0 is never issued, which keeps every valid handle non-zero.
const firstGen uint32 = 1

func nextGen(gen uint32) uint32 {
	gen++
	if gen == 0 {
		gen = firstGen
	}
	return gen
}
