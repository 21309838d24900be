// Package resource implements a shared memory budget for slab pools.
//
// Every pool attached to a Controller reserves its full backing footprint
// (values plus per-slot metadata) when it is created and returns it on Close.
// Because a slab never grows, this is the only point where accounting happens:
// Alloc and Free never touch the controller.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20, // 64 MiB for all pools
//	})
//
//	p, err := slab.New[Order](100_000, slab.WithMemoryController(rc))
//	if errors.Is(err, resource.ErrMemoryLimitExceeded) {
//	    // budget exhausted - fail fast
//	}
//
//	// Or wait for another pool to be closed:
//	p, err = slab.NewContext[Order](ctx, 100_000, slab.WithMemoryController(rc))
//
// TryAcquireMemory never blocks; AcquireMemory waits on a weighted semaphore
// (golang.org/x/sync/semaphore) until enough bytes are released or the
// context is done.
package resource
