package slab

import (
	"sync/atomic"
)

// MetricsCollector defines an interface for collecting pool metrics.
// Implement this interface to integrate with monitoring systems like Prometheus
// (see the slabprom package for a ready-made implementation).
//
// Calls happen on the goroutine that owns the pool, inline with the operation,
// so implementations should be cheap and must not call back into the pool.
type MetricsCollector interface {
	// RecordCreate is called once when the pool has reserved its storage.
	RecordCreate(capacity int, bytesReserved int64)

	// RecordAlloc is called after each allocation that reached a free slot.
	// live is the live count afterwards, err is the constructor error if any.
	RecordAlloc(live int, err error)

	// RecordExhausted is called for each allocation attempt on a full pool.
	RecordExhausted()

	// RecordFree is called after each Free of an in-range handle.
	// err is ErrDoubleFree when the release was rejected.
	RecordFree(live int, err error)

	// RecordClose is called once on teardown with the number of live
	// objects that were destroyed by Close.
	RecordClose(destroyed int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCreate(int, int64) {}
func (NoopMetricsCollector) RecordAlloc(int, error)  {}
func (NoopMetricsCollector) RecordExhausted()        {}
func (NoopMetricsCollector) RecordFree(int, error)   {}
func (NoopMetricsCollector) RecordClose(int)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
// It is safe to share between pools and goroutines.
type BasicMetricsCollector struct {
	Capacity          atomic.Int64
	BytesReserved     atomic.Int64
	Live              atomic.Int64
	PeakLive          atomic.Int64
	AllocCount        atomic.Int64
	ConstructFailures atomic.Int64
	ExhaustedCount    atomic.Int64
	FreeCount         atomic.Int64
	DoubleFrees       atomic.Int64
	DestroyedOnClose  atomic.Int64
}

// RecordCreate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCreate(capacity int, bytesReserved int64) {
	b.Capacity.Add(int64(capacity))
	b.BytesReserved.Add(bytesReserved)
}

// RecordAlloc implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAlloc(live int, err error) {
	if err != nil {
		b.ConstructFailures.Add(1)
		return
	}
	b.AllocCount.Add(1)
	b.Live.Add(1)
	b.updatePeak(int64(live))
}

// RecordExhausted implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExhausted() {
	b.ExhaustedCount.Add(1)
}

// RecordFree implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFree(live int, err error) {
	if err != nil {
		b.DoubleFrees.Add(1)
		return
	}
	b.FreeCount.Add(1)
	b.Live.Add(-1)
}

// RecordClose implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClose(destroyed int) {
	b.DestroyedOnClose.Add(int64(destroyed))
	b.Live.Add(-int64(destroyed))
}

func (b *BasicMetricsCollector) updatePeak(live int64) {
	for {
		peak := b.PeakLive.Load()
		if live <= peak || b.PeakLive.CompareAndSwap(peak, live) {
			return
		}
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		Capacity:          b.Capacity.Load(),
		BytesReserved:     b.BytesReserved.Load(),
		Live:              b.Live.Load(),
		PeakLive:          b.PeakLive.Load(),
		AllocCount:        b.AllocCount.Load(),
		ConstructFailures: b.ConstructFailures.Load(),
		ExhaustedCount:    b.ExhaustedCount.Load(),
		FreeCount:         b.FreeCount.Load(),
		DoubleFrees:       b.DoubleFrees.Load(),
		DestroyedOnClose:  b.DestroyedOnClose.Load(),
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector counters.
type BasicMetricsStats struct {
	Capacity          int64
	BytesReserved     int64
	Live              int64
	PeakLive          int64
	AllocCount        int64
	ConstructFailures int64
	ExhaustedCount    int64
	FreeCount         int64
	DoubleFrees       int64
	DestroyedOnClose  int64
}
