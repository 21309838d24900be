package slab

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicMetricsCollector(t *testing.T) {
	mc := &BasicMetricsCollector{}
	p := MustNew[point](3, WithMetricsCollector(mc))

	a, _, _ := p.New()
	b, _, _ := p.New()
	_, _, _ = p.New()
	_, _, ok := p.New()
	require.False(t, ok)

	stale := a
	require.NoError(t, p.Free(&a))
	require.ErrorIs(t, p.Free(&stale), ErrDoubleFree)

	_, _, err := p.Alloc(func(*point) error { return errors.New("nope") })
	require.Error(t, err)

	require.NoError(t, p.Free(&b))
	require.NoError(t, p.Close())

	stats := mc.GetStats()
	assert.Equal(t, int64(3), stats.Capacity)
	assert.Positive(t, stats.BytesReserved)
	assert.Equal(t, int64(3), stats.AllocCount)
	assert.Equal(t, int64(3), stats.PeakLive)
	assert.Equal(t, int64(1), stats.ExhaustedCount)
	assert.Equal(t, int64(2), stats.FreeCount)
	assert.Equal(t, int64(1), stats.DoubleFrees)
	assert.Equal(t, int64(1), stats.ConstructFailures)
	assert.Equal(t, int64(1), stats.DestroyedOnClose)
	assert.Equal(t, int64(0), stats.Live)
}

func TestBasicMetricsCollector_Reset(t *testing.T) {
	mc := &BasicMetricsCollector{}
	p := MustNew[point](4, WithMetricsCollector(mc))
	defer p.Close()

	for i := 0; i < 4; i++ {
		_, _, _ = p.New()
	}
	p.Reset()

	stats := mc.GetStats()
	assert.Equal(t, int64(4), stats.FreeCount)
	assert.Equal(t, int64(0), stats.Live)
	assert.Equal(t, int64(4), stats.PeakLive)
}

func TestNoopMetricsCollector(t *testing.T) {
	var mc MetricsCollector = NoopMetricsCollector{}
	mc.RecordCreate(1, 1)
	mc.RecordAlloc(1, nil)
	mc.RecordExhausted()
	mc.RecordFree(0, nil)
	mc.RecordClose(0)

	p := MustNew[point](1, WithMetricsCollector(nil))
	defer p.Close()
	_, _, ok := p.New()
	assert.True(t, ok)
}
