package slab

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocked_Concurrent(t *testing.T) {
	const (
		capacity   = 128
		goroutines = 8
		iterations = 2000
	)

	l, err := NewLocked[point](capacity)
	require.NoError(t, err)
	defer l.Close()

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			var held []Handle
			for i := 0; i < iterations; i++ {
				if len(held) < capacity/goroutines {
					h, v, ok := l.Insert(point{X: int64(g), Y: int64(i)})
					if ok {
						assert.Equal(t, int64(g), v.X)
						held = append(held, h)
					}
					continue
				}
				h := held[0]
				held = held[1:]
				got := l.Get(h)
				if assert.NotNil(t, got) {
					assert.Equal(t, int64(g), got.X, "slot owned by another goroutine")
				}
				assert.NoError(t, l.Free(&h))
			}
			for i := range held {
				assert.NoError(t, l.Free(&held[i]))
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 0, l.Size())
	assert.Equal(t, capacity, l.Available())
	s := l.Stats()
	assert.Equal(t, s.TotalAllocs, s.TotalFrees)
}

func TestLocked_Operations(t *testing.T) {
	l := Lock(MustNew[point](3, WithName("locked")))

	h, _, err := l.Alloc(func(p *point) error {
		p.X = 1
		return nil
	})
	require.NoError(t, err)
	_, _, ok := l.New()
	require.True(t, ok)
	_, _, ok = l.Insert(point{X: 3})
	require.True(t, ok)

	assert.Equal(t, 3, l.Cap())
	assert.Equal(t, 3, l.Size())
	assert.Equal(t, 0, l.Available())
	assert.True(t, l.Contains(h))

	var xs []int64
	l.Range(func(_ Handle, p *point) bool {
		xs = append(xs, p.X)
		return len(xs) < 2
	})
	assert.Equal(t, []int64{1, 0}, xs)
	assert.Contains(t, l.String(), "live: 3/3")

	l.Reset()
	assert.Equal(t, 0, l.Size())
	assert.False(t, l.Contains(h))

	require.NoError(t, l.Close())
	_, _, err = l.Alloc(nil)
	assert.ErrorIs(t, err, ErrClosed)
}
