package slab

import (
	"reflect"
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flatRecord struct {
	ID     uint64
	Price  float64
	Qty    int32
	Flags  [4]byte
	Nested struct{ A, B uint16 }
}

func TestHasPointers(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
		want bool
	}{
		{"int", reflect.TypeOf(0), false},
		{"float", reflect.TypeOf(1.5), false},
		{"flat struct", reflect.TypeOf(flatRecord{}), false},
		{"byte array", reflect.TypeOf([16]byte{}), false},
		{"empty array of pointers", reflect.TypeOf([0]*int{}), false},
		{"empty struct", reflect.TypeOf(struct{}{}), false},
		{"pointer", reflect.TypeOf(new(int)), true},
		{"string", reflect.TypeOf(""), true},
		{"slice", reflect.TypeOf([]byte{}), true},
		{"map", reflect.TypeOf(map[int]int{}), true},
		{"func", reflect.TypeOf(func() {}), true},
		{"chan", reflect.TypeOf(make(chan int)), true},
		{"interface", reflect.TypeOf((*any)(nil)).Elem(), true},
		{"unsafe pointer", reflect.TypeOf(unsafe.Pointer(nil)), true},
		{"struct with string", reflect.TypeOf(tracked{}), true},
		{"array of strings", reflect.TypeOf([2]string{}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasPointers(tt.typ))
		})
	}
}

func TestPool_OffHeap(t *testing.T) {
	if runtime.GOOS == "js" || runtime.GOOS == "wasip1" {
		t.Skip("anonymous mappings are not available")
	}

	t.Run("round trip", func(t *testing.T) {
		p, err := New[flatRecord](1000, WithOffHeap())
		require.NoError(t, err)
		defer p.Close()

		assert.True(t, p.Stats().OffHeap)

		handles := make([]Handle, 0, 1000)
		for i := 0; i < 1000; i++ {
			h, _, err := p.Alloc(func(r *flatRecord) error {
				r.ID = uint64(i)
				r.Price = float64(i) / 4
				r.Qty = int32(i)
				r.Flags[i%4] = 1
				return nil
			})
			require.NoError(t, err)
			handles = append(handles, h)
		}

		for i, h := range handles {
			r := p.Get(h)
			require.NotNil(t, r)
			assert.Equal(t, uint64(i), r.ID)
			assert.Equal(t, float64(i)/4, r.Price)
			assert.Equal(t, byte(1), r.Flags[i%4])
		}

		require.NoError(t, p.Free(&handles[500]))
		h, r, ok := p.New()
		require.True(t, ok)
		assert.Equal(t, 500, h.Index())
		assert.Equal(t, flatRecord{}, *r, "released slot is zeroed")
	})

	t.Run("reset reclaims", func(t *testing.T) {
		p, err := New[flatRecord](4096, WithOffHeap())
		require.NoError(t, err)
		defer p.Close()

		for i := 0; i < 4096; i++ {
			_, _, ok := p.Insert(flatRecord{ID: uint64(i) + 1})
			require.True(t, ok)
		}
		p.Reset()

		for i := 0; i < 4096; i++ {
			_, r, ok := p.New()
			require.True(t, ok)
			require.Equal(t, flatRecord{}, *r)
		}
	})

	t.Run("rejects pointer types", func(t *testing.T) {
		_, err := New[tracked](8, WithOffHeap())
		assert.ErrorIs(t, err, ErrOffHeapPointers)

		_, err = New[*int](8, WithOffHeap())
		assert.ErrorIs(t, err, ErrOffHeapPointers)
	})

	t.Run("zero sized falls back to heap", func(t *testing.T) {
		p, err := New[struct{}](8, WithOffHeap())
		require.NoError(t, err)
		defer p.Close()

		assert.False(t, p.Stats().OffHeap)
	})
}

func TestStorage_Clear(t *testing.T) {
	s := newHeapStorage[flatRecord](2)
	s.values[1] = flatRecord{ID: 7, Qty: 3}

	s.clear(1)
	assert.Equal(t, flatRecord{}, s.values[1])
	assert.NoError(t, s.reclaim())
	assert.NoError(t, s.close())
	assert.Nil(t, s.values)
}
