package slab_test

import (
	"errors"
	"fmt"
	"log"

	"github.com/hupe1980/slab"
	"github.com/hupe1980/slab/resource"
)

type session struct {
	ID    uint64
	Score float64
}

func Example() {
	pool, err := slab.New[session](2)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	a, s, _ := pool.New()
	s.ID = 1

	_, _, ok := pool.Insert(session{ID: 2})
	fmt.Println("second:", ok)

	_, _, ok = pool.New()
	fmt.Println("third:", ok)

	if err := pool.Free(&a); err != nil {
		log.Fatal(err)
	}
	fmt.Println("freed:", a.IsNone(), pool.Size(), pool.Available())

	// Output:
	// second: true
	// third: false
	// freed: true 1 1
}

func ExamplePool_Alloc() {
	pool := slab.MustNew[session](4)
	defer pool.Close()

	_, _, err := pool.Alloc(func(s *session) error {
		return errors.New("backend unavailable")
	})
	fmt.Println("error:", err)
	fmt.Println("live:", pool.Size())

	h, s, err := pool.Alloc(func(s *session) error {
		s.ID = 42
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("id:", s.ID, pool.Get(h).ID)

	// Output:
	// error: backend unavailable
	// live: 0
	// id: 42 42
}

func ExamplePool_Free_doubleFree() {
	pool := slab.MustNew[session](1)
	defer pool.Close()

	h, _, _ := pool.New()
	stale := h

	_ = pool.Free(&h)
	err := pool.Free(&stale)
	fmt.Println(errors.Is(err, slab.ErrDoubleFree))

	// Output:
	// true
}

func ExamplePool_All() {
	pool := slab.MustNew[session](8)
	defer pool.Close()

	for i := range 4 {
		_, _, _ = pool.Insert(session{ID: uint64(i)})
	}

	var total uint64
	for _, s := range pool.All() {
		total += s.ID
	}
	fmt.Println(total)

	// Output:
	// 6
}

func ExampleWithDestructor() {
	var closed int
	pool := slab.MustNew[session](4, slab.WithDestructor(func(*session) { closed++ }))

	_, _, _ = pool.New()
	_, _, _ = pool.New()

	_ = pool.Close()
	fmt.Println("destroyed on close:", closed)

	// Output:
	// destroyed on close: 2
}

func ExampleWithMemoryController() {
	budget := resource.NewController(resource.Config{MemoryLimitBytes: 64 << 10})

	pool, err := slab.New[session](1024, slab.WithMemoryController(budget))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("reserved:", budget.MemoryUsage() == pool.Stats().BytesReserved)

	_, err = slab.New[session](4096, slab.WithMemoryController(budget))
	fmt.Println("over budget:", errors.Is(err, resource.ErrMemoryLimitExceeded))

	_ = pool.Close()
	fmt.Println("after close:", budget.MemoryUsage())

	// Output:
	// reserved: true
	// over budget: true
	// after close: 0
}

func ExampleLocked() {
	pool, err := slab.NewLocked[session](16)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	h, _, _ := pool.Insert(session{ID: 7})
	fmt.Println(pool.Contains(h), pool.Size())

	// Output:
	// true 1
}
