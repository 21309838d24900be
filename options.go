package slab

import (
	"time"

	"github.com/hupe1980/slab/resource"
)

// DefaultExhaustionLogInterval is the minimum gap between two
// "pool exhausted" warnings of one pool.
const DefaultExhaustionLogInterval = time.Second

type options struct {
	name                  string
	logger                *Logger
	metricsCollector      MetricsCollector
	destructor            any // func(*T), checked against T in New
	offHeap               bool
	controller            *resource.Controller
	exhaustionLogInterval time.Duration
}

func defaultOptions() options {
	return options{
		name:                  "slab",
		logger:                NoopLogger(),
		metricsCollector:      NoopMetricsCollector{},
		exhaustionLogInterval: DefaultExhaustionLogInterval,
	}
}

// Option configures a Pool at construction time.
type Option func(*options)

// WithName sets the pool name used in log records and metric labels.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger configures structured logging.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures the metrics sink.
//
// If nil is passed, metrics are discarded.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithDestructor registers a function that runs on a value right before its
// slot is released: on Free, on Reset and, for objects still live, on Close.
// The slot is zeroed afterwards, so fn only needs to release what the value
// references outside the pool.
//
// T must match the pool's element type, otherwise New returns ErrDestructorType.
func WithDestructor[T any](fn func(*T)) Option {
	return func(o *options) {
		o.destructor = fn
	}
}

// WithOffHeap backs the pool's values by an anonymous memory mapping instead
// of a Go slice, keeping large slabs out of the garbage collector's scan set.
//
// The element type must not contain Go pointers (including strings, slices,
// maps, interfaces and funcs); New returns ErrOffHeapPointers otherwise.
// Zero-sized element types always use heap storage.
func WithOffHeap() Option {
	return func(o *options) {
		o.offHeap = true
	}
}

// WithMemoryController charges the pool's storage footprint against a shared
// memory budget. The reservation is taken in New and returned by Close.
func WithMemoryController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithExhaustionLogInterval throttles "pool exhausted" warnings to at most
// one per interval. Exhaustion is an expected outcome in steady-state
// workloads, so logging every occurrence would flood the log.
//
// An interval <= 0 logs every occurrence.
func WithExhaustionLogInterval(d time.Duration) Option {
	return func(o *options) {
		o.exhaustionLogInterval = d
	}
}
