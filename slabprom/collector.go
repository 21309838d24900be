// Package slabprom exports slab pool metrics to Prometheus.
//
//	c := slabprom.New("orders")
//	prometheus.MustRegister(c)
//
//	p, _ := slab.New[Order](4096, slab.WithName("orders"), slab.WithMetricsCollector(c))
package slabprom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/slab"
)

// Namespace prefixes every metric name.
const Namespace = "slab"

// Collector implements slab.MetricsCollector and prometheus.Collector.
// Create one per pool; the pool name becomes a constant label.
type Collector struct {
	capacity      prometheus.Gauge
	bytesReserved prometheus.Gauge
	live          prometheus.Gauge
	allocs        *prometheus.CounterVec
	exhausted     prometheus.Counter
	frees         *prometheus.CounterVec
	destroyed     prometheus.Counter
}

var _ slab.MetricsCollector = (*Collector)(nil)

// New creates a collector for the pool called pool.
func New(pool string) *Collector {
	labels := prometheus.Labels{"pool": pool}

	return &Collector{
		capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Name:        "capacity",
			Help:        "Fixed number of slots in the pool",
			ConstLabels: labels,
		}),
		bytesReserved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Name:        "reserved_bytes",
			Help:        "Bytes reserved for values and slot metadata",
			ConstLabels: labels,
		}),
		live: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Name:        "live",
			Help:        "Number of live values",
			ConstLabels: labels,
		}),
		allocs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "allocations_total",
			Help:        "Allocations that reached a free slot, by constructor outcome",
			ConstLabels: labels,
		}, []string{"status"}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "exhausted_total",
			Help:        "Allocation attempts on a full pool",
			ConstLabels: labels,
		}),
		frees: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "frees_total",
			Help:        "Free calls on in-range handles, by outcome",
			ConstLabels: labels,
		}, []string{"status"}),
		destroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "destroyed_on_close_total",
			Help:        "Live values destroyed by Close",
			ConstLabels: labels,
		}),
	}
}

// RecordCreate implements slab.MetricsCollector.
func (c *Collector) RecordCreate(capacity int, bytesReserved int64) {
	c.capacity.Set(float64(capacity))
	c.bytesReserved.Set(float64(bytesReserved))
	c.live.Set(0)
}

// RecordAlloc implements slab.MetricsCollector.
func (c *Collector) RecordAlloc(live int, err error) {
	if err != nil {
		c.allocs.WithLabelValues("error").Inc()
		return
	}
	c.allocs.WithLabelValues("success").Inc()
	c.live.Set(float64(live))
}

// RecordExhausted implements slab.MetricsCollector.
func (c *Collector) RecordExhausted() {
	c.exhausted.Inc()
}

// RecordFree implements slab.MetricsCollector.
func (c *Collector) RecordFree(live int, err error) {
	if err != nil {
		c.frees.WithLabelValues("double_free").Inc()
		return
	}
	c.frees.WithLabelValues("success").Inc()
	c.live.Set(float64(live))
}

// RecordClose implements slab.MetricsCollector.
func (c *Collector) RecordClose(destroyed int) {
	c.destroyed.Add(float64(destroyed))
	c.live.Set(0)
	c.bytesReserved.Set(0)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.capacity.Describe(ch)
	c.bytesReserved.Describe(ch)
	c.live.Describe(ch)
	c.allocs.Describe(ch)
	c.exhausted.Describe(ch)
	c.frees.Describe(ch)
	c.destroyed.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.capacity.Collect(ch)
	c.bytesReserved.Collect(ch)
	c.live.Collect(ch)
	c.allocs.Collect(ch)
	c.exhausted.Collect(ch)
	c.frees.Collect(ch)
	c.destroyed.Collect(ch)
}
