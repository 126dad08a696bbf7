package registry

import (
	"fmt"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	gm "github.com/rcrowley/go-metrics"
)

// registryMetrics holds the Prometheus-text counters/gauges exposed via
// VictoriaMetrics/metrics and the latency histogram kept with
// rcrowley/go-metrics, previously-unused direct dependencies wired here
// for the six read-only stats accessors plus operational detail beyond
// what those accessors expose.
type registryMetrics struct {
	set *vm.Set

	registerTotal  *vm.Counter
	registerErrors *vm.Counter
	batchTotal     *vm.Counter
	batchItems     *vm.Counter

	dbLatency gm.Timer
}

func newRegistryMetrics(instance string, r *Registry) *registryMetrics {
	set := vm.NewSet()
	m := &registryMetrics{
		set:            set,
		registerTotal:  set.NewCounter(fmt.Sprintf(`jsonreg_register_total{instance=%q}`, instance)),
		registerErrors: set.NewCounter(fmt.Sprintf(`jsonreg_register_errors_total{instance=%q}`, instance)),
		batchTotal:     set.NewCounter(fmt.Sprintf(`jsonreg_register_batch_total{instance=%q}`, instance)),
		batchItems:     set.NewCounter(fmt.Sprintf(`jsonreg_register_batch_items_total{instance=%q}`, instance)),
		dbLatency:      gm.NewTimer(),
	}

	set.NewGauge(fmt.Sprintf(`jsonreg_cache_hits{instance=%q}`, instance), func() float64 {
		return float64(r.cache.Hits())
	})
	set.NewGauge(fmt.Sprintf(`jsonreg_cache_misses{instance=%q}`, instance), func() float64 {
		return float64(r.cache.Misses())
	})
	set.NewGauge(fmt.Sprintf(`jsonreg_cache_hit_rate{instance=%q}`, instance), func() float64 {
		return r.cache.HitRate()
	})
	set.NewGauge(fmt.Sprintf(`jsonreg_pool_size{instance=%q}`, instance), func() float64 {
		return float64(r.pool.Size())
	})
	set.NewGauge(fmt.Sprintf(`jsonreg_pool_idle{instance=%q}`, instance), func() float64 {
		return float64(r.pool.IdleConnections())
	})
	set.NewGauge(fmt.Sprintf(`jsonreg_pool_closed{instance=%q}`, instance), func() float64 {
		if r.closed.Load() {
			return 1
		}
		return 0
	})
	set.NewGauge(fmt.Sprintf(`jsonreg_gate_inflight{instance=%q}`, instance), func() float64 {
		return float64(r.gate.InFlight())
	})

	return m
}

func (m *registryMetrics) observeDBLatency(d time.Duration) {
	m.dbLatency.Update(d)
}

// DBLatencySnapshot summarizes round-trip latency observed while
// resolving cache misses (Lookup, Insert, and BatchInsert combined).
type DBLatencySnapshot struct {
	Count             int64
	MeanMillis        float64
	P50Millis         float64
	P99Millis         float64
}

func (m *registryMetrics) snapshot() DBLatencySnapshot {
	s := m.dbLatency.Snapshot()
	ps := s.Percentiles([]float64{0.5, 0.99})
	toMillis := func(ns float64) float64 { return ns / float64(time.Millisecond) }
	return DBLatencySnapshot{
		Count:      s.Count(),
		MeanMillis: toMillis(s.Mean()),
		P50Millis:  toMillis(ps[0]),
		P99Millis:  toMillis(ps[1]),
	}
}

// WritePrometheus writes every counter and gauge in Prometheus text
// exposition format, suitable for serving from an HTTP handler.
func (r *Registry) WritePrometheus(w interface{ Write([]byte) (int, error) }) {
	r.metrics.set.WritePrometheus(w)
}
