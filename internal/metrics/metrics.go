// Package metrics records connection cache activity.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names emitted by the connection cache.
const (
	AttemptsTotal   = "conncache_connect_attempts_total"
	FailuresTotal   = "conncache_connect_failures_total"
	JoinsTotal      = "conncache_attempt_joins_total"
	HitsTotal       = "conncache_cache_hits_total"
	ConnectDuration = "conncache_connect_duration_seconds"
)

// Collector defines the interface for recording metrics.
type Collector interface {
	// IncrementCounter increments a counter. labels are key/value pairs.
	IncrementCounter(name string, labels ...string)

	// RecordHistogram observes value in a histogram. labels are key/value pairs.
	RecordHistogram(name string, value float64, labels ...string)
}

// PrometheusCollector implements Collector on a Prometheus registerer.
// Metric vectors are created on first use. Safe for concurrent use.
type PrometheusCollector struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPrometheusCollector creates a collector registering on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusCollector{
		registerer: reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

// IncrementCounter increments a counter metric.
func (p *PrometheusCollector) IncrementCounter(name string, labels ...string) {
	labelNames, labelValues := parseLabelPairs(labels)

	p.mu.Lock()
	counter, exists := p.counters[name]
	if !exists {
		counter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: name,
				Help: fmt.Sprintf("Counter for %s", name),
			},
			labelNames,
		)
		p.registerer.MustRegister(counter)
		p.counters[name] = counter
	}
	p.mu.Unlock()

	counter.WithLabelValues(labelValues...).Inc()
}

// RecordHistogram records a value in a histogram metric.
func (p *PrometheusCollector) RecordHistogram(name string, value float64, labels ...string) {
	labelNames, labelValues := parseLabelPairs(labels)

	p.mu.Lock()
	histogram, exists := p.histograms[name]
	if !exists {
		histogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    name,
				Help:    fmt.Sprintf("Histogram for %s", name),
				Buckets: prometheus.DefBuckets,
			},
			labelNames,
		)
		p.registerer.MustRegister(histogram)
		p.histograms[name] = histogram
	}
	p.mu.Unlock()

	histogram.WithLabelValues(labelValues...).Observe(value)
}

// Counter returns the counter vector registered under name, or nil.
func (p *PrometheusCollector) Counter(name string) *prometheus.CounterVec {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters[name]
}

// Histogram returns the histogram vector registered under name, or nil.
func (p *PrometheusCollector) Histogram(name string) *prometheus.HistogramVec {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.histograms[name]
}

// parseLabelPairs splits "key1", "value1", "key2", "value2", ...
// A trailing key without a value is dropped.
func parseLabelPairs(labels []string) ([]string, []string) {
	if len(labels)%2 != 0 {
		labels = labels[:len(labels)-1]
	}

	labelNames := make([]string, 0, len(labels)/2)
	labelValues := make([]string, 0, len(labels)/2)

	for i := 0; i < len(labels); i += 2 {
		labelNames = append(labelNames, labels[i])
		labelValues = append(labelValues, labels[i+1])
	}

	return labelNames, labelValues
}

// NoopCollector discards all metrics.
type NoopCollector struct{}

// IncrementCounter is a no-op.
func (NoopCollector) IncrementCounter(string, ...string) {}

// RecordHistogram is a no-op.
func (NoopCollector) RecordHistogram(string, float64, ...string) {}

var (
	_ Collector = (*PrometheusCollector)(nil)
	_ Collector = NoopCollector{}
)
