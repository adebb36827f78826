// Package metrics counts transfer activity in a private prometheus registry.
//
// ss3 is a short-lived process, so nothing is served over HTTP; the registry
// is dumped to a node_exporter textfile when a path is configured.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ss3"

// Collector holds the transfer counters. A nil *Collector is a no-op.
type Collector struct {
	registry *prometheus.Registry

	objects  *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// Outcome labels.
const (
	Uploaded   = "uploaded"
	Downloaded = "downloaded"
	Skipped    = "skipped"
	Excluded   = "excluded"
	Deleted    = "deleted"
)

// NewCollector registers the counters in a fresh registry.
func NewCollector() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		objects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_total",
			Help:      "Objects handled per outcome.",
		}, []string{"outcome"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Bytes transferred per direction.",
		}, []string{"direction"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_requests_total",
			Help:      "Object store requests per operation.",
		}, []string{"op"}),
	}
	for _, col := range []prometheus.Collector{c.objects, c.bytes, c.requests} {
		if err := c.registry.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return c, nil
}

// Object counts one object with the given outcome.
func (c *Collector) Object(outcome string) {
	if c == nil {
		return
	}
	c.objects.WithLabelValues(outcome).Inc()
}

// Bytes adds n transferred bytes in direction "up" or "down".
func (c *Collector) Bytes(direction string, n int64) {
	if c == nil || n <= 0 {
		return
	}
	c.bytes.WithLabelValues(direction).Add(float64(n))
}

// Request counts one store request.
func (c *Collector) Request(op string) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(op).Inc()
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// WriteTextfile writes the current values in the text exposition format.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
