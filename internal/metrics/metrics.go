// Package metrics exposes spawn activity to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/random-media/backend/internal/active"
)

const namespace = "random_media"

// Metrics holds the collectors on a private registry so tests never collide
// with the global default registry.
type Metrics struct {
	registry *prometheus.Registry

	spawns    *prometheus.CounterVec
	teardowns *prometheus.CounterVec
	active    prometheus.Gauge
	inventory prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		spawns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spawns_total",
			Help:      "Spawn attempts by result.",
		}, []string{"result"}),
		teardowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "teardowns_total",
			Help:      "Element teardowns by reason.",
		}, []string{"reason"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "elements_active",
			Help:      "Currently active elements, including reserved slots.",
		}),
		inventory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inventory_files",
			Help:      "Eligible media files in the current inventory.",
		}),
	}
	m.registry.MustRegister(m.spawns, m.teardowns, m.active, m.inventory)
	return m
}

// Observe folds one lifecycle event into the collectors.
func (m *Metrics) Observe(ev active.Event) {
	switch ev.Type {
	case active.EventSpawned:
		m.spawns.WithLabelValues("created").Inc()
	case active.EventFailed:
		m.spawns.WithLabelValues("failed").Inc()
	case active.EventCompleted:
		m.teardowns.WithLabelValues("completed").Inc()
	case active.EventCleared:
		m.teardowns.WithLabelValues("cleared").Inc()
	}
	m.active.Set(float64(ev.ActiveCount))
}

// SetInventorySize records the current inventory file count.
func (m *Metrics) SetInventorySize(n int) {
	m.inventory.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
