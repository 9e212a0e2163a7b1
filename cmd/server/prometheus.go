package main

import (
	"net/http"

	"github.com/miretskiy/linesim/simulator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// lineMetrics holds the Prometheus gauges for the most recently advanced line.
// Each server owns its registry so tests can build several servers.
type lineMetrics struct {
	registry *prometheus.Registry

	tick           prometheus.Gauge
	itemsCompleted prometheus.Gauge
	workersInUse   prometheus.Gauge

	workers     *prometheus.GaugeVec
	backlog     *prometheus.GaugeVec
	completed   *prometheus.GaugeVec
	utilization *prometheus.GaugeVec
}

func newLineMetrics() *lineMetrics {
	stationLabels := []string{"station"}
	m := &lineMetrics{
		registry: prometheus.NewRegistry(),
		tick: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "line_tick",
			Help: "Current simulation tick",
		}),
		itemsCompleted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "line_items_completed",
			Help: "Items that left the terminal station",
		}),
		workersInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "line_workers_in_use",
			Help: "Workers assigned across all stations in the latest tick",
		}),
		workers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "station_workers",
			Help: "Workers assigned to the station in the latest tick",
		}, stationLabels),
		backlog: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "station_backlog",
			Help: "Items waiting in the station backlog",
		}, stationLabels),
		completed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "station_items_completed",
			Help: "Items that finished processing at the station",
		}, stationLabels),
		utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "station_utilization_ratio",
			Help: "Fraction of elapsed ticks with at least one worker assigned (0.0 - 1.0)",
		}, stationLabels),
	}

	m.registry.MustRegister(
		m.tick,
		m.itemsCompleted,
		m.workersInUse,
		m.workers,
		m.backlog,
		m.completed,
		m.utilization,
	)
	return m
}

// reset drops station series left over from a previously loaded line
func (m *lineMetrics) reset() {
	m.workers.Reset()
	m.backlog.Reset()
	m.completed.Reset()
	m.utilization.Reset()
}

func (m *lineMetrics) update(metrics *simulator.Metrics) {
	m.tick.Set(float64(metrics.Tick))
	m.itemsCompleted.Set(float64(metrics.ItemsCompleted))

	inUse := 0
	for _, st := range metrics.Stations {
		inUse += st.Workers
		m.workers.WithLabelValues(st.Name).Set(float64(st.Workers))
		m.backlog.WithLabelValues(st.Name).Set(float64(st.Backlog))
		m.completed.WithLabelValues(st.Name).Set(float64(st.TotalCompleted))
		m.utilization.WithLabelValues(st.Name).Set(st.Utilization)
	}
	m.workersInUse.Set(float64(inUse))
}

func (m *lineMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
