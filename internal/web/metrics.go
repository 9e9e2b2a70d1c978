package web

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tablero/internal"
)

type metrics struct {
	registry *prometheus.Registry
	uploads  *prometheus.CounterVec
	rows     *prometheus.CounterVec
	loadTime *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablero",
			Name:      "uploads_total",
			Help:      "Workbooks loaded, by dashboard and result.",
		}, []string{"dashboard", "result"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablero",
			Name:      "rows_classified_total",
			Help:      "Rows classified, by category.",
		}, []string{"category"}),
		loadTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tablero",
			Name:      "load_duration_seconds",
			Help:      "Time spent loading and classifying a workbook.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"dashboard"}),
	}
	m.registry.MustRegister(
		m.uploads,
		m.rows,
		m.loadTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) observeLoad(dashboard internal.Dashboard, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.uploads.WithLabelValues(string(dashboard), result).Inc()
	m.loadTime.WithLabelValues(string(dashboard)).Observe(took.Seconds())
}

func (m *metrics) observeRows(counts []internal.CategoryCount) {
	for _, c := range counts {
		m.rows.WithLabelValues(string(c.Category)).Add(float64(c.Count))
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
