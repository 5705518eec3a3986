package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several servers can coexist in one
// process (tests build one per case).
type Metrics struct {
	reg *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RenderDuration  *prometheus.HistogramVec
	RenderErrors    *prometheus.CounterVec
	Reloads         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		RenderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "progress_chart_render_seconds",
				Help:    "Time spent rendering one chart",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"backend", "format"},
		),
		RenderErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "progress_chart_render_errors_total",
				Help: "Chart renders that failed",
			},
			[]string{"backend", "format"},
		),
		Reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "progress_dataset_reloads_total",
				Help: "Dataset reloads by trigger and result",
			},
			[]string{"trigger", "result"},
		),
	}
	m.reg.MustRegister(
		m.RequestCounter, m.RequestDuration, m.RenderDuration, m.RenderErrors, m.Reloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RequestCounter.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func (m *Metrics) observeReload(trigger string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Reloads.WithLabelValues(trigger, result).Inc()
}
