package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rafflego"

// Metrics holds the application collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	reservations  *prometheus.CounterVec
	releases      *prometheus.CounterVec
	confirmations prometheus.Counter
	payments      *prometheus.CounterVec
	latePayments  prometheus.Counter
	draws         prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "path"},
		),
		reservations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "reservations_total",
				Help:      "Reservation attempts by result.",
			},
			[]string{"result"},
		),
		releases: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "releases_total",
				Help:      "Released reservations by reason.",
			},
			[]string{"reason"},
		),
		confirmations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "confirmations_total",
				Help:      "Reservations confirmed as sold.",
			},
		),
		payments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "payments",
				Name:      "notifications_total",
				Help:      "Payment notifications by outcome and handling result.",
			},
			[]string{"outcome", "result"},
		),
		latePayments: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "payments",
				Name:      "late_success_total",
				Help:      "Successful payments received after their reservation was released.",
			},
		),
		draws: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "draw",
				Name:      "draws_total",
				Help:      "Completed raffle draws.",
			},
		),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.reservations,
		m.releases,
		m.confirmations,
		m.payments,
		m.latePayments,
		m.draws,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return m
}

// Handler exposes the registered collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware records request counts and latency by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		m.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Reservation(result string) {
	if m == nil {
		return
	}
	m.reservations.WithLabelValues(result).Inc()
}

func (m *Metrics) Released(reason string) {
	if m == nil {
		return
	}
	m.releases.WithLabelValues(reason).Inc()
}

func (m *Metrics) Confirmed() {
	if m == nil {
		return
	}
	m.confirmations.Inc()
}

func (m *Metrics) Payment(outcome, result string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(outcome, result).Inc()
}

func (m *Metrics) LatePayment() {
	if m == nil {
		return
	}
	m.latePayments.Inc()
}

func (m *Metrics) Drawn() {
	if m == nil {
		return
	}
	m.draws.Inc()
}
