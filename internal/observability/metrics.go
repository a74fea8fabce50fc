package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	Registry *prometheus.Registry

	// Directory and ledger writes by entity and operation
	Mutations *prometheus.CounterVec

	// Payments refused by validation or eligibility, by error code
	PaymentRejections *prometheus.CounterVec

	// Statistics query latency by query name
	StatsLatency *prometheus.HistogramVec

	// Domain events handled by type and outcome
	EventsHandled *prometheus.CounterVec

	// HTTP requests on the ops server
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Errors          *prometheus.CounterVec
}

// NewMetrics registers all collectors on reg. A nil reg gets a fresh registry
// with the go and process collectors attached.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		Mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paydesk_mutations_total",
			Help: "Total successful writes by entity and operation",
		}, []string{"entity", "operation"}),

		PaymentRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paydesk_payment_rejections_total",
			Help: "Total payment writes rejected by error code",
		}, []string{"code"}),

		StatsLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paydesk_stats_duration_seconds",
			Help:    "Duration of statistics queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"query"}),

		EventsHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paydesk_events_handled_total",
			Help: "Total domain events handled by type and outcome",
		}, []string{"type", "outcome"}),

		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paydesk_http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		}, []string{"path", "method", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paydesk_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),

		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "paydesk_http_errors_total",
			Help: "Total HTTP error responses by route, method and code",
		}, []string{"path", "method", "code"}),
	}
}

// RecordMutation counts a successful write.
func (m *Metrics) RecordMutation(entity, operation string) {
	if m != nil {
		m.Mutations.WithLabelValues(entity, operation).Inc()
	}
}

// RecordPaymentRejection counts a refused payment write.
func (m *Metrics) RecordPaymentRejection(code string) {
	if m != nil {
		m.PaymentRejections.WithLabelValues(code).Inc()
	}
}

// ObserveStats records how long a statistics query took.
func (m *Metrics) ObserveStats(query string, d time.Duration) {
	if m != nil {
		m.StatsLatency.WithLabelValues(query).Observe(d.Seconds())
	}
}

// RecordEvent counts a handled domain event.
func (m *Metrics) RecordEvent(eventType string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.EventsHandled.WithLabelValues(eventType, outcome).Inc()
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m != nil {
		m.Errors.WithLabelValues(path, method, code).Inc()
	}
}
