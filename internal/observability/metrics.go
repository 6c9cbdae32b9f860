package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Metrics holds the Prometheus collectors for HTTP traffic and ticket activity.
type Metrics struct {
	requests        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	usersRegistered *prometheus.CounterVec
	ticketsCreated  prometheus.Counter
	statusChanges   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpdesk_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_errors_total",
			Help: "Requests that ended in an unhandled error, by error code.",
		}, []string{"method", "route", "code"}),
		usersRegistered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_users_registered_total",
			Help: "Accounts created, by role.",
		}, []string{"role"}),
		ticketsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_tickets_created_total",
			Help: "Tickets opened.",
		}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_ticket_status_changes_total",
			Help: "Ticket status updates, by new status.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.requests,
		m.duration,
		m.errors,
		m.usersRegistered,
		m.ticketsCreated,
		m.statusChanges,
	)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, route, code).Inc()
}

// RecordUserRegistered counts a new account by role.
func (m *Metrics) RecordUserRegistered(role domain.Role) {
	if m == nil {
		return
	}
	m.usersRegistered.WithLabelValues(string(role)).Inc()
}

// RecordTicketCreated counts a filed ticket.
func (m *Metrics) RecordTicketCreated() {
	if m == nil {
		return
	}
	m.ticketsCreated.Inc()
}

// RecordStatusChange counts a status update by the new status.
func (m *Metrics) RecordStatusChange(status domain.TicketStatus) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(string(status)).Inc()
}
