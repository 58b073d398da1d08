package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/gameportal/internal/model"
)

const namespace = "portal"

// Login results
const (
	LoginSuccess     = "success"
	LoginInvalid     = "invalid_credentials"
	LoginRateLimited = "rate_limited"
)

// Metrics holds the portal's prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	registrations    prometheus.Counter
	logins           *prometheus.CounterVec
	scoreSubmissions *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Number of identities registered.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		scoreSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_submissions_total",
			Help:      "Accepted score submissions by game.",
		}, []string{"game"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by surface and status class.",
		}, []string{"surface", "code"}),
	}

	m.registry.MustRegister(
		m.registrations,
		m.logins,
		m.scoreSubmissions,
		m.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (for tests)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Counter helpers are no-ops on a nil *Metrics

func (m *Metrics) Registered() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) ScoreSubmitted(game model.GameKind) {
	if m == nil {
		return
	}
	m.scoreSubmissions.WithLabelValues(string(game)).Inc()
}

// Request counts a finished HTTP request, bucketed by status class ("2xx")
func (m *Metrics) Request(surface string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(surface, strconv.Itoa(status/100)+"xx").Inc()
}

// Middleware counts every request passing through it
func (m *Metrics) Middleware(surface string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			m.Request(surface, rec.status)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
