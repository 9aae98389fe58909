// Package metrics collects the service counters and gauges on a Prometheus
// registry: auth attempts, active users, HTTP traffic, pizza sales and
// revenue, log shipping outcomes, and sampled system usage.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every instrument the service records. Methods are nil safe
// so tests that do not care about metrics can pass a zero value around.
type Metrics struct {
	registry *prometheus.Registry

	authAttempts *prometheus.CounterVec
	activeUsers  prometheus.Gauge

	httpRequests *prometheus.CounterVec
	serverErrors prometheus.Counter
	latency      *prometheus.HistogramVec

	pizzasSold    prometheus.Counter
	pizzaFailures prometheus.Counter
	revenue       prometheus.Counter

	logOutcomes *prometheus.CounterVec

	cpuUsage prometheus.Gauge
	memUsage prometheus.Gauge
}

// New registers the service instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Authentication attempts by result.",
		}, []string{"result"}),
		activeUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "active_users",
			Help: "Users currently holding a session.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method.",
		}, []string{"method"}),
		serverErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "server_errors_total",
			Help: "Responses with a 5xx status.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "operation_latency_seconds",
			Help:    "Latency of service operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		pizzasSold: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pizzas_sold_total",
			Help: "Pizzas successfully fulfilled by the factory.",
		}),
		pizzaFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pizza_creation_failures_total",
			Help: "Pizzas the factory failed to fulfill.",
		}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "revenue_total",
			Help: "Revenue from fulfilled orders.",
		}),
		logOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "log_shipments_total",
			Help: "Log shipping attempts by outcome.",
		}, []string{"outcome"}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cpu_usage_percent",
			Help: "Sampled CPU usage.",
		}),
		memUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memory_usage_percent",
			Help: "Sampled memory usage.",
		}),
	}
	reg.MustRegister(
		m.authAttempts, m.activeUsers,
		m.httpRequests, m.serverErrors, m.latency,
		m.pizzasSold, m.pizzaFailures, m.revenue,
		m.logOutcomes, m.cpuUsage, m.memUsage,
	)
	return m
}

// Handler serves the Prometheus exposition format for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) AuthAttempt(success bool) {
	if m == nil || m.authAttempts == nil {
		return
	}
	result := "fail"
	if success {
		result = "success"
	}
	m.authAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) UserLoggedIn() {
	if m == nil || m.activeUsers == nil {
		return
	}
	m.activeUsers.Inc()
}

func (m *Metrics) UserLoggedOut() {
	if m == nil || m.activeUsers == nil {
		return
	}
	m.activeUsers.Dec()
}

func (m *Metrics) Request(method string) {
	if m == nil || m.httpRequests == nil {
		return
	}
	m.httpRequests.WithLabelValues(method).Inc()
}

func (m *Metrics) ServerError() {
	if m == nil || m.serverErrors == nil {
		return
	}
	m.serverErrors.Inc()
}

func (m *Metrics) ObserveLatency(operation string, d time.Duration) {
	if m == nil || m.latency == nil {
		return
	}
	m.latency.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) PizzasSold(n int) {
	if m == nil || m.pizzasSold == nil {
		return
	}
	m.pizzasSold.Add(float64(n))
}

func (m *Metrics) PizzaFailures(n int) {
	if m == nil || m.pizzaFailures == nil {
		return
	}
	m.pizzaFailures.Add(float64(n))
}

func (m *Metrics) Revenue(amount float64) {
	if m == nil || m.revenue == nil {
		return
	}
	m.revenue.Add(amount)
}

func (m *Metrics) LogShipped(ok bool) {
	if m == nil || m.logOutcomes == nil {
		return
	}
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	m.logOutcomes.WithLabelValues(outcome).Inc()
}
