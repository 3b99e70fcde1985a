// AngelaMos | 2026
// metrics.go

package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	WorkflowApplication = "application"
	WorkflowClaim       = "claim"

	OutcomeCompensated = "compensated"
	OutcomeFailed      = "failed"
)

type Options struct {
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
	Namespace  string
	Buckets    []float64
}

// Metrics groups the collectors the service exports. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Requests      *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	InFlight      prometheus.Gauge
	Transitions   *prometheus.CounterVec
	Compensations *prometheus.CounterVec
	Pending       *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

func New(opts Options) (*Metrics, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "finddetectives"
	}

	reg := opts.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	buckets := opts.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	m := &Metrics{gatherer: gatherer}
	var err error

	m.Requests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests partitioned by method, route and status code.",
	}, []string{"method", "route", "status"}))
	if err != nil {
		return nil, err
	}

	m.Duration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency partitioned by method, route and status code.",
		Buckets:   buckets,
	}, []string{"method", "route", "status"}))
	if err != nil {
		return nil, err
	}

	m.InFlight, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "in_flight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	}))
	if err != nil {
		return nil, err
	}

	m.Transitions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflow_transitions_total",
		Help:      "Review state transitions partitioned by workflow and target status.",
	}, []string{"workflow", "status"}))
	if err != nil {
		return nil, err
	}

	m.Compensations, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "saga_compensations_total",
		Help:      "Saga rollbacks partitioned by workflow and outcome.",
	}, []string{"workflow", "outcome"}))
	if err != nil {
		return nil, err
	}

	m.Pending, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_reviews",
		Help:      "Items waiting for admin review partitioned by workflow.",
	}, []string{"workflow"}))
	if err != nil {
		return nil, err
	}

	return m, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(T); ok {
			return existing, nil
		}
		return c, fmt.Errorf(
			"existing collector has unexpected type %T",
			already.ExistingCollector,
		)
	}

	return c, fmt.Errorf("register collector: %w", err)
}

func (m *Metrics) RecordTransition(workflow, status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(workflow, status).Inc()
}

func (m *Metrics) RecordCompensation(workflow, outcome string) {
	if m == nil {
		return
	}
	m.Compensations.WithLabelValues(workflow, outcome).Inc()
}

func (m *Metrics) SetPending(workflow string, count int) {
	if m == nil {
		return
	}
	m.Pending.WithLabelValues(workflow).Set(float64(count))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request count, latency and in-flight gauge keyed by the
// chi route pattern so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		labels := prometheus.Labels{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(status),
		}

		m.Requests.With(labels).Inc()
		m.Duration.With(labels).Observe(time.Since(start).Seconds())
	})
}
