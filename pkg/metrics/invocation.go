package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// InvocationMetrics observes external client-tool invocations made by
// the SMB backend: one observation per spawned process, labeled by the
// logical operation that triggered it.
type InvocationMetrics interface {
	// ObserveInvocation records one invocation's duration and outcome.
	ObserveInvocation(op string, d time.Duration, err error)
}

// NewInvocationMetrics creates a Prometheus-backed InvocationMetrics, or
// a no-op implementation when the registry was never initialized.
func NewInvocationMetrics() InvocationMetrics {
	if !IsEnabled() {
		return NewNoopInvocationMetrics()
	}

	reg := GetRegistry()

	return &invocationMetrics{
		invocationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smbsharp_invocations_total",
				Help: "Total client tool invocations by operation and status",
			},
			[]string{"op", "status"},
		),
		invocationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "smbsharp_invocation_duration_seconds",
				Help: "Duration of client tool invocations in seconds",
				Buckets: []float64{
					0.05, // 50ms
					0.1,  // 100ms
					0.25, // 250ms
					0.5,  // 500ms
					1.0,  // 1s
					2.5,  // 2.5s
					5.0,  // 5s
					15.0, // 15s
					60.0, // 1m
				},
			},
			[]string{"op"},
		),
	}
}

type invocationMetrics struct {
	invocationsTotal   *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
}

func (m *invocationMetrics) ObserveInvocation(op string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.invocationsTotal.WithLabelValues(op, status).Inc()
	m.invocationDuration.WithLabelValues(op).Observe(d.Seconds())
}

// NewNoopInvocationMetrics returns an InvocationMetrics that discards
// every observation.
func NewNoopInvocationMetrics() InvocationMetrics {
	return noopInvocationMetrics{}
}

type noopInvocationMetrics struct{}

func (noopInvocationMetrics) ObserveInvocation(string, time.Duration, error) {}
