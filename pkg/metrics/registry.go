// Package metrics provides optional Prometheus metrics for SmbSharp
// backends.
//
// Metrics are opt-in: if InitRegistry is never called, every constructor
// returns a no-op implementation with zero overhead, so the library runs
// identically with or without collection enabled.
//
// Usage:
//
//	metrics.InitRegistry()
//	store, _ := smb.New(auth, smb.Options{Metrics: metrics.NewInvocationMetrics()})
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the process-wide Prometheus registry. Safe to
// call multiple times; subsequent calls are ignored. If never called,
// metrics constructors return no-op implementations.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the process-wide registry, or nil when metrics are
// disabled. The sync.Once in InitRegistry provides the happens-before
// edge that makes the plain read safe.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether metrics collection is enabled.
func IsEnabled() bool {
	return GetRegistry() != nil
}
