// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"net/http"
	"sync"

	"github.com/ksentinel/ksentinel/pkg/exporter"
	"github.com/ksentinel/ksentinel/pkg/logger"
	"github.com/ksentinel/ksentinel/pkg/metrics/cachemetrics"
	"github.com/ksentinel/ksentinel/pkg/metrics/eventmetrics"
	"github.com/ksentinel/ksentinel/pkg/metrics/ratelimitmetrics"
	"github.com/ksentinel/ksentinel/pkg/metrics/scanmetrics"
	"github.com/ksentinel/ksentinel/pkg/version"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// GetRegistry returns the registry every sensor metric is registered in.
func GetRegistry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			version.NewBuildInfoCollector(),
		)
		InitAllMetrics(registry)
	})
	return registry
}

// InitAllMetrics registers the metrics of all sensor subsystems.
func InitAllMetrics(reg prometheus.Registerer) {
	eventmetrics.RegisterMetrics(reg)
	cachemetrics.RegisterMetrics(reg)
	scanmetrics.RegisterMetrics(reg)
	ratelimitmetrics.RegisterMetrics(reg)
	exporter.RegisterMetrics(reg)
}

// EnableMetrics serves the registry on address. It blocks until the server
// fails.
func EnableMetrics(address string) error {
	reg := GetRegistry()

	logger.GetLogger().WithField("addr", address).Info("Starting metrics server")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return http.ListenAndServe(address, mux)
}
