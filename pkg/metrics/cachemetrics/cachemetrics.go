// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package cachemetrics

import (
	"github.com/ksentinel/ksentinel/pkg/metrics/consts"
	"github.com/prometheus/client_golang/prometheus"
)

// Cache operations
const (
	OpPut  = "put"
	OpHit  = "hit"
	OpMiss = "miss"
)

var (
	CacheOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   consts.MetricsNamespace,
		Name:        "correlation_cache_ops_total",
		Help:        "The total number of correlation cache operations",
		ConstLabels: nil,
	}, []string{"cache", "op"})
	CacheEvictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   consts.MetricsNamespace,
		Name:        "correlation_cache_evictions_total",
		Help:        "The total number of correlation cache entries evicted under capacity pressure",
		ConstLabels: nil,
	}, []string{"cache"})
	CacheSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   consts.MetricsNamespace,
		Name:        "correlation_cache_entries",
		Help:        "The number of live correlation cache entries",
		ConstLabels: nil,
	}, []string{"cache"})
)

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(CacheOps, CacheEvictions, CacheSize)
}

func Op(cache, op string) prometheus.Counter {
	return CacheOps.WithLabelValues(cache, op)
}

func Evicted(cache string) prometheus.Counter {
	return CacheEvictions.WithLabelValues(cache)
}

func Size(cache string) prometheus.Gauge {
	return CacheSize.WithLabelValues(cache)
}
