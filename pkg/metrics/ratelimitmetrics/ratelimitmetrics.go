// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package ratelimitmetrics

import (
	"github.com/ksentinel/ksentinel/pkg/metrics/consts"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   consts.MetricsNamespace,
		Name:        "ratelimit_dropped_total",
		Help:        "The total number of events dropped by the submit rate limiter",
		ConstLabels: nil,
	})
)

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitDropped)
}
