// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package eventmetrics

import (
	"github.com/ksentinel/ksentinel/pkg/api/ops"
	"github.com/ksentinel/ksentinel/pkg/metrics/consts"
	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons
const (
	DropChannelFull = "channel_full"
	DropRateLimit   = "rate_limit"
	DropTooLarge    = "too_large"
)

var (
	EventsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   consts.MetricsNamespace,
		Name:        "events_total",
		Help:        "The total number of events handed to the output channel",
		ConstLabels: nil,
	}, []string{"type"})
	EventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   consts.MetricsNamespace,
		Name:        "events_dropped_total",
		Help:        "The total number of events dropped before reaching the output channel",
		ConstLabels: nil,
	}, []string{"type", "reason"})
	FieldsTruncated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   consts.MetricsNamespace,
		Name:        "event_fields_truncated_total",
		Help:        "The total number of event fields truncated or dropped to fit the event size limit",
		ConstLabels: nil,
	}, []string{"type"})
)

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(EventsSubmitted, EventsDropped, FieldsTruncated)

	for op := range ops.EventTypeStrings {
		if op == ops.MSG_OP_UNDEF {
			continue
		}
		EventsSubmitted.WithLabelValues(op.String()).Add(0)
	}
}

func Submitted(op ops.EventType) prometheus.Counter {
	return EventsSubmitted.WithLabelValues(op.String())
}

func Dropped(op ops.EventType, reason string) prometheus.Counter {
	return EventsDropped.WithLabelValues(op.String(), reason)
}
