// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package ratelimit

import (
	"context"
	"time"

	"github.com/ksentinel/ksentinel/pkg/logger"
	"github.com/ksentinel/ksentinel/pkg/metrics/ratelimitmetrics"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"
)

// InfoEncoder receives the periodic drop reports.
type InfoEncoder interface {
	Encode(v any) error
}

type RateLimiter struct {
	*rate.Limiter
	ctx            context.Context
	reportInterval time.Duration
	dropped        atomic.Uint64
}

// getLimit converts an numEvents and interval to rate.Limit which is a floating point value
// representing number of events per second.
func getLimit(numEvents int, interval time.Duration) rate.Limit {
	if numEvents == 0 {
		return 0
	}
	if interval <= 0 {
		return rate.Inf
	}
	return rate.Every(interval / time.Duration(numEvents))
}

// NewRateLimiter allows numEvents per interval. A negative numEvents
// disables rate limiting and returns nil. When encoder is not nil the number
// of dropped events is reported to it every interval.
func NewRateLimiter(ctx context.Context, interval time.Duration, numEvents int, encoder InfoEncoder) *RateLimiter {
	if numEvents < 0 {
		return nil
	}
	r := &RateLimiter{
		Limiter:        rate.NewLimiter(getLimit(numEvents, interval), numEvents),
		ctx:            ctx,
		reportInterval: interval,
	}
	if encoder != nil && interval > 0 {
		go r.reportRateLimitInfo(encoder)
	}
	return r
}

type Info struct {
	NumberOfDroppedEvents uint64 `json:"number_of_dropped_events"`
}

type InfoEvent struct {
	RateLimitInfo *Info     `json:"rate_limit_info"`
	Time          time.Time `json:"time"`
}

func (r *RateLimiter) reportRateLimitInfo(encoder InfoEncoder) {
	ticker := time.NewTicker(r.reportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.report(encoder, time.Now())
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *RateLimiter) report(encoder InfoEncoder, now time.Time) {
	dropped := r.dropped.Swap(0)
	if dropped == 0 {
		return
	}
	err := encoder.Encode(&InfoEvent{
		RateLimitInfo: &Info{NumberOfDroppedEvents: dropped},
		Time:          now,
	})
	if err != nil {
		logger.GetLogger().
			WithError(err).
			WithField("dropped", dropped).
			Warn("Failed to encode rate_limit_info event")
	}
}

// Drop records an event rejected by Allow.
func (r *RateLimiter) Drop() {
	r.dropped.Inc()
	ratelimitmetrics.RateLimitDropped.Inc()
}

// Dropped returns the number of drops not yet reported.
func (r *RateLimiter) Dropped() uint64 {
	return r.dropped.Load()
}
