// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package event

import (
	"errors"

	"github.com/ksentinel/ksentinel/pkg/api/ops"
	"github.com/ksentinel/ksentinel/pkg/logger"
	"github.com/ksentinel/ksentinel/pkg/logger/logfields"
	"github.com/ksentinel/ksentinel/pkg/metrics/eventmetrics"
	"github.com/ksentinel/ksentinel/pkg/ratelimit"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

var (
	ErrChannelFull  = errors.New("output channel full")
	ErrRateLimited  = errors.New("event rate limit exceeded")
	errNilSubmitter = errors.New("no output channel")
)

// Submitter hands finished events to the consumer. Submit never blocks:
// when the channel is full the event is dropped.
type Submitter struct {
	events    chan []byte
	limiter   *ratelimit.RateLimiter
	log       logrus.FieldLogger
	submitted atomic.Uint64
	dropped   atomic.Uint64
}

// NewSubmitter creates an output channel holding up to queueSize events.
// limiter may be nil.
func NewSubmitter(queueSize int, limiter *ratelimit.RateLimiter) *Submitter {
	return &Submitter{
		events:  make(chan []byte, queueSize),
		limiter: limiter,
		log:     logger.WithSubsys("submit"),
	}
}

// Events is the consumer side of the output channel.
func (s *Submitter) Events() <-chan []byte {
	return s.events
}

// Submit copies the encoded event to the output channel.
func (s *Submitter) Submit(e *Event) error {
	if s == nil {
		return errNilSubmitter
	}
	op := e.Ctx.EventType()
	if e.trunc > 0 {
		eventmetrics.FieldsTruncated.WithLabelValues(op.String()).Add(float64(e.trunc))
	}
	if s.limiter != nil && !s.limiter.Allow() {
		s.limiter.Drop()
		s.drop(op, eventmetrics.DropRateLimit)
		return ErrRateLimited
	}

	select {
	case s.events <- e.Encode():
		s.submitted.Inc()
		eventmetrics.Submitted(op).Inc()
		return nil
	default:
		s.drop(op, eventmetrics.DropChannelFull)
		return ErrChannelFull
	}
}

func (s *Submitter) drop(op ops.EventType, reason string) {
	s.dropped.Inc()
	eventmetrics.EventsDropped.WithLabelValues(op.String(), reason).Inc()
	s.log.WithField(logfields.EventType, op.String()).WithField("reason", reason).Debug("Event dropped")
}

// Stats returns the number of submitted and dropped events.
func (s *Submitter) Stats() (submitted, dropped uint64) {
	return s.submitted.Load(), s.dropped.Load()
}
