// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package exporter

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/ksentinel/ksentinel/pkg/api/eventapi"
	"github.com/ksentinel/ksentinel/pkg/event"
	"github.com/ksentinel/ksentinel/pkg/logger"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

var ErrAlreadyStarted = errors.New("exporter already started")

type ExportEncoder interface {
	Encode(v any) error
}

// LockedEncoder serializes calls to an encoder shared between the exporter
// and the rate limit reports.
type LockedEncoder struct {
	mu  sync.Mutex
	enc ExportEncoder
}

func NewLockedEncoder(enc ExportEncoder) *LockedEncoder {
	return &LockedEncoder{enc: enc}
}

func (l *LockedEncoder) Encode(v any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(v)
}

// Exporter consumes encoded events, converts them to documents and writes
// them to an encoder.
type Exporter struct {
	ctx     context.Context
	events  <-chan []byte
	encoder ExportEncoder
	closer  io.Closer
	log     logrus.FieldLogger

	once     sync.Once
	done     chan struct{}
	exported atomic.Uint64
	failed   atomic.Uint64
}

// NewExporter creates an exporter reading from events. closer, if not nil,
// is closed once the exporter stops.
func NewExporter(
	ctx context.Context,
	events <-chan []byte,
	encoder ExportEncoder,
	closer io.Closer,
) *Exporter {
	return &Exporter{
		ctx:     ctx,
		events:  events,
		encoder: encoder,
		closer:  closer,
		log:     logger.WithSubsys("exporter"),
		done:    make(chan struct{}),
	}
}

// Start runs the export loop until the context is done or the event
// channel is closed. Events still buffered in a closed channel are
// exported before stopping.
func (e *Exporter) Start() error {
	err := ErrAlreadyStarted
	e.once.Do(func() {
		err = nil
		go e.run()
	})
	return err
}

// Done is closed when the export loop returned.
func (e *Exporter) Done() <-chan struct{} {
	return e.done
}

func (e *Exporter) run() {
	defer close(e.done)
	defer func() {
		if e.closer == nil {
			return
		}
		if err := e.closer.Close(); err != nil {
			e.log.WithError(err).Warn("Failed to close export writer")
		}
	}()
	for {
		select {
		case raw, ok := <-e.events:
			if !ok {
				return
			}
			e.Send(raw)
		case <-e.ctx.Done():
			return
		}
	}
}

// Send exports one encoded event. Failures are counted and logged, they
// never stop the export loop.
func (e *Exporter) Send(raw []byte) error {
	r, err := event.Decode(raw)
	if err != nil {
		return e.fail(reasonDecode, err)
	}
	doc, err := eventapi.FromRecord(r)
	if err != nil {
		return e.fail(reasonConvert, err)
	}
	if err := e.encoder.Encode(doc); err != nil {
		return e.fail(reasonEncode, err)
	}
	e.exported.Inc()
	eventsExportedTotal.Inc()
	eventsExportTimestamp.Set(float64(doc.Time.Unix()))
	return nil
}

func (e *Exporter) fail(reason string, err error) error {
	e.failed.Inc()
	eventsExportErrors.WithLabelValues(reason).Inc()
	e.log.WithError(err).WithField("reason", reason).Warn("Failed to export event")
	return err
}

// Stats returns the number of exported and failed events.
func (e *Exporter) Stats() (exported, failed uint64) {
	return e.exported.Load(), e.failed.Load()
}
