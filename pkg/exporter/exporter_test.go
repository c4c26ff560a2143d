// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ksentinel/ksentinel/pkg/api/ops"
	"github.com/ksentinel/ksentinel/pkg/event"
	"github.com/ksentinel/ksentinel/pkg/kernel/kerneltest"
	"github.com/ksentinel/ksentinel/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type arrayWriter struct {
	mu     sync.Mutex
	items  []string
	closed bool
}

func (a *arrayWriter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

func (a *arrayWriter) Write(p []byte) (n int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items = append(a.items, strings.TrimSpace(string(p)))
	return len(p), nil
}

func (a *arrayWriter) lines() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.items...)
}

func moduleEvent(t *testing.T, name string) []byte {
	task := kerneltest.NewTask(100, "insmod")
	e, ok := event.Begin(task, 0)
	require.True(t, ok)
	e.SetType(ops.MSG_OP_SECURITY_KERNEL_READ)
	e.AppendStr(0, name)
	e.AppendI32(1, 2)
	return e.Encode()
}

func TestExporter_Send(t *testing.T) {
	events := make(chan []byte, 4)
	w := &arrayWriter{}
	ex := NewExporter(context.Background(), events, json.NewEncoder(w), w)
	require.NoError(t, ex.Start())
	assert.ErrorIs(t, ex.Start(), ErrAlreadyStarted)

	before := testutil.ToFloat64(eventsExportedTotal)
	events <- moduleEvent(t, "/lib/modules/a.ko")
	events <- []byte{1, 2, 3}
	events <- moduleEvent(t, "/lib/modules/b.ko")
	close(events)

	select {
	case <-ex.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("exporter did not stop")
	}

	lines := w.lines()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"filename":"/lib/modules/a.ko"`)
	assert.Contains(t, lines[0], `"typename":"READING_MODULE"`)
	assert.Contains(t, lines[1], `"filename":"/lib/modules/b.ko"`)
	assert.True(t, w.closed)

	exported, failed := ex.Stats()
	assert.Equal(t, uint64(2), exported)
	assert.Equal(t, uint64(1), failed)
	assert.Equal(t, before+2, testutil.ToFloat64(eventsExportedTotal))
}

func TestExporter_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := &arrayWriter{}
	ex := NewExporter(ctx, make(chan []byte), json.NewEncoder(w), w)
	require.NoError(t, ex.Start())
	cancel()
	select {
	case <-ex.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("exporter did not stop")
	}
	assert.True(t, w.closed)
}

type failingEncoder struct{}

func (failingEncoder) Encode(any) error { return errors.New("disk full") }

func TestExporter_EncodeFailure(t *testing.T) {
	ex := NewExporter(context.Background(), nil, failingEncoder{}, nil)
	before := testutil.ToFloat64(eventsExportErrors.WithLabelValues(reasonEncode))
	assert.Error(t, ex.Send(moduleEvent(t, "/x")))
	assert.Equal(t, before+1, testutil.ToFloat64(eventsExportErrors.WithLabelValues(reasonEncode)))
}

func TestExportedBytesWriter(t *testing.T) {
	var buf bytes.Buffer
	before := testutil.ToFloat64(eventsExportedBytesTotal)
	w := NewExportedBytesTotalWriter(&buf)
	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, before+5, testutil.ToFloat64(eventsExportedBytesTotal))
}

func Test_rateLimitExport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &arrayWriter{}
	enc := NewLockedEncoder(json.NewEncoder(w))
	rl := ratelimit.NewRateLimiter(ctx, 50*time.Millisecond, 1, enc)
	sub := event.NewSubmitter(16, rl)
	ex := NewExporter(ctx, sub.Events(), enc, nil)
	require.NoError(t, ex.Start())

	task := kerneltest.NewTask(100, "insmod")
	var limited int
	for i := 0; i < 5; i++ {
		e, ok := event.Begin(task, 0)
		require.True(t, ok)
		e.SetType(ops.MSG_OP_SECURITY_KERNEL_READ)
		e.AppendStr(0, "/x")
		e.AppendI32(1, 0)
		if errors.Is(sub.Submit(e), event.ErrRateLimited) {
			limited++
		}
	}
	require.Equal(t, 4, limited)

	assert.Eventually(t, func() bool {
		for _, l := range w.lines() {
			if strings.Contains(l, `"rate_limit_info":{"number_of_dropped_events":4}`) {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		exported, _ := ex.Stats()
		return exported == 1
	}, 5*time.Second, 10*time.Millisecond)
}
