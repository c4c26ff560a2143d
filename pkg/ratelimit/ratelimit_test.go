// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package ratelimit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func Test_getLimit(t *testing.T) {
	eps := 1e-9

	assert.InDelta(t, float64(rate.Limit(0)), float64(getLimit(0, time.Minute)), eps)
	assert.InDelta(t, float64(rate.Limit(0)), float64(getLimit(0, 0)), eps)
	assert.InEpsilon(t, float64(rate.Limit(1)), float64(getLimit(60, time.Minute)), eps)
	assert.InEpsilon(t, float64(rate.Limit(10.0/60)), float64(getLimit(10, time.Minute)), eps)
	// 1/ms => 1000/second
	assert.InEpsilon(t, float64(rate.Limit(1000)), float64(getLimit(1, time.Millisecond)), eps)
	// 3600/hour => 1/second
	assert.InEpsilon(t, float64(rate.Limit(1)), float64(getLimit(60*60, time.Hour)), eps)

	// interval<=0 => infinite rate limit (allow all events)
	assert.Equal(t, rate.Inf, getLimit(1, 0))
	assert.Equal(t, rate.Inf, getLimit(1, -1))
}

func TestNewRateLimiterDisabled(t *testing.T) {
	assert.Nil(t, NewRateLimiter(context.Background(), time.Second, -1, nil))
}

func TestRateLimiterReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRateLimiter(ctx, time.Hour, 1, nil)
	require.NotNil(t, r)
	assert.True(t, r.Allow())
	assert.False(t, r.Allow())
	r.Drop()
	r.Drop()
	assert.Equal(t, uint64(2), r.Dropped())

	var buf bytes.Buffer
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r.report(json.NewEncoder(&buf), now)
	assert.Equal(t, uint64(0), r.Dropped())

	var ev InfoEvent
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	require.NotNil(t, ev.RateLimitInfo)
	assert.Equal(t, uint64(2), ev.RateLimitInfo.NumberOfDroppedEvents)
	assert.True(t, now.Equal(ev.Time))

	// nothing to report
	buf.Reset()
	r.report(json.NewEncoder(&buf), now)
	assert.Zero(t, buf.Len())
}
