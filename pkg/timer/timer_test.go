// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestTimer(t *testing.T) {
	var count atomic.Int32
	timer1 := NewPeriodicTimer("test-timer", func() { count.Inc() }, true)

	require.NoError(t, timer1.Start(20*time.Millisecond))
	assert.Equal(t, 20*time.Millisecond, timer1.Running())
	assert.Eventually(t, func() bool { return count.Load() >= 3 }, 5*time.Second, 5*time.Millisecond)

	// same interval keeps the worker, a new one replaces it
	require.NoError(t, timer1.Start(20*time.Millisecond))
	require.NoError(t, timer1.Start(time.Hour))
	assert.Equal(t, time.Hour, timer1.Running())

	timer1.Stop()
	assert.Zero(t, timer1.Running())
	stopped := count.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, stopped, count.Load())

	// stopping twice is harmless
	timer1.Stop()
}

func TestTimerInvalidInterval(t *testing.T) {
	timer1 := NewPeriodicTimer("test-timer", func() {}, false)
	assert.ErrorIs(t, timer1.Start(0), ErrInvalidInterval)
	assert.Zero(t, timer1.Running())
}
