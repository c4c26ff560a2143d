// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package event

import (
	"context"
	"testing"
	"time"

	"github.com/ksentinel/ksentinel/pkg/api/ops"
	"github.com/ksentinel/ksentinel/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitterDropsWhenFull(t *testing.T) {
	s := NewSubmitter(2, nil)
	for i := 0; i < 2; i++ {
		e, ok := Begin(newTask(), uint64(i))
		require.True(t, ok)
		e.SetType(ops.MSG_OP_SYS_CONNECT)
		require.NoError(t, s.Submit(e))
	}

	e, ok := Begin(newTask(), 2)
	require.True(t, ok)
	require.ErrorIs(t, s.Submit(e), ErrChannelFull)

	submitted, dropped := s.Stats()
	assert.Equal(t, uint64(2), submitted)
	assert.Equal(t, uint64(1), dropped)

	// first in, first out
	r, err := Decode(<-s.Events())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), r.Ctx.Ts)
}

func TestSubmitterCopiesEvent(t *testing.T) {
	s := NewSubmitter(1, nil)
	e, ok := Begin(newTask(), 0)
	require.True(t, ok)
	e.AppendStr(0, "first")
	require.NoError(t, s.Submit(e))

	// further changes to the event must not leak into the channel
	e.AppendStr(1, "second")
	r, err := Decode(<-s.Events())
	require.NoError(t, err)
	assert.Len(t, r.Fields, 1)
}

func TestSubmitterRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := ratelimit.NewRateLimiter(ctx, time.Hour, 1, nil)
	s := NewSubmitter(10, rl)

	e, ok := Begin(newTask(), 0)
	require.True(t, ok)
	require.NoError(t, s.Submit(e))
	require.ErrorIs(t, s.Submit(e), ErrRateLimited)
	assert.Equal(t, uint64(1), rl.Dropped())
	assert.Len(t, s.Events(), 1)
}

func TestNilSubmitter(t *testing.T) {
	var s *Submitter
	e, ok := Begin(newTask(), 0)
	require.True(t, ok)
	require.Error(t, s.Submit(e))
}
