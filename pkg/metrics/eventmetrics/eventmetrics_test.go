// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package eventmetrics

import (
	"testing"

	"github.com/ksentinel/ksentinel/pkg/api/ops"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NotPanics(t, func() { RegisterMetrics(reg) })

	before := testutil.ToFloat64(Submitted(ops.MSG_OP_SYS_CONNECT))
	Submitted(ops.MSG_OP_SYS_CONNECT).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Submitted(ops.MSG_OP_SYS_CONNECT)))

	Dropped(ops.MSG_OP_UDP_RECVMSG, DropChannelFull).Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(Dropped(ops.MSG_OP_UDP_RECVMSG, DropChannelFull)), float64(1))
}
