// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ksentinel/ksentinel/pkg/metrics/scanmetrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAllMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NotPanics(t, func() { InitAllMetrics(reg) })
	// registering twice must fail, every collector is a singleton
	assert.Panics(t, func() { InitAllMetrics(reg) })

	scanmetrics.IDTSweeps.Inc()
	n, err := testutil.GatherAndCount(reg, "ksentinel_idt_sweeps_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegistryHandler(t *testing.T) {
	reg := GetRegistry()
	require.Same(t, reg, GetRegistry())

	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, " ")
	assert.Contains(t, joined, "go_goroutines")
}
