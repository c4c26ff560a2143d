// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package version

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	BuildInfo{GoVersion: "go1.22.1", Commit: "abc", Modified: "true"}.Print(&buf)
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, Name+" "+Version+"\n"))
	assert.Contains(t, out, "GoVersion: go1.22.1\n")
	assert.Contains(t, out, "GitCommit: abc\n")
	assert.Contains(t, out, "GitTreeState: dirty\n")
}

func TestBuildInfoCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewBuildInfoCollector()))
	n, err := testutil.GatherAndCount(reg, "ksentinel_build_info")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
