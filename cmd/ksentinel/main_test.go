// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/ksentinel/ksentinel/pkg/api/eventapi"
	"github.com/ksentinel/ksentinel/pkg/event"
	"github.com/ksentinel/ksentinel/pkg/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddr(t *testing.T) {
	addr, err := parseAddr("0xffffffff81000000")
	require.NoError(t, err)
	assert.Equal(t, uint64(0xffffffff81000000), addr)

	addr, err = parseAddr("4096")
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), addr)

	_, err = parseAddr("0xzz")
	assert.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(buf.String(), "ksentinel "))
}

func TestExportEncoder(t *testing.T) {
	defer func(o string) { option.Config.Output = o }(option.Config.Output)
	ev := &eventapi.Event{
		Type: "dns",
		Pid:  7,
		Comm: "dig",
		Data: &eventapi.DNS{Rcode: "NOERROR", Qtype: "A", Query: "example.com"},
	}

	var buf bytes.Buffer
	option.Config.Output = option.OutputJSON
	require.NoError(t, newExportEncoder(&buf).Encode(ev))
	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "dns", got["type"])

	buf.Reset()
	option.Config.Output = option.OutputCompact
	option.Config.Color = "never"
	require.NoError(t, newExportEncoder(&buf).Encode(ev))
	assert.Contains(t, buf.String(), "dig[7] A example.com NOERROR")
}

func TestBuildFilter(t *testing.T) {
	defer func(s bool, p []uint32) {
		option.Config.ExcludeSelf, option.Config.ExcludePids = s, p
	}(option.Config.ExcludeSelf, option.Config.ExcludePids)

	option.Config.ExcludeSelf = false
	option.Config.ExcludePids = []uint32{42}
	f := buildFilter()
	assert.True(t, f.Filter(&event.Context{Pid: 42}))
	assert.False(t, f.Filter(&event.Context{Pid: 1}))
	assert.True(t, f.Filter(&event.Context{Pid: 43, Ppid: 42}), "children of excluded pids are dropped")
	assert.False(t, f.Filter(&event.Context{Pid: 44, Ppid: 1}))

	option.Config.ExcludeSelf = true
	self := uint32(os.Getpid())
	f = buildFilter()
	assert.True(t, f.Filter(&event.Context{Pid: self}))
	assert.True(t, f.Filter(&event.Context{Pid: self + 1, Ppid: self}))
	option.Config.ExcludeSelf = false

	option.Config.ExcludePids = nil
	assert.False(t, buildFilter().Filter(&event.Context{Pid: 42}))
}
