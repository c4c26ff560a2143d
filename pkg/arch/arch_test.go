// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package arch

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_addSyscallPrefix(t *testing.T) {
	symbol := "sys_test"
	arch := "test64"
	supportedArchPrefix[arch] = "__test64_"
	defer delete(supportedArchPrefix, arch)
	prefixedSymbol := supportedArchPrefix[arch] + symbol

	// adding prefix
	res, err := addSyscallPrefix(symbol, arch)
	require.NoError(t, err)
	assert.Equal(t, prefixedSymbol, res)

	// doing nothing
	res, err = addSyscallPrefix(prefixedSymbol, arch)
	require.NoError(t, err)
	assert.Equal(t, prefixedSymbol, res)

	// wrong prefix for current arch
	res, err = addSyscallPrefix("__x64_"+symbol, arch)
	require.Error(t, err)
	assert.Empty(t, res)

	// not supported arch
	res, err = addSyscallPrefix(symbol, "unsupported64")
	require.Error(t, err)
	assert.Empty(t, res)
}

func TestCutSyscallPrefix(t *testing.T) {
	arch, name := CutSyscallPrefix("__arm64_sys_read")
	assert.Equal(t, "arm64", arch)
	assert.Equal(t, "sys_read", name)

	arch, name = CutSyscallPrefix("sys_read")
	assert.Empty(t, arch)
	assert.Equal(t, "sys_read", name)
	assert.False(t, HasSyscallPrefix("sys_read"))
	assert.True(t, HasSyscallPrefix("__x64_sys_read"))
}

func TestHasIDT(t *testing.T) {
	assert.True(t, hasIDT("amd64"))
	assert.True(t, hasIDT("386"))
	assert.False(t, hasIDT("arm64"))
	assert.False(t, hasIDT("riscv64"))
}

func TestDefaultMonitoredSyscalls(t *testing.T) {
	nrs := DefaultMonitoredSyscalls()
	assert.Len(t, nrs, MaxMonitoredSyscalls)

	seen := map[uint64]bool{}
	for _, nr := range nrs {
		assert.False(t, seen[nr], "syscall %d listed twice", nr)
		seen[nr] = true
	}
}

func TestParseMonitoredSyscalls(t *testing.T) {
	if runtime.GOARCH != "amd64" && runtime.GOARCH != "arm64" {
		t.Skipf("no syscall table for %s", runtime.GOARCH)
	}

	nrs, err := ParseMonitoredSyscalls(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultMonitoredSyscalls(), nrs)

	readNr, ok := SyscallNr("read")
	require.True(t, ok)
	prefixed, err := AddSyscallPrefix("sys_read")
	require.NoError(t, err)

	nrs, err = ParseMonitoredSyscalls([]string{"read", "sys_read", prefixed, " 0x10 ", "42"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{readNr, readNr, readNr, 16, 42}, nrs)

	name, ok := SyscallName(readNr)
	require.True(t, ok)
	assert.Equal(t, "read", name)

	_, err = ParseMonitoredSyscalls([]string{"not_a_syscall"})
	require.Error(t, err)

	tooMany := make([]string, MaxMonitoredSyscalls+1)
	for i := range tooMany {
		tooMany[i] = "1"
	}
	_, err = ParseMonitoredSyscalls(tooMany)
	require.Error(t, err)
}
