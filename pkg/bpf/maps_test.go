// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package bpf

import (
	"testing"

	"github.com/ksentinel/ksentinel/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMaps creates unpinned maps, skipping the test when the kernel or
// the privileges do not allow it.
func newTestMaps(t *testing.T) *Maps {
	t.Helper()
	_ = ConfigureResourceLimits()
	m, err := NewMaps(MapOptions{ConnectCacheSize: 4, MsgCacheSize: 4})
	if err != nil {
		t.Skipf("creating BPF maps: %v", err)
	}
	t.Cleanup(func() { require.NoError(t, m.Close()) })
	return m
}

func TestLRUStoreTake(t *testing.T) {
	m := newTestMaps(t)

	k := cache.PidTgid(10, 11)
	want := cache.ConnectContext{Fd: 7, Family: 2, Addrlen: 16}
	m.ConnectCache.Put(k, want)
	assert.Equal(t, 1, m.ConnectCache.Len())

	got, ok := m.ConnectCache.Peek(k)
	require.True(t, ok)
	assert.Equal(t, want, got)

	got, ok = m.ConnectCache.Take(k)
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = m.ConnectCache.Take(k)
	assert.False(t, ok)
	assert.Zero(t, m.ConnectCache.Len())
}

func TestLRUStoreCapacity(t *testing.T) {
	m := newTestMaps(t)

	for i := uint64(0); i < 64; i++ {
		m.MsgCache.Put(i, cache.MsgHandle(0x1000+i))
	}
	// the kernel LRU is approximate, only the bound is guaranteed
	assert.LessOrEqual(t, m.MsgCache.Len(), 4)
	m.MsgCache.Delete(63)
	_, ok := m.MsgCache.Peek(63)
	assert.False(t, ok)
}

func TestSymbolMap(t *testing.T) {
	m := newTestMaps(t)

	require.NoError(t, m.Symbols.Put("sys_call_table", 0xffffffff82000280))
	addr, ok := m.Symbols.Lookup("sys_call_table")
	require.True(t, ok)
	assert.Equal(t, uint64(0xffffffff82000280), addr)

	_, ok = m.Symbols.Lookup("idt_table")
	assert.False(t, ok)

	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	require.Error(t, m.Symbols.Put(string(long), 1))
	_, ok = m.Symbols.Lookup(string(long))
	assert.False(t, ok)
}

type staticSymbols map[string]uint64

func (s staticSymbols) Lookup(name string) (uint64, bool) {
	v, ok := s[name]
	return v, ok
}

func TestSymbolMapMirror(t *testing.T) {
	m := newTestMaps(t)

	missing, err := m.Symbols.Mirror(staticSymbols{"sys_call_table": 0x10}, "sys_call_table", "idt_table")
	require.NoError(t, err)
	assert.Equal(t, []string{"idt_table"}, missing)
	addr, ok := m.Symbols.Lookup("sys_call_table")
	require.True(t, ok)
	assert.Equal(t, uint64(0x10), addr)
}

func TestSyscallArray(t *testing.T) {
	m := newTestMaps(t)

	require.NoError(t, m.Syscalls.Set([]uint64{0, 1, 59}))
	assert.Equal(t, 3, m.Syscalls.Len())
	nr, ok := m.Syscalls.At(2)
	require.True(t, ok)
	assert.Equal(t, uint64(59), nr)

	require.NoError(t, m.Syscalls.Set([]uint64{2}))
	_, ok = m.Syscalls.At(2)
	assert.False(t, ok)
	nr, ok = m.Syscalls.At(0)
	require.True(t, ok)
	assert.Equal(t, uint64(2), nr)
}

func TestCursorMap(t *testing.T) {
	m := newTestMaps(t)

	assert.Equal(t, uint32(0), m.Cursor.Get(0))
	m.Cursor.Set(0, 5)
	assert.Equal(t, uint32(5), m.Cursor.Get(0))
}

func TestMapStats(t *testing.T) {
	m := newTestMaps(t)

	m.ConnectCache.Put(cache.PidTgid(1, 1), cache.ConnectContext{Fd: 3})
	m.ConnectCache.Put(cache.PidTgid(2, 2), cache.ConnectContext{Fd: 4})

	stats := m.MapStats()
	require.Len(t, stats, 5)
	assert.Equal(t, ConnectCacheMapName, stats[0].Name)
	assert.Equal(t, 2, stats[0].Entries)
	assert.Equal(t, 4, stats[0].Capacity)
	assert.Equal(t, MsgCacheMapName, stats[1].Name)
	assert.Zero(t, stats[1].Entries)
}
