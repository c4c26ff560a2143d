// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package bpf

import (
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/ksentinel/ksentinel/pkg/cache"
	"github.com/ksentinel/ksentinel/pkg/logger"
	"github.com/ksentinel/ksentinel/pkg/metrics/mapmetrics"
	"go.uber.org/multierr"
)

const (
	ConnectCacheMapName    = "connect_cache"
	MsgCacheMapName        = "udpmsg"
	KsymbolsMapName        = "ksymbols_map"
	SyscallsToCheckMapName = "syscalls_to_check_map"
	AnalyzeCacheMapName    = "analyze_cache"
)

type MapOptions struct {
	ConnectCacheSize int
	MsgCacheSize     int
	// Pin pins the maps by name under MapPrefixPath(), reusing maps that
	// are already pinned there.
	Pin bool
}

// Maps is the set of kernel maps shared between the hooks, the scanner and
// user space.
type Maps struct {
	ConnectCache *LRUStore[uint64, cache.ConnectContext]
	MsgCache     *LRUStore[uint64, cache.MsgHandle]
	Symbols      *SymbolMap
	Syscalls     *SyscallArray
	Cursor       *CursorMap

	handles []*ebpf.Map
	names   []string
}

func (m *Maps) newMap(spec *ebpf.MapSpec, opts MapOptions) (*ebpf.Map, error) {
	var mo ebpf.MapOptions
	if opts.Pin {
		spec.Pinning = ebpf.PinByName
		mo.PinPath = MapPrefixPath()
	}
	h, err := ebpf.NewMapWithOptions(spec, mo)
	if err != nil {
		return nil, fmt.Errorf("creating map %s: %w", spec.Name, err)
	}
	m.handles = append(m.handles, h)
	m.names = append(m.names, spec.Name)
	logger.GetLogger().WithField("map", spec.Name).WithField("pinned", opts.Pin).Debug("map created")
	return h, nil
}

// NewMaps creates all maps. On failure the maps created so far are closed.
func NewMaps(opts MapOptions) (_ *Maps, err error) {
	m := &Maps{}
	defer func() {
		if err != nil {
			err = multierr.Append(err, m.Close())
		}
	}()

	connSpec, err := lruSpec[uint64, cache.ConnectContext](ConnectCacheMapName, opts.ConnectCacheSize)
	if err != nil {
		return nil, err
	}
	h, err := m.newMap(connSpec, opts)
	if err != nil {
		return nil, err
	}
	m.ConnectCache = newLRUStore[uint64, cache.ConnectContext](h, ConnectCacheMapName)

	msgSpec, err := lruSpec[uint64, cache.MsgHandle](MsgCacheMapName, opts.MsgCacheSize)
	if err != nil {
		return nil, err
	}
	if h, err = m.newMap(msgSpec, opts); err != nil {
		return nil, err
	}
	m.MsgCache = newLRUStore[uint64, cache.MsgHandle](h, MsgCacheMapName)

	if h, err = m.newMap(symbolMapSpec(), opts); err != nil {
		return nil, err
	}
	m.Symbols = &SymbolMap{m: h}

	if h, err = m.newMap(syscallsSpec(), opts); err != nil {
		return nil, err
	}
	m.Syscalls = &SyscallArray{m: h}

	if h, err = m.newMap(cursorSpec(), opts); err != nil {
		return nil, err
	}
	m.Cursor = &CursorMap{m: h}
	return m, nil
}

// Memlock returns the memory locked by all maps, as reported by fdinfo.
func (m *Maps) Memlock() (int, error) {
	total := 0
	for _, h := range m.handles {
		n, err := ParseMemlockFromFDInfo(h.FD())
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// MapStats counts the entries of every map. It walks each map, so it is
// meant for scrapes and diagnostics.
func (m *Maps) MapStats() []mapmetrics.MapStat {
	stats := make([]mapmetrics.MapStat, 0, len(m.handles))
	for i, h := range m.handles {
		stats = append(stats, mapmetrics.MapStat{
			Name:     m.names[i],
			Entries:  countEntries(h),
			Capacity: int(h.MaxEntries()),
		})
	}
	return stats
}

func countEntries(h *ebpf.Map) int {
	k := make([]byte, h.KeySize())
	v := make([]byte, h.ValueSize())
	n := 0
	it := h.Iterate()
	for it.Next(k, v) {
		n++
	}
	return n
}

// Unpin removes the pins of all maps.
func (m *Maps) Unpin() error {
	var err error
	for _, h := range m.handles {
		err = multierr.Append(err, h.Unpin())
	}
	return err
}

func (m *Maps) Close() error {
	var err error
	for _, h := range m.handles {
		err = multierr.Append(err, h.Close())
	}
	m.handles, m.names = nil, nil
	return err
}
