// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"fmt"

	"github.com/ksentinel/ksentinel/pkg/arch"
	"github.com/ksentinel/ksentinel/pkg/bpf"
	"github.com/ksentinel/ksentinel/pkg/cache"
	"github.com/ksentinel/ksentinel/pkg/event"
	"github.com/ksentinel/ksentinel/pkg/filters"
	"github.com/ksentinel/ksentinel/pkg/kernel"
	"github.com/ksentinel/ksentinel/pkg/ksyms"
	"github.com/ksentinel/ksentinel/pkg/metrics"
	"github.com/ksentinel/ksentinel/pkg/metrics/mapmetrics"
	"github.com/ksentinel/ksentinel/pkg/option"
	"github.com/ksentinel/ksentinel/pkg/scanner"
	"github.com/ksentinel/ksentinel/pkg/sensors"
	"github.com/prometheus/client_golang/prometheus"
)

// scannerSymbols are mirrored into the symbol map when BPF maps are used.
var scannerSymbols = []string{
	scanner.SyscallTableSymbol,
	scanner.IDTSymbol,
	"_stext",
	"_etext",
}

// components are the hook handlers and the integrity scanner, sharing the
// correlation caches, the symbol table and the submitter.
type components struct {
	ksyms   *ksyms.Ksyms
	maps    *bpf.Maps
	mapsCol prometheus.Collector
	sensor  *sensors.Sensor
	scanner *scanner.Scanner
}

func buildFilter() filters.ContextFilter {
	var self filters.ContextFilter
	if option.Config.ExcludeSelf {
		self = filters.ExcludeSelf()
	}
	return filters.Build(self, filters.ExcludePids(option.Config.ExcludePids...))
}

func newComponents(mem kernel.Memory, submitter *event.Submitter, self kernel.Task) (_ *components, err error) {
	c := &components{}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	c.ksyms, err = ksyms.NewKsyms(option.Config.ProcFS)
	if err != nil {
		return nil, fmt.Errorf("loading kallsyms: %w", err)
	}
	log.WithField("symbols", c.ksyms.Len()).Info("Loaded kernel symbols")

	var (
		symbols      scanner.SymbolTable = c.ksyms
		syscalls     scanner.SyscallList = scanner.StaticSyscalls(option.Config.MonitoredSyscalls)
		cursor       scanner.CursorStore
		connectCache cache.Store[uint64, cache.ConnectContext]
		msgCache     cache.Store[uint64, cache.MsgHandle]
	)

	if option.Config.UseBPFMaps {
		if err := bpf.ConfigureResourceLimits(); err != nil {
			log.WithError(err).Warn("Failed to raise memlock limit")
		}
		if err := bpf.CheckOrMountFS(""); err != nil {
			return nil, err
		}
		bpf.SetMapPrefix(option.Config.BPFDir)
		c.maps, err = bpf.NewMaps(bpf.MapOptions{
			ConnectCacheSize: option.Config.ConnectCacheSize,
			MsgCacheSize:     option.Config.MsgCacheSize,
			Pin:              true,
		})
		if err != nil {
			return nil, err
		}
		missing, err := c.maps.Symbols.Mirror(c.ksyms, scannerSymbols...)
		if err != nil {
			return nil, fmt.Errorf("filling %s: %w", bpf.KsymbolsMapName, err)
		}
		if len(missing) > 0 {
			log.WithField("symbols", missing).Warn("Kernel symbols not found, the matching scans will abort")
		}
		if err := c.maps.Syscalls.Set(option.Config.MonitoredSyscalls); err != nil {
			return nil, fmt.Errorf("filling %s: %w", bpf.SyscallsToCheckMapName, err)
		}
		if memlock, err := c.maps.Memlock(); err == nil {
			log.WithField("bytes", memlock).WithField("path", bpf.MapPrefixPath()).Info("BPF maps ready")
		}
		c.mapsCol = mapmetrics.NewBPFCollector(c.maps)
		if err := metrics.GetRegistry().Register(c.mapsCol); err != nil {
			log.WithError(err).Warn("Failed to register map metrics")
			c.mapsCol = nil
		}
		symbols, syscalls, cursor = c.maps.Symbols, c.maps.Syscalls, c.maps.Cursor
		connectCache, msgCache = c.maps.ConnectCache, c.maps.MsgCache
	} else {
		connectCache, err = cache.NewLRU[uint64, cache.ConnectContext](option.Config.ConnectCacheSize, bpf.ConnectCacheMapName)
		if err != nil {
			return nil, err
		}
		msgCache, err = cache.NewLRU[uint64, cache.MsgHandle](option.Config.MsgCacheSize, bpf.MsgCacheMapName)
		if err != nil {
			return nil, err
		}
	}

	c.sensor = sensors.New(sensors.Config{
		Memory:       mem,
		Layout:       kernel.DefaultLayout,
		ConnectCache: connectCache,
		MsgCache:     msgCache,
		Filter:       buildFilter(),
		Submitter:    submitter,
	})

	hasIDT := arch.HasIDT
	if !option.Config.EnableIDTScan {
		hasIDT = func() bool { return false }
	}
	c.scanner = scanner.New(scanner.Config{
		Memory:           mem,
		Symbols:          symbols,
		Syscalls:         syscalls,
		Modules:          c.ksyms,
		Cursor:           cursor,
		Submitter:        submitter,
		Task:             self,
		HasIDT:           hasIDT,
		SkipSyscallTable: !option.Config.EnableSyscallTableScan,
	})
	return c, nil
}

func (c *components) Close() {
	if c.maps == nil {
		return
	}
	if c.mapsCol != nil {
		metrics.GetRegistry().Unregister(c.mapsCol)
	}
	if err := c.maps.Close(); err != nil {
		log.WithError(err).Warn("Failed to close BPF maps")
	}
}
