// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package bpf

import (
	"github.com/cilium/ebpf"
)

// CursorMap is the analyze cache, holding the resumable scan cursors.
type CursorMap struct {
	m *ebpf.Map
}

func cursorSpec() *ebpf.MapSpec {
	return &ebpf.MapSpec{
		Name:       AnalyzeCacheMapName,
		Type:       ebpf.Hash,
		KeySize:    4,
		ValueSize:  4,
		MaxEntries: 20,
	}
}

// Get returns the cursor stored under key, 0 when there is none.
func (c *CursorMap) Get(key int32) uint32 {
	var v uint32
	if err := c.m.Lookup(key, &v); err != nil {
		return 0
	}
	return v
}

func (c *CursorMap) Set(key int32, v uint32) {
	_ = c.m.Put(key, v)
}
