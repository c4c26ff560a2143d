// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package scanner

import (
	"sync"
)

// SymbolTable resolves kernel symbols. It is populated once, before
// scanning starts; a missing symbol means the scan is not ready.
type SymbolTable interface {
	Lookup(name string) (uint64, bool)
}

// SyscallList is the ordered list of monitored syscall numbers. A position
// may be empty.
type SyscallList interface {
	At(i int) (uint64, bool)
	Len() int
}

// ModuleResolver attributes an address to the core kernel ("", true), to a
// module (name, true) or to nothing (false).
type ModuleResolver interface {
	ModuleForAddr(addr uint64) (string, bool)
}

// CursorStore persists scan progress between invocations.
type CursorStore interface {
	Get(key int32) uint32
	Set(key int32, v uint32)
}

// StaticSyscalls is a SyscallList backed by a slice.
type StaticSyscalls []uint64

func (s StaticSyscalls) At(i int) (uint64, bool) {
	if i < 0 || i >= len(s) {
		return 0, false
	}
	return s[i], true
}

func (s StaticSyscalls) Len() int {
	return len(s)
}

// MemCursor is an in-process CursorStore.
type MemCursor struct {
	mu sync.Mutex
	m  map[int32]uint32
}

func NewMemCursor() *MemCursor {
	return &MemCursor{m: make(map[int32]uint32)}
}

func (c *MemCursor) Get(key int32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[key]
}

func (c *MemCursor) Set(key int32, v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = v
}

// Residency records who owns one interrupt handler.
type Residency struct {
	Addr     uint64
	Module   string
	Resolved bool
	// Seen is false until the vector has been scanned once.
	Seen bool
}

// ResidencyTable is the per vector result of the interrupt scan.
type ResidencyTable struct {
	mu      sync.RWMutex
	entries [IDTEntries]Residency
}

func (t *ResidencyTable) store(first int, chunk []Residency) {
	t.mu.Lock()
	defer t.mu.Unlock()
	copy(t.entries[first:], chunk)
}

// Get returns the residency of the given vector.
func (t *ResidencyTable) Get(vector int) (Residency, bool) {
	if vector < 0 || vector >= IDTEntries {
		return Residency{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	r := t.entries[vector]
	return r, r.Seen
}

// Snapshot copies the whole table.
func (t *ResidencyTable) Snapshot() [IDTEntries]Residency {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries
}

// Unresolved counts the scanned vectors whose handler could not be
// attributed.
func (t *ResidencyTable) Unresolved() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, r := range t.entries {
		if r.Seen && !r.Resolved {
			n++
		}
	}
	return n
}
