// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package kernel

import (
	"encoding/binary"
	"sort"
	"sync"
)

type region struct {
	base uint64
	data []byte
}

func (r *region) end() uint64 { return r.base + uint64(len(r.data)) }

type addrSpace struct {
	regions []*region
}

func (s *addrSpace) find(addr uint64, n int) ([]byte, bool) {
	i := sort.Search(len(s.regions), func(i int) bool { return s.regions[i].end() > addr })
	if i == len(s.regions) {
		return nil, false
	}
	r := s.regions[i]
	if addr < r.base || addr+uint64(n) > r.end() {
		return nil, false
	}
	off := addr - r.base
	return r.data[off : off+uint64(n)], true
}

func (s *addrSpace) mapRegion(base uint64, data []byte) {
	s.regions = append(s.regions, &region{base: base, data: data})
	sort.Slice(s.regions, func(i, j int) bool { return s.regions[i].base < s.regions[j].base })
}

// FlatMemory is a sparse image of kernel and user memory made of explicitly
// mapped regions. Reads spanning unmapped bytes fail with ErrUnmapped. It
// backs replay tooling and tests.
type FlatMemory struct {
	mu     sync.RWMutex
	kernel addrSpace
	user   addrSpace
}

func NewFlatMemory() *FlatMemory {
	return &FlatMemory{}
}

// Map makes data readable at base in the given address space. Regions must
// not overlap.
func (f *FlatMemory) Map(sp Space, base uint64, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sp == UserSpace {
		f.user.mapRegion(base, data)
	} else {
		f.kernel.mapRegion(base, data)
	}
}

// MapKernel is a shortcut for Map(KernelSpace, ...).
func (f *FlatMemory) MapKernel(base uint64, data []byte) {
	f.Map(KernelSpace, base, data)
}

// MapUser is a shortcut for Map(UserSpace, ...).
func (f *FlatMemory) MapUser(base uint64, data []byte) {
	f.Map(UserSpace, base, data)
}

// store writes data into the region covering addr, or maps a new region
// when there is none.
func (f *FlatMemory) store(sp Space, addr uint64, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &f.kernel
	if sp == UserSpace {
		s = &f.user
	}
	if dst, ok := s.find(addr, len(data)); ok {
		copy(dst, data)
		return
	}
	s.mapRegion(addr, data)
}

// PutU64 stores a single native endian 64 bit value in kernel memory.
func (f *FlatMemory) PutU64(addr uint64, v uint64) {
	b := make([]byte, 8)
	binary.NativeEndian.PutUint64(b, v)
	f.store(KernelSpace, addr, b)
}

// PutStr stores a NUL terminated string in the given address space.
func (f *FlatMemory) PutStr(sp Space, addr uint64, s string) {
	f.store(sp, addr, append([]byte(s), 0))
}

// PutPtrArray stores a NULL terminated pointer array in kernel memory.
func (f *FlatMemory) PutPtrArray(addr uint64, ptrs []uint64) {
	b := make([]byte, 8*(len(ptrs)+1))
	for i, p := range ptrs {
		binary.NativeEndian.PutUint64(b[8*i:], p)
	}
	f.store(KernelSpace, addr, b)
}

func (f *FlatMemory) ReadKernel(addr uint64, dst []byte) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	src, ok := f.kernel.find(addr, len(dst))
	if !ok {
		return ErrUnmapped
	}
	copy(dst, src)
	return nil
}

func (f *FlatMemory) ReadUser(addr uint64, dst []byte) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	src, ok := f.user.find(addr, len(dst))
	if !ok {
		return ErrUnmapped
	}
	copy(dst, src)
	return nil
}
