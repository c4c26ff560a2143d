// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package bpf

import (
	"github.com/cilium/ebpf"
)

// SyscallArray is the syscalls_to_check map: position in the monitored list
// to syscall number. It is a hash so that positions may be left empty.
type SyscallArray struct {
	m *ebpf.Map
	n int
}

func syscallsSpec() *ebpf.MapSpec {
	return &ebpf.MapSpec{
		Name:       SyscallsToCheckMapName,
		Type:       ebpf.Hash,
		KeySize:    4,
		ValueSize:  8,
		MaxEntries: 512,
	}
}

func (s *SyscallArray) At(i int) (uint64, bool) {
	var nr uint64
	if err := s.m.Lookup(int32(i), &nr); err != nil {
		return 0, false
	}
	return nr, true
}

// Len is the number of positions set through Set.
func (s *SyscallArray) Len() int {
	return s.n
}

// Set replaces the monitored list.
func (s *SyscallArray) Set(nrs []uint64) error {
	var (
		k int32
		v uint64
	)
	var stale []int32
	it := s.m.Iterate()
	for it.Next(&k, &v) {
		stale = append(stale, k)
	}
	for _, k := range stale {
		_ = s.m.Delete(k)
	}
	for i, nr := range nrs {
		if err := s.m.Put(int32(i), nr); err != nil {
			return err
		}
	}
	s.n = len(nrs)
	return nil
}
