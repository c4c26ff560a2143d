// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package bpf

import (
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/ksentinel/ksentinel/pkg/kernel"
)

type ksymName [kernel.MaxKsymNameSize]byte

func newKsymName(name string) (ksymName, bool) {
	var k ksymName
	// keep room for the terminator
	if len(name) >= kernel.MaxKsymNameSize {
		return k, false
	}
	copy(k[:], name)
	return k, true
}

// SymbolMap is the ksymbols map: symbol name (64 byte key) to address.
type SymbolMap struct {
	m *ebpf.Map
}

func symbolMapSpec() *ebpf.MapSpec {
	return &ebpf.MapSpec{
		Name:       KsymbolsMapName,
		Type:       ebpf.Hash,
		KeySize:    kernel.MaxKsymNameSize,
		ValueSize:  8,
		MaxEntries: 64,
	}
}

// Lookup implements the scanner symbol table. Names that do not fit the
// key never match.
func (s *SymbolMap) Lookup(name string) (uint64, bool) {
	k, ok := newKsymName(name)
	if !ok {
		return 0, false
	}
	var addr uint64
	if err := s.m.Lookup(k, &addr); err != nil {
		return 0, false
	}
	return addr, true
}

func (s *SymbolMap) Put(name string, addr uint64) error {
	k, ok := newKsymName(name)
	if !ok {
		return fmt.Errorf("symbol name %q exceeds %d bytes", name, kernel.MaxKsymNameSize-1)
	}
	return s.m.Put(k, addr)
}

// Mirror copies the given symbols from src. Symbols src does not know are
// skipped and reported in missing.
func (s *SymbolMap) Mirror(src interface {
	Lookup(name string) (uint64, bool)
}, names ...string) (missing []string, err error) {
	for _, name := range names {
		addr, ok := src.Lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if err := s.Put(name, addr); err != nil {
			return missing, err
		}
	}
	return missing, nil
}
