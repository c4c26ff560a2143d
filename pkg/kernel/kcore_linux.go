// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package kernel

import (
	"debug/elf"
	"fmt"
	"os"
	"sort"
)

type kcoreSegment struct {
	vaddr uint64
	off   uint64
	size  uint64
}

// Kcore reads live kernel memory through /proc/kcore. Only addresses
// covered by a PT_LOAD segment are readable.
type Kcore struct {
	f    *os.File
	segs []kcoreSegment
}

// OpenKcore parses the program headers of the kcore ELF image at path.
func OpenKcore(path string) (*Kcore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	ef, err := elf.NewFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	k := &Kcore{f: f}
	for _, p := range ef.Progs {
		if p.Type != elf.PT_LOAD || p.Filesz == 0 {
			continue
		}
		k.segs = append(k.segs, kcoreSegment{vaddr: p.Vaddr, off: p.Off, size: p.Filesz})
	}
	if len(k.segs) == 0 {
		f.Close()
		return nil, fmt.Errorf("%s has no loadable segments", path)
	}
	sort.Slice(k.segs, func(i, j int) bool { return k.segs[i].vaddr < k.segs[j].vaddr })
	return k, nil
}

func (k *Kcore) ReadKernel(addr uint64, dst []byte) error {
	i := sort.Search(len(k.segs), func(i int) bool { return k.segs[i].vaddr+k.segs[i].size > addr })
	if i == len(k.segs) {
		return ErrUnmapped
	}
	s := k.segs[i]
	if addr < s.vaddr || addr+uint64(len(dst)) > s.vaddr+s.size {
		return ErrUnmapped
	}
	if _, err := k.f.ReadAt(dst, int64(s.off+addr-s.vaddr)); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmapped, err)
	}
	return nil
}

// ReadUser always fails: kcore only exposes the kernel address space.
func (k *Kcore) ReadUser(uint64, []byte) error {
	return ErrUnmapped
}

func (k *Kcore) Close() error {
	return k.f.Close()
}
