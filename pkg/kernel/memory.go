// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package kernel describes what the sensor needs from the kernel it runs in:
// fallible reads of kernel and user memory, the layout of the few kernel
// structures the hooks dereference, and introspection of the current task.
package kernel

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrUnmapped is returned by Memory implementations when a read touches
	// an address that is not backed by memory.
	ErrUnmapped = errors.New("address not mapped")

	// ErrNullPointer is returned when a read is attempted at address zero.
	ErrNullPointer = errors.New("null pointer dereference")
)

// Memory gives access to kernel and user memory. Reads never block and may
// fail at any point; callers decide whether a failure degrades a single
// field or aborts the event.
type Memory interface {
	// ReadKernel copies len(dst) bytes of kernel memory at addr into dst.
	ReadKernel(addr uint64, dst []byte) error
	// ReadUser copies len(dst) bytes of the current task's user memory at
	// addr into dst.
	ReadUser(addr uint64, dst []byte) error
}

// Space selects which address space a read targets.
type Space uint8

const (
	KernelSpace Space = iota
	UserSpace
)

func (s Space) String() string {
	if s == UserSpace {
		return "user"
	}
	return "kernel"
}

func read(m Memory, space Space, addr uint64, dst []byte) error {
	if addr == 0 {
		return ErrNullPointer
	}
	if space == UserSpace {
		return m.ReadUser(addr, dst)
	}
	return m.ReadKernel(addr, dst)
}

// Read copies len(dst) bytes at addr in the given address space.
func Read(m Memory, space Space, addr uint64, dst []byte) error {
	if err := read(m, space, addr, dst); err != nil {
		return fmt.Errorf("reading %d bytes of %s memory at 0x%x: %w", len(dst), space, addr, err)
	}
	return nil
}

// ReadU64 reads a native endian 64 bit value from kernel memory.
func ReadU64(m Memory, addr uint64) (uint64, error) {
	var b [8]byte
	if err := Read(m, KernelSpace, addr, b[:]); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint64(b[:]), nil
}

// ReadU32 reads a native endian 32 bit value from kernel memory.
func ReadU32(m Memory, addr uint64) (uint32, error) {
	var b [4]byte
	if err := Read(m, KernelSpace, addr, b[:]); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint32(b[:]), nil
}

// ReadU16 reads a native endian 16 bit value from the given address space.
func ReadU16(m Memory, space Space, addr uint64) (uint16, error) {
	var b [2]byte
	if err := Read(m, space, addr, b[:]); err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint16(b[:]), nil
}

// ReadBE16 reads a 16 bit value stored in network byte order, such as a
// port in struct sock_common.
func ReadBE16(m Memory, addr uint64) (uint16, error) {
	var b [2]byte
	if err := Read(m, KernelSpace, addr, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// strChunk is the granularity used by ReadStr. Reading in chunks keeps the
// number of reads low while not requiring the whole max window to be mapped.
const strChunk = 64

// ReadStr reads a NUL terminated string of at most maxLen bytes (terminator
// excluded). Like bpf_probe_read_str it succeeds as long as the bytes up to
// the terminator, or up to maxLen, are readable.
func ReadStr(m Memory, space Space, addr uint64, maxLen int) ([]byte, error) {
	if addr == 0 {
		return nil, ErrNullPointer
	}
	out := make([]byte, 0, strChunk)
	var chunk [strChunk]byte
	for len(out) < maxLen {
		n := min(strChunk, maxLen-len(out))
		cur := addr + uint64(len(out))
		if err := read(m, space, cur, chunk[:n]); err != nil {
			// the string may end right before an unmapped page
			return readStrSlow(m, space, cur, out, maxLen)
		}
		for i := 0; i < n; i++ {
			if chunk[i] == 0 {
				return append(out, chunk[:i]...), nil
			}
		}
		out = append(out, chunk[:n]...)
	}
	return out, nil
}

func readStrSlow(m Memory, space Space, addr uint64, out []byte, maxLen int) ([]byte, error) {
	var b [1]byte
	for i := uint64(0); len(out) < maxLen; i++ {
		if err := read(m, space, addr+i, b[:]); err != nil {
			return nil, fmt.Errorf("reading string of %s memory at 0x%x: %w", space, addr+i, err)
		}
		if b[0] == 0 {
			return out, nil
		}
		out = append(out, b[0])
	}
	return out, nil
}

// ReadPtrArray reads a NULL terminated array of pointers (such as argv) of at
// most maxLen entries from kernel memory. A failing read ends the array.
func ReadPtrArray(m Memory, addr uint64, maxLen int) []uint64 {
	var ptrs []uint64
	for i := 0; i < maxLen; i++ {
		p, err := ReadU64(m, addr+uint64(i)*8)
		if err != nil || p == 0 {
			break
		}
		ptrs = append(ptrs, p)
	}
	return ptrs
}
