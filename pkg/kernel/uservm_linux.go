// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package kernel

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ProcessMemory reads the user memory of a single process with
// process_vm_readv(2). Kernel reads are delegated to Kernel, if set.
type ProcessMemory struct {
	Pid    int
	Kernel Memory
}

func (p *ProcessMemory) ReadUser(addr uint64, dst []byte) error {
	if len(dst) == 0 {
		return nil
	}
	local := []unix.Iovec{{Base: &dst[0]}}
	local[0].SetLen(len(dst))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(dst)}}
	n, err := unix.ProcessVMReadv(p.Pid, local, remote, 0)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnmapped, err)
	}
	if n != len(dst) {
		return fmt.Errorf("%w: short read %d/%d", ErrUnmapped, n, len(dst))
	}
	return nil
}

func (p *ProcessMemory) ReadKernel(addr uint64, dst []byte) error {
	if p.Kernel == nil {
		return ErrUnmapped
	}
	return p.Kernel.ReadKernel(addr, dst)
}
