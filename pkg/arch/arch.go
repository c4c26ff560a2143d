// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package arch holds what differs between the architectures the sensor runs
// on: syscall symbol prefixes, the syscalls checked by the dispatch table
// scan and whether an interrupt descriptor table exists.
package arch

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

var supportedArchPrefix = map[string]string{"amd64": "__x64_", "arm64": "__arm64_", "i386": "__ia32_"}

func addSyscallPrefix(symbol string, arch string) (string, error) {
	for prefixArch, prefix := range supportedArchPrefix {
		if strings.HasPrefix(symbol, prefix) {
			// check that the prefix found is the correct one
			if prefixArch != arch {
				return "", fmt.Errorf("expecting %s and got %s", supportedArchPrefix[arch], prefix)
			}
			return symbol, nil
		}
	}
	if prefix, found := supportedArchPrefix[arch]; found {
		return prefix + symbol, nil
	}
	return "", fmt.Errorf("unsupported architecture %s", arch)
}

// AddSyscallPrefix detects if the symbol is already prefixed with arch specific
// prefix in the form of "__x64_" or "__arm64_", and if not, adds it based on
// the running arch.
func AddSyscallPrefix(symbol string) (string, error) {
	return addSyscallPrefix(symbol, runtime.GOARCH)
}

// CutSyscallPrefix removes a potential arch specific prefix from the symbol.
// If a prefix was removed, it returns the corresponding arch as a first argument.
func CutSyscallPrefix(symbol string) (arch string, name string) {
	for a, p := range supportedArchPrefix {
		if rest, ok := strings.CutPrefix(symbol, p); ok {
			arch = a
			name = rest
			return
		}
	}

	name = symbol
	return
}

func HasSyscallPrefix(symbol string) bool {
	for _, prefix := range supportedArchPrefix {
		if strings.HasPrefix(symbol, prefix) {
			return true
		}
	}
	return false
}

func hasIDT(arch string) bool {
	return arch == "amd64" || arch == "386"
}

// HasIDT reports whether interrupts are dispatched through a descriptor
// table on the running arch.
func HasIDT() bool {
	return hasIDT(runtime.GOARCH)
}

// Syscall is a syscall of the running arch.
type Syscall struct {
	Name string
	Nr   uint64
}

// DefaultMonitoredSyscalls returns the syscalls checked by the dispatch
// table scan when none are configured.
func DefaultMonitoredSyscalls() []uint64 {
	nrs := make([]uint64, len(defaultMonitored))
	for i, s := range defaultMonitored {
		nrs[i] = s.Nr
	}
	return nrs
}

// SyscallNr resolves a syscall name such as "read", "sys_read" or
// "__x64_sys_read".
func SyscallNr(name string) (uint64, bool) {
	_, name = CutSyscallPrefix(name)
	name = strings.TrimPrefix(name, "sys_")
	for _, s := range knownSyscalls {
		if s.Name == name {
			return s.Nr, true
		}
	}
	return 0, false
}

// SyscallName is the inverse of SyscallNr.
func SyscallName(nr uint64) (string, bool) {
	for _, s := range knownSyscalls {
		if s.Nr == nr {
			return s.Name, true
		}
	}
	return "", false
}

// ParseMonitoredSyscalls parses a list of syscall numbers or names. An empty
// list selects DefaultMonitoredSyscalls.
func ParseMonitoredSyscalls(items []string) ([]uint64, error) {
	if len(items) == 0 {
		return DefaultMonitoredSyscalls(), nil
	}
	if len(items) > MaxMonitoredSyscalls {
		return nil, fmt.Errorf("%d syscalls configured, %s supports at most %d", len(items), runtime.GOARCH, MaxMonitoredSyscalls)
	}
	nrs := make([]uint64, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if nr, err := strconv.ParseUint(it, 0, 64); err == nil {
			nrs = append(nrs, nr)
			continue
		}
		nr, ok := SyscallNr(it)
		if !ok {
			return nil, fmt.Errorf("unknown syscall %q on %s", it, runtime.GOARCH)
		}
		nrs = append(nrs, nr)
	}
	return nrs, nil
}
