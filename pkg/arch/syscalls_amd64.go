// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package arch

import "golang.org/x/sys/unix"

// MaxMonitoredSyscalls bounds the dispatch table scan.
const MaxMonitoredSyscalls = 18

var defaultMonitored = []Syscall{
	{"read", unix.SYS_READ},
	{"write", unix.SYS_WRITE},
	{"open", unix.SYS_OPEN},
	{"close", unix.SYS_CLOSE},
	{"ioctl", unix.SYS_IOCTL},
	{"socket", unix.SYS_SOCKET},
	{"connect", unix.SYS_CONNECT},
	{"accept", unix.SYS_ACCEPT},
	{"sendto", unix.SYS_SENDTO},
	{"recvfrom", unix.SYS_RECVFROM},
	{"execve", unix.SYS_EXECVE},
	{"kill", unix.SYS_KILL},
	{"getdents", unix.SYS_GETDENTS},
	{"init_module", unix.SYS_INIT_MODULE},
	{"delete_module", unix.SYS_DELETE_MODULE},
	{"getdents64", unix.SYS_GETDENTS64},
	{"openat", unix.SYS_OPENAT},
	{"finit_module", unix.SYS_FINIT_MODULE},
}

var knownSyscalls = append([]Syscall{
	{"mmap", unix.SYS_MMAP},
	{"mprotect", unix.SYS_MPROTECT},
	{"ptrace", unix.SYS_PTRACE},
	{"bind", unix.SYS_BIND},
	{"listen", unix.SYS_LISTEN},
	{"unlink", unix.SYS_UNLINK},
	{"unlinkat", unix.SYS_UNLINKAT},
	{"rename", unix.SYS_RENAME},
	{"setuid", unix.SYS_SETUID},
	{"bpf", unix.SYS_BPF},
}, defaultMonitored...)
