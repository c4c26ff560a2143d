// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package arch

import "golang.org/x/sys/unix"

// MaxMonitoredSyscalls bounds the dispatch table scan.
const MaxMonitoredSyscalls = 14

var defaultMonitored = []Syscall{
	{"read", unix.SYS_READ},
	{"write", unix.SYS_WRITE},
	{"openat", unix.SYS_OPENAT},
	{"close", unix.SYS_CLOSE},
	{"ioctl", unix.SYS_IOCTL},
	{"socket", unix.SYS_SOCKET},
	{"connect", unix.SYS_CONNECT},
	{"accept", unix.SYS_ACCEPT},
	{"getdents64", unix.SYS_GETDENTS64},
	{"kill", unix.SYS_KILL},
	{"execve", unix.SYS_EXECVE},
	{"init_module", unix.SYS_INIT_MODULE},
	{"delete_module", unix.SYS_DELETE_MODULE},
	{"finit_module", unix.SYS_FINIT_MODULE},
}

var knownSyscalls = append([]Syscall{
	{"mmap", unix.SYS_MMAP},
	{"mprotect", unix.SYS_MPROTECT},
	{"ptrace", unix.SYS_PTRACE},
	{"bind", unix.SYS_BIND},
	{"listen", unix.SYS_LISTEN},
	{"unlinkat", unix.SYS_UNLINKAT},
	{"renameat", unix.SYS_RENAMEAT},
	{"setuid", unix.SYS_SETUID},
	{"bpf", unix.SYS_BPF},
}, defaultMonitored...)
