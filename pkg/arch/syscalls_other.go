// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

//go:build !amd64 && !arm64

package arch

// MaxMonitoredSyscalls is zero where the dispatch table scan is not
// supported.
const MaxMonitoredSyscalls = 0

var (
	defaultMonitored []Syscall
	knownSyscalls    []Syscall
)
