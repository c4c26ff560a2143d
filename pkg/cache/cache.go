// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package cache holds the correlation caches that carry context from an
// entry hook to its completion hook.
package cache

// Store is a fixed capacity keyed store. Every method is atomic on its own;
// sequences of calls are not.
type Store[K comparable, V any] interface {
	// Put inserts or overwrites the entry for k.
	Put(k K, v V)
	// Take returns the entry for k and removes it.
	Take(k K) (V, bool)
	// Peek returns the entry for k without removing it.
	Peek(k K) (V, bool)
	// Delete removes the entry for k, if any.
	Delete(k K)
	// Len returns the number of live entries.
	Len() int
}

// PidTgid packs a thread identity the way bpf_get_current_pid_tgid() does:
// the thread group id in the upper 32 bits, the thread id in the lower ones.
func PidTgid(tgid, tid uint32) uint64 {
	return uint64(tgid)<<32 | uint64(tid)
}

// SplitPidTgid is the inverse of PidTgid.
func SplitPidTgid(key uint64) (tgid, tid uint32) {
	return uint32(key >> 32), uint32(key)
}

// ConnectContext is what connect() entry saves for connect() exit.
type ConnectContext struct {
	Fd      int32
	Family  uint16
	_       uint16
	Addrlen int32
}

// MsgHandle is the kernel address of the struct msghdr handed to
// udp_recvmsg().
type MsgHandle uint64

const (
	ConnectCacheName = "connect_cache"
	MsgCacheName     = "udpmsg"
)
