// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package filters

import (
	"sync"

	"github.com/ksentinel/ksentinel/pkg/event"
	"github.com/ksentinel/ksentinel/pkg/logger"
)

const childCacheWarning = 8192

// PidSetFilter drops events of a set of processes and of their descendants.
// Descendants are learned from the parent pid of events as they are seen.
type PidSetFilter struct {
	mu         sync.Mutex
	pidSet     []uint32
	childCache map[uint32]struct{}
	warning    int
}

func NewPidSetFilter(pids ...uint32) *PidSetFilter {
	return &PidSetFilter{
		pidSet:     pids,
		childCache: make(map[uint32]struct{}),
		warning:    childCacheWarning,
	}
}

func (f *PidSetFilter) member(pid uint32) bool {
	// The original set is never dropped from the cache.
	for _, p := range f.pidSet {
		if pid == p {
			return true
		}
	}
	_, ok := f.childCache[pid]
	return ok
}

func (f *PidSetFilter) Filter(ctx *event.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.member(ctx.Pid) {
		return true
	}
	if ctx.Ppid == 0 || !f.member(ctx.Ppid) {
		return false
	}

	f.childCache[ctx.Pid] = struct{}{}
	if len(f.childCache) == f.warning {
		logger.GetLogger().Warnf("pidSet filter cache has exceeded %d entries. To prevent excess memory usage, consider disabling it.", f.warning)
		f.warning *= 2
	}
	return true
}

// Forget removes a pid from the learned descendants.
func (f *PidSetFilter) Forget(pid uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.childCache, pid)
}

// Children returns the number of learned descendants.
func (f *PidSetFilter) Children() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.childCache)
}
