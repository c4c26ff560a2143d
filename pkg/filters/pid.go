// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package filters

import (
	"os"
)

// ExcludePids drops events of the given processes and of their descendants.
func ExcludePids(pids ...uint32) ContextFilter {
	if len(pids) == 0 {
		return nil
	}
	return NewPidSetFilter(pids...)
}

// ExcludeSelf drops events generated by this process and its children, so
// that the agent does not report its own activity.
func ExcludeSelf() ContextFilter {
	return NewPidSetFilter(uint32(os.Getpid()))
}
