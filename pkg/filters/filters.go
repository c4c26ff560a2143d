// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package filters implements context filters: predicates over the event
// context header consulted by hook handlers before any field is captured.
package filters

import (
	"github.com/ksentinel/ksentinel/pkg/event"
)

// ContextFilter decides whether an event must be suppressed. Filter returns
// true to drop the event.
type ContextFilter interface {
	Filter(ctx *event.Context) bool
}

// FilterFunc adapts a function to ContextFilter.
type FilterFunc func(ctx *event.Context) bool

func (f FilterFunc) Filter(ctx *event.Context) bool {
	return f(ctx)
}

// FilterFuncs combines filters. The event is dropped if any of them drops
// it.
type FilterFuncs []ContextFilter

func (fs FilterFuncs) Filter(ctx *event.Context) bool {
	for _, f := range fs {
		if f.Filter(ctx) {
			return true
		}
	}
	return false
}

// None never drops an event.
var None ContextFilter = FilterFunc(func(*event.Context) bool { return false })

// Build combines the given filters, skipping nil entries.
func Build(fs ...ContextFilter) ContextFilter {
	var out FilterFuncs
	for _, f := range fs {
		if f != nil {
			out = append(out, f)
		}
	}
	switch len(out) {
	case 0:
		return None
	case 1:
		return out[0]
	}
	return out
}
