// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package sensors implements the hook handlers. Every handler reads the
// arguments of the instrumented kernel function from a HookContext, derives
// its fields and submits one event. Handlers never fail: unreadable memory
// degrades a field or aborts the invocation, and correlation cache misses
// are silent.
package sensors

import (
	"fmt"
	"sort"

	"github.com/ksentinel/ksentinel/pkg/cache"
	"github.com/ksentinel/ksentinel/pkg/dns"
	"github.com/ksentinel/ksentinel/pkg/event"
	"github.com/ksentinel/ksentinel/pkg/filters"
	"github.com/ksentinel/ksentinel/pkg/kernel"
	"github.com/ksentinel/ksentinel/pkg/logger"
	"github.com/ksentinel/ksentinel/pkg/logger/logfields"
	"github.com/sirupsen/logrus"
)

// HookContext is the state a hook invocation starts from.
type HookContext struct {
	// Args are the first six call arguments (PT_REGS_PARM1..6), or the
	// tracepoint arguments in order.
	Args [6]uint64
	// Ret is the return value seen by return probes.
	Ret int64
	// Task is the task the hook fired in.
	Task kernel.Task
	// Ktime is the timestamp of the invocation.
	Ktime uint64
}

// HookFunc handles one hook invocation.
type HookFunc func(s *Sensor, ctx *HookContext)

var registeredHooks = map[string]HookFunc{}

// registerHookAtInit registers the handler of a section name.
//
// This function is meant to be called in an init().
func registerHookAtInit(section string, h HookFunc) {
	if _, exists := registeredHooks[section]; exists {
		panic(fmt.Sprintf("registerHookAtInit called, but %s is already registered", section))
	}
	registeredHooks[section] = h
}

// Hooks returns the handlers by section name.
func Hooks() map[string]HookFunc {
	ret := make(map[string]HookFunc, len(registeredHooks))
	for k, v := range registeredHooks {
		ret[k] = v
	}
	return ret
}

// Sections returns the sorted section names.
func Sections() []string {
	names := make([]string, 0, len(registeredHooks))
	for n := range registeredHooks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Config holds the dependencies of a Sensor.
type Config struct {
	Memory       kernel.Memory
	Layout       kernel.Layout
	Paths        kernel.PathResolver
	ConnectCache cache.Store[uint64, cache.ConnectContext]
	MsgCache     cache.Store[uint64, cache.MsgHandle]
	Filter       filters.ContextFilter
	Submitter    *event.Submitter
	Buffers      *dns.BufferPool
}

// Sensor runs the hook handlers against a set of shared resources.
type Sensor struct {
	mem          kernel.Memory
	layout       kernel.Layout
	paths        kernel.PathResolver
	connectCache cache.Store[uint64, cache.ConnectContext]
	msgCache     cache.Store[uint64, cache.MsgHandle]
	filter       filters.ContextFilter
	submitter    *event.Submitter
	buffers      *dns.BufferPool
	log          logrus.FieldLogger
}

func New(cfg Config) *Sensor {
	if cfg.Filter == nil {
		cfg.Filter = filters.None
	}
	if cfg.Buffers == nil {
		cfg.Buffers = dns.NewBufferPool(0)
	}
	return &Sensor{
		mem:          cfg.Memory,
		layout:       cfg.Layout,
		paths:        cfg.Paths,
		connectCache: cfg.ConnectCache,
		msgCache:     cfg.MsgCache,
		filter:       cfg.Filter,
		submitter:    cfg.Submitter,
		buffers:      cfg.Buffers,
		log:          logger.WithSubsys("sensors"),
	}
}

// Dispatch runs the handler registered for section.
func (s *Sensor) Dispatch(section string, ctx *HookContext) error {
	h, ok := registeredHooks[section]
	if !ok {
		return fmt.Errorf("no handler for section %q", section)
	}
	h(s, ctx)
	return nil
}

// threadKey is the correlation cache key of the current thread.
func threadKey(task kernel.Task) (uint64, bool) {
	if task == nil {
		return 0, false
	}
	id, err := task.Identity()
	if err != nil {
		return 0, false
	}
	return cache.PidTgid(id.Pid, id.Tid), true
}

func exe(task kernel.Task) string {
	p, _ := task.Exe()
	return p
}

func (s *Sensor) submit(hook string, e *event.Event) {
	if err := s.submitter.Submit(e); err != nil {
		s.log.WithError(err).WithField(logfields.Hook, hook).Debug("submit failed")
	}
}
