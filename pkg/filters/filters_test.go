// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package filters

import (
	"os"
	"testing"

	"github.com/ksentinel/ksentinel/pkg/event"
	"github.com/stretchr/testify/assert"
)

func ctx(pid, ppid uint32) *event.Context {
	return &event.Context{Pid: pid, Ppid: ppid}
}

func TestExcludeSelf(t *testing.T) {
	f := ExcludeSelf()
	assert.True(t, f.Filter(ctx(uint32(os.Getpid()), 1)))
	assert.True(t, f.Filter(ctx(uint32(os.Getpid())+1, uint32(os.Getpid()))))
	assert.False(t, f.Filter(ctx(uint32(os.Getpid())+2, 1)))
}

func TestExcludePids(t *testing.T) {
	assert.Nil(t, ExcludePids())
	f := ExcludePids(10, 20)
	assert.True(t, f.Filter(ctx(20, 1)))
	assert.False(t, f.Filter(ctx(30, 1)))
	assert.True(t, f.Filter(ctx(31, 20)), "children are excluded")
	assert.True(t, f.Filter(ctx(32, 31)), "grandchildren are excluded")
}

func TestPidSetFilter(t *testing.T) {
	f := NewPidSetFilter(100)

	assert.True(t, f.Filter(ctx(100, 1)))
	assert.False(t, f.Filter(ctx(200, 1)))

	// child and grandchild are learned in program order
	assert.True(t, f.Filter(ctx(101, 100)))
	assert.True(t, f.Filter(ctx(102, 101)))
	assert.Equal(t, 2, f.Children())

	f.Forget(102)
	assert.False(t, f.Filter(ctx(102, 1)))
	assert.Equal(t, 1, f.Children())
}

func TestBuild(t *testing.T) {
	assert.False(t, Build().Filter(ctx(1, 0)))
	assert.False(t, Build(nil, ExcludePids()).Filter(ctx(1, 0)))

	f := Build(ExcludePids(1), FilterFunc(func(c *event.Context) bool { return c.Uid == 1000 }))
	assert.True(t, f.Filter(ctx(1, 0)))
	assert.True(t, f.Filter(&event.Context{Pid: 5, Uid: 1000}))
	assert.False(t, f.Filter(ctx(5, 0)))
}
