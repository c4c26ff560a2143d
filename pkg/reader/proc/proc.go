// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package proc implements kernel.Task for live processes on top of procfs.
package proc

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ksentinel/ksentinel/pkg/kernel"
	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

const (
	// Linux UIDs range from 0..4294967295. The UID 4294967295 (-1 as an
	// unsigned integer) is an invalid UID, the kernel returns it in some
	// cases where there is no mapping. We report it when the uid of a task
	// can not be read.
	InvalidUid = ^uint32(0)

	socketPrefix = "socket:["
)

// Task is a live process seen through procfs.
type Task struct {
	fs   procfs.FS
	root string
	pid  int
	tid  int
}

// NewTask returns the task tid of the thread group pid, mounted at
// procfsPath.
func NewTask(procfsPath string, pid, tid int) (*Task, error) {
	fs, err := procfs.NewFS(procfsPath)
	if err != nil {
		return nil, fmt.Errorf("procfs %s: %w", procfsPath, err)
	}
	return &Task{fs: fs, root: procfsPath, pid: pid, tid: tid}, nil
}

// Self returns the calling thread of this process.
func Self(procfsPath string) (*Task, error) {
	return NewTask(procfsPath, unix.Getpid(), unix.Gettid())
}

func (t *Task) path(elem ...string) string {
	return filepath.Join(append([]string{t.root, strconv.Itoa(t.pid)}, elem...)...)
}

func (t *Task) proc() (procfs.Proc, error) {
	return t.fs.Proc(t.pid)
}

func (t *Task) Identity() (kernel.Identity, error) {
	p, err := t.proc()
	if err != nil {
		return kernel.Identity{}, err
	}
	stat, err := p.Stat()
	if err != nil {
		return kernel.Identity{}, fmt.Errorf("stat of pid %d: %w", t.pid, err)
	}
	uid := InvalidUid
	if status, err := p.NewStatus(); err == nil {
		uid = uint32(status.UIDs[0])
	}
	return kernel.Identity{
		Pid:  uint32(t.pid),
		Tid:  uint32(t.tid),
		Ppid: uint32(stat.PPID),
		Uid:  uid,
		Comm: kernel.CommFromString(stat.Comm),
	}, nil
}

func (t *Task) Exe() (string, bool) {
	p, err := t.proc()
	if err != nil {
		return "", false
	}
	exe, err := p.Executable()
	return exe, err == nil && exe != ""
}

func (t *Task) Cwd() (string, bool) {
	p, err := t.proc()
	if err != nil {
		return "", false
	}
	cwd, err := p.Cwd()
	return cwd, err == nil && cwd != ""
}

// Ancestry walks the parent chain, stopping at the first unreadable
// ancestor.
func (t *Task) Ancestry(depth int) []kernel.Ancestor {
	p, err := t.proc()
	if err != nil {
		return nil
	}
	stat, err := p.Stat()
	if err != nil {
		return nil
	}
	var out []kernel.Ancestor
	for ppid := stat.PPID; ppid > 0 && len(out) < depth; {
		pp, err := t.fs.Proc(ppid)
		if err != nil {
			break
		}
		ps, err := pp.Stat()
		if err != nil {
			break
		}
		out = append(out, kernel.Ancestor{Pid: uint32(ppid), Comm: kernel.CommFromString(ps.Comm)})
		ppid = ps.PPID
	}
	return out
}

// socketInode parses the "socket:[inode]" target of a socket descriptor.
func socketInode(target string) (uint64, bool) {
	if !strings.HasPrefix(target, socketPrefix) || !strings.HasSuffix(target, "]") {
		return 0, false
	}
	ino, err := strconv.ParseUint(target[len(socketPrefix):len(target)-1], 10, 64)
	return ino, err == nil
}
