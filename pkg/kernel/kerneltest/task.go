// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package kerneltest provides deterministic kernel.Task and
// kernel.PathResolver implementations for tests and event replay.
package kerneltest

import (
	"errors"

	"github.com/ksentinel/ksentinel/pkg/kernel"
)

var ErrNoIdentity = errors.New("task identity unavailable")

// Task is a kernel.Task backed by plain fields. Empty strings are reported
// as unreadable.
type Task struct {
	ID      kernel.Identity
	IDErr   error
	ExePath string
	CwdPath string
	Parents []kernel.Ancestor
	Sockets map[int32]*kernel.Sock
}

// NewTask returns a task with the given pid (also used as tid) and comm.
func NewTask(pid uint32, comm string) *Task {
	return &Task{
		ID: kernel.Identity{
			Pid:  pid,
			Tid:  pid,
			Comm: kernel.CommFromString(comm),
		},
		Sockets: map[int32]*kernel.Sock{},
	}
}

func (t *Task) Identity() (kernel.Identity, error) {
	if t.IDErr != nil {
		return kernel.Identity{}, t.IDErr
	}
	return t.ID, nil
}

func (t *Task) Exe() (string, bool) {
	return t.ExePath, t.ExePath != ""
}

func (t *Task) Cwd() (string, bool) {
	return t.CwdPath, t.CwdPath != ""
}

func (t *Task) Ancestry(depth int) []kernel.Ancestor {
	if depth < len(t.Parents) {
		return t.Parents[:depth]
	}
	return t.Parents
}

func (t *Task) SocketByFD(fd int32) (*kernel.Sock, bool) {
	s, ok := t.Sockets[fd]
	return s, ok
}

// Paths is a kernel.PathResolver keyed by struct file address.
type Paths map[uint64]string

func (p Paths) FilePath(file uint64) (string, bool) {
	s, ok := p[file]
	return s, ok
}
