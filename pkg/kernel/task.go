// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package kernel

import (
	"bytes"
	"encoding/binary"
)

// TaskCommLen is the size of task_struct->comm.
const TaskCommLen = 16

// Identity is the part of the current task every event header carries.
type Identity struct {
	Pid  uint32 // thread group id
	Tid  uint32
	Ppid uint32
	Uid  uint32
	Comm [TaskCommLen]byte
}

// Ancestor is one element of a process ancestry walk.
type Ancestor struct {
	Pid  uint32
	Comm [TaskCommLen]byte
}

// Task is the introspection surface of the task that triggered a hook.
type Task interface {
	// Identity fails when the task state can not be read, in which case no
	// event may be built for this invocation.
	Identity() (Identity, error)
	// Exe returns the path of the executable of the task.
	Exe() (string, bool)
	// Cwd returns the current working directory of the task.
	Cwd() (string, bool)
	// Ancestry returns up to depth ancestors, the parent first.
	Ancestry(depth int) []Ancestor
	// SocketByFD resolves an open file descriptor to the socket behind it.
	SocketByFD(fd int32) (*Sock, bool)
}

// PathResolver turns a struct file pointer into a path, like d_path().
type PathResolver interface {
	FilePath(file uint64) (string, bool)
}

// CommFromString truncates s into a comm buffer.
func CommFromString(s string) (c [TaskCommLen]byte) {
	copy(c[:TaskCommLen-1], s)
	return
}

// ConnV4 is the local/remote 4-tuple of an IPv4 socket. Addresses are in
// network byte order, ports in host byte order.
type ConnV4 struct {
	LocalAddr  [4]byte
	LocalPort  uint16
	RemoteAddr [4]byte
	RemotePort uint16
}

// ConnV6 is the local/remote 4-tuple of an IPv6 socket.
type ConnV6 struct {
	LocalAddr  [16]byte
	LocalPort  uint16
	RemoteAddr [16]byte
	RemotePort uint16
	Flowinfo   uint32
	ScopeID    uint32
}

// Sock describes a resolved socket.
type Sock struct {
	Family   uint16
	Protocol uint16
	V4       ConnV4
	V6       ConnV6
}

// Bytes returns the packed little endian representation of c.
func (c *ConnV4) Bytes() []byte {
	return packed(c)
}

// Bytes returns the packed little endian representation of c.
func (c *ConnV6) Bytes() []byte {
	return packed(c)
}

func packed(v any) []byte {
	var buf bytes.Buffer
	// fixed size values only, this can not fail
	_ = binary.Write(&buf, binary.LittleEndian, v)
	return buf.Bytes()
}

const (
	SizeofConnV4 = 12
	SizeofConnV6 = 44
)
