// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package event builds the self-describing events emitted by the sensor
// hooks and carries them to the output channel.
//
// An encoded event is a fixed size Context header followed by a list of
// fields. Every field is laid out as
//
//	[index u8][type u8][len u32 LE][payload]
//
// where index is the position the hook assigned to the field and type one
// of the ops.FieldType values.
package event

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ksentinel/ksentinel/pkg/api/ops"
	"github.com/ksentinel/ksentinel/pkg/kernel"
)

const (
	// MaxStringSize bounds a single string, terminator excluded.
	MaxStringSize = 4096
	// MaxStrArrayElems bounds the number of strings of a string array.
	MaxStrArrayElems = 40
	// MaxEventSize bounds an encoded event, header included.
	MaxEventSize = 32 * 1024
	// MaxPidTreeDepth bounds the ancestry carried by a pid tree field.
	MaxPidTreeDepth = 12

	// ContextSize is the encoded size of Context.
	ContextSize = 53
	// FieldHeaderSize is the size of [index][type][len].
	FieldHeaderSize = 6
)

var ErrNoTask = errors.New("current task can not be read")

// Context is the header of every event.
type Context struct {
	Ts     uint64
	Pid    uint32
	Tid    uint32
	Ppid   uint32
	Uid    uint32
	Comm   [kernel.TaskCommLen]byte
	Type   uint32
	Retval int64
	Argnum uint8
}

// EventType returns the type tag of the header.
func (c *Context) EventType() ops.EventType {
	return ops.EventType(c.Type)
}

// Event is an event under construction. It is owned by the hook invocation
// that created it and is not safe for concurrent use.
type Event struct {
	Ctx   Context
	Task  kernel.Task
	buf   []byte
	trunc int
}

// Begin initializes an event from the task that triggered the hook. It
// returns false when the identity of the task can not be read, in which case
// the caller must abort.
func Begin(task kernel.Task, ts uint64) (*Event, bool) {
	if task == nil {
		return nil, false
	}
	id, err := task.Identity()
	if err != nil {
		return nil, false
	}
	return &Event{
		Ctx: Context{
			Ts:   ts,
			Pid:  id.Pid,
			Tid:  id.Tid,
			Ppid: id.Ppid,
			Uid:  id.Uid,
			Comm: id.Comm,
		},
		Task: task,
		buf:  make([]byte, 0, 256),
	}, true
}

// SetType sets the type tag of the event.
func (e *Event) SetType(t ops.EventType) {
	e.Ctx.Type = uint32(t)
}

// SetRetval sets the return value recorded in the header.
func (e *Event) SetRetval(r int64) {
	e.Ctx.Retval = r
}

// Size returns the encoded size of the event.
func (e *Event) Size() int {
	return ContextSize + len(e.buf)
}

// Truncated returns how many fields were cut or dropped to honor
// MaxEventSize.
func (e *Event) Truncated() int {
	return e.trunc
}

// Encode returns the wire representation of the event.
func (e *Event) Encode() []byte {
	out := make([]byte, 0, e.Size())
	out = appendContext(out, &e.Ctx)
	return append(out, e.buf...)
}

func appendContext(b []byte, c *Context) []byte {
	var buf bytes.Buffer
	buf.Grow(ContextSize)
	// fixed size struct, this can not fail
	_ = binary.Write(&buf, binary.LittleEndian, c)
	return append(b, buf.Bytes()...)
}

func decodeContext(b []byte) (Context, error) {
	var c Context
	if len(b) < ContextSize {
		return c, fmt.Errorf("event of %d bytes is shorter than its header", len(b))
	}
	err := binary.Read(bytes.NewReader(b[:ContextSize]), binary.LittleEndian, &c)
	return c, err
}
