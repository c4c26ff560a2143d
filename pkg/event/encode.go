// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package event

import (
	"encoding/binary"

	"github.com/ksentinel/ksentinel/pkg/api/ops"
	"github.com/ksentinel/ksentinel/pkg/kernel"
)

// room returns how many payload bytes one more field may carry.
func (e *Event) room() int {
	return MaxEventSize - e.Size() - FieldHeaderSize
}

// appendField appends one field. Fields that do not fit are cut when cut is
// set, and dropped otherwise.
func (e *Event) appendField(index uint8, ft ops.FieldType, payload []byte, cut bool) {
	room := e.room()
	if len(payload) > room {
		e.trunc++
		if !cut || room < 0 {
			return
		}
		payload = payload[:room]
	}
	e.buf = append(e.buf, index, uint8(ft))
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(payload)))
	e.buf = append(e.buf, payload...)
	e.Ctx.Argnum++
}

// AppendStr appends a string field, truncated to MaxStringSize.
func (e *Event) AppendStr(index uint8, s string) {
	if len(s) > MaxStringSize {
		s = s[:MaxStringSize]
	}
	e.appendField(index, ops.FIELD_STR, []byte(s), true)
}

// AppendStrFrom appends the NUL terminated string at addr. An unreadable
// string yields an empty field.
func (e *Event) AppendStrFrom(m kernel.Memory, space kernel.Space, index uint8, addr uint64) {
	s, err := kernel.ReadStr(m, space, addr, MaxStringSize)
	if err != nil {
		s = nil
	}
	e.appendField(index, ops.FIELD_STR, s, true)
}

// AppendStrArray appends up to MaxStrArrayElems strings. Elements that do
// not fit the event are left out.
func (e *Event) AppendStrArray(index uint8, strs []string) {
	room := e.room()
	payload := []byte{0}
	for _, s := range strs {
		if payload[0] == MaxStrArrayElems {
			break
		}
		if len(s) > MaxStringSize {
			s = s[:MaxStringSize]
		}
		if len(payload)+4+len(s) > room {
			e.trunc++
			break
		}
		payload = binary.LittleEndian.AppendUint32(payload, uint32(len(s)))
		payload = append(payload, s...)
		payload[0]++
	}
	e.appendField(index, ops.FIELD_STR_ARRAY, payload, false)
}

// AppendStrArrayFrom appends the NULL terminated array of kernel string
// pointers at addr, such as an argv. Unreadable elements are skipped and an
// unreadable array yields an empty one.
func (e *Event) AppendStrArrayFrom(m kernel.Memory, index uint8, addr uint64) {
	var strs []string
	for _, p := range kernel.ReadPtrArray(m, addr, MaxStrArrayElems) {
		s, err := kernel.ReadStr(m, kernel.KernelSpace, p, MaxStringSize)
		if err != nil {
			continue
		}
		strs = append(strs, string(s))
	}
	e.AppendStrArray(index, strs)
}

// AppendBytes appends a raw byte field.
func (e *Event) AppendBytes(index uint8, b []byte) {
	e.appendField(index, ops.FIELD_BYTES, b, true)
}

// AppendBytesFrom appends size bytes read at addr. An unreadable range
// yields a zero length field.
func (e *Event) AppendBytesFrom(m kernel.Memory, space kernel.Space, index uint8, addr uint64, size int) {
	b := make([]byte, size)
	if err := kernel.Read(m, space, addr, b); err != nil {
		b = nil
	}
	e.appendField(index, ops.FIELD_BYTES, b, true)
}

// AppendStruct appends a fixed size structure. Structures are never cut.
func (e *Event) AppendStruct(index uint8, b []byte) {
	e.appendField(index, ops.FIELD_STRUCT, b, false)
}

// AppendU64Array appends at most 255 values.
func (e *Event) AppendU64Array(index uint8, vals []uint64) {
	if len(vals) > 255 {
		vals = vals[:255]
	}
	payload := make([]byte, 1, 1+8*len(vals))
	payload[0] = uint8(len(vals))
	for _, v := range vals {
		payload = binary.LittleEndian.AppendUint64(payload, v)
	}
	e.appendField(index, ops.FIELD_U64_ARRAY, payload, false)
}

func (e *Event) AppendU16(index uint8, v uint16) {
	e.appendField(index, ops.FIELD_SCALAR, binary.LittleEndian.AppendUint16(nil, v), false)
}

func (e *Event) AppendU32(index uint8, v uint32) {
	e.appendField(index, ops.FIELD_SCALAR, binary.LittleEndian.AppendUint32(nil, v), false)
}

func (e *Event) AppendI32(index uint8, v int32) {
	e.AppendU32(index, uint32(v))
}

func (e *Event) AppendU64(index uint8, v uint64) {
	e.appendField(index, ops.FIELD_SCALAR, binary.LittleEndian.AppendUint64(nil, v), false)
}

// PidTreeEntrySize is the encoded size of one ancestor.
const PidTreeEntrySize = 4 + kernel.TaskCommLen

// AppendPidTree appends the given ancestry, bounded by MaxPidTreeDepth.
func (e *Event) AppendPidTree(index uint8, tree []kernel.Ancestor) {
	if len(tree) > MaxPidTreeDepth {
		tree = tree[:MaxPidTreeDepth]
	}
	payload := make([]byte, 1, 1+PidTreeEntrySize*len(tree))
	payload[0] = uint8(len(tree))
	for _, a := range tree {
		payload = binary.LittleEndian.AppendUint32(payload, a.Pid)
		payload = append(payload, a.Comm[:]...)
	}
	e.appendField(index, ops.FIELD_PID_TREE, payload, false)
}
