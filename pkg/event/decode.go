// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package event

import (
	"encoding/binary"
	"fmt"

	"github.com/ksentinel/ksentinel/pkg/api/ops"
	"github.com/ksentinel/ksentinel/pkg/kernel"
	"github.com/ksentinel/ksentinel/pkg/strutils"
)

// Field is one decoded field. Data aliases the decoded buffer.
type Field struct {
	Index uint8
	Type  ops.FieldType
	Data  []byte
}

// Record is the consumer side view of an event.
type Record struct {
	Ctx    Context
	Fields []Field
}

// Decode parses an encoded event.
func Decode(b []byte) (*Record, error) {
	ctx, err := decodeContext(b)
	if err != nil {
		return nil, err
	}
	r := &Record{Ctx: ctx}
	b = b[ContextSize:]
	for len(b) > 0 {
		if len(b) < FieldHeaderSize {
			return nil, fmt.Errorf("truncated field header: %d bytes left", len(b))
		}
		f := Field{Index: b[0], Type: ops.FieldType(b[1])}
		if !f.Type.Valid() {
			return nil, fmt.Errorf("field %d: invalid type %d", f.Index, b[1])
		}
		l := binary.LittleEndian.Uint32(b[2:6])
		b = b[FieldHeaderSize:]
		if uint64(l) > uint64(len(b)) {
			return nil, fmt.Errorf("field %d: payload of %d bytes exceeds the %d left", f.Index, l, len(b))
		}
		f.Data = b[:l]
		b = b[l:]
		r.Fields = append(r.Fields, f)
	}
	if int(ctx.Argnum) != len(r.Fields) {
		return nil, fmt.Errorf("header announces %d fields, found %d", ctx.Argnum, len(r.Fields))
	}
	return r, nil
}

// Field returns the first field with the given index.
func (r *Record) Field(index uint8) (Field, bool) {
	for _, f := range r.Fields {
		if f.Index == index {
			return f, true
		}
	}
	return Field{}, false
}

func (f Field) expect(ft ops.FieldType) error {
	if f.Type != ft {
		return fmt.Errorf("field %d is %s, not %s", f.Index, f.Type, ft)
	}
	return nil
}

// Str returns the payload as a valid UTF-8 string.
func (f Field) Str() string {
	return strutils.UTF8FromBPFBytes(f.Data)
}

func (f Field) StrArray() ([]string, error) {
	if err := f.expect(ops.FIELD_STR_ARRAY); err != nil {
		return nil, err
	}
	if len(f.Data) == 0 {
		return nil, fmt.Errorf("field %d: empty string array", f.Index)
	}
	n := int(f.Data[0])
	b := f.Data[1:]
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if len(b) < 4 {
			return nil, fmt.Errorf("field %d: element %d truncated", f.Index, i)
		}
		l := binary.LittleEndian.Uint32(b)
		b = b[4:]
		if uint64(l) > uint64(len(b)) {
			return nil, fmt.Errorf("field %d: element %d truncated", f.Index, i)
		}
		out = append(out, strutils.UTF8FromBPFBytes(b[:l]))
		b = b[l:]
	}
	return out, nil
}

func (f Field) U64Array() ([]uint64, error) {
	if err := f.expect(ops.FIELD_U64_ARRAY); err != nil {
		return nil, err
	}
	if len(f.Data) == 0 || len(f.Data) != 1+8*int(f.Data[0]) {
		return nil, fmt.Errorf("field %d: malformed u64 array of %d bytes", f.Index, len(f.Data))
	}
	out := make([]uint64, f.Data[0])
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(f.Data[1+8*i:])
	}
	return out, nil
}

func (f Field) PidTree() ([]kernel.Ancestor, error) {
	if err := f.expect(ops.FIELD_PID_TREE); err != nil {
		return nil, err
	}
	if len(f.Data) == 0 || len(f.Data) != 1+PidTreeEntrySize*int(f.Data[0]) {
		return nil, fmt.Errorf("field %d: malformed pid tree of %d bytes", f.Index, len(f.Data))
	}
	out := make([]kernel.Ancestor, f.Data[0])
	for i := range out {
		b := f.Data[1+PidTreeEntrySize*i:]
		out[i].Pid = binary.LittleEndian.Uint32(b)
		copy(out[i].Comm[:], b[4:PidTreeEntrySize])
	}
	return out, nil
}

// Uint returns a 1, 2, 4 or 8 byte scalar.
func (f Field) Uint() (uint64, error) {
	if err := f.expect(ops.FIELD_SCALAR); err != nil {
		return 0, err
	}
	switch len(f.Data) {
	case 1:
		return uint64(f.Data[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(f.Data)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(f.Data)), nil
	case 8:
		return binary.LittleEndian.Uint64(f.Data), nil
	}
	return 0, fmt.Errorf("field %d: scalar of %d bytes", f.Index, len(f.Data))
}

// Int returns a sign extended 4 or 8 byte scalar.
func (f Field) Int() (int64, error) {
	v, err := f.Uint()
	if err != nil {
		return 0, err
	}
	if len(f.Data) == 4 {
		return int64(int32(uint32(v))), nil
	}
	return int64(v), nil
}
