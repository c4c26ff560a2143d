// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package dns implements the shallow DNS response parser run on UDP receive
// completion. It extracts the header flags, the question name and the first
// question and answer record types, working in place on a scratch buffer.
package dns

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ksentinel/ksentinel/pkg/kernel"
	mdns "github.com/miekg/dns"
)

const (
	// MaxPercpuBufsize is the capacity of a scratch buffer. It is a power
	// of two so that offsets can be bounded by masking.
	MaxPercpuBufsize = 1 << 15
	// MaxPayload is the number of payload bytes copied into a buffer.
	MaxPayload = 512
	// MaxLabels bounds the question name loop.
	MaxLabels = 10

	PortDNS  = 53
	PortMDNS = 5353

	headerSize = 12
	nameOffset = headerSize + 1
)

// Buffer is a scratch buffer.
type Buffer [MaxPercpuBufsize]byte

// Index bounds a buffer offset by wraparound masking.
func Index(x int) int {
	return x & (MaxPercpuBufsize - 1)
}

// Watched reports whether dport, in host byte order, is a DNS port.
func Watched(dport uint16) bool {
	return dport == PortDNS || dport == PortMDNS
}

// Fill copies the first min(n, MaxPayload) bytes at the user address addr
// into b.
func (b *Buffer) Fill(m kernel.Memory, addr uint64, n uint64) error {
	if n > MaxPayload {
		n = MaxPayload
	}
	return kernel.Read(m, kernel.UserSpace, addr, b[:n])
}

// Response is the result of parsing a response payload.
type Response struct {
	Opcode int32
	Rcode  int32
	QType  int32
	AType  int32
	// Name is the question name with label lengths replaced by dots.
	Name string
	// Complete is set when the name terminator was found within MaxLabels
	// labels. QType and AType are zero otherwise.
	Complete bool
}

// Parse interprets buf as a DNS message. It returns false when the message
// is not a response. Label lengths of the question name are overwritten in
// buf.
func Parse(buf *Buffer) (Response, bool) {
	if buf[2]&0x80 == 0 {
		return Response{}, false
	}

	r := Response{
		Opcode: int32((buf[2] >> 3) & 0x0f),
		Rcode:  int32(buf[3] & 0x0f),
	}

	// pos ends on the last byte of the labels consumed so far
	pos := headerSize + int(buf[headerSize])
	for i := 1; i < MaxLabels; i++ {
		l := int(buf[Index(pos+1)])
		if l == 0 {
			r.Complete = true
			break
		}
		buf[Index(pos+1)] = '.'
		pos += l + 1
	}

	if r.Complete {
		r.QType = int32(buf[Index(pos+2)])<<8 | int32(buf[Index(pos+3)])
		// qclass(2) then an answer name assumed compressed (2)
		r.AType = int32(buf[Index(pos+8)])<<8 | int32(buf[Index(pos+9)])
	}

	name := buf[nameOffset:]
	if n := bytes.IndexByte(name, 0); n >= 0 {
		name = name[:n]
	}
	r.Name = string(name)
	return r, true
}

// UDPData is the fixed layout struct carried in field 0 of DNS events.
type UDPData struct {
	Opcode int32
	Rcode  int32
	QType  int32
	AType  int32
}

const SizeofUDPData = 16

func (r *Response) Data() UDPData {
	return UDPData{Opcode: r.Opcode, Rcode: r.Rcode, QType: r.QType, AType: r.AType}
}

func (d UDPData) Bytes() []byte {
	b := make([]byte, SizeofUDPData)
	binary.LittleEndian.PutUint32(b[0:], uint32(d.Opcode))
	binary.LittleEndian.PutUint32(b[4:], uint32(d.Rcode))
	binary.LittleEndian.PutUint32(b[8:], uint32(d.QType))
	binary.LittleEndian.PutUint32(b[12:], uint32(d.AType))
	return b
}

// DecodeUDPData is the inverse of UDPData.Bytes.
func DecodeUDPData(b []byte) (UDPData, error) {
	if len(b) != SizeofUDPData {
		return UDPData{}, fmt.Errorf("udp data: expected %d bytes, got %d", SizeofUDPData, len(b))
	}
	return UDPData{
		Opcode: int32(binary.LittleEndian.Uint32(b[0:])),
		Rcode:  int32(binary.LittleEndian.Uint32(b[4:])),
		QType:  int32(binary.LittleEndian.Uint32(b[8:])),
		AType:  int32(binary.LittleEndian.Uint32(b[12:])),
	}, nil
}

func TypeName(t int32) string {
	if s, ok := mdns.TypeToString[uint16(t)]; ok && t >= 0 {
		return s
	}
	return fmt.Sprintf("TYPE%d", t)
}

func RcodeName(r int32) string {
	if s, ok := mdns.RcodeToString[int(r)]; ok {
		return s
	}
	return fmt.Sprintf("RCODE%d", r)
}

func OpcodeName(o int32) string {
	if s, ok := mdns.OpcodeToString[int(o)]; ok {
		return s
	}
	return fmt.Sprintf("OPCODE%d", o)
}
