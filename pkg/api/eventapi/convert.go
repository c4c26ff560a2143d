// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package eventapi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/ksentinel/ksentinel/pkg/api/ops"
	"github.com/ksentinel/ksentinel/pkg/dns"
	"github.com/ksentinel/ksentinel/pkg/event"
	"github.com/ksentinel/ksentinel/pkg/kernel"
	"github.com/ksentinel/ksentinel/pkg/ktime"
	"github.com/ksentinel/ksentinel/pkg/reader/network"
	"github.com/ksentinel/ksentinel/pkg/strutils"
	"golang.org/x/sys/unix"
)

var (
	ErrUnknownEventType = errors.New("unknown event type")
	ErrMissingField     = errors.New("missing field")
)

// exe field index per event type
var exeIndex = map[ops.EventType]uint8{
	ops.MSG_OP_SYS_CONNECT:          2,
	ops.MSG_OP_SECURITY_SOCKET_BIND: 1,
	ops.MSG_OP_UDP_RECVMSG:          2,
	ops.MSG_OP_DO_INIT_MODULE:       1,
	ops.MSG_OP_CALL_USERMODEHELPER:  4,
}

type converter func(r *event.Record) (any, error)

var converters = map[ops.EventType]converter{
	ops.MSG_OP_SYS_CONNECT:            connect,
	ops.MSG_OP_SECURITY_SOCKET_BIND:   socketBind,
	ops.MSG_OP_UDP_RECVMSG:            udpRecvmsg,
	ops.MSG_OP_DO_INIT_MODULE:         doInitModule,
	ops.MSG_OP_SECURITY_KERNEL_READ:   kernelReadFile,
	ops.MSG_OP_CALL_USERMODEHELPER:    callUsermodehelper,
	ops.MSG_OP_ANTI_RKT_SYSCALL_TABLE: syscallTable,
}

// FromRecord builds the exported document of a decoded event.
func FromRecord(r *event.Record) (*Event, error) {
	op := r.Ctx.EventType()
	conv, ok := converters[op]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEventType, r.Ctx.Type)
	}
	ev := &Event{
		Time:   ktime.ToTime(r.Ctx.Ts),
		Type:   op.String(),
		TypeID: r.Ctx.Type,
		Pid:    r.Ctx.Pid,
		Tid:    r.Ctx.Tid,
		Ppid:   r.Ctx.Ppid,
		Uid:    r.Ctx.Uid,
		Comm:   strutils.UTF8FromBPFBytes(bytes.TrimRight(r.Ctx.Comm[:], "\x00")),
		Retval: r.Ctx.Retval,
	}
	if idx, ok := exeIndex[op]; ok {
		if f, ok := r.Field(idx); ok {
			ev.Exe = f.Str()
		}
	}
	data, err := conv(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ev.Data = data
	return ev, nil
}

func field(r *event.Record, idx uint8) (event.Field, error) {
	f, ok := r.Field(idx)
	if !ok {
		return event.Field{}, fmt.Errorf("%w %d", ErrMissingField, idx)
	}
	return f, nil
}

func str(r *event.Record, idx uint8) (string, error) {
	f, err := field(r, idx)
	if err != nil {
		return "", err
	}
	return f.Str(), nil
}

func integer(r *event.Record, idx uint8) (int64, error) {
	f, err := field(r, idx)
	if err != nil {
		return 0, err
	}
	return f.Int()
}

func strArray(r *event.Record, idx uint8) ([]string, error) {
	f, err := field(r, idx)
	if err != nil {
		return nil, err
	}
	return f.StrArray()
}

// PidTree renders an ancestry as pid.comm<pid.comm.
func PidTree(tree []kernel.Ancestor) string {
	parts := make([]string, 0, len(tree))
	for _, a := range tree {
		comm := strutils.UTF8FromBPFBytes(bytes.TrimRight(a.Comm[:], "\x00"))
		parts = append(parts, fmt.Sprintf("%d.%s", a.Pid, comm))
	}
	return strings.Join(parts, "<")
}

func doInitModule(r *event.Record) (any, error) {
	name, err := str(r, 0)
	if err != nil {
		return nil, err
	}
	f, err := field(r, 2)
	if err != nil {
		return nil, err
	}
	tree, err := f.PidTree()
	if err != nil {
		return nil, err
	}
	cwd, err := str(r, 3)
	if err != nil {
		return nil, err
	}
	return &DoInitModule{Modname: name, Pidtree: PidTree(tree), Cwd: cwd}, nil
}

func kernelReadFile(r *event.Record) (any, error) {
	path, err := str(r, 0)
	if err != nil {
		return nil, err
	}
	id, err := integer(r, 1)
	if err != nil {
		return nil, err
	}
	return &KernelReadFile{Filename: path, Typeid: int32(id), Typename: ReadingIDName(int32(id))}, nil
}

func callUsermodehelper(r *event.Record) (any, error) {
	path, err := str(r, 0)
	if err != nil {
		return nil, err
	}
	argv, err := strArray(r, 1)
	if err != nil {
		return nil, err
	}
	envp, err := strArray(r, 2)
	if err != nil {
		return nil, err
	}
	wait, err := integer(r, 3)
	if err != nil {
		return nil, err
	}
	return &CallUsermodehelper{Path: path, Argv: argv, Envp: envp, Wait: int32(wait)}, nil
}

func socketBind(r *event.Record) (any, error) {
	f, err := field(r, 0)
	if err != nil {
		return nil, err
	}
	proto, err := integer(r, 2)
	if err != nil {
		return nil, err
	}
	sb := &SocketBind{Protocol: network.InetProtocol(uint16(proto))}
	b := f.Data
	switch len(b) {
	case 0:
		// the sockaddr was unreadable, keep the event without an address
	case kernel.SizeofSockaddrIn:
		sb.Family = network.InetFamily(binary.LittleEndian.Uint16(b))
		sb.LocalPort = binary.BigEndian.Uint16(b[2:])
		sb.LocalAddr = network.Addr4([4]byte(b[4:8]))
	case kernel.SizeofSockaddrIn6:
		sb.Family = network.InetFamily(binary.LittleEndian.Uint16(b))
		sb.LocalPort = binary.BigEndian.Uint16(b[2:])
		sb.LocalAddr = network.Addr6([16]byte(b[8:24]))
	default:
		return nil, fmt.Errorf("sockaddr of %d bytes", len(b))
	}
	return sb, nil
}

func connect(r *event.Record) (any, error) {
	family, err := integer(r, 0)
	if err != nil {
		return nil, err
	}
	f, err := field(r, 1)
	if err != nil {
		return nil, err
	}
	c := &Connect{Family: network.InetFamily(uint16(family))}
	rd := bytes.NewReader(f.Data)
	switch family {
	case unix.AF_INET:
		var conn kernel.ConnV4
		if len(f.Data) != kernel.SizeofConnV4 {
			return nil, fmt.Errorf("ipv4 tuple of %d bytes", len(f.Data))
		}
		if err := binary.Read(rd, binary.LittleEndian, &conn); err != nil {
			return nil, err
		}
		c.Sip, c.Sport = network.Addr4(conn.LocalAddr), conn.LocalPort
		c.Dip, c.Dport = network.Addr4(conn.RemoteAddr), conn.RemotePort
	case unix.AF_INET6:
		var conn kernel.ConnV6
		if len(f.Data) != kernel.SizeofConnV6 {
			return nil, fmt.Errorf("ipv6 tuple of %d bytes", len(f.Data))
		}
		if err := binary.Read(rd, binary.LittleEndian, &conn); err != nil {
			return nil, err
		}
		c.Sip, c.Sport = network.Addr6(conn.LocalAddr), conn.LocalPort
		c.Dip, c.Dport = network.Addr6(conn.RemoteAddr), conn.RemotePort
	default:
		return nil, fmt.Errorf("unsupported family %d", family)
	}
	return c, nil
}

func udpRecvmsg(r *event.Record) (any, error) {
	f, err := field(r, 0)
	if err != nil {
		return nil, err
	}
	d, err := dns.DecodeUDPData(f.Data)
	if err != nil {
		return nil, err
	}
	query, err := str(r, 1)
	if err != nil {
		return nil, err
	}
	return &DNS{
		Opcode: dns.OpcodeName(d.Opcode),
		Rcode:  dns.RcodeName(d.Rcode),
		Qtype:  dns.TypeName(d.QType),
		Atype:  dns.TypeName(d.AType),
		Query:  query,
	}, nil
}

func syscallTable(r *event.Record) (any, error) {
	f, err := field(r, 0)
	if err != nil {
		return nil, err
	}
	addrs, err := f.U64Array()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = fmt.Sprintf("0x%x", a)
	}
	return &SyscallTable{SyscallAddrs: out}, nil
}
