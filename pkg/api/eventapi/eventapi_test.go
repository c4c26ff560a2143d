// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package eventapi

import (
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ksentinel/ksentinel/pkg/api/ops"
	"github.com/ksentinel/ksentinel/pkg/dns"
	"github.com/ksentinel/ksentinel/pkg/event"
	"github.com/ksentinel/ksentinel/pkg/kernel"
	"github.com/ksentinel/ksentinel/pkg/kernel/kerneltest"
	mdns "github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func begin(t *testing.T, op ops.EventType) *event.Event {
	task := kerneltest.NewTask(100, "curl")
	task.ID.Ppid = 1
	e, ok := event.Begin(task, 0)
	require.True(t, ok)
	e.SetType(op)
	return e
}

func convert(t *testing.T, e *event.Event) *Event {
	r, err := event.Decode(e.Encode())
	require.NoError(t, err)
	ev, err := FromRecord(r)
	require.NoError(t, err)
	return ev
}

func TestFromRecordHeader(t *testing.T) {
	e := begin(t, ops.MSG_OP_SECURITY_KERNEL_READ)
	e.SetRetval(-1)
	e.AppendStr(0, "/lib/firmware/x.bin")
	e.AppendI32(1, 1)
	ev := convert(t, e)
	assert.Equal(t, "kernel_read_file", ev.Type)
	assert.Equal(t, uint32(1027), ev.TypeID)
	assert.Equal(t, uint32(100), ev.Pid)
	assert.Equal(t, uint32(1), ev.Ppid)
	assert.Equal(t, "curl", ev.Comm)
	assert.Equal(t, int64(-1), ev.Retval)
	assert.Empty(t, ev.Exe)
	assert.Equal(t, &KernelReadFile{Filename: "/lib/firmware/x.bin", Typeid: 1, Typename: "READING_FIRMWARE"}, ev.Data)
}

func TestFromRecordDoInitModule(t *testing.T) {
	e := begin(t, ops.MSG_OP_DO_INIT_MODULE)
	e.AppendStr(0, "evil")
	e.AppendStr(1, "/usr/bin/insmod")
	e.AppendPidTree(2, []kernel.Ancestor{
		{Pid: 100, Comm: kernel.CommFromString("insmod")},
		{Pid: 1, Comm: kernel.CommFromString("systemd")},
	})
	e.AppendStr(3, "/root")
	ev := convert(t, e)
	assert.Equal(t, "/usr/bin/insmod", ev.Exe)
	assert.Equal(t, &DoInitModule{Modname: "evil", Pidtree: "100.insmod<1.systemd", Cwd: "/root"}, ev.Data)
}

func TestFromRecordUsermodehelper(t *testing.T) {
	e := begin(t, ops.MSG_OP_CALL_USERMODEHELPER)
	e.AppendStr(0, "/sbin/modprobe")
	e.AppendStrArray(1, []string{"/sbin/modprobe", "-q"})
	e.AppendStrArray(2, []string{"HOME=/"})
	e.AppendI32(3, 1)
	e.AppendStr(4, "/usr/bin/kworker")
	ev := convert(t, e)
	assert.Equal(t, "/usr/bin/kworker", ev.Exe)
	want := &CallUsermodehelper{
		Path: "/sbin/modprobe",
		Argv: []string{"/sbin/modprobe", "-q"},
		Envp: []string{"HOME=/"},
		Wait: 1,
	}
	if diff := cmp.Diff(want, ev.Data); diff != "" {
		t.Errorf("unexpected data (-want +got):\n%s", diff)
	}
}

func TestFromRecordSocketBind(t *testing.T) {
	sa := make([]byte, kernel.SizeofSockaddrIn)
	binary.LittleEndian.PutUint16(sa, unix.AF_INET)
	binary.BigEndian.PutUint16(sa[2:], 8080)
	copy(sa[4:], []byte{127, 0, 0, 1})
	e := begin(t, ops.MSG_OP_SECURITY_SOCKET_BIND)
	e.AppendStruct(0, sa)
	e.AppendStr(1, "/usr/bin/nc")
	e.AppendU16(2, unix.IPPROTO_TCP)
	ev := convert(t, e)
	assert.Equal(t, &SocketBind{Family: "AF_INET", LocalAddr: "127.0.0.1", LocalPort: 8080, Protocol: "IPPROTO_TCP"}, ev.Data)

	sa6 := make([]byte, kernel.SizeofSockaddrIn6)
	binary.LittleEndian.PutUint16(sa6, unix.AF_INET6)
	binary.BigEndian.PutUint16(sa6[2:], 53)
	sa6[23] = 1
	e = begin(t, ops.MSG_OP_SECURITY_SOCKET_BIND)
	e.AppendStruct(0, sa6)
	e.AppendStr(1, "/usr/bin/nc")
	e.AppendU16(2, unix.IPPROTO_UDP)
	ev = convert(t, e)
	assert.Equal(t, &SocketBind{Family: "AF_INET6", LocalAddr: "::1", LocalPort: 53, Protocol: "IPPROTO_UDP"}, ev.Data)

	e = begin(t, ops.MSG_OP_SECURITY_SOCKET_BIND)
	e.AppendStruct(0, []byte{1, 2, 3})
	e.AppendStr(1, "/usr/bin/nc")
	e.AppendU16(2, 0)
	r, err := event.Decode(e.Encode())
	require.NoError(t, err)
	_, err = FromRecord(r)
	assert.Error(t, err)

	// unreadable sockaddr
	e = begin(t, ops.MSG_OP_SECURITY_SOCKET_BIND)
	e.AppendBytes(0, nil)
	e.AppendStr(1, "/usr/bin/nc")
	e.AppendU16(2, unix.IPPROTO_TCP)
	ev = convert(t, e)
	assert.Equal(t, "/usr/bin/nc", ev.Exe)
	assert.Equal(t, &SocketBind{Protocol: "IPPROTO_TCP"}, ev.Data)
}

func TestFromRecordConnect(t *testing.T) {
	conn := kernel.ConnV4{
		LocalAddr:  [4]byte{10, 0, 0, 2},
		LocalPort:  41000,
		RemoteAddr: [4]byte{1, 1, 1, 1},
		RemotePort: 443,
	}
	e := begin(t, ops.MSG_OP_SYS_CONNECT)
	e.AppendU16(0, unix.AF_INET)
	e.AppendStruct(1, conn.Bytes())
	e.AppendStr(2, "/usr/bin/curl")
	ev := convert(t, e)
	assert.Equal(t, "/usr/bin/curl", ev.Exe)
	assert.Equal(t, &Connect{Family: "AF_INET", Sip: "10.0.0.2", Sport: 41000, Dip: "1.1.1.1", Dport: 443}, ev.Data)

	conn6 := kernel.ConnV6{LocalPort: 1, RemotePort: 2}
	conn6.LocalAddr[15] = 1
	conn6.RemoteAddr[15] = 1
	e = begin(t, ops.MSG_OP_SYS_CONNECT)
	e.AppendU16(0, unix.AF_INET6)
	e.AppendStruct(1, conn6.Bytes())
	e.AppendStr(2, "/usr/bin/curl")
	ev = convert(t, e)
	assert.Equal(t, &Connect{Family: "AF_INET6", Sip: "::1", Sport: 1, Dip: "::1", Dport: 2}, ev.Data)
}

func TestFromRecordDNS(t *testing.T) {
	d := dns.UDPData{Opcode: mdns.OpcodeQuery, Rcode: mdns.RcodeNameError, QType: int32(mdns.TypeA), AType: 0}
	e := begin(t, ops.MSG_OP_UDP_RECVMSG)
	e.AppendStruct(0, d.Bytes())
	e.AppendStr(1, "nope.example.com")
	e.AppendStr(2, "/usr/bin/dig")
	ev := convert(t, e)
	assert.Equal(t, &DNS{Opcode: "QUERY", Rcode: "NXDOMAIN", Qtype: "A", Atype: "None", Query: "nope.example.com"}, ev.Data)
}

func TestFromRecordSyscallTable(t *testing.T) {
	e := begin(t, ops.MSG_OP_ANTI_RKT_SYSCALL_TABLE)
	e.AppendU64Array(0, []uint64{0xffffffff81000000, 0})
	ev := convert(t, e)
	assert.Equal(t, &SyscallTable{SyscallAddrs: []string{"0xffffffff81000000", "0x0"}}, ev.Data)

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"anti_rkt_sct_scan"`)
	assert.Contains(t, string(b), `"syscall_addrs":["0xffffffff81000000","0x0"]`)
}

func TestFromRecordErrors(t *testing.T) {
	e := begin(t, ops.MSG_OP_ANTI_RKT_IDT)
	r, err := event.Decode(e.Encode())
	require.NoError(t, err)
	_, err = FromRecord(r)
	assert.ErrorIs(t, err, ErrUnknownEventType)

	e = begin(t, ops.MSG_OP_DO_INIT_MODULE)
	e.AppendStr(0, "evil")
	r, err = event.Decode(e.Encode())
	require.NoError(t, err)
	_, err = FromRecord(r)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestReadingIDName(t *testing.T) {
	assert.Equal(t, "READING_MODULE", ReadingIDName(2))
	assert.Equal(t, "READING_MAX_ID", ReadingIDName(99))
}
