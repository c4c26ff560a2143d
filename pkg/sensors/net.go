// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package sensors

import (
	"github.com/ksentinel/ksentinel/pkg/api/ops"
	"github.com/ksentinel/ksentinel/pkg/cache"
	"github.com/ksentinel/ksentinel/pkg/dns"
	"github.com/ksentinel/ksentinel/pkg/event"
	"github.com/ksentinel/ksentinel/pkg/kernel"
	"golang.org/x/sys/unix"
)

const (
	SectionSecuritySocketBind = "kprobe/security_socket_bind"
	SectionSysEnterConnect    = "tracepoint/syscalls/sys_enter_connect"
	SectionSysExitConnect     = "tracepoint/syscalls/sys_exit_connect"
	SectionUDPRecvmsg         = "kprobe/udp_recvmsg"
	SectionUDPRecvmsgRet      = "kretprobe/udp_recvmsg"
)

func init() {
	registerHookAtInit(SectionSecuritySocketBind, (*Sensor).KprobeSecuritySocketBind)
	registerHookAtInit(SectionSysEnterConnect, (*Sensor).SysEnterConnect)
	registerHookAtInit(SectionSysExitConnect, (*Sensor).SysExitConnect)
	registerHookAtInit(SectionUDPRecvmsg, (*Sensor).KprobeUDPRecvmsg)
	registerHookAtInit(SectionUDPRecvmsgRet, (*Sensor).KretprobeUDPRecvmsg)
}

// KprobeSecuritySocketBind reports an IPv4 or IPv6 bind:
// security_socket_bind(struct socket *, struct sockaddr *, int).
//
//	0: sockaddr_in or sockaddr_in6
//	1: exe
//	2: protocol
func (s *Sensor) KprobeSecuritySocketBind(ctx *HookContext) {
	e, ok := event.Begin(ctx.Task, ctx.Ktime)
	if !ok {
		return
	}
	if s.filter.Filter(&e.Ctx) {
		return
	}
	e.SetType(ops.MSG_OP_SECURITY_SOCKET_BIND)

	var protocol uint16
	if sk, err := kernel.ReadU64(s.mem, ctx.Args[0]+s.layout.SocketSk); err == nil {
		protocol, _ = kernel.ReadU16(s.mem, kernel.KernelSpace, sk+s.layout.SockProtocol)
	}

	addr := ctx.Args[1]
	family, err := kernel.ReadU16(s.mem, kernel.KernelSpace, addr)
	if err != nil {
		return
	}
	switch family {
	case unix.AF_INET:
		e.AppendBytesFrom(s.mem, kernel.KernelSpace, 0, addr, kernel.SizeofSockaddrIn)
	case unix.AF_INET6:
		e.AppendBytesFrom(s.mem, kernel.KernelSpace, 0, addr, kernel.SizeofSockaddrIn6)
	default:
		return
	}
	e.AppendStr(1, exe(ctx.Task))
	e.AppendU16(2, protocol)
	s.submit(SectionSecuritySocketBind, e)
}

// SysEnterConnect saves the connect() arguments for SysExitConnect.
// Tracepoint arguments: fd, uservaddr, addrlen.
func (s *Sensor) SysEnterConnect(ctx *HookContext) {
	sa := ctx.Args[1]
	if sa == 0 {
		return
	}
	family, err := kernel.ReadU16(s.mem, kernel.UserSpace, sa)
	if err != nil {
		return
	}
	key, ok := threadKey(ctx.Task)
	if !ok {
		return
	}
	s.connectCache.Put(key, cache.ConnectContext{
		Fd:      int32(ctx.Args[0]),
		Family:  family,
		Addrlen: int32(ctx.Args[2]),
	})
}

// SysExitConnect reports a completed connect() on an IPv4 or IPv6 socket.
// The entry saved by SysEnterConnect is consumed whatever the outcome.
//
//	0: family
//	1: connection tuple, kernel.ConnV4 or kernel.ConnV6
//	2: exe
func (s *Sensor) SysExitConnect(ctx *HookContext) {
	key, ok := threadKey(ctx.Task)
	if !ok {
		return
	}
	cc, ok := s.connectCache.Take(key)
	if !ok {
		return
	}

	e, ok := event.Begin(ctx.Task, ctx.Ktime)
	if !ok {
		return
	}
	if s.filter.Filter(&e.Ctx) {
		return
	}
	e.SetType(ops.MSG_OP_SYS_CONNECT)
	e.SetRetval(ctx.Ret)

	e.AppendU16(0, cc.Family)
	sock, ok := ctx.Task.SocketByFD(cc.Fd)
	if !ok {
		return
	}
	switch cc.Family {
	case unix.AF_INET:
		e.AppendStruct(1, sock.V4.Bytes())
	case unix.AF_INET6:
		e.AppendStruct(1, sock.V6.Bytes())
	default:
		return
	}
	e.AppendStr(2, exe(ctx.Task))
	s.submit(SectionSysExitConnect, e)
}

// KprobeUDPRecvmsg saves the message header of a receive on a DNS socket:
// udp_recvmsg(struct sock *, struct msghdr *, ...).
func (s *Sensor) KprobeUDPRecvmsg(ctx *HookContext) {
	dport, err := kernel.ReadBE16(s.mem, ctx.Args[0]+s.layout.InetDport)
	if err != nil || !dns.Watched(dport) {
		return
	}
	msg := ctx.Args[1]
	iov, err := kernel.ReadU64(s.mem, msg+s.layout.MsgIterIov)
	if err != nil || iov == 0 {
		return
	}
	l, err := kernel.ReadU64(s.mem, iov+8)
	if err != nil || l == 0 {
		return
	}
	key, ok := threadKey(ctx.Task)
	if !ok {
		return
	}
	s.msgCache.Put(key, cache.MsgHandle(msg))
}

// KretprobeUDPRecvmsg parses the DNS response received into the message
// saved by KprobeUDPRecvmsg. The saved message is always consumed.
//
//	0: dns.UDPData
//	1: question name
//	2: exe
func (s *Sensor) KretprobeUDPRecvmsg(ctx *HookContext) {
	key, ok := threadKey(ctx.Task)
	if !ok {
		return
	}
	msg, ok := s.msgCache.Take(key)
	if !ok {
		return
	}

	iovp, err := kernel.ReadU64(s.mem, uint64(msg)+s.layout.MsgIterIov)
	if err != nil {
		return
	}
	iov, err := kernel.ReadIovec(s.mem, iovp)
	if err != nil || iov.Len == 0 {
		return
	}

	buf, err := s.buffers.Get()
	if err != nil {
		s.log.WithError(err).Debug("dns parse skipped")
		return
	}
	defer s.buffers.Put(buf)
	if err := buf.Fill(s.mem, iov.Base, iov.Len); err != nil {
		return
	}
	resp, ok := dns.Parse(buf)
	if !ok {
		return
	}

	e, ok := event.Begin(ctx.Task, ctx.Ktime)
	if !ok {
		return
	}
	if s.filter.Filter(&e.Ctx) {
		return
	}
	e.SetType(ops.MSG_OP_UDP_RECVMSG)
	e.SetRetval(ctx.Ret)

	e.AppendStruct(0, resp.Data().Bytes())
	e.AppendStr(1, resp.Name)
	e.AppendStr(2, exe(ctx.Task))
	s.submit(SectionUDPRecvmsgRet, e)
}
