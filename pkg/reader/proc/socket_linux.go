// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package proc

import (
	"net"
	"os"
	"strconv"

	"github.com/ksentinel/ksentinel/pkg/kernel"
	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// SocketByFD resolves fd to the socket inode behind it and looks the inode
// up in the IPv4 and IPv6 TCP and UDP tables of the network namespace of
// the task.
func (t *Task) SocketByFD(fd int32) (*kernel.Sock, bool) {
	target, err := os.Readlink(t.path("fd", strconv.Itoa(int(fd))))
	if err != nil {
		return nil, false
	}
	ino, ok := socketInode(target)
	if !ok {
		return nil, false
	}

	// /proc/<pid>/net shows the namespace of pid
	nfs, err := procfs.NewFS(t.path())
	if err != nil {
		return nil, false
	}
	for _, tbl := range []struct {
		family   uint16
		protocol uint16
		lines    func() (procfs.NetTCP, error)
	}{
		{unix.AF_INET, unix.IPPROTO_TCP, nfs.NetTCP},
		{unix.AF_INET, unix.IPPROTO_UDP, udp(nfs.NetUDP)},
		{unix.AF_INET6, unix.IPPROTO_TCP, nfs.NetTCP6},
		{unix.AF_INET6, unix.IPPROTO_UDP, udp(nfs.NetUDP6)},
	} {
		lines, err := tbl.lines()
		if err != nil {
			continue
		}
		for _, l := range lines {
			if l.Inode == ino {
				return sockFromLine(tbl.family, tbl.protocol, l.LocalAddr, l.RemAddr, l.LocalPort, l.RemPort), true
			}
		}
	}
	return nil, false
}

// udp adapts a UDP table reader; both tables share the same line type.
func udp(f func() (procfs.NetUDP, error)) func() (procfs.NetTCP, error) {
	return func() (procfs.NetTCP, error) {
		lines, err := f()
		return procfs.NetTCP(lines), err
	}
}

func sockFromLine(family, protocol uint16, laddr, raddr net.IP, lport, rport uint64) *kernel.Sock {
	s := &kernel.Sock{Family: family, Protocol: protocol}
	if family == unix.AF_INET {
		copy(s.V4.LocalAddr[:], to4(laddr))
		copy(s.V4.RemoteAddr[:], to4(raddr))
		s.V4.LocalPort = uint16(lport)
		s.V4.RemotePort = uint16(rport)
		return s
	}
	copy(s.V6.LocalAddr[:], laddr.To16())
	copy(s.V6.RemoteAddr[:], raddr.To16())
	s.V6.LocalPort = uint16(lport)
	s.V6.RemotePort = uint16(rport)
	return s
}

func to4(ip net.IP) net.IP {
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return net.IPv4zero.To4()
}
