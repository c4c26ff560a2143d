// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package network names the socket constants carried in network events.
package network

import (
	"fmt"
	"net/netip"
)

func InetFamily(family uint16) string {
	if f, ok := inetFamily[family]; ok {
		return f
	}
	return fmt.Sprintf("%d", family)
}

var inetType = map[uint16]string{
	1:  "SOCK_STREAM",
	2:  "SOCK_DGRAM",
	3:  "SOCK_RAW",
	4:  "SOCK_RDM",
	5:  "SOCK_SEQPACKET",
	6:  "SOCK_DCCP",
	10: "SOCK_PACKET",
}

func InetType(ty uint16) string {
	if t, ok := inetType[ty]; ok {
		return t
	}
	return fmt.Sprintf("%d", ty)
}

var inetProtocol = map[uint16]string{
	0:   "IPPROTO_IP",
	1:   "IPPROTO_ICMP",
	2:   "IPPROTO_IGMP",
	4:   "IPPROTO_IPIP",
	6:   "IPPROTO_TCP",
	8:   "IPPROTO_EGP",
	12:  "IPPROTO_PUP",
	17:  "IPPROTO_UDP",
	22:  "IPPROTO_IDP",
	29:  "IPPROTO_TP",
	33:  "IPPROTO_DCCP",
	41:  "IPPROTO_IPV6",
	46:  "IPPROTO_RSVP",
	47:  "IPPROTO_GRE",
	50:  "IPPROTO_ESP",
	51:  "IPPROTO_AH",
	58:  "IPPROTO_ICMPV6",
	92:  "IPPROTO_MTP",
	94:  "IPPROTO_BEETPH",
	98:  "IPPROTO_ENCAP",
	103: "IPPROTO_PIM",
	108: "IPPROTO_COMP",
	132: "IPPROTO_SCTP",
	136: "IPPROTO_UDPLITE",
	137: "IPPROTO_MPLS",
	143: "IPPROTO_ETHERNET",
	255: "IPPROTO_RAW",
	262: "IPPROTO_MPTCP",
}

func InetProtocol(proto uint16) string {
	if p, ok := inetProtocol[proto]; ok {
		return p
	}
	return fmt.Sprintf("%d", proto)
}

// Addr4 renders an IPv4 address stored in network byte order.
func Addr4(a [4]byte) string {
	return netip.AddrFrom4(a).String()
}

// Addr6 renders an IPv6 address stored in network byte order.
func Addr6(a [16]byte) string {
	return netip.AddrFrom16(a).String()
}
