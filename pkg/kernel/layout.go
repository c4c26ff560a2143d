// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package kernel

// Layout holds the offsets of the kernel structure members dereferenced by
// the hooks. They depend on the kernel build; DefaultLayout matches an
// x86_64 5.15 kernel.
type Layout struct {
	// offsetof(struct module, name)
	ModuleName uint64
	// sizeof(((struct module *)0)->name)
	ModuleNameLen int
	// offsetof(struct socket, sk)
	SocketSk uint64
	// offsetof(struct sock, sk_protocol)
	SockProtocol uint64
	// offsetof(struct sock, __sk_common.skc_dport)
	InetDport uint64
	// offsetof(struct msghdr, msg_iter) + offsetof(struct iov_iter, iov)
	MsgIterIov uint64
}

var DefaultLayout = Layout{
	ModuleName:    24,
	ModuleNameLen: 64 - 8,
	SocketSk:      24,
	SockProtocol:  0x206,
	InetDport:     12,
	MsgIterIov:    40,
}

// Iovec mirrors struct iovec.
type Iovec struct {
	Base uint64
	Len  uint64
}

// IovecSize is sizeof(struct iovec).
const IovecSize = 16

// ReadIovec reads the struct iovec at addr.
func ReadIovec(m Memory, addr uint64) (Iovec, error) {
	base, err := ReadU64(m, addr)
	if err != nil {
		return Iovec{}, err
	}
	l, err := ReadU64(m, addr+8)
	if err != nil {
		return Iovec{}, err
	}
	return Iovec{Base: base, Len: l}, nil
}

// Sockaddr sizes as copied by the bind hook.
const (
	SizeofSockaddrIn  = 16
	SizeofSockaddrIn6 = 28
)

// MaxKsymNameSize is the size of a symbol name key, NUL included.
const MaxKsymNameSize = 64
