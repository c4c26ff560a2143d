// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package eventapi defines the documents events are exported as, one
// payload type per event type.
package eventapi

import (
	"time"
)

// Event is the exported form of one event.
type Event struct {
	Time   time.Time `json:"time"`
	Type   string    `json:"type"`
	TypeID uint32    `json:"type_id"`
	Pid    uint32    `json:"pid"`
	Tid    uint32    `json:"tid"`
	Ppid   uint32    `json:"ppid"`
	Uid    uint32    `json:"uid"`
	Comm   string    `json:"comm"`
	Retval int64     `json:"retval"`
	Exe    string    `json:"exe,omitempty"`
	// Data is one of the payload types below.
	Data any `json:"data,omitempty"`
}

type SocketBind struct {
	Family    string `json:"family"`
	LocalAddr string `json:"local_addr"`
	LocalPort uint16 `json:"local_port"`
	Protocol  string `json:"protocol"`
}

type DoInitModule struct {
	Modname string `json:"modname"`
	Pidtree string `json:"pidtree"`
	Cwd     string `json:"cwd"`
}

type KernelReadFile struct {
	Filename string `json:"filename"`
	Typeid   int32  `json:"typeid"`
	Typename string `json:"typename"`
}

type CallUsermodehelper struct {
	Path string   `json:"path"`
	Argv []string `json:"argv"`
	Envp []string `json:"envp"`
	Wait int32    `json:"wait"`
}

type Connect struct {
	Family string `json:"family"`
	Sip    string `json:"sip"`
	Sport  uint16 `json:"sport"`
	Dip    string `json:"dip"`
	Dport  uint16 `json:"dport"`
}

type DNS struct {
	Opcode string `json:"opcode"`
	Rcode  string `json:"rcode"`
	Qtype  string `json:"qtype"`
	Atype  string `json:"atype"`
	Query  string `json:"query"`
}

type SyscallTable struct {
	// SyscallAddrs are the hex handler addresses, in the order of the
	// monitored syscall list.
	SyscallAddrs []string `json:"syscall_addrs"`
}

// kernel_read_file_id
var readingIDs = map[int32]string{
	0: "READING_UNKNOWN",
	1: "READING_FIRMWARE",
	2: "READING_MODULE",
	3: "READING_KEXEC_IMAGE",
	4: "READING_KEXEC_INITRAMFS",
	5: "READING_POLICY",
	6: "READING_X509_CERTIFICATE",
}

func ReadingIDName(id int32) string {
	if s, ok := readingIDs[id]; ok {
		return s
	}
	return "READING_MAX_ID"
}
