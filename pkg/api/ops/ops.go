// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package ops

import (
	"fmt"
)

// EventType is the type tag carried in every event context header.
type EventType uint32

// EventTypes must stay stable: consumers decode the positional field list
// based on them.
const (
	MSG_OP_UNDEF EventType = 0

	// MSG_OP_SYS_CONNECT is emitted on connect() exit for AF_INET and
	// AF_INET6 sockets, using the context cached on connect() entry.
	MSG_OP_SYS_CONNECT            EventType = 1022
	MSG_OP_SECURITY_SOCKET_BIND   EventType = 1024
	MSG_OP_UDP_RECVMSG            EventType = 1025
	MSG_OP_DO_INIT_MODULE         EventType = 1026
	MSG_OP_SECURITY_KERNEL_READ   EventType = 1027
	MSG_OP_CALL_USERMODEHELPER    EventType = 1028
	MSG_OP_ANTI_RKT_SYSCALL_TABLE EventType = 1200
	MSG_OP_ANTI_RKT_IDT           EventType = 1201
)

var EventTypeStrings = map[EventType]string{
	MSG_OP_UNDEF:                  "undef",
	MSG_OP_SYS_CONNECT:            "connect",
	MSG_OP_SECURITY_SOCKET_BIND:   "socket_bind",
	MSG_OP_UDP_RECVMSG:            "dns",
	MSG_OP_DO_INIT_MODULE:         "do_init_module",
	MSG_OP_SECURITY_KERNEL_READ:   "kernel_read_file",
	MSG_OP_CALL_USERMODEHELPER:    "call_usermodehelper",
	MSG_OP_ANTI_RKT_SYSCALL_TABLE: "anti_rkt_sct_scan",
	MSG_OP_ANTI_RKT_IDT:           "anti_rkt_idt_scan",
}

func (op EventType) String() string {
	s, ok := EventTypeStrings[op]
	if !ok {
		return fmt.Sprintf("unknown(%d)", uint32(op))
	}
	return s
}

// FieldType describes how the payload of a single event field is laid out.
type FieldType uint8

const (
	FIELD_NONE FieldType = iota
	FIELD_STR
	FIELD_STR_ARRAY
	FIELD_BYTES
	FIELD_STRUCT
	FIELD_U64_ARRAY
	FIELD_SCALAR
	FIELD_PID_TREE
)

var fieldTypeStrings = [...]string{
	FIELD_NONE:      "none",
	FIELD_STR:       "str",
	FIELD_STR_ARRAY: "str_array",
	FIELD_BYTES:     "bytes",
	FIELD_STRUCT:    "struct",
	FIELD_U64_ARRAY: "u64_array",
	FIELD_SCALAR:    "scalar",
	FIELD_PID_TREE:  "pid_tree",
}

func (ft FieldType) String() string {
	if int(ft) >= len(fieldTypeStrings) {
		return fmt.Sprintf("unknown(%d)", uint8(ft))
	}
	return fieldTypeStrings[ft]
}

// Valid reports whether ft is a known field type.
func (ft FieldType) Valid() bool {
	return ft > FIELD_NONE && ft <= FIELD_PID_TREE
}
