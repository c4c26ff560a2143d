// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon
package ops

import (
	"testing"
)

func TestEventType(t *testing.T) {
	testcases := map[EventType]string{
		MSG_OP_SYS_CONNECT:            "connect",
		MSG_OP_SECURITY_SOCKET_BIND:   "socket_bind",
		MSG_OP_UDP_RECVMSG:            "dns",
		MSG_OP_DO_INIT_MODULE:         "do_init_module",
		MSG_OP_SECURITY_KERNEL_READ:   "kernel_read_file",
		MSG_OP_CALL_USERMODEHELPER:    "call_usermodehelper",
		MSG_OP_ANTI_RKT_SYSCALL_TABLE: "anti_rkt_sct_scan",
		MSG_OP_ANTI_RKT_IDT:           "anti_rkt_idt_scan",
	}

	for op, str := range testcases {
		if op.String() != str {
			t.Errorf("EventType mismatch - want:%s  got:%s", str, op.String())
		}
	}

	if got := EventType(4242).String(); got != "unknown(4242)" {
		t.Errorf("unexpected name for unknown type: %s", got)
	}
}

func TestFieldType(t *testing.T) {
	if FIELD_NONE.Valid() {
		t.Errorf("FIELD_NONE must not be valid")
	}
	for ft := FIELD_STR; ft <= FIELD_PID_TREE; ft++ {
		if !ft.Valid() {
			t.Errorf("%s should be valid", ft)
		}
	}
	if FieldType(FIELD_PID_TREE + 1).Valid() {
		t.Errorf("out of range field type must not be valid")
	}
}
