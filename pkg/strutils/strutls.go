// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package strutils

import (
	"bytes"
	"strings"
)

// UTF8FromBPFBytes transforms bpf (C) strings to valid utf-8 strings
//
// Strings we get from the kernel are C strings: null-terminated sequence of bytes. They
// may or may not be valid utf-8 strings. This is true for pathnames (cwd, binary) as well as
// program arguments and DNS names. This function replaces all invalid runes with '�'.
func UTF8FromBPFBytes(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// CString returns the content of b up to (excluding) the first NUL byte.
// If there is no NUL byte, all of b is returned.
func CString(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

// CStringToUTF8 is the combination of CString and UTF8FromBPFBytes.
func CStringToUTF8(b []byte) string {
	return UTF8FromBPFBytes(CString(b))
}
