// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package strutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCString(t *testing.T) {
	var tests = []struct {
		in  []byte
		out string
	}{
		{[]byte("bash\x00garbage"), "bash"},
		{[]byte("no-terminator"), "no-terminator"},
		{[]byte{0, 'a'}, ""},
		{nil, ""},
	}

	for _, test := range tests {
		assert.Equal(t, test.out, string(CString(test.in)))
	}
}

func TestCStringToUTF8(t *testing.T) {
	assert.Equal(t, "a�b", CStringToUTF8([]byte{'a', 0xff, 'b', 0, 'c'}))
}
