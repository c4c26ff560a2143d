// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package proc

import (
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSocketInode(t *testing.T) {
	for _, tc := range []struct {
		target string
		ino    uint64
		ok     bool
	}{
		{"socket:[12345]", 12345, true},
		{"socket:[]", 0, false},
		{"pipe:[12345]", 0, false},
		{"/dev/null", 0, false},
		{"socket:[12a]", 0, false},
	} {
		ino, ok := socketInode(tc.target)
		assert.Equal(t, tc.ok, ok, tc.target)
		assert.Equal(t, tc.ino, ino, tc.target)
	}
}

func TestSelf(t *testing.T) {
	task, err := Self("/proc")
	if err != nil {
		t.Skipf("procfs not available: %v", err)
	}

	id, err := task.Identity()
	require.NoError(t, err)
	assert.Equal(t, uint32(os.Getpid()), id.Pid)
	assert.Equal(t, uint32(os.Getppid()), id.Ppid)
	assert.Equal(t, uint32(os.Getuid()), id.Uid)

	exe, ok := task.Exe()
	require.True(t, ok)
	self, err := os.Executable()
	require.NoError(t, err)
	assert.Equal(t, self, exe)

	cwd, ok := task.Cwd()
	require.True(t, ok)
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, cwd)

	if os.Getppid() > 0 {
		anc := task.Ancestry(2)
		require.NotEmpty(t, anc)
		assert.Equal(t, uint32(os.Getppid()), anc[0].Pid)
	}
}

func TestSocketByFD(t *testing.T) {
	task, err := Self("/proc")
	if err != nil {
		t.Skipf("procfs not available: %v", err)
	}

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	conn, err := net.Dial("tcp4", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	raw, err := conn.(*net.TCPConn).SyscallConn()
	require.NoError(t, err)
	var fd int
	require.NoError(t, raw.Control(func(f uintptr) { fd = int(f) }))

	s, ok := task.SocketByFD(int32(fd))
	if !ok {
		t.Skip("socket tables not readable")
	}
	assert.Equal(t, uint16(unix.AF_INET), s.Family)
	assert.Equal(t, uint16(syscall.IPPROTO_TCP), s.Protocol)
	assert.Equal(t, [4]byte{127, 0, 0, 1}, s.V4.RemoteAddr)
	assert.Equal(t, uint16(ln.Addr().(*net.TCPAddr).Port), s.V4.RemotePort)
	assert.Equal(t, uint16(conn.LocalAddr().(*net.TCPAddr).Port), s.V4.LocalPort)

	_, ok = task.SocketByFD(0x7fffffff)
	assert.False(t, ok)
}
