// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func newPidFile(t *testing.T) *PidFile {
	if _, err := os.Stat("/proc/self"); err != nil {
		t.Skip("procfs not available")
	}
	p, err := New(filepath.Join(t.TempDir(), "ksentinel.pid"), "/proc")
	require.NoError(t, err)
	return p
}

func TestCreatePidFile(t *testing.T) {
	p := newPidFile(t)

	pid, err := p.Create()
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), pid)

	pid1, err := p.read()
	require.NoError(t, err)
	require.Equal(t, pid, pid1)

	// recreating from the same process is fine
	_, err = p.Create()
	require.NoError(t, err)

	require.NoError(t, p.Delete())
	pid1, err = p.read()
	require.ErrorIs(t, err, ErrPidFileAccess)
	require.Zero(t, pid1)
}

func TestStalePidFile(t *testing.T) {
	p := newPidFile(t)
	// pid_max is bounded by 2^22, this pid can not exist
	require.NoError(t, os.WriteFile(p.path, []byte("99999999\n"), 0o644))
	_, err := p.read()
	require.ErrorIs(t, err, ErrPidIsNotAlive)

	pid, err := p.Create()
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), pid)
}

func TestRunningPidFile(t *testing.T) {
	p := newPidFile(t)
	// pid 1 always exists
	require.NoError(t, os.WriteFile(p.path, []byte(strconv.Itoa(1)), 0o644))
	if os.Getpid() == 1 {
		t.Skip("running as pid 1")
	}
	pid, err := p.Create()
	require.ErrorIs(t, err, ErrPidIsStillAlive)
	require.Equal(t, 1, pid)
}
