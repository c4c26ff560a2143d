// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package pidfile

import (
	"bytes"
	"errors"
	"os"
	"strconv"

	"github.com/prometheus/procfs"
)

var (
	ErrPidFileAccess   = errors.New("pid file access failed")
	ErrPidIsNotAlive   = errors.New("process is not alive")
	ErrPidIsStillAlive = errors.New("process is already running")
)

// PidFile records the pid of the running sensor.
type PidFile struct {
	path string
	fs   procfs.FS
}

// New returns a pid file at path. procfsPath is used to check whether a
// previously recorded pid is still alive.
func New(path, procfsPath string) (*PidFile, error) {
	fs, err := procfs.NewFS(procfsPath)
	if err != nil {
		return nil, err
	}
	return &PidFile{path: path, fs: fs}, nil
}

func (p *PidFile) isPidAlive(pid int) bool {
	_, err := p.fs.Proc(pid)
	return err == nil
}

func (p *PidFile) read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		// read errors only mean that no previous instance is known, the
		// file is overwritten on Create
		return 0, ErrPidFileAccess
	}

	pid, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil || pid <= 0 || !p.isPidAlive(pid) {
		return 0, ErrPidIsNotAlive
	}
	return pid, nil
}

// Create writes the pid of the current process.
//
// On success returns:
//
//	The current pid and nil
//
// On failure returns:
//
//	The old pid and ErrPidIsStillAlive if a previous instance still runs
//	Or zero and an error
func (p *PidFile) Create() (int, error) {
	pid, err := p.read()
	if err == nil && pid != 0 && pid != os.Getpid() {
		return pid, ErrPidIsStillAlive
	}

	self, err := p.fs.Self()
	if err != nil {
		return 0, err
	}
	return self.PID, os.WriteFile(p.path, []byte(strconv.Itoa(self.PID)), 0o644)
}

func (p *PidFile) Delete() error {
	return os.Remove(p.path)
}
