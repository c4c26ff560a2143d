// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"time"
	"unsafe"

	"github.com/ksentinel/ksentinel/pkg/kernel"
	"github.com/ksentinel/ksentinel/pkg/ktime"
	"github.com/ksentinel/ksentinel/pkg/option"
	"github.com/ksentinel/ksentinel/pkg/reader/proc"
	"github.com/ksentinel/ksentinel/pkg/sensors"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

const selftestTimeout = 10 * time.Second

var errNoEvents = errors.New("no event exported")

func newSelftestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Run the connect hooks and one integrity scan against the live system and export the events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			readAndSetFlags()
			// the events of the self test are caused by ksentinel itself
			option.Config.ExcludeSelf = false
			ctx, cancel := context.WithTimeout(cmd.Context(), selftestTimeout)
			defer cancel()
			return selftest(ctx)
		},
	}
}

// selfConnect connects a socket to a local listener and runs the connect
// hooks around the syscall, the sockaddr being read back from our own
// memory.
func selfConnect(s *sensors.Sensor, task *proc.Task) error {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return err
	}
	defer ln.Close()
	go func() {
		if conn, err := ln.Accept(); err == nil {
			conn.Close()
		}
	}()
	port := ln.Addr().(*net.TCPAddr).Port

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	// heap allocated, a stack copy on growth would move it under the reader
	sa := new([kernel.SizeofSockaddrIn]byte)
	binary.LittleEndian.PutUint16(sa[0:], unix.AF_INET)
	binary.BigEndian.PutUint16(sa[2:], uint16(port))
	copy(sa[4:], []byte{127, 0, 0, 1})

	enter := &sensors.HookContext{
		Args:  [6]uint64{uint64(fd), uint64(uintptr(unsafe.Pointer(&sa[0]))), uint64(len(sa))},
		Task:  task,
		Ktime: ktime.Now(),
	}
	if err := s.Dispatch(sensors.SectionSysEnterConnect, enter); err != nil {
		return err
	}
	runtime.KeepAlive(sa)

	var ret int64
	if err := unix.Connect(fd, &unix.SockaddrInet4{Port: port, Addr: [4]byte{127, 0, 0, 1}}); err != nil {
		var errno unix.Errno
		if !errors.As(err, &errno) {
			return err
		}
		ret = -int64(errno)
	}
	return s.Dispatch(sensors.SectionSysExitConnect, &sensors.HookContext{
		Ret:   ret,
		Task:  task,
		Ktime: ktime.Now(),
	})
}

func selftest(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	mem := &kernel.ProcessMemory{Pid: os.Getpid()}
	if kcore, err := kernel.OpenKcore(filepath.Join(option.Config.ProcFS, "kcore")); err == nil {
		defer kcore.Close()
		mem.Kernel = kcore
	} else {
		log.WithError(err).Warn("Kernel memory not readable, integrity scans will abort")
	}

	task, err := proc.Self(option.Config.ProcFS)
	if err != nil {
		return err
	}

	p, err := newPipeline(ctx)
	if err != nil {
		return err
	}
	c, err := newComponents(mem, p.submitter, task)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := selfConnect(c.sensor, task); err != nil {
		return fmt.Errorf("connect hooks: %w", err)
	}
	c.scanner.Trigger()

	submitted, _ := p.submitter.Stats()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		exported, failed := p.exporter.Stats()
		if exported+failed >= submitted {
			scans, aborts := c.scanner.Stats()
			log.WithField("exported", exported).
				WithField("export_failed", failed).
				WithField("scans", scans).
				WithField("scan_aborts", aborts).
				Info("Self test done")
			if exported == 0 {
				return errNoEvents
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
