// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

// Package scanner verifies the integrity of the kernel dispatch tables. It
// reads the syscall table entries of the monitored syscalls and sweeps the
// interrupt descriptor table in fixed size chunks, resuming from a
// persisted cursor.
package scanner

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/ksentinel/ksentinel/pkg/api/ops"
	"github.com/ksentinel/ksentinel/pkg/arch"
	"github.com/ksentinel/ksentinel/pkg/event"
	"github.com/ksentinel/ksentinel/pkg/kernel"
	"github.com/ksentinel/ksentinel/pkg/ktime"
	"github.com/ksentinel/ksentinel/pkg/logger"
	"github.com/ksentinel/ksentinel/pkg/logger/logfields"
	"github.com/ksentinel/ksentinel/pkg/metrics/scanmetrics"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

var (
	ErrSymbolNotFound  = errors.New("symbol not found")
	ErrUnmappedEntry   = errors.New("unmapped table entry")
	ErrArchUnsupported = errors.New("not supported on this architecture")
)

const (
	SyscallTableSymbol = "sys_call_table"
	IDTSymbol          = "idt_table"

	IDTEntries   = 256
	IDTChunks    = 16
	IDTChunkSize = IDTEntries / IDTChunks
	// GateDescSize is sizeof(struct gate_struct) on x86_64.
	GateDescSize = 16

	// IDTCursor is the CursorStore key of the interrupt scan.
	IDTCursor int32 = 0
)

type Config struct {
	Memory    kernel.Memory
	Symbols   SymbolTable
	Syscalls  SyscallList
	Modules   ModuleResolver
	Cursor    CursorStore
	Submitter *event.Submitter
	// Task is the task scan events are attributed to when triggered by
	// Run.
	Task kernel.Task
	// MaxSyscalls bounds the dispatch table scan, arch.MaxMonitoredSyscalls
	// when zero.
	MaxSyscalls int
	// HasIDT overrides arch.HasIDT.
	HasIDT func() bool
	// SkipSyscallTable leaves the dispatch table out of Trigger.
	SkipSyscallTable bool
	// Now returns the event timestamp, ktime.Now when nil.
	Now func() uint64
}

type Scanner struct {
	cfg       Config
	residency ResidencyTable
	sweeps    atomic.Uint64
	scans     atomic.Uint64
	aborts    atomic.Uint64
	log       logrus.FieldLogger
}

func New(cfg Config) *Scanner {
	if cfg.MaxSyscalls == 0 {
		cfg.MaxSyscalls = arch.MaxMonitoredSyscalls
	}
	if cfg.HasIDT == nil {
		cfg.HasIDT = arch.HasIDT
	}
	if cfg.Now == nil {
		cfg.Now = ktime.Now
	}
	if cfg.Cursor == nil {
		cfg.Cursor = NewMemCursor()
	}
	return &Scanner{
		cfg: cfg,
		log: logger.WithSubsys("scanner"),
	}
}

// Residency returns the module residency of the interrupt handlers.
func (s *Scanner) Residency() *ResidencyTable {
	return &s.residency
}

// Sweeps returns the number of complete interrupt table sweeps.
func (s *Scanner) Sweeps() uint64 {
	return s.sweeps.Load()
}

// ScanSyscallTable reads the syscall table entry of every monitored syscall
// and emits them, in list order, as a single event. Nothing is emitted when
// an entry can not be read, or when the architecture has no monitored
// syscalls.
func (s *Scanner) ScanSyscallTable(task kernel.Task) error {
	if s.cfg.MaxSyscalls <= 0 {
		return ErrArchUnsupported
	}
	e, ok := event.Begin(task, s.cfg.Now())
	if !ok {
		return event.ErrNoTask
	}
	e.SetType(ops.MSG_OP_ANTI_RKT_SYSCALL_TABLE)

	base, ok := s.cfg.Symbols.Lookup(SyscallTableSymbol)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSymbolNotFound, SyscallTableSymbol)
	}

	addrs := make([]uint64, s.cfg.MaxSyscalls)
	for i := range addrs {
		nr, ok := s.cfg.Syscalls.At(i)
		if !ok {
			continue
		}
		addr, err := kernel.ReadU64(s.cfg.Memory, base+8*nr)
		if err != nil {
			return fmt.Errorf("%w: syscall %d: %w", ErrUnmappedEntry, nr, err)
		}
		if addr == 0 {
			return fmt.Errorf("%w: syscall %d", ErrUnmappedEntry, nr)
		}
		addrs[i] = addr
	}

	e.AppendU64Array(0, addrs)
	return s.cfg.Submitter.Submit(e)
}

// decodeGate returns the handler offset of a 64 bit gate descriptor.
func decodeGate(d []byte) uint64 {
	low := uint64(binary.LittleEndian.Uint16(d[0:2]))
	mid := uint64(binary.LittleEndian.Uint16(d[6:8]))
	high := uint64(binary.LittleEndian.Uint32(d[8:12]))
	return low | mid<<16 | high<<32
}

// ScanInterrupts processes the IDT chunk named by the cursor and advances
// the cursor. On failure the cursor is left untouched so the chunk is
// retried by the next invocation.
func (s *Scanner) ScanInterrupts() error {
	if !s.cfg.HasIDT() {
		return ErrArchUnsupported
	}
	base, ok := s.cfg.Symbols.Lookup(IDTSymbol)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSymbolNotFound, IDTSymbol)
	}

	chunk := s.cfg.Cursor.Get(IDTCursor) % IDTChunks
	first := int(chunk) * IDTChunkSize

	var (
		res  [IDTChunkSize]Residency
		desc [GateDescSize]byte
	)
	for i := range res {
		vec := uint64(first + i)
		if err := kernel.Read(s.cfg.Memory, kernel.KernelSpace, base+GateDescSize*vec, desc[:]); err != nil {
			return fmt.Errorf("%w: vector %d: %w", ErrUnmappedEntry, vec, err)
		}
		addr := decodeGate(desc[:])
		if addr == 0 {
			return fmt.Errorf("%w: vector %d", ErrUnmappedEntry, vec)
		}
		mod, resolved := s.cfg.Modules.ModuleForAddr(addr)
		res[i] = Residency{Addr: addr, Module: mod, Resolved: resolved, Seen: true}
	}
	s.residency.store(first, res[:])

	next := (chunk + 1) % IDTChunks
	s.cfg.Cursor.Set(IDTCursor, next)
	if next == 0 {
		s.sweeps.Inc()
		unresolved := s.residency.Unresolved()
		scanmetrics.IDTSweeps.Inc()
		scanmetrics.IDTUnresolved.Set(float64(unresolved))
		s.log.WithField("unresolved", unresolved).Debug("interrupt table sweep complete")
	}
	return nil
}

func abortReason(err error) string {
	switch {
	case errors.Is(err, ErrSymbolNotFound):
		return "symbol_not_found"
	case errors.Is(err, ErrUnmappedEntry):
		return "unmapped_entry"
	case errors.Is(err, ErrArchUnsupported):
		return "arch_unsupported"
	case errors.Is(err, event.ErrNoTask):
		return "no_task"
	case errors.Is(err, event.ErrChannelFull), errors.Is(err, event.ErrRateLimited):
		return "dropped"
	}
	return "other"
}

func (s *Scanner) account(scan string, err error) {
	if err == nil {
		s.scans.Inc()
		scanmetrics.Run(scan).Inc()
		return
	}
	s.aborts.Inc()
	reason := abortReason(err)
	scanmetrics.Abort(scan, reason).Inc()
	s.log.WithError(err).WithField("scan", scan).WithField("reason", reason).Debug("scan aborted")
}

// Trigger runs one dispatch table scan and one interrupt table chunk, as a
// single trigger of the kernel side would.
func (s *Scanner) Trigger() {
	if !s.cfg.SkipSyscallTable {
		if err := s.ScanSyscallTable(s.cfg.Task); !errors.Is(err, ErrArchUnsupported) {
			s.account(scanmetrics.SyscallTable, err)
		}
	}
	err := s.ScanInterrupts()
	if errors.Is(err, ErrArchUnsupported) {
		return
	}
	s.account(scanmetrics.IDT, err)
}

// Stats returns the completed and aborted scan invocations.
func (s *Scanner) Stats() (scans, aborts uint64) {
	return s.scans.Load(), s.aborts.Load()
}

// Run triggers the scans right away and then every interval until ctx is
// done.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) {
	s.log.WithField("interval", interval).WithField(logfields.Cursor, s.cfg.Cursor.Get(IDTCursor)).Info("integrity scanner started")
	s.Trigger()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Trigger()
		}
	}
}
