// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package ksyms

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ksentinel/ksentinel/pkg/kernel"
	"github.com/ksentinel/ksentinel/pkg/logger"
	"github.com/ksentinel/ksentinel/pkg/logger/logfields"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	textStartSym = "_stext"
	textEndSym   = "_etext"
)

type ksym struct {
	addr uint64
	name string
	ty   string
	mod  string
}

// Ksyms is a structure for kernel symbols
type Ksyms struct {
	table   []ksym
	byName  map[string]uint64
	text    [2]uint64
	fnCache *lru.Cache[uint64, fnOffsetVal]
}

// FnOffset is a function location (function name + offset)
type FnOffset struct {
	SymName string
	Offset  uint64
}

// fnOffsetVal is used as a value in the FnOffset cache.
type fnOffsetVal struct {
	fnOffset *FnOffset
	err      error
}

// ToString returns a string representation of FnOffset
func (fo *FnOffset) ToString() string {
	return fmt.Sprintf("%s()+0x%x", fo.SymName, fo.Offset)
}

func (ksym *ksym) isFunction() bool {
	tyLow := strings.ToLower(ksym.ty)
	return tyLow == "w" || tyLow == "t"
}

// NewKsyms creates a new Ksyms structure (by reading procfs/kallsyms)
func NewKsyms(procfs string) (*Ksyms, error) {
	file, err := os.Open(filepath.Join(procfs, "kallsyms"))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return NewKsymsFromReader(file)
}

// NewKsymsFromReader parses symbols in the /proc/kallsyms format:
//
//	<addr> <type> <name> [<module>]
func NewKsymsFromReader(r io.Reader) (*Ksyms, error) {
	var err error
	ksyms := Ksyms{byName: make(map[string]uint64)}
	s := bufio.NewScanner(r)
	needsSort := false

	for s.Scan() {
		txt := s.Text()
		fields := strings.Fields(txt)
		var sym ksym

		if len(fields) < 3 {
			logger.GetLogger().WithField("line", txt).Debug("Failed to parse kallsyms line")
			continue
		}

		if sym.addr, err = strconv.ParseUint(fields[0], 16, 64); err != nil {
			err = fmt.Errorf("failed to parse address: %w", err)
			break
		}
		sym.ty = fields[1]
		sym.name = fields[2]
		if len(fields) > 3 {
			sym.mod = strings.Trim(fields[3], "[]")
		}

		if sym.isFunction() && sym.addr == 0 {
			err = fmt.Errorf("function %s reported at address 0. Insufficient permissions?", sym.name)
			break
		}

		if !needsSort && len(ksyms.table) > 0 {
			lastSym := ksyms.table[len(ksyms.table)-1]
			if lastSym.addr > sym.addr {
				needsSort = true
			}
		}

		// first definition wins, static symbols may repeat
		if _, ok := ksyms.byName[sym.name]; !ok {
			ksyms.byName[sym.name] = sym.addr
		}
		switch sym.name {
		case textStartSym:
			ksyms.text[0] = sym.addr
		case textEndSym:
			ksyms.text[1] = sym.addr
		}
		ksyms.table = append(ksyms.table, sym)
	}

	if err == nil {
		err = s.Err()
	}

	if err == nil && len(ksyms.table) == 0 {
		err = errors.New("no symbols found")
	}

	if err != nil {
		return nil, err
	}

	if needsSort {
		sort.SliceStable(ksyms.table, func(i1, i2 int) bool { return ksyms.table[i1].addr < ksyms.table[i2].addr })
	}

	fc, err := lru.New[uint64, fnOffsetVal](1024)
	if err == nil {
		ksyms.fnCache = fc
	} else {
		logger.GetLogger().WithField(logfields.Error, err).Info("failed to initialize cache")
	}

	return &ksyms, nil
}

// Len returns the number of symbols.
func (k *Ksyms) Len() int {
	return len(k.table)
}

// Lookup returns the address of the named symbol. Names that do not fit a
// symbol map key never match.
func (k *Ksyms) Lookup(name string) (uint64, bool) {
	if len(name) >= kernel.MaxKsymNameSize {
		return 0, false
	}
	addr, ok := k.byName[name]
	return addr, ok
}

// CoreText returns the bounds of the core kernel text, if known.
func (k *Ksyms) CoreText() (start, end uint64, ok bool) {
	return k.text[0], k.text[1], k.text[0] != 0 && k.text[1] > k.text[0]
}

// ModuleForAddr returns the module owning addr: "" and true for the core
// kernel text, the module name and true for module text, false when the
// address can not be attributed.
func (k *Ksyms) ModuleForAddr(addr uint64) (string, bool) {
	if start, end, ok := k.CoreText(); ok && addr >= start && addr < end {
		return "", true
	}
	i := k.search(addr)
	if i < 0 || k.table[i].mod == "" {
		return "", false
	}
	return k.table[i].mod, true
}

// search returns the index of the last symbol at or below addr, -1 if
// there is none.
func (k *Ksyms) search(addr uint64) int {
	return sort.Search(len(k.table), func(i int) bool { return k.table[i].addr > addr }) - 1
}

// GetFnOffset -- returns the FnOffset for a given address
func (k *Ksyms) GetFnOffset(addr uint64) (*FnOffset, error) {
	// no cache
	if k.fnCache == nil {
		return k.getFnOffset(addr)
	}

	// cache hit
	if ret, ok := k.fnCache.Get(addr); ok {
		return ret.fnOffset, ret.err
	}

	// cache miss
	fnOffset, err := k.getFnOffset(addr)
	k.fnCache.Add(addr, fnOffsetVal{fnOffset: fnOffset, err: err})
	return fnOffset, err
}

func (k *Ksyms) getFnOffset(addr uint64) (*FnOffset, error) {
	i := k.search(addr)
	if i < 0 {
		return nil, fmt.Errorf("address 0x%x is before first symbol %s@0x%x", addr, k.table[0].name, k.table[0].addr)
	}

	sym := k.table[i]
	if !sym.isFunction() {
		return nil, fmt.Errorf("unable to find function for addr 0x%x", addr)
	}

	return &FnOffset{
		SymName: sym.name,
		Offset:  addr - sym.addr,
	}, nil
}
