// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ksentinel/ksentinel/pkg/ksyms"
	"github.com/ksentinel/ksentinel/pkg/option"

	"github.com/spf13/cobra"
)

func parseAddr(arg string) (uint64, error) {
	base := 10
	if after, ok := strings.CutPrefix(arg, "0x"); ok {
		arg = after
		base = 16
	}
	addr, err := strconv.ParseUint(arg, base, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing address (base: %d) %w", base, err)
	}
	return addr, nil
}

// newResolveCmd resolves handler addresses reported by the integrity scans,
// e.g. the syscall_addrs of an anti_rkt_sct_scan event.
func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <addr>...",
		Short: "Resolve kernel addresses to symbol+offset and owning module",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			readAndSetFlags()
			ks, err := ksyms.NewKsyms(option.Config.ProcFS)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, arg := range args {
				addr, err := parseAddr(arg)
				if err != nil {
					return err
				}
				mod, ok := ks.ModuleForAddr(addr)
				if !ok {
					mod = "unresolved"
				}
				fnsym, err := ks.GetFnOffset(addr)
				if err == nil {
					fmt.Fprintf(out, "addr 0x%x: %s [%s]\n", addr, fnsym.ToString(), mod)
				} else {
					fmt.Fprintf(out, "addr 0x%x: error: %s [%s]\n", addr, err, mod)
				}
			}
			return nil
		},
	}
}
