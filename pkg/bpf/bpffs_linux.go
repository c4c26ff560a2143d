// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package bpf

import (
	"fmt"
	"os"

	"github.com/cilium/ebpf/rlimit"
	"github.com/ksentinel/ksentinel/pkg/logger"
	"golang.org/x/sys/unix"
)

const filesystemTypeBPFFS = "bpf"

// isBPFFS reports whether path is the root of a mounted bpf filesystem.
func isBPFFS(path string) (bool, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return false, err
	}
	return uint32(st.Type) == uint32(unix.BPF_FS_MAGIC), nil
}

// mountFS mounts the BPFFS filesystem into the desired mapRoot directory.
func mountFS(root, kind string) error {
	mapRootStat, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(root, 0755); err != nil {
				return fmt.Errorf("unable to create %s mount directory: %w", kind, err)
			}
		} else {
			return fmt.Errorf("failed to stat the mount path %s: %w", root, err)
		}
	} else if !mapRootStat.IsDir() {
		return fmt.Errorf("%s is a file which is not a directory", root)
	}

	if err := unix.Mount(root, root, kind, 0, ""); err != nil {
		return fmt.Errorf("failed to mount %s %s: %w", root, kind, err)
	}
	return nil
}

// CheckOrMountFS makes sure a bpf filesystem is mounted at bpfRoot, mounting
// one if nothing is mounted there yet. An empty bpfRoot keeps the default.
func CheckOrMountFS(bpfRoot string) error {
	if bpfRoot != "" {
		SetMapRoot(bpfRoot)
	}
	root := GetMapRoot()

	mounted, err := isBPFFS(root)
	if err == nil && mounted {
		logger.GetLogger().Debug("Detected mounted BPF filesystem at " + root)
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("checking %s: %w", root, err)
	}
	return mountFS(root, filesystemTypeBPFFS)
}

// ConfigureResourceLimits lifts the memlock limit on kernels that still
// account BPF memory against it.
func ConfigureResourceLimits() error {
	return rlimit.RemoveMemlock()
}
