// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package option

import (
	"time"

	"github.com/ksentinel/ksentinel/pkg/defaults"
)

// Config contains all the configuration used by ksentinel.
var Config = config{
	// Initialize global defaults below.

	// ProcFS defaults to /proc.
	ProcFS: defaults.DefaultProcFS,

	ConnectCacheSize: defaults.DefaultConnectCacheSize,
	MsgCacheSize:     defaults.DefaultMsgCacheSize,
	EventQueueSize:   defaults.DefaultEventQueueSize,
	ScanInterval:     defaults.DefaultScanInterval,
	ExportRateLimit:  -1,
	ExcludeSelf:      true,

	// LogOpts contains logger parameters
	LogOpts: make(map[string]string),
}

type config struct {
	Debug  bool
	ProcFS string

	ConnectCacheSize int
	MsgCacheSize     int

	// MonitoredSyscalls is empty when the arch default applies.
	MonitoredSyscalls      []uint64
	ScanInterval           time.Duration
	EnableIDTScan          bool
	EnableSyscallTableScan bool

	EventQueueSize  int
	ExportRateLimit int

	ExportFilename             string
	ExportFileMaxSizeMB        int
	ExportFileMaxBackups       int
	ExportFileCompress         bool
	ExportFileRotationInterval time.Duration

	Output string
	Color  string

	MetricsServer string
	GopsAddr      string

	UseBPFMaps bool
	BPFDir     string

	ExcludeSelf bool
	ExcludePids []uint32

	LogOpts map[string]string
}
