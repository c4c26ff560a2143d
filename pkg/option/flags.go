// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package option

import (
	"fmt"
	"strconv"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ksentinel/ksentinel/pkg/arch"
	"github.com/ksentinel/ksentinel/pkg/defaults"
	"github.com/ksentinel/ksentinel/pkg/logger"
)

const (
	KeyConfigDir = "config-dir"
	KeyDebug     = "debug"
	KeyProcFS    = "procfs"

	KeyLogLevel  = "log-level"
	KeyLogFormat = "log-format"

	KeyConnectCacheSize = "connect-cache-size"
	KeyMsgCacheSize     = "msg-cache-size"

	KeyMonitoredSyscalls      = "monitored-syscalls"
	KeyScanInterval           = "scan-interval"
	KeyEnableIDTScan          = "enable-idt-scan"
	KeyEnableSyscallTableScan = "enable-syscall-table-scan"

	KeyEventQueueSize  = "event-queue-size"
	KeyExportRateLimit = "export-rate-limit"

	KeyExportFilename             = "export-filename"
	KeyExportFileMaxSizeMB        = "export-file-max-size-mb"
	KeyExportFileMaxBackups       = "export-file-max-backups"
	KeyExportFileCompress         = "export-file-compress"
	KeyExportFileRotationInterval = "export-file-rotation-interval"

	KeyOutput = "output"
	KeyColor  = "color"

	KeyMetricsServer = "metrics-server"
	KeyGopsAddr      = "gops-address"

	KeyUseBPFMaps = "use-bpf-maps"
	KeyBPFDir     = "bpf-dir"

	KeyExcludeSelf = "exclude-self"
	KeyExcludePids = "exclude-pids"
)

const (
	OutputJSON    = "json"
	OutputCompact = "compact"
)

func ReadAndSetFlags() error {
	Config.Debug = viper.GetBool(KeyDebug)
	Config.ProcFS = viper.GetString(KeyProcFS)

	Config.ConnectCacheSize = viper.GetInt(KeyConnectCacheSize)
	if Config.ConnectCacheSize <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyConnectCacheSize, Config.ConnectCacheSize)
	}
	Config.MsgCacheSize = viper.GetInt(KeyMsgCacheSize)
	if Config.MsgCacheSize <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyMsgCacheSize, Config.MsgCacheSize)
	}

	syscalls, err := arch.ParseMonitoredSyscalls(parseList(viper.GetString(KeyMonitoredSyscalls)))
	if err != nil {
		return fmt.Errorf("failed to parse %s value: %w", KeyMonitoredSyscalls, err)
	}
	Config.MonitoredSyscalls = syscalls
	Config.ScanInterval = viper.GetDuration(KeyScanInterval)
	if Config.ScanInterval <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyScanInterval, Config.ScanInterval)
	}
	Config.EnableIDTScan = viper.GetBool(KeyEnableIDTScan)
	Config.EnableSyscallTableScan = viper.GetBool(KeyEnableSyscallTableScan)

	Config.EventQueueSize = viper.GetInt(KeyEventQueueSize)
	if Config.EventQueueSize <= 0 {
		return fmt.Errorf("%s must be positive, got %d", KeyEventQueueSize, Config.EventQueueSize)
	}
	Config.ExportRateLimit = viper.GetInt(KeyExportRateLimit)

	Config.ExportFilename = viper.GetString(KeyExportFilename)
	Config.ExportFileMaxSizeMB = viper.GetInt(KeyExportFileMaxSizeMB)
	Config.ExportFileMaxBackups = viper.GetInt(KeyExportFileMaxBackups)
	Config.ExportFileCompress = viper.GetBool(KeyExportFileCompress)
	Config.ExportFileRotationInterval = viper.GetDuration(KeyExportFileRotationInterval)

	Config.Output = viper.GetString(KeyOutput)
	switch Config.Output {
	case OutputJSON, OutputCompact:
	default:
		return fmt.Errorf("unknown %s %q, expected %q or %q", KeyOutput, Config.Output, OutputJSON, OutputCompact)
	}
	Config.Color = viper.GetString(KeyColor)

	Config.MetricsServer = viper.GetString(KeyMetricsServer)
	Config.GopsAddr = viper.GetString(KeyGopsAddr)

	Config.UseBPFMaps = viper.GetBool(KeyUseBPFMaps)
	Config.BPFDir = viper.GetString(KeyBPFDir)

	Config.ExcludeSelf = viper.GetBool(KeyExcludeSelf)
	Config.ExcludePids = nil
	for _, p := range parseList(viper.GetString(KeyExcludePids)) {
		pid, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return fmt.Errorf("failed to parse %s value: %w", KeyExcludePids, err)
		}
		Config.ExcludePids = append(Config.ExcludePids, uint32(pid))
	}

	logLevel := viper.GetString(KeyLogLevel)
	logFormat := viper.GetString(KeyLogFormat)
	logger.PopulateLogOpts(Config.LogOpts, logLevel, logFormat)

	return nil
}

func AddFlags(flags *pflag.FlagSet) {
	flags.String(KeyConfigDir, "", "Configuration directory that contains a file for each option")
	flags.BoolP(KeyDebug, "d", false, "Enable debug messages. Equivalent to '--log-level=debug'")
	flags.String(KeyProcFS, defaults.DefaultProcFS, "Location of procfs used to introspect tasks")
	flags.String(KeyLogLevel, "info", "Set log level")
	flags.String(KeyLogFormat, "text", "Set log format")

	flags.Int(KeyConnectCacheSize, defaults.DefaultConnectCacheSize, "Size of the connect correlation cache")
	flags.Int(KeyMsgCacheSize, defaults.DefaultMsgCacheSize, "Size of the udp message correlation cache")

	flags.String(KeyMonitoredSyscalls, "", "Comma-separated list of syscall numbers or names whose dispatch table entries are scanned. Defaults to a per architecture list")
	flags.Duration(KeyScanInterval, defaults.DefaultScanInterval, "Time between two integrity scans")
	flags.Bool(KeyEnableIDTScan, true, "Scan the interrupt descriptor table, on architectures that have one")
	flags.Bool(KeyEnableSyscallTableScan, true, "Scan the syscall dispatch table")

	flags.Int(KeyEventQueueSize, defaults.DefaultEventQueueSize, "Set the size of the internal event queue.")
	flags.Int(KeyExportRateLimit, -1, "Rate limit (per minute) for event submission. Set to -1 to disable")

	flags.String(KeyExportFilename, "", "Filename for JSON export. Events are written to stdout when empty")
	flags.Int(KeyExportFileMaxSizeMB, 10, "Size in MB for rotating JSON export files")
	flags.Int(KeyExportFileMaxBackups, 5, "Number of rotated JSON export files to retain")
	flags.Bool(KeyExportFileCompress, false, "Compress rotated JSON export files")
	flags.Duration(KeyExportFileRotationInterval, 0, "Interval at which to rotate JSON export files in addition to rotating them by size")

	flags.String(KeyOutput, OutputJSON, "Output format. json or compact")
	flags.String(KeyColor, "auto", "Colorize compact output. auto, always or never")

	flags.String(KeyMetricsServer, "", "Metrics server address (e.g. ':2112'). Disabled by default")
	flags.String(KeyGopsAddr, "", "gops server address (e.g. 'localhost:8118'). Disabled by default")

	flags.Bool(KeyUseBPFMaps, false, "Back the correlation caches and scan state with pinned BPF maps")
	flags.String(KeyBPFDir, defaults.DefaultMapPrefix, "Directory under the BPF filesystem where maps are pinned")

	flags.Bool(KeyExcludeSelf, true, "Drop events caused by ksentinel itself and its children")
	flags.String(KeyExcludePids, "", "Comma-separated list of pids whose events, and their children's, are dropped")
}
