// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package defaults

import "time"

const (
	// DefaultMapRoot is the default path where BPFFS should be mounted
	DefaultMapRoot = "/sys/fs/bpf"

	// DefaultMapPrefix is the default path prefix where ksentinel maps should be pinned
	DefaultMapPrefix = "ksentinel"

	// DefaultProcFS is where procfs is expected to be mounted
	DefaultProcFS = "/proc"

	// DefaultConfDir holds the admin configuration file and drop-ins
	DefaultConfDir = "/etc/ksentinel/"

	// DefaultConnectCacheSize is the capacity of the connect correlation cache
	DefaultConnectCacheSize = 1024

	// DefaultMsgCacheSize is the capacity of the udp message correlation cache
	DefaultMsgCacheSize = 1024

	// DefaultEventQueueSize is the size of the output channel
	DefaultEventQueueSize = 10000

	// DefaultScanInterval is the time between two integrity scan triggers
	DefaultScanInterval = 10 * time.Minute

	// DefaultRunDir holds the runtime state of the sensor
	DefaultRunDir = "/var/run/ksentinel/"

	// DefaultPidFile guards against two sensors running on the same host
	DefaultPidFile = DefaultRunDir + "ksentinel.pid"

	// DefaultLogsPermission is the file mode of exported event files
	DefaultLogsPermission = "600"
)
