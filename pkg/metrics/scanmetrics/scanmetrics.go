// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package scanmetrics

import (
	"github.com/ksentinel/ksentinel/pkg/metrics/consts"
	"github.com/prometheus/client_golang/prometheus"
)

// Scan names
const (
	SyscallTable = "syscall_table"
	IDT          = "idt"
)

var (
	ScanRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   consts.MetricsNamespace,
		Name:        "integrity_scans_total",
		Help:        "The total number of completed integrity scan invocations",
		ConstLabels: nil,
	}, []string{"scan"})
	ScanAborts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   consts.MetricsNamespace,
		Name:        "integrity_scan_aborts_total",
		Help:        "The total number of aborted integrity scan invocations",
		ConstLabels: nil,
	}, []string{"scan", "reason"})
	IDTSweeps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   consts.MetricsNamespace,
		Name:        "idt_sweeps_total",
		Help:        "The total number of full interrupt table sweeps",
		ConstLabels: nil,
	})
	IDTUnresolved = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   consts.MetricsNamespace,
		Name:        "idt_unresolved_handlers",
		Help:        "The number of interrupt handlers that did not resolve to kernel text or a module in the last sweep",
		ConstLabels: nil,
	})
)

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(ScanRuns, ScanAborts, IDTSweeps, IDTUnresolved)
}

func Run(scan string) prometheus.Counter {
	return ScanRuns.WithLabelValues(scan)
}

func Abort(scan, reason string) prometheus.Counter {
	return ScanAborts.WithLabelValues(scan, reason)
}
