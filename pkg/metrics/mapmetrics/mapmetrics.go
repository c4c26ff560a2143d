// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package mapmetrics

import (
	"strconv"

	"github.com/ksentinel/ksentinel/pkg/metrics/consts"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	mapSize = prometheus.NewDesc(
		prometheus.BuildFQName(consts.MetricsNamespace, "", "map_in_use_gauge"),
		"The total number of in-use entries per map.",
		[]string{"map", "total"}, nil,
	)
	mapMemlock = prometheus.NewDesc(
		prometheus.BuildFQName(consts.MetricsNamespace, "", "map_memlock_bytes"),
		"The memory locked by the kernel maps.",
		nil, nil,
	)
)

// MapStat is a point in time view of one kernel map.
type MapStat struct {
	Name     string
	Entries  int
	Capacity int
}

// Source is implemented by the map set the collector reads from.
type Source interface {
	MapStats() []MapStat
	Memlock() (int, error)
}

// bpfCollector implements prometheus.Collector. It reads the maps on every
// scrape, so nothing is cached between two collections.
type bpfCollector struct {
	src Source
}

func NewBPFCollector(src Source) prometheus.Collector {
	return &bpfCollector{src: src}
}

func (c *bpfCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- mapSize
	ch <- mapMemlock
}

func (c *bpfCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.src.MapStats() {
		ch <- prometheus.MustNewConstMetric(mapSize, prometheus.GaugeValue,
			float64(s.Entries), s.Name, strconv.Itoa(s.Capacity))
	}
	// fdinfo may be unreadable under some sandboxes, skip the sample then
	if memlock, err := c.src.Memlock(); err == nil {
		ch <- prometheus.MustNewConstMetric(mapMemlock, prometheus.GaugeValue, float64(memlock))
	}
}
