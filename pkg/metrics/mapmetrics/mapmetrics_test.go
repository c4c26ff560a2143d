// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package mapmetrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	stats   []MapStat
	memlock int
	err     error
}

func (f *fakeSource) MapStats() []MapStat   { return f.stats }
func (f *fakeSource) Memlock() (int, error) { return f.memlock, f.err }

func TestBPFCollector(t *testing.T) {
	src := &fakeSource{
		stats: []MapStat{
			{Name: "connect_cache", Entries: 3, Capacity: 1024},
			{Name: "analyze_cache", Entries: 1, Capacity: 1},
		},
		memlock: 8192,
	}
	expected := `
# HELP ksentinel_map_in_use_gauge The total number of in-use entries per map.
# TYPE ksentinel_map_in_use_gauge gauge
ksentinel_map_in_use_gauge{map="analyze_cache",total="1"} 1
ksentinel_map_in_use_gauge{map="connect_cache",total="1024"} 3
# HELP ksentinel_map_memlock_bytes The memory locked by the kernel maps.
# TYPE ksentinel_map_memlock_bytes gauge
ksentinel_map_memlock_bytes 8192
`
	require.NoError(t, testutil.CollectAndCompare(NewBPFCollector(src), strings.NewReader(expected)))
}

func TestBPFCollectorMemlockError(t *testing.T) {
	src := &fakeSource{
		stats: []MapStat{{Name: "udpmsg", Entries: 0, Capacity: 512}},
		err:   errors.New("no fdinfo"),
	}
	require.Equal(t, 1, testutil.CollectAndCount(NewBPFCollector(src)))
}
