// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package bpf

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/ksentinel/ksentinel/pkg/logger"
	"github.com/ksentinel/ksentinel/pkg/logger/logfields"
	"github.com/ksentinel/ksentinel/pkg/metrics/cachemetrics"
	"github.com/sirupsen/logrus"
)

// LRUStore is a cache.Store on a kernel BPF_MAP_TYPE_LRU_HASH map, the same
// map the kernel side hooks share with user space.
type LRUStore[K comparable, V any] struct {
	m    *ebpf.Map
	name string
	log  logrus.FieldLogger
}

func lruSpec[K comparable, V any](name string, size int) (*ebpf.MapSpec, error) {
	var (
		k K
		v V
	)
	ks, vs := binary.Size(k), binary.Size(v)
	if ks <= 0 || vs <= 0 {
		return nil, fmt.Errorf("map %s: key and value must have a fixed size", name)
	}
	return &ebpf.MapSpec{
		Name:       name,
		Type:       ebpf.LRUHash,
		KeySize:    uint32(ks),
		ValueSize:  uint32(vs),
		MaxEntries: uint32(size),
	}, nil
}

func newLRUStore[K comparable, V any](m *ebpf.Map, name string) *LRUStore[K, V] {
	return &LRUStore[K, V]{
		m:    m,
		name: name,
		log:  logger.WithSubsys("bpf").WithField(logfields.Map, name),
	}
}

func (s *LRUStore[K, V]) Put(k K, v V) {
	if err := s.m.Put(k, v); err != nil {
		s.log.WithError(err).Debug("map update failed")
		return
	}
	cachemetrics.Op(s.name, cachemetrics.OpPut).Inc()
}

func (s *LRUStore[K, V]) Take(k K) (V, bool) {
	var v V
	err := s.m.LookupAndDelete(k, &v)
	if err != nil && !errors.Is(err, ebpf.ErrKeyNotExist) {
		// lookup and delete on hash maps needs a 5.14 kernel
		if err = s.m.Lookup(k, &v); err == nil {
			_ = s.m.Delete(k)
		}
	}
	if err != nil {
		cachemetrics.Op(s.name, cachemetrics.OpMiss).Inc()
		return v, false
	}
	cachemetrics.Op(s.name, cachemetrics.OpHit).Inc()
	return v, true
}

func (s *LRUStore[K, V]) Peek(k K) (V, bool) {
	var v V
	if err := s.m.Lookup(k, &v); err != nil {
		return v, false
	}
	return v, true
}

func (s *LRUStore[K, V]) Delete(k K) {
	if err := s.m.Delete(k); err != nil && !errors.Is(err, ebpf.ErrKeyNotExist) {
		s.log.WithError(err).Debug("map delete failed")
	}
}

// Len walks the map, use it for diagnostics only.
func (s *LRUStore[K, V]) Len() int {
	var (
		k K
		v V
		n int
	)
	it := s.m.Iterate()
	for it.Next(&k, &v) {
		n++
	}
	return n
}
