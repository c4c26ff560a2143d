// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package cache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ksentinel/ksentinel/pkg/metrics/cachemetrics"
	"github.com/prometheus/client_golang/prometheus"
)

// LRU is a Store evicting the least recently used entry when full. Put and
// Peek mark the entry as recently used.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	cache   *lru.Cache[K, V]
	name    string
	size    int
	evicted prometheus.Counter
}

// NewLRU constructs a cache of fixed size. Only entries pushed out by Put
// count as evictions, Take and Delete do not.
func NewLRU[K comparable, V any](size int, name string) (*LRU[K, V], error) {
	c, err := lru.New[K, V](size)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &LRU[K, V]{cache: c, name: name, size: size, evicted: cachemetrics.Evicted(name)}, nil
}

func (l *LRU[K, V]) Put(k K, v V) {
	l.mu.Lock()
	evicted := l.cache.Add(k, v)
	n := l.cache.Len()
	l.mu.Unlock()
	if evicted {
		l.evicted.Inc()
	}
	cachemetrics.Op(l.name, cachemetrics.OpPut).Inc()
	cachemetrics.Size(l.name).Set(float64(n))
}

func (l *LRU[K, V]) Take(k K) (V, bool) {
	l.mu.Lock()
	v, ok := l.cache.Peek(k)
	if ok {
		l.cache.Remove(k)
	}
	n := l.cache.Len()
	l.mu.Unlock()
	l.count(ok)
	cachemetrics.Size(l.name).Set(float64(n))
	return v, ok
}

// Peek looks k up and marks it as recently used.
func (l *LRU[K, V]) Peek(k K) (V, bool) {
	l.mu.Lock()
	v, ok := l.cache.Get(k)
	l.mu.Unlock()
	l.count(ok)
	return v, ok
}

func (l *LRU[K, V]) Delete(k K) {
	l.mu.Lock()
	l.cache.Remove(k)
	n := l.cache.Len()
	l.mu.Unlock()
	cachemetrics.Size(l.name).Set(float64(n))
}

func (l *LRU[K, V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cache.Len()
}

// Keys returns the keys from the oldest to the newest.
func (l *LRU[K, V]) Keys() []K {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cache.Keys()
}

func (l *LRU[K, V]) Size() int {
	return l.size
}

func (l *LRU[K, V]) count(hit bool) {
	if hit {
		cachemetrics.Op(l.name, cachemetrics.OpHit).Inc()
	} else {
		cachemetrics.Op(l.name, cachemetrics.OpMiss).Inc()
	}
}
