// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Tetragon

package dns

import (
	"errors"
	"runtime"
)

var ErrNoBuffer = errors.New("no scratch buffer available")

// BufferPool is a fixed set of scratch buffers. It never allocates after
// creation.
type BufferPool struct {
	free chan *Buffer
}

// NewBufferPool creates n buffers, one per CPU when n <= 0.
func NewBufferPool(n int) *BufferPool {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	p := &BufferPool{free: make(chan *Buffer, n)}
	for i := 0; i < n; i++ {
		p.free <- new(Buffer)
	}
	return p
}

// Get takes a buffer without blocking.
func (p *BufferPool) Get() (*Buffer, error) {
	select {
	case b := <-p.free:
		return b, nil
	default:
		return nil, ErrNoBuffer
	}
}

// Put zeroes b and returns it to the pool.
func (p *BufferPool) Put(b *Buffer) {
	*b = Buffer{}
	select {
	case p.free <- b:
	default:
	}
}

// Available returns the number of free buffers.
func (p *BufferPool) Available() int {
	return len(p.free)
}
