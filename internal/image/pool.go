// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package image

import "sync"

// Pool is a thread-safe pool for reusing pixel byte buffers.
//
// Pool groups buffers by their exact length. A tiled image has at most four
// distinct tile sizes (interior, last column, last row, corner), so the
// bucket map stays tiny.
//
// Thread safety: All methods are safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets map[int][][]byte
	maxSize int // max buffers per bucket
}

// NewPool creates a new buffer pool with the given maximum buffers per bucket.
// A maxPerBucket of 0 means unlimited (use with caution).
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[int][][]byte),
		maxSize: maxPerBucket,
	}
}

// Get retrieves a buffer of exactly n bytes from the pool or allocates one.
// Reused buffers are not cleared; callers overwrite them fully.
func (p *Pool) Get(n int) []byte {
	if n <= 0 {
		return nil
	}

	p.mu.Lock()
	bucket := p.buckets[n]
	if len(bucket) > 0 {
		buf := bucket[len(bucket)-1]
		p.buckets[n] = bucket[:len(bucket)-1]
		p.mu.Unlock()
		return buf
	}
	p.mu.Unlock()

	return make([]byte, n)
}

// Put returns a buffer to the pool for reuse.
// If buf is empty or the bucket is at capacity, the buffer is discarded.
func (p *Pool) Put(buf []byte) {
	if len(buf) == 0 {
		return
	}
	n := len(buf)

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[n]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[n] = append(bucket, buf[:n:n])
}

// Len returns the number of buffers currently held across all buckets.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, b := range p.buckets {
		total += len(b)
	}
	return total
}

// defaultPool is the package-level pool for convenient usage.
var defaultPool = NewPool(8)

// GetFromDefault retrieves a buffer from the default pool.
func GetFromDefault(n int) []byte {
	return defaultPool.Get(n)
}

// PutToDefault returns a buffer to the default pool.
func PutToDefault(buf []byte) {
	defaultPool.Put(buf)
}
