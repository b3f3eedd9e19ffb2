// Package bufpool implements a size-bucketed pool of reusable byte buffers.
//
// Philosophy: "Recycle big buffers, never shrink them."
//
// A 1080p30 RGBA stream produces roughly 249 MB/s of pixel data. Allocating
// a fresh buffer per decoded frame churns the heap at that rate; pooling
// removes essentially all allocation from the decode hot path.
//
// Buffers are filed into three size classes by capacity:
//   - small:  ≤ 2 MiB
//   - medium: ≤ 8 MiB
//   - large:  > 8 MiB
//
// Each class is a bounded stack; releases into a full class discard the
// buffer. A buffer handed out always has capacity ≥ the requested minimum.
package bufpool

import (
	"sync"
	"sync/atomic"
)

const (
	// SmallBufferSize is the capacity ceiling of the small class (2 MiB).
	SmallBufferSize = 2 * 1024 * 1024
	// MediumBufferSize is the capacity ceiling of the medium class (8 MiB).
	MediumBufferSize = 8 * 1024 * 1024
)

// DefaultMaxPerBucket bounds each class when no explicit limit is configured.
const DefaultMaxPerBucket = 8

// Stats contains pool counters, updated atomically during operation.
type Stats struct {
	// Hits is the number of Acquire calls served from a bucket
	Hits uint64
	// Misses is the number of Acquire calls that allocated fresh
	Misses uint64
	// Discards is the number of Release calls dropped on a full bucket
	Discards uint64
}

// Pool is a bucketed buffer allocator. The zero value is not usable;
// construct with New.
//
// A Pool is intended to be private to a single decoder instance and its
// worker goroutine; it is nevertheless safe for concurrent use.
type Pool struct {
	mu      sync.Mutex
	buckets [3][][]byte
	max     [3]int

	hits     uint64
	misses   uint64
	discards uint64
}

// New creates a Pool whose buckets each hold at most maxPerBucket spare
// buffers. maxPerBucket < 1 falls back to DefaultMaxPerBucket.
func New(maxPerBucket int) *Pool {
	if maxPerBucket < 1 {
		maxPerBucket = DefaultMaxPerBucket
	}
	return &Pool{max: [3]int{maxPerBucket, maxPerBucket, maxPerBucket}}
}

// NewWithLimits creates a Pool with an explicit per-class occupancy limit.
func NewWithLimits(smallMax, mediumMax, largeMax int) *Pool {
	p := New(DefaultMaxPerBucket)
	if smallMax > 0 {
		p.max[0] = smallMax
	}
	if mediumMax > 0 {
		p.max[1] = mediumMax
	}
	if largeMax > 0 {
		p.max[2] = largeMax
	}
	return p
}

// bucketFor maps a byte size to its class index.
func bucketFor(size int) int {
	switch {
	case size <= SmallBufferSize:
		return 0
	case size <= MediumBufferSize:
		return 1
	default:
		return 2
	}
}

// Acquire returns a buffer of length minSize with capacity ≥ minSize.
//
// The buffer is cleared (length reset) but not zeroed; callers overwrite the
// full extent before reading. Preference order:
//  1. Top of the bucket matching minSize, if its capacity suffices
//  2. Fresh allocation
//
// A pooled buffer that is too small for the request stays in the bucket; the
// pool never hands out an undersized buffer.
func (p *Pool) Acquire(minSize int) []byte {
	if minSize <= 0 {
		return nil
	}

	idx := bucketFor(minSize)

	p.mu.Lock()
	bucket := p.buckets[idx]
	for i := len(bucket) - 1; i >= 0; i-- {
		if cap(bucket[i]) >= minSize {
			buf := bucket[i]
			p.buckets[idx] = append(bucket[:i], bucket[i+1:]...)
			p.mu.Unlock()

			atomic.AddUint64(&p.hits, 1)
			return buf[:minSize]
		}
	}
	p.mu.Unlock()

	atomic.AddUint64(&p.misses, 1)
	return make([]byte, minSize)
}

// Release files buf into the class matching its capacity.
//
// If that class already holds its configured maximum, buf is discarded and
// left to the garbage collector. Classes never shrink; a buffer's class is
// fixed by its capacity at the moment of release. Nil and empty buffers are
// ignored.
func (p *Pool) Release(buf []byte) {
	if cap(buf) == 0 {
		return
	}

	idx := bucketFor(cap(buf))

	p.mu.Lock()
	if len(p.buckets[idx]) >= p.max[idx] {
		p.mu.Unlock()
		atomic.AddUint64(&p.discards, 1)
		return
	}
	p.buckets[idx] = append(p.buckets[idx], buf[:0])
	p.mu.Unlock()
}

// Stats returns a snapshot of the pool counters.
//
// Counters are read atomically; the set is not a transactional snapshot.
func (p *Pool) Stats() Stats {
	return Stats{
		Hits:     atomic.LoadUint64(&p.hits),
		Misses:   atomic.LoadUint64(&p.misses),
		Discards: atomic.LoadUint64(&p.discards),
	}
}

// Len reports the current occupancy of the small, medium and large classes.
func (p *Pool) Len() (small, medium, large int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets[0]), len(p.buckets[1]), len(p.buckets[2])
}
