// Package pool hands out reusable byte buffers sized to a small set of
// buckets, so callers doing short-lived scratch allocation in a decode or
// encode hot path don't pay for a fresh make() on every call.
package pool

import "sync"

// Bucket boundaries, smallest to largest.
const (
	Size256B = 256
	Size1K   = 1 << 10
	Size4K   = 1 << 12
	Size16K  = 1 << 14
	Size64K  = 1 << 16
	Size256K = 1 << 18
	Size1M   = 1 << 20
)

var bucketSizes = [...]int{Size256B, Size1K, Size4K, Size16K, Size64K, Size256K, Size1M}

var buckets [len(bucketSizes)]sync.Pool

func init() {
	for i, sz := range bucketSizes {
		sz := sz
		buckets[i].New = func() any {
			b := make([]byte, sz)
			return &b
		}
	}
}

// bucketFor returns the smallest bucket index whose size is >= n, or the
// last (largest) bucket if n exceeds every defined size.
func bucketFor(n int) int {
	for i, sz := range bucketSizes {
		if n <= sz {
			return i
		}
	}
	return len(bucketSizes) - 1
}

// Get returns a byte slice with length == size, drawn from the smallest
// bucket that fits. The caller should return it via Put once done.
func Get(size int) []byte {
	idx := bucketFor(size)
	buf := *buckets[idx].Get().(*[]byte)
	if cap(buf) < size {
		// The requested size exceeds even the largest bucket; the pool
		// can't help here, so allocate directly and skip pooling it.
		return make([]byte, size)
	}
	return buf[:size]
}

// Put returns a buffer previously obtained from Get back to its bucket.
// Buffers smaller than Size256B, or whose capacity doesn't match a known
// bucket exactly (i.e. they were the Get fallback allocation), are dropped
// rather than pooled.
func Put(b []byte) {
	c := cap(b)
	if c < Size256B {
		return
	}
	idx := bucketFor(c)
	if bucketSizes[idx] != c {
		return
	}
	b = b[:c]
	buckets[idx].Put(&b)
}
