package pool

import (
	"runtime"
	"sync"
	"testing"
)

func TestGetPut_ExactSize(t *testing.T) {
	sizes := []int{256, 1024, 4096, 16384, 65536, 262144, 1048576, 500, 3000}
	for _, size := range sizes {
		b := Get(size)
		if len(b) != size {
			t.Errorf("Get(%d): len = %d, want %d", size, len(b), size)
		}
		Put(b)
	}
}

func TestGetPut_BucketCapacity(t *testing.T) {
	tests := []struct {
		size   int
		minCap int
	}{
		{256, 256}, {100, 256},
		{1024, 1024}, {512, 1024},
		{4096, 4096}, {2048, 4096},
		{16384, 16384},
		{65536, 65536},
		{262144, 262144},
		{1048576, 1048576},
	}
	for _, tt := range tests {
		b := Get(tt.size)
		if cap(b) < tt.minCap {
			t.Errorf("Get(%d): cap = %d, want >= %d", tt.size, cap(b), tt.minCap)
		}
		Put(b)
	}
}

func TestGet_SmallSizesUseSmallestBucket(t *testing.T) {
	for _, size := range []int{1, 10, 64, 128, 255} {
		b := Get(size)
		if len(b) != size {
			t.Errorf("Get(%d): len = %d, want %d", size, len(b), size)
		}
		if cap(b) < Size256B {
			t.Errorf("Get(%d): cap = %d, want >= %d", size, cap(b), Size256B)
		}
		Put(b)
	}
}

func TestGet_AboveLargestBucketFallsBackToDirectAlloc(t *testing.T) {
	for _, size := range []int{2 * Size1M, Size1M + 1} {
		b := Get(size)
		if len(b) != size {
			t.Errorf("Get(%d): len = %d, want %d", size, len(b), size)
		}
		if cap(b) < size {
			t.Errorf("Get(%d): cap = %d, want >= %d", size, cap(b), size)
		}
		Put(b) // must not panic even though this buffer can't be pooled
	}
}

func TestPut_BelowMinBucketIsANoOp(t *testing.T) {
	Put(make([]byte, 100))
	Put(make([]byte, 0, 10))
	Put(nil)

	// The pool must still be usable afterward.
	b := Get(Size256B)
	if len(b) != Size256B {
		t.Errorf("Get(%d) after small Put: len = %d", Size256B, len(b))
	}
	Put(b)
}

func TestPut_OffBucketCapacityIsDropped(t *testing.T) {
	// A slice whose capacity doesn't land exactly on a bucket size (as
	// happens with the Get fallback path above Size1M) must be dropped,
	// not forced into the nearest bucket.
	odd := make([]byte, Size4K+17)
	Put(odd) // must not panic or corrupt the Size16K bucket
	b := Get(Size16K)
	if cap(b) < Size16K {
		t.Errorf("Get(%d): cap = %d, want >= %d", Size16K, cap(b), Size16K)
	}
	Put(b)
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{1, 0}, {256, 0},
		{257, 1}, {1024, 1},
		{1025, 2}, {4096, 2},
		{4097, 3}, {16384, 3},
		{16385, 4}, {65536, 4},
		{65537, 5}, {262144, 5},
		{262145, 6}, {1048576, 6}, {2097152, 6},
	}
	for _, tt := range tests {
		if got := bucketFor(tt.size); got != tt.want {
			t.Errorf("bucketFor(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestGet_ZeroSize(t *testing.T) {
	b := Get(0)
	if len(b) != 0 {
		t.Errorf("Get(0): len = %d, want 0", len(b))
	}
	Put(b)
}

func TestReuseAcrossGC(t *testing.T) {
	const size = Size4K
	b := Get(size)
	b[0], b[size-1] = 0xAB, 0xAB
	savedCap := cap(b)
	Put(b)

	runtime.GC()

	b2 := Get(size)
	if len(b2) != size {
		t.Fatalf("Get(%d) after reuse: len = %d", size, len(b2))
	}
	if cap(b2) < savedCap && cap(b2) < Size4K {
		t.Errorf("Get(%d) after reuse: cap = %d, want >= %d", size, cap(b2), Size4K)
	}
	Put(b2)
}

func TestConcurrentGetPut(t *testing.T) {
	const goroutines = 32
	const iterations = 100
	sizes := []int{128, 512, 2048, 8192, 32768, 131072, 524288}

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				for _, size := range sizes {
					b := Get(size)
					if len(b) != size {
						t.Errorf("concurrent Get(%d): len = %d", size, len(b))
						return
					}
					for j := range b {
						b[j] = byte(j)
					}
					Put(b)
				}
			}
		}()
	}
	wg.Wait()
}

func BenchmarkGetPut(b *testing.B) {
	for _, bm := range []struct {
		name string
		size int
	}{
		{"256B", 256}, {"4K", 4096}, {"64K", 65536}, {"1M", 1048576},
	} {
		b.Run(bm.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				buf := Get(bm.size)
				Put(buf)
			}
		})
	}
}

func BenchmarkGetPutParallel(b *testing.B) {
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := Get(4096)
			Put(buf)
		}
	})
}
