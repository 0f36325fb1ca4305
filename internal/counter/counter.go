// Package counter provides a sharded, per-goroutine counter for the
// store's dispatch statistics, avoiding a single contended atomic on the
// drain hot path.
package counter

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

const maxShards = 256

// Sharded is a low-contention counter. Writes hash the calling goroutine's
// stack address into a shard instead of contending on one atomic.Int64.
type Sharded struct {
	shards [maxShards]shard
	mask   int
}

type shard struct {
	value atomic.Int64
	_     [56]byte // pad to a cache line
}

// New sizes the shard count from GOMAXPROCS, with a floor of 8 so
// low-core environments (2-4 vCPUs) don't see most goroutines collide
// on the same shard.
func New() *Sharded {
	n := runtime.GOMAXPROCS(0)
	sz := 1
	for sz < n {
		sz *= 2
	}
	if sz < 8 {
		sz = 8
	}
	if sz > maxShards {
		sz = maxShards
	}
	return &Sharded{mask: sz - 1}
}

// Add increments the counter. The shard is chosen from the address of a
// stack variable, which is stable for a goroutine's lifetime and cheap to
// compute, and never escapes to the heap.
//
//go:nosplit
func (c *Sharded) Add(delta int64) {
	var x uintptr
	shard := int(uintptr(unsafe.Pointer(&x)) >> 13)
	c.shards[shard&c.mask].value.Add(delta)
}

// Load sums every shard. Not cheap; call it for reporting, not per dispatch.
func (c *Sharded) Load() int64 {
	var sum int64
	for i := 0; i <= c.mask; i++ {
		sum += c.shards[i].value.Load()
	}
	return sum
}
