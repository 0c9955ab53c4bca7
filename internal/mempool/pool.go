// Package mempool pools the per-page scratch buffers of the region detector.
package mempool

import "sync"

// sizeClass rounds n up to a multiple of 1024, minimum 1024.
func sizeClass(n int) int {
	const step = 1024
	if n <= step {
		return step
	}
	return (n + step - 1) / step * step
}

// bucketPool keeps one sync.Pool per size class.
type bucketPool[T any] struct {
	pools sync.Map // size class -> *sync.Pool
}

func (b *bucketPool[T]) pool(cls int) *sync.Pool {
	p, _ := b.pools.LoadOrStore(cls, &sync.Pool{New: func() any {
		buf := make([]T, cls)
		return &buf
	}})
	return p.(*sync.Pool)
}

// get returns a zeroed slice of length n.
func (b *bucketPool[T]) get(n int) []T {
	cls := sizeClass(n)
	bp := b.pool(cls).Get().(*[]T)
	buf := *bp
	if cap(buf) < cls {
		buf = make([]T, cls)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

func (b *bucketPool[T]) put(buf []T) {
	if buf == nil {
		return
	}
	full := buf[:cap(buf)]
	// Only exact size classes go back, so get never sees a short buffer.
	if cap(full) != sizeClass(cap(full)) {
		return
	}
	b.pool(cap(full)).Put(&full)
}

var (
	float32s bucketPool[float32]
	bools    bucketPool[bool]
	uint8s   bucketPool[uint8]
)

// GetFloat32 returns a zeroed []float32 of length n. Return it with PutFloat32.
func GetFloat32(n int) []float32 { return float32s.get(n) }

// PutFloat32 returns a buffer to the pool. Nil is ignored.
func PutFloat32(buf []float32) { float32s.put(buf) }

// GetBool returns a zeroed []bool of length n. Return it with PutBool.
func GetBool(n int) []bool { return bools.get(n) }

// PutBool returns a buffer to the pool. Nil is ignored.
func PutBool(buf []bool) { bools.put(buf) }

// GetUint8 returns a zeroed []uint8 of length n. Return it with PutUint8.
func GetUint8(n int) []uint8 { return uint8s.get(n) }

// PutUint8 returns a buffer to the pool. Nil is ignored.
func PutUint8(buf []uint8) { uint8s.put(buf) }
