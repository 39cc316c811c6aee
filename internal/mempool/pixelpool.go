// Package mempool pools the 8-bit pixel buffers that captures are converted into
// before analysis. Batches of same-sized photographs reuse one buffer per worker.
package mempool

import "sync"

var bytePools sync.Map // key: size class (int), value: *sync.Pool

// sizeClass rounds n up to the next multiple of 1024, with 1024 as the minimum.
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	r := (n + step - 1) / step
	return r * step
}

func poolFor(cls int) *sync.Pool {
	pAny, _ := bytePools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]uint8, cls) }})
	p, ok := pAny.(*sync.Pool)
	if !ok {
		return nil
	}
	return p
}

// GetBytes retrieves a buffer of length n. Its contents are undefined; callers
// overwrite it completely. The caller must return it via PutBytes when done.
func GetBytes(n int) []uint8 {
	if n < 0 {
		n = 0
	}
	cls := sizeClass(n)
	p := poolFor(cls)
	if p == nil {
		return make([]uint8, n, cls)
	}
	buf, ok := p.Get().([]uint8)
	if !ok || cap(buf) < cls {
		buf = make([]uint8, cls)
	}
	return buf[:n]
}

// PutBytes returns a buffer to the pool. It is safe to pass a nil slice. Buffers
// whose capacity is not a size class are dropped.
func PutBytes(buf []uint8) {
	if buf == nil {
		return
	}
	cls := sizeClass(cap(buf))
	if cls != cap(buf) {
		return
	}
	if p := poolFor(cls); p != nil {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck
	}
}
