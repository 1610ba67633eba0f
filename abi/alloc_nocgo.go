//go:build !cgo

package abi

import (
	"sync"
	"unsafe"
)

// heapAllocator backs host buffers with Go memory when cgo is off. Without
// cgo there is no native library to hand them to, so this only serves
// in-process Library implementations.
type heapAllocator struct {
	mu   sync.Mutex
	live map[unsafe.Pointer][]uint64
}

var defaultHeap = &heapAllocator{live: make(map[unsafe.Pointer][]uint64)}

func (h *heapAllocator) Malloc(size int) unsafe.Pointer {
	if size <= 0 {
		size = 1
	}
	words := make([]uint64, (size+7)/8)
	p := unsafe.Pointer(&words[0])
	h.mu.Lock()
	h.live[p] = words
	h.mu.Unlock()
	return p
}

func (h *heapAllocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	h.mu.Lock()
	delete(h.live, p)
	h.mu.Unlock()
}

// HostAllocator returns the allocator used for buffers passed into the
// library.
func HostAllocator() Allocator { return defaultHeap }
