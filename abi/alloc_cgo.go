//go:build cgo

package abi

/*
#include <stdlib.h>
*/
import "C"
import "unsafe"

type cAllocator struct{}

func (cAllocator) Malloc(size int) unsafe.Pointer {
	if size <= 0 {
		size = 1
	}
	return C.malloc(C.size_t(size))
}

func (cAllocator) Free(p unsafe.Pointer) {
	C.free(p)
}

// HostAllocator returns the C heap allocator used for buffers passed into
// libtulip.
func HostAllocator() Allocator { return cAllocator{} }
