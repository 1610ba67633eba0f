package abi

import (
	"fmt"
	"strings"
	"unsafe"
)

// NulError reports a string that cannot be represented as a C string
// because it contains a NUL byte.
type NulError struct {
	Index  int // position in the argument vector, or -1
	Offset int // byte offset of the first NUL
}

func (e *NulError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("abi: argv[%d] contains NUL byte at offset %d", e.Index, e.Offset)
	}
	return fmt.Sprintf("abi: string contains NUL byte at offset %d", e.Offset)
}

// CString copies s into a NUL-terminated buffer obtained from alloc. The
// caller releases it with alloc.Free.
func CString(alloc Allocator, s string) (unsafe.Pointer, error) {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return nil, &NulError{Index: -1, Offset: i}
	}
	return copyString(alloc, s)
}

func copyString(alloc Allocator, s string) (unsafe.Pointer, error) {
	p := alloc.Malloc(len(s) + 1)
	if p == nil {
		return nil, ErrOutOfMemory
	}
	buf := unsafe.Slice((*byte)(p), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return p, nil
}

// GoString copies a NUL-terminated buffer into a Go string. A nil pointer
// yields "".
func GoString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	return string(cbytes(p))
}

// cbytes aliases the bytes before the terminating NUL. The slice is only
// valid while the buffer is.
func cbytes(p unsafe.Pointer) []byte {
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return unsafe.Slice((*byte)(p), n)
}
