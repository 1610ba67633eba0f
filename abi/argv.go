package abi

import (
	"strings"
	"unsafe"
)

const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// Argv is a C argument vector: argc NUL-terminated buffers and a pointer
// array of argc+1 slots whose last slot is NULL. Every buffer and the array
// itself come from one Allocator and are returned to it by Release.
type Argv struct {
	alloc    Allocator
	array    unsafe.Pointer
	argc     int
	released bool
}

// NewArgv marshals args. If any argument contains a NUL byte nothing is
// allocated and a *NulError is returned.
func NewArgv(alloc Allocator, args []string) (*Argv, error) {
	for i, arg := range args {
		if j := strings.IndexByte(arg, 0); j >= 0 {
			return nil, &NulError{Index: i, Offset: j}
		}
	}

	array := alloc.Malloc((len(args) + 1) * ptrSize)
	if array == nil {
		return nil, ErrOutOfMemory
	}
	a := &Argv{alloc: alloc, array: array, argc: len(args)}
	slots := a.slots()
	for i := range slots {
		slots[i] = nil
	}

	for i, arg := range args {
		p, err := copyString(alloc, arg)
		if err != nil {
			a.Release()
			return nil, err
		}
		slots[i] = p
	}
	return a, nil
}

func (a *Argv) slots() []unsafe.Pointer {
	return unsafe.Slice((*unsafe.Pointer)(a.array), a.argc+1)
}

// Argc returns the number of arguments, not counting the sentinel.
func (a *Argv) Argc() int { return a.argc }

// Len returns the number of pointer slots including the NULL sentinel.
func (a *Argv) Len() int { return a.argc + 1 }

// Pointer returns the address of the pointer array (a char**), or nil once
// released.
func (a *Argv) Pointer() unsafe.Pointer {
	if a.released {
		return nil
	}
	return a.array
}

// Strings decodes the vector back into Go strings.
func (a *Argv) Strings() []string {
	if a.released {
		return nil
	}
	slots := a.slots()
	out := make([]string, a.argc)
	for i := range out {
		out[i] = GoString(slots[i])
	}
	return out
}

// Release frees every argument buffer, skipping NULL slots, and then the
// array. Calling it again does nothing.
func (a *Argv) Release() {
	if a.released {
		return
	}
	a.released = true
	slots := a.slots()
	for i, p := range slots {
		if p == nil {
			continue
		}
		a.alloc.Free(p)
		slots[i] = nil
	}
	a.alloc.Free(a.array)
	a.array = nil
}
