// Package abi is the C boundary to libtulip.
//
// Everything that touches raw pointers lives here: building the argc/argv
// vector, NUL-terminated host strings, and strings handed back by the
// library. The rest of the module works with Go values only.
//
// Two allocators are in play and must never be mixed. Buffers the host
// creates (argv, source text, labels, paths) come from an Allocator and go
// back to the same Allocator. Strings the library returns are wrapped in a
// LibString and can only be released through the library's Deallocator.
package abi

import (
	"errors"
	"unsafe"
)

var (
	// ErrNativeUnavailable is returned by Native when the binary was built
	// without cgo or without the tulip build tag.
	ErrNativeUnavailable = errors.New("abi: libtulip binding not compiled in (build with -tags tulip and cgo enabled)")

	// ErrOutOfMemory is returned when an Allocator cannot satisfy a request.
	ErrOutOfMemory = errors.New("abi: allocation failed")
)

// Allocator hands out raw memory for buffers the host owns. Free(nil) is a
// no-op.
type Allocator interface {
	Malloc(size int) unsafe.Pointer
	Free(p unsafe.Pointer)
}

// Deallocator releases strings allocated by the library.
type Deallocator interface {
	FreeString(p unsafe.Pointer)
}

// Library is the libtulip entry point surface. All pointer arguments are
// NUL-terminated byte strings owned by the caller; returned strings are
// owned by the library and must go back through FreeString.
//
// libtulip keeps one global VM, so Init must be called once before any
// other entry point and Free once after the last.
type Library interface {
	Deallocator

	Init(argc int, argv unsafe.Pointer)
	Interpret(source, name unsafe.Pointer) int32
	InterpretWithResult(source, name unsafe.Pointer, status *int32) unsafe.Pointer
	RunFile(path unsafe.Pointer) int32
	RunFileWithResult(path unsafe.Pointer, status *int32) unsafe.Pointer
	Free()
}
