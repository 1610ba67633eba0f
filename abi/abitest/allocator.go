// Package abitest provides in-process stand-ins for the libtulip boundary:
// an allocation-tracking Allocator and a recording Library.
package abitest

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// Allocator is an abi.Allocator that tracks every buffer it hands out and
// records misuse (freeing unknown or already freed pointers) instead of
// crashing.
type Allocator struct {
	// FailAfter, when positive, makes Malloc return nil once that many
	// buffers have been handed out.
	FailAfter int

	name string

	mu     sync.Mutex
	live   map[unsafe.Pointer][]uint64
	allocs int
	frees  int
	errs   []error
}

// NewAllocator returns an empty tracking allocator. The name appears in
// misuse errors.
func NewAllocator(name string) *Allocator {
	return &Allocator{name: name, live: make(map[unsafe.Pointer][]uint64)}
}

// Malloc returns a zeroed, 8-byte aligned buffer of at least size bytes, or
// nil once the FailAfter budget is spent.
func (a *Allocator) Malloc(size int) unsafe.Pointer {
	if size <= 0 {
		size = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.FailAfter > 0 && a.allocs >= a.FailAfter {
		return nil
	}
	words := make([]uint64, (size+7)/8)
	p := unsafe.Pointer(&words[0])
	a.live[p] = words
	a.allocs++
	return p
}

// Free releases p. Freeing a pointer this allocator does not own is
// recorded as an error.
func (a *Allocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.live[p]; !ok {
		a.errs = append(a.errs, fmt.Errorf("%s: free of pointer %p it does not own (double free or foreign allocator)", a.name, p))
		return
	}
	delete(a.live, p)
	a.frees++
}

// Owns reports whether p is a live allocation of this allocator.
func (a *Allocator) Owns(p unsafe.Pointer) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.live[p]
	return ok
}

// Allocs returns the number of successful Malloc calls.
func (a *Allocator) Allocs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs
}

// Frees returns the number of successful Free calls.
func (a *Allocator) Frees() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frees
}

// Live returns the number of buffers not yet freed.
func (a *Allocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Err joins every misuse recorded so far.
func (a *Allocator) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return errors.Join(a.errs...)
}
