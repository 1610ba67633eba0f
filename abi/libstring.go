package abi

import (
	"fmt"
	"unicode/utf8"
	"unsafe"
)

// DecodeError is returned when a library string is not valid UTF-8. Raw
// holds the bytes as received.
type DecodeError struct {
	Raw []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("abi: library returned %d bytes of invalid UTF-8", len(e.Raw))
}

// LibString is a NUL-terminated string allocated by the library. It can
// only be released through the Deallocator it was created with; the host
// Allocator never sees it.
type LibString struct {
	owner    Deallocator
	p        unsafe.Pointer
	released bool
}

// NewLibString takes ownership of p on behalf of owner.
func NewLibString(owner Deallocator, p unsafe.Pointer) *LibString {
	return &LibString{owner: owner, p: p}
}

// IsNil reports whether the library returned a NULL pointer.
func (s *LibString) IsNil() bool { return s.p == nil }

// Bytes returns a copy of the string's bytes, or nil if the pointer is NULL
// or already released.
func (s *LibString) Bytes() []byte {
	if s.p == nil || s.released {
		return nil
	}
	b := cbytes(s.p)
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Text decodes the string as UTF-8.
func (s *LibString) Text() (string, error) {
	b := s.Bytes()
	if !utf8.Valid(b) {
		return "", &DecodeError{Raw: b}
	}
	return string(b), nil
}

// Release hands the pointer back to the library. NULL pointers are skipped
// and repeated calls do nothing.
func (s *LibString) Release() {
	if s.released {
		return
	}
	s.released = true
	if s.p != nil {
		s.owner.FreeString(s.p)
	}
	s.p = nil
}
