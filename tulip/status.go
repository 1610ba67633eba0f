package tulip

import (
	"errors"
	"fmt"
)

// Status is an exit code reported by the VM. Zero is success; every other
// value is a failure. Only the codes libtulip documents have names.
type Status int32

const (
	StatusOK           Status = 0
	StatusCompileError Status = 65
	StatusRuntimeError Status = 70
	StatusIOError      Status = 74
)

// OK reports whether s is a success code.
func (s Status) OK() bool { return s == StatusOK }

var statusNames = map[Status]string{
	StatusOK:           "ok",
	StatusCompileError: "compile error",
	StatusRuntimeError: "runtime error",
	StatusIOError:      "file I/O error",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status %d", int32(s))
}

var (
	// ErrClosed is returned by calls on a VM that has been freed.
	ErrClosed = errors.New("tulip: VM is closed")

	// ErrBusy is returned by Open when the library already has an open VM.
	ErrBusy = errors.New("tulip: library already has an open VM")

	// ErrUnhashableLibrary is returned by Open when the library value cannot
	// be used as an identity, for example a struct value holding a slice.
	// Pass a pointer instead.
	ErrUnhashableLibrary = errors.New("tulip: library value is not comparable")

	// ErrNoResult is returned when a successful *WithResult call hands back
	// a NULL string.
	ErrNoResult = errors.New("tulip: library returned no result string")
)

// ExitError is a nonzero status from an execution call.
type ExitError struct {
	Op     string // "interpret" or "run"
	Target string // source label or script path
	Status Status
}

func (e *ExitError) Error() string {
	if _, named := statusNames[e.Status]; !named {
		return fmt.Sprintf("tulip: %s %s: failed with status %d", e.Op, e.Target, int32(e.Status))
	}
	return fmt.Sprintf("tulip: %s %s: %s (status %d)", e.Op, e.Target, e.Status, int32(e.Status))
}

// StatusOf extracts the VM status from an execution error. A nil error is
// StatusOK. ok is false when err did not come from the VM.
func StatusOf(err error) (status Status, ok bool) {
	if err == nil {
		return StatusOK, true
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Status, true
	}
	return 0, false
}
