package abitest

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/chazu/tulipgo/abi"
)

// Outcome is what the stub VM reports for one execution call.
type Outcome struct {
	Value  string // last value, returned by the *WithResult entry points
	Status int32  // exit code
	Nil    bool   // return a NULL result pointer
}

// Call is one recorded library call with its decoded string arguments.
type Call struct {
	Op   string
	Args []string
}

type libState int

const (
	stateUninitialized libState = iota
	stateInitialized
	stateFreed
)

// Library is a recording abi.Library. It enforces the libtulip call order
// (Init, executions, Free), allocates result strings from its own Heap, and
// records every violation instead of crashing.
//
// Eval and Exec decide execution outcomes; when nil, every call succeeds
// with the value "null".
type Library struct {
	// Heap is the library-side allocator for result strings.
	Heap *Allocator

	Eval  func(source, name string) Outcome
	Exec  func(path string) Outcome
	Panic string // op name whose call panics

	mu    sync.Mutex
	state libState
	argv  []string
	calls []Call
	freed int
	errs  []error
}

// NewLibrary returns a stub in the uninitialized state.
func NewLibrary() *Library {
	return &Library{Heap: NewAllocator("libtulip heap")}
}

func (l *Library) record(op string, args ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, Call{Op: op, Args: args})
	switch {
	case op == "init" && l.state != stateUninitialized:
		l.errs = append(l.errs, errors.New("init called twice"))
	case op == "free" && l.state == stateFreed:
		l.errs = append(l.errs, errors.New("free called twice"))
	case op == "free" && l.state == stateUninitialized:
		l.errs = append(l.errs, errors.New("free called before init"))
	case op != "init" && op != "free" && op != "free-string" && l.state != stateInitialized:
		l.errs = append(l.errs, fmt.Errorf("%s called while VM is not initialized", op))
	}
	switch op {
	case "init":
		l.state = stateInitialized
	case "free":
		l.state = stateFreed
	}
	if op == l.Panic {
		panic(fmt.Sprintf("abitest: %s failed", op))
	}
}

func (l *Library) fail(err error) {
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
}

func (l *Library) Init(argc int, argv unsafe.Pointer) {
	var args []string
	if argv != nil {
		slots := unsafe.Slice((*unsafe.Pointer)(argv), argc+1)
		if slots[argc] != nil {
			l.fail(errors.New("argv is not NULL-terminated"))
		}
		args = make([]string, argc)
		for i := range args {
			args[i] = abi.GoString(slots[i])
		}
	} else if argc != 0 {
		l.fail(fmt.Errorf("argv is NULL with argc %d", argc))
	}
	l.mu.Lock()
	l.argv = args
	l.mu.Unlock()
	l.record("init", args...)
}

func (l *Library) eval(source, name string) Outcome {
	if l.Eval == nil {
		return Outcome{Value: "null"}
	}
	return l.Eval(source, name)
}

func (l *Library) exec(path string) Outcome {
	if l.Exec == nil {
		return Outcome{Value: "null"}
	}
	return l.Exec(path)
}

func (l *Library) result(o Outcome, status *int32) unsafe.Pointer {
	*status = o.Status
	if o.Nil {
		return nil
	}
	p, err := abi.CString(l.Heap, o.Value)
	if err != nil {
		l.fail(err)
		return nil
	}
	return p
}

func (l *Library) Interpret(source, name unsafe.Pointer) int32 {
	src, label := abi.GoString(source), abi.GoString(name)
	l.record("interpret", src, label)
	return l.eval(src, label).Status
}

func (l *Library) InterpretWithResult(source, name unsafe.Pointer, status *int32) unsafe.Pointer {
	src, label := abi.GoString(source), abi.GoString(name)
	l.record("interpret-with-result", src, label)
	return l.result(l.eval(src, label), status)
}

func (l *Library) RunFile(path unsafe.Pointer) int32 {
	p := abi.GoString(path)
	l.record("run-file", p)
	return l.exec(p).Status
}

func (l *Library) RunFileWithResult(path unsafe.Pointer, status *int32) unsafe.Pointer {
	p := abi.GoString(path)
	l.record("run-file-with-result", p)
	return l.result(l.exec(p), status)
}

// FreeString releases a result string. Pointers not allocated by Heap are
// recorded as errors.
func (l *Library) FreeString(p unsafe.Pointer) {
	l.record("free-string")
	if !l.Heap.Owns(p) {
		l.fail(fmt.Errorf("free-string of pointer %p not allocated by the library", p))
		return
	}
	l.Heap.Free(p)
	l.mu.Lock()
	l.freed++
	l.mu.Unlock()
}

func (l *Library) Free() {
	l.record("free")
}

// Calls returns every recorded call in order.
func (l *Library) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Call(nil), l.calls...)
}

// Ops returns the op names of every recorded call in order.
func (l *Library) Ops() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ops := make([]string, len(l.calls))
	for i, c := range l.calls {
		ops[i] = c.Op
	}
	return ops
}

// Argv returns the arguments decoded at Init.
func (l *Library) Argv() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.argv...)
}

// StringsFreed returns how many result strings went back through FreeString.
func (l *Library) StringsFreed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.freed
}

// Err joins every ordering or ownership violation seen by the library and
// its heap.
func (l *Library) Err() error {
	l.mu.Lock()
	errs := append([]error(nil), l.errs...)
	l.mu.Unlock()
	return errors.Join(append(errs, l.Heap.Err())...)
}
