package tulip

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/tulipgo/abi"
)

// State is the lifecycle state of a VM.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateFreed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateFreed:
		return "freed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type options struct {
	alloc abi.Allocator
	log   commonlog.Logger
}

// Option configures Open.
type Option func(*options)

// WithAllocator sets the allocator used for host buffers (argv, source,
// labels, paths). It defaults to abi.HostAllocator.
func WithAllocator(a abi.Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// WithLogger replaces the "tulip.vm" logger.
func WithLogger(l commonlog.Logger) Option {
	return func(o *options) { o.log = l }
}

var (
	openMu   sync.Mutex
	openLibs = make(map[abi.Library]*VM)
)

// register claims lib for v. A comparable type can still hold an unhashable
// dynamic value in an interface field, so the map access is guarded too.
func register(lib abi.Library, v *VM) (err error) {
	if !reflect.TypeOf(lib).Comparable() {
		return fmt.Errorf("%w: %T", ErrUnhashableLibrary, lib)
	}
	openMu.Lock()
	defer openMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %T: %v", ErrUnhashableLibrary, lib, r)
		}
	}()
	if _, busy := openLibs[lib]; busy {
		return ErrBusy
	}
	openLibs[lib] = v
	return nil
}

func unregister(lib abi.Library) {
	openMu.Lock()
	defer openMu.Unlock()
	delete(openLibs, lib)
}

// VM is an initialized libtulip VM. It is created by Open and must be
// released with Close. A VM may be shared between goroutines; calls into
// the library are serialized.
type VM struct {
	lib   abi.Library
	alloc abi.Allocator
	log   commonlog.Logger
	id    string

	mu    sync.Mutex
	state State
	argv  *abi.Argv
	w     *worker
}

// Open marshals args into a C argv and initializes the library's VM with
// it. If marshaling fails the library is not called.
func Open(lib abi.Library, args []string, opts ...Option) (*VM, error) {
	if lib == nil {
		return nil, errors.New("tulip: nil library")
	}
	o := options{alloc: abi.HostAllocator(), log: commonlog.GetLogger("tulip.vm")}
	for _, opt := range opts {
		opt(&o)
	}

	argv, err := abi.NewArgv(o.alloc, args)
	if err != nil {
		return nil, fmt.Errorf("tulip: marshal arguments: %w", err)
	}

	v := &VM{
		lib:   lib,
		alloc: o.alloc,
		log:   o.log,
		id:    uuid.NewString(),
		argv:  argv,
	}

	if err := register(lib, v); err != nil {
		argv.Release()
		return nil, err
	}

	v.w = newWorker()
	err = v.w.do(func() { lib.Init(argv.Argc(), argv.Pointer()) })
	v.state = StateInitialized
	if err != nil {
		// The library may be half initialized; tear it down anyway.
		v.Close()
		return nil, fmt.Errorf("tulip: init: %w", err)
	}
	v.log.Infof("vm %s: initialized with %d arguments", v.id, argv.Argc())
	return v, nil
}

// With opens a VM, passes it to fn and closes it on every exit path,
// including a panic in fn.
func With(lib abi.Library, args []string, fn func(*VM) error, opts ...Option) (err error) {
	v, err := Open(lib, args, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := v.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(v)
}

// ID returns the run identifier used in logs and reports.
func (v *VM) ID() string { return v.id }

// State returns the current lifecycle state.
func (v *VM) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Args returns the arguments the VM was initialized with.
func (v *VM) Args() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.argv.Strings()
}

// call marshals strs into host C strings, runs fn with them on the worker
// and frees them afterwards.
func (v *VM) call(op string, strs []string, fn func(ptrs []unsafe.Pointer)) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StateInitialized {
		return ErrClosed
	}

	ptrs := make([]unsafe.Pointer, len(strs))
	defer func() {
		for _, p := range ptrs {
			v.alloc.Free(p)
		}
	}()
	for i, s := range strs {
		p, err := abi.CString(v.alloc, s)
		if err != nil {
			return fmt.Errorf("tulip: %s: %w", op, err)
		}
		ptrs[i] = p
	}
	return v.w.do(func() { fn(ptrs) })
}

func (v *VM) check(op, target string, status Status) error {
	if status.OK() {
		v.log.Debugf("vm %s: %s %s: ok", v.id, op, target)
		return nil
	}
	v.log.Infof("vm %s: %s %s: %s", v.id, op, target, status)
	return &ExitError{Op: op, Target: target, Status: status}
}

// Interpret runs source under the diagnostic label name.
func (v *VM) Interpret(source, name string) error {
	var status int32
	err := v.call("interpret", []string{source, name}, func(p []unsafe.Pointer) {
		status = v.lib.Interpret(p[0], p[1])
	})
	if err != nil {
		return err
	}
	return v.check("interpret", name, Status(status))
}

// RunFile runs the script at path.
func (v *VM) RunFile(path string) error {
	var status int32
	err := v.call("run", []string{path}, func(p []unsafe.Pointer) {
		status = v.lib.RunFile(p[0])
	})
	if err != nil {
		return err
	}
	return v.check("run", path, Status(status))
}

// InterpretWithResult runs source and returns the textual form of the last
// value it computed. On a nonzero status the result string is released
// without being read and an *ExitError is returned.
func (v *VM) InterpretWithResult(source, name string) (string, error) {
	var status int32
	var text string
	var decodeErr error
	err := v.call("interpret", []string{source, name}, func(p []unsafe.Pointer) {
		res := abi.NewLibString(v.lib, v.lib.InterpretWithResult(p[0], p[1], &status))
		defer res.Release()
		if status == 0 {
			text, decodeErr = decode(res)
		}
	})
	return v.result("interpret", name, Status(status), text, errors.Join(err, decodeErr))
}

// RunFileWithResult runs the script at path and returns the textual form of
// the last value it computed, with the same ownership rules as
// InterpretWithResult.
func (v *VM) RunFileWithResult(path string) (string, error) {
	var status int32
	var text string
	var decodeErr error
	err := v.call("run", []string{path}, func(p []unsafe.Pointer) {
		res := abi.NewLibString(v.lib, v.lib.RunFileWithResult(p[0], &status))
		defer res.Release()
		if status == 0 {
			text, decodeErr = decode(res)
		}
	})
	return v.result("run", path, Status(status), text, errors.Join(err, decodeErr))
}

func decode(res *abi.LibString) (string, error) {
	if res.IsNil() {
		return "", ErrNoResult
	}
	return res.Text()
}

func (v *VM) result(op, target string, status Status, text string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if err := v.check(op, target, status); err != nil {
		return "", err
	}
	return text, nil
}

// Close frees the library's VM and then the argument vector. It is safe to
// call more than once.
func (v *VM) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == StateFreed {
		return nil
	}

	err := v.w.do(v.lib.Free)
	v.state = StateFreed
	v.w.stop()
	v.argv.Release()

	unregister(v.lib)

	if err != nil {
		return fmt.Errorf("tulip: free: %w", err)
	}
	v.log.Infof("vm %s: freed", v.id)
	return nil
}
