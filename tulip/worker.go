package tulip

import (
	"errors"
	"fmt"
	"runtime"
)

var errWorkerStopped = errors.New("tulip: worker stopped")

// nativeCall is a unit of work to be executed on the worker goroutine.
type nativeCall struct {
	fn   func()
	done chan error
}

// worker serializes every libtulip call through a single goroutine locked
// to one OS thread. libtulip keeps a single global VM and is not safe for
// concurrent use.
type worker struct {
	calls chan nativeCall
	quit  chan struct{}
}

// newWorker creates a worker and starts the processing goroutine.
func newWorker() *worker {
	w := &worker{
		calls: make(chan nativeCall),
		quit:  make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes calls sequentially on a dedicated thread.
func (w *worker) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	for {
		select {
		case c := <-w.calls:
			c.done <- w.execute(c.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn, recovering from panics.
func (w *worker) execute(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tulip: native call panicked: %v", r)
		}
	}()
	fn()
	return nil
}

// do runs fn on the worker and blocks until it completes.
func (w *worker) do(fn func()) error {
	c := nativeCall{fn: fn, done: make(chan error, 1)}
	select {
	case w.calls <- c:
	case <-w.quit:
		return errWorkerStopped
	}
	return <-c.done
}

// stop shuts down the worker goroutine.
func (w *worker) stop() {
	close(w.quit)
}
