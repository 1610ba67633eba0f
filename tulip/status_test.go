package tulip

import (
	"errors"
	"fmt"
	"testing"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusOK, "ok"},
		{StatusCompileError, "compile error"},
		{StatusRuntimeError, "runtime error"},
		{StatusIOError, "file I/O error"},
		{Status(3), "status 3"},
		{Status(-1), "status -1"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", int32(tt.status), got, tt.want)
		}
	}
}

func TestStatusOK(t *testing.T) {
	if !StatusOK.OK() {
		t.Error("StatusOK.OK() = false")
	}
	if Status(1).OK() {
		t.Error("Status(1).OK() = true")
	}
}

func TestExitErrorMessage(t *testing.T) {
	err := &ExitError{Op: "interpret", Target: "<test>", Status: StatusCompileError}
	if got, want := err.Error(), "tulip: interpret <test>: compile error (status 65)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	err = &ExitError{Op: "run", Target: "a.tlp", Status: 9}
	if got, want := err.Error(), "tulip: run a.tlp: failed with status 9"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStatusOf(t *testing.T) {
	if s, ok := StatusOf(nil); !ok || s != StatusOK {
		t.Errorf("StatusOf(nil) = %v, %v", s, ok)
	}

	wrapped := fmt.Errorf("context: %w", &ExitError{Op: "run", Target: "x", Status: 70})
	if s, ok := StatusOf(wrapped); !ok || s != StatusRuntimeError {
		t.Errorf("StatusOf(wrapped) = %v, %v", s, ok)
	}

	if _, ok := StatusOf(errors.New("host failure")); ok {
		t.Error("StatusOf(host error) reported a VM status")
	}
}
