// Package report records the outcome of one host run as a CBOR document,
// so wrappers and CI jobs can inspect what the VM returned without scraping
// stdout.
package report

import (
	"fmt"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Mode identifies which entry point a run used.
type Mode uint8

const (
	ModeInline  Mode = 1 // interpret-with-result on inline source
	ModeFile    Mode = 2 // run-file
	ModeFileVal Mode = 3 // run-file-with-result
	ModeREPL    Mode = 4 // interpret, one call per entry read from stdin
)

func (m Mode) String() string {
	switch m {
	case ModeInline:
		return "inline"
	case ModeFile:
		return "file"
	case ModeFileVal:
		return "file-with-result"
	case ModeREPL:
		return "repl"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Report is the outcome of one run.
type Report struct {
	RunID      string        `cbor:"1,keyasint"`
	Mode       Mode          `cbor:"2,keyasint"`
	Target     string        `cbor:"3,keyasint"`           // script path or source label
	Args       []string      `cbor:"4,keyasint,omitempty"` // argv handed to the VM
	Status     int32         `cbor:"5,keyasint"`
	StatusText string        `cbor:"6,keyasint,omitempty"`
	Value      string        `cbor:"7,keyasint,omitempty"` // last value, when captured
	Error      string        `cbor:"8,keyasint,omitempty"`
	Started    time.Time     `cbor:"9,keyasint"`
	Elapsed    time.Duration `cbor:"10,keyasint"`
}

// encMode is canonical so identical reports encode identically. Times keep
// nanoseconds.
var encMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	em, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("report: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// Marshal serializes a Report to CBOR bytes.
func Marshal(r *Report) ([]byte, error) {
	return encMode.Marshal(r)
}

// Unmarshal deserializes a Report from CBOR bytes.
func Unmarshal(data []byte) (*Report, error) {
	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: unmarshal: %w", err)
	}
	return &r, nil
}

// WriteFile writes r to path.
func WriteFile(path string, r *Report) error {
	data, err := Marshal(r)
	if err != nil {
		return fmt.Errorf("report: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// ReadFile reads a report written by WriteFile.
func ReadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	return Unmarshal(data)
}
