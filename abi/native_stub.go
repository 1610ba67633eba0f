//go:build !(cgo && tulip)

package abi

// Native returns ErrNativeUnavailable: this build does not link libtulip.
func Native() (Library, error) {
	return nil, ErrNativeUnavailable
}
