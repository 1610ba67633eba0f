//go:build cgo && tulip

package abi

/*
#cgo LDFLAGS: -ltulip
#include <stdlib.h>

// Exported by libtulip (go build -buildmode=c-shared).
extern void Tulip_Init(int argc, char** argv);
extern int Tulip_Interpret(char* csrc, char* cname);
extern char* Tulip_InterpretWithResult(char* csrc, char* cname, int* exitCode);
extern int Tulip_RunFile(char* cpath);
extern char* Tulip_RunFileWithResult(char* cpath, int* exitCode);
extern void Tulip_Free(void);

// Result strings are allocated with malloc inside libtulip and released
// through the same C runtime.
static void tulip_free_string(char* s) {
	free(s);
}
*/
import "C"
import "unsafe"

// nativeLibrary calls into the linked libtulip.
type nativeLibrary struct{}

// Native returns the linked libtulip.
func Native() (Library, error) {
	return nativeLibrary{}, nil
}

func (nativeLibrary) Init(argc int, argv unsafe.Pointer) {
	C.Tulip_Init(C.int(argc), (**C.char)(argv))
}

func (nativeLibrary) Interpret(source, name unsafe.Pointer) int32 {
	return int32(C.Tulip_Interpret((*C.char)(source), (*C.char)(name)))
}

func (nativeLibrary) InterpretWithResult(source, name unsafe.Pointer, status *int32) unsafe.Pointer {
	var code C.int
	res := C.Tulip_InterpretWithResult((*C.char)(source), (*C.char)(name), &code)
	*status = int32(code)
	return unsafe.Pointer(res)
}

func (nativeLibrary) RunFile(path unsafe.Pointer) int32 {
	return int32(C.Tulip_RunFile((*C.char)(path)))
}

func (nativeLibrary) RunFileWithResult(path unsafe.Pointer, status *int32) unsafe.Pointer {
	var code C.int
	res := C.Tulip_RunFileWithResult((*C.char)(path), &code)
	*status = int32(code)
	return unsafe.Pointer(res)
}

func (nativeLibrary) FreeString(p unsafe.Pointer) {
	C.tulip_free_string((*C.char)(p))
}

func (nativeLibrary) Free() {
	C.Tulip_Free()
}
