package abi_test

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/tulipgo/abi"
	"github.com/chazu/tulipgo/abi/abitest"
)

func TestNewArgv_RoundTrip(t *testing.T) {
	cases := [][]string{
		nil,
		{"tulip"},
		{"tulip", "script.tlp", "--flag", ""},
		{"ünïcødé", "with space", "日本語"},
	}
	for _, args := range cases {
		alloc := abitest.NewAllocator("host")
		argv, err := abi.NewArgv(alloc, args)
		require.NoError(t, err)

		assert.Equal(t, len(args), argv.Argc())
		assert.Equal(t, len(args)+1, argv.Len())

		slots := unsafe.Slice((*unsafe.Pointer)(argv.Pointer()), argv.Len())
		assert.Nil(t, slots[len(args)], "sentinel slot must be NULL")
		for i := range args {
			assert.NotNil(t, slots[i])
		}

		got := argv.Strings()
		if len(args) == 0 {
			assert.Empty(t, got)
		} else {
			assert.Equal(t, args, got)
		}

		// one buffer per argument plus the array
		assert.Equal(t, len(args)+1, alloc.Allocs())

		argv.Release()
		assert.Equal(t, 0, alloc.Live())
		assert.Equal(t, alloc.Allocs(), alloc.Frees())
		require.NoError(t, alloc.Err())
	}
}

func TestNewArgv_ReleaseIsIdempotent(t *testing.T) {
	alloc := abitest.NewAllocator("host")
	argv, err := abi.NewArgv(alloc, []string{"a", "b"})
	require.NoError(t, err)

	argv.Release()
	argv.Release()

	assert.Equal(t, 3, alloc.Frees())
	assert.Nil(t, argv.Pointer())
	assert.Nil(t, argv.Strings())
	require.NoError(t, alloc.Err())
}

func TestNewArgv_EmbeddedNul(t *testing.T) {
	alloc := abitest.NewAllocator("host")
	argv, err := abi.NewArgv(alloc, []string{"ok", "bad\x00arg"})
	require.Error(t, err)
	assert.Nil(t, argv)

	var nul *abi.NulError
	require.True(t, errors.As(err, &nul))
	assert.Equal(t, 1, nul.Index)
	assert.Equal(t, 3, nul.Offset)
	assert.Equal(t, "abi: argv[1] contains NUL byte at offset 3", err.Error())

	assert.Equal(t, 0, alloc.Allocs(), "nothing may be allocated for a rejected vector")
}

func TestNewArgv_OutOfMemoryMidVector(t *testing.T) {
	// The array and the first argument succeed; the second argument fails.
	alloc := abitest.NewAllocator("host")
	alloc.FailAfter = 2

	argv, err := abi.NewArgv(alloc, []string{"tulip", "script.tlp", "extra"})
	assert.ErrorIs(t, err, abi.ErrOutOfMemory)
	assert.Nil(t, argv)

	assert.Equal(t, 2, alloc.Allocs())
	assert.Equal(t, 2, alloc.Frees())
	assert.Equal(t, 0, alloc.Live(), "partial vector leaked")
	require.NoError(t, alloc.Err())
}

func TestNewArgv_OutOfMemoryForArray(t *testing.T) {
	alloc := abitest.NewAllocator("host")
	alloc.FailAfter = 1
	_ = alloc.Malloc(1) // spend the budget

	_, err := abi.NewArgv(alloc, []string{"tulip"})
	assert.ErrorIs(t, err, abi.ErrOutOfMemory)
	assert.Equal(t, 1, alloc.Live())
}

func TestCString(t *testing.T) {
	alloc := abitest.NewAllocator("host")

	p, err := abi.CString(alloc, "1 + 2;")
	require.NoError(t, err)
	assert.Equal(t, "1 + 2;", abi.GoString(p))
	alloc.Free(p)

	_, err = abi.CString(alloc, "x\x00")
	var nul *abi.NulError
	require.True(t, errors.As(err, &nul))
	assert.Equal(t, -1, nul.Index)
	assert.Equal(t, "abi: string contains NUL byte at offset 1", err.Error())

	assert.Equal(t, 0, alloc.Live())
	require.NoError(t, alloc.Err())
}

func TestGoString_Nil(t *testing.T) {
	assert.Equal(t, "", abi.GoString(nil))
}

func TestNativeUnavailableWithoutTag(t *testing.T) {
	lib, err := abi.Native()
	if err == nil {
		t.Skip("libtulip is linked into this build")
	}
	assert.Nil(t, lib)
	assert.ErrorIs(t, err, abi.ErrNativeUnavailable)
}
