package abi_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/tulipgo/abi"
	"github.com/chazu/tulipgo/abi/abitest"
)

func TestLibString_TextAndRelease(t *testing.T) {
	lib := abitest.NewLibrary()
	p, err := abi.CString(lib.Heap, "3")
	require.NoError(t, err)

	s := abi.NewLibString(lib, p)
	assert.False(t, s.IsNil())

	text, err := s.Text()
	require.NoError(t, err)
	assert.Equal(t, "3", text)

	s.Release()
	s.Release()

	assert.Equal(t, 1, lib.StringsFreed())
	assert.Equal(t, 0, lib.Heap.Live())
	assert.Nil(t, s.Bytes())
	require.NoError(t, lib.Err())
}

func TestLibString_InvalidUTF8(t *testing.T) {
	lib := abitest.NewLibrary()
	p, err := abi.CString(lib.Heap, "ok\xff\xfe")
	require.NoError(t, err)

	s := abi.NewLibString(lib, p)
	defer s.Release()

	_, err = s.Text()
	var dec *abi.DecodeError
	require.True(t, errors.As(err, &dec))
	assert.Equal(t, []byte("ok\xff\xfe"), dec.Raw)
}

func TestLibString_Nil(t *testing.T) {
	lib := abitest.NewLibrary()
	s := abi.NewLibString(lib, nil)
	assert.True(t, s.IsNil())

	text, err := s.Text()
	require.NoError(t, err)
	assert.Equal(t, "", text)

	s.Release()
	assert.Equal(t, 0, lib.StringsFreed())
	assert.Empty(t, lib.Ops(), "a NULL result must not reach the deallocator")
}

func TestHostAllocatorCannotFreeLibraryString(t *testing.T) {
	lib := abitest.NewLibrary()
	host := abitest.NewAllocator("host")

	p, err := abi.CString(lib.Heap, "value")
	require.NoError(t, err)

	host.Free(p)
	require.Error(t, host.Err())
	assert.True(t, lib.Heap.Owns(p))

	abi.NewLibString(lib, p).Release()
	require.NoError(t, lib.Err())
}
