// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package graphio

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/graphio/codec"
)

type testFile struct {
	inner           *os.File
	shortWrites     bool
	shortReads      bool
	seekShouldError bool
	calls           int
}

func (f *testFile) Write(p []byte) (int, error) {
	f.calls++
	if f.shortWrites && len(p) > 1 {
		return f.inner.Write(p[:len(p)/2])
	}
	return f.inner.Write(p)
}

func (f *testFile) Read(p []byte) (int, error) {
	f.calls++
	if f.shortReads && len(p) > 1 {
		return f.inner.Read(p[:len(p)/2])
	}
	return f.inner.Read(p)
}

func (f *testFile) Seek(offset int64, whence int) (int64, error) {
	if f.seekShouldError {
		return 0, errors.New("seek failed")
	}
	return f.inner.Seek(offset, whence)
}

var (
	_ FileWriter = &testFile{}
	_ FileReader = &testFile{}
)

func TestFileOutput(t *testing.T) {
	f := newTestFile(t)
	out, err := NewFileOutput[testNode, testLink](f, codec.NewRaw[testNode](), codec.NewRaw[testLink]())
	require.NoError(t, err)

	n := testNode{ID: 1, Weight: 0.5}
	require.NoError(t, out.WriteNodeEl(&n))
	require.NoError(t, out.Write([]byte("abcd")))
	pos, err := out.TellP()
	require.NoError(t, err)
	assert.Equal(t, int64(testNodeSize+4), pos)

	// overwrite the raw bytes in place
	require.NoError(t, out.SeekP(testNodeSize))
	require.NoError(t, out.Write([]byte("wxyz")))
	require.NoError(t, out.Close())
	require.NoError(t, out.Close())

	require.ErrorIs(t, out.WriteNodeEl(&n), ErrClosed)
	require.ErrorIs(t, out.Write([]byte{1}), ErrClosed)
	_, err = out.TellP()
	require.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, KindOutput, KindOf(err))

	// the handle is still the caller's to use
	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	in, err := NewFileInput[testNode, testLink](f, codec.NewRaw[testNode](), codec.NewRaw[testLink]())
	require.NoError(t, err)
	var got testNode
	require.NoError(t, in.ReadNodeEl(&got))
	assert.Equal(t, n, got)
	buf := make([]byte, 4)
	require.NoError(t, in.Read(buf))
	assert.Equal(t, "wxyz", string(buf))

	require.NoError(t, in.SeekG(0))
	pos, err = in.TellG()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	require.NoError(t, in.Close())
	require.ErrorIs(t, in.ReadNodeEl(&got), ErrClosed)
	require.ErrorIs(t, in.SeekG(0), ErrClosed)
}

func TestFileOutput_ShortWrite(t *testing.T) {
	f := &testFile{inner: newTestFile(t), shortWrites: true}
	out, err := NewFileOutput[testNode, testLink](f, codec.NewRaw[testNode](), codec.NewRaw[testLink]())
	require.NoError(t, err)

	l := testLink{From: 1, To: 2}
	err = out.WriteLinkEl(&l)
	require.ErrorIs(t, err, ErrShortTransfer)
	assert.Equal(t, KindOutput, KindOf(err))
	// a short write is never retried
	assert.Equal(t, 1, f.calls)

	// whatever made it out stays in the file
	assert.Equal(t, int64(testLinkSize/2), fileSize(t, f.inner))

	err = out.Write(make([]byte, 10))
	require.ErrorIs(t, err, ErrShortTransfer)
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "f.Write", gerr.Op)
	assert.False(t, gerr.Fatal())
}

func TestFileInput_ShortRead(t *testing.T) {
	inner := newTestFile(t)
	out, err := NewFileOutput[testNode, testLink](inner, codec.NewRaw[testNode](), codec.NewRaw[testLink]())
	require.NoError(t, err)
	g := newTestGraph(4)
	writeTestGraph(t, out, g)
	require.NoError(t, out.Close())

	_, err = inner.Seek(0, io.SeekStart)
	require.NoError(t, err)
	f := &testFile{inner: inner, shortReads: true}
	in, err := NewFileInput[testNode, testLink](f, codec.NewRaw[testNode](), codec.NewRaw[testLink]())
	require.NoError(t, err)

	got := testNode{ID: 99}
	err = in.ReadNodeEl(&got)
	require.ErrorIs(t, err, ErrShortTransfer)
	assert.Equal(t, KindInput, KindOf(err))
	assert.Equal(t, 1, f.calls)
	// a failed read leaves the element zeroed, not half filled
	assert.Equal(t, testNode{}, got)
}

func TestFileInput_EOF(t *testing.T) {
	f := newTestFile(t)
	_, err := f.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)

	in, err := NewFileInput[uint32, uint32](f, codec.NewRaw[uint32](), codec.NewRaw[uint32]())
	require.NoError(t, err)
	var v uint32
	err = in.ReadNodeEl(&v)
	require.ErrorIs(t, err, ErrShortTransfer)
	assert.Equal(t, KindInput, KindOf(err))

	err = in.Read(make([]byte, 1))
	require.Error(t, err)
	assert.Equal(t, KindInput, KindOf(err))
}

func TestFileStreams_SeekErrors(t *testing.T) {
	f := &testFile{inner: newTestFile(t), seekShouldError: true}
	raw := codec.NewRaw[uint32]()

	out, err := NewFileOutput[uint32, uint32](f, raw, raw)
	require.NoError(t, err)
	_, err = out.TellP()
	require.Error(t, err)
	assert.Equal(t, KindOutput, KindOf(err))
	err = out.SeekP(4)
	require.Error(t, err)
	assert.Equal(t, KindOutput, KindOf(err))

	in, err := NewFileInput[uint32, uint32](f, raw, raw)
	require.NoError(t, err)
	_, err = in.TellG()
	require.Error(t, err)
	assert.Equal(t, KindInput, KindOf(err))
	err = in.SeekG(4)
	require.Error(t, err)
	assert.Equal(t, KindInput, KindOf(err))

	_, err = NewFileOutput[uint32, uint32](nil, raw, raw)
	require.ErrorIs(t, err, ErrInvalidOption)
	_, err = NewFileInput[uint32, uint32](f, nil, raw)
	require.ErrorIs(t, err, ErrInvalidOption)
}
