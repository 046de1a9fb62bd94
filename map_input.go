// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package graphio

import (
	"fmt"
	"sync/atomic"

	"github.com/bpowers/graphio/codec"
	"github.com/bpowers/graphio/internal/mmap"
)

// MapInput reads elements out of a read-only mapping of a file it borrows.
// The mapping covers the file as it was when the stream was created and never
// grows.  Decoded elements must not alias the mapping; the codecs in package
// codec copy.
type MapInput[N, L any] struct {
	m      *mmap.Map
	cur    int64
	nodes  codec.MapCodec[N]
	links  codec.MapCodec[L]
	closed atomic.Bool
}

// NewMapInput maps all of f, which must be a non-empty regular file.
func NewMapInput[N, L any](f MapFile, nodes codec.MapCodec[N], links codec.MapCodec[L], opts ...Option) (*MapInput[N, L], error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil file", ErrInvalidOption)
	}
	if err := checkCodecs(nodes, links); err != nil {
		return nil, err
	}
	options, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, inputErr("f.Stat", err)
	}
	size := stat.Size()
	if size == 0 {
		return nil, inputErr("NewMapInput", ErrEmptyFile)
	}
	if !stat.Mode().IsRegular() {
		return nil, inputErr("NewMapInput", fmt.Errorf("%w: mode %s", ErrNotRegular, stat.Mode()))
	}

	m, err := mmap.New(f.Fd(), size, false)
	if err != nil {
		return nil, mappingErr("mmap.New", err)
	}
	if err := m.AdviseSequential(); err != nil {
		options.logger.Debug("madvise failed, continuing anyway", "err", err)
	}
	options.logger.Debug("mapped input file", "len", size)

	return &MapInput[N, L]{
		m:     m,
		nodes: nodes,
		links: links,
	}, nil
}

func (r *MapInput[N, L]) usable(op string) error {
	if r.closed.Load() {
		return inputErr(op, ErrClosed)
	}
	return nil
}

func (r *MapInput[N, L]) remaining() int64 {
	return r.m.Len() - r.cur
}

func (r *MapInput[N, L]) window() []byte {
	if r.cur >= r.m.Len() {
		return nil
	}
	return r.m.Data()[r.cur:]
}

// Len returns the size of the mapped file.
func (r *MapInput[N, L]) Len() int64 {
	return r.m.Len()
}

// TellG returns the cursor's offset from the start of the file.
func (r *MapInput[N, L]) TellG() (int64, error) {
	return r.cur, nil
}

// SeekG moves the cursor to pos.  Seeking past the end is allowed; the next
// read fails with ErrEndOfData.
func (r *MapInput[N, L]) SeekG(pos int64) error {
	if err := r.usable("SeekG"); err != nil {
		return err
	}
	if pos < 0 {
		return inputErr("SeekG", fmt.Errorf("negative position %d", pos))
	}
	r.cur = pos
	return nil
}

// Read fills p from the cursor.  If fewer than len(p) bytes remain it fails
// with ErrEndOfData and the cursor doesn't move.
func (r *MapInput[N, L]) Read(p []byte) error {
	if err := r.usable("Read"); err != nil {
		return err
	}
	if left := r.remaining(); int64(len(p)) > left {
		return inputErr("Read", fmt.Errorf("%w: need %d bytes, %d remain", ErrEndOfData, len(p), max(left, 0)))
	}
	r.cur += int64(copy(p, r.window()))
	return nil
}

// ReadNodeEl decodes one node element at the cursor.
func (r *MapInput[N, L]) ReadNodeEl(el *N) error {
	return readEl(r, "ReadNodeEl", r.nodes, el)
}

// ReadLinkEl decodes one link element at the cursor.
func (r *MapInput[N, L]) ReadLinkEl(el *L) error {
	return readEl(r, "ReadLinkEl", r.links, el)
}

func readEl[N, L, T any](r *MapInput[N, L], op string, c codec.MapCodec[T], el *T) error {
	if err := r.usable(op); err != nil {
		return err
	}
	n, err := c.Decode(r.window(), el)
	if err != nil {
		return inputErr(op, err)
	}
	r.cur += int64(n)
	return nil
}

// Close releases the mapping.  The file is never modified.  Closing more than
// once is a no-op.
func (r *MapInput[N, L]) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if err := r.m.Close(); err != nil {
		return mappingErr("mmap.Close", err)
	}
	return nil
}
