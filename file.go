// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package graphio

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/bpowers/graphio/codec"
)

// FileWriter is usually an *os.File, but specified as an interface for easier testing.
type FileWriter interface {
	io.Writer
	io.Seeker
}

// FileReader is usually an *os.File, but specified as an interface for easier testing.
type FileReader interface {
	io.Reader
	io.Seeker
}

// FileOutput writes elements straight to a file handle it borrows, with no
// buffering: every call is one write that must transfer everything or fail.
// A failed write leaves whatever made it to the file in place.
type FileOutput[N, L any] struct {
	f      FileWriter
	nodes  codec.FileCodec[N]
	links  codec.FileCodec[L]
	closed atomic.Bool
}

// NewFileOutput returns an output stream writing to f with the given codecs.
func NewFileOutput[N, L any](f FileWriter, nodes codec.FileCodec[N], links codec.FileCodec[L]) (*FileOutput[N, L], error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil file", ErrInvalidOption)
	}
	if err := checkCodecs(nodes, links); err != nil {
		return nil, err
	}
	return &FileOutput[N, L]{
		f:     f,
		nodes: nodes,
		links: links,
	}, nil
}

func (w *FileOutput[N, L]) usable(op string) error {
	if w.closed.Load() {
		return outputErr(op, ErrClosed)
	}
	return nil
}

// TellP returns the handle's current offset.
func (w *FileOutput[N, L]) TellP() (int64, error) {
	if err := w.usable("TellP"); err != nil {
		return 0, err
	}
	off, err := w.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, outputErr("f.Seek", err)
	}
	return off, nil
}

// SeekP moves the handle to pos bytes from the start of the file.
func (w *FileOutput[N, L]) SeekP(pos int64) error {
	if err := w.usable("SeekP"); err != nil {
		return err
	}
	if _, err := w.f.Seek(pos, io.SeekStart); err != nil {
		return outputErr("f.Seek", err)
	}
	return nil
}

// Write writes all of p at the handle's offset in a single call.
func (w *FileOutput[N, L]) Write(p []byte) error {
	if err := w.usable("Write"); err != nil {
		return err
	}
	if err := codec.WriteExact(w.f, p); err != nil {
		return outputErr("f.Write", err)
	}
	return nil
}

// WriteNodeEl writes one node element with the node codec.
func (w *FileOutput[N, L]) WriteNodeEl(el *N) error {
	if err := w.usable("WriteNodeEl"); err != nil {
		return err
	}
	if err := w.nodes.Write(w.f, el); err != nil {
		return outputErr("WriteNodeEl", err)
	}
	return nil
}

// WriteLinkEl writes one link element with the link codec.
func (w *FileOutput[N, L]) WriteLinkEl(el *L) error {
	if err := w.usable("WriteLinkEl"); err != nil {
		return err
	}
	if err := w.links.Write(w.f, el); err != nil {
		return outputErr("WriteLinkEl", err)
	}
	return nil
}

// Close marks the stream closed.  The file handle stays open; it belongs to
// the caller.
func (w *FileOutput[N, L]) Close() error {
	w.closed.Store(true)
	return nil
}

// FileInput reads elements straight from a file handle it borrows.  Every
// call is one read that must transfer everything requested or fail; hitting
// EOF early is an error.
type FileInput[N, L any] struct {
	f      FileReader
	nodes  codec.FileCodec[N]
	links  codec.FileCodec[L]
	closed atomic.Bool
}

// NewFileInput returns an input stream reading from f with the given codecs.
func NewFileInput[N, L any](f FileReader, nodes codec.FileCodec[N], links codec.FileCodec[L]) (*FileInput[N, L], error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil file", ErrInvalidOption)
	}
	if err := checkCodecs(nodes, links); err != nil {
		return nil, err
	}
	return &FileInput[N, L]{
		f:     f,
		nodes: nodes,
		links: links,
	}, nil
}

func (r *FileInput[N, L]) usable(op string) error {
	if r.closed.Load() {
		return inputErr(op, ErrClosed)
	}
	return nil
}

// TellG returns the handle's current offset.
func (r *FileInput[N, L]) TellG() (int64, error) {
	if err := r.usable("TellG"); err != nil {
		return 0, err
	}
	off, err := r.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, inputErr("f.Seek", err)
	}
	return off, nil
}

// SeekG moves the handle to pos bytes from the start of the file.
func (r *FileInput[N, L]) SeekG(pos int64) error {
	if err := r.usable("SeekG"); err != nil {
		return err
	}
	if _, err := r.f.Seek(pos, io.SeekStart); err != nil {
		return inputErr("f.Seek", err)
	}
	return nil
}

// Read fills p from the handle in a single call.
func (r *FileInput[N, L]) Read(p []byte) error {
	if err := r.usable("Read"); err != nil {
		return err
	}
	if err := codec.ReadExact(r.f, p); err != nil {
		return inputErr("f.Read", err)
	}
	return nil
}

// ReadNodeEl reads one node element into el.
func (r *FileInput[N, L]) ReadNodeEl(el *N) error {
	if err := r.usable("ReadNodeEl"); err != nil {
		return err
	}
	if err := r.nodes.Read(r.f, el); err != nil {
		return inputErr("ReadNodeEl", err)
	}
	return nil
}

// ReadLinkEl reads one link element into el.
func (r *FileInput[N, L]) ReadLinkEl(el *L) error {
	if err := r.usable("ReadLinkEl"); err != nil {
		return err
	}
	if err := r.links.Read(r.f, el); err != nil {
		return inputErr("ReadLinkEl", err)
	}
	return nil
}

// Close marks the stream closed without touching the caller's handle.
func (r *FileInput[N, L]) Close() error {
	r.closed.Store(true)
	return nil
}
