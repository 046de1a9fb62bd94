// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package graphio

import (
	"fmt"
	"io"

	"github.com/bpowers/graphio/codec"
)

// Output writes a graph's elements, whichever backend it uses.
type Output[N, L any] interface {
	TellP() (int64, error)
	SeekP(pos int64) error
	Write(p []byte) error
	WriteNodeEl(el *N) error
	WriteLinkEl(el *L) error
	Close() error
}

// Input reads back elements written by an Output.
type Input[N, L any] interface {
	TellG() (int64, error)
	SeekG(pos int64) error
	Read(p []byte) error
	ReadNodeEl(el *N) error
	ReadLinkEl(el *L) error
	Close() error
}

var (
	_ Output[uint32, uint64] = (*FileOutput[uint32, uint64])(nil)
	_ Output[uint32, uint64] = (*MapOutput[uint32, uint64])(nil)
	_ Input[uint32, uint64]  = (*FileInput[uint32, uint64])(nil)
	_ Input[uint32, uint64]  = (*MapInput[uint32, uint64])(nil)
)

// File is a handle either backend can borrow; *os.File satisfies it.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	MapFile
}

// Backend selects how a stream reaches its file.
type Backend int

const (
	BackendFile Backend = iota
	BackendMapped
)

func (b Backend) String() string {
	switch b {
	case BackendFile:
		return "file"
	case BackendMapped:
		return "mapped"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// ParseBackend is the inverse of Backend.String.
func ParseBackend(s string) (Backend, error) {
	switch s {
	case "file":
		return BackendFile, nil
	case "mapped":
		return BackendMapped, nil
	default:
		return 0, fmt.Errorf("%w: unknown backend %q", ErrInvalidOption, s)
	}
}

// NewOutput creates an output stream over f using the chosen backend.
func NewOutput[N, L any](f File, backend Backend, nodes codec.Codec[N], links codec.Codec[L], opts ...Option) (Output[N, L], error) {
	switch backend {
	case BackendFile:
		out, err := NewFileOutput[N, L](f, nodes, links)
		if err != nil {
			return nil, err
		}
		return out, nil
	case BackendMapped:
		out, err := NewMapOutput[N, L](f, nodes, links, opts...)
		if err != nil {
			return nil, err
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %s", ErrInvalidOption, backend)
	}
}

// NewInput creates an input stream over f using the chosen backend.
func NewInput[N, L any](f File, backend Backend, nodes codec.Codec[N], links codec.Codec[L], opts ...Option) (Input[N, L], error) {
	switch backend {
	case BackendFile:
		in, err := NewFileInput[N, L](f, nodes, links)
		if err != nil {
			return nil, err
		}
		return in, nil
	case BackendMapped:
		in, err := NewMapInput[N, L](f, nodes, links, opts...)
		if err != nil {
			return nil, err
		}
		return in, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %s", ErrInvalidOption, backend)
	}
}

func checkCodecs(nodes, links any) error {
	if nodes == nil || links == nil {
		return fmt.Errorf("%w: node and link codecs are required", ErrInvalidOption)
	}
	return nil
}
