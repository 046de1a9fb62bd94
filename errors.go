// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package graphio

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/bpowers/graphio/codec"
)

// Kind classifies a stream failure.
type Kind int

const (
	// KindInput is a failed or short read, including reading past end of data.
	KindInput Kind = iota + 1
	// KindOutput is a failed or short write.
	KindOutput
	// KindMapping is a failure to create, grow or release a memory mapping, or to
	// resize the file backing it.  It is always fatal to the stream.
	KindMapping
	// KindMemory is a codec refusing to allocate an element's dynamic state.
	KindMemory
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindOutput:
		return "output"
	case KindMapping:
		return "mapping"
	case KindMemory:
		return "memory"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	ErrEndOfData     = codec.ErrEndOfData
	ErrShortTransfer = codec.ErrShortTransfer
	ErrClosed        = errors.New("stream is closed")
	ErrEmptyFile     = errors.New("can't map an empty file")
	ErrNotRegular    = errors.New("not a regular file")
	ErrInvalidOption = errors.New("invalid option")
	ErrOutOfRange    = errors.New("offset out of range")
)

// Error is returned by every stream operation that fails.
type Error struct {
	Kind Kind
	Op   string // the failing call, e.g. "f.Truncate" or "ReadNodeEl"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("graphio: %s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether the stream that returned e is no longer usable.
func (e *Error) Fatal() bool {
	return e.Kind == KindMapping
}

// Errno returns the OS error code behind e, or 0 if there isn't one.
func (e *Error) Errno() syscall.Errno {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return errno
	}
	return 0
}

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func inputErr(op string, err error) error {
	kind := KindInput
	if errors.Is(err, codec.ErrTooLarge) {
		kind = KindMemory
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func outputErr(op string, err error) error {
	return &Error{Kind: KindOutput, Op: op, Err: err}
}

func mappingErr(op string, err error) error {
	return &Error{Kind: KindMapping, Op: op, Err: err}
}
