// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package codec

import (
	"fmt"
	"io"
	"reflect"

	"github.com/bpowers/graphio/internal/unsafebytes"
	"github.com/bpowers/graphio/internal/zero"
)

// Raw copies an element's in-memory representation verbatim.  Files written
// with Raw are only readable by a program with the same type layout and
// endianness; use Binary for a portable fixed-size encoding.
//
// Construct Raw with NewRaw, which rejects types holding pointers.  The zero
// value works but skips that check.
type Raw[T any] struct{}

var _ Codec[uint64] = Raw[uint64]{}

// NewRaw returns a Raw codec for T, panicking if T holds pointers: a verbatim
// copy of a pointer, slice, string, map or interface is never meaningful once
// read back.
func NewRaw[T any]() Raw[T] {
	if t := reflect.TypeFor[T](); hasPointers(t) {
		panic(fmt.Errorf("codec.Raw: %s holds pointers and can't be copied verbatim", t))
	}
	return Raw[T]{}
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.String, reflect.Slice,
		reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

func (Raw[T]) Write(w io.Writer, el *T) error {
	return WriteExact(w, unsafebytes.Of(el))
}

// Read fills el from r.  On a short read el is zeroed rather than left
// partially filled.
func (Raw[T]) Read(r io.Reader, el *T) error {
	b := unsafebytes.Of(el)
	if err := ReadExact(r, b); err != nil {
		zero.Bytes(b)
		return err
	}
	return nil
}

func (Raw[T]) Encode(buf []byte, el *T) (int, error) {
	b := unsafebytes.Of(el)
	if len(b) <= len(buf) {
		copy(buf, b)
	}
	return len(b), nil
}

func (Raw[T]) Decode(buf []byte, el *T) (int, error) {
	b := unsafebytes.Of(el)
	if len(buf) < len(b) {
		return 0, endOfData(len(b), len(buf))
	}
	copy(b, buf)
	return len(b), nil
}
