// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package codec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Binary encodes fixed-size elements (numbers, and arrays and structs of
// them) little-endian with encoding/binary, so files are portable across
// architectures.
type Binary[T any] struct{}

var _ Codec[int32] = Binary[int32]{}

func (Binary[T]) size(el *T) (int, error) {
	n := binary.Size(el)
	if n < 0 {
		return 0, fmt.Errorf("binary.Size: %T is not a fixed-size type", *el)
	}
	return n, nil
}

func (c Binary[T]) Write(w io.Writer, el *T) error {
	n, err := c.size(el)
	if err != nil {
		return err
	}
	buf := make([]byte, n)
	if _, err := binary.Encode(buf, binary.LittleEndian, el); err != nil {
		return fmt.Errorf("binary.Encode: %w", err)
	}
	return WriteExact(w, buf)
}

func (c Binary[T]) Read(r io.Reader, el *T) error {
	n, err := c.size(el)
	if err != nil {
		return err
	}
	buf := make([]byte, n)
	if err := ReadExact(r, buf); err != nil {
		return err
	}
	if _, err := binary.Decode(buf, binary.LittleEndian, el); err != nil {
		return fmt.Errorf("binary.Decode: %w", err)
	}
	return nil
}

func (c Binary[T]) Encode(buf []byte, el *T) (int, error) {
	n, err := c.size(el)
	if err != nil {
		return 0, err
	}
	if n > len(buf) {
		return n, nil
	}
	if _, err := binary.Encode(buf[:n], binary.LittleEndian, el); err != nil {
		return 0, fmt.Errorf("binary.Encode: %w", err)
	}
	return n, nil
}

func (c Binary[T]) Decode(buf []byte, el *T) (int, error) {
	n, err := c.size(el)
	if err != nil {
		return 0, err
	}
	if n > len(buf) {
		return 0, endOfData(n, len(buf))
	}
	if _, err := binary.Decode(buf[:n], binary.LittleEndian, el); err != nil {
		return 0, fmt.Errorf("binary.Decode: %w", err)
	}
	return n, nil
}
