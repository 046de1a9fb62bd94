// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const lenPrefixSize = 4 // 32-bit little-endian length of a variable-length element

var (
	// ErrEndOfData is returned when fewer bytes remain than an element needs.
	ErrEndOfData = errors.New("end of data")
	// ErrShortTransfer is returned when a read or write moved fewer bytes than requested.
	ErrShortTransfer = errors.New("short transfer")
	// ErrTooLarge is returned rather than allocating an element bigger than a codec's limit.
	ErrTooLarge = errors.New("element too large")
	ErrChecksum = errors.New("element checksum mismatch")
)

// FileCodec reads and writes elements directly against a file handle.
type FileCodec[T any] interface {
	Write(w io.Writer, el *T) error
	Read(r io.Reader, el *T) error
}

// MapCodec encodes elements into, and decodes them out of, mapped memory.
type MapCodec[T any] interface {
	// Encode returns the number of bytes el needs, writing them to buf only if
	// they fit.
	Encode(buf []byte, el *T) (int, error)
	// Decode returns the number of bytes consumed from buf.
	Decode(buf []byte, el *T) (int, error)
}

// Codec can serve either storage backend.
type Codec[T any] interface {
	FileCodec[T]
	MapCodec[T]
}

// WriteExact writes p with a single call to w.Write.  Anything less than
// len(p) bytes is an error; it is never retried.
func WriteExact(w io.Writer, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := w.Write(p)
	if err != nil {
		return fmt.Errorf("write failed after %d of %d bytes: %w", n, len(p), err)
	}
	if n != len(p) {
		return fmt.Errorf("%w: didn't write all the data (%d of %d bytes)", ErrShortTransfer, n, len(p))
	}
	return nil
}

// ReadExact fills p with a single call to r.Read.  Anything less than len(p)
// bytes, including zero bytes at EOF, is an error.
func ReadExact(r io.Reader, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := r.Read(p)
	// io.Reader is allowed to report EOF alongside a complete read
	if n == len(p) {
		return nil
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read failed after %d of %d bytes: %w", n, len(p), err)
	}
	return fmt.Errorf("%w: EOF before end of value (%d of %d bytes)", ErrShortTransfer, n, len(p))
}

func endOfData(need, have int) error {
	return fmt.Errorf("%w: need %d bytes, %d remain", ErrEndOfData, need, have)
}

// readLenPrefix decodes a length prefix from the front of buf, enforcing maxLen.
func readLenPrefix(buf []byte, maxLen int64) (int, error) {
	if len(buf) < lenPrefixSize {
		return 0, endOfData(lenPrefixSize, len(buf))
	}
	n := int64(binary.LittleEndian.Uint32(buf[:lenPrefixSize]))
	if n > maxLen {
		return 0, fmt.Errorf("%w: length %d > max %d", ErrTooLarge, n, maxLen)
	}
	if int64(len(buf)-lenPrefixSize) < n {
		return 0, endOfData(lenPrefixSize+int(n), len(buf))
	}
	return int(n), nil
}

// encodeLenPrefixed lays out a length prefix followed by payload, if it fits.
func encodeLenPrefixed(buf, payload []byte) int {
	need := lenPrefixSize + len(payload)
	if need > len(buf) {
		return need
	}
	binary.LittleEndian.PutUint32(buf[:lenPrefixSize], uint32(len(payload)))
	copy(buf[lenPrefixSize:need], payload)
	return need
}

// writeLenPrefixed writes a length prefix and payload in a single write.
func writeLenPrefixed(w io.Writer, payload []byte) error {
	buf := make([]byte, lenPrefixSize+len(payload))
	encodeLenPrefixed(buf, payload)
	return WriteExact(w, buf)
}

// readLenPrefixed reads a length prefix and then exactly that many bytes.
func readLenPrefixed(r io.Reader, maxLen int64) ([]byte, error) {
	var header [lenPrefixSize]byte
	if err := ReadExact(r, header[:]); err != nil {
		return nil, err
	}
	n := int64(binary.LittleEndian.Uint32(header[:]))
	if n > maxLen {
		return nil, fmt.Errorf("%w: length %d > max %d", ErrTooLarge, n, maxLen)
	}
	payload := make([]byte, n)
	if err := ReadExact(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
