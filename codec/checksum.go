// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dgryski/go-farm"
	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// ChecksumAlgorithm selects the hash Checksummed stores in front of each element.
type ChecksumAlgorithm int

const (
	ChecksumFarm    ChecksumAlgorithm = iota // default
	ChecksumXXH3                             // fastest
	ChecksumBlake2b                          // best distribution
)

const checksumSize = 4 // 32-bit checksum of the inner encoding

func (a ChecksumAlgorithm) String() string {
	switch a {
	case ChecksumFarm:
		return "farm"
	case ChecksumXXH3:
		return "xxh3"
	case ChecksumBlake2b:
		return "blake2b"
	default:
		return fmt.Sprintf("ChecksumAlgorithm(%d)", int(a))
	}
}

// ParseChecksumAlgorithm is the inverse of ChecksumAlgorithm.String.
func ParseChecksumAlgorithm(s string) (ChecksumAlgorithm, error) {
	for _, a := range []ChecksumAlgorithm{ChecksumFarm, ChecksumXXH3, ChecksumBlake2b} {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown checksum algorithm %q", s)
}

func (a ChecksumAlgorithm) sum(b []byte) uint32 {
	switch a {
	case ChecksumXXH3:
		return uint32(xxh3.Hash(b))
	case ChecksumBlake2b:
		h := blake2b.Sum256(b)
		return binary.LittleEndian.Uint32(h[:checksumSize])
	default:
		return uint32(farm.Hash64(b))
	}
}

// Checksummed wraps another codec, prefixing every element with a checksum of
// its encoding so on-disk corruption is detected (with high probability) when
// the element is read back.  A corrupt element is never stored into el.
type Checksummed[T any] struct {
	inner Codec[T]
	alg   ChecksumAlgorithm
}

var _ Codec[uint32] = (*Checksummed[uint32])(nil)

func NewChecksummed[T any](inner Codec[T], alg ChecksumAlgorithm) *Checksummed[T] {
	return &Checksummed[T]{
		inner: inner,
		alg:   alg,
	}
}

func (c *Checksummed[T]) mismatch(expected, actual uint32) error {
	return fmt.Errorf("%w: %s %08x != %08x", ErrChecksum, c.alg, expected, actual)
}

func (c *Checksummed[T]) Write(w io.Writer, el *T) error {
	var buf bytes.Buffer
	buf.Write(make([]byte, checksumSize))
	if err := c.inner.Write(&buf, el); err != nil {
		return err
	}
	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[:checksumSize], c.alg.sum(out[checksumSize:]))
	return WriteExact(w, out)
}

func (c *Checksummed[T]) Read(r io.Reader, el *T) error {
	var header [checksumSize]byte
	if err := ReadExact(r, header[:]); err != nil {
		return err
	}
	var seen bytes.Buffer
	var v T
	if err := c.inner.Read(io.TeeReader(r, &seen), &v); err != nil {
		return err
	}
	expected := binary.LittleEndian.Uint32(header[:])
	if actual := c.alg.sum(seen.Bytes()); actual != expected {
		return c.mismatch(expected, actual)
	}
	*el = v
	return nil
}

func (c *Checksummed[T]) Encode(buf []byte, el *T) (int, error) {
	var window []byte
	if len(buf) >= checksumSize {
		window = buf[checksumSize:]
	}
	n, err := c.inner.Encode(window, el)
	if err != nil {
		return 0, err
	}
	need := checksumSize + n
	if need > len(buf) {
		return need, nil
	}
	binary.LittleEndian.PutUint32(buf[:checksumSize], c.alg.sum(buf[checksumSize:need]))
	return need, nil
}

func (c *Checksummed[T]) Decode(buf []byte, el *T) (int, error) {
	if len(buf) < checksumSize {
		return 0, endOfData(checksumSize, len(buf))
	}
	var v T
	n, err := c.inner.Decode(buf[checksumSize:], &v)
	if err != nil {
		return 0, err
	}
	expected := binary.LittleEndian.Uint32(buf[:checksumSize])
	if actual := c.alg.sum(buf[checksumSize : checksumSize+n]); actual != expected {
		return 0, c.mismatch(expected, actual)
	}
	*el = v
	return checksumSize + n, nil
}
