// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package codec

import (
	"bytes"
	"fmt"
	"io"
	"math"
)

// Bytes stores variable-length []byte elements behind a 32-bit length prefix.
// MaxLen bounds the allocation a single element read may trigger; zero means
// the largest length the prefix can express.
type Bytes struct {
	MaxLen int64
}

var _ Codec[[]byte] = Bytes{}

func (c Bytes) maxLen() int64 {
	if c.MaxLen <= 0 || c.MaxLen > math.MaxUint32 {
		return math.MaxUint32
	}
	return c.MaxLen
}

func (c Bytes) check(el []byte) error {
	if int64(len(el)) > c.maxLen() {
		return fmt.Errorf("%w: length %d > max %d", ErrTooLarge, len(el), c.maxLen())
	}
	return nil
}

func (c Bytes) Write(w io.Writer, el *[]byte) error {
	if err := c.check(*el); err != nil {
		return err
	}
	return writeLenPrefixed(w, *el)
}

func (c Bytes) Read(r io.Reader, el *[]byte) error {
	payload, err := readLenPrefixed(r, c.maxLen())
	if err != nil {
		return err
	}
	*el = payload
	return nil
}

func (c Bytes) Encode(buf []byte, el *[]byte) (int, error) {
	if err := c.check(*el); err != nil {
		return 0, err
	}
	return encodeLenPrefixed(buf, *el), nil
}

// Decode copies the element out of buf, so it stays valid after the mapping
// it came from is released.
func (c Bytes) Decode(buf []byte, el *[]byte) (int, error) {
	n, err := readLenPrefix(buf, c.maxLen())
	if err != nil {
		return 0, err
	}
	*el = bytes.Clone(buf[lenPrefixSize : lenPrefixSize+n])
	return lenPrefixSize + n, nil
}
