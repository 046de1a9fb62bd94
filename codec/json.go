// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package codec

import (
	"fmt"
	"io"
	"math"

	"github.com/goccy/go-json"
)

// JSON stores elements as length-prefixed JSON documents.  It suits elements
// holding pointers, strings or maps, which Raw refuses.  MaxLen works as it
// does for Bytes.
type JSON[T any] struct {
	MaxLen int64
}

var _ Codec[map[string]int] = JSON[map[string]int]{}

func (c JSON[T]) maxLen() int64 {
	if c.MaxLen <= 0 || c.MaxLen > math.MaxUint32 {
		return math.MaxUint32
	}
	return c.MaxLen
}

func (c JSON[T]) marshal(el *T) ([]byte, error) {
	data, err := json.Marshal(el)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}
	if int64(len(data)) > c.maxLen() {
		return nil, fmt.Errorf("%w: encoded length %d > max %d", ErrTooLarge, len(data), c.maxLen())
	}
	return data, nil
}

func (c JSON[T]) Write(w io.Writer, el *T) error {
	data, err := c.marshal(el)
	if err != nil {
		return err
	}
	return writeLenPrefixed(w, data)
}

func (c JSON[T]) Read(r io.Reader, el *T) error {
	data, err := readLenPrefixed(r, c.maxLen())
	if err != nil {
		return err
	}
	return unmarshal(data, el)
}

// Encode marshals el on every call; encoding/json-compatible marshaling is
// deterministic, so a retry after growth reports the same size.
func (c JSON[T]) Encode(buf []byte, el *T) (int, error) {
	data, err := c.marshal(el)
	if err != nil {
		return 0, err
	}
	return encodeLenPrefixed(buf, data), nil
}

func (c JSON[T]) Decode(buf []byte, el *T) (int, error) {
	n, err := readLenPrefix(buf, c.maxLen())
	if err != nil {
		return 0, err
	}
	if err := unmarshal(buf[lenPrefixSize:lenPrefixSize+n], el); err != nil {
		return 0, err
	}
	return lenPrefixSize + n, nil
}

// unmarshal decodes into a fresh value: json.Unmarshal merges into whatever
// el already holds, and callers reuse el across reads.  el is only assigned
// on success.
func unmarshal[T any](data []byte, el *T) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("json.Unmarshal: %w", err)
	}
	*el = v
	return nil
}
