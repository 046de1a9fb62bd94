// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package mmap owns shared memory mappings of files that can be grown in place.
package mmap

import "errors"

var (
	ErrEmpty     = errors.New("can't map an empty range")
	ErrNotMapped = errors.New("not mapped")
)
