// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package zero provides functions to zero slices of specific types.
package zero

// Bytes clears b, e.g. an element that was only partially read.
func Bytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
