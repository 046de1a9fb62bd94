// Copyright 2021 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package unsafebytes

import (
	"unsafe"
)

// Of returns a byte slice referring to the in-memory representation of *p.
// SAFETY: the returned byte slice aliases *p; writes to it are writes to *p.
func Of[T any](p *T) []byte {
	size := unsafe.Sizeof(*p)
	if size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), size)
}
