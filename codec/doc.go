// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package codec converts single graph elements (nodes or links) to and from
// their on-storage byte representation.
//
// A codec is used two ways.  File-backed streams hand it the file handle
// itself (Write / Read), and every call must transfer exactly the bytes the
// element needs or fail.  Mapped streams hand it the window of mapped memory
// between the cursor and the end of the mapping (Encode / Decode):
//
//	mapping    cur                      end
//	   │        │                        │
//	   ▼        ▼                        ▼
//	   ┌────────┬────────────────────────┐
//	   │written │ buf passed to Encode   │
//	   └────────┴────────────────────────┘
//
// Encode always returns the number of bytes the element needs.  If that is more
// than len(buf) it writes nothing, so the stream can grow the mapping by the
// deficit and call Encode again with a larger window; the second call must
// report the same size.  Decode returns ErrEndOfData without consuming
// anything when the window is too small.
//
// Raw, the default, copies an element's in-memory representation verbatim;
// its constructor NewRaw refuses types that hold pointers.  Bytes and JSON
// handle variable-length or pointer-bearing elements, and Checksummed wraps any
// codec to detect on-disk corruption.  Decoding never merges into what the
// destination element already holds.
package codec
