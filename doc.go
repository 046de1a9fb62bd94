// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package graphio streams the node and link elements of a directed graph to
// and from a file.
//
// There are two interchangeable backends.  The file backend (FileOutput,
// FileInput) issues one unbuffered read or write per call against a
// caller-owned handle.  The mapped backend (MapOutput, MapInput) works on a
// shared memory mapping of the file: output grows the file a chunk at a time,
// remapping as it goes, and truncates it to the exact number of bytes written
// when closed.
//
// On disk a graph is just the concatenation of its element encodings, in the
// order they were written:
//
//	┌──────┬──────┬──────┬──────┬──────┬─────
//	│ node │ link │ link │ node │ link │ ...
//	└──────┴──────┴──────┴──────┴──────┴─────
//
// There is no header, framing or type tag; a reader must ask for the same
// elements, in the same order, with the same codecs, as the writer used.
// Callers own the file: streams never open or close it, and a file being
// written through a MapOutput has no meaningful size until the stream is
// closed.
//
// Streams are not safe for concurrent use.
package graphio
