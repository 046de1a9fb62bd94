// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package graphio

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync/atomic"

	"github.com/bpowers/graphio/codec"
	"github.com/bpowers/graphio/internal/mmap"
)

// MapFile is the part of an *os.File the mapped backend needs.
type MapFile interface {
	Fd() uintptr
	Stat() (os.FileInfo, error)
	Truncate(size int64) error
}

// MapStats describes a mapped output stream.
type MapStats struct {
	Grows     int   // number of times the file was grown and remapped
	MappedLen int64 // bytes currently mapped (and allocated in the file)
	Len       int64 // logical length: the file's size once the stream is closed
}

// MapOutput writes elements into a shared read-write mapping of a file it
// borrows.  The file is grown a chunk at a time as writes run past the end of
// the mapping, and truncated to the cursor's final position on Close.
//
// Close must be called, or the file keeps the zeroed tail left over from the
// last growth.  When an error is already on its way out of a function,
// `defer out.CloseOnExit(&err)` finalizes the file without masking it.
type MapOutput[N, L any] struct {
	f      MapFile
	m      *mmap.Map
	cur    int64
	nodes  codec.MapCodec[N]
	links  codec.MapCodec[L]
	chunk  int64
	growth GrowthPolicy
	logger *slog.Logger
	grows  int
	// broken is set by a failed growth; every later operation returns it
	broken error
	closed atomic.Bool
}

// NewMapOutput sizes f to one growth chunk and maps it.  Anything already in
// the file past the first chunk is discarded, so f is normally freshly created
// or truncated.
func NewMapOutput[N, L any](f MapFile, nodes codec.MapCodec[N], links codec.MapCodec[L], opts ...Option) (*MapOutput[N, L], error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil file", ErrInvalidOption)
	}
	if err := checkCodecs(nodes, links); err != nil {
		return nil, err
	}
	options, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	if err := f.Truncate(options.chunkSize); err != nil {
		return nil, mappingErr("f.Truncate", err)
	}
	m, err := mmap.New(f.Fd(), options.chunkSize, true)
	if err != nil {
		return nil, mappingErr("mmap.New", err)
	}
	options.logger.Debug("mapped output file", "len", options.chunkSize, "growth", options.growth)

	return &MapOutput[N, L]{
		f:      f,
		m:      m,
		nodes:  nodes,
		links:  links,
		chunk:  options.chunkSize,
		growth: options.growth,
		logger: options.logger,
	}, nil
}

func (w *MapOutput[N, L]) usable(op string) error {
	if w.closed.Load() {
		return outputErr(op, ErrClosed)
	}
	return w.broken
}

// remaining is the space between the cursor and the end of the mapping,
// negative if SeekP moved the cursor past the end.
func (w *MapOutput[N, L]) remaining() int64 {
	return w.m.Len() - w.cur
}

func (w *MapOutput[N, L]) window() []byte {
	if w.cur >= w.m.Len() {
		return nil
	}
	return w.m.Data()[w.cur:]
}

// TellP returns the cursor's offset from the start of the file.
func (w *MapOutput[N, L]) TellP() (int64, error) {
	return w.cur, nil
}

// SeekP moves the cursor to pos.  pos may be past the end of the mapping; the
// next write there grows the file as usual.
func (w *MapOutput[N, L]) SeekP(pos int64) error {
	if err := w.usable("SeekP"); err != nil {
		return err
	}
	if pos < 0 {
		return outputErr("SeekP", fmt.Errorf("negative position %d", pos))
	}
	w.cur = pos
	return nil
}

// Write copies p to the cursor, growing the file first if p runs past the
// end of the mapping.
func (w *MapOutput[N, L]) Write(p []byte) error {
	if err := w.usable("Write"); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	if need := int64(len(p)); need > w.remaining() {
		if err := w.grow("Write", need); err != nil {
			return err
		}
	}
	w.cur += int64(copy(w.window(), p))
	return nil
}

// WriteNodeEl encodes one node element at the cursor.
func (w *MapOutput[N, L]) WriteNodeEl(el *N) error {
	return writeEl(w, "WriteNodeEl", w.nodes, el)
}

// WriteLinkEl encodes one link element at the cursor.
func (w *MapOutput[N, L]) WriteLinkEl(el *L) error {
	return writeEl(w, "WriteLinkEl", w.links, el)
}

// writeEl offers the codec the rest of the mapping.  If the element doesn't
// fit, the codec wrote nothing and told us how much it needs: grow by the
// deficit and encode again.
func writeEl[N, L, T any](w *MapOutput[N, L], op string, c codec.MapCodec[T], el *T) error {
	if err := w.usable(op); err != nil {
		return err
	}
	left := w.remaining()
	need, err := c.Encode(w.window(), el)
	if err != nil {
		return outputErr(op, err)
	}
	if need > 0 && int64(need) > left {
		if err := w.grow(op, int64(need)); err != nil {
			return err
		}
		retry, err := c.Encode(w.window(), el)
		if err != nil {
			return outputErr(op, err)
		}
		if retry != need {
			return outputErr(op, fmt.Errorf("invariant broken: codec needed %d bytes, then %d after growing", need, retry))
		}
	}
	w.cur += int64(need)
	return nil
}

// grownLen returns the mapping length that covers need bytes past the cursor,
// or false if it can't be expressed as an int64.
func (w *MapOutput[N, L]) grownLen(need int64) (int64, bool) {
	if w.cur > math.MaxInt64-need {
		return 0, false
	}
	mapped := w.m.Len()
	deficit := w.cur + need - mapped
	if w.growth == GrowDoubling && deficit < mapped {
		deficit = mapped
	}
	chunks := deficit / w.chunk
	if deficit%w.chunk != 0 {
		chunks++
	}
	if chunks > (math.MaxInt64-mapped)/w.chunk {
		return 0, false
	}
	return mapped + chunks*w.chunk, true
}

// grow releases the mapping, extends the file by whole chunks until need bytes
// fit past the cursor, and maps it again.  The cursor is an offset, so it is
// unaffected.  A length that overflows is refused before the mapping is
// touched.  Any later failure can't be undone: the stream is broken from then
// on, though Close still truncates the file.
func (w *MapOutput[N, L]) grow(op string, need int64) error {
	oldLen := w.m.Len()
	newLen, ok := w.grownLen(need)
	if !ok {
		return outputErr(op, fmt.Errorf("%w: %d bytes at offset %d", ErrOutOfRange, need, w.cur))
	}
	if err := w.m.Remap(newLen, w.f.Truncate); err != nil {
		w.broken = mappingErr("mmap.Remap", err)
		w.logger.Error("growing mapped output failed", "from", oldLen, "to", newLen, "err", err)
		return w.broken
	}
	w.grows++
	w.logger.Debug("grew mapped output", "from", oldLen, "to", newLen, "cur", w.cur)
	return nil
}

// Sync flushes everything written so far to the file.
func (w *MapOutput[N, L]) Sync() error {
	if err := w.usable("Sync"); err != nil {
		return err
	}
	if err := w.m.Sync(); err != nil {
		return outputErr("mmap.Sync", err)
	}
	return nil
}

// Stats reports growth so far and the stream's current lengths.
func (w *MapOutput[N, L]) Stats() MapStats {
	return MapStats{
		Grows:     w.grows,
		MappedLen: w.m.Len(),
		Len:       w.cur,
	}
}

// Close releases the mapping and truncates the file to the cursor's offset,
// dropping the unused tail of the last growth.  The mapping is released first
// because some platforms can't resize a mapped file.  A truncate failure is
// reported in preference to an unmap failure.  Closing more than once is a no-op.
func (w *MapOutput[N, L]) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	return w.finish()
}

// CloseOnExit is meant to be deferred by a function with a named error result.
// If *errp is already set, the stream is finalized but any teardown failure is
// only logged, so the original error isn't masked; otherwise *errp receives
// Close's result.
func (w *MapOutput[N, L]) CloseOnExit(errp *error) {
	if errp == nil || *errp != nil {
		w.Release()
		return
	}
	*errp = w.Close()
}

// Release finalizes the stream like Close, logging rather than returning any
// failure.
func (w *MapOutput[N, L]) Release() {
	if w.closed.Swap(true) {
		return
	}
	if err := w.finish(); err != nil {
		attrs := []any{"err", err}
		if e, ok := err.(*Error); ok && e.Errno() != 0 {
			attrs = append(attrs, "errno", int(e.Errno()))
		}
		w.logger.Warn("suppressed error finalizing mapped output", attrs...)
	}
}

func (w *MapOutput[N, L]) finish() error {
	size := w.cur
	unmapErr := w.m.Close()
	truncErr := w.f.Truncate(size)
	if truncErr != nil {
		return mappingErr("f.Truncate", truncErr)
	}
	if unmapErr != nil {
		return mappingErr("mmap.Close", unmapErr)
	}
	w.logger.Debug("finalized mapped output", "len", size, "grows", w.grows)
	return nil
}
