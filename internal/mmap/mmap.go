// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build linux || darwin || freebsd || netbsd || openbsd

package mmap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Map is a single shared mapping of the first Len() bytes of a file.  A Map owns
// its mapping (but never the file descriptor): at most one mapping is live at a
// time, and Remap releases the old one before establishing its replacement.
type Map struct {
	fd       int
	data     []byte
	writable bool
}

// New maps the first length bytes of fd.  The file must already be at least
// length bytes long.
func New(fd uintptr, length int64, writable bool) (*Map, error) {
	m := &Map{
		fd:       int(fd),
		writable: writable,
	}
	if err := m.mapLen(length); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Map) mapLen(length int64) error {
	if length <= 0 {
		return fmt.Errorf("%w: length %d", ErrEmpty, length)
	}
	if int64(int(length)) != length {
		return fmt.Errorf("mapping length %d overflows int", length)
	}
	prot := unix.PROT_READ
	if m.writable {
		prot |= unix.PROT_WRITE
	}
	data, err := unix.Mmap(m.fd, 0, int(length), prot, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("unix.Mmap(len: %d): %w", length, err)
	}
	m.data = data
	return nil
}

func (m *Map) unmap() error {
	if m.data == nil {
		return nil
	}
	if err := unix.Munmap(m.data); err != nil {
		return fmt.Errorf("unix.Munmap: %w", err)
	}
	m.data = nil
	return nil
}

// Data returns the mapped bytes.  The slice is invalidated by Remap and Close.
func (m *Map) Data() []byte {
	return m.data
}

// Len returns the length of the live mapping, or 0 once it has been released.
func (m *Map) Len() int64 {
	return int64(len(m.data))
}

// Mapped reports whether a mapping is currently live.
func (m *Map) Mapped() bool {
	return m.data != nil
}

// Remap replaces the mapping with one of newLen bytes.  resize is called between
// releasing the old mapping and establishing the new one, which is the only
// order in which some platforms allow the backing file to change size.  On
// error the Map is left unmapped.
func (m *Map) Remap(newLen int64, resize func(size int64) error) error {
	if err := m.unmap(); err != nil {
		return err
	}
	if resize != nil {
		if err := resize(newLen); err != nil {
			return err
		}
	}
	return m.mapLen(newLen)
}

// AdviseSequential hints that the mapping will be read front to back.
func (m *Map) AdviseSequential() error {
	if m.data == nil {
		return ErrNotMapped
	}
	if err := unix.Madvise(m.data, unix.MADV_SEQUENTIAL); err != nil {
		return fmt.Errorf("unix.Madvise: %w", err)
	}
	return nil
}

// Sync flushes dirty pages of a writable mapping back to the file.
func (m *Map) Sync() error {
	if m.data == nil {
		return ErrNotMapped
	}
	if !m.writable {
		return nil
	}
	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("unix.Msync: %w", err)
	}
	return nil
}

// Close releases the mapping.  It is safe to call more than once.
func (m *Map) Close() error {
	return m.unmap()
}
