// Copyright 2023 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package mmap

import "errors"

var errUnsupported = errors.New("mmap: unsupported on this platform")

type Map struct{}

func New(fd uintptr, length int64, writable bool) (*Map, error) {
	return nil, errUnsupported
}

func (m *Map) Data() []byte { return nil }
func (m *Map) Len() int64 { return 0 }
func (m *Map) Mapped() bool { return false }
func (m *Map) Remap(newLen int64, resize func(int64) error) error { return errUnsupported }
func (m *Map) AdviseSequential() error { return errUnsupported }
func (m *Map) Sync() error { return errUnsupported }
func (m *Map) Close() error { return nil }
