// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mmap // import "github.com/go-lpc/ifx/internal/mmap"

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestHandle(t *testing.T) {
	t.Run("nil-handle", func(t *testing.T) {
		var h *Handle

		_, err := h.ReadAt(nil, 0)
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid read-at error: %+v", err)
		}

		err = h.Close()
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid close error: %+v", err)
		}
	})
	t.Run("nil-data", func(t *testing.T) {
		var h Handle

		_, err := h.ReadAt(nil, 0)
		if !errors.Is(err, errClosed) {
			t.Fatalf("invalid read-at error: %+v", err)
		}

		err = h.Close()
		if err != nil {
			t.Fatalf("error closing nil-data handle: %+v", err)
		}
	})
}

func TestHandleFrom(t *testing.T) {
	h := HandleFrom([]byte{0, 1, 2, 3})
	defer h.Close()

	if got, want := h.Len(), 4; got != want {
		t.Fatalf("invalid len: got=%d, want=%d", got, want)
	}

	if got, want := h.At(1), byte(1); got != want {
		t.Fatalf("invalid value: got=%d, want=%d", got, want)
	}

	_, err := h.ReadAt(nil, -1)
	if got, want := err.Error(), "mmap: invalid ReadAt offset -1"; got != want {
		t.Fatalf("invalid error: %+v", err)
	}

	buf := make([]byte, 3)
	n, err := h.ReadAt(buf, 2)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("invalid short-read error: %+v", err)
	}
	if n != 2 || buf[0] != 2 || buf[1] != 3 {
		t.Fatalf("invalid short-read: n=%d, buf=%v", n, buf)
	}
}

func TestOpen(t *testing.T) {
	tmp, err := os.MkdirTemp("", "ifx-mmap-")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmp)

	fname := filepath.Join(tmp, "capture.bin")
	err = os.WriteFile(fname, []byte{0x0f, 0x0e, 0x0d}, 0644)
	if err != nil {
		t.Fatal(err)
	}

	h, err := Open(fname)
	if err != nil {
		t.Fatalf("could not mmap file: %+v", err)
	}

	if got, want := h.Len(), 3; got != want {
		t.Fatalf("invalid len: got=%d, want=%d", got, want)
	}
	if got, want := h.At(2), byte(0x0d); got != want {
		t.Fatalf("invalid value: got=0x%x, want=0x%x", got, want)
	}

	err = h.Close()
	if err != nil {
		t.Fatalf("could not close handle: %+v", err)
	}

	_, err = h.ReadAt(make([]byte, 1), 0)
	if !errors.Is(err, errClosed) {
		t.Fatalf("invalid read-after-close error: %+v", err)
	}

	empty := filepath.Join(tmp, "empty.bin")
	err = os.WriteFile(empty, nil, 0644)
	if err != nil {
		t.Fatal(err)
	}
	h, err = Open(empty)
	if err != nil {
		t.Fatalf("could not mmap empty file: %+v", err)
	}
	if got, want := h.Len(), 0; got != want {
		t.Fatalf("invalid len: got=%d, want=%d", got, want)
	}
	_ = h.Close()

	_, err = Open(filepath.Join(tmp, "missing.bin"))
	if err == nil {
		t.Fatalf("expected an error opening a missing file")
	}
}
