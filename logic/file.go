// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logic

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-lpc/ifx/internal/mmap"
	"golang.org/x/xerrors"
)

// File is a Source backed by a capture file.
type File struct {
	*Stream
	c io.Closer
}

// Open opens the named capture file.
// Files with a ".csv" extension are read as CSV exports, all others as
// raw binary captures with one byte per sample.
// chans maps logical channels onto the physical channels of the file.
func Open(fname string, chans ...int) (*File, error) {
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".csv":
		f, err := os.Open(fname)
		if err != nil {
			return nil, xerrors.Errorf("logic: could not open %q: %w", fname, err)
		}
		return &File{
			Stream: NewStream(NewCSVReader(f), chans...),
			c:      f,
		}, nil
	default:
		h, err := mmap.Open(fname)
		if err != nil {
			return nil, xerrors.Errorf("logic: could not open %q: %w", fname, err)
		}
		r := io.NewSectionReader(h, 0, int64(h.Len()))
		return &File{
			Stream: NewStream(NewDecoder(r, 1), chans...),
			c:      h,
		}, nil
	}
}

// Close closes the underlying capture file.
func (f *File) Close() error {
	if f.c == nil {
		return nil
	}
	err := f.c.Close()
	f.c = nil
	if err != nil {
		return xerrors.Errorf("logic: could not close capture: %w", err)
	}
	return nil
}

// Create writes samples to the named capture file, choosing the format
// from the file extension like Open does.
// names labels the channels of CSV exports.
func Create(fname string, samples Samples, names []string) error {
	f, err := os.Create(fname)
	if err != nil {
		return xerrors.Errorf("logic: could not create %q: %w", fname, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(fname)) {
	case ".csv":
		err = WriteCSV(f, samples, names)
	default:
		err = NewEncoder(f, 1).Encode(samples)
	}
	if err != nil {
		return xerrors.Errorf("logic: could not write %q: %w", fname, err)
	}

	err = f.Close()
	if err != nil {
		return xerrors.Errorf("logic: could not close %q: %w", fname, err)
	}
	return nil
}
