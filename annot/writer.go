// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package annot

import (
	"fmt"
	"io"
)

const writerPrefix = 10 + 1 + 10 + 1 + 16 + 1

// Writer is a Sink rendering annotations as text, one per line.
// Labels are chosen to fit the configured line width.
type Writer struct {
	w      io.Writer
	schema Schema
	width  int
	rows   map[int]bool
	rates  bool
	err    error
}

// NewWriter returns a text Writer for the annotation classes of schema.
// A non-positive width disables label shortening.
func NewWriter(w io.Writer, schema Schema, width int) *Writer {
	return &Writer{
		w:      w,
		schema: schema,
		width:  width,
	}
}

// Filter restricts the output to the named rows.
func (w *Writer) Filter(rows ...string) error {
	if len(rows) == 0 {
		w.rows = nil
		return nil
	}
	set, err := w.schema.Select(rows...)
	if err != nil {
		return err
	}
	w.rows = set
	return nil
}

// ShowBitrates enables the rendering of bitrate records.
func (w *Writer) ShowBitrates(v bool) {
	w.rates = v
}

// Err returns the first write error.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) Annotate(a Annotation) {
	if w.err != nil {
		return
	}
	if w.rows != nil && !w.rows[a.Class] {
		return
	}

	lbl := a.Label()
	if w.width > 0 {
		avail := w.width - writerPrefix
		if avail < 1 {
			avail = 1
		}
		lbl = a.Fit(avail)
	}
	_, w.err = fmt.Fprintf(w.w, "%10d %-10d %-16s %s\n", a.Start, a.End, w.schema.ClassName(a.Class), lbl)
}

func (w *Writer) Bitrate(b Bitrate) {
	if w.err != nil || !w.rates {
		return
	}
	_, w.err = fmt.Fprintf(w.w, "%10d %-10d %-16s %.0f bit/s\n", b.Start, b.End, "bitrate", b.Value)
}

func (w *Writer) Binary(Binary) {}
func (w *Writer) Event(Event)   {}

var _ Sink = (*Writer)(nil)
