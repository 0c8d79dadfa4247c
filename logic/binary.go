// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logic

import (
	"bufio"
	"io"

	"golang.org/x/xerrors"
)

// Decoder reads raw binary captures: unitsize little-endian bytes per
// sample, as written by logic-analyzer "binary" exports.
type Decoder struct {
	r    io.Reader
	unit int
	buf  []byte
	err  error
}

// NewDecoder returns a decoder reading samples of unitsize bytes from r.
func NewDecoder(r io.Reader, unitsize int) *Decoder {
	if unitsize <= 0 || unitsize > 8 {
		unitsize = 1
	}
	return &Decoder{
		r:    bufio.NewReader(r),
		unit: unitsize,
		buf:  make([]byte, 8),
	}
}

// ReadSample implements Reader.
func (dec *Decoder) ReadSample() (uint64, error) {
	if dec.err != nil {
		return 0, dec.err
	}
	v := dec.readUnit()
	if dec.err != nil {
		if xerrors.Is(dec.err, io.EOF) {
			return 0, io.EOF
		}
		if xerrors.Is(dec.err, io.ErrUnexpectedEOF) {
			return 0, xerrors.Errorf("logic: truncated sample: %w", dec.err)
		}
		return 0, xerrors.Errorf("logic: could not read sample: %w", dec.err)
	}
	return v, nil
}

func (dec *Decoder) readUnit() uint64 {
	if dec.err != nil {
		return 0
	}
	_, dec.err = io.ReadFull(dec.r, dec.buf[:dec.unit])
	if dec.err != nil {
		return 0
	}
	var v uint64
	for i := dec.unit - 1; i >= 0; i-- {
		v = v<<8 | uint64(dec.buf[i])
	}
	return v
}

// Encoder writes raw binary captures.
type Encoder struct {
	w    io.Writer
	unit int
	buf  []byte
	err  error
}

// NewEncoder returns an encoder writing samples of unitsize bytes to w.
func NewEncoder(w io.Writer, unitsize int) *Encoder {
	if unitsize <= 0 || unitsize > 8 {
		unitsize = 1
	}
	return &Encoder{
		w:    w,
		unit: unitsize,
		buf:  make([]byte, 8),
	}
}

// Encode writes all the samples to the underlying writer.
func (enc *Encoder) Encode(samples Samples) error {
	for _, v := range samples {
		enc.writeUnit(v)
	}
	if enc.err != nil {
		return xerrors.Errorf("logic: could not write samples: %w", enc.err)
	}
	return nil
}

func (enc *Encoder) writeUnit(v uint64) {
	if enc.err != nil {
		return
	}
	for i := 0; i < enc.unit; i++ {
		enc.buf[i] = byte(v >> (8 * uint(i)))
	}
	_, enc.err = enc.w.Write(enc.buf[:enc.unit])
}

var _ Reader = (*Decoder)(nil)
