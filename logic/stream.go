// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logic

import (
	"io"

	"golang.org/x/xerrors"
)

// Reader reads raw samples, one word per sample.
// Bit i of a word holds the level of physical channel i.
type Reader interface {
	ReadSample() (uint64, error)
}

// Stream is a Source reading samples from a Reader and remapping
// physical channels onto logical ones.
type Stream struct {
	r     Reader
	chans []int // logical channel -> physical channel, -1 when absent

	n     int64 // index of the current sample
	cur   uint64
	valid bool
}

// NewStream returns a Source reading from r.
// chans maps each logical channel to a physical channel. A negative
// value marks the logical channel as not connected.
// Without chans, logical and physical channels are identical.
func NewStream(r Reader, chans ...int) *Stream {
	return &Stream{
		r:     r,
		chans: append([]int(nil), chans...),
		n:     -1,
	}
}

// HasChannel returns whether the logical channel ch is connected.
func (s *Stream) HasChannel(ch int) bool {
	if ch < 0 || ch >= 64 {
		return false
	}
	if len(s.chans) == 0 {
		return true
	}
	return ch < len(s.chans) && s.chans[ch] >= 0
}

func (s *Stream) next() error {
	raw, err := s.r.ReadSample()
	if err != nil {
		if xerrors.Is(err, io.EOF) {
			return io.EOF
		}
		return xerrors.Errorf("logic: could not read sample %d: %w", s.n+1, err)
	}
	s.n++
	s.cur = s.remap(raw)
	s.valid = true
	return nil
}

func (s *Stream) remap(raw uint64) uint64 {
	if len(s.chans) == 0 {
		return raw
	}
	var v uint64
	for i, ch := range s.chans {
		if ch < 0 {
			continue
		}
		v |= ((raw >> uint(ch)) & 1) << uint(i)
	}
	return v
}

// Wait implements Source.
func (s *Stream) Wait(conds ...Cond) (Sample, Matched, error) {
	if len(conds) == 0 {
		err := s.next()
		if err != nil {
			return Sample{}, 0, err
		}
		return Sample{N: s.n, Pins: s.cur}, 0, nil
	}

	for {
		var (
			prev  = s.cur
			first = !s.valid
		)
		err := s.next()
		if err != nil {
			return Sample{}, 0, err
		}
		if first {
			// no reference level to detect edges against.
			prev = s.cur
		}

		var m Matched
		for i, c := range conds {
			if c.match(prev, s.cur) {
				m |= 1 << uint(i)
			}
		}
		if m != 0 {
			return Sample{N: s.n, Pins: s.cur}, m, nil
		}
	}
}

// Samples is an in-memory sequence of raw samples.
type Samples []uint64

// Reader returns a Reader over the samples.
func (ss Samples) Reader() Reader {
	return &sliceReader{data: ss}
}

type sliceReader struct {
	data []uint64
	pos  int
}

func (r *sliceReader) ReadSample() (uint64, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

var (
	_ Source = (*Stream)(nil)
	_ Reader = (*sliceReader)(nil)
)
