// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tpm decodes TPM traffic carried over SPI from sampled
// logic-analyzer waveforms.
//
// The decoder assembles bits into MOSI/MISO byte pairs, parses the TPM
// SPI register header of each chip-select transfer, decodes the ACCESS
// and STS registers, reassembles TPM command and response frames
// flowing through the FIFO registers and, once the bus is idle, emits
// consolidated per-transfer and per-frame annotations.
package tpm // import "github.com/go-lpc/ifx/tpm"

import (
	"io"

	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/logic"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

// Logical channels.
const (
	ChanCLK = iota
	ChanMISO
	ChanMOSI
	ChanCS
)

// Decoder decodes SPI TPM traffic.
type Decoder struct {
	rate float64 // sample rate in Hz, 0 when unknown
	pol  Polarity
	msg  logrus.FieldLogger

	out     annot.Sink
	hasCS   bool
	hasMOSI bool
	hasMISO bool
	last    int64 // index of the last sample read

	acc    bitAcc
	active bool
	xfer   transfer
	nxfer  int

	hdr header
	sts status
	fr  framer

	cur    *frameRec   // frame being received
	frames []*frameRec // frames waiting for their consolidated annotations
}

// New returns a new SPI TPM decoder.
func New(opts ...Option) *Decoder {
	dec := &Decoder{
		pol: ActiveLow,
		msg: discardLogger(),
	}
	for _, opt := range opts {
		opt(dec)
	}
	dec.Reset()
	return dec
}

// Reset clears all the decoding state.
func (dec *Decoder) Reset() {
	dec.out = annot.Discard
	dec.hasCS = false
	dec.hasMOSI = false
	dec.hasMISO = false
	dec.last = 0
	dec.acc.reset()
	dec.active = false
	dec.xfer = transfer{}
	dec.nxfer = 0
	dec.hdr = header{}
	dec.sts = newStatus()
	dec.fr = framer{}
	dec.cur = nil
	dec.frames = nil
}

// Decode decodes the whole sample stream src and sends its output to out.
// Decode returns nil once src is exhausted.
func (dec *Decoder) Decode(src logic.Source, out annot.Sink) error {
	dec.Reset()
	dec.out = out
	defer func() { dec.out = annot.Discard }()

	if !src.HasChannel(ChanCLK) {
		return xerrors.Errorf("tpm: missing CLK channel")
	}
	dec.hasMOSI = src.HasChannel(ChanMOSI)
	dec.hasMISO = src.HasChannel(ChanMISO)
	if !dec.hasMOSI && !dec.hasMISO {
		return xerrors.Errorf("tpm: missing MISO and MOSI channels")
	}
	dec.hasCS = src.HasChannel(ChanCS)

	conds := []logic.Cond{{{Ch: ChanCLK, Edge: logic.Rising}}}
	if dec.hasCS {
		conds = append(conds, logic.Cond{{Ch: ChanCS, Edge: logic.Either}})
	} else {
		dec.out.Event(annot.IdleChange{At: 0, Old: annot.Unknown, New: annot.Unknown})
		dec.begin(0)
	}

	s, _, err := src.Wait()
	switch {
	case err == nil:
	case xerrors.Is(err, io.EOF):
		dec.finish()
		return nil
	default:
		return xerrors.Errorf("tpm: could not read first sample: %w", err)
	}
	dec.last = s.N
	if dec.hasCS {
		dec.csChange(s, true)
	}

	for {
		s, m, err := src.Wait(conds...)
		if err != nil {
			if xerrors.Is(err, io.EOF) {
				dec.finish()
				return nil
			}
			return xerrors.Errorf("tpm: could not read sample: %w", err)
		}
		dec.last = s.N

		if dec.hasCS && m.Has(1) {
			dec.csChange(s, false)
		}
		if !dec.active || !m.Has(0) {
			continue
		}
		dec.bit(s)
	}
}

func (dec *Decoder) asserted(cs uint8) bool {
	switch dec.pol {
	case ActiveHigh:
		return cs == 1
	default:
		return cs == 0
	}
}

func (dec *Decoder) csChange(s logic.Sample, first bool) {
	var (
		cs  = s.Pin(ChanCS)
		old = annot.Unknown
	)
	if !first {
		old = int(1 - cs)
	}
	dec.out.Event(annot.IdleChange{At: s.N, Old: old, New: int(cs)})

	switch {
	case dec.asserted(cs):
		dec.begin(s.N)
	case dec.active:
		dec.finalize(s.N)
	}
}

func (dec *Decoder) begin(at int64) {
	dec.active = true
	dec.acc.reset()
	dec.xfer = transfer{id: dec.nxfer, start: at}
	dec.nxfer++
	dec.hdr = header{}
	dec.sts = newStatus()
}

func (dec *Decoder) bit(s logic.Sample) {
	if dec.acc.full() {
		dec.flushByte(s.N)
	}
	dec.acc.push(s.N, s.Pin(ChanMOSI), s.Pin(ChanMISO))
}

// finish flushes the decoder state at the end of the sample stream.
func (dec *Decoder) finish() {
	if dec.active {
		dec.finalize(dec.last)
	}
	if dec.cur != nil {
		dec.truncate()
	}
	dec.emitFrames()
}

type transfer struct {
	id    int
	start int64
	mosi  []annot.Byte
	miso  []annot.Byte
}

// Polarity is the chip-select polarity.
type Polarity uint8

const (
	ActiveLow Polarity = iota
	ActiveHigh
)

func (p Polarity) String() string {
	switch p {
	case ActiveHigh:
		return "active-high"
	default:
		return "active-low"
	}
}

// ParsePolarity parses a chip-select polarity name.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "active-low":
		return ActiveLow, nil
	case "active-high":
		return ActiveHigh, nil
	}
	return 0, xerrors.Errorf("tpm: invalid chip-select polarity %q", s)
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithSampleRate sets the sample rate, in Hz, used for bitrate records.
func WithSampleRate(hz float64) Option {
	return func(dec *Decoder) {
		dec.rate = hz
	}
}

// WithLogger sets the logger used for debug messages.
func WithLogger(msg logrus.FieldLogger) Option {
	return func(dec *Decoder) {
		if msg == nil {
			msg = discardLogger()
		}
		dec.msg = msg
	}
}

// WithCSPolarity sets the chip-select polarity.
func WithCSPolarity(p Polarity) Option {
	return func(dec *Decoder) {
		dec.pol = p
	}
}

func discardLogger() logrus.FieldLogger {
	msg := logrus.New()
	msg.SetOutput(io.Discard)
	return msg
}
