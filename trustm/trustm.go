// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trustm decodes OPTIGA Trust M traffic carried over I2C from
// sampled logic-analyzer waveforms.
//
// The decoder detects START/STOP conditions, assembles address and data
// bytes, tracks the addressed register of the configured device,
// decodes the datalink frames and APDUs exchanged through the DATA
// register and, at every STOP condition, emits consolidated
// per-transfer annotations.
package trustm // import "github.com/go-lpc/ifx/trustm"

import (
	"io"

	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/logic"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

// Logical channels.
const (
	ChanSCL = iota
	ChanSDA
)

// DefaultAddress is the default 7-bit I2C address of a Trust M device.
const DefaultAddress = 0x30

var (
	condBit   = logic.Cond{{Ch: ChanSCL, Edge: logic.Rising}}
	condStart = logic.Cond{{Ch: ChanSCL, Edge: logic.High}, {Ch: ChanSDA, Edge: logic.Falling}}
	condStop  = logic.Cond{{Ch: ChanSCL, Edge: logic.High}, {Ch: ChanSDA, Edge: logic.Rising}}
)

type busState uint8

const (
	findStart busState = iota
	findAddress
	findData
	findAck
)

// Decoder decodes I2C Trust M traffic.
type Decoder struct {
	rate   float64 // sample rate in Hz, 0 when unknown
	addr   uint8
	format AddressFormat
	msg    logrus.FieldLogger

	out  annot.Sink
	last int64 // index of the last sample read

	state   busState
	repeat  bool // a START was seen since the last STOP
	bits    []annot.Bit
	bw      int64 // width of the last complete bit
	write   bool  // direction of the current address phase
	matched bool  // current address phase targets the device

	active bool
	xfer   transfer

	reg    regState
	link   datalink
	linkOn bool
}

// New returns a new I2C Trust M decoder.
func New(opts ...Option) *Decoder {
	dec := &Decoder{
		addr:   DefaultAddress,
		format: Shifted,
		msg:    discardLogger(),
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
	dec.last = 0
	dec.state = findStart
	dec.repeat = false
	dec.bits = dec.bits[:0]
	dec.bw = 0
	dec.write = false
	dec.matched = false
	dec.active = false
	dec.xfer = transfer{}
	dec.reg = regState{}
	dec.link = datalink{}
	dec.linkOn = false
}

// Decode decodes the whole sample stream src and sends its output to out.
// Decode returns nil once src is exhausted.
func (dec *Decoder) Decode(src logic.Source, out annot.Sink) error {
	dec.Reset()
	dec.out = out
	defer func() { dec.out = annot.Discard }()

	switch {
	case !src.HasChannel(ChanSCL):
		return xerrors.Errorf("trustm: missing SCL channel")
	case !src.HasChannel(ChanSDA):
		return xerrors.Errorf("trustm: missing SDA channel")
	}

	s, _, err := src.Wait()
	switch {
	case err == nil:
	case xerrors.Is(err, io.EOF):
		return nil
	default:
		return xerrors.Errorf("trustm: could not read first sample: %w", err)
	}
	dec.last = s.N

	for {
		var m logic.Matched
		switch dec.state {
		case findStart:
			s, m, err = src.Wait(condStart)
			m <<= 1 // align with the START slot below
		default:
			s, m, err = src.Wait(condBit, condStart, condStop)
		}
		if err != nil {
			if xerrors.Is(err, io.EOF) {
				dec.finish()
				return nil
			}
			return xerrors.Errorf("trustm: could not read sample: %w", err)
		}
		dec.last = s.N

		switch {
		case m.Has(0) && dec.state == findAck:
			dec.ack(s)
		case m.Has(0):
			dec.bit(s)
		case m.Has(1):
			dec.start(s)
		case m.Has(2):
			dec.stop(s)
		}
	}
}

// finish flushes the decoder state at the end of the sample stream.
func (dec *Decoder) finish() {
	if dec.active {
		dec.finalize(dec.last)
	}
}

// AddressFormat selects how slave addresses are displayed.
type AddressFormat uint8

const (
	Shifted   AddressFormat = iota // 7-bit address
	Unshifted                      // 8-bit address, including the R/W bit
)

func (f AddressFormat) String() string {
	switch f {
	case Unshifted:
		return "unshifted"
	default:
		return "shifted"
	}
}

// ParseAddressFormat parses an address format name.
func ParseAddressFormat(s string) (AddressFormat, error) {
	switch s {
	case "shifted":
		return Shifted, nil
	case "unshifted":
		return Unshifted, nil
	}
	return 0, xerrors.Errorf("trustm: invalid address format %q", s)
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

// WithAddress sets the 7-bit address of the decoded device.
func WithAddress(addr uint8) Option {
	return func(dec *Decoder) {
		dec.addr = addr & 0x7f
	}
}

// WithAddressFormat sets how slave addresses are displayed.
func WithAddressFormat(f AddressFormat) Option {
	return func(dec *Decoder) {
		dec.format = f
	}
}

func discardLogger() logrus.FieldLogger {
	msg := logrus.New()
	msg.SetOutput(io.Discard)
	return msg
}
