// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tpm

import (
	"fmt"
	"strings"

	"github.com/go-lpc/ifx/annot"
)

// bitAcc accumulates the MOSI and MISO bits of one byte period.
// Bits are kept MSB first.
type bitAcc struct {
	mosi []annot.Bit
	miso []annot.Bit
}

func (acc *bitAcc) reset() {
	acc.mosi = acc.mosi[:0]
	acc.miso = acc.miso[:0]
}

func (acc *bitAcc) len() int   { return len(acc.mosi) }
func (acc *bitAcc) full() bool { return len(acc.mosi) == 8 }

// push records the bits sampled at n.
// The end of the previous bit becomes known. The end of the new bit is
// extrapolated from the two most recent bit widths.
func (acc *bitAcc) push(n int64, mosi, miso uint8) {
	if i := len(acc.mosi); i > 0 {
		acc.mosi[i-1].End = n
		acc.miso[i-1].End = n
	}
	end := n + acc.width(n)
	acc.mosi = append(acc.mosi, annot.Bit{Value: mosi, Start: n, End: end})
	acc.miso = append(acc.miso, annot.Bit{Value: miso, Start: n, End: end})
}

func (acc *bitAcc) width(n int64) int64 {
	var w int64 = 1
	switch i := len(acc.mosi); {
	case i == 1:
		w = n - acc.mosi[0].Start
	case i > 1:
		w = (n - acc.mosi[i-2].Start) / 2
	}
	if w < 1 {
		w = 1
	}
	return w
}

// octet is a pair of MOSI/MISO bytes clocked together.
type octet struct {
	start int64
	end   int64
	mosi  byte
	miso  byte
	nbits int

	mosiBits []annot.Bit
	misoBits []annot.Bit
}

func (o octet) value(write bool) byte {
	if write {
		return o.mosi
	}
	return o.miso
}

func (o octet) bits(write bool) []annot.Bit {
	if write {
		return o.mosiBits
	}
	return o.misoBits
}

// flushByte completes the byte held by the accumulator.
// at bounds the end of the last bit: it is the sample of the next clock
// edge or of the chip-select deassertion.
func (dec *Decoder) flushByte(at int64) {
	n := dec.acc.len()
	if n == 0 {
		return
	}
	last := n - 1
	for _, bits := range [][]annot.Bit{dec.acc.mosi, dec.acc.miso} {
		end := bits[last].End
		if end > at {
			end = at
		}
		if end <= bits[last].Start {
			end = bits[last].Start + 1
		}
		bits[last].End = end
	}

	o := octet{
		start:    dec.acc.mosi[0].Start,
		end:      dec.acc.mosi[last].End,
		nbits:    n,
		mosiBits: append([]annot.Bit(nil), dec.acc.mosi...),
		misoBits: append([]annot.Bit(nil), dec.acc.miso...),
	}
	for i := range o.mosiBits {
		o.mosi |= o.mosiBits[i].Value << uint(7-i)
		o.miso |= o.misoBits[i].Value << uint(7-i)
	}
	dec.acc.reset()

	if n != 8 {
		dec.out.Annotate(annot.Annotation{
			Start: o.start, End: at, Class: ClassWarning,
			Labels: []string{"CS# was deasserted during this data word!"},
		})
	}
	dec.handleByte(o)
}

// handleByte emits the byte-level output of o and forwards it to the
// register header, status and frame decoders.
func (dec *Decoder) handleByte(o octet) {
	var (
		mosi = annot.Unknown
		miso = annot.Unknown
		ev   = annot.BitsEvent{Start: o.start, End: o.end}
	)
	if dec.hasMISO {
		miso = int(o.miso)
		ev.MISO = o.misoBits
		dec.out.Binary(annot.Binary{Start: o.start, End: o.end, Class: BinaryMISO, Data: []byte{o.miso}})
	}
	if dec.hasMOSI {
		mosi = int(o.mosi)
		ev.MOSI = o.mosiBits
		dec.out.Binary(annot.Binary{Start: o.start, End: o.end, Class: BinaryMOSI, Data: []byte{o.mosi}})
	}
	dec.out.Event(ev)
	dec.out.Event(annot.DataEvent{Start: o.start, End: o.end, MOSI: mosi, MISO: miso})

	dec.xfer.mosi = append(dec.xfer.mosi, annot.Byte{Start: o.start, End: o.end, Value: o.mosi})
	dec.xfer.miso = append(dec.xfer.miso, annot.Byte{Start: o.start, End: o.end, Value: o.miso})

	if dec.hasMISO {
		for _, b := range o.misoBits {
			dec.out.Annotate(annot.Annotation{
				Start: b.Start, End: b.End, Class: ClassMISOBits,
				Labels: []string{fmt.Sprintf("%d", b.Value)},
			})
		}
	}
	if dec.hasMOSI {
		for _, b := range o.mosiBits {
			dec.out.Annotate(annot.Annotation{
				Start: b.Start, End: b.End, Class: ClassMOSIBits,
				Labels: []string{fmt.Sprintf("%d", b.Value)},
			})
		}
	}
	if dec.hasMISO {
		dec.out.Annotate(annot.Annotation{
			Start: o.start, End: o.end, Class: ClassMISOData,
			Labels: []string{fmt.Sprintf("%02X", o.miso)},
		})
	}
	if dec.hasMOSI {
		dec.out.Annotate(annot.Annotation{
			Start: o.start, End: o.end, Class: ClassMOSIData,
			Labels: []string{fmt.Sprintf("%02X", o.mosi)},
		})
	}

	if dec.rate > 0 {
		last := o.mosiBits[len(o.mosiBits)-1].Start
		dec.out.Bitrate(annot.Bitrate{
			Start: o.start,
			End:   last,
			Value: dec.rate * float64(o.nbits) / float64(last-o.start+1),
		})
	}

	dec.register(o)
}

func hexBytes(bs []annot.Byte) string {
	var o strings.Builder
	for i, b := range bs {
		if i > 0 {
			o.WriteString(" ")
		}
		fmt.Fprintf(&o, "%02X", b.Value)
	}
	return o.String()
}
