// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustm

import (
	"fmt"

	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/logic"
)

// transfer is the bus activity between a START and a STOP condition.
type transfer struct {
	start  int64
	nbits  int
	bytes  []xbyte
	phases []addrPhase
	frames []*linkFrame

	mosi []annot.Byte // bytes driven by the master
	miso []annot.Byte // bytes driven by the slave
}

// xbyte is an address or data byte of a transfer.
type xbyte struct {
	v     byte
	start int64
	end   int64
	addr  bool
	write bool
}

// addrPhase is the part of a transfer following an address byte.
type addrPhase struct {
	addr    int // transfer position of the address byte
	write   bool
	matched bool
	reg     int // transfer position of the register byte, -1 if none
	data    []int

	register byte
	hasReg   bool
}

func (dec *Decoder) put(beg, end int64, class int, lbls ...string) {
	dec.out.Annotate(annot.Annotation{Start: beg, End: end, Class: class, Labels: lbls})
}

func (dec *Decoder) start(s logic.Sample) {
	dec.bits = dec.bits[:0]
	class, kind, lbls := ClassStart, annot.BusStart, []string{"START", "S"}
	if dec.repeat {
		class, kind, lbls = ClassRepeatStart, annot.BusRepeatStart, []string{"START REPEAT", "Sr"}
	}
	if !dec.active {
		dec.active = true
		dec.xfer = transfer{start: s.N}
	}
	dec.put(s.N, s.N, class, lbls...)
	dec.out.Event(annot.BusEvent{Start: s.N, End: s.N, Kind: kind})

	dec.state = findAddress
	dec.repeat = true
}

func (dec *Decoder) stop(s logic.Sample) {
	if dec.active && dec.rate > 0 {
		dec.out.Bitrate(annot.Bitrate{
			Start: dec.xfer.start,
			End:   s.N,
			Value: dec.rate * float64(dec.xfer.nbits) / float64(s.N-dec.xfer.start+1),
		})
	}
	dec.put(s.N, s.N, ClassStop, "STOP", "P")
	dec.out.Event(annot.BusEvent{Start: s.N, End: s.N, Kind: annot.BusStop})

	if dec.active {
		dec.finalize(s.N)
	}
	dec.state = findStart
	dec.repeat = false
	dec.bits = dec.bits[:0]
	dec.matched = false
	dec.linkOn = false
	dec.reg.phase = regIdle
}

// width returns the expected width of the bit being sampled.
func (dec *Decoder) width() int64 {
	if dec.bw < 1 {
		return 1
	}
	return dec.bw
}

func (dec *Decoder) bit(s logic.Sample) {
	if n := len(dec.bits); n > 0 {
		dec.bits[n-1].End = s.N
		dec.bw = s.N - dec.bits[n-1].Start
	}
	dec.bits = append(dec.bits, annot.Bit{
		Value: s.Pin(ChanSDA),
		Start: s.N,
		End:   s.N + dec.width(),
	})
	if len(dec.bits) == 8 {
		dec.byte(s)
	}
}

func (dec *Decoder) byte(s logic.Sample) {
	var (
		bits  = append([]annot.Bit(nil), dec.bits...)
		beg   = bits[0].Start
		end   = bits[7].End
		v     byte
		shown byte
		addr  = dec.state == findAddress
	)
	dec.bits = dec.bits[:0]
	for i, b := range bits {
		v |= b.Value << uint(7-i)
	}
	shown = v

	var (
		kind  annot.BusKind
		class int
		bin   int
		long  string
		short string
	)
	switch {
	case addr:
		dec.write = v&1 == 0
		dec.matched = v>>1 == dec.addr
		if dec.format == Shifted {
			shown = v >> 1
		}
		if dec.write {
			kind, class, bin, long, short = annot.BusAddressWrite, ClassAddressWrite, BinaryAddressWrite, "ADDRESS WRITE", "AW"
		} else {
			kind, class, bin, long, short = annot.BusAddressRead, ClassAddressRead, BinaryAddressRead, "ADDRESS READ", "AR"
		}
	case dec.write:
		kind, class, bin, long, short = annot.BusDataWrite, ClassDataWrite, BinaryDataWrite, "DATA WRITE", "DW"
	default:
		kind, class, bin, long, short = annot.BusDataRead, ClassDataRead, BinaryDataRead, "DATA READ", "DR"
	}

	dec.out.Event(annot.BusEvent{Start: beg, End: end, Kind: annot.BusBits, Bits: bits})
	dec.out.Event(annot.BusEvent{Start: beg, End: end, Kind: kind, Value: int(shown)})
	dec.out.Binary(annot.Binary{Start: beg, End: end, Class: bin, Data: []byte{shown}})
	for _, b := range bits {
		dec.put(b.Start, b.End, ClassBit, fmt.Sprintf("%d", b.Value))
	}

	lbls := []string{
		fmt.Sprintf("%s:0x%02X", long, shown),
		fmt.Sprintf("%s:%02X", short, shown),
		fmt.Sprintf("%02X", shown),
	}
	if addr {
		rw := []string{"READ", "RD", "R"}
		if dec.write {
			rw = []string{"WRITE", "WR", "W"}
		}
		dec.put(s.N, end, class, rw...)
		dec.put(beg, s.N, class, lbls...)
	} else {
		dec.put(beg, end, class, lbls...)
	}

	xb := xbyte{v: v, start: beg, end: end, addr: addr, write: dec.write}
	idx := len(dec.xfer.bytes)
	dec.xfer.bytes = append(dec.xfer.bytes, xb)
	dec.xfer.nbits += 8
	ab := annot.Byte{Start: beg, End: end, Value: v}
	if addr || dec.write {
		dec.xfer.mosi = append(dec.xfer.mosi, ab)
	} else {
		dec.xfer.miso = append(dec.xfer.miso, ab)
	}

	dec.register(xb, idx)
	dec.state = findAck
}

func (dec *Decoder) ack(s logic.Sample) {
	end := s.N + dec.width()
	class, kind, lbls := ClassAck, annot.BusAck, []string{"ACK", "A"}
	if s.Pin(ChanSDA) == 1 {
		class, kind, lbls = ClassNack, annot.BusNack, []string{"NACK", "N"}
	}
	dec.put(s.N, end, class, lbls...)
	dec.out.Event(annot.BusEvent{Start: s.N, End: end, Kind: kind})
	dec.state = findData
}
