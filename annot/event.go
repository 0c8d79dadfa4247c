// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package annot

import (
	"fmt"
)

// Event is a typed record for chained decoders.
type Event interface {
	Span() (start, end int64)
}

// Unknown marks an unknown bus level.
const Unknown = -1

// IdleChange reports a change of the bus-idle line (chip-select).
// Old and New are line levels, or Unknown.
type IdleChange struct {
	At  int64
	Old int
	New int
}

// Bit is a single sampled data bit.
type Bit struct {
	Value uint8
	Start int64
	End   int64
}

// BitsEvent holds the bits of one byte period, MSB first.
// A lane without a data channel holds no bits.
type BitsEvent struct {
	Start int64
	End   int64
	MOSI  []Bit
	MISO  []Bit
}

// DataEvent holds the byte values of one byte period.
// A lane without a data channel holds Unknown.
type DataEvent struct {
	Start int64
	End   int64
	MOSI  int
	MISO  int
}

// Byte is a byte with its sample range.
type Byte struct {
	Start int64
	End   int64
	Value byte
}

// TransferEvent holds all the bytes of a completed transfer.
type TransferEvent struct {
	Start int64
	End   int64
	MOSI  []Byte
	MISO  []Byte
}

// BusKind is the kind of a BusEvent.
type BusKind uint8

const (
	BusStart BusKind = iota + 1
	BusRepeatStart
	BusStop
	BusAck
	BusNack
	BusBits
	BusAddressRead
	BusAddressWrite
	BusDataRead
	BusDataWrite
)

func (k BusKind) String() string {
	switch k {
	case BusStart:
		return "START"
	case BusRepeatStart:
		return "START REPEAT"
	case BusStop:
		return "STOP"
	case BusAck:
		return "ACK"
	case BusNack:
		return "NACK"
	case BusBits:
		return "BITS"
	case BusAddressRead:
		return "ADDRESS READ"
	case BusAddressWrite:
		return "ADDRESS WRITE"
	case BusDataRead:
		return "DATA READ"
	case BusDataWrite:
		return "DATA WRITE"
	}
	return fmt.Sprintf("BusKind(%d)", uint8(k))
}

// BusEvent is a two-wire bus condition or byte.
type BusEvent struct {
	Start int64
	End   int64
	Kind  BusKind
	Value int
	Bits  []Bit
}

// FrameEvent is a reassembled command or response frame.
type FrameEvent struct {
	Start  int64
	End    int64
	Bus    string // "spi" or "i2c"
	Write  bool   // command when true, response otherwise
	Tag    uint32
	Length uint32
	Code   uint32
	Name   string
	Data   []byte
}

func (e IdleChange) Span() (int64, int64)    { return e.At, e.At }
func (e BitsEvent) Span() (int64, int64)     { return e.Start, e.End }
func (e DataEvent) Span() (int64, int64)     { return e.Start, e.End }
func (e TransferEvent) Span() (int64, int64) { return e.Start, e.End }
func (e BusEvent) Span() (int64, int64)      { return e.Start, e.End }
func (e FrameEvent) Span() (int64, int64)    { return e.Start, e.End }

var (
	_ Event = IdleChange{}
	_ Event = BitsEvent{}
	_ Event = DataEvent{}
	_ Event = TransferEvent{}
	_ Event = BusEvent{}
	_ Event = FrameEvent{}
)
