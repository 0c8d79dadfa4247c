// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustm

import (
	"fmt"

	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/internal/crc16"
	"github.com/go-lpc/ifx/internal/span"
)

type linkPhase uint8

const (
	linkFCTR linkPhase = iota
	linkLenHi
	linkLenLo
	linkPayload
	linkFCSHi
	linkFCSLo
	linkDone
)

func (p linkPhase) String() string {
	switch p {
	case linkFCTR:
		return "FCTR"
	case linkLenHi, linkLenLo:
		return "LEN"
	case linkPayload:
		return "PAYLOAD"
	case linkFCSHi, linkFCSLo:
		return "FCS"
	case linkDone:
		return "DONE"
	}
	return fmt.Sprintf("linkPhase(%d)", uint8(p))
}

// FCTR and PCTR/SCTR bit fields.
const (
	fctrControl  = 0x80
	pctrPresence = 0x08
)

// linkByte is a DATA register byte handed to the datalink layer.
type linkByte struct {
	v     byte
	start int64
	end   int64
	idx   int // position within the transfer
}

// datalink is the datalink frame state machine of one DATA register
// access: FCTR, LEN (2 bytes), payload and FCS (2 bytes).
// The payload starts with PCTR, followed by SCTR when the presence flag
// is set, and by an APDU.
type datalink struct {
	phase    linkPhase
	write    bool
	first    int // transfer position of FCTR
	fctr     byte
	length   int
	lenStart int64
	n        int    // payload bytes consumed
	raw      []byte // FCTR, LEN and payload, covered by the FCS

	pres  bool
	chain byte
	msg   byte
	prot  byte

	apdu     apdu
	fcs      uint16
	fcsStart int64
}

func newDatalink(write bool) datalink {
	return datalink{phase: linkFCTR, write: write}
}

// linkFrame is a complete datalink frame.
type linkFrame struct {
	write   bool
	first   int // transfer position of FCTR
	last    int // transfer position of the FCS low byte
	fctr    byte
	length  int
	payload []byte
	fcs     uint16 // transmitted checksum
	crc     uint16 // computed checksum

	protected bool  // payload does not carry a plain APDU
	apdu      *apdu // nil unless the APDU header was decoded
}

func (f *linkFrame) control() bool { return f.fctr&fctrControl != 0 }
func (f *linkFrame) seqctr() byte  { return (f.fctr >> 5) & 0x3 }
func (f *linkFrame) frnr() byte    { return (f.fctr >> 2) & 0x3 }
func (f *linkFrame) acknr() byte   { return f.fctr & 0x3 }

type linkOut struct {
	anns  []annot.Annotation
	frame *linkFrame // set once the FCS has been received
}

func fieldLabels(long, mid, short string, v byte) []string {
	return []string{
		fmt.Sprintf("%s:%X", long, v),
		fmt.Sprintf("%s:%X", mid, v),
		fmt.Sprintf("%s:%X", short, v),
		fmt.Sprintf("%X", v),
	}
}

// step consumes the DATA register byte b.
func (d datalink) step(b linkByte) (datalink, linkOut) {
	var (
		out linkOut
		put = func(beg, end int64, class int, lbls ...string) {
			out.anns = append(out.anns, annot.Annotation{Start: beg, End: end, Class: class, Labels: lbls})
		}
		field = func(offset, width, class int, lbls []string) {
			beg, end := span.Bits(b.start, b.end, offset, width)
			put(beg, end, class, lbls...)
		}
	)

	switch d.phase {
	case linkFCTR:
		d = datalink{
			phase: linkLenHi,
			write: d.write,
			first: b.idx,
			fctr:  b.v,
			raw:   []byte{b.v},
		}
		if b.v&fctrControl != 0 {
			put(b.start, b.end, ClassControlFrame, "CONTROL FRAME", "CTLF", "CF", "C")
		} else {
			put(b.start, b.end, ClassDataFrame, "DATA FRAME", "DATF", "DF", "D")
		}
		field(0, 1, ClassFrameType, fieldLabels("FRAME TYPE", "FTYPE", "FT", b.v>>7))
		field(1, 2, ClassSeqCtr, fieldLabels("SEQCTR", "SEQ", "SQ", (b.v>>5)&0x3))
		field(3, 1, ClassRFU, []string{
			fmt.Sprintf("RFU:%X", (b.v>>4)&0x1),
			fmt.Sprintf("R:%X", (b.v>>4)&0x1),
			fmt.Sprintf("%X", (b.v>>4)&0x1),
		})
		field(4, 2, ClassFrameNr, fieldLabels("FRAME NUMBER", "FRNR", "FR", (b.v>>2)&0x3))
		field(6, 2, ClassAckNr, fieldLabels("ACKNR", "ACK", "AK", b.v&0x3))

	case linkLenHi:
		d.raw = append(d.raw, b.v)
		d.lenStart = b.start
		d.length = int(b.v) << 8
		d.phase = linkLenLo

	case linkLenLo:
		d.raw = append(d.raw, b.v)
		d.length |= int(b.v)
		put(d.lenStart, b.end, ClassFrameLen, lengthLabels(d.length)...)
		if d.fctr&fctrControl != 0 && d.length != 0 {
			put(d.lenStart, b.end, ClassHeaderErr,
				fmt.Sprintf("INVALID LENGTH:%d", d.length),
				fmt.Sprintf("INV LEN:%d", d.length),
				"E",
			)
		}
		d.phase = linkPayload
		if d.length == 0 {
			d.phase = linkFCSHi
		}

	case linkPayload:
		d.raw = append(d.raw, b.v)
		p := d.n
		d.n++
		out.anns = d.payload(p, b, out.anns)
		if d.n == d.length {
			d.phase = linkFCSHi
		}

	case linkFCSHi:
		d.fcsStart = b.start
		d.fcs = uint16(b.v) << 8
		d.phase = linkFCSLo

	case linkFCSLo:
		d.fcs |= uint16(b.v)
		d.phase = linkDone
		put(d.fcsStart, b.end, ClassChecksum,
			fmt.Sprintf("FRAME CHECKSUM:0x%04X", d.fcs),
			fmt.Sprintf("FCS:0x%04X", d.fcs),
			fmt.Sprintf("0x%04X", d.fcs),
		)
		crc := crc16.Checksum(d.raw, crc16.Kermit)
		if crc != d.fcs {
			put(d.fcsStart, b.end, ClassFrameErr, "CHECKSUM MISMATCH", "CRC ERROR", "E")
		}
		out.frame = &linkFrame{
			write:     d.write,
			first:     d.first,
			last:      b.idx,
			fctr:      d.fctr,
			length:    d.length,
			payload:   append([]byte(nil), d.raw[3:]...),
			fcs:       d.fcs,
			crc:       crc,
			protected: d.length > 0 && !d.plain(),
		}
		if d.plain() && d.apdu.hdr {
			a := d.apdu
			a.data = append([]byte(nil), a.data...)
			out.frame.apdu = &a
		}
	}
	return d, out
}

// hdrLen returns the number of control bytes heading the payload.
func (d datalink) hdrLen() int {
	if d.pres {
		return 2
	}
	return 1
}

// plain reports whether the payload carries an unchained, unprotected
// APDU outside of secure messaging.
func (d datalink) plain() bool {
	if d.chain != 0 || d.msg != 0 {
		return false
	}
	if d.write {
		return d.prot&0x1 == 0
	}
	return d.prot&0x2 == 0
}

func (d *datalink) payload(p int, b linkByte, anns []annot.Annotation) []annot.Annotation {
	var (
		put = func(beg, end int64, class int, lbls ...string) {
			anns = append(anns, annot.Annotation{Start: beg, End: end, Class: class, Labels: lbls})
		}
		field = func(offset, width, class int, lbls []string) {
			beg, end := span.Bits(b.start, b.end, offset, width)
			put(beg, end, class, lbls...)
		}
	)

	switch {
	case p == 0:
		d.pres = b.v&pctrPresence != 0
		d.chain = b.v & 0x7
		put(b.start, b.end, ClassPCTR, "PACKET CONTROL BYTE", "PCTR", "PC", "P")
		field(0, 4, ClassChannel, fieldLabels("CHANNEL", "CHAN", "CL", b.v>>4))
		field(4, 1, ClassPresence, fieldLabels("PRESENCE", "PRES", "P", (b.v>>3)&0x1))
		field(5, 3, ClassChaining, fieldLabels("CHAINING", "CHAIN", "CN", d.chain))
		return anns

	case p == 1 && d.pres:
		d.msg = (b.v >> 2) & 0x7
		d.prot = b.v & 0x3
		put(b.start, b.end, ClassSCTR, "SECURITY CONTROL BYTE", "SCTR", "SC", "S")
		field(0, 3, ClassProtocol, fieldLabels("PROTOCOL", "PROTO", "PR", b.v>>5))
		field(3, 3, ClassMessage, fieldLabels("MESSAGE", "MESS", "MG", d.msg))
		field(6, 2, ClassProtection, fieldLabels("PROTECTION", "PROTECT", "PT", d.prot))
		return anns
	}

	class := ClassPacketRead
	if d.write {
		class = ClassPacketWrite
	}
	if !d.plain() {
		put(b.start, b.end, class,
			fmt.Sprintf("PROTECTED:0x%02X", b.v),
			fmt.Sprintf("PR:%02X", b.v),
			fmt.Sprintf("%02X", b.v),
		)
		return anns
	}
	put(b.start, b.end, class, dataLabels(d.write, b.v)...)

	var out []annot.Annotation
	d.apdu, out = d.apdu.step(d.write, p-d.hdrLen(), b)
	return append(anns, out...)
}
