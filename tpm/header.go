// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tpm

import (
	"fmt"

	"github.com/go-lpc/ifx/annot"
)

// headerSize is the number of register header bytes of a transfer.
const headerSize = 4

// header is the TPM SPI register header of a transfer.
type header struct {
	count    int // number of bytes consumed in the transfer
	size     int // declared number of data bytes
	write    bool
	addr     uint16
	ack      bool
	regStart int64
}

func (h header) locality() int { return int(h.addr >> 12) }

// step consumes the byte at position h.count of the transfer.
func (h header) step(o octet) (header, []annot.Annotation) {
	var anns []annot.Annotation
	switch h.count {
	case 0:
		h.size = int(o.mosi&0x7f) + 1
		h.write = o.mosi&0x80 == 0
		if h.write {
			anns = append(anns, annot.Annotation{
				Start: o.start, End: o.end, Class: ClassRegHeaderWrite,
				Labels: []string{
					fmt.Sprintf("WRITE:%d", h.size),
					fmt.Sprintf("WR:%d", h.size),
					fmt.Sprintf("W:%d", h.size),
				},
			})
		} else {
			anns = append(anns, annot.Annotation{
				Start: o.start, End: o.end, Class: ClassRegHeaderRead,
				Labels: []string{
					fmt.Sprintf("READ:%d", h.size),
					fmt.Sprintf("RD:%d", h.size),
					fmt.Sprintf("R:%d", h.size),
				},
			})
		}
	case 1:
		// bus prefix byte (0xD4).
		h.regStart = o.start
	case 2:
		h.addr = uint16(o.mosi) << 8
	case 3:
		h.addr |= uint16(o.mosi)
		h.ack = o.miso == 0x01
		class, lbls, ok := lookupReg(h.addr)
		if !ok {
			class, lbls = ClassRegErr, errLabels
		}
		anns = append(anns, annot.Annotation{
			Start: h.regStart, End: o.end, Class: class, Labels: lbls,
		})
		if h.ack {
			anns = append(anns, annot.Annotation{
				Start: o.start, End: o.end, Class: ClassRegAck,
				Labels: []string{"ACK", "AK", "A"},
			})
		} else {
			anns = append(anns, annot.Annotation{
				Start: o.start, End: o.end, Class: ClassRegNack,
				Labels: []string{"NACK", "NK", "N"},
			})
		}
	default:
		class := ClassRegDataRead
		if h.write {
			class = ClassRegDataWrite
		}
		anns = append(anns, annot.Annotation{
			Start: o.start, End: o.end, Class: class,
			Labels: byteLabels(h.write, o.value(h.write)),
		})
	}
	h.count++
	return h, anns
}

// byteLabels returns the label variants of a data byte read or written.
func byteLabels(write bool, v byte) []string {
	if write {
		return []string{
			fmt.Sprintf("WRITE:0x%02X", v),
			fmt.Sprintf("WR:0x%02X", v),
			fmt.Sprintf("W:%02X", v),
			fmt.Sprintf("%02X", v),
		}
	}
	return []string{
		fmt.Sprintf("READ:0x%02X", v),
		fmt.Sprintf("RD:0x%02X", v),
		fmt.Sprintf("R:%02X", v),
		fmt.Sprintf("%02X", v),
	}
}

// register routes the byte o through the register header, status and
// frame decoders.
func (dec *Decoder) register(o octet) {
	pos := dec.hdr.count
	var anns []annot.Annotation
	dec.hdr, anns = dec.hdr.step(o)
	dec.annotate(anns)
	if pos < headerSize {
		return
	}

	var (
		write = dec.hdr.write
		abort bool
	)
	switch dec.hdr.addr & 0xfff {
	case regAccess:
		dec.sts, anns = dec.sts.decodeAccess(o, write, pos)
		dec.annotate(anns)
	case regSTS:
		dec.sts, anns, abort = dec.sts.decodeSTS(o, write, pos)
		dec.annotate(anns)
		if abort && dec.cur != nil {
			dec.truncate()
		}
	}

	if !isFIFO(dec.hdr.addr) {
		return
	}

	var out frameOut
	dec.fr, out = dec.fr.step(write, o.value(write), o.start, o.end)
	dec.annotate(out.anns)
	if !out.used {
		return
	}
	if dec.cur == nil {
		dec.cur = &frameRec{write: write}
		dec.frames = append(dec.frames, dec.cur)
	}
	dec.cur.bytes = append(dec.cur.bytes, frameByte{
		xfer: dec.xfer.id,
		idx:  len(dec.xfer.mosi) - 1,
		v:    o.value(write),
	})
	if out.done {
		dec.cur.closed = true
		dec.cur.err = out.err
		dec.msg.WithFields(logFields(dec.cur)).Debugf("frame closed")
		dec.cur = nil
	}
}

func (dec *Decoder) annotate(anns []annot.Annotation) {
	for _, a := range anns {
		dec.out.Annotate(a)
	}
}
