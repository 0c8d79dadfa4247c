// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tpm

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/internal/span"
	"github.com/sirupsen/logrus"
)

// frameRec is a command or response frame, possibly spanning several
// transfers.
type frameRec struct {
	write  bool
	bytes  []frameByte
	closed bool
	err    []string
}

// frameByte is a frame byte and its evenly re-segmented span within
// its transfer.
type frameByte struct {
	xfer   int
	idx    int
	v      byte
	start  int64
	end    int64
	placed bool
}

func (rec *frameRec) data() []byte {
	o := make([]byte, len(rec.bytes))
	for i, b := range rec.bytes {
		o[i] = b.v
	}
	return o
}

// span returns the sample range of the k frame bytes starting at i.
func (rec *frameRec) span(i, k int) (int64, int64) {
	j := i + k - 1
	if j >= len(rec.bytes) {
		j = len(rec.bytes) - 1
	}
	return rec.bytes[i].start, rec.bytes[j].end
}

func logFields(rec *frameRec) logrus.Fields {
	fields := logrus.Fields{
		"write": rec.write,
		"bytes": len(rec.bytes),
	}
	if data := rec.data(); len(data) >= cmdHeaderSize {
		fields["tag"] = fmt.Sprintf("0x%04X", binary.BigEndian.Uint16(data[0:2]))
		fields["len"] = binary.BigEndian.Uint32(data[2:6])
		fields["code"] = fmt.Sprintf("0x%08X", binary.BigEndian.Uint32(data[6:10]))
	}
	return fields
}

// truncate closes the frame being received.
func (dec *Decoder) truncate() {
	dec.cur.closed = true
	dec.cur.err = []string{"FRAME TRUNCATED", "TRUNCATED", "TR"}
	dec.msg.WithFields(logFields(dec.cur)).Debugf("frame truncated in phase %v", dec.fr.phase)
	dec.cur = nil
	dec.fr = framer{}
}

// finalize closes the current transfer at sample at and emits its
// consolidated annotations.
func (dec *Decoder) finalize(at int64) {
	if dec.acc.len() > 0 {
		dec.flushByte(at)
	}

	var (
		x = dec.xfer
		n = len(x.mosi)
	)
	dec.active = false

	if n > 0 {
		if dec.hasMISO {
			dec.out.Annotate(annot.Annotation{
				Start: x.start, End: at, Class: ClassMISOTransfer,
				Labels: []string{hexBytes(x.miso)},
			})
		}
		if dec.hasMOSI {
			dec.out.Annotate(annot.Annotation{
				Start: x.start, End: at, Class: ClassMOSITransfer,
				Labels: []string{hexBytes(x.mosi)},
			})
		}
	}
	dec.out.Event(annot.TransferEvent{Start: x.start, End: at, MOSI: x.mosi, MISO: x.miso})

	dec.msg.WithFields(logrus.Fields{
		"start":    x.start,
		"end":      at,
		"bytes":    n,
		"register": regName(dec.hdr.addr),
		"locality": dec.hdr.locality(),
	}).Debugf("transfer")

	if n == 0 {
		dec.emitFrames()
		return
	}

	dec.regSummary(x, at)

	for _, rec := range dec.frames {
		for i := range rec.bytes {
			b := &rec.bytes[i]
			if b.xfer != x.id {
				continue
			}
			b.start, b.end = span.Seg(x.start, at, n, b.idx, 1)
			b.placed = true
		}
	}
	dec.emitFrames()
}

// regSummary emits the consolidated register annotations of transfer x,
// evenly re-segmented over [x.start, end).
func (dec *Decoder) regSummary(x transfer, end int64) {
	var (
		h   = dec.hdr
		n   = len(x.mosi)
		seg = func(i, k int) (int64, int64) {
			return span.Seg(x.start, end, n, i, k)
		}
		put = func(beg, end int64, class int, lbls ...string) {
			dec.out.Annotate(annot.Annotation{Start: beg, End: end, Class: class, Labels: lbls})
		}
	)

	beg, fin := seg(0, 1)
	if h.write {
		put(beg, fin, ClassFrameRegSizeWrite,
			fmt.Sprintf("WRITE:%d", h.size), fmt.Sprintf("WR:%d", h.size), fmt.Sprintf("W:%d", h.size),
		)
	} else {
		put(beg, fin, ClassFrameRegSizeRead,
			fmt.Sprintf("READ:%d", h.size), fmt.Sprintf("RD:%d", h.size), fmt.Sprintf("R:%d", h.size),
		)
	}
	if n < headerSize {
		return
	}

	beg, fin = seg(1, 2)
	if _, lbls, ok := lookupReg(h.addr); ok {
		put(beg, fin, ClassFrameRegName, lbls...)
	} else {
		put(beg, fin, ClassFrameRegErr, errLabels...)
	}

	beg, fin = seg(3, 1)
	if h.ack {
		put(beg, fin, ClassFrameRegAck, "ACK", "AK", "A")
	} else {
		put(beg, fin, ClassFrameRegNack, "NACK", "NK", "N")
	}

	if n == headerSize {
		return
	}

	data := x.miso[headerSize:]
	class := ClassFrameDataRead
	if h.write {
		data = x.mosi[headerSize:]
		class = ClassFrameDataWrite
	}
	dbeg, dend := seg(headerSize, n-headerSize)
	put(dbeg, dend, class, hexBytes(data))

	if !dec.sts.decoded {
		return
	}
	st := dec.sts
	b0, b1 := seg(headerSize, 1)

	switch h.addr & 0xfff {
	case regAccess:
		switch {
		case h.write:
			switch st.request {
			case "RELINQUISH", "CLEAR SEIZED", "SEIZE", "REQUEST":
				put(dbeg, dend, ClassFrameState6, st.request)
			default:
				put(dbeg, dend, ClassFrameState3, st.request)
			}
		case st.valid:
			lbl := st.state
			if st.pending {
				lbl += " PENDING"
			}
			class := ClassFrameState1
			if st.state != "ACTIVE" || st.pending {
				class = ClassFrameState3
			}
			beg, fin = span.Bits(b0, b1, 0, 7)
			put(beg, fin, class, lbl)
			beg, fin = span.Bits(b0, b1, 7, 1)
			put(beg, fin, ClassFrameState2,
				fmt.Sprintf("ESTABLISHMENT:%d", st.estab),
				fmt.Sprintf("EST:%d", st.estab),
				fmt.Sprintf("%d", st.estab),
			)
		default:
			put(dbeg, dend, ClassFrameState3, "INVALID FLAG")
		}

	case regSTS:
		if h.write {
			switch {
			case st.tpmGo+st.cmdReady+st.respRetry != 1:
				put(dbeg, dend, ClassFrameState3,
					fmt.Sprintf("ERROR : %d%d%d", st.tpmGo, st.cmdReady, st.respRetry),
				)
			case st.tpmGo == 1:
				put(dbeg, dend, ClassFrameState4, "TPMGO", "GO")
			case st.cmdReady == 1:
				put(dbeg, dend, ClassFrameState5, "COMMAND ABORT", "ABORT", "AB")
			default:
				put(dbeg, dend, ClassFrameState5, "RESPONSE RETRY", "RETRY", "RT")
			}
			return
		}

		beg, fin = span.Bits(b0, b1, 0, 2)
		if st.cmdReady == 1 {
			put(beg, fin, ClassFrameState1, "COMMAND READY", "READY", "RY")
		} else {
			put(beg, fin, ClassFrameState3, "COMMAND BUSY", "BUSY", "BZ")
		}

		beg, fin = span.Bits(b0, b1, 3, 2)
		switch {
		case !st.stsValid:
			put(beg, fin, ClassFrameState3, "INVALID DATA_AVAIL/EXPECT FLAG", "IVD AVA/EXP")
		case st.dataAvail == 1:
			put(beg, fin, ClassFrameState1, "DATA AVAILABLE", "DATA", "DA")
		case st.expect == 1:
			put(beg, fin, ClassFrameState1, "EXPECT COMMAND", "EXPECT", "EP")
		default:
			put(beg, fin, ClassFrameState1, "NONE", "NN")
		}

		beg, fin = span.Bits(b0, b1, 5, 1)
		put(beg, fin, ClassFrameState1,
			fmt.Sprintf("SELFTESTDONE:%d", st.selfTest),
			fmt.Sprintf("STEST:%d", st.selfTest),
			fmt.Sprintf("ST:%d", st.selfTest),
		)

		if st.hasBurst {
			beg, fin = seg(headerSize+1, 2)
			put(beg, fin, ClassFrameState1, burstLabels(st.burst)...)
		}
	}
}

// emitFrames emits the consolidated annotations of all the closed frames
// whose bytes have all been placed.
func (dec *Decoder) emitFrames() {
	var keep []*frameRec
	for _, rec := range dec.frames {
		if !rec.closed || !rec.ready() {
			keep = append(keep, rec)
			continue
		}
		dec.emitFrame(rec)
	}
	dec.frames = keep
}

func (rec *frameRec) ready() bool {
	for _, b := range rec.bytes {
		if !b.placed {
			return false
		}
	}
	return true
}

func (dec *Decoder) emitFrame(rec *frameRec) {
	n := len(rec.bytes)
	if n == 0 {
		return
	}
	var (
		data = rec.data()
		put  = func(i, k, class int, lbls ...string) {
			beg, end := rec.span(i, k)
			dec.out.Annotate(annot.Annotation{Start: beg, End: end, Class: class, Labels: lbls})
		}
		tag    uint16
		length uint32
		code   uint32
	)

	if n >= 2 {
		tag = binary.BigEndian.Uint16(data[0:2])
		if lbls, ok := tags[tag]; ok {
			put(0, 2, ClassFrameCmdTag, lbls...)
		} else {
			put(0, 2, ClassFrameCmdErr,
				fmt.Sprintf("UNKNOWN TAG : 0x%04X", tag),
				fmt.Sprintf("UNKNOWN:0x%04X", tag),
				fmt.Sprintf("U:%04X", tag),
			)
		}
	}
	if n >= 6 {
		length = binary.BigEndian.Uint32(data[2:6])
		put(2, 4, ClassFrameCmdLen, lengthLabels(length)...)
	}
	if n >= cmdHeaderSize {
		code = binary.BigEndian.Uint32(data[6:10])
		switch {
		case rec.write:
			if lbls, ok := cmdLabels(code); ok {
				put(6, 4, ClassFrameCmdCode, lbls...)
			} else {
				put(6, 4, ClassFrameCmdErr,
					fmt.Sprintf("UNKNOWN CMD : 0x%08X", code),
					fmt.Sprintf("UNKNOWN:0x%08X", code),
					fmt.Sprintf("U:%08X", code),
				)
			}
		default:
			put(6, 4, ClassFrameCmdDataRead, rcLabels(code)...)
		}
	}
	if n > cmdHeaderSize {
		class := ClassFrameCmdDataRead
		if rec.write {
			class = ClassFrameCmdDataWrite
		}
		payload := make([]string, 0, n-cmdHeaderSize)
		for _, v := range data[cmdHeaderSize:] {
			payload = append(payload, fmt.Sprintf("%02X", v))
		}
		put(cmdHeaderSize, n-cmdHeaderSize, class, strings.Join(payload, " "))
	}

	if rec.err != nil {
		put(0, n, ClassFrameCmdErr, rec.err...)
		return
	}

	beg, end := rec.span(0, n)
	name := ""
	if rec.write {
		name = cmdName(code)
	}
	dec.out.Event(annot.FrameEvent{
		Start:  beg,
		End:    end,
		Bus:    "spi",
		Write:  rec.write,
		Tag:    uint32(tag),
		Length: length,
		Code:   code,
		Name:   name,
		Data:   data[cmdHeaderSize:],
	})
}
