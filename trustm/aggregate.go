// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustm

import (
	"fmt"
	"strings"

	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/internal/span"
	"github.com/sirupsen/logrus"
)

// finalize closes the current transfer at sample at and emits its
// consolidated annotations, evenly re-segmented over the transfer.
func (dec *Decoder) finalize(at int64) {
	var (
		x = dec.xfer
		n = len(x.bytes)
	)
	dec.active = false
	dec.xfer = transfer{}

	dec.out.Event(annot.TransferEvent{Start: x.start, End: at, MOSI: x.mosi, MISO: x.miso})
	dec.msg.WithFields(logrus.Fields{
		"start":  x.start,
		"end":    at,
		"bytes":  n,
		"frames": len(x.frames),
	}).Debugf("transfer")

	if n == 0 {
		return
	}

	seg := func(i, j int) (int64, int64) {
		return span.Seg(x.start, at, n, i, j-i+1)
	}
	put := func(i, j, class int, lbls ...string) {
		beg, end := seg(i, j)
		dec.put(beg, end, class, lbls...)
	}

	for _, ph := range x.phases {
		if !ph.matched {
			continue
		}
		last := ph.addr
		if ph.reg >= 0 {
			last = ph.reg
		}
		if ph.hasReg {
			if _, lbls, ok := regLabels(ph.register); ok {
				put(ph.addr, last, ClassSummaryReg, lbls...)
			} else {
				put(ph.addr, last, ClassSummaryErr, errLabels...)
			}
		}

		nd := len(ph.data)
		if nd == 0 {
			continue
		}
		first, end := ph.data[0], ph.data[nd-1]
		class := ClassSummaryRead
		if ph.write {
			class = ClassSummaryWrite
		}
		put(first, end, class, hexBytes(x.bytes, ph.data))

		if !ph.hasReg || ph.register != regI2CState {
			continue
		}
		if nd >= 3 {
			put(first, first, ClassSummaryState, stateLabels(x.bytes[first].v)...)
		}
		if nd >= 2 {
			var (
				hi = ph.data[nd-2]
				lo = ph.data[nd-1]
			)
			length := int(x.bytes[hi].v)<<8 | int(x.bytes[lo].v)
			put(hi, lo, ClassSummaryLen, lengthLabels(length)...)
		}
	}

	for _, f := range x.frames {
		dec.emitFrame(f, seg)
	}
}

func (dec *Decoder) emitFrame(f *linkFrame, seg func(i, j int) (int64, int64)) {
	beg, end := seg(f.first, f.last)
	kind, short := "DATA FRAME", "DF"
	if f.control() {
		kind, short = "CONTROL FRAME", "CF"
	}
	dec.put(beg, end, ClassSummaryLink,
		fmt.Sprintf("%s SEQ:%d FRNR:%d ACKNR:%d LEN:%d", kind, f.seqctr(), f.frnr(), f.acknr(), f.length),
		fmt.Sprintf("%s LEN:%d", short, f.length),
		short,
	)

	if f.crc != f.fcs {
		dec.put(beg, end, ClassSummaryErr, "CHECKSUM MISMATCH", "CRC ERROR", "E")
		return
	}
	if f.protected {
		dec.put(beg, end, ClassSummaryAPDU, "PROTECTED", "PROT", "P")
		return
	}
	a := f.apdu
	if a == nil {
		return
	}

	// the APDU ends right before the FCS.
	abeg, aend := seg(a.first, f.last-2)
	dec.put(abeg, aend, ClassSummaryAPDU, a.summary(f.write)...)

	name := ""
	if f.write {
		name = cmdName(a.code)
	}
	dec.out.Event(annot.FrameEvent{
		Start:  beg,
		End:    end,
		Bus:    "i2c",
		Write:  f.write,
		Tag:    uint32(f.fctr),
		Length: uint32(a.length),
		Code:   uint32(a.code),
		Name:   name,
		Data:   a.data,
	})
}

func hexBytes(bs []xbyte, idx []int) string {
	var o strings.Builder
	for i, j := range idx {
		if i > 0 {
			o.WriteString(" ")
		}
		fmt.Fprintf(&o, "%02X", bs[j].v)
	}
	return o.String()
}
