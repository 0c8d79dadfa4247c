// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustm

import (
	"fmt"

	"github.com/go-lpc/ifx/annot"
)

// apduHeaderSize is the size of an APDU header: command (or status),
// parameter (or undefined) and a 2-byte length.
const apduHeaderSize = 4

// apdu is a command or response APDU carried by a datalink frame.
type apdu struct {
	first    int // transfer position of the first APDU byte
	start    int64
	code     byte // command code or response status
	param    byte
	length   int
	lenStart int64
	hdr      bool // header complete
	data     []byte
}

func (a apdu) success() bool { return a.code == 0 }

// step consumes the APDU byte at position i.
func (a apdu) step(write bool, i int, b linkByte) (apdu, []annot.Annotation) {
	var (
		anns []annot.Annotation
		put  = func(beg, end int64, class int, lbls ...string) {
			anns = append(anns, annot.Annotation{Start: beg, End: end, Class: class, Labels: lbls})
		}
	)

	switch i {
	case 0:
		a = apdu{first: b.idx, start: b.start, code: b.v}
		switch {
		case write:
			lbls, ok := cmdLabels(b.v)
			if !ok {
				put(b.start, b.end, ClassAPDUErr, errLabels...)
				break
			}
			put(b.start, b.end, ClassAPDUCmd, lbls...)
		case b.v == 0:
			put(b.start, b.end, ClassAPDUCmd, "STATUS:SUCCESS", "STA:SUCCESS", "OK", "00")
		default:
			put(b.start, b.end, ClassAPDUErr,
				fmt.Sprintf("STATUS:ERROR:0x%02X", b.v),
				fmt.Sprintf("STA:0x%02X", b.v),
				fmt.Sprintf("%02X", b.v),
			)
		}

	case 1:
		a.param = b.v
		if write {
			put(b.start, b.end, ClassAPDUParam,
				fmt.Sprintf("PARAM:0x%02X", b.v),
				fmt.Sprintf("PR:0x%02X", b.v),
				fmt.Sprintf("P:%02X", b.v),
				fmt.Sprintf("%02X", b.v),
			)
		} else {
			put(b.start, b.end, ClassAPDUParam,
				fmt.Sprintf("UNDEF:0x%02X", b.v),
				fmt.Sprintf("UD:%02X", b.v),
				fmt.Sprintf("%02X", b.v),
			)
		}

	case 2:
		a.lenStart = b.start
		a.length = int(b.v) << 8

	case 3:
		a.length |= int(b.v)
		a.hdr = true
		put(a.lenStart, b.end, ClassAPDULen, lengthLabels(a.length)...)
		if write {
			put(a.start, b.end, ClassAPDU, "COMMAND APDU", "CMD APDU", "C")
		} else {
			put(a.start, b.end, ClassAPDU, "RESPONSE APDU", "RSP APDU", "R")
		}

	default:
		if len(a.data) >= a.length {
			put(b.start, b.end, ClassAPDUErr,
				fmt.Sprintf("UNEXPECTED DATA:0x%02X", b.v),
				fmt.Sprintf("UNEXP:%02X", b.v),
				fmt.Sprintf("%02X", b.v),
			)
			break
		}
		a.data = append(a.data, b.v)
		class := ClassAPDUDataRead
		if write {
			class = ClassAPDUDataWrite
		}
		put(b.start, b.end, class, dataLabels(write, b.v)...)
	}
	return a, anns
}

// summary returns the label variants of a decoded APDU.
func (a *apdu) summary(write bool) []string {
	if write {
		cmd, ok := lookupCmd(a.code)
		name, short := "UNKNOWN", "U"
		if ok {
			name, short = cmd.name, cmd.short
		}
		return []string{
			fmt.Sprintf("CMD %s:0x%02X PARAM:0x%02X LEN:%d", name, a.code, a.param, a.length),
			fmt.Sprintf("%s LEN:%d", short, a.length),
			short,
		}
	}
	if a.success() {
		return []string{
			fmt.Sprintf("STATUS:SUCCESS LEN:%d", a.length),
			fmt.Sprintf("OK LEN:%d", a.length),
			"OK",
		}
	}
	return []string{
		fmt.Sprintf("STATUS:ERROR:0x%02X LEN:%d", a.code, a.length),
		fmt.Sprintf("ERR:%02X", a.code),
		"E",
	}
}
