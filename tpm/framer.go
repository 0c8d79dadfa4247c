// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tpm

import (
	"fmt"

	"github.com/go-lpc/ifx/annot"
)

// cmdHeaderSize is the size of a TPM command/response header:
// tag (2 bytes), length (4 bytes) and command or response code (4 bytes).
const cmdHeaderSize = 10

type phase uint8

const (
	phaseIdle phase = iota
	phaseTag
	phaseLength
	phaseCode
	phasePayload
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "IDLE"
	case phaseTag:
		return "TAG"
	case phaseLength:
		return "LENGTH"
	case phaseCode:
		return "CODE"
	case phasePayload:
		return "PAYLOAD"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// framer is the command/response frame state machine.
type framer struct {
	phase     phase
	n         int   // header bytes consumed
	write     bool  // command when true, response otherwise
	start     int64 // start of the header field being accumulated
	tag       uint16
	length    uint32
	code      uint32
	remaining uint32
}

type frameOut struct {
	anns []annot.Annotation
	used bool     // byte belongs to the frame
	done bool     // frame complete
	err  []string // labels of the error closing the frame, if any
}

// step consumes the FIFO byte v, of the provided direction, spanning
// [start, end).
// Bytes flowing in the direction opposite to the current frame are
// not consumed.
func (f framer) step(write bool, v byte, start, end int64) (framer, frameOut) {
	var out frameOut
	if f.phase != phaseIdle && write != f.write {
		return f, out
	}
	out.used = true

	switch f.phase {
	case phaseIdle:
		f = framer{phase: phaseTag, write: write, start: start, n: 1}
		f.tag = uint16(v) << 8

	case phaseTag:
		f.tag |= uint16(v)
		f.n++
		lbls, ok := tags[f.tag]
		class := ClassCmdTag
		if !ok {
			class, lbls = ClassCmdErr, errLabels
		}
		out.anns = append(out.anns, annot.Annotation{
			Start: f.start, End: end, Class: class, Labels: lbls,
		})
		f.phase = phaseLength

	case phaseLength:
		if f.n == 2 {
			f.start = start
		}
		f.length = f.length<<8 | uint32(v)
		f.n++
		if f.n < 6 {
			break
		}
		out.anns = append(out.anns, annot.Annotation{
			Start: f.start, End: end, Class: ClassCmdLen,
			Labels: lengthLabels(f.length),
		})
		if f.length < cmdHeaderSize {
			out.err = []string{
				fmt.Sprintf("LENGTH TOO SHORT:%d", f.length),
				fmt.Sprintf("SHORT:%d", f.length),
				"SH",
			}
			out.anns = append(out.anns, annot.Annotation{
				Start: f.start, End: end, Class: ClassCmdErr, Labels: out.err,
			})
			out.done = true
			return framer{}, out
		}
		f.phase = phaseCode

	case phaseCode:
		if f.n == 6 {
			f.start = start
		}
		f.code = f.code<<8 | uint32(v)
		f.n++
		if f.n < cmdHeaderSize {
			break
		}
		switch {
		case f.write:
			lbls, ok := cmdLabels(f.code)
			class := ClassCmdCode
			if !ok {
				class, lbls = ClassCmdErr, errLabels
			}
			out.anns = append(out.anns, annot.Annotation{
				Start: f.start, End: end, Class: class, Labels: lbls,
			})
		default:
			out.anns = append(out.anns, annot.Annotation{
				Start: f.start, End: end, Class: ClassCmdDataRead,
				Labels: rcLabels(f.code),
			})
		}
		f.remaining = f.length - cmdHeaderSize
		out.anns = append(out.anns, annot.Annotation{
			Start: f.start, End: end, Class: ClassState3,
			Labels: []string{fmt.Sprintf("remaining : %d", f.remaining)},
		})
		if f.remaining == 0 {
			out.done = true
			return framer{}, out
		}
		f.phase = phasePayload

	case phasePayload:
		class := ClassCmdDataRead
		if f.write {
			class = ClassCmdDataWrite
		}
		out.anns = append(out.anns, annot.Annotation{
			Start: start, End: end, Class: class,
			Labels: byteLabels(f.write, v),
		})
		f.remaining--
		if f.remaining == 0 {
			out.done = true
			return framer{}, out
		}
	}
	return f, out
}

func lengthLabels(n uint32) []string {
	return []string{
		fmt.Sprintf("LENGTH:%d", n),
		fmt.Sprintf("LEN:%d", n),
		fmt.Sprintf("%d", n),
	}
}
