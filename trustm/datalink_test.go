// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustm

import (
	"reflect"
	"testing"
)

func TestDatalinkFCTR(t *testing.T) {
	d := newDatalink(true)
	d, out := d.step(linkByte{v: 0x6d, start: 0, end: 80, idx: 1})
	if got, want := d.phase, linkLenHi; got != want {
		t.Fatalf("invalid phase: got=%v, want=%v", got, want)
	}

	type field struct {
		class    int
		beg, end int64
		label    string
	}
	var got []field
	for _, a := range out.anns {
		got = append(got, field{a.Class, a.Start, a.End, a.Label()})
	}
	want := []field{
		{ClassDataFrame, 0, 80, "DATA FRAME"},
		{ClassFrameType, 0, 10, "FRAME TYPE:0"},
		{ClassSeqCtr, 10, 30, "SEQCTR:3"},
		{ClassRFU, 30, 40, "RFU:0"},
		{ClassFrameNr, 40, 60, "FRAME NUMBER:3"},
		{ClassAckNr, 60, 80, "ACKNR:1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid FCTR fields:\ngot= %+v\nwant=%+v", got, want)
	}
}

func TestDatalinkFrame(t *testing.T) {
	raw := frame(0x24, 0x00, 0x0c, 0x00, 0x00, 0x01, 0x42)
	var (
		d     = newDatalink(false)
		out   linkOut
		steps []linkPhase
	)
	for i, v := range raw {
		d, out = d.step(linkByte{v: v, start: int64(10 * i), end: int64(10*i + 9), idx: i})
		steps = append(steps, d.phase)
		if out.frame != nil && i != len(raw)-1 {
			t.Fatalf("frame emitted early at byte %d", i)
		}
	}
	want := []linkPhase{
		linkLenHi, linkLenLo, linkPayload,
		linkPayload, linkPayload, linkPayload, linkPayload, linkPayload, linkFCSHi,
		linkFCSLo, linkDone,
	}
	if !reflect.DeepEqual(steps, want) {
		t.Fatalf("invalid phases: got=%v, want=%v", steps, want)
	}

	f := out.frame
	switch {
	case f == nil:
		t.Fatalf("no frame")
	case f.crc != f.fcs:
		t.Fatalf("invalid checksum: crc=0x%04x, fcs=0x%04x", f.crc, f.fcs)
	case f.control():
		t.Fatalf("invalid frame type")
	case f.seqctr() != 1 || f.frnr() != 1 || f.acknr() != 0:
		t.Fatalf("invalid sequence numbers: seq=%d frnr=%d acknr=%d", f.seqctr(), f.frnr(), f.acknr())
	case f.first != 0 || f.last != len(raw)-1:
		t.Fatalf("invalid frame positions: [%d, %d]", f.first, f.last)
	case f.apdu == nil:
		t.Fatalf("no APDU")
	case f.apdu.code != 0x0c || !reflect.DeepEqual(f.apdu.data, []byte{0x42}):
		t.Fatalf("invalid APDU: %+v", *f.apdu)
	}

	if got, want := linkPayload.String(), "PAYLOAD"; got != want {
		t.Fatalf("invalid phase name: got=%q, want=%q", got, want)
	}
}
