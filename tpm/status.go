// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tpm

import (
	"fmt"

	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/internal/span"
)

// bit field names of TPM_ACCESS and TPM_STS, MSB first.
var (
	accessFields = [8]string{
		"VALIDSTS", "RESERVED", "ACTIVELOCALITY", "BEENSEIZED",
		"SEIZE", "PENDING", "REQUESTUSE", "ESTABLISHMENT",
	}
	stsFields = [8]string{
		"VALIDSTS", "READY", "TPMGO", "DATAAVAIL",
		"EXPECT", "SELFTESTDONE", "RESPRETRY", "RESERVED",
	}
)

const (
	stsValid     = 1 << 7
	stsReady     = 1 << 6
	stsGo        = 1 << 5
	stsDataAvail = 1 << 4
	stsExpect    = 1 << 3
	stsSelfTest  = 1 << 2
	stsRetry     = 1 << 1

	accessValid       = 1 << 7
	accessActive      = 1 << 5
	accessBeenSeized  = 1 << 4
	accessPending     = 1 << 2
	accessRequestUse  = 1 << 1
	accessEstablished = 1 << 0
)

// status holds the TPM_ACCESS and TPM_STS values decoded during a transfer.
type status struct {
	decoded bool // first data byte decoded

	// TPM_ACCESS
	request string // locality request written
	state   string // locality state read
	pending bool
	valid   bool
	estab   uint8

	// TPM_STS
	tpmGo      uint8
	cmdReady   uint8
	respRetry  uint8
	stsValid   bool
	dataAvail  int // -1 when invalid
	expect     int // -1 when invalid
	selfTest   uint8
	burst      int
	burstStart int64
	hasBurst   bool
}

func newStatus() status {
	return status{dataAvail: -1, expect: -1}
}

func bit(v byte, mask byte) uint8 {
	if v&mask != 0 {
		return 1
	}
	return 0
}

// decodeAccess decodes the TPM_ACCESS data byte at position pos of a transfer.
func (st status) decodeAccess(o octet, write bool, pos int) (status, []annot.Annotation) {
	if pos != headerSize {
		return st, nil
	}
	st.decoded = true
	v := o.value(write)
	if write {
		switch v {
		case 0x20:
			st.request = "RELINQUISH"
		case 0x10:
			st.request = "CLEAR SEIZED"
		case 0x08:
			st.request = "SEIZE"
		case 0x02:
			st.request = "REQUEST"
		default:
			st.request = "ERROR"
		}
		return st, bitFields(o, write, accessFields, 0)
	}

	st.estab = bit(v, accessEstablished)
	st.valid = v&accessValid != 0
	var invalid byte
	switch {
	case st.valid:
		st.state = "NOT ACTIVE"
		if v&accessActive != 0 {
			st.state = "ACTIVE"
		}
		if v&accessBeenSeized != 0 {
			st.state = "SEIZED"
		}
		if v&accessRequestUse != 0 {
			st.state = "REQUEST"
		}
		st.pending = v&accessPending != 0
	default:
		invalid = accessValid
	}
	return st, bitFields(o, write, accessFields, invalid)
}

// decodeSTS decodes the TPM_STS data byte at position pos of a transfer.
// abort reports whether the byte requests a new command.
func (st status) decodeSTS(o octet, write bool, pos int) (_ status, anns []annot.Annotation, abort bool) {
	v := o.value(write)
	switch {
	case pos == headerSize && write:
		st.decoded = true
		st.tpmGo = bit(v, stsGo)
		st.cmdReady = bit(v, stsReady)
		st.respRetry = bit(v, stsRetry)
		abort = st.tpmGo == 1 || st.cmdReady == 1
		return st, bitFields(o, write, stsFields, 0), abort

	case pos == headerSize:
		st.decoded = true
		st.selfTest = bit(v, stsSelfTest)
		st.cmdReady = bit(v, stsReady)
		st.stsValid = v&stsValid != 0
		var invalid byte
		if st.stsValid {
			st.dataAvail = int(bit(v, stsDataAvail))
			st.expect = int(bit(v, stsExpect))
		} else {
			st.dataAvail = -1
			st.expect = -1
			invalid = stsValid | stsDataAvail | stsExpect
		}
		return st, bitFields(o, write, stsFields, invalid), false

	case pos == headerSize+1 && !write:
		st.burst = int(v)
		st.burstStart = o.start
		return st, nil, false

	case pos == headerSize+2 && !write:
		st.burst |= int(v) << 8
		st.hasBurst = true
		return st, []annot.Annotation{{
			Start: st.burstStart, End: o.end, Class: ClassState1,
			Labels: burstLabels(st.burst),
		}}, false
	}
	return st, nil, false
}

// bitFields annotates each bit of a register byte.
// Bits set in invalid are flagged with the invalid state class.
func bitFields(o octet, write bool, names [8]string, invalid byte) []annot.Annotation {
	var (
		v    = o.value(write)
		bits = o.bits(write)
		anns = make([]annot.Annotation, 0, len(names))
	)
	for i, name := range names {
		k := uint(7 - i)
		class := ClassState2
		if k%2 == 1 {
			class = ClassState1
		}
		if invalid&(1<<k) != 0 {
			class = ClassState3
		}
		beg, end := span.Bit(o.start, o.end, int(k))
		if i < len(bits) {
			beg, end = bits[i].Start, bits[i].End
		}
		anns = append(anns, annot.Annotation{
			Start: beg, End: end, Class: class,
			Labels: []string{fmt.Sprintf("%s:%d", name, (v>>k)&1)},
		})
	}
	return anns
}

func burstLabels(n int) []string {
	return []string{
		fmt.Sprintf("BURSTCOUNT:%d", n),
		fmt.Sprintf("BC:%d", n),
		fmt.Sprintf("%d", n),
	}
}
