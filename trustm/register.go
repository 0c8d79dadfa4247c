// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustm

import (
	"github.com/sirupsen/logrus"
)

type regPhase uint8

const (
	regIdle regPhase = iota // device not addressed
	regAddr                 // expecting the register byte
	regBody                 // register data
)

// regState tracks the register accessed on the device.
// The register survives repeated START and STOP conditions: reads
// target the register selected by the last write.
type regState struct {
	phase regPhase
	reg   byte
	known bool  // reg has been captured
	start int64 // start of the address byte
	n     int   // data bytes of the current address phase

	state      byte // I2C_STATE flags
	stateStart int64
	lenStart   int64
	length     int
}

// register routes the transfer byte at position idx through the
// register, I2C_STATE and datalink decoders.
func (dec *Decoder) register(b xbyte, idx int) {
	if b.addr {
		dec.addressPhase(b, idx)
		return
	}
	if dec.reg.phase == regIdle || len(dec.xfer.phases) == 0 {
		return
	}
	ph := &dec.xfer.phases[len(dec.xfer.phases)-1]

	switch dec.reg.phase {
	case regAddr:
		dec.reg.reg = b.v
		dec.reg.known = true
		dec.reg.phase = regBody
		ph.reg = idx
		ph.register = b.v
		ph.hasReg = true

		class, lbls, ok := regLabels(b.v)
		if !ok {
			class, lbls = ClassRegErr, errLabels
		}
		dec.put(dec.reg.start, b.end, class, lbls...)
		if b.v == regData {
			dec.link = newDatalink(true)
			dec.linkOn = true
		}
		dec.msg.WithFields(logrus.Fields{
			"register": regName(b.v),
			"start":    dec.reg.start,
		}).Debugf("register selected")

	case regBody:
		ph.data = append(ph.data, idx)
		dec.reg.n++
		class := ClassRegRead
		if b.write {
			class = ClassRegWrite
		}
		dec.put(b.start, b.end, class, dataLabels(b.write, b.v)...)

		if dec.reg.known && dec.reg.reg == regI2CState {
			dec.i2cState(b)
		}
		if !dec.linkOn {
			return
		}
		var out linkOut
		dec.link, out = dec.link.step(linkByte{v: b.v, start: b.start, end: b.end, idx: idx})
		for _, a := range out.anns {
			dec.out.Annotate(a)
		}
		if out.frame != nil {
			dec.xfer.frames = append(dec.xfer.frames, out.frame)
			dec.msg.WithFields(linkFields(out.frame)).Debugf("datalink frame")
		}
	}
}

func (dec *Decoder) addressPhase(b xbyte, idx int) {
	dec.xfer.phases = append(dec.xfer.phases, addrPhase{
		addr:     idx,
		write:    b.write,
		matched:  dec.matched,
		reg:      -1,
		register: dec.reg.reg,
		hasReg:   dec.reg.known && !b.write,
	})
	dec.linkOn = false
	if !dec.matched {
		dec.reg.phase = regIdle
		return
	}

	dec.reg.n = 0
	dec.reg.start = b.start
	if b.write {
		dec.reg.phase = regAddr
		return
	}
	dec.reg.phase = regBody
	if dec.reg.known && dec.reg.reg == regData {
		dec.link = newDatalink(false)
		dec.linkOn = true
	}
}

// i2cState decodes the I2C_STATE register: a flags byte, a reserved
// byte and a 2-byte big-endian length.
func (dec *Decoder) i2cState(b xbyte) {
	st := &dec.reg
	switch st.n {
	case 1:
		st.state = b.v
		st.stateStart = b.start
	case 2:
		dec.put(st.stateStart, b.end, ClassDataFrame, stateLabels(st.state)...)
	case 3:
		st.lenStart = b.start
		st.length = int(b.v) << 8
	case 4:
		st.length |= int(b.v)
		dec.put(st.lenStart, b.end, ClassFrameLen, lengthLabels(st.length)...)
	}
}

func linkFields(f *linkFrame) logrus.Fields {
	fields := logrus.Fields{
		"write":  f.write,
		"fctr":   f.fctr,
		"length": f.length,
		"fcs":    f.fcs,
		"crc":    f.crc,
	}
	if f.apdu != nil {
		fields["code"] = f.apdu.code
		fields["apdu-len"] = f.apdu.length
	}
	return fields
}
