// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trustm

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/internal/crc16"
	"github.com/go-lpc/ifx/logic"
)

type window struct {
	beg, end int64
}

type capture struct {
	b     *logic.Builder
	i2c   logic.I2C
	xfers []window
}

func newCapture() *capture {
	c := &capture{
		b:   logic.NewBuilder(),
		i2c: logic.I2C{SCL: ChanSCL, SDA: ChanSDA, Half: 2},
	}
	c.i2c.Idle(c.b, 4)
	return c
}

func (c *capture) add(beg, end int64) {
	c.xfers = append(c.xfers, window{beg, end})
	c.i2c.Idle(c.b, 4)
}

func (c *capture) write(addr uint8, data ...byte) {
	c.add(c.i2c.Write(c.b, addr, data...))
}

func (c *capture) read(addr uint8, data ...byte) {
	c.add(c.i2c.Read(c.b, addr, data...))
}

func (c *capture) writeRead(addr, reg uint8, data ...byte) {
	c.add(c.i2c.WriteRead(c.b, addr, reg, data...))
}

func (c *capture) source() logic.Source {
	return logic.NewStream(c.b.Samples().Reader())
}

func decode(t *testing.T, src logic.Source, opts ...Option) *annot.Recorder {
	t.Helper()
	var rec annot.Recorder
	err := New(opts...).Decode(src, &rec)
	if err != nil {
		t.Fatalf("could not decode: %+v", err)
	}
	return &rec
}

// frame returns a datalink frame carrying payload, with a valid FCS.
func frame(fctr byte, payload ...byte) []byte {
	raw := append([]byte{fctr, byte(len(payload) >> 8), byte(len(payload))}, payload...)
	fcs := crc16.Checksum(raw, crc16.Kermit)
	return append(raw, byte(fcs>>8), byte(fcs))
}

func busKinds(rec *annot.Recorder) []annot.BusKind {
	var o []annot.BusKind
	for _, e := range rec.Events {
		if ev, ok := e.(annot.BusEvent); ok {
			o = append(o, ev.Kind)
		}
	}
	return o
}

var aid = []byte{
	0xd2, 0x76, 0x00, 0x00, 0x04, 0x47, 0x65, 0x6e,
	0x41, 0x75, 0x74, 0x68, 0x41, 0x70, 0x70, 0x6c,
}

// openApplication is the payload of an OpenApplication command frame.
func openApplication() []byte {
	return append([]byte{0x00, 0x70, 0x00, 0x00, byte(len(aid))}, aid...)
}

func TestBus(t *testing.T) {
	for _, tc := range []struct {
		name   string
		format AddressFormat
		addr   string
	}{
		{"shifted", Shifted, "ADDRESS WRITE:0x30"},
		{"unshifted", Unshifted, "ADDRESS WRITE:0x60"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newCapture()
			c.write(0x30, 0x82)
			rec := decode(t, c.source(), WithAddressFormat(tc.format))

			if got, want := rec.Labels(ClassAddressWrite), []string{"WRITE", tc.addr}; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid address: got=%q, want=%q", got, want)
			}
			if got, want := rec.Labels(ClassDataWrite), []string{"DATA WRITE:0x82"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid data: got=%q, want=%q", got, want)
			}
			if got, want := rec.Labels(ClassStart, ClassStop, ClassAck, ClassNack), []string{"START", "ACK", "ACK", "STOP"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid conditions: got=%q, want=%q", got, want)
			}
			if got, want := len(rec.Find(ClassBit)), 16; got != want {
				t.Fatalf("invalid number of bits: got=%d, want=%d", got, want)
			}

			want := []annot.BusKind{
				annot.BusStart,
				annot.BusBits, annot.BusAddressWrite, annot.BusAck,
				annot.BusBits, annot.BusDataWrite, annot.BusAck,
				annot.BusStop,
			}
			if got := busKinds(rec); !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid bus events: got=%v, want=%v", got, want)
			}

			if got, want := len(rec.Binaries), 2; got != want {
				t.Fatalf("invalid number of binaries: got=%d, want=%d", got, want)
			}
			if got := rec.Binaries[0]; got.Class != BinaryAddressWrite {
				t.Fatalf("invalid address binary: %+v", got)
			}
			if got := rec.Binaries[1]; got.Class != BinaryDataWrite || !reflect.DeepEqual(got.Data, []byte{0x82}) {
				t.Fatalf("invalid data binary: %+v", got)
			}
		})
	}
}

func TestRepeatStart(t *testing.T) {
	c := newCapture()
	c.writeRead(0x30, 0x82, 0x40, 0x00, 0x00, 0x05)
	rec := decode(t, c.source())

	if got, want := rec.Labels(ClassStart, ClassRepeatStart, ClassStop), []string{"START", "START REPEAT", "STOP"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid conditions: got=%q, want=%q", got, want)
	}
	if got, want := rec.Labels(ClassAddressRead), []string{"READ", "ADDRESS READ:0x30"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid read address: got=%q, want=%q", got, want)
	}
	if got, want := rec.Labels(ClassAck, ClassNack), []string{"ACK", "ACK", "ACK", "ACK", "ACK", "ACK", "NACK"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid acks: got=%q, want=%q", got, want)
	}

	var xfers []annot.TransferEvent
	for _, e := range rec.Events {
		if ev, ok := e.(annot.TransferEvent); ok {
			xfers = append(xfers, ev)
		}
	}
	if len(xfers) != 1 {
		t.Fatalf("invalid number of transfers: got=%d, want=1", len(xfers))
	}
	var mosi, miso []byte
	for _, b := range xfers[0].MOSI {
		mosi = append(mosi, b.Value)
	}
	for _, b := range xfers[0].MISO {
		miso = append(miso, b.Value)
	}
	if got, want := mosi, []byte{0x60, 0x82, 0x61}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid master bytes: got=% x, want=% x", got, want)
	}
	if got, want := miso, []byte{0x40, 0x00, 0x00, 0x05}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid slave bytes: got=% x, want=% x", got, want)
	}
}

func TestI2CState(t *testing.T) {
	for _, tc := range []struct {
		name  string
		fill  func(c *capture)
		state []string
		sum   []string
		reg   []string
		len   []string
	}{
		{
			name:  "write-length",
			fill:  func(c *capture) { c.write(0x30, 0x82, 0x12, 0x34) },
			state: []string{"READY"},
			reg:   []string{"I2C_STATE"},
			len:   []string{"LENGTH:4660"},
		},
		{
			name:  "read",
			fill:  func(c *capture) { c.writeRead(0x30, 0x82, 0xc0, 0x00, 0x01, 0x15) },
			state: []string{"BUSY/RESP_RDY"},
			sum:   []string{"BUSY/RESP_RDY"},
			reg:   []string{"I2C_STATE", "I2C_STATE"},
			len:   []string{"LENGTH:277"},
		},
		{
			name: "read-after-stop",
			fill: func(c *capture) {
				c.write(0x30, 0x82)
				c.read(0x30, 0x40, 0x00, 0x00, 0x20)
			},
			state: []string{"RESPONSE READY"},
			sum:   []string{"RESPONSE READY"},
			reg:   []string{"I2C_STATE", "I2C_STATE"},
			len:   []string{"LENGTH:32"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newCapture()
			tc.fill(c)
			rec := decode(t, c.source())

			if got := rec.Labels(ClassDataFrame); !reflect.DeepEqual(got, tc.state) {
				t.Fatalf("invalid state: got=%q, want=%q", got, tc.state)
			}
			if got := rec.Labels(ClassSummaryState); !reflect.DeepEqual(got, tc.sum) {
				t.Fatalf("invalid state summary: got=%q, want=%q", got, tc.sum)
			}
			if got := rec.Labels(ClassSummaryReg); !reflect.DeepEqual(got, tc.reg) {
				t.Fatalf("invalid register summary: got=%q, want=%q", got, tc.reg)
			}
			if got := rec.Labels(ClassSummaryLen); !reflect.DeepEqual(got, tc.len) {
				t.Fatalf("invalid length summary: got=%q, want=%q", got, tc.len)
			}
		})
	}
}

func TestRegisters(t *testing.T) {
	for _, tc := range []struct {
		name  string
		addr  uint8
		reg   byte
		class int
		want  []string
	}{
		{"data", 0x30, 0x80, ClassRegData, []string{"DATA", "DA"}},
		{"soft-reset", 0x30, 0x88, ClassRegSoftReset, []string{"SOFT_RESET", "SR"}},
		{"ifx", 0x30, 0xa1, ClassReg, []string{"IFX_2", "UL"}},
		{"unknown", 0x30, 0x55, ClassRegErr, errLabels},
		{"other-device", 0x31, 0x82, ClassReg, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newCapture()
			c.write(tc.addr, tc.reg, 0x00)
			rec := decode(t, c.source())

			anns := rec.Find(tc.class)
			switch {
			case tc.want == nil:
				if len(anns) != 0 {
					t.Fatalf("unexpected register annotations: %+v", anns)
				}
				if got := rec.Find(ClassRegWrite, ClassSummaryReg, ClassSummaryWrite); len(got) != 0 {
					t.Fatalf("unexpected register data: %+v", got)
				}
			default:
				if len(anns) != 1 || !reflect.DeepEqual(anns[0].Labels, tc.want) {
					t.Fatalf("invalid register: got=%+v, want=%q", anns, tc.want)
				}
				if got, want := anns[0].Start, c.xfers[0].beg; got <= want {
					t.Fatalf("register annotation starts too early: %d <= %d", got, want)
				}
				if got, want := rec.Labels(ClassRegWrite), []string{"DATA WRITE:0x00"}; !reflect.DeepEqual(got, want) {
					t.Fatalf("invalid register data: got=%q, want=%q", got, want)
				}
			}
		})
	}
}

func TestCommandFrame(t *testing.T) {
	c := newCapture()
	fr := frame(0x00, openApplication()...)
	c.write(0x30, append([]byte{0x80}, fr...)...)
	rec := decode(t, c.source())

	fcs := uint16(fr[len(fr)-2])<<8 | uint16(fr[len(fr)-1])
	for _, tc := range []struct {
		name  string
		class int
		want  []string
	}{
		{"fctr", ClassDataFrame, []string{"DATA FRAME"}},
		{"ftype", ClassFrameType, []string{"FRAME TYPE:0"}},
		{"len", ClassFrameLen, []string{"LENGTH:21"}},
		{"pctr", ClassPCTR, []string{"PACKET CONTROL BYTE"}},
		{"presence", ClassPresence, []string{"PRESENCE:0"}},
		{"chaining", ClassChaining, []string{"CHAINING:0"}},
		{"sctr", ClassSCTR, nil},
		{"cmd", ClassAPDUCmd, []string{"CMD OPENAPPLICATION:0x70"}},
		{"param", ClassAPDUParam, []string{"PARAM:0x00"}},
		{"apdu-len", ClassAPDULen, []string{"LENGTH:16"}},
		{"apdu", ClassAPDU, []string{"COMMAND APDU"}},
		{"fcs", ClassChecksum, []string{fmt.Sprintf("FRAME CHECKSUM:0x%04X", fcs)}},
		{"errors", ClassFrameErr, nil},
		{"apdu-errors", ClassAPDUErr, nil},
		{"sum-link", ClassSummaryLink, []string{"DATA FRAME SEQ:0 FRNR:0 ACKNR:0 LEN:21"}},
		{"sum-apdu", ClassSummaryAPDU, []string{"CMD OPENAPPLICATION:0x70 PARAM:0x00 LEN:16"}},
		{"sum-reg", ClassSummaryReg, []string{"DATA"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := rec.Labels(tc.class); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("invalid labels: got=%q, want=%q", got, tc.want)
			}
		})
	}

	if got, want := len(rec.Find(ClassAPDUDataWrite)), len(aid); got != want {
		t.Fatalf("invalid number of APDU data bytes: got=%d, want=%d", got, want)
	}

	frames := rec.Frames()
	if len(frames) != 1 {
		t.Fatalf("invalid number of frames: got=%d, want=1", len(frames))
	}
	f := frames[0]
	if f.Bus != "i2c" || !f.Write || f.Code != 0x70 || f.Name != "OPENAPPLICATION" || f.Length != 16 {
		t.Fatalf("invalid frame: %+v", f)
	}
	if !reflect.DeepEqual(f.Data, aid) {
		t.Fatalf("invalid frame data: got=% x, want=% x", f.Data, aid)
	}
}

func TestResponseFrame(t *testing.T) {
	rsp := frame(0x01, 0x00, 0x00, 0x00, 0x00, 0x02, 0xab, 0xcd)
	for _, tc := range []struct {
		name string
		fill func(c *capture)
	}{
		{"repeat-start", func(c *capture) { c.writeRead(0x30, 0x80, rsp...) }},
		{"stop", func(c *capture) {
			c.write(0x30, 0x80)
			c.read(0x30, rsp...)
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newCapture()
			tc.fill(c)
			rec := decode(t, c.source())

			if got, want := rec.Labels(ClassAPDUCmd), []string{"STATUS:SUCCESS"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid status: got=%q, want=%q", got, want)
			}
			if got, want := rec.Labels(ClassAPDUParam), []string{"UNDEF:0x00"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid undef: got=%q, want=%q", got, want)
			}
			if got, want := rec.Labels(ClassAPDUDataRead), []string{"DATA READ:0xAB", "DATA READ:0xCD"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid data: got=%q, want=%q", got, want)
			}
			if got, want := rec.Labels(ClassAckNr), []string{"ACKNR:1"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid ack number: got=%q, want=%q", got, want)
			}
			if got, want := rec.Labels(ClassSummaryAPDU), []string{"STATUS:SUCCESS LEN:2"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid summary: got=%q, want=%q", got, want)
			}

			frames := rec.Frames()
			if len(frames) != 1 {
				t.Fatalf("invalid number of frames: got=%d, want=1", len(frames))
			}
			f := frames[0]
			if f.Write || f.Code != 0 || f.Name != "" || f.Tag != 0x01 || !reflect.DeepEqual(f.Data, []byte{0xab, 0xcd}) {
				t.Fatalf("invalid frame: %+v", f)
			}
			last := c.xfers[len(c.xfers)-1]
			if f.Start < last.beg || f.End > last.end {
				t.Fatalf("frame [%d, %d) outside of transfer [%d, %d)", f.Start, f.End, last.beg, last.end)
			}
		})
	}
}

func TestChecksumMismatch(t *testing.T) {
	fr := frame(0x00, openApplication()...)
	fr[len(fr)-1] ^= 0xff

	c := newCapture()
	c.write(0x30, append([]byte{0x80}, fr...)...)
	rec := decode(t, c.source())

	if got, want := rec.Labels(ClassFrameErr), []string{"CHECKSUM MISMATCH"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid frame error: got=%q, want=%q", got, want)
	}
	if got, want := rec.Labels(ClassSummaryErr), []string{"CHECKSUM MISMATCH"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid summary error: got=%q, want=%q", got, want)
	}
	if got := rec.Frames(); len(got) != 0 {
		t.Fatalf("unexpected frames: %+v", got)
	}
}

func TestSecurityControl(t *testing.T) {
	for _, tc := range []struct {
		name    string
		sctr    byte
		prot    []string
		cmd     []string
		packet  string
		summary []string
		frames  int
	}{
		{
			name:    "plain",
			sctr:    0x00,
			prot:    []string{"PROTECTION:0"},
			cmd:     []string{"CMD GETRANDOM:0x0C"},
			packet:  "DATA WRITE:0x0C",
			summary: []string{"CMD GETRANDOM:0x0C PARAM:0x00 LEN:0"},
			frames:  1,
		},
		{
			name:    "response-protected",
			sctr:    0x02,
			prot:    []string{"PROTECTION:2"},
			cmd:     []string{"CMD GETRANDOM:0x0C"},
			packet:  "DATA WRITE:0x0C",
			summary: []string{"CMD GETRANDOM:0x0C PARAM:0x00 LEN:0"},
			frames:  1,
		},
		{
			name:    "command-protected",
			sctr:    0x01,
			prot:    []string{"PROTECTION:1"},
			packet:  "PROTECTED:0x0C",
			summary: []string{"PROTECTED"},
		},
		{
			name:    "message",
			sctr:    0x04,
			prot:    []string{"PROTECTION:0"},
			packet:  "PROTECTED:0x0C",
			summary: []string{"PROTECTED"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newCapture()
			fr := frame(0x00, 0x08, tc.sctr, 0x0c, 0x00, 0x00, 0x00)
			c.write(0x30, append([]byte{0x80}, fr...)...)
			rec := decode(t, c.source())

			if got, want := rec.Labels(ClassPresence), []string{"PRESENCE:1"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid presence: got=%q, want=%q", got, want)
			}
			if got, want := rec.Labels(ClassSCTR), []string{"SECURITY CONTROL BYTE"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid sctr: got=%q, want=%q", got, want)
			}
			if got := rec.Labels(ClassProtection); !reflect.DeepEqual(got, tc.prot) {
				t.Fatalf("invalid protection: got=%q, want=%q", got, tc.prot)
			}
			if got := rec.Labels(ClassAPDUCmd); !reflect.DeepEqual(got, tc.cmd) {
				t.Fatalf("invalid command: got=%q, want=%q", got, tc.cmd)
			}
			if got := rec.Labels(ClassPacketWrite); len(got) == 0 || got[0] != tc.packet {
				t.Fatalf("invalid packet: got=%q, want=%q", got, tc.packet)
			}
			if got := rec.Labels(ClassSummaryAPDU); !reflect.DeepEqual(got, tc.summary) {
				t.Fatalf("invalid summary: got=%q, want=%q", got, tc.summary)
			}
			if got := len(rec.Frames()); got != tc.frames {
				t.Fatalf("invalid number of frames: got=%d, want=%d", got, tc.frames)
			}
		})
	}
}

func TestControlFrame(t *testing.T) {
	for _, tc := range []struct {
		name    string
		frame   []byte
		summary []string
		hdrErr  []string
	}{
		{
			name:    "ack",
			frame:   frame(0x82),
			summary: []string{"CONTROL FRAME SEQ:0 FRNR:0 ACKNR:2 LEN:0"},
		},
		{
			name:    "with-payload",
			frame:   frame(0xa1, 0x00),
			summary: []string{"CONTROL FRAME SEQ:1 FRNR:0 ACKNR:1 LEN:1"},
			hdrErr:  []string{"INVALID LENGTH:1"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newCapture()
			c.write(0x30, append([]byte{0x80}, tc.frame...)...)
			rec := decode(t, c.source())

			if got, want := rec.Labels(ClassControlFrame), []string{"CONTROL FRAME"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid fctr: got=%q, want=%q", got, want)
			}
			if got, want := rec.Labels(ClassFrameType), []string{"FRAME TYPE:1"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("invalid frame type: got=%q, want=%q", got, want)
			}
			if got := rec.Labels(ClassSummaryLink); !reflect.DeepEqual(got, tc.summary) {
				t.Fatalf("invalid summary: got=%q, want=%q", got, tc.summary)
			}
			if got := rec.Labels(ClassHeaderErr); !reflect.DeepEqual(got, tc.hdrErr) {
				t.Fatalf("invalid header error: got=%q, want=%q", got, tc.hdrErr)
			}
			if got := len(rec.Frames()); got != 0 {
				t.Fatalf("unexpected frames: %d", got)
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	c := newCapture()
	c.write(0x30, append([]byte{0x80}, frame(0x00, 0x00, 0x55, 0x00, 0x00, 0x00)...)...)
	rec := decode(t, c.source())

	if got := rec.Labels(ClassAPDUErr); !reflect.DeepEqual(got, errLabels[:1]) {
		t.Fatalf("invalid command error: got=%q", got)
	}
	frames := rec.Frames()
	if len(frames) != 1 || frames[0].Name != "0x55" {
		t.Fatalf("invalid frames: %+v", frames)
	}
}

func TestSpans(t *testing.T) {
	c := newCapture()
	c.write(0x30, 0x82, 0x12, 0x34)
	c.writeRead(0x30, 0x82, 0xc0, 0x00, 0x01, 0x15)
	c.write(0x30, append([]byte{0x80}, frame(0x00, openApplication()...)...)...)
	c.writeRead(0x30, 0x80, frame(0x01, 0x00, 0x00, 0x00, 0x00, 0x02, 0xab, 0xcd)...)
	c.write(0x31, 0x01, 0x02)
	rec := decode(t, c.source(), WithSampleRate(1e6))

	for _, a := range rec.Annotations {
		if a.End < a.Start {
			t.Fatalf("invalid annotation span: %+v", a)
		}
		inside := false
		for _, w := range c.xfers {
			if a.Start >= w.beg && a.End <= w.end {
				inside = true
				break
			}
		}
		if !inside {
			t.Fatalf("annotation outside of transfers: %+v", a)
		}
	}
	for _, a := range rec.Find(ClassBit) {
		if a.End <= a.Start {
			t.Fatalf("invalid bit span: %+v", a)
		}
	}

	if got, want := len(rec.Bitrates), len(c.xfers); got != want {
		t.Fatalf("invalid number of bitrates: got=%d, want=%d", got, want)
	}
	w := c.xfers[0]
	if got, want := rec.Bitrates[0].Value, 1e6*float64(32)/float64(w.end-w.beg+1); got != want {
		t.Fatalf("invalid bitrate: got=%v, want=%v", got, want)
	}
}

func TestIdempotence(t *testing.T) {
	c := newCapture()
	c.write(0x30, append([]byte{0x80}, frame(0x00, openApplication()...)...)...)
	c.writeRead(0x30, 0x80, frame(0x01, 0x00, 0x00, 0x00, 0x00, 0x00)...)
	c.writeRead(0x30, 0x82, 0x40, 0x00)

	dec := New(WithSampleRate(1e6))
	var recs [2]annot.Recorder
	for i := range recs {
		err := dec.Decode(c.source(), &recs[i])
		if err != nil {
			t.Fatalf("could not decode #%d: %+v", i, err)
		}
	}
	if !reflect.DeepEqual(recs[0], recs[1]) {
		t.Fatalf("decoding is not idempotent")
	}
	if len(recs[0].Frames()) != 2 {
		t.Fatalf("invalid number of frames: %d", len(recs[0].Frames()))
	}
}

func TestTruncatedStream(t *testing.T) {
	b := logic.NewBuilder()
	i2c := logic.I2C{SCL: ChanSCL, SDA: ChanSDA, Half: 2}
	i2c.Idle(b, 4)
	i2c.Start(b)
	i2c.Byte(b, 0x30<<1, true)
	i2c.Byte(b, 0x82, true)

	rec := decode(t, logic.NewStream(b.Samples().Reader()))
	if got, want := rec.Labels(ClassReg), []string{"I2C_STATE"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid register: got=%q, want=%q", got, want)
	}
	if got, want := rec.Labels(ClassSummaryReg), []string{"I2C_STATE"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid summary: got=%q, want=%q", got, want)
	}
	if got := rec.Labels(ClassStop); len(got) != 0 {
		t.Fatalf("unexpected STOP: %q", got)
	}
}

func TestMissingChannels(t *testing.T) {
	for _, chans := range [][]int{{-1, 1}, {0, -1}} {
		src := logic.NewStream(logic.Samples{0, 1}.Reader(), chans...)
		err := New().Decode(src, annot.Discard)
		if err == nil {
			t.Fatalf("expected an error for channels %v", chans)
		}
	}
}

func TestOptions(t *testing.T) {
	c := newCapture()
	c.write(0x29, 0x82, 0x00, 0x07)

	rec := decode(t, c.source())
	if got := rec.Labels(ClassSummaryLen); len(got) != 0 {
		t.Fatalf("unexpected summary for another device: %q", got)
	}

	rec = decode(t, c.source(), WithAddress(0x29), WithLogger(nil))
	if got, want := rec.Labels(ClassSummaryLen), []string{"LENGTH:7"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid summary: got=%q, want=%q", got, want)
	}

	for _, tc := range []struct {
		name string
		want AddressFormat
		err  bool
	}{
		{"shifted", Shifted, false},
		{"unshifted", Unshifted, false},
		{"7-bit", 0, true},
	} {
		got, err := ParseAddressFormat(tc.name)
		switch {
		case tc.err && err == nil:
			t.Fatalf("expected an error for %q", tc.name)
		case !tc.err && err != nil:
			t.Fatalf("could not parse %q: %+v", tc.name, err)
		case got != tc.want:
			t.Fatalf("invalid format: got=%v, want=%v", got, tc.want)
		}
		if !tc.err && got.String() != tc.name {
			t.Fatalf("invalid format name: got=%q, want=%q", got.String(), tc.name)
		}
	}
}
