// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wire encodes and decodes streams of decoded command frames.
//
// Each frame is encoded as a record:
//
//	0xb4 marker
//	bus      u8 length + bytes
//	flags    u8 (bit 0: write)
//	start    u64
//	end      u64
//	tag      u32
//	length   u32
//	code     u32
//	name     u8 length + bytes
//	data     u32 length + bytes
//	0xa3 marker
//	CRC-16   u16 (CCITT), over all the preceding bytes of the record
//
// All integers are big-endian.
package wire // import "github.com/go-lpc/ifx/wire"

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/internal/crc16"
	"golang.org/x/xerrors"
)

const (
	frHeader  = 0xb4 // frame header marker
	frTrailer = 0xa3 // frame trailer marker

	flagWrite = 0x01

	maxData = 1 << 24
)

// Encoder writes frame records to an output stream.
// Encoder computes the CRC-16 checksum of each record on the fly and
// appends it at the end of the record.
type Encoder struct {
	w   io.Writer
	buf []byte
	err error
	crc crc16.Hash16
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:   w,
		buf: make([]byte, 8),
		crc: crc16.New(nil),
	}
}

// Encode writes the frame record to the stream.
func (enc *Encoder) Encode(f annot.FrameEvent) error {
	if len(f.Bus) > 0xff || len(f.Name) > 0xff {
		return fmt.Errorf("wire: bus or name too long (bus=%d, name=%d)", len(f.Bus), len(f.Name))
	}
	if len(f.Data) > maxData {
		return fmt.Errorf("wire: frame data too long (%d bytes)", len(f.Data))
	}

	enc.crc.Reset()

	enc.writeU8(frHeader)
	if enc.err != nil {
		return fmt.Errorf("wire: could not write frame header marker: %w", enc.err)
	}

	var flags uint8
	if f.Write {
		flags |= flagWrite
	}
	enc.writeU8(uint8(len(f.Bus)))
	enc.write([]byte(f.Bus))
	enc.writeU8(flags)
	enc.writeU64(uint64(f.Start))
	enc.writeU64(uint64(f.End))
	enc.writeU32(f.Tag)
	enc.writeU32(f.Length)
	enc.writeU32(f.Code)
	enc.writeU8(uint8(len(f.Name)))
	enc.write([]byte(f.Name))
	enc.writeU32(uint32(len(f.Data)))
	enc.write(f.Data)
	enc.writeU8(frTrailer)

	crc := enc.crc.Sum16()
	enc.writeU16(crc)

	if enc.err != nil {
		return fmt.Errorf("wire: could not write frame: %w", enc.err)
	}
	return nil
}

func (enc *Encoder) write(p []byte) {
	if enc.err != nil {
		return
	}
	_, enc.err = enc.w.Write(p)
	_, _ = enc.crc.Write(p) // can not fail.
}

func (enc *Encoder) writeU8(v uint8) {
	enc.buf[0] = v
	enc.write(enc.buf[:1])
}

func (enc *Encoder) writeU16(v uint16) {
	binary.BigEndian.PutUint16(enc.buf[:2], v)
	enc.write(enc.buf[:2])
}

func (enc *Encoder) writeU32(v uint32) {
	binary.BigEndian.PutUint32(enc.buf[:4], v)
	enc.write(enc.buf[:4])
}

func (enc *Encoder) writeU64(v uint64) {
	binary.BigEndian.PutUint64(enc.buf[:8], v)
	enc.write(enc.buf[:8])
}

// Decoder reads and validates frame records from an input stream.
type Decoder struct {
	r   io.Reader
	buf []byte
	err error
	crc crc16.Hash16
}

// NewDecoder creates a decoder that reads and validates records from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 8),
		crc: crc16.New(nil),
	}
}

// Decode reads the next frame record.
// Decode returns io.EOF when the stream ends at a record boundary.
func (dec *Decoder) Decode(f *annot.FrameEvent) error {
	dec.crc.Reset()
	dec.err = nil

	v := dec.readU8()
	if dec.err != nil {
		if xerrors.Is(dec.err, io.EOF) {
			return io.EOF
		}
		return xerrors.Errorf("wire: could not read frame header marker: %w", dec.err)
	}
	if v != frHeader {
		return xerrors.Errorf("wire: invalid frame header marker (got=0x%x)", v)
	}

	bus := dec.readBytes(int(dec.readU8()))
	flags := dec.readU8()
	start := dec.readU64()
	end := dec.readU64()
	tag := dec.readU32()
	length := dec.readU32()
	code := dec.readU32()
	name := dec.readBytes(int(dec.readU8()))
	n := dec.readU32()
	if dec.err == nil && n > maxData {
		return xerrors.Errorf("wire: invalid frame data length %d", n)
	}
	data := dec.readBytes(int(n))
	v = dec.readU8()
	if dec.err != nil {
		return xerrors.Errorf("wire: could not read frame: %w", dec.unexpected())
	}
	if v != frTrailer {
		return xerrors.Errorf("wire: invalid frame trailer marker (got=0x%x)", v)
	}

	comp := dec.crc.Sum16()
	recv := dec.readU16()
	if dec.err != nil {
		return xerrors.Errorf("wire: could not read CRC-16: %w", dec.unexpected())
	}
	if comp != recv {
		return xerrors.Errorf("wire: inconsistent CRC: recv=0x%04x comp=0x%04x", recv, comp)
	}

	*f = annot.FrameEvent{
		Start:  int64(start),
		End:    int64(end),
		Bus:    string(bus),
		Write:  flags&flagWrite != 0,
		Tag:    tag,
		Length: length,
		Code:   code,
		Name:   string(name),
		Data:   data,
	}
	return nil
}

func (dec *Decoder) unexpected() error {
	if xerrors.Is(dec.err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return dec.err
}

func (dec *Decoder) load(n int) []byte {
	if dec.err != nil {
		return dec.buf[:n]
	}
	_, dec.err = io.ReadFull(dec.r, dec.buf[:n])
	if dec.err == nil {
		_, _ = dec.crc.Write(dec.buf[:n])
	}
	return dec.buf[:n]
}

func (dec *Decoder) readU8() uint8 {
	return dec.load(1)[0]
}

func (dec *Decoder) readU16() uint16 {
	return binary.BigEndian.Uint16(dec.load(2))
}

func (dec *Decoder) readU32() uint32 {
	return binary.BigEndian.Uint32(dec.load(4))
}

func (dec *Decoder) readU64() uint64 {
	return binary.BigEndian.Uint64(dec.load(8))
}

func (dec *Decoder) readBytes(n int) []byte {
	if dec.err != nil {
		return nil
	}
	p := make([]byte, n)
	_, dec.err = io.ReadFull(dec.r, p)
	if dec.err == nil {
		_, _ = dec.crc.Write(p)
	}
	return p
}
