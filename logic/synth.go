// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logic

// Builder accumulates synthetic samples.
type Builder struct {
	pins    uint64
	samples Samples
}

// NewBuilder returns a builder with all channels low.
func NewBuilder() *Builder {
	return &Builder{}
}

// Set sets the level of the physical channel ch for the next samples.
func (b *Builder) Set(ch int, v uint8) *Builder {
	if ch < 0 || ch >= 64 {
		return b
	}
	if v != 0 {
		b.pins |= 1 << uint(ch)
	} else {
		b.pins &^= 1 << uint(ch)
	}
	return b
}

// Hold appends n samples with the current levels.
func (b *Builder) Hold(n int) *Builder {
	for i := 0; i < n; i++ {
		b.samples = append(b.samples, b.pins)
	}
	return b
}

// Len returns the index of the next sample.
func (b *Builder) Len() int64 {
	return int64(len(b.samples))
}

// Samples returns the accumulated samples.
func (b *Builder) Samples() Samples {
	return b.samples
}

// SPI synthesizes mode-0 SPI waveforms: data changes while the clock is
// low and is sampled on the rising clock edge, MSB first.
type SPI struct {
	CLK, MISO, MOSI, CS int // physical channels. A negative CS disables chip-select.
	Half                int // samples per half clock period

	ActiveHigh bool // chip-select polarity
}

func (s SPI) half() int {
	if s.Half <= 0 {
		return 2
	}
	return s.Half
}

func (s SPI) cs(asserted bool) uint8 {
	if asserted == s.ActiveHigh {
		return 1
	}
	return 0
}

// Idle deasserts chip-select and holds the bus for n samples.
func (s SPI) Idle(b *Builder, n int) {
	b.Set(s.CS, s.cs(false)).Set(s.CLK, 0).Hold(n)
}

// Transfer clocks out one transfer. miso and mosi are padded with zeros
// to the same length.
// It returns the index of the first sample with chip-select asserted and
// the index of the first sample after chip-select deassertion.
func (s SPI) Transfer(b *Builder, mosi, miso []byte) (beg, end int64) {
	n := len(mosi)
	if len(miso) > n {
		n = len(miso)
	}
	return s.Truncated(b, mosi, miso, 8*n)
}

// Truncated is like Transfer but deasserts chip-select after nbits bits.
func (s SPI) Truncated(b *Builder, mosi, miso []byte, nbits int) (beg, end int64) {
	h := s.half()
	at := func(p []byte, i int) byte {
		if i < len(p) {
			return p[i]
		}
		return 0
	}

	b.Set(s.CLK, 0).Set(s.CS, s.cs(true))
	beg = b.Len()
	b.Hold(h)
	for i := 0; i < nbits; i++ {
		var (
			k     = 7 - uint(i%8)
			vmosi = (at(mosi, i/8) >> k) & 1
			vmiso = (at(miso, i/8) >> k) & 1
		)
		b.Set(s.MOSI, vmosi).Set(s.MISO, vmiso).Set(s.CLK, 0).Hold(h)
		b.Set(s.CLK, 1).Hold(h)
	}
	b.Set(s.CLK, 0).Hold(h)
	b.Set(s.CS, s.cs(false))
	end = b.Len()
	b.Hold(h)
	return beg, end
}

// I2C synthesizes I2C waveforms.
type I2C struct {
	SCL, SDA int // physical channels
	Half     int // samples per half clock period
}

func (s I2C) half() int {
	if s.Half <= 0 {
		return 2
	}
	return s.Half
}

// Idle releases both lines and holds the bus for n samples.
func (s I2C) Idle(b *Builder, n int) {
	b.Set(s.SCL, 1).Set(s.SDA, 1).Hold(n)
}

// Start emits a START (or repeated START) condition and returns its
// sample index.
func (s I2C) Start(b *Builder) int64 {
	h := s.half()
	b.Set(s.SDA, 1).Hold(h)
	b.Set(s.SCL, 1).Hold(h)
	b.Set(s.SDA, 0)
	n := b.Len()
	b.Hold(h)
	b.Set(s.SCL, 0).Hold(h)
	return n
}

// Stop emits a STOP condition and returns its sample index.
func (s I2C) Stop(b *Builder) int64 {
	h := s.half()
	b.Set(s.SCL, 0).Set(s.SDA, 0).Hold(h)
	b.Set(s.SCL, 1).Hold(h)
	b.Set(s.SDA, 1)
	n := b.Len()
	b.Hold(h)
	return n
}

// Byte clocks out v MSB first, followed by an ACK (or NACK) bit.
func (s I2C) Byte(b *Builder, v byte, ack bool) {
	h := s.half()
	for i := 7; i >= 0; i-- {
		b.Set(s.SDA, (v>>uint(i))&1).Hold(h)
		b.Set(s.SCL, 1).Hold(h)
		b.Set(s.SCL, 0)
	}
	var nack uint8
	if !ack {
		nack = 1
	}
	b.Set(s.SDA, nack).Hold(h)
	b.Set(s.SCL, 1).Hold(h)
	b.Set(s.SCL, 0)
}

// Write emits a complete write transaction to the 7-bit address addr.
func (s I2C) Write(b *Builder, addr uint8, data ...byte) (beg, end int64) {
	beg = s.Start(b)
	s.Byte(b, addr<<1, true)
	for _, v := range data {
		s.Byte(b, v, true)
	}
	end = s.Stop(b)
	return beg, end
}

// Read emits a complete read transaction from the 7-bit address addr.
// The last data byte is NACKed.
func (s I2C) Read(b *Builder, addr uint8, data ...byte) (beg, end int64) {
	beg = s.Start(b)
	s.Byte(b, addr<<1|1, true)
	for i, v := range data {
		s.Byte(b, v, i != len(data)-1)
	}
	end = s.Stop(b)
	return beg, end
}

// WriteRead emits a register write followed by a repeated START and a
// read of data.
func (s I2C) WriteRead(b *Builder, addr, reg uint8, data ...byte) (beg, end int64) {
	beg = s.Start(b)
	s.Byte(b, addr<<1, true)
	s.Byte(b, reg, true)
	s.Start(b)
	s.Byte(b, addr<<1|1, true)
	for i, v := range data {
		s.Byte(b, v, i != len(data)-1)
	}
	end = s.Stop(b)
	return beg, end
}
