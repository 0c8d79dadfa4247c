// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crc16 implements the 16-bit cyclic redundancy checks used by
// device link layers.
package crc16 // import "github.com/go-lpc/ifx/internal/crc16"

import (
	"hash"
)

// Size of a CRC-16 checksum in bytes.
const Size = 2

// Table holds a 256-word lookup table together with the register
// parameters of a CRC-16 variant.
type Table struct {
	tab  [256]uint16
	init uint16
	refl bool
}

var (
	// CCITT is the CRC-16/CCITT-FALSE table (poly 0x1021, init 0xffff).
	CCITT = MakeTable(0x1021, 0xffff)

	// Kermit is the CRC-16/KERMIT table (poly 0x8408 reflected, init 0).
	// It protects OPTIGA Trust M data link frames.
	Kermit = MakeReflectedTable(0x8408, 0x0000)
)

// MakeTable returns a table for a most-significant-bit first CRC.
func MakeTable(poly, init uint16) *Table {
	t := &Table{init: init}
	for i := range t.tab {
		crc := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		t.tab[i] = crc
	}
	return t
}

// MakeReflectedTable returns a table for a least-significant-bit first CRC.
// poly is given in its reversed form.
func MakeReflectedTable(poly, init uint16) *Table {
	t := &Table{init: init, refl: true}
	for i := range t.tab {
		crc := uint16(i)
		for j := 0; j < 8; j++ {
			if crc&1 != 0 {
				crc = crc>>1 ^ poly
			} else {
				crc >>= 1
			}
		}
		t.tab[i] = crc
	}
	return t
}

func update(crc uint16, tab *Table, p []byte) uint16 {
	if tab.refl {
		for _, v := range p {
			crc = crc>>8 ^ tab.tab[byte(crc)^v]
		}
		return crc
	}
	for _, v := range p {
		crc = crc<<8 ^ tab.tab[byte(crc>>8)^v]
	}
	return crc
}

// Checksum returns the CRC-16 checksum of data using the provided table.
func Checksum(data []byte, tab *Table) uint16 {
	return update(tab.init, tab, data)
}

// Hash16 is the common interface implemented by all 16-bit hash functions.
type Hash16 interface {
	hash.Hash
	Sum16() uint16
}

type digest struct {
	crc uint16
	tab *Table
}

// New creates a new Hash16 computing the CRC-16 checksum using the
// polynomial represented by the Table.
// A nil table selects CCITT.
func New(tab *Table) Hash16 {
	if tab == nil {
		tab = CCITT
	}
	return &digest{crc: tab.init, tab: tab}
}

func (d *digest) Size() int      { return Size }
func (d *digest) BlockSize() int { return 1 }
func (d *digest) Reset()         { d.crc = d.tab.init }

func (d *digest) Write(p []byte) (int, error) {
	d.crc = update(d.crc, d.tab, p)
	return len(p), nil
}

func (d *digest) Sum16() uint16 { return d.crc }

func (d *digest) Sum(in []byte) []byte {
	s := d.Sum16()
	return append(in, byte(s>>8), byte(s))
}
