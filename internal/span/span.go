// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package span subdivides sample ranges into bit-field and byte sub-ranges.
package span // import "github.com/go-lpc/ifx/internal/span"

// Bits returns the sub-range of the byte range [start, end) that covers
// width bits, starting offset bits after the most significant bit.
//
// The byte range is divided into 8 slots of (end-start)/8 samples.
func Bits(start, end int64, offset, width int) (int64, int64) {
	unit := (end - start) / 8
	beg := start + unit*int64(offset)
	fin := beg + unit*int64(width)
	if offset+width >= 8 {
		fin = end
	}
	return clamp(beg, start, end), clamp(fin, start, end)
}

// Bit returns the sub-range of the byte range [start, end) for the bit
// of weight 1<<k.
func Bit(start, end int64, k int) (int64, int64) {
	return Bits(start, end, 7-k, 1)
}

// Width returns the per-slot width when [start, end) is evenly divided
// into n slots.
func Width(start, end int64, n int) int64 {
	if n <= 0 {
		return 0
	}
	return (end - start) / int64(n)
}

// Seg returns the range covered by the k slots starting at slot i, when
// [start, end) is evenly divided into n slots.
// The last slot absorbs the division remainder.
func Seg(start, end int64, n, i, k int) (int64, int64) {
	if n <= 0 || k <= 0 {
		return start, start
	}
	w := Width(start, end, n)
	beg := start + w*int64(i)
	fin := beg + w*int64(k)
	if i+k >= n {
		fin = end
	}
	return clamp(beg, start, end), clamp(fin, start, end)
}

func clamp(v, lo, hi int64) int64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
