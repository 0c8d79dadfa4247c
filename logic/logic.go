// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logic provides access to sampled logic-analyzer waveforms.
//
// A Source delivers samples one at a time, either unconditionally or
// when a set of pin conditions is met, the way protocol decoders
// consume them.
package logic // import "github.com/go-lpc/ifx/logic"

import (
	"fmt"
)

// Edge describes the state or transition a channel must exhibit for a
// Term to match.
type Edge uint8

const (
	High    Edge = iota + 1 // channel is high
	Low                     // channel is low
	Rising                  // channel went from low to high
	Falling                 // channel went from high to low
	Either                  // channel changed level
)

func (e Edge) String() string {
	switch e {
	case High:
		return "h"
	case Low:
		return "l"
	case Rising:
		return "r"
	case Falling:
		return "f"
	case Either:
		return "e"
	}
	return fmt.Sprintf("Edge(%d)", uint8(e))
}

// Term is a condition on a single logical channel.
type Term struct {
	Ch   int
	Edge Edge
}

// Cond is a conjunction of terms.
type Cond []Term

// Matched records which conditions of a Wait call matched.
// Bit i is set when the i-th condition matched.
type Matched uint64

// Has returns whether the i-th condition matched.
func (m Matched) Has(i int) bool {
	return m&(1<<uint(i)) != 0
}

// Sample is a single sampled pin state.
type Sample struct {
	N    int64  // sample index
	Pins uint64 // bit i holds the level of logical channel i
}

// Pin returns the level of the logical channel ch.
func (s Sample) Pin(ch int) uint8 {
	return uint8(s.Pins>>uint(ch)) & 1
}

// Source is a stream of samples.
type Source interface {
	// Wait returns the next sample satisfying at least one of the
	// provided conditions, together with the set of conditions that
	// matched.
	// Without any condition, Wait returns the next sample.
	// Wait returns io.EOF once the stream is exhausted.
	Wait(conds ...Cond) (Sample, Matched, error)

	// HasChannel returns whether the logical channel ch is connected.
	HasChannel(ch int) bool
}

func (c Cond) match(prev, cur uint64) bool {
	for _, t := range c {
		var (
			p = (prev >> uint(t.Ch)) & 1
			v = (cur >> uint(t.Ch)) & 1
		)
		switch t.Edge {
		case High:
			if v != 1 {
				return false
			}
		case Low:
			if v != 0 {
				return false
			}
		case Rising:
			if !(p == 0 && v == 1) {
				return false
			}
		case Falling:
			if !(p == 1 && v == 0) {
				return false
			}
		case Either:
			if p == v {
				return false
			}
		default:
			return false
		}
	}
	return true
}
