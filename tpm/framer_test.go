// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tpm

import (
	"reflect"
	"testing"
)

func TestFramer(t *testing.T) {
	type step struct {
		write bool
		v     byte
	}
	w := func(vs ...byte) []step {
		o := make([]step, len(vs))
		for i, v := range vs {
			o[i] = step{true, v}
		}
		return o
	}

	for _, tc := range []struct {
		name  string
		steps []step
		used  int
		done  bool
		err   []string
		phase phase
	}{
		{
			name:  "startup",
			steps: w(startup...),
			used:  10,
			done:  true,
			phase: phaseIdle,
		},
		{
			name:  "header",
			steps: w(0x80, 0x01, 0x00, 0x00),
			used:  4,
			phase: phaseLength,
		},
		{
			name:  "payload",
			steps: w(0x80, 0x01, 0x00, 0x00, 0x00, 0x0c, 0x00, 0x00, 0x01, 0x7b, 0x00),
			used:  11,
			phase: phasePayload,
		},
		{
			name:  "too-short",
			steps: w(0x80, 0x01, 0x00, 0x00, 0x00, 0x09),
			used:  6,
			done:  true,
			err:   []string{"LENGTH TOO SHORT:9", "SHORT:9", "SH"},
			phase: phaseIdle,
		},
		{
			name: "other-direction",
			steps: []step{
				{true, 0x80}, {false, 0xff}, {true, 0x01}, {false, 0xff},
			},
			used:  2,
			phase: phaseLength,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var (
				f    framer
				out  frameOut
				used int
				done bool
			)
			for i, s := range tc.steps {
				f, out = f.step(s.write, s.v, int64(i), int64(i+1))
				if out.used {
					used++
				}
				if out.done {
					done = true
					if !reflect.DeepEqual(out.err, tc.err) {
						t.Fatalf("invalid error: got=%q, want=%q", out.err, tc.err)
					}
				}
			}
			if used != tc.used {
				t.Fatalf("invalid number of consumed bytes: got=%d, want=%d", used, tc.used)
			}
			if done != tc.done {
				t.Fatalf("invalid done: got=%v, want=%v", done, tc.done)
			}
			if f.phase != tc.phase {
				t.Fatalf("invalid phase: got=%v, want=%v", f.phase, tc.phase)
			}
		})
	}
}

func TestPhaseString(t *testing.T) {
	for _, tc := range []struct {
		p    phase
		want string
	}{
		{phaseIdle, "IDLE"},
		{phaseTag, "TAG"},
		{phaseLength, "LENGTH"},
		{phaseCode, "CODE"},
		{phasePayload, "PAYLOAD"},
		{phase(42), "phase(42)"},
	} {
		if got := tc.p.String(); got != tc.want {
			t.Fatalf("invalid phase name: got=%q, want=%q", got, tc.want)
		}
	}
}

func TestTables(t *testing.T) {
	for _, tc := range []struct {
		code uint32
		want string
		ok   bool
	}{
		{0x0000011f, "TPM_CC_NV_UNDEFINESPACESPECIAL", true},
		{0x00000144, "TPM_CC_STARTUP", true},
		{0x00000198, "TPM_CC_ACT_SETTIMEOUT", true},
		{0x0000ffff, "0x0000FFFF", false},
		{0x20000000, "VENDOR SPECIFIC CMD : 0x20000000", true},
	} {
		_, ok := cmdLabels(tc.code)
		if ok != tc.ok {
			t.Fatalf("invalid lookup of 0x%08x: got=%v, want=%v", tc.code, ok, tc.ok)
		}
		if got := cmdName(tc.code); got != tc.want {
			t.Fatalf("invalid name of 0x%08x: got=%q, want=%q", tc.code, got, tc.want)
		}
	}

	for _, tc := range []struct {
		addr uint16
		want string
	}{
		{0x0000, "TPM_ACCESS_0"},
		{0x2024, "TPM_DATA_FIFO_2"},
		{0x3080, "TPM_XDATA_FIFO_3"},
		{0x0f00, "TPM_DID_VID_0"},
		{0x0001, "0x0001"},
	} {
		if got := regName(tc.addr); got != tc.want {
			t.Fatalf("invalid register name of 0x%04x: got=%q, want=%q", tc.addr, got, tc.want)
		}
	}

	if !isFIFO(0x1024) || !isFIFO(0x0080) || isFIFO(0x0018) {
		t.Fatalf("invalid FIFO detection")
	}
	if got, want := rcLabels(0x101), []string{"RC : 0x00000101", "RC:0x00000101", "00000101"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid RC labels: got=%q, want=%q", got, want)
	}
}
