// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/config"
	"github.com/go-lpc/ifx/internal/synth"
	"github.com/go-lpc/ifx/logic"
	"github.com/go-lpc/ifx/trustm"
	"github.com/go-lpc/ifx/wire"
)

func TestNode(t *testing.T) {
	tmp, err := os.MkdirTemp("", "ifx-tdaq-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	for _, tc := range []struct {
		name    string
		bus     string
		samples logic.Samples
		chans   []string
		names   []string
	}{
		{
			name:    "tpm.bin",
			bus:     "spi",
			samples: synth.TPMSession(3),
			chans:   synth.SPIChannels,
			names:   []string{"TPM_CC_STARTUP", "", "TPM_CC_GETRANDOM", ""},
		},
		{
			name:    "trustm.csv",
			bus:     "i2c",
			samples: synth.TrustMSession(3, trustm.DefaultAddress),
			chans:   synth.I2CChannels,
			names:   []string{"OPENAPPLICATION", ""},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(tmp, tc.name)
			err := logic.Create(fname, tc.samples, tc.chans)
			if err != nil {
				t.Fatalf("could not create capture: %+v", err)
			}

			dev := newNode("ifx-node", fname, tc.bus, config.Default())
			err = dev.load()
			if err != nil {
				t.Fatalf("could not load capture: %+v", err)
			}

			// publish twice: once after /init, once after /reset.
			for i := 0; i < 2; i++ {
				var raw bytes.Buffer
				for {
					data, ok, err := dev.pop()
					if err != nil {
						t.Fatalf("could not pop frame: %+v", err)
					}
					if !ok {
						break
					}
					raw.Write(data)
				}

				var (
					got []annot.FrameEvent
					dec = wire.NewDecoder(&raw)
				)
				for {
					var evt annot.FrameEvent
					err := dec.Decode(&evt)
					if err == io.EOF {
						break
					}
					if err != nil {
						t.Fatalf("could not decode frame: %+v", err)
					}
					got = append(got, evt)
				}

				if got, want := len(got), len(tc.names); got != want {
					t.Fatalf("invalid number of frames: got=%d, want=%d", got, want)
				}
				names := make([]string, len(got))
				for j, evt := range got {
					names[j] = evt.Name
					if evt.Bus != tc.bus {
						t.Fatalf("invalid bus: got=%q, want=%q", evt.Bus, tc.bus)
					}
				}
				if !reflect.DeepEqual(names, tc.names) {
					t.Fatalf("invalid frame names:\ngot= %q\nwant=%q", names, tc.names)
				}

				err = dev.load()
				if err != nil {
					t.Fatalf("could not reload capture: %+v", err)
				}
			}
		})
	}
}

func TestNodeErrors(t *testing.T) {
	tmp, err := os.MkdirTemp("", "ifx-tdaq-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	fname := filepath.Join(tmp, "tpm.bin")
	err = logic.Create(fname, synth.TPMSession(3), synth.SPIChannels)
	if err != nil {
		t.Fatalf("could not create capture: %+v", err)
	}

	bad := config.Default()
	bad.I2C.AddressFormat = "rotated"

	for _, tc := range []struct {
		name  string
		fname string
		bus   string
		cfg   config.Config
	}{
		{"missing-file", filepath.Join(tmp, "missing.bin"), "spi", config.Default()},
		{"invalid-bus", fname, "usb", config.Default()},
		{"invalid-config", fname, "i2c", bad},
	} {
		t.Run(tc.name, func(t *testing.T) {
			dev := newNode("ifx-node", tc.fname, tc.bus, tc.cfg)
			err := dev.load()
			if err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}
