// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ifx-synth generates synthetic logic-analyzer captures of TPM
// and OPTIGA Trust M sessions.
//
// Usage:
//
//	ifx-synth -bus spi|i2c -o out.bin
//
// The output format is selected from the file extension: ".csv" for
// sigrok CSV exports, raw binary captures otherwise.
package main // import "github.com/go-lpc/ifx/cmd/ifx-synth"

import (
	"flag"
	"fmt"
	"log"

	"github.com/go-lpc/ifx/internal/synth"
	"github.com/go-lpc/ifx/logic"
	"github.com/go-lpc/ifx/trustm"
)

func main() {
	var (
		bus   = flag.String("bus", "spi", "bus of the generated session (spi, i2c)")
		oname = flag.String("o", "out.bin", "path to the output capture file")
		half  = flag.Int("half", 4, "samples per half clock period")
		addr  = flag.Uint("addr", trustm.DefaultAddress, "7-bit I2C address of the Trust M device")
	)

	flag.Parse()

	log.SetPrefix("ifx-synth: ")
	log.SetFlags(0)

	err := run(*oname, *bus, *half, uint8(*addr))
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

func run(oname, bus string, half int, addr uint8) error {
	if half <= 0 {
		return fmt.Errorf("invalid half clock period %d", half)
	}

	var (
		samples logic.Samples
		names   []string
	)
	switch bus {
	case "spi":
		samples, names = synth.TPMSession(half), synth.SPIChannels
	case "i2c":
		if addr > 0x7f {
			return fmt.Errorf("invalid I2C address 0x%x", addr)
		}
		samples, names = synth.TrustMSession(half, addr), synth.I2CChannels
	default:
		return fmt.Errorf("invalid bus %q", bus)
	}

	err := logic.Create(oname, samples, names)
	if err != nil {
		return fmt.Errorf("could not create capture: %w", err)
	}
	log.Printf("wrote %d samples to %q", len(samples), oname)
	return nil
}
