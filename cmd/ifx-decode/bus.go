// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/config"
	"github.com/go-lpc/ifx/logic"
	"github.com/go-lpc/ifx/tpm"
	"github.com/go-lpc/ifx/trustm"
	log "github.com/sirupsen/logrus"
)

const (
	busSPI = "spi"
	busI2C = "i2c"
)

// decoder is a decoding stack bound to its channel mapping.
type decoder struct {
	bus    string
	schema annot.Schema
	chans  []int
	decode func(src logic.Source, out annot.Sink) error
}

func newDecoder(bus string, cfg config.Config, msg log.FieldLogger) (decoder, error) {
	err := cfg.Validate()
	if err != nil {
		return decoder{}, err
	}

	switch bus {
	case busSPI:
		opts, err := cfg.SPIOptions()
		if err != nil {
			return decoder{}, err
		}
		dec := tpm.New(append(opts, tpm.WithLogger(msg))...)
		return decoder{
			bus:    bus,
			schema: tpm.Schema,
			chans:  cfg.SPIChannels(),
			decode: dec.Decode,
		}, nil
	case busI2C:
		opts, err := cfg.I2COptions()
		if err != nil {
			return decoder{}, err
		}
		dec := trustm.New(append(opts, trustm.WithLogger(msg))...)
		return decoder{
			bus:    bus,
			schema: trustm.Schema,
			chans:  cfg.I2CChannels(),
			decode: dec.Decode,
		}, nil
	}
	return decoder{}, fmt.Errorf("invalid bus %q", bus)
}

// run decodes the capture file fname into out.
func (dec decoder) run(fname string, out annot.Sink) error {
	f, err := logic.Open(fname, dec.chans...)
	if err != nil {
		return fmt.Errorf("could not open capture: %w", err)
	}
	defer f.Close()

	err = dec.decode(f, out)
	if err != nil {
		return fmt.Errorf("could not decode %q: %w", fname, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close %q: %w", fname, err)
	}
	return nil
}
