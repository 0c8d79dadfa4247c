// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"

	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/config"
	"github.com/go-lpc/ifx/tpm"
	"github.com/go-lpc/ifx/trustm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type decodeFlags struct {
	rate     float64
	rows     []string
	bitrates bool

	polarity string
	address  uint8
	format   string
}

func (app *app) newDecodeCmd(bus string) *cobra.Command {
	var (
		flags decodeFlags
		short = "Decode SPI TPM captures."
	)
	if bus == busI2C {
		short = "Decode I2C OPTIGA Trust M captures."
	}

	cmd := &cobra.Command{
		Use:   bus + " [flags] FILE...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.apply(cmd, app.cfg)
			if err != nil {
				return err
			}
			return app.decode(bus, cfg, flags, args)
		},
	}

	fset := cmd.Flags()
	fset.Float64Var(&flags.rate, "samplerate", 0, "sample rate of the captures, in Hz")
	fset.StringSliceVar(&flags.rows, "rows", nil, "annotation rows to display (default: all)")
	fset.BoolVar(&flags.bitrates, "bitrates", false, "display bitrate records")
	switch bus {
	case busSPI:
		fset.StringVar(&flags.polarity, "cs-polarity", tpm.ActiveLow.String(), "chip-select polarity (active-low, active-high)")
	case busI2C:
		fset.Uint8Var(&flags.address, "address", trustm.DefaultAddress, "7-bit address of the Trust M device")
		fset.StringVar(&flags.format, "address-format", trustm.Shifted.String(), "address display format (shifted, unshifted)")
	}
	return cmd
}

// apply overrides the configuration with the flags set on the command line.
func (flags decodeFlags) apply(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	fset := cmd.Flags()
	if fset.Changed("samplerate") {
		cfg.SampleRate = flags.rate
	}
	if fset.Changed("cs-polarity") {
		cfg.SPI.CSPolarity = flags.polarity
	}
	if fset.Changed("address") {
		cfg.I2C.Address = int(flags.address)
	}
	if fset.Changed("address-format") {
		cfg.I2C.AddressFormat = flags.format
	}
	err := cfg.Validate()
	if err != nil {
		return cfg, fmt.Errorf("invalid decoding options: %w", err)
	}
	return cfg, nil
}

// decode decodes all the captures concurrently and prints their
// annotations in the order of the command line.
func (app *app) decode(bus string, cfg config.Config, flags decodeFlags, fnames []string) error {
	var (
		grp   errgroup.Group
		width = app.width()
		outs  = make([]bytes.Buffer, len(fnames))
	)
	for i := range fnames {
		i := i
		grp.Go(func() error {
			fname := fnames[i]
			msg := app.msg.WithField("capture", fname)
			dec, err := newDecoder(bus, cfg, msg)
			if err != nil {
				return err
			}
			w := annot.NewWriter(&outs[i], dec.schema, width)
			w.ShowBitrates(flags.bitrates)
			err = w.Filter(flags.rows...)
			if err != nil {
				return fmt.Errorf("invalid rows: %w", err)
			}

			err = dec.run(fname, w)
			if err != nil {
				return err
			}
			if err := w.Err(); err != nil {
				return fmt.Errorf("could not write annotations of %q: %w", fname, err)
			}
			msg.Debugf("capture decoded")
			return nil
		})
	}

	err := grp.Wait()
	if err != nil {
		return err
	}

	for i, fname := range fnames {
		if len(fnames) > 1 {
			fmt.Fprintf(app.out, "== %s\n", fname)
		}
		_, err = outs[i].WriteTo(app.out)
		if err != nil {
			return fmt.Errorf("could not print annotations of %q: %w", fname, err)
		}
	}
	return nil
}
