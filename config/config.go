// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the channel mapping, sample rate and decoder
// options of a capture from a TOML file.
package config // import "github.com/go-lpc/ifx/config"

import (
	"github.com/BurntSushi/toml"
	"github.com/go-lpc/ifx/tpm"
	"github.com/go-lpc/ifx/trustm"
	"golang.org/x/xerrors"
)

// Config describes how a capture is decoded.
type Config struct {
	SampleRate float64 `toml:"samplerate"`
	SPI        SPI     `toml:"spi"`
	I2C        I2C     `toml:"i2c"`
}

// SPI holds the physical channels and options of an SPI capture.
type SPI struct {
	CLK        int    `toml:"clk"`
	MISO       int    `toml:"miso"`
	MOSI       int    `toml:"mosi"`
	CS         int    `toml:"cs"` // -1 disables chip-select
	CSPolarity string `toml:"cs_polarity"`
}

// I2C holds the physical channels and options of an I2C capture.
type I2C struct {
	SCL           int    `toml:"scl"`
	SDA           int    `toml:"sda"`
	Address       int    `toml:"address"`
	AddressFormat string `toml:"address_format"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		SampleRate: 1e6,
		SPI: SPI{
			CLK:        0,
			MISO:       1,
			MOSI:       2,
			CS:         3,
			CSPolarity: tpm.ActiveLow.String(),
		},
		I2C: I2C{
			SCL:           0,
			SDA:           1,
			Address:       trustm.DefaultAddress,
			AddressFormat: trustm.Shifted.String(),
		},
	}
}

// Load reads the TOML file at path.
// Keys absent from the file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, xerrors.Errorf("config: could not decode %q: %w", path, err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return Config{}, xerrors.Errorf("config: unknown key %q in %q", keys[0].String(), path)
	}
	err = cfg.Validate()
	if err != nil {
		return Config{}, xerrors.Errorf("config: invalid configuration %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the channel assignments and option names.
func (cfg Config) Validate() error {
	if cfg.SampleRate < 0 {
		return xerrors.Errorf("config: invalid sample rate %g", cfg.SampleRate)
	}

	_, err := tpm.ParsePolarity(cfg.SPI.CSPolarity)
	if err != nil {
		return xerrors.Errorf("config: invalid [spi] section: %w", err)
	}
	err = checkChannels("spi", []channel{
		{"clk", cfg.SPI.CLK, true},
		{"miso", cfg.SPI.MISO, false},
		{"mosi", cfg.SPI.MOSI, false},
		{"cs", cfg.SPI.CS, false},
	})
	if err != nil {
		return err
	}

	_, err = trustm.ParseAddressFormat(cfg.I2C.AddressFormat)
	if err != nil {
		return xerrors.Errorf("config: invalid [i2c] section: %w", err)
	}
	if cfg.I2C.Address < 0 || cfg.I2C.Address > 0x7f {
		return xerrors.Errorf("config: invalid I2C address 0x%x", cfg.I2C.Address)
	}
	return checkChannels("i2c", []channel{
		{"scl", cfg.I2C.SCL, true},
		{"sda", cfg.I2C.SDA, true},
	})
}

type channel struct {
	name      string
	pin       int
	mandatory bool
}

func checkChannels(bus string, chans []channel) error {
	seen := make(map[int]string, len(chans))
	for _, ch := range chans {
		switch {
		case ch.pin < 0 && ch.mandatory:
			return xerrors.Errorf("config: missing %s channel %q", bus, ch.name)
		case ch.pin < 0:
			continue
		case ch.pin >= 64:
			return xerrors.Errorf("config: invalid %s channel %q=%d", bus, ch.name, ch.pin)
		}
		if o, dup := seen[ch.pin]; dup {
			return xerrors.Errorf("config: %s channels %q and %q share pin %d", bus, o, ch.name, ch.pin)
		}
		seen[ch.pin] = ch.name
	}
	return nil
}

// SPIChannels returns the logical to physical channel map of the
// tpm decoder.
func (cfg Config) SPIChannels() []int {
	chans := make([]int, tpm.ChanCS+1)
	chans[tpm.ChanCLK] = cfg.SPI.CLK
	chans[tpm.ChanMISO] = cfg.SPI.MISO
	chans[tpm.ChanMOSI] = cfg.SPI.MOSI
	chans[tpm.ChanCS] = cfg.SPI.CS
	return chans
}

// I2CChannels returns the logical to physical channel map of the
// trustm decoder.
func (cfg Config) I2CChannels() []int {
	chans := make([]int, trustm.ChanSDA+1)
	chans[trustm.ChanSCL] = cfg.I2C.SCL
	chans[trustm.ChanSDA] = cfg.I2C.SDA
	return chans
}

// SPIOptions returns the tpm decoder options.
func (cfg Config) SPIOptions() ([]tpm.Option, error) {
	pol, err := tpm.ParsePolarity(cfg.SPI.CSPolarity)
	if err != nil {
		return nil, xerrors.Errorf("config: %w", err)
	}
	return []tpm.Option{
		tpm.WithSampleRate(cfg.SampleRate),
		tpm.WithCSPolarity(pol),
	}, nil
}

// I2COptions returns the trustm decoder options.
func (cfg Config) I2COptions() ([]trustm.Option, error) {
	format, err := trustm.ParseAddressFormat(cfg.I2C.AddressFormat)
	if err != nil {
		return nil, xerrors.Errorf("config: %w", err)
	}
	return []trustm.Option{
		trustm.WithSampleRate(cfg.SampleRate),
		trustm.WithAddress(uint8(cfg.I2C.Address)),
		trustm.WithAddressFormat(format),
	}, nil
}
