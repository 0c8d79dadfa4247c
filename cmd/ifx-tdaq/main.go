// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ifx-tdaq starts a TDAQ node publishing the command frames
// decoded from a capture file.
//
// Usage:
//
//	ifx-tdaq <node-name> (tdaq flags) -capture FILE -bus spi|i2c
//
// The /init command decodes the capture. Once started, the node
// publishes the decoded frames, encoded with the wire package, on its
// /frames output.
package main // import "github.com/go-lpc/ifx/cmd/ifx-tdaq"

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/config"
	"github.com/go-lpc/ifx/logic"
	"github.com/go-lpc/ifx/tpm"
	"github.com/go-lpc/ifx/trustm"
	"github.com/go-lpc/ifx/wire"
)

var (
	capture = flag.String("capture", "", "path to the capture file to decode")
	bus     = flag.String("bus", "spi", "bus of the capture (spi, i2c)")
	cfgFile = flag.String("config", "", "path to a TOML configuration file")
)

func main() {
	cmd := flags.New()

	cfg := config.Default()
	if *cfgFile != "" {
		var err error
		cfg, err = config.Load(*cfgFile)
		if err != nil {
			log.Fatalf("could not load configuration: %+v", err)
		}
	}

	dev := newNode(cmd.Args[0], *capture, *bus, cfg)

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/frames", dev.frames)

	srv.RunHandle(dev.run)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

// node publishes the frames decoded from a capture.
type node struct {
	name  string
	fname string
	bus   string
	cfg   config.Config

	mu   sync.Mutex
	recs []annot.FrameEvent
	next int // index of the next frame to publish

	data chan []byte
}

func newNode(name, fname, bus string, cfg config.Config) *node {
	return &node{
		name:  name,
		fname: fname,
		bus:   bus,
		cfg:   cfg,
	}
}

// load decodes the capture and resets the publication.
func (dev *node) load() error {
	src, err := logic.Open(dev.fname, dev.channels()...)
	if err != nil {
		return fmt.Errorf("could not open capture: %w", err)
	}
	defer src.Close()

	var rec annot.Recorder
	switch dev.bus {
	case "spi":
		opts, err := dev.cfg.SPIOptions()
		if err != nil {
			return err
		}
		err = tpm.New(opts...).Decode(src, &rec)
		if err != nil {
			return fmt.Errorf("could not decode capture: %w", err)
		}
	case "i2c":
		opts, err := dev.cfg.I2COptions()
		if err != nil {
			return err
		}
		err = trustm.New(opts...).Decode(src, &rec)
		if err != nil {
			return fmt.Errorf("could not decode capture: %w", err)
		}
	default:
		return fmt.Errorf("invalid bus %q", dev.bus)
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.recs = rec.Frames()
	dev.next = 0
	dev.data = make(chan []byte, 1024)
	return nil
}

func (dev *node) channels() []int {
	if dev.bus == "i2c" {
		return dev.cfg.I2CChannels()
	}
	return dev.cfg.SPIChannels()
}

// pop returns the encoded next frame to publish, if any.
func (dev *node) pop() ([]byte, bool, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.next >= len(dev.recs) {
		return nil, false, nil
	}
	buf := new(bytes.Buffer)
	err := wire.NewEncoder(buf).Encode(dev.recs[dev.next])
	if err != nil {
		return nil, false, fmt.Errorf("could not encode frame %d: %w", dev.next, err)
	}
	dev.next++
	return buf.Bytes(), true, nil
}

func (dev *node) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")
	err := dev.cfg.Validate()
	if err != nil {
		ctx.Msg.Errorf("invalid configuration: %+v", err)
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (dev *node) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	err := dev.load()
	if err != nil {
		ctx.Msg.Errorf("could not load capture %q: %+v", dev.fname, err)
		return fmt.Errorf("could not load capture %q: %w", dev.fname, err)
	}
	ctx.Msg.Infof("capture %q: %d frames", dev.fname, len(dev.recs))
	return nil
}

func (dev *node) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	return dev.load()
}

func (dev *node) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (dev *node) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	dev.mu.Lock()
	n := dev.next
	dev.mu.Unlock()
	ctx.Msg.Debugf("received /stop command... -> n=%d", n)
	return nil
}

func (dev *node) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

func (dev *node) frames(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-dev.data:
		dst.Body = data
	}
	return nil
}

func (dev *node) run(ctx tdaq.Context) error {
	for {
		raw, ok, err := dev.pop()
		if err != nil {
			return err
		}
		if !ok {
			<-ctx.Ctx.Done()
			return nil
		}
		select {
		case <-ctx.Ctx.Done():
			return nil
		case dev.data <- raw:
		}
	}
}
