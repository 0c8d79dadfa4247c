// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-lpc/ifx/annot"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

func (app *app) newBrowseCmd() *cobra.Command {
	var bus string
	cmd := &cobra.Command{
		Use:   "browse --bus spi|i2c FILE",
		Short: "Interactively browse the transfers and frames of a capture.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			br, err := app.newBrowser(bus, args[0])
			if err != nil {
				return err
			}
			return br.loop()
		},
	}
	cmd.Flags().StringVar(&bus, "bus", busSPI, "bus of the capture (spi, i2c)")
	return cmd
}

// browser is an interactive shell over a decoded capture.
type browser struct {
	out    io.Writer
	schema annot.Schema
	width  int
	rec    annot.Recorder
	rows   []string
}

func (app *app) newBrowser(bus, fname string) (*browser, error) {
	dec, err := newDecoder(bus, app.cfg, app.msg.WithField("capture", fname))
	if err != nil {
		return nil, err
	}
	br := &browser{
		out:    app.out,
		schema: dec.schema,
		width:  app.width(),
	}
	err = dec.run(fname, &br.rec)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(br.out, "%s: %d annotations, %d transfers, %d frames\n",
		fname, len(br.rec.Annotations), len(br.transfers()), len(br.rec.Frames()),
	)
	return br, nil
}

func (br *browser) loop() error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("ifx> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("could not read command: %w", err)
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		quit, err := br.eval(input)
		if err != nil {
			fmt.Fprintf(br.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

const browseHelp = `commands:
  frames             list the decoded command frames
  frame N            display frame N
  transfers          list the transfers
  show BEG END       display the annotations within samples [BEG, END]
  rows [r1,r2...]    restrict the displayed annotation rows
  help               display this help
  quit               leave the shell
`

// eval evaluates a shell command and reports whether the shell should exit.
func (br *browser) eval(input string) (bool, error) {
	toks := strings.Fields(input)
	switch toks[0] {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprint(br.out, browseHelp)
	case "frames":
		for i, f := range br.rec.Frames() {
			dir := "R"
			if f.Write {
				dir = "W"
			}
			fmt.Fprintf(br.out, "%4d %10d %-10d %s tag=0x%04X code=0x%08X len=%d %s\n",
				i, f.Start, f.End, dir, f.Tag, f.Code, f.Length, f.Name,
			)
		}
	case "frame":
		i, err := br.index(toks, len(br.rec.Frames()))
		if err != nil {
			return false, err
		}
		f := br.rec.Frames()[i]
		fmt.Fprintf(br.out, "bus:    %s\nspan:   [%d, %d]\nwrite:  %v\ntag:    0x%04X\nlength: %d\ncode:   0x%08X\nname:   %s\ndata:   % X\n",
			f.Bus, f.Start, f.End, f.Write, f.Tag, f.Length, f.Code, f.Name, f.Data,
		)
	case "transfers":
		for i, x := range br.transfers() {
			fmt.Fprintf(br.out, "%4d %10d %-10d mosi=%d miso=%d\n", i, x.Start, x.End, len(x.MOSI), len(x.MISO))
		}
	case "show":
		if len(toks) != 3 {
			return false, fmt.Errorf("usage: show BEG END")
		}
		beg, err := strconv.ParseInt(toks[1], 10, 64)
		if err != nil {
			return false, fmt.Errorf("invalid start sample %q: %w", toks[1], err)
		}
		end, err := strconv.ParseInt(toks[2], 10, 64)
		if err != nil {
			return false, fmt.Errorf("invalid end sample %q: %w", toks[2], err)
		}
		w := annot.NewWriter(br.out, br.schema, br.width)
		err = w.Filter(br.rows...)
		if err != nil {
			return false, err
		}
		for _, a := range br.rec.Annotations {
			if a.Start >= beg && a.End <= end {
				w.Annotate(a)
			}
		}
		return false, w.Err()
	case "rows":
		var rows []string
		if len(toks) > 1 {
			rows = strings.Split(toks[1], ",")
		}
		_, err := br.schema.Select(rows...)
		if err != nil {
			return false, err
		}
		br.rows = rows
	default:
		return false, fmt.Errorf("unknown command %q", toks[0])
	}
	return false, nil
}

func (br *browser) index(toks []string, n int) (int, error) {
	if len(toks) != 2 {
		return 0, fmt.Errorf("usage: %s N", toks[0])
	}
	i, err := strconv.Atoi(toks[1])
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", toks[1], err)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %d out of range [0, %d)", i, n)
	}
	return i, nil
}

func (br *browser) transfers() []annot.TransferEvent {
	var o []annot.TransferEvent
	for _, e := range br.rec.Events {
		if x, ok := e.(annot.TransferEvent); ok {
			o = append(o, x)
		}
	}
	return o
}
