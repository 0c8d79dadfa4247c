// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command ifx-decode decodes SPI TPM and I2C OPTIGA Trust M traffic from
// logic-analyzer captures.
//
// Usage:
//
//	ifx-decode [--config FILE] [-v] [--pmon] spi [--cs-polarity P] [--samplerate HZ] [--rows r1,r2] FILE...
//	ifx-decode [--config FILE] [-v] [--pmon] i2c [--address A] [--address-format F] [--samplerate HZ] [--rows ...] FILE...
//	ifx-decode browse --bus spi|i2c FILE
//	ifx-decode export --bus spi|i2c --dsn DSN FILE...
//
// Captures with a ".csv" extension are read as sigrok CSV exports, all
// others as raw binary captures with one byte per sample.
package main // import "github.com/go-lpc/ifx/cmd/ifx-decode"

import (
	"fmt"
	"io"
	"os"

	"github.com/go-lpc/ifx"
	"github.com/go-lpc/ifx/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	app := newApp(os.Stdout)
	err := app.root.Execute()
	if err != nil {
		os.Exit(1)
	}
}

type app struct {
	root *cobra.Command
	out  io.Writer
	msg  *log.Logger

	cfgFile string
	verbose bool
	pmon    string
	cfg     config.Config

	stopMon func()
}

func newApp(out io.Writer) *app {
	app := &app{
		out: out,
		msg: log.StandardLogger(),
		cfg: config.Default(),
	}
	app.root = &cobra.Command{
		Use:           "ifx-decode",
		Short:         "Decode SPI TPM and I2C Trust M logic-analyzer captures.",
		Version:       version(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.stopMon != nil {
				app.stopMon()
			}
		},
	}
	flags := app.root.PersistentFlags()
	flags.StringVar(&app.cfgFile, "config", "", "path to a TOML configuration file")
	flags.BoolVarP(&app.verbose, "verbose", "v", false, "increase logging verbosity")
	flags.StringVar(&app.pmon, "pmon", "", "path to a file where to write self-monitoring data")

	app.root.AddCommand(
		app.newDecodeCmd(busSPI),
		app.newDecodeCmd(busI2C),
		app.newBrowseCmd(),
		app.newExportCmd(),
	)
	return app
}

func (app *app) setup() error {
	if app.verbose {
		app.msg.SetLevel(log.DebugLevel)
	}
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		app.msg.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	}

	if app.cfgFile != "" {
		cfg, err := config.Load(app.cfgFile)
		if err != nil {
			return fmt.Errorf("could not load configuration: %w", err)
		}
		app.cfg = cfg
		app.msg.WithField("config", app.cfgFile).Debugf("configuration loaded")
	}

	if app.pmon != "" {
		stop, err := monitor(app.pmon, app.msg)
		if err != nil {
			return fmt.Errorf("could not start self-monitoring: %w", err)
		}
		app.stopMon = stop
	}
	return nil
}

func version() string {
	v, sum := ifx.Version()
	if sum == "" {
		return v
	}
	return v + " " + sum
}

// width returns the width available to annotation labels.
func (app *app) width() int {
	f, ok := app.out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}
