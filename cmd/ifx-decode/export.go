// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-lpc/ifx/annot"
	"github.com/go-lpc/ifx/framedb"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (app *app) newExportCmd() *cobra.Command {
	var (
		bus string
		dsn string
	)
	cmd := &cobra.Command{
		Use:   "export --bus spi|i2c --dsn DSN FILE...",
		Short: "Export the decoded command frames of captures to a SQL database.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("missing database DSN")
			}
			db, err := framedb.Open(dsn)
			if err != nil {
				return err
			}
			defer db.Close()
			return app.export(cmd.Context(), db, bus, args)
		},
	}
	cmd.Flags().StringVar(&bus, "bus", busSPI, "bus of the captures (spi, i2c)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "data source name of the frames database (user:pass@tcp(host)/db)")
	return cmd
}

// export decodes the captures concurrently and stores their frames.
func (app *app) export(ctx context.Context, db *framedb.DB, bus string, fnames []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	err := db.Setup(ctx)
	if err != nil {
		return err
	}

	frames := make([][]annot.FrameEvent, len(fnames))
	grp, gctx := errgroup.WithContext(ctx)
	for i := range fnames {
		i := i
		grp.Go(func() error {
			dec, err := newDecoder(bus, app.cfg, app.msg.WithField("capture", fnames[i]))
			if err != nil {
				return err
			}
			var rec annot.Recorder
			err = dec.run(fnames[i], &rec)
			if err != nil {
				return err
			}
			frames[i] = rec.Frames()
			return gctx.Err()
		})
	}
	err = grp.Wait()
	if err != nil {
		return err
	}

	for i, fname := range fnames {
		name := filepath.Base(fname)
		err = db.Insert(ctx, name, frames[i])
		if err != nil {
			return err
		}
		app.msg.WithFields(log.Fields{
			"capture": name,
			"frames":  len(frames[i]),
		}).Infof("frames exported")
	}
	return nil
}
