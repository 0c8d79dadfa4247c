// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sbinet/pmon"
	log "github.com/sirupsen/logrus"
)

// monitor starts monitoring the current process into the file fname.
// The returned function stops the monitoring.
func monitor(fname string, msg log.FieldLogger) (func(), error) {
	p, err := pmon.Monitor(os.Getpid())
	if err != nil {
		return nil, fmt.Errorf("could not monitor process: %w", err)
	}

	f, err := os.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("could not create pmon log file: %w", err)
	}
	p.W = f
	p.Freq = 1 * time.Second

	go func() {
		msg.Debugf("run pmon %q...", fname)
		err := p.Run()
		if err != nil {
			msg.Warnf("could not run monitoring: %+v", err)
		}
	}()

	return func() {
		err := p.Kill()
		if err != nil {
			msg.Warnf("could not stop monitoring: %+v", err)
		}
		err = f.Close()
		if err != nil {
			msg.Warnf("could not close pmon log file: %+v", err)
		}
	}, nil
}
