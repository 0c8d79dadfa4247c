// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logic

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// CSVReader reads logic-analyzer CSV exports: one sample per record,
// one 0/1 column per channel.
// Lines starting with ';' are comments. A leading header record with
// channel names is skipped.
type CSVReader struct {
	r     *csv.Reader
	names []string
	line  int
}

// NewCSVReader returns a Reader over the CSV stream r.
func NewCSVReader(r io.Reader) *CSVReader {
	cr := csv.NewReader(r)
	cr.Comment = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &CSVReader{r: cr}
}

// Names returns the channel names of the header record, if any.
func (r *CSVReader) Names() []string {
	return r.names
}

// ReadSample implements Reader.
func (r *CSVReader) ReadSample() (uint64, error) {
	for {
		rec, err := r.r.Read()
		if err != nil {
			if xerrors.Is(err, io.EOF) {
				return 0, io.EOF
			}
			return 0, xerrors.Errorf("logic: could not read CSV record: %w", err)
		}
		r.line++

		if len(rec) > 64 {
			return 0, xerrors.Errorf("logic: too many channels (%d) in CSV record %d", len(rec), r.line)
		}

		v, ok, err := r.parse(rec)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		return v, nil
	}
}

func (r *CSVReader) parse(rec []string) (uint64, bool, error) {
	var v uint64
	for i, field := range rec {
		switch strings.TrimSpace(field) {
		case "0":
		case "1":
			v |= 1 << uint(i)
		default:
			if r.line == 1 {
				r.names = append([]string(nil), rec...)
				return 0, false, nil
			}
			return 0, false, xerrors.Errorf(
				"logic: invalid level %q in CSV record %d, column %d",
				field, r.line, i,
			)
		}
	}
	return v, true, nil
}

// WriteCSV writes the samples of len(names) channels as a CSV export with a
// header record holding the channel names.
func WriteCSV(w io.Writer, samples Samples, names []string) error {
	cw := csv.NewWriter(w)
	err := cw.Write(names)
	if err != nil {
		return xerrors.Errorf("logic: could not write CSV header: %w", err)
	}

	rec := make([]string, len(names))
	for _, v := range samples {
		for i := range rec {
			rec[i] = strconv.Itoa(int((v >> uint(i)) & 1))
		}
		err = cw.Write(rec)
		if err != nil {
			return xerrors.Errorf("logic: could not write CSV record: %w", err)
		}
	}
	cw.Flush()

	err = cw.Error()
	if err != nil {
		return xerrors.Errorf("logic: could not flush CSV records: %w", err)
	}
	return nil
}

var _ Reader = (*CSVReader)(nil)
