// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package annot

import (
	"golang.org/x/xerrors"
)

// Class describes an annotation class.
type Class struct {
	Name string
	Desc string
}

// Row groups annotation classes displayed together.
type Row struct {
	Name    string
	Desc    string
	Classes []int
}

// Schema describes the annotation classes, rows and binary classes of
// a decoder.
type Schema struct {
	Name     string
	Classes  []Class
	Rows     []Row
	Binaries []Class
}

// ClassName returns the name of the annotation class id.
func (s Schema) ClassName(id int) string {
	if id < 0 || id >= len(s.Classes) {
		return ""
	}
	return s.Classes[id].Name
}

// RowOf returns the row displaying the annotation class id.
func (s Schema) RowOf(id int) (Row, bool) {
	for _, row := range s.Rows {
		for _, c := range row.Classes {
			if c == id {
				return row, true
			}
		}
	}
	return Row{}, false
}

// Select returns the set of annotation classes displayed by the named rows.
func (s Schema) Select(rows ...string) (map[int]bool, error) {
	set := make(map[int]bool)
	for _, name := range rows {
		found := false
		for _, row := range s.Rows {
			if row.Name != name {
				continue
			}
			found = true
			for _, c := range row.Classes {
				set[c] = true
			}
		}
		if !found {
			return nil, xerrors.Errorf("annot: unknown %s row %q", s.Name, name)
		}
	}
	return set, nil
}
