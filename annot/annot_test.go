// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package annot

import (
	"reflect"
	"strings"
	"testing"
)

var testSchema = Schema{
	Name: "test",
	Classes: []Class{
		{Name: "data", Desc: "Data"},
		{Name: "err", Desc: "Error"},
		{Name: "frame", Desc: "Frame"},
	},
	Rows: []Row{
		{Name: "bytes", Desc: "Bytes", Classes: []int{0, 1}},
		{Name: "frames", Desc: "Frames", Classes: []int{2}},
	},
}

func TestFit(t *testing.T) {
	a := Annotation{Labels: []string{"TPM_CC_STARTUP", "STARTUP", "ST"}}
	for _, tc := range []struct {
		width int
		want  string
	}{
		{100, "TPM_CC_STARTUP"},
		{14, "TPM_CC_STARTUP"},
		{13, "STARTUP"},
		{7, "STARTUP"},
		{3, "ST"},
		{1, "ST"},
	} {
		if got := a.Fit(tc.width); got != tc.want {
			t.Fatalf("invalid label for width=%d: got=%q, want=%q", tc.width, got, tc.want)
		}
	}

	if got := (Annotation{}).Fit(10); got != "" {
		t.Fatalf("invalid empty label: got=%q", got)
	}
}

func TestRecorder(t *testing.T) {
	var (
		rec  Recorder
		sink = Multi(&rec, Discard)
		lbls = []string{"0xAA", "AA"}
	)
	sink.Annotate(Annotation{Start: 0, End: 8, Class: 0, Labels: lbls})
	sink.Annotate(Annotation{Start: 8, End: 16, Class: 1, Labels: []string{"PROTOCOL ERROR"}})
	sink.Annotate(Annotation{Start: 0, End: 16, Class: 2, Labels: []string{"FRAME"}})
	sink.Binary(Binary{Start: 0, End: 8, Class: 1, Data: []byte{0xaa}})
	sink.Bitrate(Bitrate{Start: 0, End: 8, Value: 1e6})
	sink.Event(FrameEvent{Start: 0, End: 16, Bus: "spi", Name: "TPM_CC_STARTUP"})
	sink.Event(IdleChange{At: 0, Old: Unknown, New: 0})

	lbls[0] = "modified"
	if got, want := rec.Labels(0), []string{"0xAA"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid labels: got=%q, want=%q", got, want)
	}
	if got, want := rec.Labels(1, 2), []string{"PROTOCOL ERROR", "FRAME"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid labels: got=%q, want=%q", got, want)
	}
	if got, want := len(rec.Binaries), 1; got != want {
		t.Fatalf("invalid binaries: got=%d, want=%d", got, want)
	}
	if got, want := len(rec.Bitrates), 1; got != want {
		t.Fatalf("invalid bitrates: got=%d, want=%d", got, want)
	}
	frames := rec.Frames()
	if len(frames) != 1 || frames[0].Name != "TPM_CC_STARTUP" {
		t.Fatalf("invalid frames: %+v", frames)
	}
	if beg, end := rec.Events[1].Span(); beg != 0 || end != 0 {
		t.Fatalf("invalid idle-change span: [%d, %d)", beg, end)
	}

	rec.Reset()
	if len(rec.Annotations)+len(rec.Binaries)+len(rec.Bitrates)+len(rec.Events) != 0 {
		t.Fatalf("recorder not reset")
	}
}

func TestSchema(t *testing.T) {
	if got, want := testSchema.ClassName(1), "err"; got != want {
		t.Fatalf("invalid class name: got=%q, want=%q", got, want)
	}
	if got := testSchema.ClassName(42); got != "" {
		t.Fatalf("invalid class name: got=%q", got)
	}
	row, ok := testSchema.RowOf(2)
	if !ok || row.Name != "frames" {
		t.Fatalf("invalid row: got=%+v (ok=%v)", row, ok)
	}
	_, ok = testSchema.RowOf(3)
	if ok {
		t.Fatalf("unexpected row for unknown class")
	}

	set, err := testSchema.Select("bytes")
	if err != nil {
		t.Fatalf("could not select rows: %+v", err)
	}
	if got, want := set, map[int]bool{0: true, 1: true}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid selection: got=%v, want=%v", got, want)
	}
	_, err = testSchema.Select("nope")
	if err == nil {
		t.Fatalf("expected an error for an unknown row")
	}
}

func TestWriter(t *testing.T) {
	var (
		o strings.Builder
		w = NewWriter(&o, testSchema, writerPrefix+4)
	)
	err := w.Filter("bytes")
	if err != nil {
		t.Fatalf("could not filter rows: %+v", err)
	}
	w.ShowBitrates(true)

	w.Annotate(Annotation{Start: 0, End: 8, Class: 0, Labels: []string{"0xAA", "AA"}})
	w.Annotate(Annotation{Start: 8, End: 16, Class: 1, Labels: []string{"PROTOCOL ERROR", "ERR", "E"}})
	w.Annotate(Annotation{Start: 0, End: 16, Class: 2, Labels: []string{"FRAME"}})
	w.Bitrate(Bitrate{Start: 0, End: 8, Value: 1000})
	if err := w.Err(); err != nil {
		t.Fatalf("could not write: %+v", err)
	}

	want := strings.Join([]string{
		"         0 8          data             0xAA",
		"         8 16         err              ERR",
		"         0 8          bitrate          1000 bit/s",
		"",
	}, "\n")
	if got := o.String(); got != want {
		t.Fatalf("invalid output:\ngot:\n%s\nwant:\n%s", got, want)
	}

	err = w.Filter("nope")
	if err == nil {
		t.Fatalf("expected an error for an unknown row")
	}
}

func TestBusKind(t *testing.T) {
	for _, tc := range []struct {
		kind BusKind
		want string
	}{
		{BusStart, "START"},
		{BusRepeatStart, "START REPEAT"},
		{BusDataWrite, "DATA WRITE"},
		{BusKind(0), "BusKind(0)"},
	} {
		if got := tc.kind.String(); got != tc.want {
			t.Fatalf("invalid bus kind: got=%q, want=%q", got, tc.want)
		}
	}
}
