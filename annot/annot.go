// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package annot holds the output records produced by protocol decoders:
// annotations over sample ranges, binary records, bitrates and typed
// events for chained decoders.
package annot // import "github.com/go-lpc/ifx/annot"

// Annotation is a labelled sample range [Start, End).
// Labels are ordered from the most to the least verbose rendering.
type Annotation struct {
	Start  int64
	End    int64
	Class  int
	Labels []string
}

// Label returns the most verbose label, if any.
func (a Annotation) Label() string {
	if len(a.Labels) == 0 {
		return ""
	}
	return a.Labels[0]
}

// Fit returns the most verbose label that is at most width runes long.
// The shortest label is returned when none fits.
func (a Annotation) Fit(width int) string {
	if len(a.Labels) == 0 {
		return ""
	}
	for _, lbl := range a.Labels {
		if len([]rune(lbl)) <= width {
			return lbl
		}
	}
	return a.Labels[len(a.Labels)-1]
}

// Binary is a raw byte record attached to a sample range.
type Binary struct {
	Start int64
	End   int64
	Class int
	Data  []byte
}

// Bitrate is a bitrate measurement, in bits per second, over a sample range.
type Bitrate struct {
	Start int64
	End   int64
	Value float64
}

// Sink consumes decoder output.
type Sink interface {
	Annotate(a Annotation)
	Binary(b Binary)
	Bitrate(b Bitrate)
	Event(e Event)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Annotate(Annotation) {}
func (discard) Binary(Binary)       {}
func (discard) Bitrate(Bitrate)     {}
func (discard) Event(Event)         {}

// Multi returns a Sink duplicating its input to all the provided sinks.
func Multi(sinks ...Sink) Sink {
	return multi(append([]Sink(nil), sinks...))
}

type multi []Sink

func (m multi) Annotate(a Annotation) {
	for _, s := range m {
		s.Annotate(a)
	}
}

func (m multi) Binary(b Binary) {
	for _, s := range m {
		s.Binary(b)
	}
}

func (m multi) Bitrate(b Bitrate) {
	for _, s := range m {
		s.Bitrate(b)
	}
}

func (m multi) Event(e Event) {
	for _, s := range m {
		s.Event(e)
	}
}

// Recorder is a Sink keeping everything in memory.
type Recorder struct {
	Annotations []Annotation
	Binaries    []Binary
	Bitrates    []Bitrate
	Events      []Event
}

func (r *Recorder) Annotate(a Annotation) {
	a.Labels = append([]string(nil), a.Labels...)
	r.Annotations = append(r.Annotations, a)
}

func (r *Recorder) Binary(b Binary) {
	b.Data = append([]byte(nil), b.Data...)
	r.Binaries = append(r.Binaries, b)
}

func (r *Recorder) Bitrate(b Bitrate) {
	r.Bitrates = append(r.Bitrates, b)
}

func (r *Recorder) Event(e Event) {
	r.Events = append(r.Events, e)
}

// Reset clears all the recorded output.
func (r *Recorder) Reset() {
	r.Annotations = r.Annotations[:0]
	r.Binaries = r.Binaries[:0]
	r.Bitrates = r.Bitrates[:0]
	r.Events = r.Events[:0]
}

// Find returns the recorded annotations of the provided classes.
func (r *Recorder) Find(classes ...int) []Annotation {
	var o []Annotation
	for _, a := range r.Annotations {
		for _, c := range classes {
			if a.Class == c {
				o = append(o, a)
				break
			}
		}
	}
	return o
}

// Labels returns the most verbose label of each recorded annotation of
// the provided classes.
func (r *Recorder) Labels(classes ...int) []string {
	var o []string
	for _, a := range r.Find(classes...) {
		o = append(o, a.Label())
	}
	return o
}

// Frames returns the recorded frame events.
func (r *Recorder) Frames() []FrameEvent {
	var o []FrameEvent
	for _, e := range r.Events {
		if f, ok := e.(FrameEvent); ok {
			o = append(o, f)
		}
	}
	return o
}

var (
	_ Sink = (*Recorder)(nil)
	_ Sink = multi(nil)
)
