package trace

import "github.com/aledsdavies/syntaxalyser/runtime/parser"

// Recorder keeps every event in memory
type Recorder struct {
	events []parser.Event
}

// Emit implements parser.Sink
func (r *Recorder) Emit(ev parser.Event) {
	r.events = append(r.events, ev)
}

// Events returns the recorded events in emission order
func (r *Recorder) Events() []parser.Event {
	return r.events
}

// Lines renders the recorded events in the text trace format
func (r *Recorder) Lines() []string {
	var out []string
	for _, ev := range r.events {
		out = append(out, Lines(ev)...)
	}
	return out
}

// Tee fans events out to several sinks in order
func Tee(sinks ...parser.Sink) parser.Sink {
	return tee(sinks)
}

type tee []parser.Sink

func (t tee) Emit(ev parser.Event) {
	for _, s := range t {
		s.Emit(ev)
	}
}
