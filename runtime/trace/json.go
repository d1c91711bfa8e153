package trace

import (
	"encoding/json"
	"io"

	"github.com/aledsdavies/syntaxalyser/runtime/parser"
)

// Record is the JSON shape of one event
type Record struct {
	Event    string  `json:"event"`
	Rule     string  `json:"rule,omitempty"`
	Symbol   string  `json:"symbol,omitempty"`
	Text     *string `json:"text,omitempty"` // nil unless the symbol has a lexeme
	Line     int     `json:"line,omitempty"`
	Expected string  `json:"expected,omitempty"`
	Found    string  `json:"found,omitempty"`
}

// NewRecord converts an event to its JSON shape. Token text is only kept
// for identifier, number and string tokens, matching the text trace, and
// an empty string constant still carries "text":"".
func NewRecord(ev parser.Event) Record {
	rec := Record{Event: ev.Kind.String()}
	switch ev.Kind {
	case parser.EventBegin, parser.EventEnd:
		rec.Rule = ev.Rule.String()
	case parser.EventToken:
		rec.Symbol = ev.Token.Symbol.String()
		rec.Line = ev.Token.Line
		if ev.Token.Symbol.HasLexeme() {
			text := ev.Token.Text
			rec.Text = &text
		}
	case parser.EventError:
		rec.Expected = ev.Expected
		rec.Found = ev.Token.Text
		rec.Line = ev.Token.Line
	}
	return rec
}

// JSON writes one JSON object per event, newline separated
type JSON struct {
	enc *json.Encoder
	err error
}

// NewJSON creates a JSON lines renderer
func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w)}
}

// Emit implements parser.Sink
func (j *JSON) Emit(ev parser.Event) {
	if j.err != nil {
		return
	}
	j.err = j.enc.Encode(NewRecord(ev))
}

// Err returns the first encoding or write error
func (j *JSON) Err() error {
	return j.err
}
