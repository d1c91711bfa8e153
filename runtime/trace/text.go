// Package trace renders parser events. Every renderer implements
// parser.Sink so any of them, or several through Tee, can be handed to
// parser.Parse.
package trace

import (
	"fmt"
	"io"

	"github.com/aledsdavies/syntaxalyser/runtime/parser"
)

// Lines renders one event in the line-oriented trace format. Errors
// take two lines, everything else one.
func Lines(ev parser.Event) []string {
	switch ev.Kind {
	case parser.EventBegin:
		return []string{"BEGIN " + ev.Rule.String()}
	case parser.EventEnd:
		return []string{"END " + ev.Rule.String()}
	case parser.EventToken:
		return []string{"TOKEN " + describeToken(ev)}
	case parser.EventSuccess:
		return []string{"SUCCESS"}
	case parser.EventError:
		return []string{
			"COMPILATION_EXCEPTION",
			fmt.Sprintf("EXPECTED %s, found: '%s'", ev.Expected, ev.Token.Text),
		}
	default:
		return []string{ev.Kind.String()}
	}
}

// describeToken gives "<kind>[ '<lexeme>'] on line <n>"
func describeToken(ev parser.Event) string {
	tok := ev.Token
	s := tok.Symbol.String()
	if tok.Symbol.HasLexeme() {
		s += " '" + tok.Text + "'"
	}
	return fmt.Sprintf("%s on line %d", s, tok.Line)
}

// Text writes the line-oriented trace to an io.Writer
type Text struct {
	w      io.Writer
	prefix string
	err    error
}

// NewText creates a text renderer. prefix is put in front of every line.
func NewText(w io.Writer, prefix string) *Text {
	return &Text{w: w, prefix: prefix}
}

// Emit writes the event. After the first write error nothing more is
// written; Err reports it.
func (t *Text) Emit(ev parser.Event) {
	if t.err != nil {
		return
	}
	for _, line := range Lines(ev) {
		if _, err := io.WriteString(t.w, t.prefix+line+"\n"); err != nil {
			t.err = err
			return
		}
	}
}

// Err returns the first write error, if any
func (t *Text) Err() error {
	return t.err
}
