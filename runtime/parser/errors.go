package parser

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/syntaxalyser/core/types"
)

// Frame is one level of context on a syntax error: the rule that was
// active and the line on which it started
type Frame struct {
	Rule NodeKind
	Line int
}

// Message formats the frame the way it appears in reports
func (f Frame) Message() string {
	return fmt.Sprintf("'%s' at line %d.", f.Rule, f.Line)
}

// SyntaxError is the first grammar violation found in the input.
// Frames run from the innermost rule (where the mismatch happened) out
// to the rule the parse started from.
type SyntaxError struct {
	Expected string      // description of what the grammar wanted
	Token    types.Token // offending lookahead token
	Frames   []Frame
	Hint     string // optional suggestion, never part of the report
}

// Error returns the message raised at the point of origin
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("expected %s, found: '%s'", e.Expected, e.Token.Text)
}

// Line returns the line of the offending token
func (e *SyntaxError) Line() int {
	return e.Token.Line
}

// Trace renders the chain outermost frame first, each level indented two
// spaces deeper than the one enclosing it, ending with the origin message
func (e *SyntaxError) Trace() string {
	var sb strings.Builder
	depth := 0
	for i := len(e.Frames) - 1; i >= 0; i-- {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(e.Frames[i].Message())
		sb.WriteByte('\n')
		depth++
	}
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(e.Error())
	return sb.String()
}

// Rules returns the rules of the chain, outermost first
func (e *SyntaxError) Rules() []NodeKind {
	out := make([]NodeKind, 0, len(e.Frames))
	for i := len(e.Frames) - 1; i >= 0; i-- {
		out = append(out, e.Frames[i].Rule)
	}
	return out
}

// SourceError reports that the token source failed. No context frames
// are collected for it.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("token source: %v", e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
