package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/aledsdavies/syntaxalyser/runtime/parser"
)

var (
	colorRule    = lipgloss.Color("#8B5CF6") // Violet
	colorToken   = lipgloss.Color("#06B6D4") // Cyan
	colorLexeme  = lipgloss.Color("#F59E0B") // Amber
	colorSuccess = lipgloss.Color("#10B981") // Emerald
	colorError   = lipgloss.Color("#EF4444") // Red
	colorMuted   = lipgloss.Color("#6B7280") // Gray
)

// Pretty renders the trace as an indented tree. Rules open a level and
// close it silently; tokens are leaves.
type Pretty struct {
	w     io.Writer
	depth int
	err   error

	rule    lipgloss.Style
	token   lipgloss.Style
	lexeme  lipgloss.Style
	line    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

// ColorMode selects when the pretty renderer uses color
type ColorMode int

const (
	ColorAuto   ColorMode = iota // Color if the writer is a terminal
	ColorAlways                  // Color even when redirected
	ColorNever                   // Plain text
)

// ParseColorMode maps "auto", "always" and "never" to a ColorMode
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("unknown color mode %q", s)
	}
}

// NewPretty creates a tree renderer. With ColorNever no escape sequences
// are written, whatever w is.
func NewPretty(w io.Writer, mode ColorMode) *Pretty {
	r := lipgloss.NewRenderer(w)
	switch mode {
	case ColorAlways:
		r.SetColorProfile(termenv.TrueColor)
	case ColorNever:
		r.SetColorProfile(termenv.Ascii)
	}

	return &Pretty{
		w:       w,
		rule:    r.NewStyle().Foreground(colorRule).Bold(true),
		token:   r.NewStyle().Foreground(colorToken),
		lexeme:  r.NewStyle().Foreground(colorLexeme),
		line:    r.NewStyle().Foreground(colorMuted),
		success: r.NewStyle().Foreground(colorSuccess).Bold(true),
		failure: r.NewStyle().Foreground(colorError).Bold(true),
	}
}

// Emit implements parser.Sink
func (p *Pretty) Emit(ev parser.Event) {
	switch ev.Kind {
	case parser.EventBegin:
		p.writeLine(p.rule.Render(ev.Rule.String()))
		p.depth++
	case parser.EventEnd:
		p.depth--
	case parser.EventToken:
		s := p.token.Render(ev.Token.Symbol.String())
		if ev.Token.Symbol.HasLexeme() {
			s += " " + p.lexeme.Render("'"+ev.Token.Text+"'")
		}
		s += " " + p.line.Render(fmt.Sprintf("line %d", ev.Token.Line))
		p.writeLine(s)
	case parser.EventSuccess:
		p.depth = 0
		p.writeLine(p.success.Render("SUCCESS"))
	case parser.EventError:
		p.writeLine(p.failure.Render(fmt.Sprintf("expected %s, found: '%s'", ev.Expected, ev.Token.Text)))
	}
}

func (p *Pretty) writeLine(s string) {
	if p.err != nil {
		return
	}
	_, p.err = io.WriteString(p.w, strings.Repeat("  ", p.depth)+s+"\n")
}

// Err returns the first write error
func (p *Pretty) Err() error {
	return p.err
}
