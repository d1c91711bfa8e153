package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aledsdavies/syntaxalyser/core/logging"
	"github.com/aledsdavies/syntaxalyser/core/types"
)

// ParserOpt represents a parser configuration option
type ParserOpt func(*ParserConfig)

// TelemetryMode controls telemetry collection
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Token, event and depth counts
	TelemetryTiming                      // Counts + parse time
)

// ParserConfig holds parser configuration
type ParserConfig struct {
	telemetry TelemetryMode
	logger    *slog.Logger
	hints     bool
}

// WithTelemetryBasic enables count telemetry
func WithTelemetryBasic() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables counts plus timing
func WithTelemetryTiming() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryTiming
	}
}

// WithLogger sends rule-level debug records to logger
func WithLogger(logger *slog.Logger) ParserOpt {
	return func(c *ParserConfig) {
		c.logger = logger
	}
}

// WithHints enables keyword suggestions on syntax errors
func WithHints(enabled bool) ParserOpt {
	return func(c *ParserConfig) {
		c.hints = enabled
	}
}

// Parse checks a whole program: <statement part> followed by EOF.
// The returned error is nil, a *SyntaxError or a *SourceError.
func Parse(src TokenSource, sink Sink, opts ...ParserOpt) (*Result, error) {
	return ParseRule(NodeStatementPart, src, sink, opts...)
}

// ParseRule checks that the whole input derives from rule. Events go to
// sink in order; SUCCESS is emitted only if EOF is reached cleanly.
func ParseRule(rule NodeKind, src TokenSource, sink Sink, opts ...ParserOpt) (*Result, error) {
	config := &ParserConfig{}
	for _, opt := range opts {
		opt(config)
	}
	if sink == nil {
		sink = discardSink{}
	}

	p := &parser{
		src:    src,
		sink:   sink,
		config: config,
		logger: config.logger,
	}
	if p.logger == nil {
		p.logger = logging.Discard()
	}
	p.debug = p.logger.Enabled(context.Background(), slog.LevelDebug)

	body := p.ruleFunc(rule)
	if body == nil {
		return nil, fmt.Errorf("unknown rule %d", rule)
	}

	result := &Result{}
	var start time.Time
	if config.telemetry >= TelemetryBasic {
		result.Telemetry = &ParseTelemetry{}
		p.telemetry = result.Telemetry
		if config.telemetry >= TelemetryTiming {
			start = time.Now()
		}
	}

	err := p.run(body)

	if config.telemetry >= TelemetryTiming {
		result.Telemetry.ParseTime = time.Since(start)
	}
	if err != nil {
		p.logger.Debug("parse failed", slog.String("rule", rule.String()), slog.Any("error", err))
		return result, err
	}
	p.logger.Debug("parse succeeded", slog.String("rule", rule.String()))
	return result, nil
}

// run primes the lookahead, drives the start rule and requires EOF
func (p *parser) run(body func() error) error {
	if err := p.advance(); err != nil {
		return err
	}
	if err := body(); err != nil {
		return err
	}
	if err := p.accept(types.EOF); err != nil {
		return err
	}
	p.emit(Event{Kind: EventSuccess})
	return nil
}

// parser is the internal parser state. next is the only mutable piece
// of the grammar engine and only accept moves it.
type parser struct {
	src       TokenSource
	sink      Sink
	next      types.Token
	config    *ParserConfig
	logger    *slog.Logger
	debug     bool
	depth     int
	telemetry *ParseTelemetry
}

// rule runs body as the production for kind: it brackets the body with
// BEGIN/END events and, if the body fails with a syntax error, adds this
// rule's frame to the chain
func (p *parser) rule(kind NodeKind, body func() error) error {
	line := p.next.Line
	p.start(kind)
	if p.debug {
		p.logger.Debug("enter rule",
			slog.String("rule", kind.String()),
			slog.Int("line", line),
			slog.String("lookahead", p.next.Symbol.String()))
	}

	err := body()
	p.depth--
	if err != nil {
		return p.frame(err, kind, line)
	}

	p.finish(kind)
	if p.debug {
		p.logger.Debug("exit rule", slog.String("rule", kind.String()))
	}
	return nil
}

// frame appends context to a syntax error; source errors pass untouched
func (p *parser) frame(err error, kind NodeKind, line int) error {
	if se, ok := err.(*SyntaxError); ok {
		se.Frames = append(se.Frames, Frame{Rule: kind, Line: line})
	}
	return err
}

// at checks if the lookahead is of the given symbol
func (p *parser) at(sym types.Symbol) bool {
	return p.next.Symbol == sym
}

// accept consumes the lookahead if it is sym, otherwise reports an error
// and consumes nothing
func (p *parser) accept(sym types.Symbol) error {
	if !p.at(sym) {
		return p.reportError(fmt.Sprintf("'%s' at line %d", sym, p.next.Line), sym)
	}

	p.token()
	if sym == types.EOF {
		// Nothing follows EOF
		return nil
	}
	return p.advance()
}

// reportError is the single origin of syntax errors. It emits the error
// event and returns the error that the enclosing rules will add to.
func (p *parser) reportError(expected string, candidates ...types.Symbol) error {
	p.emit(Event{Kind: EventError, Token: p.next, Expected: expected})

	err := &SyntaxError{Expected: expected, Token: p.next}
	if p.config.hints {
		err.Hint = suggest(p.next, candidates)
	}
	return err
}

// advance pulls the next token from the source into the lookahead
func (p *parser) advance() error {
	tok, err := p.src.NextToken()
	if err != nil {
		return &SourceError{Err: err}
	}
	p.next = tok
	if p.telemetry != nil {
		p.telemetry.TokenCount++
	}
	return nil
}

// start emits a BEGIN event for kind
func (p *parser) start(kind NodeKind) {
	p.depth++
	if p.telemetry != nil && p.depth > p.telemetry.MaxDepth {
		p.telemetry.MaxDepth = p.depth
	}
	p.emit(Event{Kind: EventBegin, Rule: kind})
}

// finish emits an END event for kind
func (p *parser) finish(kind NodeKind) {
	p.emit(Event{Kind: EventEnd, Rule: kind})
}

// token emits a TOKEN event for the lookahead
func (p *parser) token() {
	p.emit(Event{Kind: EventToken, Token: p.next})
}

func (p *parser) emit(ev Event) {
	if p.telemetry != nil {
		p.telemetry.EventCount++
	}
	p.sink.Emit(ev)
}
