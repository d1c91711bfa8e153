package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/aledsdavies/syntaxalyser/core/types"
)

// LexerOpt represents a lexer configuration option
type LexerOpt func(*LexerConfig)

// TelemetryMode controls telemetry collection
type TelemetryMode int

const (
	TelemetryOff   TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                      // Token counts per symbol
)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	telemetry  TelemetryMode
	bufferSize int
}

// WithTelemetryBasic enables per-symbol token counts
func WithTelemetryBasic() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithBufferSize sets the size of the read buffer
func WithBufferSize(n int) LexerOpt {
	return func(c *LexerConfig) {
		c.bufferSize = n
	}
}

// ReadError reports a failure of the underlying reader. It is never
// produced for running out of input; that yields EOF tokens instead.
type ReadError struct {
	Line int
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read error at line %d: %v", e.Line, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Lexer turns a byte stream into tokens, one per NextToken call
type Lexer struct {
	r    *bufio.Reader
	line int
	err  error // sticky once the reader has failed

	telemetryMode TelemetryMode
	counts        map[types.Symbol]int
}

// New creates a lexer reading from r
func New(r io.Reader, opts ...LexerOpt) *Lexer {
	config := &LexerConfig{bufferSize: 4096}
	for _, opt := range opts {
		opt(config)
	}
	if config.bufferSize < 16 {
		config.bufferSize = 16
	}

	l := &Lexer{
		r:             bufio.NewReaderSize(r, config.bufferSize),
		line:          1,
		telemetryMode: config.telemetry,
	}

	// Only allocate telemetry structures when needed
	if config.telemetry > TelemetryOff {
		l.counts = make(map[types.Symbol]int)
	}
	return l
}

// NewString is a convenience wrapper for tests
func NewString(input string, opts ...LexerOpt) *Lexer {
	return New(strings.NewReader(input), opts...)
}

// Tokenize collects every token from r up to and including EOF
func Tokenize(r io.Reader, opts ...LexerOpt) ([]types.Token, error) {
	l := New(r, opts...)
	var tokens []types.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Symbol == types.EOF {
			return tokens, nil
		}
	}
}

// Line returns the line the lexer is currently on
func (l *Lexer) Line() int {
	return l.line
}

// Counts returns a copy of the per-symbol token counts, or nil when
// telemetry is off
func (l *Lexer) Counts() map[types.Symbol]int {
	if l.telemetryMode == TelemetryOff || l.counts == nil {
		return nil
	}

	result := make(map[types.Symbol]int, len(l.counts))
	for k, v := range l.counts {
		result[k] = v
	}
	return result
}

// NextToken returns the next token. Once the input is exhausted it keeps
// returning EOF tokens. A failing reader produces a *ReadError, and every
// later call returns the same error.
func (l *Lexer) NextToken() (types.Token, error) {
	if l.err != nil {
		return types.Token{}, l.err
	}

	tok, err := l.lexToken()
	if err != nil {
		l.err = &ReadError{Line: l.line, Err: err}
		return types.Token{}, l.err
	}

	if l.telemetryMode > TelemetryOff {
		l.counts[tok.Symbol]++
	}
	return tok, nil
}

// lexToken performs the actual tokenization work
func (l *Lexer) lexToken() (types.Token, error) {
	if err := l.skipWhitespace(); err != nil {
		return types.Token{}, err
	}

	ch, ok, err := l.readByte()
	if err != nil {
		return types.Token{}, err
	}
	if !ok {
		return types.Token{Symbol: types.EOF, Line: l.line}, nil
	}

	line := l.line
	switch {
	case isLetter(ch):
		return l.lexIdentifier(ch, line)
	case isDigit(ch):
		return l.lexNumber(ch, line)
	case ch == '"':
		return l.lexString(line)
	}

	switch ch {
	case '+':
		return types.Token{Symbol: types.Plus, Text: "+", Line: line}, nil
	case '-':
		return types.Token{Symbol: types.Minus, Text: "-", Line: line}, nil
	case '*':
		return types.Token{Symbol: types.Times, Text: "*", Line: line}, nil
	case '=':
		return types.Token{Symbol: types.Equal, Text: "=", Line: line}, nil
	case '(':
		return types.Token{Symbol: types.LeftParenthesis, Text: "(", Line: line}, nil
	case ')':
		return types.Token{Symbol: types.RightParenthesis, Text: ")", Line: line}, nil
	case ',':
		return types.Token{Symbol: types.Comma, Text: ",", Line: line}, nil
	case ';':
		return types.Token{Symbol: types.Semicolon, Text: ";", Line: line}, nil
	case '/':
		return l.lexPair(ch, types.Divide, types.NotEqual, line)
	case '>':
		return l.lexPair(ch, types.GreaterThan, types.GreaterEqual, line)
	case '<':
		return l.lexPair(ch, types.LessThan, types.LessEqual, line)
	case ':':
		return l.lexPair(ch, types.Illegal, types.Becomes, line)
	}

	// Unrecognized character, keep whole runes together
	text := string(ch)
	if ch >= utf8.RuneSelf {
		if err := l.r.UnreadByte(); err != nil {
			return types.Token{}, err
		}
		r, _, err := l.r.ReadRune()
		if err != nil {
			return types.Token{}, err
		}
		text = string(r)
	}
	return types.Token{Symbol: types.Illegal, Text: text, Line: line}, nil
}

// lexPair handles the one-or-two character operators whose second
// character is always '='
func (l *Lexer) lexPair(first byte, single, double types.Symbol, line int) (types.Token, error) {
	next, err := l.peek(1)
	if err != nil {
		return types.Token{}, err
	}
	if len(next) == 1 && next[0] == '=' {
		l.r.ReadByte()
		return types.Token{Symbol: double, Text: string([]byte{first, '='}), Line: line}, nil
	}
	return types.Token{Symbol: single, Text: string(first), Line: line}, nil
}

// lexIdentifier reads an identifier or keyword
func (l *Lexer) lexIdentifier(first byte, line int) (types.Token, error) {
	var sb strings.Builder
	sb.WriteByte(first)
	if err := l.readWhile(&sb, isIdentPart); err != nil {
		return types.Token{}, err
	}

	text := sb.String()
	if sym, ok := types.Keywords[text]; ok {
		return types.Token{Symbol: sym, Text: text, Line: line}, nil
	}
	return types.Token{Symbol: types.Identifier, Text: text, Line: line}, nil
}

// lexNumber reads digits with an optional fractional part
func (l *Lexer) lexNumber(first byte, line int) (types.Token, error) {
	var sb strings.Builder
	sb.WriteByte(first)
	if err := l.readWhile(&sb, isDigit); err != nil {
		return types.Token{}, err
	}

	next, err := l.peek(2)
	if err != nil {
		return types.Token{}, err
	}
	if len(next) == 2 && next[0] == '.' && isDigit(next[1]) {
		l.r.ReadByte()
		sb.WriteByte('.')
		if err := l.readWhile(&sb, isDigit); err != nil {
			return types.Token{}, err
		}
	}

	return types.Token{Symbol: types.NumberConstant, Text: sb.String(), Line: line}, nil
}

// lexString reads a double-quoted string on a single line. The token
// text excludes the quotes. An unterminated string becomes Illegal.
func (l *Lexer) lexString(line int) (types.Token, error) {
	var sb strings.Builder
	for {
		next, err := l.peek(1)
		if err != nil {
			return types.Token{}, err
		}
		if len(next) == 0 || next[0] == '\n' {
			return types.Token{Symbol: types.Illegal, Text: `"` + sb.String(), Line: line}, nil
		}

		ch := next[0]
		l.r.ReadByte()
		if ch == '"' {
			return types.Token{Symbol: types.StringConstant, Text: sb.String(), Line: line}, nil
		}
		sb.WriteByte(ch)
	}
}

// skipWhitespace consumes blanks and newlines, counting lines
func (l *Lexer) skipWhitespace() error {
	for {
		next, err := l.peek(1)
		if err != nil {
			return err
		}
		if len(next) == 0 || !isWhitespace(next[0]) {
			return nil
		}
		if next[0] == '\n' {
			l.line++
		}
		l.r.ReadByte()
	}
}

// readWhile appends bytes to sb as long as pred holds
func (l *Lexer) readWhile(sb *strings.Builder, pred func(byte) bool) error {
	for {
		next, err := l.peek(1)
		if err != nil {
			return err
		}
		if len(next) == 0 || !pred(next[0]) {
			return nil
		}
		ch := next[0]
		l.r.ReadByte()
		sb.WriteByte(ch)
	}
}

// readByte returns the next byte; ok is false at end of input
func (l *Lexer) readByte() (byte, bool, error) {
	ch, err := l.r.ReadByte()
	if err == io.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return ch, true, nil
}

// peek looks at up to n bytes without consuming them. A short result
// means the input ends first.
func (l *Lexer) peek(n int) ([]byte, error) {
	b, err := l.r.Peek(n)
	if err == io.EOF {
		err = nil
	}
	return b, err
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentPart(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v'
}
