package types

// Symbol identifies a terminal of the SCC# grammar
type Symbol int

const (
	// Special tokens
	EOF Symbol = iota
	Illegal

	// Literals
	Identifier
	NumberConstant
	StringConstant

	// Keywords
	Begin
	End
	If
	Then
	Else
	While
	Loop
	Do
	Until
	Call

	// Arithmetic operators
	Plus   // +
	Minus  // -
	Times  // *
	Divide // /

	// Conditional operators
	GreaterThan  // >
	GreaterEqual // >=
	Equal        // =
	NotEqual     // /=
	LessThan     // <
	LessEqual    // <=

	// Punctuation
	Becomes          // :=
	LeftParenthesis  // (
	RightParenthesis // )
	Comma            // ,
	Semicolon        // ;

	symbolCount
)

var symbolNames = [symbolCount]string{
	EOF:              "EOF",
	Illegal:          "illegal",
	Identifier:       "identifier",
	NumberConstant:   "numberConstant",
	StringConstant:   "stringConstant",
	Begin:            "begin",
	End:              "end",
	If:               "if",
	Then:             "then",
	Else:             "else",
	While:            "while",
	Loop:             "loop",
	Do:               "do",
	Until:            "until",
	Call:             "call",
	Plus:             "plus",
	Minus:            "minus",
	Times:            "times",
	Divide:           "divide",
	GreaterThan:      "greaterThan",
	GreaterEqual:     "greaterEqual",
	Equal:            "equal",
	NotEqual:         "notEqual",
	LessThan:         "lessThan",
	LessEqual:        "lessEqual",
	Becomes:          "becomes",
	LeftParenthesis:  "leftParenthesis",
	RightParenthesis: "rightParenthesis",
	Comma:            "comma",
	Semicolon:        "semicolon",
}

// String returns the name used for the symbol in traces and diagnostics
func (s Symbol) String() string {
	if s < 0 || s >= symbolCount {
		return "unknown"
	}
	return symbolNames[s]
}

// Valid reports whether s is a member of the enumeration
func (s Symbol) Valid() bool {
	return s >= 0 && s < symbolCount
}

// HasLexeme reports whether tokens of this kind carry their source text
// into the trace. Only the literal kinds do.
func (s Symbol) HasLexeme() bool {
	switch s {
	case Identifier, NumberConstant, StringConstant:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether s is a reserved word
func (s Symbol) IsKeyword() bool {
	return s >= Begin && s <= Call
}

// Symbols returns every member of the enumeration in declaration order
func Symbols() []Symbol {
	out := make([]Symbol, 0, symbolCount)
	for s := Symbol(0); s < symbolCount; s++ {
		out = append(out, s)
	}
	return out
}

// Token is a single lexical token. Tokens are values and never change
// once the lexer hands them out.
type Token struct {
	Symbol Symbol
	Text   string // raw lexeme, empty for EOF
	Line   int    // 1-based source line
}

// Keywords maps reserved words to their symbols
var Keywords = map[string]Symbol{
	"begin": Begin,
	"end":   End,
	"if":    If,
	"then":  Then,
	"else":  Else,
	"while": While,
	"loop":  Loop,
	"do":    Do,
	"until": Until,
	"call":  Call,
}

// Spelling returns the source spelling of keywords, operators and
// punctuation. Literal kinds, EOF and Illegal have no fixed spelling.
func (s Symbol) Spelling() string {
	switch s {
	case Begin, End, If, Then, Else, While, Loop, Do, Until, Call:
		return symbolNames[s]
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Times:
		return "*"
	case Divide:
		return "/"
	case GreaterThan:
		return ">"
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	case NotEqual:
		return "/="
	case LessThan:
		return "<"
	case LessEqual:
		return "<="
	case Becomes:
		return ":="
	case LeftParenthesis:
		return "("
	case RightParenthesis:
		return ")"
	case Comma:
		return ","
	case Semicolon:
		return ";"
	default:
		return ""
	}
}
