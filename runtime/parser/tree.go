package parser

import (
	"strings"
	"time"

	"github.com/aledsdavies/syntaxalyser/core/types"
)

// Event is one entry of the parse trace
type Event struct {
	Kind     EventKind
	Rule     NodeKind    // EventBegin, EventEnd
	Token    types.Token // EventToken: accepted token; EventError: offending token
	Expected string      // EventError: what the grammar wanted
}

// EventKind represents the type of parse event
type EventKind uint8

const (
	EventBegin   EventKind = iota // Rule entered
	EventEnd                      // Rule finished without error
	EventToken                    // Terminal accepted
	EventSuccess                  // Whole input accepted
	EventError                    // Syntax error at its point of origin
)

// String returns the trace keyword for the event kind
func (k EventKind) String() string {
	switch k {
	case EventBegin:
		return "BEGIN"
	case EventEnd:
		return "END"
	case EventToken:
		return "TOKEN"
	case EventSuccess:
		return "SUCCESS"
	case EventError:
		return "COMPILATION_EXCEPTION"
	default:
		return "UNKNOWN"
	}
}

// NodeKind identifies a non-terminal. It only labels trace events.
type NodeKind uint32

const (
	NodeStatementPart NodeKind = iota // Distinguished start symbol
	NodeStatementList
	NodeStatement
	NodeAssignmentStatement
	NodeAssignmentRemainder
	NodeIfStatement
	NodeIfRemainder
	NodeWhileStatement
	NodeProcedureStatement
	NodeUntilStatement
	NodeExpression
	NodeExpressionRemainder
	NodeFactor
	NodeArgumentList
	NodeCondition
	NodeConditionRemainder
	NodeConditionalOperator

	nodeCount
)

var nodeLabels = [nodeCount]string{
	NodeStatementPart:       "<statement part>",
	NodeStatementList:       "<statement list>",
	NodeStatement:           "<statement>",
	NodeAssignmentStatement: "<assignment statement>",
	NodeAssignmentRemainder: "<assignment statement remainder>",
	NodeIfStatement:         "<if statement>",
	NodeIfRemainder:         "<if statement remainder>",
	NodeWhileStatement:      "<while statement>",
	NodeProcedureStatement:  "<procedure statement>",
	NodeUntilStatement:      "<until statement>",
	NodeExpression:          "<expression>",
	NodeExpressionRemainder: "<expression remainder>",
	NodeFactor:              "<factor>",
	NodeArgumentList:        "<argument list>",
	NodeCondition:           "<condition>",
	NodeConditionRemainder:  "<condition remainder>",
	NodeConditionalOperator: "<conditional operator>",
}

// String returns the trace label, angle brackets included
func (k NodeKind) String() string {
	if k >= nodeCount {
		return "<unknown>"
	}
	return nodeLabels[k]
}

// NodeKinds returns every rule in declaration order
func NodeKinds() []NodeKind {
	out := make([]NodeKind, 0, nodeCount)
	for k := NodeKind(0); k < nodeCount; k++ {
		out = append(out, k)
	}
	return out
}

// LookupNodeKind finds a rule by label. The angle brackets are optional
// and dashes may stand in for spaces, so "statement-part",
// "statement part" and "<statement part>" all match.
func LookupNodeKind(name string) (NodeKind, bool) {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "<")
	name = strings.TrimSuffix(name, ">")
	name = strings.ReplaceAll(name, "-", " ")
	name = "<" + strings.ToLower(name) + ">"

	for k, label := range nodeLabels {
		if label == name {
			return NodeKind(k), true
		}
	}
	return 0, false
}

// Sink receives trace events in the order they happen
type Sink interface {
	Emit(Event)
}

// TokenSource produces tokens on demand. It must keep returning an EOF
// token once the input is exhausted; errors mean the input could not be
// read at all.
type TokenSource interface {
	NextToken() (types.Token, error)
}

// Result carries what a parse produced besides the trace
type Result struct {
	Telemetry *ParseTelemetry // nil if disabled
}

// ParseTelemetry holds parse metrics
type ParseTelemetry struct {
	TokenCount int // tokens pulled from the source, lookahead included
	EventCount int
	MaxDepth   int // deepest rule nesting reached
	ParseTime  time.Duration
}

type discardSink struct{}

func (discardSink) Emit(Event) {}
