package parser

import (
	"bytes"
	"errors"
	"testing"

	"github.com/aledsdavies/syntaxalyser/core/types"
	"github.com/aledsdavies/syntaxalyser/runtime/lexer"
)

// countingSource counts how many tokens the parser pulled
type countingSource struct {
	src     TokenSource
	fetched int
}

func (c *countingSource) NextToken() (types.Token, error) {
	c.fetched++
	return c.src.NextToken()
}

func addSeeds(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte(`begin x := "1" end`))
	f.Add([]byte("begin x := 1; y := \"s\"\nend"))
	f.Add([]byte("begin call p(a, b, c) end"))
	f.Add([]byte("begin if x > 1 then call p(x) else y := \"n\" end if end"))
	f.Add([]byte("begin while i < n loop do i := i + 1; j := \"\" until i >= n end loop end"))

	// Broken input
	f.Add([]byte("begin x := ; end"))
	f.Add([]byte("begin x := a + b + c; end"))
	f.Add([]byte("begin"))
	f.Add([]byte("end begin"))
	f.Add([]byte(`begin x := "unterminated end`))
	f.Add([]byte("begin x : 1 end"))

	// Odd bytes and line endings
	f.Add([]byte("begin\r\nx := \"a\"\r\nend"))
	f.Add([]byte("begin 🚀 end"))
	f.Add([]byte("\xff\xfe\xfd"))
}

func parseBytes(input []byte) ([]Event, int, error) {
	rec := &recorder{}
	src := &countingSource{src: lexer.New(bytes.NewReader(input))}
	_, err := Parse(src, rec)
	return rec.events, src.fetched, err
}

// FuzzParserDeterminism verifies that parsing the same input twice
// produces identical event streams and errors
func FuzzParserDeterminism(f *testing.F) {
	addSeeds(f)

	f.Fuzz(func(t *testing.T, input []byte) {
		events1, _, err1 := parseBytes(input)
		events2, _, err2 := parseBytes(input)

		if len(events1) != len(events2) {
			t.Fatalf("Non-deterministic event count: %d vs %d", len(events1), len(events2))
		}
		for i := range events1 {
			if events1[i] != events2[i] {
				t.Fatalf("Non-deterministic event at index %d: %+v vs %+v", i, events1[i], events2[i])
			}
		}

		if (err1 == nil) != (err2 == nil) {
			t.Fatalf("Non-deterministic outcome: %v vs %v", err1, err2)
		}
		if err1 != nil && err1.Error() != err2.Error() {
			t.Fatalf("Non-deterministic error: %q vs %q", err1, err2)
		}

		var se1, se2 *SyntaxError
		if errors.As(err1, &se1) && errors.As(err2, &se2) && se1.Trace() != se2.Trace() {
			t.Fatalf("Non-deterministic chain:\n%s\nvs\n%s", se1.Trace(), se2.Trace())
		}
	})
}

// FuzzParserEventBalance verifies BEGIN/END pairing with a stack and
// that every run ends in exactly one outcome
func FuzzParserEventBalance(f *testing.F) {
	addSeeds(f)

	f.Fuzz(func(t *testing.T, input []byte) {
		events, _, err := parseBytes(input)

		var stack []NodeKind
		outcomes := 0
		for i, ev := range events {
			if outcomes > 0 {
				t.Fatalf("Event %d (%v) after the outcome", i, ev.Kind)
			}
			switch ev.Kind {
			case EventBegin:
				stack = append(stack, ev.Rule)
			case EventEnd:
				if len(stack) == 0 {
					t.Fatalf("END %v at %d with no open rule", ev.Rule, i)
				}
				top := stack[len(stack)-1]
				if top != ev.Rule {
					t.Fatalf("END %v at %d closes %v", ev.Rule, i, top)
				}
				stack = stack[:len(stack)-1]
			case EventSuccess, EventError:
				outcomes++
			}
		}

		if err == nil {
			if len(events) == 0 || events[len(events)-1].Kind != EventSuccess {
				t.Fatal("Accepted input must end with SUCCESS")
			}
			if len(stack) != 0 {
				t.Fatalf("Accepted input left %d rules open", len(stack))
			}
			return
		}

		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Fatalf("Reader-backed input should only fail with a syntax error, got %v", err)
		}
		if outcomes != 1 || events[len(events)-1].Kind != EventError {
			t.Fatal("Rejected input must end with exactly one error event")
		}

		// The open rules at the failure are exactly the chain
		if len(stack) != len(se.Frames) {
			t.Fatalf("Open rules %v do not match chain %v", stack, se.Rules())
		}
		for i, rule := range se.Rules() {
			if stack[i] != rule {
				t.Fatalf("Chain level %d is %v, open rule is %v", i, rule, stack[i])
			}
		}
	})
}

// FuzzParserLookahead verifies that the parser never reads further than
// one token past what it accepted
func FuzzParserLookahead(f *testing.F) {
	addSeeds(f)

	f.Fuzz(func(t *testing.T, input []byte) {
		events, fetched, err := parseBytes(input)

		accepted := 0
		for _, ev := range events {
			if ev.Kind == EventToken {
				accepted++
			}
		}

		want := accepted
		if err != nil {
			// The offending token was fetched but never accepted
			want = accepted + 1
		}
		if fetched != want {
			t.Fatalf("Fetched %d tokens, accepted %d (error: %v)", fetched, accepted, err)
		}
	})
}

// FuzzParserPathologicalDepth feeds deeply nested parentheses
func FuzzParserPathologicalDepth(f *testing.F) {
	f.Add(10)
	f.Add(100)
	f.Add(1000)

	f.Fuzz(func(t *testing.T, depth int) {
		if depth < 0 || depth > 5000 {
			t.Skip()
		}

		var buf bytes.Buffer
		buf.WriteString("begin x := ")
		for i := 0; i < depth; i++ {
			buf.WriteString("(")
		}
		buf.WriteString("a")
		for i := 0; i < depth; i++ {
			buf.WriteString(")")
		}
		buf.WriteString("; y := \"z\" end")

		_, _, err := parseBytes(buf.Bytes())
		if err != nil {
			t.Fatalf("Nested depth %d rejected: %v", depth, err)
		}
	})
}
