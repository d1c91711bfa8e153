package tracefmt_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/syntaxalyser/core/types"
	"github.com/aledsdavies/syntaxalyser/runtime/lexer"
	"github.com/aledsdavies/syntaxalyser/runtime/parser"
	"github.com/aledsdavies/syntaxalyser/runtime/trace"
	"github.com/aledsdavies/syntaxalyser/runtime/tracefmt"
)

func record(t *testing.T, input string) []parser.Event {
	t.Helper()
	rec := &trace.Recorder{}
	_, _ = parser.Parse(lexer.NewString(input), rec)
	require.NotEmpty(t, rec.Events())
	return rec.Events()
}

// TestHeader verifies magic, version and flags at fixed offsets
func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tracefmt.Write(&buf, nil, 0))

	data := buf.Bytes()
	require.Len(t, data, 8)
	assert.Equal(t, "SYNT", string(data[0:4]))
	assert.Equal(t, tracefmt.Version, binary.LittleEndian.Uint16(data[4:6]))
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(data[6:8]))
}

func TestHeaderFlags(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tracefmt.Write(&buf, nil, tracefmt.FlagDigest))

	flags := binary.LittleEndian.Uint16(buf.Bytes()[6:8])
	assert.Equal(t, uint16(tracefmt.FlagDigest), flags)
}

func TestRoundTrip(t *testing.T) {
	for _, input := range []string{
		`begin x := "1" end`,
		"begin x := ; end",
		"begin while a < b loop call p(a, b) end loop end",
	} {
		t.Run(input, func(t *testing.T) {
			events := record(t, input)

			var buf bytes.Buffer
			require.NoError(t, tracefmt.Write(&buf, events, 0))

			f, err := tracefmt.Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, tracefmt.Version, f.Version)
			assert.Equal(t, events, f.Events)
			assert.Equal(t, [32]byte{}, f.Digest)
		})
	}
}

func TestWriterAsSink(t *testing.T) {
	var buf bytes.Buffer
	w, err := tracefmt.NewWriter(&buf, tracefmt.FlagDigest)
	require.NoError(t, err)

	rec := &trace.Recorder{}
	digest := trace.NewDigest()
	_, err = parser.Parse(lexer.NewString("begin call p(a) end"), trace.Tee(w, rec, digest))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := tracefmt.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, rec.Events(), f.Events)
	assert.Equal(t, digest.Sum(), f.Digest)
}

func TestCloseIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	w, err := tracefmt.NewWriter(&buf, tracefmt.FlagDigest)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	n := buf.Len()
	require.NoError(t, w.Close())
	assert.Equal(t, n, buf.Len())

	// Events after close are dropped
	w.Emit(parser.Event{Kind: parser.EventSuccess})
	assert.Equal(t, n, buf.Len())
}

func TestDigestDetectsTampering(t *testing.T) {
	events := record(t, `begin x := "1" end`)

	var buf bytes.Buffer
	require.NoError(t, tracefmt.Write(&buf, events, tracefmt.FlagDigest))

	data := buf.Bytes()
	i := bytes.Index(data, []byte("x"))
	require.Positive(t, i)
	data[i] = 'y'

	_, err := tracefmt.Read(bytes.NewReader(data))
	assert.True(t, errors.Is(err, tracefmt.ErrDigestMismatch), "got %v", err)
}

func TestMissingTrailer(t *testing.T) {
	events := record(t, `begin x := "1" end`)

	var body bytes.Buffer
	require.NoError(t, tracefmt.Write(&body, events, 0))

	// Same records, digest flag set, no trailer
	data := body.Bytes()
	binary.LittleEndian.PutUint16(data[6:8], uint16(tracefmt.FlagDigest))

	_, err := tracefmt.Read(bytes.NewReader(data))
	assert.ErrorContains(t, err, "missing digest trailer")
}

func TestReadRejectsBadHeaders(t *testing.T) {
	valid := func() []byte {
		var buf bytes.Buffer
		require.NoError(t, tracefmt.Write(&buf, nil, 0))
		return buf.Bytes()
	}

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		want   string
	}{
		{"short", func(b []byte) []byte { return b[:5] }, "read preamble"},
		{"magic", func(b []byte) []byte { copy(b, "XXXX"); return b }, "invalid magic"},
		{"version", func(b []byte) []byte { binary.LittleEndian.PutUint16(b[4:6], 0x0200); return b }, "unsupported version"},
		{"flags", func(b []byte) []byte { binary.LittleEndian.PutUint16(b[6:8], 0x8000); return b }, "unknown flags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tracefmt.Read(bytes.NewReader(tt.mutate(valid())))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestReadRejectsTruncatedRecord(t *testing.T) {
	events := record(t, `begin x := "1" end`)

	var buf bytes.Buffer
	require.NoError(t, tracefmt.Write(&buf, events, 0))
	data := buf.Bytes()

	_, err := tracefmt.Read(bytes.NewReader(data[:len(data)-2]))
	assert.ErrorContains(t, err, "read record")
}

func TestReadRejectsUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tracefmt.Write(&buf, []parser.Event{{Kind: parser.EventKind(9)}}, 0))

	_, err := tracefmt.Read(&buf)
	assert.ErrorContains(t, err, "unknown event kind 9")
}

func TestReadRejectsUnknownRule(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tracefmt.Write(&buf, []parser.Event{{Kind: parser.EventBegin, Rule: parser.NodeKind(500)}}, 0))

	_, err := tracefmt.Read(&buf)
	assert.ErrorContains(t, err, "unknown rule 500")
}

func TestReadRejectsOversizedRecord(t *testing.T) {
	huge := parser.Event{
		Kind:  parser.EventToken,
		Token: types.Token{Symbol: types.StringConstant, Text: strings.Repeat("a", 1<<17), Line: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, tracefmt.Write(&buf, []parser.Event{huge}, 0))

	_, err := tracefmt.Read(&buf)
	assert.ErrorContains(t, err, "record 0:")
	assert.ErrorContains(t, err, "exceeds limit")
}

func TestReadAcceptsLongText(t *testing.T) {
	ev := parser.Event{
		Kind:  parser.EventToken,
		Token: types.Token{Symbol: types.StringConstant, Text: strings.Repeat("a", 4096), Line: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, tracefmt.Write(&buf, []parser.Event{ev}, 0))

	f, err := tracefmt.Read(&buf)
	require.NoError(t, err)
	require.Len(t, f.Events, 1)
	assert.Equal(t, ev.Token.Text, f.Events[0].Token.Text)
}

// failAfter accepts n bytes, then fails
type failAfter struct {
	n int
}

func (f *failAfter) Write(p []byte) (int, error) {
	if len(p) > f.n {
		return 0, errors.New("disk full")
	}
	f.n -= len(p)
	return len(p), nil
}

func TestWriteErrors(t *testing.T) {
	_, err := tracefmt.NewWriter(&failAfter{n: 0}, 0)
	assert.ErrorContains(t, err, "write magic")

	_, err = tracefmt.NewWriter(&failAfter{n: 4}, 0)
	assert.ErrorContains(t, err, "write version")

	w, err := tracefmt.NewWriter(&failAfter{n: 8}, 0)
	require.NoError(t, err)
	w.Emit(parser.Event{Kind: parser.EventSuccess})
	assert.ErrorContains(t, w.Close(), "disk full")
}
