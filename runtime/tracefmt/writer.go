// Package tracefmt stores parser traces in a binary file.
//
// Layout: MAGIC(4) | VERSION(2) | FLAGS(2) | RECORDS...
//
// Records are a CBOR sequence, one array per event. With FlagDigest the
// last record is a trailer holding the BLAKE2b-256 digest of the text
// rendering of all events, so a reader can tell a truncated or edited
// trace from the one the parser produced.
package tracefmt

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/aledsdavies/syntaxalyser/runtime/parser"
	"github.com/aledsdavies/syntaxalyser/runtime/trace"
)

const (
	// Magic is the file magic number "SYNT" (4 bytes)
	Magic = "SYNT"

	// Version is the format version (uint16, little-endian).
	// 0x0001 = version 1.0
	Version uint16 = 0x0001
)

// Flags is a bitmask for optional features
type Flags uint16

const (
	// FlagDigest indicates a digest trailer follows the events
	FlagDigest Flags = 1 << 0

	// Bits 1-15 reserved
)

// kindTrailer marks the digest record; event kinds stay well below it
const kindTrailer uint8 = 0xFF

// record is the on-disk shape of one event
type record struct {
	_        struct{} `cbor:",toarray"`
	Kind     uint8
	Rule     uint32
	Symbol   int
	Text     string
	Line     int
	Expected string
	Digest   []byte
}

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("tracefmt: cbor encoder options: %v", err))
	}
	return em
}

// Write writes a complete trace file for events
func Write(w io.Writer, events []parser.Event, flags Flags) error {
	wr, err := NewWriter(w, flags)
	if err != nil {
		return err
	}
	for _, ev := range events {
		wr.Emit(ev)
	}
	return wr.Close()
}

// Writer streams events to a trace file. It implements parser.Sink.
type Writer struct {
	enc    *cbor.Encoder
	flags  Flags
	digest *trace.Digest
	err    error
	closed bool
}

// NewWriter writes the file header and returns a writer for the records
func NewWriter(w io.Writer, flags Flags) (*Writer, error) {
	// Step 1: magic number (4 bytes)
	if _, err := w.Write([]byte(Magic)); err != nil {
		return nil, fmt.Errorf("write magic: %w", err)
	}

	// Step 2: version (2 bytes, little-endian)
	if err := binary.Write(w, binary.LittleEndian, Version); err != nil {
		return nil, fmt.Errorf("write version: %w", err)
	}

	// Step 3: flags (2 bytes, little-endian)
	if err := binary.Write(w, binary.LittleEndian, uint16(flags)); err != nil {
		return nil, fmt.Errorf("write flags: %w", err)
	}

	wr := &Writer{enc: encMode.NewEncoder(w), flags: flags}
	if flags&FlagDigest != 0 {
		wr.digest = trace.NewDigest()
	}
	return wr, nil
}

// Emit encodes one event. The first failure stops all further writes
// and is returned by Close.
func (wr *Writer) Emit(ev parser.Event) {
	if wr.err != nil || wr.closed {
		return
	}
	if wr.digest != nil {
		wr.digest.Emit(ev)
	}

	rec := record{
		Kind:     uint8(ev.Kind),
		Rule:     uint32(ev.Rule),
		Symbol:   int(ev.Token.Symbol),
		Text:     ev.Token.Text,
		Line:     ev.Token.Line,
		Expected: ev.Expected,
	}
	if err := wr.enc.Encode(rec); err != nil {
		wr.err = fmt.Errorf("write event: %w", err)
	}
}

// Close writes the digest trailer if requested. It does not close the
// underlying writer.
func (wr *Writer) Close() error {
	if wr.closed {
		return wr.err
	}
	wr.closed = true
	if wr.err != nil || wr.digest == nil {
		return wr.err
	}

	sum := wr.digest.Sum()
	if err := wr.enc.Encode(record{Kind: kindTrailer, Digest: sum[:]}); err != nil {
		wr.err = fmt.Errorf("write trailer: %w", err)
	}
	return wr.err
}
