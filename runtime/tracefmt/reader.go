package tracefmt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/aledsdavies/syntaxalyser/core/types"
	"github.com/aledsdavies/syntaxalyser/runtime/parser"
	"github.com/aledsdavies/syntaxalyser/runtime/trace"
)

// ErrDigestMismatch means the events do not hash to the stored digest
var ErrDigestMismatch = errors.New("trace digest mismatch")

// maxRecordLen bounds one encoded record. It is checked on the raw bytes
// before any field is decoded.
const maxRecordLen = 1 << 16

// maxTraceLen bounds the record stream as a whole
const maxTraceLen = 64 << 20

// ErrTraceTooLarge means the record stream is longer than maxTraceLen
var ErrTraceTooLarge = fmt.Errorf("trace exceeds %d bytes", maxTraceLen)

var decMode = mustDecMode()

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		MaxNestedLevels:  4,
		MaxArrayElements: 16,
		MaxMapPairs:      16,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("tracefmt: cbor decoder options: %v", err))
	}
	return dm
}

// File is a decoded trace file
type File struct {
	Version uint16
	Flags   Flags
	Events  []parser.Event
	Digest  [32]byte // zero unless FlagDigest is set
}

// Read reads a whole trace file from r
func Read(r io.Reader) (*File, error) {
	// Read preamble (8 bytes)
	var preamble [8]byte
	if _, err := io.ReadFull(r, preamble[:]); err != nil {
		return nil, fmt.Errorf("read preamble: %w", err)
	}

	// Verify magic
	magic := string(preamble[0:4])
	if magic != Magic {
		return nil, fmt.Errorf("invalid magic: got %q, expected %q", magic, Magic)
	}

	// Read version
	version := binary.LittleEndian.Uint16(preamble[4:6])
	if version != Version {
		return nil, fmt.Errorf("unsupported version: got 0x%04x, expected 0x%04x", version, Version)
	}

	flags := Flags(binary.LittleEndian.Uint16(preamble[6:8]))
	if flags&^FlagDigest != 0 {
		return nil, fmt.Errorf("unknown flags: 0x%04x", uint16(flags))
	}

	f := &File{Version: version, Flags: flags}
	if err := f.readRecords(r); err != nil {
		return nil, err
	}
	return f, nil
}

// readRecords decodes the CBOR sequence up to end of input
func (f *File) readRecords(r io.Reader) error {
	dec := decMode.NewDecoder(&boundedReader{r: r, left: maxTraceLen})
	var digest *trace.Digest
	if f.Flags&FlagDigest != 0 {
		digest = trace.NewDigest()
	}

	trailer := false
	for i := 0; ; i++ {
		var raw cbor.RawMessage
		err := dec.Decode(&raw)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read record %d: %w", i, err)
		}
		if len(raw) > maxRecordLen {
			return fmt.Errorf("record %d: %d bytes exceeds limit of %d", i, len(raw), maxRecordLen)
		}

		var rec record
		if err := decMode.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("read record %d: %w", i, err)
		}
		if trailer {
			return fmt.Errorf("record %d: data after digest trailer", i)
		}

		if rec.Kind == kindTrailer {
			if digest == nil {
				return fmt.Errorf("record %d: digest trailer without digest flag", i)
			}
			if len(rec.Digest) != len(f.Digest) {
				return fmt.Errorf("record %d: digest length %d, expected %d", i, len(rec.Digest), len(f.Digest))
			}
			copy(f.Digest[:], rec.Digest)
			trailer = true
			continue
		}

		ev, err := rec.event()
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if digest != nil {
			digest.Emit(ev)
		}
		f.Events = append(f.Events, ev)
	}

	if digest == nil {
		return nil
	}
	if !trailer {
		return fmt.Errorf("missing digest trailer")
	}
	if sum := digest.Sum(); !bytes.Equal(sum[:], f.Digest[:]) {
		return ErrDigestMismatch
	}
	return nil
}

// event validates a record and turns it back into an event
func (rec record) event() (parser.Event, error) {
	kind := parser.EventKind(rec.Kind)
	if kind > parser.EventError {
		return parser.Event{}, fmt.Errorf("unknown event kind %d", rec.Kind)
	}
	rule := parser.NodeKind(rec.Rule)
	if int(rec.Rule) >= len(parser.NodeKinds()) {
		return parser.Event{}, fmt.Errorf("unknown rule %d", rec.Rule)
	}
	sym := types.Symbol(rec.Symbol)
	if !sym.Valid() {
		return parser.Event{}, fmt.Errorf("unknown symbol %d", rec.Symbol)
	}
	return parser.Event{
		Kind:     kind,
		Rule:     rule,
		Token:    types.Token{Symbol: sym, Text: rec.Text, Line: rec.Line},
		Expected: rec.Expected,
	}, nil
}

// boundedReader fails with ErrTraceTooLarge once more than left bytes
// have been asked of it, so a trace cut at the limit is never mistaken
// for a complete one
type boundedReader struct {
	r    io.Reader
	left int64
}

func (b *boundedReader) Read(p []byte) (int, error) {
	if b.left <= 0 {
		// End of input right at the limit is fine, one more byte is not
		var one [1]byte
		n, err := b.r.Read(one[:])
		if n > 0 {
			return 0, ErrTraceTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > b.left {
		p = p[:b.left]
	}
	n, err := b.r.Read(p)
	b.left -= int64(n)
	return n, err
}
