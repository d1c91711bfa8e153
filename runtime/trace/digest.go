package trace

import (
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/syntaxalyser/runtime/parser"
)

// Digest hashes the text rendering of a trace with BLAKE2b-256. Two runs
// over the same input give the same digest.
type Digest struct {
	h hash.Hash
}

// NewDigest creates an empty digest
func NewDigest() *Digest {
	// Unkeyed BLAKE2b never fails
	h, _ := blake2b.New256(nil)
	return &Digest{h: h}
}

// Emit implements parser.Sink
func (d *Digest) Emit(ev parser.Event) {
	for _, line := range Lines(ev) {
		d.h.Write([]byte(line))
		d.h.Write([]byte{'\n'})
	}
}

// Sum returns the digest of everything emitted so far
func (d *Digest) Sum() [32]byte {
	var out [32]byte
	copy(out[:], d.h.Sum(nil))
	return out
}

// Hex returns Sum as a hex string
func (d *Digest) Hex() string {
	sum := d.Sum()
	return hex.EncodeToString(sum[:])
}
