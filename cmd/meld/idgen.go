package main

import (
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"

	"golang.org/x/crypto/blake2b"
)

// blake2bIDGenerator is the real capability.IDGenerator: a monotonic
// counter folded through blake2b-256 so ids are short, collision-free
// within a run, and reproducible for a fixed starting counter (spec
// §8 determinism property; §6.1 "used for stable directive ids").
// Adapted from the teacher's core/sdk/secret content-hashing use of
// blake2b (there: secret-handle fingerprints; here: per-id hashing)
// rather than the core/invariant-style counter the teacher uses
// elsewhere, since ids here must double as opaque, non-sequential
// tokens a host can safely expose in diagnostics.
type blake2bIDGenerator struct {
	counter uint64
}

func (g *blake2bIDGenerator) NextID() string {
	n := atomic.AddUint64(&g.counter, 1)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	sum := blake2b.Sum256(buf[:])
	return hex.EncodeToString(sum[:6])
}
