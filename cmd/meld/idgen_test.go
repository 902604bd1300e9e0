package main

import "testing"

func TestBlake2bIDGeneratorProducesDistinctStableIDs(t *testing.T) {
	g := &blake2bIDGenerator{}
	first := g.NextID()
	second := g.NextID()
	if first == second {
		t.Fatalf("expected distinct ids, got %q twice", first)
	}

	g2 := &blake2bIDGenerator{}
	if got := g2.NextID(); got != first {
		t.Fatalf("expected deterministic id for counter=1, got %q want %q", got, first)
	}
}
