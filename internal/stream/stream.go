// Package stream implements the Transformation Stream (spec.md §3.4,
// §4.11, component C11): an ordered vector of output nodes parallel to
// the original directive AST, with a layered placeholder-matching
// strategy so a downstream formatter can realign transformed text even
// after earlier directives have shifted line numbers. Grounded on the
// teacher's runtime/streamscrub node-oriented pass over a document
// (there: secret redaction node-by-node; here: directive-output
// substitution node-by-node), generalized from byte-chunk scrubbing to
// whole-node replacement.
package stream

import "sort"

// NodeKind tags the three output-node shapes spec §3.4 enumerates.
type NodeKind string

const (
	NodeText      NodeKind = "Text"
	NodeCodeFence NodeKind = "CodeFence"
	NodeComment   NodeKind = "Comment"
)

// Node is one element of the Transformation Stream.
type Node struct {
	Kind        NodeKind
	Content     string
	DirectiveID string // stable per-directive id (spec §4.11 rule 2)
	Line        int    // original source line (spec §4.11 rules 1/3)
	ContentHint string // a stable fragment of the pre-transform text, for rule 4
}

// Stream is the ordered node vector.
type Stream struct {
	nodes []Node
}

// New returns an empty Stream.
func New() *Stream { return &Stream{} }

// Append adds n at the end of document order.
func (s *Stream) Append(n Node) { s.nodes = append(s.nodes, n) }

// Nodes returns the stream's nodes in document order. The returned
// slice is a copy so callers cannot mutate Stream state through it.
func (s *Stream) Nodes() []Node {
	out := make([]Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Replace overwrites the node at index i with content (spec §3.4 "is
// later bound to the produced text"). The evaluator appends finished
// nodes and does not call Replace.
func (s *Stream) Replace(i int, content string) {
	if i < 0 || i >= len(s.nodes) {
		return
	}
	s.nodes[i].Content = content
}

// Find locates the node a late-bound replacement belongs to, applying
// the four matching strategies of spec §4.11 in priority order. It
// returns the node's index in document order, or -1 if none matches.
func (s *Stream) Find(directiveID string, line int, contentHint string) int {
	if i := s.findExactLine(line); i >= 0 {
		return i
	}
	if i := s.findByDirectiveID(directiveID); i >= 0 {
		return i
	}
	if i := s.findNearestLine(line, 5); i >= 0 {
		return i
	}
	return s.findByContentHint(contentHint)
}

func (s *Stream) findExactLine(line int) int {
	if line <= 0 {
		return -1
	}
	for i, n := range s.nodes {
		if n.Line == line {
			return i
		}
	}
	return -1
}

func (s *Stream) findByDirectiveID(id string) int {
	if id == "" {
		return -1
	}
	for i, n := range s.nodes {
		if n.DirectiveID == id {
			return i
		}
	}
	return -1
}

// findNearestLine returns the node whose Line is closest to line,
// within maxDistance, breaking ties toward the earlier node
// (deterministic, spec §8 determinism property).
func (s *Stream) findNearestLine(line, maxDistance int) int {
	if line <= 0 {
		return -1
	}
	best := -1
	bestDist := maxDistance + 1
	for i, n := range s.nodes {
		if n.Line <= 0 {
			continue
		}
		d := abs(n.Line - line)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if bestDist > maxDistance {
		return -1
	}
	return best
}

func (s *Stream) findByContentHint(hint string) int {
	if hint == "" {
		return -1
	}
	for i, n := range s.nodes {
		if n.ContentHint == hint {
			return i
		}
	}
	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Render concatenates every node's Content in document order (spec
// §3.4's final serialisation step, after every placeholder has been
// bound).
func (s *Stream) Render() string {
	out := ""
	for _, n := range s.nodes {
		out += n.Content
	}
	return out
}

// SortByLine orders nodes by source line, stable on ties (used only by
// tooling that reconstructs a stream from out-of-order directive
// evaluation results; normal evaluation appends in document order and
// never needs this).
func SortByLine(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Line < nodes[j].Line })
}
