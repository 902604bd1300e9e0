package stream

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestFindExactLineWins(t *testing.T) {
	s := New()
	s.Append(Node{Kind: NodeText, Line: 10, DirectiveID: "d1"})
	s.Append(Node{Kind: NodeText, Line: 20, DirectiveID: "d2"})

	idx := s.Find("d2", 10, "")
	require.Equal(t, 0, idx)
}

func TestFindFallsBackToDirectiveID(t *testing.T) {
	s := New()
	s.Append(Node{Kind: NodeText, Line: 10, DirectiveID: "d1"})
	s.Append(Node{Kind: NodeText, Line: 20, DirectiveID: "d2"})

	idx := s.Find("d2", 999, "")
	require.Equal(t, 1, idx)
}

func TestFindFallsBackToNearestLine(t *testing.T) {
	s := New()
	s.Append(Node{Kind: NodeText, Line: 10})
	s.Append(Node{Kind: NodeText, Line: 20})

	idx := s.Find("", 22, "")
	require.Equal(t, 1, idx)
}

func TestFindNearestLineRespectsMaxDistance(t *testing.T) {
	s := New()
	s.Append(Node{Kind: NodeText, Line: 10})

	idx := s.Find("", 100, "")
	require.Equal(t, -1, idx)
}

func TestFindFallsBackToContentHint(t *testing.T) {
	s := New()
	s.Append(Node{Kind: NodeText, ContentHint: "hello {{name}}"})

	idx := s.Find("", 0, "hello {{name}}")
	require.Equal(t, 0, idx)
}

func TestRenderConcatenatesInOrder(t *testing.T) {
	s := New()
	s.Append(Node{Content: "a"})
	s.Append(Node{Content: "b"})
	require.Equal(t, "ab", s.Render())
}

func TestReplaceLeavesRestOfDocumentOrderUntouched(t *testing.T) {
	s := New()
	s.Append(Node{Kind: NodeText, Content: "before", DirectiveID: "d1", Line: 1})
	s.Append(Node{Kind: NodeText, Content: "target", DirectiveID: "d2", Line: 2})
	s.Append(Node{Kind: NodeText, Content: "after", DirectiveID: "d3", Line: 3})

	idx := s.Find("d2", 2, "")
	s.Replace(idx, "replaced")

	want := []Node{
		{Kind: NodeText, Content: "before", DirectiveID: "d1", Line: 1},
		{Kind: NodeText, Content: "replaced", DirectiveID: "d2", Line: 2},
		{Kind: NodeText, Content: "after", DirectiveID: "d3", Line: 3},
	}
	if diff := cmp.Diff(want, s.Nodes()); diff != "" {
		t.Fatalf("stream nodes mismatch (-want +got):\n%s", diff)
	}
}
