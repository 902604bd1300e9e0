package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type staticStrategy struct {
	name    string
	matches func(string) bool
	content string
}

func (s *staticStrategy) Name() string            { return s.name }
func (s *staticStrategy) Matches(ref string) bool { return s.matches(ref) }
func (s *staticStrategy) Resolve(ref string, rc ResolveContext) (Resolution, error) {
	return Resolution{Content: []byte(s.content), ContentType: ContentModule}, nil
}

func TestRegistryFirstMatchWins(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&staticStrategy{name: "first", matches: func(r string) bool { return true }, content: "A"})
	reg.Register(&staticStrategy{name: "second", matches: func(r string) bool { return true }, content: "B"})

	res, name, err := reg.Resolve("@anything", ResolveContext{Kind: ContextImport})
	require.NoError(t, err)
	require.Equal(t, "first", name)
	require.Equal(t, "A", string(res.Content))
}

func TestRegistryNoMatch(t *testing.T) {
	reg := NewRegistry()
	_, _, err := reg.Resolve("@missing", ResolveContext{})
	require.Error(t, err)
}

func TestParseModuleRef(t *testing.T) {
	user, mod, version := parseModuleRef("@alice/toolkit@v1.2.0")
	require.Equal(t, "alice", user)
	require.Equal(t, "toolkit", mod)
	require.Equal(t, "v1.2.0", version)
}

func TestRankVersionsSemver(t *testing.T) {
	ranked := RankVersions([]string{"v1.0.0", "v1.2.0", "v1.1.5"})
	require.Equal(t, []string{"v1.2.0", "v1.1.5", "v1.0.0"}, ranked)
}

func TestBuiltinValueStrategyBase(t *testing.T) {
	s := &BuiltinValueStrategy{Base: "/proj"}
	res, err := s.Resolve("@base", ResolveContext{})
	require.NoError(t, err)
	require.Equal(t, "/proj", res.DataValue)
}
