package interpolate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meld-lang/meld/internal/directive"
	"github.com/meld-lang/meld/internal/environment"
	"github.com/meld-lang/meld/internal/value"
)

func scopeWith(name string, v value.Value) *environment.Scope {
	s := environment.NewRoot(environment.RootOptions{BasePath: "/proj"})
	if err := s.Set(name, v); err != nil {
		panic(err)
	}
	return s
}

func TestResolveSimple(t *testing.T) {
	scope := scopeWith("name", value.OfSimpleText("name", "world", value.Location{}, value.NewSecurity()))
	v, err := Resolve(directive.Ref{Identifier: "name"}, scope)
	require.NoError(t, err)
	require.Equal(t, "world", v.MustPayload())
}

func TestResolveUndefined(t *testing.T) {
	scope := environment.NewRoot(environment.RootOptions{BasePath: "/proj"})
	_, err := Resolve(directive.Ref{Identifier: "missing"}, scope)
	require.Error(t, err)
	ierr := err.(*InterpolateError)
	require.Equal(t, ErrUndefinedVariable, ierr.Kind)
}

func TestResolveFieldAccess(t *testing.T) {
	obj := value.NewObject(map[string]value.Value{
		"host": value.OfPrimitive("host", "example.com", value.Location{}, value.NewSecurity()),
	}, []string{"host"})
	scope := scopeWith("config", value.OfObject("config", obj, value.Location{}, value.NewSecurity()))

	v, err := Resolve(directive.Ref{Identifier: "config", Steps: []directive.Step{{Name: "host"}}}, scope)
	require.NoError(t, err)
	require.Equal(t, "example.com", v.MustPayload())
}

func TestResolveLenientMissingFieldReturnsDefault(t *testing.T) {
	obj := value.NewObject(map[string]value.Value{}, nil)
	scope := scopeWith("config", value.OfObject("config", obj, value.Location{}, value.NewSecurity()))
	dflt := value.OfPrimitive("default", "", value.Location{}, value.NewSecurity())

	v := ResolveLenient(directive.Ref{Identifier: "config", Steps: []directive.Step{{Name: "missing"}}}, scope, dflt)
	require.Equal(t, "", v.MustPayload())
}

func TestRenderTemplateConcatenatesSegments(t *testing.T) {
	scope := scopeWith("name", value.OfSimpleText("name", "world", value.Location{}, value.NewSecurity()))
	out, err := RenderTemplate(
		[]string{"hello ", "!"},
		[]directive.Ref{{Identifier: "name"}},
		scope,
		value.FormatContext{Inline: true},
		false,
		value.Value{},
	)
	require.NoError(t, err)
	require.Equal(t, "hello world!", out)
}
