package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meld-lang/meld/internal/environment"
	"github.com/meld-lang/meld/internal/value"
)

func TestDefineAndLookup(t *testing.T) {
	scope := environment.NewRoot(environment.RootOptions{BasePath: "/proj"})
	exe := value.Executable{Parameters: []string{"name"}, Body: value.ShellBody{Template: "echo {{name}}"}}

	require.NoError(t, Define(scope, "greet", exe, value.Location{}, value.NewSecurity()))

	got, _, err := Lookup(scope, "greet")
	require.NoError(t, err)
	require.Equal(t, []string{"name"}, got.Parameters)
}

func TestLookupUnknownCommand(t *testing.T) {
	scope := environment.NewRoot(environment.RootOptions{BasePath: "/proj"})
	_, _, err := Lookup(scope, "missing")
	require.Error(t, err)
	require.Equal(t, ErrUnknownCommand, err.(*RegistryError).Kind)
}

func TestLookupNotExecutable(t *testing.T) {
	scope := environment.NewRoot(environment.RootOptions{BasePath: "/proj"})
	require.NoError(t, scope.Set("x", value.OfSimpleText("x", "hi", value.Location{}, value.NewSecurity())))
	_, _, err := Lookup(scope, "x")
	require.Error(t, err)
	require.Equal(t, ErrNotExecutable, err.(*RegistryError).Kind)
}

func TestAllOfKindFiltersExecutables(t *testing.T) {
	scope := environment.NewRoot(environment.RootOptions{BasePath: "/proj"})
	require.NoError(t, scope.Set("x", value.OfSimpleText("x", "hi", value.Location{}, value.NewSecurity())))
	require.NoError(t, Define(scope, "greet", value.Executable{}, value.Location{}, value.NewSecurity()))

	all := AllOfKind(scope)
	require.Len(t, all, 1)
	require.Contains(t, all, "greet")
}
