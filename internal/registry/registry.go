// Package registry implements the Command/Exe Registry (spec.md §4.10,
// component C10): a thin, name-based lookup for user-declared
// Executable values layered directly over environment.Scope, grounded
// on the teacher's core/decorator/registry.go "database/sql driver"
// registration pattern (register-by-name, look-up-by-name, no class
// hierarchy).
package registry

import (
	"fmt"

	"github.com/meld-lang/meld/internal/environment"
	"github.com/meld-lang/meld/internal/value"
)

// ErrorKind enumerates registry-owned error kinds (spec §7).
type ErrorKind string

const (
	ErrUnknownCommand ErrorKind = "UnknownCommand"
	ErrNotExecutable  ErrorKind = "NotExecutable"
)

// RegistryError is returned by Lookup on failure.
type RegistryError struct {
	Kind ErrorKind
	Name string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Name)
}

// Define binds an Executable value under name in scope (spec §4.10
// "exe"/"define"). It is a thin pass-through to Scope.Set so naming
// conflicts are caught by the same rules as any other binding (I-E2).
func Define(scope *environment.Scope, name string, exe value.Executable, loc value.Location, sec value.Security) error {
	return scope.Set(name, value.OfExecutable(name, exe, loc, sec))
}

// Lookup resolves name to a declared Executable (spec §4.10 dispatch
// for `run name(...)`).
func Lookup(scope *environment.Scope, name string) (value.Executable, value.Value, error) {
	v, ok := scope.Get(name)
	if !ok {
		return value.Executable{}, value.Value{}, &RegistryError{Kind: ErrUnknownCommand, Name: name}
	}
	if v.Kind() != value.KindExecutable {
		return value.Executable{}, value.Value{}, &RegistryError{Kind: ErrNotExecutable, Name: name}
	}
	exe, err := v.Payload()
	if err != nil {
		return value.Executable{}, value.Value{}, err
	}
	return exe.(value.Executable), v, nil
}

// AllOfKind returns every top-level binding in scope whose Value.Kind
// is KindExecutable (spec §4.10 "listing declared commands", used by
// tooling/diagnostics rather than evaluation itself).
func AllOfKind(scope *environment.Scope) map[string]value.Executable {
	out := map[string]value.Executable{}
	for name, v := range scope.All() {
		if v.Kind() != value.KindExecutable {
			continue
		}
		if exe, err := v.Payload(); err == nil {
			out[name] = exe.(value.Executable)
		}
	}
	return out
}
