package environment

import "fmt"

// ErrorKind enumerates the environment-owned error kinds from spec §7.
type ErrorKind string

const (
	ErrReservedName         ErrorKind = "ReservedName"
	ErrVariableRedefinition ErrorKind = "VariableRedefinition"
)

// RedefinitionClass distinguishes the two causes spec §4.2 `set`
// requires a VariableRedefinition error to classify.
type RedefinitionClass string

const (
	RedefinitionSameFile       RedefinitionClass = "same-file"
	RedefinitionImportConflict RedefinitionClass = "import-conflict"
)

// Location mirrors value.Location to avoid importing the value package
// into error plumbing that the evaluator also needs at a lower level.
type Location struct {
	File   string
	Line   int
	Column int
}

// BindError is returned by Set/SetParameter on a naming conflict.
type BindError struct {
	Kind       ErrorKind
	Name       string
	Class      RedefinitionClass // set only for ErrVariableRedefinition
	ExistingAt Location
	NewAt      Location
}

func (e *BindError) Error() string {
	switch e.Kind {
	case ErrReservedName:
		return fmt.Sprintf("%s: %q is a reserved name", e.Kind, e.Name)
	default:
		return fmt.Sprintf("%s (%s): %q already defined at %v, redefined at %v", e.Kind, e.Class, e.Name, e.ExistingAt, e.NewAt)
	}
}
