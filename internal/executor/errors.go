package executor

import "fmt"

// ErrorKind enumerates the executor-owned error kinds (spec §7).
type ErrorKind string

const (
	ErrExecTimeout     ErrorKind = "ExecutionTimeout"
	ErrExecFailed      ErrorKind = "ExecutionFailed"
	ErrUnknownLanguage ErrorKind = "UnknownLanguage"
	ErrSpawnFailed     ErrorKind = "SpawnFailed"
)

// ExecError is returned by Run on a non-zero path that isn't simply a
// failing exit code (spec §4.9 distinguishes "command ran and failed"
// from "command could not be run at all").
type ExecError struct {
	Kind    ErrorKind
	Command string
	Msg     string
	Err     error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Command, e.Msg)
}

func (e *ExecError) Unwrap() error { return e.Err }
