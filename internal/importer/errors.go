package importer

import "fmt"

// ErrorKind enumerates the import-engine-owned error kinds (spec §7).
type ErrorKind string

const (
	ErrCircularImport    ErrorKind = "CircularImport"
	ErrModuleNotFound    ErrorKind = "ModuleNotFound"
	ErrExportNotFound    ErrorKind = "ExportNotFound"
	ErrIntegrityMismatch ErrorKind = "IntegrityMismatch"
	ErrParseFailed       ErrorKind = "ParseFailed"
	ErrResolverFailed    ErrorKind = "ResolverFailed"
)

// ImportError is the error type returned by Import.
type ImportError struct {
	Kind ErrorKind
	Ref  string
	Msg  string
	// Chain is the import chain at the point of failure (only set for
	// ErrCircularImport, spec §4.6 cycle detection).
	Chain []string
	Err   error
}

func (e *ImportError) Error() string {
	if len(e.Chain) > 0 {
		return fmt.Sprintf("%s: %s (%s): chain %v", e.Kind, e.Ref, e.Msg, e.Chain)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Ref, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Ref, e.Msg)
}

func (e *ImportError) Unwrap() error { return e.Err }
