// Package invariant provides panic-on-programmer-error assertions.
//
// These are for conditions that indicate a bug in this module, not for
// anything a caller can trigger with ordinary input — user-facing
// failures always flow through a typed error, never a panic.
package invariant

import "fmt"

// NotNil panics if v is nil. name identifies the argument in the panic message.
func NotNil(v any, name string) {
	if v == nil {
		panic(fmt.Sprintf("invariant: %s must not be nil", name))
	}
}

// Precondition panics with msg if cond is false.
func Precondition(cond bool, msg string, args ...any) {
	if !cond {
		panic("invariant: " + fmt.Sprintf(msg, args...))
	}
}

// Unreachable panics; used to mark switch arms that must never execute.
func Unreachable(msg string, args ...any) {
	panic("invariant: unreachable: " + fmt.Sprintf(msg, args...))
}
