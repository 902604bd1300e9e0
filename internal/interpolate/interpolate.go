// Package interpolate implements Interpolation & Field Access
// (spec.md §4.7, component C7): resolving a `directive.Ref` against an
// environment.Scope and rendering the result to text via
// value.CoerceToString. Grounded on the teacher's core/decorator
// parameter-interpolation pass, which walks a declared-argument
// reference against the active scope the same way.
package interpolate

import (
	"fmt"

	"github.com/meld-lang/meld/internal/directive"
	"github.com/meld-lang/meld/internal/environment"
	"github.com/meld-lang/meld/internal/value"
)

// ErrorKind enumerates the interpolation-owned error kinds (spec §7).
type ErrorKind string

const (
	ErrUndefinedVariable ErrorKind = "UndefinedVariable"
	ErrFieldNotFound     ErrorKind = "FieldNotFound"
	ErrInvalidAccess     ErrorKind = "InvalidAccess"
)

// InterpolateError is returned by Resolve/Render in strict mode.
type InterpolateError struct {
	Kind ErrorKind
	Ref  string
	Msg  string
	Err  error
}

func (e *InterpolateError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Ref, e.Msg)
}

func (e *InterpolateError) Unwrap() error { return e.Err }

func toValueSteps(steps []directive.Step) []value.Step {
	out := make([]value.Step, len(steps))
	for i, s := range steps {
		if s.IsIndex {
			out[i] = value.IndexStep(s.Index)
		} else {
			out[i] = value.NameStep(s.Name)
		}
	}
	return out
}

func refString(r directive.Ref) string {
	s := r.Identifier
	for _, step := range r.Steps {
		if step.IsIndex {
			s += fmt.Sprintf("[%d]", step.Index)
		} else {
			s += "." + step.Name
		}
	}
	return s
}

// Resolve looks up ref.Identifier in scope and descends its field-access
// steps, in Strict mode (spec §4.7 "An undefined root binding, or a
// failed field-access step in strict context, is a resolution error").
func Resolve(ref directive.Ref, scope *environment.Scope) (value.Value, error) {
	root, ok := scope.Get(ref.Identifier)
	if !ok {
		return value.Value{}, &InterpolateError{Kind: ErrUndefinedVariable, Ref: ref.Identifier, Msg: "undefined variable"}
	}
	if len(ref.Steps) == 0 {
		return root, nil
	}
	v, err := value.AccessField(root, toValueSteps(ref.Steps), value.Strict, value.Value{})
	if err != nil {
		if ae, ok := err.(*value.AccessError); ok {
			kind := ErrFieldNotFound
			if ae.Kind == value.ErrInvalidAccess {
				kind = ErrInvalidAccess
			}
			return value.Value{}, &InterpolateError{Kind: kind, Ref: refString(ref), Msg: ae.Error(), Err: err}
		}
		return value.Value{}, &InterpolateError{Kind: ErrFieldNotFound, Ref: refString(ref), Msg: err.Error(), Err: err}
	}
	return v, nil
}

// ResolveLenient is the `show`/template-default variant (spec §4.7
// "interpolation inside `show` default text tolerates a missing field,
// substituting an empty value"): a failed root lookup or field-access
// step yields dflt instead of an error.
func ResolveLenient(ref directive.Ref, scope *environment.Scope, dflt value.Value) value.Value {
	root, ok := scope.Get(ref.Identifier)
	if !ok {
		return dflt
	}
	if len(ref.Steps) == 0 {
		return root
	}
	v, err := value.AccessField(root, toValueSteps(ref.Steps), value.Lenient, dflt)
	if err != nil {
		return dflt
	}
	return v
}

// Render resolves ref and coerces it to text under fctx (spec §4.7
// composed with §4.1 coerce_to_string).
func Render(ref directive.Ref, scope *environment.Scope, fctx value.FormatContext) (string, error) {
	v, err := Resolve(ref, scope)
	if err != nil {
		return "", err
	}
	s, err := value.CoerceToString(v, fctx)
	if err != nil {
		return "", &InterpolateError{Kind: ErrInvalidAccess, Ref: refString(ref), Msg: "coercion failed", Err: err}
	}
	return s, nil
}

// RenderTemplate expands every `{{ref}}` interpolation of a template
// given as literal segments plus refs
// (spec §4.7 "A template's rendered form concatenates its literal text
// segments with the coerced text of each interpolation, in order").
// refs supplies the parsed Ref for each interpolation in document
// order; the parser is responsible for locating interpolation spans
// (spec §1 "parsing is out of scope").
func RenderTemplate(segments []string, refs []directive.Ref, scope *environment.Scope, fctx value.FormatContext, lenient bool, dflt value.Value) (string, error) {
	if len(segments) != len(refs)+1 {
		return "", fmt.Errorf("interpolate: segments/refs length mismatch: %d segments, %d refs", len(segments), len(refs))
	}
	out := segments[0]
	for i, ref := range refs {
		var text string
		if lenient {
			v := ResolveLenient(ref, scope, dflt)
			s, err := value.CoerceToString(v, fctx)
			if err != nil {
				return "", err
			}
			text = s
		} else {
			s, err := Render(ref, scope, fctx)
			if err != nil {
				return "", err
			}
			text = s
		}
		out += text + segments[i+1]
	}
	return out, nil
}
