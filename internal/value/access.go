package value

import "fmt"

// Step is one segment of a field-access reference: either a named
// property (`.field`) or a numeric index (`[int]` / `.0`).
type Step struct {
	Name    string
	Index   int
	IsIndex bool
}

func NameStep(name string) Step { return Step{Name: name} }
func IndexStep(i int) Step      { return Step{Index: i, IsIndex: true} }

func (s Step) String() string {
	if s.IsIndex {
		return fmt.Sprintf("[%d]", s.Index)
	}
	return "." + s.Name
}

// Mode selects how AccessField handles a failed step.
type Mode int

const (
	// Strict returns an *AccessError on any failed step.
	Strict Mode = iota
	// Lenient returns the caller-supplied default on a failed step.
	Lenient
)

// AccessField descends a sequence of steps from root (spec §4.1
// access_field). access_field(v, []) == v; composing two successful
// accesses is equivalent to accessing the concatenated path
// (spec §8 field-access totality).
//
// The returned Value's security is the union of root's taint and every
// intermediate container Value's taint (spec §4.1).
func AccessField(root Value, steps []Step, mode Mode, dflt Value) (Value, error) {
	current := root
	sec := root.metadata.Security
	for i, step := range steps {
		next, nextSec, err := accessOne(current, step)
		if err != nil {
			if mode == Lenient {
				return dflt, nil
			}
			if ae, ok := err.(*AccessError); ok {
				ae.Path = steps[:i]
			}
			return Value{}, err
		}
		sec = Union(sec, nextSec)
		current = next
	}
	current.metadata.Security = sec
	return current, nil
}

func accessOne(v Value, step Step) (Value, Security, error) {
	payload, err := v.Payload()
	if err != nil {
		return Value{}, Security{}, err
	}

	switch p := payload.(type) {
	case Object:
		if step.IsIndex {
			return Value{}, Security{}, newAccessError(ErrInvalidAccess, nil, step,
				fmt.Sprintf("cannot index object with numeric step %d", step.Index))
		}
		field, ok := p.Fields[step.Name]
		if !ok {
			return Value{}, Security{}, newAccessError(ErrFieldNotFound, nil, step,
				fmt.Sprintf("field %q not found", step.Name))
		}
		return field, field.metadata.Security, nil

	case []Value:
		if !step.IsIndex {
			return Value{}, Security{}, newAccessError(ErrInvalidAccess, nil, step,
				fmt.Sprintf("cannot access array with field step %q", step.Name))
		}
		if step.Index < 0 || step.Index >= len(p) {
			return Value{}, Security{}, newAccessError(ErrIndexOutOfRange, nil, step,
				fmt.Sprintf("index %d out of bounds (len %d)", step.Index, len(p)))
		}
		item := p[step.Index]
		return item, item.metadata.Security, nil

	default:
		// Raw JSON-ish payload (e.g. CommandResult.Data, PipelineInput.Data)
		rv, rerr := accessRaw(payload, step)
		if rerr != nil {
			return Value{}, Security{}, rerr
		}
		return OfStructured(v.name, rv, v.metadata.DefinedAt, Security{}), Security{}, nil
	}
}

// accessRaw steps into a plain decoded-JSON value (map[string]any,
// []any, or a scalar), used when descending into CommandResult/
// PipelineInput data that was never wrapped as Object/Array Values.
func accessRaw(payload any, step Step) (any, error) {
	switch p := payload.(type) {
	case map[string]any:
		if step.IsIndex {
			return nil, newAccessError(ErrInvalidAccess, nil, step, "cannot index object with numeric step")
		}
		val, ok := p[step.Name]
		if !ok {
			return nil, newAccessError(ErrFieldNotFound, nil, step, fmt.Sprintf("field %q not found", step.Name))
		}
		return val, nil
	case []any:
		if !step.IsIndex {
			return nil, newAccessError(ErrInvalidAccess, nil, step, "cannot access array with field step")
		}
		if step.Index < 0 || step.Index >= len(p) {
			return nil, newAccessError(ErrIndexOutOfRange, nil, step, fmt.Sprintf("index %d out of bounds (len %d)", step.Index, len(p)))
		}
		return p[step.Index], nil
	default:
		return nil, newAccessError(ErrInvalidAccess, nil, step, fmt.Sprintf("cannot step into primitive value with %s", step))
	}
}
