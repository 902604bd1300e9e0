package value

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatContext selects the stringification regime (spec §4.1
// coerce_to_string). OutputLiteral enables output-literal mode:
// canonical JSON for complex values, source whitespace preserved for
// text (spec §9 design notes).
type FormatContext struct {
	Block         bool // block (standalone line) context
	Inline        bool // inline (mid-sentence) context
	Table         bool
	List          bool
	CodeFence     bool
	OutputLiteral bool
}

// CoerceToString renders a Value's payload as text for interpolation
// and output (spec §4.1). It is idempotent for string inputs in a
// fixed context (spec §8 coercion idempotence): coercing an already
// plain string again under the same FormatContext returns it unchanged.
func CoerceToString(v Value, ctx FormatContext) (string, error) {
	payload, err := v.Payload()
	if err != nil {
		return "", err
	}
	return coercePayload(payload, ctx)
}

func coercePayload(payload any, ctx FormatContext) (string, error) {
	switch p := payload.(type) {
	case nil:
		return "", nil
	case string:
		return p, nil
	case Object:
		return coerceObject(p, ctx)
	case []Value:
		return coerceArray(p, ctx)
	case PathPayload:
		return p.Raw, nil
	case CommandResult:
		return strings.TrimSuffix(p.Stdout, "\n"), nil
	case PipelineInput:
		return p.Raw, nil
	case bool, int, int64, float64:
		return fmt.Sprintf("%v", p), nil
	case Executable:
		return "", fmt.Errorf("cannot coerce an Executable value to text")
	default:
		// raw decoded-JSON (map[string]any / []any / scalars from
		// CommandResult.Data / PipelineInput.Data access)
		return coerceJSONish(p, ctx)
	}
}

func coerceObject(o Object, ctx FormatContext) (string, error) {
	if len(o.Keys) == 0 {
		return "{}", nil
	}
	m := make(map[string]any, len(o.Keys))
	for _, k := range o.Keys {
		f := o.Fields[k]
		payload, err := f.Payload()
		if err != nil {
			return "", err
		}
		m[k] = jsonable(payload)
	}
	ordered := orderedObject{keys: o.Keys, values: m}
	switch {
	case ctx.Block:
		b, err := json.MarshalIndent(ordered, "", "  ")
		if err != nil {
			return "", err
		}
		return "```json\n" + string(b) + "\n```", nil
	case ctx.CodeFence:
		b, err := json.MarshalIndent(ordered, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		b, err := json.Marshal(ordered)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func coerceArray(items []Value, ctx FormatContext) (string, error) {
	if len(items) == 0 {
		return "[]", nil
	}
	if ctx.OutputLiteral {
		raw := make([]any, len(items))
		for i, it := range items {
			p, err := it.Payload()
			if err != nil {
				return "", err
			}
			raw[i] = jsonable(p)
		}
		b, err := json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if ctx.Block {
		var sb strings.Builder
		for i, it := range items {
			s, err := CoerceToString(it, FormatContext{Inline: true})
			if err != nil {
				return "", err
			}
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("- ")
			sb.WriteString(s)
		}
		return sb.String(), nil
	}
	// inline / table / list: comma-separated
	parts := make([]string, len(items))
	for i, it := range items {
		s, err := CoerceToString(it, FormatContext{Inline: true})
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

func coerceJSONish(p any, ctx FormatContext) (string, error) {
	if p == nil {
		return "", nil
	}
	switch v := p.(type) {
	case string:
		return v, nil
	case map[string]any:
		if len(v) == 0 {
			return "{}", nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case []any:
		if len(v) == 0 {
			return "[]", nil
		}
		if ctx.Block {
			var sb strings.Builder
			for i, it := range v {
				s, err := coerceJSONish(it, FormatContext{Inline: true})
				if err != nil {
					return "", err
				}
				if i > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString("- ")
				sb.WriteString(s)
			}
			return sb.String(), nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// jsonable converts a Value payload graph into plain JSON-marshalable
// data (used when an Object/Array is itself nested inside another
// Object/Array being coerced).
func jsonable(payload any) any {
	switch p := payload.(type) {
	case Object:
		m := make(map[string]any, len(p.Keys))
		for _, k := range p.Keys {
			v := p.Fields[k]
			inner, _ := v.Payload()
			m[k] = jsonable(inner)
		}
		return orderedObject{keys: p.Keys, values: m}
	case []Value:
		out := make([]any, len(p))
		for i, v := range p {
			inner, _ := v.Payload()
			out[i] = jsonable(inner)
		}
		return out
	default:
		return p
	}
}

// orderedObject marshals to JSON preserving field insertion order,
// since plain map[string]any would marshal in sorted-key order and
// Object.Keys records the author's declared order.
type orderedObject struct {
	keys   []string
	values map[string]any
}

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		sb.Write(kb)
		sb.WriteByte(':')
		sb.Write(vb)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}
