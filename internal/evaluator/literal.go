package evaluator

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/meld-lang/meld/internal/value"
)

// jsonToValue converts a decoded JSON literal (spec §4.8 var "JSON
// literal" RHS form) into the corresponding Value tree, grounded on
// the same Object/Array/Primitive split value.CoerceToString's
// coerceJSONish branch expects on the way back out.
func jsonToValue(name string, raw []byte, loc value.Location, sec value.Security) (value.Value, error) {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return value.Value{}, fmt.Errorf("invalid JSON literal: %w", err)
	}
	return anyToValue(name, data, loc, sec), nil
}

func anyToValue(name string, data any, loc value.Location, sec value.Security) value.Value {
	switch d := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fields := make(map[string]value.Value, len(d))
		for _, k := range keys {
			fields[k] = anyToValue(k, d[k], loc, sec)
		}
		return value.OfObject(name, value.NewObject(fields, keys), loc, sec)
	case []any:
		items := make([]value.Value, len(d))
		for i, item := range d {
			items[i] = anyToValue(fmt.Sprintf("%s[%d]", name, i), item, loc, sec)
		}
		return value.OfArray(name, items, loc, sec)
	default:
		return value.OfPrimitive(name, d, loc, sec)
	}
}
