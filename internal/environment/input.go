package environment

import (
	"encoding/json"
	"strings"

	"github.com/meld-lang/meld/internal/value"
)

// defaultBuildInput implements the `@input` builtin (spec §4.2, §4.5
// item 5): merged stdin + allow-listed env vars. If the trimmed stdin
// begins with `{` or `[` and parses as JSON it is auto-parsed into an
// Object/Array; otherwise it is kept as raw text under `_stdin`.
func defaultBuildInput(raw string, env map[string]string) value.Value {
	fields := map[string]value.Value{}
	keys := make([]string, 0, len(env)+1)
	for name, v := range env {
		fields[name] = value.OfSimpleText(name, v, value.Location{}, value.NewSecurity("src:env:OS"))
		keys = append(keys, name)
	}

	trimmed := strings.TrimSpace(raw)
	sec := value.NewSecurity("src:env:stdin")
	switch {
	case strings.HasPrefix(trimmed, "{"):
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
			for k, v := range obj {
				fields[k] = value.OfStructured(k, v, value.Location{}, sec)
				keys = append(keys, k)
			}
			break
		}
		fallthrough
	case strings.HasPrefix(trimmed, "["):
		var arr []any
		if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
			items := make([]value.Value, len(arr))
			for i, it := range arr {
				items[i] = value.OfStructured("_stdin", it, value.Location{}, sec)
			}
			fields["_stdin"] = value.OfArray("_stdin", items, value.Location{}, sec)
			keys = append(keys, "_stdin")
			break
		}
		if raw != "" {
			fields["_stdin"] = value.OfSimpleText("_stdin", raw, value.Location{}, sec)
			keys = append(keys, "_stdin")
		}
	default:
		if raw != "" {
			fields["_stdin"] = value.OfSimpleText("_stdin", raw, value.Location{}, sec)
			keys = append(keys, "_stdin")
		}
	}

	return value.OfObject("input", value.NewObject(fields, keys), value.Location{}, value.NewSecurity())
}
