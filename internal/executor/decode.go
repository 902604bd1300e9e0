package executor

import (
	"encoding/json"
	"strings"
)

// decodeJSONish attempts to parse trimmed stdout as JSON, returning nil
// if it doesn't parse (spec §4.8 "run"/CommandResult.Data is populated
// only when stdout is valid JSON; otherwise downstream access falls
// back to the raw text").
func decodeJSONish(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil
	}
	return v
}
