package evaluator

import (
	"github.com/meld-lang/meld/internal/fetch"
	"github.com/meld-lang/meld/internal/resolver"
	"github.com/meld-lang/meld/internal/value"
)

// ProcessingContext is the ambient per-directive state handlers receive
// (spec §4.8 "an ambient ProcessingContext holding {resolution,
// formatting, execution?}").
type ProcessingContext struct {
	Resolution resolver.ResolveContext
	Formatting value.FormatContext
	Execution  *ExecutionContext
}

// ExecutionContext carries the optional per-invocation execution
// settings (timeout override, working directory), present only while
// evaluating run/pipeline directives.
type ExecutionContext struct {
	Dir     string
	Timeout int // milliseconds, 0 = use config default
}

// fetchOptionsFor mirrors fetch.FetchOptions construction for the
// non-import fetch path (`show ... from url`), kept local since the
// evaluator is the only caller that needs it outside C6.
func fetchOptionsFor() fetch.FetchOptions {
	return fetch.FetchOptions{ForImport: false}
}
