package resolver

import stdcontext "context"

// contextBackground avoids naming collision with this package's own
// Context type while still giving strategies a context.Context to pass
// to the Fetcher.
func contextBackground() stdcontext.Context {
	return stdcontext.Background()
}
