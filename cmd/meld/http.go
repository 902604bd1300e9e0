package main

import (
	"context"
	"io"
	"net/http"
	"time"
)

// httpFetcher is the real-network capability.HTTPFetcher
// implementation: a single bounded GET, matching spec §4.4 step 4's
// "exactly one outbound request per resolved URL" contract. Stdlib
// net/http: the teacher never commits a concrete HTTP client (its own
// remote-fetch capability is host-injected the same way), and no pack
// repo carries a third-party HTTP client to ground a swap on.
type httpFetcher struct{}

func (httpFetcher) Get(ctx context.Context, url string, timeout time.Duration) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// systemClock is the real capability.Clock.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
