// Package fetch implements the Resource Fetcher (spec.md §4.4,
// component C4): uniform filesystem/URL retrieval with validation,
// caching, and approval, grounded on the teacher's
// runtime/decorators/cache.go TTL-cache shape and core/sdk/secret's use
// of content hashing for identity.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/meld-lang/meld/internal/capability"
)

// ErrorKind enumerates the Fetcher-owned error kinds from spec §7.
type ErrorKind string

const (
	ErrNotFound         ErrorKind = "FileNotFound"
	ErrPermission       ErrorKind = "Permission"
	ErrDecode           ErrorKind = "DecodeError"
	ErrURLValidation    ErrorKind = "URLValidation"
	ErrResponseTooLarge ErrorKind = "ResponseTooLarge"
	ErrFetchTimeout     ErrorKind = "FetchTimeout"
	ErrFetchHTTP        ErrorKind = "FetchHTTP"
	ErrApprovalDenied   ErrorKind = "ApprovalDenied"
)

// FetchError is the error type returned by every Fetcher operation.
type FetchError struct {
	Kind ErrorKind
	Ref  string
	Msg  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.Ref, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Ref, e.Msg)
}

func (e *FetchError) Unwrap() error { return e.Err }

// URLPolicy is the URL-fetch policy subset of §6.2 config.
type URLPolicy struct {
	Enabled                bool
	AllowedProtocols       []string
	AllowedDomains         []string
	BlockedDomains         []string
	MaxResponseSize        int64
	Timeout                time.Duration
	WarnOnInsecureProtocol bool
	ApproveAllImports      bool
}

// Fetcher is the C4 component.
type Fetcher struct {
	FS        capability.FileSystem
	HTTP      capability.HTTPFetcher
	Approver  capability.Approver
	Immutable capability.ImmutableCache
	Runtime   capability.RuntimeCache
	Policy    URLPolicy
	// Warnings collects non-fatal policy warnings (e.g. insecure
	// protocol) for the caller to surface; the Fetcher itself never
	// writes to stdio (spec §1: logging is out of scope for the core).
	Warnings []string
}

// ReadLocal reads bytes from the filesystem (spec §4.4 read_local).
func (f *Fetcher) ReadLocal(path string) ([]byte, error) {
	if !f.FS.Exists(path) {
		return nil, &FetchError{Kind: ErrNotFound, Ref: path, Msg: "file does not exist"}
	}
	data, err := f.FS.Read(path)
	if err != nil {
		return nil, &FetchError{Kind: ErrPermission, Ref: path, Msg: "read failed", Err: err}
	}
	return data, nil
}

// IsURL reports whether s is an http(s) URL (spec §4.4 is_url).
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// FetchOptions configures FetchURL.
type FetchOptions struct {
	ForImport bool
}

// toRawForm maps code-hosting "human" URLs to their raw-content
// transform (spec §4.4 step 1). Kept to the common cases; a host not
// listed here is fetched as-is.
func toRawForm(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	switch u.Host {
	case "github.com":
		// https://github.com/owner/repo/blob/ref/path -> raw.githubusercontent.com/owner/repo/ref/path
		parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 5)
		if len(parts) == 5 && parts[2] == "blob" {
			raw := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", parts[0], parts[1], parts[3], parts[4])
			return raw
		}
	case "gist.github.com":
		if !strings.HasSuffix(u.Path, "/raw") {
			return rawURL + "/raw"
		}
	}
	return rawURL
}

// FetchURL implements spec §4.4 fetch_url steps 1-6.
func (f *Fetcher) FetchURL(ctx context.Context, rawURL string, opts FetchOptions) ([]byte, string, error) {
	if !IsURL(rawURL) {
		return nil, "", &FetchError{Kind: ErrURLValidation, Ref: rawURL, Msg: "not a URL"}
	}
	resolved := toRawForm(rawURL)

	if opts.ForImport && f.Immutable != nil {
		if data, ok := f.Immutable.Get(resolved); ok {
			return data, resolved, nil
		}
	}

	if err := f.validatePolicy(resolved); err != nil {
		return nil, "", err
	}

	if !opts.ForImport && f.Runtime != nil {
		if data, _, ok := f.Runtime.Get(resolved); ok {
			return data, resolved, nil
		}
	}

	if f.HTTP == nil {
		return nil, "", &FetchError{Kind: ErrFetchHTTP, Ref: resolved, Msg: "no HTTP capability configured"}
	}
	timeout := f.Policy.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	status, body, err := f.HTTP.Get(ctx, resolved, timeout)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", &FetchError{Kind: ErrFetchTimeout, Ref: resolved, Msg: "request timed out", Err: err}
		}
		return nil, "", &FetchError{Kind: ErrFetchHTTP, Ref: resolved, Msg: "request failed", Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, "", &FetchError{Kind: ErrFetchHTTP, Ref: resolved, Msg: fmt.Sprintf("HTTP status %d", status)}
	}
	if f.Policy.MaxResponseSize > 0 && int64(len(body)) > f.Policy.MaxResponseSize {
		return nil, "", &FetchError{Kind: ErrResponseTooLarge, Ref: resolved, Msg: fmt.Sprintf("response size %d exceeds max %d", len(body), f.Policy.MaxResponseSize)}
	}

	if opts.ForImport {
		if !f.Policy.ApproveAllImports {
			if f.Approver == nil {
				return nil, "", &FetchError{Kind: ErrApprovalDenied, Ref: resolved, Msg: "no approval capability configured"}
			}
			ok, aerr := f.Approver.Approve(ctx, resolved, body)
			if aerr != nil {
				return nil, "", &FetchError{Kind: ErrApprovalDenied, Ref: resolved, Msg: "approval failed", Err: aerr}
			}
			if !ok {
				return nil, "", &FetchError{Kind: ErrApprovalDenied, Ref: resolved, Msg: "approval denied"}
			}
		}
		if f.Immutable != nil {
			if _, err := f.Immutable.Set(resolved, body); err != nil {
				return nil, "", &FetchError{Kind: ErrFetchHTTP, Ref: resolved, Msg: "failed to persist to immutable cache", Err: err}
			}
		}
	} else if f.Runtime != nil {
		f.Runtime.Set(resolved, body, f.ttlFor(resolved))
	}

	return body, resolved, nil
}

func (f *Fetcher) ttlFor(resolvedURL string) time.Duration {
	// Per-URL-pattern TTLs are a config concern (spec §6.2
	// cache.ttlByPattern); default conservatively.
	return 5 * time.Minute
}

func (f *Fetcher) validatePolicy(resolvedURL string) error {
	if !f.Policy.Enabled {
		return &FetchError{Kind: ErrURLValidation, Ref: resolvedURL, Msg: "URL fetching disabled by policy"}
	}
	u, err := url.Parse(resolvedURL)
	if err != nil {
		return &FetchError{Kind: ErrURLValidation, Ref: resolvedURL, Msg: "malformed URL", Err: err}
	}
	if !containsFold(f.Policy.AllowedProtocols, u.Scheme) {
		return &FetchError{Kind: ErrURLValidation, Ref: resolvedURL, Msg: "protocol not allowed: " + u.Scheme}
	}
	if u.Scheme == "http" && f.Policy.WarnOnInsecureProtocol {
		f.Warnings = append(f.Warnings, "insecure protocol used for "+resolvedURL)
	}
	if domainBlocked(u.Host, f.Policy.BlockedDomains) {
		return &FetchError{Kind: ErrURLValidation, Ref: resolvedURL, Msg: "domain is blocked: " + u.Host}
	}
	if len(f.Policy.AllowedDomains) > 0 && !domainAllowed(u.Host, f.Policy.AllowedDomains) {
		return &FetchError{Kind: ErrURLValidation, Ref: resolvedURL, Msg: "domain not on allow-list: " + u.Host}
	}
	return nil
}

func containsFold(set []string, s string) bool {
	for _, v := range set {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// domainAllowed/domainBlocked accept an exact host match or any suffix
// under a listed domain (spec §4.4 step 3).
func domainAllowed(host string, domains []string) bool {
	return domainMatches(host, domains)
}

func domainBlocked(host string, domains []string) bool {
	return domainMatches(host, domains)
}

func domainMatches(host string, domains []string) bool {
	host = strings.ToLower(host)
	for _, d := range domains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Sha256Hex is the content hash used to key the immutable cache
// (spec §4.4 caching guarantees).
func Sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
