package fetch

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memFS struct{ files map[string][]byte }

func (m *memFS) Exists(path string) bool          { _, ok := m.files[path]; return ok }
func (m *memFS) Read(path string) ([]byte, error) { return m.files[path], nil }
func (m *memFS) Write(path string, data []byte) error {
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[path] = data
	return nil
}
func (m *memFS) Mkdir(string, bool) error         { return nil }
func (m *memFS) Stat(string) (fs.FileInfo, error) { return nil, nil }

type fakeHTTP struct {
	calls int
	body  []byte
}

func (f *fakeHTTP) Get(ctx context.Context, url string, timeout time.Duration) (int, []byte, error) {
	f.calls++
	return 200, f.body, nil
}

type alwaysApprove struct{}

func (alwaysApprove) Approve(ctx context.Context, url string, content []byte) (bool, error) {
	return true, nil
}

func TestFetchURLImportCachesAfterFirstFetch(t *testing.T) {
	fsys := &memFS{files: map[string][]byte{}}
	cache := &FileImmutableCache{FS: fsys, Dir: "/cache"}
	http := &fakeHTTP{body: []byte("hello")}
	f := &Fetcher{
		FS:        fsys,
		HTTP:      http,
		Immutable: cache,
		Approver:  alwaysApprove{},
		Policy:    URLPolicy{Enabled: true, AllowedProtocols: []string{"https"}, AllowedDomains: []string{"example.com"}},
	}

	data, _, err := f.FetchURL(context.Background(), "https://example.com/m.mld", FetchOptions{ForImport: true})
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
	require.Equal(t, 1, http.calls)

	data2, _, err := f.FetchURL(context.Background(), "https://example.com/m.mld", FetchOptions{ForImport: true})
	require.NoError(t, err)
	require.Equal(t, "hello", string(data2))
	require.Equal(t, 1, http.calls, "second fetch must hit the immutable cache, not HTTP")
}

func TestFetchURLRejectsDisallowedDomain(t *testing.T) {
	fsys := &memFS{}
	f := &Fetcher{
		FS:     fsys,
		HTTP:   &fakeHTTP{body: []byte("x")},
		Policy: URLPolicy{Enabled: true, AllowedProtocols: []string{"https"}, AllowedDomains: []string{"good.com"}},
	}
	_, _, err := f.FetchURL(context.Background(), "https://evil.com/x", FetchOptions{})
	require.Error(t, err)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, ErrURLValidation, fe.Kind)
}

func TestFetchURLBlockedDomainSuffixMatch(t *testing.T) {
	fsys := &memFS{}
	f := &Fetcher{
		FS:     fsys,
		HTTP:   &fakeHTTP{body: []byte("x")},
		Policy: URLPolicy{Enabled: true, AllowedProtocols: []string{"https"}, BlockedDomains: []string{"evil.com"}},
	}
	_, _, err := f.FetchURL(context.Background(), "https://sub.evil.com/x", FetchOptions{})
	require.Error(t, err)
}

func TestFetchURLApprovalDenied(t *testing.T) {
	fsys := &memFS{files: map[string][]byte{}}
	f := &Fetcher{
		FS:        fsys,
		HTTP:      &fakeHTTP{body: []byte("x")},
		Immutable: &FileImmutableCache{FS: fsys, Dir: "/cache"},
		Policy:    URLPolicy{Enabled: true, AllowedProtocols: []string{"https"}},
	}
	_, _, err := f.FetchURL(context.Background(), "https://example.com/x", FetchOptions{ForImport: true})
	require.Error(t, err)
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, ErrApprovalDenied, fe.Kind)
}

func TestTTLRuntimeCacheExpiry(t *testing.T) {
	c := NewTTLRuntimeCache()
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("u", []byte("v"), time.Second)
	_, _, ok := c.Get("u")
	require.True(t, ok)
	c.now = func() time.Time { return now.Add(2 * time.Second) }
	_, _, ok = c.Get("u")
	require.False(t, ok)
}
