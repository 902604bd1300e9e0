package resolver

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/meld-lang/meld/internal/capability"
	"github.com/meld-lang/meld/internal/fetch"
	"github.com/meld-lang/meld/internal/pathresolve"
)

// ProjectPathStrategy resolves `@.`/`@<alias>` segments to an absolute
// path (spec §4.5 strategy 1).
type ProjectPathStrategy struct {
	Alias string
	Root  string
	FS    capability.FileSystem
}

func (s *ProjectPathStrategy) Name() string { return "project-path" }
func (s *ProjectPathStrategy) Matches(ref string) bool {
	return ref == "@." || strings.HasPrefix(ref, "@"+s.Alias+"/")
}
func (s *ProjectPathStrategy) Resolve(ref string, rc ResolveContext) (Resolution, error) {
	path, ok := pathresolve.ExpandPrefix(ref, nil, s.Alias, s.Root)
	if !ok {
		return Resolution{}, fmt.Errorf("project-path resolver: cannot expand %q", ref)
	}
	if s.FS == nil || !s.FS.Exists(path) {
		return Resolution{}, fmt.Errorf("project-path resolver: %q does not exist", path)
	}
	data, err := s.FS.Read(path)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Content: data, ContentType: ContentModule, Metadata: map[string]any{"path": path}}, nil
}

// LocalStrategy resolves configured user prefixes (e.g. `@local/`) to
// the local filesystem (spec §4.5 strategy 3).
type LocalStrategy struct {
	Prefixes map[string]string // "@local/" -> "/abs/base"
	FS       capability.FileSystem
}

func (s *LocalStrategy) Name() string { return "local" }
func (s *LocalStrategy) Matches(ref string) bool {
	for p := range s.Prefixes {
		if strings.HasPrefix(ref, p) {
			return true
		}
	}
	return false
}
func (s *LocalStrategy) Resolve(ref string, rc ResolveContext) (Resolution, error) {
	path, ok := pathresolve.ExpandPrefix(ref, s.Prefixes, "", "")
	if !ok {
		return Resolution{}, fmt.Errorf("local resolver: no prefix matches %q", ref)
	}
	data, err := s.FS.Read(path)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Content: data, ContentType: ContentModule, Metadata: map[string]any{"path": path}}, nil
}

// GitHubHTTPStrategy resolves bare URL-style refs (spec §4.5 strategy 4).
type GitHubHTTPStrategy struct {
	Fetcher   *fetch.Fetcher
	ForImport bool
}

func (s *GitHubHTTPStrategy) Name() string            { return "github-http" }
func (s *GitHubHTTPStrategy) Matches(ref string) bool { return fetch.IsURL(ref) }
func (s *GitHubHTTPStrategy) Resolve(ref string, rc ResolveContext) (Resolution, error) {
	data, resolved, err := s.Fetcher.FetchURL(contextBackground(), ref, fetch.FetchOptions{ForImport: rc.Kind == ContextImport})
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Content: data, ContentType: ContentModule, Metadata: map[string]any{"resolved": resolved}}, nil
}

// RegistryStrategy resolves `@user/module[@version]` references against
// a configured module registry, using real semver comparison (spec
// §4.5 strategy 2; SPEC_FULL.md domain-stack entry for golang.org/x/mod).
type RegistryStrategy struct {
	Fetcher *fetch.Fetcher
	BaseURL string // e.g. "https://registry.example.com"
}

func (s *RegistryStrategy) Name() string { return "registry" }
func (s *RegistryStrategy) Matches(ref string) bool {
	if !strings.HasPrefix(ref, "@") {
		return false
	}
	rest := strings.TrimPrefix(ref, "@")
	return strings.Count(rest, "/") == 1 && !strings.Contains(rest, "://")
}

func (s *RegistryStrategy) Resolve(ref string, rc ResolveContext) (Resolution, error) {
	user, mod, version := parseModuleRef(ref)
	if version != "" && !semver.IsValid(version) {
		return Resolution{}, fmt.Errorf("registry resolver: invalid semver %q in %q", version, ref)
	}
	url := fmt.Sprintf("%s/%s/%s", s.BaseURL, user, mod)
	if version != "" {
		url += "@" + version
	}
	data, resolved, err := s.Fetcher.FetchURL(contextBackground(), url, fetch.FetchOptions{ForImport: rc.Kind == ContextImport})
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{Content: data, ContentType: ContentModule, Metadata: map[string]any{"user": user, "module": mod, "version": version, "resolved": resolved}}, nil
}

func parseModuleRef(ref string) (user, mod, version string) {
	rest := strings.TrimPrefix(ref, "@")
	parts := strings.SplitN(rest, "/", 2)
	user = parts[0]
	mod = ""
	if len(parts) == 2 {
		mod = parts[1]
	}
	if i := strings.Index(mod, "@"); i >= 0 {
		version = mod[i+1:]
		mod = mod[:i]
	}
	return
}

// RankVersions sorts module versions newest-first using real semver
// ordering (golang.org/x/mod/semver.Compare), so the newest release can
// be chosen deterministically. RegistryStrategy.Resolve does not call
// it: a reference without a version is fetched without one.
func RankVersions(versions []string) []string {
	out := append([]string(nil), versions...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && semver.Compare(out[j], out[j-1]) > 0; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// BuiltinValueStrategy resolves the data-producing builtins `@now`,
// `@input`, `@debug`, `@base` when referenced as an import/path target
// rather than read as an ambient environment variable (spec §4.5
// strategy 5). The ordinary variable-read path is served directly by
// environment.Scope.Get; this strategy exists so the same names are
// resolvable wherever the grammar allows a module reference.
type BuiltinValueStrategy struct {
	Now   func() time.Time
	Input func() ([]byte, ContentType)
	Base  string
}

func (s *BuiltinValueStrategy) Name() string { return "builtin" }
func (s *BuiltinValueStrategy) Matches(ref string) bool {
	switch ref {
	case "@now", "@input", "@debug", "@base":
		return true
	}
	return false
}
func (s *BuiltinValueStrategy) Resolve(ref string, rc ResolveContext) (Resolution, error) {
	switch ref {
	case "@now":
		now := time.Now()
		if s.Now != nil {
			now = s.Now()
		}
		return Resolution{ContentType: ContentData, DataValue: now.UTC().Format(time.RFC3339)}, nil
	case "@input":
		if s.Input == nil {
			return Resolution{ContentType: ContentData, DataValue: ""}, nil
		}
		data, ct := s.Input()
		return Resolution{Content: data, ContentType: ct}, nil
	case "@base":
		return Resolution{ContentType: ContentData, DataValue: s.Base}, nil
	case "@debug":
		return Resolution{}, fmt.Errorf("@debug is only resolvable as an environment read, not an import target")
	}
	return Resolution{}, fmt.Errorf("builtin resolver: unknown ref %q", ref)
}
