// Package pathresolve implements the Path & Fuzzy Resolver (spec.md
// §4.3, component C3): project-root discovery, prefix expansion, and
// fuzzy filename/heading matching, grounded on the teacher's go.mod
// dependency on github.com/lithammer/fuzzysearch (declared but unused
// in the retrieved snapshot — this is its home).
package pathresolve

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/meld-lang/meld/internal/capability"
)

// rootMarkers is the ordered list of files spec §4.3 project_root()
// checks for; first hit wins.
var rootMarkers = []string{
	"mlld.config.json", "package.json", ".git", "pyproject.toml", "Cargo.toml", "pom.xml", "build.gradle", "Makefile",
}

// ProjectRoot walks upward from basePath looking for a root marker,
// falling back to basePath if none is found (spec §4.3 project_root).
func ProjectRoot(fsys capability.FileSystem, basePath string) string {
	dir := basePath
	for {
		for _, marker := range rootMarkers {
			if fsys.Exists(filepath.Join(dir, marker)) {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return basePath
		}
		dir = parent
	}
}

// Extensions is the ordered list spec §4.3 resolve_local tries when the
// literal path is absent.
var Extensions = []string{".mlld.md", ".mld", ".md"}

// AmbiguousMatchError is returned when two or more fuzzy candidates tie
// for first place (spec §4.3 "ambiguous-match errors when multiple
// candidates tie").
type AmbiguousMatchError struct {
	Query      string
	Candidates []string
}

func (e *AmbiguousMatchError) Error() string {
	return "ambiguous fuzzy match for " + e.Query + ": " + strings.Join(e.Candidates, ", ")
}

// NotFoundError carries up to 3 fuzzy suggestions (spec §4.3 "reports
// suggestions (up to 3)").
type NotFoundError struct {
	Path        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return "path not found: " + e.Path
	}
	return "path not found: " + e.Path + " (did you mean: " + strings.Join(e.Suggestions, ", ") + "?)"
}

// ResolveLocal resolves ref against basePath (spec §4.3 resolve_local).
// If ref is absolute it is returned unchanged; otherwise it is joined
// with basePath. When fuzzyEnabled and the literal path does not exist,
// a case-insensitive fuzzy basename match is attempted against the
// siblings of the intended directory, trying Extensions in order.
func ResolveLocal(fsys capability.FileSystem, basePath, ref string, fuzzyEnabled bool, maxCandidates int, threshold float64) (string, error) {
	var candidate string
	if filepath.IsAbs(ref) {
		candidate = ref
	} else {
		candidate = filepath.Join(basePath, ref)
	}
	if fsys.Exists(candidate) {
		return candidate, nil
	}
	if !fuzzyEnabled {
		return "", &NotFoundError{Path: ref}
	}

	dir := filepath.Dir(candidate)
	base := filepath.Base(candidate)
	siblings := listDir(fsys, dir)

	// Try exact-with-extension first (deterministic, no scoring needed).
	for _, ext := range Extensions {
		c := filepath.Join(dir, base+ext)
		if fsys.Exists(c) {
			return c, nil
		}
	}

	matches := RankMatches(base, siblings, threshold)
	if len(matches) == 0 {
		return "", &NotFoundError{Path: ref, Suggestions: topN(siblingNames(RankMatches(base, siblings, 0)), maxCandidates)}
	}
	if len(matches) > 1 && matches[0].Score == matches[1].Score {
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			if m.Score == matches[0].Score {
				names = append(names, m.Name)
			}
		}
		return "", &AmbiguousMatchError{Query: base, Candidates: names}
	}
	return filepath.Join(dir, matches[0].Name), nil
}

// Match is one ranked fuzzy candidate.
type Match struct {
	Name  string
	Score int
}

// RankMatches scores candidates against query using case-insensitive,
// normalized fuzzy matching (spec §4.3 step 1 / SPEC_FULL.md
// supplemented feature #5), returning only candidates at or above
// threshold (0..1, where 1 means the two are equal ignoring case),
// sorted by descending score and then by original candidate order for
// deterministic tie-breaking.
func RankMatches(query string, candidates []string, threshold float64) []Match {
	type scored struct {
		name  string
		score int
		order int
	}
	var out []scored
	for i, c := range candidates {
		if !fuzzy.MatchFold(query, c) {
			continue
		}
		score := fuzzy.RankMatchFold(query, c)
		if score < 0 {
			continue
		}
		// fuzzy.RankMatchFold returns Levenshtein-ish distance (lower is
		// better); convert to a 0..1 similarity so threshold reads
		// naturally, matching spec's "similarity >= threshold" framing.
		maxLen := len(query)
		if len(c) > maxLen {
			maxLen = len(c)
		}
		similarity := 1.0
		if maxLen > 0 {
			similarity = 1.0 - float64(score)/float64(maxLen)
		}
		if similarity < threshold {
			continue
		}
		out = append(out, scored{name: c, score: int(similarity * 1000), order: i})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].order < out[j].order
	})
	matches := make([]Match, len(out))
	for i, s := range out {
		matches[i] = Match{Name: s.name, Score: s.score}
	}
	return matches
}

func siblingNames(matches []Match) []string {
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Name
	}
	return names
}

func topN(names []string, n int) []string {
	if n <= 0 || n > len(names) {
		n = len(names)
		if n > 3 {
			n = 3
		}
	}
	if n > len(names) {
		n = len(names)
	}
	return names[:n]
}

func listDir(fsys capability.FileSystem, dir string) []string {
	// Listing goes through an optional ReadDirNames method, keeping
	// capability.FileSystem minimal; hosts without it return nil and
	// fuzzy matching degrades to "no candidates".
	type lister interface {
		ReadDirNames(string) ([]string, error)
	}
	if l, ok := fsys.(lister); ok {
		names, err := l.ReadDirNames(dir)
		if err == nil {
			return names
		}
	}
	return nil
}

// ExpandPrefix expands a configured `@<name>/...` prefix to a base path
// (spec §4.3 expand_prefix). `@.` and `@<projectAlias>` map to
// projectRoot, and `@<projectAlias>/rest` to rest under projectRoot.
func ExpandPrefix(ref string, prefixes map[string]string, projectAlias, projectRoot string) (string, bool) {
	if ref == "@." || ref == "@"+projectAlias {
		return projectRoot, true
	}
	if projectAlias != "" && strings.HasPrefix(ref, "@"+projectAlias+"/") {
		return filepath.Join(projectRoot, strings.TrimPrefix(ref, "@"+projectAlias+"/")), true
	}
	for prefix, base := range prefixes {
		if strings.HasPrefix(ref, prefix) {
			rest := strings.TrimPrefix(ref, prefix)
			return filepath.Join(base, rest), true
		}
	}
	return "", false
}
