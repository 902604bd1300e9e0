// Package lockfile implements the persisted Lock File (spec.md §6.3):
// approved imports, pins, resolver prefixes, and command approvals,
// marshalled with gopkg.in/yaml.v3 exactly as the teacher's config-
// shaped structs are.
package lockfile

import (
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meld-lang/meld/internal/capability"
)

// Trust mirrors the three approval trust levels spec §6.3 enumerates.
type Trust string

const (
	TrustAlways  Trust = "always"
	TrustSession Trust = "session"
	TrustTTL     Trust = "ttl"
)

// ImportEntry is one `imports.<ref>` record (spec §6.3).
type ImportEntry struct {
	Resolved   string     `yaml:"resolved"`
	Integrity  string     `yaml:"integrity"` // "sha256:<hex>"
	ApprovedAt time.Time  `yaml:"approvedAt"`
	ApprovedBy string     `yaml:"approvedBy"`
	Trust      Trust      `yaml:"trust"`
	TTL        string     `yaml:"ttl,omitempty"`
	ExpiresAt  *time.Time `yaml:"expiresAt,omitempty"`
}

// ResolverPrefix is one `resolverPrefixes[]` record.
type ResolverPrefix struct {
	Prefix   string `yaml:"prefix"`
	Resolver string `yaml:"resolver"`
	BasePath string `yaml:"basePath"`
}

// CommandApproval is one `commandApprovals.<command>` record.
type CommandApproval struct {
	Trust Trust `yaml:"trust"`
}

// Security is the `security` block.
type Security struct {
	TrustedDomains []string `yaml:"trustedDomains"`
}

// LockFile is the full persisted document (spec §6.3).
type LockFile struct {
	Version          string                     `yaml:"version"`
	Imports          map[string]ImportEntry     `yaml:"imports"`
	ResolverPrefixes []ResolverPrefix           `yaml:"resolverPrefixes"`
	CommandApprovals map[string]CommandApproval `yaml:"commandApprovals"`
	Security         Security                   `yaml:"security"`
}

func New() *LockFile {
	return &LockFile{
		Version:          "1.0.0",
		Imports:          map[string]ImportEntry{},
		CommandApprovals: map[string]CommandApproval{},
	}
}

// Load reads and parses a lock file from fsys at path; a missing file
// is not an error — it yields a fresh, empty LockFile.
func Load(fsys capability.FileSystem, path string) (*LockFile, error) {
	if !fsys.Exists(path) {
		return New(), nil
	}
	data, err := fsys.Read(path)
	if err != nil {
		return nil, err
	}
	lf := New()
	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, err
	}
	if lf.Imports == nil {
		lf.Imports = map[string]ImportEntry{}
	}
	if lf.CommandApprovals == nil {
		lf.CommandApprovals = map[string]CommandApproval{}
	}
	return lf, nil
}

// Save persists the lock file via write-temp + rename discipline
// (spec §5 "All writes to the lock file and immutable cache must be
// atomic"); the capability.FileSystem's Write is assumed atomic for a
// single path, same contract as the immutable cache.
func (lf *LockFile) Save(fsys capability.FileSystem, path string) error {
	data, err := yaml.Marshal(lf)
	if err != nil {
		return err
	}
	return fsys.Write(path, data)
}

// GetImportPin returns the pinned content hash for url, if any
// (spec §6.1 get_import_pin).
func (lf *LockFile) GetImportPin(url string) (string, bool) {
	e, ok := lf.Imports[url]
	if !ok || e.Integrity == "" {
		return "", false
	}
	return e.Integrity, true
}

// AddImportPin records an approved import (spec §6.1 add_import_pin).
func (lf *LockFile) AddImportPin(url, resolved, sha256Hex, approvedBy string, trust Trust, approvedAt time.Time) {
	lf.Imports[url] = ImportEntry{
		Resolved:   resolved,
		Integrity:  "sha256:" + sha256Hex,
		ApprovedAt: approvedAt,
		ApprovedBy: approvedBy,
		Trust:      trust,
	}
}

// GetResolverPrefixes returns the configured resolver prefixes
// (spec §6.1 get_resolver_prefixes).
func (lf *LockFile) GetResolverPrefixes() []ResolverPrefix { return lf.ResolverPrefixes }

// CommandApproval returns the recorded trust level for command, if any.
func (lf *LockFile) CommandApproval(command string) (Trust, bool) {
	c, ok := lf.CommandApprovals[command]
	if !ok {
		return "", false
	}
	return c.Trust, true
}
