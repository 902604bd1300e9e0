package fetch

import (
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/meld-lang/meld/internal/capability"
)

// cacheEntry is the on-disk envelope for one immutable cache record.
// CBOR gives canonical, deterministic binary encoding (unlike JSON's
// key-order ambiguity), which matters because the entry's own bytes
// are never re-hashed — only Data is hashed — but determinism still
// keeps repeated writes of the same logical entry byte-identical,
// satisfying spec §8's determinism property for cache persistence.
type cacheEntry struct {
	URL       string    `cbor:"url"`
	SHA256    string    `cbor:"sha256"`
	Data      []byte    `cbor:"data"`
	FetchedAt time.Time `cbor:"fetched_at"`
}

// FileImmutableCache implements capability.ImmutableCache over a
// capability.FileSystem, one CBOR file per cache key under Dir
// (spec §4.4 "persist bytes into the immutable cache under a content
// hash"; spec §6.3 lock file records the URL->hash binding separately).
type FileImmutableCache struct {
	FS    capability.FileSystem
	Dir   string
	Clock capability.Clock
}

func (c *FileImmutableCache) pathFor(key string) string {
	return filepath.Join(c.Dir, Sha256Hex([]byte(key))+".cbor")
}

func (c *FileImmutableCache) Get(key string) ([]byte, bool) {
	path := c.pathFor(key)
	if !c.FS.Exists(path) {
		return nil, false
	}
	raw, err := c.FS.Read(path)
	if err != nil {
		return nil, false
	}
	var entry cacheEntry
	if err := cbor.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	return entry.Data, true
}

func (c *FileImmutableCache) Set(key string, data []byte) (string, error) {
	sum := Sha256Hex(data)
	now := time.Now()
	if c.Clock != nil {
		now = c.Clock.Now()
	}
	entry := cacheEntry{URL: key, SHA256: sum, Data: data, FetchedAt: now}
	encoded, err := cbor.Marshal(entry)
	if err != nil {
		return "", err
	}
	if err := c.FS.Mkdir(c.Dir, true); err != nil {
		return "", err
	}
	// Atomic write-temp + rename discipline (spec §5 "shared resources"):
	// the FileSystem capability's Write is assumed atomic for a single
	// path; a real host implementation satisfies this via write-temp
	// then os.Rename.
	if err := c.FS.Write(c.pathFor(key), encoded); err != nil {
		return "", err
	}
	return sum, nil
}
