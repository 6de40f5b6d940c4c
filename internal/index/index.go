// Package index owns the embedding index artifact: the offline indexer
// produces it with Save, the server loads it read-only. The server never
// mutates the index; a rebuild means loading a fresh artifact.
package index

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Entry is one indexed document: identity, display metadata, the stored text
// excerpt and the embedding vector.
type Entry struct {
	ID           string     `json:"id,omitempty"`
	Name         string     `json:"name"`
	MimeType     string     `json:"mimeType,omitempty"`
	CreatedTime  *time.Time `json:"createdTime,omitempty"`
	ModifiedTime *time.Time `json:"modifiedTime,omitempty"`
	Link         string     `json:"webViewLink,omitempty"`
	Size         *int64     `json:"size,omitempty"`
	Text         string     `json:"text,omitempty"`
	Vector       []float32  `json:"embedding"`
}

// Index is an immutable in-memory collection of entries with a single vector
// dimensionality. Safe for unbounded concurrent readers.
type Index struct {
	entries  []Entry
	dims     int
	loadedAt time.Time
}

// Load reads and validates the artifact at path. Every entry must carry a
// name and a vector, and all vectors must share one dimensionality. Entries
// without an id get a deterministic one derived from the name, so reloads
// keep ids stable.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open artifact: %w", domain.ErrIndexLoad, err)
	}
	defer f.Close()

	var entries []Entry
	if err := json.NewDecoder(f).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: decode artifact %s: %w", domain.ErrIndexLoad, path, err)
	}

	dims := 0
	for i := range entries {
		e := &entries[i]
		if e.Name == "" {
			return nil, fmt.Errorf("%w: entry %d has no name", domain.ErrIndexLoad, i)
		}
		if len(e.Vector) == 0 {
			return nil, fmt.Errorf("%w: entry %d (%s) has no vector", domain.ErrIndexLoad, i, e.Name)
		}
		if dims == 0 {
			dims = len(e.Vector)
		} else if len(e.Vector) != dims {
			return nil, fmt.Errorf("%w: entry %d (%s) has %d dimensions, index has %d",
				domain.ErrIndexLoad, i, e.Name, len(e.Vector), dims)
		}
		if e.ID == "" {
			e.ID = DeriveID(e.Name)
		}
	}

	return &Index{entries: entries, dims: dims, loadedAt: time.Now()}, nil
}

// Save writes entries as the artifact at path, atomically: the bytes land in
// a temp file first and replace the artifact with a rename, so a crashed
// build never leaves a truncated file for the server to read.
func Save(path string, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

const derivedIDPrefix = "idx-"

// DeriveID returns a stable identifier for entries the artifact stores
// without one.
func DeriveID(name string) string {
	sum := sha256.Sum256([]byte(name))
	return derivedIDPrefix + hex.EncodeToString(sum[:8])
}

// IsDerivedID reports whether id was synthesized by DeriveID rather than
// carried from the provider. Derived ids identify an artifact row, not a
// remote file, so cross-source matching must not treat them as conflicting.
func IsDerivedID(id string) bool {
	return strings.HasPrefix(id, derivedIDPrefix)
}

// All returns the loaded entries. Callers must treat the slice as read-only.
func (ix *Index) All() []Entry { return ix.entries }

// Len returns the number of entries.
func (ix *Index) Len() int { return len(ix.entries) }

// Dimensions returns the vector dimensionality, 0 for an empty index.
func (ix *Index) Dimensions() int { return ix.dims }

// LoadedAt returns when the artifact was read.
func (ix *Index) LoadedAt() time.Time { return ix.loadedAt }
