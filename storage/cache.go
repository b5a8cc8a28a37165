package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotCached is returned when a detail document has not been fetched yet.
var ErrNotCached = errors.New("detail document not cached")

// DocumentCache is the local store for fetched detail documents, one file
// per catalog item id. Writes are whole-file; there is no read-modify-write
// beyond the caller's overwrite check.
type DocumentCache struct {
	dir string
}

// NewDocumentCache creates the cache directory if needed.
func NewDocumentCache(dir string) (*DocumentCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cache: create dir %q: %w", dir, err)
	}
	return &DocumentCache{dir: dir}, nil
}

func (c *DocumentCache) path(catalogItemID string) string {
	return filepath.Join(c.dir, catalogItemID+".xml")
}

// Exists reports whether a document is cached for the given item id.
func (c *DocumentCache) Exists(catalogItemID string) bool {
	_, err := os.Stat(c.path(catalogItemID))
	return err == nil
}

// Write persists a document under the given item id, replacing any
// previous copy.
func (c *DocumentCache) Write(catalogItemID string, data []byte) error {
	if err := os.WriteFile(c.path(catalogItemID), data, 0644); err != nil {
		return fmt.Errorf("cache: write %s: %w", catalogItemID, err)
	}
	return nil
}

// Read returns the cached document for the given item id, or ErrNotCached.
func (c *DocumentCache) Read(catalogItemID string) ([]byte, error) {
	data, err := os.ReadFile(c.path(catalogItemID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotCached
		}
		return nil, fmt.Errorf("cache: read %s: %w", catalogItemID, err)
	}
	return data, nil
}
