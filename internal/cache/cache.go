// Package cache persists fetched rustdoc JSON on disk and hands out
// decoded documents through a deduplicating loader.
package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jcdickinson/cratemap/internal/config"
	"github.com/klauspost/compress/zstd"
)

// Cache stores raw rustdoc JSON documents zstd-compressed on disk, keyed
// by crate name and version.
type Cache struct {
	dir string
}

// Open returns a cache rooted at dir. The directory is created lazily on
// first save.
func Open(dir string) *Cache {
	return &Cache{dir: dir}
}

// Default returns the cache at the configured cache location.
func Default() *Cache {
	return Open(config.JSONCacheDir())
}

func (c *Cache) path(name, version string) string {
	return filepath.Join(c.dir, name+"_"+version+".json.zst")
}

// Save compresses and writes a document's raw bytes.
func (c *Cache) Save(data []byte, name, version string) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating json cache dir: %w", err)
	}

	f, err := os.Create(c.path(name, version))
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing compressed data: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}

// Load reads a document's raw bytes back, decompressed.
func (c *Cache) Load(name, version string) ([]byte, error) {
	f, err := os.Open(c.path(name, version))
	if err != nil {
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing cached JSON: %w", err)
	}
	return data, nil
}

// Has reports whether a document is cached.
func (c *Cache) Has(name, version string) bool {
	_, err := os.Stat(c.path(name, version))
	return err == nil
}

// Remove deletes a cached document. Removing a document that is not
// cached is not an error.
func (c *Cache) Remove(name, version string) error {
	err := os.Remove(c.path(name, version))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache file: %w", err)
	}
	return nil
}
