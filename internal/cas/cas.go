// Package cas stores rendered documents in content-addressable storage:
// zstd-compressed files named by the SHA-256 of their contents. Identical
// documents rendered from different crate versions share one blob.
package cas

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jcdickinson/cratemap/internal/config"
	"github.com/klauspost/compress/zstd"
)

// Store is a content-addressable blob store rooted at a directory.
type Store struct {
	root string
}

// Open returns a store rooted at dir. The directory is created lazily on
// first write.
func Open(dir string) *Store {
	return &Store{root: dir}
}

// Default returns the store at the configured cache location.
func Default() *Store {
	return Open(config.CASDir())
}

// path returns the sharded file path for a hash: <root>/<first2>/<rest>.md.zst
func (s *Store) path(hash string) string {
	return filepath.Join(s.root, hash[:2], hash[2:]+".md.zst")
}

// Put stores content, returning its SHA-256 hash. Content already present
// is not rewritten.
func (s *Store) Put(content []byte) (string, error) {
	hash := fmt.Sprintf("%x", sha256.Sum256(content))

	p := s.path(hash)
	if _, err := os.Stat(p); err == nil {
		return hash, nil
	}

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("creating CAS directory: %w", err)
	}

	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return "", fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return "", fmt.Errorf("compressing CAS content: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing zstd writer: %w", err)
	}

	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing CAS file: %w", err)
	}

	return hash, nil
}

// Get retrieves content by hash.
func (s *Store) Get(hash string) ([]byte, error) {
	if len(hash) < 3 {
		return nil, fmt.Errorf("malformed CAS hash %q", hash)
	}

	f, err := os.Open(s.path(hash))
	if err != nil {
		return nil, fmt.Errorf("reading CAS file %s: %w", hash, err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing CAS file %s: %w", hash, err)
	}
	return data, nil
}

// Has reports whether a blob with the given hash is stored.
func (s *Store) Has(hash string) bool {
	if len(hash) < 3 {
		return false
	}
	_, err := os.Stat(s.path(hash))
	return err == nil
}
