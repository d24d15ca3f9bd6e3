package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/jcdickinson/cratemap/internal/rustdoc"
)

// Fetcher downloads a crate's raw rustdoc JSON.
type Fetcher interface {
	RustdocJSON(ctx context.Context, name, version string) ([]byte, error)
}

// Loader produces decoded documents, hitting the disk cache first and the
// fetcher on a miss. Concurrent loads of the same crate@version collapse
// into one fetch.
type Loader struct {
	cache    *Cache
	fetcher  Fetcher
	validate bool

	group singleflight.Group
}

// NewLoader builds a loader. When validate is set, freshly fetched
// documents are checked for reference closure before they are cached;
// documents that fail never enter the cache.
func NewLoader(cache *Cache, fetcher Fetcher, validate bool) *Loader {
	return &Loader{cache: cache, fetcher: fetcher, validate: validate}
}

// Load returns the decoded document for a crate, fetching and caching it
// when needed. An empty version means "latest".
func (l *Loader) Load(ctx context.Context, name, version string) (*rustdoc.Crate, error) {
	if version == "" {
		version = "latest"
	}
	key := name + "@" + version
	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		return l.load(ctx, name, version)
	})
	if err != nil {
		return nil, err
	}
	return v.(*rustdoc.Crate), nil
}

func (l *Loader) load(ctx context.Context, name, version string) (*rustdoc.Crate, error) {
	if l.cache.Has(name, version) {
		data, err := l.cache.Load(name, version)
		if err != nil {
			return nil, err
		}
		crate, err := rustdoc.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("cached document for %s@%s: %w", name, version, err)
		}
		return crate, nil
	}

	data, err := l.fetcher.RustdocJSON(ctx, name, version)
	if err != nil {
		return nil, err
	}

	crate, err := rustdoc.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("document for %s@%s: %w", name, version, err)
	}

	if l.validate {
		if err := rustdoc.Validate(crate); err != nil {
			return nil, fmt.Errorf("document for %s@%s: %w", name, version, err)
		}
	}

	if err := l.cache.Save(data, name, version); err != nil {
		return nil, err
	}
	return crate, nil
}
