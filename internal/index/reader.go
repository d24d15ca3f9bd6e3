package index

import (
	"context"
	"fmt"

	"github.com/jcdickinson/cratemap/internal/cache"
	"github.com/jcdickinson/cratemap/internal/cas"
	"github.com/jcdickinson/cratemap/internal/db"
	"github.com/jcdickinson/cratemap/internal/render"
	"github.com/jcdickinson/cratemap/internal/rustdoc"
	"github.com/jcdickinson/cratemap/internal/xref"
)

// Reader serves stored item pages back out of the index.
type Reader struct {
	db     *db.DB
	store  *cas.Store
	loader *cache.Loader
}

func NewReader(database *db.DB, store *cas.Store, loader *cache.Loader) *Reader {
	return &Reader{db: database, store: store, loader: loader}
}

// ReadDoc resolves an item page or fragment, following at most one
// re-export hop into the defining crate. Version "latest" or "" picks the
// most recently indexed version.
func (r *Reader) ReadDoc(ctx context.Context, crateName, version, path, fragment string) (string, error) {
	return r.readDoc(ctx, crateName, version, path, fragment, 0)
}

func (r *Reader) readDoc(ctx context.Context, crateName, version, path, fragment string, hops int) (string, error) {
	row, err := r.lookupCrate(crateName, version)
	if err != nil {
		return "", err
	}

	item, err := r.db.GetItemByPath(row.ID, path)
	if err != nil {
		return "", err
	}
	if item == nil {
		srcCrate, srcPath, found := r.db.ResolveReexport(row.ID, path)
		if found && hops == 0 {
			return r.readDoc(ctx, srcCrate, "latest", srcPath, fragment, hops+1)
		}
		return "", fmt.Errorf("no item %s in %s@%s", path, row.Name, row.Version)
	}

	if fragment == "" {
		data, err := r.store.Get(item.ContentHash)
		if err != nil {
			return "", fmt.Errorf("reading document: %w", err)
		}
		return string(data), nil
	}
	return r.renderFragment(ctx, row, item, fragment)
}

func (r *Reader) lookupCrate(name, version string) (*db.Crate, error) {
	var row *db.Crate
	var err error
	if version == "" || version == "latest" {
		row, err = r.db.GetLatestCrate(name)
	} else {
		row, err = r.db.GetCrate(name, version)
	}
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("crate %s@%s is not indexed", name, version)
	}
	return row, nil
}

// renderFragment regenerates a sub-document from the cached rustdoc JSON.
// Fragments are not stored; they are cheap to derive and change with the
// renderer.
func (r *Reader) renderFragment(ctx context.Context, row *db.Crate, item *db.Item, fragment string) (string, error) {
	crate, err := r.loader.Load(ctx, row.Name, row.Version)
	if err != nil {
		return "", fmt.Errorf("loading %s@%s: %w", row.Name, row.Version, err)
	}

	res := xref.NewResolver(crate)
	full, ok := res.Item(rustdoc.Id(item.RustdocID))
	if !ok {
		// Numeric ids are not stable across rustdoc builds; a refreshed
		// "latest" document may have moved the item. Fall back to its path.
		if id, found := res.FindByPath(item.Path); found {
			full, ok = res.Item(id)
		}
	}
	if !ok {
		return "", fmt.Errorf("item %s missing from document", item.Path)
	}

	linked := render.New(render.Options{
		HideSynthetic: true,
		Link: func(id rustdoc.Id) string {
			return res.ItemURI(id, row.Name, row.Version)
		},
	})
	for _, f := range linked.Fragments(full, res) {
		if f.Name == fragment {
			return f.Content, nil
		}
	}
	return "", fmt.Errorf("item %s has no %q fragment", item.Path, fragment)
}
