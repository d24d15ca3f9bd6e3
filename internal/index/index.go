// Package index turns decoded rustdoc documents into the persisted view:
// one markdown document per item in content-addressable storage, item rows
// and re-export mappings in the database.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jcdickinson/cratemap/internal/cache"
	"github.com/jcdickinson/cratemap/internal/cas"
	"github.com/jcdickinson/cratemap/internal/db"
	"github.com/jcdickinson/cratemap/internal/markdown"
	"github.com/jcdickinson/cratemap/internal/render"
	"github.com/jcdickinson/cratemap/internal/rustdoc"
	"github.com/jcdickinson/cratemap/internal/xref"
)

type Indexer struct {
	db     *db.DB
	store  *cas.Store
	loader *cache.Loader
	log    *slog.Logger
}

func New(database *db.DB, store *cas.Store, loader *cache.Loader, log *slog.Logger) *Indexer {
	if log == nil {
		log = slog.Default()
	}
	return &Indexer{db: database, store: store, loader: loader, log: log}
}

// Result summarizes one indexing run.
type Result struct {
	Crate     *db.Crate
	Items     int
	Reexports int
}

// Index fetches, decodes, and persists one crate version. Indexing an
// already indexed crate version returns its existing row without touching
// the item table.
func (ix *Indexer) Index(ctx context.Context, name, version string) (*Result, error) {
	crate, err := ix.loader.Load(ctx, name, version)
	if err != nil {
		return nil, fmt.Errorf("loading %s@%s: %w", name, version, err)
	}

	// docs.rs resolves "latest"; prefer the version the document reports.
	resolved := version
	if crate.CrateVersion != nil && *crate.CrateVersion != "" {
		resolved = *crate.CrateVersion
	}

	row, err := ix.db.UpsertCrate(name, resolved, crate.FormatVersion)
	if err != nil {
		return nil, err
	}
	if err := ix.db.MarkCrateFetched(row.ID); err != nil {
		return nil, err
	}

	if row.IndexedAt != nil {
		count, err := ix.db.CountItems(row.ID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			ix.log.Debug("crate already indexed", "crate", name, "version", resolved, "items", count)
			return &Result{Crate: row, Items: count}, nil
		}
	}

	if err := ix.db.DeleteItemsByCrate(row.ID); err != nil {
		return nil, err
	}
	if err := ix.db.DeleteReexportsByCrate(row.ID); err != nil {
		return nil, err
	}

	res := xref.NewResolver(crate)
	linked := render.New(render.Options{
		HideSynthetic: true,
		Link: func(id rustdoc.Id) string {
			return res.ItemURI(id, name, resolved)
		},
	})

	items := 0
	for id, item := range crate.Index {
		if item.CrateID != 0 {
			continue
		}
		item := item
		stored, err := ix.indexItem(row.ID, id, &item, res, linked, name, resolved)
		if err != nil {
			return nil, fmt.Errorf("indexing %s: %w", id, err)
		}
		if stored {
			items++
		}
	}

	reexports := res.CollectReexports(name)
	for _, re := range reexports {
		if err := ix.db.InsertReexport(row.ID, re.LocalPrefix, re.SourceCrate, re.SourcePrefix); err != nil {
			return nil, fmt.Errorf("storing re-export %s: %w", re.LocalPrefix, err)
		}
	}

	if err := ix.db.MarkCrateIndexed(row.ID); err != nil {
		return nil, err
	}

	ix.log.Info("indexed crate",
		"crate", name, "version", resolved,
		"items", items, "reexports", len(reexports))

	return &Result{Crate: row, Items: items, Reexports: len(reexports)}, nil
}

// indexItem renders and stores one item. Items that have no name, along
// with impl blocks, carry no standalone page and are skipped.
func (ix *Indexer) indexItem(crateID int, id rustdoc.Id, item *rustdoc.Item, res *xref.Resolver, linked *render.Renderer, crateName, version string) (bool, error) {
	if item.Name == nil {
		return false, nil
	}
	kind := item.Kind()
	if kind == rustdoc.KindImpl {
		return false, nil
	}

	path := res.Path(id)
	if path == "" {
		path = *item.Name
	}
	if summary, ok := res.Summary(id); ok {
		kind = summary.Kind
	}

	var docs string
	if item.Docs != nil {
		docs = *item.Docs
	}

	links := res.DocLinks(item, crateName, version)
	prose := markdown.ResolveIntraDocLinks(docs, links)
	prose = markdown.RewriteDestinations(prose, xref.DocsRsURLs(docs))

	signature := render.Plain.ItemDecl(item)
	fragments := linked.Fragments(item, res)

	doc := composeDocument(path, signature, prose, fragments, res.ItemURI(id, crateName, version))
	hash, err := ix.store.Put([]byte(doc))
	if err != nil {
		return false, err
	}

	fragNames := make([]string, len(fragments))
	for i, f := range fragments {
		fragNames[i] = f.Name
	}

	row := &db.Item{
		CrateID:     crateID,
		RustdocID:   string(id),
		Name:        *item.Name,
		Path:        path,
		Kind:        string(kind),
		Summary:     markdown.FirstParagraph(docs),
		Signature:   signature,
		ContentHash: hash,
	}
	if len(links) > 0 {
		encoded, err := json.Marshal(links)
		if err != nil {
			return false, fmt.Errorf("encoding doc links: %w", err)
		}
		row.DocLinks = string(encoded)
	}
	if len(fragNames) > 0 {
		encoded, err := json.Marshal(fragNames)
		if err != nil {
			return false, fmt.Errorf("encoding fragment names: %w", err)
		}
		row.FragmentNames = string(encoded)
	}

	if err := ix.db.InsertItem(row); err != nil {
		return false, err
	}
	return true, nil
}

// composeDocument builds the stored markdown page: front matter naming the
// fragment sub-documents, a heading, the declaration, then the prose.
func composeDocument(path, signature, prose string, fragments []render.Fragment, uri string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", path)
	if signature != "" {
		fmt.Fprintf(&b, "```rust\n%s\n```\n\n", signature)
	}
	if prose != "" {
		b.WriteString(prose)
		b.WriteString("\n")
	}

	if len(fragments) == 0 || uri == "" {
		return b.String()
	}
	fragMap := make(map[string]string, len(fragments))
	for _, f := range fragments {
		fragMap[f.Name] = uri + "#" + f.Name
	}
	return markdown.AddFrontMatter(b.String(), fragMap)
}
