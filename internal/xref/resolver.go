// Package xref provides read-only graph traversal over a decoded rustdoc
// document: id resolution, canonical paths, module walking, re-export
// collection, and intra-doc link resolution.
package xref

import (
	"regexp"
	"strings"

	"github.com/jcdickinson/cratemap/internal/rustdoc"
)

// Resolver answers id lookups against one document. Lookups try Index
// first, then fall back to Paths for items outside the local crate.
type Resolver struct {
	crate *rustdoc.Crate
}

func NewResolver(crate *rustdoc.Crate) *Resolver {
	return &Resolver{crate: crate}
}

// Item returns the fully described item for an id, when the document
// carries one.
func (r *Resolver) Item(id rustdoc.Id) (*rustdoc.Item, bool) {
	item, ok := r.crate.Index[id]
	if !ok {
		return nil, false
	}
	return &item, true
}

// Summary returns the path summary for an id, from Paths.
func (r *Resolver) Summary(id rustdoc.Id) (rustdoc.ItemSummary, bool) {
	summary, ok := r.crate.Paths[id]
	return summary, ok
}

// Known reports whether the id resolves at all. An unknown id on a
// non-nullable field means the document failed validation; callers seeing
// one should treat the document as corrupt rather than skip the item.
func (r *Resolver) Known(id rustdoc.Id) bool {
	if _, ok := r.crate.Index[id]; ok {
		return true
	}
	_, ok := r.crate.Paths[id]
	return ok
}

// Path returns the canonical "a::b::C" path for an id, or "" when only the
// index entry (with no summary) or nothing is available.
func (r *Resolver) Path(id rustdoc.Id) string {
	summary, ok := r.crate.Paths[id]
	if !ok || len(summary.Path) == 0 {
		return ""
	}
	return strings.Join(summary.Path, "::")
}

// Name returns a display name for an id: the item's own name, else the
// last canonical path segment.
func (r *Resolver) Name(id rustdoc.Id) string {
	if item, ok := r.crate.Index[id]; ok && item.Name != nil {
		return *item.Name
	}
	if summary, ok := r.crate.Paths[id]; ok && len(summary.Path) > 0 {
		return summary.Path[len(summary.Path)-1]
	}
	return ""
}

// docsRsCrateNameRe extracts the crate name from a docs.rs html_root_url.
// Example: "https://docs.rs/tracing-core/0.1.36/x86_64-unknown-linux-gnu/" → "tracing-core"
var docsRsCrateNameRe = regexp.MustCompile(`^https?://docs\.rs/([^/]+)/`)

// CrateName returns the package name for a document-local crate id.
// Prefers the name embedded in html_root_url, since the Name field uses the
// lib name (underscores) which may differ from the package name (hyphens).
func (r *Resolver) CrateName(crateID int) string {
	ext, ok := r.crate.ExternalCrates[crateID]
	if !ok {
		return ""
	}
	if ext.HTMLRootURL != nil {
		if m := docsRsCrateNameRe.FindStringSubmatch(*ext.HTMLRootURL); len(m) == 2 {
			return m[1]
		}
	}
	return ext.Name
}
