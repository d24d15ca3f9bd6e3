// Package rustdoc is a typed model of the rustdoc JSON format: the item
// graph a crate's documentation is exported as. The package covers decoding,
// lossless re-encoding, and consistency validation of whole documents.
//
// A document is decoded once into an immutable Crate value. All cross-item
// links are opaque Id tokens resolved through Crate.Index and Crate.Paths;
// no payload embeds another item.
package rustdoc

import (
	"encoding/json"
	"fmt"
)

// FormatVersion is the newest rustdoc JSON format version this package
// understands. Documents with a larger format_version are rejected before
// any other field is examined.
const FormatVersion = 9

// Id is an opaque token identifying one item. Ids are unique within a single
// document only; the same token means nothing in another document.
type Id string

// Crate is the root of a rustdoc JSON document. It is built once by Decode
// and never mutated afterwards, so a Crate may be shared across goroutines
// without synchronization.
type Crate struct {
	// Root is the id of the crate's root module.
	Root Id `json:"root"`
	// CrateVersion is the version from Cargo.toml, when known.
	CrateVersion *string `json:"crate_version"`
	// IncludesPrivate reports whether private items were exported too.
	IncludesPrivate bool `json:"includes_private"`
	// Index holds every item of the local crate, plus foreign items that
	// are directly referenced (e.g. implemented traits).
	Index map[Id]Item `json:"index"`
	// Paths maps ids to canonical-path summaries, including items whose
	// full data is not in Index.
	Paths map[Id]ItemSummary `json:"paths"`
	// ExternalCrates names dependency crates by their document-local
	// numeric id. The numeric ids are not stable across documents.
	ExternalCrates map[int]ExternalCrate `json:"external_crates"`
	// FormatVersion is the format the document was produced under.
	FormatVersion int `json:"format_version"`
}

// ExternalCrate identifies a dependency crate.
type ExternalCrate struct {
	Name        string  `json:"name"`
	HTMLRootURL *string `json:"html_root_url"`
}

// ItemSummary is a lightweight stand-in for an item that is not fully
// described in Index: enough to render a name and a link, nothing more.
type ItemSummary struct {
	CrateID int `json:"crate_id"`
	// Path is the canonical public path, one display segment per element
	// (e.g. ["std", "io", "Error"]). It may differ from the path a
	// reference site used when the item is re-exported.
	Path []string `json:"path"`
	Kind ItemKind `json:"kind"`
}

// ItemKind is the discriminant naming an item's payload family. The string
// values are part of the wire format.
type ItemKind string

const (
	KindModule      ItemKind = "module"
	KindExternCrate ItemKind = "extern_crate"
	KindImport      ItemKind = "import"
	KindStruct      ItemKind = "struct"
	KindStructField ItemKind = "struct_field"
	KindUnion       ItemKind = "union"
	KindEnum        ItemKind = "enum"
	KindVariant     ItemKind = "variant"
	KindFunction    ItemKind = "function"
	KindMethod      ItemKind = "method"
	KindTypedef     ItemKind = "typedef"
	KindOpaqueTy    ItemKind = "opaque_ty"
	KindConstant    ItemKind = "constant"
	KindStatic      ItemKind = "static"
	KindTrait       ItemKind = "trait"
	KindTraitAlias  ItemKind = "trait_alias"
	KindImpl        ItemKind = "impl"
	KindForeignType ItemKind = "foreign_type"
	KindMacro       ItemKind = "macro"
	KindProcMacro   ItemKind = "proc_macro"
	KindPrimitive   ItemKind = "primitive"
	KindAssocConst  ItemKind = "assoc_const"
	KindAssocType   ItemKind = "assoc_type"
	KindKeyword     ItemKind = "keyword"
)

// VersionError reports a document produced under a newer format than this
// package was built against.
type VersionError struct {
	Document  int
	Supported int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("rustdoc format version %d is newer than supported version %d", e.Document, e.Supported)
}

// Decode parses a complete rustdoc JSON document. The format version is
// checked first: a document newer than FormatVersion is rejected before any
// item is decoded, because newer formats may carry item kinds and type
// variants this package cannot represent faithfully.
//
// Decoding is all-or-nothing. A structural fault anywhere (a known kind
// whose payload has the wrong shape, unparseable JSON) fails the whole
// document; consumers are promised a consistent graph or nothing. Unknown
// item kinds and type kinds within a supported version decode into
// UnknownInner / UnknownType rather than failing.
func Decode(data []byte) (*Crate, error) {
	var version struct {
		FormatVersion *int `json:"format_version"`
	}
	if err := json.Unmarshal(data, &version); err != nil {
		return nil, fmt.Errorf("unmarshaling rustdoc JSON: %w", err)
	}
	if version.FormatVersion == nil {
		return nil, fmt.Errorf("rustdoc JSON document has no format_version")
	}
	if *version.FormatVersion > FormatVersion {
		return nil, &VersionError{Document: *version.FormatVersion, Supported: FormatVersion}
	}

	var crate Crate
	if err := json.Unmarshal(data, &crate); err != nil {
		return nil, fmt.Errorf("unmarshaling rustdoc JSON: %w", err)
	}
	return &crate, nil
}

// Encode serializes a crate back to JSON. Encoding is deterministic: map
// keys are emitted in sorted order, so encoding the same value twice yields
// identical bytes.
func Encode(crate *Crate) ([]byte, error) {
	data, err := json.Marshal(crate)
	if err != nil {
		return nil, fmt.Errorf("marshaling rustdoc JSON: %w", err)
	}
	return data, nil
}

// ExternalCrateName looks up the package name for a dependency by its
// document-local crate id. Returns "" when the id is unknown.
func (c *Crate) ExternalCrateName(crateID int) string {
	ext, ok := c.ExternalCrates[crateID]
	if !ok {
		return ""
	}
	return ext.Name
}
