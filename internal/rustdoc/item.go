package rustdoc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Item is one declaration in the item graph: identity, metadata, and exactly
// one kind-tagged payload. On the wire the payload is adjacently tagged
// ("kind" names the family, "inner" carries its data); in Go the pairing is
// enforced by the ItemInner closed union, so an item whose payload disagrees
// with its kind cannot be constructed.
type Item struct {
	ID      Id
	CrateID int
	// Name is absent for unnamed items such as impl blocks.
	Name *string
	Span *Span
	Visibility Visibility
	// Docs is the item's markdown documentation, if any.
	Docs *string
	// Links resolves intra-doc link text appearing in Docs to item ids.
	Links map[string]Id
	// Attrs holds raw attribute strings, e.g. `#[inline]`.
	Attrs       []string
	Deprecation *Deprecation
	Inner       ItemInner
}

// Kind reports the wire discriminant of the item's payload.
func (i *Item) Kind() ItemKind {
	if i.Inner == nil {
		return ""
	}
	return i.Inner.itemKind()
}

// Span is a source location. Begin and End are zero-indexed
// [line, column] pairs.
type Span struct {
	Filename string `json:"filename"`
	Begin    [2]int `json:"begin"`
	End      [2]int `json:"end"`
}

// Deprecation is the content of a #[deprecated] attribute.
type Deprecation struct {
	Since *string `json:"since"`
	Note  *string `json:"note"`
}

// VisibilityKind tags the form of a Visibility.
type VisibilityKind string

const (
	VisibilityPublic  VisibilityKind = "public"
	VisibilityDefault VisibilityKind = "default"
	VisibilityCrate   VisibilityKind = "crate"
	// VisibilityRestricted is `pub(in path)`; Parent and Path name the
	// module the item is visible within.
	VisibilityRestricted VisibilityKind = "restricted"
)

// Visibility is either one of the fixed tags or a restriction naming a
// module. On the wire the fixed tags are bare strings ("public") and the
// restricted form is {"restricted": {"parent": ..., "path": ...}}.
type Visibility struct {
	Kind VisibilityKind
	// Parent and Path are set only when Kind is VisibilityRestricted.
	Parent Id
	Path   string
}

type restrictedJSON struct {
	Parent Id     `json:"parent"`
	Path   string `json:"path"`
}

func (v Visibility) MarshalJSON() ([]byte, error) {
	if v.Kind == VisibilityRestricted {
		return json.Marshal(map[string]restrictedJSON{
			"restricted": {Parent: v.Parent, Path: v.Path},
		})
	}
	return json.Marshal(string(v.Kind))
}

func (v *Visibility) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		switch VisibilityKind(tag) {
		case VisibilityPublic, VisibilityDefault, VisibilityCrate:
			*v = Visibility{Kind: VisibilityKind(tag)}
			return nil
		}
		return fmt.Errorf("unknown visibility %q", tag)
	}
	var outer struct {
		Restricted *restrictedJSON `json:"restricted"`
	}
	if err := json.Unmarshal(data, &outer); err != nil {
		return err
	}
	if outer.Restricted == nil {
		return fmt.Errorf("visibility object missing restricted form")
	}
	*v = Visibility{
		Kind:   VisibilityRestricted,
		Parent: outer.Restricted.Parent,
		Path:   outer.Restricted.Path,
	}
	return nil
}

// ItemInner is the closed union of item payloads. Every payload type pins
// its own kind, so the kind/payload pairing holds by construction. Unknown
// kinds from mid-version format growth decode as UnknownInner.
type ItemInner interface {
	itemKind() ItemKind
	itemInner()
}

// UnknownInner carries the raw payload of an item kind this package does
// not recognize. It keeps older consumers working across additive format
// growth within a supported version: the item is surfaced as unrecognized
// rather than dropped or failing the decode.
type UnknownInner struct {
	RawKind string
	Payload json.RawMessage
}

func (u *UnknownInner) itemKind() ItemKind { return ItemKind(u.RawKind) }
func (u *UnknownInner) itemInner()     {}

type itemJSON struct {
	ID          Id              `json:"id"`
	CrateID     int             `json:"crate_id"`
	Name        *string         `json:"name"`
	Span        *Span           `json:"span"`
	Visibility  Visibility      `json:"visibility"`
	Docs        *string         `json:"docs"`
	Links       map[string]Id   `json:"links"`
	Attrs       []string        `json:"attrs"`
	Deprecation *Deprecation    `json:"deprecation"`
	Kind        string          `json:"kind"`
	Inner       json.RawMessage `json:"inner,omitempty"`
}

func (i Item) MarshalJSON() ([]byte, error) {
	out := itemJSON{
		ID:          i.ID,
		CrateID:     i.CrateID,
		Name:        i.Name,
		Span:        i.Span,
		Visibility:  i.Visibility,
		Docs:        i.Docs,
		Links:       i.Links,
		Attrs:       i.Attrs,
		Deprecation: i.Deprecation,
	}
	if i.Inner == nil {
		return nil, fmt.Errorf("item %s has no payload", i.ID)
	}
	out.Kind = string(i.Inner.itemKind())
	inner, err := marshalItemInner(i.Inner)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", i.ID, err)
	}
	out.Inner = inner
	return json.Marshal(out)
}

func (i *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	inner, err := unmarshalItemInner(raw.Kind, raw.Inner)
	if err != nil {
		return fmt.Errorf("item %s: %w", raw.ID, err)
	}
	*i = Item{
		ID:          raw.ID,
		CrateID:     raw.CrateID,
		Name:        raw.Name,
		Span:        raw.Span,
		Visibility:  raw.Visibility,
		Docs:        raw.Docs,
		Links:       raw.Links,
		Attrs:       raw.Attrs,
		Deprecation: raw.Deprecation,
		Inner:       inner,
	}
	return nil
}

// isNull reports whether raw is absent or JSON null.
func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
