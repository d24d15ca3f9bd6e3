package xref

import "github.com/jcdickinson/cratemap/internal/rustdoc"

// TreeEntry is one item reached during a module-tree walk.
type TreeEntry struct {
	ID    rustdoc.Id
	Depth int
	Item  *rustdoc.Item
}

// WalkTree visits the crate's items depth-first from the root module, in
// declaration order, calling fn for each. Returning false stops the walk.
// Modules already visited are not descended into again, so import cycles
// terminate.
func (r *Resolver) WalkTree(fn func(TreeEntry) bool) {
	seen := map[rustdoc.Id]bool{}
	r.walk(r.crate.Root, 0, seen, fn)
}

func (r *Resolver) walk(id rustdoc.Id, depth int, seen map[rustdoc.Id]bool, fn func(TreeEntry) bool) bool {
	if seen[id] {
		return true
	}
	seen[id] = true

	item, ok := r.crate.Index[id]
	if !ok {
		return true
	}
	if !fn(TreeEntry{ID: id, Depth: depth, Item: &item}) {
		return false
	}

	children := childIDs(item.Inner)
	for _, child := range children {
		if !r.walk(child, depth+1, seen, fn) {
			return false
		}
	}
	return true
}

// childIDs returns the ids an item directly contains, in declaration
// order. Impl and trait back-references (a struct's impls, a trait's
// implementations) are deliberately excluded: they cross-link the graph
// rather than nest within it, and following them would visit every method
// once per impl listing.
func childIDs(inner rustdoc.ItemInner) []rustdoc.Id {
	switch inner := inner.(type) {
	case *rustdoc.Module:
		return inner.Items
	case *rustdoc.Struct:
		return inner.Fields
	case *rustdoc.Union:
		return inner.Fields
	case *rustdoc.Enum:
		return inner.Variants
	case *rustdoc.Variant:
		return inner.Fields
	case *rustdoc.Trait:
		return inner.Items
	case *rustdoc.Impl:
		return inner.Items
	}
	return nil
}

// FindByPath resolves a canonical "a::b::C" path to an id using the paths
// table. Returns false when no item has that path.
func (r *Resolver) FindByPath(path string) (rustdoc.Id, bool) {
	for id := range r.crate.Paths {
		if r.Path(id) == path {
			return id, true
		}
	}
	return "", false
}
