package rustdoc

import "fmt"

// ValidationError is a consistency fault found in a decoded document: an Id
// reference with no matching entry in Index or Paths. It carries enough
// context to locate the fault.
type ValidationError struct {
	// Item is the item the reference was found on; empty for
	// document-level references such as root.
	Item Id
	// Field names the reference site, e.g. "items" or "impl.for".
	Field string
	// Ref is the dangling id.
	Ref Id
}

func (e *ValidationError) Error() string {
	if e.Item == "" {
		return fmt.Sprintf("dangling reference %q in document %s", e.Ref, e.Field)
	}
	return fmt.Sprintf("dangling reference %q in %s of item %q", e.Ref, e.Field, e.Item)
}

// Validate checks the reference closure of a decoded document: every
// non-nullable Id appearing in any indexed item must resolve through Index
// or Paths. The first fault found is returned immediately — a dangling
// reference means the document is corrupt, and downstream traversal assumes
// a consistent whole-graph view.
//
// Import targets are exempt: a null or unresolvable import id is a defined
// "unresolvable" state (glob imports over unenumerable sets, stripped
// targets), not a fault.
func Validate(c *Crate) error {
	v := &validator{crate: c}

	if _, ok := c.Index[c.Root]; !ok {
		return &ValidationError{Field: "root", Ref: c.Root}
	}

	for id, item := range c.Index {
		if item.Inner == nil {
			return fmt.Errorf("item %q has no payload", id)
		}
		if err := v.item(&item); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	crate *Crate
}

// resolves reports whether an id has an entry in Index or Paths.
func (v *validator) resolves(id Id) bool {
	if _, ok := v.crate.Index[id]; ok {
		return true
	}
	_, ok := v.crate.Paths[id]
	return ok
}

func (v *validator) ref(owner Id, field string, id Id) error {
	if !v.resolves(id) {
		return &ValidationError{Item: owner, Field: field, Ref: id}
	}
	return nil
}

func (v *validator) refs(owner Id, field string, ids []Id) error {
	for _, id := range ids {
		if err := v.ref(owner, field, id); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) item(item *Item) error {
	owner := item.ID

	for _, target := range item.Links {
		if err := v.ref(owner, "links", target); err != nil {
			return err
		}
	}
	if item.Visibility.Kind == VisibilityRestricted {
		if err := v.ref(owner, "visibility.restricted.parent", item.Visibility.Parent); err != nil {
			return err
		}
	}

	switch inner := item.Inner.(type) {
	case *Module:
		return v.refs(owner, "items", inner.Items)
	case *Import:
		// Import.id is the documented possibly-absent case: null for
		// unenumerable globs, and stripped targets may dangle.
		return nil
	case *Struct:
		if err := v.generics(owner, &inner.Generics); err != nil {
			return err
		}
		if err := v.refs(owner, "fields", inner.Fields); err != nil {
			return err
		}
		return v.refs(owner, "impls", inner.Impls)
	case *Union:
		if err := v.generics(owner, &inner.Generics); err != nil {
			return err
		}
		if err := v.refs(owner, "fields", inner.Fields); err != nil {
			return err
		}
		return v.refs(owner, "impls", inner.Impls)
	case *StructField:
		return v.typ(owner, "struct_field", inner.Type)
	case *Enum:
		if err := v.generics(owner, &inner.Generics); err != nil {
			return err
		}
		if err := v.refs(owner, "variants", inner.Variants); err != nil {
			return err
		}
		return v.refs(owner, "impls", inner.Impls)
	case *Variant:
		for _, t := range inner.Tuple {
			if err := v.typ(owner, "variant_inner", t); err != nil {
				return err
			}
		}
		return v.refs(owner, "variant_inner", inner.Fields)
	case *Function:
		if err := v.generics(owner, &inner.Generics); err != nil {
			return err
		}
		return v.decl(owner, &inner.Decl)
	case *Method:
		if err := v.generics(owner, &inner.Generics); err != nil {
			return err
		}
		return v.decl(owner, &inner.Decl)
	case *Trait:
		if err := v.generics(owner, &inner.Generics); err != nil {
			return err
		}
		if err := v.refs(owner, "items", inner.Items); err != nil {
			return err
		}
		if err := v.bounds(owner, "bounds", inner.Bounds); err != nil {
			return err
		}
		return v.refs(owner, "implementations", inner.Implementations)
	case *TraitAlias:
		if err := v.generics(owner, &inner.Generics); err != nil {
			return err
		}
		return v.bounds(owner, "params", inner.Params)
	case *Impl:
		if err := v.generics(owner, &inner.Generics); err != nil {
			return err
		}
		if inner.Trait != nil {
			if err := v.typ(owner, "impl.trait", inner.Trait); err != nil {
				return err
			}
		}
		if err := v.typ(owner, "impl.for", inner.For); err != nil {
			return err
		}
		if inner.BlanketImpl != nil {
			if err := v.typ(owner, "impl.blanket_impl", inner.BlanketImpl); err != nil {
				return err
			}
		}
		return v.refs(owner, "items", inner.Items)
	case *Typedef:
		if err := v.generics(owner, &inner.Generics); err != nil {
			return err
		}
		return v.typ(owner, "type", inner.Type)
	case *OpaqueTy:
		if err := v.generics(owner, &inner.Generics); err != nil {
			return err
		}
		return v.bounds(owner, "bounds", inner.Bounds)
	case *Constant:
		return v.typ(owner, "type", inner.Type)
	case *Static:
		return v.typ(owner, "type", inner.Type)
	case *AssocConst:
		return v.typ(owner, "type", inner.Type)
	case *AssocType:
		if err := v.bounds(owner, "bounds", inner.Bounds); err != nil {
			return err
		}
		if inner.Default != nil {
			return v.typ(owner, "default", inner.Default)
		}
		return nil
	}
	// ExternCrate, ForeignType, Macro, ProcMacro, PrimitiveType and
	// unknown payloads carry no checkable references.
	return nil
}

func (v *validator) typ(owner Id, field string, t Type) error {
	switch t := t.(type) {
	case *ResolvedPath:
		if err := v.ref(owner, field, t.ID); err != nil {
			return err
		}
		if err := v.args(owner, field, t.Args); err != nil {
			return err
		}
		return v.bounds(owner, field, t.ParamNames)
	case *FunctionPointer:
		if err := v.params(owner, field, t.GenericParams); err != nil {
			return err
		}
		return v.decl(owner, &t.Decl)
	case Tuple:
		for _, elem := range t {
			if err := v.typ(owner, field, elem); err != nil {
				return err
			}
		}
		return nil
	case *Slice:
		return v.typ(owner, field, t.Elem)
	case *Array:
		return v.typ(owner, field, t.Elem)
	case ImplTrait:
		return v.bounds(owner, field, t)
	case *RawPointer:
		return v.typ(owner, field, t.Pointee)
	case *BorrowedRef:
		return v.typ(owner, field, t.Referent)
	case *QualifiedPath:
		if err := v.typ(owner, field+".self_type", t.SelfType); err != nil {
			return err
		}
		return v.typ(owner, field+".trait", t.Trait)
	}
	// Generic, Primitive, Infer, UnknownType.
	return nil
}

func (v *validator) decl(owner Id, d *FnDecl) error {
	for _, in := range d.Inputs {
		if err := v.typ(owner, "decl.inputs", in.Type); err != nil {
			return err
		}
	}
	if d.Output != nil {
		return v.typ(owner, "decl.output", d.Output)
	}
	return nil
}

func (v *validator) generics(owner Id, g *Generics) error {
	if err := v.params(owner, "generics.params", g.Params); err != nil {
		return err
	}
	for _, pred := range g.WherePredicates {
		switch {
		case pred.BoundPredicate != nil:
			if err := v.typ(owner, "where.type", pred.BoundPredicate.Type); err != nil {
				return err
			}
			if err := v.bounds(owner, "where.bounds", pred.BoundPredicate.Bounds); err != nil {
				return err
			}
		case pred.RegionPredicate != nil:
			if err := v.bounds(owner, "where.bounds", pred.RegionPredicate.Bounds); err != nil {
				return err
			}
		case pred.EqPredicate != nil:
			if err := v.typ(owner, "where.lhs", pred.EqPredicate.Lhs); err != nil {
				return err
			}
			if err := v.term(owner, "where.rhs", &pred.EqPredicate.Rhs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *validator) params(owner Id, field string, params []GenericParamDef) error {
	for _, p := range params {
		switch {
		case p.Kind.Type != nil:
			if err := v.bounds(owner, field, p.Kind.Type.Bounds); err != nil {
				return err
			}
			if p.Kind.Type.Default != nil {
				if err := v.typ(owner, field, p.Kind.Type.Default); err != nil {
					return err
				}
			}
		case p.Kind.Const != nil:
			if err := v.typ(owner, field, p.Kind.Const.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *validator) bounds(owner Id, field string, bounds []GenericBound) error {
	for _, b := range bounds {
		if b.TraitBound == nil {
			continue
		}
		if err := v.typ(owner, field, b.TraitBound.Trait); err != nil {
			return err
		}
		if err := v.params(owner, field, b.TraitBound.GenericParams); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) args(owner Id, field string, a *GenericArgs) error {
	if a == nil {
		return nil
	}
	switch {
	case a.AngleBracketed != nil:
		for _, arg := range a.AngleBracketed.Args {
			switch {
			case arg.Type != nil:
				if err := v.typ(owner, field, arg.Type); err != nil {
					return err
				}
			case arg.Const != nil:
				if err := v.typ(owner, field, arg.Const.Type); err != nil {
					return err
				}
			}
		}
		for _, binding := range a.AngleBracketed.Bindings {
			switch {
			case binding.Binding.Equality != nil:
				if err := v.term(owner, field, binding.Binding.Equality); err != nil {
					return err
				}
			case binding.Binding.Constraint != nil:
				if err := v.bounds(owner, field, binding.Binding.Constraint); err != nil {
					return err
				}
			}
		}
	case a.Parenthesized != nil:
		for _, in := range a.Parenthesized.Inputs {
			if err := v.typ(owner, field, in); err != nil {
				return err
			}
		}
		if a.Parenthesized.Output != nil {
			return v.typ(owner, field, a.Parenthesized.Output)
		}
	}
	return nil
}

func (v *validator) term(owner Id, field string, t *Term) error {
	switch {
	case t.Type != nil:
		return v.typ(owner, field, t.Type)
	case t.Constant != nil:
		return v.typ(owner, field, t.Constant.Type)
	}
	return nil
}
