// Package render turns model values back into Rust surface syntax:
// type expressions, bounds, generics, and whole item signatures. Output is
// plain text unless a Link hook is installed, in which case resolved names
// become markdown links.
package render

import (
	"fmt"
	"strings"

	"github.com/jcdickinson/cratemap/internal/rustdoc"
)

// Options configure a Renderer.
type Options struct {
	// Link maps an item id to a URI; resolved-path names render as
	// markdown links when it returns non-"". Nil renders plain text.
	Link func(id rustdoc.Id) string
	// HideSynthetic omits compiler-introduced generic parameters (such
	// as desugared impl Trait arguments) from rendered signatures. The
	// parameters stay in the model either way.
	HideSynthetic bool
}

type Renderer struct {
	opts Options
}

func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Plain is a renderer with no linking.
var Plain = New(Options{})

// name renders an identifier, linked when a target URI is known.
func (r *Renderer) name(display string, id rustdoc.Id) string {
	if r.opts.Link == nil {
		return display
	}
	uri := r.opts.Link(id)
	if uri == "" {
		return display
	}
	return fmt.Sprintf("[%s](%s)", display, uri)
}

// Type renders one type expression. Every variant of the closed union is
// handled; unrecognized variants from newer formats render as a marker
// rather than vanishing.
func (r *Renderer) Type(t rustdoc.Type) string {
	switch t := t.(type) {
	case *rustdoc.ResolvedPath:
		out := r.name(t.Name, t.ID)
		if t.Args != nil {
			out += r.genericArgs(t.Args)
		}
		if len(t.ParamNames) > 0 {
			// Trait object: dyn Trait + Send + 'static.
			parts := make([]string, 0, len(t.ParamNames)+1)
			parts = append(parts, out)
			for _, b := range t.ParamNames {
				parts = append(parts, r.Bound(b))
			}
			return "dyn " + strings.Join(parts, " + ")
		}
		return out
	case rustdoc.Generic:
		return string(t)
	case rustdoc.Primitive:
		return string(t)
	case *rustdoc.FunctionPointer:
		var b strings.Builder
		if len(t.GenericParams) > 0 {
			b.WriteString("for<")
			b.WriteString(r.paramNames(t.GenericParams))
			b.WriteString("> ")
		}
		if t.Header.Unsafe {
			b.WriteString("unsafe ")
		}
		if t.Header.Abi != "" && t.Header.Abi != "Rust" {
			fmt.Fprintf(&b, "extern %q ", t.Header.Abi)
		}
		b.WriteString("fn(")
		b.WriteString(r.inputs(t.Decl.Inputs))
		b.WriteString(")")
		if t.Decl.Output != nil {
			b.WriteString(" -> ")
			b.WriteString(r.Type(t.Decl.Output))
		}
		return b.String()
	case rustdoc.Tuple:
		parts := make([]string, len(t))
		for i, elem := range t {
			parts[i] = r.Type(elem)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *rustdoc.Slice:
		return "[" + r.Type(t.Elem) + "]"
	case *rustdoc.Array:
		return "[" + r.Type(t.Elem) + "; " + t.Len + "]"
	case rustdoc.ImplTrait:
		parts := make([]string, len(t))
		for i, b := range t {
			parts[i] = r.Bound(b)
		}
		return "impl " + strings.Join(parts, " + ")
	case rustdoc.Infer:
		return "_"
	case *rustdoc.RawPointer:
		if t.Mutable {
			return "*mut " + r.Type(t.Pointee)
		}
		return "*const " + r.Type(t.Pointee)
	case *rustdoc.BorrowedRef:
		prefix := "&"
		if t.Lifetime != nil && *t.Lifetime != "" {
			prefix += *t.Lifetime + " "
		}
		if t.Mutable {
			prefix += "mut "
		}
		return prefix + r.Type(t.Referent)
	case *rustdoc.QualifiedPath:
		return fmt.Sprintf("<%s as %s>::%s", r.Type(t.SelfType), r.Type(t.Trait), t.Name)
	case *rustdoc.UnknownType:
		return "<unrecognized " + t.RawKind + ">"
	}
	return ""
}

// Bound renders one generic bound.
func (r *Renderer) Bound(b rustdoc.GenericBound) string {
	switch {
	case b.TraitBound != nil:
		var out strings.Builder
		if len(b.TraitBound.GenericParams) > 0 {
			out.WriteString("for<")
			out.WriteString(r.paramNames(b.TraitBound.GenericParams))
			out.WriteString("> ")
		}
		switch b.TraitBound.Modifier {
		case rustdoc.ModifierMaybe:
			out.WriteString("?")
		case rustdoc.ModifierMaybeConst:
			out.WriteString("~const ")
		}
		out.WriteString(r.Type(b.TraitBound.Trait))
		return out.String()
	case b.Outlives != nil:
		return *b.Outlives
	}
	return ""
}

// genericArgs renders the argument list attached to a path, keeping the
// two syntactic forms apart: brackets for angle_bracketed, call syntax for
// parenthesized.
func (r *Renderer) genericArgs(args *rustdoc.GenericArgs) string {
	switch {
	case args.AngleBracketed != nil:
		ab := args.AngleBracketed
		parts := make([]string, 0, len(ab.Args)+len(ab.Bindings))
		for _, a := range ab.Args {
			switch {
			case a.Lifetime != nil:
				parts = append(parts, *a.Lifetime)
			case a.Type != nil:
				parts = append(parts, r.Type(a.Type))
			case a.Const != nil:
				parts = append(parts, a.Const.Expr)
			}
		}
		for _, binding := range ab.Bindings {
			parts = append(parts, r.binding(binding))
		}
		if len(parts) == 0 {
			return ""
		}
		return "<" + strings.Join(parts, ", ") + ">"
	case args.Parenthesized != nil:
		p := args.Parenthesized
		ins := make([]string, len(p.Inputs))
		for i, in := range p.Inputs {
			ins[i] = r.Type(in)
		}
		out := "(" + strings.Join(ins, ", ") + ")"
		if p.Output != nil {
			out += " -> " + r.Type(p.Output)
		}
		return out
	}
	return ""
}

func (r *Renderer) binding(b rustdoc.TypeBinding) string {
	switch {
	case b.Binding.Equality != nil:
		return b.Name + " = " + r.Term(*b.Binding.Equality)
	case b.Binding.Constraint != nil:
		bounds := make([]string, len(b.Binding.Constraint))
		for i, c := range b.Binding.Constraint {
			bounds[i] = r.Bound(c)
		}
		return b.Name + ": " + strings.Join(bounds, " + ")
	}
	return b.Name
}

// Term renders the right-hand side of an equality constraint.
func (r *Renderer) Term(t rustdoc.Term) string {
	switch {
	case t.Type != nil:
		return r.Type(t.Type)
	case t.Constant != nil:
		return t.Constant.Expr
	}
	return ""
}

// paramNames renders a bare comma-separated parameter name list, used for
// higher-rank binders.
func (r *Renderer) paramNames(params []rustdoc.GenericParamDef) string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

// GenericsDecl renders the `<...>` declaration list of an item, honoring
// HideSynthetic. Returns "" when nothing is declared (or everything was
// hidden).
func (r *Renderer) GenericsDecl(g *rustdoc.Generics) string {
	var parts []string
	for _, p := range g.Params {
		switch {
		case p.Kind.Lifetime != nil:
			name := p.Name
			if len(p.Kind.Lifetime.Outlives) > 0 {
				name += ": " + strings.Join(p.Kind.Lifetime.Outlives, " + ")
			}
			parts = append(parts, name)
		case p.Kind.Type != nil:
			tp := p.Kind.Type
			if tp.Synthetic && r.opts.HideSynthetic {
				continue
			}
			name := p.Name
			if len(tp.Bounds) > 0 {
				bounds := make([]string, len(tp.Bounds))
				for i, b := range tp.Bounds {
					bounds[i] = r.Bound(b)
				}
				name += ": " + strings.Join(bounds, " + ")
			}
			if tp.Default != nil {
				name += " = " + r.Type(tp.Default)
			}
			parts = append(parts, name)
		case p.Kind.Const != nil:
			parts = append(parts, "const "+p.Name+": "+r.Type(p.Kind.Const.Type))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// WhereClause renders the where-list, or "" when empty. Predicate order
// follows the model, which preserves the producer's order.
func (r *Renderer) WhereClause(g *rustdoc.Generics) string {
	var parts []string
	for _, pred := range g.WherePredicates {
		switch {
		case pred.BoundPredicate != nil:
			bounds := make([]string, len(pred.BoundPredicate.Bounds))
			for i, b := range pred.BoundPredicate.Bounds {
				bounds[i] = r.Bound(b)
			}
			parts = append(parts, r.Type(pred.BoundPredicate.Type)+": "+strings.Join(bounds, " + "))
		case pred.RegionPredicate != nil:
			bounds := make([]string, len(pred.RegionPredicate.Bounds))
			for i, b := range pred.RegionPredicate.Bounds {
				bounds[i] = r.Bound(b)
			}
			parts = append(parts, pred.RegionPredicate.Lifetime+": "+strings.Join(bounds, " + "))
		case pred.EqPredicate != nil:
			parts = append(parts, r.Type(pred.EqPredicate.Lhs)+" = "+r.Term(pred.EqPredicate.Rhs))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "where " + strings.Join(parts, ", ")
}

// inputs renders a parameter list, with Rust shorthand for self receivers.
func (r *Renderer) inputs(inputs []rustdoc.FnInput) string {
	parts := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if in.Name == "self" {
			parts = append(parts, selfShorthand(in.Type))
			continue
		}
		parts = append(parts, in.Name+": "+r.Type(in.Type))
	}
	return strings.Join(parts, ", ")
}

// selfShorthand renders a self parameter the way it was written:
// self, &self, &'a mut self, or self: Box<Self>.
func selfShorthand(t rustdoc.Type) string {
	switch t := t.(type) {
	case rustdoc.Generic:
		if t == "Self" {
			return "self"
		}
	case *rustdoc.BorrowedRef:
		if g, ok := t.Referent.(rustdoc.Generic); ok && g == "Self" {
			prefix := "&"
			if t.Lifetime != nil && *t.Lifetime != "" {
				prefix += *t.Lifetime + " "
			}
			if t.Mutable {
				prefix += "mut "
			}
			return prefix + "self"
		}
	}
	return "self: " + Plain.Type(t)
}
