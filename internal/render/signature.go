package render

import (
	"fmt"
	"strings"

	"github.com/jcdickinson/cratemap/internal/rustdoc"
)

// FnSignature renders a complete function signature, e.g.
// "const fn get<K: Hash>(&self, key: &K) -> Option<&V> where V: Clone".
func (r *Renderer) FnSignature(name string, decl *rustdoc.FnDecl, generics *rustdoc.Generics, header rustdoc.Header) string {
	var b strings.Builder

	if header.Const {
		b.WriteString("const ")
	}
	if header.Unsafe {
		b.WriteString("unsafe ")
	}
	if header.Async {
		b.WriteString("async ")
	}
	if header.Abi != "" && header.Abi != "Rust" {
		fmt.Fprintf(&b, "extern %q ", header.Abi)
	}

	b.WriteString("fn ")
	b.WriteString(name)
	if generics != nil {
		b.WriteString(r.GenericsDecl(generics))
	}
	b.WriteString("(")
	b.WriteString(r.inputs(decl.Inputs))
	if decl.CVariadic {
		b.WriteString(", ...")
	}
	b.WriteString(")")
	if decl.Output != nil {
		b.WriteString(" -> ")
		b.WriteString(r.Type(decl.Output))
	}
	if generics != nil {
		if where := r.WhereClause(generics); where != "" {
			b.WriteString(" ")
			b.WriteString(where)
		}
	}
	return b.String()
}

// ItemDecl renders a one-line declaration header for an item, the form a
// doc page would print above the item's prose. Items without a meaningful
// declaration (modules, impls, unknown kinds) return "".
func (r *Renderer) ItemDecl(item *rustdoc.Item) string {
	name := ""
	if item.Name != nil {
		name = *item.Name
	}

	vis := ""
	if item.Visibility.Kind == rustdoc.VisibilityPublic {
		vis = "pub "
	}

	switch inner := item.Inner.(type) {
	case *rustdoc.Struct:
		return vis + "struct " + name + r.GenericsDecl(&inner.Generics) + r.whereSuffix(&inner.Generics)
	case *rustdoc.Union:
		return vis + "union " + name + r.GenericsDecl(&inner.Generics) + r.whereSuffix(&inner.Generics)
	case *rustdoc.Enum:
		return vis + "enum " + name + r.GenericsDecl(&inner.Generics) + r.whereSuffix(&inner.Generics)
	case *rustdoc.Trait:
		kw := "trait "
		if inner.IsUnsafe {
			kw = "unsafe " + kw
		}
		if inner.IsAuto {
			kw = "auto " + kw
		}
		decl := vis + kw + name + r.GenericsDecl(&inner.Generics)
		if len(inner.Bounds) > 0 {
			bounds := make([]string, len(inner.Bounds))
			for i, b := range inner.Bounds {
				bounds[i] = r.Bound(b)
			}
			decl += ": " + strings.Join(bounds, " + ")
		}
		return decl + r.whereSuffix(&inner.Generics)
	case *rustdoc.Function:
		return vis + r.FnSignature(name, &inner.Decl, &inner.Generics, inner.Header)
	case *rustdoc.Method:
		return vis + r.FnSignature(name, &inner.Decl, &inner.Generics, inner.Header)
	case *rustdoc.Typedef:
		return vis + "type " + name + r.GenericsDecl(&inner.Generics) + " = " + r.Type(inner.Type)
	case *rustdoc.Constant:
		return vis + "const " + name + ": " + r.Type(inner.Type) + " = " + inner.Expr
	case *rustdoc.Static:
		kw := "static "
		if inner.Mutable {
			kw = "static mut "
		}
		return vis + kw + name + ": " + r.Type(inner.Type)
	case *rustdoc.AssocConst:
		return "const " + name + ": " + r.Type(inner.Type)
	case *rustdoc.AssocType:
		decl := "type " + name
		if len(inner.Bounds) > 0 {
			bounds := make([]string, len(inner.Bounds))
			for i, b := range inner.Bounds {
				bounds[i] = r.Bound(b)
			}
			decl += ": " + strings.Join(bounds, " + ")
		}
		if inner.Default != nil {
			decl += " = " + r.Type(inner.Default)
		}
		return decl
	case *rustdoc.StructField:
		return vis + name + ": " + r.Type(inner.Type)
	case *rustdoc.Import:
		if inner.Glob {
			return vis + "use " + inner.Source + "::*"
		}
		return vis + "use " + inner.Source
	case rustdoc.Macro:
		return "macro_rules! " + name
	case *rustdoc.ProcMacro:
		switch inner.Kind {
		case rustdoc.MacroDerive:
			return "#[derive(" + name + ")]"
		case rustdoc.MacroAttr:
			return "#[" + name + "]"
		default:
			return name + "!()"
		}
	case *rustdoc.TraitAlias:
		bounds := make([]string, len(inner.Params))
		for i, b := range inner.Params {
			bounds[i] = r.Bound(b)
		}
		return vis + "trait " + name + r.GenericsDecl(&inner.Generics) + " = " + strings.Join(bounds, " + ")
	}
	return ""
}

// ImplHeader renders "impl Trait for Type" / "impl Type" for an impl block.
func (r *Renderer) ImplHeader(impl *rustdoc.Impl) string {
	var b strings.Builder
	if impl.IsUnsafe {
		b.WriteString("unsafe ")
	}
	b.WriteString("impl")
	b.WriteString(r.GenericsDecl(&impl.Generics))
	b.WriteString(" ")
	if impl.Trait != nil {
		if impl.Negative {
			b.WriteString("!")
		}
		b.WriteString(r.Type(impl.Trait))
		b.WriteString(" for ")
	}
	b.WriteString(r.Type(impl.For))
	if where := r.WhereClause(&impl.Generics); where != "" {
		b.WriteString(" ")
		b.WriteString(where)
	}
	return b.String()
}

func (r *Renderer) whereSuffix(g *rustdoc.Generics) string {
	if where := r.WhereClause(g); where != "" {
		return " " + where
	}
	return ""
}
