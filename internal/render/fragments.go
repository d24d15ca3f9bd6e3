package render

import (
	"fmt"
	"strings"

	"github.com/jcdickinson/cratemap/internal/rustdoc"
	"github.com/jcdickinson/cratemap/internal/xref"
)

const (
	FragFields          = "fields"
	FragVariants        = "variants"
	FragImplementations = "implementations"
	FragImplementors    = "implementors"
	FragRequiredMethods = "required-methods"
	FragProvidedMethods = "provided-methods"
)

// Fragment is a markdown sub-document generated from an item, named after
// the docs.rs section it mirrors (#fields, #variants, ...).
type Fragment struct {
	Name    string
	Content string
}

// Fragments generates the sub-documents an item's kind calls for. Only
// structs, enums and traits produce fragments.
func (r *Renderer) Fragments(item *rustdoc.Item, res *xref.Resolver) []Fragment {
	switch inner := item.Inner.(type) {
	case *rustdoc.Struct:
		return compactFragments(
			r.fieldsFragment(inner.Fields, res),
			r.implsFragment(inner.Impls, res),
		)
	case *rustdoc.Enum:
		return compactFragments(
			r.variantsFragment(inner.Variants, res),
			r.implsFragment(inner.Impls, res),
		)
	case *rustdoc.Trait:
		frags := r.traitMethodFragments(inner.Items, res)
		if f := r.implementorsFragment(inner.Implementations, res); f != nil {
			frags = append(frags, *f)
		}
		return frags
	}
	return nil
}

func compactFragments(frags ...*Fragment) []Fragment {
	var out []Fragment
	for _, f := range frags {
		if f != nil {
			out = append(out, *f)
		}
	}
	return out
}

// bulletLine writes "- **name**: first doc line".
func bulletLine(b *strings.Builder, name string, item *rustdoc.Item) {
	fmt.Fprintf(b, "- **%s**", name)
	if item.Docs != nil && *item.Docs != "" {
		first := strings.SplitN(*item.Docs, "\n", 2)[0]
		b.WriteString(": " + first)
	}
	b.WriteString("\n")
}

func (r *Renderer) fieldsFragment(fields []rustdoc.Id, res *xref.Resolver) *Fragment {
	var b strings.Builder
	b.WriteString("# Fields\n\n")
	count := 0
	for _, id := range fields {
		item, ok := res.Item(id)
		if !ok || item.Name == nil {
			continue
		}
		name := *item.Name
		if f, ok := item.Inner.(*rustdoc.StructField); ok {
			name = name + ": " + r.Type(f.Type)
		}
		bulletLine(&b, name, item)
		count++
	}
	if count == 0 {
		return nil
	}
	return &Fragment{Name: FragFields, Content: b.String()}
}

func (r *Renderer) variantsFragment(variants []rustdoc.Id, res *xref.Resolver) *Fragment {
	var b strings.Builder
	b.WriteString("# Variants\n\n")
	count := 0
	for _, id := range variants {
		item, ok := res.Item(id)
		if !ok || item.Name == nil {
			continue
		}
		name := *item.Name
		if v, ok := item.Inner.(*rustdoc.Variant); ok && v.Kind == rustdoc.VariantTuple {
			parts := make([]string, len(v.Tuple))
			for i, t := range v.Tuple {
				parts[i] = r.Type(t)
			}
			name += "(" + strings.Join(parts, ", ") + ")"
		}
		bulletLine(&b, name, item)
		count++
	}
	if count == 0 {
		return nil
	}
	return &Fragment{Name: FragVariants, Content: b.String()}
}

func (r *Renderer) implsFragment(impls []rustdoc.Id, res *xref.Resolver) *Fragment {
	var b strings.Builder
	b.WriteString("# Implementations\n\n")
	count := 0
	for _, implID := range impls {
		item, ok := res.Item(implID)
		if !ok {
			continue
		}
		impl, ok := item.Inner.(*rustdoc.Impl)
		if !ok || len(impl.Items) == 0 {
			continue
		}

		fmt.Fprintf(&b, "## %s\n\n", r.ImplHeader(impl))
		for _, memberID := range impl.Items {
			member, ok := res.Item(memberID)
			if !ok || member.Name == nil {
				continue
			}
			display := *member.Name
			if m, ok := member.Inner.(*rustdoc.Method); ok {
				display = r.FnSignature(*member.Name, &m.Decl, &m.Generics, m.Header)
			}
			fmt.Fprintf(&b, "- `%s`", display)
			if member.Docs != nil && *member.Docs != "" {
				b.WriteString(": " + strings.SplitN(*member.Docs, "\n", 2)[0])
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		count++
	}
	if count == 0 {
		return nil
	}
	return &Fragment{Name: FragImplementations, Content: b.String()}
}

func (r *Renderer) implementorsFragment(impls []rustdoc.Id, res *xref.Resolver) *Fragment {
	var b strings.Builder
	b.WriteString("# Implementors\n\n")
	count := 0
	for _, implID := range impls {
		item, ok := res.Item(implID)
		if !ok {
			continue
		}
		impl, ok := item.Inner.(*rustdoc.Impl)
		if !ok {
			continue
		}
		target := r.Type(impl.For)
		if target == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", target)
		count++
	}
	if count == 0 {
		return nil
	}
	return &Fragment{Name: FragImplementors, Content: b.String()}
}

// traitMethodFragments splits a trait's function members into required and
// provided sections; associated consts and types are listed with required.
func (r *Renderer) traitMethodFragments(items []rustdoc.Id, res *xref.Resolver) []Fragment {
	type member struct {
		sig  string
		docs string
	}
	var required, provided []member

	for _, id := range items {
		item, ok := res.Item(id)
		if !ok || item.Name == nil {
			continue
		}
		m := member{}
		if item.Docs != nil {
			m.docs = *item.Docs
		}
		switch inner := item.Inner.(type) {
		case *rustdoc.Method:
			m.sig = r.FnSignature(*item.Name, &inner.Decl, &inner.Generics, inner.Header)
			if inner.HasBody {
				provided = append(provided, m)
			} else {
				required = append(required, m)
			}
		default:
			m.sig = r.ItemDecl(item)
			required = append(required, m)
		}
	}

	write := func(name, heading string, members []member) Fragment {
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", heading)
		for _, m := range members {
			if m.sig != "" {
				fmt.Fprintf(&b, "```rust\n%s\n```\n\n", m.sig)
			}
			if m.docs != "" {
				b.WriteString(m.docs)
				b.WriteString("\n\n")
			}
		}
		return Fragment{Name: name, Content: b.String()}
	}

	var fragments []Fragment
	if len(required) > 0 {
		fragments = append(fragments, write(FragRequiredMethods, "Required Methods", required))
	}
	if len(provided) > 0 {
		fragments = append(fragments, write(FragProvidedMethods, "Provided Methods", provided))
	}
	return fragments
}
