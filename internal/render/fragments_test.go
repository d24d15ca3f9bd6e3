package render

import (
	"strings"
	"testing"

	"github.com/jcdickinson/cratemap/internal/rustdoc"
	"github.com/jcdickinson/cratemap/internal/xref"
)

func fragmentCrate() *rustdoc.Crate {
	return &rustdoc.Crate{
		Root:          "0:0",
		FormatVersion: rustdoc.FormatVersion,
		Index: map[rustdoc.Id]rustdoc.Item{
			"0:0": {
				ID:    "0:0",
				Name:  strPtr("demo"),
				Inner: &rustdoc.Module{IsCrate: true, Items: []rustdoc.Id{"0:1", "0:10", "0:20"}},
			},
			"0:1": {
				ID:   "0:1",
				Name: strPtr("Config"),
				Inner: &rustdoc.Struct{
					StructType: rustdoc.StructPlain,
					Fields:     []rustdoc.Id{"0:2"},
					Impls:      []rustdoc.Id{"0:3"},
				},
			},
			"0:2": {
				ID:    "0:2",
				Name:  strPtr("path"),
				Docs:  strPtr("Location on disk.\n\nMore detail."),
				Inner: &rustdoc.StructField{Type: rustdoc.Primitive("str")},
			},
			"0:3": {
				ID: "0:3",
				Inner: &rustdoc.Impl{
					For:   &rustdoc.ResolvedPath{Name: "Config", ID: "0:1"},
					Items: []rustdoc.Id{"0:4"},
				},
			},
			"0:4": {
				ID:   "0:4",
				Name: strPtr("load"),
				Inner: &rustdoc.Method{
					Decl: rustdoc.FnDecl{
						Inputs: []rustdoc.FnInput{{
							Name: "self",
							Type: &rustdoc.BorrowedRef{Referent: rustdoc.Generic("Self")},
						}},
					},
					HasBody: true,
				},
			},
			"0:10": {
				ID:   "0:10",
				Name: strPtr("Mode"),
				Inner: &rustdoc.Enum{
					Variants: []rustdoc.Id{"0:11", "0:12"},
				},
			},
			"0:11": {
				ID:    "0:11",
				Name:  strPtr("Fast"),
				Inner: &rustdoc.Variant{Kind: rustdoc.VariantPlain},
			},
			"0:12": {
				ID:   "0:12",
				Name: strPtr("Limited"),
				Inner: &rustdoc.Variant{
					Kind:  rustdoc.VariantTuple,
					Tuple: []rustdoc.Type{rustdoc.Primitive("u32")},
				},
			},
			"0:20": {
				ID:   "0:20",
				Name: strPtr("Codec"),
				Inner: &rustdoc.Trait{
					Items:           []rustdoc.Id{"0:21", "0:22"},
					Implementations: []rustdoc.Id{"0:3"},
				},
			},
			"0:21": {
				ID:   "0:21",
				Name: strPtr("encode"),
				Inner: &rustdoc.Method{
					Decl: rustdoc.FnDecl{
						Inputs: []rustdoc.FnInput{{
							Name: "self",
							Type: &rustdoc.BorrowedRef{Referent: rustdoc.Generic("Self")},
						}},
					},
				},
			},
			"0:22": {
				ID:   "0:22",
				Name: strPtr("name"),
				Inner: &rustdoc.Method{
					Decl:    rustdoc.FnDecl{},
					HasBody: true,
				},
			},
		},
	}
}

func fragmentByName(t *testing.T, frags []Fragment, name string) Fragment {
	t.Helper()
	for _, f := range frags {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("no %q fragment in %d fragments", name, len(frags))
	return Fragment{}
}

func TestStructFragments(t *testing.T) {
	t.Parallel()
	crate := fragmentCrate()
	res := xref.NewResolver(crate)

	item, _ := res.Item("0:1")
	frags := Plain.Fragments(item, res)
	if len(frags) != 2 {
		t.Fatalf("got %d fragments, want 2", len(frags))
	}

	fields := fragmentByName(t, frags, FragFields)
	if !strings.Contains(fields.Content, "**path: str**: Location on disk.") {
		t.Errorf("fields fragment missing field line:\n%s", fields.Content)
	}
	if strings.Contains(fields.Content, "More detail.") {
		t.Error("fields fragment should only carry the first doc line")
	}

	impls := fragmentByName(t, frags, FragImplementations)
	if !strings.Contains(impls.Content, "## impl Config") {
		t.Errorf("impls fragment missing header:\n%s", impls.Content)
	}
	if !strings.Contains(impls.Content, "fn load(&self)") {
		t.Errorf("impls fragment missing method signature:\n%s", impls.Content)
	}
}

func TestEnumFragments(t *testing.T) {
	t.Parallel()
	crate := fragmentCrate()
	res := xref.NewResolver(crate)

	item, _ := res.Item("0:10")
	frags := Plain.Fragments(item, res)

	variants := fragmentByName(t, frags, FragVariants)
	if !strings.Contains(variants.Content, "**Fast**") {
		t.Errorf("variants fragment missing plain variant:\n%s", variants.Content)
	}
	if !strings.Contains(variants.Content, "**Limited(u32)**") {
		t.Errorf("variants fragment missing tuple variant:\n%s", variants.Content)
	}
}

func TestTraitFragments(t *testing.T) {
	t.Parallel()
	crate := fragmentCrate()
	res := xref.NewResolver(crate)

	item, _ := res.Item("0:20")
	frags := Plain.Fragments(item, res)

	required := fragmentByName(t, frags, FragRequiredMethods)
	if !strings.Contains(required.Content, "fn encode(&self)") {
		t.Errorf("required methods missing encode:\n%s", required.Content)
	}

	provided := fragmentByName(t, frags, FragProvidedMethods)
	if !strings.Contains(provided.Content, "fn name()") {
		t.Errorf("provided methods missing name:\n%s", provided.Content)
	}

	implementors := fragmentByName(t, frags, FragImplementors)
	if !strings.Contains(implementors.Content, "- Config") {
		t.Errorf("implementors fragment missing Config:\n%s", implementors.Content)
	}
}

func TestFragmentsForLeafKinds(t *testing.T) {
	t.Parallel()
	res := xref.NewResolver(fragmentCrate())

	item := &rustdoc.Item{
		Name:  strPtr("helper"),
		Inner: &rustdoc.Function{},
	}
	if frags := Plain.Fragments(item, res); frags != nil {
		t.Errorf("function produced %d fragments, want none", len(frags))
	}
}
