package rustdoc

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// demoCrate is a small but representative document: a crate root module, a
// generic struct with a Clone bound, its field, and an external trait
// reference resolved through paths.
const demoCrate = `{
  "root": "0:0",
  "crate_version": "1.0.0",
  "includes_private": false,
  "index": {
    "0:0": {"id":"0:0","crate_id":0,"name":"demo","span":null,"visibility":"public","docs":null,"links":{},"attrs":[],"deprecation":null,"kind":"module","inner":{"is_crate":true,"items":["0:1"]}},
    "0:1": {"id":"0:1","crate_id":0,"name":"Wrapper","span":{"filename":"src/lib.rs","begin":[0,0],"end":[4,1]},"visibility":"public","docs":"A wrapper.","links":{},"attrs":[],"deprecation":null,"kind":"struct","inner":{"struct_type":"plain","generics":{"params":[{"name":"T","kind":{"type":{"bounds":[{"trait_bound":{"trait":{"kind":"resolved_path","inner":{"name":"Clone","id":"2:100","args":null,"param_names":[]}},"generic_params":[],"modifier":"none"}}],"default":null,"synthetic":false}}}],"where_predicates":[]},"fields_stripped":false,"fields":["0:2"],"impls":[]}},
    "0:2": {"id":"0:2","crate_id":0,"name":"value","span":null,"visibility":"public","docs":null,"links":{},"attrs":[],"deprecation":null,"kind":"struct_field","inner":{"kind":"generic","inner":"T"}}
  },
  "paths": {
    "0:1": {"crate_id":0,"path":["demo","Wrapper"],"kind":"struct"},
    "2:100": {"crate_id":2,"path":["core","clone","Clone"],"kind":"trait"}
  },
  "external_crates": {"2":{"name":"core","html_root_url":"https://doc.rust-lang.org/nightly/"}},
  "format_version": 9
}`

func TestDecodeStructWithBound(t *testing.T) {
	t.Parallel()

	crate, err := Decode([]byte(demoCrate))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	item, ok := crate.Index["0:1"]
	if !ok {
		t.Fatal("item 0:1 missing from index")
	}
	if got, want := item.Kind(), KindStruct; got != want {
		t.Fatalf("kind: got %q, want %q", got, want)
	}

	s, ok := item.Inner.(*Struct)
	if !ok {
		t.Fatalf("payload is %T, want *Struct", item.Inner)
	}
	if len(s.Generics.Params) != 1 {
		t.Fatalf("got %d generic params, want 1", len(s.Generics.Params))
	}
	param := s.Generics.Params[0]
	if param.Name != "T" {
		t.Errorf("param name: got %q, want %q", param.Name, "T")
	}
	if param.Kind.Type == nil {
		t.Fatal("param is not a type parameter")
	}
	if len(param.Kind.Type.Bounds) != 1 {
		t.Fatalf("got %d bounds, want 1", len(param.Kind.Type.Bounds))
	}
	bound := param.Kind.Type.Bounds[0]
	if bound.TraitBound == nil {
		t.Fatal("bound is not a trait_bound")
	}
	trait, ok := bound.TraitBound.Trait.(*ResolvedPath)
	if !ok {
		t.Fatalf("bound trait is %T, want *ResolvedPath", bound.TraitBound.Trait)
	}
	if trait.Name != "Clone" {
		t.Errorf("bound trait: got %q, want %q", trait.Name, "Clone")
	}
	if summary, ok := crate.Paths[trait.ID]; !ok {
		t.Errorf("bound trait id %q not in paths", trait.ID)
	} else if got := strings.Join(summary.Path, "::"); got != "core::clone::Clone" {
		t.Errorf("bound trait path: got %q", got)
	}
}

func TestRoundTripBytes(t *testing.T) {
	t.Parallel()

	crate, err := Decode([]byte(demoCrate))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	first, err := Encode(crate)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	again, err := Decode(first)
	if err != nil {
		t.Fatalf("Decode(Encode): %v", err)
	}
	second, err := Encode(again)
	if err != nil {
		t.Fatalf("second Encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("encoding is not stable across a round trip:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestDecodeRejectsNewerFormat(t *testing.T) {
	t.Parallel()

	// The index payload here is garbage that would fail item decoding;
	// rejection must happen on the version alone, before any item is
	// touched.
	doc := `{"root":"0:0","index":{"0:0":{"kind":"struct","inner":42}},"paths":{},"external_crates":{},"format_version":10}`

	_, err := Decode([]byte(doc))
	if err == nil {
		t.Fatal("expected version error, got nil")
	}
	var verr *VersionError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v (%T), want *VersionError", err, err)
	}
	if verr.Document != 10 || verr.Supported != FormatVersion {
		t.Errorf("got document=%d supported=%d", verr.Document, verr.Supported)
	}
}

func TestDecodeMissingFormatVersion(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"root":"0:0","index":{},"paths":{},"external_crates":{}}`))
	if err == nil {
		t.Fatal("expected error for missing format_version")
	}
}

func TestDecodeMalformedPayloadFailsWholeDocument(t *testing.T) {
	t.Parallel()

	// A known kind with a payload of the wrong shape is a structural
	// fault; the decode must not produce a partial graph.
	doc := `{
	  "root": "0:0",
	  "index": {
	    "0:0": {"id":"0:0","crate_id":0,"name":"demo","span":null,"visibility":"public","docs":null,"links":{},"attrs":[],"deprecation":null,"kind":"module","inner":"not a module"}
	  },
	  "paths": {}, "external_crates": {}, "format_version": 9
	}`

	_, err := Decode([]byte(doc))
	if err == nil {
		t.Fatal("expected decode error, got nil")
	}
	if !strings.Contains(err.Error(), "0:0") {
		t.Errorf("error should name the faulty item: %v", err)
	}
}

func TestDecodeUnknownItemKind(t *testing.T) {
	t.Parallel()

	doc := `{
	  "root": "0:0",
	  "index": {
	    "0:0": {"id":"0:0","crate_id":0,"name":"demo","span":null,"visibility":"public","docs":null,"links":{},"attrs":[],"deprecation":null,"kind":"module","inner":{"is_crate":true,"items":["0:9"]}},
	    "0:9": {"id":"0:9","crate_id":0,"name":"mystery","span":null,"visibility":"public","docs":null,"links":{},"attrs":[],"deprecation":null,"kind":"hologram","inner":{"beams":3}}
	  },
	  "paths": {}, "external_crates": {}, "format_version": 9
	}`

	crate, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("unknown kind must not fail decode: %v", err)
	}
	item := crate.Index["0:9"]
	unknown, ok := item.Inner.(*UnknownInner)
	if !ok {
		t.Fatalf("payload is %T, want *UnknownInner", item.Inner)
	}
	if unknown.RawKind != "hologram" {
		t.Errorf("raw kind: got %q, want %q", unknown.RawKind, "hologram")
	}
	if len(unknown.Payload) == 0 {
		t.Error("unknown payload was dropped")
	}

	// The opaque payload survives re-encoding.
	out, err := Encode(crate)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(out), `"hologram"`) {
		t.Error("re-encoded document lost the unknown kind")
	}
}

func TestModuleItemOrderPreserved(t *testing.T) {
	t.Parallel()

	item := `{"id":"0:0","crate_id":0,"name":"demo","span":null,"visibility":"public","docs":null,"links":{},"attrs":[],"deprecation":null,"kind":"module","inner":{"is_crate":true,"items":["0:3","0:1","0:2"]}}`
	doc := `{"root":"0:0","index":{"0:0":` + item + `},"paths":{` +
		`"0:1":{"crate_id":0,"path":["demo","a"],"kind":"function"},` +
		`"0:2":{"crate_id":0,"path":["demo","b"],"kind":"function"},` +
		`"0:3":{"crate_id":0,"path":["demo","c"],"kind":"function"}` +
		`},"external_crates":{},"format_version":9}`

	crate, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	mod := crate.Index["0:0"].Inner.(*Module)
	want := []Id{"0:3", "0:1", "0:2"}
	if len(mod.Items) != len(want) {
		t.Fatalf("got %d items, want %d", len(mod.Items), len(want))
	}
	for i, id := range want {
		if mod.Items[i] != id {
			t.Errorf("items[%d]: got %q, want %q", i, mod.Items[i], id)
		}
	}
}

func TestExternalCrateName(t *testing.T) {
	t.Parallel()

	crate, err := Decode([]byte(demoCrate))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := crate.ExternalCrateName(2); got != "core" {
		t.Errorf("got %q, want %q", got, "core")
	}
	if got := crate.ExternalCrateName(7); got != "" {
		t.Errorf("unknown crate id: got %q, want empty", got)
	}
}
