package rustdoc

import (
	"bytes"
	"encoding/json"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestUnmarshalType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
		want Type
	}{
		{
			"primitive",
			`{"kind":"primitive","inner":"u32"}`,
			Primitive("u32"),
		},
		{
			"generic",
			`{"kind":"generic","inner":"T"}`,
			Generic("T"),
		},
		{
			"infer",
			`{"kind":"infer"}`,
			Infer{},
		},
		{
			"slice",
			`{"kind":"slice","inner":{"kind":"primitive","inner":"u8"}}`,
			&Slice{Elem: Primitive("u8")},
		},
		{
			"array",
			`{"kind":"array","inner":{"type":{"kind":"primitive","inner":"u8"},"len":"N * 2"}}`,
			&Array{Elem: Primitive("u8"), Len: "N * 2"},
		},
		{
			"tuple",
			`{"kind":"tuple","inner":[{"kind":"primitive","inner":"u32"},{"kind":"generic","inner":"T"}]}`,
			Tuple{Primitive("u32"), Generic("T")},
		},
		{
			"raw_pointer",
			`{"kind":"raw_pointer","inner":{"mutable":true,"type":{"kind":"primitive","inner":"u8"}}}`,
			&RawPointer{Mutable: true, Pointee: Primitive("u8")},
		},
		{
			"borrowed_ref",
			`{"kind":"borrowed_ref","inner":{"lifetime":"'a","mutable":false,"type":{"kind":"primitive","inner":"str"}}}`,
			&BorrowedRef{Lifetime: strPtr("'a"), Referent: Primitive("str")},
		},
		{
			"resolved_path",
			`{"kind":"resolved_path","inner":{"name":"Vec","id":"5:100","args":{"angle_bracketed":{"args":[{"type":{"kind":"generic","inner":"T"}}],"bindings":[]}},"param_names":[]}}`,
			&ResolvedPath{
				Name: "Vec",
				ID:   "5:100",
				Args: &GenericArgs{AngleBracketed: &AngleBracketedArgs{
					Args:     []GenericArg{{Type: Generic("T")}},
					Bindings: []TypeBinding{},
				}},
				ParamNames: []GenericBound{},
			},
		},
		{
			"qualified_path",
			`{"kind":"qualified_path","inner":{"name":"Item","self_type":{"kind":"generic","inner":"Self"},"trait":{"kind":"resolved_path","inner":{"name":"Iterator","id":"2:55","args":null,"param_names":[]}}}}`,
			&QualifiedPath{
				Name:     "Item",
				SelfType: Generic("Self"),
				Trait:    &ResolvedPath{Name: "Iterator", ID: "2:55", ParamNames: []GenericBound{}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalType([]byte(tt.json))
			if err != nil {
				t.Fatalf("UnmarshalType: %v", err)
			}
			gotJSON, err := json.Marshal(got)
			if err != nil {
				t.Fatalf("re-marshal: %v", err)
			}
			wantJSON, err := json.Marshal(tt.want)
			if err != nil {
				t.Fatalf("marshal want: %v", err)
			}
			if !bytes.Equal(gotJSON, wantJSON) {
				t.Errorf("got %s, want %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestUnmarshalTypeUnknownKind(t *testing.T) {
	t.Parallel()

	got, err := UnmarshalType([]byte(`{"kind":"pattern_type","inner":{"base":{"kind":"primitive","inner":"u32"}}}`))
	if err != nil {
		t.Fatalf("unknown kind must not fail: %v", err)
	}
	unknown, ok := got.(*UnknownType)
	if !ok {
		t.Fatalf("got %T, want *UnknownType", got)
	}
	if unknown.RawKind != "pattern_type" {
		t.Errorf("raw kind: got %q", unknown.RawKind)
	}

	// Opaque payload must survive re-encoding untouched.
	out, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"kind":"pattern_type","inner":{"base":{"kind":"primitive","inner":"u32"}}}`
	if string(out) != want {
		t.Errorf("got %s, want %s", out, want)
	}
}

func TestUnmarshalTypeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
	}{
		{"missing kind", `{"inner":"u32"}`},
		{"null", `null`},
		{"bad payload", `{"kind":"slice","inner":42}`},
		{"bad nested payload", `{"kind":"tuple","inner":[{"kind":"primitive","inner":7}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalType([]byte(tt.json)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// TestDeepNestingRoundTrip exercises Vec<Box<dyn Fn(&T) -> Option<U>>>:
// resolved paths, parenthesized args, borrowed refs and angle brackets
// nested five levels deep.
func TestDeepNestingRoundTrip(t *testing.T) {
	t.Parallel()

	fnTrait := &ResolvedPath{
		Name: "Fn",
		ID:   "2:10",
		Args: &GenericArgs{Parenthesized: &ParenthesizedArgs{
			Inputs: []Type{&BorrowedRef{Referent: Generic("T")}},
			Output: &ResolvedPath{
				Name: "Option",
				ID:   "2:20",
				Args: &GenericArgs{AngleBracketed: &AngleBracketedArgs{
					Args: []GenericArg{{Type: Generic("U")}},
				}},
			},
		}},
	}
	boxed := &ResolvedPath{
		Name: "Box",
		ID:   "2:30",
		Args: &GenericArgs{AngleBracketed: &AngleBracketedArgs{
			Args: []GenericArg{{Type: &ResolvedPath{
				Name:       "Fn",
				ID:         "2:10",
				ParamNames: []GenericBound{{TraitBound: &TraitBound{Trait: fnTrait, Modifier: ModifierNone}}},
			}}},
		}},
	}
	vec := &ResolvedPath{
		Name: "Vec",
		ID:   "2:40",
		Args: &GenericArgs{AngleBracketed: &AngleBracketedArgs{
			Args: []GenericArg{{Type: boxed}},
		}},
	}

	first, err := json.Marshal(vec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := UnmarshalType(first)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	second, err := json.Marshal(decoded)
	if err != nil {
		t.Fatalf("re-marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("round trip changed encoding:\nfirst:  %s\nsecond: %s", first, second)
	}
}

// TestQualifiedPathRoundTrip checks that <Self as Iterator>::Item keeps
// self_type and trait as distinct full Type values across a round trip.
func TestQualifiedPathRoundTrip(t *testing.T) {
	t.Parallel()

	qp := &QualifiedPath{
		Name:     "Item",
		SelfType: Generic("Self"),
		Trait:    &ResolvedPath{Name: "Iterator", ID: "2:55"},
	}

	data, err := json.Marshal(qp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := UnmarshalType(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got, ok := decoded.(*QualifiedPath)
	if !ok {
		t.Fatalf("got %T, want *QualifiedPath", decoded)
	}
	if _, ok := got.SelfType.(Generic); !ok {
		t.Errorf("self_type is %T, want Generic", got.SelfType)
	}
	trait, ok := got.Trait.(*ResolvedPath)
	if !ok {
		t.Fatalf("trait is %T, want *ResolvedPath", got.Trait)
	}
	if trait.Name != "Iterator" {
		t.Errorf("trait name: got %q", trait.Name)
	}
}

func TestGenericArgsFormsStayDistinct(t *testing.T) {
	t.Parallel()

	// Fn(A) -> B sugar and <A, B> brackets are separate wire forms and
	// must never collapse into one another.
	paren := `{"parenthesized":{"inputs":[{"kind":"generic","inner":"A"}],"output":{"kind":"generic","inner":"B"}}}`
	var args GenericArgs
	if err := json.Unmarshal([]byte(paren), &args); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if args.Parenthesized == nil || args.AngleBracketed != nil {
		t.Fatal("parenthesized form decoded into the wrong arm")
	}
	out, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != paren {
		t.Errorf("got %s, want %s", out, paren)
	}
}
