package rustdoc

import (
	"encoding/json"
	"fmt"
)

// Module is a namespace of items. Items keeps declaration order.
type Module struct {
	IsCrate bool `json:"is_crate"`
	Items   []Id `json:"items"`
}

// ExternCrate is an `extern crate` declaration. Not to be confused with
// ExternalCrate, the dependency table entry.
type ExternCrate struct {
	Name   string  `json:"name"`
	Rename *string `json:"rename"`
}

// Import is a `use` declaration. ID is null when the target cannot be
// named: a glob import over an unenumerable set, or a target stripped from
// the document. Consumers treat a null ID as unresolvable, not as a fault.
type Import struct {
	// Source is the full path being imported, e.g. "std::io::Error".
	Source string `json:"source"`
	// Name is the local binding, which differs from the last Source
	// segment under `use x as y`.
	Name string `json:"name"`
	ID   *Id    `json:"id"`
	Glob bool   `json:"glob"`
}

// StructType is the body form of a struct.
type StructType string

const (
	StructPlain StructType = "plain"
	StructTuple StructType = "tuple"
	StructUnit  StructType = "unit"
)

type Struct struct {
	StructType StructType `json:"struct_type"`
	Generics   Generics   `json:"generics"`
	// FieldsStripped is set when private fields were omitted from Fields.
	FieldsStripped bool `json:"fields_stripped"`
	Fields         []Id `json:"fields"`
	Impls          []Id `json:"impls"`
}

type Union struct {
	Generics       Generics `json:"generics"`
	FieldsStripped bool     `json:"fields_stripped"`
	Fields         []Id     `json:"fields"`
	Impls          []Id     `json:"impls"`
}

// StructField is a field's payload: just its type. On the wire the inner is
// the Type value itself, unwrapped.
type StructField struct {
	Type Type
}

type Enum struct {
	Generics         Generics `json:"generics"`
	VariantsStripped bool     `json:"variants_stripped"`
	Variants         []Id     `json:"variants"`
	Impls            []Id     `json:"impls"`
}

// VariantKind is the body form of an enum variant.
type VariantKind string

const (
	VariantPlain  VariantKind = "plain"
	VariantTuple  VariantKind = "tuple"
	VariantStruct VariantKind = "struct"
)

// Variant is one enum variant. Tuple is set for tuple variants (the field
// types, in order), Fields for struct variants (ids of struct_field items).
// Plain variants carry neither. On the wire the form is adjacently tagged
// as variant_kind/variant_inner.
type Variant struct {
	Kind   VariantKind
	Tuple  []Type
	Fields []Id
}

// Header is the set of qualifiers on a function or function pointer.
type Header struct {
	Const  bool   `json:"const"`
	Unsafe bool   `json:"unsafe"`
	Async  bool   `json:"async"`
	Abi    string `json:"abi"`
}

// FnInput is one named parameter.
type FnInput struct {
	Name string
	Type Type
}

// FnDecl is a function signature. On the wire inputs are [name, type]
// pairs.
type FnDecl struct {
	Inputs []FnInput
	// Output is nil for functions returning unit.
	Output    Type
	CVariadic bool
}

type Function struct {
	Decl     FnDecl   `json:"decl"`
	Generics Generics `json:"generics"`
	Header   Header   `json:"header"`
}

// Method is a function declared inside a trait or impl block.
type Method struct {
	Decl     FnDecl   `json:"decl"`
	Generics Generics `json:"generics"`
	Header   Header   `json:"header"`
	// HasBody distinguishes provided trait methods from required ones.
	HasBody bool `json:"has_body"`
}

type Trait struct {
	IsAuto   bool     `json:"is_auto"`
	IsUnsafe bool     `json:"is_unsafe"`
	Items    []Id     `json:"items"`
	Generics Generics `json:"generics"`
	// Bounds are the supertraits.
	Bounds []GenericBound `json:"bounds"`
	// Implementations lists the known impl items for this trait.
	Implementations []Id `json:"implementations"`
}

type TraitAlias struct {
	Generics Generics       `json:"generics"`
	Params   []GenericBound `json:"params"`
}

// Impl is an implementation block. Trait is nil for inherent impls.
// Synthetic marks compiler-generated (auto trait) impls; BlanketImpl, when
// set, is the generic type the blanket implementation applies to.
type Impl struct {
	IsUnsafe             bool     `json:"is_unsafe"`
	Generics             Generics `json:"generics"`
	ProvidedTraitMethods []string `json:"provided_trait_methods"`
	Trait                Type     `json:"trait"`
	For                  Type     `json:"for"`
	Items                []Id     `json:"items"`
	Negative             bool     `json:"negative"`
	Synthetic            bool     `json:"synthetic"`
	BlanketImpl          Type     `json:"blanket_impl"`
}

type Typedef struct {
	Type     Type     `json:"type"`
	Generics Generics `json:"generics"`
}

type OpaqueTy struct {
	Bounds   []GenericBound `json:"bounds"`
	Generics Generics       `json:"generics"`
}

type Static struct {
	Type    Type   `json:"type"`
	Mutable bool   `json:"mutable"`
	Expr    string `json:"expr"`
}

// ForeignType is a type declared in an `extern` block; it has no payload.
type ForeignType struct{}

// Macro is a macro_rules! definition, stored as its source text.
type Macro string

// MacroKind is the flavor of a procedural macro.
type MacroKind string

const (
	MacroBang   MacroKind = "bang"
	MacroAttr   MacroKind = "attr"
	MacroDerive MacroKind = "derive"
)

type ProcMacro struct {
	Kind MacroKind `json:"kind"`
	// Helpers are the helper attribute names a derive macro registers.
	Helpers []string `json:"helpers"`
}

// PrimitiveType is documentation for a built-in type, e.g. std's docs for
// "u32".
type PrimitiveType string

type AssocConst struct {
	Type Type `json:"type"`
	// Default is the default value expression, for trait-side items.
	Default *string `json:"default"`
}

type AssocType struct {
	Bounds []GenericBound `json:"bounds"`
	// Default is the trait-side default type, when declared.
	Default Type `json:"default"`
}

func (m *Module) itemKind() ItemKind       { return KindModule }
func (e *ExternCrate) itemKind() ItemKind  { return KindExternCrate }
func (i *Import) itemKind() ItemKind       { return KindImport }
func (s *Struct) itemKind() ItemKind       { return KindStruct }
func (u *Union) itemKind() ItemKind        { return KindUnion }
func (f *StructField) itemKind() ItemKind  { return KindStructField }
func (e *Enum) itemKind() ItemKind         { return KindEnum }
func (v *Variant) itemKind() ItemKind      { return KindVariant }
func (f *Function) itemKind() ItemKind     { return KindFunction }
func (m *Method) itemKind() ItemKind       { return KindMethod }
func (t *Trait) itemKind() ItemKind        { return KindTrait }
func (t *TraitAlias) itemKind() ItemKind   { return KindTraitAlias }
func (i *Impl) itemKind() ItemKind         { return KindImpl }
func (t *Typedef) itemKind() ItemKind      { return KindTypedef }
func (o *OpaqueTy) itemKind() ItemKind     { return KindOpaqueTy }
func (c *Constant) itemKind() ItemKind     { return KindConstant }
func (s *Static) itemKind() ItemKind       { return KindStatic }
func (f ForeignType) itemKind() ItemKind   { return KindForeignType }
func (m Macro) itemKind() ItemKind         { return KindMacro }
func (p *ProcMacro) itemKind() ItemKind    { return KindProcMacro }
func (p PrimitiveType) itemKind() ItemKind { return KindPrimitive }
func (a *AssocConst) itemKind() ItemKind   { return KindAssocConst }
func (a *AssocType) itemKind() ItemKind    { return KindAssocType }

func (m *Module) itemInner()       {}
func (e *ExternCrate) itemInner()  {}
func (i *Import) itemInner()       {}
func (s *Struct) itemInner()       {}
func (u *Union) itemInner()        {}
func (f *StructField) itemInner()  {}
func (e *Enum) itemInner()         {}
func (v *Variant) itemInner()      {}
func (f *Function) itemInner()     {}
func (m *Method) itemInner()       {}
func (t *Trait) itemInner()        {}
func (t *TraitAlias) itemInner()   {}
func (i *Impl) itemInner()         {}
func (t *Typedef) itemInner()      {}
func (o *OpaqueTy) itemInner()     {}
func (c *Constant) itemInner()     {}
func (s *Static) itemInner()       {}
func (f ForeignType) itemInner()   {}
func (m Macro) itemInner()         {}
func (p *ProcMacro) itemInner()    {}
func (p PrimitiveType) itemInner() {}
func (a *AssocConst) itemInner()   {}
func (a *AssocType) itemInner()    {}

type variantJSON struct {
	Kind  VariantKind     `json:"variant_kind"`
	Inner json.RawMessage `json:"variant_inner,omitempty"`
}

func (v *Variant) MarshalJSON() ([]byte, error) {
	out := variantJSON{Kind: v.Kind}
	switch v.Kind {
	case VariantPlain:
	case VariantTuple:
		raw, err := json.Marshal(v.Tuple)
		if err != nil {
			return nil, err
		}
		out.Inner = raw
	case VariantStruct:
		raw, err := json.Marshal(v.Fields)
		if err != nil {
			return nil, err
		}
		out.Inner = raw
	default:
		return nil, fmt.Errorf("unknown variant kind %q", v.Kind)
	}
	return json.Marshal(out)
}

func (v *Variant) UnmarshalJSON(data []byte) error {
	var raw variantJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = Variant{Kind: raw.Kind}
	switch raw.Kind {
	case VariantPlain:
		return nil
	case VariantTuple:
		types, err := unmarshalTypeSlice(raw.Inner)
		if err != nil {
			return fmt.Errorf("tuple variant: %w", err)
		}
		v.Tuple = types
		return nil
	case VariantStruct:
		return json.Unmarshal(raw.Inner, &v.Fields)
	}
	return fmt.Errorf("unknown variant kind %q", raw.Kind)
}

func (d FnDecl) MarshalJSON() ([]byte, error) {
	inputs := make([][2]any, len(d.Inputs))
	for i, in := range d.Inputs {
		inputs[i] = [2]any{in.Name, in.Type}
	}
	return json.Marshal(struct {
		Inputs    [][2]any `json:"inputs"`
		Output    Type     `json:"output"`
		CVariadic bool     `json:"c_variadic"`
	}{inputs, d.Output, d.CVariadic})
}

func (d *FnDecl) UnmarshalJSON(data []byte) error {
	var raw struct {
		Inputs    [][]json.RawMessage `json:"inputs"`
		Output    json.RawMessage     `json:"output"`
		CVariadic bool                `json:"c_variadic"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	inputs := make([]FnInput, len(raw.Inputs))
	for i, pair := range raw.Inputs {
		if len(pair) != 2 {
			return fmt.Errorf("fn input %d: expected [name, type] pair, got %d elements", i, len(pair))
		}
		if err := json.Unmarshal(pair[0], &inputs[i].Name); err != nil {
			return fmt.Errorf("fn input %d name: %w", i, err)
		}
		typ, err := UnmarshalType(pair[1])
		if err != nil {
			return fmt.Errorf("fn input %d: %w", i, err)
		}
		inputs[i].Type = typ
	}
	output, err := unmarshalNullableType(raw.Output)
	if err != nil {
		return fmt.Errorf("fn output: %w", err)
	}
	*d = FnDecl{Inputs: inputs, Output: output, CVariadic: raw.CVariadic}
	return nil
}

func (i *Impl) UnmarshalJSON(data []byte) error {
	var raw struct {
		IsUnsafe             bool            `json:"is_unsafe"`
		Generics             Generics        `json:"generics"`
		ProvidedTraitMethods []string        `json:"provided_trait_methods"`
		Trait                json.RawMessage `json:"trait"`
		For                  json.RawMessage `json:"for"`
		Items                []Id            `json:"items"`
		Negative             bool            `json:"negative"`
		Synthetic            bool            `json:"synthetic"`
		BlanketImpl          json.RawMessage `json:"blanket_impl"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	trait, err := unmarshalNullableType(raw.Trait)
	if err != nil {
		return fmt.Errorf("impl trait: %w", err)
	}
	target, err := UnmarshalType(raw.For)
	if err != nil {
		return fmt.Errorf("impl for: %w", err)
	}
	blanket, err := unmarshalNullableType(raw.BlanketImpl)
	if err != nil {
		return fmt.Errorf("impl blanket_impl: %w", err)
	}
	*i = Impl{
		IsUnsafe:             raw.IsUnsafe,
		Generics:             raw.Generics,
		ProvidedTraitMethods: raw.ProvidedTraitMethods,
		Trait:                trait,
		For:                  target,
		Items:                raw.Items,
		Negative:             raw.Negative,
		Synthetic:            raw.Synthetic,
		BlanketImpl:          blanket,
	}
	return nil
}

func (t *Typedef) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     json.RawMessage `json:"type"`
		Generics Generics        `json:"generics"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	typ, err := UnmarshalType(raw.Type)
	if err != nil {
		return fmt.Errorf("typedef type: %w", err)
	}
	*t = Typedef{Type: typ, Generics: raw.Generics}
	return nil
}

func (s *Static) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    json.RawMessage `json:"type"`
		Mutable bool            `json:"mutable"`
		Expr    string          `json:"expr"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	typ, err := UnmarshalType(raw.Type)
	if err != nil {
		return fmt.Errorf("static type: %w", err)
	}
	*s = Static{Type: typ, Mutable: raw.Mutable, Expr: raw.Expr}
	return nil
}

func (a *AssocConst) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    json.RawMessage `json:"type"`
		Default *string         `json:"default"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	typ, err := UnmarshalType(raw.Type)
	if err != nil {
		return fmt.Errorf("assoc const type: %w", err)
	}
	*a = AssocConst{Type: typ, Default: raw.Default}
	return nil
}

func (a *AssocType) UnmarshalJSON(data []byte) error {
	var raw struct {
		Bounds  []GenericBound  `json:"bounds"`
		Default json.RawMessage `json:"default"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	def, err := unmarshalNullableType(raw.Default)
	if err != nil {
		return fmt.Errorf("assoc type default: %w", err)
	}
	*a = AssocType{Bounds: raw.Bounds, Default: def}
	return nil
}

// marshalItemInner serializes a payload to the value stored under "inner".
// Most payloads are plain objects; struct fields unwrap to their type,
// macros and primitives to strings, and marker kinds carry nothing.
func marshalItemInner(inner ItemInner) (json.RawMessage, error) {
	switch v := inner.(type) {
	case *StructField:
		return json.Marshal(v.Type)
	case Macro:
		return json.Marshal(string(v))
	case PrimitiveType:
		return json.Marshal(string(v))
	case ForeignType:
		return nil, nil
	case *UnknownInner:
		return v.Payload, nil
	default:
		return json.Marshal(inner)
	}
}

// unmarshalItemInner decodes the payload for a kind. A recognized kind with
// a malformed payload is a structural fault that fails the whole document;
// an unrecognized kind is preserved opaquely.
func unmarshalItemInner(kind string, raw json.RawMessage) (ItemInner, error) {
	decode := func(v ItemInner) (ItemInner, error) {
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, fmt.Errorf("%s payload: %w", kind, err)
		}
		return v, nil
	}

	switch ItemKind(kind) {
	case KindModule:
		return decode(&Module{})
	case KindExternCrate:
		return decode(&ExternCrate{})
	case KindImport:
		return decode(&Import{})
	case KindStruct:
		return decode(&Struct{})
	case KindUnion:
		return decode(&Union{})
	case KindStructField:
		typ, err := UnmarshalType(raw)
		if err != nil {
			return nil, fmt.Errorf("struct_field payload: %w", err)
		}
		return &StructField{Type: typ}, nil
	case KindEnum:
		return decode(&Enum{})
	case KindVariant:
		return decode(&Variant{})
	case KindFunction:
		return decode(&Function{})
	case KindMethod:
		return decode(&Method{})
	case KindTrait:
		return decode(&Trait{})
	case KindTraitAlias:
		return decode(&TraitAlias{})
	case KindImpl:
		return decode(&Impl{})
	case KindTypedef:
		return decode(&Typedef{})
	case KindOpaqueTy:
		return decode(&OpaqueTy{})
	case KindConstant:
		return decode(&Constant{})
	case KindStatic:
		return decode(&Static{})
	case KindForeignType:
		return ForeignType{}, nil
	case KindMacro:
		var src string
		if err := json.Unmarshal(raw, &src); err != nil {
			return nil, fmt.Errorf("macro payload: %w", err)
		}
		return Macro(src), nil
	case KindProcMacro:
		return decode(&ProcMacro{})
	case KindPrimitive:
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, fmt.Errorf("primitive payload: %w", err)
		}
		return PrimitiveType(name), nil
	case KindAssocConst:
		return decode(&AssocConst{})
	case KindAssocType:
		return decode(&AssocType{})
	default:
		return &UnknownInner{RawKind: kind, Payload: raw}, nil
	}
}
