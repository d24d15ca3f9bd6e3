package rustdoc

import (
	"encoding/json"
	"fmt"
)

// TypeKind is the discriminant naming a Type variant. The string values are
// part of the wire format.
type TypeKind string

const (
	TypeKindResolvedPath    TypeKind = "resolved_path"
	TypeKindGeneric         TypeKind = "generic"
	TypeKindPrimitive       TypeKind = "primitive"
	TypeKindFunctionPointer TypeKind = "function_pointer"
	TypeKindTuple           TypeKind = "tuple"
	TypeKindSlice           TypeKind = "slice"
	TypeKindArray           TypeKind = "array"
	TypeKindImplTrait       TypeKind = "impl_trait"
	TypeKindInfer           TypeKind = "infer"
	TypeKindRawPointer      TypeKind = "raw_pointer"
	TypeKindBorrowedRef     TypeKind = "borrowed_ref"
	TypeKindQualifiedPath   TypeKind = "qualified_path"
)

// Type is the closed union of type expressions. Variants nest arbitrarily
// deep (Vec<Box<dyn Fn(&T) -> Option<U>>> is one Type value); there is no
// depth limit beyond the host stack.
//
// On the wire a type is adjacently tagged: {"kind": "slice", "inner": ...}.
// Variants without a payload omit "inner". Consumers switching on the
// concrete type must handle UnknownType, the forward-compat escape hatch
// for variants added after this package was built.
type Type interface {
	TypeKind() TypeKind
	typeExpr()
}

// ResolvedPath is a reference to a named struct, enum, trait, union or
// typedef. The Id resolves through Crate.Index or Crate.Paths.
type ResolvedPath struct {
	Name string       `json:"name"`
	ID   Id           `json:"id"`
	Args *GenericArgs `json:"args"`
	// ParamNames carries the bounds of a trait object
	// (dyn Trait + Send + 'static).
	ParamNames []GenericBound `json:"param_names"`
}

// Generic is a reference to an in-scope generic parameter, e.g. "T" or
// "Self".
type Generic string

// Primitive is a built-in type name, e.g. "u32" or "str".
type Primitive string

// FunctionPointer is a bare fn type, e.g. `fn(u32) -> bool`.
type FunctionPointer struct {
	Decl FnDecl `json:"decl"`
	// GenericParams holds higher-rank parameters (`for<'a> fn(&'a str)`).
	GenericParams []GenericParamDef `json:"generic_params"`
	Header        Header            `json:"header"`
}

// Tuple is an ordered list of element types; the empty tuple is unit.
type Tuple []Type

// Slice is an unsized element sequence `[T]`.
type Slice struct {
	Elem Type
}

// Array is a fixed-size sequence `[T; N]`. Len is the length expression as
// written in source, not an evaluated number.
type Array struct {
	Elem Type   `json:"type"`
	Len  string `json:"len"`
}

// ImplTrait is an `impl Bound + Bound` opaque type position.
type ImplTrait []GenericBound

// Infer is the `_` inference placeholder.
type Infer struct{}

// RawPointer is `*const T` / `*mut T`.
type RawPointer struct {
	Mutable bool `json:"mutable"`
	Pointee Type `json:"type"`
}

// BorrowedRef is `&'a mut T`.
type BorrowedRef struct {
	Lifetime *string `json:"lifetime"`
	Mutable  bool    `json:"mutable"`
	Referent Type    `json:"type"`
}

// QualifiedPath is an associated-type projection `<Self as Trait>::Name`.
// SelfType and Trait are both full Type values, so the exact source form
// reconstructs without loss.
type QualifiedPath struct {
	Name     string `json:"name"`
	SelfType Type   `json:"self_type"`
	Trait    Type   `json:"trait"`
}

// UnknownType carries the raw payload of a type variant this package does
// not recognize, so additive format growth surfaces as "unrecognized"
// instead of a decode failure.
type UnknownType struct {
	RawKind string
	Payload json.RawMessage
}

func (t *ResolvedPath) TypeKind() TypeKind    { return TypeKindResolvedPath }
func (t Generic) TypeKind() TypeKind          { return TypeKindGeneric }
func (t Primitive) TypeKind() TypeKind        { return TypeKindPrimitive }
func (t *FunctionPointer) TypeKind() TypeKind { return TypeKindFunctionPointer }
func (t Tuple) TypeKind() TypeKind            { return TypeKindTuple }
func (t *Slice) TypeKind() TypeKind           { return TypeKindSlice }
func (t *Array) TypeKind() TypeKind           { return TypeKindArray }
func (t ImplTrait) TypeKind() TypeKind        { return TypeKindImplTrait }
func (t Infer) TypeKind() TypeKind            { return TypeKindInfer }
func (t *RawPointer) TypeKind() TypeKind      { return TypeKindRawPointer }
func (t *BorrowedRef) TypeKind() TypeKind     { return TypeKindBorrowedRef }
func (t *QualifiedPath) TypeKind() TypeKind   { return TypeKindQualifiedPath }
func (t *UnknownType) TypeKind() TypeKind     { return TypeKind(t.RawKind) }

func (t *ResolvedPath) typeExpr()    {}
func (t Generic) typeExpr()          {}
func (t Primitive) typeExpr()        {}
func (t *FunctionPointer) typeExpr() {}
func (t Tuple) typeExpr()            {}
func (t *Slice) typeExpr()           {}
func (t *Array) typeExpr()           {}
func (t ImplTrait) typeExpr()        {}
func (t Infer) typeExpr()            {}
func (t *RawPointer) typeExpr()      {}
func (t *BorrowedRef) typeExpr()     {}
func (t *QualifiedPath) typeExpr()   {}
func (t *UnknownType) typeExpr()     {}

type typeEnvelope struct {
	Kind  TypeKind        `json:"kind"`
	Inner json.RawMessage `json:"inner,omitempty"`
}

func marshalTypeEnvelope(kind TypeKind, inner any) ([]byte, error) {
	raw, err := json.Marshal(inner)
	if err != nil {
		return nil, err
	}
	return json.Marshal(typeEnvelope{Kind: kind, Inner: raw})
}

// resolvedPathJSON and the aliases below exist to marshal payload bodies
// without re-entering the variant's envelope MarshalJSON.
type resolvedPathJSON ResolvedPath

func (t *ResolvedPath) MarshalJSON() ([]byte, error) {
	return marshalTypeEnvelope(TypeKindResolvedPath, (*resolvedPathJSON)(t))
}

func (t Generic) MarshalJSON() ([]byte, error) {
	return marshalTypeEnvelope(TypeKindGeneric, string(t))
}

func (t Primitive) MarshalJSON() ([]byte, error) {
	return marshalTypeEnvelope(TypeKindPrimitive, string(t))
}

type functionPointerJSON FunctionPointer

func (t *FunctionPointer) MarshalJSON() ([]byte, error) {
	return marshalTypeEnvelope(TypeKindFunctionPointer, (*functionPointerJSON)(t))
}

func (t Tuple) MarshalJSON() ([]byte, error) {
	return marshalTypeEnvelope(TypeKindTuple, []Type(t))
}

func (t *Slice) MarshalJSON() ([]byte, error) {
	return marshalTypeEnvelope(TypeKindSlice, t.Elem)
}

type arrayJSON Array

func (t *Array) MarshalJSON() ([]byte, error) {
	return marshalTypeEnvelope(TypeKindArray, (*arrayJSON)(t))
}

func (t ImplTrait) MarshalJSON() ([]byte, error) {
	return marshalTypeEnvelope(TypeKindImplTrait, []GenericBound(t))
}

func (t Infer) MarshalJSON() ([]byte, error) {
	return json.Marshal(typeEnvelope{Kind: TypeKindInfer})
}

type rawPointerJSON RawPointer

func (t *RawPointer) MarshalJSON() ([]byte, error) {
	return marshalTypeEnvelope(TypeKindRawPointer, (*rawPointerJSON)(t))
}

type borrowedRefJSON BorrowedRef

func (t *BorrowedRef) MarshalJSON() ([]byte, error) {
	return marshalTypeEnvelope(TypeKindBorrowedRef, (*borrowedRefJSON)(t))
}

type qualifiedPathJSON QualifiedPath

func (t *QualifiedPath) MarshalJSON() ([]byte, error) {
	return marshalTypeEnvelope(TypeKindQualifiedPath, (*qualifiedPathJSON)(t))
}

func (t *UnknownType) MarshalJSON() ([]byte, error) {
	return json.Marshal(typeEnvelope{Kind: TypeKind(t.RawKind), Inner: t.Payload})
}

// UnmarshalType decodes one type expression. A recognized kind whose payload
// has the wrong shape is a structural fault; an unrecognized kind decodes as
// UnknownType.
func UnmarshalType(data []byte) (Type, error) {
	var env typeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("type expression: %w", err)
	}
	if env.Kind == "" {
		return nil, fmt.Errorf("type expression has no kind")
	}

	fail := func(err error) (Type, error) {
		return nil, fmt.Errorf("type %s payload: %w", env.Kind, err)
	}

	switch env.Kind {
	case TypeKindResolvedPath:
		var t resolvedPathJSON
		if err := json.Unmarshal(env.Inner, &t); err != nil {
			return fail(err)
		}
		return (*ResolvedPath)(&t), nil
	case TypeKindGeneric:
		var name string
		if err := json.Unmarshal(env.Inner, &name); err != nil {
			return fail(err)
		}
		return Generic(name), nil
	case TypeKindPrimitive:
		var name string
		if err := json.Unmarshal(env.Inner, &name); err != nil {
			return fail(err)
		}
		return Primitive(name), nil
	case TypeKindFunctionPointer:
		var t functionPointerJSON
		if err := json.Unmarshal(env.Inner, &t); err != nil {
			return fail(err)
		}
		return (*FunctionPointer)(&t), nil
	case TypeKindTuple:
		elems, err := unmarshalTypeSlice(env.Inner)
		if err != nil {
			return fail(err)
		}
		return Tuple(elems), nil
	case TypeKindSlice:
		elem, err := UnmarshalType(env.Inner)
		if err != nil {
			return fail(err)
		}
		return &Slice{Elem: elem}, nil
	case TypeKindArray:
		var raw struct {
			Elem json.RawMessage `json:"type"`
			Len  string          `json:"len"`
		}
		if err := json.Unmarshal(env.Inner, &raw); err != nil {
			return fail(err)
		}
		elem, err := UnmarshalType(raw.Elem)
		if err != nil {
			return fail(err)
		}
		return &Array{Elem: elem, Len: raw.Len}, nil
	case TypeKindImplTrait:
		var bounds []GenericBound
		if err := json.Unmarshal(env.Inner, &bounds); err != nil {
			return fail(err)
		}
		return ImplTrait(bounds), nil
	case TypeKindInfer:
		return Infer{}, nil
	case TypeKindRawPointer:
		var raw struct {
			Mutable bool            `json:"mutable"`
			Pointee json.RawMessage `json:"type"`
		}
		if err := json.Unmarshal(env.Inner, &raw); err != nil {
			return fail(err)
		}
		pointee, err := UnmarshalType(raw.Pointee)
		if err != nil {
			return fail(err)
		}
		return &RawPointer{Mutable: raw.Mutable, Pointee: pointee}, nil
	case TypeKindBorrowedRef:
		var raw struct {
			Lifetime *string         `json:"lifetime"`
			Mutable  bool            `json:"mutable"`
			Referent json.RawMessage `json:"type"`
		}
		if err := json.Unmarshal(env.Inner, &raw); err != nil {
			return fail(err)
		}
		referent, err := UnmarshalType(raw.Referent)
		if err != nil {
			return fail(err)
		}
		return &BorrowedRef{Lifetime: raw.Lifetime, Mutable: raw.Mutable, Referent: referent}, nil
	case TypeKindQualifiedPath:
		var raw struct {
			Name     string          `json:"name"`
			SelfType json.RawMessage `json:"self_type"`
			Trait    json.RawMessage `json:"trait"`
		}
		if err := json.Unmarshal(env.Inner, &raw); err != nil {
			return fail(err)
		}
		selfType, err := UnmarshalType(raw.SelfType)
		if err != nil {
			return fail(err)
		}
		trait, err := UnmarshalType(raw.Trait)
		if err != nil {
			return fail(err)
		}
		return &QualifiedPath{Name: raw.Name, SelfType: selfType, Trait: trait}, nil
	default:
		return &UnknownType{RawKind: string(env.Kind), Payload: env.Inner}, nil
	}
}

// unmarshalNullableType decodes a Type field that may legitimately be null
// (e.g. a function's unit return). Returns nil for null.
func unmarshalNullableType(raw json.RawMessage) (Type, error) {
	if isNull(raw) {
		return nil, nil
	}
	return UnmarshalType(raw)
}

func unmarshalTypeSlice(raw json.RawMessage) ([]Type, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, err
	}
	out := make([]Type, len(elems))
	for i, e := range elems {
		t, err := UnmarshalType(e)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
