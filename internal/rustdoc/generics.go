package rustdoc

import (
	"encoding/json"
	"fmt"
)

// Generics declares an item's generic parameters and where-clauses. Params
// order is declaration order and round-trips exactly; positional generic
// arguments downstream depend on it. Where-predicates are a flat ordered
// list with no deduplication against the params' own bounds — whatever the
// producer emitted is what this layer keeps.
type Generics struct {
	Params          []GenericParamDef `json:"params"`
	WherePredicates []WherePredicate  `json:"where_predicates"`
}

// GenericParamDef is one declared parameter: a name plus a lifetime, type,
// or const payload.
type GenericParamDef struct {
	Name string           `json:"name"`
	Kind GenericParamKind `json:"kind"`
}

// GenericParamKind holds exactly one of the three parameter payloads. On
// the wire it is a single-key object naming the arm.
type GenericParamKind struct {
	Lifetime *LifetimeParam
	Type     *TypeParam
	Const    *ConstParam
}

// LifetimeParam declares a lifetime, e.g. `'a: 'b + 'c`.
type LifetimeParam struct {
	Outlives []string `json:"outlives"`
}

// TypeParam declares a type parameter. Synthetic marks parameters the
// compiler introduced itself, such as desugared `impl Trait` arguments;
// consumers may hide synthetic parameters from rendered signatures but must
// not reject them.
type TypeParam struct {
	Bounds    []GenericBound `json:"bounds"`
	Default   Type           `json:"default"`
	Synthetic bool           `json:"synthetic"`
}

// ConstParam declares a const parameter, e.g. `const N: usize`.
type ConstParam struct {
	Type    Type    `json:"type"`
	Default *string `json:"default"`
}

func (k GenericParamKind) MarshalJSON() ([]byte, error) {
	switch {
	case k.Lifetime != nil:
		return json.Marshal(map[string]*LifetimeParam{"lifetime": k.Lifetime})
	case k.Type != nil:
		return json.Marshal(map[string]*TypeParam{"type": k.Type})
	case k.Const != nil:
		return json.Marshal(map[string]*ConstParam{"const": k.Const})
	}
	return nil, fmt.Errorf("generic param kind has no payload")
}

func (k *GenericParamKind) UnmarshalJSON(data []byte) error {
	arm, raw, err := unionArm(data, "generic param kind")
	if err != nil {
		return err
	}
	*k = GenericParamKind{}
	switch arm {
	case "lifetime":
		k.Lifetime = new(LifetimeParam)
		return json.Unmarshal(raw, k.Lifetime)
	case "type":
		k.Type = new(TypeParam)
		return json.Unmarshal(raw, k.Type)
	case "const":
		k.Const = new(ConstParam)
		return json.Unmarshal(raw, k.Const)
	}
	return fmt.Errorf("unknown generic param kind %q", arm)
}

func (p *TypeParam) UnmarshalJSON(data []byte) error {
	var raw struct {
		Bounds    []GenericBound  `json:"bounds"`
		Default   json.RawMessage `json:"default"`
		Synthetic bool            `json:"synthetic"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	def, err := unmarshalNullableType(raw.Default)
	if err != nil {
		return fmt.Errorf("type param default: %w", err)
	}
	*p = TypeParam{Bounds: raw.Bounds, Default: def, Synthetic: raw.Synthetic}
	return nil
}

func (p *ConstParam) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    json.RawMessage `json:"type"`
		Default *string         `json:"default"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	typ, err := UnmarshalType(raw.Type)
	if err != nil {
		return fmt.Errorf("const param type: %w", err)
	}
	*p = ConstParam{Type: typ, Default: raw.Default}
	return nil
}

// WherePredicate is one clause of a where-list: exactly one of the three
// predicate forms.
type WherePredicate struct {
	BoundPredicate  *BoundPredicate
	RegionPredicate *RegionPredicate
	EqPredicate     *EqPredicate
}

// BoundPredicate constrains a type: `where T: Clone`.
type BoundPredicate struct {
	Type   Type           `json:"type"`
	Bounds []GenericBound `json:"bounds"`
}

// RegionPredicate constrains a lifetime: `where 'a: 'b`.
type RegionPredicate struct {
	Lifetime string         `json:"lifetime"`
	Bounds   []GenericBound `json:"bounds"`
}

// EqPredicate equates an associated item with a term: `where T::Out = u32`.
type EqPredicate struct {
	Lhs Type `json:"lhs"`
	Rhs Term `json:"rhs"`
}

func (p WherePredicate) MarshalJSON() ([]byte, error) {
	switch {
	case p.BoundPredicate != nil:
		return json.Marshal(map[string]*BoundPredicate{"bound_predicate": p.BoundPredicate})
	case p.RegionPredicate != nil:
		return json.Marshal(map[string]*RegionPredicate{"region_predicate": p.RegionPredicate})
	case p.EqPredicate != nil:
		return json.Marshal(map[string]*EqPredicate{"eq_predicate": p.EqPredicate})
	}
	return nil, fmt.Errorf("where predicate has no payload")
}

func (p *WherePredicate) UnmarshalJSON(data []byte) error {
	arm, raw, err := unionArm(data, "where predicate")
	if err != nil {
		return err
	}
	*p = WherePredicate{}
	switch arm {
	case "bound_predicate":
		p.BoundPredicate = new(BoundPredicate)
		return json.Unmarshal(raw, p.BoundPredicate)
	case "region_predicate":
		p.RegionPredicate = new(RegionPredicate)
		return json.Unmarshal(raw, p.RegionPredicate)
	case "eq_predicate":
		p.EqPredicate = new(EqPredicate)
		return json.Unmarshal(raw, p.EqPredicate)
	}
	return fmt.Errorf("unknown where predicate %q", arm)
}

func (p *BoundPredicate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   json.RawMessage `json:"type"`
		Bounds []GenericBound  `json:"bounds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	typ, err := UnmarshalType(raw.Type)
	if err != nil {
		return fmt.Errorf("bound predicate type: %w", err)
	}
	*p = BoundPredicate{Type: typ, Bounds: raw.Bounds}
	return nil
}

func (p *EqPredicate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lhs json.RawMessage `json:"lhs"`
		Rhs Term            `json:"rhs"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	lhs, err := UnmarshalType(raw.Lhs)
	if err != nil {
		return fmt.Errorf("eq predicate lhs: %w", err)
	}
	*p = EqPredicate{Lhs: lhs, Rhs: raw.Rhs}
	return nil
}

// TraitBoundModifier is the `?`/`~const` prefix on a trait bound.
type TraitBoundModifier string

const (
	ModifierNone       TraitBoundModifier = "none"
	ModifierMaybe      TraitBoundModifier = "maybe"
	ModifierMaybeConst TraitBoundModifier = "maybe_const"
)

// GenericBound constrains a parameter or opaque type: a trait bound or an
// outlives ('a) bound.
type GenericBound struct {
	TraitBound *TraitBound
	Outlives   *string
}

// TraitBound is `Trait<Args>`, optionally higher-ranked
// (`for<'a> Trait<'a>`) and optionally modified (`?Sized`).
type TraitBound struct {
	Trait         Type               `json:"trait"`
	GenericParams []GenericParamDef  `json:"generic_params"`
	Modifier      TraitBoundModifier `json:"modifier"`
}

func (b GenericBound) MarshalJSON() ([]byte, error) {
	switch {
	case b.TraitBound != nil:
		return json.Marshal(map[string]*TraitBound{"trait_bound": b.TraitBound})
	case b.Outlives != nil:
		return json.Marshal(map[string]string{"outlives": *b.Outlives})
	}
	return nil, fmt.Errorf("generic bound has no payload")
}

func (b *GenericBound) UnmarshalJSON(data []byte) error {
	arm, raw, err := unionArm(data, "generic bound")
	if err != nil {
		return err
	}
	*b = GenericBound{}
	switch arm {
	case "trait_bound":
		b.TraitBound = new(TraitBound)
		return json.Unmarshal(raw, b.TraitBound)
	case "outlives":
		b.Outlives = new(string)
		return json.Unmarshal(raw, b.Outlives)
	}
	return fmt.Errorf("unknown generic bound %q", arm)
}

func (b *TraitBound) UnmarshalJSON(data []byte) error {
	var raw struct {
		Trait         json.RawMessage    `json:"trait"`
		GenericParams []GenericParamDef  `json:"generic_params"`
		Modifier      TraitBoundModifier `json:"modifier"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	trait, err := UnmarshalType(raw.Trait)
	if err != nil {
		return fmt.Errorf("trait bound: %w", err)
	}
	*b = TraitBound{Trait: trait, GenericParams: raw.GenericParams, Modifier: raw.Modifier}
	return nil
}

// GenericArgs is the argument list attached to a path. The two syntactic
// forms — angle-bracketed `<T, U = V>` and parenthesized `Fn(A) -> B` — are
// distinct arms and are never normalized into one another.
type GenericArgs struct {
	AngleBracketed *AngleBracketedArgs
	Parenthesized  *ParenthesizedArgs
}

// AngleBracketedArgs is `<'a, T, N, Assoc = U>`: positional args plus
// associated-item bindings.
type AngleBracketedArgs struct {
	Args     []GenericArg  `json:"args"`
	Bindings []TypeBinding `json:"bindings"`
}

// ParenthesizedArgs is the `Fn(A, B) -> C` sugar form.
type ParenthesizedArgs struct {
	Inputs []Type `json:"inputs"`
	Output Type   `json:"output"`
}

func (a GenericArgs) MarshalJSON() ([]byte, error) {
	switch {
	case a.AngleBracketed != nil:
		return json.Marshal(map[string]*AngleBracketedArgs{"angle_bracketed": a.AngleBracketed})
	case a.Parenthesized != nil:
		return json.Marshal(map[string]*ParenthesizedArgs{"parenthesized": a.Parenthesized})
	}
	return nil, fmt.Errorf("generic args has no payload")
}

func (a *GenericArgs) UnmarshalJSON(data []byte) error {
	arm, raw, err := unionArm(data, "generic args")
	if err != nil {
		return err
	}
	*a = GenericArgs{}
	switch arm {
	case "angle_bracketed":
		a.AngleBracketed = new(AngleBracketedArgs)
		return json.Unmarshal(raw, a.AngleBracketed)
	case "parenthesized":
		a.Parenthesized = new(ParenthesizedArgs)
		return json.Unmarshal(raw, a.Parenthesized)
	}
	return fmt.Errorf("unknown generic args form %q", arm)
}

func (a *ParenthesizedArgs) UnmarshalJSON(data []byte) error {
	var raw struct {
		Inputs []json.RawMessage `json:"inputs"`
		Output json.RawMessage   `json:"output"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	inputs := make([]Type, len(raw.Inputs))
	for i, in := range raw.Inputs {
		typ, err := UnmarshalType(in)
		if err != nil {
			return fmt.Errorf("parenthesized input %d: %w", i, err)
		}
		inputs[i] = typ
	}
	output, err := unmarshalNullableType(raw.Output)
	if err != nil {
		return fmt.Errorf("parenthesized output: %w", err)
	}
	*a = ParenthesizedArgs{Inputs: inputs, Output: output}
	return nil
}

// GenericArg is one positional argument: a lifetime, a type, or a const
// value.
type GenericArg struct {
	Lifetime *string
	Type     Type
	Const    *Constant
}

func (a GenericArg) MarshalJSON() ([]byte, error) {
	switch {
	case a.Lifetime != nil:
		return json.Marshal(map[string]string{"lifetime": *a.Lifetime})
	case a.Type != nil:
		return json.Marshal(map[string]Type{"type": a.Type})
	case a.Const != nil:
		return json.Marshal(map[string]*Constant{"const": a.Const})
	}
	return nil, fmt.Errorf("generic arg has no payload")
}

func (a *GenericArg) UnmarshalJSON(data []byte) error {
	arm, raw, err := unionArm(data, "generic arg")
	if err != nil {
		return err
	}
	*a = GenericArg{}
	switch arm {
	case "lifetime":
		a.Lifetime = new(string)
		return json.Unmarshal(raw, a.Lifetime)
	case "type":
		typ, err := UnmarshalType(raw)
		if err != nil {
			return err
		}
		a.Type = typ
		return nil
	case "const":
		a.Const = new(Constant)
		return json.Unmarshal(raw, a.Const)
	}
	return fmt.Errorf("unknown generic arg %q", arm)
}

// TypeBinding is an associated-item binding inside angle brackets, either
// `Assoc = T` or `Assoc: Bounds`.
type TypeBinding struct {
	Name    string          `json:"name"`
	Binding TypeBindingKind `json:"binding"`
}

// TypeBindingKind is the binding form: an equality to a term or a
// constraint by bounds.
type TypeBindingKind struct {
	Equality   *Term
	Constraint []GenericBound
}

func (k TypeBindingKind) MarshalJSON() ([]byte, error) {
	switch {
	case k.Equality != nil:
		return json.Marshal(map[string]*Term{"equality": k.Equality})
	case k.Constraint != nil:
		return json.Marshal(map[string][]GenericBound{"constraint": k.Constraint})
	}
	return nil, fmt.Errorf("type binding has no payload")
}

func (k *TypeBindingKind) UnmarshalJSON(data []byte) error {
	arm, raw, err := unionArm(data, "type binding")
	if err != nil {
		return err
	}
	*k = TypeBindingKind{}
	switch arm {
	case "equality":
		k.Equality = new(Term)
		return json.Unmarshal(raw, k.Equality)
	case "constraint":
		return json.Unmarshal(raw, &k.Constraint)
	}
	return fmt.Errorf("unknown type binding %q", arm)
}

// Term is the right-hand side of an equality constraint: a type or a const
// value, since `Assoc = X` may bind either.
type Term struct {
	Type     Type
	Constant *Constant
}

func (t Term) MarshalJSON() ([]byte, error) {
	switch {
	case t.Type != nil:
		return json.Marshal(map[string]Type{"type": t.Type})
	case t.Constant != nil:
		return json.Marshal(map[string]*Constant{"constant": t.Constant})
	}
	return nil, fmt.Errorf("term has no payload")
}

func (t *Term) UnmarshalJSON(data []byte) error {
	arm, raw, err := unionArm(data, "term")
	if err != nil {
		return err
	}
	*t = Term{}
	switch arm {
	case "type":
		typ, err := UnmarshalType(raw)
		if err != nil {
			return err
		}
		t.Type = typ
		return nil
	case "constant":
		t.Constant = new(Constant)
		return json.Unmarshal(raw, t.Constant)
	}
	return fmt.Errorf("unknown term %q", arm)
}

// Constant pairs a type with the source expression that produced it. Value
// is the evaluated literal when the producer could compute one.
type Constant struct {
	Type      Type    `json:"type"`
	Expr      string  `json:"expr"`
	Value     *string `json:"value"`
	IsLiteral bool    `json:"is_literal"`
}

func (c *Constant) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type      json.RawMessage `json:"type"`
		Expr      string          `json:"expr"`
		Value     *string         `json:"value"`
		IsLiteral bool            `json:"is_literal"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	typ, err := UnmarshalType(raw.Type)
	if err != nil {
		return fmt.Errorf("constant type: %w", err)
	}
	*c = Constant{Type: typ, Expr: raw.Expr, Value: raw.Value, IsLiteral: raw.IsLiteral}
	return nil
}

// unionArm decodes a single-key union object, returning the arm name and
// its raw payload. Zero or multiple keys is a structural fault.
func unionArm(data []byte, what string) (string, json.RawMessage, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return "", nil, fmt.Errorf("%s: %w", what, err)
	}
	if len(outer) != 1 {
		return "", nil, fmt.Errorf("%s: expected exactly one variant key, got %d", what, len(outer))
	}
	for arm, raw := range outer {
		return arm, raw, nil
	}
	panic("unreachable")
}
