// Package types models the slice of the type-checker's world the
// interpreter needs: monomorphic and generic types, substitutions, and the
// Context interface through which the driver's type-checker collaborator
// is consumed. Nothing here does type *checking* — only the
// bookkeeping the interpreter needs to lower a type to a Repr and to
// resolve trait calls.
package types

import "fmt"

// DefID names a top-level item (function, trait, impl, struct/enum) the
// way the front-end's type-checker names it. NodeID names an item local
// to the current crate; the interpreter never constructs either, only
// threads them through from the IR it's given.
type DefID uint64
type NodeID uint64

// Kind tags the shape of a Ty.
type Kind int

const (
	Bool Kind = iota
	Int8
	Int16
	Int32
	Int64
	Isize
	Uint8
	Uint16
	Uint32
	Uint64
	Usize
	Tuple
	Adt
	Array
	Slice // an unsized sequence; only ever appears behind Ref/RawPtr/Box
	Ref
	RawPtr
	Box
	Closure
	Param      // an unsubstituted generic parameter
	Projection // an associated-type projection awaiting normalisation
)

// AdtDef is a struct or enum definition: one or more variants, each an
// ordered list of field types. A struct (or tuple, or closure upvar list)
// is modelled as an Adt/Tuple/Closure with exactly one variant.
type AdtDef struct {
	Name     string
	Variants []VariantDef
}

type VariantDef struct {
	Name   string
	Fields []Ty
}

// ParamTy identifies a generic parameter by its position in the enclosing
// item's parameter list, for Substs to index by.
type ParamTy struct {
	Index int
	Name  string
}

// ProjectionTy is an associated-type projection, e.g. `<T as Trait>::Assoc`,
// not yet normalised to a concrete type.
type ProjectionTy struct {
	TraitID DefID
	Self    Ty
	Assoc   string
}

// Ty is a (possibly generic) type. Only the fields relevant to Kind are
// meaningful; this mirrors the original source's single `ty::Ty` enum
// rather than introducing one Go type per variant, since the interpreter
// always dispatches on Kind anyway (see Repr's own layout in internal/repr).
type Ty struct {
	Kind    Kind
	Elem    *Ty          // Ref, RawPtr, Box, Array: pointee/element type
	Len     int          // Array: element count
	Fields  []Ty         // Tuple, Closure: field/upvar types in order
	Adt     *AdtDef      // Adt: struct/enum definition
	AdtArgs []Ty         // Adt: type arguments substituted into Adt's fields
	Param   ParamTy      // Param
	Proj    *ProjectionTy // Projection
}

func (t Ty) String() string {
	switch t.Kind {
	case Bool:
		return "bool"
	case Int8, Int16, Int32, Int64, Isize:
		return fmt.Sprintf("i%v", t.widthLabel())
	case Uint8, Uint16, Uint32, Uint64, Usize:
		return fmt.Sprintf("u%v", t.widthLabel())
	case Tuple:
		return "tuple"
	case Adt:
		if t.Adt != nil {
			return t.Adt.Name
		}
		return "adt"
	case Array:
		return fmt.Sprintf("[%v; %d]", t.Elem, t.Len)
	case Slice:
		return fmt.Sprintf("[%v]", t.Elem)
	case Ref:
		return fmt.Sprintf("&%v", t.Elem)
	case RawPtr:
		return fmt.Sprintf("*%v", t.Elem)
	case Box:
		return fmt.Sprintf("Box<%v>", t.Elem)
	case Closure:
		return "closure"
	case Param:
		return t.Param.Name
	case Projection:
		return "<projection>"
	default:
		return "?"
	}
}

func (t Ty) widthLabel() string {
	switch t.Kind {
	case Int8, Uint8:
		return "8"
	case Int16, Uint16:
		return "16"
	case Int32, Uint32:
		return "32"
	case Int64, Uint64:
		return "64"
	default:
		return "size"
	}
}

// Substs is a flat, positional substitution context: Types[i] replaces
// Param{Index: i} wherever it's found. Kept as a single flat list rather
// than rustc's FnSpace/TypeSpace split since this tier never distinguishes
// impl-level from method-level generics except when merging them in trait
// resolution (internal/traitresolve), which does its own concatenation.
type Substs struct {
	Types []Ty
}

// Empty is the substitution context for non-generic code, matching the
// original source's `Substs::empty()` used when no frame has pushed one.
var Empty = &Substs{}

// Subst replaces every Param in ty with its corresponding entry in s,
// recursing through compound types. It does not normalise associated-type
// projections; call Context.NormalizeAssoc after.
func Subst(ty Ty, s *Substs) Ty {
	switch ty.Kind {
	case Param:
		if s != nil && ty.Param.Index < len(s.Types) {
			return s.Types[ty.Param.Index]
		}
		return ty
	case Tuple, Closure:
		fields := make([]Ty, len(ty.Fields))
		for i, f := range ty.Fields {
			fields[i] = Subst(f, s)
		}
		return Ty{Kind: ty.Kind, Fields: fields}
	case Array:
		elem := Subst(*ty.Elem, s)
		return Ty{Kind: Array, Elem: &elem, Len: ty.Len}
	case Slice:
		elem := Subst(*ty.Elem, s)
		return Ty{Kind: Slice, Elem: &elem}
	case Ref, RawPtr, Box:
		elem := Subst(*ty.Elem, s)
		return Ty{Kind: ty.Kind, Elem: &elem}
	case Adt:
		args := make([]Ty, len(ty.AdtArgs))
		for i, a := range ty.AdtArgs {
			args[i] = Subst(a, s)
		}
		return Ty{Kind: Adt, Adt: ty.Adt, AdtArgs: args}
	case Projection:
		self := Subst(ty.Proj.Self, s)
		proj := &ProjectionTy{TraitID: ty.Proj.TraitID, Self: self, Assoc: ty.Proj.Assoc}
		return Ty{Kind: Projection, Proj: proj}
	default:
		return ty
	}
}

// TraitRef names a trait obligation: the trait itself, the Self type, and
// any further type arguments the trait takes.
type TraitRef struct {
	TraitID  DefID
	Self     Ty
	TypeArgs []Ty
}

// ImplKind tags which way a trait obligation resolved.
type ImplKind int

const (
	ImplMatch ImplKind = iota
	ClosureMatch
)

// ImplResolution is the outcome of resolving a TraitRef against the
// impl database: either a concrete impl (whose method the resolver still
// has to look up by name) or a closure standing in for a Fn/FnMut/FnOnce
// bound.
type ImplResolution struct {
	Kind         ImplKind
	ImplDefID    DefID   // ImplMatch
	ImplSubsts   *Substs // ImplMatch: the impl's own type substitutions
	ClosureDefID DefID   // ClosureMatch
	ClosureSubst *Substs // ClosureMatch
}

// Context is the slice of the type-checker's world the interpreter
// consumes: the inputs a driver's type-checker collaborator supplies.
type Context interface {
	// TypeOf returns the (possibly generic) type of an item.
	TypeOf(id DefID) Ty

	// ItemName returns an item's source name, for intrinsic/trait-method
	// dispatch by name.
	ItemName(id DefID) string

	// AsLocalNodeID reports whether id names an item local to the current
	// compilation unit, and if so its NodeID in the MIR map.
	AsLocalNodeID(id DefID) (NodeID, bool)

	// IsSized reports whether ty has a statically known size (false for
	// slices/trait objects, which need a fat pointer).
	IsSized(ty Ty) bool

	// NormalizeAssoc resolves any associated-type projection in ty to a
	// concrete type, given the current substitutions were already applied.
	NormalizeAssoc(ty Ty) Ty

	// ResolveTraitImpl solves a trait obligation against the impl
	// database, the interpreter-side analogue of rustc's
	// SelectionContext::select.
	ResolveTraitImpl(ref TraitRef) (ImplResolution, bool)

	// TraitContainerOf reports the trait a method def belongs to, if any
	// (methods not on a trait, e.g. plain functions, report ok=false).
	TraitContainerOf(methodID DefID) (traitID DefID, ok bool)

	// ImplMethod looks up the concrete method def in an impl by name.
	ImplMethod(implID DefID, name string) (DefID, bool)
}
