// Package repr computes the byte layout of a (monomorphic) type: size,
// field offsets, and discriminant width. Layouts are cached by pointer so
// that layout(T) ≡ layout(T) for equal monomorphic T — the cache plays the
// role of the original source's `repr_arena`/`repr_cache` pair, simplified
// to a single owned map since Go's GC makes an arena unnecessary for
// keeping the pointers stable.
package repr

import (
	"strconv"
	"sync"

	"mirinterp/internal/primval"
	"mirinterp/internal/types"
)

// Kind tags which shape a Repr describes.
type Kind int

const (
	KindPrimitive Kind = iota
	KindAggregate
	KindArray
)

// FieldRepr is one field's position within a variant's payload, measured
// from the start of the payload (i.e. after the discriminant).
type FieldRepr struct {
	Offset int
	Size   int
}

// Repr is a type's byte layout. Only the fields relevant to Kind are
// meaningful:
//
//   - KindPrimitive: Size is the only field that matters.
//   - KindAggregate: DiscrSize (0 for a single-variant/product type) plus
//     Variants, one ordered field list per variant; Size is
//     DiscrSize + max variant field-sum, the "layout closure" invariant.
//   - KindArray: ElemSize and Length; Size = ElemSize * Length.
type Repr struct {
	Kind      Kind
	Size      int
	DiscrSize int
	Variants  [][]FieldRepr
	ElemSize  int
	Length    int

	// PrimKind/PrimWidth are set for KindPrimitive so PrimVal reads/writes
	// know which tag to use without re-deriving it from the source Ty.
	PrimKind  primval.Kind
	PrimWidth int
}

// IsProduct reports whether this aggregate has exactly one variant (a
// struct, tuple, or closure) as opposed to a true sum type.
func (r *Repr) IsProduct() bool {
	return r.Kind == KindAggregate && len(r.Variants) == 1
}

// Computer lowers types.Ty values to cached *Repr layouts. One Computer is
// shared by the whole interpreter run; PointerSize must match the Memory
// it will be used alongside.
type Computer struct {
	ctx         types.Context
	PointerSize int

	mu    sync.RWMutex
	cache map[cacheKey]*Repr
}

// cacheKey identifies a *monomorphic* type for caching purposes. Ty isn't
// comparable in general (it holds slices and pointers), so the cache keys
// on a canonical string form instead of the Ty value itself.
type cacheKey string

func NewComputer(ctx types.Context, pointerSize int) *Computer {
	return &Computer{
		ctx:         ctx,
		PointerSize: pointerSize,
		cache:       make(map[cacheKey]*Repr),
	}
}

// Layout is the monomorphisation + lowering pipeline: substitute,
// normalise associated types, then compute
// the Repr, consulting (and populating) the cache.
func (c *Computer) Layout(ty types.Ty, substs *types.Substs) *Repr {
	mono := c.ctx.NormalizeAssoc(types.Subst(ty, substs))
	key := canonicalKey(mono)

	c.mu.RLock()
	if r, ok := c.cache[key]; ok {
		c.mu.RUnlock()
		return r
	}
	c.mu.RUnlock()

	r := c.build(mono)

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.cache[key]; ok {
		// Another goroutine raced us; keep whichever was installed first
		// so pointer equality still holds for repeated lookups.
		return existing
	}
	c.cache[key] = r
	return r
}

func (c *Computer) build(ty types.Ty) *Repr {
	switch ty.Kind {
	case types.Bool:
		return &Repr{Kind: KindPrimitive, Size: 1, PrimKind: primval.KindBool, PrimWidth: 1}

	case types.Int8:
		return primitiveInt(1, true)
	case types.Int16:
		return primitiveInt(2, true)
	case types.Int32:
		return primitiveInt(4, true)
	case types.Int64:
		return primitiveInt(8, true)
	case types.Isize:
		return primitiveInt(c.PointerSize, true)

	case types.Uint8:
		return primitiveInt(1, false)
	case types.Uint16:
		return primitiveInt(2, false)
	case types.Uint32:
		return primitiveInt(4, false)
	case types.Uint64:
		return primitiveInt(8, false)
	case types.Usize:
		return primitiveInt(c.PointerSize, false)

	case types.Tuple, types.Closure:
		return c.aggregateOf([][]types.Ty{ty.Fields})

	case types.Adt:
		variants := make([][]types.Ty, len(ty.Adt.Variants))
		for i, v := range ty.Adt.Variants {
			fields := make([]types.Ty, len(v.Fields))
			for j, f := range v.Fields {
				fields[j] = types.Subst(f, &types.Substs{Types: ty.AdtArgs})
			}
			variants[i] = fields
		}
		return c.aggregateOf(variants)

	case types.Array:
		elem := c.build(*ty.Elem)
		return &Repr{Kind: KindArray, ElemSize: elem.Size, Length: ty.Len, Size: elem.Size * ty.Len}

	case types.Ref, types.RawPtr, types.Box:
		if c.ctx.IsSized(*ty.Elem) {
			return &Repr{Kind: KindPrimitive, Size: c.PointerSize, PrimKind: primval.KindUnsigned, PrimWidth: c.PointerSize}
		}
		// Fat pointer: data pointer + length/vtable word.
		return &Repr{Kind: KindPrimitive, Size: c.PointerSize * 2, PrimKind: primval.KindUnsigned, PrimWidth: c.PointerSize}

	case types.Slice:
		panic("repr: Slice has no layout of its own; only Ref/RawPtr/Box to one does")

	default:
		panic("repr: type not yet monomorphic or not lowerable: " + ty.String())
	}
}

// ProductOf builds an ephemeral single-variant aggregate Repr directly
// from already-substituted field types, bypassing the cache. It exists
// for lvalues that address a Downcast projection: there's no standalone
// monomorphic type naming "just this variant's fields", so there's
// nothing sensible to key a cache entry on — the layout cache's pointer-
// stability guarantee only promises equality for genuine monomorphic
// types, not these.
func (c *Computer) ProductOf(fieldTys []types.Ty) *Repr {
	return c.aggregateOf([][]types.Ty{fieldTys})
}

func primitiveInt(width int, signed bool) *Repr {
	kind := primval.KindUnsigned
	if signed {
		kind = primval.KindSigned
	}
	return &Repr{Kind: KindPrimitive, Size: width, PrimKind: kind, PrimWidth: width}
}

// aggregateOf builds an Aggregate Repr from each variant's ordered field
// types. Field offsets are the simple prefix sum of preceding field
// sizes — no padding or alignment in this model, a deliberate
// simplification, chosen over alignment-aware layout for how much it
// simplifies offset computation.
func (c *Computer) aggregateOf(variantFieldTys [][]types.Ty) *Repr {
	variants := make([][]FieldRepr, len(variantFieldTys))
	maxSize := 0

	for vi, fieldTys := range variantFieldTys {
		fields := make([]FieldRepr, len(fieldTys))
		offset := 0
		for fi, fty := range fieldTys {
			size := c.build(fty).Size
			fields[fi] = FieldRepr{Offset: offset, Size: size}
			offset += size
		}
		variants[vi] = fields
		if offset > maxSize {
			maxSize = offset
		}
	}

	discrSize := discriminantSize(len(variants))
	return &Repr{
		Kind:      KindAggregate,
		DiscrSize: discrSize,
		Variants:  variants,
		Size:      discrSize + maxSize,
	}
}

// discriminantSize implements the discriminant-width rule: 0 iff exactly one
// variant, otherwise the smallest power-of-two byte width that can tag
// every variant.
func discriminantSize(numVariants int) int {
	switch {
	case numVariants <= 1:
		return 0
	case numVariants <= 1<<8:
		return 1
	case numVariants <= 1<<16:
		return 2
	case uint64(numVariants) <= 1<<32:
		return 4
	default:
		return 8
	}
}

func canonicalKey(ty types.Ty) cacheKey {
	return cacheKey(canonicalize(ty))
}

func canonicalize(ty types.Ty) string {
	switch ty.Kind {
	case types.Tuple, types.Closure:
		s := "("
		for _, f := range ty.Fields {
			s += canonicalize(f) + ","
		}
		return s + ")"
	case types.Array:
		return "[" + canonicalize(*ty.Elem) + ";" + strconv.Itoa(ty.Len) + "]"
	case types.Slice:
		return "[" + canonicalize(*ty.Elem) + "]"
	case types.Ref, types.RawPtr, types.Box:
		return kindPrefix(ty.Kind) + canonicalize(*ty.Elem)
	case types.Adt:
		s := "adt:" + ty.Adt.Name + "<"
		for _, a := range ty.AdtArgs {
			s += canonicalize(a) + ","
		}
		return s + ">"
	case types.Param:
		return "param:" + strconv.Itoa(ty.Param.Index)
	case types.Projection:
		return "proj:" + canonicalize(ty.Proj.Self) + "::" + ty.Proj.Assoc
	default:
		return "prim:" + strconv.Itoa(int(ty.Kind))
	}
}

func kindPrefix(k types.Kind) string {
	switch k {
	case types.Ref:
		return "&"
	case types.RawPtr:
		return "*"
	default:
		return "box:"
	}
}
