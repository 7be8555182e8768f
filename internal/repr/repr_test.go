package repr_test

import (
	"testing"

	"mirinterp/internal/primval"
	"mirinterp/internal/repr"
	"mirinterp/internal/types"
	"mirinterp/internal/types/fixture"
)

func u8() types.Ty  { return types.Ty{Kind: types.Uint8} }
func u32() types.Ty { return types.Ty{Kind: types.Uint32} }

func TestPrimitiveLayout(t *testing.T) {
	c := repr.NewComputer(fixture.New(), 8)
	r := c.Layout(types.Ty{Kind: types.Bool}, types.Empty)
	if r.Kind != repr.KindPrimitive || r.Size != 1 {
		t.Fatalf("bool layout = %+v, want size 1 primitive", r)
	}

	r = c.Layout(types.Ty{Kind: types.Isize}, types.Empty)
	if r.Size != 8 || r.PrimKind != primval.KindSigned {
		t.Fatalf("isize layout = %+v, want size 8 signed", r)
	}
}

// TestTupleLayoutIsPaddingFree verifies the prefix-sum offset rule: no
// alignment padding is ever inserted between fields.
func TestTupleLayoutIsPaddingFree(t *testing.T) {
	c := repr.NewComputer(fixture.New(), 8)
	tup := types.Ty{Kind: types.Tuple, Fields: []types.Ty{u8(), u32()}}
	r := c.Layout(tup, types.Empty)

	if r.Kind != repr.KindAggregate || !r.IsProduct() {
		t.Fatalf("tuple layout = %+v, want a single-variant aggregate", r)
	}
	if r.DiscrSize != 0 {
		t.Errorf("single-variant aggregate should have no discriminant, got %d", r.DiscrSize)
	}
	fields := r.Variants[0]
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(fields))
	}
	if fields[0].Offset != 0 || fields[0].Size != 1 {
		t.Errorf("field 0 = %+v, want offset 0 size 1", fields[0])
	}
	if fields[1].Offset != 1 || fields[1].Size != 4 {
		t.Errorf("field 1 = %+v, want offset 1 size 4 (no padding)", fields[1])
	}
	if r.Size != 5 {
		t.Errorf("total size = %d, want 5", r.Size)
	}
}

// optionU8 builds an Option<u8>-shaped AdtDef: None (no fields), Some(u8).
func optionU8() types.Ty {
	def := &types.AdtDef{
		Name: "Option",
		Variants: []types.VariantDef{
			{Name: "None"},
			{Name: "Some", Fields: []types.Ty{u8()}},
		},
	}
	return types.Ty{Kind: types.Adt, Adt: def}
}

// TestEnumDiscriminantSizing exercises the discriminant-width rule
// and the "layout closure" invariant: total size is discriminant size
// plus the largest variant's field sum.
func TestEnumDiscriminantSizing(t *testing.T) {
	c := repr.NewComputer(fixture.New(), 8)
	r := c.Layout(optionU8(), types.Empty)

	if r.Kind != repr.KindAggregate {
		t.Fatalf("enum layout = %+v, want aggregate", r)
	}
	if r.DiscrSize != 1 {
		t.Errorf("2-variant enum discriminant = %d, want 1", r.DiscrSize)
	}
	if len(r.Variants[0]) != 0 {
		t.Errorf("None should have no fields, got %v", r.Variants[0])
	}
	if len(r.Variants[1]) != 1 || r.Variants[1][0].Size != 1 {
		t.Errorf("Some should have one u8 field, got %v", r.Variants[1])
	}
	if r.Size != 2 { // 1 byte discriminant + 1 byte payload, no padding
		t.Errorf("total size = %d, want 2", r.Size)
	}
}

// manyVariants builds an AdtDef with n empty-field variants, to probe the
// discriminant-width breakpoints (1/2/4 bytes).
func manyVariants(n int) types.Ty {
	variants := make([]types.VariantDef, n)
	for i := range variants {
		variants[i] = types.VariantDef{Name: "V"}
	}
	return types.Ty{Kind: types.Adt, Adt: &types.AdtDef{Name: "Many", Variants: variants}}
}

func TestDiscriminantWidthBreakpoints(t *testing.T) {
	tests := []struct {
		variants int
		want     int
	}{
		{1, 0},
		{2, 1},
		{256, 1},
		{257, 2},
		{65536, 2},
		{65537, 4},
	}
	for _, tt := range tests {
		c := repr.NewComputer(fixture.New(), 8)
		r := c.Layout(manyVariants(tt.variants), types.Empty)
		if r.DiscrSize != tt.want {
			t.Errorf("%d variants: discriminant size = %d, want %d", tt.variants, r.DiscrSize, tt.want)
		}
	}
}

// TestLayoutCacheStability checks the layout cache's "layout(T) ≡
// layout(T)" guarantee: two
// Layout calls for the same monomorphic type must return the identical
// *Repr pointer, not merely an equal one.
func TestLayoutCacheStability(t *testing.T) {
	c := repr.NewComputer(fixture.New(), 8)
	tup := types.Ty{Kind: types.Tuple, Fields: []types.Ty{u8(), u32()}}
	a := c.Layout(tup, types.Empty)
	b := c.Layout(types.Ty{Kind: types.Tuple, Fields: []types.Ty{u8(), u32()}}, types.Empty)
	if a != b {
		t.Fatalf("expected the same *Repr pointer for two calls on an equal monomorphic type")
	}
}

func TestArrayLayout(t *testing.T) {
	c := repr.NewComputer(fixture.New(), 8)
	arr := types.Ty{Kind: types.Array, Elem: func() *types.Ty { e := u32(); return &e }(), Len: 3}
	r := c.Layout(arr, types.Empty)
	if r.Kind != repr.KindArray || r.ElemSize != 4 || r.Length != 3 || r.Size != 12 {
		t.Fatalf("array layout = %+v, want elem 4 len 3 size 12", r)
	}
}

// TestSizedRefIsPointerWidth and TestUnsizedRefIsFatPointer cover the
// split on IsSized (the fat-pointer rule) for Ref, the case they build.
func TestSizedRefIsPointerWidth(t *testing.T) {
	ctx := fixture.New()
	c := repr.NewComputer(ctx, 8)
	elem := u32()
	ref := types.Ty{Kind: types.Ref, Elem: &elem}
	r := c.Layout(ref, types.Empty)
	if r.Size != 8 {
		t.Errorf("sized &u32 layout size = %d, want 8", r.Size)
	}
}

func TestUnsizedRefIsFatPointer(t *testing.T) {
	ctx := fixture.New()
	elem := u8()
	slice := types.Ty{Kind: types.Slice, Elem: &elem}
	ctx.MarkUnsized(slice)

	c := repr.NewComputer(ctx, 8)
	ref := types.Ty{Kind: types.Ref, Elem: &slice}
	r := c.Layout(ref, types.Empty)
	if r.Size != 16 {
		t.Errorf("&[u8] fat pointer size = %d, want 16 (8 data + 8 length)", r.Size)
	}
}

// TestProductOfBypassesCache exercises ProductOf's documented behaviour:
// building an ephemeral layout directly from field types, used for a
// Downcast projection that has no standalone monomorphic type to key a
// cache entry on.
func TestProductOfBypassesCache(t *testing.T) {
	c := repr.NewComputer(fixture.New(), 8)
	r := c.ProductOf([]types.Ty{u8(), u32()})
	if !r.IsProduct() || r.Size != 5 {
		t.Fatalf("ProductOf = %+v, want single-variant size 5", r)
	}
	if again := c.ProductOf([]types.Ty{u8(), u32()}); again == r {
		t.Fatalf("expected a fresh *Repr from each ProductOf call, got the same pointer twice")
	}
}

func TestGenericSubstitution(t *testing.T) {
	c := repr.NewComputer(fixture.New(), 8)
	param := types.Ty{Kind: types.Param, Param: types.ParamTy{Index: 0, Name: "T"}}
	tup := types.Ty{Kind: types.Tuple, Fields: []types.Ty{param, param}}
	r := c.Layout(tup, &types.Substs{Types: []types.Ty{u32()}})
	if r.Size != 8 {
		t.Fatalf("tuple<T,T> with T=u32 layout size = %d, want 8", r.Size)
	}
}
