package traitresolve_test

import (
	"testing"

	"mirinterp/internal/traitresolve"
	"mirinterp/internal/types"
	"mirinterp/internal/types/fixture"
)

const (
	traitID     types.DefID = 1
	traitMethod types.DefID = 2
	implID      types.DefID = 3
	implMethod  types.DefID = 4
	plainFn     types.DefID = 5
)

func selfTy() types.Ty { return types.Ty{Kind: types.Adt, Adt: &types.AdtDef{Name: "Widget"}} }

func TestResolvePlainFunctionIsNoOp(t *testing.T) {
	ctx := fixture.New()
	r := traitresolve.New(ctx)
	substs := &types.Substs{Types: []types.Ty{selfTy()}}

	gotID, gotSubsts, err := r.Resolve(plainFn, substs)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if gotID != plainFn {
		t.Errorf("got def_id %d, want unchanged %d", gotID, plainFn)
	}
	if gotSubsts != substs {
		t.Errorf("expected the same Substs pointer back for a non-trait call")
	}
}

func TestResolveTraitMethodFindsImplMethod(t *testing.T) {
	ctx := fixture.New()
	ctx.AddTraitMethod(traitMethod, traitID, "greet")
	ctx.AddImpl(traitID, selfTy(), implID, &types.Substs{Types: []types.Ty{selfTy()}})
	ctx.AddImplMethod(implID, "greet", implMethod)

	r := traitresolve.New(ctx)
	substs := &types.Substs{Types: []types.Ty{selfTy()}}

	gotID, gotSubsts, err := r.Resolve(traitMethod, substs)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if gotID != implMethod {
		t.Errorf("got def_id %d, want %d", gotID, implMethod)
	}
	if len(gotSubsts.Types) != 1 || gotSubsts.Types[0].String() != selfTy().String() {
		t.Errorf("got substs %+v, want the impl's own substitutions", gotSubsts)
	}
}

// TestResolveConcatenatesImplAndMethodSubsts checks the type-space-then-
// method-space concatenation: the impl's own substitutions come first,
// the call site's extra (method-level) generics follow.
func TestResolveConcatenatesImplAndMethodSubsts(t *testing.T) {
	ctx := fixture.New()
	ctx.AddTraitMethod(traitMethod, traitID, "convert")
	implSubsts := &types.Substs{Types: []types.Ty{selfTy()}}
	ctx.AddImpl(traitID, selfTy(), implID, implSubsts)
	ctx.AddImplMethod(implID, "convert", implMethod)

	r := traitresolve.New(ctx)
	methodGeneric := types.Ty{Kind: types.Uint32}
	callSiteSubsts := &types.Substs{Types: []types.Ty{selfTy(), methodGeneric}}

	_, gotSubsts, err := r.Resolve(traitMethod, callSiteSubsts)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(gotSubsts.Types) != 2 {
		t.Fatalf("got %d substs, want 2 (impl's Self + the method's own generic)", len(gotSubsts.Types))
	}
	if gotSubsts.Types[1].Kind != types.Uint32 {
		t.Errorf("got second subst %v, want the method-level generic to survive the concatenation", gotSubsts.Types[1])
	}
}

func TestResolveUnsatisfiedTraitIsUnsupported(t *testing.T) {
	ctx := fixture.New()
	ctx.AddTraitMethod(traitMethod, traitID, "greet")
	r := traitresolve.New(ctx)

	if _, _, err := r.Resolve(traitMethod, &types.Substs{Types: []types.Ty{selfTy()}}); err == nil {
		t.Fatalf("expected an error when no impl satisfies the trait obligation")
	}
}
