// Package traitresolve resolves a trait-method callsite and its type
// substitutions to a concrete implementation body and substitutions, per
// This is the Go analogue of the original source's
// `trait_method`, built against types.Context.ResolveTraitImpl instead of
// a concrete rustc SelectionContext.
package traitresolve

import (
	"mirinterp/internal/ierrors"
	"mirinterp/internal/types"
)

type Resolver struct {
	ctx types.Context
}

func New(ctx types.Context) *Resolver {
	return &Resolver{ctx: ctx}
}

// Resolve takes a trait method's DefID and the call-site's substitutions
// — by convention, Types[0] is Self and any remaining entries are the
// method's own generic parameters, not further trait type arguments; this
// tier's traits are never themselves generic over anything but Self — and
// returns the
// concrete method to call plus the substitutions to build its frame with.
//
// If methodDefID doesn't belong to a trait at all (a plain function call),
// Resolve is a no-op: it returns methodDefID and substs unchanged, the
// same short-circuit the original source takes via
// `substs.self_ty().is_some()`.
func (r *Resolver) Resolve(methodDefID types.DefID, substs *types.Substs) (types.DefID, *types.Substs, error) {
	traitID, isTraitMethod := r.ctx.TraitContainerOf(methodDefID)
	if !isTraitMethod {
		return methodDefID, substs, nil
	}
	if len(substs.Types) == 0 {
		panic("traitresolve: trait method call with no Self substitution")
	}

	self := substs.Types[0]
	traitRef := types.TraitRef{TraitID: traitID, Self: self}

	resolution, ok := r.ctx.ResolveTraitImpl(traitRef)
	if !ok {
		return 0, nil, ierrors.New(ierrors.Unsupported, "no impl of trait %d for %v", traitID, self)
	}

	switch resolution.Kind {
	case types.ImplMatch:
		name := r.ctx.ItemName(methodDefID)
		implMethod, ok := r.ctx.ImplMethod(resolution.ImplDefID, name)
		if !ok {
			panic("traitresolve: ResolveTraitImpl matched an impl with no method of that name")
		}

		// The impl's own substitutions (how its generic parameters were
		// filled in to make Self concrete) come first; the call site's
		// own extra generics — the method's, not the trait's — follow,
		// mirroring `vtable_impl.substs.with_method_from(substs)`'s
		// type-space-then-method-space concatenation.
		combined := make([]types.Ty, 0, len(resolution.ImplSubsts.Types)+len(substs.Types)-1)
		combined = append(combined, resolution.ImplSubsts.Types...)
		combined = append(combined, substs.Types[1:]...)

		return implMethod, &types.Substs{Types: combined}, nil

	case types.ClosureMatch:
		return resolution.ClosureDefID, resolution.ClosureSubst, nil

	default:
		panic("traitresolve: unknown ImplKind")
	}
}
