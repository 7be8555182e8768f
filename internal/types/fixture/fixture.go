// Package fixture is a small, hand-built types.Context for tests: a
// handful of maps standing in for what a real type-checker/driver
// collaborator would answer. It has no purpose outside the tests of
// internal/interp, internal/repr, internal/mircache and internal/traitresolve.
package fixture

import "mirinterp/internal/types"

type implKey struct {
	trait types.DefID
	self  string
}

type implMethodKey struct {
	impl types.DefID
	name string
}

// Ctx is a Context built entirely from literal tables, populated by a
// test before the interpreter ever consults it.
type Ctx struct {
	typeOf  map[types.DefID]types.Ty
	name    map[types.DefID]string
	local   map[types.DefID]types.NodeID
	unsized map[string]bool

	traitOf     map[types.DefID]types.DefID
	impls       map[implKey]types.ImplResolution
	implMethods map[implMethodKey]types.DefID
}

func New() *Ctx {
	return &Ctx{
		typeOf:      make(map[types.DefID]types.Ty),
		name:        make(map[types.DefID]string),
		local:       make(map[types.DefID]types.NodeID),
		unsized:     make(map[string]bool),
		traitOf:     make(map[types.DefID]types.DefID),
		impls:       make(map[implKey]types.ImplResolution),
		implMethods: make(map[implMethodKey]types.DefID),
	}
}

// AddLocal registers id as a crate-local item, naming it name and
// pointing it at nodeID in the MIR map.
func (c *Ctx) AddLocal(id types.DefID, nodeID types.NodeID, name string, ty types.Ty) {
	c.local[id] = nodeID
	c.name[id] = name
	c.typeOf[id] = ty
}

// AddTraitMethod records that methodID is declared by traitID, so
// internal/traitresolve's TraitContainerOf check finds it.
func (c *Ctx) AddTraitMethod(methodID, traitID types.DefID, name string) {
	c.traitOf[methodID] = traitID
	c.name[methodID] = name
}

// AddImpl records that traitID for selfTy is satisfied by implID, whose
// own substitutions are implSubsts.
func (c *Ctx) AddImpl(traitID types.DefID, selfTy types.Ty, implID types.DefID, implSubsts *types.Substs) {
	c.impls[implKey{trait: traitID, self: selfTy.String()}] = types.ImplResolution{
		Kind:       types.ImplMatch,
		ImplDefID:  implID,
		ImplSubsts: implSubsts,
	}
}

// AddImplMethod records that implID's method named name is methodID.
func (c *Ctx) AddImplMethod(implID types.DefID, name string, methodID types.DefID) {
	c.implMethods[implMethodKey{impl: implID, name: name}] = methodID
}

// MarkUnsized marks a type (by its String() form) as unsized, for
// IsSized to report false on — used for Slice-typed fixture data.
func (c *Ctx) MarkUnsized(ty types.Ty) {
	c.unsized[ty.String()] = true
}

func (c *Ctx) TypeOf(id types.DefID) types.Ty { return c.typeOf[id] }

func (c *Ctx) ItemName(id types.DefID) string { return c.name[id] }

func (c *Ctx) AsLocalNodeID(id types.DefID) (types.NodeID, bool) {
	n, ok := c.local[id]
	return n, ok
}

func (c *Ctx) IsSized(ty types.Ty) bool {
	return !c.unsized[ty.String()]
}

func (c *Ctx) NormalizeAssoc(ty types.Ty) types.Ty { return ty }

func (c *Ctx) ResolveTraitImpl(ref types.TraitRef) (types.ImplResolution, bool) {
	r, ok := c.impls[implKey{trait: ref.TraitID, self: ref.Self.String()}]
	return r, ok
}

func (c *Ctx) TraitContainerOf(methodID types.DefID) (types.DefID, bool) {
	t, ok := c.traitOf[methodID]
	return t, ok
}

func (c *Ctx) ImplMethod(implID types.DefID, name string) (types.DefID, bool) {
	m, ok := c.implMethods[implMethodKey{impl: implID, name: name}]
	return m, ok
}
