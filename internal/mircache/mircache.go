// Package mircache resolves a function DefID to its IR body: a local
// fast path through the MIR map for crate-local items, and a slower path
// through an owned cache backed by an external item store for everything
// else.
package mircache

import (
	"sync"

	"mirinterp/internal/frame"
	"mirinterp/internal/ierrors"
	"mirinterp/internal/mir"
	"mirinterp/internal/types"
)

// LocalMap is the MIR map: node_id -> IR body, for items in
// the current compilation unit.
type LocalMap interface {
	Lookup(id types.NodeID) (*mir.Body, bool)
}

// ExternalStore is the external item store: def_id -> IR
// body, for items outside the current compilation unit. It may fail —
// "no MIR available" is a legitimate outcome the driver surfaces, not a
// bug.
type ExternalStore interface {
	Load(id types.DefID) (*mir.Body, error)
}

// Cache resolves DefIDs to CachedBody values, keeping a DefID -> *mir.Body
// map for bodies loaded from the ExternalStore so a repeated call doesn't
// re-fetch: on miss, load and insert.
type Cache struct {
	ctx      types.Context
	local    LocalMap
	external ExternalStore

	mu    sync.RWMutex
	owned map[types.DefID]*mir.Body
}

func New(ctx types.Context, local LocalMap, external ExternalStore) *Cache {
	return &Cache{
		ctx:      ctx,
		local:    local,
		external: external,
		owned:    make(map[types.DefID]*mir.Body),
	}
}

// Load resolves id to a CachedBody, borrowed if id is local to the
// current crate, owned (and cached) otherwise.
func (c *Cache) Load(id types.DefID) (frame.CachedBody, error) {
	if nodeID, ok := c.ctx.AsLocalNodeID(id); ok {
		body, ok := c.local.Lookup(nodeID)
		if !ok {
			panic("mircache: local MIR map has no body for a local def_id")
		}
		return frame.Borrowed(body), nil
	}

	c.mu.RLock()
	body, ok := c.owned[id]
	c.mu.RUnlock()
	if ok {
		return frame.OwnedBody(body), nil
	}

	if c.external == nil {
		return frame.CachedBody{}, ierrors.New(ierrors.Unsupported, "no external item store configured for def_id %d", id)
	}
	loaded, err := c.external.Load(id)
	if err != nil {
		return frame.CachedBody{}, ierrors.Wrap(ierrors.Unsupported, err, "loading external MIR body")
	}

	c.mu.Lock()
	// Another caller may have raced us to the same id; keep whichever was
	// inserted first, matching the original source's cache semantics.
	if existing, ok := c.owned[id]; ok {
		c.mu.Unlock()
		return frame.OwnedBody(existing), nil
	}
	c.owned[id] = loaded
	c.mu.Unlock()

	return frame.OwnedBody(loaded), nil
}

// MapLocalMap is a trivial LocalMap backed by a plain Go map, useful for
// tests and for small driver runs that hold every crate-local body
// in memory.
type MapLocalMap map[types.NodeID]*mir.Body

func (m MapLocalMap) Lookup(id types.NodeID) (*mir.Body, bool) {
	b, ok := m[id]
	return b, ok
}
