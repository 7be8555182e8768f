package mircache_test

import (
	"testing"

	"mirinterp/internal/mir"
	"mirinterp/internal/mircache"
	"mirinterp/internal/types"
	"mirinterp/internal/types/fixture"
)

type fakeStore struct {
	bodies map[types.DefID]*mir.Body
	loads  int
}

func (s *fakeStore) Load(id types.DefID) (*mir.Body, error) {
	s.loads++
	b, ok := s.bodies[id]
	if !ok {
		return nil, errNotFound{id}
	}
	return b, nil
}

type errNotFound struct{ id types.DefID }

func (e errNotFound) Error() string { return "no such def_id" }

func TestLoadResolvesLocalBodiesAsBorrowed(t *testing.T) {
	ctx := fixture.New()
	local := mircache.MapLocalMap{
		1: {DefID: 100},
	}
	ctx.AddLocal(100, 1, "local_fn", types.Ty{})

	c := mircache.New(ctx, local, nil)
	cb, err := c.Load(100)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cb.Owned {
		t.Errorf("local body should resolve Owned=false (borrowed)")
	}
	if cb.Body.DefID != 100 {
		t.Errorf("got DefID %d, want 100", cb.Body.DefID)
	}
}

func TestLoadResolvesExternalBodiesAsOwnedAndCaches(t *testing.T) {
	ctx := fixture.New()
	store := &fakeStore{bodies: map[types.DefID]*mir.Body{
		200: {DefID: 200},
	}}
	c := mircache.New(ctx, mircache.MapLocalMap{}, store)

	cb, err := c.Load(200)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cb.Owned {
		t.Errorf("external body should resolve Owned=true")
	}

	if _, err := c.Load(200); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if store.loads != 1 {
		t.Errorf("external store was queried %d times, want 1 (second lookup should hit the owned cache)", store.loads)
	}
}

func TestLoadWithNoExternalStoreIsUnsupported(t *testing.T) {
	ctx := fixture.New()
	c := mircache.New(ctx, mircache.MapLocalMap{}, nil)
	if _, err := c.Load(999); err == nil {
		t.Fatalf("expected an error resolving a non-local def_id with no external store")
	}
}

func TestLoadSurfacesExternalStoreFailure(t *testing.T) {
	ctx := fixture.New()
	store := &fakeStore{bodies: map[types.DefID]*mir.Body{}}
	c := mircache.New(ctx, mircache.MapLocalMap{}, store)
	if _, err := c.Load(404); err == nil {
		t.Fatalf("expected an error for a def_id absent from the external store")
	}
}
