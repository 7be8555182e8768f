// Package driver is the outer adapter the interpreter core leaves to its
// caller: it discovers entry points (items bearing the `miri_run`
// attribute), builds one Interpreter per entry, runs it to completion, and
// pretty-prints the result — including every allocation transitively
// reachable from it through relocations, the way the original source's
// `interpret_start_points`/`print_allocation_tree` does.
package driver

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mirinterp/internal/interp"
	"mirinterp/internal/memory"
	"mirinterp/internal/mir"
	"mirinterp/internal/mircache"
	"mirinterp/internal/types"
)

// Config is the small set of knobs a driver run takes. cmd/mirun fills
// Trace and MetadataDSN from its flags and sets PointerSize to 8.
type Config struct {
	PointerSize int
	Trace       bool
	// MetadataDSN records the sqlite path whose internal/metadata.Store
	// backs the MIR cache's external store. RunAll does not read it: the
	// store is wired into the cache before the cache is passed in.
	MetadataDSN string
}

// EntryPoint names one item the driver will interpret.
type EntryPoint struct {
	DefID types.DefID
	Name  string
}

// DiscoverEntries scans every body in localMap for the miri_run
// attribute: the driver iterates the MIR map, and any item bearing the
// attribute miri_run is interpreted.
func DiscoverEntries(ctx types.Context, localMap mircache.MapLocalMap) []EntryPoint {
	var entries []EntryPoint
	for _, body := range localMap {
		if !body.HasAttr("miri_run") {
			continue
		}
		entries = append(entries, EntryPoint{DefID: body.DefID, Name: ctx.ItemName(body.DefID)})
	}
	return entries
}

// Result is one entry point's outcome: its return allocation (absent for
// a diverging entry) and how long it took to run.
type Result struct {
	Entry    EntryPoint
	ReturnTy mir.ReturnTy
	Mem      *memory.Memory
	RetPtr   memory.Pointer
	HasRet   bool
	Elapsed  time.Duration
	Err      error
}

// RunAll interprets every entry point. Each gets its own Interpreter
// (and its own Memory/Repr/cache-facing Interpreter state) sharing only
// the read-mostly, internally synchronised cache and type context, so
// running them concurrently via errgroup never crosses the single-
// threaded-per-run boundary the interpreter itself requires — only the
// driver batches runs.
func RunAll(ctx context.Context, tc types.Context, cache *mircache.Cache, cfg Config, entries []EntryPoint, out io.Writer) ([]Result, error) {
	results := make([]Result, len(entries))
	runID := uuid.New()

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = runOne(tc, cache, cfg, e, runID, out)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func runOne(tc types.Context, cache *mircache.Cache, cfg Config, e EntryPoint, runID uuid.UUID, out io.Writer) Result {
	res := Result{Entry: e}
	start := time.Now()

	in := interp.New(tc, cache, cfg.PointerSize)
	in.Trace = cfg.Trace
	in.TraceOut = out

	body, err := in.LoadBody(e.DefID)
	if err != nil {
		res.Err = err
		return res
	}
	res.ReturnTy = body.Body.ReturnTy
	res.Mem = in.Mem

	fmt.Fprintf(out, "[%s] Interpreting: %s\n", runID, e.Name)

	var retPtr *memory.Pointer
	if !body.Body.ReturnTy.Diverging {
		size := in.Repr.Layout(body.Body.ReturnTy.Ty, types.Empty).Size
		p := in.Mem.Allocate(size)
		retPtr = &p
	}

	if err := in.PushStackFrame(body, types.Empty, retPtr); err != nil {
		res.Err = err
		return res
	}
	if err := in.Run(); err != nil {
		res.Err = err
		return res
	}

	if retPtr != nil {
		res.HasRet = true
		res.RetPtr = *retPtr
	}
	res.Elapsed = time.Since(start)
	return res
}
