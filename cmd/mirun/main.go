// cmd/mirun/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"

	"mirinterp/internal/driver"
	"mirinterp/internal/metadata"
	"mirinterp/internal/mircache"
	"mirinterp/internal/types"
)

const VERSION = "0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	switch cmd {
	case "--help", "-h", "help":
		showUsage()
		return
	case "--version", "-v", "version":
		fmt.Printf("mirun %s\n", VERSION)
		return
	case "run":
		if err := runCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	default:
		showUsage()
		os.Exit(1)
	}
}

// runCommand hand-parses its own flags rather than reaching for a flags
// package.
func runCommand(args []string) error {
	var trace bool
	var metadataDSN string
	var colorForced *bool

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--trace", "-t":
			trace = true
		case "--metadata":
			if i+1 >= len(args) {
				return fmt.Errorf("--metadata requires a path")
			}
			i++
			metadataDSN = args[i]
		case "--color":
			v := true
			colorForced = &v
		case "--no-color":
			v := false
			colorForced = &v
		default:
			return fmt.Errorf("unrecognized argument %q (only a provider is wired in this build, no source-file frontend)", args[i])
		}
	}

	color := isatty.IsTerminal(os.Stdout.Fd())
	if colorForced != nil {
		color = *colorForced
	}

	var cache *mircache.Cache
	localMap := mircache.MapLocalMap{}
	ctx := noopContext{}

	if metadataDSN != "" {
		store, err := metadata.Open(metadataDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		cache = mircache.New(ctx, localMap, store)
	} else {
		cache = mircache.New(ctx, localMap, nil)
	}

	entries := driver.DiscoverEntries(ctx, localMap)
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "no miri_run entry points found")
		return nil
	}

	cfg := driver.Config{PointerSize: 8, Trace: trace, MetadataDSN: metadataDSN}
	results, err := driver.RunAll(context.Background(), ctx, cache, cfg, entries, os.Stdout)
	if err != nil {
		return err
	}
	for _, res := range results {
		driver.Report(os.Stdout, res, color)
	}
	return nil
}

func showUsage() {
	fmt.Println(`mirun - interpret miri_run-annotated MIR bodies

Usage:
  mirun run [--trace] [--metadata <path>] [--color|--no-color]
  mirun help
  mirun version

This build has no source-file front end wired in: entry points come from
whatever mircache.LocalMap a real driver integration populates before
calling into internal/driver.`)
}

// noopContext is a placeholder types.Context for a driver invocation with
// no local items registered; a real integration supplies its own
// types.Context backed by the front-end's type-checker tables.
type noopContext struct{}

func (noopContext) TypeOf(id types.DefID) types.Ty                { return types.Ty{} }
func (noopContext) ItemName(id types.DefID) string                { return "" }
func (noopContext) AsLocalNodeID(id types.DefID) (types.NodeID, bool) { return 0, false }
func (noopContext) IsSized(ty types.Ty) bool                      { return true }
func (noopContext) NormalizeAssoc(ty types.Ty) types.Ty           { return ty }
func (noopContext) ResolveTraitImpl(ref types.TraitRef) (types.ImplResolution, bool) {
	return types.ImplResolution{}, false
}
func (noopContext) TraitContainerOf(methodID types.DefID) (types.DefID, bool) { return 0, false }
func (noopContext) ImplMethod(implID types.DefID, name string) (types.DefID, bool) {
	return 0, false
}
