package driver

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"mirinterp/internal/memory"
)

const (
	ansiDim   = "\033[2m"
	ansiReset = "\033[0m"
)

// PrintAllocationTree pretty-prints root and, transitively, every
// allocation reachable from it through relocations — the Go analogue of
// the original source's print_allocation_tree, called after a run
// completes. When color is true, relocation arrows are dimmed so the
// allocation ids stand out, the role cmd/mirun's isatty check decides.
func PrintAllocationTree(mem *memory.Memory, out io.Writer, root memory.AllocID, color bool) {
	printAlloc(mem, out, root, 0, make(map[memory.AllocID]bool), color)
}

func printAlloc(mem *memory.Memory, out io.Writer, id memory.AllocID, depth int, seen map[memory.AllocID]bool, color bool) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}

	if seen[id] {
		fmt.Fprintf(out, "%salloc%d: <cycle>\n", indent, id)
		return
	}
	seen[id] = true

	size, ok := mem.AllocationSize(id)
	if !ok {
		fmt.Fprintf(out, "%salloc%d: <freed>\n", indent, id)
		return
	}
	fmt.Fprintf(out, "%salloc%d: %s\n", indent, id, humanize.Bytes(uint64(size)))

	relocs := mem.Relocations(id)
	for offset, target := range relocs {
		arrow := fmt.Sprintf("+%d ->", offset)
		if color {
			arrow = ansiDim + arrow + ansiReset
		}
		fmt.Fprintf(out, "%s  %s\n", indent, arrow)
		printAlloc(mem, out, target, depth+2, seen, color)
	}
}

// Report writes a run's result in the format cmd/mirun prints after a
// successful interpretation: the elapsed time, then the return
// allocation's tree.
func Report(out io.Writer, res Result, color bool) {
	if res.Err != nil {
		fmt.Fprintf(out, "%s: error: %v\n", res.Entry.Name, res.Err)
		return
	}
	now := time.Now()
	fmt.Fprintf(out, "%s: ran %s\n", res.Entry.Name, humanize.RelTime(now.Add(-res.Elapsed), now, "", ""))
	if !res.HasRet {
		fmt.Fprintf(out, "%s: diverges, no return value\n", res.Entry.Name)
		return
	}
	PrintAllocationTree(res.Mem, out, res.RetPtr.Alloc, color)
}
