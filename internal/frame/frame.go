// Package frame implements the interpreter's per-call storage: the
// Frame itself, the CallStack of frames, and the SubstStack of type
// substitutions kept parallel to (not inside) the call stack.
package frame

import (
	"mirinterp/internal/memory"
	"mirinterp/internal/mir"
	"mirinterp/internal/types"
)

// CachedBody models the original source's CachedMir duality: a function
// body is either borrowed from the long-lived local MIR map, or owned
// (loaded once from the external item store and cached). Go's GC makes
// the Rc the original used for the owned case unnecessary — both cases
// just hold a *mir.Body — but the duality itself is kept as a real type
// rather than collapsed away, since "some bodies simply have no such
// [borrowed] lifetime" is a fact about the source system,
// not an artifact of Rust's borrow checker.
type CachedBody struct {
	Owned bool
	Body  *mir.Body
}

func Borrowed(b *mir.Body) CachedBody { return CachedBody{Owned: false, Body: b} }
func OwnedBody(b *mir.Body) CachedBody { return CachedBody{Owned: true, Body: b} }

// Frame is one call's local storage: which body is executing, where to
// resume in the caller once this frame returns, the locals addressed by
// IR lvalues, and the offsets marking where vars and temps begin within
// Locals.
type Frame struct {
	Body       CachedBody
	NextBlock  mir.BlockID
	ReturnPtr  *memory.Pointer
	Locals     []memory.Pointer
	VarOffset  int
	TempOffset int
}

// Local resolves Arg(i)/Var(i)/Temp(i) addressing to the matching entry
// of Locals using the frame's var/temp offsets; internal/interp's lvalue
// evaluation goes through it.
func (f *Frame) Local(kind mir.LvalueKind, index int) memory.Pointer {
	switch kind {
	case mir.LvArg:
		return f.Locals[index]
	case mir.LvVar:
		return f.Locals[f.VarOffset+index]
	case mir.LvTemp:
		return f.Locals[f.TempOffset+index]
	default:
		panic("frame: Local called with non-local LvalueKind")
	}
}

// NewFrame builds a frame's local storage: one allocation per arg, var,
// and temp declared by body, laid out [args..., vars..., temps...], per
// the push-frame algorithm. Layout sizing for each local is
// the caller's responsibility (it needs a repr.Computer and the callee's
// Substs, which this package doesn't depend on to avoid an import cycle
// with internal/repr); sizes is therefore parallel to
// arg+var+temp decls, in that order.
func NewFrame(body CachedBody, sizes []int, alloc func(n int) memory.Pointer, returnPtr *memory.Pointer) Frame {
	b := body.Body
	locals := make([]memory.Pointer, len(sizes))
	for i, n := range sizes {
		locals[i] = alloc(n)
	}
	return Frame{
		Body:       body,
		NextBlock:  mir.START,
		ReturnPtr:  returnPtr,
		Locals:     locals,
		VarOffset:  len(b.ArgDecls),
		TempOffset: len(b.ArgDecls) + len(b.VarDecls),
	}
}

// CallStack is the virtual call stack; the last element is the top.
type CallStack struct {
	frames []Frame
}

func (s *CallStack) Push(f Frame) { s.frames = append(s.frames, f) }

// Pop discards the top frame. It does not free the frame's locals — see
// DESIGN.md's open-question entry — that's deferred work a production
// implementation would hook in here.
func (s *CallStack) Pop() Frame {
	n := len(s.frames)
	f := s.frames[n-1]
	s.frames = s.frames[:n-1]
	return f
}

func (s *CallStack) Len() int { return len(s.frames) }

func (s *CallStack) Empty() bool { return len(s.frames) == 0 }

func (s *CallStack) Top() *Frame {
	if len(s.frames) == 0 {
		panic("frame: no call frames exist")
	}
	return &s.frames[len(s.frames)-1]
}

// SubstStack carries one substitution context per Frame, kept as a
// separate stack (rather than a Frame field) because the substitutions
// for a callee are needed to size its locals *while building* its Frame,
// before that Frame exists. Pushes/pops must stay in
// lockstep with CallStack's.
type SubstStack struct {
	substs []*types.Substs
}

func (s *SubstStack) Push(subst *types.Substs) { s.substs = append(s.substs, subst) }

func (s *SubstStack) Pop() *types.Substs {
	n := len(s.substs)
	top := s.substs[n-1]
	s.substs = s.substs[:n-1]
	return top
}

// Current returns the innermost substitution context, or types.Empty if
// the stack is empty (matching the original source's fallback to
// `Substs::empty()` before any frame has been pushed).
func (s *SubstStack) Current() *types.Substs {
	if len(s.substs) == 0 {
		return types.Empty
	}
	return s.substs[len(s.substs)-1]
}

func (s *SubstStack) Len() int { return len(s.substs) }
