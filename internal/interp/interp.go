// Package interp is the interpreter's main loop: it walks a pushed call
// stack one basic block at a time, evaluating each block's assignment
// statements and then its terminator. Everything else
// (memory, layout, frames, MIR lookup, trait resolution) is a collaborator
// reached through a narrow field, never reimplemented here.
package interp

import (
	"fmt"
	"io"

	"mirinterp/internal/frame"
	"mirinterp/internal/ierrors"
	"mirinterp/internal/memory"
	"mirinterp/internal/mir"
	"mirinterp/internal/mircache"
	"mirinterp/internal/primval"
	"mirinterp/internal/repr"
	"mirinterp/internal/traitresolve"
	"mirinterp/internal/types"
)

// Interpreter ties the four core subsystems together: virtual memory,
// layout computation, the call stack, and MIR/trait lookup. One
// Interpreter runs one entry point to completion with its own Mem and
// Repr; internal/driver owns running several (possibly concurrently),
// sharing only the MIR cache and type context between them.
type Interpreter struct {
	ctx      types.Context
	Repr     *repr.Computer
	Mem      *memory.Memory
	cache    *mircache.Cache
	resolver *traitresolve.Resolver

	stack  frame.CallStack
	substs frame.SubstStack

	// Trace, when set, writes one line per block/statement/terminator to
	// TraceOut as it executes — the Go analogue of the original source's
	// compile-time TRACE_EXECUTION flag, made a runtime switch instead so
	// a driver run and a test run can ask for it independently.
	Trace    bool
	TraceOut io.Writer
}

// New builds an Interpreter with an empty call stack, ready to have a
// frame pushed onto it.
func New(ctx types.Context, cache *mircache.Cache, pointerSize int) *Interpreter {
	return &Interpreter{
		ctx:      ctx,
		Repr:     repr.NewComputer(ctx, pointerSize),
		Mem:      memory.New(pointerSize),
		cache:    cache,
		resolver: traitresolve.New(ctx),
	}
}

// LoadBody resolves id to its IR body through the MIR cache, the first
// step a driver (or a test) takes before pushing an entry point's frame.
func (in *Interpreter) LoadBody(id types.DefID) (frame.CachedBody, error) {
	return in.cache.Load(id)
}

// PushStackFrame pushes substs and, against it, a fresh Frame for body:
// one allocation per argument/variable/temporary the body declares. The
// substitutions are pushed before the locals are sized because sizing a
// generic local needs them.
func (in *Interpreter) PushStackFrame(body frame.CachedBody, substs *types.Substs, returnPtr *memory.Pointer) error {
	in.substs.Push(substs)
	b := body.Body
	sizes := make([]int, 0, len(b.ArgDecls)+len(b.VarDecls)+len(b.TempDecls))
	for _, d := range b.ArgDecls {
		sizes = append(sizes, in.Repr.Layout(d.Ty, in.substs.Current()).Size)
	}
	for _, d := range b.VarDecls {
		sizes = append(sizes, in.Repr.Layout(d.Ty, in.substs.Current()).Size)
	}
	for _, d := range b.TempDecls {
		sizes = append(sizes, in.Repr.Layout(d.Ty, in.substs.Current()).Size)
	}
	in.stack.Push(frame.NewFrame(body, sizes, in.Mem.Allocate, returnPtr))
	return nil
}

// outcome tags what a terminator asked the main loop to do next, the Go
// analogue of the original source's TerminatorTarget.
type outcome int

const (
	outcomeBlock outcome = iota
	outcomeCall
	outcomeReturn
)

// Run executes every frame on the stack to completion: the outer loop
// runs until the stack empties, the inner loop runs one basic block at a
// time within the current top frame until that frame calls, returns, or
// the whole run fails.
func (in *Interpreter) Run() error {
	for !in.stack.Empty() {
		currentBlock := in.stack.Top().NextBlock

		for {
			top := in.stack.Top()
			body := top.Body.Body
			bb := body.Block(currentBlock)
			in.traceBlock(currentBlock)

			for i := range bb.Statements {
				in.traceStatement(bb.Statements[i])
				if err := in.evalAssignment(bb.Statements[i]); err != nil {
					return err
				}
			}

			in.traceTerminator(bb.Terminator)
			out, next, err := in.evalTerminator(bb.Terminator)
			if err != nil {
				return err
			}

			switch out {
			case outcomeBlock:
				currentBlock = next
				continue
			case outcomeReturn:
				in.stack.Pop()
				in.substs.Pop()
			case outcomeCall:
				// Nothing to do: either a new frame is now on top (a real
				// call) or the current frame's NextBlock was already set
				// to the call's destination (an intrinsic, which pushes
				// no frame at all) — either way the outer loop re-reads it.
			}
			break
		}
	}
	return nil
}

func (in *Interpreter) traceBlock(id mir.BlockID) {
	if !in.Trace || in.TraceOut == nil {
		return
	}
	fmt.Fprintf(in.TraceOut, "%*sbb%d:\n", in.stack.Len()*2, "", id)
}

func (in *Interpreter) traceStatement(stmt mir.Statement) {
	if !in.Trace || in.TraceOut == nil {
		return
	}
	fmt.Fprintf(in.TraceOut, "%*s%+v\n", (in.stack.Len()+1)*2, "", stmt)
}

func (in *Interpreter) traceTerminator(t mir.Terminator) {
	if !in.Trace || in.TraceOut == nil {
		return
	}
	fmt.Fprintf(in.TraceOut, "%*s%+v\n", (in.stack.Len()+1)*2, "", t)
}

// monomorphize substitutes the current frame's Substs into ty and
// normalises any resulting associated-type projection.
func (in *Interpreter) monomorphize(ty types.Ty) types.Ty {
	return in.ctx.NormalizeAssoc(types.Subst(ty, in.substs.Current()))
}

// monomorphizeSubsts runs every type a callee's Substs carries through
// monomorphize before it crosses into the callee's own substitution
// context. Without this, a callee substs list built from the caller's
// own type parameters (a generic function calling another generic
// function, or a trait method whose Self is the caller's param) would
// hand trait resolution and the pushed frame's layout lookups an
// unsubstituted types.Param instead of the caller's current binding
// for it.
func (in *Interpreter) monomorphizeSubsts(substs *types.Substs) *types.Substs {
	if substs == nil || len(substs.Types) == 0 {
		return types.Empty
	}
	out := make([]types.Ty, len(substs.Types))
	for i, ty := range substs.Types {
		out[i] = in.monomorphize(ty)
	}
	return &types.Substs{Types: out}
}

func substFields(fields []types.Ty, adtArgs []types.Ty) []types.Ty {
	out := make([]types.Ty, len(fields))
	s := &types.Substs{Types: adtArgs}
	for i, f := range fields {
		out[i] = types.Subst(f, s)
	}
	return out
}

// lvalueType is the Go analogue of the original source's LvalueTy: the
// monomorphic type an lvalue addresses, plus — when that lvalue is a
// Downcast projection — the substituted field types of the variant it
// names, since those aren't reachable from the Adt type alone without
// knowing which variant.
type lvalueType struct {
	Ty       types.Ty
	Downcast bool
	Fields   []types.Ty // meaningful iff Downcast
}

func (in *Interpreter) lvalueTypeOf(lv mir.Lvalue) lvalueType {
	top := in.stack.Top()
	body := top.Body.Body

	switch lv.Kind {
	case mir.LvReturnPointer:
		return lvalueType{Ty: body.ReturnTy.Ty}
	case mir.LvArg:
		return lvalueType{Ty: body.ArgDecls[lv.Index].Ty}
	case mir.LvVar:
		return lvalueType{Ty: body.VarDecls[lv.Index].Ty}
	case mir.LvTemp:
		return lvalueType{Ty: body.TempDecls[lv.Index].Ty}
	case mir.LvProjection:
		base := in.lvalueTypeOf(*lv.Base)
		switch lv.Proj.Kind {
		case mir.ProjField:
			if base.Downcast {
				return lvalueType{Ty: base.Fields[lv.Proj.FieldIndex]}
			}
			mono := in.monomorphize(base.Ty)
			switch mono.Kind {
			case types.Tuple, types.Closure:
				return lvalueType{Ty: mono.Fields[lv.Proj.FieldIndex]}
			case types.Adt:
				if len(mono.Adt.Variants) != 1 {
					panic("interp: field projection on a multi-variant adt without a prior downcast")
				}
				fields := substFields(mono.Adt.Variants[0].Fields, mono.AdtArgs)
				return lvalueType{Ty: fields[lv.Proj.FieldIndex]}
			default:
				panic("interp: field projection on a non-product type: " + mono.String())
			}
		case mir.ProjDowncast:
			mono := in.monomorphize(base.Ty)
			if mono.Kind != types.Adt {
				panic("interp: variant downcast on a non-adt type: " + mono.String())
			}
			fields := substFields(mono.Adt.Variants[lv.Proj.VariantIdx].Fields, mono.AdtArgs)
			return lvalueType{Ty: mono, Downcast: true, Fields: fields}
		case mir.ProjDeref:
			mono := in.monomorphize(base.Ty)
			if mono.Elem == nil {
				panic("interp: deref of a non-pointer type: " + mono.String())
			}
			return lvalueType{Ty: *mono.Elem}
		case mir.ProjIndex, mir.ProjConstantIndex:
			mono := in.monomorphize(base.Ty)
			if mono.Kind != types.Array {
				panic("interp: index projection on a non-array type: " + mono.String())
			}
			return lvalueType{Ty: *mono.Elem}
		}
	}
	panic("interp: unreachable lvalue kind")
}

// lvalueRepr is the layout of what an lvalue addresses. For a Downcast
// lvalue there's no standalone monomorphic type naming "just this
// variant's fields", so an ephemeral product Repr is built on the spot
// instead of going through the cache — matching the original source's
// `repr_arena.alloc(make_aggregate_repr(...))` escape hatch.
func (in *Interpreter) lvalueRepr(lv mir.Lvalue) *repr.Repr {
	lt := in.lvalueTypeOf(lv)
	if lt.Downcast {
		return in.Repr.ProductOf(lt.Fields)
	}
	return in.Repr.Layout(lt.Ty, in.substs.Current())
}

// evalLvalue resolves an Lvalue to the Pointer it addresses, walking its
// projection chain from the base local outward.
func (in *Interpreter) evalLvalue(lv mir.Lvalue) (memory.Pointer, error) {
	top := in.stack.Top()

	switch lv.Kind {
	case mir.LvReturnPointer:
		if top.ReturnPtr == nil {
			panic("interp: ReturnPointer used in a function with no return value")
		}
		return *top.ReturnPtr, nil
	case mir.LvArg:
		return top.Local(mir.LvArg, lv.Index), nil
	case mir.LvVar:
		return top.Local(mir.LvVar, lv.Index), nil
	case mir.LvTemp:
		return top.Local(mir.LvTemp, lv.Index), nil

	case mir.LvProjection:
		basePtr, err := in.evalLvalue(*lv.Base)
		if err != nil {
			return memory.Pointer{}, err
		}
		baseRepr := in.lvalueRepr(*lv.Base)

		switch lv.Proj.Kind {
		case mir.ProjField:
			if baseRepr.Kind != repr.KindAggregate || baseRepr.DiscrSize != 0 {
				panic("interp: field projection on a non-product repr")
			}
			fr := baseRepr.Variants[0][lv.Proj.FieldIndex]
			return basePtr.Offset(int64(fr.Offset)), nil

		case mir.ProjDowncast:
			if baseRepr.Kind != repr.KindAggregate {
				panic("interp: variant downcast on a non-aggregate repr")
			}
			return basePtr.Offset(int64(baseRepr.DiscrSize)), nil

		case mir.ProjDeref:
			return in.Mem.ReadPtr(basePtr)

		case mir.ProjIndex:
			idxPtr, idxRepr, err := in.evalOperandAndRepr(*lv.Proj.IndexOperand)
			if err != nil {
				return memory.Pointer{}, err
			}
			idx, err := in.Mem.ReadUint(idxPtr, idxRepr.Size)
			if err != nil {
				return memory.Pointer{}, err
			}
			return basePtr.Offset(int64(idx) * int64(baseRepr.ElemSize)), nil

		case mir.ProjConstantIndex:
			return basePtr.Offset(int64(lv.Proj.ConstIndex) * int64(baseRepr.ElemSize)), nil
		}
	}
	panic("interp: unreachable lvalue kind")
}

// constToPtr materialises a constant operand's literal into a fresh
// allocation and returns a pointer to it, the way the original source's
// const_to_ptr turns a compile-time constant into something the rest of
// the interpreter can read uniformly through Memory.
func (in *Interpreter) constToPtr(c mir.Constant) (memory.Pointer, error) {
	switch c.Literal.Kind {
	case mir.Integral:
		p := in.Mem.Allocate(8)
		if err := in.Mem.WriteUint(p, c.Literal.IntVal, 8); err != nil {
			return memory.Pointer{}, err
		}
		return p, nil
	case mir.BoolLit:
		p := in.Mem.Allocate(1)
		if err := in.Mem.WriteBool(p, c.Literal.Bool); err != nil {
			return memory.Pointer{}, err
		}
		return p, nil
	default:
		return memory.Pointer{}, ierrors.New(ierrors.Unimplemented, "literal kind %d", c.Literal.Kind)
	}
}

// evalOperand resolves an Operand to the Pointer holding its value.
func (in *Interpreter) evalOperand(op mir.Operand) (memory.Pointer, error) {
	p, _, err := in.evalOperandAndRepr(op)
	return p, err
}

// evalOperandAndRepr is evalOperand plus the Repr of what it read, for
// callers (binary/unary ops, argument marshalling) that need the width
// or field layout alongside the value itself.
func (in *Interpreter) evalOperandAndRepr(op mir.Operand) (memory.Pointer, *repr.Repr, error) {
	switch op.Kind {
	case mir.Consume:
		p, err := in.evalLvalue(op.Lvalue)
		if err != nil {
			return memory.Pointer{}, nil, err
		}
		return p, in.lvalueRepr(op.Lvalue), nil
	case mir.ConstantOperand:
		p, err := in.constToPtr(op.Constant)
		if err != nil {
			return memory.Pointer{}, nil, err
		}
		return p, in.Repr.Layout(op.Constant.Ty, in.substs.Current()), nil
	default:
		panic("interp: unreachable operand kind")
	}
}

// operandTy is operand_ty: the monomorphic type an operand reads,
// needed by the Unsize cast to recover an array's length from its
// source type.
func (in *Interpreter) operandTy(op mir.Operand) types.Ty {
	switch op.Kind {
	case mir.Consume:
		return in.lvalueTypeOf(op.Lvalue).Ty
	case mir.ConstantOperand:
		return in.monomorphize(op.Constant.Ty)
	default:
		panic("interp: unreachable operand kind")
	}
}

// evalAssignment executes one `Assign(lvalue, rvalue)` statement.
func (in *Interpreter) evalAssignment(stmt mir.Statement) error {
	dest, err := in.evalLvalue(stmt.Lvalue)
	if err != nil {
		return err
	}
	destRepr := in.lvalueRepr(stmt.Lvalue)
	return in.evalRvalue(stmt.Rvalue, dest, destRepr)
}

func (in *Interpreter) evalRvalue(rv mir.Rvalue, dest memory.Pointer, destRepr *repr.Repr) error {
	switch rv.Kind {
	case mir.RUse:
		src, err := in.evalOperand(*rv.Use)
		if err != nil {
			return err
		}
		return in.Mem.Copy(src, dest, destRepr.Size)

	case mir.RBinaryOp:
		leftPtr, leftRepr, err := in.evalOperandAndRepr(*rv.Left)
		if err != nil {
			return err
		}
		leftVal, err := in.Mem.ReadPrimVal(leftPtr, leftRepr.PrimKind, leftRepr.PrimWidth)
		if err != nil {
			return err
		}
		rightPtr, rightRepr, err := in.evalOperandAndRepr(*rv.Right)
		if err != nil {
			return err
		}
		rightVal, err := in.Mem.ReadPrimVal(rightPtr, rightRepr.PrimKind, rightRepr.PrimWidth)
		if err != nil {
			return err
		}
		result, ok := primval.BinaryOp(rv.BinOp, leftVal, rightVal)
		if !ok {
			return ierrors.New(ierrors.DivisionByZero, "division or remainder by zero")
		}
		return in.Mem.WritePrimVal(dest, result)

	case mir.RUnaryOp:
		ptr, r, err := in.evalOperandAndRepr(*rv.Operand)
		if err != nil {
			return err
		}
		val, err := in.Mem.ReadPrimVal(ptr, r.PrimKind, r.PrimWidth)
		if err != nil {
			return err
		}
		return in.Mem.WritePrimVal(dest, primval.UnaryOp(rv.UnOp, val))

	case mir.RRef:
		ptr, err := in.evalLvalue(*rv.RefTarget)
		if err != nil {
			return err
		}
		return in.Mem.WritePtr(dest, ptr)

	case mir.RBox:
		size := in.Repr.Layout(rv.BoxTy, in.substs.Current()).Size
		return in.Mem.WritePtr(dest, in.Mem.Allocate(size))

	case mir.RAggregate:
		return in.assignAggregate(rv, dest, destRepr)

	case mir.RCast:
		return in.evalCast(rv, dest, destRepr)

	default:
		return ierrors.New(ierrors.Unimplemented, "rvalue kind %d", rv.Kind)
	}
}

func (in *Interpreter) assignAggregate(rv mir.Rvalue, dest memory.Pointer, destRepr *repr.Repr) error {
	switch rv.AggKind {
	case mir.AggTuple, mir.AggClosure:
		return in.assignToAggregate(dest, destRepr, 0, rv.Fields)
	case mir.AggAdt:
		return in.assignToAggregate(dest, destRepr, rv.VariantIdx, rv.Fields)
	case mir.AggArray:
		if destRepr.Kind != repr.KindArray {
			panic("interp: array aggregate assigned to a non-array repr")
		}
		if len(rv.Fields) != destRepr.Length {
			panic("interp: array aggregate element count doesn't match its repr's length")
		}
		for i, op := range rv.Fields {
			src, err := in.evalOperand(op)
			if err != nil {
				return err
			}
			elemDest := dest.Offset(int64(i * destRepr.ElemSize))
			if err := in.Mem.Copy(src, elemDest, destRepr.ElemSize); err != nil {
				return err
			}
		}
		return nil
	default:
		panic("interp: unreachable aggregate kind")
	}
}

// assignToAggregate writes a discriminant (if the target has one) and
// then each field of the given variant.
func (in *Interpreter) assignToAggregate(dest memory.Pointer, destRepr *repr.Repr, variant int, operands []mir.Operand) error {
	if destRepr.Kind != repr.KindAggregate {
		panic("interp: aggregate assignment to a non-aggregate repr")
	}
	if destRepr.DiscrSize > 0 {
		if err := in.Mem.WriteUint(dest, uint64(variant), destRepr.DiscrSize); err != nil {
			return err
		}
	}
	afterDiscr := dest.Offset(int64(destRepr.DiscrSize))
	for i, field := range destRepr.Variants[variant] {
		src, err := in.evalOperand(operands[i])
		if err != nil {
			return err
		}
		if err := in.Mem.Copy(src, afterDiscr.Offset(int64(field.Offset)), field.Size); err != nil {
			return err
		}
	}
	return nil
}

// evalCast implements Unsize (array -> slice, writing the length word
// alongside the copied data pointer) and Misc. Misc is a deliberately
// preserved limitation: the source interpreter this is grounded on
// always moves a flat 8 bytes regardless of the cast's actual width,
// which is wrong for anything narrower — kept here rather than "fixed",
// clamped to destRepr.Size so it doesn't read/write out of bounds on a
// destination smaller than 8 bytes.
func (in *Interpreter) evalCast(rv mir.Rvalue, dest memory.Pointer, destRepr *repr.Repr) error {
	src, err := in.evalOperand(*rv.CastOperand)
	if err != nil {
		return err
	}

	switch rv.CastKind {
	case mir.CastUnsize:
		if err := in.Mem.Copy(src, dest, in.Mem.PointerSize); err != nil {
			return err
		}
		srcTy := in.operandTy(*rv.CastOperand)
		pointee := srcTy.Elem
		if pointee == nil {
			return ierrors.New(ierrors.Unsupported, "unsize cast from a non-pointer type")
		}
		if pointee.Kind != types.Array {
			return ierrors.New(ierrors.Unsupported, "unsize cast only implemented for array -> slice")
		}
		size := in.Mem.PointerSize
		return in.Mem.WriteUint(dest.Offset(int64(size)), uint64(pointee.Len), size)

	case mir.CastMisc:
		n := destRepr.Size
		if n > 8 {
			n = 8
		}
		return in.Mem.Copy(src, dest, n)

	default:
		panic("interp: unreachable cast kind")
	}
}

// evalTerminator executes a basic block's terminator and reports what
// the main loop should do next.
func (in *Interpreter) evalTerminator(t mir.Terminator) (outcome, mir.BlockID, error) {
	switch t.Kind {
	case mir.TReturn:
		return outcomeReturn, 0, nil

	case mir.TGoto:
		return outcomeBlock, t.Goto, nil

	case mir.TIf:
		ptr, err := in.evalOperand(*t.Cond)
		if err != nil {
			return 0, 0, err
		}
		val, err := in.Mem.ReadBool(ptr)
		if err != nil {
			return 0, 0, err
		}
		if val {
			return outcomeBlock, t.Then, nil
		}
		return outcomeBlock, t.Else, nil

	case mir.TSwitchInt:
		discrPtr, err := in.evalLvalue(*t.Discr)
		if err != nil {
			return 0, 0, err
		}
		discrRepr := in.lvalueRepr(*t.Discr)
		discrVal, err := in.Mem.ReadUint(discrPtr, discrRepr.Size)
		if err != nil {
			return 0, 0, err
		}
		target := t.Targets[len(t.Targets)-1]
		for i, v := range t.Values {
			if discrVal == v {
				target = t.Targets[i]
				break
			}
		}
		return outcomeBlock, target, nil

	case mir.TSwitch:
		adtPtr, err := in.evalLvalue(*t.Discr)
		if err != nil {
			return 0, 0, err
		}
		adtRepr := in.lvalueRepr(*t.Discr)
		if adtRepr.Kind != repr.KindAggregate {
			panic("interp: switch on a non-aggregate discriminant")
		}
		discrVal, err := in.Mem.ReadUint(adtPtr, adtRepr.DiscrSize)
		if err != nil {
			return 0, 0, err
		}
		return outcomeBlock, t.Targets[discrVal], nil

	case mir.TCall:
		return in.evalCall(t)

	case mir.TDrop:
		// No destructors, no dynamic drop flags: dropping is scoped out.
		return outcomeBlock, t.DropTarget, nil

	case mir.TResume:
		return 0, 0, ierrors.New(ierrors.Unimplemented, "Resume (unwind) terminator")

	default:
		panic("interp: unreachable terminator kind")
	}
}

// evalCall dispatches a Call terminator by ABI. For a diverging call
// (Destination == nil) the frame's NextBlock is left untouched, matching
// the original source's behaviour of never arranging a landing pad for
// a call that isn't supposed to return.
func (in *Interpreter) evalCall(t mir.Terminator) (outcome, mir.BlockID, error) {
	var returnPtr *memory.Pointer
	if t.Destination != nil {
		in.stack.Top().NextBlock = t.Destination.Target
		p, err := in.evalLvalue(t.Destination.Lvalue)
		if err != nil {
			return 0, 0, err
		}
		returnPtr = &p
	}

	switch t.ABI {
	case mir.ABIRustIntrinsic:
		if err := in.callIntrinsic(t.IntrinsicName, t.CalleeSubsts, t.Args); err != nil {
			return 0, 0, err
		}
		return outcomeCall, 0, nil

	case mir.ABIRust, mir.ABIRustCall:
		substs := in.monomorphizeSubsts(t.CalleeSubsts)
		defID, resolvedSubsts, err := in.resolver.Resolve(t.CalleeDefID, substs)
		if err != nil {
			return 0, 0, err
		}

		type argSrc struct {
			ptr  memory.Pointer
			size int
		}
		argSrcs := make([]argSrc, 0, len(t.Args))
		for _, a := range t.Args {
			p, r, err := in.evalOperandAndRepr(a)
			if err != nil {
				return 0, 0, err
			}
			argSrcs = append(argSrcs, argSrc{ptr: p, size: r.Size})
		}

		// RustCall flattens a tupled final argument into one argument per
		// field, the way Fn/FnMut/FnOnce::call(_mut/_once) are shaped.
		if t.ABI == mir.ABIRustCall && len(t.Args) > 0 {
			argSrcs = argSrcs[:len(argSrcs)-1]
			lastPtr, lastRepr, err := in.evalOperandAndRepr(t.Args[len(t.Args)-1])
			if err != nil {
				return 0, 0, err
			}
			if lastRepr.Kind != repr.KindAggregate || lastRepr.DiscrSize != 0 {
				panic("interp: expected a tuple as the last argument of a rust-call ABI function")
			}
			for _, fr := range lastRepr.Variants[0] {
				argSrcs = append(argSrcs, argSrc{ptr: lastPtr.Offset(int64(fr.Offset)), size: fr.Size})
			}
		}

		body, err := in.cache.Load(defID)
		if err != nil {
			return 0, 0, err
		}
		if err := in.PushStackFrame(body, resolvedSubsts, returnPtr); err != nil {
			return 0, 0, err
		}

		top := in.stack.Top()
		for i, as := range argSrcs {
			if err := in.Mem.Copy(as.ptr, top.Locals[i], as.size); err != nil {
				return 0, 0, err
			}
		}
		return outcomeCall, 0, nil

	default:
		return 0, 0, ierrors.New(ierrors.Unsupported, "call ABI %d", t.ABI)
	}
}

// callIntrinsic executes one of the six required intrinsics in place —
// no frame is pushed — writing its result (if any) directly to the
// *current* frame's own ReturnPointer. That's not a mistake: a real
// std::intrinsics wrapper's body is exactly `_0 = intrinsic(args); return`,
// so by the time the Call terminator runs, the intrinsic's result belongs
// at the currently-executing function's own return place, per the
// original source's call_intrinsic.
func (in *Interpreter) callIntrinsic(name string, substs *types.Substs, args []mir.Operand) error {
	dest, err := in.evalLvalue(mir.ReturnPointer())
	if err != nil {
		return err
	}
	destRepr := in.lvalueRepr(mir.ReturnPointer())

	typeArg := func() types.Ty {
		if substs == nil || len(substs.Types) == 0 {
			panic("interp: intrinsic " + name + " called with no type argument")
		}
		return in.monomorphize(substs.Types[0])
	}

	switch name {
	case "copy_nonoverlapping":
		elemSize := in.Repr.Layout(typeArg(), types.Empty).Size

		srcArg, err := in.evalOperand(args[0])
		if err != nil {
			return err
		}
		destArg, err := in.evalOperand(args[1])
		if err != nil {
			return err
		}
		countArg, err := in.evalOperand(args[2])
		if err != nil {
			return err
		}

		srcPtr, err := in.Mem.ReadPtr(srcArg)
		if err != nil {
			return err
		}
		destPtr, err := in.Mem.ReadPtr(destArg)
		if err != nil {
			return err
		}
		// Read as a signed int, matching the original source's
		// copy_nonoverlapping exactly — mixing a signed count with an
		// otherwise-unsigned length is one of its preserved quirks, not
		// something to quietly correct here.
		count, err := in.Mem.ReadInt(countArg, in.Mem.PointerSize)
		if err != nil {
			return err
		}
		return in.Mem.Copy(srcPtr, destPtr, int(count)*elemSize)

	case "forget":
		return nil

	case "offset":
		pointeeSize := in.Repr.Layout(typeArg(), types.Empty).Size

		ptrArg, err := in.evalOperand(args[0])
		if err != nil {
			return err
		}
		offsetArg, err := in.evalOperand(args[1])
		if err != nil {
			return err
		}
		ptr, err := in.Mem.ReadPtr(ptrArg)
		if err != nil {
			return err
		}
		offset, err := in.Mem.ReadInt(offsetArg, in.Mem.PointerSize)
		if err != nil {
			return err
		}
		result := ptr.Offset(offset * int64(pointeeSize))
		return in.Mem.WritePtr(dest, result)

	case "size_of":
		size := in.Repr.Layout(typeArg(), types.Empty).Size
		return in.Mem.WriteUint(dest, uint64(size), destRepr.Size)

	case "transmute":
		src, err := in.evalOperand(args[0])
		if err != nil {
			return err
		}
		return in.Mem.Copy(src, dest, destRepr.Size)

	case "uninit":
		return nil

	default:
		return ierrors.New(ierrors.Unsupported, "intrinsic %q", name)
	}
}
