package interp_test

import (
	"testing"

	"mirinterp/internal/interp"
	"mirinterp/internal/memory"
	"mirinterp/internal/mir"
	"mirinterp/internal/mircache"
	"mirinterp/internal/primval"
	"mirinterp/internal/types"
	"mirinterp/internal/types/fixture"
)

func intConst(kind types.Kind, v uint64) mir.Operand {
	return mir.ConstOperand(mir.Constant{
		Ty:      types.Ty{Kind: kind},
		Literal: mir.Literal{Kind: mir.Integral, IntVal: v},
	})
}

func opPtr(o mir.Operand) *mir.Operand { return &o }

// newRun wires a single-function fixture (ctx + local MIR map + cache +
// interpreter), ready for the caller to load and push the entry frame.
func newRun(t *testing.T, body *mir.Body, name string) *interp.Interpreter {
	t.Helper()
	ctx := fixture.New()
	ctx.AddLocal(body.DefID, types.NodeID(body.DefID), name, types.Ty{})
	localMap := mircache.MapLocalMap{types.NodeID(body.DefID): body}
	cache := mircache.New(ctx, localMap, nil)
	return interp.New(ctx, cache, 8)
}

func runEntry(t *testing.T, in *interp.Interpreter, id types.DefID, returnSize int) memory.Pointer {
	t.Helper()
	cached, err := in.LoadBody(id)
	if err != nil {
		t.Fatal(err)
	}
	retPtr := in.Mem.Allocate(returnSize)
	if err := in.PushStackFrame(cached, types.Empty, &retPtr); err != nil {
		t.Fatal(err)
	}
	if err := in.Run(); err != nil {
		t.Fatal(err)
	}
	return retPtr
}

func TestArithmetic(t *testing.T) {
	// 2_i32 + 3_i32 * 4_i32 == 14
	i32 := types.Ty{Kind: types.Int32}
	body := &mir.Body{
		DefID:     1,
		ReturnTy:  mir.Converging(i32),
		TempDecls: []mir.LocalDecl{{Ty: i32}},
		Blocks: []mir.BasicBlock{{
			Statements: []mir.Statement{
				{Lvalue: mir.Temp(0), Rvalue: mir.Rvalue{
					Kind:  mir.RBinaryOp,
					BinOp: primval.Mul,
					Left:  opPtr(intConst(types.Int32, 3)),
					Right: opPtr(intConst(types.Int32, 4)),
				}},
				{Lvalue: mir.ReturnPointer(), Rvalue: mir.Rvalue{
					Kind:  mir.RBinaryOp,
					BinOp: primval.Add,
					Left:  opPtr(intConst(types.Int32, 2)),
					Right: opPtr(mir.ConsumeOperand(mir.Temp(0))),
				}},
			},
			Terminator: mir.Terminator{Kind: mir.TReturn},
		}},
	}

	in := newRun(t, body, "arithmetic")
	retPtr := runEntry(t, in, body.DefID, 4)

	got, err := in.Mem.ReadInt(retPtr, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got != 14 {
		t.Fatalf("got %d, want 14", got)
	}
}

func TestBranch(t *testing.T) {
	// if 5 < 3 { 1_u8 } else { 7_u8 } == 7
	u8 := types.Ty{Kind: types.Uint8}
	body := &mir.Body{
		DefID:     2,
		ReturnTy:  mir.Converging(u8),
		TempDecls: []mir.LocalDecl{{Ty: types.Ty{Kind: types.Bool}}},
		Blocks: []mir.BasicBlock{
			{
				Statements: []mir.Statement{
					{Lvalue: mir.Temp(0), Rvalue: mir.Rvalue{
						Kind:  mir.RBinaryOp,
						BinOp: primval.Lt,
						Left:  opPtr(intConst(types.Int32, 5)),
						Right: opPtr(intConst(types.Int32, 3)),
					}},
				},
				Terminator: mir.Terminator{Kind: mir.TIf, Cond: opPtr(mir.ConsumeOperand(mir.Temp(0))), Then: 1, Else: 2},
			},
			{
				Statements: []mir.Statement{{Lvalue: mir.ReturnPointer(), Rvalue: mir.Rvalue{Kind: mir.RUse, Use: opPtr(intConst(types.Uint8, 1))}}},
				Terminator: mir.Terminator{Kind: mir.TReturn},
			},
			{
				Statements: []mir.Statement{{Lvalue: mir.ReturnPointer(), Rvalue: mir.Rvalue{Kind: mir.RUse, Use: opPtr(intConst(types.Uint8, 7))}}},
				Terminator: mir.Terminator{Kind: mir.TReturn},
			},
		},
	}

	in := newRun(t, body, "branch")
	retPtr := runEntry(t, in, body.DefID, 1)

	got, err := in.Mem.ReadUint(retPtr, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}

func TestEnumDowncast(t *testing.T) {
	// Option<u8>::Some(9), matched via Downcast/Field, returns 9.
	u8 := types.Ty{Kind: types.Uint8}
	optionAdt := &types.AdtDef{
		Name: "Option",
		Variants: []types.VariantDef{
			{Name: "None", Fields: nil},
			{Name: "Some", Fields: []types.Ty{u8}},
		},
	}
	optionTy := types.Ty{Kind: types.Adt, Adt: optionAdt}

	body := &mir.Body{
		DefID:    3,
		ReturnTy: mir.Converging(u8),
		VarDecls: []mir.LocalDecl{{Ty: optionTy}},
		Blocks: []mir.BasicBlock{
			{
				Statements: []mir.Statement{
					{Lvalue: mir.Var(0), Rvalue: mir.Rvalue{
						Kind: mir.RAggregate, AggKind: mir.AggAdt, VariantIdx: 1,
						Fields: []mir.Operand{intConst(types.Uint8, 9)},
					}},
				},
				Terminator: mir.Terminator{Kind: mir.TGoto, Goto: 1},
			},
			{
				Statements: []mir.Statement{
					{
						Lvalue: mir.ReturnPointer(),
						Rvalue: mir.Rvalue{Kind: mir.RUse, Use: opPtr(mir.ConsumeOperand(
							mir.Field(mir.Downcast(mir.Var(0), 1), 0),
						))},
					},
				},
				Terminator: mir.Terminator{Kind: mir.TReturn},
			},
		},
	}

	in := newRun(t, body, "enum_downcast")
	retPtr := runEntry(t, in, body.DefID, 1)

	got, err := in.Mem.ReadUint(retPtr, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 9 {
		t.Fatalf("got %d, want 9", got)
	}
}

func TestBoxAndDeref(t *testing.T) {
	// let b = Box::new(42_u64); *b == 42.
	u64 := types.Ty{Kind: types.Uint64}
	boxTy := types.Ty{Kind: types.Box, Elem: &u64}

	body := &mir.Body{
		DefID:    4,
		ReturnTy: mir.Converging(u64),
		VarDecls: []mir.LocalDecl{{Ty: boxTy}},
		Blocks: []mir.BasicBlock{{
			Statements: []mir.Statement{
				{Lvalue: mir.Var(0), Rvalue: mir.Rvalue{Kind: mir.RBox, BoxTy: u64}},
				{Lvalue: mir.Deref(mir.Var(0)), Rvalue: mir.Rvalue{Kind: mir.RUse, Use: opPtr(intConst(types.Uint64, 42))}},
				{Lvalue: mir.ReturnPointer(), Rvalue: mir.Rvalue{Kind: mir.RUse, Use: opPtr(mir.ConsumeOperand(mir.Deref(mir.Var(0))))}},
			},
			Terminator: mir.Terminator{Kind: mir.TReturn},
		}},
	}

	in := newRun(t, body, "box_deref")
	retPtr := runEntry(t, in, body.DefID, 8)

	got, err := in.Mem.ReadUint(retPtr, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestSizeOfIntrinsic(t *testing.T) {
	// size_of::<(u8,u32)>() == 5 (no padding in this model).
	u8 := types.Ty{Kind: types.Uint8}
	u32 := types.Ty{Kind: types.Uint32}
	usize := types.Ty{Kind: types.Usize}
	tupleTy := types.Ty{Kind: types.Tuple, Fields: []types.Ty{u8, u32}}

	body := &mir.Body{
		DefID:    5,
		ReturnTy: mir.Converging(usize),
		Blocks: []mir.BasicBlock{
			{
				Terminator: mir.Terminator{
					Kind:          mir.TCall,
					ABI:           mir.ABIRustIntrinsic,
					IntrinsicName: "size_of",
					CalleeSubsts:  &types.Substs{Types: []types.Ty{tupleTy}},
					Destination:   &mir.CallDestination{Lvalue: mir.ReturnPointer(), Target: 1},
				},
			},
			{Terminator: mir.Terminator{Kind: mir.TReturn}},
		},
	}

	in := newRun(t, body, "size_of_user")
	retPtr := runEntry(t, in, body.DefID, 8)

	got, err := in.Mem.ReadUint(retPtr, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Fatalf("got %d, want 5", got)
	}
}

func TestTraitDispatch(t *testing.T) {
	// A function calling Trait::get with Self = Foo: trait resolution goes
	// through the impl database to Foo's concrete method, which returns 100.
	u8 := types.Ty{Kind: types.Uint8}
	fooTy := types.Ty{Kind: types.Adt, Adt: &types.AdtDef{Name: "Foo", Variants: []types.VariantDef{{Name: "Foo"}}}}

	const (
		idDefID     types.DefID = 10
		traitDefID  types.DefID = 11
		getMethodID types.DefID = 12
		implID      types.DefID = 13
		implGetID   types.DefID = 14
	)

	idBody := &mir.Body{
		DefID:    idDefID,
		ReturnTy: mir.Converging(u8),
		Blocks: []mir.BasicBlock{
			{
				Terminator: mir.Terminator{
					Kind:         mir.TCall,
					ABI:          mir.ABIRust,
					CalleeDefID:  getMethodID,
					CalleeSubsts: &types.Substs{Types: []types.Ty{fooTy}},
					Destination:  &mir.CallDestination{Lvalue: mir.ReturnPointer(), Target: 1},
				},
			},
			{Terminator: mir.Terminator{Kind: mir.TReturn}},
		},
	}

	implGetBody := &mir.Body{
		DefID:    implGetID,
		ReturnTy: mir.Converging(u8),
		Blocks: []mir.BasicBlock{{
			Statements: []mir.Statement{{Lvalue: mir.ReturnPointer(), Rvalue: mir.Rvalue{Kind: mir.RUse, Use: opPtr(intConst(types.Uint8, 100))}}},
			Terminator: mir.Terminator{Kind: mir.TReturn},
		}},
	}

	ctx := fixture.New()
	ctx.AddLocal(idDefID, types.NodeID(idDefID), "id", types.Ty{})
	ctx.AddLocal(implGetID, types.NodeID(implGetID), "get", types.Ty{})
	ctx.AddTraitMethod(getMethodID, traitDefID, "get")
	ctx.AddImpl(traitDefID, fooTy, implID, &types.Substs{})
	ctx.AddImplMethod(implID, "get", implGetID)

	localMap := mircache.MapLocalMap{
		types.NodeID(idDefID):   idBody,
		types.NodeID(implGetID): implGetBody,
	}
	cache := mircache.New(ctx, localMap, nil)
	in := interp.New(ctx, cache, 8)
	retPtr := runEntry(t, in, idDefID, 1)

	got, err := in.Mem.ReadUint(retPtr, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != 100 {
		t.Fatalf("got %d, want 100", got)
	}
}
