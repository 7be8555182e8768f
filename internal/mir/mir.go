// Package mir defines the shape of the mid-level IR the interpreter
// consumes: function bodies, basic blocks, statements, terminators, and
// lvalues/operands/rvalues. The front-end that produces these values, and
// the type-checker tables alongside them, are out of scope — this package
// only declares the shape, and internal/interp only ever reads it.
package mir

import (
	"mirinterp/internal/primval"
	"mirinterp/internal/types"
)

// BlockID indexes a basic block within a Body. START is where execution
// of a freshly pushed frame begins.
type BlockID int

const START BlockID = 0

// LocalDecl is one argument, variable, or temporary slot: just its type,
// since that's all layout and addressing need.
type LocalDecl struct {
	Ty types.Ty
}

// ReturnTy is a function's return type: either it converges to a concrete
// type, or it diverges (panics/loops forever) and has no return value.
type ReturnTy struct {
	Diverging bool
	Ty        types.Ty
}

func Converging(ty types.Ty) ReturnTy { return ReturnTy{Ty: ty} }
func Diverging() ReturnTy             { return ReturnTy{Diverging: true} }

// Body is one function's IR: its locals (arguments, then user variables,
// then compiler temporaries, in that order — the Frame layout
// mirrors this directly) and its control-flow graph of basic blocks.
type Body struct {
	DefID     types.DefID
	Attrs     []string // source attributes carried on the item, e.g. "miri_run"
	ArgDecls  []LocalDecl
	VarDecls  []LocalDecl
	TempDecls []LocalDecl
	ReturnTy  ReturnTy
	Blocks    []BasicBlock
}

func (b *Body) Block(id BlockID) *BasicBlock { return &b.Blocks[id] }

// HasAttr reports whether the item carries the named attribute, the way
// the original source scans a crate for `#[miri_run]`-annotated functions
// to find entry points (internal/driver's DiscoverEntries).
func (b *Body) HasAttr(name string) bool {
	for _, a := range b.Attrs {
		if a == name {
			return true
		}
	}
	return false
}

// BasicBlock is an ordered list of assignment statements followed by
// exactly one terminator.
type BasicBlock struct {
	Statements []Statement
	Terminator Terminator
}

// Statement is always an assignment in this tier: other statement kinds
// (StorageLive/Dead, inline asm, ...) are out of scope.
type Statement struct {
	Lvalue Lvalue
	Rvalue Rvalue
}

// LvalueKind tags which addressing mode an Lvalue uses.
type LvalueKind int

const (
	LvReturnPointer LvalueKind = iota
	LvArg
	LvVar
	LvTemp
	LvProjection
)

// ProjKind tags a single projection step applied to a base Lvalue.
type ProjKind int

const (
	ProjField ProjKind = iota
	ProjDowncast
	ProjDeref
	ProjIndex
	ProjConstantIndex
)

// Projection is one step of an Lvalue's projection chain, evaluated
// left-to-right against the running base pointer.
type Projection struct {
	Kind ProjKind

	FieldIndex int // ProjField
	VariantIdx int // ProjDowncast: the variant being downcast to

	IndexOperand *Operand // ProjIndex: a runtime index
	ConstIndex   int      // ProjConstantIndex: a compile-time-known index
}

// Lvalue resolves to a Pointer. Base/Proj are only
// meaningful when Kind == LvProjection; Index is only meaningful for
// LvArg/LvVar/LvTemp.
type Lvalue struct {
	Kind  LvalueKind
	Index int

	Base *Lvalue
	Proj Projection
}

func ReturnPointer() Lvalue         { return Lvalue{Kind: LvReturnPointer} }
func Arg(i int) Lvalue              { return Lvalue{Kind: LvArg, Index: i} }
func Var(i int) Lvalue              { return Lvalue{Kind: LvVar, Index: i} }
func Temp(i int) Lvalue             { return Lvalue{Kind: LvTemp, Index: i} }

func Field(base Lvalue, index int) Lvalue {
	return Lvalue{Kind: LvProjection, Base: &base, Proj: Projection{Kind: ProjField, FieldIndex: index}}
}

func Downcast(base Lvalue, variant int) Lvalue {
	return Lvalue{Kind: LvProjection, Base: &base, Proj: Projection{Kind: ProjDowncast, VariantIdx: variant}}
}

func Deref(base Lvalue) Lvalue {
	return Lvalue{Kind: LvProjection, Base: &base, Proj: Projection{Kind: ProjDeref}}
}

func ConstantIndex(base Lvalue, index int) Lvalue {
	return Lvalue{Kind: LvProjection, Base: &base, Proj: Projection{Kind: ProjConstantIndex, ConstIndex: index}}
}

func Index(base Lvalue, indexOperand Operand) Lvalue {
	return Lvalue{Kind: LvProjection, Base: &base, Proj: Projection{Kind: ProjIndex, IndexOperand: &indexOperand}}
}

// LiteralKind tags a constant operand's literal shape. Only Integral and
// BoolLit are implemented; the rest are recognised so a caller can name
// them precisely in an Unimplemented error rather than crashing on a type
// switch.
type LiteralKind int

const (
	Integral LiteralKind = iota
	BoolLit
	StrLit
	ByteStrLit
	FloatLit
	ItemLit
)

type Literal struct {
	Kind   LiteralKind
	IntVal uint64
	Bool   bool
}

type Constant struct {
	Ty      types.Ty
	Literal Literal
}

// OperandKind tags whether an Operand reads through a place or is an
// inline constant.
type OperandKind int

const (
	Consume OperandKind = iota
	ConstantOperand
)

type Operand struct {
	Kind     OperandKind
	Lvalue   Lvalue
	Constant Constant
}

func ConsumeOperand(lv Lvalue) Operand { return Operand{Kind: Consume, Lvalue: lv} }
func ConstOperand(c Constant) Operand  { return Operand{Kind: ConstantOperand, Constant: c} }

// RvalueKind tags which assignment semantics apply.
type RvalueKind int

const (
	RUse RvalueKind = iota
	RBinaryOp
	RUnaryOp
	RRef
	RBox
	RAggregate
	RCast
)

// AggregateKind tags how Rvalue's Fields should be laid out.
type AggregateKind int

const (
	AggTuple AggregateKind = iota
	AggAdt
	AggArray
	AggClosure
)

// CastKind tags an Rvalue's Cast semantics.
type CastKind int

const (
	CastUnsize CastKind = iota
	CastMisc
)

// Rvalue is the right-hand side of an assignment statement. Only the
// fields relevant to Kind are meaningful.
type Rvalue struct {
	Kind RvalueKind

	Use *Operand // RUse

	BinOp primval.BinOp // RBinaryOp
	Left  *Operand      // RBinaryOp
	Right *Operand      // RBinaryOp

	UnOp    primval.UnOp // RUnaryOp
	Operand *Operand     // RUnaryOp

	RefTarget *Lvalue // RRef

	BoxTy types.Ty // RBox

	AggKind    AggregateKind // RAggregate
	VariantIdx int           // RAggregate (AggAdt)
	Fields     []Operand     // RAggregate

	CastKind    CastKind // RCast
	CastOperand *Operand // RCast
	CastTy      types.Ty // RCast
}

// TerminatorKind tags which terminator shape a block
// ends with.
type TerminatorKind int

const (
	TGoto TerminatorKind = iota
	TIf
	TSwitchInt
	TSwitch
	TCall
	TDrop
	TReturn
	TResume
)

// CallDestination is where a Call terminator writes its result and which
// block resumes once it has (absent for diverging calls).
type CallDestination struct {
	Lvalue Lvalue
	Target BlockID
}

// Terminator ends a BasicBlock. Only the fields relevant to Kind are
// meaningful.
type Terminator struct {
	Kind TerminatorKind

	Goto BlockID // TGoto

	Cond       *Operand // TIf
	Then, Else BlockID  // TIf

	Discr   *Lvalue  // TSwitchInt, TSwitch
	Values  []uint64 // TSwitchInt: len(Values)+1 == len(Targets)
	Targets []BlockID

	// TCall. The callee's def_id/substs/ABI stand in for the original
	// source's `func_ty.sty` match against `TyFnDef` — this tier doesn't
	// model function-item types, so the callee is named directly rather
	// than recovered from a function-typed operand.
	ABI           CallABI
	IntrinsicName string
	CalleeDefID   types.DefID
	CalleeSubsts  *types.Substs
	Args          []Operand
	Destination   *CallDestination // nil means the call diverges

	DropTarget BlockID // TDrop
}

// CallABI tags which calling convention a Call terminator's callee uses,
// matching a CFG-driven main loop's own terminator dispatch.
type CallABI int

const (
	ABIRust CallABI = iota
	ABIRustCall
	ABIRustIntrinsic
	ABIOther
)
