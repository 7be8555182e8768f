// Package primval implements PrimVal: the tagged primitive values (bool,
// signed ints, unsigned ints of width 1/2/4/8) that binary and unary
// operators in a rvalue assignment act on.
package primval

import "fmt"

// Kind tags the shape a PrimVal's bits should be interpreted as.
type Kind int

const (
	KindBool Kind = iota
	KindSigned
	KindUnsigned
)

// PrimVal is a tagged primitive. Bits holds the raw value; bits above
// Width may be set for signed values, so read it through AsInt64 or
// AsUint64, which sign-extend or mask to Width. Width is the original
// byte width (1, 2, 4, or 8) and is ignored for KindBool.
type PrimVal struct {
	Kind  Kind
	Width int
	Bits  uint64
}

func Bool(b bool) PrimVal {
	var bits uint64
	if b {
		bits = 1
	}
	return PrimVal{Kind: KindBool, Width: 1, Bits: bits}
}

func Signed(v int64, width int) PrimVal {
	return PrimVal{Kind: KindSigned, Width: width, Bits: uint64(v)}
}

func Unsigned(v uint64, width int) PrimVal {
	return PrimVal{Kind: KindUnsigned, Width: width, Bits: maskWidth(v, width)}
}

func (p PrimVal) AsBool() bool { return p.Bits != 0 }

func (p PrimVal) AsInt64() int64 {
	return signExtend(p.Bits, p.Width)
}

func (p PrimVal) AsUint64() uint64 {
	return maskWidth(p.Bits, p.Width)
}

func (p PrimVal) String() string {
	switch p.Kind {
	case KindBool:
		return fmt.Sprintf("%v", p.AsBool())
	case KindSigned:
		return fmt.Sprintf("%d_i%d", p.AsInt64(), p.Width*8)
	default:
		return fmt.Sprintf("%d_u%d", p.AsUint64(), p.Width*8)
	}
}

func maskWidth(v uint64, width int) uint64 {
	if width >= 8 {
		return v
	}
	return v & ((uint64(1) << (uint(width) * 8)) - 1)
}

func signExtend(bits uint64, width int) int64 {
	if width >= 8 {
		return int64(bits)
	}
	shift := uint(64 - width*8)
	return int64(bits<<shift) >> shift
}

// BinOp enumerates the binary operators a rvalue assignment can apply.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Rem
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

// UnOp enumerates the unary operators a rvalue assignment can apply.
type UnOp int

const (
	Not UnOp = iota // logical not (bool) or bitwise not (int)
	Neg             // arithmetic negation, signed only
)

// BinaryOp applies op to a and b. Overflow wraps (two's complement);
// division/remainder by zero reports ok=false so the caller can raise
// ierrors.DivisionByZero without this package importing ierrors.
func BinaryOp(op BinOp, a, b PrimVal) (result PrimVal, ok bool) {
	switch op {
	case Eq, Ne, Lt, Le, Gt, Ge:
		return comparison(op, a, b), true
	}

	width := a.Width
	if b.Width > width {
		width = b.Width
	}

	if a.Kind == KindSigned || b.Kind == KindSigned {
		x, y := a.AsInt64(), b.AsInt64()
		switch op {
		case Add:
			return Signed(x+y, width), true
		case Sub:
			return Signed(x-y, width), true
		case Mul:
			return Signed(x*y, width), true
		case Div:
			if y == 0 {
				return PrimVal{}, false
			}
			return Signed(x/y, width), true
		case Rem:
			if y == 0 {
				return PrimVal{}, false
			}
			return Signed(x%y, width), true
		case BitAnd:
			return Signed(x&y, width), true
		case BitOr:
			return Signed(x|y, width), true
		case BitXor:
			return Signed(x^y, width), true
		case Shl:
			return Signed(x<<uint(y), width), true
		case Shr:
			return Signed(x>>uint(y), width), true
		}
	}

	x, y := a.AsUint64(), b.AsUint64()
	switch op {
	case Add:
		return Unsigned(x+y, width), true
	case Sub:
		return Unsigned(x-y, width), true
	case Mul:
		return Unsigned(x*y, width), true
	case Div:
		if y == 0 {
			return PrimVal{}, false
		}
		return Unsigned(x/y, width), true
	case Rem:
		if y == 0 {
			return PrimVal{}, false
		}
		return Unsigned(x%y, width), true
	case BitAnd:
		return Unsigned(x&y, width), true
	case BitOr:
		return Unsigned(x|y, width), true
	case BitXor:
		return Unsigned(x^y, width), true
	case Shl:
		return Unsigned(x<<y, width), true
	case Shr:
		return Unsigned(x>>y, width), true
	}

	panic(fmt.Sprintf("primval: unhandled binary operator %d", op))
}

func comparison(op BinOp, a, b PrimVal) PrimVal {
	var less, equal bool
	if a.Kind == KindSigned || b.Kind == KindSigned {
		x, y := a.AsInt64(), b.AsInt64()
		less, equal = x < y, x == y
	} else {
		x, y := a.AsUint64(), b.AsUint64()
		less, equal = x < y, x == y
	}

	switch op {
	case Eq:
		return Bool(equal)
	case Ne:
		return Bool(!equal)
	case Lt:
		return Bool(less)
	case Le:
		return Bool(less || equal)
	case Gt:
		return Bool(!less && !equal)
	case Ge:
		return Bool(!less || equal)
	}
	panic("primval: unreachable comparison operator")
}

// UnaryOp applies op to v. Not on a bool is logical negation; Not on an
// int is bitwise complement; Neg is arithmetic negation and only valid on
// signed values (a type-checked program never asks for Neg on unsigned).
func UnaryOp(op UnOp, v PrimVal) PrimVal {
	switch op {
	case Not:
		if v.Kind == KindBool {
			return Bool(!v.AsBool())
		}
		return PrimVal{Kind: v.Kind, Width: v.Width, Bits: maskWidth(^v.Bits, v.Width)}
	case Neg:
		if v.Kind != KindSigned {
			panic("primval: arithmetic negation on non-signed PrimVal")
		}
		return Signed(-v.AsInt64(), v.Width)
	}
	panic(fmt.Sprintf("primval: unhandled unary operator %d", op))
}
