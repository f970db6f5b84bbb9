// primops.go — the primitive evaluation oracle
//
// What this file does
// -------------------
// Total/partial evaluation tables for the operator vocabulary in
// primitive.go, plus the fixed registry of named scalar functions used by
// FunExp nodes. Each Do* function returns (result, ok); ok is false when
// the table has no entry for that operator/value combination (wrong value
// kinds, division by zero, ...). The scalar algebra is the only consumer;
// nothing else may depend on the internals here.
//
// Integer semantics: sdiv/smod round toward negative infinity, squot/srem
// truncate toward zero, shifts mask the amount to the operand width, and
// every result is re-truncated to the operator's width. Float semantics are
// IEEE via float64, rounded through the tagged width.
package loom

import (
	"math"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// DoBinOp applies a binary operator to two values. ok is false when the
// operands do not match the operator's type or the operation is undefined
// for those values.
func DoBinOp(op BinOp, x, y PrimValue) (PrimValue, bool) {
	if op.Code == LogAnd || op.Code == LogOr {
		if x.Type != Bool || y.Type != Bool {
			return PrimValue{}, false
		}
		if op.Code == LogAnd {
			return BoolValue(x.B && y.B), true
		}
		return BoolValue(x.B || y.B), true
	}
	if x.Type != op.Type || y.Type != op.Type {
		return PrimValue{}, false
	}
	if op.Type.IsInt() {
		return doIntBinOp(op, x.I, y.I)
	}
	if op.Type.IsFloat() {
		return doFloatBinOp(op, x.F, y.F)
	}
	return PrimValue{}, false
}

// DoCmpOp applies a comparison operator; the result is always a bool value.
func DoCmpOp(op CmpOp, x, y PrimValue) (PrimValue, bool) {
	if x.Type != op.Type || y.Type != op.Type {
		return PrimValue{}, false
	}
	switch op.Code {
	case CmpEq:
		return BoolValue(x.Equal(y)), true
	case CmpSlt:
		if !op.Type.IsInt() {
			return PrimValue{}, false
		}
		return BoolValue(x.I < y.I), true
	case CmpSle:
		if !op.Type.IsInt() {
			return PrimValue{}, false
		}
		return BoolValue(x.I <= y.I), true
	case FCmpLt:
		if !op.Type.IsFloat() {
			return PrimValue{}, false
		}
		return BoolValue(x.F < y.F), true
	case FCmpLe:
		if !op.Type.IsFloat() {
			return PrimValue{}, false
		}
		return BoolValue(x.F <= y.F), true
	case CmpLlt:
		if op.Type != Bool {
			return PrimValue{}, false
		}
		return BoolValue(!x.B && y.B), true
	case CmpLle:
		if op.Type != Bool {
			return PrimValue{}, false
		}
		return BoolValue(!x.B || y.B), true
	}
	return PrimValue{}, false
}

// DoUnOp applies a unary operator.
func DoUnOp(op UnOp, x PrimValue) (PrimValue, bool) {
	if x.Type != op.Type {
		return PrimValue{}, false
	}
	switch op.Code {
	case Not:
		return BoolValue(!x.B), true
	case Complement:
		return IntValue(op.Type, ^x.I), true
	case Abs:
		if x.I < 0 {
			return IntValue(op.Type, -x.I), true
		}
		return x, true
	case FAbs:
		return FloatValue(op.Type, math.Abs(x.F)), true
	case SSignum:
		switch {
		case x.I > 0:
			return IntValue(op.Type, 1), true
		case x.I < 0:
			return IntValue(op.Type, -1), true
		}
		return IntValue(op.Type, 0), true
	case FSignum:
		switch {
		case x.F > 0:
			return FloatValue(op.Type, 1), true
		case x.F < 0:
			return FloatValue(op.Type, -1), true
		}
		return FloatValue(op.Type, x.F), true
	}
	return PrimValue{}, false
}

// DoConvOp applies a value conversion.
func DoConvOp(op ConvOp, x PrimValue) (PrimValue, bool) {
	if x.Type != op.From {
		return PrimValue{}, false
	}
	switch op.Code {
	case SExt:
		return IntValue(op.To, x.I), true
	case FPConv:
		return FloatValue(op.To, x.F), true
	case SIToFP:
		return FloatValue(op.To, float64(x.I)), true
	case FPToSI:
		if math.IsNaN(x.F) || math.IsInf(x.F, 0) {
			return IntValue(op.To, 0), true
		}
		return IntValue(op.To, int64(x.F)), true
	case IToB:
		return BoolValue(x.I != 0), true
	case BToI:
		v := int64(0)
		if x.B {
			v = 1
		}
		return IntValue(op.To, v), true
	}
	return PrimValue{}, false
}

// DoFun applies a registered named scalar function. ok is false for an
// unknown name or mismatched argument values.
func DoFun(name string, args []PrimValue) (PrimValue, bool) {
	f, ok := primFuns[name]
	if !ok || len(args) != len(f.args) {
		return PrimValue{}, false
	}
	for i, a := range args {
		if a.Type != f.args[i] {
			return PrimValue{}, false
		}
	}
	return f.apply(args), true
}

// FunRetType reports a registered function's declared result type.
func FunRetType(name string) (PrimType, bool) {
	f, ok := primFuns[name]
	if !ok {
		return 0, false
	}
	return f.ret, ok
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                   PRIVATE
////////////////////////////////////////////////////////////////////////////////

func doIntBinOp(op BinOp, a, b int64) (PrimValue, bool) {
	t := op.Type
	switch op.Code {
	case Add:
		return IntValue(t, a+b), true
	case Sub:
		return IntValue(t, a-b), true
	case Mul:
		return IntValue(t, a*b), true
	case Pow:
		return IntValue(t, intPow(a, b)), true
	case SDiv:
		if b == 0 {
			return PrimValue{}, false
		}
		return IntValue(t, floorDiv(a, b)), true
	case SMod:
		if b == 0 {
			return PrimValue{}, false
		}
		return IntValue(t, floorMod(a, b)), true
	case SQuot:
		if b == 0 {
			return PrimValue{}, false
		}
		return IntValue(t, a/b), true
	case SRem:
		if b == 0 {
			return PrimValue{}, false
		}
		return IntValue(t, a%b), true
	case SMin:
		return IntValue(t, min(a, b)), true
	case SMax:
		return IntValue(t, max(a, b)), true
	case Shl:
		return IntValue(t, a<<shiftAmount(t, b)), true
	case LShr:
		u := uint64(a) & widthMask(t)
		return IntValue(t, int64(u>>shiftAmount(t, b))), true
	case AShr:
		return IntValue(t, a>>shiftAmount(t, b)), true
	case And:
		return IntValue(t, a&b), true
	case Or:
		return IntValue(t, a|b), true
	case Xor:
		return IntValue(t, a^b), true
	}
	return PrimValue{}, false
}

func doFloatBinOp(op BinOp, a, b float64) (PrimValue, bool) {
	t := op.Type
	switch op.Code {
	case FAdd:
		return FloatValue(t, a+b), true
	case FSub:
		return FloatValue(t, a-b), true
	case FMul:
		return FloatValue(t, a*b), true
	case FDiv:
		return FloatValue(t, a/b), true
	case FMod:
		return FloatValue(t, math.Mod(a, b)), true
	case FPow:
		return FloatValue(t, math.Pow(a, b)), true
	case FMin:
		return FloatValue(t, math.Min(a, b)), true
	case FMax:
		return FloatValue(t, math.Max(a, b)), true
	}
	return PrimValue{}, false
}

// floorDiv rounds toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// floorMod has the sign of the divisor.
func floorMod(a, b int64) int64 {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

func intPow(a, b int64) int64 {
	if b < 0 {
		return 0
	}
	r := int64(1)
	for ; b > 0; b-- {
		r *= a
	}
	return r
}

func shiftAmount(t PrimType, b int64) uint {
	return uint(b) % uint(t.Bits())
}

func widthMask(t PrimType) uint64 {
	if t == Int64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(t.Bits())) - 1
}

// ───────────────────────── named function registry ──────────────────────────

type primFun struct {
	args  []PrimType
	ret   PrimType
	apply func([]PrimValue) PrimValue
}

func float1(t PrimType, f func(float64) float64) primFun {
	return primFun{
		args: []PrimType{t},
		ret:  t,
		apply: func(vs []PrimValue) PrimValue {
			return FloatValue(t, f(vs[0].F))
		},
	}
}

func floatPred(t PrimType, f func(float64) bool) primFun {
	return primFun{
		args: []PrimType{t},
		ret:  Bool,
		apply: func(vs []PrimValue) PrimValue {
			return BoolValue(f(vs[0].F))
		},
	}
}

func fma(t PrimType) primFun {
	return primFun{
		args: []PrimType{t, t, t},
		ret:  t,
		apply: func(vs []PrimValue) PrimValue {
			return FloatValue(t, math.FMA(vs[0].F, vs[1].F, vs[2].F))
		},
	}
}

var primFuns = map[string]primFun{
	"sqrt32":  float1(Float32, math.Sqrt),
	"sqrt64":  float1(Float64, math.Sqrt),
	"log32":   float1(Float32, math.Log),
	"log64":   float1(Float64, math.Log),
	"exp32":   float1(Float32, math.Exp),
	"exp64":   float1(Float64, math.Exp),
	"fma32":   fma(Float32),
	"fma64":   fma(Float64),
	"isnan32": floatPred(Float32, func(v float64) bool { return math.IsNaN(v) }),
	"isnan64": floatPred(Float64, func(v float64) bool { return math.IsNaN(v) }),
}
