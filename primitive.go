// primitive.go — primitive types, values, and operator codes
//
// What this file does
// -------------------
// The leaf layer of the IR: fixed-width primitive types (bool, cert,
// signed integers, floats), the tagged PrimValue union, variable names
// (VName), and the operator vocabulary (BinOp/CmpOp/UnOp/ConvOp) shared by
// the IR tree, the scalar-expression algebra, and the parser's keyword
// tables.
//
// Conventions
// -----------
//   - Integers are stored sign-extended to 64 bits; IntValue truncates to
//     the tagged width on construction, so two equal PrimValues always have
//     bitwise-equal payloads.
//   - f16 payloads are stored as the nearest float64 after rounding through
//     float32; the width lives in the tag only.
//   - Every concrete operator instance has exactly one canonical textual
//     name (e.g. add32, fmul64, slt8, sext_i8_i64). The parser dispatches
//     on these names; the printer emits them.
package loom

import (
	"fmt"
	"strconv"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// PrimType is a primitive scalar type.
type PrimType uint8

const (
	Bool PrimType = iota
	Cert          // opaque proof token produced by assertions
	Int8
	Int16
	Int32
	Int64
	Float16
	Float32
	Float64
)

// IntTypes and FloatTypes list the numeric widths in ascending order.
var (
	IntTypes   = []PrimType{Int8, Int16, Int32, Int64}
	FloatTypes = []PrimType{Float16, Float32, Float64}
)

func (t PrimType) String() string {
	switch t {
	case Bool:
		return "bool"
	case Cert:
		return "cert"
	case Int8:
		return "i8"
	case Int16:
		return "i16"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	case Float16:
		return "f16"
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	}
	return fmt.Sprintf("PrimType(%d)", uint8(t))
}

func (t PrimType) IsInt() bool   { return t >= Int8 && t <= Int64 }
func (t PrimType) IsFloat() bool { return t >= Float16 && t <= Float64 }

// Bits reports the width of a numeric type (0 for bool/cert).
func (t PrimType) Bits() int {
	switch t {
	case Int8:
		return 8
	case Int16, Float16:
		return 16
	case Int32, Float32:
		return 32
	case Int64, Float64:
		return 64
	}
	return 0
}

// primTypeNames maps the canonical textual names back to types.
var primTypeNames = map[string]PrimType{
	"bool": Bool, "cert": Cert,
	"i8": Int8, "i16": Int16, "i32": Int32, "i64": Int64,
	"f16": Float16, "f32": Float32, "f64": Float64,
}

// PrimTypeFromName resolves a canonical type name ("i32", "f64", ...).
func PrimTypeFromName(s string) (PrimType, bool) {
	t, ok := primTypeNames[s]
	return t, ok
}

// PrimValue is a value of one primitive type. Exactly one payload field is
// meaningful, selected by Type.
type PrimValue struct {
	Type PrimType
	I    int64
	F    float64
	B    bool
}

// Checked is the only certificate value.
var Checked = PrimValue{Type: Cert}

// IntValue builds an integer value, truncating v to t's width.
func IntValue(t PrimType, v int64) PrimValue {
	return PrimValue{Type: t, I: truncInt(t, v)}
}

// FloatValue builds a float value, rounding v through t's precision.
func FloatValue(t PrimType, v float64) PrimValue {
	return PrimValue{Type: t, F: roundFloat(t, v)}
}

func BoolValue(b bool) PrimValue { return PrimValue{Type: Bool, B: b} }

// Equal is value-and-width sensitive: i8 5 != i64 5.
func (v PrimValue) Equal(w PrimValue) bool {
	if v.Type != w.Type {
		return false
	}
	switch {
	case v.Type == Bool:
		return v.B == w.B
	case v.Type == Cert:
		return true
	case v.Type.IsInt():
		return v.I == w.I
	default:
		return v.F == w.F
	}
}

// IsZero reports a numeric zero of any width.
func (v PrimValue) IsZero() bool {
	return v.Type.IsInt() && v.I == 0 || v.Type.IsFloat() && v.F == 0
}

// IsOne reports a numeric one of any width.
func (v PrimValue) IsOne() bool {
	return v.Type.IsInt() && v.I == 1 || v.Type.IsFloat() && v.F == 1
}

func (v PrimValue) String() string {
	switch {
	case v.Type == Bool:
		return strconv.FormatBool(v.B)
	case v.Type == Cert:
		return "checked"
	case v.Type.IsInt():
		return strconv.FormatInt(v.I, 10) + v.Type.String()
	default:
		return formatFloat(v.F, v.Type) + v.Type.String()
	}
}

// VName is a variable name with an optional disambiguating tag. (Base, Tag)
// pairs are unique; bare strings need not be.
type VName struct {
	Base string
	Tag  int // -1 when untagged
}

// Name parses a textual name, splitting a trailing _NNN into the tag.
func Name(s string) VName {
	if i := strings.LastIndexByte(s, '_'); i > 0 && i < len(s)-1 {
		if tag, err := strconv.Atoi(s[i+1:]); err == nil {
			return VName{Base: s[:i], Tag: tag}
		}
	}
	return VName{Base: s, Tag: -1}
}

func (v VName) String() string {
	if v.Tag < 0 {
		return v.Base
	}
	return v.Base + "_" + strconv.Itoa(v.Tag)
}

// ─────────────────────────────── operators ──────────────────────────────────

// BinOpCode is the family of a binary operator; a concrete operator is the
// pair (code, operand type).
type BinOpCode uint8

const (
	Add BinOpCode = iota
	Sub
	Mul
	Pow
	SDiv // rounds toward negative infinity
	SQuot
	SMod
	SRem
	SMin
	SMax
	Shl
	LShr
	AShr
	And
	Or
	Xor
	FAdd
	FSub
	FMul
	FDiv
	FMod
	FPow
	FMin
	FMax
	LogAnd
	LogOr
)

// BinOp is one concrete binary operator instance.
type BinOp struct {
	Code BinOpCode
	Type PrimType // operand and result type; Bool for LogAnd/LogOr
}

func (b BinOp) String() string {
	if b.Code == LogAnd {
		return "logand"
	}
	if b.Code == LogOr {
		return "logor"
	}
	return binOpBase[b.Code] + strconv.Itoa(b.Type.Bits())
}

// RetType is the operator's declared result type.
func (b BinOp) RetType() PrimType { return b.Type }

var binOpBase = map[BinOpCode]string{
	Add: "add", Sub: "sub", Mul: "mul", Pow: "pow",
	SDiv: "sdiv", SQuot: "squot", SMod: "smod", SRem: "srem",
	SMin: "smin", SMax: "smax",
	Shl: "shl", LShr: "lshr", AShr: "ashr",
	And: "and", Or: "or", Xor: "xor",
	FAdd: "fadd", FSub: "fsub", FMul: "fmul", FDiv: "fdiv",
	FMod: "fmod", FPow: "fpow", FMin: "fmin", FMax: "fmax",
}

// AllBinOps enumerates every concrete binary operator.
func AllBinOps() []BinOp {
	var ops []BinOp
	for code := Add; code <= Xor; code++ {
		for _, t := range IntTypes {
			ops = append(ops, BinOp{code, t})
		}
	}
	for code := FAdd; code <= FMax; code++ {
		for _, t := range FloatTypes {
			ops = append(ops, BinOp{code, t})
		}
	}
	ops = append(ops, BinOp{LogAnd, Bool}, BinOp{LogOr, Bool})
	return ops
}

// CmpOpCode is the family of a comparison operator.
type CmpOpCode uint8

const (
	CmpEq CmpOpCode = iota // any primitive type
	CmpSlt
	CmpSle
	FCmpLt
	FCmpLe
	CmpLlt // bool: false < true
	CmpLle
)

// CmpOp is one concrete comparison operator; its result type is always Bool.
type CmpOp struct {
	Code CmpOpCode
	Type PrimType
}

func (c CmpOp) String() string {
	switch c.Code {
	case CmpEq:
		return "eq_" + c.Type.String()
	case CmpSlt:
		return "slt" + strconv.Itoa(c.Type.Bits())
	case CmpSle:
		return "sle" + strconv.Itoa(c.Type.Bits())
	case FCmpLt:
		return "flt" + strconv.Itoa(c.Type.Bits())
	case FCmpLe:
		return "fle" + strconv.Itoa(c.Type.Bits())
	case CmpLlt:
		return "llt"
	case CmpLle:
		return "lle"
	}
	return fmt.Sprintf("CmpOp(%d)", uint8(c.Code))
}

// AllCmpOps enumerates every concrete comparison operator.
func AllCmpOps() []CmpOp {
	var ops []CmpOp
	for _, t := range []PrimType{Bool, Int8, Int16, Int32, Int64, Float16, Float32, Float64} {
		ops = append(ops, CmpOp{CmpEq, t})
	}
	for _, t := range IntTypes {
		ops = append(ops, CmpOp{CmpSlt, t}, CmpOp{CmpSle, t})
	}
	for _, t := range FloatTypes {
		ops = append(ops, CmpOp{FCmpLt, t}, CmpOp{FCmpLe, t})
	}
	ops = append(ops, CmpOp{CmpLlt, Bool}, CmpOp{CmpLle, Bool})
	return ops
}

// UnOpCode is the family of a unary operator.
type UnOpCode uint8

const (
	Not UnOpCode = iota // bool negation
	Complement
	Abs
	FAbs
	SSignum
	FSignum
)

// UnOp is one concrete unary operator instance.
type UnOp struct {
	Code UnOpCode
	Type PrimType
}

func (u UnOp) String() string {
	switch u.Code {
	case Not:
		return "not"
	case Complement:
		return "complement" + strconv.Itoa(u.Type.Bits())
	case Abs:
		return "abs" + strconv.Itoa(u.Type.Bits())
	case FAbs:
		return "fabs" + strconv.Itoa(u.Type.Bits())
	case SSignum:
		return "ssignum" + strconv.Itoa(u.Type.Bits())
	case FSignum:
		return "fsignum" + strconv.Itoa(u.Type.Bits())
	}
	return fmt.Sprintf("UnOp(%d)", uint8(u.Code))
}

func (u UnOp) RetType() PrimType { return u.Type }

// AllUnOps enumerates every concrete unary operator.
func AllUnOps() []UnOp {
	ops := []UnOp{{Not, Bool}}
	for _, t := range IntTypes {
		ops = append(ops, UnOp{Complement, t}, UnOp{Abs, t}, UnOp{SSignum, t})
	}
	for _, t := range FloatTypes {
		ops = append(ops, UnOp{FAbs, t}, UnOp{FSignum, t})
	}
	return ops
}

// ConvOpCode is the family of a value conversion.
type ConvOpCode uint8

const (
	SExt   ConvOpCode = iota // int → int, sign-extending or truncating
	FPConv                   // float → float
	SIToFP                   // int → float, exact signed conversion
	FPToSI                   // float → int, truncating
	IToB                     // int → bool (nonzero)
	BToI                     // bool → int (0/1)
)

// ConvOp is one concrete conversion instance.
type ConvOp struct {
	Code     ConvOpCode
	From, To PrimType
}

func (c ConvOp) String() string {
	base := map[ConvOpCode]string{
		SExt: "sext", FPConv: "fpconv", SIToFP: "sitofp",
		FPToSI: "fptosi", IToB: "itob", BToI: "btoi",
	}[c.Code]
	return base + "_" + c.From.String() + "_" + c.To.String()
}

func (c ConvOp) RetType() PrimType { return c.To }

// AllConvOps enumerates every concrete conversion operator.
func AllConvOps() []ConvOp {
	var ops []ConvOp
	for _, f := range IntTypes {
		for _, t := range IntTypes {
			if f != t {
				ops = append(ops, ConvOp{SExt, f, t})
			}
		}
		for _, t := range FloatTypes {
			ops = append(ops, ConvOp{SIToFP, f, t})
		}
		ops = append(ops, ConvOp{IToB, f, Bool}, ConvOp{BToI, Bool, f})
	}
	for _, f := range FloatTypes {
		for _, t := range FloatTypes {
			if f != t {
				ops = append(ops, ConvOp{FPConv, f, t})
			}
		}
		for _, t := range IntTypes {
			ops = append(ops, ConvOp{FPToSI, f, t})
		}
	}
	return ops
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                   PRIVATE
////////////////////////////////////////////////////////////////////////////////

func truncInt(t PrimType, v int64) int64 {
	switch t {
	case Int8:
		return int64(int8(v))
	case Int16:
		return int64(int16(v))
	case Int32:
		return int64(int32(v))
	default:
		return v
	}
}

func roundFloat(t PrimType, v float64) float64 {
	if t == Float64 {
		return v
	}
	// f16 payloads round through f32; the extra f16 mantissa loss is not
	// modeled, only the tag records the width.
	return float64(float32(v))
}

// formatFloat renders a float so that it re-parses to the same payload and
// always contains a '.' or exponent (the lexer needs one to see a float).
func formatFloat(v float64, t PrimType) string {
	bits := 64
	if t != Float64 {
		bits = 32
	}
	s := strconv.FormatFloat(v, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "Inf") && s != "NaN" {
		s += ".0"
	}
	return s
}
