// scalar.go — the symbolic scalar-expression algebra
//
// OVERVIEW
// --------
// A recursive expression tree over the primitive operators, used wherever
// the compiler reasons symbolically about sizes, strides, and index
// arithmetic. Seven node kinds: leaf (named variable with a declared type),
// constant value, binary operator, comparison, unary operator, conversion,
// and named function call.
//
// Binary, comparison, and logical nodes may only be built through the smart
// constructors NewBinExp / NewCmpExp, which reconcile operand widths and
// fold constants on the spot; the folding invariant is therefore not
// bypassable. Leaf, value, unary, and conversion nodes have no such
// invariant and are built directly.
//
// Type inference (TypeOf) is structural and does not validate operand
// types: on an ill-typed tree it still returns an answer, silently wrong.
// Well-typedness is the caller's problem; only construction-time kind
// mixing is rejected.
package loom

import (
	"fmt"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// ScalarExp is a node of the scalar-expression tree.
type ScalarExp interface {
	isScalarExp()
	String() string
}

// LeafExp is a named variable of a declared primitive type.
type LeafExp struct {
	Name VName
	Type PrimType
}

// ValueExp is a constant. Loose marks a width-polymorphic numeric literal
// that may still be coerced to a neighboring operand's width during
// construction; a non-loose constant keeps its width.
type ValueExp struct {
	Val   PrimValue
	Loose bool
}

// BinExp is a binary operator application. Built via NewBinExp only.
type BinExp struct {
	Op   BinOp
	X, Y ScalarExp
}

// CmpExp is a comparison; its type is always Bool. Built via NewCmpExp only.
type CmpExp struct {
	Op   CmpOp
	X, Y ScalarExp
}

// UnExp is a unary operator application.
type UnExp struct {
	Op UnOp
	X  ScalarExp
}

// ConvExp is a value conversion.
type ConvExp struct {
	Op ConvOp
	X  ScalarExp
}

// FunExp is a call to a named scalar function with a declared result type.
type FunExp struct {
	Name string
	Args []ScalarExp
	Type PrimType
}

func (*LeafExp) isScalarExp()  {}
func (*ValueExp) isScalarExp() {}
func (*BinExp) isScalarExp()   {}
func (*CmpExp) isScalarExp()   {}
func (*UnExp) isScalarExp()    {}
func (*ConvExp) isScalarExp()  {}
func (*FunExp) isScalarExp()   {}

// Leaf builds a leaf node.
func Leaf(name VName, t PrimType) *LeafExp { return &LeafExp{Name: name, Type: t} }

// Value builds a width-committed constant node.
func Value(v PrimValue) *ValueExp { return &ValueExp{Val: v} }

// LooseValue builds a width-polymorphic constant node.
func LooseValue(v PrimValue) *ValueExp { return &ValueExp{Val: v, Loose: true} }

// TypeOf infers a node's type structurally: intrinsic for leaves and
// constants, the operator's declared result type otherwise.
func TypeOf(e ScalarExp) PrimType {
	switch e := e.(type) {
	case *LeafExp:
		return e.Type
	case *ValueExp:
		return e.Val.Type
	case *BinExp:
		return e.Op.RetType()
	case *CmpExp:
		return Bool
	case *UnExp:
		return e.Op.RetType()
	case *ConvExp:
		return e.Op.RetType()
	case *FunExp:
		return e.Type
	}
	return Bool
}

// NewBinExp builds a binary node, reconciling operand widths and folding
// constants. Operand kinds that the coercion rules cannot reconcile (int vs
// float vs bool without an explicit conversion) are a construction error.
func NewBinExp(code BinOpCode, x, y ScalarExp) (ScalarExp, error) {
	if code == LogAnd || code == LogOr {
		if TypeOf(x) != Bool || TypeOf(y) != Bool {
			return nil, fmt.Errorf("%s requires bool operands, got %s and %s",
				BinOp{code, Bool}, TypeOf(x), TypeOf(y))
		}
		return foldLogical(code, x, y), nil
	}
	x, y, t, err := reconcile(opName(code), x, y)
	if err != nil {
		return nil, err
	}
	switch {
	case binOpIsFloat(code):
		if !t.IsFloat() {
			return nil, fmt.Errorf("%s requires float operands, got %s", opName(code), t)
		}
	default:
		if !t.IsInt() {
			return nil, fmt.Errorf("%s requires integer operands, got %s", opName(code), t)
		}
	}
	if binOpIsBitwise(code) {
		// Narrower width wins for bitwise operators.
		if ty := TypeOf(y); ty.Bits() < t.Bits() {
			t = ty
		}
	}
	return foldBin(BinOp{Code: code, Type: t}, x, y), nil
}

// NewCmpExp builds a comparison node; the narrower operand width wins.
func NewCmpExp(code CmpOpCode, x, y ScalarExp) (ScalarExp, error) {
	x, y, t, err := reconcile(cmpName(code), x, y)
	if err != nil {
		return nil, err
	}
	if ty := TypeOf(y); ty.Bits() < t.Bits() {
		t = ty
	}
	op := CmpOp{Code: code, Type: t}
	if cx, ok := constOf(x); ok {
		if cy, ok := constOf(y); ok {
			if v, ok := DoCmpOp(op, retag(cx, t), retag(cy, t)); ok {
				return Value(v), nil
			}
		}
	}
	return &CmpExp{Op: op, X: x, Y: y}, nil
}

// EqualExp is structural equality, except that two integer constants
// compare by value after widening both to 64 bits: an 8-bit 5 equals a
// 64-bit 5. Leaves stay width-sensitive.
func EqualExp(a, b ScalarExp) bool {
	switch a := a.(type) {
	case *LeafExp:
		b, ok := b.(*LeafExp)
		return ok && a.Name == b.Name && a.Type == b.Type
	case *ValueExp:
		b, ok := b.(*ValueExp)
		if !ok {
			return false
		}
		if a.Val.Type.IsInt() && b.Val.Type.IsInt() {
			return a.Val.I == b.Val.I
		}
		return a.Val.Equal(b.Val)
	case *BinExp:
		b, ok := b.(*BinExp)
		return ok && a.Op == b.Op && EqualExp(a.X, b.X) && EqualExp(a.Y, b.Y)
	case *CmpExp:
		b, ok := b.(*CmpExp)
		return ok && a.Op == b.Op && EqualExp(a.X, b.X) && EqualExp(a.Y, b.Y)
	case *UnExp:
		b, ok := b.(*UnExp)
		return ok && a.Op == b.Op && EqualExp(a.X, b.X)
	case *ConvExp:
		b, ok := b.(*ConvExp)
		return ok && a.Op == b.Op && EqualExp(a.X, b.X)
	case *FunExp:
		b, ok := b.(*FunExp)
		if !ok || a.Name != b.Name || a.Type != b.Type || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !EqualExp(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// CountNodes counts every node of the tree.
func CountNodes(e ScalarExp) int {
	n := 1
	switch e := e.(type) {
	case *BinExp:
		n += CountNodes(e.X) + CountNodes(e.Y)
	case *CmpExp:
		n += CountNodes(e.X) + CountNodes(e.Y)
	case *UnExp:
		n += CountNodes(e.X)
	case *ConvExp:
		n += CountNodes(e.X)
	case *FunExp:
		for _, a := range e.Args {
			n += CountNodes(a)
		}
	}
	return n
}

// HasAtLeastNodes reports whether the tree has at least k nodes. The
// traversal stops the moment the running count reaches k, so the cost is
// O(min(size, k)) even on very large trees.
func HasAtLeastNodes(k int, e ScalarExp) bool {
	return countUpTo(k, e) >= k
}

// Evaluate reduces the tree to a single value, resolving leaves through
// lookup. Operator/value combinations outside the evaluation tables and
// unknown function names fail with a descriptive error; no partial value is
// ever returned.
func Evaluate(e ScalarExp, lookup func(VName) (PrimValue, error)) (PrimValue, error) {
	switch e := e.(type) {
	case *LeafExp:
		return lookup(e.Name)
	case *ValueExp:
		return e.Val, nil
	case *BinExp:
		x, err := Evaluate(e.X, lookup)
		if err != nil {
			return PrimValue{}, err
		}
		y, err := Evaluate(e.Y, lookup)
		if err != nil {
			return PrimValue{}, err
		}
		v, ok := DoBinOp(e.Op, x, y)
		if !ok {
			return PrimValue{}, fmt.Errorf("cannot apply %s to %s and %s", e.Op, x, y)
		}
		return v, nil
	case *CmpExp:
		x, err := Evaluate(e.X, lookup)
		if err != nil {
			return PrimValue{}, err
		}
		y, err := Evaluate(e.Y, lookup)
		if err != nil {
			return PrimValue{}, err
		}
		v, ok := DoCmpOp(e.Op, x, y)
		if !ok {
			return PrimValue{}, fmt.Errorf("cannot apply %s to %s and %s", e.Op, x, y)
		}
		return v, nil
	case *UnExp:
		x, err := Evaluate(e.X, lookup)
		if err != nil {
			return PrimValue{}, err
		}
		v, ok := DoUnOp(e.Op, x)
		if !ok {
			return PrimValue{}, fmt.Errorf("cannot apply %s to %s", e.Op, x)
		}
		return v, nil
	case *ConvExp:
		x, err := Evaluate(e.X, lookup)
		if err != nil {
			return PrimValue{}, err
		}
		v, ok := DoConvOp(e.Op, x)
		if !ok {
			return PrimValue{}, fmt.Errorf("cannot apply %s to %s", e.Op, x)
		}
		return v, nil
	case *FunExp:
		args := make([]PrimValue, len(e.Args))
		for i, a := range e.Args {
			v, err := Evaluate(a, lookup)
			if err != nil {
				return PrimValue{}, err
			}
			args[i] = v
		}
		v, ok := DoFun(e.Name, args)
		if !ok {
			return PrimValue{}, fmt.Errorf("unknown function %q or mismatched arguments", e.Name)
		}
		return v, nil
	}
	return PrimValue{}, fmt.Errorf("cannot evaluate %s", e)
}

// FreeVarsExp collects every leaf name reachable in the tree.
func FreeVarsExp(e ScalarExp) map[VName]bool {
	out := map[VName]bool{}
	collectFreeVars(e, out)
	return out
}

func (e *LeafExp) String() string  { return e.Name.String() + ":" + e.Type.String() }
func (e *ValueExp) String() string { return e.Val.String() }
func (e *BinExp) String() string {
	return fmt.Sprintf("%s(%s, %s)", e.Op, e.X, e.Y)
}
func (e *CmpExp) String() string {
	return fmt.Sprintf("%s(%s, %s)", e.Op, e.X, e.Y)
}
func (e *UnExp) String() string   { return fmt.Sprintf("%s(%s)", e.Op, e.X) }
func (e *ConvExp) String() string { return fmt.Sprintf("%s(%s)", e.Op, e.X) }
func (e *FunExp) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                   PRIVATE
////////////////////////////////////////////////////////////////////////////////

// ───────────────────────────── width reconciling ────────────────────────────

// reconcile coerces a loose constant operand to the other operand's type
// and rejects kind mixing. Returns the possibly-rewritten operands plus the
// left operand's final type (arithmetic's left-wins default; bitwise and
// comparison construction narrows afterward).
func reconcile(what string, x, y ScalarExp) (ScalarExp, ScalarExp, PrimType, error) {
	lx, ly := looseOf(x), looseOf(y)
	switch {
	case lx != nil && ly == nil:
		cx, err := coerceLoose(what, lx.Val, TypeOf(y))
		if err != nil {
			return nil, nil, 0, err
		}
		x = Value(cx)
	case ly != nil:
		// Right loose (left loose or not): left decides the width.
		cy, err := coerceLoose(what, ly.Val, TypeOf(x))
		if err != nil {
			return nil, nil, 0, err
		}
		y = Value(cy)
	}
	tx, ty := TypeOf(x), TypeOf(y)
	if kindOf(tx) != kindOf(ty) {
		return nil, nil, 0, fmt.Errorf(
			"invalid operands for %s: %s and %s", what, tx, ty)
	}
	return x, y, tx, nil
}

// coerceLoose rewidths a loose constant. Integers truncate or sign-extend
// and may be promoted to float exactly; a float value has no implicit path
// to an integer type.
func coerceLoose(what string, v PrimValue, to PrimType) (PrimValue, error) {
	switch {
	case v.Type.IsInt() && to.IsInt():
		return IntValue(to, v.I), nil
	case v.Type.IsInt() && to.IsFloat():
		return FloatValue(to, float64(v.I)), nil
	case v.Type.IsFloat() && to.IsFloat():
		return FloatValue(to, v.F), nil
	}
	return PrimValue{}, fmt.Errorf(
		"invalid operand for %s: cannot coerce %s to %s", what, v, to)
}

type primKind uint8

const (
	kindBool primKind = iota
	kindCert
	kindInt
	kindFloat
)

func kindOf(t PrimType) primKind {
	switch {
	case t == Bool:
		return kindBool
	case t.IsInt():
		return kindInt
	case t.IsFloat():
		return kindFloat
	}
	return kindCert
}

func looseOf(e ScalarExp) *ValueExp {
	if v, ok := e.(*ValueExp); ok && v.Loose {
		return v
	}
	return nil
}

func constOf(e ScalarExp) (PrimValue, bool) {
	if v, ok := e.(*ValueExp); ok {
		return v.Val, true
	}
	return PrimValue{}, false
}

// retag forces a constant onto the operator's width; only relevant when two
// committed constants of different widths meet a narrowing operator.
func retag(v PrimValue, t PrimType) PrimValue {
	if v.Type == t {
		return v
	}
	switch {
	case v.Type.IsInt() && t.IsInt():
		return IntValue(t, v.I)
	case v.Type.IsFloat() && t.IsFloat():
		return FloatValue(t, v.F)
	}
	return v
}

func binOpIsFloat(code BinOpCode) bool { return code >= FAdd && code <= FMax }

func binOpIsBitwise(code BinOpCode) bool { return code >= Shl && code <= Xor }

func opName(code BinOpCode) string {
	if s, ok := binOpBase[code]; ok {
		return s
	}
	if code == LogAnd {
		return "logand"
	}
	return "logor"
}

func cmpName(code CmpOpCode) string {
	switch code {
	case CmpEq:
		return "eq"
	case CmpSlt:
		return "slt"
	case CmpSle:
		return "sle"
	case FCmpLt:
		return "flt"
	case FCmpLe:
		return "fle"
	case CmpLlt:
		return "llt"
	}
	return "lle"
}

// ─────────────────────────────── folding ────────────────────────────────────

// foldLogical short-circuits on a constant operand on either side.
func foldLogical(code BinOpCode, x, y ScalarExp) ScalarExp {
	op := BinOp{Code: code, Type: Bool}
	cx, okx := constOf(x)
	cy, oky := constOf(y)
	if okx && oky {
		if v, ok := DoBinOp(op, cx, cy); ok {
			return Value(v)
		}
	}
	if okx && cx.Type == Bool {
		if code == LogAnd {
			if cx.B {
				return y
			}
			return Value(BoolValue(false))
		}
		if cx.B {
			return Value(BoolValue(true))
		}
		return y
	}
	if oky && cy.Type == Bool {
		if code == LogAnd {
			if cy.B {
				return x
			}
			return Value(BoolValue(false))
		}
		if cy.B {
			return Value(BoolValue(true))
		}
		return x
	}
	return &BinExp{Op: op, X: x, Y: y}
}

// foldBin applies the local identities and constant-constant evaluation.
// Folding is one node at a time; smart construction applies it bottom-up as
// the tree is built, so no separate pass exists.
func foldBin(op BinOp, x, y ScalarExp) ScalarExp {
	cx, okx := constOf(x)
	cy, oky := constOf(y)

	switch op.Code {
	case Add, FAdd:
		if oky && cy.IsZero() {
			return x
		}
		if okx && cx.IsZero() {
			return y
		}
	case Sub, FSub:
		if oky && cy.IsZero() {
			return x
		}
	case Mul, FMul:
		if oky && cy.IsOne() {
			return x
		}
		if okx && cx.IsOne() {
			return y
		}
		// x*0 folds to the zero of the non-zero operand's type, integers
		// only; a float zero can hide a sign or NaN interaction.
		if oky && cy.IsZero() && TypeOf(x).IsInt() {
			return Value(IntValue(TypeOf(x), 0))
		}
		if okx && cx.IsZero() && TypeOf(y).IsInt() {
			return Value(IntValue(TypeOf(y), 0))
		}
	case SDiv, SQuot, FDiv:
		if oky && cy.IsOne() {
			return x
		}
	}

	if okx && oky {
		if v, ok := DoBinOp(op, retag(cx, op.Type), retag(cy, op.Type)); ok {
			return Value(v)
		}
	}
	return &BinExp{Op: op, X: x, Y: y}
}

// ───────────────────────────── traversal helpers ────────────────────────────

// countUpTo counts nodes but never past limit.
func countUpTo(limit int, e ScalarExp) int {
	if limit <= 0 {
		return 0
	}
	n := 1
	switch e := e.(type) {
	case *BinExp:
		n += countUpTo(limit-n, e.X)
		n += countUpTo(limit-n, e.Y)
	case *CmpExp:
		n += countUpTo(limit-n, e.X)
		n += countUpTo(limit-n, e.Y)
	case *UnExp:
		n += countUpTo(limit-n, e.X)
	case *ConvExp:
		n += countUpTo(limit-n, e.X)
	case *FunExp:
		for _, a := range e.Args {
			if n >= limit {
				break
			}
			n += countUpTo(limit-n, a)
		}
	}
	return n
}

func collectFreeVars(e ScalarExp, out map[VName]bool) {
	switch e := e.(type) {
	case *LeafExp:
		out[e.Name] = true
	case *BinExp:
		collectFreeVars(e.X, out)
		collectFreeVars(e.Y, out)
	case *CmpExp:
		collectFreeVars(e.X, out)
		collectFreeVars(e.Y, out)
	case *UnExp:
		collectFreeVars(e.X, out)
	case *ConvExp:
		collectFreeVars(e.X, out)
	case *FunExp:
		for _, a := range e.Args {
			collectFreeVars(a, out)
		}
	}
}
