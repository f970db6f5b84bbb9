// scalar_test.go
package loom

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---------------------------------------------------------------

func mustBin(t *testing.T, code BinOpCode, x, y ScalarExp) ScalarExp {
	t.Helper()
	e, err := NewBinExp(code, x, y)
	require.NoError(t, err)
	return e
}

func i32leaf(name string) *LeafExp { return Leaf(Name(name), Int32) }

func i32val(v int64) *ValueExp { return Value(IntValue(Int32, v)) }

// --- type inference & equality ---------------------------------------------

func TestTypeOfIsStructural(t *testing.T) {
	assert.Equal(t, Int32, TypeOf(i32leaf("x")))
	assert.Equal(t, Float64, TypeOf(Value(FloatValue(Float64, 1))))
	assert.Equal(t, Bool, TypeOf(&CmpExp{Op: CmpOp{CmpSlt, Int32}, X: i32leaf("x"), Y: i32val(1)}))
	assert.Equal(t, Int64, TypeOf(&ConvExp{Op: ConvOp{SExt, Int32, Int64}, X: i32leaf("x")}))
	assert.Equal(t, Float32, TypeOf(&FunExp{Name: "sqrt32", Args: []ScalarExp{i32leaf("x")}, Type: Float32}))
}

func TestLeafEqualityIsWidthSensitive(t *testing.T) {
	assert.False(t, EqualExp(Leaf(Name("x"), Int32), Leaf(Name("x"), Int64)))
	assert.True(t, EqualExp(Leaf(Name("x"), Int32), Leaf(Name("x"), Int32)))
}

func TestConstantEqualityWidensIntegers(t *testing.T) {
	// An 8-bit 5 equals a 64-bit 5; floats stay width-sensitive.
	assert.True(t, EqualExp(Value(IntValue(Int8, 5)), Value(IntValue(Int64, 5))))
	assert.False(t, EqualExp(Value(IntValue(Int8, 5)), Value(IntValue(Int64, 6))))
	assert.False(t, EqualExp(Value(FloatValue(Float32, 5)), Value(FloatValue(Float64, 5))))
	assert.False(t, EqualExp(Value(IntValue(Int32, 5)), i32leaf("x")))
}

// --- folding identities ----------------------------------------------------

func TestAdditiveIdentities(t *testing.T) {
	x := i32leaf("x")
	assert.Same(t, x, mustBin(t, Add, x, i32val(0)))
	assert.Same(t, x, mustBin(t, Add, i32val(0), x))
	assert.Same(t, x, mustBin(t, Sub, x, i32val(0)))

	f := Leaf(Name("y"), Float64)
	zero := Value(FloatValue(Float64, 0))
	assert.Same(t, f, mustBin(t, FAdd, f, zero))
	assert.Same(t, f, mustBin(t, FSub, f, zero))
}

func TestMultiplicativeIdentities(t *testing.T) {
	x := i32leaf("x")
	assert.Same(t, x, mustBin(t, Mul, x, i32val(1)))
	assert.Same(t, x, mustBin(t, Mul, i32val(1), x))
	assert.Same(t, x, mustBin(t, SDiv, x, i32val(1)))
	assert.Same(t, x, mustBin(t, SQuot, x, i32val(1)))

	f := Leaf(Name("y"), Float32)
	one := Value(FloatValue(Float32, 1))
	assert.Same(t, f, mustBin(t, FDiv, f, one))
}

func TestMulByZeroFoldsToTypedZero(t *testing.T) {
	// The zero takes the non-zero operand's exact integer type.
	e := mustBin(t, Mul, i32leaf("x"), i32val(0))
	assert.True(t, EqualExp(Value(IntValue(Int32, 0)), e))
	v, ok := e.(*ValueExp)
	require.True(t, ok)
	assert.Equal(t, Int32, v.Val.Type)

	e = mustBin(t, Mul, i32val(0), Leaf(Name("y"), Int64))
	v, ok = e.(*ValueExp)
	require.True(t, ok)
	assert.Equal(t, Int64, v.Val.Type)

	// Float zero does not fold: the other factor could be NaN or -0.
	f := mustBin(t, FMul, Leaf(Name("z"), Float64), Value(FloatValue(Float64, 0)))
	_, isBin := f.(*BinExp)
	assert.True(t, isBin)
}

func TestConstantConstantFoldsViaOracle(t *testing.T) {
	e := mustBin(t, Add, i32val(2), i32val(3))
	v, ok := e.(*ValueExp)
	require.True(t, ok)
	assert.Equal(t, IntValue(Int32, 5), v.Val)

	// Division by zero has no oracle entry and stays unfolded.
	e = mustBin(t, SDiv, i32val(1), i32val(0))
	_, isBin := e.(*BinExp)
	assert.True(t, isBin)
}

func TestLogicalShortCircuit(t *testing.T) {
	b := Leaf(Name("b"), Bool)
	tru, fls := Value(BoolValue(true)), Value(BoolValue(false))

	assert.Same(t, b, mustBin(t, LogAnd, tru, b))
	assert.True(t, EqualExp(fls, mustBin(t, LogAnd, fls, b)))
	assert.Same(t, b, mustBin(t, LogAnd, b, tru))
	assert.True(t, EqualExp(fls, mustBin(t, LogAnd, b, fls)))

	assert.True(t, EqualExp(tru, mustBin(t, LogOr, tru, b)))
	assert.Same(t, b, mustBin(t, LogOr, fls, b))

	_, err := NewBinExp(LogAnd, b, i32leaf("x"))
	assert.Error(t, err)
}

// --- width reconciling -----------------------------------------------------

func TestLooseConstantTakesNeighborWidth(t *testing.T) {
	e := mustBin(t, Add, i32leaf("x"), LooseValue(IntValue(Int64, 7)))
	bin, ok := e.(*BinExp)
	require.True(t, ok)
	assert.Equal(t, BinOp{Add, Int32}, bin.Op)
	assert.True(t, EqualExp(i32val(7), bin.Y))

	// An integer literal promotes exactly to a float neighbor.
	e = mustBin(t, FAdd, Leaf(Name("y"), Float64), LooseValue(IntValue(Int64, 2)))
	bin = e.(*BinExp)
	assert.Equal(t, BinOp{FAdd, Float64}, bin.Op)
	assert.True(t, EqualExp(Value(FloatValue(Float64, 2)), bin.Y))
}

func TestFloatNeverCoercesToInt(t *testing.T) {
	_, err := NewBinExp(Add, i32leaf("x"), LooseValue(FloatValue(Float64, 1.5)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot coerce")
}

func TestKindMixingIsConstructionError(t *testing.T) {
	_, err := NewBinExp(Add, i32leaf("x"), Leaf(Name("y"), Float32))
	assert.Error(t, err)
	_, err = NewBinExp(FAdd, i32leaf("x"), i32leaf("y"))
	assert.Error(t, err)
	_, err = NewCmpExp(CmpSlt, i32leaf("x"), Leaf(Name("b"), Bool))
	assert.Error(t, err)
}

func TestArithmeticWidthPrefersLeft(t *testing.T) {
	e := mustBin(t, Add, i32leaf("x"), Leaf(Name("y"), Int64))
	assert.Equal(t, BinOp{Add, Int32}, e.(*BinExp).Op)
}

func TestBitwiseAndComparisonNarrow(t *testing.T) {
	e := mustBin(t, And, Leaf(Name("x"), Int64), i32leaf("y"))
	assert.Equal(t, BinOp{And, Int32}, e.(*BinExp).Op)

	c, err := NewCmpExp(CmpSlt, Leaf(Name("x"), Int64), Leaf(Name("y"), Int8))
	require.NoError(t, err)
	assert.Equal(t, CmpOp{CmpSlt, Int8}, c.(*CmpExp).Op)
}

func TestComparisonFoldsConstants(t *testing.T) {
	c, err := NewCmpExp(CmpSlt, i32val(2), i32val(3))
	require.NoError(t, err)
	assert.True(t, EqualExp(Value(BoolValue(true)), c))
}

// --- size probe ------------------------------------------------------------

func TestHasAtLeastNodesMatchesCountNodes(t *testing.T) {
	trees := []ScalarExp{
		i32leaf("x"),
		mustBin(t, Add, i32leaf("x"), i32leaf("y")),
		&UnExp{Op: UnOp{Complement, Int32}, X: mustBin(t, Mul, i32leaf("x"), i32leaf("y"))},
		&FunExp{
			Name: "fma64",
			Args: []ScalarExp{i32leaf("a"), i32leaf("b"), mustBin(t, Add, i32leaf("c"), i32leaf("d"))},
			Type: Float64,
		},
	}
	for _, e := range trees {
		n := CountNodes(e)
		for k := 0; k <= n+2; k++ {
			assert.Equal(t, n >= k, HasAtLeastNodes(k, e), "tree %s, k=%d, size=%d", e, k, n)
		}
	}
}

// --- evaluation ------------------------------------------------------------

func noLookup(n VName) (PrimValue, error) {
	return PrimValue{}, fmt.Errorf("unknown variable %s", n)
}

func TestEvaluateThroughOracle(t *testing.T) {
	env := map[VName]PrimValue{Name("x"): IntValue(Int32, 2)}
	lookup := func(n VName) (PrimValue, error) {
		if v, ok := env[n]; ok {
			return v, nil
		}
		return noLookup(n)
	}

	e := &BinExp{Op: BinOp{Add, Int32}, X: i32leaf("x"), Y: i32val(3)}
	v, err := Evaluate(e, lookup)
	require.NoError(t, err)
	assert.Equal(t, IntValue(Int32, 5), v)

	conv := &ConvExp{Op: ConvOp{SIToFP, Int32, Float64}, X: i32leaf("x")}
	fv, err := Evaluate(&FunExp{Name: "sqrt64", Args: []ScalarExp{conv}, Type: Float64}, lookup)
	require.NoError(t, err)
	assert.InDelta(t, 1.4142, fv.F, 1e-3)
}

func TestEvaluateIllTypedFails(t *testing.T) {
	e := &BinExp{Op: BinOp{Add, Int32}, X: Leaf(Name("b"), Bool), Y: i32val(1)}
	_, err := Evaluate(e, func(VName) (PrimValue, error) { return BoolValue(true), nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add32")
}

func TestEvaluateFailuresPropagate(t *testing.T) {
	_, err := Evaluate(i32leaf("x"), noLookup)
	assert.Error(t, err)

	_, err = Evaluate(&FunExp{Name: "no_such_fun", Type: Float64}, noLookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_fun")
}

// --- free variables --------------------------------------------------------

func TestFreeVarsExp(t *testing.T) {
	e := mustBin(t, Add,
		mustBin(t, Mul, i32leaf("x"), i32leaf("y")),
		i32leaf("x"))
	vars := FreeVarsExp(e)
	assert.Len(t, vars, 2)
	assert.True(t, vars[Name("x")])
	assert.True(t, vars[Name("y")])
	assert.Empty(t, FreeVarsExp(i32val(3)))
}
