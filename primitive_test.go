// primitive_test.go
package loom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- values ----------------------------------------------------------------

func TestIntValueTruncatesToWidth(t *testing.T) {
	assert.Equal(t, int64(-56), IntValue(Int8, 200).I)
	assert.Equal(t, int64(200), IntValue(Int16, 200).I)
	assert.Equal(t, int64(-1), IntValue(Int32, int64(1)<<40|0xFFFFFFFF).I)
	assert.Equal(t, int64(1)<<40, IntValue(Int64, int64(1)<<40).I)
}

func TestValueEqualityIsWidthSensitive(t *testing.T) {
	assert.True(t, IntValue(Int32, 5).Equal(IntValue(Int32, 5)))
	assert.False(t, IntValue(Int8, 5).Equal(IntValue(Int64, 5)))
	assert.False(t, IntValue(Int32, 5).Equal(FloatValue(Float32, 5)))
	assert.True(t, Checked.Equal(Checked))
}

func TestValueStrings(t *testing.T) {
	assert.Equal(t, "5i32", IntValue(Int32, 5).String())
	assert.Equal(t, "-3i8", IntValue(Int8, -3).String())
	assert.Equal(t, "2.0f64", FloatValue(Float64, 2).String())
	assert.Equal(t, "1.5f32", FloatValue(Float32, 1.5).String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "checked", Checked.String())
}

// --- names -----------------------------------------------------------------

func TestNameTagSplitting(t *testing.T) {
	assert.Equal(t, VName{Base: "x", Tag: 42}, Name("x_42"))
	assert.Equal(t, VName{Base: "mem_a", Tag: -1}, Name("mem_a"))
	assert.Equal(t, VName{Base: "x_y", Tag: 3}, Name("x_y_3"))
	assert.Equal(t, VName{Base: "_7", Tag: -1}, Name("_7")) // no base before the tag
	assert.Equal(t, "x_42", Name("x_42").String())
}

// --- operator names --------------------------------------------------------

func TestOperatorNames(t *testing.T) {
	assert.Equal(t, "add32", BinOp{Add, Int32}.String())
	assert.Equal(t, "fmul64", BinOp{FMul, Float64}.String())
	assert.Equal(t, "logand", BinOp{LogAnd, Bool}.String())
	assert.Equal(t, "eq_f32", CmpOp{CmpEq, Float32}.String())
	assert.Equal(t, "slt8", CmpOp{CmpSlt, Int8}.String())
	assert.Equal(t, "llt", CmpOp{CmpLlt, Bool}.String())
	assert.Equal(t, "complement16", UnOp{Complement, Int16}.String())
	assert.Equal(t, "sext_i8_i64", ConvOp{SExt, Int8, Int64}.String())
	assert.Equal(t, "fptosi_f32_i32", ConvOp{FPToSI, Float32, Int32}.String())
}

func TestOperatorEnumerationsAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, op := range AllBinOps() {
		require.False(t, seen[op.String()], "duplicate %s", op)
		seen[op.String()] = true
	}
	for _, op := range AllCmpOps() {
		require.False(t, seen[op.String()], "duplicate %s", op)
		seen[op.String()] = true
	}
	for _, op := range AllUnOps() {
		require.False(t, seen[op.String()], "duplicate %s", op)
		seen[op.String()] = true
	}
	for _, op := range AllConvOps() {
		require.False(t, seen[op.String()], "duplicate %s", op)
		seen[op.String()] = true
	}
}

// --- evaluation tables -----------------------------------------------------

func TestIntDivisionSemantics(t *testing.T) {
	// sdiv/smod floor toward negative infinity, squot/srem truncate.
	cases := []struct {
		code       BinOpCode
		a, b, want int64
	}{
		{SDiv, 7, 2, 3},
		{SDiv, -7, 2, -4},
		{SMod, -7, 2, 1},
		{SMod, 7, -2, -1},
		{SQuot, -7, 2, -3},
		{SRem, -7, 2, -1},
	}
	for _, c := range cases {
		v, ok := DoBinOp(BinOp{c.code, Int64}, IntValue(Int64, c.a), IntValue(Int64, c.b))
		require.True(t, ok)
		assert.Equal(t, c.want, v.I, "%s(%d, %d)", BinOp{c.code, Int64}, c.a, c.b)
	}
}

func TestDivisionByZeroHasNoEntry(t *testing.T) {
	for _, code := range []BinOpCode{SDiv, SMod, SQuot, SRem} {
		_, ok := DoBinOp(BinOp{code, Int32}, IntValue(Int32, 1), IntValue(Int32, 0))
		assert.False(t, ok)
	}
}

func TestBinOpRejectsMismatchedWidths(t *testing.T) {
	_, ok := DoBinOp(BinOp{Add, Int32}, IntValue(Int64, 1), IntValue(Int32, 2))
	assert.False(t, ok)
}

func TestShiftsMaskTheAmount(t *testing.T) {
	v, ok := DoBinOp(BinOp{Shl, Int8}, IntValue(Int8, 1), IntValue(Int8, 9))
	require.True(t, ok)
	assert.Equal(t, int64(2), v.I) // 9 mod 8 = 1

	v, ok = DoBinOp(BinOp{LShr, Int8}, IntValue(Int8, -1), IntValue(Int8, 1))
	require.True(t, ok)
	assert.Equal(t, int64(127), v.I) // logical shift sees 0xFF
}

func TestConversions(t *testing.T) {
	v, ok := DoConvOp(ConvOp{SExt, Int8, Int64}, IntValue(Int8, -1))
	require.True(t, ok)
	assert.Equal(t, IntValue(Int64, -1), v)

	v, ok = DoConvOp(ConvOp{SExt, Int64, Int8}, IntValue(Int64, 300))
	require.True(t, ok)
	assert.Equal(t, int64(44), v.I)

	v, ok = DoConvOp(ConvOp{SIToFP, Int32, Float64}, IntValue(Int32, 3))
	require.True(t, ok)
	assert.Equal(t, 3.0, v.F)

	v, ok = DoConvOp(ConvOp{BToI, Bool, Int32}, BoolValue(true))
	require.True(t, ok)
	assert.Equal(t, IntValue(Int32, 1), v)

	_, ok = DoConvOp(ConvOp{SExt, Int8, Int64}, IntValue(Int16, 1))
	assert.False(t, ok)
}

func TestFunRegistry(t *testing.T) {
	v, ok := DoFun("sqrt64", []PrimValue{FloatValue(Float64, 9)})
	require.True(t, ok)
	assert.Equal(t, 3.0, v.F)

	ret, ok := FunRetType("isnan32")
	require.True(t, ok)
	assert.Equal(t, Bool, ret)

	_, ok = DoFun("nope", nil)
	assert.False(t, ok)
	_, ok = DoFun("sqrt64", []PrimValue{FloatValue(Float32, 9)})
	assert.False(t, ok)
}
