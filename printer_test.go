// printer_test.go
package loom

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const printerPlainSrc = `
let {c0: i64} = 16

fun {i32} double(x: i32) = {
  let {y: i32} = add32(x, x)
  in
  {y}
}

entry {mem} pick(c: bool, a: mem, b: mem) = {
  let {r: mem} = if c then {
    {a}
  } else {
    {b}
  } : {mem}
  in
  {r}
}
`

const printerSOACSrc = `
fun {[?0]f32} square(n: i64, xs: [n]f32) = {
  let {ys: [n]f32} = map(n, {xs}, \ {x: f32} : {f32} -> {
    let {y: f32} = fmul32(x, x)
    in
    {y}
  })
  in
  {ys}
}
`

func TestFormatProgGolden(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	prog := mustParseIR(t, printerPlainSrc, Plain)
	g.Assert(t, "plain_prog", []byte(FormatProg(prog)))
}

func TestFormatProgGoldenSOACs(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	prog := mustParseIR(t, printerSOACSrc, SOACS)
	g.Assert(t, "soacs_map", []byte(FormatProg(prog)))
}

// Formatting is a fixpoint: formatting the re-parse of formatted output
// changes nothing.
func TestFormatIsStable(t *testing.T) {
	for _, tc := range []struct {
		src  string
		prof Profile
	}{
		{printerPlainSrc, Plain},
		{printerSOACSrc, SOACS},
		{kernelSrc, Kernels},
	} {
		prog := mustParseIR(t, tc.src, tc.prof)
		text := FormatProg(prog)
		again, err := ParseProg("stable", text, tc.prof)
		require.NoError(t, err, "formatted:\n%s", text)
		assert.Equal(t, text, FormatProg(again))
	}
}

func TestFormatExpSingleLine(t *testing.T) {
	assert.Equal(t, "add32(x, y)", FormatExp(&BinOpExp{
		Op: BinOp{Add, Int32},
		X:  VarSub(Name("x")),
		Y:  VarSub(Name("y")),
	}))
	assert.Equal(t, "a[i, 0i64 :+ n * 1i64]", FormatExp(&Index{
		Arr: Name("a"),
		Idx: []DimIndex{
			{Fix: VarSub(Name("i"))},
			{
				Offset:  ConstSub(IntValue(Int64, 0)),
				Num:     VarSub(Name("n")),
				Stride:  ConstSub(IntValue(Int64, 1)),
				IsSlice: true,
			},
		},
	}))
	assert.Equal(t, "a with [i] <- v", FormatExp(&Update{
		Arr: Name("a"),
		Idx: []DimIndex{{Fix: VarSub(Name("i"))}},
		Val: VarSub(Name("v")),
	}))
}

func TestFormatExpEscapesStrings(t *testing.T) {
	e := &Assert{
		Cond: VarSub(Name("c")),
		Msg:  "say \"hi\"\n",
		Loc:  "f.fut:1",
	}
	assert.Equal(t, `assert(c, "say \"hi\"\n", "f.fut:1")`, FormatExp(e))
}

// Constants print with their width suffix so the lexer can reconstruct the
// exact value.
func TestFormatValueSuffixes(t *testing.T) {
	assert.Equal(t, "150.0f64", FormatExp(&SubExpOp{Sub: ConstSub(FloatValue(Float64, 150))}))
	assert.Equal(t, "-3i8", FormatExp(&SubExpOp{Sub: ConstSub(IntValue(Int8, -3))}))
	assert.Equal(t, "checked", FormatExp(&SubExpOp{Sub: ConstSub(Checked)}))
}
