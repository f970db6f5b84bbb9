// parser_test.go
package loom

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- helpers ---------------------------------------------------------------

func mustParseIR(t *testing.T, src string, prof Profile) *Prog {
	t.Helper()
	prog, err := ParseProg("test", src, prof)
	if err != nil {
		t.Fatalf("parse error: %v\nsource:\n%s", err, src)
	}
	return prog
}

// roundTrip checks that formatting and re-parsing reproduces the same tree.
func roundTrip(t *testing.T, src string, prof Profile) *Prog {
	t.Helper()
	first := mustParseIR(t, src, prof)
	text := FormatProg(first)
	second, err := ParseProg("roundtrip", text, prof)
	if err != nil {
		t.Fatalf("re-parse error: %v\nformatted:\n%s", err, text)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("round trip changed the tree\nformatted:\n%s", text)
	}
	return first
}

// --- core grammar ----------------------------------------------------------

func TestMinimalFunction(t *testing.T) {
	prog := mustParseIR(t, `
fun {i32} id(x: i32) = {
  {x}
}
`, Plain)
	require.Len(t, prog.Funs, 1)
	f := prog.Funs[0]
	assert.False(t, f.Entry)
	assert.Equal(t, "id", f.Name)
	assert.Equal(t, []Type{PrimT(Int32)}, f.RetTypes)
	require.Len(t, f.Params, 1)
	assert.Equal(t, Param{Name: Name("x"), Type: PrimT(Int32)}, f.Params[0])
	require.Len(t, f.Body.Res, 1)
	assert.Equal(t, VarSub(Name("x")), f.Body.Res[0].Sub)
}

func TestTopLevelConstantsAndEntry(t *testing.T) {
	prog := mustParseIR(t, `
let {c_0: i64} = 16

entry {i64} main() = {
  {c_0}
}
`, Plain)
	require.Len(t, prog.Consts, 1)
	assert.Equal(t, []VName{Name("c_0")}, prog.Consts[0].Pat.Names())
	require.Len(t, prog.Funs, 1)
	assert.True(t, prog.Funs[0].Entry)
}

func TestPatternContextSplit(t *testing.T) {
	prog := mustParseIR(t, `
fun {[?0]f32} f(b: bool, xs: [3i64]f32, ys: [5i64]f32) = {
  let {n_1: i64; r: [n_1]f32} = if b then {
    {xs}
  } else {
    {ys}
  } : {[?0]f32}
  in
  {r}
}
`, Plain)
	stm := prog.Funs[0].Body.Stms[0]
	require.Len(t, stm.Pat.Ctx, 1)
	require.Len(t, stm.Pat.Vals, 1)
	assert.Equal(t, Name("n_1"), stm.Pat.Ctx[0].Name)
	iff := stm.Exp.(*If)
	require.Len(t, iff.Types, 1)
	assert.True(t, iff.Types[0].Shape.HasExt())
}

func TestTypeForms(t *testing.T) {
	prog := mustParseIR(t, `
fun {*[?0]f32, mem} f(n: i64, a: *[n][4i64]i8, m: mem) = {
  {a, m}
}
`, Plain)
	f := prog.Funs[0]
	assert.True(t, f.RetTypes[0].Unique)
	assert.True(t, f.RetTypes[0].Shape.HasExt())
	assert.True(t, f.RetTypes[1].IsMem())
	at := f.Params[1].Type
	assert.True(t, at.Unique)
	require.Len(t, at.Shape, 2)
	assert.Equal(t, BoundSize(VarSub(Name("n"))), at.Shape[0])
	assert.Equal(t, Int8, at.Prim)
}

func TestAttrsAndCerts(t *testing.T) {
	prog := mustParseIR(t, `
#[inline, sequential_inner(2), 7]
fun {cert, i32} f(b: bool, x: i32) = {
  let {c_1: cert} = assert(b, "must hold", "f.ir:2")
  let {y: i32} #[unroll] #{c_1} = add32(x, x)
  in
  {#{c_1} c_1, y}
}
`, Plain)
	f := prog.Funs[0]
	require.Len(t, f.Attrs, 3)
	assert.Equal(t, Attr{Name: "inline"}, f.Attrs[0])
	assert.Equal(t, "sequential_inner", f.Attrs[1].Name)
	assert.True(t, f.Attrs[1].Comp)
	assert.True(t, f.Attrs[2].IsInt)

	stm := f.Body.Stms[1]
	assert.Equal(t, []Attr{{Name: "unroll"}}, stm.Attrs)
	assert.Equal(t, []VName{Name("c_1")}, stm.Certs)
	assert.Equal(t, []VName{Name("c_1")}, f.Body.Res[0].Certs)
}

func TestIfSorts(t *testing.T) {
	for src, want := range map[string]IfSort{
		"if b then":            IfNormal,
		"if <equiv> b then":    IfEquiv,
		"if <fallback> b then": IfFallback,
	} {
		full := `
fun {i32} f(b: bool, x: i32) = {
  let {r: i32} = ` + src + ` {
    {x}
  } else {
    {x}
  } : {i32}
  in
  {r}
}
`
		prog := mustParseIR(t, full, Plain)
		iff := prog.Funs[0].Body.Stms[0].Exp.(*If)
		assert.Equal(t, want, iff.Sort, src)
		assert.Len(t, iff.Alternatives(), 2)
	}
}

func TestApplyWithConsumedArgument(t *testing.T) {
	prog := mustParseIR(t, `
fun {f64} f(a: *[3i64]f32, z: f32) = {
  let {q: f64} = apply norm(*a, z) : {f64}
  in
  {q}
}
`, Plain)
	app := prog.Funs[0].Body.Stms[0].Exp.(*Apply)
	assert.Equal(t, "norm", app.Func)
	require.Len(t, app.Args, 2)
	assert.Equal(t, Consume, app.Args[0].Diet)
	assert.Equal(t, Observe, app.Args[1].Diet)
}

func TestForLoopWithArrays(t *testing.T) {
	prog := mustParseIR(t, `
fun {f32} f(n: i64, xs: [n]f32, z: f32) = {
  let {s: f32} = loop {acc: f32} = {z} for i_1: i64 < n, (e: f32 in xs) do {
    let {t_2: f32} = fadd32(acc, e)
    in
    {t_2}
  }
  in
  {s}
}
`, Plain)
	loop := prog.Funs[0].Body.Stms[0].Exp.(*Loop)
	assert.Empty(t, loop.Ctx)
	require.Len(t, loop.Vals, 1)
	assert.Equal(t, VarSub(Name("z")), loop.Vals[0].Init)
	assert.Equal(t, ForLoop, loop.Form.Kind)
	assert.Equal(t, Int64, loop.Form.IndexType)
	require.Len(t, loop.Form.Arrs, 1)
	assert.Equal(t, Name("xs"), loop.Form.Arrs[0].Arr)
}

func TestWhileLoop(t *testing.T) {
	prog := mustParseIR(t, `
fun {i32} f(b: bool, x: i32) = {
  let {r: i32} = loop {w_1: i32} = {x} while b do {
    {w_1}
  }
  in
  {r}
}
`, Plain)
	loop := prog.Funs[0].Body.Stms[0].Exp.(*Loop)
	assert.Equal(t, WhileLoop, loop.Form.Kind)
	assert.Equal(t, Name("b"), loop.Form.Cond)
}

func TestBasicOperatorForms(t *testing.T) {
	prog := mustParseIR(t, `
fun {f32} f(n: i64, a: [n]f32, v: f32, b: bool) = {
  let {x_1: f32} = a[0]
  let {sl: [n]f32} = a[0 :+ n * 1]
  let {up: [n]f32} = a with [2] <- v
  let {lit: [3i64]i32} = [1i32, 2i32, 3i32] : i32
  let {io: [n]i32} = iota32(n, 0i32, 1i32)
  let {rep: [n]f32} = replicate([n], v)
  let {rs: [n]f32} = reshape([~n], a)
  let {ra: [n]f32} = rearrange((0), rs)
  let {mf: [n]f32} = manifest((0), ra)
  let {cc: [n]f32} = concat@0(n, mf, rep)
  let {sc: [n]f32} = scratch(f32, n)
  let {op: f32} = opaque(v)
  let {m_2: mem} = alloc(1024i64)
  let {cv: i32} = fptosi_f32_i32(v)
  let {ng: bool} = not(b)
  in
  {x_1}
}
`, Plain)
	stms := prog.Funs[0].Body.Stms
	require.Len(t, stms, 15)
	idx := stms[0].Exp.(*Index)
	assert.Equal(t, Name("a"), idx.Arr)
	require.Len(t, idx.Idx, 1)
	assert.False(t, idx.Idx[0].IsSlice)

	sl := stms[1].Exp.(*Index)
	assert.True(t, sl.Idx[0].IsSlice)
	assert.Equal(t, VarSub(Name("n")), sl.Idx[0].Num)

	up := stms[2].Exp.(*Update)
	assert.Equal(t, VarSub(Name("v")), up.Val)

	lit := stms[3].Exp.(*ArrayLit)
	assert.Len(t, lit.Elems, 3)
	assert.Equal(t, PrimT(Int32), lit.Elem)

	iota := stms[4].Exp.(*Iota)
	assert.Equal(t, Int32, iota.Type)

	rs := stms[6].Exp.(*Reshape)
	require.Len(t, rs.Dims, 1)
	assert.True(t, rs.Dims[0].Coerce)

	cc := stms[9].Exp.(*Concat)
	assert.Equal(t, 0, cc.Axis)
	assert.Equal(t, []VName{Name("mf"), Name("rep")}, cc.Arrs)

	_, isAlloc := stms[12].Exp.(*Alloc)
	assert.True(t, isAlloc)
	conv := stms[13].Exp.(*ConvOpExp)
	assert.Equal(t, ConvOp{FPToSI, Float32, Int32}, conv.Op)
	un := stms[14].Exp.(*UnOpExp)
	assert.Equal(t, UnOp{Not, Bool}, un.Op)
}

func TestOperatorKeywordsDispatchByName(t *testing.T) {
	prog := mustParseIR(t, `
fun {bool} f(x: i64, y: i64) = {
  let {a_1: i64} = sdiv64(x, y)
  let {b_2: i64} = ashr64(a_1, 2)
  let {c_3: bool} = slt64(b_2, y)
  let {d_4: bool} = eq_i64(x, y)
  let {e_5: bool} = logand(c_3, d_4)
  in
  {e_5}
}
`, Plain)
	stms := prog.Funs[0].Body.Stms
	assert.Equal(t, BinOp{SDiv, Int64}, stms[0].Exp.(*BinOpExp).Op)
	assert.Equal(t, BinOp{AShr, Int64}, stms[1].Exp.(*BinOpExp).Op)
	assert.Equal(t, CmpOp{CmpSlt, Int64}, stms[2].Exp.(*CmpOpExp).Op)
	assert.Equal(t, CmpOp{CmpEq, Int64}, stms[3].Exp.(*CmpOpExp).Op)
	assert.Equal(t, BinOp{LogAnd, Bool}, stms[4].Exp.(*BinOpExp).Op)
}

// --- SOACs -----------------------------------------------------------------

const soacSrc = `
fun {f32, [?0]f32} combinators(n: i64, xs: [n]f32, is: [n]i64, dst: [n]f32) = {
  let {m_1: [n]f32} = map(n, {xs}, \ {x_2: f32} : {f32} -> {
    let {y_3: f32} = fmul32(x_2, x_2)
    in
    {y_3}
  })
  let {s_4: f32} = redomap(n, {m_1}, {reduce_comm(\ {a_5: f32, b_6: f32} : {f32} -> {
    let {c_7: f32} = fadd32(a_5, b_6)
    in
    {c_7}
  }, {0.0f32})}, \ {x_8: f32} : {f32} -> {
    {x_8}
  })
  let {sc_9: [n]f32} = scanomap(n, {m_1}, {scan(\ {a_10: f32, b_11: f32} : {f32} -> {
    let {c_12: f32} = fadd32(a_10, b_11)
    in
    {c_12}
  }, {0.0f32})}, \ {x_13: f32} : {f32} -> {
    {x_13}
  })
  let {st_14: [n]f32} = scatter(n, {is, m_1}, \ {i_15: i64, v_16: f32} : {i64, f32} -> {
    {i_15, v_16}
  }, {([n], dst)})
  let {h_17: [n]f32} = hist(n, {is, m_1}, {histop(n, {dst}, {0.0f32}, \ {a_18: f32, b_19: f32} : {f32} -> {
    let {c_20: f32} = fmax32(a_18, b_19)
    in
    {c_20}
  })}, \ {i_21: i64, v_22: f32} : {i64, f32} -> {
    {i_21, v_22}
  })
  let {fl_23: f32} = stream_seq(n, {xs}, {0.0f32}, \ {k_24: i64, acc_25: f32, chunk_26: [k_24]f32} : {f32} -> {
    {acc_25}
  })
  in
  {s_4, sc_9}
}
`

func TestSOACForms(t *testing.T) {
	prog := roundTrip(t, soacSrc, SOACS)
	stms := prog.Funs[0].Body.Stms

	m := stms[0].Exp.(*Screma)
	assert.Empty(t, m.Scans)
	assert.Empty(t, m.Reduces)
	require.Len(t, m.Lam.Params, 1)

	rm := stms[1].Exp.(*Screma)
	require.Len(t, rm.Reduces, 1)
	assert.True(t, rm.Reduces[0].Comm)
	assert.Equal(t, []SubExp{ConstSub(FloatValue(Float32, 0))}, rm.Reduces[0].Neutral)

	sm := stms[2].Exp.(*Screma)
	require.Len(t, sm.Scans, 1)
	assert.Empty(t, sm.Reduces)

	sc := stms[3].Exp.(*Scatter)
	require.Len(t, sc.Dests, 1)
	assert.Equal(t, Name("dst"), sc.Dests[0].Arr)

	h := stms[4].Exp.(*Hist)
	require.Len(t, h.Ops, 1)
	assert.Equal(t, Name("dst"), h.Ops[0].Dests[0])

	st := stms[5].Exp.(*Stream)
	assert.Equal(t, StreamSeq, st.Kind)
	require.Len(t, st.Accs, 1)
}

func TestScremaGeneralForm(t *testing.T) {
	src := `
fun {f32} f(n: i64, xs: [n]f32) = {
  let {a_1: [n]f32, r_2: f32} = screma(n, {xs}, {scan(\ {x_3: f32, y_4: f32} : {f32} -> {
    let {z_5: f32} = fadd32(x_3, y_4)
    in
    {z_5}
  }, {0.0f32})}, {reduce(\ {x_6: f32, y_7: f32} : {f32} -> {
    let {z_8: f32} = fmin32(x_6, y_7)
    in
    {z_8}
  }, {1.0f32})}, \ {v_9: f32} : {f32, f32} -> {
    {v_9, v_9}
  })
  in
  {r_2}
}
`
	prog := roundTrip(t, src, SOACS)
	s := prog.Funs[0].Body.Stms[0].Exp.(*Screma)
	assert.Len(t, s.Scans, 1)
	assert.Len(t, s.Reduces, 1)
	assert.False(t, s.Reduces[0].Comm)
}

// --- kernels ---------------------------------------------------------------

const kernelSrc = `
fun {i64} sizes(n: i64) = {
  let {bs_1: i64} = get_size("main.block_size", block_size)
  let {mx_2: i64} = get_size_max(shared_memory)
  let {fits_3: bool} = cmp_size_le("main.tile", tile, n)
  let {ng_4: i64} = calc_num_blocks(n, "main.num_blocks", bs_1)
  let {th_5: i64} = get_size("main.path", threshold("main.a", "main.b"))
  let {bk_6: i64} = get_size("main.k", bespoke("main.k", 32))
  let {rt_7: i64} = get_size("main.rt", reg_tile)
  let {nb_8: i64} = get_size("main.nb", num_blocks)
  in
  {bs_1}
}

fun {[?0]f32, f32} kern(n: i64, g: i64, b: i64, xs: [n]f32, dst: [n]f32) = {
  let {r_0: [n]f32} = segmap (thread; grid=g; blocksize=b; virtualise) (phys_1; gtid_2 < n) : {f32} {
    let {v_3: f32} = xs[gtid_2]
    return {returns(may_simplify, v_3)}
  }
  let {s_4: f32} = segred (block; grid=g; blocksize=b) (phys_5; gtid_6 < n) {reduce(\ {a_7: f32, b_8: f32} : {f32} -> {
    let {c_9: f32} = fadd32(a_7, b_8)
    in
    {c_9}
  }, {0.0f32}, [n])} : {f32} {
    let {x_10: f32} = xs[gtid_6]
    return {returns(no_simplify, x_10)}
  }
  let {w_11: [n]f32} = segmap (thread; grid=g; blocksize=b) (phys_12; i_13 < n) : {f32} {
    return {write_returns([n], dst, ([i_13], s_4), ([0], s_4))}
  }
  let {sn_14: [n]f32} = segscan (thread; grid=g; blocksize=b; full) (phys_15; i_16 < n) {reduce(\ {a_17: f32, b_18: f32} : {f32} -> {
    let {c_19: f32} = fadd32(a_17, b_18)
    in
    {c_19}
  }, {0.0f32})} : {f32} {
    return {returns(private, s_4)}
  }
  let {hg_20: [n]f32} = seghist (thread; grid=g; blocksize=b) (phys_21; i_22 < n) {histop(n, {dst}, reduce(\ {a_23: f32, b_24: f32} : {f32} -> {
    let {c_25: f32} = fmax32(a_23, b_24)
    in
    {c_25}
  }, {0.0f32}))} : {i64, f32} {
    return {returns(may_simplify, i_22), returns(may_simplify, s_4)}
  }
  let {g_26: i64} = gpu : {i64} {
    let {d_27: i64} = mul64(n, 2)
    in
    {d_27}
  }
  in
  {r_0, s_4}
}
`

func TestKernelForms(t *testing.T) {
	prog := roundTrip(t, kernelSrc, Kernels)

	sizes := prog.Funs[0].Body.Stms
	gs := sizes[0].Exp.(*GetSize)
	assert.Equal(t, "main.block_size", gs.Key)
	assert.Equal(t, ClassBlockSize, gs.Class.Kind)
	assert.Equal(t, ClassSharedMemory, sizes[1].Exp.(*GetSizeMax).Class.Kind)
	assert.Equal(t, ClassTile, sizes[2].Exp.(*CmpSizeLe).Class.Kind)
	assert.Equal(t, "main.num_blocks", sizes[3].Exp.(*CalcGroups).Key)
	th := sizes[4].Exp.(*GetSize).Class
	assert.Equal(t, ClassThreshold, th.Kind)
	assert.Equal(t, []string{"main.a", "main.b"}, th.Names)
	bk := sizes[5].Exp.(*GetSize).Class
	assert.Equal(t, ClassBespoke, bk.Kind)
	assert.Equal(t, int64(32), bk.Def)

	kern := prog.Funs[1].Body.Stms

	sm := kern[0].Exp.(*SegOp)
	assert.Equal(t, SegMap, sm.Kind)
	assert.Equal(t, LevelThread, sm.Level.Kind)
	assert.Equal(t, Virtualise, sm.Level.Virt)
	assert.Equal(t, Name("phys_1"), sm.Space.Flat)
	require.Len(t, sm.Space.Dims, 1)
	assert.Equal(t, Name("gtid_2"), sm.Space.Dims[0].Name)
	require.Len(t, sm.Body.Res, 1)
	assert.Equal(t, MaySimplify, sm.Body.Res[0].(*Returns).Policy)

	sr := kern[1].Exp.(*SegOp)
	assert.Equal(t, SegRed, sr.Kind)
	assert.Equal(t, LevelBlock, sr.Level.Kind)
	require.Len(t, sr.Ops, 1)
	require.Len(t, sr.Ops[0].Shape, 1)
	assert.Equal(t, NoSimplify, sr.Body.Res[0].(*Returns).Policy)

	wr := kern[2].Exp.(*SegOp).Body.Res[0].(*WriteReturns)
	assert.Equal(t, Name("dst"), wr.Arr)
	assert.Len(t, wr.Writes, 2)

	ss := kern[3].Exp.(*SegOp)
	assert.Equal(t, SegScan, ss.Kind)
	assert.Equal(t, VirtFull, ss.Level.Virt)
	assert.Equal(t, Private, ss.Body.Res[0].(*Returns).Policy)

	sh := kern[4].Exp.(*SegOp)
	assert.Equal(t, SegHist, sh.Kind)
	require.Len(t, sh.HistOps, 1)
	assert.Equal(t, Name("dst"), sh.HistOps[0].Dests[0])
	assert.Len(t, sh.Body.Res, 2)

	gb := kern[5].Exp.(*GPUBody)
	require.Len(t, gb.Types, 1)
	assert.Len(t, gb.Body.Stms, 1)
}

func TestTilingResults(t *testing.T) {
	src := `
fun {[?0][?1]f32} f(n: i64, m: i64, g: i64, b: i64, ts: i64, rt: i64, xs: [n]f32, acc: [n]f32) = {
  let {t_1: [n][m]f32} = segmap (block; grid=g; blocksize=b) (phys_2; i_3 < n) : {f32} {
    return {tile_returns({(n, ts), (m, ts)}, acc), concat_returns(n, ts, acc), regtile_returns({(n, ts, rt)}, acc)}
  }
  in
  {t_1, t_1}
}
`
	prog := roundTrip(t, src, Kernels)
	res := prog.Funs[0].Body.Stms[0].Exp.(*SegOp).Body.Res
	require.Len(t, res, 3)
	tr := res[0].(*TileReturns)
	assert.Len(t, tr.Dims, 2)
	cr := res[1].(*ConcatReturns)
	assert.Equal(t, VarSub(Name("ts")), cr.PerElem)
	rr := res[2].(*RegTileReturns)
	require.Len(t, rr.Dims, 1)
	assert.Equal(t, VarSub(Name("rt")), rr.Dims[0].RegTile)
}

// --- profiles restrict the op slot -----------------------------------------

func TestPlainProfileRejectsSOACs(t *testing.T) {
	src := `
fun {[?0]f32} f(n: i64, xs: [n]f32) = {
  let {r: [n]f32} = map(n, {xs}, \ {x_1: f32} : {f32} -> {
    {x_1}
  })
  in
  {r}
}
`
	_, err := ParseProg("test", src, Plain)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)

	// The same source parses under the SOACs profile.
	_, err = ParseProg("test", src, SOACS)
	assert.NoError(t, err)
}

func TestSOACSProfileRejectsSegOps(t *testing.T) {
	src := `
fun {f32} f(n: i64, g: i64, b: i64, xs: [n]f32) = {
  let {r: f32} = segmap (thread; grid=g; blocksize=b) (phys_1; i_2 < n) : {f32} {
    return {returns(may_simplify, 0.0f32)}
  }
  in
  {r}
}
`
	_, err := ParseProg("test", src, SOACS)
	require.Error(t, err)
	_, err = ParseProg("test", src, Kernels)
	assert.NoError(t, err)
}

// --- error reporting -------------------------------------------------------

func TestParseErrorReportsFurthestPosition(t *testing.T) {
	src := "fun {i32} f(x: i32) = {\n  {x\n}"
	_, err := ParseProg("test", src, Plain)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Line)
	assert.Contains(t, pe.Msg, "expected")
	assert.Contains(t, pe.Msg, "'}'")
}

func TestParseErrorListsAlternatives(t *testing.T) {
	src := "fun {i32} f(x: i32) = )"
	_, err := ParseProg("test", src, Plain)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Line)
	assert.Contains(t, pe.Msg, "'{'")
}

func TestParseErrorNeverReturnsPartialTree(t *testing.T) {
	prog, err := ParseProg("test", "fun {i32} f() = { {x} } fun oops", Plain)
	assert.Nil(t, prog)
	assert.Error(t, err)
}

// --- round trips -----------------------------------------------------------

func TestPlainRoundTrip(t *testing.T) {
	roundTrip(t, `
let {c_0: i64} = 16

#[inline]
fun {*[?0]f32, cert} heavy(n: i64, a: *[n]f32, m: mem, b: bool, v: f32) = {
  let {ct_1: cert} = assert(b, "precondition", "heavy.ir:1")
  let {sl_2: [n]f32} = a[0 :+ n * 1]
  let {up_3: [n]f32} #{ct_1} = a with [2] <- v
  let {z_4: f32} = if <fallback> b then {
    {v}
  } else {
    let {w_5: f32} = fmul32(v, v)
    in
    {w_5}
  } : {f32}
  let {acc_6: f32} = loop {a_7: f32} = {z_4} for i_8: i64 < n, (e_9: f32 in sl_2) do {
    let {t_10: f32} = fadd32(a_7, e_9)
    in
    {t_10}
  }
  let {q_11: f64} = apply norm(*up_3, acc_6) : {f64}
  in
  {up_3, ct_1}
}
`, Plain)
}

func TestErrorSnippetRendering(t *testing.T) {
	src := "fun {i32} f(x: i32) = {\n  {x\n}\n"
	_, err := ParseProg("test.ir", src, Plain)
	require.Error(t, err)
	wrapped := WrapErrorWithName(err, "test.ir", src)
	assert.Contains(t, wrapped.Error(), "PARSE ERROR in test.ir")
	assert.Contains(t, wrapped.Error(), "^")
}
