// printer.go — textual rendering of the IR
//
// Renders a program tree back to the surface syntax accepted by parser.go.
// The output is deterministic and re-parses to a structurally identical
// tree; parser tests rely on that round trip. Operator names come from the
// String methods in primitive.go, the same tables the parser dispatches on,
// so the two can never disagree.
package loom

import (
	"fmt"
	"strconv"
	"strings"
)

/* ---------- tiny writer with indentation ---------- */

type irOut struct {
	b     *strings.Builder
	depth int
}

func (o *irOut) write(s string) { o.b.WriteString(s) }
func (o *irOut) nl()            { o.b.WriteByte('\n') }
func (o *irOut) pad() {
	for i := 0; i < o.depth; i++ {
		o.b.WriteString("  ")
	}
}
func (o *irOut) line(s string)        { o.pad(); o.b.WriteString(s) }
func (o *irOut) withIndent(fn func()) { o.depth++; fn(); o.depth-- }

func quoteIRString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

/* ---------- public entry points ---------- */

// FormatProg renders a whole program.
func FormatProg(prog *Prog) string {
	var b strings.Builder
	p := irPrinter{irOut{b: &b}}
	for _, stm := range prog.Consts {
		p.printStm(stm)
	}
	for i, f := range prog.Funs {
		if i > 0 || len(prog.Consts) > 0 {
			p.nl()
		}
		p.printFunDef(f)
	}
	return b.String()
}

// FormatExp renders a single expression on one logical line.
func FormatExp(e Exp) string {
	var b strings.Builder
	p := irPrinter{irOut{b: &b}}
	p.printExp(e)
	return b.String()
}

/* ---------- printer ---------- */

type irPrinter struct {
	irOut
}

func (p *irPrinter) printFunDef(f *FunDef) {
	p.printAttrsLine(f.Attrs)
	if f.Entry {
		p.line("entry ")
	} else {
		p.line("fun ")
	}
	p.printTypes(f.RetTypes)
	p.write(" " + f.Name + "(")
	for i, param := range f.Params {
		if i > 0 {
			p.write(", ")
		}
		p.write(param.Name.String() + ": " + param.Type.String())
	}
	p.write(") =")
	p.nl()
	p.pad()
	p.printBody(f.Body)
	p.nl()
}

// printAttrsLine emits #[...] on its own line when attributes are present.
func (p *irPrinter) printAttrsLine(attrs []Attr) {
	if len(attrs) == 0 {
		return
	}
	p.line(attrString(attrs))
	p.nl()
}

func attrString(attrs []Attr) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = oneAttr(a)
	}
	return "#[" + strings.Join(parts, ", ") + "]"
}

func oneAttr(a Attr) string {
	if a.IsInt {
		return strconv.FormatInt(a.Int, 10)
	}
	if !a.Comp {
		return a.Name
	}
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = oneAttr(arg)
	}
	return a.Name + "(" + strings.Join(parts, ", ") + ")"
}

// printBody writes { stms in {res} } starting at the current position.
func (p *irPrinter) printBody(b *Body) {
	p.write("{")
	p.nl()
	p.withIndent(func() {
		for _, stm := range b.Stms {
			p.printStm(stm)
		}
		if len(b.Stms) > 0 {
			p.line("in")
			p.nl()
		}
		p.line(resString(b.Res))
		p.nl()
	})
	p.line("}")
}

func resString(res []Res) string {
	parts := make([]string, len(res))
	for i, r := range res {
		s := r.Sub.String()
		if len(r.Certs) > 0 {
			s = certString(r.Certs) + " " + s
		}
		parts[i] = s
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func certString(certs []VName) string {
	parts := make([]string, len(certs))
	for i, c := range certs {
		parts[i] = c.String()
	}
	return "#{" + strings.Join(parts, ", ") + "}"
}

func (p *irPrinter) printStm(stm *Stm) {
	p.line("let {")
	p.write(patString(stm.Pat))
	p.write("}")
	if len(stm.Attrs) > 0 {
		p.write(" " + attrString(stm.Attrs))
	}
	if len(stm.Certs) > 0 {
		p.write(" " + certString(stm.Certs))
	}
	p.write(" = ")
	p.printExp(stm.Exp)
	p.nl()
}

func patString(pat Pattern) string {
	elem := func(e PatElem) string { return e.Name.String() + ": " + e.Type.String() }
	vals := make([]string, len(pat.Vals))
	for i, e := range pat.Vals {
		vals[i] = elem(e)
	}
	if len(pat.Ctx) == 0 {
		return strings.Join(vals, ", ")
	}
	ctx := make([]string, len(pat.Ctx))
	for i, e := range pat.Ctx {
		ctx[i] = elem(e)
	}
	return strings.Join(ctx, ", ") + "; " + strings.Join(vals, ", ")
}

func (p *irPrinter) printTypes(types []Type) {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	p.write("{" + strings.Join(parts, ", ") + "}")
}

/* ---------- expressions ---------- */

func (p *irPrinter) printExp(e Exp) {
	switch e := e.(type) {
	case *If:
		p.write("if ")
		switch e.Sort {
		case IfEquiv:
			p.write("<equiv> ")
		case IfFallback:
			p.write("<fallback> ")
		}
		p.write(e.Cond.String() + " then ")
		p.printBody(e.Then)
		p.write(" else ")
		p.printBody(e.Else)
		p.write(" : ")
		p.printTypes(e.Types)
	case *Apply:
		p.write("apply " + e.Func + "(")
		for i, a := range e.Args {
			if i > 0 {
				p.write(", ")
			}
			if a.Diet == Consume {
				p.write("*")
			}
			p.write(a.Sub.String())
		}
		p.write(") : ")
		p.printTypes(e.Types)
	case *Loop:
		p.printLoop(e)
	case Op:
		p.printOp(e)
	case BasicOp:
		p.write(basicOpString(e))
	}
}

func (p *irPrinter) printLoop(e *Loop) {
	param := func(v LoopVar) string {
		return v.Param.Name.String() + ": " + v.Param.Type.String()
	}
	p.write("loop {")
	for i, v := range e.Ctx {
		if i > 0 {
			p.write(", ")
		}
		p.write(param(v))
	}
	if len(e.Ctx) > 0 {
		p.write("; ")
	}
	for i, v := range e.Vals {
		if i > 0 {
			p.write(", ")
		}
		p.write(param(v))
	}
	p.write("} = {")
	for i, v := range e.Merge() {
		if i > 0 {
			p.write(", ")
		}
		p.write(v.Init.String())
	}
	p.write("} ")
	if e.Form.Kind == WhileLoop {
		p.write("while " + e.Form.Cond.String())
	} else {
		p.write("for " + e.Form.I.String() + ": " + e.Form.IndexType.String() +
			" < " + e.Form.Bound.String())
		for _, la := range e.Form.Arrs {
			p.write(", (" + la.Elem.Name.String() + ": " + la.Elem.Type.String() +
				" in " + la.Arr.String() + ")")
		}
	}
	p.write(" do ")
	p.printBody(e.Body)
}

func basicOpString(e BasicOp) string {
	switch e := e.(type) {
	case *SubExpOp:
		return e.Sub.String()
	case *OpaqueOp:
		return "opaque(" + e.Sub.String() + ")"
	case *ArrayLit:
		parts := make([]string, len(e.Elems))
		for i, el := range e.Elems {
			parts[i] = el.String()
		}
		return "[" + strings.Join(parts, ", ") + "] : " + e.Elem.String()
	case *UnOpExp:
		return fmt.Sprintf("%s(%s)", e.Op, e.X)
	case *BinOpExp:
		return fmt.Sprintf("%s(%s, %s)", e.Op, e.X, e.Y)
	case *CmpOpExp:
		return fmt.Sprintf("%s(%s, %s)", e.Op, e.X, e.Y)
	case *ConvOpExp:
		return fmt.Sprintf("%s(%s)", e.Op, e.X)
	case *Assert:
		return "assert(" + e.Cond.String() + ", " + quoteIRString(e.Msg) +
			", " + quoteIRString(e.Loc) + ")"
	case *Index:
		return e.Arr.String() + "[" + idxString(e.Idx) + "]"
	case *Update:
		return e.Arr.String() + " with [" + idxString(e.Idx) + "] <- " + e.Val.String()
	case *Concat:
		var b strings.Builder
		b.WriteString("concat@" + strconv.Itoa(e.Axis) + "(" + e.W.String())
		for _, a := range e.Arrs {
			b.WriteString(", " + a.String())
		}
		b.WriteString(")")
		return b.String()
	case *Replicate:
		parts := make([]string, len(e.Dims))
		for i, d := range e.Dims {
			parts[i] = d.String()
		}
		return "replicate([" + strings.Join(parts, ", ") + "], " + e.Val.String() + ")"
	case *Iota:
		return fmt.Sprintf("iota%d(%s, %s, %s)", e.Type.Bits(), e.N, e.Start, e.Stride)
	case *Reshape:
		parts := make([]string, len(e.Dims))
		for i, d := range e.Dims {
			if d.Coerce {
				parts[i] = "~" + d.Size.String()
			} else {
				parts[i] = d.Size.String()
			}
		}
		return "reshape([" + strings.Join(parts, ", ") + "], " + e.Arr.String() + ")"
	case *Rearrange:
		return "rearrange(" + permString(e.Perm) + ", " + e.Arr.String() + ")"
	case *Manifest:
		return "manifest(" + permString(e.Perm) + ", " + e.Arr.String() + ")"
	case *Scratch:
		var b strings.Builder
		b.WriteString("scratch(" + e.Elem.String())
		for _, d := range e.Dims {
			b.WriteString(", " + d.String())
		}
		b.WriteString(")")
		return b.String()
	case *Alloc:
		return "alloc(" + e.Size.String() + ")"
	}
	return ""
}

func idxString(idx []DimIndex) string {
	parts := make([]string, len(idx))
	for i, d := range idx {
		if d.IsSlice {
			parts[i] = d.Offset.String() + " :+ " + d.Num.String() + " * " + d.Stride.String()
		} else {
			parts[i] = d.Fix.String()
		}
	}
	return strings.Join(parts, ", ")
}

func permString(perm []int) string {
	parts := make([]string, len(perm))
	for i, d := range perm {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

/* ---------- representation-specific operators ---------- */

func (p *irPrinter) printOp(op Op) {
	switch op := op.(type) {
	case *Screma:
		p.printScrema(op)
	case *Scatter:
		p.printScatter(op)
	case *Hist:
		p.printHist(op)
	case *Stream:
		p.printStream(op)
	case *SegOp:
		p.printSegOp(op)
	case *GetSize:
		p.write("get_size(" + quoteIRString(op.Key) + ", " + sizeClassString(op.Class) + ")")
	case *GetSizeMax:
		p.write("get_size_max(" + sizeClassString(op.Class) + ")")
	case *CmpSizeLe:
		p.write("cmp_size_le(" + quoteIRString(op.Key) + ", " +
			sizeClassString(op.Class) + ", " + op.X.String() + ")")
	case *CalcGroups:
		p.write("calc_num_blocks(" + op.W.String() + ", " + quoteIRString(op.Key) +
			", " + op.BlockSize.String() + ")")
	case *GPUBody:
		p.write("gpu : ")
		p.printTypes(op.Types)
		p.write(" ")
		p.printBody(op.Body)
	}
}

func (p *irPrinter) printLambda(lam *Lambda) {
	p.write("\\ {")
	for i, param := range lam.Params {
		if i > 0 {
			p.write(", ")
		}
		p.write(param.Name.String() + ": " + param.Type.String())
	}
	p.write("} : ")
	p.printTypes(lam.RetTypes)
	p.write(" -> ")
	p.printBody(lam.Body)
}

func (p *irPrinter) printNames(names []VName) {
	p.write("{")
	for i, n := range names {
		if i > 0 {
			p.write(", ")
		}
		p.write(n.String())
	}
	p.write("}")
}

func (p *irPrinter) printSubExps(subs []SubExp) {
	p.write("{")
	for i, s := range subs {
		if i > 0 {
			p.write(", ")
		}
		p.write(s.String())
	}
	p.write("}")
}

func (p *irPrinter) printScan(s Scan) {
	p.write("scan(")
	p.printLambda(s.Lam)
	p.write(", ")
	p.printSubExps(s.Neutral)
	p.write(")")
}

func (p *irPrinter) printReduce(r Reduce) {
	if r.Comm {
		p.write("reduce_comm(")
	} else {
		p.write("reduce(")
	}
	p.printLambda(r.Lam)
	p.write(", ")
	p.printSubExps(r.Neutral)
	p.write(")")
}

// printScrema picks the sugared keyword when only one slot kind is present.
func (p *irPrinter) printScrema(s *Screma) {
	form := "screma"
	switch {
	case len(s.Scans) == 0 && len(s.Reduces) == 0:
		form = "map"
	case len(s.Scans) == 0:
		form = "redomap"
	case len(s.Reduces) == 0:
		form = "scanomap"
	}
	p.write(form + "(" + s.W.String() + ", ")
	p.printNames(s.Arrs)
	p.write(", ")
	if form == "scanomap" || form == "screma" {
		p.write("{")
		for i, sc := range s.Scans {
			if i > 0 {
				p.write(", ")
			}
			p.printScan(sc)
		}
		p.write("}, ")
	}
	if form == "redomap" || form == "screma" {
		p.write("{")
		for i, r := range s.Reduces {
			if i > 0 {
				p.write(", ")
			}
			p.printReduce(r)
		}
		p.write("}, ")
	}
	p.printLambda(s.Lam)
	p.write(")")
}

func (p *irPrinter) printScatter(s *Scatter) {
	p.write("scatter(" + s.W.String() + ", ")
	p.printNames(s.Arrs)
	p.write(", ")
	p.printLambda(s.Lam)
	p.write(", {")
	for i, d := range s.Dests {
		if i > 0 {
			p.write(", ")
		}
		parts := make([]string, len(d.Dims))
		for j, dim := range d.Dims {
			parts[j] = dim.String()
		}
		p.write("([" + strings.Join(parts, ", ") + "], " + d.Arr.String() + ")")
	}
	p.write("})")
}

func (p *irPrinter) printHist(h *Hist) {
	p.write("hist(" + h.W.String() + ", ")
	p.printNames(h.Arrs)
	p.write(", {")
	for i, op := range h.Ops {
		if i > 0 {
			p.write(", ")
		}
		p.write("histop(" + op.Width.String() + ", ")
		p.printNames(op.Dests)
		p.write(", ")
		p.printSubExps(op.Neutral)
		p.write(", ")
		p.printLambda(op.Lam)
		p.write(")")
	}
	p.write("}, ")
	p.printLambda(h.Lam)
	p.write(")")
}

func (p *irPrinter) printStream(s *Stream) {
	form := map[StreamKind]string{
		StreamSeq:         "stream_seq",
		StreamOrdered:     "stream_ord",
		StreamCommutative: "stream_comm",
	}[s.Kind]
	p.write(form + "(" + s.W.String() + ", ")
	p.printNames(s.Arrs)
	p.write(", ")
	p.printSubExps(s.Accs)
	p.write(", ")
	p.printLambda(s.Lam)
	p.write(")")
}

/* ---------- segmented operators ---------- */

func (p *irPrinter) printSegOp(op *SegOp) {
	kw := map[SegOpKind]string{
		SegMap: "segmap", SegRed: "segred", SegScan: "segscan", SegHist: "seghist",
	}[op.Kind]
	p.write(kw + " " + segLevelString(op.Level) + " " + segSpaceString(op.Space))
	switch op.Kind {
	case SegRed, SegScan:
		p.write(" {")
		for i, bo := range op.Ops {
			if i > 0 {
				p.write(", ")
			}
			p.printSegBinOp(bo)
		}
		p.write("}")
	case SegHist:
		p.write(" {")
		for i, ho := range op.HistOps {
			if i > 0 {
				p.write(", ")
			}
			p.write("histop(" + ho.Width.String() + ", ")
			p.printNames(ho.Dests)
			p.write(", ")
			p.printSegBinOp(ho.Op)
			p.write(")")
		}
		p.write("}")
	}
	p.write(" : ")
	p.printTypes(op.Types)
	p.write(" ")
	p.printKernelBody(op.Body)
}

func segLevelString(lvl SegLevel) string {
	var b strings.Builder
	b.WriteString("(")
	if lvl.Kind == LevelBlock {
		b.WriteString("block")
	} else {
		b.WriteString("thread")
	}
	b.WriteString("; grid=" + lvl.Grid.String())
	b.WriteString("; blocksize=" + lvl.BlockSize.String())
	switch lvl.Virt {
	case VirtFull:
		b.WriteString("; full")
	case Virtualise:
		b.WriteString("; virtualise")
	}
	b.WriteString(")")
	return b.String()
}

func segSpaceString(sp SegSpace) string {
	var b strings.Builder
	b.WriteString("(" + sp.Flat.String() + ";")
	for i, d := range sp.Dims {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" " + d.Name.String() + " < " + d.Bound.String())
	}
	b.WriteString(")")
	return b.String()
}

func (p *irPrinter) printSegBinOp(op SegBinOp) {
	if op.Comm {
		p.write("reduce_comm(")
	} else {
		p.write("reduce(")
	}
	p.printLambda(op.Lam)
	p.write(", ")
	p.printSubExps(op.Neutral)
	if len(op.Shape) > 0 {
		parts := make([]string, len(op.Shape))
		for i, d := range op.Shape {
			parts[i] = d.String()
		}
		p.write(", [" + strings.Join(parts, ", ") + "]")
	}
	p.write(")")
}

func (p *irPrinter) printKernelBody(b *KernelBody) {
	p.write("{")
	p.nl()
	p.withIndent(func() {
		for _, stm := range b.Stms {
			p.printStm(stm)
		}
		p.line("return {")
		for i, res := range b.Res {
			if i > 0 {
				p.write(", ")
			}
			p.printKernelResult(res)
		}
		p.write("}")
		p.nl()
	})
	p.line("}")
}

func (p *irPrinter) printKernelResult(res KernelResult) {
	switch res := res.(type) {
	case *Returns:
		policy := map[ResultPolicy]string{
			MaySimplify: "may_simplify", NoSimplify: "no_simplify", Private: "private",
		}[res.Policy]
		p.write("returns(" + policy + ", " + res.Val.String() + ")")
	case *WriteReturns:
		parts := make([]string, len(res.Dims))
		for i, d := range res.Dims {
			parts[i] = d.String()
		}
		p.write("write_returns([" + strings.Join(parts, ", ") + "], " + res.Arr.String())
		for _, w := range res.Writes {
			p.write(", ([" + idxString(w.Idx) + "], " + w.Val.String() + ")")
		}
		p.write(")")
	case *ConcatReturns:
		p.write("concat_returns(" + res.W.String() + ", " + res.PerElem.String() +
			", " + res.Arr.String() + ")")
	case *TileReturns:
		p.write("tile_returns({")
		for i, d := range res.Dims {
			if i > 0 {
				p.write(", ")
			}
			p.write("(" + d.Dim.String() + ", " + d.Tile.String() + ")")
		}
		p.write("}, " + res.Arr.String() + ")")
	case *RegTileReturns:
		p.write("regtile_returns({")
		for i, d := range res.Dims {
			if i > 0 {
				p.write(", ")
			}
			p.write("(" + d.Dim.String() + ", " + d.BlkTile.String() +
				", " + d.RegTile.String() + ")")
		}
		p.write("}, " + res.Arr.String() + ")")
	}
}

func sizeClassString(c SizeClass) string {
	switch c.Kind {
	case ClassBlockSize:
		return "block_size"
	case ClassNumBlocks:
		return "num_blocks"
	case ClassTile:
		return "tile"
	case ClassRegTile:
		return "reg_tile"
	case ClassSharedMemory:
		return "shared_memory"
	case ClassThreshold:
		parts := make([]string, len(c.Names))
		for i, n := range c.Names {
			parts[i] = quoteIRString(n)
		}
		return "threshold(" + strings.Join(parts, ", ") + ")"
	case ClassBespoke:
		name := ""
		if len(c.Names) > 0 {
			name = c.Names[0]
		}
		return "bespoke(" + quoteIRString(name) + ", " + strconv.FormatInt(c.Def, 10) + ")"
	}
	return ""
}
