// parser_rep.go — representation profiles of the parser
//
// OVERVIEW
// --------
// A Profile fills the representation-dependent slots of the shared grammar
// in parser.go: the type forms admitted in return positions, branch
// positions, parameters and let-bindings, and — the big one — the Op
// syntax. Three profiles exist:
//
//   Plain   — no Ops at all; the control-flow and basic-operator core.
//   SOACS   — second-order array combinators (screma and friends).
//   Kernels — segmented operators, size queries, and gpu regions.
//
// The operator keyword tables (add32, slt8, sext_i8_i64, ...) are derived
// at init from the enumerators in primitive.go, so parser and printer can
// never disagree about an operator's name.
package loom

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// Profile selects which IR representation a parse accepts.
type Profile interface {
	parseRetType(*parser) (Type, error)
	parseBranchType(*parser) (Type, error)
	parseFParam(*parser) (Type, error)
	parseLParam(*parser) (Type, error)
	parseLetDec(*parser) (Type, error)
	parseOp(*parser) (Op, error)
}

// The three representation profiles.
var (
	Plain   Profile = plainProfile{}
	SOACS   Profile = soacsProfile{}
	Kernels Profile = kernelsProfile{}
)

// ProfileFromName resolves a profile by its CLI name.
func ProfileFromName(s string) (Profile, bool) {
	switch s {
	case "plain":
		return Plain, true
	case "soacs":
		return SOACS, true
	case "kernels":
		return Kernels, true
	}
	return nil, false
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
//                                   PRIVATE
////////////////////////////////////////////////////////////////////////////////

// ───────────────────────── operator keyword tables ──────────────────────────

var (
	binOpNames  = map[string]BinOp{}
	cmpOpNames  = map[string]CmpOp{}
	unOpNames   = map[string]UnOp{}
	convOpNames = map[string]ConvOp{}
)

func init() {
	for _, op := range AllBinOps() {
		binOpNames[op.String()] = op
	}
	for _, op := range AllCmpOps() {
		cmpOpNames[op.String()] = op
	}
	for _, op := range AllUnOps() {
		unOpNames[op.String()] = op
	}
	for _, op := range AllConvOps() {
		convOpNames[op.String()] = op
	}
}

// ────────────────────────────── shared slots ────────────────────────────────

// baseProfile carries the type-slot defaults every representation shares:
// uniqueness and existential sizes only at function and branch boundaries,
// mem everywhere (allocation is a basic operator).
type baseProfile struct{}

func (baseProfile) parseRetType(p *parser) (Type, error) {
	return p.parseTypeWith(typeFlags{unique: true, ext: true, mem: true})
}

func (baseProfile) parseBranchType(p *parser) (Type, error) {
	return p.parseTypeWith(typeFlags{ext: true, mem: true})
}

func (baseProfile) parseFParam(p *parser) (Type, error) {
	return p.parseTypeWith(typeFlags{unique: true, mem: true})
}

func (baseProfile) parseLParam(p *parser) (Type, error) {
	return p.parseTypeWith(typeFlags{mem: true})
}

func (baseProfile) parseLetDec(p *parser) (Type, error) {
	return p.parseTypeWith(typeFlags{mem: true})
}

// ─────────────────────────────── plain ──────────────────────────────────────

type plainProfile struct{ baseProfile }

func (plainProfile) parseOp(p *parser) (Op, error) {
	return nil, p.fail("expression")
}

// ─────────────────────────────── SOACs ──────────────────────────────────────

type soacsProfile struct{ baseProfile }

// parseOp dispatches on the SOAC keyword:
//
//	map(w, {arrs}, lam)
//	redomap(w, {arrs}, {reduces}, lam)
//	scanomap(w, {arrs}, {scans}, lam)
//	screma(w, {arrs}, {scans}, {reduces}, lam)
//	scatter(w, {arrs}, lam, {([dims], dest), ...})
//	hist(w, {arrs}, {histop(width, {dests}, {neutrals}, lam), ...}, lam)
//	stream_seq|stream_ord|stream_comm(w, {arrs}, {accs}, lam)
func (soacsProfile) parseOp(p *parser) (Op, error) {
	if !p.at(ID) {
		return nil, p.fail("expression")
	}
	switch p.peek().Lexeme {
	case "map", "redomap", "scanomap", "screma":
		return p.parseScrema(p.peek().Lexeme)
	case "scatter":
		return p.parseScatter()
	case "hist":
		return p.parseHist()
	case "stream_seq":
		return p.parseStream(StreamSeq)
	case "stream_ord":
		return p.parseStream(StreamOrdered)
	case "stream_comm":
		return p.parseStream(StreamCommutative)
	}
	return nil, p.fail("expression")
}

// parseLambda parses \ {params} : {rettypes} -> { body }.
func (p *parser) parseLambda() (*Lambda, error) {
	if _, err := p.expect(LAMBDA, "lambda"); err != nil {
		return nil, err
	}
	params, err := braces(p, func() (Param, error) {
		return p.parseParam(p.prof.parseLParam)
	})
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return nil, err
	}
	rets, err := braces(p, func() (Type, error) {
		return p.parseTypeWith(typeFlags{mem: true})
	})
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ARROW, "'->'"); err != nil {
		return nil, err
	}
	body, err := p.parseBracedBody()
	if err != nil {
		return nil, err
	}
	return &Lambda{Params: params, Body: body, RetTypes: rets}, nil
}

// parseSOACHead parses the common "kw(w, {arrs}," prefix.
func (p *parser) parseSOACHead() (SubExp, []VName, error) {
	p.i++ // the keyword
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return SubExp{}, nil, err
	}
	w, err := p.parseSubExp()
	if err != nil {
		return SubExp{}, nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return SubExp{}, nil, err
	}
	arrs, err := braces(p, p.parseVName)
	if err != nil {
		return SubExp{}, nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return SubExp{}, nil, err
	}
	return w, arrs, nil
}

// parseScan parses scan(lam, {neutrals}).
func (p *parser) parseScan() (Scan, error) {
	if err := p.expectWord("scan"); err != nil {
		return Scan{}, err
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return Scan{}, err
	}
	lam, err := p.parseLambda()
	if err != nil {
		return Scan{}, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return Scan{}, err
	}
	neutral, err := braces(p, p.parseSubExp)
	if err != nil {
		return Scan{}, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return Scan{}, err
	}
	return Scan{Lam: lam, Neutral: neutral}, nil
}

// parseReduce parses reduce(lam, {neutrals}) or reduce_comm(lam, {neutrals}).
func (p *parser) parseReduce() (Reduce, error) {
	comm := false
	switch {
	case p.acceptWord("reduce_comm"):
		comm = true
	case p.acceptWord("reduce"):
	default:
		return Reduce{}, p.fail("'reduce' or 'reduce_comm'")
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return Reduce{}, err
	}
	lam, err := p.parseLambda()
	if err != nil {
		return Reduce{}, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return Reduce{}, err
	}
	neutral, err := braces(p, p.parseSubExp)
	if err != nil {
		return Reduce{}, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return Reduce{}, err
	}
	return Reduce{Comm: comm, Lam: lam, Neutral: neutral}, nil
}

func (p *parser) parseScrema(form string) (Op, error) {
	w, arrs, err := p.parseSOACHead()
	if err != nil {
		return nil, err
	}
	s := &Screma{W: w, Arrs: arrs}
	if form == "scanomap" || form == "screma" {
		s.Scans, err = braces(p, p.parseScan)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COMMA, "','"); err != nil {
			return nil, err
		}
	}
	if form == "redomap" || form == "screma" {
		s.Reduces, err = braces(p, p.parseReduce)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(COMMA, "','"); err != nil {
			return nil, err
		}
	}
	s.Lam, err = p.parseLambda()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *parser) parseScatter() (Op, error) {
	w, arrs, err := p.parseSOACHead()
	if err != nil {
		return nil, err
	}
	lam, err := p.parseLambda()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	dests, err := braces(p, func() (ScatterDest, error) {
		if _, err := p.expect(LPAREN, "'('"); err != nil {
			return ScatterDest{}, err
		}
		if _, err := p.expect(LBRACKET, "'['"); err != nil {
			return ScatterDest{}, err
		}
		dims, err := commaSep(p, p.parseSubExp)
		if err != nil {
			return ScatterDest{}, err
		}
		if _, err := p.expect(RBRACKET, "']'"); err != nil {
			return ScatterDest{}, err
		}
		if _, err := p.expect(COMMA, "','"); err != nil {
			return ScatterDest{}, err
		}
		arr, err := p.parseVName()
		if err != nil {
			return ScatterDest{}, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return ScatterDest{}, err
		}
		return ScatterDest{Dims: dims, Arr: arr}, nil
	})
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &Scatter{W: w, Arrs: arrs, Lam: lam, Dests: dests}, nil
}

// parseHistOp parses histop(width, {dests}, {neutrals}, lam).
func (p *parser) parseHistOp() (HistOp, error) {
	if err := p.expectWord("histop"); err != nil {
		return HistOp{}, err
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return HistOp{}, err
	}
	width, err := p.parseSubExp()
	if err != nil {
		return HistOp{}, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return HistOp{}, err
	}
	dests, err := braces(p, p.parseVName)
	if err != nil {
		return HistOp{}, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return HistOp{}, err
	}
	neutral, err := braces(p, p.parseSubExp)
	if err != nil {
		return HistOp{}, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return HistOp{}, err
	}
	lam, err := p.parseLambda()
	if err != nil {
		return HistOp{}, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return HistOp{}, err
	}
	return HistOp{Width: width, Dests: dests, Neutral: neutral, Lam: lam}, nil
}

func (p *parser) parseHist() (Op, error) {
	w, arrs, err := p.parseSOACHead()
	if err != nil {
		return nil, err
	}
	ops, err := braces(p, p.parseHistOp)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	lam, err := p.parseLambda()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &Hist{W: w, Arrs: arrs, Ops: ops, Lam: lam}, nil
}

func (p *parser) parseStream(kind StreamKind) (Op, error) {
	w, arrs, err := p.parseSOACHead()
	if err != nil {
		return nil, err
	}
	accs, err := braces(p, p.parseSubExp)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	lam, err := p.parseLambda()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &Stream{Kind: kind, W: w, Arrs: arrs, Accs: accs, Lam: lam}, nil
}

// ─────────────────────────────── kernels ────────────────────────────────────

type kernelsProfile struct{ baseProfile }

// parseOp dispatches on the kernel keyword:
//
//	segmap level space : {types} kbody
//	segred level space {binops} : {types} kbody
//	segscan level space {binops} : {types} kbody
//	seghist level space {histops} : {types} kbody
//	get_size("key", class)
//	get_size_max(class)
//	cmp_size_le("key", class, x)
//	calc_num_blocks(w, "key", blocksize)
//	gpu : {types} { body }
func (kernelsProfile) parseOp(p *parser) (Op, error) {
	if !p.at(ID) {
		return nil, p.fail("expression")
	}
	switch p.peek().Lexeme {
	case "segmap":
		return p.parseSegOp(SegMap)
	case "segred":
		return p.parseSegOp(SegRed)
	case "segscan":
		return p.parseSegOp(SegScan)
	case "seghist":
		return p.parseSegOp(SegHist)
	case "get_size":
		return p.parseGetSize()
	case "get_size_max":
		return p.parseGetSizeMax()
	case "cmp_size_le":
		return p.parseCmpSizeLe()
	case "calc_num_blocks":
		return p.parseCalcGroups()
	case "gpu":
		return p.parseGPUBody()
	}
	return nil, p.fail("expression")
}

// parseSegLevel parses (thread|block; grid=g; blocksize=b[; full|virtualise]).
func (p *parser) parseSegLevel() (SegLevel, error) {
	var lvl SegLevel
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return lvl, err
	}
	switch {
	case p.acceptWord("thread"):
		lvl.Kind = LevelThread
	case p.acceptWord("block"):
		lvl.Kind = LevelBlock
	default:
		return lvl, p.fail("'thread' or 'block'")
	}
	if _, err := p.expect(SEMI, "';'"); err != nil {
		return lvl, err
	}
	if err := p.expectWord("grid"); err != nil {
		return lvl, err
	}
	if _, err := p.expect(EQUALS, "'='"); err != nil {
		return lvl, err
	}
	var err error
	if lvl.Grid, err = p.parseSubExp(); err != nil {
		return lvl, err
	}
	if _, err := p.expect(SEMI, "';'"); err != nil {
		return lvl, err
	}
	if err := p.expectWord("blocksize"); err != nil {
		return lvl, err
	}
	if _, err := p.expect(EQUALS, "'='"); err != nil {
		return lvl, err
	}
	if lvl.BlockSize, err = p.parseSubExp(); err != nil {
		return lvl, err
	}
	if p.accept(SEMI) {
		switch {
		case p.acceptWord("full"):
			lvl.Virt = VirtFull
		case p.acceptWord("virtualise"):
			lvl.Virt = Virtualise
		default:
			return lvl, p.fail("'full' or 'virtualise'")
		}
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return lvl, err
	}
	return lvl, nil
}

// parseSegSpace parses (flat; gtid < bound, ...).
func (p *parser) parseSegSpace() (SegSpace, error) {
	var sp SegSpace
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return sp, err
	}
	var err error
	if sp.Flat, err = p.parseVName(); err != nil {
		return sp, err
	}
	if _, err := p.expect(SEMI, "';'"); err != nil {
		return sp, err
	}
	sp.Dims, err = commaSep(p, func() (SegDim, error) {
		name, err := p.parseVName()
		if err != nil {
			return SegDim{}, err
		}
		if _, err := p.expect(LT, "'<'"); err != nil {
			return SegDim{}, err
		}
		bound, err := p.parseSubExp()
		if err != nil {
			return SegDim{}, err
		}
		return SegDim{Name: name, Bound: bound}, nil
	})
	if err != nil {
		return sp, err
	}
	if len(sp.Dims) == 0 {
		return sp, p.fail("segment dimension")
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return sp, err
	}
	return sp, nil
}

// parseSegBinOp parses reduce(lam, {neutrals}, [shape]) in the segmented
// spelling, with the same reduce/reduce_comm keywords as the SOAC form.
func (p *parser) parseSegBinOp() (SegBinOp, error) {
	comm := false
	switch {
	case p.acceptWord("reduce_comm"):
		comm = true
	case p.acceptWord("reduce"):
	default:
		return SegBinOp{}, p.fail("'reduce' or 'reduce_comm'")
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return SegBinOp{}, err
	}
	lam, err := p.parseLambda()
	if err != nil {
		return SegBinOp{}, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return SegBinOp{}, err
	}
	neutral, err := braces(p, p.parseSubExp)
	if err != nil {
		return SegBinOp{}, err
	}
	op := SegBinOp{Comm: comm, Lam: lam, Neutral: neutral}
	if p.accept(COMMA) {
		if _, err := p.expect(LBRACKET, "'['"); err != nil {
			return SegBinOp{}, err
		}
		op.Shape, err = commaSep(p, p.parseSubExp)
		if err != nil {
			return SegBinOp{}, err
		}
		if _, err := p.expect(RBRACKET, "']'"); err != nil {
			return SegBinOp{}, err
		}
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return SegBinOp{}, err
	}
	return op, nil
}

// parseSegHistOp parses histop(width, {dests}, op).
func (p *parser) parseSegHistOp() (SegHistOp, error) {
	if err := p.expectWord("histop"); err != nil {
		return SegHistOp{}, err
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return SegHistOp{}, err
	}
	width, err := p.parseSubExp()
	if err != nil {
		return SegHistOp{}, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return SegHistOp{}, err
	}
	dests, err := braces(p, p.parseVName)
	if err != nil {
		return SegHistOp{}, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return SegHistOp{}, err
	}
	op, err := p.parseSegBinOp()
	if err != nil {
		return SegHistOp{}, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return SegHistOp{}, err
	}
	return SegHistOp{Width: width, Dests: dests, Op: op}, nil
}

func (p *parser) parseSegOp(kind SegOpKind) (Op, error) {
	p.i++ // the keyword
	lvl, err := p.parseSegLevel()
	if err != nil {
		return nil, err
	}
	space, err := p.parseSegSpace()
	if err != nil {
		return nil, err
	}
	op := &SegOp{Kind: kind, Level: lvl, Space: space}
	switch kind {
	case SegRed, SegScan:
		op.Ops, err = braces(p, p.parseSegBinOp)
		if err != nil {
			return nil, err
		}
	case SegHist:
		op.HistOps, err = braces(p, p.parseSegHistOp)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return nil, err
	}
	op.Types, err = braces(p, func() (Type, error) {
		return p.parseTypeWith(typeFlags{mem: true})
	})
	if err != nil {
		return nil, err
	}
	op.Body, err = p.parseKernelBody()
	if err != nil {
		return nil, err
	}
	return op, nil
}

// parseKernelBody parses { stms* return {kresults} }.
func (p *parser) parseKernelBody() (*KernelBody, error) {
	if _, err := p.expect(LBRACE, "'{'"); err != nil {
		return nil, err
	}
	var stms []*Stm
	for p.at(LET) {
		s, err := p.parseStm()
		if err != nil {
			return nil, err
		}
		stms = append(stms, s)
	}
	if _, err := p.expect(RETURN, "'return'"); err != nil {
		return nil, err
	}
	res, err := braces(p, p.parseKernelResult)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return &KernelBody{Stms: stms, Res: res}, nil
}

func (p *parser) parseKernelResult() (KernelResult, error) {
	switch {
	case p.acceptWord("returns"):
		return p.parseReturns()
	case p.acceptWord("write_returns"):
		return p.parseWriteReturns()
	case p.acceptWord("concat_returns"):
		return p.parseConcatReturns()
	case p.acceptWord("tile_returns"):
		return p.parseTileReturns()
	case p.acceptWord("regtile_returns"):
		return p.parseRegTileReturns()
	}
	return nil, p.fail("kernel result")
}

// parseReturns parses returns(policy, e) after the keyword.
func (p *parser) parseReturns() (KernelResult, error) {
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	var policy ResultPolicy
	switch {
	case p.acceptWord("may_simplify"):
		policy = MaySimplify
	case p.acceptWord("no_simplify"):
		policy = NoSimplify
	case p.acceptWord("private"):
		policy = Private
	default:
		return nil, p.fail("result policy")
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	v, err := p.parseSubExp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &Returns{Policy: policy, Val: v}, nil
}

// parseWriteReturns parses write_returns([dims], arr, ([idx], val), ...)
// after the keyword.
func (p *parser) parseWriteReturns() (KernelResult, error) {
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LBRACKET, "'['"); err != nil {
		return nil, err
	}
	dims, err := commaSep(p, p.parseSubExp)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACKET, "']'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	arr, err := p.parseVName()
	if err != nil {
		return nil, err
	}
	wr := &WriteReturns{Dims: dims, Arr: arr}
	for p.accept(COMMA) {
		if _, err := p.expect(LPAREN, "'('"); err != nil {
			return nil, err
		}
		if _, err := p.expect(LBRACKET, "'['"); err != nil {
			return nil, err
		}
		idx, err := commaSep(p, p.parseDimIndex)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACKET, "']'"); err != nil {
			return nil, err
		}
		if _, err := p.expect(COMMA, "','"); err != nil {
			return nil, err
		}
		val, err := p.parseSubExp()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return nil, err
		}
		wr.Writes = append(wr.Writes, Write{Idx: idx, Val: val})
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return wr, nil
}

// parseConcatReturns parses concat_returns(w, per_elem, arr) after the
// keyword.
func (p *parser) parseConcatReturns() (KernelResult, error) {
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	w, err := p.parseSubExp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	per, err := p.parseSubExp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	arr, err := p.parseVName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &ConcatReturns{W: w, PerElem: per, Arr: arr}, nil
}

// parseTileReturns parses tile_returns({(dim, tile), ...}, arr) after the
// keyword.
func (p *parser) parseTileReturns() (KernelResult, error) {
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	dims, err := braces(p, func() (TileDim, error) {
		if _, err := p.expect(LPAREN, "'('"); err != nil {
			return TileDim{}, err
		}
		dim, err := p.parseSubExp()
		if err != nil {
			return TileDim{}, err
		}
		if _, err := p.expect(COMMA, "','"); err != nil {
			return TileDim{}, err
		}
		tile, err := p.parseSubExp()
		if err != nil {
			return TileDim{}, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return TileDim{}, err
		}
		return TileDim{Dim: dim, Tile: tile}, nil
	})
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	arr, err := p.parseVName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &TileReturns{Dims: dims, Arr: arr}, nil
}

// parseRegTileReturns parses regtile_returns({(dim, blktile, regtile), ...},
// arr) after the keyword.
func (p *parser) parseRegTileReturns() (KernelResult, error) {
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	dims, err := braces(p, func() (RegTileDim, error) {
		if _, err := p.expect(LPAREN, "'('"); err != nil {
			return RegTileDim{}, err
		}
		dim, err := p.parseSubExp()
		if err != nil {
			return RegTileDim{}, err
		}
		if _, err := p.expect(COMMA, "','"); err != nil {
			return RegTileDim{}, err
		}
		blk, err := p.parseSubExp()
		if err != nil {
			return RegTileDim{}, err
		}
		if _, err := p.expect(COMMA, "','"); err != nil {
			return RegTileDim{}, err
		}
		reg, err := p.parseSubExp()
		if err != nil {
			return RegTileDim{}, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return RegTileDim{}, err
		}
		return RegTileDim{Dim: dim, BlkTile: blk, RegTile: reg}, nil
	})
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	arr, err := p.parseVName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &RegTileReturns{Dims: dims, Arr: arr}, nil
}

// ─────────────────────────────── size queries ───────────────────────────────

// parseSizeClass parses block_size, num_blocks, tile, reg_tile,
// shared_memory, threshold("a", "b", ...), or bespoke("key", default).
func (p *parser) parseSizeClass() (SizeClass, error) {
	switch {
	case p.acceptWord("block_size"):
		return SizeClass{Kind: ClassBlockSize}, nil
	case p.acceptWord("num_blocks"):
		return SizeClass{Kind: ClassNumBlocks}, nil
	case p.acceptWord("tile"):
		return SizeClass{Kind: ClassTile}, nil
	case p.acceptWord("reg_tile"):
		return SizeClass{Kind: ClassRegTile}, nil
	case p.acceptWord("shared_memory"):
		return SizeClass{Kind: ClassSharedMemory}, nil
	case p.acceptWord("threshold"):
		if _, err := p.expect(LPAREN, "'('"); err != nil {
			return SizeClass{}, err
		}
		names, err := commaSep(p, p.parseString)
		if err != nil {
			return SizeClass{}, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return SizeClass{}, err
		}
		return SizeClass{Kind: ClassThreshold, Names: names}, nil
	case p.acceptWord("bespoke"):
		if _, err := p.expect(LPAREN, "'('"); err != nil {
			return SizeClass{}, err
		}
		name, err := p.parseString()
		if err != nil {
			return SizeClass{}, err
		}
		if _, err := p.expect(COMMA, "','"); err != nil {
			return SizeClass{}, err
		}
		def, err := p.parseIntConst()
		if err != nil {
			return SizeClass{}, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return SizeClass{}, err
		}
		return SizeClass{Kind: ClassBespoke, Names: []string{name}, Def: def}, nil
	}
	return SizeClass{}, p.fail("size class")
}

func (p *parser) parseGetSize() (Op, error) {
	p.i++
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	key, err := p.parseString()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	class, err := p.parseSizeClass()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &GetSize{Key: key, Class: class}, nil
}

func (p *parser) parseGetSizeMax() (Op, error) {
	p.i++
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	class, err := p.parseSizeClass()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &GetSizeMax{Class: class}, nil
}

func (p *parser) parseCmpSizeLe() (Op, error) {
	p.i++
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	key, err := p.parseString()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	class, err := p.parseSizeClass()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	x, err := p.parseSubExp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &CmpSizeLe{Key: key, Class: class, X: x}, nil
}

func (p *parser) parseCalcGroups() (Op, error) {
	p.i++
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	w, err := p.parseSubExp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	key, err := p.parseString()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	bs, err := p.parseSubExp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &CalcGroups{W: w, Key: key, BlockSize: bs}, nil
}

// parseGPUBody parses gpu : {types} { body } after the keyword is seen.
func (p *parser) parseGPUBody() (Op, error) {
	p.i++
	if _, err := p.expect(COLON, "':'"); err != nil {
		return nil, err
	}
	types, err := braces(p, func() (Type, error) {
		return p.parseTypeWith(typeFlags{mem: true})
	})
	if err != nil {
		return nil, err
	}
	body, err := p.parseBracedBody()
	if err != nil {
		return nil, err
	}
	return &GPUBody{Types: types, Body: body}, nil
}
