// parser.go — recursive-descent parser for the textual IR
//
// OVERVIEW
// --------
// Turns IR source text into the typed program tree of syntax.go. The
// grammar skeleton is shared between representations; everything that
// differs per representation — return-type slot, branch-type slot,
// parameter-info slots, let-binding decoration, and the embedded operation
// syntax — is delegated to a Profile (parser_rep.go), so one grammar
// implementation parses every IR variant.
//
// Backtracking policy
// -------------------
// Alternatives are tried left-to-right with full rollback of the token
// cursor on failure. Primitive matchers record the expectation at the
// furthest token reached; when the whole parse fails, the error reports
// that position together with the set of textual alternatives expected
// there. A parse either returns a complete tree or a single *ParseError —
// never a partial result.
//
// Dependencies (other files)
// --------------------------
//   - lexer.go: token stream, *LexError.
//   - parser_rep.go: the Profile implementations (plain / SOACs / kernels)
//     and the operator-keyword tables.
//   - syntax.go, soacs.go, kernels.go: the tree being built.
package loom

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// ParseError is an unrecoverable whole-parse failure: the furthest position
// where no grammar alternative matched, plus what was expected there.
type ParseError struct {
	Line int // 1-based
	Col  int // 0-based
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// ParseProg parses a complete IR program under the given representation
// profile. fname is used purely for diagnostic labeling by callers. The
// returned error is a *LexError or *ParseError.
func ParseProg(fname, src string, prof Profile) (*Prog, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, fname: fname, prof: prof}
	prog, err := p.parseProg()
	if err != nil {
		return nil, p.parseError()
	}
	return prog, nil
}

//// END_OF_PUBLIC

////////////////////////////////////////////////////////////////////////////////
///////////////////////////// PRIVATE IMPLEMENTATION ///////////////////////////
////////////////////////////////////////////////////////////////////////////////

// errBacktrack signals a failed alternative. Details live in the parser's
// furthest-failure state, not in the error value.
var errBacktrack = errors.New("backtrack")

type parser struct {
	toks  []Token
	i     int
	fname string
	prof  Profile

	// furthest-failure tracking
	maxPos   int
	expected []string
	seen     map[string]bool
}

// ─────────────────────────── token basics & helpers ─────────────────────────

func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) at(tt TokenType) bool { return p.peek().Type == tt }

func (p *parser) accept(tt TokenType) bool {
	if p.at(tt) {
		p.i++
		return true
	}
	return false
}

// fail records what was expected at the current position and returns the
// backtrack sentinel.
func (p *parser) fail(what string) error {
	if p.i > p.maxPos {
		p.maxPos = p.i
		p.expected = p.expected[:0]
		p.seen = map[string]bool{}
	}
	if p.i == p.maxPos && p.seen != nil && !p.seen[what] {
		p.seen[what] = true
		p.expected = append(p.expected, what)
	} else if p.seen == nil {
		p.seen = map[string]bool{what: true}
		p.expected = append(p.expected, what)
	}
	return errBacktrack
}

func (p *parser) expect(tt TokenType, what string) (Token, error) {
	if p.at(tt) {
		t := p.peek()
		p.i++
		return t, nil
	}
	return Token{}, p.fail(what)
}

func (p *parser) atWord(w string) bool {
	return p.at(ID) && p.peek().Lexeme == w
}

func (p *parser) acceptWord(w string) bool {
	if p.atWord(w) {
		p.i++
		return true
	}
	return false
}

func (p *parser) expectWord(w string) error {
	if p.acceptWord(w) {
		return nil
	}
	return p.fail("'" + w + "'")
}

// parseError builds the final error from the furthest-failure state.
func (p *parser) parseError() *ParseError {
	pos := p.maxPos
	if pos >= len(p.toks) {
		pos = len(p.toks) - 1
	}
	tok := p.toks[pos]
	exps := append([]string(nil), p.expected...)
	sort.Strings(exps)
	msg := "expected " + joinAlternatives(exps)
	return &ParseError{Line: tok.Line, Col: tok.Col, Msg: msg}
}

func joinAlternatives(exps []string) string {
	switch len(exps) {
	case 0:
		return "nothing"
	case 1:
		return exps[0]
	case 2:
		return exps[0] + " or " + exps[1]
	}
	return strings.Join(exps[:len(exps)-1], ", ") + ", or " + exps[len(exps)-1]
}

// alt tries alternatives left-to-right, rolling the cursor back after each
// failure.
func alt[T any](p *parser, fns ...func() (T, error)) (T, error) {
	save := p.i
	for _, fn := range fns {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		p.i = save
	}
	var zero T
	return zero, errBacktrack
}

// commaSep parses zero or more comma-separated elements.
func commaSep[T any](p *parser, elem func() (T, error)) ([]T, error) {
	save := p.i
	first, err := elem()
	if err != nil {
		p.i = save
		return nil, nil
	}
	out := []T{first}
	for p.accept(COMMA) {
		v, err := elem()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// braces parses "{" elems "}".
func braces[T any](p *parser, elem func() (T, error)) ([]T, error) {
	if _, err := p.expect(LBRACE, "'{'"); err != nil {
		return nil, err
	}
	out, err := commaSep(p, elem)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return out, nil
}

// ───────────────────────────── names & operands ─────────────────────────────

func (p *parser) parseVName() (VName, error) {
	tok, err := p.expect(ID, "variable name")
	if err != nil {
		return VName{}, err
	}
	return Name(tok.Lexeme), nil
}

func (p *parser) parseSubExp() (SubExp, error) {
	if p.at(CONSTANT) {
		v := p.peek().Literal.(PrimValue)
		p.i++
		return ConstSub(v), nil
	}
	if p.at(ID) {
		v := Name(p.peek().Lexeme)
		p.i++
		return VarSub(v), nil
	}
	return SubExp{}, p.fail("constant or variable name")
}

// parseIntConst parses a bare integer constant used structurally (axis
// numbers, permutations, existential indexes).
func (p *parser) parseIntConst() (int64, error) {
	tok, err := p.expect(CONSTANT, "integer")
	if err != nil {
		return 0, err
	}
	v := tok.Literal.(PrimValue)
	if !v.Type.IsInt() {
		return 0, p.fail("integer")
	}
	return v.I, nil
}

func (p *parser) parseString() (string, error) {
	tok, err := p.expect(STRING, "string literal")
	if err != nil {
		return "", err
	}
	return tok.Literal.(string), nil
}

// ───────────────────────────────── types ────────────────────────────────────

// typeFlags controls which type forms a profile slot admits.
type typeFlags struct {
	unique bool // leading '*'
	ext    bool // existential sizes '?N'
	mem    bool // the mem block type
}

func (p *parser) parseTypeWith(f typeFlags) (Type, error) {
	unique := false
	if f.unique && p.accept(STAR) {
		unique = true
	}
	if f.mem && p.acceptWord("mem") {
		t := MemT()
		t.Unique = unique
		return t, nil
	}
	var dims ExtShape
	for p.accept(LBRACKET) {
		if p.accept(QUESTION) {
			if !f.ext {
				return Type{}, p.fail("concrete size")
			}
			n, err := p.parseIntConst()
			if err != nil {
				return Type{}, err
			}
			dims = append(dims, FreeSize(int(n)))
		} else {
			s, err := p.parseSubExp()
			if err != nil {
				return Type{}, err
			}
			dims = append(dims, BoundSize(s))
		}
		if _, err := p.expect(RBRACKET, "']'"); err != nil {
			return Type{}, err
		}
	}
	tok, err := p.expect(ID, "type")
	if err != nil {
		return Type{}, err
	}
	prim, ok := PrimTypeFromName(tok.Lexeme)
	if !ok {
		return Type{}, p.fail("type")
	}
	t := PrimT(prim)
	if len(dims) > 0 {
		t = Type{Kind: ArrayKind, Prim: prim, Shape: dims}
	}
	t.Unique = unique
	return t, nil
}

func (p *parser) parseIntType() (PrimType, error) {
	tok, err := p.expect(ID, "integer type")
	if err != nil {
		return 0, err
	}
	t, ok := PrimTypeFromName(tok.Lexeme)
	if !ok || !t.IsInt() {
		return 0, p.fail("integer type")
	}
	return t, nil
}

// ─────────────────────────── program / definitions ──────────────────────────

func (p *parser) parseProg() (*Prog, error) {
	var consts []*Stm
	for p.at(LET) {
		stm, err := p.parseStm()
		if err != nil {
			return nil, err
		}
		consts = append(consts, stm)
	}
	var funs []*FunDef
	for !p.at(EOF) {
		f, err := p.parseFunDef()
		if err != nil {
			return nil, err
		}
		funs = append(funs, f)
	}
	if _, err := p.expect(EOF, "function definition"); err != nil {
		return nil, err
	}
	return &Prog{Consts: consts, Funs: funs}, nil
}

func (p *parser) parseFunDef() (*FunDef, error) {
	attrs, err := p.parseAttrs()
	if err != nil {
		return nil, err
	}
	entry := false
	if p.accept(ENTRY) {
		entry = true
	} else if _, err := p.expect(FUN, "'fun' or 'entry'"); err != nil {
		return nil, err
	}
	rets, err := braces(p, func() (Type, error) { return p.prof.parseRetType(p) })
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(ID, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	params, err := commaSep(p, func() (Param, error) {
		return p.parseParam(p.prof.parseFParam)
	})
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(EQUALS, "'='"); err != nil {
		return nil, err
	}
	body, err := p.parseBracedBody()
	if err != nil {
		return nil, err
	}
	return &FunDef{
		Entry:    entry,
		Attrs:    attrs,
		Name:     nameTok.Lexeme,
		RetTypes: rets,
		Params:   params,
		Body:     body,
	}, nil
}

func (p *parser) parseParam(slot func(*parser) (Type, error)) (Param, error) {
	name, err := p.parseVName()
	if err != nil {
		return Param{}, err
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return Param{}, err
	}
	t, err := slot(p)
	if err != nil {
		return Param{}, err
	}
	return Param{Name: name, Type: t}, nil
}

// ─────────────────────────────── bodies & stms ──────────────────────────────

// parseBracedBody parses "{" body "}".
func (p *parser) parseBracedBody() (*Body, error) {
	if _, err := p.expect(LBRACE, "'{'"); err != nil {
		return nil, err
	}
	b, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return b, nil
}

// parseBody parses a statement sequence terminated by "in" and a braced
// result list, or just a braced result list.
func (p *parser) parseBody() (*Body, error) {
	var stms []*Stm
	for p.at(LET) {
		s, err := p.parseStm()
		if err != nil {
			return nil, err
		}
		stms = append(stms, s)
	}
	if len(stms) > 0 {
		if _, err := p.expect(IN, "'in'"); err != nil {
			return nil, err
		}
	}
	res, err := braces(p, p.parseRes)
	if err != nil {
		return nil, err
	}
	return &Body{Stms: stms, Res: res}, nil
}

func (p *parser) parseRes() (Res, error) {
	certs, err := p.parseCerts()
	if err != nil {
		return Res{}, err
	}
	s, err := p.parseSubExp()
	if err != nil {
		return Res{}, err
	}
	return Res{Certs: certs, Sub: s}, nil
}

func (p *parser) parseStm() (*Stm, error) {
	if _, err := p.expect(LET, "'let'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LBRACE, "'{'"); err != nil {
		return nil, err
	}
	pat, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	attrs, err := p.parseAttrs()
	if err != nil {
		return nil, err
	}
	certs, err := p.parseCerts()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(EQUALS, "'='"); err != nil {
		return nil, err
	}
	e, err := p.parseExp()
	if err != nil {
		return nil, err
	}
	return &Stm{Pat: pat, Attrs: attrs, Certs: certs, Exp: e}, nil
}

// parsePattern parses comma-separated typed names; a semicolon splits
// context bindings (before) from value bindings (after). Without one, every
// binding is a value binding.
func (p *parser) parsePattern() (Pattern, error) {
	first, err := commaSep(p, p.parsePatElem)
	if err != nil {
		return Pattern{}, err
	}
	if p.accept(SEMI) {
		vals, err := commaSep(p, p.parsePatElem)
		if err != nil {
			return Pattern{}, err
		}
		return Pattern{Ctx: first, Vals: vals}, nil
	}
	return Pattern{Vals: first}, nil
}

func (p *parser) parsePatElem() (PatElem, error) {
	name, err := p.parseVName()
	if err != nil {
		return PatElem{}, err
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return PatElem{}, err
	}
	t, err := p.prof.parseLetDec(p)
	if err != nil {
		return PatElem{}, err
	}
	return PatElem{Name: name, Type: t}, nil
}

// ─────────────────────────── attributes & certificates ──────────────────────

func (p *parser) parseAttrs() ([]Attr, error) {
	var attrs []Attr
	for p.at(ATTRID) {
		p.i++
		group, err := commaSep(p, p.parseAttr)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACKET, "']'"); err != nil {
			return nil, err
		}
		attrs = append(attrs, group...)
	}
	return attrs, nil
}

func (p *parser) parseAttr() (Attr, error) {
	if p.at(CONSTANT) {
		v := p.peek().Literal.(PrimValue)
		if !v.Type.IsInt() {
			return Attr{}, p.fail("attribute")
		}
		p.i++
		return Attr{Int: v.I, IsInt: true}, nil
	}
	tok, err := p.expect(ID, "attribute")
	if err != nil {
		return Attr{}, err
	}
	a := Attr{Name: tok.Lexeme}
	if p.accept(LPAREN) {
		args, err := commaSep(p, p.parseAttr)
		if err != nil {
			return Attr{}, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return Attr{}, err
		}
		a.Comp = true
		a.Args = args
	}
	return a, nil
}

func (p *parser) parseCerts() ([]VName, error) {
	if !p.at(CERTID) {
		return nil, nil
	}
	p.i++
	certs, err := commaSep(p, p.parseVName)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	return certs, nil
}

// ────────────────────────────── expressions ─────────────────────────────────

func (p *parser) parseExp() (Exp, error) {
	return alt(p,
		func() (Exp, error) { return p.parseIf() },
		func() (Exp, error) { return p.parseApply() },
		func() (Exp, error) { return p.parseLoop() },
		func() (Exp, error) {
			op, err := p.prof.parseOp(p)
			if err != nil {
				return nil, err
			}
			return op, nil
		},
		p.parseBasicOp,
	)
}

func (p *parser) parseIf() (Exp, error) {
	if _, err := p.expect(IF, "expression"); err != nil {
		return nil, err
	}
	ifSort := IfNormal
	if p.accept(LT) {
		switch {
		case p.acceptWord("equiv"):
			ifSort = IfEquiv
		case p.acceptWord("fallback"):
			ifSort = IfFallback
		default:
			return nil, p.fail("'equiv' or 'fallback'")
		}
		if _, err := p.expect(GT, "'>'"); err != nil {
			return nil, err
		}
	}
	cond, err := p.parseSubExp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(THEN, "'then'"); err != nil {
		return nil, err
	}
	thn, err := p.parseBracedBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ELSE, "'else'"); err != nil {
		return nil, err
	}
	els, err := p.parseBracedBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return nil, err
	}
	types, err := braces(p, func() (Type, error) { return p.prof.parseBranchType(p) })
	if err != nil {
		return nil, err
	}
	return &If{Sort: ifSort, Cond: cond, Then: thn, Else: els, Types: types}, nil
}

func (p *parser) parseApply() (Exp, error) {
	if _, err := p.expect(APPLY, "expression"); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(ID, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	args, err := commaSep(p, func() (Arg, error) {
		diet := Observe
		if p.accept(STAR) {
			diet = Consume
		}
		s, err := p.parseSubExp()
		if err != nil {
			return Arg{}, err
		}
		return Arg{Sub: s, Diet: diet}, nil
	})
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return nil, err
	}
	types, err := braces(p, func() (Type, error) { return p.prof.parseRetType(p) })
	if err != nil {
		return nil, err
	}
	return &Apply{Func: nameTok.Lexeme, Args: args, Types: types}, nil
}

func (p *parser) parseLoop() (Exp, error) {
	if _, err := p.expect(LOOP, "expression"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LBRACE, "'{'"); err != nil {
		return nil, err
	}
	lparam := func() (Param, error) { return p.parseParam(p.prof.parseLParam) }
	first, err := commaSep(p, lparam)
	if err != nil {
		return nil, err
	}
	var ctx, vals []Param
	if p.accept(SEMI) {
		ctx = first
		vals, err = commaSep(p, lparam)
		if err != nil {
			return nil, err
		}
	} else {
		vals = first
	}
	if _, err := p.expect(RBRACE, "'}'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(EQUALS, "'='"); err != nil {
		return nil, err
	}
	inits, err := braces(p, p.parseSubExp)
	if err != nil {
		return nil, err
	}
	if len(inits) != len(ctx)+len(vals) {
		return nil, p.fail("one initializer per loop parameter")
	}
	mkVars := func(params []Param, inits []SubExp) []LoopVar {
		out := make([]LoopVar, len(params))
		for i, pr := range params {
			out[i] = LoopVar{Param: pr, Init: inits[i]}
		}
		return out
	}
	loop := &Loop{
		Ctx:  mkVars(ctx, inits[:len(ctx)]),
		Vals: mkVars(vals, inits[len(ctx):]),
	}
	form, err := p.parseLoopForm()
	if err != nil {
		return nil, err
	}
	loop.Form = form
	if _, err := p.expect(DO, "'do'"); err != nil {
		return nil, err
	}
	body, err := p.parseBracedBody()
	if err != nil {
		return nil, err
	}
	loop.Body = body
	return loop, nil
}

func (p *parser) parseLoopForm() (LoopForm, error) {
	if p.accept(WHILE) {
		cond, err := p.parseVName()
		if err != nil {
			return LoopForm{}, err
		}
		return LoopForm{Kind: WhileLoop, Cond: cond}, nil
	}
	if _, err := p.expect(FOR, "'for' or 'while'"); err != nil {
		return LoopForm{}, err
	}
	ivar, err := p.parseVName()
	if err != nil {
		return LoopForm{}, err
	}
	it := Int64
	if p.accept(COLON) {
		it, err = p.parseIntType()
		if err != nil {
			return LoopForm{}, err
		}
	}
	if _, err := p.expect(LT, "'<'"); err != nil {
		return LoopForm{}, err
	}
	bound, err := p.parseSubExp()
	if err != nil {
		return LoopForm{}, err
	}
	form := LoopForm{Kind: ForLoop, I: ivar, IndexType: it, Bound: bound}
	for p.accept(COMMA) {
		if _, err := p.expect(LPAREN, "'('"); err != nil {
			return LoopForm{}, err
		}
		elem, err := p.parseParam(p.prof.parseLParam)
		if err != nil {
			return LoopForm{}, err
		}
		if _, err := p.expect(IN, "'in'"); err != nil {
			return LoopForm{}, err
		}
		arr, err := p.parseVName()
		if err != nil {
			return LoopForm{}, err
		}
		if _, err := p.expect(RPAREN, "')'"); err != nil {
			return LoopForm{}, err
		}
		form.Arrs = append(form.Arrs, LoopArr{Elem: elem, Arr: arr})
	}
	return form, nil
}

// ───────────────────────────── basic operators ──────────────────────────────

func (p *parser) parseBasicOp() (Exp, error) {
	if p.at(LBRACKET) {
		return p.parseArrayLit()
	}
	if p.at(CONSTANT) {
		s, _ := p.parseSubExp()
		return &SubExpOp{Sub: s}, nil
	}
	if !p.at(ID) {
		return nil, p.fail("expression")
	}
	word := p.peek().Lexeme

	if op, ok := binOpNames[word]; ok {
		p.i++
		x, y, err := p.parsePair()
		return &BinOpExp{Op: op, X: x, Y: y}, err
	}
	if op, ok := cmpOpNames[word]; ok {
		p.i++
		x, y, err := p.parsePair()
		return &CmpOpExp{Op: op, X: x, Y: y}, err
	}
	if op, ok := unOpNames[word]; ok {
		p.i++
		x, err := p.parseSingle()
		return &UnOpExp{Op: op, X: x}, err
	}
	if op, ok := convOpNames[word]; ok {
		p.i++
		x, err := p.parseSingle()
		return &ConvOpExp{Op: op, X: x}, err
	}

	switch word {
	case "iota8", "iota16", "iota32", "iota64":
		return p.parseIota(word)
	case "replicate":
		return p.parseReplicate()
	case "reshape":
		return p.parseReshape()
	case "rearrange", "manifest":
		return p.parseRearrange(word)
	case "concat":
		return p.parseConcat()
	case "scratch":
		return p.parseScratch()
	case "opaque":
		p.i++
		x, err := p.parseSingle()
		return &OpaqueOp{Sub: x}, err
	case "alloc":
		p.i++
		x, err := p.parseSingle()
		return &Alloc{Size: x}, err
	case "assert":
		return p.parseAssert()
	}

	// Plain name: index, in-place update, or passthrough.
	v := Name(word)
	p.i++
	if p.at(LBRACKET) {
		p.i++
		idx, err := commaSep(p, p.parseDimIndex)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBRACKET, "']'"); err != nil {
			return nil, err
		}
		return &Index{Arr: v, Idx: idx}, nil
	}
	if p.accept(WITH) {
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
		if _, err := p.expect(LARROW, "'<-'"); err != nil {
			return nil, err
		}
		val, err := p.parseSubExp()
		if err != nil {
			return nil, err
		}
		return &Update{Arr: v, Idx: idx, Val: val}, nil
	}
	return &SubExpOp{Sub: VarSub(v)}, nil
}

// parsePair parses "(" x "," y ")".
func (p *parser) parsePair() (SubExp, SubExp, error) {
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return SubExp{}, SubExp{}, err
	}
	x, err := p.parseSubExp()
	if err != nil {
		return SubExp{}, SubExp{}, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return SubExp{}, SubExp{}, err
	}
	y, err := p.parseSubExp()
	if err != nil {
		return SubExp{}, SubExp{}, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return SubExp{}, SubExp{}, err
	}
	return x, y, nil
}

// parseSingle parses "(" x ")".
func (p *parser) parseSingle() (SubExp, error) {
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return SubExp{}, err
	}
	x, err := p.parseSubExp()
	if err != nil {
		return SubExp{}, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return SubExp{}, err
	}
	return x, nil
}

func (p *parser) parseArrayLit() (Exp, error) {
	p.i++ // '['
	elems, err := commaSep(p, p.parseSubExp)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACKET, "']'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(COLON, "':'"); err != nil {
		return nil, err
	}
	// Element type: any concrete type, so literals of arrays stay typed.
	t, err := p.parseTypeWith(typeFlags{})
	if err != nil {
		return nil, err
	}
	return &ArrayLit{Elems: elems, Elem: t}, nil
}

func (p *parser) parseIota(word string) (Exp, error) {
	t := map[string]PrimType{
		"iota8": Int8, "iota16": Int16, "iota32": Int32, "iota64": Int64,
	}[word]
	p.i++
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	n, err := p.parseSubExp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	start, err := p.parseSubExp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	stride, err := p.parseSubExp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &Iota{N: n, Start: start, Stride: stride, Type: t}, nil
}

func (p *parser) parseReplicate() (Exp, error) {
	p.i++
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
	v, err := p.parseSubExp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &Replicate{Dims: dims, Val: v}, nil
}

func (p *parser) parseReshape() (Exp, error) {
	p.i++
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LBRACKET, "'['"); err != nil {
		return nil, err
	}
	dims, err := commaSep(p, func() (DimChange, error) {
		coerce := p.accept(TILDE)
		s, err := p.parseSubExp()
		if err != nil {
			return DimChange{}, err
		}
		return DimChange{Coerce: coerce, Size: s}, nil
	})
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
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &Reshape{Arr: arr, Dims: dims}, nil
}

func (p *parser) parseRearrange(word string) (Exp, error) {
	p.i++
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	perm64, err := commaSep(p, p.parseIntConst)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
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
	perm := make([]int, len(perm64))
	for i, v := range perm64 {
		perm[i] = int(v)
	}
	if word == "manifest" {
		return &Manifest{Perm: perm, Arr: arr}, nil
	}
	return &Rearrange{Perm: perm, Arr: arr}, nil
}

func (p *parser) parseConcat() (Exp, error) {
	p.i++
	if _, err := p.expect(AT, "'@'"); err != nil {
		return nil, err
	}
	axis, err := p.parseIntConst()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	w, err := p.parseSubExp()
	if err != nil {
		return nil, err
	}
	var arrs []VName
	for p.accept(COMMA) {
		a, err := p.parseVName()
		if err != nil {
			return nil, err
		}
		arrs = append(arrs, a)
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &Concat{Axis: int(axis), W: w, Arrs: arrs}, nil
}

func (p *parser) parseScratch() (Exp, error) {
	p.i++
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	tok, err := p.expect(ID, "type")
	if err != nil {
		return nil, err
	}
	elem, ok := PrimTypeFromName(tok.Lexeme)
	if !ok {
		return nil, p.fail("type")
	}
	var dims []SubExp
	for p.accept(COMMA) {
		d, err := p.parseSubExp()
		if err != nil {
			return nil, err
		}
		dims = append(dims, d)
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &Scratch{Elem: elem, Dims: dims}, nil
}

func (p *parser) parseAssert() (Exp, error) {
	p.i++
	if _, err := p.expect(LPAREN, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseSubExp()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	msg, err := p.parseString()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	loc, err := p.parseString()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN, "')'"); err != nil {
		return nil, err
	}
	return &Assert{Cond: cond, Msg: msg, Loc: loc}, nil
}

// parseDimIndex parses a fixed index or a strided slice o :+ n * s.
func (p *parser) parseDimIndex() (DimIndex, error) {
	first, err := p.parseSubExp()
	if err != nil {
		return DimIndex{}, err
	}
	if !p.accept(SPLICE) {
		return DimIndex{Fix: first}, nil
	}
	num, err := p.parseSubExp()
	if err != nil {
		return DimIndex{}, err
	}
	if _, err := p.expect(STAR, "'*'"); err != nil {
		return DimIndex{}, err
	}
	stride, err := p.parseSubExp()
	if err != nil {
		return DimIndex{}, err
	}
	return DimIndex{Offset: first, Num: num, Stride: stride, IsSlice: true}, nil
}
