// syntax.go — the typed IR program tree
//
// What this file does
// -------------------
// Defines the SSA-like program representation produced by the parser and
// consumed by the analyses: operands (SubExp), shapes (concrete and
// existential), types (prim/array/mem), patterns, statements, bodies,
// expressions, and the basic operators. Representation-specific operators
// (SOACs, segmented operators) live in soacs.go and kernels.go behind the
// Op extension point.
//
// The tree is an immutable value after parsing: no consumer mutates it, and
// the alias analysis builds its relation entirely on the side.
//
// Variant encoding: Exp is a closed interface; each variant is a struct
// with a marker method. Basic operators additionally implement BasicOp, and
// representation-specific operators implement Op.
package loom

import (
	"strconv"
	"strings"
)

// SubExp is a scalar operand: a constant or a variable reference.
type SubExp struct {
	Val   PrimValue
	Var   VName
	IsVar bool
}

func VarSub(v VName) SubExp      { return SubExp{Var: v, IsVar: true} }
func ConstSub(v PrimValue) SubExp { return SubExp{Val: v} }

func (s SubExp) String() string {
	if s.IsVar {
		return s.Var.String()
	}
	return s.Val.String()
}

func (s SubExp) Equal(o SubExp) bool {
	if s.IsVar != o.IsVar {
		return false
	}
	if s.IsVar {
		return s.Var == o.Var
	}
	return s.Val.Equal(o.Val)
}

// Shape is an ordered sequence of dimension sizes.
type Shape []SubExp

// ExtSize is a dimension size that may be existential: known only to exist,
// identified by index N, bound later by context.
type ExtSize struct {
	N     int
	Sub   SubExp
	IsExt bool
}

func FreeSize(n int) ExtSize       { return ExtSize{N: n, IsExt: true} }
func BoundSize(s SubExp) ExtSize   { return ExtSize{Sub: s} }

func (e ExtSize) String() string {
	if e.IsExt {
		return "?" + strconv.Itoa(e.N)
	}
	return e.Sub.String()
}

// ExtShape is a shape whose dimensions may be existential.
type ExtShape []ExtSize

// HasExt reports whether any dimension is existential.
func (s ExtShape) HasExt() bool {
	for _, d := range s {
		if d.IsExt {
			return true
		}
	}
	return false
}

// TypeKind selects the variant of a Type.
type TypeKind uint8

const (
	PrimKind TypeKind = iota
	ArrayKind
	MemKind // a memory block backing one or more arrays
)

// Type is a primitive type, an array over a (possibly existential) shape,
// or a memory block. Unique marks exclusive in-place-update permission and
// is only meaningful on function boundaries.
type Type struct {
	Kind   TypeKind
	Prim   PrimType // element type for arrays
	Shape  ExtShape
	Unique bool
}

func PrimT(t PrimType) Type { return Type{Kind: PrimKind, Prim: t} }
func MemT() Type            { return Type{Kind: MemKind} }
func ArrayT(elem PrimType, dims ...ExtSize) Type {
	return Type{Kind: ArrayKind, Prim: elem, Shape: dims}
}

func (t Type) IsMem() bool { return t.Kind == MemKind }

func (t Type) String() string {
	var b strings.Builder
	if t.Unique {
		b.WriteByte('*')
	}
	switch t.Kind {
	case MemKind:
		b.WriteString("mem")
	case PrimKind:
		b.WriteString(t.Prim.String())
	case ArrayKind:
		for _, d := range t.Shape {
			b.WriteByte('[')
			b.WriteString(d.String())
			b.WriteByte(']')
		}
		b.WriteString(t.Prim.String())
	}
	return b.String()
}

func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Unique != o.Unique {
		return false
	}
	switch t.Kind {
	case MemKind:
		return true
	case PrimKind:
		return t.Prim == o.Prim
	}
	if t.Prim != o.Prim || len(t.Shape) != len(o.Shape) {
		return false
	}
	for i, d := range t.Shape {
		e := o.Shape[i]
		if d.IsExt != e.IsExt {
			return false
		}
		if d.IsExt {
			if d.N != e.N {
				return false
			}
		} else if !d.Sub.Equal(e.Sub) {
			return false
		}
	}
	return true
}

// Attr is a nested, compound statement annotation (#[...] syntax).
type Attr struct {
	Name string
	Int  int64
	IsInt bool
	Args []Attr // nil unless compound
	Comp bool
}

// Param is a typed function or lambda parameter.
type Param struct {
	Name VName
	Type Type
}

// PatElem is one typed name bound by a pattern.
type PatElem struct {
	Name VName
	Type Type
}

// Pattern is the left-hand side of a binding statement: context bindings
// (sizes and bounds tied to existential types) followed by value bindings.
type Pattern struct {
	Ctx  []PatElem
	Vals []PatElem
}

// Names lists all bound names, context first.
func (p Pattern) Names() []VName {
	out := make([]VName, 0, len(p.Ctx)+len(p.Vals))
	for _, e := range p.Ctx {
		out = append(out, e.Name)
	}
	for _, e := range p.Vals {
		out = append(out, e.Name)
	}
	return out
}

// Elems lists all bound elements, context first.
func (p Pattern) Elems() []PatElem {
	out := make([]PatElem, 0, len(p.Ctx)+len(p.Vals))
	out = append(out, p.Ctx...)
	return append(out, p.Vals...)
}

// Stm binds a pattern to an expression's result.
type Stm struct {
	Pat   Pattern
	Attrs []Attr
	Certs []VName // names asserting preconditions hold
	Exp   Exp
}

// Res is one body result, optionally guarded by certificates.
type Res struct {
	Certs []VName
	Sub   SubExp
}

// Body is a statement sequence with a result list.
type Body struct {
	Stms []*Stm
	Res  []Res
}

// ─────────────────────────────── expressions ────────────────────────────────

// Exp is a statement's right-hand side.
type Exp interface{ isExp() }

// Op is the representation-specific operator extension point. Which Ops may
// appear is decided by the parser profile; the alias analysis receives a
// matching handler.
type Op interface {
	Exp
	isOp()
}

// IfSort is the branch sort: normal, taken only when both sides are
// equivalent, or a fallback that downstream passes must not prioritize.
type IfSort uint8

const (
	IfNormal IfSort = iota
	IfEquiv
	IfFallback
)

// If is a two-way conditional branch with declared result types
// (existential sizes allowed, resolved across alternatives).
type If struct {
	Sort  IfSort
	Cond  SubExp
	Then  *Body
	Else  *Body
	Types []Type
}

// Alternatives returns the ordered alternative bodies. Analyses are written
// against this slice so the if-then-else form is just the 2-way case.
func (e *If) Alternatives() []*Body { return []*Body{e.Then, e.Else} }

// Diet records whether an applied function consumes or only observes an
// argument.
type Diet uint8

const (
	Observe Diet = iota
	Consume
)

// Arg is one function-application argument.
type Arg struct {
	Sub  SubExp
	Diet Diet
}

// Apply is a call to a named function with declared result types.
type Apply struct {
	Func  string
	Args  []Arg
	Types []Type
}

// LoopVar is one loop parameter with its initializer.
type LoopVar struct {
	Param Param
	Init  SubExp
}

// LoopFormKind selects between the for- and while-forms.
type LoopFormKind uint8

const (
	ForLoop LoopFormKind = iota
	WhileLoop
)

// LoopArr is a per-iteration array input of a for-loop: Elem is bound to
// one row of Arr each iteration.
type LoopArr struct {
	Elem Param
	Arr  VName
}

// LoopForm is the iteration scheme of a Loop.
type LoopForm struct {
	Kind LoopFormKind

	// for-form
	I         VName
	IndexType PrimType
	Bound     SubExp
	Arrs      []LoopArr

	// while-form
	Cond VName
}

// Loop evaluates Body repeatedly; Ctx and Vals are initialized from
// same-shaped initializer lists split at the context-parameter count, and
// rebound to the body's results each iteration.
type Loop struct {
	Ctx  []LoopVar
	Vals []LoopVar
	Form LoopForm
	Body *Body
}

// Merge lists all loop parameters, context first.
func (e *Loop) Merge() []LoopVar {
	out := make([]LoopVar, 0, len(e.Ctx)+len(e.Vals))
	out = append(out, e.Ctx...)
	return append(out, e.Vals...)
}

func (*If) isExp()    {}
func (*Apply) isExp() {}
func (*Loop) isExp()  {}

// ───────────────────────────── basic operators ──────────────────────────────

// BasicOp is an operator available in every representation.
type BasicOp interface {
	Exp
	isBasicOp()
}

// SubExpOp is the identity passthrough of a single operand.
type SubExpOp struct{ Sub SubExp }

// OpaqueOp hides its operand from simplification.
type OpaqueOp struct{ Sub SubExp }

// ArrayLit is an array literal with an explicit element type (required so
// empty literals are typed).
type ArrayLit struct {
	Elems []SubExp
	Elem  Type
}

type UnOpExp struct {
	Op UnOp
	X  SubExp
}

type BinOpExp struct {
	Op   BinOp
	X, Y SubExp
}

type CmpOpExp struct {
	Op   CmpOp
	X, Y SubExp
}

type ConvOpExp struct {
	Op ConvOp
	X  SubExp
}

// Assert is a scoped assertion producing a certificate.
type Assert struct {
	Cond SubExp
	Msg  string
	Loc  string
}

// DimIndex is one dimension of an index or update: a fixed index or a
// strided slice offset :+ num * stride.
type DimIndex struct {
	Fix     SubExp
	Offset  SubExp
	Num     SubExp
	Stride  SubExp
	IsSlice bool
}

// Index reads an element or slice of an array.
type Index struct {
	Arr VName
	Idx []DimIndex
}

// Update writes Val into Arr at the given index in place.
type Update struct {
	Arr VName
	Idx []DimIndex
	Val SubExp
}

// Concat concatenates arrays along a declared axis; W is the extent of the
// result along that axis.
type Concat struct {
	Axis int
	W    SubExp
	Arrs []VName
}

// Replicate builds an array repeating Val over the given dimensions.
type Replicate struct {
	Dims Shape
	Val  SubExp
}

// Iota builds [Start, Start+Stride, ...) of length N; one concrete operator
// per integer width.
type Iota struct {
	N      SubExp
	Start  SubExp
	Stride SubExp
	Type   PrimType
}

// DimChange is one dimension of a reshape: either a coercion (asserting the
// size already matches) or a genuinely new size.
type DimChange struct {
	Coerce bool
	Size   SubExp
}

// Reshape reinterprets an array under new per-dimension sizes.
type Reshape struct {
	Arr  VName
	Dims []DimChange
}

// Rearrange permutes array axes without moving data.
type Rearrange struct {
	Perm []int
	Arr  VName
}

// Manifest materializes an array in the given axis order.
type Manifest struct {
	Perm []int
	Arr  VName
}

// Scratch allocates an uninitialized array.
type Scratch struct {
	Elem PrimType
	Dims []SubExp
}

// Alloc is the distinguished allocation operation producing a mem-typed
// name; the unit tracked by the alias analysis.
type Alloc struct {
	Size SubExp
}

func (*SubExpOp) isExp()  {}
func (*OpaqueOp) isExp()  {}
func (*ArrayLit) isExp()  {}
func (*UnOpExp) isExp()   {}
func (*BinOpExp) isExp()  {}
func (*CmpOpExp) isExp()  {}
func (*ConvOpExp) isExp() {}
func (*Assert) isExp()    {}
func (*Index) isExp()     {}
func (*Update) isExp()    {}
func (*Concat) isExp()    {}
func (*Replicate) isExp() {}
func (*Iota) isExp()      {}
func (*Reshape) isExp()   {}
func (*Rearrange) isExp() {}
func (*Manifest) isExp()  {}
func (*Scratch) isExp()   {}
func (*Alloc) isExp()     {}

func (*SubExpOp) isBasicOp()  {}
func (*OpaqueOp) isBasicOp()  {}
func (*ArrayLit) isBasicOp()  {}
func (*UnOpExp) isBasicOp()   {}
func (*BinOpExp) isBasicOp()  {}
func (*CmpOpExp) isBasicOp()  {}
func (*ConvOpExp) isBasicOp() {}
func (*Assert) isBasicOp()    {}
func (*Index) isBasicOp()     {}
func (*Update) isBasicOp()    {}
func (*Concat) isBasicOp()    {}
func (*Replicate) isBasicOp() {}
func (*Iota) isBasicOp()      {}
func (*Reshape) isBasicOp()   {}
func (*Rearrange) isBasicOp() {}
func (*Manifest) isBasicOp()  {}
func (*Scratch) isBasicOp()   {}
func (*Alloc) isBasicOp()     {}

// ─────────────────────────── top-level definitions ──────────────────────────

// FunDef is one function definition.
type FunDef struct {
	Entry    bool
	Attrs    []Attr
	Name     string
	RetTypes []Type
	Params   []Param
	Body     *Body
}

// Prog is a whole program: top-level constants followed by function
// definitions.
type Prog struct {
	Consts []*Stm
	Funs   []*FunDef
}
