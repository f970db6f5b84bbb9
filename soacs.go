// soacs.go — second-order array combinators
//
// The parallel operators of the array representation: a generalized screma
// (fused scan + reduce + map), scatter, histogram, and stream, each over
// one or more array operands and an inner function value. These are the Ops
// of the SOACs profile; the kernels profile replaces them with segmented
// operators (kernels.go).
package loom

// Lambda is an inner function value: ordered parameters, a body, and an
// ordered result-type list.
type Lambda struct {
	Params   []Param
	Body     *Body
	RetTypes []Type
}

// Reduce is one reduction slot of a screma: a binary operator lambda with
// its neutral elements, optionally marked commutative.
type Reduce struct {
	Comm    bool
	Lam     *Lambda
	Neutral []SubExp
}

// Scan is one scan slot of a screma.
type Scan struct {
	Lam     *Lambda
	Neutral []SubExp
}

// Screma is the generalized fused scan-reduce-map over W-element arrays.
// A plain map has no scans and no reduces; redomap and scanomap are the
// one-sided forms.
type Screma struct {
	W       SubExp
	Arrs    []VName
	Scans   []Scan
	Reduces []Reduce
	Lam     *Lambda
}

// ScatterDest is one destination array of a scatter with its write shape.
type ScatterDest struct {
	Dims Shape
	Arr  VName
}

// Scatter writes lambda-produced (index, value) pairs into destination
// arrays.
type Scatter struct {
	W     SubExp
	Arrs  []VName
	Lam   *Lambda
	Dests []ScatterDest
}

// HistOp is one bucketed reduction of a histogram: Width buckets in each
// destination, combined with Lam starting from Neutral.
type HistOp struct {
	Width   SubExp
	Dests   []VName
	Neutral []SubExp
	Lam     *Lambda
}

// Hist is a segmented reduction into buckets.
type Hist struct {
	W    SubExp
	Arrs []VName
	Ops  []HistOp
	Lam  *Lambda
}

// StreamKind tags how stream chunks may be recombined.
type StreamKind uint8

const (
	StreamSeq         StreamKind = iota // sequential chunk order
	StreamOrdered                       // parallel, order-preserving
	StreamCommutative                   // parallel, commutative fold
)

// Stream folds over chunks of its input arrays with accumulators.
type Stream struct {
	Kind StreamKind
	W    SubExp
	Arrs []VName
	Accs []SubExp
	Lam  *Lambda
}

func (*Screma) isExp()  {}
func (*Scatter) isExp() {}
func (*Hist) isExp()    {}
func (*Stream) isExp()  {}

func (*Screma) isOp()  {}
func (*Scatter) isOp() {}
func (*Hist) isOp()    {}
func (*Stream) isOp()  {}
