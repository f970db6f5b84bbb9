// kernels.go — segmented operators, size queries, and GPU regions
//
// The Ops of the kernels profile: SOAC-like operators executed over an
// explicit segment space at a declared hardware-parallelism level,
// producing typed kernel results; symbolic size queries resolved by a later
// stage; and opaque nested-program regions.
package loom

// SegLevelKind is the execution level of a segmented operator.
type SegLevelKind uint8

const (
	LevelThread SegLevelKind = iota
	LevelBlock
)

// Virt selects how logical parallelism beyond the physical grid is handled.
type Virt uint8

const (
	VirtNone Virt = iota
	VirtFull
	Virtualise
)

// SegLevel is the level a segmented operator runs at, with its grid
// operands.
type SegLevel struct {
	Kind      SegLevelKind
	Grid      SubExp // number of blocks
	BlockSize SubExp
	Virt      Virt
}

// SegDim is one named, bounded dimension of a segment space.
type SegDim struct {
	Name  VName
	Bound SubExp
}

// SegSpace is the iteration space of a segmented operator: an ordered set
// of named bounded dimensions plus one flattened index name.
type SegSpace struct {
	Flat VName
	Dims []SegDim
}

// ResultPolicy governs what downstream simplification may do with a
// returned kernel value.
type ResultPolicy uint8

const (
	MaySimplify ResultPolicy = iota
	NoSimplify
	Private // value stays private to the producing thread
)

// KernelResult is one typed result of a kernel body.
type KernelResult interface{ isKernelResult() }

// Returns yields one value per point of the segment space.
type Returns struct {
	Policy ResultPolicy
	Val    SubExp
}

// Write is one indexed write of a WriteReturns.
type Write struct {
	Idx []DimIndex
	Val SubExp
}

// WriteReturns scatters writes into an existing array.
type WriteReturns struct {
	Dims   Shape
	Arr    VName
	Writes []Write
}

// ConcatReturns concatenates per-thread chunks of PerElem elements into a
// W-element result.
type ConcatReturns struct {
	W       SubExp
	PerElem SubExp
	Arr     VName
}

// TileDim is one dimension of a tiled result.
type TileDim struct {
	Dim  SubExp
	Tile SubExp
}

// TileReturns assembles per-block tiles into the full result.
type TileReturns struct {
	Dims []TileDim
	Arr  VName
}

// RegTileDim is one dimension of a register-tiled result.
type RegTileDim struct {
	Dim     SubExp
	BlkTile SubExp
	RegTile SubExp
}

// RegTileReturns assembles register tiles into the full result.
type RegTileReturns struct {
	Dims []RegTileDim
	Arr  VName
}

func (*Returns) isKernelResult()        {}
func (*WriteReturns) isKernelResult()   {}
func (*ConcatReturns) isKernelResult()  {}
func (*TileReturns) isKernelResult()    {}
func (*RegTileReturns) isKernelResult() {}

// KernelBody is a statement sequence producing kernel results.
type KernelBody struct {
	Stms []*Stm
	Res  []KernelResult
}

// SegBinOp is a binary reduction operator of a segred/segscan/seghist, with
// the shape of the values being combined.
type SegBinOp struct {
	Comm    bool
	Lam     *Lambda
	Neutral []SubExp
	Shape   Shape
}

// SegHistOp is one bucketed reduction of a seghist.
type SegHistOp struct {
	Width   SubExp
	Dests   []VName
	Op      SegBinOp
}

// SegOpKind selects the segmented operator flavor.
type SegOpKind uint8

const (
	SegMap SegOpKind = iota
	SegRed
	SegScan
	SegHist
)

// SegOp is a segmented operator over Space at Level. Ops is used by
// segred/segscan, HistOps by seghist; both are nil for segmap.
type SegOp struct {
	Kind    SegOpKind
	Level   SegLevel
	Space   SegSpace
	Ops     []SegBinOp
	HistOps []SegHistOp
	Types   []Type
	Body    *KernelBody
}

func (*SegOp) isExp() {}
func (*SegOp) isOp()  {}

// ─────────────────────────────── size queries ───────────────────────────────

// SizeClassKind names a class of tunable sizes.
type SizeClassKind uint8

const (
	ClassBlockSize SizeClassKind = iota
	ClassNumBlocks
	ClassTile
	ClassRegTile
	ClassSharedMemory
	ClassThreshold // path-dependent threshold
	ClassBespoke   // named constant with a default
)

// SizeClass is a symbolic size class; Names carries the threshold path,
// Def the bespoke default.
type SizeClass struct {
	Kind  SizeClassKind
	Names []string
	Def   int64
}

// GetSize queries the value chosen for Key within a class.
type GetSize struct {
	Key   string
	Class SizeClass
}

// GetSizeMax queries the maximum legal value of a class.
type GetSizeMax struct {
	Class SizeClass
}

// CmpSizeLe compares a size choice against a dynamic bound.
type CmpSizeLe struct {
	Key   string
	Class SizeClass
	X     SubExp
}

// CalcGroups computes how many blocks of the given size cover W elements.
type CalcGroups struct {
	W         SubExp
	Key       string
	BlockSize SubExp
}

func (*GetSize) isExp()    {}
func (*GetSizeMax) isExp() {}
func (*CmpSizeLe) isExp()  {}
func (*CalcGroups) isExp() {}

func (*GetSize) isOp()    {}
func (*GetSizeMax) isOp() {}
func (*CmpSizeLe) isOp()  {}
func (*CalcGroups) isOp() {}

// GPUBody is an opaque nested-program region run on the device.
type GPUBody struct {
	Types []Type
	Body  *Body
}

func (*GPUBody) isExp() {}
func (*GPUBody) isOp()  {}
