package hgemm

import (
	"fmt"
	"sort"
)

// StagingCapacity is the number of half-precision elements available in
// on-chip staging memory per block (64 KiB worth of halves).
const StagingCapacity = 32768

// KernelConfig is an immutable point in the blocked-GEMM design space.
// Every kernel variant is the same parameterized pipeline instantiated with
// one of these values; no variant carries its own control flow.
type KernelConfig struct {
	Name string

	// Warp grid within a block and warp-tile grid within a warp. The block
	// tile is derived: BlockM = WarpsM * WarpTileM * TileDim, same for N.
	WarpsM, WarpsN       int
	WarpTileM, WarpTileN int

	// Depth of one staged K-slice. Must be a multiple of TileDim.
	BlockK int

	// Width of one staging transfer, in half-precision elements.
	VectorWidth int

	// Staged selects the pipeline that round-trips tiles through staging
	// memory. When false, fragments are loaded straight from global memory.
	Staged bool

	// BufferDepth is the number of staging slots (1 = reload in place,
	// 2 = double buffering).
	BufferDepth int

	// SplitLoaders dedicates the first half of the block's threads to the A
	// tile and the second half to the B tile.
	SplitLoaders bool

	// RegisterPrefetch pulls global data into per-thread registers during
	// compute and copies registers into staging memory afterwards.
	RegisterPrefetch bool

	// Hilbert schedules blocks along a locality-preserving curve instead of
	// row-major order.
	Hilbert bool

	// RestageEpilogue reassembles the output tile through staging memory in
	// row chunks instead of storing fragments directly.
	RestageEpilogue bool
}

// BlockM returns the block tile height.
func (c KernelConfig) BlockM() int { return c.WarpsM * c.WarpTileM * TileDim }

// BlockN returns the block tile width.
func (c KernelConfig) BlockN() int { return c.WarpsN * c.WarpTileN * TileDim }

// TotalWarps returns the number of warps servicing one block.
func (c KernelConfig) TotalWarps() int { return c.WarpsM * c.WarpsN }

// stagingSlotLen is the element count of one staging slot: the A region
// (BlockM×BlockK, column-major) followed by the B region (BlockK×BlockN,
// row-major).
func (c KernelConfig) stagingSlotLen() int {
	return c.BlockM()*c.BlockK + c.BlockK*c.BlockN()
}

// arenaLen is the total staging arena size for this configuration.
func (c KernelConfig) arenaLen() int {
	return c.BufferDepth * c.stagingSlotLen()
}

// epilogueChunkRows returns how many output rows fit in the staging arena
// when the epilogue restages the output tile.
func (c KernelConfig) epilogueChunkRows() int {
	rows := c.arenaLen() / c.BlockN()
	if rows > c.BlockM() {
		rows = c.BlockM()
	}
	return rows
}

// Validate checks the configuration's static constraints. A failing
// configuration is rejected before launch; it never executes.
func (c KernelConfig) Validate() error {
	if c.WarpsM < 1 || c.WarpsN < 1 || c.WarpTileM < 1 || c.WarpTileN < 1 {
		return NewConfigError("Validate", fmt.Sprintf("%s: warp grid and warp tile must be positive", c.Name))
	}
	if c.BlockK < TileDim || c.BlockK%TileDim != 0 {
		return NewConfigError("Validate", fmt.Sprintf("%s: block_k %d must be a positive multiple of %d", c.Name, c.BlockK, TileDim))
	}
	if !c.Staged {
		if c.BufferDepth != 0 || c.SplitLoaders || c.RegisterPrefetch || c.RestageEpilogue {
			return NewConfigError("Validate", fmt.Sprintf("%s: staging features require a staged pipeline", c.Name))
		}
		return nil
	}
	switch c.VectorWidth {
	case 1, 8, 16:
	default:
		return NewConfigError("Validate", fmt.Sprintf("%s: vector width %d not in {1, 8, 16}", c.Name, c.VectorWidth))
	}
	if c.BlockM()%c.VectorWidth != 0 || c.BlockN()%c.VectorWidth != 0 {
		return NewConfigError("Validate", fmt.Sprintf("%s: vector width %d must divide block tile %d×%d", c.Name, c.VectorWidth, c.BlockM(), c.BlockN()))
	}
	if c.BufferDepth != 1 && c.BufferDepth != 2 {
		return NewConfigError("Validate", fmt.Sprintf("%s: buffer depth %d not in {1, 2}", c.Name, c.BufferDepth))
	}
	if c.arenaLen() > StagingCapacity {
		return NewConfigError("Validate", fmt.Sprintf("%s: staging demand %d exceeds capacity %d", c.Name, c.arenaLen(), StagingCapacity))
	}
	if c.SplitLoaders && c.TotalWarps() < 2 {
		return NewConfigError("Validate", fmt.Sprintf("%s: split loading needs at least two warps", c.Name))
	}
	// The prefetch transfer partitions its loaders into A/B halves, so it
	// only exists on top of split loading.
	if c.RegisterPrefetch && !c.SplitLoaders {
		return NewConfigError("Validate", fmt.Sprintf("%s: register prefetch requires split loading", c.Name))
	}
	if c.RestageEpilogue {
		rows := c.epilogueChunkRows()
		if rows < TileDim || rows%TileDim != 0 {
			return NewConfigError("Validate", fmt.Sprintf("%s: restage chunk of %d rows does not align with %d-row fragments", c.Name, rows, TileDim))
		}
	}
	return nil
}

// kernelConfigs is the table of valid design-space points, one per kernel
// variant of the original family.
var kernelConfigs = map[string]KernelConfig{
	"wmma": {
		Name:      "wmma",
		WarpsM:    4,
		WarpsN:    4,
		WarpTileM: 1,
		WarpTileN: 1,
		BlockK:    TileDim,
	},
	"wmma-shared": {
		Name:        "wmma-shared",
		WarpsM:      8,
		WarpsN:      4,
		WarpTileM:   1,
		WarpTileN:   1,
		BlockK:      64,
		VectorWidth: 1,
		Staged:      true,
		BufferDepth: 1,
	},
	"wmma-warp-vec": {
		Name:         "wmma-warp-vec",
		WarpsM:       4,
		WarpsN:       4,
		WarpTileM:    4,
		WarpTileN:    4,
		BlockK:       32,
		VectorWidth:  16,
		Staged:       true,
		BufferDepth:  2,
		SplitLoaders: true,
	},
	"wmma-opt1": {
		Name:         "wmma-opt1",
		WarpsM:       4,
		WarpsN:       4,
		WarpTileM:    4,
		WarpTileN:    4,
		BlockK:       32,
		VectorWidth:  8,
		Staged:       true,
		BufferDepth:  2,
		SplitLoaders: true,
	},
	"wmma-opt": {
		Name:            "wmma-opt",
		WarpsM:          4,
		WarpsN:          4,
		WarpTileM:       4,
		WarpTileN:       4,
		BlockK:          32,
		VectorWidth:     8,
		Staged:          true,
		BufferDepth:     2,
		SplitLoaders:    true,
		Hilbert:         true,
		RestageEpilogue: true,
	},
	"wmma-prefetch": {
		Name:             "wmma-prefetch",
		WarpsM:           4,
		WarpsN:           4,
		WarpTileM:        4,
		WarpTileN:        4,
		BlockK:           TileDim,
		VectorWidth:      16,
		Staged:           true,
		BufferDepth:      2,
		SplitLoaders:     true,
		RegisterPrefetch: true,
	},
}

// Config returns the validated configuration registered under name.
func Config(name string) (KernelConfig, error) {
	cfg, ok := kernelConfigs[name]
	if !ok {
		return KernelConfig{}, NewInvalidArgError("Config", fmt.Sprintf("unknown kernel %q", name))
	}
	if err := cfg.Validate(); err != nil {
		return KernelConfig{}, err
	}
	return cfg, nil
}

// ConfigNames returns the registered kernel names in sorted order.
func ConfigNames() []string {
	names := make([]string, 0, len(kernelConfigs))
	for name := range kernelConfigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
