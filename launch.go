package hgemm

import (
	"fmt"
	"sync"
)

// launch carries the state of one kernel launch: the operand matrices, the
// configuration, and the device parameters resolved at launch time. Blocks
// never communicate, so the whole struct is read-only during execution
// except for C, whose output regions are disjoint per block.
type launch struct {
	cfg            KernelConfig
	a, b, c        *Matrix
	m, n, k        int
	blockM, blockN int
	wave           int
	mma            MMA
}

// Hgemm computes C = A×B using the named kernel configuration.
//
// A is M×K, B is K×N and C is M×N; C must be row-major. A and B may carry
// either layout, though the kernels are fastest with A column-major and B
// row-major, the native input order of the MMA primitive.
func Hgemm(kernel string, C, A, B *Matrix) error {
	cfg, err := Config(kernel)
	if err != nil {
		return err
	}
	return LaunchKernel(cfg, C, A, B)
}

// LaunchKernel computes C = A×B with an explicit configuration. The grid is
// the ceiling division of (M, N) by the block tile; one execution group runs
// per output block.
func LaunchKernel(cfg KernelConfig, C, A, B *Matrix) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if A == nil || B == nil || C == nil {
		return NewInvalidArgError("LaunchKernel", "nil matrix argument")
	}
	if A.cols != B.rows {
		return NewInvalidArgError("LaunchKernel", fmt.Sprintf("inner dimensions disagree: A is %d×%d, B is %d×%d", A.rows, A.cols, B.rows, B.cols))
	}
	if C.rows != A.rows || C.cols != B.cols {
		return NewInvalidArgError("LaunchKernel", fmt.Sprintf("C is %d×%d, want %d×%d", C.rows, C.cols, A.rows, B.cols))
	}
	if C.layout != RowMajor {
		return NewInvalidArgError("LaunchKernel", "C must be row-major")
	}

	dev := DeviceProperties()
	l := &launch{
		cfg:    cfg,
		a:      A,
		b:      B,
		c:      C,
		m:      A.rows,
		n:      B.cols,
		k:      A.cols,
		blockM: cfg.BlockM(),
		blockN: cfg.BlockN(),
		wave:   dev.WaveWidth,
		mma:    defaultMMA,
	}

	gridM := ceilDiv(l.m, l.blockM)
	gridN := ceilDiv(l.n, l.blockN)
	order := blockOrder(gridM, gridN, l.blockM, l.blockN, cfg.Hilbert)

	// Each worker walks a contiguous run of the schedule so that
	// neighbouring blocks, which share A/B slices, stay on the same core.
	workers := min(dev.NumCores, len(order))
	blocksPer := ceilDiv(len(order), workers)

	var wg sync.WaitGroup
	for start := 0; start < len(order); start += blocksPer {
		end := min(start+blocksPer, len(order))
		wg.Add(1)
		go func(blocks []blockCoord) {
			defer wg.Done()
			for _, bc := range blocks {
				l.runBlock(bc)
			}
		}(order[start:end])
	}
	wg.Wait()
	return nil
}

// runBlock executes one block: a staging arena is leased for its lifetime
// and every warp runs as its own goroutine, meeting at the block barrier.
func (l *launch) runBlock(bc blockCoord) {
	if !l.cfg.Staged {
		l.runUnstagedBlock(bc)
		return
	}

	arena := newStagingArena(l.cfg, stagingPool)
	defer arena.release(stagingPool)
	bar := newBarrier(l.cfg.TotalWarps())

	var wg sync.WaitGroup
	for w := 0; w < l.cfg.TotalWarps(); w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			l.warpMain(bc, w, arena, bar)
		}(w)
	}
	wg.Wait()
}

// warpMain is the staged pipeline as seen by one warp: stage a K slice,
// meet at the barrier, consume it fragment by fragment, flush the
// accumulators at the end. With double buffering the next slice is staged
// into the idle slot while the active one is consumed; exactly one slot is
// readable and one writable per iteration, tracked by the active bit.
func (l *launch) warpMain(bc blockCoord, w int, arena *stagingArena, bar *barrier) {
	cfg := l.cfg
	warpRow := w / cfg.WarpsN
	warpCol := w % cfg.WarpsN
	warpMBase := warpRow * cfg.WarpTileM * TileDim
	warpNBase := warpCol * cfg.WarpTileN * TileDim

	accs := make([]Fragment, cfg.WarpTileM*cfg.WarpTileN)
	aFrag := make([]Fragment, cfg.WarpTileM)
	bFrag := make([]Fragment, cfg.WarpTileN)

	var regsA, regsB *regBuffer
	if cfg.RegisterPrefetch {
		regsA, regsB = &regBuffer{}, &regBuffer{}
	}

	if cfg.BufferDepth == 2 {
		l.stageSlot(arena, 0, bc, 0, w)
		bar.Wait()
		active := 0
		for kTile := 0; ; kTile += cfg.BlockK {
			next := kTile + cfg.BlockK
			if next < l.k {
				if cfg.RegisterPrefetch {
					l.prefetchSlot(regsA, regsB, bc, next, w)
				} else {
					l.stageSlot(arena, 1-active, bc, next, w)
				}
			}
			l.computeKSlice(arena, active, warpMBase, warpNBase, aFrag, bFrag, accs)
			if cfg.RegisterPrefetch && next < l.k {
				l.flushSlot(arena, 1-active, regsA, regsB)
			}
			// All writes to the idle slot and all reads of the active slot
			// are ordered before the swap; reusing the retired slot earlier
			// would be a write-after-read hazard.
			bar.Wait()
			if next >= l.k {
				break
			}
			active = 1 - active
		}
	} else {
		for kTile := 0; kTile < l.k; kTile += cfg.BlockK {
			l.stageSlot(arena, 0, bc, kTile, w)
			bar.Wait()
			l.computeKSlice(arena, 0, warpMBase, warpNBase, aFrag, bFrag, accs)
			bar.Wait()
		}
	}

	if cfg.RestageEpilogue {
		l.storeRestaged(arena, bc, w, warpMBase, warpNBase, accs, bar)
	} else {
		l.storeDirect(bc, warpMBase, warpNBase, accs)
	}
}

// runUnstagedBlock services the direct-load pipeline: every warp owns a
// fixed set of output tiles and streams fragments straight from global
// memory. Warps share nothing, so they run sequentially on the block's
// goroutine.
func (l *launch) runUnstagedBlock(bc blockCoord) {
	cfg := l.cfg
	accs := make([]Fragment, cfg.WarpTileM*cfg.WarpTileN)
	var aFrag, bFrag Fragment

	for w := 0; w < cfg.TotalWarps(); w++ {
		warpRow := w / cfg.WarpsN
		warpCol := w % cfg.WarpsN
		warpMBase := warpRow * cfg.WarpTileM * TileDim
		warpNBase := warpCol * cfg.WarpTileN * TileDim

		for i := range accs {
			accs[i] = Fragment{}
		}
		for k0 := 0; k0 < l.k; k0 += TileDim {
			for wm := 0; wm < cfg.WarpTileM; wm++ {
				l.loadGlobalFragmentA(&aFrag, bc.row+warpMBase+wm*TileDim, k0)
				for wn := 0; wn < cfg.WarpTileN; wn++ {
					l.loadGlobalFragmentB(&bFrag, k0, bc.col+warpNBase+wn*TileDim)
					idx := wm*cfg.WarpTileN + wn
					accs[idx] = l.mma.Multiply(aFrag, bFrag, accs[idx])
				}
			}
		}
		l.storeDirect(bc, warpMBase, warpNBase, accs)
	}
}
