package hgemm

// loadStagedFragments fills the warp's A and B input fragments for the
// 16-wide K sub-step starting at staging depth k. A fragments are read down
// the column-major A region, B fragments across the row-major B region; the
// strided reads cost O(warpTileM + warpTileN) fragment loads against the
// O(warpTileM × warpTileN) MMA calls they feed.
func (l *launch) loadStagedFragments(arena *stagingArena, slot, warpMBase, warpNBase, k int, aFrag, bFrag []Fragment) {
	aTile := arena.a(slot)
	bTile := arena.b(slot)

	for wm := range aFrag {
		base := warpMBase + wm*TileDim
		for i := 0; i < TileDim; i++ {
			src := aTile[(k+i)*l.blockM+base:]
			for lane := 0; lane < TileDim; lane++ {
				aFrag[wm][lane*TileDim+i] = src[lane]
			}
		}
	}
	for wn := range bFrag {
		base := warpNBase + wn*TileDim
		for i := 0; i < TileDim; i++ {
			src := bTile[(k+i)*l.blockN+base:]
			for lane := 0; lane < TileDim; lane++ {
				bFrag[wn][lane*TileDim+i] = src[lane]
			}
		}
	}
}

// computeKSlice advances the warp's accumulator grid by one staged K slice.
func (l *launch) computeKSlice(arena *stagingArena, slot, warpMBase, warpNBase int, aFrag, bFrag, accs []Fragment) {
	wtn := l.cfg.WarpTileN
	for k := 0; k < l.cfg.BlockK; k += TileDim {
		l.loadStagedFragments(arena, slot, warpMBase, warpNBase, k, aFrag, bFrag)
		for wm := range aFrag {
			for wn := range bFrag {
				idx := wm*wtn + wn
				accs[idx] = l.mma.Multiply(aFrag[wm], bFrag[wn], accs[idx])
			}
		}
	}
}

// loadGlobalFragmentA fills an A fragment straight from global memory, one
// element at a time with exact bounds checks. Used by the unstaged pipeline.
func (l *launch) loadGlobalFragmentA(frag *Fragment, row0, k0 int) {
	for lane := 0; lane < TileDim; lane++ {
		gr := row0 + lane
		for i := 0; i < TileDim; i++ {
			gc := k0 + i
			if gr < l.m && gc < l.k {
				frag[lane*TileDim+i] = l.a.data[l.a.index(gr, gc)]
			} else {
				frag[lane*TileDim+i] = 0
			}
		}
	}
}

// loadGlobalFragmentB fills a B fragment straight from global memory.
func (l *launch) loadGlobalFragmentB(frag *Fragment, k0, col0 int) {
	for lane := 0; lane < TileDim; lane++ {
		gc := col0 + lane
		for i := 0; i < TileDim; i++ {
			gr := k0 + i
			if gr < l.k && gc < l.n {
				frag[lane*TileDim+i] = l.b.data[l.b.index(gr, gc)]
			} else {
				frag[lane*TileDim+i] = 0
			}
		}
	}
}
