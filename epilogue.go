package hgemm

// storeDirect flushes one warp's accumulator grid straight to C, clipping
// the ragged bottom/right edge element by element. C is row-major.
func (l *launch) storeDirect(bc blockCoord, warpMBase, warpNBase int, accs []Fragment) {
	wtn := l.cfg.WarpTileN
	for wm := 0; wm < l.cfg.WarpTileM; wm++ {
		rowBase := bc.row + warpMBase + wm*TileDim
		if rowBase >= l.m {
			break
		}
		for wn := 0; wn < wtn; wn++ {
			colBase := bc.col + warpNBase + wn*TileDim
			if colBase >= l.n {
				break
			}
			acc := &accs[wm*wtn+wn]
			for r := 0; r < TileDim; r++ {
				gr := rowBase + r
				if gr >= l.m {
					break
				}
				dst := l.c.data[gr*l.n:]
				for lane := 0; lane < TileDim; lane++ {
					if gc := colBase + lane; gc < l.n {
						dst[gc] = acc[r*TileDim+lane]
					}
				}
			}
		}
	}
}

// storeRestaged flushes the block's output tile through staging memory. The
// tile is processed in row chunks sized to the arena: every warp deposits
// its fragment rows into the reassembly buffer, a barrier orders the writes
// before any read, then all threads issue bounds-checked vectorized stores
// to C. Used when the output tile is too large to restage at once.
func (l *launch) storeRestaged(arena *stagingArena, bc blockCoord, w, warpMBase, warpNBase int, accs []Fragment, bar *barrier) {
	cfg := l.cfg
	chunkRows := cfg.epilogueChunkRows()
	cTile := arena.reassembly(chunkRows * l.blockN)
	vw := cfg.VectorWidth
	wave := l.wave
	threads := cfg.TotalWarps() * wave
	wtn := cfg.WarpTileN

	for rowStart := 0; rowStart < l.blockM; rowStart += chunkRows {
		rowEnd := min(rowStart+chunkRows, l.blockM)

		// Deposit the fragments whose rows fall inside this chunk.
		for wm := 0; wm < cfg.WarpTileM; wm++ {
			fragRow := warpMBase + wm*TileDim
			if fragRow < rowStart || fragRow >= rowEnd {
				continue
			}
			local := fragRow - rowStart
			for wn := 0; wn < wtn; wn++ {
				colBase := warpNBase + wn*TileDim
				acc := &accs[wm*wtn+wn]
				for r := 0; r < TileDim; r++ {
					dst := cTile[(local+r)*l.blockN+colBase:]
					copy(dst[:TileDim], acc[r*TileDim:(r+1)*TileDim])
				}
			}
		}
		bar.Wait()

		// Cooperative vectorized writeback of the reassembled chunk.
		height := rowEnd - rowStart
		total := height * l.blockN
		for lane := 0; lane < wave; lane++ {
			tid := w*wave + lane
			for i := tid * vw; i < total; i += threads * vw {
				rowLocal := i / l.blockN
				colLocal := i % l.blockN
				gr := bc.row + rowStart + rowLocal
				gc := bc.col + colLocal
				if gr >= l.m {
					continue
				}
				if gc+vw-1 < l.n {
					copy(l.c.data[gr*l.n+gc:gr*l.n+gc+vw], cTile[i:i+vw])
					continue
				}
				for v := 0; v < vw; v++ {
					if gc+v < l.n {
						l.c.data[gr*l.n+gc+v] = cTile[i+v]
					}
				}
			}
		}
		bar.Wait()
	}
}
