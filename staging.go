package hgemm

import (
	"sync"

	"github.com/x448/float16"
)

// stagingArena is the on-chip staging memory of one block: a single
// contiguous allocation carved into named sub-regions (an A region followed
// by a B region per slot). Regions are always reached by index, never by
// aliased pointers, so the slot roles can swap every K iteration without
// aliasing bugs.
//
// The A region holds a BlockM×BlockK tile in column-major order with stride
// BlockM; the B region holds a BlockK×BlockN tile in row-major order with
// stride BlockN. Both match the fragment layout the MMA unit consumes.
type stagingArena struct {
	raw     []float16.Float16
	slotLen int
	aLen    int
}

func newStagingArena(cfg KernelConfig, pool *arenaPool) *stagingArena {
	return &stagingArena{
		raw:     pool.get(cfg.arenaLen()),
		slotLen: cfg.stagingSlotLen(),
		aLen:    cfg.BlockM() * cfg.BlockK,
	}
}

// a returns the A region of the given slot.
func (s *stagingArena) a(slot int) []float16.Float16 {
	base := slot * s.slotLen
	return s.raw[base : base+s.aLen]
}

// b returns the B region of the given slot.
func (s *stagingArena) b(slot int) []float16.Float16 {
	base := slot*s.slotLen + s.aLen
	return s.raw[base : base+s.slotLen-s.aLen]
}

// reassembly exposes the first n elements of the arena for epilogue reuse.
// Only valid once the K reduction has retired both slots.
func (s *stagingArena) reassembly(n int) []float16.Float16 {
	return s.raw[:n]
}

func (s *stagingArena) release(pool *arenaPool) {
	pool.put(s.raw)
}

// arenaPool recycles staging arenas across block executions. Arenas of equal
// capacity are interchangeable, so the free list is keyed by length.
type arenaPool struct {
	mu         sync.Mutex
	free       map[int][][]float16.Float16
	totalAlloc int64
	peakAlloc  int64
}

func newArenaPool() *arenaPool {
	return &arenaPool{free: make(map[int][][]float16.Float16)}
}

func (p *arenaPool) get(n int) []float16.Float16 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if list := p.free[n]; len(list) > 0 {
		buf := list[len(list)-1]
		p.free[n] = list[:len(list)-1]
		return buf
	}

	p.totalAlloc += int64(n)
	if p.totalAlloc > p.peakAlloc {
		p.peakAlloc = p.totalAlloc
	}
	return make([]float16.Float16, n)
}

func (p *arenaPool) put(buf []float16.Float16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free[len(buf)] = append(p.free[len(buf)], buf)
}

// stats returns the total and peak element counts allocated by the pool.
func (p *arenaPool) stats() (total, peak int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalAlloc, p.peakAlloc
}

// stagingPool is shared by all launches.
var stagingPool = newArenaPool()

// loadA fills out with the A elements belonging to staging offsets
// [i, i+len(out)) of the tile anchored at (blockRow, kTile). A full-width
// contiguous transfer is used when the whole vector lies inside the matrix
// and the source layout keeps it contiguous; otherwise every element is
// bounds-checked individually and out-of-extent positions resolve to zero.
//
// Staging offset i maps to (row, col) = (i % BlockM, i / BlockM), identical
// to the column-major staging layout, so i is also the destination offset.
func (l *launch) loadA(out []float16.Float16, i, blockRow, kTile int) {
	vw := len(out)
	col := i / l.blockM
	row := i % l.blockM
	gr := blockRow + row
	gc := kTile + col

	if l.a.layout == ColMajor && gc < l.k && gr+vw-1 < l.m {
		src := l.a.data[gc*l.m+gr:]
		copy(out, src[:vw])
		return
	}
	for v := 0; v < vw; v++ {
		if gr+v < l.m && gc < l.k {
			out[v] = l.a.data[l.a.index(gr+v, gc)]
		} else {
			out[v] = 0
		}
	}
}

// loadB is the B-side counterpart of loadA. Staging offset i maps to
// (row, col) = (i / BlockN, i % BlockN) in the row-major B region.
func (l *launch) loadB(out []float16.Float16, i, blockCol, kTile int) {
	vw := len(out)
	row := i / l.blockN
	col := i % l.blockN
	gr := kTile + row
	gc := blockCol + col

	if l.b.layout == RowMajor && gr < l.k && gc+vw-1 < l.n {
		src := l.b.data[gr*l.n+gc:]
		copy(out, src[:vw])
		return
	}
	for v := 0; v < vw; v++ {
		if gr < l.k && gc+v < l.n {
			out[v] = l.b.data[l.b.index(gr, gc+v)]
		} else {
			out[v] = 0
		}
	}
}

// stageA transfers this loader's share of the A tile into dst. Work is
// statically partitioned: loader loaderID of loaders owns offsets
// loaderID*vw, loaderID*vw + loaders*vw, ... in vector-width chunks.
func (l *launch) stageA(dst []float16.Float16, blockRow, kTile, loaderID, loaders int) {
	vw := l.cfg.VectorWidth
	total := l.blockM * l.cfg.BlockK
	for i := loaderID * vw; i < total; i += loaders * vw {
		l.loadA(dst[i:i+vw], i, blockRow, kTile)
	}
}

// stageB transfers this loader's share of the B tile into dst.
func (l *launch) stageB(dst []float16.Float16, blockCol, kTile, loaderID, loaders int) {
	vw := l.cfg.VectorWidth
	total := l.cfg.BlockK * l.blockN
	for i := loaderID * vw; i < total; i += loaders * vw {
		l.loadB(dst[i:i+vw], i, blockCol, kTile)
	}
}

// stageSlot runs the cooperative transfer of both tiles into the given slot
// for the lanes owned by warp w. With split loading the first half of the
// block's threads handles A and the second half handles B; otherwise every
// thread contributes to both tiles.
func (l *launch) stageSlot(arena *stagingArena, slot int, bc blockCoord, kTile, w int) {
	wave := l.wave
	threads := l.cfg.TotalWarps() * wave

	if l.cfg.SplitLoaders {
		half := threads / 2
		for lane := 0; lane < wave; lane++ {
			tid := w*wave + lane
			if tid < half {
				l.stageA(arena.a(slot), bc.row, kTile, tid, half)
			} else {
				l.stageB(arena.b(slot), bc.col, kTile, tid-half, half)
			}
		}
		return
	}
	for lane := 0; lane < wave; lane++ {
		tid := w*wave + lane
		l.stageA(arena.a(slot), bc.row, kTile, tid, threads)
		l.stageB(arena.b(slot), bc.col, kTile, tid, threads)
	}
}

// regBuffer holds globally-loaded vectors in per-thread registers until the
// pipeline copies them into staging memory. Chunks are recorded and flushed
// in the same static order, keeping the transfer deterministic.
type regBuffer struct {
	chunks []regChunk
}

type regChunk struct {
	dst  int
	n    int
	vals [TileDim]float16.Float16
}

// prefetchSlot pulls the next K slice's tiles into warp-private registers
// without touching staging memory; flushSlot later completes the transfer.
// Decoupling the two halves lets the global loads overlap with compute.
func (l *launch) prefetchSlot(regsA, regsB *regBuffer, bc blockCoord, kTile, w int) {
	vw := l.cfg.VectorWidth
	wave := l.wave
	threads := l.cfg.TotalWarps() * wave
	half := threads / 2

	regsA.chunks = regsA.chunks[:0]
	regsB.chunks = regsB.chunks[:0]
	for lane := 0; lane < wave; lane++ {
		tid := w*wave + lane
		if tid < half {
			total := l.blockM * l.cfg.BlockK
			for i := (tid) * vw; i < total; i += half * vw {
				var c regChunk
				c.dst = i
				c.n = vw
				l.loadA(c.vals[:vw], i, bc.row, kTile)
				regsA.chunks = append(regsA.chunks, c)
			}
		} else {
			total := l.cfg.BlockK * l.blockN
			for i := (tid - half) * vw; i < total; i += half * vw {
				var c regChunk
				c.dst = i
				c.n = vw
				l.loadB(c.vals[:vw], i, bc.col, kTile)
				regsB.chunks = append(regsB.chunks, c)
			}
		}
	}
}

// flushSlot copies the prefetched registers into the staging slot.
func (l *launch) flushSlot(arena *stagingArena, slot int, regsA, regsB *regBuffer) {
	aTile := arena.a(slot)
	for _, c := range regsA.chunks {
		copy(aTile[c.dst:c.dst+c.n], c.vals[:c.n])
	}
	bTile := arena.b(slot)
	for _, c := range regsB.chunks {
		copy(bTile[c.dst:c.dst+c.n], c.vals[:c.n])
	}
}
