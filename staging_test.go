package hgemm

import (
	"sync"
	"testing"

	"github.com/x448/float16"
)

func testLaunch(t *testing.T, name string, m, n, k int, aLayout, bLayout Layout) *launch {
	t.Helper()
	cfg, err := Config(name)
	if err != nil {
		t.Fatalf("Config(%q): %v", name, err)
	}
	return &launch{
		cfg:    cfg,
		a:      RandomMatrixOrFail(t, m, k, aLayout, 11),
		b:      RandomMatrixOrFail(t, k, n, bLayout, 12),
		c:      NewMatrixOrFail(t, m, n, RowMajor),
		m:      m,
		n:      n,
		k:      k,
		blockM: cfg.BlockM(),
		blockN: cfg.BlockN(),
		wave:   DeviceProperties().WaveWidth,
		mma:    defaultMMA,
	}
}

// expectedStagedA is what staging offset i of the A region must hold for the
// tile anchored at (blockRow, kTile): the column-major element, or zero past
// the matrix extent.
func expectedStagedA(l *launch, i, blockRow, kTile int) float16.Float16 {
	gr := blockRow + i%l.blockM
	gc := kTile + i/l.blockM
	if gr < l.m && gc < l.k {
		return l.a.data[l.a.index(gr, gc)]
	}
	return 0
}

func expectedStagedB(l *launch, i, blockCol, kTile int) float16.Float16 {
	gr := kTile + i/l.blockN
	gc := blockCol + i%l.blockN
	if gr < l.k && gc < l.n {
		return l.b.data[l.b.index(gr, gc)]
	}
	return 0
}

func TestStageSlotInteriorAndRaggedEdge(t *testing.T) {
	// 300×300×70 against 256×256 blocks: block (0,0) is interior for M/N but
	// ragged in K on the second slice; block (256,256) is ragged in both.
	for _, layouts := range []struct {
		name   string
		a, b   Layout
	}{
		{"native layouts", ColMajor, RowMajor},
		{"flipped layouts", RowMajor, ColMajor},
	} {
		t.Run(layouts.name, func(t *testing.T) {
			l := testLaunch(t, "wmma-warp-vec", 300, 300, 70, layouts.a, layouts.b)
			arena := newStagingArena(l.cfg, stagingPool)
			defer arena.release(stagingPool)

			for _, bc := range []blockCoord{{0, 0}, {256, 256}} {
				for kTile := 0; kTile < l.k; kTile += l.cfg.BlockK {
					for w := 0; w < l.cfg.TotalWarps(); w++ {
						l.stageSlot(arena, 0, bc, kTile, w)
					}
					aTile := arena.a(0)
					for i := range aTile {
						if want := expectedStagedA(l, i, bc.row, kTile); aTile[i] != want {
							t.Fatalf("block %v k %d: A offset %d = %v, want %v", bc, kTile, i, aTile[i], want)
						}
					}
					bTile := arena.b(0)
					for i := range bTile {
						if want := expectedStagedB(l, i, bc.col, kTile); bTile[i] != want {
							t.Fatalf("block %v k %d: B offset %d = %v, want %v", bc, kTile, i, bTile[i], want)
						}
					}
				}
			}
		})
	}
}

func TestPrefetchMatchesDirectStaging(t *testing.T) {
	l := testLaunch(t, "wmma-prefetch", 300, 300, 40, ColMajor, RowMajor)
	direct := newStagingArena(l.cfg, stagingPool)
	staged := newStagingArena(l.cfg, stagingPool)
	defer direct.release(stagingPool)
	defer staged.release(stagingPool)

	bc := blockCoord{256, 0}
	kTile := 32 // ragged in K
	regsA, regsB := &regBuffer{}, &regBuffer{}
	for w := 0; w < l.cfg.TotalWarps(); w++ {
		l.stageSlot(direct, 1, bc, kTile, w)
		l.prefetchSlot(regsA, regsB, bc, kTile, w)
		l.flushSlot(staged, 1, regsA, regsB)
	}

	for i, v := range direct.a(1) {
		if staged.a(1)[i] != v {
			t.Fatalf("A offset %d: prefetch path %v, direct path %v", i, staged.a(1)[i], v)
		}
	}
	for i, v := range direct.b(1) {
		if staged.b(1)[i] != v {
			t.Fatalf("B offset %d: prefetch path %v, direct path %v", i, staged.b(1)[i], v)
		}
	}
}

func TestArenaPoolRecycles(t *testing.T) {
	pool := newArenaPool()
	buf := pool.get(1024)
	if len(buf) != 1024 {
		t.Fatalf("got buffer of %d elements, want 1024", len(buf))
	}
	pool.put(buf)

	again := pool.get(1024)
	if &again[0] != &buf[0] {
		t.Error("pool allocated a fresh buffer instead of recycling")
	}
	if _, peak := pool.stats(); peak != 1024 {
		t.Errorf("peak = %d, want 1024", peak)
	}

	other := pool.get(2048)
	if len(other) != 2048 {
		t.Fatalf("got buffer of %d elements, want 2048", len(other))
	}
	if total, _ := pool.stats(); total != 1024+2048 {
		t.Errorf("total = %d, want %d", total, 1024+2048)
	}
}

func TestBarrierOrdersPhases(t *testing.T) {
	const participants = 8
	const phases = 100
	bar := newBarrier(participants)

	var mu sync.Mutex
	counts := make([]int, phases)

	var wg sync.WaitGroup
	for p := 0; p < participants; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ph := 0; ph < phases; ph++ {
				mu.Lock()
				counts[ph]++
				// Nobody may reach phase ph+1 before all arrive at ph.
				if ph > 0 && counts[ph-1] != participants {
					t.Errorf("phase %d entered with %d arrivals at phase %d", ph, counts[ph-1], ph-1)
				}
				mu.Unlock()
				bar.Wait()
			}
		}()
	}
	wg.Wait()
}
