package hgemm

import "testing"

func TestBlockOrderRowMajor(t *testing.T) {
	order := blockOrder(2, 3, 16, 32, false)
	want := []blockCoord{
		{0, 0}, {0, 32}, {0, 64},
		{16, 0}, {16, 32}, {16, 64},
	}
	if len(order) != len(want) {
		t.Fatalf("len = %d, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %v, want %v", i, order[i], want[i])
		}
	}
}

func TestBlockOrderHilbertIsBijection(t *testing.T) {
	grids := []struct{ m, n int }{
		{1, 1}, {1, 7}, {3, 5}, {4, 4}, {5, 5}, {9, 2}, {17, 17},
	}
	for _, g := range grids {
		order := blockOrder(g.m, g.n, TileDim, TileDim, true)
		if len(order) != g.m*g.n {
			t.Errorf("grid %dx%d: schedule has %d entries, want %d", g.m, g.n, len(order), g.m*g.n)
			continue
		}
		seen := make(map[blockCoord]bool, len(order))
		for _, bc := range order {
			if bc.row%TileDim != 0 || bc.col%TileDim != 0 {
				t.Errorf("grid %dx%d: coordinate %v not tile-aligned", g.m, g.n, bc)
			}
			if bc.row/TileDim >= g.m || bc.col/TileDim >= g.n {
				t.Errorf("grid %dx%d: coordinate %v outside grid", g.m, g.n, bc)
			}
			if seen[bc] {
				t.Errorf("grid %dx%d: coordinate %v visited twice", g.m, g.n, bc)
			}
			seen[bc] = true
		}
	}
}

func TestHilbertAdjacencyLocality(t *testing.T) {
	// Consecutive curve positions on a power-of-two square are always
	// neighbouring cells; that is the property the scheduler relies on.
	const n = 8
	px, py := hilbertD2XY(n, 0)
	for d := 1; d < n*n; d++ {
		x, y := hilbertD2XY(n, d)
		dist := abs(x-px) + abs(y-py)
		if dist != 1 {
			t.Fatalf("step %d: (%d,%d) -> (%d,%d) has manhattan distance %d", d, px, py, x, y, dist)
		}
		px, py = x, y
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 17: 32, 1024: 1024}
	for in, want := range cases {
		if got := nextPow2(in); got != want {
			t.Errorf("nextPow2(%d) = %d, want %d", in, got, want)
		}
	}
}
