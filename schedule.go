package hgemm

// blockCoord is the top-left global offset of the output tile assigned to
// one block.
type blockCoord struct {
	row, col int
}

// blockOrder produces the schedule of block coordinates for a gridM×gridN
// launch. The naive order is a row-major decomposition of the linear block
// index; the Hilbert order walks a space-filling curve so that blocks
// scheduled close in time touch neighbouring A/B tiles, improving
// second-level cache reuse.
//
// Both orders are bijections over [0, gridM*gridN).
func blockOrder(gridM, gridN, blockM, blockN int, hilbert bool) []blockCoord {
	order := make([]blockCoord, 0, gridM*gridN)
	if !hilbert {
		for id := 0; id < gridM*gridN; id++ {
			order = append(order, blockCoord{
				row: (id / gridN) * blockM,
				col: (id % gridN) * blockN,
			})
		}
		return order
	}

	// Walk the curve over the power-of-two bounding square and discard
	// coordinates outside the real grid. The surviving sequence visits every
	// valid tile exactly once.
	side := nextPow2(max(gridM, gridN))
	for d := 0; d < side*side; d++ {
		x, y := hilbertD2XY(side, d)
		if x < gridM && y < gridN {
			order = append(order, blockCoord{row: x * blockM, col: y * blockN})
		}
	}
	return order
}

// hilbertD2XY converts a distance d along the Hilbert curve of an n×n grid
// (n a power of two) into (x, y) coordinates.
func hilbertD2XY(n, d int) (x, y int) {
	t := d
	for s := 1; s < n; s *= 2 {
		rx := 1 & (t / 2)
		ry := 1 & (t ^ rx)
		if ry == 0 {
			if rx == 1 {
				x = s - 1 - x
				y = s - 1 - y
			}
			x, y = y, x
		}
		x += s * rx
		y += s * ry
		t /= 4
	}
	return x, y
}

func nextPow2(v int) int {
	n := 1
	for n < v {
		n *= 2
	}
	return n
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
