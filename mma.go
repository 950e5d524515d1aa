package hgemm

import (
	"github.com/x448/float16"
)

// Fragment is the register view of one 16×16 tile as distributed across the
// lanes of a warp: 16 lanes of 16 half-precision elements each.
//
// The element order depends on the fragment's role:
//
//   - A fragment: lane l holds row l of the tile, element i is K offset i.
//   - B fragment: lane l holds column l of the tile, element i is K offset i.
//   - Accumulator fragment: plain row-major 16×16, element (r, c) at r*16+c.
//
// Input fragments live for a single K sub-step. Accumulator fragments
// persist across the whole K reduction and are zero-initialized at tile
// entry.
type Fragment [TileDim * TileDim]float16.Float16

// MMA is the hardware matrix-multiply-accumulate capability: one wave-wide
// operation computing a 16×16×16 half-precision product. The compute engine
// is agnostic to which concrete unit backs it.
type MMA interface {
	// Multiply returns a×b + acc. The multiply and the accumulation run in
	// at least single precision internally; the result is rounded to half
	// precision once per call.
	Multiply(a, b Fragment, acc Fragment) Fragment
}

// wmmaF16 emulates the f16_16x16x16_f16 wave primitive in software.
type wmmaF16 struct{}

func (wmmaF16) Multiply(a, b Fragment, acc Fragment) Fragment {
	// Widen both operands once; the inner product then runs entirely in
	// float32, matching the primitive's internal precision guarantee.
	var aw, bw [TileDim * TileDim]float32
	for i := range a {
		aw[i] = a[i].Float32()
		bw[i] = b[i].Float32()
	}

	var out Fragment
	for r := 0; r < TileDim; r++ {
		ar := aw[r*TileDim : (r+1)*TileDim]
		for c := 0; c < TileDim; c++ {
			bc := bw[c*TileDim : (c+1)*TileDim]
			sum := acc[r*TileDim+c].Float32()
			for k := 0; k < TileDim; k++ {
				sum += ar[k] * bc[k]
			}
			out[r*TileDim+c] = float16.Fromfloat32(sum)
		}
	}
	return out
}

// defaultMMA is the unit used by all launches. Tests may substitute a
// different implementation through the launch state.
var defaultMMA MMA = wmmaF16{}
