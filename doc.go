// Copyright ©2025 The HGEMM Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hgemm computes dense half-precision matrix products C = A×B on the
// CPU through an emulated wave matrix-multiply-accumulate (MMA) primitive.
//
// The package mirrors the execution hierarchy of an MMA-capable GPU: a launch
// covers the output with a grid of blocks, every block is serviced by a fixed
// set of warps, and each warp advances its accumulator tiles by feeding 16×16
// fragments through the MMA primitive. The kernel family is a single
// parameterized pipeline; each named configuration enables a different set of
// optimizations on top of it:
//
//   - wmma            direct global loads, one 16×16 tile per warp
//   - wmma-shared     block tiling through staging memory
//   - wmma-warp-vec   warp tiling, double buffering, 16-wide transfers
//   - wmma-opt1       as wmma-warp-vec with 8-wide transfers
//   - wmma-opt        + Hilbert-curve block scheduling and restaged epilogue
//   - wmma-prefetch   + register prefetch between global and staging memory
//
// Example usage:
//
//	a, _ := hgemm.NewMatrix(m, k, hgemm.ColMajor)
//	b, _ := hgemm.NewMatrix(k, n, hgemm.RowMajor)
//	c, _ := hgemm.NewMatrix(m, n, hgemm.RowMajor)
//	// ... fill a and b ...
//	if err := hgemm.Hgemm("wmma-opt", c, a, b); err != nil {
//		log.Fatal(err)
//	}
//
// Results are verified against a single-precision reference and a vendor BLAS
// baseline (gonum) through the Verify and Reference collaborators.
package hgemm
