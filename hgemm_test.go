package hgemm

import (
	"testing"
)

func TestLaunchKernelRejectsBadArgs(t *testing.T) {
	cfg, err := Config("wmma")
	if err != nil {
		t.Fatalf("Config: %v", err)
	}
	A := RandomMatrixOrFail(t, 32, 16, ColMajor, 1)
	B := RandomMatrixOrFail(t, 16, 32, RowMajor, 2)
	C := NewMatrixOrFail(t, 32, 32, RowMajor)

	tests := []struct {
		name    string
		c, a, b *Matrix
	}{
		{"nil A", C, nil, B},
		{"nil B", C, A, nil},
		{"nil C", nil, A, B},
		{"inner mismatch", C, A, RandomMatrixOrFail(t, 32, 32, RowMajor, 3)},
		{"output shape", NewMatrixOrFail(t, 32, 16, RowMajor), A, B},
		{"col-major C", NewMatrixOrFail(t, 32, 32, ColMajor), A, B},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := LaunchKernel(cfg, tt.c, tt.a, tt.b); !IsInvalidArgError(err) {
				t.Errorf("LaunchKernel = %v, want invalid argument error", err)
			}
		})
	}
}

func TestHgemmUnknownKernel(t *testing.T) {
	A := RandomMatrixOrFail(t, 16, 16, ColMajor, 1)
	B := RandomMatrixOrFail(t, 16, 16, RowMajor, 2)
	C := NewMatrixOrFail(t, 16, 16, RowMajor)
	if err := Hgemm("nope", C, A, B); !IsInvalidArgError(err) {
		t.Errorf("Hgemm with unknown kernel = %v, want invalid argument error", err)
	}
}

func TestSingleTileExact(t *testing.T) {
	// One K step means one rounding per output element, identical to the
	// reference, so the comparison is bit-exact for every kernel.
	A := RandomMatrixOrFail(t, 16, 16, ColMajor, 21)
	B := RandomMatrixOrFail(t, 16, 16, RowMajor, 22)
	want := ReferenceOrFail(t, A, B)

	for _, name := range ConfigNames() {
		C := NewMatrixOrFail(t, 16, 16, RowMajor)
		HgemmOrFail(t, name, C, A, B)
		if !C.Equal(want) {
			t.Errorf("%s: 16x16x16 result not bit-identical to reference", name)
		}
	}
}

func TestShortKExact(t *testing.T) {
	// K below one tile still rounds once per element: the staged slice is
	// zero-padded and the padding contributes exact zeros.
	A := RandomMatrixOrFail(t, 33, 7, ColMajor, 23)
	B := RandomMatrixOrFail(t, 7, 29, RowMajor, 24)
	want := ReferenceOrFail(t, A, B)

	for _, name := range ConfigNames() {
		C := NewMatrixOrFail(t, 33, 29, RowMajor)
		HgemmOrFail(t, name, C, A, B)
		if !C.Equal(want) {
			t.Errorf("%s: 33x29x7 result not bit-identical to reference", name)
		}
	}
}

func TestAllKernelsVerifyRaggedProblem(t *testing.T) {
	// 257 is co-prime with every tile and block dimension in the family, so
	// each kernel exercises its ragged-edge paths on all three extents.
	A := RandomMatrixOrFail(t, 257, 257, ColMajor, 25)
	B := RandomMatrixOrFail(t, 257, 257, RowMajor, 26)
	want := ReferenceOrFail(t, A, B)

	for _, name := range ConfigNames() {
		C := NewMatrixOrFail(t, 257, 257, RowMajor)
		HgemmOrFail(t, name, C, A, B)
		rep := VerifyOrFail(t, C, want, 257)
		t.Logf("%-16s %v", name, rep)
	}
}

func TestKernelsAgreeAcrossConfigs(t *testing.T) {
	A := RandomMatrixOrFail(t, 64, 64, ColMajor, 27)
	B := RandomMatrixOrFail(t, 64, 64, RowMajor, 28)

	results := make(map[string]*Matrix, len(ConfigNames()))
	for _, name := range ConfigNames() {
		C := NewMatrixOrFail(t, 64, 64, RowMajor)
		HgemmOrFail(t, name, C, A, B)
		results[name] = C
	}

	// Different BlockK values round at different points, so agreement is
	// through the verifier, not bitwise.
	names := ConfigNames()
	base := results[names[0]]
	for _, name := range names[1:] {
		rep, err := Verify(results[name], base, 64)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if !rep.Pass() {
			t.Errorf("%s disagrees with %s:\n%v", name, names[0], rep)
		}
	}
}

func TestLayoutLaw(t *testing.T) {
	// Flipping an operand's layout changes only the transfer path taken, so
	// results must be bit-identical, not merely within tolerance.
	A := RandomMatrixOrFail(t, 100, 70, ColMajor, 29)
	B := RandomMatrixOrFail(t, 70, 90, RowMajor, 30)
	aFlip := A.WithLayout(RowMajor)
	bFlip := B.WithLayout(ColMajor)

	for _, name := range ConfigNames() {
		native := NewMatrixOrFail(t, 100, 90, RowMajor)
		HgemmOrFail(t, name, native, A, B)

		flipped := NewMatrixOrFail(t, 100, 90, RowMajor)
		HgemmOrFail(t, name, flipped, aFlip, bFlip)

		if !native.Equal(flipped) {
			t.Errorf("%s: result depends on operand layout", name)
		}
	}
}

func TestIdempotence(t *testing.T) {
	A := RandomMatrixOrFail(t, 257, 130, ColMajor, 31)
	B := RandomMatrixOrFail(t, 130, 201, RowMajor, 32)

	for _, name := range ConfigNames() {
		first := NewMatrixOrFail(t, 257, 201, RowMajor)
		HgemmOrFail(t, name, first, A, B)

		second := NewMatrixOrFail(t, 257, 201, RowMajor)
		HgemmOrFail(t, name, second, A, B)

		if !first.Equal(second) {
			t.Errorf("%s: repeated launches produced different bits", name)
		}
	}
}

func TestTinyProblems(t *testing.T) {
	sizes := []struct{ m, n, k int }{
		{1, 1, 1}, {1, 17, 3}, {5, 1, 16}, {3, 5, 7}, {16, 16, 1},
	}
	for _, s := range sizes {
		A := RandomMatrixOrFail(t, s.m, s.k, ColMajor, 33)
		B := RandomMatrixOrFail(t, s.k, s.n, RowMajor, 34)
		want := ReferenceOrFail(t, A, B)
		for _, name := range ConfigNames() {
			C := NewMatrixOrFail(t, s.m, s.n, RowMajor)
			HgemmOrFail(t, name, C, A, B)
			// K fits one tile in all these cases, so exactness holds.
			if !C.Equal(want) {
				t.Errorf("%s: %dx%dx%d not bit-identical to reference", name, s.m, s.n, s.k)
			}
		}
	}
}

func TestTallSkinnyProblem(t *testing.T) {
	if testing.Short() {
		t.Skip("large problem, skipped with -short")
	}
	// M spans many blocks while N fits inside a single one, with a deep K
	// reduction; stresses the scheduler and the N-edge padding at scale.
	A := RandomMatrixOrFail(t, 4096, 4096, ColMajor, 35)
	B := RandomMatrixOrFail(t, 4096, 64, RowMajor, 36)
	want := ReferenceOrFail(t, A, B)

	for _, name := range ConfigNames() {
		C := NewMatrixOrFail(t, 4096, 64, RowMajor)
		HgemmOrFail(t, name, C, A, B)
		VerifyOrFail(t, C, want, 4096)
	}
}

func BenchmarkHgemm(b *testing.B) {
	const dim = 512
	A := RandomMatrixOrFail(b, dim, dim, ColMajor, 41)
	B := RandomMatrixOrFail(b, dim, dim, RowMajor, 42)

	for _, name := range ConfigNames() {
		b.Run(name, func(b *testing.B) {
			C := NewMatrixOrFail(b, dim, dim, RowMajor)
			b.SetBytes(int64(2 * dim * dim * dim * 2))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				HgemmOrFail(b, name, C, A, B)
			}
		})
	}
}
