package hgemm

import (
	"math/rand"
	"testing"
)

// NewMatrixOrFail allocates a matrix and fails the test if unsuccessful
func NewMatrixOrFail(t testing.TB, rows, cols int, layout Layout) *Matrix {
	t.Helper()
	m, err := NewMatrix(rows, cols, layout)
	if err != nil {
		t.Fatalf("Failed to allocate %dx%d matrix: %v", rows, cols, err)
	}
	return m
}

// RandomMatrixOrFail allocates a matrix filled with deterministic random
// values. The fixed seed keeps failures reproducible across runs.
func RandomMatrixOrFail(t testing.TB, rows, cols int, layout Layout, seed int64) *Matrix {
	t.Helper()
	m := NewMatrixOrFail(t, rows, cols, layout)
	m.FillRandom(rand.New(rand.NewSource(seed)))
	return m
}

// HgemmOrFail runs the named kernel and fails the test if unsuccessful
func HgemmOrFail(t testing.TB, kernel string, C, A, B *Matrix) {
	t.Helper()
	if err := Hgemm(kernel, C, A, B); err != nil {
		t.Fatalf("Kernel %q failed: %v", kernel, err)
	}
}

// VerifyOrFail verifies a computed matrix against the reference and fails
// the test with the full report if any check fails.
func VerifyOrFail(t testing.TB, got, want *Matrix, k int) VerifyReport {
	t.Helper()
	rep, err := Verify(got, want, k)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !rep.Pass() {
		t.Errorf("Verification failed:\n%v", rep)
	}
	return rep
}

// ReferenceOrFail computes the single-precision reference product for the
// given operands.
func ReferenceOrFail(t testing.TB, A, B *Matrix) *Matrix {
	t.Helper()
	C := NewMatrixOrFail(t, A.Rows(), B.Cols(), RowMajor)
	if err := (Reference{}).Hgemm(C, A, B); err != nil {
		t.Fatalf("Reference failed: %v", err)
	}
	return C
}
