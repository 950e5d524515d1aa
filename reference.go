package hgemm

import (
	"github.com/x448/float16"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Reference contains the simple, correct implementation the kernels are
// verified against.
type Reference struct{}

// Hgemm computes C = A×B elementwise with single-precision accumulation,
// honouring each operand's layout. One rounding to half precision happens
// per output element.
func (Reference) Hgemm(C, A, B *Matrix) error {
	if A.cols != B.rows || C.rows != A.rows || C.cols != B.cols {
		return NewInvalidArgError("Reference.Hgemm", "shape mismatch")
	}
	for i := 0; i < C.rows; i++ {
		for j := 0; j < C.cols; j++ {
			var acc float32
			for k := 0; k < A.cols; k++ {
				acc += A.data[A.index(i, k)].Float32() * B.data[B.index(k, j)].Float32()
			}
			C.data[C.index(i, j)] = float16.Fromfloat32(acc)
		}
	}
	return nil
}

// BlasHgemm computes A×B through the vendor BLAS (gonum) as an independent
// comparison baseline. Operands are widened to float32, multiplied with
// equivalent shapes and layouts, and the result is rounded back to half
// precision in a fresh row-major matrix.
func BlasHgemm(A, B *Matrix) (*Matrix, error) {
	if A.cols != B.rows {
		return nil, NewInvalidArgError("BlasHgemm", "shape mismatch")
	}
	m, n, k := A.rows, B.cols, A.cols

	a := blas32.General{Rows: m, Cols: k, Stride: k, Data: A.Float32s()}
	b := blas32.General{Rows: k, Cols: n, Stride: n, Data: B.Float32s()}
	c := blas32.General{Rows: m, Cols: n, Stride: n, Data: make([]float32, m*n)}
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, a, b, 0, c)

	out, err := NewMatrix(m, n, RowMajor)
	if err != nil {
		return nil, err
	}
	if err := out.FromFloat32(c.Data); err != nil {
		return nil, err
	}
	return out, nil
}
