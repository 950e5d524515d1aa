package hgemm

import (
	"fmt"
	"math/rand"

	"github.com/x448/float16"
)

// Layout selects the element order of a dense matrix buffer.
type Layout int

const (
	// RowMajor stores element (r, c) at index r*cols + c.
	RowMajor Layout = iota
	// ColMajor stores element (r, c) at index c*rows + r.
	ColMajor
)

func (l Layout) String() string {
	switch l {
	case RowMajor:
		return "row-major"
	case ColMajor:
		return "col-major"
	default:
		return "unknown"
	}
}

// TileDim is the edge length of the square tile consumed by one MMA
// operation: every MMA call multiplies a 16×16 A tile by a 16×16 B tile.
const TileDim = 16

// Matrix is a dense half-precision matrix with an immutable shape and an
// owned contiguous element buffer.
//
// The kernels consume A as column-major and B as row-major because that is
// the native input order of the MMA primitive; C is always produced
// row-major. A matrix carrying the other layout is still handled correctly,
// it only loses the vectorized transfer fast path.
type Matrix struct {
	rows, cols int
	layout     Layout
	data       []float16.Float16
}

// NewMatrix allocates a rows×cols matrix with the given layout.
func NewMatrix(rows, cols int, layout Layout) (*Matrix, error) {
	if rows < 1 || cols < 1 {
		return nil, NewInvalidArgError("NewMatrix", fmt.Sprintf("dimensions must be positive, got %d×%d", rows, cols))
	}
	if layout != RowMajor && layout != ColMajor {
		return nil, NewInvalidArgError("NewMatrix", fmt.Sprintf("unknown layout %d", layout))
	}
	return &Matrix{
		rows:   rows,
		cols:   cols,
		layout: layout,
		data:   make([]float16.Float16, rows*cols),
	}, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// Layout returns the element order of the backing buffer.
func (m *Matrix) Layout() Layout { return m.layout }

// Data returns the backing buffer. Elements are ordered per Layout.
func (m *Matrix) Data() []float16.Float16 { return m.data }

// index maps (r, c) to a buffer offset. Callers are responsible for bounds.
func (m *Matrix) index(r, c int) int {
	if m.layout == RowMajor {
		return r*m.cols + c
	}
	return c*m.rows + r
}

func (m *Matrix) boundsCheck(op string, r, c int) {
	if r < 0 || r >= m.rows || c < 0 || c >= m.cols {
		panic(fmt.Sprintf("hgemm: %s index (%d, %d) out of range for %d×%d matrix", op, r, c, m.rows, m.cols))
	}
}

// At returns the element at (r, c). Out-of-range access is a programming
// invariant violation and panics.
func (m *Matrix) At(r, c int) float16.Float16 {
	m.boundsCheck("At", r, c)
	return m.data[m.index(r, c)]
}

// Set stores v at (r, c). Out-of-range access panics.
func (m *Matrix) Set(r, c int, v float16.Float16) {
	m.boundsCheck("Set", r, c)
	m.data[m.index(r, c)] = v
}

// AtFloat32 returns the element at (r, c) widened to float32.
func (m *Matrix) AtFloat32(r, c int) float32 {
	return m.At(r, c).Float32()
}

// SetFloat32 stores v at (r, c) rounded to half precision.
func (m *Matrix) SetFloat32(r, c int, v float32) {
	m.Set(r, c, float16.Fromfloat32(v))
}

// FillRandom populates the matrix with values drawn from rng in [0, 1).
// Non-negative fills keep the K reduction free of catastrophic cancellation,
// which would otherwise dominate half-precision error measurements.
func (m *Matrix) FillRandom(rng *rand.Rand) {
	for i := range m.data {
		m.data[i] = float16.Fromfloat32(rng.Float32())
	}
}

// FromFloat32 fills the matrix from values given in row-major logical order.
func (m *Matrix) FromFloat32(vals []float32) error {
	if len(vals) != m.rows*m.cols {
		return NewInvalidArgError("FromFloat32", fmt.Sprintf("need %d values, got %d", m.rows*m.cols, len(vals)))
	}
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			m.data[m.index(r, c)] = float16.Fromfloat32(vals[r*m.cols+c])
		}
	}
	return nil
}

// Float32s exports the matrix as float32 values in row-major logical order.
func (m *Matrix) Float32s() []float32 {
	out := make([]float32, m.rows*m.cols)
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			out[r*m.cols+c] = m.data[m.index(r, c)].Float32()
		}
	}
	return out
}

// WithLayout returns a copy of m holding the same logical values in the
// requested buffer order.
func (m *Matrix) WithLayout(layout Layout) *Matrix {
	out := &Matrix{
		rows:   m.rows,
		cols:   m.cols,
		layout: layout,
		data:   make([]float16.Float16, len(m.data)),
	}
	if layout == m.layout {
		copy(out.data, m.data)
		return out
	}
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			out.data[out.index(r, c)] = m.data[m.index(r, c)]
		}
	}
	return out
}

// Clone returns a deep copy of m.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{rows: m.rows, cols: m.cols, layout: m.layout}
	out.data = append([]float16.Float16(nil), m.data...)
	return out
}

// Equal reports whether two matrices hold bit-identical logical values.
// Layout is ignored; only shape and element bits are compared.
func (m *Matrix) Equal(o *Matrix) bool {
	if m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			if m.data[m.index(r, c)] != o.data[o.index(r, c)] {
				return false
			}
		}
	}
	return true
}
