package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// Operator is the view of a sparse matrix needed by the least squares solver.
// *sparse.CSR, *sparse.COO and *Triplets satisfy it.
type Operator interface {
	Dims() (r, c int)
	DoNonZero(fn func(i, j int, v float64))
}

// Triplets is a pre-sized (row, column, value) buffer. Every slot is written
// exactly once by index, so disjoint slot ranges may be filled concurrently
// with no synchronization. Duplicate (row, column) pairs are summed by every
// consumer.
type Triplets struct {
	nr, nc int
	rows   []int
	cols   []int
	data   []float64
}

func NewTriplets(nr, nc, nnz int) (T *Triplets) {
	T = &Triplets{
		nr:   nr,
		nc:   nc,
		rows: make([]int, nnz),
		cols: make([]int, nnz),
		data: make([]float64, nnz),
	}
	return
}

func (T *Triplets) Dims() (r, c int) { return T.nr, T.nc }
func (T *Triplets) Len() int         { return len(T.data) }

// Set writes slot n.
func (T *Triplets) Set(n, i, j int, v float64) {
	if i < 0 || i >= T.nr {
		panic(fmt.Errorf("row index %d out of range [0,%d)", i, T.nr))
	}
	if j < 0 || j >= T.nc {
		panic(fmt.Errorf("column index %d out of range [0,%d)", j, T.nc))
	}
	T.rows[n], T.cols[n], T.data[n] = i, j, v
}

// At returns slot n.
func (T *Triplets) At(n int) (i, j int, v float64) {
	return T.rows[n], T.cols[n], T.data[n]
}

func (T *Triplets) DoNonZero(fn func(i, j int, v float64)) {
	for n, v := range T.data {
		if v != 0 {
			fn(T.rows[n], T.cols[n], v)
		}
	}
}

// ToCOO copies the slots into a sparse.COO, leaving the receiver untouched
// by any later compression.
func (T *Triplets) ToCOO() *sparse.COO {
	var (
		rows = make([]int, len(T.rows))
		cols = make([]int, len(T.cols))
		data = make([]float64, len(T.data))
	)
	copy(rows, T.rows)
	copy(cols, T.cols)
	copy(data, T.data)
	return sparse.NewCOO(T.nr, T.nc, rows, cols, data)
}

// ToCSR compresses the triplets into a row compressed operator.
func (T *Triplets) ToCSR() *sparse.CSR {
	return T.ToCOO().ToCSR()
}

// Dense sums the triplets into a dense matrix, for small systems and checks.
func (T *Triplets) Dense() (R *mat.Dense) {
	R = mat.NewDense(T.nr, T.nc, nil)
	for n, v := range T.data {
		i, j := T.rows[n], T.cols[n]
		R.Set(i, j, R.At(i, j)+v)
	}
	return
}

// MulVec computes dst = A*x, or dst = A^T*x when trans is set.
func MulVec(dst []float64, A Operator, trans bool, x []float64) {
	nr, nc := A.Dims()
	if trans {
		nr, nc = nc, nr
	}
	if len(dst) != nr || len(x) != nc {
		panic(fmt.Errorf("dimension mismatch: A is %dx%d, len(dst) = %d, len(x) = %d",
			nr, nc, len(dst), len(x)))
	}
	for i := range dst {
		dst[i] = 0
	}
	if trans {
		A.DoNonZero(func(i, j int, v float64) { dst[j] += v * x[i] })
		return
	}
	A.DoNonZero(func(i, j int, v float64) { dst[i] += v * x[j] })
}
