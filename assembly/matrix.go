package assembly

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
	"github.com/notargets/BEMKernel/utils"
	"gonum.org/v1/gonum/mat"
)

// Matrix is an assembly output. Assembly only adds into entries; it never
// resizes the output or overwrites what a caller already stored.
type Matrix[T utils.Scalar] interface {
	Dims() (r, c int)
	At(i, j int) T
	AddAt(i, j int, v T)
}

// Dense is a real dense output backed by gonum
type Dense struct {
	*mat.Dense
}

func NewDense(r, c int) *Dense { return &Dense{Dense: mat.NewDense(r, c, nil)} }

func (d *Dense) AddAt(i, j int, v float64) { d.Set(i, j, d.At(i, j)+v) }

// CDense is a complex dense output backed by gonum
type CDense struct {
	*mat.CDense
}

func NewCDense(r, c int) *CDense { return &CDense{CDense: mat.NewCDense(r, c, nil)} }

func (d *CDense) AddAt(i, j int, v complex128) { d.Set(i, j, d.At(i, j)+v) }

// Triplets accumulates a sparse matrix as (row, column, value) entries.
// Repeated positions are summed into one entry; entries keep the order in
// which their position was first added.
type Triplets[T utils.Scalar] struct {
	rows, cols int
	Rows, Cols []int
	Vals       []T
	index      map[[2]int]int
}

func NewTriplets[T utils.Scalar](r, c int) *Triplets[T] {
	return &Triplets[T]{rows: r, cols: c, index: make(map[[2]int]int)}
}

func (t *Triplets[T]) Dims() (r, c int) { return t.rows, t.cols }
func (t *Triplets[T]) Len() int         { return len(t.Vals) }

func (t *Triplets[T]) At(i, j int) T {
	if k, ok := t.index[[2]int{i, j}]; ok {
		return t.Vals[k]
	}
	var zero T
	return zero
}

func (t *Triplets[T]) AddAt(i, j int, v T) {
	if i < 0 || i >= t.rows || j < 0 || j >= t.cols {
		panic(fmt.Sprintf("triplet (%d,%d) outside %d×%d", i, j, t.rows, t.cols))
	}
	key := [2]int{i, j}
	if k, ok := t.index[key]; ok {
		t.Vals[k] += v
		return
	}
	t.index[key] = len(t.Vals)
	t.Rows = append(t.Rows, i)
	t.Cols = append(t.Cols, j)
	t.Vals = append(t.Vals, v)
}

// AddTriplets accumulates every entry of other into t
func (t *Triplets[T]) AddTriplets(other *Triplets[T]) {
	for k, v := range other.Vals {
		t.AddAt(other.Rows[k], other.Cols[k], v)
	}
}

// CSR is a compressed sparse row copy of a triplet matrix with columns
// ascending within each row
type CSR[T utils.Scalar] struct {
	Rows, Cols int
	RowPtr     []int
	ColInd     []int
	Vals       []T
}

func (t *Triplets[T]) ToCSR() *CSR[T] {
	order := make([]int, len(t.Vals))
	for k := range order {
		order[k] = k
	}
	sort.Slice(order, func(a, b int) bool {
		ka, kb := order[a], order[b]
		if t.Rows[ka] != t.Rows[kb] {
			return t.Rows[ka] < t.Rows[kb]
		}
		return t.Cols[ka] < t.Cols[kb]
	})
	csr := &CSR[T]{
		Rows:   t.rows,
		Cols:   t.cols,
		RowPtr: make([]int, t.rows+1),
		ColInd: make([]int, len(order)),
		Vals:   make([]T, len(order)),
	}
	for n, k := range order {
		csr.RowPtr[t.Rows[k]+1]++
		csr.ColInd[n] = t.Cols[k]
		csr.Vals[n] = t.Vals[k]
	}
	for i := 0; i < t.rows; i++ {
		csr.RowPtr[i+1] += csr.RowPtr[i]
	}
	return csr
}

// ToSparse converts real triplets to a james-bowman/sparse CSR matrix
func ToSparse(t *Triplets[float64]) *sparse.CSR {
	dok := sparse.NewDOK(t.rows, t.cols)
	for k, v := range t.Vals {
		dok.Set(t.Rows[k], t.Cols[k], v)
	}
	return dok.ToCSR()
}
