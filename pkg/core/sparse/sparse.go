// Package sparse implements the compressed sparse row matrix used for graph
// weights, together with the coordinate-list builder that assembles it from
// (row, col, value) triples.
//
// The builder follows scatter-with-accumulation semantics: appending the
// same (row, col) slot twice sums the contributions instead of overwriting.
// Gonum's mat package is dense-only, so this representation is hand-built;
// it stores each row as parallel index/value slices in CSR layout.
package sparse

import (
	"fmt"
	"sort"
)

// Matrix is an immutable sparse matrix in compressed sparse row form.
// Column indices within each row are strictly increasing and no explicit
// zero values are stored.
type Matrix struct {
	rows, cols int
	// rowPtr has length rows+1; row i occupies colIdx[rowPtr[i]:rowPtr[i+1]].
	rowPtr []int
	colIdx []int
	values []float64
}

// Builder accumulates (row, col, value) triples before compression.
type Builder struct {
	rows, cols int
	rowIdx     []int
	colIdx     []int
	values     []float64
}

// NewBuilder creates a builder for a rows x cols matrix.
func NewBuilder(rows, cols int) *Builder {
	return &Builder{rows: rows, cols: cols}
}

// Append records one triple. Out-of-range indices are a programming error
// and panic, matching the behavior of dense index violations.
func (b *Builder) Append(row, col int, v float64) {
	if row < 0 || row >= b.rows || col < 0 || col >= b.cols {
		panic(fmt.Sprintf("sparse: index (%d,%d) out of range for %dx%d matrix", row, col, b.rows, b.cols))
	}
	b.rowIdx = append(b.rowIdx, row)
	b.colIdx = append(b.colIdx, col)
	b.values = append(b.values, v)
}

// Build compresses the accumulated triples into a CSR matrix. Duplicate
// (row, col) slots are summed. Triples that sum to exactly zero are kept as
// stored entries; callers that need them gone can Compact afterwards.
func (b *Builder) Build() *Matrix {
	order := make([]int, len(b.rowIdx))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(x, y int) bool {
		ix, iy := order[x], order[y]
		if b.rowIdx[ix] != b.rowIdx[iy] {
			return b.rowIdx[ix] < b.rowIdx[iy]
		}
		return b.colIdx[ix] < b.colIdx[iy]
	})

	m := &Matrix{
		rows:   b.rows,
		cols:   b.cols,
		rowPtr: make([]int, b.rows+1),
	}

	lastRow, lastCol := -1, -1
	for _, idx := range order {
		r, c, v := b.rowIdx[idx], b.colIdx[idx], b.values[idx]
		if r == lastRow && c == lastCol {
			// Duplicate slot: accumulate.
			m.values[len(m.values)-1] += v
			continue
		}
		m.colIdx = append(m.colIdx, c)
		m.values = append(m.values, v)
		m.rowPtr[r+1]++
		lastRow, lastCol = r, c
	}
	for i := 0; i < b.rows; i++ {
		m.rowPtr[i+1] += m.rowPtr[i]
	}
	return m
}

// Zeros returns an empty rows x cols matrix.
func Zeros(rows, cols int) *Matrix {
	return &Matrix{rows: rows, cols: cols, rowPtr: make([]int, rows+1)}
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// IsSquare reports whether the matrix has as many rows as columns.
func (m *Matrix) IsSquare() bool { return m.rows == m.cols }

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int { return len(m.values) }

// At returns the value at (row, col), or 0 when the entry is absent.
func (m *Matrix) At(row, col int) float64 {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("sparse: index (%d,%d) out of range for %dx%d matrix", row, col, m.rows, m.cols))
	}
	lo, hi := m.rowPtr[row], m.rowPtr[row+1]
	pos := lo + sort.SearchInts(m.colIdx[lo:hi], col)
	if pos < hi && m.colIdx[pos] == col {
		return m.values[pos]
	}
	return 0
}

// Row calls fn for every stored entry (col, value) of the given row, in
// increasing column order.
func (m *Matrix) Row(row int, fn func(col int, v float64)) {
	for p := m.rowPtr[row]; p < m.rowPtr[row+1]; p++ {
		fn(m.colIdx[p], m.values[p])
	}
}

// Iterate calls fn for every stored entry in row-major order.
func (m *Matrix) Iterate(fn func(row, col int, v float64)) {
	for r := 0; r < m.rows; r++ {
		for p := m.rowPtr[r]; p < m.rowPtr[r+1]; p++ {
			fn(r, m.colIdx[p], m.values[p])
		}
	}
}

// Transpose returns the transposed matrix.
func (m *Matrix) Transpose() *Matrix {
	b := NewBuilder(m.cols, m.rows)
	m.Iterate(func(r, c int, v float64) {
		b.Append(c, r, v)
	})
	return b.Build()
}

// Scale returns the matrix with every stored value multiplied by f.
func (m *Matrix) Scale(f float64) *Matrix {
	out := m.clone()
	for i := range out.values {
		out.values[i] *= f
	}
	return out
}

// Add returns m + other over the union of both stored patterns.
func (m *Matrix) Add(other *Matrix) *Matrix {
	m.mustSameShape(other)
	b := NewBuilder(m.rows, m.cols)
	m.Iterate(b.Append)
	other.Iterate(b.Append)
	return b.Build()
}

// MaxElementwise returns the elementwise maximum of m and other, treating
// absent entries as zero. With non-negative weights this realizes the
// union-of-edges symmetrization.
func (m *Matrix) MaxElementwise(other *Matrix) *Matrix {
	m.mustSameShape(other)
	b := NewBuilder(m.rows, m.cols)
	for r := 0; r < m.rows; r++ {
		pa, enda := m.rowPtr[r], m.rowPtr[r+1]
		pb, endb := other.rowPtr[r], other.rowPtr[r+1]
		for pa < enda || pb < endb {
			switch {
			case pb >= endb || (pa < enda && m.colIdx[pa] < other.colIdx[pb]):
				b.Append(r, m.colIdx[pa], max(m.values[pa], 0))
				pa++
			case pa >= enda || other.colIdx[pb] < m.colIdx[pa]:
				b.Append(r, other.colIdx[pb], max(other.values[pb], 0))
				pb++
			default:
				b.Append(r, m.colIdx[pa], max(m.values[pa], other.values[pb]))
				pa++
				pb++
			}
		}
	}
	return b.Build()
}

// ZeroDiag returns a copy with all diagonal entries removed from the
// stored pattern.
func (m *Matrix) ZeroDiag() *Matrix {
	b := NewBuilder(m.rows, m.cols)
	m.Iterate(func(r, c int, v float64) {
		if r != c {
			b.Append(r, c, v)
		}
	})
	return b.Build()
}

// Compact returns a copy without entries that are exactly zero.
func (m *Matrix) Compact() *Matrix {
	b := NewBuilder(m.rows, m.cols)
	m.Iterate(func(r, c int, v float64) {
		if v != 0 {
			b.Append(r, c, v)
		}
	})
	return b.Build()
}

// Equal reports exact equality of shape and of the effective values,
// ignoring differences in stored-zero patterns.
func (m *Matrix) Equal(other *Matrix) bool {
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	a, b := m.Compact(), other.Compact()
	if len(a.values) != len(b.values) {
		return false
	}
	for i := range a.values {
		if a.colIdx[i] != b.colIdx[i] || a.values[i] != b.values[i] {
			return false
		}
	}
	for i := range a.rowPtr {
		if a.rowPtr[i] != b.rowPtr[i] {
			return false
		}
	}
	return true
}

// IsSymmetric reports whether m equals its transpose exactly (no floating
// tolerance; symmetrization decisions are made on bit equality).
func (m *Matrix) IsSymmetric() bool {
	if !m.IsSquare() {
		return false
	}
	return m.Equal(m.Transpose())
}

// Degrees returns the vector of row sums (weighted vertex degrees for a
// weight matrix).
func (m *Matrix) Degrees() []float64 {
	d := make([]float64, m.rows)
	m.Iterate(func(r, _ int, v float64) {
		d[r] += v
	})
	return d
}

// Laplacian returns the combinatorial Laplacian D - W of a square weight
// matrix, where D is the diagonal degree matrix.
func (m *Matrix) Laplacian() *Matrix {
	if !m.IsSquare() {
		panic("sparse: laplacian of a non-square matrix")
	}
	deg := m.Degrees()
	b := NewBuilder(m.rows, m.cols)
	for i, d := range deg {
		if d != 0 {
			b.Append(i, i, d)
		}
	}
	m.Iterate(func(r, c int, v float64) {
		b.Append(r, c, -v)
	})
	return b.Build()
}

// Dense expands the matrix to a row-major [][]float64. Intended for tests
// and small graphs only.
func (m *Matrix) Dense() [][]float64 {
	out := make([][]float64, m.rows)
	for i := range out {
		out[i] = make([]float64, m.cols)
	}
	m.Iterate(func(r, c int, v float64) {
		out[r][c] = v
	})
	return out
}

func (m *Matrix) clone() *Matrix {
	out := &Matrix{
		rows:   m.rows,
		cols:   m.cols,
		rowPtr: append([]int(nil), m.rowPtr...),
		colIdx: append([]int(nil), m.colIdx...),
		values: append([]float64(nil), m.values...),
	}
	return out
}

func (m *Matrix) mustSameShape(other *Matrix) {
	if m.rows != other.rows || m.cols != other.cols {
		panic(fmt.Sprintf("sparse: shape mismatch %dx%d vs %dx%d", m.rows, m.cols, other.rows, other.cols))
	}
}
