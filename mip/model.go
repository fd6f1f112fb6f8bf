package mip

import (
	"math"

	"github.com/bits-and-blooms/bitset"
)

// Model is a linear model min c'x + offset, rowLower <= Ax <= rowUpper,
// colLower <= x <= colUpper, with per-column integrality. The constraint
// matrix is stored column-wise (compressed sparse column).
type Model struct {
	NumCol int
	NumRow int

	ColCost  []float64
	ColLower []float64
	ColUpper []float64
	RowLower []float64
	RowUpper []float64

	// column-wise matrix: column j holds entries AIndex[AStart[j]:AStart[j+1]]
	AStart []int
	AIndex []int
	AValue []float64

	Integrality []VarType

	Offset float64
	Sense  ObjSense

	ColNames []string
	RowNames []string
}

// RowMatrix is the row-wise copy of a model matrix, used for row activity
// computation and propagation.
type RowMatrix struct {
	Start []int
	Index []int
	Value []float64
}

// NumNonzeros returns the number of matrix entries.
func (m *Model) NumNonzeros() int {
	if len(m.AStart) == 0 {
		return 0
	}
	return m.AStart[m.NumCol]
}

// VarType returns the integrality of column col; models without an
// integrality vector are all-continuous.
func (m *Model) VarType(col int) VarType {
	if len(m.Integrality) == 0 {
		return Continuous
	}
	return m.Integrality[col]
}

// ColName returns the name of column col, or "" if the model is unnamed.
func (m *Model) ColName(col int) string {
	if col < 0 || col >= len(m.ColNames) {
		return ""
	}
	return m.ColNames[col]
}

// RowName returns the name of row row, or "" if the model is unnamed.
func (m *Model) RowName(row int) string {
	if row < 0 || row >= len(m.RowNames) {
		return ""
	}
	return m.RowNames[row]
}

// Transpose builds the row-wise copy of the matrix.
func (m *Model) Transpose() RowMatrix {
	nnz := m.NumNonzeros()
	r := RowMatrix{
		Start: make([]int, m.NumRow+1),
		Index: make([]int, nnz),
		Value: make([]float64, nnz),
	}
	for _, row := range m.AIndex {
		r.Start[row+1]++
	}
	for i := 0; i < m.NumRow; i++ {
		r.Start[i+1] += r.Start[i]
	}
	pos := make([]int, m.NumRow)
	copy(pos, r.Start[:m.NumRow])
	for col := 0; col < m.NumCol; col++ {
		for k := m.AStart[col]; k < m.AStart[col+1]; k++ {
			row := m.AIndex[k]
			r.Index[pos[row]] = col
			r.Value[pos[row]] = m.AValue[k]
			pos[row]++
		}
	}
	return r
}

// Copy returns a deep copy of the model.
func (m *Model) Copy() *Model {
	c := &Model{
		NumCol: m.NumCol,
		NumRow: m.NumRow,
		Offset: m.Offset,
		Sense:  m.Sense,
	}
	c.ColCost = append([]float64(nil), m.ColCost...)
	c.ColLower = append([]float64(nil), m.ColLower...)
	c.ColUpper = append([]float64(nil), m.ColUpper...)
	c.RowLower = append([]float64(nil), m.RowLower...)
	c.RowUpper = append([]float64(nil), m.RowUpper...)
	c.AStart = append([]int(nil), m.AStart...)
	c.AIndex = append([]int(nil), m.AIndex...)
	c.AValue = append([]float64(nil), m.AValue...)
	c.Integrality = append([]VarType(nil), m.Integrality...)
	c.ColNames = append([]string(nil), m.ColNames...)
	c.RowNames = append([]string(nil), m.RowNames...)
	return c
}

// ColLocks counts, per column, the number of rows whose feasibility can be
// violated by moving the column up (uplocks) or down (downlocks).
func (m *Model) ColLocks() (uplocks, downlocks []int) {
	uplocks = make([]int, m.NumCol)
	downlocks = make([]int, m.NumCol)
	for col := 0; col < m.NumCol; col++ {
		for k := m.AStart[col]; k < m.AStart[col+1]; k++ {
			row := m.AIndex[k]
			if m.RowLower[row] != -Inf {
				if m.AValue[k] < 0 {
					uplocks[col]++
				} else {
					downlocks[col]++
				}
			}
			if m.RowUpper[row] != Inf {
				if m.AValue[k] < 0 {
					downlocks[col]++
				} else {
					uplocks[col]++
				}
			}
		}
	}
	return uplocks, downlocks
}

// RowProperties scans the row-wise matrix and returns, per row, whether all
// entries have integral coefficients on integral columns, and the maximal
// absolute coefficient used to filter propagation. Integral row bounds are
// rounded in place by feastol so that propagation works on the tight values.
func (m *Model) RowProperties(rows RowMatrix, feastol, epsilon float64) (integral *bitset.BitSet, maxAbsCoef []float64) {
	integral = bitset.New(uint(m.NumRow))
	maxAbsCoef = make([]float64, m.NumRow)
	for i := 0; i < m.NumRow; i++ {
		maxabs := 0.0
		isIntegral := true
		for k := rows.Start[i]; k < rows.Start[i+1]; k++ {
			if isIntegral {
				if m.VarType(rows.Index[k]) == Continuous {
					isIntegral = false
				} else {
					v := rows.Value[k]
					if math.Abs(v-math.Floor(v+0.5)) > epsilon {
						isIntegral = false
					}
				}
			}
			maxabs = math.Max(maxabs, math.Abs(rows.Value[k]))
		}
		if isIntegral {
			integral.Set(uint(i))
			if m.RowLower[i] != -Inf {
				m.RowLower[i] = math.Ceil(m.RowLower[i] - feastol)
			}
			if m.RowUpper[i] != Inf {
				m.RowUpper[i] = math.Floor(m.RowUpper[i] + feastol)
			}
		}
		maxAbsCoef[i] = maxabs
	}
	return integral, maxAbsCoef
}
