package mip

import (
	"math"

	"github.com/consensys/gomip/internal/quad"
)

// Solution is a primal point of a model. RowValue is only populated once
// ComputeRowValues has run; postsolve does not produce row values.
type Solution struct {
	ColValue []float64
	RowValue []float64
}

// ComputeRowValues fills in RowValue from ColValue using compensated
// accumulation, so that activities sitting exactly at a row bound are not
// misjudged by summation error.
func (s *Solution) ComputeRowValues(m *Model, rows RowMatrix) {
	s.RowValue = make([]float64, m.NumRow)
	for i := 0; i < m.NumRow; i++ {
		activity := quad.New(0)
		for k := rows.Start[i]; k < rows.Start[i+1]; k++ {
			activity = activity.MulAdd(rows.Value[k], s.ColValue[rows.Index[k]])
		}
		s.RowValue[i] = activity.Float64()
	}
}

// Objective returns c'x + offset at extended precision.
func (s *Solution) Objective(m *Model) float64 {
	obj := quad.New(m.Offset)
	for i := 0; i < m.NumCol; i++ {
		obj = obj.MulAdd(m.ColCost[i], s.ColValue[i])
	}
	return obj.Float64()
}

// Violations are the maximal bound, integrality and row infeasibilities of a
// solution, together with the index of the worst offender of each kind (-1
// when every value is within tolerance).
type Violations struct {
	Bound       float64
	Integrality float64
	Row         float64

	WorstBoundCol int
	WorstIntCol   int
	WorstRow      int
}

// Feasible reports whether all three violation maxima are within tol.
func (v Violations) Feasible(tol float64) bool {
	return v.Bound <= tol && v.Integrality <= tol && v.Row <= tol
}

// Measure computes the violations of s against the bounds, integrality and
// rows of m. Offenders are only recorded above feastol; the maxima are exact.
func (s *Solution) Measure(m *Model, feastol float64) Violations {
	v := Violations{WorstBoundCol: -1, WorstIntCol: -1, WorstRow: -1}

	for i := 0; i < m.NumCol; i++ {
		value := s.ColValue[i]

		if m.VarType(i) == Integer {
			intval := math.Floor(value + 0.5)
			infeas := math.Abs(intval - value)
			if infeas > feastol {
				v.WorstIntCol = i
			}
			v.Integrality = math.Max(v.Integrality, infeas)
		}

		var infeas float64
		if value < m.ColLower[i]-feastol {
			infeas = m.ColLower[i] - value
		} else if value > m.ColUpper[i]+feastol {
			infeas = value - m.ColUpper[i]
		} else {
			continue
		}
		if infeas > feastol {
			v.WorstBoundCol = i
		}
		v.Bound = math.Max(v.Bound, infeas)
	}

	for i := 0; i < m.NumRow; i++ {
		value := s.RowValue[i]
		var infeas float64
		if value < m.RowLower[i]-feastol {
			infeas = m.RowLower[i] - value
		} else if value > m.RowUpper[i]+feastol {
			infeas = value - m.RowUpper[i]
		} else {
			continue
		}
		if infeas > feastol {
			v.WorstRow = i
		}
		v.Row = math.Max(v.Row, infeas)
	}

	return v
}
