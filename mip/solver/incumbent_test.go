package solver

import (
	"bytes"
	"math"
	"testing"

	"github.com/consensys/gomip/mip"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

func setupSolver(t *testing.T, results []lpResult, opts ...Option) (*Solver, *fakes) {
	t.Helper()
	s, f := newTestSolver(t, testModel(), results, opts...)
	s.runPresolve()
	require.Equal(t, mip.StatusNotSet, s.status)
	s.runSetup()
	require.Equal(t, mip.StatusNotSet, s.status)
	return s, f
}

func TestTrySolutionAcceptsFeasible(t *testing.T) {
	assert := require.New(t)
	s, f := setupSolver(t, nil)

	assert.True(s.TrySolution([]float64{1, 0, 0}, SourceHeuristic))
	assert.Equal(1.0, s.upperBound)
	assert.True(s.SolutionFeasible())
	assert.Less(s.upperLimit, 1.0)
	assert.Equal(int64(1), s.numImprovingSols)
	// the new cutoff was pushed into the node queue
	assert.Len(f.queue.pruneAt, 1)

	sol, obj := s.Solution()
	assert.Equal(1.0, obj)
	assert.Equal([]float64{1, 0, 0}, sol)
}

func TestTrySolutionUpperBoundMonotonic(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil)

	assert.True(s.TrySolution([]float64{2, 1, 0}, SourceHeuristic))
	assert.Equal(3.0, s.upperBound)

	// a worse candidate never raises the bound
	assert.True(s.TrySolution([]float64{3, 2, 0}, SourceHeuristic))
	assert.Equal(3.0, s.upperBound)

	assert.True(s.TrySolution([]float64{0, 1, 0}, SourceHeuristic))
	assert.Equal(1.0, s.upperBound)
	assert.Equal(int64(2), s.numImprovingSols)
}

func TestTrySolutionRejectsViolations(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil)

	// integrality violated beyond feastol
	assert.False(s.TrySolution([]float64{1 + 2e-6, 0.5, 0}, SourceHeuristic))
	// bound violated beyond feastol
	assert.False(s.TrySolution([]float64{-2e-6, 1, 0}, SourceHeuristic))
	// row x0+x1+x2 >= 1 violated
	assert.False(s.TrySolution([]float64{0, 0, 0}, SourceHeuristic))
	assert.Equal(math.Inf(1), s.upperBound)

	// violations within feastol pass
	assert.True(s.TrySolution([]float64{1 + 5e-7, 0, 0}, SourceHeuristic))
}

func TestCheckSolution(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil)

	assert.True(s.CheckSolution([]float64{1, 0, 0}))
	assert.True(s.CheckSolution([]float64{0, 0, 1.5}))
	assert.False(s.CheckSolution([]float64{0.5, 0, 0.5}))
	assert.False(s.CheckSolution(nil))
}

func TestObjectiveCutoffUsesIntegrality(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil)

	// all objective coefficients are integral on integer columns except the
	// continuous x2, which carries cost 1 as well, so the objective is not
	// integral; zero out the continuous cost and re-detect
	s.model.ColCost[2] = 0
	s.checkObjIntegrality()
	assert.True(s.objIntegral)
	assert.Equal(1.0, s.objScale)

	assert.True(s.TrySolution([]float64{2, 1, 0}, SourceHeuristic))
	// only solutions at most 2 (plus tolerance) remain interesting
	assert.InDelta(2.0, s.upperLimit, 2*s.feastol)
}

func TestImprovingSolutionsStreamed(t *testing.T) {
	assert := require.New(t)
	var buf bytes.Buffer
	s, _ := setupSolver(t, nil, WithImprovingSolutionWriter(&buf))

	assert.True(s.TrySolution([]float64{2, 1, 0}, SourceHeuristic))
	assert.True(s.TrySolution([]float64{1, 0, 0}, SourceHeuristic))

	dec := cbor.NewDecoder(&buf)
	var records []struct {
		Objective float64   `cbor:"1,keyasint"`
		ColValue  []float64 `cbor:"2,keyasint"`
	}
	for {
		var rec struct {
			Objective float64   `cbor:"1,keyasint"`
			ColValue  []float64 `cbor:"2,keyasint"`
		}
		if err := dec.Decode(&rec); err != nil {
			break
		}
		records = append(records, rec)
	}
	assert.Len(records, 2)
	assert.Equal(3.0, records[0].Objective)
	assert.Equal(1.0, records[1].Objective)
	assert.Equal([]float64{1, 0, 0}, records[1].ColValue)
}

func TestRepairStoresRepairedSolution(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil)
	repair := &fakeRepair{sol: []float64{0, 1, 0}, feasible: true}
	s.repair = repair

	obj := s.transformToOriginalSpace([]float64{0.4, 0.6, 0}, true)

	assert.Equal(1, repair.calls)
	// integers were fixed to their rounded values, integrality dropped
	assert.Equal([]float64{0, 1, 0}, repair.fixed.ColLower)
	assert.Equal([]float64{0, 1, 10}, repair.fixed.ColUpper)
	assert.Nil(repair.fixed.Integrality)

	assert.Equal(1.0, obj)
	assert.True(s.SolutionFeasible())
	assert.Equal([]float64{0, 1, 0}, s.solution)
	assert.Equal(1.0, s.solutionObjective)
}

func TestRepairInfeasibleKeepsFallback(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil)
	repair := &fakeRepair{feasible: false}
	s.repair = repair

	obj := s.transformToOriginalSpace([]float64{0.4, 0.6, 0}, true)

	assert.Equal(1, repair.calls)
	// never usable for bounding
	assert.Equal(math.Inf(1), obj)
	assert.Equal(math.Inf(1), s.upperBound)

	// the violating candidate is kept as a fallback answer
	assert.False(s.SolutionFeasible())
	assert.Equal([]float64{0.4, 0.6, 0}, s.solution)
	assert.InDelta(0.4, s.integralityViolation, 1e-12)
}

func TestRepairStillViolatingRejected(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil)
	repair := &fakeRepair{sol: []float64{0.3, 1, 0}, feasible: true}
	s.repair = repair

	obj := s.transformToOriginalSpace([]float64{0.4, 0.6, 0}, true)

	// the repaired point is re-measured exactly once and rejected
	assert.Equal(1, repair.calls)
	assert.Equal(math.Inf(1), obj)
	assert.False(s.SolutionFeasible())
	assert.Equal([]float64{0.3, 1, 0}, s.solution)
	assert.InDelta(0.3, s.integralityViolation, 1e-12)
}

func TestRepairFallbackNeverReplacesFeasibleSolution(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil)
	s.repair = &fakeRepair{feasible: false}

	assert.True(s.TrySolution([]float64{1, 0, 0}, SourceHeuristic))

	obj := s.transformToOriginalSpace([]float64{0.4, 0.6, 0}, true)
	assert.Equal(math.Inf(1), obj)
	assert.True(s.SolutionFeasible())
	assert.Equal([]float64{1, 0, 0}, s.solution)
}

func TestBoundsForDisplay(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil)

	dual, primal, gap := s.Bounds()
	assert.Equal(math.Inf(-1), dual)
	assert.Equal(math.Inf(1), primal)
	assert.Equal(math.Inf(1), gap)

	s.lowerBound = 1
	assert.True(s.TrySolution([]float64{2, 0, 0}, SourceHeuristic))
	dual, primal, gap = s.Bounds()
	assert.Equal(1.0, dual)
	assert.Equal(2.0, primal)
	assert.InDelta(50.0, gap, 1e-9)

	// a zero primal bound cannot carry a relative gap
	s.upperBound = 0
	s.lowerBound = -1
	_, _, gap = s.Bounds()
	assert.Equal(math.Inf(1), gap)
	s.lowerBound = 0
	_, _, gap = s.Bounds()
	assert.Equal(0.0, gap)
}

func TestBoundsForDisplayMaximize(t *testing.T) {
	assert := require.New(t)
	m := testModel()
	m.Sense = mip.Maximize
	m.ColUpper = []float64{3, 3, 0}
	s, _ := newTestSolver(t, m, nil)
	s.runPresolve()
	s.runSetup()

	// internally minimizes the negated objective
	assert.True(s.TrySolution([]float64{3, 2, 0}, SourceHeuristic))
	s.lowerBound = -6

	dual, primal, gap := s.Bounds()
	assert.Equal(5.0, primal)
	assert.Equal(6.0, dual)
	assert.InDelta(20.0, gap, 1e-9)

	_, obj := s.Solution()
	assert.Equal(5.0, obj)
}
