package solver

import (
	"math"
	"testing"

	"github.com/consensys/gomip/mip"
	"github.com/stretchr/testify/require"
)

func TestRunSetupClassifiesColumns(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil)

	assert.Equal([]int{0, 1}, s.integerCols)
	assert.Equal([]int{0, 1}, s.integralCols)
	assert.Equal([]int{2}, s.continuousCols)
	assert.Empty(s.implintCols)
	assert.Equal(2, s.numIntegerCols)
	// two integer columns with bound range 3 each
	assert.Equal(4, s.maxTreeSizeLog2)
}

func TestRunSetupMIPStart(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil, WithMIPStart([]float64{2, 1, 0}))

	assert.Equal(3.0, s.upperBound)
	assert.NotNil(s.incumbent)
	assert.True(s.SolutionFeasible())
	assert.Less(s.upperLimit, 3.0)

	_, obj := s.Solution()
	assert.Equal(3.0, obj)
}

func TestRunSetupInfeasibleMIPStartIgnored(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil, WithMIPStart([]float64{0.5, 0, 0}))

	// kept as a fallback answer but never used for bounding
	assert.Equal(math.Inf(1), s.upperBound)
	assert.False(s.SolutionFeasible())
}

func TestRunSetupRejectsUnknownVarType(t *testing.T) {
	m := testModel()
	m.Integrality[2] = mip.VarType(7)
	s, _ := newTestSolver(t, m, nil)
	s.runPresolve()
	require.PanicsWithValue(t, "unexpected variable type unknown for column 2",
		func() { s.runSetup() })
}

func TestRowAndLockCachesExposed(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil)

	// every column appears with a positive coefficient in a >= row
	assert.Equal([]int{0, 0, 0}, s.UpLocks())
	assert.Equal([]int{1, 1, 1}, s.DownLocks())
	// the continuous x2 blocks row integrality
	assert.False(s.RowIntegral(0))
	assert.Equal(1.0, s.MaxAbsRowCoef(0))

	m := testModel()
	m.Integrality[2] = mip.Integer
	m.RowLower[0] = 0.5
	s, _ = newTestSolver(t, m, nil)
	s.runPresolve()
	s.runSetup()
	assert.True(s.RowIntegral(0))
	// integral rows get their bounds rounded during setup
	assert.Equal(1.0, s.model.RowLower[0])
}

func TestPercentageInactiveIntegers(t *testing.T) {
	assert := require.New(t)
	s, f := setupSolver(t, nil)

	assert.Equal(0.0, s.percentageInactiveIntegers())

	f.domain.fixed[0] = true
	s.removeFixedIndices()
	assert.Equal(50.0, s.percentageInactiveIntegers())

	f.domain.fixed[1] = true
	s.removeFixedIndices()
	assert.Equal(100.0, s.percentageInactiveIntegers())
}

func TestCheckObjIntegrality(t *testing.T) {
	assert := require.New(t)
	s, _ := setupSolver(t, nil)

	// cost on the continuous column blocks integrality
	assert.False(s.objIntegral)

	s.model.ColCost = []float64{2, 4, 0}
	s.checkObjIntegrality()
	assert.True(s.objIntegral)
	assert.Equal(1.0, s.objScale)

	s.model.ColCost = []float64{0.5, 0.25, 0}
	s.checkObjIntegrality()
	assert.True(s.objIntegral)
	assert.Equal(4.0, s.objScale)
}
