package solver

import (
	"fmt"
	"math"

	"github.com/consensys/gomip/debug"
	"github.com/consensys/gomip/mip"
)

// runPresolve reduces the original model, or installs an identity postsolve
// stack when presolving is disabled. A terminal status set here means
// presolve solved or disproved the model outright.
func (s *Solver) runPresolve() {
	if !s.cfg.Presolve || s.presolver == nil {
		s.model = s.origModel.Copy()
		s.postsolve = NewIdentityStack(s.origModel.NumRow, s.origModel.NumCol)
		return
	}
	reduced, stack, status := s.presolver.Run(s.origModel)
	s.model = reduced
	s.postsolve = stack
	s.status = status
}

// runSetup populates the solve state for the current (presolved) model. It
// runs on the first solve and again after every restart.
func (s *Solver) runSetup() {
	s.lastDispTime = math.Inf(-1)

	// transform the objective limits to the current model space
	s.upperLimit -= s.model.Offset
	s.optimalityLimit -= s.model.Offset
	s.lowerBound -= s.model.Offset
	s.upperBound -= s.model.Offset

	if s.solutionObjective != math.Inf(1) {
		s.incumbent = s.postsolve.ReducedPrimalSolution(s.solution)
		solobj := s.solutionObjective - s.model.Offset
		feasible := s.boundViolation <= s.feastol &&
			s.integralityViolation <= s.feastol &&
			s.rowViolation <= s.feastol
		if s.numRestarts == 0 {
			state := "infeasible"
			if feasible {
				state = "feasible"
			}
			s.log.Info().Str("state", state).Float64("objective", s.solutionObjective).
				Msg("MIP start solution")
		}
		if feasible && solobj < s.upperBound {
			s.upperBound = solobj
			newLimit := s.computeCutoff(solobj, 0, 0)
			s.saveImprovingSolution(newLimit)
			if newLimit < s.upperLimit {
				s.upperLimit = newLimit
				s.optimalityLimit = s.computeCutoff(solobj, s.cfg.AbsGap, s.cfg.RelGap)
				s.queue.SetOptimalityLimit(s.optimalityLimit)
			}
		}
	}

	if s.model.NumCol == 0 {
		s.addIncumbent(nil, 0, SourceEmptyModel)
	}

	s.queue.SetNumCol(s.model.NumCol)
	s.queue.SetOptimalityLimit(s.optimalityLimit)

	s.continuousCols = s.continuousCols[:0]
	s.integerCols = s.integerCols[:0]
	s.implintCols = s.implintCols[:0]
	s.integralCols = s.integralCols[:0]

	s.rowMatrix = s.model.Transpose()
	s.rowMatrixSet = true
	s.upLocks, s.downLocks = s.model.ColLocks()
	s.rowIntegral, s.maxAbsRowCoef = s.model.RowProperties(s.rowMatrix, s.feastol, s.epsilon)

	// compute row activities and propagate all rows once
	s.domain.ComputeRowActivities()
	s.domain.Propagate()
	if s.domain.Infeasible() {
		s.status = mip.StatusInfeasible
		s.lowerBound = math.Inf(1)
		s.prunedTreeweight = 1
		return
	}

	if s.model.NumCol == 0 {
		s.status = mip.StatusOptimal
		s.lowerBound = s.upperBound
		return
	}

	if s.checkLimits(0) {
		return
	}
	s.domain.ClearChangedCols()

	s.checkObjIntegrality()
	s.rootLPSol = nil
	s.firstLPSol = nil

	numBin := 0
	s.maxTreeSizeLog2 = 0
	for i := 0; i < s.model.NumCol; i++ {
		switch s.model.VarType(i) {
		case mip.Continuous:
			s.continuousCols = append(s.continuousCols, i)
		case mip.ImplicitInteger:
			s.implintCols = append(s.implintCols, i)
			s.integralCols = append(s.integralCols, i)
		case mip.Integer:
			s.integerCols = append(s.integerCols, i)
			s.integralCols = append(s.integralCols, i)
			boundRange := s.model.ColUpper[i] - s.model.ColLower[i]
			s.maxTreeSizeLog2 += int(math.Ceil(math.Log2(math.Min(1024, 1+boundRange))))
			if s.model.ColLower[i] == 0 && s.model.ColUpper[i] == 1 {
				numBin++
			}
		default:
			// semi-continuous variables must have been reformulated away
			// before this stage
			msg := fmt.Sprintf("unexpected variable type %v for column %d", s.model.VarType(i), i)
			s.log.Error().Str("stack", debug.Stack()).Msg(msg)
			panic(msg)
		}
	}

	s.basisTransfer()

	s.numIntegerCols = len(s.integerCols)
	s.detectSymmetries = s.detectSymmetries && numBin > 0

	ev := s.log.Info().
		Int("rows", s.model.NumRow).
		Int("cols", s.model.NumCol).
		Int("binary", numBin).
		Int("integer", s.numIntegerCols-numBin).
		Int("impliedInteger", len(s.implintCols)).
		Int("continuous", len(s.continuousCols)).
		Int("nonzeros", s.model.NumNonzeros())
	if s.numRestarts == 0 {
		ev.Msg("solving MIP model")
	} else {
		ev.Msg("model after restart")
	}

	if s.upperLimit == math.Inf(1) {
		s.analyticCenterComputed = false
	}
	s.analyticCenter = nil
	s.symmetries = nil
}

// checkObjIntegrality detects whether the objective can only take integral
// multiples of 1/scale, which tightens the cutoff arithmetic.
func (s *Solver) checkObjIntegrality() {
	s.objIntegral = true
	s.objScale = 1
	for i := 0; i < s.model.NumCol; i++ {
		if s.model.ColCost[i] != 0 && s.model.VarType(i) == mip.Continuous {
			s.objIntegral = false
			return
		}
	}
	s.objScale, s.objIntegral = mip.IntegralScale(s.model.ColCost, s.epsilon)
	if s.objIntegral && s.numRestarts == 0 {
		s.log.Info().Float64("scale", s.objScale).Msg("objective function is integral")
	}
}

// removeFixedIndices drops columns fixed by the domain from the
// classification lists so that separation and heuristics skip them.
func (s *Solver) removeFixedIndices() {
	s.integralCols = s.filterUnfixed(s.integralCols)
	s.integerCols = s.filterUnfixed(s.integerCols)
	s.implintCols = s.filterUnfixed(s.implintCols)
	s.continuousCols = s.filterUnfixed(s.continuousCols)
}

func (s *Solver) filterUnfixed(cols []int) []int {
	kept := cols[:0]
	for _, col := range cols {
		if !s.domain.IsFixed(col) {
			kept = append(kept, col)
		}
	}
	return kept
}

// percentageInactiveIntegers is the fraction of integer columns fixed or
// substituted away since setup, the restart trigger measure.
func (s *Solver) percentageInactiveIntegers() float64 {
	if s.numIntegerCols == 0 {
		return 0
	}
	active := len(s.integerCols)
	if s.cliques != nil {
		active -= s.cliques.NumSubstitutions()
	}
	return 100.0 * (1.0 - float64(active)/float64(s.numIntegerCols))
}

// basisTransfer reduces the original-space basis carried over a restart to
// the new presolved model.
func (s *Solver) basisTransfer() {
	if s.rootBasis == nil {
		return
	}
	numCol := s.model.NumCol
	numRow := s.model.NumRow
	s.firstRootBasis = mip.Basis{
		ColStatus: make([]mip.BasisStatus, numCol),
		RowStatus: make([]mip.BasisStatus, numRow),
		Valid:     true,
		Alien:     true,
	}
	for i := 0; i < numCol; i++ {
		s.firstRootBasis.ColStatus[i] = s.rootBasis.ColStatus[s.postsolve.OrigColIndex(i)]
	}
	for i := 0; i < numRow; i++ {
		s.firstRootBasis.RowStatus[i] = s.rootBasis.RowStatus[s.postsolve.OrigRowIndex(i)]
	}
}
