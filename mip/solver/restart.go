package solver

import (
	"math"

	"github.com/consensys/gomip/mip"
)

// performRestart folds the current cuts into the model, re-presolves it and
// rebuilds the solve state. The incumbent is dropped; the best solution in
// the original space survives and is re-reduced by runSetup. The counters
// snapshotted here feed the per-run heuristic budget.
func (s *Solver) performRestart() {
	s.numRestarts++
	s.numNodesBeforeRun = s.numNodes
	s.numLeavesBeforeRun = s.numLeaves
	s.totalLPItersBeforeRun = s.totalLPIters
	s.heurLPItersBeforeRun = s.heurLPIters
	s.sepaLPItersBeforeRun = s.sepaLPIters
	s.sbLPItersBeforeRun = s.sbLPIters

	numCuts := s.relax.NumRows() - s.model.NumRow
	if numCuts > 0 {
		s.postsolve.AppendCutsToModel(numCuts)
	}

	// fold the relaxation rows, cuts included, into the model that is
	// presolved again
	offset := s.model.Offset
	folded := s.relax.LP().Copy()
	folded.Offset = offset
	folded.Sense = mip.Minimize
	folded.Integrality = append([]mip.VarType(nil), s.model.Integrality...)

	// expand the root basis to the original space before the postsolve stack
	// is extended; unmapped columns default to the lower bound status
	if s.firstRootBasis.Valid {
		rb := &mip.Basis{
			ColStatus: make([]mip.BasisStatus, s.postsolve.OrigNumCol()),
			RowStatus: make([]mip.BasisStatus, s.postsolve.OrigNumRow()),
			Valid:     true,
			Alien:     true,
		}
		for i := range rb.RowStatus {
			rb.RowStatus[i] = mip.BasisBasic
		}
		for i, st := range s.firstRootBasis.ColStatus {
			rb.ColStatus[s.postsolve.OrigColIndex(i)] = st
		}
		for i, st := range s.firstRootBasis.RowStatus {
			rb.RowStatus[s.postsolve.OrigRowIndex(i)] = st
		}
		s.rootBasis = rb
	}

	// translate the bounds back to the original space; runSetup transforms
	// them into the space of the newly presolved model
	s.upperLimit += offset
	s.optimalityLimit += offset
	s.lowerBound += offset
	s.upperBound += offset

	s.incumbent = nil
	s.prunedTreeweight = 0
	s.queue.Clear()
	s.globalOrbits = nil
	s.symmetries = nil

	// the presolver keeps its postsolve stack across restarts so that
	// reconstructed solutions always land in the original space
	reduced, stack, status := s.presolver.Run(folded)
	s.model = reduced
	s.postsolve = stack
	s.status = status

	if s.status != mip.StatusNotSet {
		// presolve decided the model; express the bounds in the final model
		// space without running setup
		s.upperLimit -= s.model.Offset
		s.optimalityLimit -= s.model.Offset
		if s.status == mip.StatusOptimal {
			s.upperBound = 0
			s.transformToOriginalSpace(nil, true)
		} else {
			s.upperBound -= s.model.Offset
		}
		s.lowerBound = s.upperBound
		if s.solutionObjective != math.Inf(1) && s.status == mip.StatusInfeasible {
			s.status = mip.StatusOptimal
		}
		return
	}

	s.runSetup()
	s.postsolve.RemoveCutsFromModel(numCuts)
	s.rootBasis = nil
}
