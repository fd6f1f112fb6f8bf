package solver

import "math"

// moreHeuristicsAllowed caps the cumulative heuristic LP iteration spend.
//
// In a sub-solve the search is truncated, so heuristics get a flat fraction
// of the iterations spent so far. Very early in a top-level search the
// pruned-weight extrapolation is meaningless, so a flat fraction plus a
// fixed offset applies instead. Otherwise the total required effort is
// extrapolated from the current run's node iteration share and the pruned
// tree weight, and compared against a target that front-loads the allowed
// heuristic spend into the first 30-80% of the tree exploration.
func (s *Solver) moreHeuristicsAllowed() bool {
	if s.cfg.SubSolve {
		return float64(s.heurLPIters) < float64(s.totalLPIters)*s.cfg.HeuristicEffort
	}

	if s.prunedTreeweight < 1e-3 &&
		s.numLeaves-s.numLeavesBeforeRun < 10 &&
		s.numNodes-s.numNodesBeforeRun < 1000 {
		// initial offset of 10000 heuristic LP iterations
		return float64(s.heurLPIters) < float64(s.totalLPIters)*s.cfg.HeuristicEffort+10000
	}

	if s.heurLPIters < 100000+((s.totalLPIters-s.heurLPIters-s.sbLPIters)>>1) {
		// only the node LP iterations of the current run are predictive of
		// the total iterations needed to finish the search
		heurItersCurrRun := s.heurLPIters - s.heurLPItersBeforeRun
		sbItersCurrRun := s.sbLPIters - s.sbLPItersBeforeRun
		nodeItersCurrRun := s.totalLPIters - s.totalLPItersBeforeRun -
			heurItersCurrRun - sbItersCurrRun

		// estimate the total fraction spent on heuristics assuming node
		// iterations grow proportional to the pruned tree weight while
		// everything else is a fixed offset
		totalHeuristicEffortEstim := float64(s.heurLPIters) /
			(float64(s.totalLPIters-nodeItersCurrRun) +
				float64(nodeItersCurrRun)/math.Max(0.01, s.prunedTreeweight))

		// spend all heuristic effort available for the first 30% of the
		// exploration as early as possible; after that allow the share that
		// is proportionally adequate for finishing within the first 80%
		target := math.Max(0.3/0.8, math.Min(s.prunedTreeweight, 0.8)/0.8) *
			s.cfg.HeuristicEffort
		if totalHeuristicEffortEstim < target {
			return true
		}
	}

	return false
}
