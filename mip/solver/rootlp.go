package solver

import (
	"math"

	"github.com/consensys/gomip/mip"
)

// evaluateRootLp runs the propagate/resolve fixed point at the root: domain
// propagation, orbital fixing, pushing changed bounds into the relaxation,
// re-solving when anything moved, raising the dual bound and pruning against
// the optimality limit. It repeats until a propagation pass leaves every
// bound unchanged and returns the terminal relaxation status.
func (s *Solver) evaluateRootLp() Status {
	for {
		s.domain.Propagate()

		if s.globalOrbits != nil && !s.domain.Infeasible() {
			s.globalOrbits.OrbitalFixing(s.domain)
		}

		if s.domain.Infeasible() {
			s.lowerBound = s.upperBound
			s.prunedTreeweight = 1
			s.numNodes++
			s.numLeaves++
			return StatusInfeasible
		}

		lpBoundsChanged := false
		if len(s.domain.ChangedCols()) > 0 {
			lpBoundsChanged = true
			s.removeFixedIndices()
			s.relax.FlushDomain(s.domain)
		}

		lpWasSolved := false
		var status Status
		if lpBoundsChanged || s.relax.Status() == StatusNotSet {
			iters := -s.relax.Iterations()
			status = s.relax.Resolve(s.domain)
			iters += s.relax.Iterations()
			s.totalLPIters += iters
			s.avgRootLPIters = s.relax.AvgSolveIters()
			lpWasSolved = true

			if status == StatusUnbounded {
				if s.solution == nil {
					s.status = mip.StatusUnboundedOrInfeasible
				} else {
					s.status = mip.StatusUnbounded
				}
				s.prunedTreeweight = 1
				s.numNodes++
				s.numLeaves++
				return status
			}

			if status == StatusOptimal && len(s.relax.FractionalIntegers()) == 0 &&
				s.addIncumbent(s.relax.Solution(), s.relax.Objective(), SourceEvaluateNode) {
				s.status = mip.StatusOptimal
				s.lowerBound = s.upperBound
				s.prunedTreeweight = 1
				s.numNodes++
				s.numLeaves++
				return StatusInfeasible
			}
		} else {
			status = s.relax.Status()
		}

		if status == StatusInfeasible {
			s.lowerBound = s.upperBound
			s.prunedTreeweight = 1
			s.numNodes++
			s.numLeaves++
			return status
		}

		if dualFeasible(status) {
			s.lowerBound = math.Max(s.relax.Objective(), s.lowerBound)
			if lpWasSolved && s.redcost != nil {
				s.redcost.AddRootRedcost(s.relax.Duals(), s.relax.Objective())
				if s.upperLimit != math.Inf(1) {
					s.redcost.PropagateRootRedcost()
				}
			}
		}

		if s.lowerBound > s.optimalityLimit {
			s.prunedTreeweight = 1
			s.numNodes++
			s.numLeaves++
			return StatusInfeasible
		}

		if len(s.domain.ChangedCols()) == 0 {
			return status
		}
	}
}
