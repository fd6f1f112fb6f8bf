package solver

import (
	"math"
	"time"

	"github.com/consensys/gomip/mip"
)

// checkLimits evaluates the termination conditions in order: user interrupt,
// objective target, node count, leaf count, improving solution count, wall
// clock. The first limit hit sets the terminal status exactly once; every
// call reports whether a stop condition currently holds, independent of
// which call set the status.
func (s *Solver) checkLimits(nodeOffset int64) bool {
	if !s.cfg.SubSolve && s.cfg.Interrupt != nil && s.cfg.Interrupt() {
		if s.status == mip.StatusNotSet {
			s.log.Debug().Msg("user interrupt")
			s.status = mip.StatusInterrupt
		}
		return true
	}

	// the solve works on a minimization problem, so the stored objective is
	// sense-flipped back before comparing with the user-facing target
	if !s.cfg.SubSolve && s.solutionObjective < math.Inf(1) &&
		s.cfg.ObjectiveTarget > math.Inf(-1) {
		sense := float64(s.origModel.Sense)
		if s.solutionObjective < sense*s.cfg.ObjectiveTarget {
			if s.status == mip.StatusNotSet {
				s.log.Debug().Msg("reached objective target")
				s.status = mip.StatusObjectiveTarget
			}
			return true
		}
	}

	if s.cfg.MaxNodes != math.MaxInt64 && s.numNodes+nodeOffset >= s.cfg.MaxNodes {
		if s.status == mip.StatusNotSet {
			s.log.Debug().Msg("reached node limit")
			s.status = mip.StatusSolutionLimit
		}
		return true
	}

	if s.cfg.MaxLeaves != math.MaxInt64 && s.numLeaves >= s.cfg.MaxLeaves {
		if s.status == mip.StatusNotSet {
			s.log.Debug().Msg("reached leaf node limit")
			s.status = mip.StatusSolutionLimit
		}
		return true
	}

	if s.cfg.MaxImprovingSols != math.MaxInt64 && s.numImprovingSols >= s.cfg.MaxImprovingSols {
		if s.status == mip.StatusNotSet {
			s.log.Debug().Msg("reached improving solution limit")
			s.status = mip.StatusSolutionLimit
		}
		return true
	}

	if s.cfg.TimeLimit > 0 && time.Since(s.startTime) >= s.cfg.TimeLimit {
		if s.status == mip.StatusNotSet {
			s.log.Debug().Msg("reached time limit")
			s.status = mip.StatusTimeLimit
		}
		return true
	}

	return false
}
