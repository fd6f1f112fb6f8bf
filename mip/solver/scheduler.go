package solver

import (
	"math"

	"github.com/consensys/gomip/internal/quad"
	"github.com/consensys/gomip/mip"
	"gonum.org/v1/gonum/floats"
)

type rootPhase uint8

const (
	phaseInit rootPhase = iota
	phaseSeparate
	phaseHeuristics
	phaseSeed
	phaseRestart
	phaseDone
)

// rootSearch carries the per-evaluation state of the root scheduler across
// phases. A restart re-enters phaseInit with the separation state reset but
// the round cap kept.
type rootSearch struct {
	s *Solver

	maxSepaRounds int
	nSepaRounds   int
	stall         int
	ncuts         int

	smoothProgress float64
	avgDirection   []float64
	curDirection   []float64

	status Status

	fixingRate float64

	symTask *task[*Symmetries]
	acTask  *task[analyticCenterResult]
}

// evaluateRootNode drives the root: initial relaxation solve, the
// separation/heuristic loop with stall detection, restarts, and finally
// seeding the node queue with the root node.
func (s *Solver) evaluateRootNode() {
	maxSepaRounds := math.MaxInt32
	if s.cfg.SubSolve {
		maxSepaRounds = 5
	}
	if s.numRestarts == 0 {
		maxSepaRounds = min(int(2*math.Sqrt(float64(s.maxTreeSizeLog2))), maxSepaRounds)
	}
	rs := &rootSearch{s: s, maxSepaRounds: maxSepaRounds}

	for phase := phaseInit; phase != phaseDone; {
		switch phase {
		case phaseInit:
			phase = rs.enter()
		case phaseSeparate:
			phase = rs.separate()
		case phaseHeuristics:
			phase = rs.postLoopHeuristics()
		case phaseSeed:
			phase = rs.seed()
		case phaseRestart:
			phase = rs.restart()
		}
	}
	rs.shutdown()
}

// shutdown cancels and joins any background task that was never joined.
// Task memory may only be reclaimed after the join completed.
func (rs *rootSearch) shutdown() {
	if rs.symTask != nil {
		rs.symTask.Cancel()
		rs.symTask.Join()
		rs.symTask = nil
	}
	if rs.acTask != nil {
		rs.acTask.Cancel()
		rs.acTask.Join()
		rs.acTask = nil
	}
}

func rootIterLimit(avgRootLPIters float64) int64 {
	return max(10000, int64(10*avgRootLPIters))
}

// enter loads and solves the initial relaxation, optionally warm-started
// from the transferred basis, and spawns the background computations.
func (rs *rootSearch) enter() rootPhase {
	s := rs.s

	rs.nSepaRounds = 0
	rs.stall = 0
	rs.smoothProgress = 0
	rs.avgDirection = make([]float64, s.model.NumCol)
	rs.curDirection = make([]float64, s.model.NumCol)

	if s.detectSymmetries && rs.symTask == nil {
		rs.symTask = s.startSymmetryDetection()
	}
	if !s.analyticCenterComputed && rs.acTask == nil {
		rs.acTask = s.startAnalyticCenterComputation()
	}

	s.relax.SetIterationLimit(0)
	s.relax.LoadModel()
	s.domain.ClearChangedCols()
	s.relax.SetObjectiveLimit(s.upperLimit)
	s.lowerBound = math.Max(s.lowerBound, s.domain.ObjectiveLowerBound())

	s.printDisplayLine(SourceNone)

	if s.firstRootBasis.Valid {
		s.relax.SetBasis(s.firstRootBasis)
	}
	rs.status = s.evaluateRootLp()
	if s.numRestarts == 0 {
		s.firstRootLPIters = s.totalLPIters
	}
	if rs.status == StatusInfeasible || rs.status == StatusUnbounded {
		return phaseDone
	}

	s.firstLPSol = append([]float64(nil), s.relax.Solution()...)
	s.firstLPSolObj = s.relax.Objective()
	s.rootLPSolObj = s.firstLPSolObj

	if b := s.relax.Basis(); b.Valid && s.relax.NumRows() == s.model.NumRow {
		s.firstRootBasis = b
	} else {
		// the root basis is later expected to be consistent for the model
		// without cuts, so fall back to the slack basis when the current one
		// already includes cuts, e.g. after a restart
		s.firstRootBasis = mip.SlackBasis(s.model.NumCol, s.model.NumRow)
	}

	if n := s.relax.ReseparateCuts(); n > 0 {
		rs.status = s.evaluateRootLp()
		s.relax.RemoveObsoleteRows()
		if rs.status == StatusInfeasible {
			return phaseDone
		}
	}

	s.relax.SetIterationLimit(rootIterLimit(s.avgRootLPIters))

	// make sure the first line after solving the root LP is printed
	s.lastDispTime = math.Inf(-1)

	s.chargeHeuristic(s.heur.RandomizedRounding(s.firstLPSol))
	rs.status = s.evaluateRootLp()
	if rs.status == StatusInfeasible {
		return phaseDone
	}

	s.rootLPSolObj = s.firstLPSolObj
	s.removeFixedIndices()
	if s.cfg.Presolve && s.presolver != nil {
		if rs.fixingRate = s.percentageInactiveIntegers(); rs.fixingRate >= 10.0 {
			return phaseRestart
		}
	}
	return phaseSeparate
}

func (s *Solver) chargeHeuristic(iters int64) {
	s.heurLPIters += iters
	s.totalLPIters += iters
}

// separationRound runs one cutting plane round, re-evaluates the root LP,
// and tries randomized rounding when no incumbent exists yet. It returns
// true when the root evaluation is terminally pruned.
func (rs *rootSearch) separationRound() (terminal bool) {
	s := rs.s

	iters := -s.relax.Iterations()
	ncuts, _ := s.sepa.SeparationRound(s.domain)
	rs.ncuts = ncuts
	iters += s.relax.Iterations()
	s.avgRootLPIters = s.relax.AvgSolveIters()
	s.totalLPIters += iters
	s.sepaLPIters += iters

	rs.status = s.evaluateRootLp()
	if rs.status == StatusInfeasible {
		return true
	}

	if s.cfg.SubSolve || s.incumbent == nil {
		s.chargeHeuristic(s.heur.RandomizedRounding(s.relax.Solution()))
		rs.status = s.evaluateRootLp()
		if rs.status == StatusInfeasible {
			return true
		}
	}
	return false
}

// separate is the cutting plane loop with stall detection.
func (rs *rootSearch) separate() rootPhase {
	s := rs.s

	for scaledOptimal(rs.status) && len(s.relax.FractionalIntegers()) > 0 && rs.stall < 3 {
		s.printDisplayLine(SourceNone)

		if s.checkLimits(0) {
			return phaseDone
		}
		if rs.nSepaRounds == rs.maxSepaRounds {
			break
		}

		s.removeFixedIndices()

		if !s.cfg.SubSolve && s.cfg.Presolve && s.presolver != nil {
			if rs.fixingRate = s.percentageInactiveIntegers(); rs.fixingRate >= 10.0 {
				rs.stall = -1
				break
			}
		}

		rs.nSepaRounds++

		if rs.separationRound() {
			return phaseDone
		}

		if rs.nSepaRounds >= 5 && !s.cfg.SubSolve && !s.analyticCenterComputed {
			if s.checkLimits(0) {
				return phaseDone
			}
			s.finishAnalyticCenterComputation(rs.acTask)
			rs.acTask = nil
			s.chargeHeuristic(s.heur.CentralRounding(s.analyticCenter))

			if s.checkLimits(0) {
				return phaseDone
			}
			rs.status = s.evaluateRootLp()
			if rs.status == StatusInfeasible {
				return phaseDone
			}
		}

		rs.trackProgress()

		s.rootLPSolObj = s.relax.Objective()
		s.relax.SetIterationLimit(rootIterLimit(s.avgRootLPIters))
		if rs.ncuts == 0 {
			break
		}
	}

	s.relax.SetIterationLimit(0)
	rs.status = s.evaluateRootLp()
	if rs.status == StatusInfeasible {
		return phaseDone
	}

	s.rootLPSol = append([]float64(nil), s.relax.Solution()...)
	s.rootLPSolObj = s.relax.Objective()
	s.relax.SetIterationLimit(rootIterLimit(s.avgRootLPIters))

	if !s.analyticCenterComputed {
		if s.checkLimits(0) {
			return phaseDone
		}
		s.finishAnalyticCenterComputation(rs.acTask)
		rs.acTask = nil
		s.chargeHeuristic(s.heur.CentralRounding(s.analyticCenter))

		// new global bound changes warrant one more separation round
		if s.checkLimits(0) {
			return phaseDone
		}
		separate := len(s.domain.ChangedCols()) > 0
		rs.status = s.evaluateRootLp()
		if rs.status == StatusInfeasible {
			return phaseDone
		}
		if separate && scaledOptimal(rs.status) {
			if rs.separationRound() {
				return phaseDone
			}
			rs.nSepaRounds++
			s.printDisplayLine(SourceNone)
		}
	}

	s.printDisplayLine(SourceNone)
	if s.checkLimits(0) {
		return phaseDone
	}
	return phaseHeuristics
}

// trackProgress projects the movement of the current LP solution away from
// the very first one onto a running average of normalized directions and
// smooths the projection. A round that neither improves the smoothed
// progress by more than 1% nor moves the objective by more than 0.1% of its
// total range counts as stalled.
func (rs *rootSearch) trackProgress() {
	s := rs.s

	floats.SubTo(rs.curDirection, s.firstLPSol, s.relax.Solution())
	sqrnorm := quad.New(0)
	for _, v := range rs.curDirection {
		sqrnorm = sqrnorm.MulAdd(v, v)
	}
	norm := sqrnorm.Sqrt()
	if norm == 0 {
		// the separation round did not move the solution at all
		rs.stall++
		return
	}

	scale := 1.0 / norm
	for i := range rs.avgDirection {
		rs.avgDirection[i] = (scale*rs.curDirection[i] - rs.avgDirection[i]) / float64(rs.nSepaRounds)
	}
	avgnorm := floats.Dot(rs.avgDirection, rs.avgDirection)
	dot := floats.Dot(rs.avgDirection, rs.curDirection)
	progress := dot / math.Sqrt(avgnorm)

	if rs.nSepaRounds == 1 {
		rs.smoothProgress = progress
		return
	}

	const alpha = 1.0 / 3.0
	next := (1-alpha)*rs.smoothProgress + alpha*progress
	if next < rs.smoothProgress*1.01 &&
		s.relax.Objective()-s.firstLPSolObj <= (s.rootLPSolObj-s.firstLPSolObj)*1.001 {
		rs.stall++
	} else {
		rs.stall = 0
	}
	rs.smoothProgress = next
}

// postLoopHeuristics runs the heuristic ladder after the separation loop:
// reduced cost rounding, RENS, trivial heuristics, and a feasibility pump
// when no incumbent exists yet. After each heuristic, changed bounds
// trigger one more separation round.
func (rs *rootSearch) postLoopHeuristics() rootPhase {
	if rs.heuristicsLadder() {
		return phaseDone
	}
	return phaseSeed
}

// heuristicsLadder returns true when a limit or terminal infeasibility
// stops the whole root evaluation; false means fall through to seeding.
func (rs *rootSearch) heuristicsLadder() (terminal bool) {
	s := rs.s
	inf := math.Inf(1)

	if s.rootLPSol == nil {
		return false
	}
	if s.upperLimit != inf && !s.moreHeuristicsAllowed() {
		return false
	}

	s.chargeHeuristic(s.heur.RootReducedCost())
	if s.checkLimits(0) {
		return true
	}

	separate := len(s.domain.ChangedCols()) > 0
	rs.status = s.evaluateRootLp()
	if rs.status == StatusInfeasible {
		return true
	}
	if separate && scaledOptimal(rs.status) {
		if rs.separationRound() {
			return true
		}
		rs.nSepaRounds++
		s.printDisplayLine(SourceNone)
	}

	if s.upperLimit != inf && !s.moreHeuristicsAllowed() {
		return false
	}

	if s.checkLimits(0) {
		return true
	}
	s.chargeHeuristic(s.heur.RENS(s.rootLPSol))
	if s.checkLimits(0) {
		return true
	}

	separate = len(s.domain.ChangedCols()) > 0
	rs.status = s.evaluateRootLp()
	if rs.status == StatusInfeasible {
		return true
	}
	if separate && scaledOptimal(rs.status) {
		if rs.separationRound() {
			return true
		}
		rs.nSepaRounds++
		s.printDisplayLine(SourceNone)
	}
	if s.checkLimits(0) {
		return true
	}

	if s.cfg.TrivialHeuristics {
		s.chargeHeuristic(s.heur.Trivial())
	}

	// the feasibility pump only runs at the top level while no feasible
	// point was found
	if s.upperLimit != inf || s.cfg.SubSolve {
		return false
	}

	if s.checkLimits(0) {
		return true
	}
	s.chargeHeuristic(s.heur.FeasibilityPump())
	if s.checkLimits(0) {
		return true
	}
	rs.status = s.evaluateRootLp()
	return rs.status == StatusInfeasible
}

// seed finishes the root: optimality short circuit, one last separation
// round on changed bounds, the post-loop restart trigger, symmetry join and
// finally the root node emplacement.
func (rs *rootSearch) seed() rootPhase {
	s := rs.s

	if s.lowerBound > s.upperLimit {
		s.status = mip.StatusOptimal
		s.prunedTreeweight = 1
		s.numNodes++
		s.numLeaves++
		return phaseDone
	}

	separate := len(s.domain.ChangedCols()) > 0
	rs.status = s.evaluateRootLp()
	if rs.status == StatusInfeasible {
		return phaseDone
	}
	if separate && scaledOptimal(rs.status) {
		if rs.separationRound() {
			return phaseDone
		}
		rs.nSepaRounds++
		s.printDisplayLine(SourceNone)
	}

	s.removeFixedIndices()
	if s.relax.Basis().Valid {
		s.relax.RemoveObsoleteRows()
	}
	s.rootLPSolObj = s.relax.Objective()

	s.printDisplayLine(SourceNone)

	if s.lowerBound > s.upperLimit {
		return phaseDone
	}

	if !s.cfg.SubSolve && s.cfg.Presolve && s.presolver != nil {
		if !s.analyticCenterComputed {
			s.finishAnalyticCenterComputation(rs.acTask)
			rs.acTask = nil
		}
		rs.fixingRate = s.percentageInactiveIntegers()
		if rs.fixingRate >= 2.5 || (rs.fixingRate > 0 && s.numRestarts == 0) {
			if rs.stall != -1 {
				rs.maxSepaRounds = min(rs.maxSepaRounds, rs.nSepaRounds)
			}
			return phaseRestart
		}
	}

	if s.detectSymmetries {
		s.finishSymmetryDetection(rs.symTask)
		rs.symTask = nil
		rs.status = s.evaluateRootLp()
		if rs.status == StatusInfeasible {
			return phaseDone
		}
	}

	estimate := s.lowerBound
	if s.cfg.Estimator != nil {
		estimate = s.cfg.Estimator.RootEstimate(s.lowerBound)
	}
	s.queue.EmplaceRootNode(s.lowerBound, estimate)
	return phaseDone
}

// restart cancels the background tasks and re-enters presolve. The root
// evaluation starts over from phaseInit unless presolve already decided the
// model.
func (rs *rootSearch) restart() rootPhase {
	s := rs.s

	s.log.Info().Float64("inactiveIntegerColumns", rs.fixingRate).Msg("restarting")
	rs.shutdown()

	s.performRestart()
	s.numRestartsRoot++
	if s.status == mip.StatusNotSet {
		return phaseInit
	}
	return phaseDone
}
