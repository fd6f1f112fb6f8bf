package solver

import (
	"math"

	"github.com/consensys/gomip/internal/quad"
	"github.com/consensys/gomip/mip"
)

// solutionColFeasible validates bounds and integrality of a current-space
// candidate at feastol and computes its objective at extended precision.
func (s *Solver) solutionColFeasible(solution []float64) (obj float64, ok bool) {
	if len(solution) != s.model.NumCol {
		return 0, false
	}
	qobj := quad.New(0)
	for i := 0; i < s.model.NumCol; i++ {
		if solution[i] < s.model.ColLower[i]-s.feastol {
			return 0, false
		}
		if solution[i] > s.model.ColUpper[i]+s.feastol {
			return 0, false
		}
		if s.model.VarType(i) == mip.Integer &&
			math.Abs(solution[i]-math.Floor(solution[i]+0.5)) > s.feastol {
			return 0, false
		}
		qobj = qobj.MulAdd(s.model.ColCost[i], solution[i])
	}
	return qobj.Float64(), true
}

// solutionRowFeasible validates row activities against row bounds at
// feastol.
func (s *Solver) solutionRowFeasible(solution []float64) bool {
	for i := 0; i < s.model.NumRow; i++ {
		activity := 0.0
		for k := s.rowMatrix.Start[i]; k < s.rowMatrix.Start[i+1]; k++ {
			activity += solution[s.rowMatrix.Index[k]] * s.rowMatrix.Value[k]
		}
		if activity > s.model.RowUpper[i]+s.feastol {
			return false
		}
		if activity < s.model.RowLower[i]-s.feastol {
			return false
		}
	}
	return true
}

// CheckSolution reports whether a current-space candidate is feasible at the
// configured tolerance.
func (s *Solver) CheckSolution(solution []float64) bool {
	if _, ok := s.solutionColFeasible(solution); !ok {
		return false
	}
	return s.solutionRowFeasible(solution)
}

// TrySolution validates a current-space candidate and, if feasible, offers
// it as a new incumbent.
func (s *Solver) TrySolution(solution []float64, source SolutionSource) bool {
	obj, ok := s.solutionColFeasible(solution)
	if !ok {
		return false
	}
	if !s.solutionRowFeasible(solution) {
		return false
	}
	return s.addIncumbent(solution, obj, source)
}

// computeCutoff derives the LP objective cutoff below an incumbent objective
// ub. With zero gaps the result admits only strictly improving candidates;
// with the configured gaps it encodes "good enough to stop".
func (s *Solver) computeCutoff(ub, absGap, relGap float64) float64 {
	if s.objIntegral {
		scale := s.objScale
		limit := math.Floor(scale*ub-0.5) / scale

		if relGap != 0 {
			limit = math.Min(limit,
				ub-math.Ceil(relGap*math.Abs(ub+s.model.Offset)*scale-s.epsilon)/scale)
		}
		if absGap != 0 {
			limit = math.Min(limit, ub-math.Ceil(absGap*scale-s.epsilon)/scale)
		}

		// add the feasibility tolerance so that the next best integral
		// solution is definitely included in the remaining search
		return limit + s.feastol
	}

	limit := math.Min(ub-s.feastol, math.Nextafter(ub, math.Inf(-1)))
	if relGap != 0 {
		limit = math.Min(limit, ub-relGap*math.Abs(ub+s.model.Offset))
	}
	if absGap != 0 {
		limit = math.Min(limit, ub-absGap)
	}
	return limit
}

// addIncumbent offers a current-space solution with objective solobj as a
// new incumbent. It returns false only when the transformed solution turned
// out not to improve the upper bound. On a strict improvement the cutoffs
// are recomputed and propagated to the domain, the reduced cost fixer, the
// clique table and the node queue.
func (s *Solver) addIncumbent(sol []float64, solobj float64, source SolutionSource) bool {
	possiblyStore := solobj < s.upperBound
	if !possiblyStore {
		if s.incumbent == nil {
			s.incumbent = append([]float64(nil), sol...)
		}
		return true
	}

	solobj = s.transformToOriginalSpace(sol, true)
	if solobj >= s.upperBound {
		return false
	}

	s.upperBound = solobj
	s.incumbent = append([]float64(nil), sol...)
	newLimit := s.computeCutoff(solobj, 0, 0)
	s.saveImprovingSolution(newLimit)

	if newLimit < s.upperLimit {
		s.numImprovingSols++
		s.upperLimit = newLimit
		s.optimalityLimit = s.computeCutoff(solobj, s.cfg.AbsGap, s.cfg.RelGap)
		s.queue.SetOptimalityLimit(s.optimalityLimit)

		s.domain.Propagate()
		if !s.domain.Infeasible() && s.redcost != nil {
			s.redcost.PropagateRootRedcost()
		}
		if s.domain.Infeasible() {
			s.prunedTreeweight = 1
			s.queue.Clear()
			return true
		}
		if s.cliques != nil {
			s.cliques.ExtractObjCliques()
			if s.domain.Infeasible() {
				s.prunedTreeweight = 1
				s.queue.Clear()
				return true
			}
		}
		s.prunedTreeweight += s.queue.PruneByBound(s.upperLimit)
		s.printDisplayLine(source)
	}
	return true
}

// transformToOriginalSpace maps a current-space solution through the
// postsolve stack, recomputes its objective at extended precision and
// measures its violations against the original model. An infeasible result
// is repaired once by fixing every integer column to its rounded value and
// re-solving the continuous LP. Feasible solutions are stored as the
// incumbent when store is set; infeasible ones are stored only as a fallback
// when no feasible solution exists yet, and then the returned objective is
// +Inf so callers never use it for bounding.
func (s *Solver) transformToOriginalSpace(sol []float64, store bool) float64 {
	solution := s.postsolve.UndoPrimal(mip.Solution{ColValue: sol})
	origRows := s.origModel.Transpose()
	solution.ComputeRowValues(s.origModel, origRows)

	var v mip.Violations
	feasible := false
	// repair attempted at most once
	for attempt := 0; attempt < 2; attempt++ {
		v = solution.Measure(s.origModel, s.feastol)
		feasible = v.Feasible(s.feastol)
		if feasible || attempt == 1 || s.repair == nil {
			break
		}

		fixed := s.origModel.Copy()
		for i := 0; i < fixed.NumCol; i++ {
			if fixed.VarType(i) == mip.Integer {
				solval := math.Round(solution.ColValue[i])
				fixed.ColLower[i] = math.Max(fixed.ColLower[i], solval)
				fixed.ColUpper[i] = math.Min(fixed.ColUpper[i], solval)
			}
		}
		fixed.Integrality = nil
		repaired, ok := s.repair.SolveFixed(fixed)
		if !ok {
			break
		}
		solution = repaired
		if solution.RowValue == nil {
			solution.ComputeRowValues(s.origModel, origRows)
		}
	}

	objective := solution.Objective(s.origModel)

	if store {
		if feasible {
			s.boundViolation = v.Bound
			s.integralityViolation = v.Integrality
			s.rowViolation = v.Row
			s.solution = solution.ColValue
			s.solutionObjective = objective
		} else {
			currentFeasible := s.SolutionFeasible()

			ev := s.log.Warn().
				Float64("objective", objective).
				Float64("boundViolation", v.Bound).
				Float64("integralityViolation", v.Integrality).
				Float64("rowViolation", v.Row)
			if v.WorstBoundCol >= 0 {
				ev = ev.Int("worstCol", v.WorstBoundCol).
					Str("worstColName", s.origModel.ColName(v.WorstBoundCol))
			}
			if v.WorstIntCol >= 0 {
				ev = ev.Int("worstIntCol", v.WorstIntCol).
					Str("worstIntColName", s.origModel.ColName(v.WorstIntCol))
			}
			if v.WorstRow >= 0 {
				ev = ev.Int("worstRow", v.WorstRow).
					Str("worstRowName", s.origModel.RowName(v.WorstRow))
			}
			ev.Msg("solution has untransformed violations")

			if !currentFeasible {
				// keep some answer even if it is not feasible
				s.boundViolation = v.Bound
				s.integralityViolation = v.Integrality
				s.rowViolation = v.Row
				s.solution = solution.ColValue
				s.solutionObjective = objective
			}

			// never used for bounding
			return math.Inf(1)
		}
	}

	// objective in the current model space
	return objective - s.model.Offset
}

// saveImprovingSolution streams a record of an improving incumbent to the
// configured writer. Sub-solves and non-improving candidates are skipped.
func (s *Solver) saveImprovingSolution(newUpperLimit float64) {
	if s.cfg.SubSolve || newUpperLimit >= s.upperLimit {
		return
	}
	if s.cfg.ImprovingSolutionWriter == nil {
		return
	}
	record := struct {
		Objective float64   `cbor:"1,keyasint"`
		ColValue  []float64 `cbor:"2,keyasint"`
	}{
		Objective: s.solutionObjective,
		ColValue:  s.solution,
	}
	data, err := s.cborEnc.Marshal(&record)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to encode improving solution record")
		return
	}
	if _, err := s.cfg.ImprovingSolutionWriter.Write(data); err != nil {
		s.log.Warn().Err(err).Msg("failed to write improving solution record")
	}
}

// boundsForDisplay converts the internal bounds into user-facing values:
// offset restored, small values snapped to zero, sense flipped for
// maximization, gap in percent.
func (s *Solver) boundsForDisplay() (dual, primal, gapPercent float64) {
	offset := s.model.Offset
	dual = s.lowerBound + offset
	if math.Abs(dual) <= s.epsilon {
		dual = 0
	}
	primal = math.Inf(1)
	gapPercent = math.Inf(1)

	if s.upperBound != math.Inf(1) {
		primal = s.upperBound + offset
		if math.Abs(primal) <= s.epsilon {
			primal = 0
		}
		dual = math.Min(dual, primal)
		if primal == 0 {
			if dual == 0 {
				gapPercent = 0
			} else {
				gapPercent = math.Inf(1)
			}
		} else {
			gapPercent = 100 * (primal - dual) / math.Abs(primal)
		}
	}
	primal = math.Min(s.cfg.ObjectiveBound, primal)

	if s.origModel.Sense == mip.Maximize {
		dual, primal = -dual, -primal
	}
	return dual, primal, gapPercent
}
