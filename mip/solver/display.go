package solver

import "math"

// printDisplayLine emits one structured progress line. Lines triggered by an
// improving solution carry the source tag and always print; periodic lines
// respect the minimum logging interval at report level 1, while level 2
// prints every line.
func (s *Solver) printDisplayLine(source SolutionSource) {
	if s.cfg.ReportLevel == 0 {
		return
	}

	now := s.elapsed()
	if source == SourceNone && s.cfg.ReportLevel < 2 &&
		now-s.lastDispTime < s.cfg.MinLoggingInterval.Seconds() {
		return
	}
	s.lastDispTime = now
	s.numDispLines++

	dual, primal, gap := s.boundsForDisplay()

	ev := s.log.Info().
		Str("src", source.Tag()).
		Int64("nodes", s.numNodes).
		Int64("inQueue", s.queue.NumActiveNodes()).
		Int64("leaves", s.numLeaves-s.numLeavesBeforeRun).
		Float64("explored%", 100*s.prunedTreeweight).
		Float64("bestBound", dual).
		Float64("bestSol", primal)
	if math.IsInf(gap, 1) {
		ev = ev.Str("gap", "inf")
	} else if gap >= 9999 {
		ev = ev.Str("gap", "large")
	} else {
		ev = ev.Float64("gap%", gap)
	}
	ev.Int("cutsInLp", s.relax.NumRows()-s.relax.NumModelRows()).
		Int64("lpIters", s.totalLPIters).
		Float64("time", now).
		Msg("")
}
