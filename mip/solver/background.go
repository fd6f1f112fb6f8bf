package solver

import (
	"context"
	"math"
	"time"

	"github.com/consensys/gomip/mip"
	"golang.org/x/sync/semaphore"
)

// task is a handle on a fork-join background computation. The function runs
// on its own goroutine once admitted by the pool semaphore, writes its
// result exactly once, and the result is only read after Join returns.
// Cancel requests cooperative cancellation through the task context; the
// join must still happen before the handle is dropped.
type task[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}

	result T
	err    error
}

func spawnTask[T any](sem *semaphore.Weighted, f func(ctx context.Context) (T, error)) *task[T] {
	ctx, cancel := context.WithCancel(context.Background())
	t := &task[T]{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(t.done)
		if err := sem.Acquire(ctx, 1); err != nil {
			t.err = err
			return
		}
		defer sem.Release(1)
		t.result, t.err = f(ctx)
	}()
	return t
}

// Join blocks until the task finished or was cancelled.
func (t *task[T]) Join() (T, error) {
	<-t.done
	return t.result, t.err
}

// Cancel requests cooperative cancellation. It does not wait; callers must
// still Join.
func (t *task[T]) Cancel() {
	t.cancel()
}

type analyticCenterResult struct {
	center []float64
	status mip.ModelStatus
}

// startAnalyticCenterComputation spawns the zero-objective interior point
// solve on an independent copy of the current model.
func (s *Solver) startAnalyticCenterComputation() *task[analyticCenterResult] {
	if s.acSolver == nil {
		return nil
	}
	model := s.model.Copy()
	for i := range model.ColCost {
		model.ColCost[i] = 0
	}
	solver := s.acSolver
	return spawnTask(s.sem, func(ctx context.Context) (analyticCenterResult, error) {
		center, status := solver.Compute(ctx, model)
		return analyticCenterResult{center: center, status: status}, nil
	})
}

// finishAnalyticCenterComputation joins the analytic center task and fixes
// every column sitting at a bound within a range-scaled tolerance of the
// center, then propagates the new bounds.
func (s *Solver) finishAnalyticCenterComputation(t *task[analyticCenterResult]) {
	s.analyticCenterComputed = true
	if t == nil {
		return
	}
	res, err := t.Join()
	if err != nil || res.status != mip.StatusOptimal || len(res.center) != s.model.NumCol {
		return
	}
	s.analyticCenter = res.center

	nfixed := 0
	nintfixed := 0
	colLower := s.domain.ColLower()
	colUpper := s.domain.ColUpper()
	for i := 0; i < s.model.NumCol; i++ {
		boundRange := colUpper[i] - colLower[i]
		if boundRange == 0 {
			continue
		}
		tol := s.feastol * math.Min(boundRange, 1.0)

		if res.center[i] <= s.model.ColLower[i]+tol {
			s.domain.FixColLower(i)
		} else if res.center[i] >= s.model.ColUpper[i]-tol {
			s.domain.FixColUpper(i)
		} else {
			continue
		}
		if s.domain.Infeasible() {
			return
		}
		nfixed++
		if s.model.VarType(i) == mip.Integer {
			nintfixed++
		}
	}
	if nfixed > 0 {
		s.log.Debug().Int("fixed", nfixed).Int("integersFixed", nintfixed).
			Msg("fixing columns sitting at bound at analytic center")
	}
	s.domain.Propagate()
}

// startSymmetryDetection spawns symmetry detection on an immutable snapshot
// of the presolved model.
func (s *Solver) startSymmetryDetection() *task[*Symmetries] {
	if !s.detectSymmetries || s.symmetry == nil {
		return nil
	}
	model := s.model.Copy()
	detector := s.symmetry
	return spawnTask(s.sem, func(ctx context.Context) (*Symmetries, error) {
		start := time.Now()
		syms, err := detector.Detect(ctx, model)
		if err != nil {
			return nil, err
		}
		syms.DetectionTime = time.Since(start)
		return syms, nil
	})
}

// finishSymmetryDetection joins the symmetry task and derives the global
// orbits used for orbital fixing.
func (s *Solver) finishSymmetryDetection(t *task[*Symmetries]) {
	if t == nil {
		return
	}
	syms, err := t.Join()
	if err != nil || syms == nil {
		s.detectSymmetries = false
		return
	}
	s.symmetries = syms
	s.log.Info().Dur("took", syms.DetectionTime).Msg("symmetry detection completed")

	if syms.NumGenerators == 0 {
		s.detectSymmetries = false
		s.log.Info().Msg("no symmetry present")
	} else if syms.NumOrbitopes == 0 {
		s.log.Info().Int("generators", syms.NumGenerators).Msg("found symmetry generators")
	} else {
		s.log.Info().Int("generators", syms.NumPerms).Int("orbitopes", syms.NumOrbitopes).
			Int("columns", syms.OrbitopeCols).Msg("found symmetry generators and full orbitopes")
	}

	if syms.NumPerms != 0 {
		s.globalOrbits = syms.Orbits
	}
}
