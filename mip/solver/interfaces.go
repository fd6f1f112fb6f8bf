package solver

import (
	"context"
	"time"

	"github.com/consensys/gomip/mip"
)

// Status is the outcome of a relaxation solve. The unscaled variants report
// feasibility of the unscaled solution when the simplex solved a scaled
// instance.
type Status uint8

const (
	StatusNotSet Status = iota
	StatusOptimal
	StatusInfeasible
	StatusUnscaledDualFeasible
	StatusUnscaledPrimalFeasible
	StatusUnscaledInfeasible
	StatusUnbounded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNotSet:
		return "not set"
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnscaledDualFeasible:
		return "unscaled dual feasible"
	case StatusUnscaledPrimalFeasible:
		return "unscaled primal feasible"
	case StatusUnscaledInfeasible:
		return "unscaled infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "error"
	}
}

// scaledOptimal reports whether the relaxation reached an optimal basis,
// possibly with unscaled infeasibilities remaining.
func scaledOptimal(s Status) bool {
	switch s {
	case StatusOptimal, StatusUnscaledDualFeasible, StatusUnscaledPrimalFeasible, StatusUnscaledInfeasible:
		return true
	default:
		return false
	}
}

// dualFeasible reports whether the relaxation objective is a valid dual
// bound.
func dualFeasible(s Status) bool {
	return s == StatusOptimal || s == StatusUnscaledDualFeasible
}

// Relaxation solves the linear relaxation of the current model plus any cuts
// accumulated by separation. One instance per solve attempt; all calls come
// from the search goroutine.
type Relaxation interface {
	// LoadModel (re)loads the current presolved model, dropping cuts.
	LoadModel()
	// Resolve re-solves after bound changes from d have been flushed.
	Resolve(d Domain) Status
	Status() Status
	Objective() float64
	Solution() []float64
	Duals() []float64
	// FractionalIntegers lists integer columns with fractional values in the
	// current solution.
	FractionalIntegers() []int

	// Iterations is the cumulative simplex iteration count of this instance.
	Iterations() int64
	AvgSolveIters() float64

	SetObjectiveLimit(limit float64)
	// SetIterationLimit bounds the next solves; n <= 0 removes the limit.
	SetIterationLimit(n int64)

	Basis() mip.Basis
	SetBasis(b mip.Basis)

	// FlushDomain pushes the tightened bounds of d into the relaxation and
	// clears the changed column list of d.
	FlushDomain(d Domain)

	NumRows() int
	// NumModelRows is the number of rows excluding cuts.
	NumModelRows() int
	RemoveObsoleteRows()
	// ReseparateCuts re-adds cuts kept across a restart and returns how many.
	ReseparateCuts() int

	// LP returns the currently loaded rows including cuts, consumed by the
	// restart procedure when folding cuts into the model.
	LP() *mip.Model
}

// Domain is the shared bound state tightened by propagation. It records
// which columns changed since the last flush into the relaxation.
type Domain interface {
	Propagate()
	Infeasible() bool

	ChangedCols() []int
	ClearChangedCols()

	ComputeRowActivities()
	IsFixed(col int) bool
	ColLower() []float64
	ColUpper() []float64
	// FixColLower fixes col to its current lower bound, FixColUpper to its
	// current upper bound.
	FixColLower(col int)
	FixColUpper(col int)

	// ObjectiveLowerBound is the dual bound proven by objective propagation.
	ObjectiveLowerBound() float64
}

// Separator runs one cutting plane round against the current relaxation
// solution.
type Separator interface {
	SeparationRound(d Domain) (numCuts int, status Status)
}

// Heuristics groups the primal heuristic entry points. Each returns the
// number of LP iterations it spent, charged against the heuristic budget.
type Heuristics interface {
	RandomizedRounding(relaxSol []float64) int64
	CentralRounding(center []float64) int64
	RootReducedCost() int64
	RENS(relaxSol []float64) int64
	FeasibilityPump() int64
	Trivial() int64
}

// NodeQueue is the open-node store of the tree search seeded by the root.
type NodeQueue interface {
	SetNumCol(numCol int)
	SetOptimalityLimit(limit float64)
	// PruneByBound removes nodes whose bound cannot beat limit and returns
	// the pruned tree weight.
	PruneByBound(limit float64) float64
	EmplaceRootNode(lowerBound, estimate float64)
	NumActiveNodes() int64
	Clear()
}

// PostsolveStack maps between original and reduced model spaces.
type PostsolveStack interface {
	// UndoPrimal lifts a reduced-space solution to the original space. Row
	// values are not produced.
	UndoPrimal(reduced mip.Solution) mip.Solution
	// ReducedPrimalSolution projects an original-space point onto the
	// reduced model columns.
	ReducedPrimalSolution(orig []float64) []float64

	OrigColIndex(col int) int
	OrigRowIndex(row int) int
	OrigNumCol() int
	OrigNumRow() int

	// AppendCutsToModel/RemoveCutsFromModel bracket a restart: cuts folded
	// into the model before re-presolving are accounted for in the index
	// maps and dropped again afterwards.
	AppendCutsToModel(numCuts int)
	RemoveCutsFromModel(numCuts int)
}

// Presolver reduces a model and returns the postsolve stack mapping back to
// it. A terminal status (optimal, infeasible) means presolve solved or
// disproved the model outright.
type Presolver interface {
	Run(m *mip.Model) (reduced *mip.Model, stack PostsolveStack, status mip.ModelStatus)
}

// RepairSolver solves the continuous LP that remains after fixing every
// integer column, used by the one-shot incumbent repair.
type RepairSolver interface {
	SolveFixed(m *mip.Model) (sol mip.Solution, feasible bool)
}

// AnalyticCenterSolver computes an interior point of the relaxation with a
// zeroed objective. It must honor ctx cancellation at its own safe points.
type AnalyticCenterSolver interface {
	Compute(ctx context.Context, m *mip.Model) (center []float64, status mip.ModelStatus)
}

// Symmetries is the result of symmetry detection on the presolved model.
type Symmetries struct {
	NumGenerators int
	NumPerms      int
	NumOrbitopes  int
	OrbitopeCols  int

	// Orbits is non-nil when stabilizer orbits usable for orbital fixing
	// were derived from the generators.
	Orbits StabilizerOrbits

	DetectionTime time.Duration
}

// SymmetryDetector runs symmetry detection on an immutable model snapshot.
type SymmetryDetector interface {
	Detect(ctx context.Context, m *mip.Model) (*Symmetries, error)
}

// StabilizerOrbits applies bound-consistent orbital fixing during
// propagation.
type StabilizerOrbits interface {
	OrbitalFixing(d Domain)
}

// RedcostFixer tightens bounds from root LP dual values.
type RedcostFixer interface {
	AddRootRedcost(duals []float64, lpObjective float64)
	PropagateRootRedcost()
}

// CliqueTable is the clique store consulted for objective-based fixing and
// substitution counting.
type CliqueTable interface {
	ExtractObjCliques()
	NumEntries() int64
	NumSubstitutions() int
}

// Estimator produces the pseudocost-based estimate attached to the seeded
// root node.
type Estimator interface {
	RootEstimate(lowerBound float64) float64
}
