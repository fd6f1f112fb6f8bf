package solver

import (
	"errors"
	"math"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gomip/mip"
	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Adapters are the external collaborators consumed by the solver core. The
// relaxation, domain, separator, heuristics and node queue are mandatory;
// the rest may be nil, which disables the corresponding feature.
type Adapters struct {
	Relaxation Relaxation
	Domain     Domain
	Separator  Separator
	Heuristics Heuristics
	NodeQueue  NodeQueue

	Presolver      Presolver
	Symmetry       SymmetryDetector
	AnalyticCenter AnalyticCenterSolver
	Redcost        RedcostFixer
	Cliques        CliqueTable
	Repair         RepairSolver
}

// Solver owns the solve state of one attempt: global primal/dual bounds,
// the incumbent, cutoff limits, counters and the terminal status. All
// mutating methods must be called from the single search goroutine;
// background tasks only write task-local buffers read after a join.
type Solver struct {
	cfg Config
	log zerolog.Logger

	origModel *mip.Model // original space, never mutated after New
	model     *mip.Model // current (presolved) space

	relax     Relaxation
	domain    Domain
	sepa      Separator
	heur      Heuristics
	queue     NodeQueue
	presolver Presolver
	postsolve PostsolveStack
	symmetry  SymmetryDetector
	acSolver  AnalyticCenterSolver
	redcost   RedcostFixer
	cliques   CliqueTable
	repair    RepairSolver

	status mip.ModelStatus

	feastol float64
	epsilon float64

	// bounds in the transformed, offset-free minimization space
	lowerBound      float64
	upperBound      float64
	upperLimit      float64
	optimalityLimit float64

	// incumbent in the current reduced space, paired with upperBound
	incumbent []float64

	// best known solution in the original space, with its violations; kept
	// across restarts and possibly infeasible when stored as a fallback
	solution             []float64
	solutionObjective    float64
	boundViolation       float64
	integralityViolation float64
	rowViolation         float64

	objIntegral bool
	objScale    float64

	numRestarts      int
	numRestartsRoot  int
	numImprovingSols int64
	prunedTreeweight float64

	numNodes           int64
	numLeaves          int64
	numNodesBeforeRun  int64
	numLeavesBeforeRun int64

	totalLPIters          int64
	heurLPIters           int64
	sepaLPIters           int64
	sbLPIters             int64
	totalLPItersBeforeRun int64
	heurLPItersBeforeRun  int64
	sepaLPItersBeforeRun  int64
	sbLPItersBeforeRun    int64
	avgRootLPIters        float64
	firstRootLPIters      int64

	continuousCols []int
	integerCols    []int
	implintCols    []int
	integralCols   []int
	numIntegerCols int

	rowIntegral   *bitset.BitSet
	maxAbsRowCoef []float64
	upLocks       []int
	downLocks     []int
	rowMatrix     mip.RowMatrix
	rowMatrixSet  bool

	maxTreeSizeLog2 int

	firstLPSol    []float64
	firstLPSolObj float64
	rootLPSol     []float64
	rootLPSolObj  float64

	firstRootBasis mip.Basis
	rootBasis      *mip.Basis // original-space basis carried over a restart

	analyticCenter         []float64
	analyticCenterComputed bool
	detectSymmetries       bool
	symmetries             *Symmetries
	globalOrbits           StabilizerOrbits

	startTime    time.Time
	lastDispTime float64
	numDispLines int

	sem     *semaphore.Weighted
	cborEnc cbor.EncMode
}

// New creates a solver for the given original-space model. The model is
// copied; a maximization sense is converted to minimization internally and
// only restored when reporting.
func New(m *mip.Model, adapters Adapters, opts ...Option) (*Solver, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	if adapters.Relaxation == nil || adapters.Domain == nil || adapters.Separator == nil ||
		adapters.Heuristics == nil || adapters.NodeQueue == nil {
		return nil, errors.New("relaxation, domain, separator, heuristics and node queue adapters are required")
	}

	s := &Solver{
		cfg:       cfg,
		log:       cfg.Logger,
		origModel: m.Copy(),
		relax:     adapters.Relaxation,
		domain:    adapters.Domain,
		sepa:      adapters.Separator,
		heur:      adapters.Heuristics,
		queue:     adapters.NodeQueue,
		presolver: adapters.Presolver,
		symmetry:  adapters.Symmetry,
		acSolver:  adapters.AnalyticCenter,
		redcost:   adapters.Redcost,
		cliques:   adapters.Cliques,
		repair:    adapters.Repair,
	}
	if s.origModel.Sense == mip.Maximize {
		for i := range s.origModel.ColCost {
			s.origModel.ColCost[i] = -s.origModel.ColCost[i]
		}
		s.origModel.Offset = -s.origModel.Offset
	}
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	s.cborEnc = enc
	s.init()
	return s, nil
}

// init resets the solve state. Called once from New; restarts go through
// performRestart instead and keep the counters.
func (s *Solver) init() {
	s.feastol = s.cfg.FeasTol
	s.epsilon = s.cfg.Epsilon
	s.detectSymmetries = s.cfg.DetectSymmetry && s.symmetry != nil

	s.model = s.origModel
	s.status = mip.StatusNotSet

	s.lowerBound = math.Inf(-1)
	s.upperBound = math.Inf(1)
	s.upperLimit = s.cfg.ObjectiveBound
	s.optimalityLimit = s.cfg.ObjectiveBound

	s.solutionObjective = math.Inf(1)
	s.analyticCenterComputed = false
	s.maxTreeSizeLog2 = 0
	s.numRestarts = 0
	s.numRestartsRoot = 0
	s.numImprovingSols = 0
	s.prunedTreeweight = 0
	s.avgRootLPIters = 0
	s.numNodes = 0
	s.numNodesBeforeRun = 0
	s.numLeaves = 0
	s.numLeavesBeforeRun = 0
	s.totalLPIters = 0
	s.heurLPIters = 0
	s.sepaLPIters = 0
	s.sbLPIters = 0
	s.totalLPItersBeforeRun = 0
	s.heurLPItersBeforeRun = 0
	s.sepaLPItersBeforeRun = 0
	s.sbLPItersBeforeRun = 0
	s.numDispLines = 0
	s.rowMatrixSet = false
	s.sem = semaphore.NewWeighted(s.cfg.MaxBackgroundTasks)
	s.startTime = time.Now()

	if s.cfg.MIPStart != nil {
		sol := mip.Solution{ColValue: append([]float64(nil), s.cfg.MIPStart...)}
		sol.ComputeRowValues(s.origModel, s.origModel.Transpose())
		v := sol.Measure(s.origModel, s.feastol)
		s.solution = sol.ColValue
		s.solutionObjective = sol.Objective(s.origModel)
		s.boundViolation = v.Bound
		s.integralityViolation = v.Integrality
		s.rowViolation = v.Row
	}
}

// Status returns the terminal model status, or StatusNotSet while the solve
// is undetermined.
func (s *Solver) Status() mip.ModelStatus { return s.status }

// Solution returns the best known original-space solution and its objective
// in the original sense. The solution may be an infeasible fallback; check
// Status and the violations via SolutionFeasible.
func (s *Solver) Solution() ([]float64, float64) {
	obj := s.solutionObjective
	if s.origModel.Sense == mip.Maximize && obj != math.Inf(1) {
		obj = -obj
	}
	return s.solution, obj
}

// SolutionFeasible reports whether the stored original-space solution meets
// all tolerances.
func (s *Solver) SolutionFeasible() bool {
	return s.solutionObjective != math.Inf(1) &&
		s.boundViolation <= s.feastol &&
		s.integralityViolation <= s.feastol &&
		s.rowViolation <= s.feastol
}

// NumRestarts returns the number of restarts performed so far.
func (s *Solver) NumRestarts() int { return s.numRestarts }

// Bounds returns the current dual and primal bound and the gap in percent,
// in user-facing original-space values.
func (s *Solver) Bounds() (dual, primal, gapPercent float64) {
	return s.boundsForDisplay()
}

// UpLocks and DownLocks return the per-column row lock counts of the current
// model, consumed by rounding heuristics and conflict analysis. Valid after
// setup; the slices must not be mutated.
func (s *Solver) UpLocks() []int { return s.upLocks }

func (s *Solver) DownLocks() []int { return s.downLocks }

// RowIntegral reports whether row has only integral coefficients on integral
// columns, so its activity is integral in every integer feasible point.
func (s *Solver) RowIntegral(row int) bool { return s.rowIntegral.Test(uint(row)) }

// MaxAbsRowCoef returns the largest absolute coefficient of row, used by
// propagation and separation to skip numerically weak rows.
func (s *Solver) MaxAbsRowCoef(row int) float64 { return s.maxAbsRowCoef[row] }

// Solve runs presolve, setup and the root node evaluation, and returns the
// terminal status. StatusNotSet means the root was seeded into the node
// queue and the tree search owns the rest of the solve.
func (s *Solver) Solve() mip.ModelStatus {
	s.runPresolve()
	if s.status != mip.StatusNotSet {
		if s.status == mip.StatusOptimal {
			s.upperBound = 0
			s.lowerBound = 0
			s.transformToOriginalSpace(nil, true)
		}
		return s.status
	}
	s.runSetup()
	if s.status != mip.StatusNotSet {
		return s.status
	}
	s.evaluateRootNode()

	// nothing left to explore and no limit hit: the bounds decide
	if s.status == mip.StatusNotSet && s.queue.NumActiveNodes() == 0 {
		if s.upperBound != math.Inf(1) {
			s.status = mip.StatusOptimal
			s.lowerBound = s.upperBound
		} else {
			s.status = mip.StatusInfeasible
		}
	}
	return s.status
}

func (s *Solver) elapsed() float64 {
	return time.Since(s.startTime).Seconds()
}
