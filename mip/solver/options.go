package solver

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/consensys/gomip/logger"
	"github.com/rs/zerolog"
)

// Option defines option for altering the behavior of the solver core. See
// the descriptions of functions returning instances of this type for
// implemented options.
type Option func(*Config) error

// Config is the configuration for a solve attempt with the options applied.
type Config struct {
	FeasTol float64 // feasibility tolerance
	Epsilon float64 // small value / integrality threshold

	AbsGap float64 // absolute optimality gap tolerance
	RelGap float64 // relative optimality gap tolerance

	HeuristicEffort float64 // fraction of LP iterations granted to heuristics

	ObjectiveBound  float64 // externally known upper bound on the objective
	ObjectiveTarget float64 // stop once the incumbent objective reaches this

	MaxNodes         int64
	MaxLeaves        int64
	MaxImprovingSols int64
	TimeLimit        time.Duration // zero means no limit

	Presolve          bool
	DetectSymmetry    bool
	TrivialHeuristics bool

	// SubSolve marks a truncated sub-solve spawned by a heuristic; it caps
	// separation rounds and tightens the heuristic budget.
	SubSolve bool

	ReportLevel        int // 0 silent, 1 periodic, 2 every event
	MinLoggingInterval time.Duration

	MaxBackgroundTasks int64 // bound on concurrently running background tasks

	Logger    zerolog.Logger
	Interrupt func() bool // polled by the limit checker, may be nil

	// ImprovingSolutionWriter receives a CBOR record for every improving
	// incumbent when non-nil.
	ImprovingSolutionWriter io.Writer

	Estimator Estimator // may be nil; the root estimate falls back to the bound

	// MIPStart is an original-space point injected as a candidate incumbent
	// during setup.
	MIPStart []float64
}

// NewConfig returns a default Config with given options applied.
func NewConfig(opts ...Option) (Config, error) {
	cfg := Config{
		FeasTol:            1e-6,
		Epsilon:            1e-9,
		HeuristicEffort:    0.05,
		ObjectiveBound:     math.Inf(1),
		ObjectiveTarget:    math.Inf(-1),
		MaxNodes:           math.MaxInt64,
		MaxLeaves:          math.MaxInt64,
		MaxImprovingSols:   math.MaxInt64,
		Presolve:           true,
		DetectSymmetry:     true,
		TrivialHeuristics:  true,
		ReportLevel:        1,
		MinLoggingInterval: 5 * time.Second,
		MaxBackgroundTasks: 2,
		Logger:             logger.Logger(),
	}
	for _, option := range opts {
		if err := option(&cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// WithFeasibilityTolerance sets the feasibility tolerance used by all
// incumbent checks.
func WithFeasibilityTolerance(tol float64) Option {
	return func(cfg *Config) error {
		if tol <= 0 {
			return fmt.Errorf("feasibility tolerance must be positive, got %g", tol)
		}
		cfg.FeasTol = tol
		return nil
	}
}

// WithGapTolerances sets the absolute and relative optimality gap at which a
// solve is considered good enough to stop.
func WithGapTolerances(absGap, relGap float64) Option {
	return func(cfg *Config) error {
		if absGap < 0 || relGap < 0 {
			return fmt.Errorf("gap tolerances must be non-negative, got %g and %g", absGap, relGap)
		}
		cfg.AbsGap = absGap
		cfg.RelGap = relGap
		return nil
	}
}

// WithTimeLimit bounds the wall clock time of the solve attempt.
func WithTimeLimit(d time.Duration) Option {
	return func(cfg *Config) error {
		cfg.TimeLimit = d
		return nil
	}
}

// WithNodeLimit bounds the number of explored nodes.
func WithNodeLimit(n int64) Option {
	return func(cfg *Config) error {
		cfg.MaxNodes = n
		return nil
	}
}

// WithLeafLimit bounds the number of explored leaves.
func WithLeafLimit(n int64) Option {
	return func(cfg *Config) error {
		cfg.MaxLeaves = n
		return nil
	}
}

// WithImprovingSolutionLimit stops the solve after n improving incumbents.
func WithImprovingSolutionLimit(n int64) Option {
	return func(cfg *Config) error {
		cfg.MaxImprovingSols = n
		return nil
	}
}

// WithObjectiveBound passes an externally known objective bound used as the
// initial cutoff.
func WithObjectiveBound(bound float64) Option {
	return func(cfg *Config) error {
		cfg.ObjectiveBound = bound
		return nil
	}
}

// WithObjectiveTarget stops the solve once the incumbent objective is at
// least as good as target, sense-aware.
func WithObjectiveTarget(target float64) Option {
	return func(cfg *Config) error {
		cfg.ObjectiveTarget = target
		return nil
	}
}

// WithPresolve enables or disables re-presolving, including the restart
// machinery which depends on it.
func WithPresolve(on bool) Option {
	return func(cfg *Config) error {
		cfg.Presolve = on
		return nil
	}
}

// WithSymmetryDetection enables or disables background symmetry detection.
func WithSymmetryDetection(on bool) Option {
	return func(cfg *Config) error {
		cfg.DetectSymmetry = on
		return nil
	}
}

// WithTrivialHeuristics enables or disables the trivial heuristics pass.
func WithTrivialHeuristics(on bool) Option {
	return func(cfg *Config) error {
		cfg.TrivialHeuristics = on
		return nil
	}
}

// WithHeuristicEffort sets the fraction of total LP iterations granted to
// primal heuristics.
func WithHeuristicEffort(effort float64) Option {
	return func(cfg *Config) error {
		if effort < 0 || effort > 1 {
			return fmt.Errorf("heuristic effort must be in [0,1], got %g", effort)
		}
		cfg.HeuristicEffort = effort
		return nil
	}
}

// WithSubSolve marks the solve as a truncated sub-solve.
func WithSubSolve() Option {
	return func(cfg *Config) error {
		cfg.SubSolve = true
		return nil
	}
}

// WithLogger overrides the logger used for progress display and warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *Config) error {
		cfg.Logger = l
		return nil
	}
}

// WithReportLevel sets the display verbosity (0 silent, 1 periodic, 2 every
// event).
func WithReportLevel(level int) Option {
	return func(cfg *Config) error {
		if level < 0 || level > 2 {
			return fmt.Errorf("report level must be 0, 1 or 2, got %d", level)
		}
		cfg.ReportLevel = level
		return nil
	}
}

// WithInterrupt registers a user interrupt predicate polled at every loop
// boundary.
func WithInterrupt(f func() bool) Option {
	return func(cfg *Config) error {
		cfg.Interrupt = f
		return nil
	}
}

// WithImprovingSolutionWriter streams a CBOR record of every improving
// incumbent to w.
func WithImprovingSolutionWriter(w io.Writer) Option {
	return func(cfg *Config) error {
		cfg.ImprovingSolutionWriter = w
		return nil
	}
}

// WithEstimator sets the pseudocost estimator consulted when seeding the
// root node.
func WithEstimator(e Estimator) Option {
	return func(cfg *Config) error {
		cfg.Estimator = e
		return nil
	}
}

// WithMIPStart injects an original-space point as a candidate incumbent
// during setup.
func WithMIPStart(sol []float64) Option {
	return func(cfg *Config) error {
		cfg.MIPStart = sol
		return nil
	}
}

// WithMaxBackgroundTasks bounds the number of background tasks running
// concurrently.
func WithMaxBackgroundTasks(n int64) Option {
	return func(cfg *Config) error {
		if n < 1 {
			return fmt.Errorf("background task bound must be at least 1, got %d", n)
		}
		cfg.MaxBackgroundTasks = n
		return nil
	}
}
