// Package mip defines the model and solution vocabulary shared by the solver
// core and its external collaborators (relaxation solver, presolver, domain
// propagator, separators, heuristics).
//
// All values are plain float64 in the space of the model that owns them;
// crossing the presolve boundary always goes through a postsolve stack.
package mip

import "math"

// Inf is the value used for absent column and row bounds.
var Inf = math.Inf(1)

// VarType classifies a column.
type VarType uint8

const (
	Continuous VarType = iota
	Integer
	// ImplicitInteger marks a continuous column that takes integral values in
	// every feasible solution, as detected by presolve.
	ImplicitInteger
)

func (v VarType) String() string {
	switch v {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case ImplicitInteger:
		return "implied integer"
	default:
		return "unknown"
	}
}

// ObjSense is the optimization direction. The solver core always works on a
// minimization problem; a maximization model is negated on entry and the
// sense is only consulted when reporting bounds to the user.
type ObjSense int8

const (
	Minimize ObjSense = 1
	Maximize ObjSense = -1
)

// ModelStatus is the terminal state of a solve attempt. Infeasibility and
// unboundedness are expected outcomes, not errors.
type ModelStatus uint8

const (
	StatusNotSet ModelStatus = iota
	StatusOptimal
	StatusInfeasible
	StatusUnbounded
	StatusUnboundedOrInfeasible
	StatusTimeLimit
	StatusSolutionLimit
	StatusObjectiveTarget
	StatusInterrupt
)

func (s ModelStatus) String() string {
	switch s {
	case StatusNotSet:
		return "not set"
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusUnboundedOrInfeasible:
		return "unbounded or infeasible"
	case StatusTimeLimit:
		return "time limit"
	case StatusSolutionLimit:
		return "solution limit"
	case StatusObjectiveTarget:
		return "objective target"
	case StatusInterrupt:
		return "interrupt"
	default:
		return "unknown"
	}
}
