package solver

// SolutionSource attributes a candidate incumbent to the component that
// produced it, carried alongside the solution for logging.
type SolutionSource uint8

const (
	SourceNone SolutionSource = iota
	SourceBranching
	SourceCentralRounding
	SourceFeasibilityPump
	SourceHeuristic
	SourceSubSolve
	SourceEmptyModel
	SourceRandomizedRounding
	SourceSolveLP
	SourceEvaluateNode
	SourceUnbounded
	SourceMIPStart
	SourceTrivial
)

func (s SolutionSource) String() string {
	switch s {
	case SourceBranching:
		return "branching"
	case SourceCentralRounding:
		return "central rounding"
	case SourceFeasibilityPump:
		return "feasibility pump"
	case SourceHeuristic:
		return "heuristic"
	case SourceSubSolve:
		return "sub-solve"
	case SourceEmptyModel:
		return "empty model"
	case SourceRandomizedRounding:
		return "randomized rounding"
	case SourceSolveLP:
		return "solve LP"
	case SourceEvaluateNode:
		return "evaluate node"
	case SourceUnbounded:
		return "unbounded"
	case SourceMIPStart:
		return "MIP start"
	case SourceTrivial:
		return "trivial"
	default:
		return ""
	}
}

// Tag is the single-character marker shown in the progress display.
func (s SolutionSource) Tag() string {
	switch s {
	case SourceBranching:
		return "B"
	case SourceCentralRounding:
		return "C"
	case SourceFeasibilityPump:
		return "F"
	case SourceHeuristic:
		return "H"
	case SourceSubSolve:
		return "L"
	case SourceEmptyModel:
		return "P"
	case SourceRandomizedRounding:
		return "R"
	case SourceSolveLP:
		return "S"
	case SourceEvaluateNode:
		return "T"
	case SourceUnbounded:
		return "U"
	case SourceMIPStart:
		return "M"
	case SourceTrivial:
		return "V"
	default:
		return " "
	}
}
