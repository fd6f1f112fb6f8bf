package solver

import (
	"math"
	"testing"

	"github.com/consensys/gomip/mip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// lpResult is one scripted outcome of a relaxation solve. The last result
// repeats once the script is exhausted.
type lpResult struct {
	status     Status
	obj        float64
	sol        []float64
	fractional []int
	iters      int64
}

type fakeRelax struct {
	lp      *mip.Model
	results []lpResult
	cur     lpResult
	solved  bool

	iters   int64
	solves  int64
	loads   int
	numRows int

	basis     mip.Basis
	objLimit  float64
	iterLimit int64
}

func newFakeRelax(m *mip.Model, results ...lpResult) *fakeRelax {
	return &fakeRelax{lp: m, results: results, numRows: m.NumRow}
}

func (r *fakeRelax) LoadModel() {
	r.loads++
	r.numRows = r.lp.NumRow
	r.solved = false
}

func (r *fakeRelax) Resolve(Domain) Status {
	if len(r.results) > 0 {
		r.cur = r.results[0]
		if len(r.results) > 1 {
			r.results = r.results[1:]
		}
	}
	r.solved = true
	r.solves++
	r.iters += r.cur.iters
	return r.cur.status
}

func (r *fakeRelax) Status() Status {
	if !r.solved {
		return StatusNotSet
	}
	return r.cur.status
}

func (r *fakeRelax) Objective() float64        { return r.cur.obj }
func (r *fakeRelax) Solution() []float64       { return r.cur.sol }
func (r *fakeRelax) Duals() []float64          { return nil }
func (r *fakeRelax) FractionalIntegers() []int { return r.cur.fractional }
func (r *fakeRelax) Iterations() int64         { return r.iters }

func (r *fakeRelax) AvgSolveIters() float64 {
	if r.solves == 0 {
		return 0
	}
	return float64(r.iters) / float64(r.solves)
}

func (r *fakeRelax) SetObjectiveLimit(limit float64) { r.objLimit = limit }
func (r *fakeRelax) SetIterationLimit(n int64)       { r.iterLimit = n }
func (r *fakeRelax) Basis() mip.Basis                { return r.basis }
func (r *fakeRelax) SetBasis(b mip.Basis)            { r.basis = b }
func (r *fakeRelax) FlushDomain(d Domain)            { d.ClearChangedCols() }
func (r *fakeRelax) NumRows() int                    { return r.numRows }
func (r *fakeRelax) NumModelRows() int               { return r.lp.NumRow }
func (r *fakeRelax) RemoveObsoleteRows()             {}
func (r *fakeRelax) ReseparateCuts() int             { return 0 }
func (r *fakeRelax) LP() *mip.Model                  { return r.lp.Copy() }

type fakeDomain struct {
	lower, upper []float64
	changed      []int
	infeasible   bool
	fixed        map[int]bool
	objLB        float64

	propagates  int
	onPropagate func(d *fakeDomain)
}

func newFakeDomain(m *mip.Model) *fakeDomain {
	return &fakeDomain{
		lower: append([]float64(nil), m.ColLower...),
		upper: append([]float64(nil), m.ColUpper...),
		fixed: make(map[int]bool),
		objLB: math.Inf(-1),
	}
}

func (d *fakeDomain) Propagate() {
	d.propagates++
	if d.onPropagate != nil {
		d.onPropagate(d)
	}
}

func (d *fakeDomain) Infeasible() bool             { return d.infeasible }
func (d *fakeDomain) ChangedCols() []int           { return d.changed }
func (d *fakeDomain) ClearChangedCols()            { d.changed = nil }
func (d *fakeDomain) ComputeRowActivities()        {}
func (d *fakeDomain) IsFixed(col int) bool         { return d.fixed[col] }
func (d *fakeDomain) ColLower() []float64          { return d.lower }
func (d *fakeDomain) ColUpper() []float64          { return d.upper }
func (d *fakeDomain) ObjectiveLowerBound() float64 { return d.objLB }

func (d *fakeDomain) FixColLower(col int) {
	d.upper[col] = d.lower[col]
	d.fixed[col] = true
}

func (d *fakeDomain) FixColUpper(col int) {
	d.lower[col] = d.upper[col]
	d.fixed[col] = true
}

type fakeSepa struct {
	cuts   []int // cut count per round, zero once exhausted
	rounds int
}

func (f *fakeSepa) SeparationRound(Domain) (int, Status) {
	f.rounds++
	if len(f.cuts) == 0 {
		return 0, StatusOptimal
	}
	n := f.cuts[0]
	f.cuts = f.cuts[1:]
	return n, StatusOptimal
}

type fakeHeur struct {
	randomized func(sol []float64) int64
	calls      map[string]int
}

func newFakeHeur() *fakeHeur {
	return &fakeHeur{calls: make(map[string]int)}
}

func (h *fakeHeur) RandomizedRounding(sol []float64) int64 {
	h.calls["randomized"]++
	if h.randomized != nil {
		return h.randomized(sol)
	}
	return 0
}

func (h *fakeHeur) CentralRounding([]float64) int64 {
	h.calls["central"]++
	return 0
}

func (h *fakeHeur) RootReducedCost() int64 {
	h.calls["rootReducedCost"]++
	return 0
}

func (h *fakeHeur) RENS([]float64) int64 {
	h.calls["rens"]++
	return 0
}

func (h *fakeHeur) FeasibilityPump() int64 {
	h.calls["feasibilityPump"]++
	return 0
}

func (h *fakeHeur) Trivial() int64 {
	h.calls["trivial"]++
	return 0
}

// fakeRepair records the fixed-integer model it was handed and returns a
// scripted solution.
type fakeRepair struct {
	sol      []float64
	feasible bool

	calls int
	fixed *mip.Model
}

func (r *fakeRepair) SolveFixed(m *mip.Model) (mip.Solution, bool) {
	r.calls++
	r.fixed = m
	return mip.Solution{ColValue: append([]float64(nil), r.sol...)}, r.feasible
}

type fakeQueue struct {
	numCol   int
	optLimit float64
	pruneAt  []float64
	roots    [][2]float64
	cleared  int
}

func (q *fakeQueue) SetNumCol(n int)              { q.numCol = n }
func (q *fakeQueue) SetOptimalityLimit(l float64) { q.optLimit = l }
func (q *fakeQueue) NumActiveNodes() int64        { return int64(len(q.roots)) }
func (q *fakeQueue) Clear()                       { q.cleared++; q.roots = nil }

func (q *fakeQueue) PruneByBound(limit float64) float64 {
	q.pruneAt = append(q.pruneAt, limit)
	return 0
}

func (q *fakeQueue) EmplaceRootNode(lowerBound, estimate float64) {
	q.roots = append(q.roots, [2]float64{lowerBound, estimate})
}

type fakes struct {
	relax  *fakeRelax
	domain *fakeDomain
	sepa   *fakeSepa
	heur   *fakeHeur
	queue  *fakeQueue
}

// testModel builds min x0 + x1 + x2, x0,x1 integer in [0,3], x2 continuous
// in [0,10], subject to x0 + x1 + x2 >= 1.
func testModel() *mip.Model {
	return &mip.Model{
		NumCol:      3,
		NumRow:      1,
		ColCost:     []float64{1, 1, 1},
		ColLower:    []float64{0, 0, 0},
		ColUpper:    []float64{3, 3, 10},
		RowLower:    []float64{1},
		RowUpper:    []float64{math.Inf(1)},
		AStart:      []int{0, 1, 2, 3},
		AIndex:      []int{0, 0, 0},
		AValue:      []float64{1, 1, 1},
		Integrality: []mip.VarType{mip.Integer, mip.Integer, mip.Continuous},
		Sense:       mip.Minimize,
	}
}

func newTestSolver(t *testing.T, m *mip.Model, results []lpResult, opts ...Option) (*Solver, *fakes) {
	t.Helper()

	f := &fakes{
		relax:  newFakeRelax(m, results...),
		domain: newFakeDomain(m),
		sepa:   &fakeSepa{},
		heur:   newFakeHeur(),
		queue:  &fakeQueue{},
	}
	adapters := Adapters{
		Relaxation: f.relax,
		Domain:     f.domain,
		Separator:  f.sepa,
		Heuristics: f.heur,
		NodeQueue:  f.queue,
	}
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	s, err := New(m, adapters, opts...)
	require.NoError(t, err)
	return s, f
}
