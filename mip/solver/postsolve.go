package solver

import "github.com/consensys/gomip/mip"

// IdentityStack is the postsolve stack of a model that was not presolved:
// every index maps to itself and cuts appended to the model simply extend
// the row index range. It also serves as the embedded base for real
// postsolve stacks that only track index maps.
type IdentityStack struct {
	numCol  int
	numRow  int
	numCuts int
}

// NewIdentityStack returns an identity postsolve stack for a model with the
// given dimensions.
func NewIdentityStack(numRow, numCol int) *IdentityStack {
	return &IdentityStack{numCol: numCol, numRow: numRow}
}

func (st *IdentityStack) UndoPrimal(reduced mip.Solution) mip.Solution {
	return mip.Solution{ColValue: append([]float64(nil), reduced.ColValue...)}
}

func (st *IdentityStack) ReducedPrimalSolution(orig []float64) []float64 {
	return append([]float64(nil), orig...)
}

func (st *IdentityStack) OrigColIndex(col int) int { return col }
func (st *IdentityStack) OrigRowIndex(row int) int { return row }
func (st *IdentityStack) OrigNumCol() int          { return st.numCol }
func (st *IdentityStack) OrigNumRow() int          { return st.numRow + st.numCuts }

func (st *IdentityStack) AppendCutsToModel(numCuts int)   { st.numCuts += numCuts }
func (st *IdentityStack) RemoveCutsFromModel(numCuts int) { st.numCuts -= numCuts }
