package mip

// BasisStatus is the simplex status of a single column or row.
type BasisStatus uint8

const (
	BasisLower BasisStatus = iota
	BasisBasic
	BasisUpper
	BasisZero
	BasisNonbasic
)

// Basis is a simplex basis for a model. An invalid basis must be ignored by
// consumers; an alien basis may not be consistent with the model it is set on
// and needs repair by the relaxation solver.
type Basis struct {
	ColStatus []BasisStatus
	RowStatus []BasisStatus
	Valid     bool
	Alien     bool
}

// SlackBasis returns the all-slack basis for a model with the given
// dimensions: every row basic, every column nonbasic.
func SlackBasis(numCol, numRow int) Basis {
	b := Basis{
		ColStatus: make([]BasisStatus, numCol),
		RowStatus: make([]BasisStatus, numRow),
		Valid:     true,
	}
	for i := range b.ColStatus {
		b.ColStatus[i] = BasisNonbasic
	}
	for i := range b.RowStatus {
		b.RowStatus[i] = BasisBasic
	}
	return b
}
