// Package quad implements compensated double-double accumulation.
//
// A Double carries roughly twice the precision of a float64 by keeping the
// rounding error of every operation in a separate low-order word. The solver
// uses it when recomputing objective values and row activities of candidate
// incumbents, where plain float64 summation can misjudge a solution that sits
// right at the feasibility tolerance.
package quad

import "math"

// Double is an unevaluated sum hi + lo with |lo| <= ulp(hi)/2.
type Double struct {
	hi, lo float64
}

// New returns x as a Double.
func New(x float64) Double {
	return Double{hi: x}
}

func twoSum(a, b float64) (s, err float64) {
	s = a + b
	bb := s - a
	err = (a - (s - bb)) + (b - bb)
	return s, err
}

// Add returns d + x.
func (d Double) Add(x float64) Double {
	s, e := twoSum(d.hi, x)
	e += d.lo
	s, e = twoSum(s, e)
	return Double{hi: s, lo: e}
}

// Sub returns d - x.
func (d Double) Sub(x float64) Double {
	return d.Add(-x)
}

// MulAdd returns d + a*b with the product split into its exact and error
// parts, so that no precision is lost before accumulation.
func (d Double) MulAdd(a, b float64) Double {
	p := a * b
	e := math.FMA(a, b, -p)
	return d.Add(p).Add(e)
}

// Float64 rounds d to the nearest float64.
func (d Double) Float64() float64 {
	return d.hi + d.lo
}

// Sqrt returns an approximation of the square root of d, accurate enough for
// the norm computations in the separation progress measure.
func (d Double) Sqrt() float64 {
	if d.hi <= 0 {
		return 0
	}
	r := math.Sqrt(d.hi)
	// one Newton step using the low-order word
	return r + d.lo/(2*r)
}
