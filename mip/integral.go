package mip

import "math"

const maxIntegralScale = 1e6

// IntegralScale returns a scale such that every value in vals is within eps
// of an integral multiple of 1/scale, or ok == false when no such scale with
// a denominator up to 1024 per value exists. A zero-length or all-zero input
// is integral with scale 1.
//
// An integral objective lets the cutoff arithmetic round the upper limit down
// to the next representable objective value instead of subtracting a
// tolerance.
func IntegralScale(vals []float64, eps float64) (scale float64, ok bool) {
	scale = 1.0
	for _, v := range vals {
		if v == 0 {
			continue
		}
		d, found := denominator(v*scale, eps)
		if !found {
			return 0, false
		}
		scale *= d
		if scale > maxIntegralScale {
			return 0, false
		}
	}
	return scale, true
}

// denominator finds the smallest d <= 1024 with v*d integral within eps*d,
// walking the continued fraction expansion of the fractional part.
func denominator(v, eps float64) (float64, bool) {
	frac := v - math.Floor(v+0.5)
	if math.Abs(frac) <= eps {
		return 1, true
	}
	// continued fraction convergents p/q of |frac|
	x := math.Abs(frac)
	var q0, q1 float64 = 0, 1
	for iter := 0; iter < 30; iter++ {
		a := math.Floor(1 / x)
		q0, q1 = q1, a*q1+q0
		if q1 > 1024 {
			return 0, false
		}
		if math.Abs(v*q1-math.Floor(v*q1+0.5)) <= eps*q1 {
			return q1, true
		}
		x = 1/x - a
		if x <= eps {
			break
		}
	}
	return 0, false
}
