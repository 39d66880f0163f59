package estimator

import (
	"math"
	"math/big"
	"strconv"
)

// roundHalfUp rounds to the nearest integer with ties toward +Inf,
// so 2.5 -> 3 and -2.5 -> -2.
func roundHalfUp(x float64) float64 {
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	return r
}

// formatTenths renders x with exactly one fractional digit. Rounding works
// on the exact binary value of x with ties away from zero, so 0.25 becomes
// "0.3" while 1.15 (stored as 1.1499...) becomes "1.1". Negative values keep
// their sign even when they round to zero ("-0.0").
func formatTenths(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'f', 1, 64)
	}

	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}

	r := new(big.Rat).SetFloat64(x)
	r.Mul(r, big.NewRat(10, 1))

	q, m := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if m.Lsh(m, 1).Cmp(r.Denom()) >= 0 {
		q.Add(q, big.NewInt(1))
	}

	digits := q.String()
	if len(digits) < 2 {
		digits = "0" + digits
	}
	return sign + digits[:len(digits)-1] + "." + digits[len(digits)-1:]
}
