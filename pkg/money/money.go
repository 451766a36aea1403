// Package money provides cent-exact arithmetic for monetary amounts.
// Amounts are stored as float64 in the models but every division or scaling
// that could drift goes through integer cents here, with a largest-remainder
// rule so shares always sum exactly to the total being divided.
package money

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Epsilon is the rounding tolerance used when comparing monetary sums.
const Epsilon = 0.01

// Cents converts an amount to integer cents, rounding half away from zero.
func Cents(v float64) int64 {
	return decimal.NewFromFloat(v).Round(2).Shift(2).IntPart()
}

// FromCents converts integer cents back to a float amount.
func FromCents(c int64) float64 {
	f, _ := decimal.New(c, -2).Float64()
	return f
}

// Round rounds an amount to two decimal places.
func Round(v float64) float64 {
	return FromCents(Cents(v))
}

// Equal reports whether two amounts are equal within Epsilon. The comparison
// runs in cents so the tolerance stays inclusive at the boundary.
func Equal(a, b float64) bool {
	d := Cents(a) - Cents(b)
	if d < 0 {
		d = -d
	}
	return d <= 1
}

// EvenInstallment returns the per-installment amount for an even division of
// total into n parts, rounded to the cent. The caller gives the remainder to
// the last part via LastInstallment.
func EvenInstallment(total float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	per := decimal.NewFromFloat(total).Div(decimal.NewFromInt(int64(n))).Round(2)
	f, _ := per.Float64()
	return f
}

// LastInstallment returns what the final part of an even division must carry
// so that all n parts sum exactly to total.
func LastInstallment(total float64, per float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	last := Cents(total) - Cents(per)*int64(n-1)
	return FromCents(last)
}

// Share splits total into a num/den share and its complement. The two return
// values always sum exactly to total (in cents); the share is rounded to the
// nearest cent and the complement absorbs the remainder.
func Share(total float64, num, den int64) (part, rest float64) {
	if den == 0 {
		return 0, total
	}
	totalC := Cents(total)
	partC := roundDiv(totalC*num, den)
	return FromCents(partC), FromCents(totalC - partC)
}

// ScaleSeries rescales every amount by num/den using the largest-remainder
// rule: each element is floored to the cent and the leftover cents of the
// scaled grand total are handed out to the elements with the largest
// discarded fractions. The returned series sums exactly to
// round(sum(amounts) * num / den).
func ScaleSeries(amounts []float64, num, den int64) []float64 {
	if len(amounts) == 0 || den == 0 {
		return nil
	}

	type frac struct {
		idx int
		rem int64
	}

	scaled := make([]int64, len(amounts))
	fracs := make([]frac, len(amounts))
	var sumC, sumScaled int64
	for i, a := range amounts {
		c := Cents(a)
		sumC += c
		q := (c * num) / den
		scaled[i] = q
		fracs[i] = frac{idx: i, rem: (c * num) % den}
		sumScaled += q
	}

	target := roundDiv(sumC*num, den)

	// Hand one extra cent to the elements that lost the most to flooring.
	sort.SliceStable(fracs, func(i, j int) bool {
		return fracs[i].rem > fracs[j].rem
	})
	for i := 0; sumScaled < target && i < len(fracs); i++ {
		scaled[fracs[i].idx]++
		sumScaled++
	}

	out := make([]float64, len(amounts))
	for i, c := range scaled {
		out[i] = FromCents(c)
	}
	return out
}

// roundDiv divides a by b rounding half away from zero. Inputs are assumed
// non-negative, which holds for monetary amounts in this domain.
func roundDiv(a, b int64) int64 {
	return (a + b/2) / b
}
