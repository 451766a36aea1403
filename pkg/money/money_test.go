package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCentsRoundTrip(t *testing.T) {
	assert.Equal(t, int64(800000), Cents(8000.0))
	assert.Equal(t, int64(114286), Cents(1142.86))
	assert.Equal(t, int64(1), Cents(0.005))
	assert.Equal(t, 1142.86, FromCents(114286))
	assert.Equal(t, 0.0, FromCents(0))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1142.86, Round(1142.857142))
	assert.Equal(t, 0.01, Round(0.005))
	assert.Equal(t, 100.0, Round(100.004))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(100.0, 100.0))
	assert.True(t, Equal(100.0, 100.01))
	assert.False(t, Equal(100.0, 100.02))
	assert.True(t, Equal(0.0, -0.005))
}

func TestEvenInstallment(t *testing.T) {
	assert.Equal(t, 800.0, EvenInstallment(8000, 10))
	assert.Equal(t, 1142.86, EvenInstallment(8000, 7))
	assert.Equal(t, 0.0, EvenInstallment(8000, 0))
}

func TestLastInstallment(t *testing.T) {
	// Even division leaves the last part unchanged.
	assert.Equal(t, 800.0, LastInstallment(8000, 800, 10))

	// 8000 / 7 = 1142.857..., six parts of 1142.86 leave 1142.84 for the last.
	per := EvenInstallment(8000, 7)
	last := LastInstallment(8000, per, 7)
	assert.Equal(t, 1142.84, last)
	assert.Equal(t, int64(800000), Cents(per)*6+Cents(last))
}

func TestShareConserves(t *testing.T) {
	cases := []struct {
		total    float64
		num, den int64
	}{
		{30000, 1, 3},
		{100, 1, 3},
		{99999.99, 1, 7},
		{0.01, 1, 2},
		{5000, 2, 5},
	}
	for _, c := range cases {
		part, rest := Share(c.total, c.num, c.den)
		assert.Equal(t, Cents(c.total), Cents(part)+Cents(rest),
			"Share(%v, %d, %d)", c.total, c.num, c.den)
	}

	part, rest := Share(30000, 1, 3)
	assert.Equal(t, 10000.0, part)
	assert.Equal(t, 20000.0, rest)
}

func TestShareZeroDenominator(t *testing.T) {
	part, rest := Share(100, 1, 0)
	assert.Equal(t, 0.0, part)
	assert.Equal(t, 100.0, rest)
}

func TestScaleSeriesConserves(t *testing.T) {
	// Scaling a schedule by 2/3 after one of three units leaves the sale.
	amounts := []float64{1142.86, 1142.86, 1142.86, 1142.86, 1142.86, 1142.86, 1142.84}
	scaled := ScaleSeries(amounts, 2, 3)

	var sumC, scaledC int64
	for _, a := range amounts {
		sumC += Cents(a)
	}
	for _, s := range scaled {
		scaledC += Cents(s)
	}
	assert.Equal(t, int64(800000), sumC)
	assert.Equal(t, roundDiv(sumC*2, 3), scaledC)
	assert.Len(t, scaled, len(amounts))
}

func TestScaleSeriesLargestRemainder(t *testing.T) {
	// 100.00 split three ways then scaled by 1/1 stays exact.
	same := ScaleSeries([]float64{33.33, 33.33, 33.34}, 1, 1)
	assert.Equal(t, []float64{33.33, 33.33, 33.34}, same)

	// Leftover cents go to the entries with the largest discarded fraction.
	scaled := ScaleSeries([]float64{0.01, 0.01, 0.01}, 1, 3)
	var total int64
	for _, s := range scaled {
		total += Cents(s)
	}
	assert.Equal(t, roundDiv(3, 3), total)
}

func TestScaleSeriesEmpty(t *testing.T) {
	assert.Nil(t, ScaleSeries(nil, 1, 2))
	assert.Nil(t, ScaleSeries([]float64{100}, 1, 0))
}
