package recipeutil

import (
	"fmt"
	"math"
	"strconv"
)

const (
	// fractionTolerance is relative to the value being approximated.
	fractionTolerance = 1e-6
	// maxDenominator is the largest denominator shown in a kitchen.
	maxDenominator = 16
	maxConvergents = 64
)

// ToFraction formats a decimal as the nearest culinary fraction, e.g. 1.5 -> "1 1/2".
// Values that need a denominator above 16 fall back to two decimal places.
func ToFraction(decimal float64) string {
	if math.IsNaN(decimal) || math.IsInf(decimal, 0) {
		return fmt.Sprintf("%.2f", decimal)
	}
	if decimal < 0 {
		return "-" + ToFraction(-decimal)
	}
	if decimal == math.Trunc(decimal) {
		return strconv.FormatFloat(decimal, 'f', -1, 64)
	}

	// continued fraction convergents h1/k1
	h1, h2 := 1.0, 0.0
	k1, k2 := 0.0, 1.0
	b := decimal
	for i := 0; i < maxConvergents; i++ {
		a := math.Floor(b)
		h1, h2 = a*h1+h2, h1
		k1, k2 = a*k1+k2, k1
		if math.Abs(decimal-h1/k1) <= decimal*fractionTolerance {
			break
		}
		b = 1 / (b - a)
	}

	if k1 > maxDenominator {
		return fmt.Sprintf("%.2f", decimal)
	}

	num, den := int64(h1), int64(k1)
	whole, rem := num/den, num%den
	switch {
	case rem == 0:
		return strconv.FormatInt(whole, 10)
	case whole > 0:
		return fmt.Sprintf("%d %d/%d", whole, rem, den)
	default:
		return fmt.Sprintf("%d/%d", num, den)
	}
}
