package invoice

import (
	"math"

	"github.com/shopspring/decimal"
)

// Tolerance is the allowed rounding drift between aggregates, in currency units
const Tolerance = 0.01

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Round2 rounds money half-up (away from zero) to 2 decimals
func Round2(v float64) float64 {
	return float(dec(v).Round(2))
}

// SplitGrossToNet breaks a VAT-inclusive amount into NET and VAT parts,
// all three rounded to 2 decimals
func SplitGrossToNet(gross, vatRate float64) (net, vat, grossOut float64) {
	if gross <= 0 || vatRate <= 0 {
		return Round2(gross), 0, Round2(gross)
	}
	g := dec(gross)
	n := g.Div(decimal.NewFromInt(1).Add(dec(vatRate)))
	return float(n.Round(2)), float(g.Sub(n).Round(2)), float(g.Round(2))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps+1e-9
}
