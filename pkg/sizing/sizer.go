package sizing

import (
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

// Sizer turns a qualitative signal into a quantity given the symbol and a
// reference price.
type Sizer interface {
	Size(symbol string, price fixed.Point) fixed.Point
}

// FixedUnits always returns the same quantity, the classic fixed-lot policy.
type FixedUnits struct {
	units fixed.Point
}

func NewFixedUnits(units fixed.Point) *FixedUnits {
	return &FixedUnits{units: units}
}

func (s *FixedUnits) Size(_ string, _ fixed.Point) fixed.Point {
	return s.units
}

// RiskFraction sizes to a fraction of current equity divided by price. The
// equity provider is queried at sizing time so the quantity tracks the
// account as it grows or draws down.
type RiskFraction struct {
	fraction fixed.Point
	equity   func() fixed.Point
}

func NewRiskFraction(fraction fixed.Point, equity func() fixed.Point) *RiskFraction {
	return &RiskFraction{
		fraction: fraction,
		equity:   equity,
	}
}

func (s *RiskFraction) Size(_ string, price fixed.Point) fixed.Point {
	if price.IsZero() {
		return fixed.Zero
	}
	return s.equity().Mul(s.fraction).Div(price).Rescale(0)
}
