package numeric

import (
	"math"

	"github.com/provato/provato/internal/model"
)

// MatchLevel is the four-tier classification of how close a claimed value
// sits to an actual value.
type MatchLevel string

const (
	MatchExact       MatchLevel = "exact"       // <= 1% off
	MatchClose       MatchLevel = "close"       // <= 5% off
	MatchNotable     MatchLevel = "notable"     // <= 15% off
	MatchSignificant MatchLevel = "significant" // > 15% off
)

// Comparison is the result of comparing a claimed value to an actual one.
type Comparison struct {
	Claimed float64    `json:"claimed"`
	Actual  float64    `json:"actual"`
	AbsDiff float64    `json:"abs_diff"`
	PctDiff float64    `json:"pct_diff"` // Percent of actual
	Level   MatchLevel `json:"level"`
}

// Calc provides the deterministic math primitives, parameterized by the
// configured tolerance bands.
type Calc struct {
	tol model.ToleranceConfig
}

// NewCalc creates a calculator with the given tolerances.
func NewCalc(tol model.ToleranceConfig) *Calc {
	return &Calc{tol: tol}
}

// CompareValues classifies the difference between a claimed and an actual
// value. Match level is monotonically non-increasing in the percentage
// difference across the configured band boundaries.
func (c *Calc) CompareValues(claimed, actual float64) Comparison {
	absDiff := math.Abs(claimed - actual)

	var pctDiff float64
	switch {
	case actual != 0:
		pctDiff = absDiff / math.Abs(actual) * 100
	case claimed == 0:
		pctDiff = 0
	default:
		pctDiff = math.Inf(1)
	}

	level := MatchSignificant
	switch {
	case pctDiff <= c.tol.ExactPct:
		level = MatchExact
	case pctDiff <= c.tol.ClosePct:
		level = MatchClose
	case pctDiff <= c.tol.NotablePct:
		level = MatchNotable
	}

	return Comparison{
		Claimed: claimed,
		Actual:  actual,
		AbsDiff: absDiff,
		PctDiff: pctDiff,
		Level:   level,
	}
}

// GrowthRate returns the percent change from old to new.
func GrowthRate(old, new float64) float64 {
	if old == 0 {
		return 0
	}
	return (new - old) / math.Abs(old) * 100
}

// CAGR returns the compound annual growth rate over the given number of
// years, as a percentage. Zero when inputs make the rate undefined.
func CAGR(begin, end float64, years float64) float64 {
	if begin <= 0 || end <= 0 || years <= 0 {
		return 0
	}
	return (math.Pow(end/begin, 1/years) - 1) * 100
}

// Margin returns profit as a percent of revenue.
func Margin(profit, revenue float64) float64 {
	if revenue == 0 {
		return 0
	}
	return profit / revenue * 100
}

// Multiple returns value / denominator (e.g. EV / EBITDA).
func Multiple(value, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return value / denominator
}

// VerifyMultiplication checks claimed == a * b within the arithmetic
// tolerance.
func (c *Calc) VerifyMultiplication(a, b, claimed float64) bool {
	return c.withinArithmeticTolerance(a*b, claimed)
}

// VerifyDivision checks claimed == a / b within the arithmetic tolerance.
func (c *Calc) VerifyDivision(a, b, claimed float64) bool {
	if b == 0 {
		return false
	}
	return c.withinArithmeticTolerance(a/b, claimed)
}

// VerifySum checks claimed == sum(terms) within the arithmetic tolerance.
func (c *Calc) VerifySum(terms []float64, claimed float64) bool {
	var sum float64
	for _, t := range terms {
		sum += t
	}
	return c.withinArithmeticTolerance(sum, claimed)
}

func (c *Calc) withinArithmeticTolerance(expected, claimed float64) bool {
	if expected == 0 {
		return math.Abs(claimed) < 1e-9
	}
	return math.Abs(claimed-expected)/math.Abs(expected)*100 <= c.tol.ArithmeticPct
}
