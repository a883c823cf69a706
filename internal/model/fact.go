package model

// FinancialFact is a numeric value extracted deterministically from text.
// Facts are never mutated after extraction; derived facts reference their
// bases through the dependency graph, not through the fact itself.
type FinancialFact struct {
	ID         string          `json:"id"`                 // f-1, f-2, ... per document scan
	Raw        string          `json:"raw"`                // Matched text span
	Value      float64         `json:"value"`              // Parsed numeric value, unscaled
	Unit       Unit            `json:"unit"`               // currency / percent / multiple / ...
	Scale      Scale           `json:"scale"`              // thousand ... trillion, ScaleNone for bare numbers
	Category   MetricCategory  `json:"category"`           // revenue / profit / margin / ...
	Period     string          `json:"period,omitempty"`   // Label as written ("FY2024", "Q3 2025")
	PeriodType PeriodType      `json:"period_type"`        // annual / quarterly / ltm / ...
	Basis      AccountingBasis `json:"basis"`              // GAAP / non-GAAP / IFRS / pro-forma
	Entity     string          `json:"entity,omitempty"`   // Company the fact belongs to, when detectable
	Offset     int             `json:"offset"`             // Byte offset of the match in the document
	Sentence   string          `json:"sentence,omitempty"` // Sentence containing the match
}

// NormalizedValue returns value x scale multiplier. Percent, ratio,
// multiple and basis-point units are never scaled.
func (f FinancialFact) NormalizedValue() float64 {
	switch f.Unit {
	case UnitPercent, UnitRatio, UnitMultiple, UnitBasisPoints:
		return f.Value
	}
	return f.Value * f.Scale.Multiplier()
}

// Unit classifies what kind of quantity a fact expresses
type Unit string

const (
	UnitCurrency    Unit = "currency"
	UnitPercent     Unit = "percent"
	UnitBasisPoints Unit = "basis_points"
	UnitMultiple    Unit = "multiple" // 12.5x EBITDA
	UnitRatio       Unit = "ratio"
	UnitCount       Unit = "count" // units, stores, employees
)

// Scale is the magnitude suffix attached to a currency value
type Scale string

const (
	ScaleNone     Scale = ""
	ScaleThousand Scale = "thousand"
	ScaleMillion  Scale = "million"
	ScaleBillion  Scale = "billion"
	ScaleTrillion Scale = "trillion"
)

// Multiplier returns the numeric multiplier for the scale.
func (s Scale) Multiplier() float64 {
	switch s {
	case ScaleThousand:
		return 1e3
	case ScaleMillion:
		return 1e6
	case ScaleBillion:
		return 1e9
	case ScaleTrillion:
		return 1e12
	default:
		return 1
	}
}

// MetricCategory buckets a fact by the financial metric it measures
type MetricCategory string

const (
	CategoryRevenue   MetricCategory = "revenue"
	CategoryProfit    MetricCategory = "profit"
	CategoryMargin    MetricCategory = "margin"
	CategoryGrowth    MetricCategory = "growth"
	CategoryValuation MetricCategory = "valuation" // multiples, EV, market cap
	CategoryCashFlow  MetricCategory = "cash_flow"
	CategoryDebt      MetricCategory = "debt"
	CategoryEPS       MetricCategory = "eps"
	CategoryGuidance  MetricCategory = "guidance"
	CategoryOther     MetricCategory = "other"
)

// PeriodType classifies the reporting period a fact refers to
type PeriodType string

const (
	PeriodAnnual      PeriodType = "annual"
	PeriodQuarterly   PeriodType = "quarterly"
	PeriodLTM         PeriodType = "ltm" // Last twelve months
	PeriodNTM         PeriodType = "ntm" // Next twelve months (forward)
	PeriodYTD         PeriodType = "ytd"
	PeriodPointInTime PeriodType = "point_in_time"
	PeriodUnknown     PeriodType = "unknown"
)

// AccountingBasis classifies the accounting convention behind a fact
type AccountingBasis string

const (
	BasisGAAP     AccountingBasis = "gaap"
	BasisNonGAAP  AccountingBasis = "non_gaap"
	BasisIFRS     AccountingBasis = "ifrs"
	BasisProForma AccountingBasis = "pro_forma"
	BasisUnknown  AccountingBasis = "unknown"
)
