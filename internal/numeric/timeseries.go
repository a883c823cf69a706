package numeric

import (
	"fmt"
	"sort"
	"time"

	"github.com/provato/provato/internal/model"
)

// quarterlyMaxDuration separates quarterly from annual reporting periods.
const quarterlyMaxDuration = 120 * 24 * time.Hour

// DataPoint is one dated observation of a metric, attributed to the
// filing that reported it.
type DataPoint struct {
	Metric      string                `json:"metric"`
	PeriodStart time.Time             `json:"period_start"`
	PeriodEnd   time.Time             `json:"period_end"`
	Value       float64               `json:"value"`
	Filing      string                `json:"filing"` // Accession or other filing identifier
	Basis       model.AccountingBasis `json:"basis,omitempty"`
}

// IsQuarterly reports whether the period duration looks like a quarter.
func (p DataPoint) IsQuarterly() bool {
	return p.PeriodEnd.Sub(p.PeriodStart) < quarterlyMaxDuration
}

// GrowthPoint is one computed growth observation.
type GrowthPoint struct {
	Metric    string    `json:"metric"`
	PeriodEnd time.Time `json:"period_end"`
	GrowthPct float64   `json:"growth_pct"`
}

// Restatement records the same period-end reported with materially
// different values across distinct filings.
type Restatement struct {
	Metric    string              `json:"metric"`
	PeriodEnd time.Time           `json:"period_end"`
	Values    []float64           `json:"values"`
	Filings   []string            `json:"filings"`
	Severity  model.IssueSeverity `json:"severity"`
	PctDiff   float64             `json:"pct_diff"`
}

// TemporalSeries holds dated data points per metric for multi-period
// analysis.
type TemporalSeries struct {
	points map[string][]DataPoint
	calc   *Calc
}

// NewTemporalSeries creates an empty series with the given tolerances.
func NewTemporalSeries(tol model.ToleranceConfig) *TemporalSeries {
	return &TemporalSeries{
		points: make(map[string][]DataPoint),
		calc:   NewCalc(tol),
	}
}

// Add appends a data point to its metric's series.
func (ts *TemporalSeries) Add(p DataPoint) {
	ts.points[p.Metric] = append(ts.points[p.Metric], p)
}

// Points returns the points for a metric sorted by period end.
func (ts *TemporalSeries) Points(metric string) []DataPoint {
	pts := append([]DataPoint(nil), ts.points[metric]...)
	sort.Slice(pts, func(i, j int) bool { return pts[i].PeriodEnd.Before(pts[j].PeriodEnd) })
	return pts
}

// YoYGrowth computes the year-over-year growth series for a metric: each
// point is paired with the observation closest to one year earlier.
func (ts *TemporalSeries) YoYGrowth(metric string) []GrowthPoint {
	return ts.growthSeries(metric, 365*24*time.Hour, 45*24*time.Hour)
}

// QoQGrowth computes the quarter-over-quarter growth series for the
// quarterly points of a metric.
func (ts *TemporalSeries) QoQGrowth(metric string) []GrowthPoint {
	var quarterly []DataPoint
	for _, p := range ts.Points(metric) {
		if p.IsQuarterly() {
			quarterly = append(quarterly, p)
		}
	}
	return growthOver(quarterly, 91*24*time.Hour, 30*24*time.Hour)
}

func (ts *TemporalSeries) growthSeries(metric string, lag, slack time.Duration) []GrowthPoint {
	return growthOver(ts.Points(metric), lag, slack)
}

// growthOver pairs each point with the prior point nearest to lag earlier
// (within slack) and computes the growth between them.
func growthOver(pts []DataPoint, lag, slack time.Duration) []GrowthPoint {
	var series []GrowthPoint
	for i, p := range pts {
		var base *DataPoint
		var bestGap time.Duration
		for j := 0; j < i; j++ {
			gap := p.PeriodEnd.Sub(pts[j].PeriodEnd)
			off := gap - lag
			if off < 0 {
				off = -off
			}
			if off <= slack && (base == nil || off < bestGap) {
				base = &pts[j]
				bestGap = off
			}
		}
		if base == nil || base.Value == 0 {
			continue
		}
		series = append(series, GrowthPoint{
			Metric:    p.Metric,
			PeriodEnd: p.PeriodEnd,
			GrowthPct: GrowthRate(base.Value, p.Value),
		})
	}
	return series
}

// CAGROverYears computes the compound annual growth rate for a metric
// between the earliest and latest annual observations spanning at least
// the requested number of years. ok is false when the series is too short.
func (ts *TemporalSeries) CAGROverYears(metric string, years int) (float64, bool) {
	pts := ts.Points(metric)
	if len(pts) < 2 {
		return 0, false
	}

	first, last := pts[0], pts[len(pts)-1]
	span := last.PeriodEnd.Sub(first.PeriodEnd).Hours() / 24 / 365
	if span < float64(years) {
		return 0, false
	}

	return CAGR(first.Value, last.Value, span), true
}

// DetectRestatements finds period-ends whose reported value differs at
// notable or significant level across distinct filings. One record is
// produced per (metric, period-end) group regardless of how many filings
// disagree; a significant divergence is critical.
func (ts *TemporalSeries) DetectRestatements() []Restatement {
	var restatements []Restatement

	metrics := make([]string, 0, len(ts.points))
	for metric := range ts.points {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)

	for _, metric := range metrics {
		byPeriod := make(map[time.Time][]DataPoint)
		for _, p := range ts.points[metric] {
			byPeriod[p.PeriodEnd] = append(byPeriod[p.PeriodEnd], p)
		}

		periodEnds := make([]time.Time, 0, len(byPeriod))
		for end := range byPeriod {
			periodEnds = append(periodEnds, end)
		}
		sort.Slice(periodEnds, func(i, j int) bool { return periodEnds[i].Before(periodEnds[j]) })

		for _, end := range periodEnds {
			group := byPeriod[end]
			if r, ok := ts.restatementIn(metric, end, group); ok {
				restatements = append(restatements, r)
			}
		}
	}

	return restatements
}

func (ts *TemporalSeries) restatementIn(metric string, end time.Time, group []DataPoint) (Restatement, bool) {
	// Only disagreements across distinct filings count; one filing
	// repeating itself is not a restatement.
	byFiling := make(map[string]float64)
	for _, p := range group {
		byFiling[p.Filing] = p.Value
	}
	if len(byFiling) < 2 {
		return Restatement{}, false
	}

	filings := make([]string, 0, len(byFiling))
	for f := range byFiling {
		filings = append(filings, f)
	}
	sort.Strings(filings)

	values := make([]float64, len(filings))
	for i, f := range filings {
		values[i] = byFiling[f]
	}

	worst := Comparison{}
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			cmp := ts.calc.CompareValues(values[i], values[j])
			if cmp.PctDiff > worst.PctDiff {
				worst = cmp
			}
		}
	}

	if worst.Level != MatchNotable && worst.Level != MatchSignificant {
		return Restatement{}, false
	}

	severity := model.IssueSeverityHigh
	if worst.Level == MatchSignificant {
		severity = model.IssueSeverityCritical
	}

	return Restatement{
		Metric:    metric,
		PeriodEnd: end,
		Values:    values,
		Filings:   filings,
		Severity:  severity,
		PctDiff:   worst.PctDiff,
	}, true
}

// Issue converts a restatement into the common consistency-issue shape.
func (r Restatement) Issue() model.ConsistencyIssue {
	return model.ConsistencyIssue{
		Type:     model.IssueRestatement,
		Severity: r.Severity,
		Expected: r.Values[0],
		Actual:   r.Values[len(r.Values)-1],
		Description: fmt.Sprintf("%s for period ending %s restated across filings %v (%.1f%% apart)",
			r.Metric, r.PeriodEnd.Format("2006-01-02"), r.Filings, r.PctDiff),
	}
}
