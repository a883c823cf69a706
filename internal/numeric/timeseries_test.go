package numeric

import (
	"math"
	"testing"
	"time"

	"github.com/provato/provato/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func annualPoint(metric string, year int, value float64, filing string) DataPoint {
	return DataPoint{
		Metric:      metric,
		PeriodStart: date(year, time.January, 1),
		PeriodEnd:   date(year, time.December, 31),
		Value:       value,
		Filing:      filing,
	}
}

func TestDataPoint_QuarterlyClassification(t *testing.T) {
	quarterly := DataPoint{PeriodStart: date(2024, time.July, 1), PeriodEnd: date(2024, time.September, 30)}
	if !quarterly.IsQuarterly() {
		t.Error("92-day period should classify as quarterly")
	}

	annual := annualPoint("revenue", 2024, 100, "10-K")
	if annual.IsQuarterly() {
		t.Error("365-day period should classify as annual")
	}
}

func TestTemporalSeries_YoYGrowth(t *testing.T) {
	ts := NewTemporalSeries(model.DefaultTolerance())
	ts.Add(annualPoint("revenue", 2022, 100, "10-K-2022"))
	ts.Add(annualPoint("revenue", 2023, 110, "10-K-2023"))
	ts.Add(annualPoint("revenue", 2024, 121, "10-K-2024"))

	growth := ts.YoYGrowth("revenue")
	if len(growth) != 2 {
		t.Fatalf("expected 2 growth points, got %d: %+v", len(growth), growth)
	}
	for _, g := range growth {
		if math.Abs(g.GrowthPct-10) > 1e-9 {
			t.Errorf("growth at %s = %v, want 10", g.PeriodEnd.Format("2006"), g.GrowthPct)
		}
	}
}

func TestTemporalSeries_QoQGrowth(t *testing.T) {
	ts := NewTemporalSeries(model.DefaultTolerance())
	q := func(start, end time.Time, v float64) DataPoint {
		return DataPoint{Metric: "revenue", PeriodStart: start, PeriodEnd: end, Value: v, Filing: "10-Q"}
	}
	ts.Add(q(date(2024, time.January, 1), date(2024, time.March, 31), 100))
	ts.Add(q(date(2024, time.April, 1), date(2024, time.June, 30), 105))
	// Annual point must be excluded from QoQ.
	ts.Add(annualPoint("revenue", 2023, 380, "10-K"))

	growth := ts.QoQGrowth("revenue")
	if len(growth) != 1 {
		t.Fatalf("expected 1 QoQ point, got %d: %+v", len(growth), growth)
	}
	if math.Abs(growth[0].GrowthPct-5) > 1e-9 {
		t.Errorf("QoQ growth = %v, want 5", growth[0].GrowthPct)
	}
}

func TestTemporalSeries_CAGR(t *testing.T) {
	ts := NewTemporalSeries(model.DefaultTolerance())
	ts.Add(annualPoint("revenue", 2022, 100, "a"))
	ts.Add(annualPoint("revenue", 2024, 121, "b"))

	cagr, ok := ts.CAGROverYears("revenue", 2)
	if !ok {
		t.Fatal("expected CAGR over a 2-year span")
	}
	if math.Abs(cagr-10) > 0.1 {
		t.Errorf("CAGR = %v, want ~10", cagr)
	}

	if _, ok := ts.CAGROverYears("revenue", 5); ok {
		t.Error("span shorter than requested years should not produce a CAGR")
	}
}

func TestDetectRestatements_Significant(t *testing.T) {
	ts := NewTemporalSeries(model.DefaultTolerance())
	end := date(2023, time.December, 31)

	// Same period end, >15% apart, across two distinct filings.
	ts.Add(DataPoint{Metric: "revenue", PeriodStart: date(2023, time.January, 1), PeriodEnd: end, Value: 100, Filing: "10-K-2023"})
	ts.Add(DataPoint{Metric: "revenue", PeriodStart: date(2023, time.January, 1), PeriodEnd: end, Value: 130, Filing: "10-K-2024"})

	restatements := ts.DetectRestatements()
	if len(restatements) != 1 {
		t.Fatalf("expected exactly 1 restatement, got %d: %+v", len(restatements), restatements)
	}
	r := restatements[0]
	if r.Severity != model.IssueSeverityCritical {
		t.Errorf("severity = %s, want critical for >15%% divergence", r.Severity)
	}
	if len(r.Filings) != 2 {
		t.Errorf("filings = %v, want both filings recorded", r.Filings)
	}

	issue := r.Issue()
	if issue.Type != model.IssueRestatement {
		t.Errorf("issue type = %s, want restatement", issue.Type)
	}
}

func TestDetectRestatements_TinyDifference(t *testing.T) {
	ts := NewTemporalSeries(model.DefaultTolerance())
	end := date(2023, time.December, 31)

	ts.Add(DataPoint{Metric: "revenue", PeriodStart: date(2023, time.January, 1), PeriodEnd: end, Value: 100.0, Filing: "10-K-2023"})
	ts.Add(DataPoint{Metric: "revenue", PeriodStart: date(2023, time.January, 1), PeriodEnd: end, Value: 100.5, Filing: "10-K-2024"})

	if restatements := ts.DetectRestatements(); len(restatements) != 0 {
		t.Errorf("sub-1%% difference flagged as restatement: %+v", restatements)
	}
}

func TestDetectRestatements_SameFiling(t *testing.T) {
	ts := NewTemporalSeries(model.DefaultTolerance())
	end := date(2023, time.December, 31)

	// The same filing repeating a figure is not a restatement even when
	// values differ.
	ts.Add(DataPoint{Metric: "revenue", PeriodStart: date(2023, time.January, 1), PeriodEnd: end, Value: 100, Filing: "10-K-2023"})
	ts.Add(DataPoint{Metric: "revenue", PeriodStart: date(2023, time.January, 1), PeriodEnd: end, Value: 130, Filing: "10-K-2023"})

	if restatements := ts.DetectRestatements(); len(restatements) != 0 {
		t.Errorf("single-filing disagreement flagged: %+v", restatements)
	}
}
