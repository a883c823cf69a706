package numeric

import (
	"math"
	"testing"

	"github.com/provato/provato/internal/model"
)

func TestDependencyGraph_MarginImpact(t *testing.T) {
	facts := marginScenario(40)
	g := BuildDependencyGraph(facts)

	if len(g.Edges) != 2 {
		t.Fatalf("expected 2 edges (margin_of + denominator_of), got %d: %+v", len(g.Edges), g.Edges)
	}

	// Revenue was actually 20% higher: margin must shrink accordingly.
	impacts := g.TraceDownstreamImpact("f-1", 1.2)
	if len(impacts) != 2 {
		t.Fatalf("expected revenue + margin impacts, got %d: %+v", len(impacts), impacts)
	}

	if impacts[0].FactID != "f-1" || math.Abs(impacts[0].NewValue-120) > 1e-9 {
		t.Errorf("corrected revenue = %+v, want 120", impacts[0])
	}

	// 40M / 120M = 33.33%
	margin := impacts[1]
	if margin.FactID != "f-3" {
		t.Fatalf("second impact = %s, want margin fact f-3", margin.FactID)
	}
	if math.Abs(margin.NewValue-100.0/3) > 1e-6 {
		t.Errorf("recomputed margin = %v, want 33.33", margin.NewValue)
	}
	if margin.OldValue != 40 {
		t.Errorf("old margin = %v, want 40", margin.OldValue)
	}
}

func TestDependencyGraph_GrowthImpact(t *testing.T) {
	facts := []model.FinancialFact{
		{ID: "f-1", Value: 100, Unit: model.UnitCurrency, Scale: model.ScaleMillion,
			Category: model.CategoryRevenue, Period: "FY2023", Entity: "Acme"},
		{ID: "f-2", Value: 112, Unit: model.UnitCurrency, Scale: model.ScaleMillion,
			Category: model.CategoryRevenue, Period: "FY2024", Entity: "Acme"},
		{ID: "f-3", Value: 12, Unit: model.UnitPercent,
			Category: model.CategoryGrowth, Period: "FY2024", Entity: "Acme",
			Sentence: "Revenue grew 12% year-over-year."},
	}

	g := BuildDependencyGraph(facts)

	// The newer endpoint was restated 10% higher: growth recomputes from
	// the corrected endpoint.
	impacts := g.TraceDownstreamImpact("f-2", 1.1)
	if len(impacts) != 2 {
		t.Fatalf("expected endpoint + growth impacts, got %d: %+v", len(impacts), impacts)
	}

	growth := impacts[1]
	want := GrowthRate(100, 112*1.1) // 23.2%
	if math.Abs(growth.NewValue-want) > 1e-9 {
		t.Errorf("recomputed growth = %v, want %v", growth.NewValue, want)
	}
}

func TestDependencyGraph_UnknownFact(t *testing.T) {
	g := BuildDependencyGraph(marginScenario(40))
	if impacts := g.TraceDownstreamImpact("missing", 2); impacts != nil {
		t.Errorf("expected nil impacts for unknown fact, got %+v", impacts)
	}
}
