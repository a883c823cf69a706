package numeric

import (
	"testing"

	"github.com/provato/provato/internal/model"
)

func extractOne(t *testing.T, text string) model.FinancialFact {
	t.Helper()
	facts := NewExtractor().Extract(text)
	if len(facts) != 1 {
		t.Fatalf("expected exactly one fact in %q, got %d: %+v", text, len(facts), facts)
	}
	return facts[0]
}

func TestExtract_CurrencyWithScale(t *testing.T) {
	tests := []struct {
		text       string
		value      float64
		scale      model.Scale
		normalized float64
	}{
		{"Revenue reached $120 million in the quarter.", 120, model.ScaleMillion, 120e6},
		{"Total revenue was $4.5 billion for the year.", 4.5, model.ScaleBillion, 4.5e9},
		{"Revenue of $3,250 thousand was reported.", 3250, model.ScaleThousand, 3250e3},
		{"Revenue hit $1.2 trillion overall.", 1.2, model.ScaleTrillion, 1.2e12},
	}

	for _, tt := range tests {
		fact := extractOne(t, tt.text)
		if fact.Unit != model.UnitCurrency {
			t.Errorf("%q: unit = %s, want currency", tt.text, fact.Unit)
		}
		if fact.Value != tt.value {
			t.Errorf("%q: value = %v, want %v", tt.text, fact.Value, tt.value)
		}
		if fact.Scale != tt.scale {
			t.Errorf("%q: scale = %q, want %q", tt.text, fact.Scale, tt.scale)
		}
		if fact.NormalizedValue() != tt.normalized {
			t.Errorf("%q: normalized = %v, want %v", tt.text, fact.NormalizedValue(), tt.normalized)
		}
	}
}

func TestExtract_PercentNeverScaled(t *testing.T) {
	fact := extractOne(t, "Gross margin improved to 42.5% in the period.")
	if fact.Unit != model.UnitPercent {
		t.Fatalf("unit = %s, want percent", fact.Unit)
	}
	if fact.NormalizedValue() != 42.5 {
		t.Errorf("normalized = %v, want 42.5 (percent units are never scaled)", fact.NormalizedValue())
	}
	if fact.Category != model.CategoryMargin {
		t.Errorf("category = %s, want margin", fact.Category)
	}
}

func TestExtract_MultipleUnit(t *testing.T) {
	fact := extractOne(t, "The deal values the company at 12.5x EBITDA.")
	if fact.Unit != model.UnitMultiple {
		t.Errorf("unit = %s, want multiple", fact.Unit)
	}
	if fact.NormalizedValue() != 12.5 {
		t.Errorf("normalized = %v, want 12.5", fact.NormalizedValue())
	}
}

func TestExtract_BareNumberNeverInheritsScale(t *testing.T) {
	// "million" is adjacent but the number is not currency-marked.
	fact := extractOne(t, "The company served 5 million customers worldwide in stores.")
	if fact.Scale != model.ScaleNone {
		t.Errorf("scale = %q, want none for non-currency number", fact.Scale)
	}
	if fact.NormalizedValue() != 5 {
		t.Errorf("normalized = %v, want 5", fact.NormalizedValue())
	}
}

func TestExtract_FiltersLabelsAndNoise(t *testing.T) {
	tests := []string{
		"Results for FY2024 were strong across segments.",
		"In Q3 the team delivered against plan.",
		"The 2023 annual report describes the strategy.",
		"See the 10-K for details on the segment change.",
		"The 3 analysts disagreed about the outlook.",
	}

	for _, text := range tests {
		if facts := NewExtractor().Extract(text); len(facts) != 0 {
			t.Errorf("expected no facts in %q, got %+v", text, facts)
		}
	}
}

func TestExtract_CategoryByProximity(t *testing.T) {
	// "revenue" appears first in the document but "margin" is nearer to
	// the number; nearest keyword wins.
	fact := extractOne(t, "While revenue context is discussed elsewhere at length beforehand, operating margin was 18% overall.")
	if fact.Category != model.CategoryMargin {
		t.Errorf("category = %s, want margin (nearest keyword)", fact.Category)
	}
}

func TestExtract_PeriodAndBasis(t *testing.T) {
	facts := NewExtractor().Extract("On a non-GAAP basis, full year revenue was $2.1 billion for FY2024.")
	if len(facts) != 1 {
		t.Fatalf("expected one fact, got %d", len(facts))
	}
	fact := facts[0]
	if fact.PeriodType != model.PeriodAnnual {
		t.Errorf("period type = %s, want annual", fact.PeriodType)
	}
	if fact.Basis != model.BasisNonGAAP {
		t.Errorf("basis = %s, want non_gaap", fact.Basis)
	}
	if fact.Period != "FY2024" {
		t.Errorf("period label = %q, want FY2024", fact.Period)
	}
}

func TestExtract_LTMBeatsAnnualMarker(t *testing.T) {
	fact := extractOne(t, "LTM revenue for the twelve months ended June was $890 million.")
	if fact.PeriodType != model.PeriodLTM {
		t.Errorf("period type = %s, want ltm", fact.PeriodType)
	}
}

func TestExtract_MultipleFactsKeepOrderAndIDs(t *testing.T) {
	facts := NewExtractor().Extract(
		"Revenue grew to $120 million this quarter. Gross profit was $48 million for the quarter.")
	if len(facts) != 2 {
		t.Fatalf("expected 2 facts, got %d: %+v", len(facts), facts)
	}
	if facts[0].ID != "f-1" || facts[1].ID != "f-2" {
		t.Errorf("ids = %s, %s; want f-1, f-2", facts[0].ID, facts[1].ID)
	}
	if facts[0].Offset >= facts[1].Offset {
		t.Error("facts should be returned in document order")
	}
	if facts[1].Category != model.CategoryProfit {
		t.Errorf("second fact category = %s, want profit", facts[1].Category)
	}
}

func TestExtract_EntityDetection(t *testing.T) {
	fact := extractOne(t, "Hartwell Corp reported revenue of $310 million for the year.")
	if fact.Entity != "Hartwell" {
		t.Errorf("entity = %q, want Hartwell", fact.Entity)
	}
}
