package score

import (
	"testing"
	"time"

	"github.com/provato/provato/internal/model"
)

func fixedScorer() *Scorer {
	return &Scorer{now: func() time.Time {
		return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	}}
}

func TestDefaultOrdersTiersByAuthority(t *testing.T) {
	s := fixedScorer()
	snippet := "Revenue was $118 million for fiscal 2024."

	filing := s.Default(model.EvidenceItem{Tier: model.TierFiling, Snippet: snippet})
	press := s.Default(model.EvidenceItem{Tier: model.TierPress, Snippet: snippet})
	counter := s.Default(model.EvidenceItem{Tier: model.TierCounter, Snippet: snippet})

	if filing <= press || press <= counter {
		t.Fatalf("expected filing > press > counter, got %d, %d, %d", filing, press, counter)
	}
}

func TestDefaultComponents(t *testing.T) {
	s := fixedScorer()
	val := 118e6

	tests := []struct {
		name string
		item model.EvidenceItem
		want int
	}{
		{
			name: "structured filing, current year, cited",
			item: model.EvidenceItem{
				Tier:        model.TierFiling,
				Snippet:     "Revenue was $118 million.",
				FilingDate:  "2026-02-14",
				URL:         "https://example.gov/filing",
				GroundValue: &val,
			},
			want: 38 + 30 + 20 + 10,
		},
		{
			name: "undated numberless press snippet",
			item: model.EvidenceItem{
				Tier:    model.TierPress,
				Snippet: "The company reported strong growth.",
			},
			want: 28 + 0 + 10 + 0,
		},
		{
			name: "two year old transcript with source",
			item: model.EvidenceItem{
				Tier:       model.TierTranscript,
				Snippet:    "Margins expanded 200 basis points.",
				FilingDate: "2024-05-01",
				Source:     "Q1 2024 earnings call",
			},
			want: 34 + 15 + 10 + 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Default(tt.item); got != tt.want {
				t.Fatalf("Default() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestApplyPreservesEvaluatedScores(t *testing.T) {
	s := fixedScorer()
	items := []model.EvidenceItem{
		{Tier: model.TierFiling, Snippet: "Revenue was $118 million.", Quality: 90},
		{Tier: model.TierPress, Snippet: "Shares rallied."},
	}

	s.Apply(items)

	if items[0].Quality != 90 {
		t.Fatalf("evaluated score overwritten: %d", items[0].Quality)
	}
	if items[1].Quality == 0 {
		t.Fatal("default score not applied")
	}
}
