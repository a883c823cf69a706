package evidence

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/provato/provato/internal/cache"
	"github.com/provato/provato/internal/model"
	"github.com/provato/provato/internal/sources"
)

func testConcurrency() model.ConcurrencyConfig {
	return model.ConcurrencyConfig{
		SubClaimWorkers:      4,
		SourceWorkers:        5,
		SourceTimeoutSeconds: 5,
		RequestsPerSecond:    1000, // No throttling in tests
	}
}

func gather(t *testing.T, set sources.Set, store cache.Cache, req Request) ([]model.EvidenceItem, model.GatherStats) {
	t.Helper()
	o := NewOrchestrator(set, store, testConcurrency(), nil)
	items, stats, err := o.Gather(context.Background(), req)
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	return items, stats
}

func TestGatherDeduplicatesIdenticalSnippets(t *testing.T) {
	searcher := &sources.FakeSearcher{
		Default: &sources.GroundedResult{Text: "Revenue was strong last year."},
	}
	req := Request{
		Claim:   "Revenue was strong",
		Company: "Hartwell",
		SubClaims: []model.SubClaim{
			{ID: "sc-1", Text: "Revenue was strong", Type: model.SubClaimCategorical},
		},
	}

	items, stats := gather(t, sources.Set{Search: searcher}, nil, req)

	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 after dedup", len(items))
	}
	if stats.DuplicatesDropped != 1 {
		t.Errorf("DuplicatesDropped = %d, want 1", stats.DuplicatesDropped)
	}
	if items[0].Fingerprint == "" || !strings.HasPrefix(items[0].ID, "ev-") {
		t.Errorf("item missing registry identity: %+v", items[0])
	}
}

func TestFingerprintIgnoresMarkupCaseAndSpacing(t *testing.T) {
	a := Fingerprint("<p>Revenue was <b>strong</b> last year.</p>")
	b := Fingerprint("revenue   was strong\nlast year.")
	if a != b {
		t.Error("markup and spacing variants of the same sentence must collide")
	}
	c := Fingerprint("Revenue was weak last year.")
	if a == c {
		t.Error("different sentences must not collide")
	}
}

func TestCounterEvidenceGatingAndOrdering(t *testing.T) {
	searcher := &sources.FakeSearcher{
		Responses: map[string]*sources.GroundedResult{
			"earnings call": {Text: "Management confirmed revenue grew on the call."},
			"contradicting": {Text: "A short-seller report disputes the growth figure."},
		},
		Default: &sources.GroundedResult{Text: "Coverage reports solid growth."},
	}
	req := Request{
		Claim:   "Revenue grew",
		Company: "Hartwell",
		SubClaims: []model.SubClaim{
			{ID: "sc-1", Text: "Revenue grew strongly", Type: model.SubClaimDirectional},
		},
	}

	items, _ := gather(t, sources.Set{Search: searcher}, nil, req)

	var counter int
	for _, item := range items {
		if item.Tier == model.TierCounter {
			counter++
		}
	}
	if counter != 1 {
		t.Fatalf("got %d counter items, want 1 once two supports exist", counter)
	}
	if items[len(items)-1].Tier != model.TierCounter {
		t.Errorf("counter evidence must sort last, got order %v", tiers(items))
	}
	last := searcher.Queries[len(searcher.Queries)-1]
	if !strings.Contains(last, "contradicting") {
		t.Errorf("counter search must run after the main pass, queries: %v", searcher.Queries)
	}
}

func TestCounterEvidenceSkippedForThinSupport(t *testing.T) {
	searcher := &sources.FakeSearcher{
		Responses: map[string]*sources.GroundedResult{
			"earnings call": {Text: "Only one mention of the metric."},
		},
	}
	req := Request{
		Claim: "Obscure metric improved",
		SubClaims: []model.SubClaim{
			{ID: "sc-1", Text: "Obscure metric improved", Type: model.SubClaimCategorical},
		},
	}

	items, _ := gather(t, sources.Set{Search: searcher}, nil, req)

	for _, item := range items {
		if item.Tier == model.TierCounter {
			t.Fatal("counter evidence must not run on a single thin support")
		}
	}
}

func TestHighStakesAlwaysGetsCounterPass(t *testing.T) {
	searcher := &sources.FakeSearcher{
		Responses: map[string]*sources.GroundedResult{
			"contradicting": {Text: "Auditors found no irregularities."},
		},
	}
	req := Request{
		Claim: "The company committed fraud",
		SubClaims: []model.SubClaim{
			{ID: "sc-1", Text: "The company committed accounting fraud", Type: model.SubClaimCategorical},
		},
	}

	items, _ := gather(t, sources.Set{Search: searcher}, nil, req)

	var counter int
	for _, item := range items {
		if item.Tier == model.TierCounter {
			counter++
		}
	}
	if counter != 1 {
		t.Errorf("high-stakes claim got %d counter items, want 1", counter)
	}
}

func TestGatherSurvivesSourceFailures(t *testing.T) {
	searcher := &sources.FakeSearcher{Err: errors.New("search quota exhausted")}
	filings := &sources.FakeFilingStore{
		Hits: []sources.FilingHit{{
			Snippet:    "Revenue was $118 million for fiscal 2024.",
			FilingType: "10-K",
			Date:       "2025-02-14",
			Accession:  "0001-24-000123",
			Company:    "Hartwell",
		}},
	}
	req := Request{
		Claim:   "Revenue reached $120 million",
		Ticker:  "HRTW",
		Company: "Hartwell",
		SubClaims: []model.SubClaim{
			{ID: "sc-1", Text: "Revenue reached $120 million in FY2024", Type: model.SubClaimQuantitative},
		},
	}

	items, stats := gather(t, sources.Set{Search: searcher, Filings: filings}, nil, req)

	if len(items) != 1 {
		t.Fatalf("got %d items, want the filing hit alone", len(items))
	}
	if items[0].Tier != model.TierFiling {
		t.Errorf("tier = %s, want %s", items[0].Tier, model.TierFiling)
	}
	if stats.SourceFailures < 2 {
		t.Errorf("SourceFailures = %d, want at least the two search lanes", stats.SourceFailures)
	}
}

func TestStructuredMetricCarriesGroundValue(t *testing.T) {
	filings := &sources.FakeFilingStore{}
	filings.SetMetric("Hartwell", "revenue", "FY2024", 118e6)
	req := Request{
		Claim:   "Revenue reached $120 million",
		Company: "Hartwell",
		SubClaims: []model.SubClaim{
			{ID: "sc-1", Text: "Revenue reached $120 million in FY2024", Type: model.SubClaimQuantitative},
		},
	}

	items, _ := gather(t, sources.Set{Filings: filings}, nil, req)

	var grounded *model.EvidenceItem
	for i := range items {
		if items[i].GroundValue != nil {
			grounded = &items[i]
		}
	}
	if grounded == nil {
		t.Fatal("no evidence item carries the structured ground value")
	}
	if *grounded.GroundValue != 118e6 {
		t.Errorf("ground value = %g, want 1.18e+08", *grounded.GroundValue)
	}
	if grounded.Tier != model.TierFiling {
		t.Errorf("tier = %s, want %s", grounded.Tier, model.TierFiling)
	}
}

func TestMacroFocusSkipsFilingStore(t *testing.T) {
	filings := &sources.FakeFilingStore{
		Hits: []sources.FilingHit{{
			Snippet:    "Revenue was $118 million for fiscal 2024.",
			FilingType: "10-K",
			Company:    "Hartwell",
		}},
	}
	macro := &sources.FakeMacro{Point: &sources.MacroPoint{
		SeriesID:    "GDP",
		LatestValue: 3.1,
		LatestDate:  "2024-12-31",
		YoYChange:   3.1,
	}}
	req := Request{
		Claim:   "US GDP grew 3% in 2024",
		Company: "Hartwell",
		SubClaims: []model.SubClaim{
			{ID: "sc-1", Text: "US GDP grew 3% in 2024", Type: model.SubClaimQuantitative},
		},
	}

	items, _ := gather(t, sources.Set{Filings: filings, Macro: macro}, nil, req)

	if filings.Calls != 0 {
		t.Errorf("macro sub-claim reached the filing store %d times, want 0", filings.Calls)
	}
	for _, item := range items {
		if item.Tier == model.TierFiling {
			t.Errorf("macro sub-claim produced a filing item: %+v", item)
		}
	}
}

func TestGuidanceFocusTriggersStructuredLookup(t *testing.T) {
	filings := &sources.FakeFilingStore{}
	filings.SetMetric("Hartwell", "revenue", "FY2025", 129e6)
	req := Request{
		Claim:   "Management expects revenue to reach $130 million in FY2025",
		Company: "Hartwell",
		SubClaims: []model.SubClaim{
			{ID: "sc-1", Text: "Management expects revenue to reach $130 million in FY2025", Type: model.SubClaimQuantitative},
		},
	}

	items, _ := gather(t, sources.Set{Filings: filings}, nil, req)

	var grounded bool
	for _, item := range items {
		if item.GroundValue != nil && *item.GroundValue == 129e6 {
			grounded = true
		}
	}
	if !grounded {
		t.Error("guidance sub-claim did not trigger the structured metric lookup")
	}
}

func TestFilingSearchUsesDurableCache(t *testing.T) {
	store := cache.NewMemory(time.Hour, time.Hour)
	filings := &sources.FakeFilingStore{
		Hits: []sources.FilingHit{{
			Snippet:    "Revenue was $118 million for fiscal 2024.",
			FilingType: "10-K",
			Date:       "2025-02-14",
			Company:    "Hartwell",
		}},
	}
	req := Request{
		Claim:   "Revenue reached $120 million",
		Company: "Hartwell",
		SubClaims: []model.SubClaim{
			{ID: "sc-1", Text: "Revenue reached $120 million in FY2024", Type: model.SubClaimQuantitative},
		},
	}

	_, first := gather(t, sources.Set{Filings: filings}, store, req)
	if first.CacheHits != 0 {
		t.Fatalf("cold run reported %d cache hits", first.CacheHits)
	}
	callsAfterFirst := filings.Calls

	_, second := gather(t, sources.Set{Filings: filings}, store, req)
	if second.CacheHits != 1 {
		t.Errorf("warm run CacheHits = %d, want 1", second.CacheHits)
	}
	// The warm run may still hit LookupMetric; the full-text search must not repeat.
	if filings.Calls > callsAfterFirst+1 {
		t.Errorf("full-text filing search repeated despite cache: %d calls", filings.Calls)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		text string
		want Focus
	}{
		{"US GDP grew 3% in 2024", FocusMacro},
		{"The stock rose to a 52-week high", FocusMarket},
		{"Management expects revenue to grow next year", FocusGuidance},
		{"Revenue was $118 million in FY2024", FocusFiledMetric},
	}
	for _, c := range cases {
		got := Classify(model.SubClaim{Text: c.text})
		if got != c.want {
			t.Errorf("Classify(%q) = %s, want %s", c.text, got, c.want)
		}
	}
}

func TestHighStakes(t *testing.T) {
	highStakes := []string{
		"Revenue doubled to a record level",
		"The company acquired Westfield for $2 billion",
		"The merger closed in Q3",
		"A hostile takeover bid was rejected",
		"The company breached its debt covenants",
		"Assets under management reached $1.5 trillion",
	}
	for _, text := range highStakes {
		if !HighStakes(model.SubClaim{Text: text}) {
			t.Errorf("HighStakes(%q) = false, want true", text)
		}
	}

	routine := []string{
		"Revenue was $118 million in FY2024",
		"Gross margin improved 200 basis points",
	}
	for _, text := range routine {
		if HighStakes(model.SubClaim{Text: text}) {
			t.Errorf("HighStakes(%q) = true, want false", text)
		}
	}
}

func tiers(items []model.EvidenceItem) []model.SourceTier {
	out := make([]model.SourceTier, len(items))
	for i, item := range items {
		out[i] = item.Tier
	}
	return out
}
