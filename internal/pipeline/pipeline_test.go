package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/provato/provato/internal/llm"
	"github.com/provato/provato/internal/model"
	"github.com/provato/provato/internal/numeric"
	"github.com/provato/provato/internal/score"
	"github.com/provato/provato/internal/sources"
	"github.com/provato/provato/internal/symbolic"
)

// scriptedProvider answers each stage by matching a marker in the system
// prompt. Unmatched calls return garbage to exercise the fallbacks.
type scriptedProvider struct {
	byMarker map[string]string
	calls    int
}

func (s *scriptedProvider) Name() string                       { return "scripted" }
func (s *scriptedProvider) Available(ctx context.Context) bool { return true }
func (s *scriptedProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.calls++
	for marker, text := range s.byMarker {
		if strings.Contains(req.System, marker) {
			return &llm.Response{Text: text, Model: "scripted"}, nil
		}
	}
	return &llm.Response{Text: "no json here", Model: "scripted"}, nil
}

type failingProvider struct{}

func (failingProvider) Name() string                       { return "failing" }
func (failingProvider) Available(ctx context.Context) bool { return true }
func (failingProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return nil, errors.New("model unavailable")
}

func testPipeline(provider llm.Provider, set sources.Set) *Pipeline {
	cfg := model.DefaultConfig()
	cfg.Concurrency.RequestsPerSecond = 1000
	return &Pipeline{
		provider:  provider,
		providers: set,
		extractor: numeric.NewExtractor(),
		checker:   numeric.NewChecker(cfg.Tolerance),
		quality:   score.NewScorer(),
		symbolic:  symbolic.NewEngine(cfg.Tolerance, nil),
		cfg:       cfg,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func scripted() *scriptedProvider {
	return &scriptedProvider{byMarker: map[string]string{
		"decompose": `{"subclaims":[
			{"text":"Revenue grew 25% YoY to $120 million in fiscal 2024","type":"quantitative"}]}`,
		"assess": `{"assessments":[{"id":"ev-1","stance":"oppose","quality":90}]}`,
		"fact-checker": `{"subclaim_verdicts":[{"subclaim_id":"sc-1","label":"supported","confidence":0.8,"rationale":"looks right"}],
			"verdict":"supported","confidence":0.8,"summary":"The claim holds."}`,
		"rewrite": "Revenue grew 12% YoY to $118 million in fiscal 2024",
	}}
}

func offlineSources() sources.Set {
	filings := &sources.FakeFilingStore{
		Hits: []sources.FilingHit{{
			Snippet:    "Revenue was $118 million for fiscal 2024, up 12% year-over-year.",
			FilingType: "10-K",
			Date:       "2025-02-14",
			Company:    "Hartwell",
		}},
	}
	return sources.Set{Filings: filings}
}

func TestVerifyEmitsStagesInOrder(t *testing.T) {
	p := testPipeline(scripted(), offlineSources())

	events, err := p.Verify(context.Background(), Request{
		Claim:   "Revenue grew 25% YoY to $120 million in fiscal 2024",
		Company: "Hartwell",
	})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	var seen []model.EventType
	for ev := range events {
		seen = append(seen, ev.Type)
	}

	if len(seen) == 0 || seen[len(seen)-1] != model.EventComplete {
		t.Fatalf("last event = %v, want complete; events: %v", seen[len(seen)-1], seen)
	}

	pos := func(t model.EventType) int {
		for i, s := range seen {
			if s == t {
				return i
			}
		}
		return -1
	}
	var prev int = -1
	for _, stage := range model.StageEvents() {
		start, done := pos(stage[0]), pos(stage[1])
		if start < 0 || done < 0 {
			t.Fatalf("stage %v missing from %v", stage, seen)
		}
		if !(prev < start && start < done) {
			t.Fatalf("stage %v out of order in %v", stage, seen)
		}
		prev = done
	}

	for _, ev := range []model.EventType{model.EventEvidenceFound, model.EventSubClaimVerdict} {
		if pos(ev) < 0 {
			t.Errorf("event %s never emitted", ev)
		}
	}
}

// The canonical overstated-growth claim: the model says supported, the
// grounded figures disagree, and the symbolic layer takes the verdict.
func TestVerifyClaimOverridesOverstatedGrowth(t *testing.T) {
	p := testPipeline(scripted(), offlineSources())

	report, err := p.VerifyClaim(context.Background(), Request{
		Claim:   "Revenue grew 25% YoY to $120 million in fiscal 2024",
		Company: "Hartwell",
	})
	if err != nil {
		t.Fatalf("VerifyClaim: %v", err)
	}

	if report.Symbolic == nil {
		t.Fatal("report has no symbolic result")
	}
	if !report.Symbolic.Override.Applied {
		t.Fatalf("override not applied; symbolic score %.1f, reliability %.1f",
			report.Symbolic.Score, report.Symbolic.Reliability.Score)
	}
	if report.Verdict != model.VerdictContradicted {
		t.Errorf("verdict = %s, want contradicted after override", report.Verdict)
	}
	if len(findRule(report.Symbolic.Firings, symbolic.RuleGrowthMismatch)) != 1 {
		t.Error("expected exactly one growth mismatch firing")
	}
	if report.Correction == "" {
		t.Error("material mismatch must produce a corrected claim")
	}
	if len(report.Provenance) == 0 {
		t.Error("grounded predicates must produce provenance entries")
	}
	if report.RunID == "" {
		t.Error("report missing run id")
	}
}

// Model output that is not JSON anywhere must degrade to conservative
// defaults, never fail the run.
func TestVerifyClaimSurvivesUnusableModelOutput(t *testing.T) {
	p := testPipeline(&scriptedProvider{byMarker: map[string]string{}}, offlineSources())

	report, err := p.VerifyClaim(context.Background(), Request{
		Claim:   "Revenue grew 25% YoY to $120 million in fiscal 2024",
		Company: "Hartwell",
	})
	if err != nil {
		t.Fatalf("VerifyClaim: %v", err)
	}

	if len(report.SubClaims) != 1 || report.SubClaims[0].Text != report.Claim {
		t.Errorf("decomposition fallback must keep the whole claim, got %+v", report.SubClaims)
	}
	if report.SubClaims[0].Type != model.SubClaimQuantitative {
		t.Errorf("claim with figures typed %s, want quantitative", report.SubClaims[0].Type)
	}
	for _, v := range report.SubClaimVerdicts {
		if !v.Fallback || v.Label != model.VerdictInconclusive || v.Confidence != 0.5 {
			t.Errorf("fallback verdict = %+v, want inconclusive at the fixed prior", v)
		}
	}
}

// Provider calls that error outright behave the same as unusable output.
func TestVerifyClaimSurvivesProviderErrors(t *testing.T) {
	p := testPipeline(failingProvider{}, offlineSources())

	report, err := p.VerifyClaim(context.Background(), Request{Claim: "Revenue doubled", Company: "Hartwell"})
	if err != nil {
		t.Fatalf("VerifyClaim: %v", err)
	}
	if report.Verdict != model.VerdictInconclusive {
		t.Errorf("verdict = %s, want inconclusive", report.Verdict)
	}
}

func TestNewRejectsMissingProviders(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Providers = nil

	_, err := New(cfg, sources.Set{}, nil, nil)
	if !errors.Is(err, llm.ErrNoProvider) {
		t.Fatalf("err = %v, want ErrNoProvider", err)
	}
}

func TestRenderMarkdown(t *testing.T) {
	p := testPipeline(scripted(), offlineSources())
	report, err := p.VerifyClaim(context.Background(), Request{
		Claim:   "Revenue grew 25% YoY to $120 million in fiscal 2024",
		Company: "Hartwell",
	})
	if err != nil {
		t.Fatalf("VerifyClaim: %v", err)
	}

	md := RenderMarkdown(report)
	for _, want := range []string{"# Verification Report", "## Sub-claims", "## Evidence", "GROWTH_RATE_MISMATCH", "## Corrected Claim"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	raw, err := RenderJSON(report)
	if err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	if !strings.Contains(string(raw), `"run_id"`) {
		t.Error("json output missing run_id")
	}
}

func findRule(firings []model.RuleFiring, rule string) []model.RuleFiring {
	var out []model.RuleFiring
	for _, f := range firings {
		if f.Rule == rule {
			out = append(out, f)
		}
	}
	return out
}
