// Package pipeline drives one claim through the full verification state
// machine: decompose, retrieve, evaluate, synthesize, provenance,
// correction, complete. Each stage emits start and done events on the
// channel returned by Verify; the complete event carries the report.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/provato/provato/internal/cache"
	"github.com/provato/provato/internal/evidence"
	"github.com/provato/provato/internal/llm"
	"github.com/provato/provato/internal/model"
	"github.com/provato/provato/internal/numeric"
	"github.com/provato/provato/internal/score"
	"github.com/provato/provato/internal/sources"
	"github.com/provato/provato/internal/symbolic"
)

// eventBuffer keeps slow readers from stalling fast stages without
// letting events pile up unbounded.
const eventBuffer = 16

// Request is one claim to verify.
type Request struct {
	Claim   string
	Ticker  string
	Company string
}

// Pipeline wires the generative provider, the evidence orchestrator, and
// the deterministic engines into one runnable unit.
type Pipeline struct {
	provider  llm.Provider
	providers sources.Set
	store     cache.Cache
	extractor *numeric.Extractor
	checker   *numeric.Checker
	quality   *score.Scorer
	symbolic  *symbolic.Engine
	cfg       *model.Config
	logger    *slog.Logger
}

// New builds a pipeline from configuration. A missing generative provider
// is the one configuration error verification cannot absorb; it surfaces
// here as llm.ErrNoProvider.
func New(cfg *model.Config, providers sources.Set, store cache.Cache, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := llm.NewChainFromConfig(cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	return &Pipeline{
		provider:  provider,
		providers: providers,
		store:     store,
		extractor: numeric.NewExtractor(),
		checker:   numeric.NewChecker(cfg.Tolerance),
		quality:   score.NewScorer(),
		symbolic:  symbolic.NewEngine(cfg.Tolerance, logger),
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Verify runs the claim through every stage asynchronously. The returned
// channel delivers stage events in order and closes after the complete
// event. Cancel the context to abandon the run.
func (p *Pipeline) Verify(ctx context.Context, req Request) (<-chan model.VerificationEvent, error) {
	if req.Claim == "" {
		return nil, fmt.Errorf("pipeline: empty claim")
	}

	events := make(chan model.VerificationEvent, eventBuffer)
	go func() {
		defer close(events)
		p.run(ctx, req, events)
	}()
	return events, nil
}

// VerifyClaim is the synchronous form: it drains the event stream and
// returns the final report.
func (p *Pipeline) VerifyClaim(ctx context.Context, req Request) (*model.Report, error) {
	events, err := p.Verify(ctx, req)
	if err != nil {
		return nil, err
	}
	var report *model.Report
	for ev := range events {
		if ev.Type == model.EventComplete {
			if r, ok := ev.Payload["report"].(*model.Report); ok {
				report = r
			}
		}
	}
	if report == nil {
		return nil, ctx.Err()
	}
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, req Request, events chan<- model.VerificationEvent) {
	emit := func(t model.EventType, payload map[string]interface{}) {
		select {
		case events <- model.VerificationEvent{Type: t, Payload: payload}:
		case <-ctx.Done():
		}
	}

	report := &model.Report{
		RunID:      uuid.NewString(),
		Claim:      req.Claim,
		Ticker:     req.Ticker,
		VerifiedAt: time.Now().UTC(),
	}
	p.logger.Info("verification started", "run_id", report.RunID, "claim", req.Claim)

	// Decompose.
	emit(model.EventDecomposeStart, nil)
	subClaims := p.decompose(ctx, req.Claim)
	report.SubClaims = subClaims
	emit(model.EventDecomposeDone, map[string]interface{}{"subclaims": len(subClaims)})

	// Retrieve.
	emit(model.EventRetrieveStart, nil)
	orchestrator := evidence.NewOrchestrator(p.providers, p.store, p.cfg.Concurrency, p.logger)
	items, stats, err := orchestrator.Gather(ctx, evidence.Request{
		Claim:     req.Claim,
		Ticker:    req.Ticker,
		Company:   req.Company,
		SubClaims: subClaims,
	})
	if err != nil {
		p.logger.Warn("retrieval aborted", "run_id", report.RunID, "error", err)
	}
	for _, item := range items {
		emit(model.EventEvidenceFound, map[string]interface{}{"id": item.ID, "tier": string(item.Tier)})
	}
	report.Stats = stats
	emit(model.EventRetrieveDone, map[string]interface{}{"items": len(items)})

	// Evaluate: stance and quality per item, then the deterministic
	// numeric pass over everything retrieved.
	emit(model.EventEvaluateStart, nil)
	items = p.evaluate(ctx, subClaims, items)
	report.Evidence = items
	report.Facts = p.extractFacts(req.Claim, items)
	report.Issues = append(p.checker.Check(report.Facts), numeric.DetectMethodologyInconsistencies(report.Facts)...)
	emit(model.EventEvaluateDone, map[string]interface{}{
		"facts":  len(report.Facts),
		"issues": len(report.Issues),
	})

	// Synthesize: model verdicts first, then the symbolic pass that may
	// override them.
	emit(model.EventSynthesizeStart, nil)
	verdicts, verdict, confidence, summary := p.synthesize(ctx, req.Claim, subClaims, items, report.Issues)
	report.SubClaimVerdicts = verdicts
	for _, v := range verdicts {
		emit(model.EventSubClaimVerdict, map[string]interface{}{
			"subclaim_id": v.SubClaimID,
			"label":       string(v.Label),
		})
	}

	sym := p.symbolic.Analyze(symbolic.Input{
		Claim:            req.Claim,
		SubClaims:        subClaims,
		Evidence:         items,
		Facts:            report.Facts,
		Issues:           report.Issues,
		SubClaimVerdicts: verdicts,
		ModelVerdict:     verdict,
		ModelConfidence:  confidence,
	})
	report.Symbolic = sym
	report.Verdict = verdict
	report.Confidence = confidence * 100
	report.Summary = summary
	if sym.Override.Applied {
		report.Verdict = sym.Override.To
		report.Confidence = sym.Override.Confidence
	}
	emit(model.EventSynthesizeDone, map[string]interface{}{
		"verdict":    string(report.Verdict),
		"overridden": sym.Override.Applied,
	})

	// Provenance.
	emit(model.EventProvenanceStart, nil)
	report.Provenance = symbolic.Provenance(sym.Predicates, items)
	emit(model.EventProvenanceDone, map[string]interface{}{"entries": len(report.Provenance)})

	// Correction.
	emit(model.EventCorrectionStart, nil)
	report.Correction = p.correct(ctx, req.Claim, sym)
	emit(model.EventCorrectionDone, map[string]interface{}{"corrected": report.Correction != ""})

	p.logger.Info("verification complete",
		"run_id", report.RunID,
		"verdict", report.Verdict,
		"confidence", report.Confidence,
		"overridden", sym.Override.Applied)
	emit(model.EventComplete, map[string]interface{}{"report": report})
}

// extractFacts pulls financial facts from the claim and every snippet.
func (p *Pipeline) extractFacts(claim string, items []model.EvidenceItem) []model.FinancialFact {
	facts := p.extractor.Extract(claim)
	for _, item := range items {
		facts = append(facts, p.extractor.Extract(item.Snippet)...)
	}
	return facts
}
