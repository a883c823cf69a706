package symbolic

import (
	"log/slog"

	"github.com/provato/provato/internal/model"
)

// Input carries everything the symbolic engine needs for one claim: the
// raw claim, its decomposition, the gathered evidence, the numerical
// engine's facts and issues, and the generative model's verdicts.
type Input struct {
	Claim            string
	SubClaims        []model.SubClaim
	Evidence         []model.EvidenceItem
	Facts            []model.FinancialFact
	Issues           []model.ConsistencyIssue
	SubClaimVerdicts []model.SubClaimVerdict
	ModelVerdict     model.VerdictLabel
	ModelConfidence  float64 // 0-1
}

// Engine runs the full symbolic pass: predicate extraction, grounding,
// rule firing, confidence scoring, reliability assessment, proof tree
// assembly, and the override decision.
type Engine struct {
	tol    model.ToleranceConfig
	rules  *RuleEngine
	scorer *Scorer
	logger *slog.Logger
}

// NewEngine creates a symbolic engine with the given tolerance bands.
func NewEngine(tol model.ToleranceConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		tol:    tol,
		rules:  NewRuleEngine(tol),
		scorer: NewScorer(),
		logger: logger,
	}
}

// Analyze runs the symbolic pass over one verified claim.
func (e *Engine) Analyze(in Input) *model.SymbolicResult {
	parser := NewParser()
	var preds []model.Predicate
	for _, sc := range in.SubClaims {
		preds = append(preds, parser.Parse(sc)...)
	}

	NewGrounder(e.tol).Ground(preds, in.Evidence)

	firings := e.rules.Fire(preds, in.Evidence, in.Issues, in.SubClaimVerdicts)
	score := e.scorer.Score(in.SubClaims, in.Evidence, firings)
	rel := AssessReliability(in.SubClaims, preds, in.Evidence, in.SubClaimVerdicts)
	override := DecideOverride(score, rel, firings, in.ModelVerdict, in.ModelConfidence)

	verdict := in.ModelVerdict
	if override.Applied {
		verdict = override.To
		e.logger.Info("symbolic override applied",
			"from", override.From, "to", override.To,
			"score", score, "reliability", rel.Score)
	}

	proof := BuildProof(in.Claim, in.SubClaims, in.Evidence, preds, firings, verdict, score)

	e.logger.Debug("symbolic analysis complete",
		"predicates", len(preds),
		"grounded_ratio", GroundingRatio(preds),
		"firings", len(firings),
		"score", score,
		"reliability", rel.Score)

	return &model.SymbolicResult{
		Predicates:  preds,
		Firings:     firings,
		Proof:       proof,
		Score:       score,
		Reliability: rel,
		Override:    override,
	}
}

// Provenance derives the provenance entries from grounded predicates.
func Provenance(preds []model.Predicate, evidence []model.EvidenceItem) []model.ProvenanceEntry {
	tierByID := make(map[string]model.SourceTier, len(evidence))
	for _, ev := range evidence {
		tierByID[ev.ID] = ev.Tier
	}

	var entries []model.ProvenanceEntry
	for _, p := range preds {
		if !p.Grounded || len(p.EvidenceIDs) == 0 {
			continue
		}
		entries = append(entries, model.ProvenanceEntry{
			SubClaimID:  p.SubClaimID,
			PredicateID: p.ID,
			EvidenceIDs: p.EvidenceIDs,
			Tier:        tierByID[p.EvidenceIDs[0]],
			Detail:      predicateLabel(p),
		})
	}
	return entries
}
