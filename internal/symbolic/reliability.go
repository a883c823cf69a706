package symbolic

import (
	"github.com/provato/provato/internal/model"
)

// Reliability factor weights. Grounding and claim-type suitability carry
// the most signal; a symbolic analysis with nothing numeric to ground
// cannot earn the right to override.
const (
	weightCoverage       = 0.10
	weightGrounding      = 0.30
	weightStructuredness = 0.15
	weightSuitability    = 0.35
	weightDisagreement   = 0.10
)

// Gates for the override decision.
const (
	overrideScoreGate      = 50.0
	overrideConfidenceGate = 40.0
)

// AssessReliability scores how much the symbolic analysis itself can be
// trusted, independent of which verdict it reaches.
func AssessReliability(subClaims []model.SubClaim, preds []model.Predicate, evidence []model.EvidenceItem, verdicts []model.SubClaimVerdict) model.SymbolicReliability {
	rel := model.SymbolicReliability{
		PredicateCoverage:    coverage(subClaims, preds),
		GroundingRatio:       GroundingRatio(preds),
		Structuredness:       structuredness(evidence),
		ClaimTypeSuitability: suitability(subClaims),
		ModelDisagreement:    disagreement(verdicts),
	}
	rel.Score = 100 * (weightCoverage*rel.PredicateCoverage +
		weightGrounding*rel.GroundingRatio +
		weightStructuredness*rel.Structuredness +
		weightSuitability*rel.ClaimTypeSuitability +
		weightDisagreement*rel.ModelDisagreement)
	if !hasNumericPredicate(preds) {
		// Without a single number to check, symbolic analysis is
		// commentary, not verification.
		rel.Score *= 0.6
	}
	rel.CanOverride = rel.Score >= overrideScoreGate
	return rel
}

func hasNumericPredicate(preds []model.Predicate) bool {
	for _, p := range preds {
		if p.Type.IsNumeric() {
			return true
		}
	}
	return false
}

// coverage measures how much of the claim the predicates formalize, two
// predicates per sub-claim counting as full coverage.
func coverage(subClaims []model.SubClaim, preds []model.Predicate) float64 {
	if len(subClaims) == 0 {
		return 0
	}
	c := float64(len(preds)) / (2 * float64(len(subClaims)))
	return clamp01(c)
}

// structuredness is the share of evidence drawn from structured sources,
// filings and market or macro data rather than prose.
func structuredness(evidence []model.EvidenceItem) float64 {
	if len(evidence) == 0 {
		return 0
	}
	var structured int
	for _, ev := range evidence {
		switch ev.Tier {
		case model.TierFiling, model.TierMarket, model.TierMacro:
			structured++
		}
	}
	return float64(structured) / float64(len(evidence))
}

// suitability rates how amenable the claim is to symbolic verification.
// Quantitative claims are its home turf; categorical ones barely are.
func suitability(subClaims []model.SubClaim) float64 {
	if len(subClaims) == 0 {
		return 0
	}
	var sum float64
	for _, sc := range subClaims {
		switch sc.Type {
		case model.SubClaimQuantitative:
			sum += 1.0
		case model.SubClaimDirectional:
			sum += 0.7
		case model.SubClaimProvenance:
			sum += 0.5
		default:
			sum += 0.1
		}
	}
	return sum / float64(len(subClaims))
}

// disagreement measures how divided the model's own sub-claim verdicts
// are. A model at war with itself leaves more room for symbolic
// correction.
func disagreement(verdicts []model.SubClaimVerdict) float64 {
	if len(verdicts) == 0 {
		return 0.5
	}
	counts := make(map[model.VerdictLabel]int)
	for _, v := range verdicts {
		counts[v.Label]++
	}
	var max int
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	return 1 - float64(max)/float64(len(verdicts))
}
