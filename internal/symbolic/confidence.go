package symbolic

import (
	"math"

	"github.com/provato/provato/internal/model"
)

const (
	// opposeDamping discounts opposing evidence relative to supporting
	// evidence. Opposition in financial text is often hedged or partial.
	opposeDamping = 0.7

	// neutralPrior is the per-sub-claim probability when no evidence
	// with a usable stance exists.
	neutralPrior = 0.5
)

// Scorer turns evidence stances and rule firings into a 0-100 symbolic
// confidence score.
type Scorer struct{}

// NewScorer creates a confidence scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the overall symbolic confidence. Per sub-claim the
// supporting reliabilities combine via noisy-OR, opposing ones likewise
// but damped, and the sub-claim probabilities aggregate by geometric
// mean before the rule deltas shift the result.
func (s *Scorer) Score(subClaims []model.SubClaim, evidence []model.EvidenceItem, firings []model.RuleFiring) float64 {
	bySubClaim := make(map[string][]model.EvidenceItem)
	for _, ev := range evidence {
		bySubClaim[ev.SubClaimID] = append(bySubClaim[ev.SubClaimID], ev)
	}

	product := 1.0
	for _, sc := range subClaims {
		product *= s.subClaimProbability(bySubClaim[sc.ID])
	}
	overall := neutralPrior
	if len(subClaims) > 0 {
		overall = math.Pow(product, 1/float64(len(subClaims)))
	}

	for _, f := range firings {
		overall += f.ConfidenceDelta
	}

	return clamp01(overall) * 100
}

// subClaimProbability combines one sub-claim's evidence stances.
func (s *Scorer) subClaimProbability(items []model.EvidenceItem) float64 {
	noSupport, noOppose := 1.0, 1.0
	var stanced bool
	for _, ev := range items {
		r := reliability(ev)
		switch ev.Stance {
		case model.StanceSupport:
			noSupport *= 1 - r
			stanced = true
		case model.StanceOppose:
			noOppose *= 1 - r
			stanced = true
		}
	}
	if !stanced {
		return neutralPrior
	}
	p := (1 - noSupport) - opposeDamping*(1-noOppose)
	return clampProbability(p)
}

// reliability is one evidence item's weight, its tier authority scaled by
// its quality assessment.
func reliability(ev model.EvidenceItem) float64 {
	q := float64(ev.Quality) / 100
	if q <= 0 {
		q = 0.5
	}
	return clamp01(ev.Tier.AuthorityWeight() * q)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// clampProbability keeps sub-claim probabilities away from the absolute
// extremes so the geometric mean never collapses to zero on one bad
// sub-claim.
func clampProbability(p float64) float64 {
	return math.Max(0.02, math.Min(0.98, p))
}
