package symbolic

import (
	"math"

	"github.com/provato/provato/internal/model"
	"github.com/provato/provato/internal/numeric"
)

// Default matching windows for locating the actual value a predicate
// talks about. A candidate outside the window is treated as a different
// number entirely, not as a mismatch, so grounding refuses it. Mismatch
// severity within the window is the rules engine's job.
const (
	defaultMetricWindowPct = 60.0
	defaultGrowthWindowPP  = 20.0
)

// Grounder binds predicates to ground-truth values found in evidence.
type Grounder struct {
	extractor       *numeric.Extractor
	metricWindowPct float64
	growthWindowPP  float64
}

// NewGrounder creates a grounder with the configured matching windows.
func NewGrounder(tol model.ToleranceConfig) *Grounder {
	g := &Grounder{
		extractor:       numeric.NewExtractor(),
		metricWindowPct: tol.MetricWindowPct,
		growthWindowPP:  tol.GrowthWindowPP,
	}
	if g.metricWindowPct <= 0 {
		g.metricWindowPct = defaultMetricWindowPct
	}
	if g.growthWindowPP <= 0 {
		g.growthWindowPP = defaultGrowthWindowPP
	}
	return g
}

// Ground attempts to ground every predicate against the evidence gathered
// for its sub-claim. Predicates are mutated in place.
func (g *Grounder) Ground(preds []model.Predicate, evidence []model.EvidenceItem) {
	bySubClaim := make(map[string][]model.EvidenceItem)
	for _, ev := range evidence {
		bySubClaim[ev.SubClaimID] = append(bySubClaim[ev.SubClaimID], ev)
	}

	for i := range preds {
		items := bySubClaim[preds[i].SubClaimID]
		switch {
		case preds[i].Type.IsNumeric():
			g.groundNumeric(&preds[i], items)
		default:
			g.groundQualitative(&preds[i], items)
		}
	}
}

// groundNumeric searches for the actual value behind a metric or growth
// predicate. A structured filing ground truth always wins; otherwise the
// snippet numbers closest to the claimed value within the matching window
// are used.
func (g *Grounder) groundNumeric(pred *model.Predicate, items []model.EvidenceItem) {
	if pred.ClaimedValue == nil {
		return
	}
	claimed := *pred.ClaimedValue

	// Structured ground truth from a filing store beats prose.
	for _, ev := range items {
		if ev.GroundValue == nil {
			continue
		}
		pred.Grounded = true
		pred.GroundValue = ev.GroundValue
		pred.EvidenceIDs = append(pred.EvidenceIDs, ev.ID)
		return
	}

	var (
		best     *float64
		bestDist = math.Inf(1)
		bestEv   string
	)
	for _, ev := range items {
		for _, cand := range g.candidates(*pred, ev) {
			dist := math.Abs(cand - claimed)
			if dist < bestDist {
				v := cand
				best, bestDist, bestEv = &v, dist, ev.ID
			}
		}
	}
	if best == nil {
		return
	}

	if pred.Type == model.PredicateGrowth {
		if bestDist > g.growthWindowPP {
			return
		}
	} else if claimed != 0 && bestDist/math.Abs(claimed)*100 > g.metricWindowPct {
		return
	}

	pred.Grounded = true
	pred.GroundValue = best
	pred.EvidenceIDs = append(pred.EvidenceIDs, bestEv)
}

// candidates extracts the numbers in one snippet that could plausibly be
// the actual value for the predicate.
func (g *Grounder) candidates(pred model.Predicate, ev model.EvidenceItem) []float64 {
	var out []float64
	for _, fact := range g.extractor.Extract(ev.Snippet) {
		if pred.Type == model.PredicateGrowth {
			if fact.Unit == model.UnitPercent {
				out = append(out, fact.Value)
			}
			continue
		}
		if fact.Unit != model.UnitCurrency {
			continue
		}
		category := fact.Category
		if category == model.CategoryGrowth {
			// Same proximity artifact as in predicate extraction.
			category = model.CategoryOther
		}
		if m := pred.Args["metric"]; m != "" && m != string(model.CategoryOther) && string(category) != m && category != model.CategoryOther {
			continue
		}
		out = append(out, fact.NormalizedValue())
	}
	return out
}

// groundQualitative marks a non-numeric predicate grounded when supporting
// evidence exists for its sub-claim.
func (g *Grounder) groundQualitative(pred *model.Predicate, items []model.EvidenceItem) {
	for _, ev := range items {
		if ev.Stance != model.StanceSupport {
			continue
		}
		if pred.Type == model.PredicateSource && ev.Tier != model.TierFiling && ev.Tier != model.TierTranscript {
			continue
		}
		pred.Grounded = true
		pred.EvidenceIDs = append(pred.EvidenceIDs, ev.ID)
	}
}

// GroundingRatio is the share of numeric predicates that were grounded.
// Qualitative grounding is too easy to count as a reliability signal, so
// only metric and growth predicates enter the ratio. No numeric predicates
// means no grounding signal at all, reported as zero.
func GroundingRatio(preds []model.Predicate) float64 {
	var total, grounded int
	for _, p := range preds {
		if !p.Type.IsNumeric() {
			continue
		}
		total++
		if p.Grounded {
			grounded++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(grounded) / float64(total)
}
