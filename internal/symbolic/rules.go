package symbolic

import (
	"fmt"
	"math"

	"github.com/provato/provato/internal/model"
)

// Rule names. The catalogue is fixed; rules fire zero or more times each.
const (
	RuleNumericMatch         = "NUMERIC_MATCH"
	RuleNumericMismatch      = "NUMERIC_MISMATCH"
	RuleGrowthMatch          = "GROWTH_MATCH"
	RuleGrowthMismatch       = "GROWTH_RATE_MISMATCH"
	RuleAuthorityHierarchy   = "AUTHORITY_HIERARCHY"
	RuleUngroundedClaims     = "UNGROUNDED_CLAIMS"
	RuleHighSeverityContra   = "HIGH_SEVERITY_CONTRADICTION"
	RuleUnanimousEvidence    = "UNANIMOUS_EVIDENCE"
	RuleFutureNoGuidance     = "FUTURE_PERIOD_NO_GUIDANCE"
	RuleMixedSubClaimVerdict = "MIXED_SUBCLAIM_VERDICTS"
)

// Growth mismatch thresholds in percentage points.
const (
	growthWarnPP     = 2.0
	growthOverridePP = 5.0
)

// RuleEngine fires the inference rule catalogue over grounded predicates,
// gathered evidence, numeric consistency issues, and per-sub-claim model
// verdicts.
type RuleEngine struct {
	tol model.ToleranceConfig
}

// NewRuleEngine creates a rule engine with the given tolerance bands.
func NewRuleEngine(tol model.ToleranceConfig) *RuleEngine {
	return &RuleEngine{tol: tol}
}

// Fire evaluates every rule and returns the firings in catalogue order.
func (r *RuleEngine) Fire(preds []model.Predicate, evidence []model.EvidenceItem, issues []model.ConsistencyIssue, verdicts []model.SubClaimVerdict) []model.RuleFiring {
	var firings []model.RuleFiring
	firings = append(firings, r.numericRules(preds)...)
	firings = append(firings, r.authorityRule(evidence)...)
	firings = append(firings, r.ungroundedRule(preds)...)
	firings = append(firings, r.contradictionRule(issues)...)
	firings = append(firings, r.unanimityRule(evidence)...)
	firings = append(firings, r.futureRule(preds, evidence)...)
	firings = append(firings, r.mixedVerdictRule(verdicts)...)
	return firings
}

// numericRules compares each grounded numeric predicate's claimed value
// against its ground value.
func (r *RuleEngine) numericRules(preds []model.Predicate) []model.RuleFiring {
	var firings []model.RuleFiring
	for _, p := range preds {
		if !p.Type.IsNumeric() || !p.Grounded || p.ClaimedValue == nil || p.GroundValue == nil {
			continue
		}
		if p.Type == model.PredicateGrowth {
			firings = append(firings, r.growthFiring(p)...)
			continue
		}
		firings = append(firings, r.metricFiring(p)...)
	}
	return firings
}

func (r *RuleEngine) metricFiring(p model.Predicate) []model.RuleFiring {
	ground := *p.GroundValue
	if ground == 0 {
		return nil
	}
	diffPct := math.Abs(*p.ClaimedValue-ground) / math.Abs(ground) * 100

	switch {
	case diffPct > r.tol.NotablePct:
		return []model.RuleFiring{{
			Rule:             RuleNumericMismatch,
			Severity:         model.RuleOverride,
			InputIDs:         append([]string{p.ID}, p.EvidenceIDs...),
			Conclusion:       fmt.Sprintf("claimed %.4g diverges %.1f%% from grounded %.4g", *p.ClaimedValue, diffPct, ground),
			SuggestedVerdict: model.VerdictContradicted,
			ConfidenceDelta:  -0.35,
		}}
	case diffPct > r.tol.ClosePct:
		return []model.RuleFiring{{
			Rule:            RuleNumericMismatch,
			Severity:        model.RuleWarning,
			InputIDs:        append([]string{p.ID}, p.EvidenceIDs...),
			Conclusion:      fmt.Sprintf("claimed %.4g is %.1f%% off grounded %.4g", *p.ClaimedValue, diffPct, ground),
			ConfidenceDelta: -0.15,
		}}
	default:
		return []model.RuleFiring{{
			Rule:             RuleNumericMatch,
			Severity:         model.RuleInfo,
			InputIDs:         append([]string{p.ID}, p.EvidenceIDs...),
			Conclusion:       fmt.Sprintf("claimed %.4g matches grounded %.4g within %.1f%%", *p.ClaimedValue, ground, diffPct),
			SuggestedVerdict: model.VerdictSupported,
			ConfidenceDelta:  0.10,
		}}
	}
}

func (r *RuleEngine) growthFiring(p model.Predicate) []model.RuleFiring {
	diffPP := math.Abs(*p.ClaimedValue - *p.GroundValue)

	switch {
	case diffPP > growthOverridePP:
		return []model.RuleFiring{{
			Rule:             RuleGrowthMismatch,
			Severity:         model.RuleOverride,
			InputIDs:         append([]string{p.ID}, p.EvidenceIDs...),
			Conclusion:       fmt.Sprintf("claimed growth %.1f%% diverges %.1fpp from grounded %.1f%%", *p.ClaimedValue, diffPP, *p.GroundValue),
			SuggestedVerdict: model.VerdictContradicted,
			ConfidenceDelta:  -0.35,
		}}
	case diffPP > growthWarnPP:
		return []model.RuleFiring{{
			Rule:            RuleGrowthMismatch,
			Severity:        model.RuleWarning,
			InputIDs:        append([]string{p.ID}, p.EvidenceIDs...),
			Conclusion:      fmt.Sprintf("claimed growth %.1f%% is %.1fpp off grounded %.1f%%", *p.ClaimedValue, diffPP, *p.GroundValue),
			ConfidenceDelta: -0.15,
		}}
	default:
		return []model.RuleFiring{{
			Rule:             RuleGrowthMatch,
			Severity:         model.RuleInfo,
			InputIDs:         append([]string{p.ID}, p.EvidenceIDs...),
			Conclusion:       fmt.Sprintf("claimed growth %.1f%% matches grounded %.1f%%", *p.ClaimedValue, *p.GroundValue),
			SuggestedVerdict: model.VerdictSupported,
			ConfidenceDelta:  0.10,
		}}
	}
}

// authorityRule resolves conflicts between tiers: a filing beats lower
// tier sources arguing the other way on the same sub-claim.
func (r *RuleEngine) authorityRule(evidence []model.EvidenceItem) []model.RuleFiring {
	type stanceSet struct {
		filingSupport []string
		lowerOppose   []string
		filingOppose  []string
		lowerSupport  []string
	}
	bySubClaim := make(map[string]*stanceSet)
	var order []string
	for _, ev := range evidence {
		set, ok := bySubClaim[ev.SubClaimID]
		if !ok {
			set = &stanceSet{}
			bySubClaim[ev.SubClaimID] = set
			order = append(order, ev.SubClaimID)
		}
		filing := ev.Tier == model.TierFiling
		switch {
		case filing && ev.Stance == model.StanceSupport:
			set.filingSupport = append(set.filingSupport, ev.ID)
		case filing && ev.Stance == model.StanceOppose:
			set.filingOppose = append(set.filingOppose, ev.ID)
		case ev.Stance == model.StanceOppose:
			set.lowerOppose = append(set.lowerOppose, ev.ID)
		case ev.Stance == model.StanceSupport:
			set.lowerSupport = append(set.lowerSupport, ev.ID)
		}
	}

	var firings []model.RuleFiring
	for _, id := range order {
		set := bySubClaim[id]
		if len(set.filingSupport) > 0 && len(set.lowerOppose) > 0 {
			firings = append(firings, model.RuleFiring{
				Rule:            RuleAuthorityHierarchy,
				Severity:        model.RuleInfo,
				InputIDs:        append(append([]string{}, set.filingSupport...), set.lowerOppose...),
				Conclusion:      "filed disclosures support the sub-claim over lower-authority opposition",
				ConfidenceDelta: 0.05,
			})
		}
		if len(set.filingOppose) > 0 && len(set.lowerSupport) > 0 {
			firings = append(firings, model.RuleFiring{
				Rule:            RuleAuthorityHierarchy,
				Severity:        model.RuleWarning,
				InputIDs:        append(append([]string{}, set.filingOppose...), set.lowerSupport...),
				Conclusion:      "filed disclosures contradict the sub-claim despite lower-authority support",
				ConfidenceDelta: -0.10,
			})
		}
	}
	return firings
}

// ungroundedRule flags claims whose numeric assertions mostly could not be
// located in any evidence.
func (r *RuleEngine) ungroundedRule(preds []model.Predicate) []model.RuleFiring {
	var total, grounded int
	var ids []string
	for _, p := range preds {
		if !p.Type.IsNumeric() {
			continue
		}
		total++
		if p.Grounded {
			grounded++
		} else {
			ids = append(ids, p.ID)
		}
	}
	if total < 2 || float64(grounded)/float64(total) >= 0.5 {
		return nil
	}
	return []model.RuleFiring{{
		Rule:            RuleUngroundedClaims,
		Severity:        model.RuleWarning,
		InputIDs:        ids,
		Conclusion:      fmt.Sprintf("only %d of %d numeric assertions could be grounded in evidence", grounded, total),
		ConfidenceDelta: -0.10,
	}}
}

// contradictionRule surfaces high and critical consistency issues from the
// numerical engine. Two or more escalate to override severity.
func (r *RuleEngine) contradictionRule(issues []model.ConsistencyIssue) []model.RuleFiring {
	var ids []string
	var count int
	for _, issue := range issues {
		if issue.Severity != model.IssueSeverityHigh && issue.Severity != model.IssueSeverityCritical {
			continue
		}
		count++
		ids = append(ids, issue.FactIDs...)
	}
	if count == 0 {
		return nil
	}
	severity := model.RuleWarning
	var suggested model.VerdictLabel
	if count >= 2 {
		severity = model.RuleOverride
		suggested = model.VerdictContradicted
	}
	return []model.RuleFiring{{
		Rule:             RuleHighSeverityContra,
		Severity:         severity,
		InputIDs:         ids,
		Conclusion:       fmt.Sprintf("%d high-severity numerical inconsistencies detected", count),
		SuggestedVerdict: suggested,
		ConfidenceDelta:  -0.15,
	}}
}

// unanimityRule rewards or penalizes an evidence pool that all points the
// same way. Requires at least three items with a known stance.
func (r *RuleEngine) unanimityRule(evidence []model.EvidenceItem) []model.RuleFiring {
	var support, oppose int
	var ids []string
	for _, ev := range evidence {
		switch ev.Stance {
		case model.StanceSupport:
			support++
			ids = append(ids, ev.ID)
		case model.StanceOppose:
			oppose++
			ids = append(ids, ev.ID)
		}
	}
	total := support + oppose
	if total < 3 {
		return nil
	}
	switch {
	case oppose == 0:
		return []model.RuleFiring{{
			Rule:             RuleUnanimousEvidence,
			Severity:         model.RuleInfo,
			InputIDs:         ids,
			Conclusion:       fmt.Sprintf("all %d stanced evidence items support the claim", support),
			SuggestedVerdict: model.VerdictSupported,
			ConfidenceDelta:  0.10,
		}}
	case support == 0:
		return []model.RuleFiring{{
			Rule:             RuleUnanimousEvidence,
			Severity:         model.RuleWarning,
			InputIDs:         ids,
			Conclusion:       fmt.Sprintf("all %d stanced evidence items oppose the claim", oppose),
			SuggestedVerdict: model.VerdictContradicted,
			ConfidenceDelta:  -0.20,
		}}
	}
	return nil
}

// futureRule flags forward-looking assertions that no guidance or filing
// evidence backs up.
func (r *RuleEngine) futureRule(preds []model.Predicate, evidence []model.EvidenceItem) []model.RuleFiring {
	var temporal []string
	future := make(map[string]bool)
	for _, p := range preds {
		if p.Type == model.PredicateTemporal && p.Args["future"] == "true" {
			temporal = append(temporal, p.ID)
			future[p.SubClaimID] = true
		}
	}
	if len(temporal) == 0 {
		return nil
	}
	for _, ev := range evidence {
		if !future[ev.SubClaimID] {
			continue
		}
		if ev.Tier == model.TierFiling || ev.Tier == model.TierTranscript {
			return nil
		}
	}
	return []model.RuleFiring{{
		Rule:            RuleFutureNoGuidance,
		Severity:        model.RuleWarning,
		InputIDs:        temporal,
		Conclusion:      "forward-looking assertion has no guidance or filed disclosure behind it",
		ConfidenceDelta: -0.10,
	}}
}

// mixedVerdictRule fires when the model's own sub-claim verdicts disagree.
func (r *RuleEngine) mixedVerdictRule(verdicts []model.SubClaimVerdict) []model.RuleFiring {
	seen := make(map[model.VerdictLabel]bool)
	var ids []string
	for _, v := range verdicts {
		seen[v.Label] = true
		ids = append(ids, v.SubClaimID)
	}
	if len(seen) < 2 || (!seen[model.VerdictSupported] || !seen[model.VerdictContradicted]) {
		return nil
	}
	return []model.RuleFiring{{
		Rule:            RuleMixedSubClaimVerdict,
		Severity:        model.RuleWarning,
		InputIDs:        ids,
		Conclusion:      "sub-claim verdicts point in opposite directions",
		ConfidenceDelta: -0.05,
	}}
}
