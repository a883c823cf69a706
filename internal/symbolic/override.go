package symbolic

import (
	"fmt"
	"math"

	"github.com/provato/provato/internal/model"
)

// Override score thresholds on the 0-100 symbolic scale.
const (
	overrideLowScore  = 35.0
	overrideHighScore = 70.0
	cautionDivergence = 30.0
)

// DecideOverride compares the symbolic result against the model's verdict
// and decides whether the symbolic side wins. modelConfidence is the
// model's 0-1 confidence in its verdict.
func DecideOverride(symScore float64, rel model.SymbolicReliability, firings []model.RuleFiring, modelVerdict model.VerdictLabel, modelConfidence float64) model.OverrideDecision {
	divergence := math.Abs(symScore - modelConfidence*100)
	confidence := 0.6*rel.Score + 0.4*divergence

	decision := model.OverrideDecision{
		From:       modelVerdict,
		To:         modelVerdict,
		Confidence: confidence,
	}

	if rel.CanOverride && confidence >= overrideConfidenceGate {
		switch {
		case modelVerdict == model.VerdictSupported && symScore < overrideLowScore:
			decision.Applied = true
			decision.To = model.VerdictContradicted
			decision.Reason = fmt.Sprintf("symbolic confidence %.0f contradicts the supported verdict", symScore)
			return decision
		case modelVerdict == model.VerdictSupported && contradictingOverrides(firings) >= 2:
			decision.Applied = true
			decision.To = model.VerdictContradicted
			decision.Reason = "multiple override-severity rules contradict the supported verdict"
			return decision
		case modelVerdict == model.VerdictContradicted && symScore > overrideHighScore:
			decision.Applied = true
			decision.To = model.VerdictSupported
			decision.Reason = fmt.Sprintf("symbolic confidence %.0f supports the claim despite the contradicted verdict", symScore)
			return decision
		}
	}

	if divergence >= cautionDivergence {
		decision.CautionFlag = true
		decision.Reason = fmt.Sprintf("symbolic confidence diverges %.0f points from the model without meeting override gates", divergence)
	}
	return decision
}

// contradictingOverrides counts override-severity firings that argue for a
// contradicted verdict.
func contradictingOverrides(firings []model.RuleFiring) int {
	var n int
	for _, f := range firings {
		if f.Severity == model.RuleOverride && f.SuggestedVerdict == model.VerdictContradicted {
			n++
		}
	}
	return n
}
