package model

// RuleFiring records one inference rule activating during symbolic
// reasoning. Firings are immutable once created.
type RuleFiring struct {
	Rule             string       `json:"rule"`                // Catalogue name, e.g. GROWTH_RATE_MISMATCH
	Severity         RuleSeverity `json:"severity"`            // info / warning / override
	InputIDs         []string     `json:"input_ids,omitempty"` // Predicate / evidence ids consumed
	Conclusion       string       `json:"conclusion"`          // Human-readable finding
	SuggestedVerdict VerdictLabel `json:"suggested_verdict,omitempty"`
	ConfidenceDelta  float64      `json:"confidence_delta"` // Added to the Bayesian score, may be negative
}

// RuleSeverity ranks the strength of a rule firing
type RuleSeverity string

const (
	RuleInfo     RuleSeverity = "info"
	RuleWarning  RuleSeverity = "warning"
	RuleOverride RuleSeverity = "override"
)
