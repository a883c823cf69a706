package model

// Predicate is a formal logical statement derived from a sub-claim or an
// extracted fact. A predicate is grounded at most once: the grounding pass
// flips Grounded false->true and records the matched evidence.
type Predicate struct {
	ID           string            `json:"id"` // p-1, p-2, ...
	Type         PredicateType     `json:"type"`
	SubClaimID   string            `json:"subclaim_id"`
	Args         map[string]string `json:"args,omitempty"` // metric, period, direction, source...
	ClaimedValue *float64          `json:"claimed_value,omitempty"`
	Grounded     bool              `json:"grounded"`
	EvidenceIDs  []string          `json:"evidence_ids,omitempty"` // Evidence that grounded it
	GroundValue  *float64          `json:"ground_value,omitempty"` // Value found in evidence
}

// PredicateType classifies a formal predicate
type PredicateType string

const (
	PredicateMetric     PredicateType = "metric"     // metric(revenue, FY2024) = 120M
	PredicateGrowth     PredicateType = "growth"     // growth(revenue, yoy) = 25%
	PredicateComparison PredicateType = "comparison" // greater_than(x, y)
	PredicateTemporal   PredicateType = "temporal"   // refers_to_period(FY2025)
	PredicateSource     PredicateType = "source"     // attributed_to(10-K)
	PredicateRelation   PredicateType = "relation"   // related(a, b)
	PredicateExistence  PredicateType = "existence"  // exists(segment)
	PredicateCausal     PredicateType = "causal"     // caused_by(growth, pricing)
)

// IsNumeric reports whether grounding requires a numeric match.
func (t PredicateType) IsNumeric() bool {
	return t == PredicateMetric || t == PredicateGrowth
}
