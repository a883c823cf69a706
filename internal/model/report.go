package model

import "time"

// VerdictLabel is the outcome of verifying a claim or sub-claim
type VerdictLabel string

const (
	VerdictSupported    VerdictLabel = "supported"
	VerdictContradicted VerdictLabel = "contradicted"
	VerdictInconclusive VerdictLabel = "inconclusive"
	VerdictUnverifiable VerdictLabel = "unverifiable"
)

// SubClaimVerdict is the generative evaluator's per-sub-claim judgement.
type SubClaimVerdict struct {
	SubClaimID string       `json:"subclaim_id"`
	Label      VerdictLabel `json:"label"`
	Confidence float64      `json:"confidence"` // 0-1
	Rationale  string       `json:"rationale,omitempty"`
	Fallback   bool         `json:"fallback,omitempty"` // True when model output was unusable and the fixed prior applied
}

// SymbolicReliability is the symbolic layer's self-assessment of how much
// its own score can be trusted for this claim.
type SymbolicReliability struct {
	Score                float64 `json:"score"` // 0-100
	PredicateCoverage    float64 `json:"predicate_coverage"`
	GroundingRatio       float64 `json:"grounding_ratio"`
	Structuredness       float64 `json:"structuredness"`
	ClaimTypeSuitability float64 `json:"claim_type_suitability"`
	ModelDisagreement    float64 `json:"model_disagreement"`
	CanOverride          bool    `json:"can_override"`
}

// OverrideDecision records whether and why the symbolic layer replaced or
// flagged the generative verdict.
type OverrideDecision struct {
	Applied     bool         `json:"applied"`
	CautionFlag bool         `json:"caution_flag,omitempty"` // Set when gates failed but divergence is large
	From        VerdictLabel `json:"from,omitempty"`
	To          VerdictLabel `json:"to,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	Confidence  float64      `json:"confidence,omitempty"` // Override confidence, 0-100
}

// ProvenanceEntry attributes one grounded finding to its evidence.
type ProvenanceEntry struct {
	SubClaimID  string     `json:"subclaim_id"`
	PredicateID string     `json:"predicate_id,omitempty"`
	EvidenceIDs []string   `json:"evidence_ids"`
	Tier        SourceTier `json:"tier"`
	Detail      string     `json:"detail,omitempty"`
}

// SymbolicResult bundles everything the symbolic engine produced for a run.
type SymbolicResult struct {
	Predicates  []Predicate         `json:"predicates"`
	Firings     []RuleFiring        `json:"firings"`
	Proof       *ProofTree          `json:"proof,omitempty"`
	Score       float64             `json:"score"` // 0-100 Bayesian-style confidence
	Reliability SymbolicReliability `json:"reliability"`
	Override    OverrideDecision    `json:"override"`
}

// GatherStats summarizes one evidence-gathering pass.
type GatherStats struct {
	PerTier           map[SourceTier]int `json:"per_tier"`
	DuplicatesDropped int                `json:"duplicates_dropped"`
	CacheHits         int                `json:"cache_hits"`
	SourceFailures    int                `json:"source_failures"`
}

// Report is the final verdict object for one verification run.
type Report struct {
	RunID      string    `json:"run_id"`
	Claim      string    `json:"claim"`
	Ticker     string    `json:"ticker,omitempty"`
	VerifiedAt time.Time `json:"verified_at"`

	SubClaims        []SubClaim         `json:"subclaims"`
	Evidence         []EvidenceItem     `json:"evidence"`
	Facts            []FinancialFact    `json:"facts,omitempty"`
	Issues           []ConsistencyIssue `json:"issues,omitempty"`
	SubClaimVerdicts []SubClaimVerdict  `json:"subclaim_verdicts"`

	Verdict    VerdictLabel `json:"verdict"`
	Confidence float64      `json:"confidence"` // Final confidence, 0-100
	Summary    string       `json:"summary,omitempty"`

	Symbolic   *SymbolicResult   `json:"symbolic,omitempty"`
	Provenance []ProvenanceEntry `json:"provenance,omitempty"`
	Correction string            `json:"correction,omitempty"` // Rewritten claim with grounded values

	Stats GatherStats `json:"stats"`
}
