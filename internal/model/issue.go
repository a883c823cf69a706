package model

// ConsistencyIssue is a detected internal contradiction among extracted
// facts. Issues are analytic output, not errors: they are reported to the
// caller alongside the verdict.
type ConsistencyIssue struct {
	Type        IssueType     `json:"type"`
	Severity    IssueSeverity `json:"severity"`
	FactIDs     []string      `json:"fact_ids"`       // Implicated facts
	Expected    float64       `json:"expected_value"` // Recomputed value
	Actual      float64       `json:"actual_value"`   // Value as stated
	Description string        `json:"description"`
}

// IssueType classifies the kind of internal contradiction
type IssueType string

const (
	IssueDuplicateMetricMismatch IssueType = "duplicate_metric_mismatch"
	IssueMarginMath              IssueType = "margin_math_error"
	IssueMultipleMath            IssueType = "multiple_math_error"
	IssueGrowthRate              IssueType = "growth_rate_error"
	IssueMixedPeriodTypes        IssueType = "mixed_period_types"
	IssueMixedAccountingBasis    IssueType = "mixed_accounting_basis"
	IssueRestatement             IssueType = "restatement"
)

// IssueSeverity ranks how damaging an issue is
type IssueSeverity string

const (
	IssueSeverityLow      IssueSeverity = "low"
	IssueSeverityMedium   IssueSeverity = "medium"
	IssueSeverityHigh     IssueSeverity = "high"
	IssueSeverityCritical IssueSeverity = "critical"
)
