package model

// SubClaim represents one atomic, independently verifiable assertion
// decomposed from a larger claim.
type SubClaim struct {
	ID   string       `json:"id"`             // Stable within a run (sc-1, sc-2, ...)
	Text string       `json:"text"`           // The assertion text itself
	Type SubClaimType `json:"type,omitempty"` // Nature of the assertion
}

// SubClaimType categorizes the nature of a sub-claim
type SubClaimType string

const (
	SubClaimDirectional  SubClaimType = "directional"  // "revenue grew", "margins compressed"
	SubClaimQuantitative SubClaimType = "quantitative" // Carries a concrete number
	SubClaimProvenance   SubClaimType = "provenance"   // "according to the 10-K"
	SubClaimCategorical  SubClaimType = "categorical"  // Qualitative / opinion-adjacent
)

// IsNumeric reports whether the sub-claim type is expected to carry a
// checkable number.
func (t SubClaimType) IsNumeric() bool {
	return t == SubClaimQuantitative || t == SubClaimDirectional
}
