package model

// EvidenceItem represents one retrieved fact or snippet supporting or
// opposing a sub-claim.
type EvidenceItem struct {
	ID          string     `json:"id"`                     // ev-1, ev-2, ... allocated by the registry
	SubClaimID  string     `json:"subclaim_id"`            // Sub-claim this item was retrieved for
	Snippet     string     `json:"snippet"`                // The evidence text
	Tier        SourceTier `json:"tier"`                   // Authority / category bucket
	Source      string     `json:"source,omitempty"`       // Human-readable origin (provider, accession no.)
	FilingDate  string     `json:"filing_date,omitempty"`  // Date string as reported by the source
	URL         string     `json:"url,omitempty"`          // Citation URL if the provider returned one
	Quality     int        `json:"quality"`                // 0-100, filled during evaluation
	Stance      Stance     `json:"stance"`                 // support / oppose / neutral / unknown
	Fingerprint string     `json:"fingerprint"`            // Hash of normalized snippet text
	GroundValue *float64   `json:"ground_value,omitempty"` // Structured-filing value, when the tier provides one
}

// SourceTier classifies evidence by authority and category
type SourceTier string

const (
	TierFiling     SourceTier = "filed_metric" // Regulatory filings, structured XBRL metrics
	TierTranscript SourceTier = "transcript"   // Earnings call transcripts
	TierPress      SourceTier = "press"        // Press releases, news
	TierMarket     SourceTier = "market"       // Market / price data
	TierMacro      SourceTier = "macro"        // Macroeconomic series
	TierAcademic   SourceTier = "academic"     // Academic / research sources
	TierCounter    SourceTier = "counter"      // Deliberate counter-evidence search
)

// Priority returns the fixed ordering rank for a tier; lower sorts first.
func (t SourceTier) Priority() int {
	switch t {
	case TierFiling:
		return 0
	case TierTranscript:
		return 1
	case TierPress:
		return 2
	case TierMarket, TierMacro:
		return 3
	case TierAcademic:
		return 4
	case TierCounter:
		return 5
	default:
		return 6
	}
}

// AuthorityWeight returns the reliability weight used in confidence
// propagation (0-1). Filings outrank everything else.
func (t SourceTier) AuthorityWeight() float64 {
	switch t {
	case TierFiling:
		return 0.95
	case TierTranscript:
		return 0.85
	case TierPress:
		return 0.70
	case TierMarket, TierMacro:
		return 0.75
	case TierAcademic:
		return 0.80
	case TierCounter:
		return 0.65
	default:
		return 0.50
	}
}

// Stance indicates whether an evidence item supports or opposes its sub-claim
type Stance string

const (
	StanceSupport Stance = "support"
	StanceOppose  Stance = "oppose"
	StanceNeutral Stance = "neutral"
	StanceUnknown Stance = "unknown"
)
