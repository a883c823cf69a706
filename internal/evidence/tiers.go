// Package evidence orchestrates retrieval: it classifies each sub-claim
// into a source focus, fans out across the configured providers under
// bounded concurrency, deduplicates by content fingerprint, and runs a
// deliberate counter-evidence pass for claims that warrant one.
package evidence

import (
	"regexp"

	"github.com/provato/provato/internal/model"
)

// Focus is the retrieval strategy chosen for one sub-claim.
type Focus string

const (
	FocusMacro       Focus = "macro"        // Macroeconomic series answer it best
	FocusMarket      Focus = "market"       // Price / return data answers it best
	FocusGuidance    Focus = "guidance"     // Management outlook, transcripts
	FocusFiledMetric Focus = "filed_metric" // Reported figures from filings
)

// Classification pattern tables. First match wins in the order macro,
// market, guidance; everything else is a filed-metric lookup.
var (
	macroPattern = regexp.MustCompile(`(?i)\b(gdp|inflation|cpi|unemployment|interest rates?|fed(?:eral reserve)?|treasury yields?|macro|recession|consumer spending|housing starts)\b`)

	marketPattern = regexp.MustCompile(`(?i)\b(stock|share price|market cap|shares? (?:rose|fell|traded|outperformed)|valuation|52-week|all-time high|p/e|trading (?:at|near)|total return)\b`)

	guidancePattern = regexp.MustCompile(`(?i)\b(guidance|outlook|expects?|forecasts?|projected|targets?|will (?:grow|reach|achieve|deliver)|next (?:year|quarter)|going forward|raised|lowered)\b`)
)

// High-stakes patterns mark claims where being wrong is expensive:
// fraud and restatement allegations, extreme superlatives, M&A and
// covenant language, and billion-scale headline amounts.
var (
	highStakesPattern = regexp.MustCompile(`(?i)\b(fraud|restat(?:ed|ement)|sec investigation|bankrupt(?:cy)?|insolven|misstat|never|always|best|worst|highest|lowest|record|first time|doubled|tripled|collaps|mergers?|acquisitions?|acquired?|takeover|covenants?)\b`)

	largeDollarPattern = regexp.MustCompile(`(?i)\$\s?\d+(?:[.,]\d+)?\s?(?:billion|bn|trillion)\b`)
)

// Classify picks the retrieval focus for a sub-claim.
func Classify(sc model.SubClaim) Focus {
	switch {
	case macroPattern.MatchString(sc.Text):
		return FocusMacro
	case marketPattern.MatchString(sc.Text):
		return FocusMarket
	case guidancePattern.MatchString(sc.Text):
		return FocusGuidance
	default:
		return FocusFiledMetric
	}
}

// HighStakes reports whether a sub-claim warrants an unconditional
// counter-evidence pass.
func HighStakes(sc model.SubClaim) bool {
	return highStakesPattern.MatchString(sc.Text) || largeDollarPattern.MatchString(sc.Text)
}
