// Package sources defines the external data collaborators the evidence
// orchestrator consumes. The core only depends on these interfaces; the
// concrete HTTP clients live outside this module. Every call takes a
// context with a deadline, and every failure is folded into "no evidence"
// by the caller.
package sources

import "context"

// FilingHit is one structured-filing search result.
type FilingHit struct {
	Snippet    string `json:"snippet"`
	FilingType string `json:"filing_type"` // 10-K, 10-Q, 8-K...
	Date       string `json:"date"`
	Accession  string `json:"accession"`
	Company    string `json:"company"`
}

// FilingStore looks up structured filing data.
type FilingStore interface {
	// LookupMetric returns a single reported value, or ok=false when the
	// metric is not on file for the period.
	LookupMetric(ctx context.Context, entity, metricKey, period string) (value float64, ok bool, err error)

	// SearchFilings runs a full-text search across filings.
	SearchFilings(ctx context.Context, query, company, filingType string) ([]FilingHit, error)
}

// GroundedResult is a web-search answer with its citations.
type GroundedResult struct {
	Text      string   `json:"text"`
	Citations []string `json:"citations,omitempty"`
}

// Searcher is the web/search-grounding provider.
type Searcher interface {
	Search(ctx context.Context, query, focus string) (*GroundedResult, error)
}

// MacroPoint is the latest observation of a macroeconomic series.
type MacroPoint struct {
	SeriesID    string  `json:"series_id"`
	LatestValue float64 `json:"latest_value"`
	LatestDate  string  `json:"latest_date"`
	YoYChange   float64 `json:"yoy_change_pct"`
}

// MacroProvider resolves macroeconomic series.
type MacroProvider interface {
	LookupSeries(ctx context.Context, query string) (*MacroPoint, error)
}

// MarketQuote is a point-in-time market snapshot for a ticker.
type MarketQuote struct {
	Ticker    string  `json:"ticker"`
	Price     float64 `json:"price"`
	Exchange  string  `json:"exchange"`
	High52W   float64 `json:"high_52w"`
	Low52W    float64 `json:"low_52w"`
	YoYReturn float64 `json:"yoy_return_pct"`
}

// MarketProvider resolves market data.
type MarketProvider interface {
	Lookup(ctx context.Context, ticker string) (*MarketQuote, error)
}

// Set bundles the four collaborators handed to the orchestrator. Any field
// may be nil; a nil provider simply contributes no evidence.
type Set struct {
	Filings FilingStore
	Search  Searcher
	Macro   MacroProvider
	Market  MarketProvider
}
