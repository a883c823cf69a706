package sources

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeFilingStore is an in-memory FilingStore used by tests and by
// offline runs.
type FakeFilingStore struct {
	mu      sync.Mutex
	Metrics map[string]float64 // key: entity|metric|period
	Hits    []FilingHit
	Err     error
	Calls   int
}

// SetMetric registers a structured metric value.
func (f *FakeFilingStore) SetMetric(entity, metricKey, period string, value float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Metrics == nil {
		f.Metrics = make(map[string]float64)
	}
	f.Metrics[metricKey+"|"+entity+"|"+period] = value
}

// LookupMetric implements FilingStore.
func (f *FakeFilingStore) LookupMetric(ctx context.Context, entity, metricKey, period string) (float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return 0, false, f.Err
	}
	v, ok := f.Metrics[metricKey+"|"+entity+"|"+period]
	return v, ok, nil
}

// SearchFilings implements FilingStore, returning hits whose snippet or
// company matches the query terms.
func (f *FakeFilingStore) SearchFilings(ctx context.Context, query, company, filingType string) ([]FilingHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	var out []FilingHit
	for _, h := range f.Hits {
		if company != "" && !strings.EqualFold(h.Company, company) {
			continue
		}
		if filingType != "" && h.FilingType != filingType {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// FakeSearcher is an in-memory Searcher. Responses are matched by
// substring against the query; Default is returned otherwise.
type FakeSearcher struct {
	mu        sync.Mutex
	Responses map[string]*GroundedResult
	Default   *GroundedResult
	Err       error
	Queries   []string
}

// Search implements Searcher.
func (f *FakeSearcher) Search(ctx context.Context, query, focus string) (*GroundedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Queries = append(f.Queries, query+"|"+focus)
	if f.Err != nil {
		return nil, f.Err
	}
	for sub, resp := range f.Responses {
		if strings.Contains(strings.ToLower(query), strings.ToLower(sub)) {
			return resp, nil
		}
	}
	if f.Default != nil {
		return f.Default, nil
	}
	return nil, fmt.Errorf("no result for query %q", query)
}

// CallCount returns how many searches ran.
func (f *FakeSearcher) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Queries)
}

// FakeMacro is an in-memory MacroProvider.
type FakeMacro struct {
	Point *MacroPoint
	Err   error
}

// LookupSeries implements MacroProvider.
func (f *FakeMacro) LookupSeries(ctx context.Context, query string) (*MacroPoint, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Point == nil {
		return nil, fmt.Errorf("no series for %q", query)
	}
	return f.Point, nil
}

// FakeMarket is an in-memory MarketProvider.
type FakeMarket struct {
	Quote *MarketQuote
	Err   error
}

// Lookup implements MarketProvider.
func (f *FakeMarket) Lookup(ctx context.Context, ticker string) (*MarketQuote, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Quote == nil {
		return nil, fmt.Errorf("no quote for %q", ticker)
	}
	q := *f.Quote
	q.Ticker = ticker
	return &q, nil
}
