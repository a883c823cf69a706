package evidence

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/provato/provato/internal/cache"
	"github.com/provato/provato/internal/model"
	"github.com/provato/provato/internal/sources"
	"github.com/provato/provato/internal/worker"
)

const filingCacheTTL = 24 * time.Hour

// Request identifies the claim being verified and its subject.
type Request struct {
	Claim     string
	Ticker    string
	Company   string
	SubClaims []model.SubClaim
}

// Orchestrator gathers evidence for decomposed sub-claims. Sub-claims fan
// out onto a bounded pool, and each sub-claim fans out again across the
// providers under its own limit.
type Orchestrator struct {
	providers sources.Set
	store     cache.Cache
	limiter   *worker.Limiter
	logger    *slog.Logger

	subClaimWorkers int
	sourceWorkers   int
	sourceTimeout   time.Duration

	searchMu sync.Mutex
	searched map[string]bool

	cacheHits      atomic.Int64
	sourceFailures atomic.Int64
}

// NewOrchestrator creates an orchestrator. Any provider in the set may be
// nil and simply contributes nothing.
func NewOrchestrator(providers sources.Set, store cache.Cache, cfg model.ConcurrencyConfig, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 4
	}
	if cfg.SourceTimeoutSeconds <= 0 {
		cfg.SourceTimeoutSeconds = 15
	}
	return &Orchestrator{
		providers:       providers,
		store:           store,
		limiter:         worker.NewLimiter(cfg.RequestsPerSecond, 5),
		logger:          logger,
		subClaimWorkers: cfg.SubClaimWorkers,
		sourceWorkers:   cfg.SourceWorkers,
		sourceTimeout:   time.Duration(cfg.SourceTimeoutSeconds) * time.Second,
		searched:        make(map[string]bool),
	}
}

type gatherJob struct {
	o   *Orchestrator
	req Request
	sc  model.SubClaim
	reg *registry
}

type gatherResult struct {
	subClaimID string
	err        error
}

func (r gatherResult) GetError() error { return r.err }

// Execute gathers all evidence for one sub-claim.
func (j gatherJob) Execute(ctx context.Context) worker.Result {
	err := j.o.gatherSubClaim(ctx, j.req, j.sc, j.reg)
	return gatherResult{subClaimID: j.sc.ID, err: err}
}

// Gather retrieves evidence for every sub-claim and returns the merged,
// deduplicated, authority-ordered pool. Source failures never fail the
// run; they only shrink it.
func (o *Orchestrator) Gather(ctx context.Context, req Request) ([]model.EvidenceItem, model.GatherStats, error) {
	reg := newRegistry()

	pool := worker.NewPool(o.subClaimWorkers)
	pool.Start()
	for _, sc := range req.SubClaims {
		pool.Submit(gatherJob{o: o, req: req, sc: sc, reg: reg})
	}
	for _, res := range pool.Wait() {
		if err := res.GetError(); err != nil {
			if ctx.Err() != nil {
				return nil, model.GatherStats{}, ctx.Err()
			}
			o.logger.Warn("sub-claim gathering incomplete", "error", err)
		}
	}

	items, dropped := reg.snapshot()
	sortEvidence(items)

	stats := model.GatherStats{
		PerTier:           make(map[model.SourceTier]int),
		DuplicatesDropped: dropped,
		CacheHits:         int(o.cacheHits.Load()),
		SourceFailures:    int(o.sourceFailures.Load()),
	}
	for _, item := range items {
		stats.PerTier[item.Tier]++
	}

	o.logger.Info("evidence gathered",
		"items", len(items),
		"duplicates_dropped", dropped,
		"cache_hits", stats.CacheHits,
		"source_failures", stats.SourceFailures)

	return items, stats, nil
}

// gatherSubClaim runs the per-source fan-out for one sub-claim, then the
// counter-evidence pass when the claim warrants one.
func (o *Orchestrator) gatherSubClaim(ctx context.Context, req Request, sc model.SubClaim, reg *registry) error {
	focus := Classify(sc)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.sourceWorkers)

	// registered counts dedup-surviving items from the main pass. Stance
	// is unassigned until evaluation, so the counter gate uses item count
	// as a proxy for support.
	var registered atomic.Int64
	collect := func(items []model.EvidenceItem) {
		for _, item := range items {
			item.SubClaimID = sc.ID
			if reg.add(item) {
				registered.Add(1)
			}
		}
	}

	// Filings only answer filed-metric and guidance claims; macro and
	// market sub-claims skip the filing store entirely.
	if focus == FocusFiledMetric || focus == FocusGuidance {
		g.Go(func() error { collect(o.fetchFilings(gctx, req, sc)); return nil })
	}
	g.Go(func() error { collect(o.fetchTranscripts(gctx, req, sc)); return nil })
	g.Go(func() error { collect(o.fetchNews(gctx, req, sc)); return nil })
	if focus == FocusMacro {
		g.Go(func() error { collect(o.fetchMacro(gctx, sc)); return nil })
	}
	if focus == FocusMarket && req.Ticker != "" {
		g.Go(func() error { collect(o.fetchMarket(gctx, req.Ticker)); return nil })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Counter-evidence runs after the main pass so its query can assume
	// the claim already has something going for it.
	if HighStakes(sc) || registered.Load() >= 2 {
		collect(o.fetchCounter(ctx, req, sc))
	}

	return ctx.Err()
}

// fetchFilings runs the structured metric lookup and the cached
// full-text filing search. Only filed-metric and guidance sub-claims
// reach here.
func (o *Orchestrator) fetchFilings(ctx context.Context, req Request, sc model.SubClaim) []model.EvidenceItem {
	if o.providers.Filings == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()

	var items []model.EvidenceItem

	if sc.Type.IsNumeric() {
		if item, ok := o.lookupStructuredMetric(ctx, req, sc); ok {
			items = append(items, item)
		}
	}

	hits, err := o.searchFilingsCached(ctx, sc.Text, req.Company, "10-K")
	if err != nil {
		o.sourceFailure("filings", err)
		return items
	}
	for _, hit := range hits {
		items = append(items, model.EvidenceItem{
			Snippet:    hit.Snippet,
			Tier:       model.TierFiling,
			Source:     strings.TrimSpace(hit.FilingType + " " + hit.Accession),
			FilingDate: hit.Date,
		})
	}
	return items
}

// lookupStructuredMetric asks the filing store for the reported value
// behind a quantitative sub-claim. The result carries a ground value the
// symbolic layer can bind to directly.
func (o *Orchestrator) lookupStructuredMetric(ctx context.Context, req Request, sc model.SubClaim) (model.EvidenceItem, bool) {
	metricKey := inferMetricKey(sc.Text)
	if metricKey == "" || req.Company == "" {
		return model.EvidenceItem{}, false
	}
	if err := o.limiter.Wait(ctx, "filing"); err != nil {
		return model.EvidenceItem{}, false
	}
	value, ok, err := o.providers.Filings.LookupMetric(ctx, req.Company, metricKey, inferPeriod(sc.Text))
	if err != nil {
		o.sourceFailure("filing_metric", err)
		return model.EvidenceItem{}, false
	}
	if !ok {
		return model.EvidenceItem{}, false
	}
	return model.EvidenceItem{
		Snippet:     fmt.Sprintf("Reported %s for %s: %g", metricKey, req.Company, value),
		Tier:        model.TierFiling,
		Source:      "structured filing data",
		GroundValue: &value,
	}, true
}

// searchFilingsCached wraps SearchFilings with the durable cache.
func (o *Orchestrator) searchFilingsCached(ctx context.Context, query, company, filingType string) ([]sources.FilingHit, error) {
	key := cache.Key("filing", company, query, filingType)
	if o.store != nil {
		if raw, ok := o.store.Get(key); ok {
			var hits []sources.FilingHit
			if err := json.Unmarshal(raw, &hits); err == nil {
				o.cacheHits.Add(1)
				return hits, nil
			}
		}
	}

	if err := o.limiter.Wait(ctx, "filing"); err != nil {
		return nil, err
	}
	hits, err := o.providers.Filings.SearchFilings(ctx, query, company, filingType)
	if err != nil {
		return nil, err
	}

	if o.store != nil {
		if raw, err := json.Marshal(hits); err == nil {
			_ = o.store.Set(key, raw, filingCacheTTL)
		}
	}
	return hits, nil
}

func (o *Orchestrator) fetchTranscripts(ctx context.Context, req Request, sc model.SubClaim) []model.EvidenceItem {
	query := sc.Text + " earnings call"
	return o.search(ctx, query, "transcript", model.TierTranscript)
}

func (o *Orchestrator) fetchNews(ctx context.Context, req Request, sc model.SubClaim) []model.EvidenceItem {
	query := sc.Text
	if req.Company != "" {
		query = req.Company + " " + query
	}
	return o.search(ctx, query, "news", model.TierPress)
}

func (o *Orchestrator) fetchCounter(ctx context.Context, req Request, sc model.SubClaim) []model.EvidenceItem {
	query := "evidence contradicting: " + sc.Text
	if req.Company != "" {
		query = req.Company + " " + query
	}
	return o.search(ctx, query, "counter", model.TierCounter)
}

// search runs one deduplicated, rate-limited search-provider query.
// Repeating the same query+focus within a run is a no-op.
func (o *Orchestrator) search(ctx context.Context, query, focus string, tier model.SourceTier) []model.EvidenceItem {
	if o.providers.Search == nil {
		return nil
	}

	dedupKey := query + "|" + focus
	o.searchMu.Lock()
	if o.searched[dedupKey] {
		o.searchMu.Unlock()
		return nil
	}
	o.searched[dedupKey] = true
	o.searchMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()
	if err := o.limiter.Wait(ctx, "search"); err != nil {
		return nil
	}

	result, err := o.providers.Search.Search(ctx, query, focus)
	if err != nil {
		o.sourceFailure("search:"+focus, err)
		return nil
	}
	if result == nil || strings.TrimSpace(result.Text) == "" {
		return nil
	}

	item := model.EvidenceItem{
		Snippet: result.Text,
		Tier:    tier,
		Source:  "search:" + focus,
	}
	if len(result.Citations) > 0 {
		item.URL = result.Citations[0]
	}
	return []model.EvidenceItem{item}
}

func (o *Orchestrator) fetchMacro(ctx context.Context, sc model.SubClaim) []model.EvidenceItem {
	if o.providers.Macro == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()
	if err := o.limiter.Wait(ctx, "macro"); err != nil {
		return nil
	}

	point, err := o.providers.Macro.LookupSeries(ctx, sc.Text)
	if err != nil {
		o.sourceFailure("macro", err)
		return nil
	}
	if point == nil {
		return nil
	}
	return []model.EvidenceItem{{
		Snippet:    fmt.Sprintf("%s: %g as of %s (%+.1f%% YoY)", point.SeriesID, point.LatestValue, point.LatestDate, point.YoYChange),
		Tier:       model.TierMacro,
		Source:     point.SeriesID,
		FilingDate: point.LatestDate,
	}}
}

func (o *Orchestrator) fetchMarket(ctx context.Context, ticker string) []model.EvidenceItem {
	if o.providers.Market == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, o.sourceTimeout)
	defer cancel()
	if err := o.limiter.Wait(ctx, "market"); err != nil {
		return nil
	}

	quote, err := o.providers.Market.Lookup(ctx, ticker)
	if err != nil {
		o.sourceFailure("market", err)
		return nil
	}
	if quote == nil {
		return nil
	}
	return []model.EvidenceItem{{
		Snippet: fmt.Sprintf("%s trades at %.2f on %s, 52-week range %.2f-%.2f, %+.1f%% over one year",
			quote.Ticker, quote.Price, quote.Exchange, quote.Low52W, quote.High52W, quote.YoYReturn),
		Tier:   model.TierMarket,
		Source: quote.Exchange + ":" + quote.Ticker,
	}}
}

// sourceFailure folds one provider error into "no evidence".
func (o *Orchestrator) sourceFailure(source string, err error) {
	o.sourceFailures.Add(1)
	o.logger.Warn("source fetch failed", "source", source, "error", err)
}

// sortEvidence orders the pool by tier authority, then freshest-looking
// filing dates first. Longer date strings carry more precision and sort
// ahead of bare years and empty dates.
func sortEvidence(items []model.EvidenceItem) {
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := items[i].Tier.Priority(), items[j].Tier.Priority()
		if pi != pj {
			return pi < pj
		}
		return len(items[i].FilingDate) > len(items[j].FilingDate)
	})
}

var (
	metricKeywords = []struct {
		pattern *regexp.Regexp
		key     string
	}{
		{regexp.MustCompile(`(?i)\brevenue|sales|top line\b`), "revenue"},
		{regexp.MustCompile(`(?i)\bnet income\b`), "net_income"},
		{regexp.MustCompile(`(?i)\bebitda\b`), "ebitda"},
		{regexp.MustCompile(`(?i)\beps|per share\b`), "eps"},
		{regexp.MustCompile(`(?i)\bfree cash flow|fcf\b`), "free_cash_flow"},
		{regexp.MustCompile(`(?i)\bgross profit\b`), "gross_profit"},
		{regexp.MustCompile(`(?i)\boperating income|operating profit\b`), "operating_income"},
	}

	periodPattern = regexp.MustCompile(`(?i)\b(?:FY\s?\d{4}|Q[1-4]\s+\d{4}|fiscal\s+(?:year\s+)?\d{4}|\d{4})\b`)
)

// inferMetricKey maps sub-claim wording to a structured filing metric key.
func inferMetricKey(text string) string {
	for _, mk := range metricKeywords {
		if mk.pattern.MatchString(text) {
			return mk.key
		}
	}
	return ""
}

// inferPeriod pulls the period label out of the sub-claim, if any.
func inferPeriod(text string) string {
	return strings.TrimSpace(periodPattern.FindString(text))
}
