// Package symbolic is the deterministic reasoning layer. It turns
// sub-claims into formal predicates, grounds them against evidence, fires
// a fixed catalogue of inference rules, assembles a proof tree, and
// decides whether its own confidence justifies overriding the generative
// model's verdict. No generative calls happen anywhere in this package.
package symbolic

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/provato/provato/internal/model"
	"github.com/provato/provato/internal/numeric"
)

var (
	growthWords   = regexp.MustCompile(`(?i)\b(grew|growth|increased?|declined?|rose|fell|expanded|contracted|year-over-year|yoy|cagr)\b`)
	futureWords   = regexp.MustCompile(`(?i)\b(will|expects?|guidance|outlook|forecast|projected|next (?:year|quarter)|going forward)\b`)
	sourceWords   = regexp.MustCompile(`(?i)\b(according to|per the|reported in|disclosed in|10-k|10-q|8-k|filing|annual report|press release|transcript)\b`)
	causalWords   = regexp.MustCompile(`(?i)\b(driven by|due to|because of|as a result of|attributable to|led by)\b`)
	futurePeriods = regexp.MustCompile(`(?i)\b(?:FY\s?20(2[6-9]|[3-9]\d)|20(2[6-9]|[3-9]\d) guidance)\b`)
)

// Parser extracts typed predicates from sub-claim text, enriched by the
// facts the numerical engine already pulled out of the same text.
type Parser struct {
	extractor *numeric.Extractor
	nextID    int
}

// NewParser creates a predicate parser.
func NewParser() *Parser {
	return &Parser{extractor: numeric.NewExtractor(), nextID: 1}
}

// Parse extracts the predicates for one sub-claim.
func (p *Parser) Parse(sc model.SubClaim) []model.Predicate {
	var preds []model.Predicate

	facts := p.extractor.Extract(sc.Text)
	for _, fact := range facts {
		preds = append(preds, p.fromFact(sc, fact))
	}

	if futureWords.MatchString(sc.Text) || futurePeriods.MatchString(sc.Text) {
		preds = append(preds, p.newPredicate(sc, model.PredicateTemporal, map[string]string{
			"future": "true",
		}, nil))
	}

	if m := sourceWords.FindString(sc.Text); m != "" {
		preds = append(preds, p.newPredicate(sc, model.PredicateSource, map[string]string{
			"source": strings.ToLower(m),
		}, nil))
	}

	if m := causalWords.FindString(sc.Text); m != "" {
		preds = append(preds, p.newPredicate(sc, model.PredicateCausal, map[string]string{
			"connective": strings.ToLower(m),
		}, nil))
	}

	// Every sub-claim yields at least one predicate so the proof tree
	// always has something to argue about.
	if len(preds) == 0 {
		preds = append(preds, p.newPredicate(sc, model.PredicateExistence, map[string]string{
			"subject": firstWords(sc.Text, 8),
		}, nil))
	}

	return preds
}

// fromFact converts one extracted fact into a metric or growth predicate.
func (p *Parser) fromFact(sc model.SubClaim, fact model.FinancialFact) model.Predicate {
	if fact.Unit == model.UnitPercent && growthWords.MatchString(fact.Sentence) {
		value := fact.Value
		return p.newPredicate(sc, model.PredicateGrowth, map[string]string{
			"metric": string(growthBase(fact.Sentence)),
			"period": fact.Period,
		}, &value)
	}

	// A currency amount tagged as growth is a proximity artifact of
	// phrases like "grew 25% YoY to $120 million".
	category := fact.Category
	if fact.Unit == model.UnitCurrency && category == model.CategoryGrowth {
		category = growthBase(fact.Sentence)
	}

	value := fact.NormalizedValue()
	return p.newPredicate(sc, model.PredicateMetric, map[string]string{
		"metric": string(category),
		"period": fact.Period,
		"unit":   string(fact.Unit),
	}, &value)
}

func (p *Parser) newPredicate(sc model.SubClaim, typ model.PredicateType, args map[string]string, claimed *float64) model.Predicate {
	pred := model.Predicate{
		ID:           fmt.Sprintf("p-%d", p.nextID),
		Type:         typ,
		SubClaimID:   sc.ID,
		Args:         args,
		ClaimedValue: claimed,
	}
	p.nextID++
	return pred
}

// growthBase guesses which metric a growth percentage describes.
func growthBase(sentence string) model.MetricCategory {
	lower := strings.ToLower(sentence)
	switch {
	case strings.Contains(lower, "revenue") || strings.Contains(lower, "sales"):
		return model.CategoryRevenue
	case strings.Contains(lower, "profit") || strings.Contains(lower, "income") || strings.Contains(lower, "ebitda") || strings.Contains(lower, "earnings"):
		return model.CategoryProfit
	case strings.Contains(lower, "eps"):
		return model.CategoryEPS
	default:
		return model.CategoryRevenue
	}
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
