// Package numeric is the deterministic numerical-grounding engine. It
// extracts financial facts from text, checks arithmetic and methodological
// consistency, and analyzes multi-period series. Nothing in this package
// calls a generative model or the network; given the same text it always
// produces the same facts.
package numeric

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/provato/provato/internal/model"
)

// masterNumber matches currency / percentage / multiple / count tokens:
// an optional currency marker, the number itself, an optional adjacent
// scale word, and an optional unit suffix.
var masterNumber = regexp.MustCompile(
	`(?i)(US\$|[$€£])?\s?(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+\.\d+|\d+)` +
		`(?:\s?(million|billion|trillion|thousand|mn|bn|tn))?` +
		`\s?(%|percentage points|percent|bps|basis points|x\b)?`)

var (
	fiscalLabelBefore = regexp.MustCompile(`(?i)(?:FY|Q[1-4]\s?|Q|fiscal\s+(?:year\s+)?|calendar\s+)$`)
	yearLike          = regexp.MustCompile(`^(19|20)\d{2}$`)
	fragmentAfter     = regexp.MustCompile(`^[-/][A-Za-z0-9]`)
	companyPattern    = regexp.MustCompile(`([A-Z][A-Za-z&.]+(?:\s[A-Z][A-Za-z&.]+)*)(?:'s)?\s+(?:Inc|Corp|Corporation|Ltd|PLC|Company|Co)\b`)
)

// categoryKeywords maps each metric category to the keywords that signal
// it. Kept as data, not control flow, so classification stays testable.
var categoryKeywords = map[model.MetricCategory][]string{
	model.CategoryRevenue:   {"revenue", "revenues", "sales", "top line", "turnover"},
	model.CategoryProfit:    {"net income", "gross profit", "operating income", "operating profit", "ebitda", "profit", "earnings"},
	model.CategoryMargin:    {"margin"},
	model.CategoryGrowth:    {"growth", "grew", "increase", "increased", "decline", "declined", "cagr", "year-over-year", "yoy"},
	model.CategoryValuation: {"valuation", "enterprise value", "market cap", "multiple", "p/e", "ev/ebitda"},
	model.CategoryCashFlow:  {"free cash flow", "cash flow", "fcf"},
	model.CategoryDebt:      {"debt", "leverage", "borrowings", "notes outstanding"},
	model.CategoryEPS:       {"eps", "per share", "per diluted share"},
	model.CategoryGuidance:  {"guidance", "outlook", "expects", "forecast", "projected"},
}

// scaleWords maps scale spellings to the canonical scale.
var scaleWords = map[string]model.Scale{
	"thousand": model.ScaleThousand,
	"million":  model.ScaleMillion, "mn": model.ScaleMillion,
	"billion": model.ScaleBillion, "bn": model.ScaleBillion,
	"trillion": model.ScaleTrillion, "tn": model.ScaleTrillion,
}

// contextWindow is the span, in bytes either side of a match, consulted
// for period type and accounting basis.
const contextWindow = 150

// Extractor scans documents for financial facts.
type Extractor struct {
	nextID int
}

// NewExtractor creates a fact extractor.
func NewExtractor() *Extractor {
	return &Extractor{nextID: 1}
}

// Extract scans text and returns every financial fact it can classify.
func (e *Extractor) Extract(text string) []model.FinancialFact {
	var facts []model.FinancialFact

	matches := masterNumber.FindAllStringSubmatchIndex(text, -1)
	for _, m := range matches {
		fact, ok := e.factFromMatch(text, m)
		if !ok {
			continue
		}
		fact.ID = fmt.Sprintf("f-%d", e.nextID)
		e.nextID++
		facts = append(facts, fact)
	}

	return facts
}

// factFromMatch classifies one regex match, returning ok=false when the
// match is noise (fiscal labels, fragments, bare small integers).
func (e *Extractor) factFromMatch(text string, m []int) (model.FinancialFact, bool) {
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return text[m[2*i]:m[2*i+1]]
	}

	start, end := m[0], m[1]
	currency := group(1)
	numText := group(2)
	scaleWord := strings.ToLower(group(3))
	unitSuffix := strings.ToLower(strings.TrimSpace(group(4)))

	value, err := strconv.ParseFloat(strings.ReplaceAll(numText, ",", ""), 64)
	if err != nil {
		return model.FinancialFact{}, false
	}

	// Digit-sequence fragments: "10-K", "S-1", accession numbers.
	if fragmentAfter.MatchString(text[end:]) {
		return model.FinancialFact{}, false
	}

	// Fiscal-year and quarter labels are not financial quantities.
	numStart := m[4]
	if currency == "" && unitSuffix == "" && scaleWord == "" {
		before := text[:numStart]
		if fiscalLabelBefore.MatchString(before) {
			return model.FinancialFact{}, false
		}
		if yearLike.MatchString(numText) {
			return model.FinancialFact{}, false
		}
	}

	sentence, sentStart := sentenceAround(text, start)
	category := classifyCategory(sentence, start-sentStart)

	// Small bare integers with no financial signal are noise ("the 3
	// analysts", "page 12").
	if currency == "" && unitSuffix == "" && scaleWord == "" &&
		value == float64(int64(value)) && value < 1000 && category == model.CategoryOther {
		return model.FinancialFact{}, false
	}

	unit := classifyUnit(currency, unitSuffix, sentence)

	// Scale attaches only when an adjacent scale word follows a
	// currency-marked number; bare numbers never inherit scale.
	scale := model.ScaleNone
	if currency != "" {
		if s, ok := scaleWords[scaleWord]; ok {
			scale = s
		}
	}

	window := contextAround(text, start, end)

	return model.FinancialFact{
		Raw:        strings.TrimSpace(text[start:end]),
		Value:      value,
		Unit:       unit,
		Scale:      scale,
		Category:   category,
		Period:     periodLabel(window),
		PeriodType: classifyPeriod(window),
		Basis:      classifyBasis(window),
		Entity:     detectEntity(sentence),
		Offset:     start,
		Sentence:   sentence,
	}, true
}

// classifyUnit decides what kind of quantity the match expresses.
func classifyUnit(currency, suffix, sentence string) model.Unit {
	switch suffix {
	case "%", "percent", "percentage points":
		return model.UnitPercent
	case "bps", "basis points":
		return model.UnitBasisPoints
	case "x":
		return model.UnitMultiple
	}
	if currency != "" {
		return model.UnitCurrency
	}
	if strings.Contains(strings.ToLower(sentence), "ratio") {
		return model.UnitRatio
	}
	return model.UnitCount
}

// classifyCategory picks the category whose keyword sits nearest the
// number within its sentence. Nearest wins, not first-in-document.
func classifyCategory(sentence string, numPos int) model.MetricCategory {
	lower := strings.ToLower(sentence)

	best := model.CategoryOther
	bestDist := -1

	for category, keywords := range categoryKeywords {
		for _, kw := range keywords {
			idx := 0
			for {
				found := strings.Index(lower[idx:], kw)
				if found < 0 {
					break
				}
				pos := idx + found
				dist := pos - numPos
				if dist < 0 {
					dist = -dist
				}
				if bestDist < 0 || dist < bestDist {
					bestDist = dist
					best = category
				}
				idx = pos + len(kw)
			}
		}
	}

	return best
}

var (
	ltmPattern     = regexp.MustCompile(`(?i)\b(ltm|trailing twelve|trailing-twelve|last twelve months)\b`)
	ntmPattern     = regexp.MustCompile(`(?i)\b(ntm|next twelve months|forward)\b`)
	ytdPattern     = regexp.MustCompile(`(?i)\b(ytd|year.to.date)\b`)
	quarterPattern = regexp.MustCompile(`(?i)\b(q[1-4]|quarter|quarterly|three months)\b`)
	annualPattern  = regexp.MustCompile(`(?i)\b(fy\s?\d{2,4}|fiscal year|full year|annual|annually|twelve months ended|year ended)\b`)
	pointPattern   = regexp.MustCompile(`(?i)\b(as of|at period end|balance at)\b`)
	periodLabelRe  = regexp.MustCompile(`(?i)\b(FY\s?\d{2,4}|Q[1-4]\s?(?:FY)?\s?\d{2,4}|\d{4})\b`)
)

// classifyPeriod infers the reporting-period type from a context window.
// LTM/NTM/YTD markers outrank the generic quarter/annual words.
func classifyPeriod(window string) model.PeriodType {
	switch {
	case ltmPattern.MatchString(window):
		return model.PeriodLTM
	case ntmPattern.MatchString(window):
		return model.PeriodNTM
	case ytdPattern.MatchString(window):
		return model.PeriodYTD
	case quarterPattern.MatchString(window):
		return model.PeriodQuarterly
	case annualPattern.MatchString(window):
		return model.PeriodAnnual
	case pointPattern.MatchString(window):
		return model.PeriodPointInTime
	default:
		return model.PeriodUnknown
	}
}

// periodLabel captures the period as written, e.g. "FY2024" or "Q3 2025".
func periodLabel(window string) string {
	if m := periodLabelRe.FindString(window); m != "" {
		return strings.TrimSpace(m)
	}
	return ""
}

var (
	nonGAAPPattern  = regexp.MustCompile(`(?i)\b(non-gaap|non gaap|adjusted)\b`)
	gaapPattern     = regexp.MustCompile(`(?i)\bgaap\b`)
	ifrsPattern     = regexp.MustCompile(`(?i)\bifrs\b`)
	proFormaPattern = regexp.MustCompile(`(?i)\bpro[- ]forma\b`)
)

// classifyBasis infers the accounting basis. The non-GAAP check runs
// first because "non-GAAP" contains "GAAP".
func classifyBasis(window string) model.AccountingBasis {
	switch {
	case nonGAAPPattern.MatchString(window):
		return model.BasisNonGAAP
	case proFormaPattern.MatchString(window):
		return model.BasisProForma
	case ifrsPattern.MatchString(window):
		return model.BasisIFRS
	case gaapPattern.MatchString(window):
		return model.BasisGAAP
	default:
		return model.BasisUnknown
	}
}

// detectEntity finds a company-style name in the sentence, if any.
func detectEntity(sentence string) string {
	if m := companyPattern.FindStringSubmatch(sentence); m != nil {
		return m[1]
	}
	return ""
}

// sentenceAround returns the sentence containing offset and its start
// position in the document.
func sentenceAround(text string, offset int) (string, int) {
	start := 0
	for i := offset - 1; i >= 0; i-- {
		c := text[i]
		if c == '.' || c == '!' || c == '?' || c == '\n' {
			start = i + 1
			break
		}
	}

	end := len(text)
	for i := offset; i < len(text); i++ {
		c := text[i]
		if c == '!' || c == '?' || c == '\n' {
			end = i
			break
		}
		// A period only terminates the sentence when followed by
		// whitespace or EOF; "$1.5" must not split.
		if c == '.' && (i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\t') {
			end = i
			break
		}
	}

	for start < end && (text[start] == ' ' || text[start] == '\t') {
		start++
	}

	return text[start:end], start
}

// contextAround returns the +-contextWindow span around a match.
func contextAround(text string, start, end int) string {
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + contextWindow
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}
