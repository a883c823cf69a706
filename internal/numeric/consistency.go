package numeric

import (
	"fmt"
	"sort"
	"strings"

	"github.com/provato/provato/internal/model"
)

// Checker runs intra-document consistency checks over extracted facts.
type Checker struct {
	calc *Calc
}

// NewChecker creates a consistency checker with the given tolerances.
func NewChecker(tol model.ToleranceConfig) *Checker {
	return &Checker{calc: NewCalc(tol)}
}

// Check runs all intra-document checks and returns the issues found.
// Issues are analytic findings, not errors.
func (c *Checker) Check(facts []model.FinancialFact) []model.ConsistencyIssue {
	var issues []model.ConsistencyIssue
	issues = append(issues, c.duplicateMetricMismatches(facts)...)
	issues = append(issues, c.marginMathErrors(facts)...)
	issues = append(issues, c.multipleMathErrors(facts)...)
	issues = append(issues, c.growthRateErrors(facts)...)
	return issues
}

type factGroupKey struct {
	Category model.MetricCategory
	Period   string
	Entity   string
	Unit     model.Unit
}

// duplicateMetricMismatches flags pairs of facts in the same
// (category, period, entity, unit) group whose values differ at
// notable/significant level.
func (c *Checker) duplicateMetricMismatches(facts []model.FinancialFact) []model.ConsistencyIssue {
	groups := make(map[factGroupKey][]model.FinancialFact)
	for _, f := range facts {
		key := factGroupKey{f.Category, f.Period, f.Entity, f.Unit}
		groups[key] = append(groups[key], f)
	}

	var issues []model.ConsistencyIssue
	for key, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].Offset < group[j].Offset })
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				cmp := c.calc.CompareValues(group[i].NormalizedValue(), group[j].NormalizedValue())
				if cmp.Level != MatchNotable && cmp.Level != MatchSignificant {
					continue
				}
				issues = append(issues, model.ConsistencyIssue{
					Type:     model.IssueDuplicateMetricMismatch,
					Severity: severityForLevel(cmp.Level),
					FactIDs:  []string{group[i].ID, group[j].ID},
					Expected: group[i].NormalizedValue(),
					Actual:   group[j].NormalizedValue(),
					Description: fmt.Sprintf("%s reported twice for %s with values differing by %.1f%%",
						key.Category, describePeriod(key.Period), cmp.PctDiff),
				})
			}
		}
	}
	return issues
}

// marginMathErrors recomputes stated margins from matching revenue and
// profit facts in the same period and entity.
func (c *Checker) marginMathErrors(facts []model.FinancialFact) []model.ConsistencyIssue {
	var issues []model.ConsistencyIssue

	for _, margin := range facts {
		if margin.Category != model.CategoryMargin || margin.Unit != model.UnitPercent {
			continue
		}

		revenue, okR := findFact(facts, model.CategoryRevenue, margin.Period, margin.Entity)
		profit, okP := findFact(facts, model.CategoryProfit, margin.Period, margin.Entity)
		if !okR || !okP {
			continue
		}

		expected := Margin(profit.NormalizedValue(), revenue.NormalizedValue())
		cmp := c.calc.CompareValues(margin.Value, expected)
		if cmp.Level != MatchNotable && cmp.Level != MatchSignificant {
			continue
		}

		issues = append(issues, model.ConsistencyIssue{
			Type:     model.IssueMarginMath,
			Severity: severityForLevel(cmp.Level),
			FactIDs:  []string{margin.ID, profit.ID, revenue.ID},
			Expected: expected,
			Actual:   margin.Value,
			Description: fmt.Sprintf("stated margin %.1f%% but %s / %s implies %.1f%%",
				margin.Value, profit.Raw, revenue.Raw, expected),
		})
	}

	return issues
}

// multipleMathErrors recomputes valuation multiples, inferring the
// denominator metric from the multiple's own sentence.
func (c *Checker) multipleMathErrors(facts []model.FinancialFact) []model.ConsistencyIssue {
	var issues []model.ConsistencyIssue

	for _, mult := range facts {
		if mult.Unit != model.UnitMultiple {
			continue
		}

		denomCategory, ok := inferDenominator(mult.Sentence)
		if !ok {
			continue
		}

		value, okV := findFact(facts, model.CategoryValuation, mult.Period, mult.Entity)
		if !okV || value.Unit != model.UnitCurrency {
			continue
		}
		denom, okD := findFact(facts, denomCategory, mult.Period, mult.Entity)
		if !okD {
			continue
		}

		expected := Multiple(value.NormalizedValue(), denom.NormalizedValue())
		if expected == 0 {
			continue
		}
		cmp := c.calc.CompareValues(mult.Value, expected)
		if cmp.Level != MatchNotable && cmp.Level != MatchSignificant {
			continue
		}

		issues = append(issues, model.ConsistencyIssue{
			Type:     model.IssueMultipleMath,
			Severity: severityForLevel(cmp.Level),
			FactIDs:  []string{mult.ID, value.ID, denom.ID},
			Expected: expected,
			Actual:   mult.Value,
			Description: fmt.Sprintf("stated multiple %.1fx but %s / %s implies %.1fx",
				mult.Value, value.Raw, denom.Raw, expected),
		})
	}

	return issues
}

// growthRateErrors recomputes stated growth rates from the oldest and
// newest fact of the underlying category for the entity.
func (c *Checker) growthRateErrors(facts []model.FinancialFact) []model.ConsistencyIssue {
	var issues []model.ConsistencyIssue

	for _, growth := range facts {
		if growth.Category != model.CategoryGrowth || growth.Unit != model.UnitPercent {
			continue
		}

		baseCategory, ok := inferGrowthBase(growth.Sentence)
		if !ok {
			continue
		}

		oldest, newest, ok := oldestNewestPair(facts, baseCategory, growth.Entity)
		if !ok {
			continue
		}

		expected := GrowthRate(oldest.NormalizedValue(), newest.NormalizedValue())
		cmp := c.calc.CompareValues(growth.Value, expected)
		if cmp.Level != MatchNotable && cmp.Level != MatchSignificant {
			continue
		}

		issues = append(issues, model.ConsistencyIssue{
			Type:     model.IssueGrowthRate,
			Severity: severityForLevel(cmp.Level),
			FactIDs:  []string{growth.ID, oldest.ID, newest.ID},
			Expected: expected,
			Actual:   growth.Value,
			Description: fmt.Sprintf("stated growth %.1f%% but %s -> %s implies %.1f%%",
				growth.Value, oldest.Raw, newest.Raw, expected),
		})
	}

	return issues
}

// findFact returns the first fact matching category, period and entity.
func findFact(facts []model.FinancialFact, category model.MetricCategory, period, entity string) (model.FinancialFact, bool) {
	for _, f := range facts {
		if f.Category == category && f.Period == period && f.Entity == entity {
			return f, true
		}
	}
	return model.FinancialFact{}, false
}

// oldestNewestPair returns the facts with the smallest and largest period
// labels for a category and entity. Period labels of the form FY2023 /
// Q1 2024 sort correctly as strings once the year is extracted.
func oldestNewestPair(facts []model.FinancialFact, category model.MetricCategory, entity string) (oldest, newest model.FinancialFact, ok bool) {
	var candidates []model.FinancialFact
	for _, f := range facts {
		if f.Category == category && f.Entity == entity && f.Period != "" {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) < 2 {
		return model.FinancialFact{}, model.FinancialFact{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		return periodSortKey(candidates[i].Period) < periodSortKey(candidates[j].Period)
	})

	oldest, newest = candidates[0], candidates[len(candidates)-1]
	if oldest.Period == newest.Period {
		return model.FinancialFact{}, model.FinancialFact{}, false
	}
	return oldest, newest, true
}

// periodSortKey normalizes a period label for chronological ordering:
// the 4-digit year dominates, quarter breaks ties.
func periodSortKey(period string) string {
	year := ""
	quarter := "0"
	for i := 0; i+4 <= len(period); i++ {
		s := period[i : i+4]
		if (strings.HasPrefix(s, "19") || strings.HasPrefix(s, "20")) && isDigits(s) {
			year = s
			break
		}
	}
	if idx := strings.IndexAny(period, "Qq"); idx >= 0 && idx+1 < len(period) {
		if c := period[idx+1]; c >= '1' && c <= '4' {
			quarter = string(c)
		}
	}
	if year == "" {
		return period
	}
	return year + "-" + quarter
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// inferDenominator reads the metric dividing a valuation multiple out of
// its sentence.
func inferDenominator(sentence string) (model.MetricCategory, bool) {
	lower := strings.ToLower(sentence)
	switch {
	case strings.Contains(lower, "ebitda"):
		return model.CategoryProfit, true
	case strings.Contains(lower, "earnings"):
		return model.CategoryProfit, true
	case strings.Contains(lower, "revenue") || strings.Contains(lower, "sales"):
		return model.CategoryRevenue, true
	default:
		return "", false
	}
}

// inferGrowthBase reads which metric a growth figure describes.
func inferGrowthBase(sentence string) (model.MetricCategory, bool) {
	lower := strings.ToLower(sentence)
	switch {
	case strings.Contains(lower, "revenue") || strings.Contains(lower, "sales"):
		return model.CategoryRevenue, true
	case strings.Contains(lower, "ebitda") || strings.Contains(lower, "income") || strings.Contains(lower, "profit") || strings.Contains(lower, "earnings"):
		return model.CategoryProfit, true
	case strings.Contains(lower, "eps"):
		return model.CategoryEPS, true
	default:
		return "", false
	}
}

func severityForLevel(level MatchLevel) model.IssueSeverity {
	if level == MatchSignificant {
		return model.IssueSeverityHigh
	}
	return model.IssueSeverityMedium
}

func describePeriod(period string) string {
	if period == "" {
		return "the same period"
	}
	return period
}
