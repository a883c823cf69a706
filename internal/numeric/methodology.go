package numeric

import (
	"fmt"

	"github.com/provato/provato/internal/model"
)

type methodologyKey struct {
	Category model.MetricCategory
	Unit     model.Unit
}

// DetectMethodologyInconsistencies flags comparison groups that mix
// reporting methodologies: LTM against NTM, annual against quarterly, or
// GAAP against non-GAAP. Comparing across methodologies silently is a
// classic way claims go wrong, so every mix is high severity.
func DetectMethodologyInconsistencies(facts []model.FinancialFact) []model.ConsistencyIssue {
	groups := make(map[methodologyKey][]model.FinancialFact)
	for _, f := range facts {
		key := methodologyKey{f.Category, f.Unit}
		groups[key] = append(groups[key], f)
	}

	var issues []model.ConsistencyIssue
	for key, group := range groups {
		if len(group) < 2 {
			continue
		}

		if mixed, a, b := mixedPeriodTypes(group); mixed {
			issues = append(issues, model.ConsistencyIssue{
				Type:     model.IssueMixedPeriodTypes,
				Severity: model.IssueSeverityHigh,
				FactIDs:  factIDs(group),
				Description: fmt.Sprintf("%s facts mix %s and %s period conventions",
					key.Category, a, b),
			})
		}

		if mixed, a, b := mixedBases(group); mixed {
			issues = append(issues, model.ConsistencyIssue{
				Type:     model.IssueMixedAccountingBasis,
				Severity: model.IssueSeverityHigh,
				FactIDs:  factIDs(group),
				Description: fmt.Sprintf("%s facts mix %s and %s accounting bases",
					key.Category, a, b),
			})
		}
	}

	return issues
}

// conflictingPeriodPairs lists the period-type combinations that make a
// comparison group methodologically unsound.
var conflictingPeriodPairs = [][2]model.PeriodType{
	{model.PeriodLTM, model.PeriodNTM},
	{model.PeriodAnnual, model.PeriodQuarterly},
	{model.PeriodLTM, model.PeriodQuarterly},
	{model.PeriodNTM, model.PeriodAnnual},
}

func mixedPeriodTypes(group []model.FinancialFact) (bool, model.PeriodType, model.PeriodType) {
	present := make(map[model.PeriodType]bool)
	for _, f := range group {
		present[f.PeriodType] = true
	}
	for _, pair := range conflictingPeriodPairs {
		if present[pair[0]] && present[pair[1]] {
			return true, pair[0], pair[1]
		}
	}
	return false, "", ""
}

func mixedBases(group []model.FinancialFact) (bool, model.AccountingBasis, model.AccountingBasis) {
	present := make(map[model.AccountingBasis]bool)
	for _, f := range group {
		present[f.Basis] = true
	}
	switch {
	case present[model.BasisGAAP] && present[model.BasisNonGAAP]:
		return true, model.BasisGAAP, model.BasisNonGAAP
	case present[model.BasisGAAP] && present[model.BasisProForma]:
		return true, model.BasisGAAP, model.BasisProForma
	case present[model.BasisIFRS] && present[model.BasisGAAP]:
		return true, model.BasisIFRS, model.BasisGAAP
	}
	return false, "", ""
}

func factIDs(facts []model.FinancialFact) []string {
	ids := make([]string, len(facts))
	for i, f := range facts {
		ids[i] = f.ID
	}
	return ids
}
