package numeric

import (
	"github.com/provato/provato/internal/model"
)

// EdgeKind labels how a base fact feeds a derived fact.
type EdgeKind string

const (
	EdgeMarginOf      EdgeKind = "margin_of"      // profit -> margin (numerator)
	EdgeMultipliedBy  EdgeKind = "multiplied_by"  // value -> multiple (numerator)
	EdgeDenominatorOf EdgeKind = "denominator_of" // revenue/EBITDA -> margin or multiple
	EdgeGrowthFrom    EdgeKind = "growth_from"    // endpoint -> growth figure
)

// Edge is one directed dependency from a base fact to a derived fact.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
	Role string   `json:"role,omitempty"` // "old" / "new" for growth endpoints
}

// derivation records how one derived fact is computed from its parents.
type derivation struct {
	derivedID string
	kind      model.MetricCategory
	parents   map[string]string // role -> fact id
}

// Graph is the fact dependency graph for one document.
type Graph struct {
	facts       map[string]model.FinancialFact
	Edges       []Edge
	derivations map[string]derivation // derived fact id -> recipe
	downstream  map[string][]string   // base fact id -> derived fact ids
}

// Impact is one recomputed downstream value after a correction.
type Impact struct {
	FactID   string  `json:"fact_id"`
	OldValue float64 `json:"old_value"`
	NewValue float64 `json:"new_value"`
}

// BuildDependencyGraph connects base facts to the margin, multiple and
// growth facts derived from them, reusing the same matching logic the
// consistency checker applies.
func BuildDependencyGraph(facts []model.FinancialFact) *Graph {
	g := &Graph{
		facts:       make(map[string]model.FinancialFact, len(facts)),
		derivations: make(map[string]derivation),
		downstream:  make(map[string][]string),
	}
	for _, f := range facts {
		g.facts[f.ID] = f
	}

	for _, f := range facts {
		switch {
		case f.Category == model.CategoryMargin && f.Unit == model.UnitPercent:
			revenue, okR := findFact(facts, model.CategoryRevenue, f.Period, f.Entity)
			profit, okP := findFact(facts, model.CategoryProfit, f.Period, f.Entity)
			if okR && okP {
				g.addEdge(Edge{From: profit.ID, To: f.ID, Kind: EdgeMarginOf})
				g.addEdge(Edge{From: revenue.ID, To: f.ID, Kind: EdgeDenominatorOf})
				g.derivations[f.ID] = derivation{
					derivedID: f.ID,
					kind:      model.CategoryMargin,
					parents:   map[string]string{"numerator": profit.ID, "denominator": revenue.ID},
				}
			}

		case f.Unit == model.UnitMultiple:
			denomCategory, ok := inferDenominator(f.Sentence)
			if !ok {
				continue
			}
			value, okV := findFact(facts, model.CategoryValuation, f.Period, f.Entity)
			denom, okD := findFact(facts, denomCategory, f.Period, f.Entity)
			if okV && okD && value.Unit == model.UnitCurrency {
				g.addEdge(Edge{From: value.ID, To: f.ID, Kind: EdgeMultipliedBy})
				g.addEdge(Edge{From: denom.ID, To: f.ID, Kind: EdgeDenominatorOf})
				g.derivations[f.ID] = derivation{
					derivedID: f.ID,
					kind:      model.CategoryValuation,
					parents:   map[string]string{"numerator": value.ID, "denominator": denom.ID},
				}
			}

		case f.Category == model.CategoryGrowth && f.Unit == model.UnitPercent:
			baseCategory, ok := inferGrowthBase(f.Sentence)
			if !ok {
				continue
			}
			oldest, newest, ok := oldestNewestPair(facts, baseCategory, f.Entity)
			if !ok {
				continue
			}
			g.addEdge(Edge{From: oldest.ID, To: f.ID, Kind: EdgeGrowthFrom, Role: "old"})
			g.addEdge(Edge{From: newest.ID, To: f.ID, Kind: EdgeGrowthFrom, Role: "new"})
			g.derivations[f.ID] = derivation{
				derivedID: f.ID,
				kind:      model.CategoryGrowth,
				parents:   map[string]string{"old": oldest.ID, "new": newest.ID},
			}
		}
	}

	return g
}

func (g *Graph) addEdge(e Edge) {
	g.Edges = append(g.Edges, e)
	g.downstream[e.From] = append(g.downstream[e.From], e.To)
}

// TraceDownstreamImpact applies a correction factor to one erroneous fact
// and recomputes every transitively dependent fact breadth-first. The
// returned impacts include the corrected fact itself.
func (g *Graph) TraceDownstreamImpact(factID string, correctionFactor float64) []Impact {
	base, ok := g.facts[factID]
	if !ok {
		return nil
	}

	// corrected holds the effective value of every touched fact.
	corrected := map[string]float64{factID: base.Value * correctionFactor}
	impacts := []Impact{{FactID: factID, OldValue: base.Value, NewValue: base.Value * correctionFactor}}

	visited := map[string]bool{factID: true}
	queue := []string{factID}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, derivedID := range g.downstream[id] {
			if visited[derivedID] {
				continue
			}
			visited[derivedID] = true

			d, ok := g.derivations[derivedID]
			if !ok {
				continue
			}
			derived := g.facts[derivedID]
			newValue, ok := g.recompute(d, corrected)
			if !ok {
				continue
			}

			corrected[derivedID] = newValue
			impacts = append(impacts, Impact{
				FactID:   derivedID,
				OldValue: derived.Value,
				NewValue: newValue,
			})
			queue = append(queue, derivedID)
		}
	}

	return impacts
}

// recompute re-derives a fact's value using corrected parent values where
// available and original values otherwise.
func (g *Graph) recompute(d derivation, corrected map[string]float64) (float64, bool) {
	valueOf := func(role string) (float64, float64, bool) {
		id, ok := d.parents[role]
		if !ok {
			return 0, 0, false
		}
		f, ok := g.facts[id]
		if !ok {
			return 0, 0, false
		}
		raw := f.Value
		if v, found := corrected[id]; found {
			raw = v
		}
		// Scale applies the same way the original value was normalized.
		norm := raw
		switch f.Unit {
		case model.UnitPercent, model.UnitRatio, model.UnitMultiple, model.UnitBasisPoints:
		default:
			norm = raw * f.Scale.Multiplier()
		}
		return raw, norm, true
	}

	switch d.kind {
	case model.CategoryMargin:
		_, num, okN := valueOf("numerator")
		_, den, okD := valueOf("denominator")
		if !okN || !okD || den == 0 {
			return 0, false
		}
		return Margin(num, den), true

	case model.CategoryValuation:
		_, num, okN := valueOf("numerator")
		_, den, okD := valueOf("denominator")
		if !okN || !okD || den == 0 {
			return 0, false
		}
		return Multiple(num, den), true

	case model.CategoryGrowth:
		_, old, okO := valueOf("old")
		_, new_, okN := valueOf("new")
		if !okO || !okN || old == 0 {
			return 0, false
		}
		return GrowthRate(old, new_), true
	}

	return 0, false
}
