// Package score assigns heuristic quality scores to evidence items.
// These are the defaults an item carries when the generative evaluator
// fails, times out, or skips it; items the evaluator does reach get
// their score overwritten.
package score

import (
	"regexp"
	"strconv"
	"time"

	"github.com/provato/provato/internal/model"
)

// Component weights. Authority dominates because a filing snippet with
// no date still beats a fresh news blurb.
const (
	maxAuthority   = 40
	maxSpecificity = 30
	maxRecency     = 20
	maxCitation    = 10
)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)
var digitPattern = regexp.MustCompile(`\d`)

// Scorer computes default quality scores from evidence metadata alone.
// It never inspects stance; stance is the evaluator's job.
type Scorer struct {
	now func() time.Time
}

// NewScorer creates a scorer using the wall clock for recency.
func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// Default returns a 0-100 quality score for one evidence item.
func (s *Scorer) Default(item model.EvidenceItem) int {
	total := s.authority(item) + s.specificity(item) + s.recency(item) + s.citation(item)
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	return total
}

// Apply fills Quality on every item that does not have one yet.
func (s *Scorer) Apply(items []model.EvidenceItem) {
	for i := range items {
		if items[i].Quality == 0 {
			items[i].Quality = s.Default(items[i])
		}
	}
}

// authority maps the tier's reliability weight onto the point scale.
func (s *Scorer) authority(item model.EvidenceItem) int {
	return int(item.Tier.AuthorityWeight() * maxAuthority)
}

// specificity rewards snippets that commit to numbers. A structured
// ground-truth value is worth as much as the text itself.
func (s *Scorer) specificity(item model.EvidenceItem) int {
	pts := 0
	if digitPattern.MatchString(item.Snippet) {
		pts += maxSpecificity / 2
	}
	if item.GroundValue != nil {
		pts += maxSpecificity / 2
	}
	return pts
}

// recency scores 20 points for the current year, losing 5 per year of
// age. Undated items score the midpoint rather than zero: most
// transcript and market snippets simply do not carry a date.
func (s *Scorer) recency(item model.EvidenceItem) int {
	match := yearPattern.FindString(item.FilingDate)
	if match == "" {
		return maxRecency / 2
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return maxRecency / 2
	}
	age := s.now().Year() - year
	if age < 0 {
		age = 0
	}
	pts := maxRecency - age*5
	if pts < 0 {
		return 0
	}
	return pts
}

// citation rewards traceability: a URL the reader can follow, or at
// least a named source.
func (s *Scorer) citation(item model.EvidenceItem) int {
	if item.URL != "" {
		return maxCitation
	}
	if item.Source != "" {
		return maxCitation / 2
	}
	return 0
}
