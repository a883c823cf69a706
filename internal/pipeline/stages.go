package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/provato/provato/internal/llm"
	"github.com/provato/provato/internal/model"
	"github.com/provato/provato/internal/symbolic"
)

// maxSubClaims caps decomposition so one rambling claim cannot flood the
// retrieval pools.
const maxSubClaims = 8

const decomposeSystem = `You decompose financial claims into atomic, independently verifiable sub-claims.
Respond with JSON only: {"subclaims":[{"text":"...","type":"directional|quantitative|provenance|categorical"}]}`

const evaluateSystem = `You assess evidence against a financial sub-claim.
For each evidence item decide its stance (support, oppose, neutral) and a quality score 0-100.
Respond with JSON only: {"assessments":[{"id":"ev-1","stance":"support","quality":80}]}`

const synthesizeSystem = `You are a financial fact-checker weighing evidence for a claim.
Respond with JSON only:
{"subclaim_verdicts":[{"subclaim_id":"sc-1","label":"supported|contradicted|inconclusive|unverifiable","confidence":0.8,"rationale":"..."}],
"verdict":"supported|contradicted|inconclusive|unverifiable","confidence":0.75,"summary":"..."}`

const correctSystem = `You rewrite financial claims replacing wrong figures with the verified ones.
Respond with the corrected claim text only, no commentary.`

var hasDigit = regexp.MustCompile(`\d`)

// decompose asks the model to break the claim apart. Unusable model
// output degrades to a single sub-claim covering the whole text.
func (p *Pipeline) decompose(ctx context.Context, claim string) []model.SubClaim {
	resp, err := p.provider.Complete(ctx, llm.Request{
		System:    decomposeSystem,
		Prompt:    claim,
		MaxTokens: p.cfg.LLM.MaxTokens,
	})
	if err != nil {
		p.logger.Warn("decomposition call failed", "error", err)
		return []model.SubClaim{fallbackSubClaim(claim)}
	}

	var parsed struct {
		SubClaims []struct {
			Text string `json:"text"`
			Type string `json:"type"`
		} `json:"subclaims"`
	}
	raw := llm.ExtractJSON(resp.Text)
	if raw == nil || json.Unmarshal(raw, &parsed) != nil || len(parsed.SubClaims) == 0 {
		p.logger.Warn("decomposition output unusable, keeping whole claim")
		return []model.SubClaim{fallbackSubClaim(claim)}
	}

	if len(parsed.SubClaims) > maxSubClaims {
		parsed.SubClaims = parsed.SubClaims[:maxSubClaims]
	}
	out := make([]model.SubClaim, 0, len(parsed.SubClaims))
	for i, sc := range parsed.SubClaims {
		text := strings.TrimSpace(sc.Text)
		if text == "" {
			continue
		}
		out = append(out, model.SubClaim{
			ID:   fmt.Sprintf("sc-%d", i+1),
			Text: text,
			Type: subClaimType(sc.Type, text),
		})
	}
	if len(out) == 0 {
		return []model.SubClaim{fallbackSubClaim(claim)}
	}
	return out
}

func fallbackSubClaim(claim string) model.SubClaim {
	return model.SubClaim{ID: "sc-1", Text: claim, Type: subClaimType("", claim)}
}

// subClaimType validates the model's label, falling back to a text
// heuristic: numbers mean quantitative, everything else categorical.
func subClaimType(label, text string) model.SubClaimType {
	switch model.SubClaimType(label) {
	case model.SubClaimDirectional, model.SubClaimQuantitative, model.SubClaimProvenance, model.SubClaimCategorical:
		return model.SubClaimType(label)
	}
	if hasDigit.MatchString(text) {
		return model.SubClaimQuantitative
	}
	return model.SubClaimCategorical
}

// evaluate assigns stance and quality to every evidence item, one model
// call per sub-claim. Items the model skips keep the heuristic defaults:
// unknown stance plus a metadata-derived quality score.
func (p *Pipeline) evaluate(ctx context.Context, subClaims []model.SubClaim, items []model.EvidenceItem) []model.EvidenceItem {
	for i := range items {
		if items[i].Stance == "" {
			items[i].Stance = model.StanceUnknown
		}
	}
	p.quality.Apply(items)

	byID := make(map[string]int, len(items))
	for i, item := range items {
		byID[item.ID] = i
	}

	for _, sc := range subClaims {
		var b strings.Builder
		var count int
		fmt.Fprintf(&b, "Sub-claim: %s\n\nEvidence:\n", sc.Text)
		for _, item := range items {
			if item.SubClaimID != sc.ID {
				continue
			}
			count++
			fmt.Fprintf(&b, "[%s] (%s) %s\n", item.ID, item.Tier, item.Snippet)
		}
		if count == 0 {
			continue
		}

		resp, err := p.provider.Complete(ctx, llm.Request{
			System:    evaluateSystem,
			Prompt:    b.String(),
			MaxTokens: p.cfg.LLM.MaxTokens,
		})
		if err != nil {
			p.logger.Warn("evaluation call failed", "subclaim", sc.ID, "error", err)
			continue
		}

		var parsed struct {
			Assessments []struct {
				ID      string `json:"id"`
				Stance  string `json:"stance"`
				Quality int    `json:"quality"`
			} `json:"assessments"`
		}
		raw := llm.ExtractJSON(resp.Text)
		if raw == nil || json.Unmarshal(raw, &parsed) != nil {
			p.logger.Warn("evaluation output unusable, keeping defaults", "subclaim", sc.ID)
			continue
		}

		for _, a := range parsed.Assessments {
			idx, ok := byID[a.ID]
			if !ok {
				continue
			}
			switch model.Stance(a.Stance) {
			case model.StanceSupport, model.StanceOppose, model.StanceNeutral:
				items[idx].Stance = model.Stance(a.Stance)
			}
			if a.Quality > 0 && a.Quality <= 100 {
				items[idx].Quality = a.Quality
			}
		}
	}
	return items
}

// synthesize produces the model's per-sub-claim verdicts and overall
// judgement. Unusable output degrades to the fixed inconclusive prior.
func (p *Pipeline) synthesize(ctx context.Context, claim string, subClaims []model.SubClaim, items []model.EvidenceItem, issues []model.ConsistencyIssue) ([]model.SubClaimVerdict, model.VerdictLabel, float64, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim: %s\n\nSub-claims:\n", claim)
	for _, sc := range subClaims {
		fmt.Fprintf(&b, "[%s] (%s) %s\n", sc.ID, sc.Type, sc.Text)
	}
	b.WriteString("\nEvidence:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "[%s -> %s] (%s, stance=%s, quality=%d) %s\n",
			item.ID, item.SubClaimID, item.Tier, item.Stance, item.Quality, item.Snippet)
	}
	if len(issues) > 0 {
		b.WriteString("\nNumerical inconsistencies detected:\n")
		for _, issue := range issues {
			fmt.Fprintf(&b, "- [%s/%s] %s\n", issue.Type, issue.Severity, issue.Description)
		}
	}

	resp, err := p.provider.Complete(ctx, llm.Request{
		System:    synthesizeSystem,
		Prompt:    b.String(),
		MaxTokens: p.cfg.LLM.MaxTokens,
	})
	if err != nil {
		p.logger.Warn("synthesis call failed", "error", err)
		return fallbackVerdicts(subClaims), model.VerdictInconclusive, 0.5, ""
	}

	var parsed struct {
		SubClaimVerdicts []struct {
			SubClaimID string  `json:"subclaim_id"`
			Label      string  `json:"label"`
			Confidence float64 `json:"confidence"`
			Rationale  string  `json:"rationale"`
		} `json:"subclaim_verdicts"`
		Verdict    string  `json:"verdict"`
		Confidence float64 `json:"confidence"`
		Summary    string  `json:"summary"`
	}
	raw := llm.ExtractJSON(resp.Text)
	if raw == nil || json.Unmarshal(raw, &parsed) != nil {
		p.logger.Warn("synthesis output unusable, applying fixed prior")
		return fallbackVerdicts(subClaims), model.VerdictInconclusive, 0.5, ""
	}

	known := make(map[string]bool, len(subClaims))
	for _, sc := range subClaims {
		known[sc.ID] = true
	}
	var verdicts []model.SubClaimVerdict
	for _, v := range parsed.SubClaimVerdicts {
		if !known[v.SubClaimID] {
			continue
		}
		verdicts = append(verdicts, model.SubClaimVerdict{
			SubClaimID: v.SubClaimID,
			Label:      verdictLabel(v.Label),
			Confidence: clampConfidence(v.Confidence),
			Rationale:  v.Rationale,
		})
	}
	if len(verdicts) == 0 {
		verdicts = fallbackVerdicts(subClaims)
	}

	return verdicts, verdictLabel(parsed.Verdict), clampConfidence(parsed.Confidence), strings.TrimSpace(parsed.Summary)
}

// fallbackVerdicts applies the fixed prior to every sub-claim.
func fallbackVerdicts(subClaims []model.SubClaim) []model.SubClaimVerdict {
	out := make([]model.SubClaimVerdict, len(subClaims))
	for i, sc := range subClaims {
		out[i] = model.SubClaimVerdict{
			SubClaimID: sc.ID,
			Label:      model.VerdictInconclusive,
			Confidence: 0.5,
			Fallback:   true,
		}
	}
	return out
}

func verdictLabel(label string) model.VerdictLabel {
	switch model.VerdictLabel(label) {
	case model.VerdictSupported, model.VerdictContradicted, model.VerdictUnverifiable:
		return model.VerdictLabel(label)
	default:
		return model.VerdictInconclusive
	}
}

func clampConfidence(c float64) float64 {
	if c <= 0 {
		return 0.5
	}
	if c > 1 {
		return 1
	}
	return c
}

// correct rewrites the claim with grounded values when the symbolic pass
// found material numeric divergence. The model does the prose; if it
// cannot, a mechanical listing stands in.
func (p *Pipeline) correct(ctx context.Context, claim string, sym *model.SymbolicResult) string {
	corrections := groundedCorrections(sym)
	if len(corrections) == 0 {
		return ""
	}

	prompt := fmt.Sprintf("Claim: %s\n\nVerified figures:\n%s", claim, strings.Join(corrections, "\n"))
	resp, err := p.provider.Complete(ctx, llm.Request{
		System:    correctSystem,
		Prompt:    prompt,
		MaxTokens: p.cfg.LLM.MaxTokens,
	})
	if err == nil {
		if text := strings.TrimSpace(resp.Text); text != "" && !strings.ContainsAny(text, "{}") {
			return text
		}
	} else {
		p.logger.Warn("correction call failed", "error", err)
	}
	return claim + " [verified: " + strings.Join(corrections, "; ") + "]"
}

// groundedCorrections lists the claimed-vs-grounded pairs behind every
// mismatch firing.
func groundedCorrections(sym *model.SymbolicResult) []string {
	mismatched := make(map[string]bool)
	for _, f := range sym.Firings {
		if f.Rule != symbolic.RuleNumericMismatch && f.Rule != symbolic.RuleGrowthMismatch {
			continue
		}
		for _, id := range f.InputIDs {
			mismatched[id] = true
		}
	}

	var out []string
	for _, pred := range sym.Predicates {
		if !mismatched[pred.ID] || pred.ClaimedValue == nil || pred.GroundValue == nil {
			continue
		}
		metric := pred.Args["metric"]
		if pred.Type == model.PredicateGrowth {
			out = append(out, fmt.Sprintf("%s growth is %.1f%%, not %.1f%%", metric, *pred.GroundValue, *pred.ClaimedValue))
			continue
		}
		out = append(out, fmt.Sprintf("%s is %.4g, not %.4g", metric, *pred.GroundValue, *pred.ClaimedValue))
	}
	return out
}
