package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/provato/provato/internal/model"
)

// RenderJSON serializes the report for machine consumers.
func RenderJSON(report *model.Report) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// RenderMarkdown renders the human-readable report.
func RenderMarkdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Verification Report\n\n")
	fmt.Fprintf(&b, "**Claim:** %s\n\n", report.Claim)
	fmt.Fprintf(&b, "**Verdict:** %s (confidence %.0f/100)\n\n", report.Verdict, report.Confidence)
	if report.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", report.Summary)
	}

	if sym := report.Symbolic; sym != nil && sym.Override.Applied {
		fmt.Fprintf(&b, "> Verdict overridden by symbolic analysis: %s -> %s. %s\n\n",
			sym.Override.From, sym.Override.To, sym.Override.Reason)
	} else if sym != nil && sym.Override.CautionFlag {
		fmt.Fprintf(&b, "> Caution: %s\n\n", sym.Override.Reason)
	}

	if len(report.SubClaims) > 0 {
		b.WriteString("## Sub-claims\n\n")
		verdictByID := make(map[string]model.SubClaimVerdict)
		for _, v := range report.SubClaimVerdicts {
			verdictByID[v.SubClaimID] = v
		}
		for _, sc := range report.SubClaims {
			v := verdictByID[sc.ID]
			fmt.Fprintf(&b, "- **%s** [%s] %s", sc.ID, sc.Type, sc.Text)
			if v.SubClaimID != "" {
				fmt.Fprintf(&b, " -> %s (%.2f)", v.Label, v.Confidence)
				if v.Rationale != "" {
					fmt.Fprintf(&b, ": %s", v.Rationale)
				}
			}
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	if len(report.Evidence) > 0 {
		b.WriteString("## Evidence\n\n")
		for _, item := range report.Evidence {
			fmt.Fprintf(&b, "- [%s] (%s, stance=%s, quality=%d) %s", item.ID, item.Tier, item.Stance, item.Quality, item.Snippet)
			if item.URL != "" {
				fmt.Fprintf(&b, " <%s>", item.URL)
			}
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}

	if len(report.Issues) > 0 {
		b.WriteString("## Numerical Issues\n\n")
		for _, issue := range report.Issues {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", issue.Type, issue.Severity, issue.Description)
		}
		b.WriteByte('\n')
	}

	if sym := report.Symbolic; sym != nil && len(sym.Firings) > 0 {
		b.WriteString("## Rule Firings\n\n")
		for _, f := range sym.Firings {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", f.Rule, f.Severity, f.Conclusion)
		}
		fmt.Fprintf(&b, "\nSymbolic confidence %.0f/100, reliability %.0f/100 (override %s)\n\n",
			sym.Score, sym.Reliability.Score, allowedWord(sym.Reliability.CanOverride))
	}

	if len(report.Provenance) > 0 {
		b.WriteString("## Provenance\n\n")
		for _, entry := range report.Provenance {
			fmt.Fprintf(&b, "- %s <- %s via %s: %s\n", entry.SubClaimID, strings.Join(entry.EvidenceIDs, ", "), entry.Tier, entry.Detail)
		}
		b.WriteByte('\n')
	}

	if report.Correction != "" {
		fmt.Fprintf(&b, "## Corrected Claim\n\n%s\n\n", report.Correction)
	}

	fmt.Fprintf(&b, "---\n%d evidence items, %d duplicates dropped, %d cache hits, %d source failures. Run %s at %s.\n",
		len(report.Evidence), report.Stats.DuplicatesDropped, report.Stats.CacheHits, report.Stats.SourceFailures,
		report.RunID, report.VerifiedAt.Format("2006-01-02 15:04:05 UTC"))

	return b.String()
}

func allowedWord(ok bool) string {
	if ok {
		return "allowed"
	}
	return "not allowed"
}
