package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/provato/provato/internal/model"
	"github.com/provato/provato/internal/pipeline"
	"github.com/provato/provato/internal/sources"
)

var (
	ticker        string
	company       string
	outJSON       string
	outMD         string
	verifyTimeout time.Duration
	offline       bool
	llmProviders  []string
	llmModel      string
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <claim>",
	Short: "Verify a single financial claim",
	Long: `Verify runs one claim through the full pipeline:
- Decompose the claim into atomic sub-claims
- Gather tiered evidence (filings, transcripts, news, macro, market)
- Extract and cross-check every number deterministically
- Reason symbolically and, when justified, override the model's verdict
- Produce a report with proof tree, provenance, and a corrected claim

Example:
  provato verify "Revenue grew 25% YoY to \$120 million in fiscal 2024" --company Hartwell
  provato verify "AAPL trades at a record high" --ticker AAPL --json report.json
  provato verify "Margins expanded" --company Hartwell --offline`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&ticker, "ticker", "", "stock ticker of the claim's subject")
	verifyCmd.Flags().StringVar(&company, "company", "", "company name of the claim's subject")
	verifyCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	verifyCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 3*time.Minute, "overall verification timeout")
	verifyCmd.Flags().BoolVar(&offline, "offline", false, "use in-memory fake sources (no network)")
	verifyCmd.Flags().StringSliceVar(&llmProviders, "llm-provider", nil, "LLM provider fallback order (openai, anthropic, ollama)")
	verifyCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
}

func runVerify(cmd *cobra.Command, args []string) error {
	claim := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	cfg := loadConfig()
	if len(llmProviders) > 0 {
		cfg.LLM.Providers = llmProviders
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	logger := newLogger()

	store, closeStore := openCache(cfg, logger)
	defer closeStore()

	p, err := pipeline.New(cfg, providerSet(), store, logger)
	if err != nil {
		return err
	}

	events, err := p.Verify(ctx, pipeline.Request{Claim: claim, Ticker: ticker, Company: company})
	if err != nil {
		return err
	}

	var report *model.Report
	for ev := range events {
		if verbose {
			fmt.Fprintf(os.Stderr, "· %s\n", ev.Type)
		}
		if ev.Type == model.EventComplete {
			if r, ok := ev.Payload["report"].(*model.Report); ok {
				report = r
			}
		}
	}
	if report == nil {
		return fmt.Errorf("verification did not complete: %w", ctx.Err())
	}

	return writeReport(report)
}

// providerSet assembles the evidence sources. Offline runs use the
// in-memory fakes; online runs expect concrete providers to be plugged in
// here as they become available.
func providerSet() sources.Set {
	if offline {
		return sources.Set{
			Filings: &sources.FakeFilingStore{},
			Search:  &sources.FakeSearcher{Default: &sources.GroundedResult{Text: "No coverage found."}},
			Macro:   &sources.FakeMacro{},
			Market:  &sources.FakeMarket{},
		}
	}
	return sources.Set{}
}

// writeReport renders the report to stdout and any requested files.
func writeReport(report *model.Report) error {
	fmt.Printf("Verdict: %s (confidence %.0f/100)\n", report.Verdict, report.Confidence)
	if sym := report.Symbolic; sym != nil {
		if sym.Override.Applied {
			fmt.Printf("Overridden by symbolic analysis: %s -> %s\n", sym.Override.From, sym.Override.To)
		} else if sym.Override.CautionFlag {
			fmt.Printf("Caution: %s\n", sym.Override.Reason)
		}
	}
	if report.Correction != "" {
		fmt.Printf("Corrected claim: %s\n", report.Correction)
	}

	if outJSON != "" {
		raw, err := pipeline.RenderJSON(report)
		if err != nil {
			return fmt.Errorf("render json: %w", err)
		}
		if err := os.WriteFile(outJSON, raw, 0644); err != nil {
			return fmt.Errorf("write %s: %w", outJSON, err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outJSON)
	}
	if outMD != "" {
		if err := os.WriteFile(outMD, []byte(pipeline.RenderMarkdown(report)), 0644); err != nil {
			return fmt.Errorf("write %s: %w", outMD, err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", outMD)
	}
	return nil
}
