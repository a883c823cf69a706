package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/provato/provato/internal/model"
	"github.com/provato/provato/internal/pipeline"
	"github.com/provato/provato/internal/worker"
)

var (
	batchWorkers int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple claims from a file in parallel",
	Long: `Batch verifies claims concurrently:
- Read claims from the input file (one per line, # comments ignored)
- Verify claims in parallel with a configurable worker count
- Write one JSON and one Markdown report per claim

Example:
  provato batch claims.txt
  provato batch claims.txt --workers 4 --output-dir ./reports
  provato batch claims.txt --company Hartwell --offline`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&batchWorkers, "workers", 4, "number of concurrent verifications")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./provato-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 15*time.Minute, "total timeout for the batch")
	batchCmd.Flags().StringVar(&ticker, "ticker", "", "stock ticker applied to every claim")
	batchCmd.Flags().StringVar(&company, "company", "", "company name applied to every claim")
	batchCmd.Flags().BoolVar(&offline, "offline", false, "use in-memory fake sources (no network)")
}

type batchJob struct {
	pipeline *pipeline.Pipeline
	claim    string
	index    int
}

type batchResult struct {
	claim  string
	report *model.Report
	err    error
}

func (r batchResult) GetError() error { return r.err }

// Execute runs one claim and writes its reports.
func (j batchJob) Execute(ctx context.Context) worker.Result {
	report, err := j.pipeline.VerifyClaim(ctx, pipeline.Request{Claim: j.claim, Ticker: ticker, Company: company})
	if err != nil {
		return batchResult{claim: j.claim, err: err}
	}

	base := filepath.Join(outputDir, fmt.Sprintf("claim-%03d", j.index))
	raw, err := pipeline.RenderJSON(report)
	if err == nil {
		err = os.WriteFile(base+".json", raw, 0644)
	}
	if err == nil {
		err = os.WriteFile(base+".md", []byte(pipeline.RenderMarkdown(report)), 0644)
	}
	return batchResult{claim: j.claim, report: report, err: err}
}

func runBatch(cmd *cobra.Command, args []string) error {
	claims, err := readClaims(args[0])
	if err != nil {
		return err
	}
	if len(claims) == 0 {
		return fmt.Errorf("no claims found in %s", args[0])
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	_, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := loadConfig()
	logger := newLogger()
	store, closeStore := openCache(cfg, logger)
	defer closeStore()

	p, err := pipeline.New(cfg, providerSet(), store, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Verifying %d claims with %d workers into %s\n", len(claims), batchWorkers, outputDir)

	pool := worker.NewPool(batchWorkers)
	pool.Start()
	for i, claim := range claims {
		pool.Submit(batchJob{pipeline: p, claim: claim, index: i + 1})
	}

	var failed int
	for _, res := range pool.Wait() {
		br := res.(batchResult)
		if br.err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", br.claim, br.err)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s -> %s (%.0f/100)\n", br.claim, br.report.Verdict, br.report.Confidence)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d claims failed", failed, len(claims))
	}
	return nil
}

// readClaims loads one claim per line, skipping blanks and # comments.
func readClaims(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open claims file: %w", err)
	}
	defer f.Close()

	var claims []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		claims = append(claims, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read claims file: %w", err)
	}
	return claims, nil
}
