// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/archive"
	"github.com/pdiddy/paper-digest/internal/crawl"
	"github.com/pdiddy/paper-digest/internal/mailer"
	"github.com/pdiddy/paper-digest/internal/match"
	"github.com/pdiddy/paper-digest/internal/papers"
	"github.com/pdiddy/paper-digest/internal/summarize"
)

const digestsDir = "digests"

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full digest pipeline: crawl, match, summarize, email",
	Long: `Run executes the daily pipeline end to end: crawl new submissions, rank
them against the configured keywords, summarize the matches with the LLM,
email the digest, and archive the run. The digest is always written to
<data-dir>/digests/<date>.md, so a failed email delivery loses nothing.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().String("date", "", "run date (YYYY-MM-DD, default today)")
	runCmd.Flags().Bool("force", false, "re-crawl even if today's data already exists")
	runCmd.Flags().Bool("skip-crawl", false, "rank already-stored papers without crawling")
	runCmd.Flags().Bool("skip-llm", false, "build a keyword-only report without calling the LLM")
	runCmd.Flags().Bool("skip-email", false, "write the digest locally but do not send it")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}
	if len(cfg.Match.Keywords) == 0 {
		return fmt.Errorf("no keywords configured; set match.keywords in the config file")
	}

	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	force, _ := cmd.Flags().GetBool("force")
	skipCrawl, _ := cmd.Flags().GetBool("skip-crawl")
	skipLLM, _ := cmd.Flags().GetBool("skip-llm")
	skipEmail, _ := cmd.Flags().GetBool("skip-email")
	ctx := cmd.Context()

	if !skipCrawl {
		crawler := &crawl.Crawler{
			Client: &http.Client{Timeout: cfg.Crawl.Timeout},
			Cfg:    cfg.Crawl,
		}
		if _, err := crawler.Run(ctx, date, force, os.Stdout); err != nil {
			return fmt.Errorf("crawl stage: %w", err)
		}
	}

	matcher, err := match.NewMatcher(cfg.Match.Keywords)
	if err != nil {
		return err
	}
	all, err := papers.Load(cfg.Crawl.DataDir, os.Stderr)
	if err != nil {
		return fmt.Errorf("loading papers: %w", err)
	}
	matches := matcher.Score(all, cfg.Match.Threshold, cfg.Match.TopK)
	fmt.Printf("%d of %d papers matched\n", len(matches), len(all))

	var digest string
	if skipLLM || cfg.LLM.APIKey == "" {
		if !skipLLM {
			fmt.Fprintln(os.Stderr, "no LLM API key configured, building keyword-only report")
		}
		digest = summarize.SimpleReport(matches, cfg.Match.Keywords, date)
	} else {
		s := &summarize.Summarizer{
			Backend: &summarize.OpenAIBackend{
				APIKey:  cfg.LLM.APIKey,
				Model:   cfg.LLM.Model,
				BaseURL: cfg.LLM.BaseURL,
				Client:  &http.Client{Timeout: 120 * time.Second},
			},
			BatchSize:  cfg.LLM.BatchSize,
			MaxRetries: cfg.LLM.MaxRetries,
		}
		digest, err = s.BuildDigest(ctx, matches, cfg.Match.Keywords, date, os.Stdout)
		if err != nil {
			// The run still produces a digest; fall back to the plain report.
			fmt.Fprintf(os.Stderr, "summarize stage failed (%v), falling back to keyword-only report\n", err)
			digest = summarize.SimpleReport(matches, cfg.Match.Keywords, date)
		}
	}

	digestPath, err := writeDigest(cfg.Crawl.DataDir, date, digest)
	if err != nil {
		return err
	}
	fmt.Printf("Digest written to %s\n", digestPath)

	sent := false
	if !skipEmail && cfg.Email.SMTPServer != "" {
		subject := fmt.Sprintf("Paper digest %s (%d papers)", date, len(matches))
		if err := mailer.New(cfg.Email).Send(subject, digest); err != nil {
			fmt.Fprintf(os.Stderr, "email delivery failed: %v\n", err)
		} else {
			sent = true
			fmt.Printf("Digest emailed to %d recipient(s)\n", len(cfg.Email.Recipients))
		}
	}

	store, err := archive.Open(cfg.Crawl.DataDir)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer store.Close()
	if err := store.SaveRun(ctx, date, matches, digest, sent); err != nil {
		return fmt.Errorf("archiving run: %w", err)
	}

	return nil
}

func writeDigest(dataDir, date, digest string) (string, error) {
	dir := filepath.Join(dataDir, digestsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating digests directory: %w", err)
	}
	path := filepath.Join(dir, date+".md")
	if err := os.WriteFile(path, []byte(digest), 0o644); err != nil {
		return "", fmt.Errorf("writing digest: %w", err)
	}
	return path, nil
}
