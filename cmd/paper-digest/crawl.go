// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/crawl"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Fetch today's arXiv submissions for the configured categories",
	Long: `Crawl queries the arXiv API for the newest submissions in each configured
category and stores them as JSONL under the data directory. A marker file
prevents re-crawling the same day; use --force to override.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().String("date", "", "crawl date (YYYY-MM-DD, default today)")
	crawlCmd.Flags().Bool("force", false, "re-crawl even if today's data already exists")

	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	date, _ := cmd.Flags().GetString("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	force, _ := cmd.Flags().GetBool("force")

	crawler := &crawl.Crawler{
		Client: &http.Client{Timeout: cfg.Crawl.Timeout},
		Cfg:    cfg.Crawl,
	}

	summary, err := crawler.Run(cmd.Context(), date, force, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Skipped {
		return nil
	}
	fmt.Printf("Crawled %d papers across %d categories\n", summary.Total(), len(summary.Papers))
	return nil
}
