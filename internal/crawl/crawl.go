// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package crawl fetches newly announced arXiv papers for the configured
// categories and writes one papers.jsonl collection per category.
package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/paper-digest/pkg/types"
)

const (
	jsonlDir   = "jsonl"
	jsonlFile  = "papers.jsonl"
	markerFile = ".last_crawl_date"
)

// Crawler fetches paper listings from the arXiv API.
type Crawler struct {
	Client *http.Client
	Cfg    types.CrawlConfig
}

// Summary holds per-run crawl counts.
type Summary struct {
	// Papers maps category to the number of papers written.
	Papers map[string]int

	// Skipped is true when the run was a no-op because the date
	// marker matched and force was off.
	Skipped bool
}

// Total returns the number of papers written across all categories.
func (s Summary) Total() int {
	n := 0
	for _, c := range s.Papers {
		n += c
	}
	return n
}

// Run crawls every configured category for the given date. A date
// marker under the data directory prevents a second crawl of the same
// day unless force is set. Each category's previous collection is
// replaced wholesale; a failed category aborts the run before the
// marker is updated so a retry re-fetches everything.
func (c *Crawler) Run(ctx context.Context, date string, force bool, w io.Writer) (Summary, error) {
	markerPath := filepath.Join(c.Cfg.DataDir, markerFile)

	if !force {
		if last, err := os.ReadFile(markerPath); err == nil && strings.TrimSpace(string(last)) == date {
			fmt.Fprintf(w, "already crawled %s, skipping (use --force to recrawl)\n", date)
			return Summary{Skipped: true}, nil
		}
	}

	summary := Summary{Papers: make(map[string]int, len(c.Cfg.Categories))}

	for _, category := range c.Cfg.Categories {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		fmt.Fprintf(w, "crawling %s\n", category)
		papers, err := c.fetchCategory(ctx, category)
		if err != nil {
			return summary, fmt.Errorf("crawling %s: %w", category, err)
		}

		if err := c.writeCategory(category, papers); err != nil {
			return summary, err
		}

		fmt.Fprintf(w, "wrote %d papers for %s\n", len(papers), category)
		summary.Papers[category] = len(papers)
	}

	if err := os.MkdirAll(c.Cfg.DataDir, 0o755); err != nil {
		return summary, fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(markerPath, []byte(date+"\n"), 0o644); err != nil {
		return summary, fmt.Errorf("writing crawl date marker: %w", err)
	}

	return summary, nil
}

// writeCategory replaces the category's papers.jsonl with the fetched set.
func (c *Crawler) writeCategory(category string, papers []types.Paper) error {
	dir := filepath.Join(c.Cfg.DataDir, jsonlDir, shortCategory(category))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	path := filepath.Join(dir, jsonlFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for i := range papers {
		if err := enc.Encode(&papers[i]); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

// shortCategory extracts the category short name: "cs.IR" -> "IR".
func shortCategory(category string) string {
	if idx := strings.LastIndex(category, "."); idx >= 0 {
		return category[idx+1:]
	}
	return category
}
