// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-digest/internal/match"
	"github.com/pdiddy/paper-digest/internal/papers"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rank stored papers against the configured keywords",
	Long: `Match loads the crawled papers from the data directory, scores each against
the weighted keywords, and prints the papers at or above the relevance
threshold, best first.`,
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().String("keywords", "", "override keywords, comma-separated with optional :weight (e.g. \"transformer:2,diffusion\")")
	matchCmd.Flags().Float64("threshold", -1, "minimum relevance score, inclusive (overrides config)")
	matchCmd.Flags().Int("top-k", -1, "maximum papers to keep, 0 for unlimited (overrides config)")
	matchCmd.Flags().Bool("json", false, "output matches as JSON")

	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	if kw, _ := cmd.Flags().GetString("keywords"); kw != "" {
		cfg.Match.Keywords, err = parseKeywordFlag(kw)
		if err != nil {
			return err
		}
	}
	if th, _ := cmd.Flags().GetFloat64("threshold"); th >= 0 {
		cfg.Match.Threshold = th
	}
	if k, _ := cmd.Flags().GetInt("top-k"); k >= 0 {
		cfg.Match.TopK = k
	}
	if len(cfg.Match.Keywords) == 0 {
		return fmt.Errorf("no keywords configured; set match.keywords or pass --keywords")
	}

	matcher, err := match.NewMatcher(cfg.Match.Keywords)
	if err != nil {
		return err
	}

	all, err := papers.Load(cfg.Crawl.DataDir, os.Stderr)
	if err != nil {
		return err
	}

	matches := matcher.Score(all, cfg.Match.Threshold, cfg.Match.TopK)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	}

	fmt.Printf("%d of %d papers matched (threshold %g)\n\n", len(matches), len(all), cfg.Match.Threshold)
	for i, m := range matches {
		fmt.Printf("%2d. [%.2f] %s\n", i+1, m.Paper.RelevanceScore, m.Paper.Title)
		fmt.Printf("    %s  matched: %s\n", m.Paper.ID, strings.Join(m.Detail.AllMatched, ", "))
	}
	return nil
}

// parseKeywordFlag parses "term:weight,term" into weighted keywords.
// A term without a weight gets 1.0.
func parseKeywordFlag(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		term, weightStr, found := strings.Cut(part, ":")
		term = strings.TrimSpace(term)
		if !found {
			out[term] = 1.0
			continue
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
		if err != nil {
			return nil, fmt.Errorf("keyword %q: invalid weight %q", term, weightStr)
		}
		out[term] = w
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no keywords in %q", s)
	}
	return out, nil
}
