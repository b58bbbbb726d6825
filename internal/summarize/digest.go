// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/paper-digest/internal/match"
)

// BuildDigest runs the full summarization flow and assembles the daily
// report: header, model-written overview, summary table, and one
// interpreted section per paper, in rank order.
func (s *Summarizer) BuildDigest(ctx context.Context, matches []match.Match, keywords map[string]float64, date string, w io.Writer) (string, error) {
	if len(matches) == 0 {
		return fmt.Sprintf("# arXiv Paper Digest - %s\n\nNo papers matched your research interests today.\n", date), nil
	}

	summaries, err := s.SummarizeAll(ctx, matches, keywords, w)
	if err != nil {
		return "", err
	}

	fmt.Fprintln(w, "generating daily overview")
	overview, err := s.Overview(ctx, matches, keywords)
	if err != nil {
		return "", fmt.Errorf("generating overview: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# arXiv Paper Digest\n\n")
	fmt.Fprintf(&b, "**Date**: %s\n\n", date)
	fmt.Fprintf(&b, "**Research interests**: %s\n\n", formatKeywords(keywords))
	fmt.Fprintf(&b, "**Today's picks**: %d papers\n\n---\n\n", len(matches))

	fmt.Fprintf(&b, "## Overview\n\n%s\n\n", overview)
	fmt.Fprintf(&b, "### At a glance\n\n%s\n---\n\n## Papers\n\n", summaryTable(matches))

	for i, ps := range summaries {
		p := ps.Match.Paper
		fmt.Fprintf(&b, "### %d. %s [[abs]](%s)\n\n", i+1, p.Title, p.AbsURL)
		fmt.Fprintf(&b, "**Authors**: %s\n\n", strings.Join(p.Authors, ", "))
		fmt.Fprintf(&b, "%s\n\n", ps.Summary)
	}

	return b.String(), nil
}

// SimpleReport builds a digest without any model calls, used when no
// API key is configured or the backend fails.
func SimpleReport(matches []match.Match, keywords map[string]float64, date string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# arXiv Paper Digest - %s\n\n", date)
	fmt.Fprintf(&b, "**Research interests**: %s\n\n", formatKeywords(keywords))
	fmt.Fprintf(&b, "Selected **%d** papers for you today:\n\n---\n\n", len(matches))

	for i, m := range matches {
		p := m.Paper
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, p.Title)
		fmt.Fprintf(&b, "**Authors**: %s\n\n", truncateAuthors(p.Authors, 5))
		if len(p.Categories) > 0 {
			fmt.Fprintf(&b, "**Categories**: %s\n\n", strings.Join(p.Categories, ", "))
		}
		fmt.Fprintf(&b, "**Matched keywords**: %s\n\n", strings.Join(m.Detail.AllMatched, ", "))
		fmt.Fprintf(&b, "**Abstract**: %s\n\n", truncate(p.Summary, 500))
		fmt.Fprintf(&b, "[abs](%s) | [pdf](%s)\n\n---\n\n", p.AbsURL, p.PDFURL)
	}
	return b.String()
}

// summaryTable renders the ranked papers as a Markdown table.
func summaryTable(matches []match.Match) string {
	var b strings.Builder
	b.WriteString("| # | Title | Authors | Matched | Score |\n")
	b.WriteString("|:---:|:---|:---|:---|:---:|\n")
	for i, m := range matches {
		p := m.Paper
		matched := "-"
		if len(m.Detail.AllMatched) > 0 {
			matched = strings.Join(m.Detail.AllMatched, ", ")
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %.2f |\n",
			i+1, p.Title, truncateAuthors(p.Authors, 3), matched, p.RelevanceScore)
	}
	return b.String()
}

// formatKeywords renders the weighted keyword set as "kw(weight)"
// pairs, sorted for stable output.
func formatKeywords(keywords map[string]float64) string {
	if len(keywords) == 0 {
		return "(none)"
	}
	kws := make([]string, 0, len(keywords))
	for k := range keywords {
		kws = append(kws, k)
	}
	sort.Strings(kws)

	parts := make([]string, len(kws))
	for i, k := range kws {
		parts[i] = fmt.Sprintf("%s(%g)", k, keywords[k])
	}
	return strings.Join(parts, ", ")
}

func truncateAuthors(authors []string, n int) string {
	if len(authors) <= n {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:n], ", ") + "..."
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
