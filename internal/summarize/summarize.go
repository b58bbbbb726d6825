// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summarize turns ranked papers into a Markdown digest using a
// chat-completion API, with a plain report fallback when no backend is
// available.
package summarize

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/paper-digest/internal/match"
)

// Backend abstracts the chat-completion API so tests can supply a mock.
type Backend interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// batchDelimiter separates per-paper interpretations in the model output.
const batchDelimiter = "===PAPER"

// Summarizer batches ranked papers through the backend and assembles
// the daily digest.
type Summarizer struct {
	Backend Backend

	// BatchSize is the number of papers interpreted per API call (default 3).
	BatchSize int

	// MaxRetries is the number of retry attempts per API call (default 3).
	MaxRetries int
}

// PaperSummary pairs a ranked paper with its generated interpretation.
type PaperSummary struct {
	Match   match.Match
	Summary string
}

// SummarizeAll interprets every ranked paper, batching BatchSize papers
// per backend call. Progress is reported on w.
func (s *Summarizer) SummarizeAll(ctx context.Context, matches []match.Match, keywords map[string]float64, w io.Writer) ([]PaperSummary, error) {
	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = 3
	}

	var results []PaperSummary
	for start := 0; start < len(matches); start += batchSize {
		end := min(start+batchSize, len(matches))
		batch := matches[start:end]

		fmt.Fprintf(w, "interpreting papers %d-%d/%d\n", start+1, end, len(matches))

		summaries, err := s.summarizeBatch(ctx, batch, keywords)
		if err != nil {
			return nil, fmt.Errorf("interpreting papers %d-%d: %w", start+1, end, err)
		}

		for i, m := range batch {
			results = append(results, PaperSummary{Match: m, Summary: summaries[i]})
		}
	}
	return results, nil
}

// summarizeBatch sends one batch of papers to the backend and splits
// the response back into per-paper interpretations.
func (s *Summarizer) summarizeBatch(ctx context.Context, batch []match.Match, keywords map[string]float64) ([]string, error) {
	user, err := renderBatchPrompt(batch, keywordList(keywords))
	if err != nil {
		return nil, err
	}

	maxTokens := min(1200*len(batch), 4000)
	raw, err := s.callWithRetry(ctx, batchSystemPrompt, user, maxTokens)
	if err != nil {
		return nil, err
	}

	return splitBatchResponse(raw, len(batch)), nil
}

// Overview produces the digest's lead paragraph from the top ranked
// papers (at most ten are shown to the model).
func (s *Summarizer) Overview(ctx context.Context, matches []match.Match, keywords map[string]float64) (string, error) {
	user, err := renderOverviewPrompt(matches, keywordList(keywords))
	if err != nil {
		return "", err
	}
	return s.callWithRetry(ctx, overviewSystemPrompt, user, 800)
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the backend with exponential backoff.
func (s *Summarizer) callWithRetry(ctx context.Context, system, user string, maxTokens int) (string, error) {
	maxRetries := s.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := s.Backend.Complete(ctx, system, user, maxTokens)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// splitBatchResponse cuts the model output on ===PAPER N=== markers.
// When the marker protocol breaks down it falls back to slicing the
// output into count even chunks so every paper gets some text.
func splitBatchResponse(raw string, count int) []string {
	parts := strings.Split(raw, batchDelimiter)

	var summaries []string
	for _, part := range parts[1:] {
		content := strings.TrimSpace(part)
		// Strip the "N===" remnant left after the marker prefix.
		if idx := strings.Index(content, "==="); idx >= 0 {
			content = strings.TrimSpace(content[idx+3:])
		}
		summaries = append(summaries, content)
	}

	if len(summaries) == count {
		return summaries
	}

	lines := strings.Split(raw, "\n")
	chunk := max(len(lines)/count, 1)
	summaries = summaries[:0]
	for i := 0; i < count; i++ {
		start := i * chunk
		end := start + chunk
		if i == count-1 || end > len(lines) {
			end = len(lines)
		}
		if start > len(lines) {
			start = len(lines)
		}
		summaries = append(summaries, strings.TrimSpace(strings.Join(lines[start:end], "\n")))
	}
	return summaries
}

// keywordList returns the keywords in sorted order for prompt display.
func keywordList(keywords map[string]float64) []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
