// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/internal/match"
	"github.com/pdiddy/paper-digest/pkg/types"
)

func init() {
	backoffBase = time.Millisecond
}

// --- mock backend ---

type mockBackend struct {
	calls     int
	failUntil int
	respond   func(system, user string, maxTokens int) string
}

func (m *mockBackend) Complete(_ context.Context, system, user string, maxTokens int) (string, error) {
	m.calls++
	if m.calls <= m.failUntil {
		return "", errors.New("transient backend error")
	}
	if m.respond != nil {
		return m.respond(system, user, maxTokens), nil
	}
	return "ok", nil
}

func testMatches(n int) []match.Match {
	var out []match.Match
	for i := 0; i < n; i++ {
		out = append(out, match.Match{
			Paper: &types.Paper{
				ID:             fmt.Sprintf("2301.0000%d", i+1),
				Title:          fmt.Sprintf("Paper %d", i+1),
				Summary:        "An abstract.",
				Authors:        []string{"A. Author", "B. Author"},
				AbsURL:         fmt.Sprintf("https://arxiv.org/abs/2301.0000%d", i+1),
				PDFURL:         fmt.Sprintf("https://arxiv.org/pdf/2301.0000%d", i+1),
				RelevanceScore: float64(n - i),
			},
			Detail: types.MatchDetail{AllMatched: []string{"transformer"}},
		})
	}
	return out
}

// --- batch splitting ---

func TestSplitBatchResponse(t *testing.T) {
	raw := "===PAPER 1===\nFirst background.\n\nFirst method.\n===PAPER 2===\nSecond background.\n\nSecond method."
	got := splitBatchResponse(raw, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "First background.\n\nFirst method.", got[0])
	assert.Equal(t, "Second background.\n\nSecond method.", got[1])
}

func TestSplitBatchResponseFallback(t *testing.T) {
	// No markers at all: the output is sliced into even chunks.
	raw := "line one\nline two\nline three\nline four"
	got := splitBatchResponse(raw, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "line one\nline two", got[0])
	assert.Equal(t, "line three\nline four", got[1])
}

// --- SummarizeAll ---

func TestSummarizeAllBatches(t *testing.T) {
	backend := &mockBackend{
		respond: func(_, user string, _ int) string {
			// Answer with one marker per paper mentioned in the prompt.
			n := strings.Count(user, "## Paper ")
			var b strings.Builder
			for i := 1; i <= n; i++ {
				fmt.Fprintf(&b, "===PAPER %d===\ninterpretation %d\n", i, i)
			}
			return b.String()
		},
	}
	s := &Summarizer{Backend: backend, BatchSize: 2}

	got, err := s.SummarizeAll(context.Background(), testMatches(5), map[string]float64{"transformer": 1.0}, io.Discard)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, 3, backend.calls, "5 papers at batch size 2 = 3 calls")
	assert.Equal(t, "interpretation 1", got[0].Summary)
	assert.Equal(t, "Paper 1", got[0].Match.Paper.Title)
	assert.Equal(t, "interpretation 1", got[2].Summary, "first paper of second batch")
}

func TestCallWithRetryRecovers(t *testing.T) {
	backend := &mockBackend{failUntil: 2}
	s := &Summarizer{Backend: backend, MaxRetries: 3}

	got, err := s.callWithRetry(context.Background(), "sys", "user", 100)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, backend.calls)
}

func TestCallWithRetryExhausts(t *testing.T) {
	backend := &mockBackend{failUntil: 100}
	s := &Summarizer{Backend: backend, MaxRetries: 2}

	_, err := s.callWithRetry(context.Background(), "sys", "user", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 3, backend.calls)
}

// --- digest assembly ---

func TestBuildDigest(t *testing.T) {
	backend := &mockBackend{
		respond: func(system, user string, _ int) string {
			if strings.Contains(system, "research analyst") {
				return "Today's papers cluster around transformers."
			}
			n := strings.Count(user, "## Paper ")
			var b strings.Builder
			for i := 1; i <= n; i++ {
				fmt.Fprintf(&b, "===PAPER %d===\ndeep dive %d\n", i, i)
			}
			return b.String()
		},
	}
	s := &Summarizer{Backend: backend, BatchSize: 3}

	digest, err := s.BuildDigest(context.Background(), testMatches(2),
		map[string]float64{"transformer": 2.0}, "2026-08-30", io.Discard)
	require.NoError(t, err)

	assert.Contains(t, digest, "# arXiv Paper Digest")
	assert.Contains(t, digest, "**Date**: 2026-08-30")
	assert.Contains(t, digest, "transformer(2)")
	assert.Contains(t, digest, "Today's papers cluster around transformers.")
	assert.Contains(t, digest, "| 1 | Paper 1 |")
	assert.Contains(t, digest, "### 1. Paper 1 [[abs]](https://arxiv.org/abs/2301.00001)")
	assert.Contains(t, digest, "deep dive 1")
	assert.Contains(t, digest, "deep dive 2")
}

func TestBuildDigestEmpty(t *testing.T) {
	s := &Summarizer{Backend: &mockBackend{}}
	digest, err := s.BuildDigest(context.Background(), nil, nil, "2026-08-30", io.Discard)
	require.NoError(t, err)
	assert.Contains(t, digest, "No papers matched")
}

func TestSimpleReport(t *testing.T) {
	report := SimpleReport(testMatches(1), map[string]float64{"transformer": 1.0}, "2026-08-30")
	assert.Contains(t, report, "# arXiv Paper Digest - 2026-08-30")
	assert.Contains(t, report, "## 1. Paper 1")
	assert.Contains(t, report, "**Matched keywords**: transformer")
	assert.Contains(t, report, "[abs](https://arxiv.org/abs/2301.00001)")
}

// --- OpenAI backend ---

func TestOpenAIBackendComplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "deepseek-chat", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, 500, req.MaxTokens)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  the reply  "}},
			},
		})
	}))
	defer ts.Close()

	b := &OpenAIBackend{APIKey: "test-key", Model: "deepseek-chat", BaseURL: ts.URL, Client: ts.Client()}
	got, err := b.Complete(context.Background(), "sys", "user", 500)
	require.NoError(t, err)
	assert.Equal(t, "the reply", got)
}

func TestOpenAIBackendHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
	}))
	defer ts.Close()

	b := &OpenAIBackend{APIKey: "bad", Model: "m", BaseURL: ts.URL, Client: ts.Client()}
	_, err := b.Complete(context.Background(), "sys", "user", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}

func TestOpenAIBackendNoChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer ts.Close()

	b := &OpenAIBackend{Model: "m", BaseURL: ts.URL, Client: ts.Client()}
	_, err := b.Complete(context.Background(), "sys", "user", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
