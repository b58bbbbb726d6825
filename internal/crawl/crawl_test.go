// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package crawl

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/internal/papers"
	"github.com/pdiddy/paper-digest/pkg/types"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <title>Attention  Is
  All You Need</title>
    <summary>  We propose the Transformer.  </summary>
    <arxiv:comment>10 pages, 5 figures</arxiv:comment>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <category term="cs.CL"/>
    <category term="cs.LG"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2301.99999v1</id>
    <title>Second Paper</title>
    <summary>Another abstract.</summary>
    <author><name>Jane Doe</name></author>
    <category term="cs.CL"/>
  </entry>
</feed>`

func testCrawler(t *testing.T, handler http.HandlerFunc, dataDir string) (*Crawler, func()) {
	t.Helper()
	ts := httptest.NewServer(handler)

	old := arxivAPIBase
	arxivAPIBase = ts.URL

	c := &Crawler{
		Client: ts.Client(),
		Cfg: types.CrawlConfig{
			HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "paper-digest-test/0.1"},
			Categories: []string{"cs.CL"},
			MaxPapers:  50,
			DataDir:    dataDir,
		},
	}
	return c, func() {
		arxivAPIBase = old
		ts.Close()
	}
}

func TestRunWritesJSONL(t *testing.T) {
	dataDir := t.TempDir()
	c, cleanup := testCrawler(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "cat%3Acs.CL")
		w.Write([]byte(sampleFeed))
	}, dataDir)
	defer cleanup()

	var out bytes.Buffer
	summary, err := c.Run(context.Background(), "2026-08-30", false, &out)
	require.NoError(t, err)
	assert.False(t, summary.Skipped)
	assert.Equal(t, 2, summary.Total())

	loaded, err := papers.Load(dataDir, os.Stderr)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	first := loaded[0]
	assert.Equal(t, "2301.07041", first.ID)
	assert.Equal(t, "Attention Is All You Need", first.Title)
	assert.Equal(t, "We propose the Transformer.", first.Summary)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer"}, first.Authors)
	assert.Equal(t, []string{"cs.CL", "cs.LG"}, first.Categories)
	assert.Equal(t, "10 pages, 5 figures", first.Comment)
	assert.Equal(t, "https://arxiv.org/pdf/2301.07041", first.PDFURL)
	assert.Equal(t, "https://arxiv.org/abs/2301.07041", first.AbsURL)

	marker, err := os.ReadFile(filepath.Join(dataDir, ".last_crawl_date"))
	require.NoError(t, err)
	assert.Equal(t, "2026-08-30\n", string(marker))
}

func TestRunSkipsSameDay(t *testing.T) {
	dataDir := t.TempDir()
	calls := 0
	c, cleanup := testCrawler(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Write([]byte(sampleFeed))
	}, dataDir)
	defer cleanup()

	var out bytes.Buffer
	_, err := c.Run(context.Background(), "2026-08-30", false, &out)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	summary, err := c.Run(context.Background(), "2026-08-30", false, &out)
	require.NoError(t, err)
	assert.True(t, summary.Skipped)
	assert.Equal(t, 1, calls, "no request expected on the skipped run")
	assert.Contains(t, out.String(), "already crawled")
}

func TestRunForceRecrawls(t *testing.T) {
	dataDir := t.TempDir()
	calls := 0
	c, cleanup := testCrawler(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Write([]byte(sampleFeed))
	}, dataDir)
	defer cleanup()

	var out bytes.Buffer
	_, err := c.Run(context.Background(), "2026-08-30", false, &out)
	require.NoError(t, err)

	summary, err := c.Run(context.Background(), "2026-08-30", true, &out)
	require.NoError(t, err)
	assert.False(t, summary.Skipped)
	assert.Equal(t, 2, calls)
}

func TestRunAPIError(t *testing.T) {
	dataDir := t.TempDir()
	c, cleanup := testCrawler(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, dataDir)
	defer cleanup()

	var out bytes.Buffer
	_, err := c.Run(context.Background(), "2026-08-30", false, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")

	// Marker must not be written on failure.
	_, statErr := os.Stat(filepath.Join(dataDir, ".last_crawl_date"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041v12", "2301.07041"},
		{"http://example.com/nothing", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractArxivID(tt.in), tt.in)
	}
}

func TestShortCategory(t *testing.T) {
	assert.Equal(t, "IR", shortCategory("cs.IR"))
	assert.Equal(t, "math", shortCategory("math"))
}
