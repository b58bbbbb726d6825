// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package papers

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSONL(t *testing.T, dataDir, category string, lines ...string) {
	t.Helper()
	dir := filepath.Join(dataDir, "jsonl", category)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "papers.jsonl"), []byte(content), 0o644))
}

func TestLoadMissingDirectoryIsEmpty(t *testing.T) {
	got, err := Load(t.TempDir(), os.Stderr)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadReadsAllCategories(t *testing.T) {
	dataDir := t.TempDir()
	writeJSONL(t, dataDir, "CV",
		`{"id":"2301.00001","title":"Vision Paper","summary":"About images.","authors":["A. One"],"categories":["cs.CV"],"pdf":"https://arxiv.org/pdf/2301.00001","abs":"https://arxiv.org/abs/2301.00001"}`)
	writeJSONL(t, dataDir, "CL",
		`{"id":"2301.00002","title":"Language Paper","summary":"About text.","authors":["B. Two"],"categories":["cs.CL"]}`)

	got, err := Load(dataDir, os.Stderr)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[string]bool{}
	for _, p := range got {
		byID[p.ID] = true
	}
	assert.True(t, byID["2301.00001"])
	assert.True(t, byID["2301.00002"])
}

func TestLoadDeduplicatesAcrossCategories(t *testing.T) {
	dataDir := t.TempDir()
	// Cross-listed paper: first occurrence wins.
	writeJSONL(t, dataDir, "AA",
		`{"id":"2301.00003","title":"First Copy","summary":"s"}`)
	writeJSONL(t, dataDir, "BB",
		`{"id":"2301.00003","title":"Second Copy","summary":"s"}`)

	got, err := Load(dataDir, os.Stderr)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "First Copy", got[0].Title)
}

func TestLoadFileSkipsMalformedLines(t *testing.T) {
	dataDir := t.TempDir()
	writeJSONL(t, dataDir, "CV",
		`{"id":"2301.00004","title":"Good","summary":"ok"}`,
		`{not json at all`,
		``,
		`{"title":"missing id","summary":"bad"}`,
		`{"id":"2301.00005","title":"Also Good","summary":"ok"}`)

	var diag bytes.Buffer
	got, err := Load(dataDir, &diag)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2301.00004", got[0].ID)
	assert.Equal(t, "2301.00005", got[1].ID)

	assert.Contains(t, diag.String(), "skipped papers.jsonl:2")
	assert.Contains(t, diag.String(), "no id")
}

func TestLoadFileMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.jsonl"), os.Stderr)
	assert.Error(t, err)
}
