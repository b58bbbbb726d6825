// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-digest/internal/match"
	"github.com/pdiddy/paper-digest/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleMatches() []match.Match {
	return []match.Match{
		{
			Paper: &types.Paper{
				ID:             "2501.00001",
				Title:          "Transformer Survey",
				Authors:        []string{"Alice", "Bob"},
				RelevanceScore: 4.2,
			},
			Detail: types.MatchDetail{AllMatched: []string{"survey", "transformer"}},
		},
		{
			Paper: &types.Paper{
				ID:             "2501.00002",
				Title:          "Diffusion Models",
				Authors:        []string{"Carol"},
				RelevanceScore: 1.7,
			},
			Detail: types.MatchDetail{AllMatched: []string{"diffusion"}},
		},
	}
}

func TestSaveAndReadRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	err := s.SaveRun(ctx, "2026-08-30", sampleMatches(), "# Digest\n\nbody", true)
	require.NoError(t, err)

	runs, err := s.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "2026-08-30", runs[0].Date)
	assert.Equal(t, 2, runs[0].PaperCount)
	assert.True(t, runs[0].Sent)

	digest, err := s.Digest(ctx, "2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, "# Digest\n\nbody", digest)

	papers, err := s.Papers(ctx, "2026-08-30")
	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Equal(t, 1, papers[0].Position)
	assert.Equal(t, "2501.00001", papers[0].ID)
	assert.Equal(t, []string{"Alice", "Bob"}, papers[0].Authors)
	assert.InDelta(t, 4.2, papers[0].Score, 1e-9)
	assert.Equal(t, []string{"survey", "transformer"}, papers[0].Matched)
}

func TestSaveRunReplacesSameDate(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRun(ctx, "2026-08-30", sampleMatches(), "first", false))
	require.NoError(t, s.SaveRun(ctx, "2026-08-30", sampleMatches()[:1], "second", true))

	runs, err := s.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].PaperCount)
	assert.True(t, runs[0].Sent)

	digest, err := s.Digest(ctx, "2026-08-30")
	require.NoError(t, err)
	assert.Equal(t, "second", digest)

	papers, err := s.Papers(ctx, "2026-08-30")
	require.NoError(t, err)
	assert.Len(t, papers, 1)
}

func TestHistoryOrderAndLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, date := range []string{"2026-08-28", "2026-08-30", "2026-08-29"} {
		require.NoError(t, s.SaveRun(ctx, date, nil, "d", false))
	}

	runs, err := s.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "2026-08-30", runs[0].Date)
	assert.Equal(t, "2026-08-29", runs[1].Date)
}

func TestDigestMissingDate(t *testing.T) {
	s := testStore(t)

	_, err := s.Digest(context.Background(), "1999-01-01")
	assert.ErrorContains(t, err, "no archived run")
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveRun(context.Background(), "2026-01-01", nil, "", false))
}
