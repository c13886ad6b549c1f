// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/variant-research/pkg/types"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reports", DefaultFile)
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func run(id, key string, started time.Time) types.RunRecord {
	return types.RunRecord{
		ID:         id,
		QueryKey:   key,
		GeneSymbol: "AGT",
		State:      "done",
		StartedAt:  started,
		FinishedAt: started.Add(42 * time.Second),
		ReportPath: "/reports/" + key + "_report.html",
		Sources: []types.SourceOutcome{
			{Source: types.SourceLiterature, Status: types.StatusOK, Records: 30},
			{Source: types.SourcePatents, Status: types.StatusPartial, Records: 0, Errors: 1},
		},
	}
}

func TestOpenCreatesDatabase(t *testing.T) {
	_, path := testStore(t)
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestRecordAndRecent(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, run("a", "rs699", base)))
	require.NoError(t, s.Record(ctx, run("b", "rs1", base.Add(time.Hour))))
	aborted := types.RunRecord{
		ID: "c", QueryKey: "rs000000-invalid", State: "aborted",
		StartedAt: base.Add(2 * time.Hour), FinishedAt: base.Add(2 * time.Hour),
		Error: "could not resolve", Sources: []types.SourceOutcome{},
	}
	require.NoError(t, s.Record(ctx, aborted))

	runs, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	assert.Equal(t, aborted.Error, runs[0].Error)
	assert.Empty(t, runs[0].Sources)
	assert.Empty(t, runs[0].GeneSymbol)

	want := run("a", "rs699", base)
	got := runs[2]
	assert.True(t, want.StartedAt.Equal(got.StartedAt))
	assert.True(t, want.FinishedAt.Equal(got.FinishedAt))
	assert.Equal(t, want.Sources, got.Sources)
	assert.Equal(t, want.ReportPath, got.ReportPath)
}

func TestRecentFiltersAndLimits(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Record(ctx, run(id, "rs699", base.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, s.Record(ctx, run("d", "rs1", base)))

	runs, err := s.Recent(ctx, " RS699 ", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}

func TestRecordReplacesSameID(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r := run("a", "rs699", base)
	require.NoError(t, s.Record(ctx, r))
	r.State = "render_failed"
	r.Sources = r.Sources[:1]
	require.NoError(t, s.Record(ctx, r))

	runs, err := s.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "render_failed", runs[0].State)
	assert.Len(t, runs[0].Sources, 1)
}

func TestReopenKeepsRuns(t *testing.T) {
	s, path := testStore(t)
	require.NoError(t, s.Record(context.Background(), run("a", "rs699", time.Now())))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	runs, err := s2.Recent(context.Background(), "", 5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
