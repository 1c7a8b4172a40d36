package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(Config{Path: filepath.Join(t.TempDir(), "nested", "runs.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	run := &Run{Dialect: "bash4", ConfigPath: "/etc/shcst.toml"}
	require.NoError(t, s.BeginRun(ctx, run))
	require.NotEmpty(t, run.ID)
	require.False(t, run.Started.IsZero())

	files := []*FileResult{
		{Path: "a.sh", Hash: "h1", Bytes: 10, Tokens: 4, RoundTrip: true, Duration: time.Millisecond},
		{Path: "b.sh", Hash: "h2", Bytes: 20, Tokens: 9, ErrorNodes: 2, RoundTrip: true,
			Problems: []string{"b.sh:1:6: unterminated string", "b.sh:2:1: unexpected fi"}},
		{Path: "c.sh", Hash: "h3", RoundTrip: true, Crosscheck: CrosscheckMismatch},
		{Path: ""},
	}
	accepted, rejected, err := s.RecordFiles(ctx, run.ID, files)
	require.NoError(t, err)
	assert.Equal(t, 3, accepted)
	assert.Equal(t, 1, rejected)

	run.Files, run.Failed, run.ErrorNodes = 3, 2, 2
	require.NoError(t, s.FinishRun(ctx, run))

	runs, err := s.Runs(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "bash4", runs[0].Dialect)
	assert.Equal(t, "/etc/shcst.toml", runs[0].ConfigPath)
	assert.Equal(t, 2, runs[0].Failed)
	assert.False(t, runs[0].Finished.IsZero())

	all, err := s.Files(ctx, run.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a.sh", all[0].Path)
	assert.Equal(t, time.Millisecond, all[0].Duration)
	assert.Equal(t, []string{"b.sh:1:6: unterminated string", "b.sh:2:1: unexpected fi"}, all[1].Problems)

	failed, err := s.Files(ctx, run.ID, true)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, "b.sh", failed[0].Path)
	assert.Equal(t, "c.sh", failed[1].Path)
}

func TestSQLiteStore_FinishUnknownRun(t *testing.T) {
	s := newTestStore(t)
	err := s.FinishRun(context.Background(), &Run{ID: "missing"})
	require.Error(t, err)
	assert.True(t, mdwerror.HasCode(err, mdwerror.CodeNotFound))
}

func TestSQLiteStore_HistoryAndStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		run := &Run{Dialect: "bash3", Started: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, s.BeginRun(ctx, run))
		_, _, err := s.RecordFiles(ctx, run.ID, []*FileResult{
			{Path: "deploy.sh", Hash: string(rune('a' + i)), RoundTrip: true, ErrorNodes: i},
			{Path: "other.sh", Hash: "x", RoundTrip: true},
		})
		require.NoError(t, err)
	}

	history, err := s.History(ctx, "deploy.sh", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "c", history[0].Hash)
	assert.Equal(t, "b", history[1].Hash)

	limited, err := s.Runs(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	recent, err := s.Runs(ctx, RunFilter{Since: base.Add(90 * time.Second)})
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats["total_runs"])
	assert.Equal(t, int64(6), stats["total_files"])
	assert.Equal(t, int64(2), stats["failed_files"])
	assert.Equal(t, int64(3), stats["error_nodes"])
	assert.Equal(t, int64(2), stats["distinct_paths"])
}

func TestSQLiteStore_Prune(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	old := &Run{Dialect: "bash4", Started: time.Now().Add(-48 * time.Hour)}
	fresh := &Run{Dialect: "bash4"}
	require.NoError(t, s.BeginRun(ctx, old))
	require.NoError(t, s.BeginRun(ctx, fresh))
	_, _, err := s.RecordFiles(ctx, old.ID, []*FileResult{{Path: "a.sh", RoundTrip: true}})
	require.NoError(t, err)

	deleted, err := s.Prune(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	runs, err := s.Runs(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, fresh.ID, runs[0].ID)

	files, err := s.Files(ctx, old.ID, false)
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, s.Vacuum(ctx))
}

func TestFileResult_Failed(t *testing.T) {
	tests := []struct {
		name         string
		result       FileResult
		failOnErrors bool
		want         bool
	}{
		{"clean", FileResult{RoundTrip: true}, true, false},
		{"round trip broken", FileResult{}, false, true},
		{"error nodes tolerated", FileResult{RoundTrip: true, ErrorNodes: 1}, false, false},
		{"error nodes fail", FileResult{RoundTrip: true, ErrorNodes: 1}, true, true},
		{"crosscheck mismatch", FileResult{RoundTrip: true, Crosscheck: CrosscheckMismatch}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.Failed(tt.failOnErrors))
		})
	}
}
