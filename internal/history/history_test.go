// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/exportdesk/internal/export"
)

func openStore(t *testing.T, maxEntries int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"), maxEntries)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := openStore(t, 0)
	ctx := context.Background()

	stored, err := s.Record(ctx, Run{
		Format:    "pdf",
		Title:     "Rapport de statistiques",
		FileName:  "statistiques.pdf",
		Path:      "/tmp/statistiques.pdf",
		Rows:      42,
		Columns:   6,
		SizeBytes: 2048,
		Duration:  1500 * time.Millisecond,
	})
	require.NoError(t, err)
	_, err = uuid.Parse(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, stored.Status)
	assert.False(t, stored.CreatedAt.IsZero())

	got, err := s.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, "Rapport de statistiques", got.Title)
	assert.Equal(t, 42, got.Rows)
	assert.Equal(t, int64(2048), got.SizeBytes)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, stored.CreatedAt.UnixMilli(), got.CreatedAt.UnixMilli())
	assert.True(t, got.Succeeded())
}

func TestRecord_FailedRun(t *testing.T) {
	s := openStore(t, 0)
	run, err := s.Record(context.Background(), Run{Format: "csv", Error: "format column \"score\": bad input"})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	assert.False(t, run.Succeeded())
}

func TestGet_NotFound(t *testing.T) {
	s := openStore(t, 0)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_NewestFirstWithFilters(t *testing.T) {
	s := openStore(t, 0)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, f := range []string{"csv", "pdf", "excel", "pdf"} {
		_, err := s.Record(ctx, Run{Format: f, FileName: f, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}
	_, err := s.Record(ctx, Run{Format: "pdf", Error: "boom", CreatedAt: base.Add(10 * time.Hour)})
	require.NoError(t, err)

	all, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, StatusFailed, all[0].Status)
	assert.Equal(t, "csv", all[4].Format)

	pdfs, err := s.List(ctx, ListOptions{Format: "pdf", Status: StatusOK})
	require.NoError(t, err)
	assert.Len(t, pdfs, 2)

	limited, err := s.List(ctx, ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRecord_PrunesOldest(t *testing.T) {
	s := openStore(t, 3)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		_, err := s.Record(ctx, Run{Format: "csv", Rows: i, CreatedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
	}

	runs, err := s.List(ctx, ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, 4, runs[0].Rows)
	assert.Equal(t, 2, runs[2].Rows)
}

func TestPrune(t *testing.T) {
	s := openStore(t, 0)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := s.Record(ctx, Run{Format: "csv"})
		require.NoError(t, err)
	}
	n, err := s.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestStats(t *testing.T) {
	s := openStore(t, 0)
	ctx := context.Background()
	last := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for _, r := range []Run{
		{Format: "csv", CreatedAt: last.Add(-time.Hour)},
		{Format: "csv", Error: "x", CreatedAt: last.Add(-2 * time.Hour)},
		{Format: "pdf", CreatedAt: last},
	} {
		_, err := s.Record(ctx, r)
		require.NoError(t, err)
	}

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, map[string]int{"csv": 2, "pdf": 1}, st.ByFormat)
	assert.True(t, st.LastRun.Equal(last))
}

func TestStore_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path, 0)
	require.NoError(t, err)
	run, err := s.Record(context.Background(), Run{Format: "excel"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Record(context.Background(), Run{Format: "csv"})
	assert.ErrorIs(t, err, ErrClosed)

	s2, err := Open(path, 0)
	require.NoError(t, err)
	defer s2.Close()
	got, err := s2.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, "excel", got.Format)
}

func TestFromResult(t *testing.T) {
	ok := FromResult(export.Result{
		Format:   export.FormatPDF,
		FileName: "bilan.pdf",
		Path:     "/tmp/bilan.pdf",
		Size:     2048,
		Rows:     12,
		Columns:  4,
		Duration: 150 * time.Millisecond,
	}, "Bilan")
	assert.Equal(t, "pdf", ok.Format)
	assert.Equal(t, "Bilan", ok.Title)
	assert.Equal(t, int64(2048), ok.SizeBytes)
	assert.Equal(t, StatusOK, ok.Status)
	assert.True(t, ok.Succeeded())

	failed := FromResult(export.Result{Format: export.FormatCSV, Err: errors.New("disk full")}, "")
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "disk full", failed.Error)

	s := openStore(t, 0)
	stored, err := s.Record(context.Background(), failed)
	require.NoError(t, err)
	got, err := s.Get(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.False(t, got.Succeeded())
}
