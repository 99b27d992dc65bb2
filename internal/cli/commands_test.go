// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/exportdesk/internal/config"
	"github.com/jeranaias/exportdesk/internal/history"
)

const studentsJSON = `[
	{"nom": "Alice", "classe": "6A", "note": 14.5},
	{"nom": "Bob", "classe": "6B", "note": 11},
	{"nom": "Chloé", "classe": "6A", "note": 17}
]`

type testEnv struct {
	Env
	out *bytes.Buffer
	dir string
}

func newTestEnv(t *testing.T, withHistory bool) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigPath, filepath.Join(dir, "config.toml"))

	cfg := config.Default()
	cfg.Export.OutputDir = filepath.Join(dir, "out")

	out := &bytes.Buffer{}
	te := &testEnv{Env: Env{Config: cfg, Stdout: out, Stderr: out}, out: out, dir: dir}
	if withHistory {
		store, err := history.Open(filepath.Join(dir, "history.db"), 0)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		te.History = store
	}
	return te
}

func (te *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(te.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestHandleExport_CSV(t *testing.T) {
	te := newTestEnv(t, true)
	data := te.write(t, "eleves.json", studentsJSON)
	opts := te.write(t, "opts.toml", "file_name = \"eleves\"\ninclude_timestamp = false\n")
	cols := te.write(t, "cols.json", `[{"header": "Nom", "dataKey": "nom"}, {"header": "Note", "dataKey": "note"}]`)

	err := HandleExport(context.Background(), te.Env, Args{
		Data: data, Options: opts, Columns: cols, Format: "csv", Sort: "note:desc",
	})
	require.NoError(t, err)

	path := filepath.Join(te.dir, "out", "eleves.csv")
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Nom,Note\n\"Chloé\",\"17\"\n\"Alice\",\"14.5\"\n\"Bob\",\"11\"\n", string(content))

	assert.Contains(t, te.out.String(), "[OK] Export CSV terminé")
	assert.Contains(t, te.out.String(), path)
	assert.Contains(t, te.out.String(), "3 lignes")

	runs, err := te.History.List(context.Background(), history.ListOptions{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "csv", runs[0].Format)
	assert.Equal(t, 2, runs[0].Columns)
	assert.True(t, runs[0].Succeeded())
}

func TestHandleExport_JSONOutput(t *testing.T) {
	te := newTestEnv(t, false)
	data := te.write(t, "eleves.json", studentsJSON)

	err := HandleExport(context.Background(), te.Env, Args{Data: data, Format: "excel", Title: "Classe", JSON: true})
	require.NoError(t, err)

	var resp struct {
		Success bool       `json:"success"`
		Data    ExportData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(te.out.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "excel", resp.Data.Format)
	assert.Equal(t, 3, resp.Data.Rows)
	assert.True(t, strings.HasSuffix(resp.Data.Path, ".xlsx"))
	assert.FileExists(t, resp.Data.Path)
}

func TestHandleExport_Errors(t *testing.T) {
	te := newTestEnv(t, true)
	data := te.write(t, "eleves.json", studentsJSON)
	ctx := context.Background()

	err := HandleExport(ctx, te.Env, Args{Format: "csv"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleExport(ctx, te.Env, Args{Data: data})
	assert.Equal(t, ExitUsageError, GetExitCode(err), "missing format")

	err = HandleExport(ctx, te.Env, Args{Data: data, Format: "docx"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleExport(ctx, te.Env, Args{Data: filepath.Join(te.dir, "absent.json"), Format: "csv"})
	assert.Equal(t, ExitNotFound, GetExitCode(err))

	cols := te.write(t, "cols.json", `[{"header": "Âge", "dataKey": "age"}]`)
	err = HandleExport(ctx, te.Env, Args{Data: data, Columns: cols, Format: "csv"})
	assert.Equal(t, ExitUsageError, GetExitCode(err), "unknown data key")

	runs, err := te.History.List(ctx, history.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, runs, "rejected inputs never reach the engine")
}

func TestHandleExport_RecordsFailure(t *testing.T) {
	te := newTestEnv(t, true)
	data := te.write(t, "eleves.json", studentsJSON)
	opts := te.write(t, "opts.json", `{"pageSize": "tabloid"}`)

	err := HandleExport(context.Background(), te.Env, Args{Data: data, Options: opts, Format: "pdf", JSON: true})
	require.Error(t, err)
	assert.True(t, Reported(err))
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	var resp JSONResponse
	require.NoError(t, json.Unmarshal(te.out.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Contains(t, *resp.Error, "page size")

	runs, err := te.History.List(context.Background(), history.ListOptions{Status: history.StatusFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "pdf", runs[0].Format)
}

func TestHandleFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"cours": "Maths"}, {"cours": "Histoire"}]}`))
	}))
	defer srv.Close()

	te := newTestEnv(t, false)
	te.Config.Source.APIBaseURL = srv.URL
	ctx := context.Background()

	err := HandleFetch(ctx, te.Env, Args{URL: "/api/courses"})
	assert.Equal(t, ExitAuthError, GetExitCode(err))

	te.Config.Source.APIToken = "secret"
	require.NoError(t, HandleFetch(ctx, te.Env, Args{URL: "/api/courses"}))
	assert.Contains(t, te.out.String(), `"cours": "Histoire"`)

	te.out.Reset()
	require.NoError(t, HandleFetch(ctx, te.Env, Args{URL: "/api/courses", Format: "csv", Out: te.dir}))
	assert.FileExists(t, filepath.Join(te.dir, "export.csv"))

	err = HandleFetch(ctx, te.Env, Args{})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleHistory(t *testing.T) {
	te := newTestEnv(t, true)
	ctx := context.Background()

	require.NoError(t, HandleHistory(ctx, te.Env, Args{}))
	assert.Contains(t, te.out.String(), "Aucun export enregistré.")

	data := te.write(t, "eleves.json", studentsJSON)
	require.NoError(t, HandleExport(ctx, te.Env, Args{Data: data, Format: "csv"}))
	te.out.Reset()

	require.NoError(t, HandleHistory(ctx, te.Env, Args{}))
	assert.Contains(t, te.out.String(), "export.csv")
	assert.Contains(t, te.out.String(), "1 export, dont 0 en échec")

	te.out.Reset()
	require.NoError(t, HandleHistory(ctx, te.Env, Args{JSON: true}))
	var resp struct {
		Data HistoryData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(te.out.Bytes(), &resp))
	require.Len(t, resp.Data.Runs, 1)
	assert.Equal(t, 1, resp.Data.Stats.Total)

	err := HandleHistory(ctx, te.Env, Args{Status: "maybe"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleHistory_Disabled(t *testing.T) {
	te := newTestEnv(t, false)
	assert.Error(t, HandleHistory(context.Background(), te.Env, Args{}))
}

func TestHandleConfig(t *testing.T) {
	te := newTestEnv(t, false)
	path := filepath.Join(te.dir, "config.toml")

	require.NoError(t, HandleConfig(te.Env, Args{Subcommand: "path"}))
	assert.Equal(t, path+"\n", te.out.String())

	require.NoError(t, HandleConfig(te.Env, Args{Subcommand: "init"}))
	assert.FileExists(t, path)
	assert.Error(t, HandleConfig(te.Env, Args{Subcommand: "init"}), "refuses to clobber")

	te.out.Reset()
	require.NoError(t, HandleConfig(te.Env, Args{Subcommand: "set", ConfigKey: "export.page_size", ConfigVal: "a3", ConfigValSet: true}))
	loaded, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "a3", loaded.Export.PageSize)

	err = HandleConfig(te.Env, Args{Subcommand: "set", ConfigKey: "export.page_size", ConfigVal: "tabloid", ConfigValSet: true})
	assert.Equal(t, ExitConfigError, GetExitCode(err))
	assert.Equal(t, "a3", te.Config.Export.PageSize, "failed set is rolled back")

	te.out.Reset()
	require.NoError(t, HandleConfig(te.Env, Args{Subcommand: "get", ConfigKey: "export.page_size"}))
	assert.Equal(t, "a3\n", te.out.String())

	err = HandleConfig(te.Env, Args{Subcommand: "set", ConfigKey: "export.page_size"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleConfig(te.Env, Args{Subcommand: "purge"})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleConfig_MasksToken(t *testing.T) {
	te := newTestEnv(t, false)
	te.Config.Source.APIToken = "abcdef123456"

	require.NoError(t, HandleConfig(te.Env, Args{Subcommand: "get", ConfigKey: "source.api_token"}))
	assert.Equal(t, "********3456\n", te.out.String())

	te.out.Reset()
	require.NoError(t, HandleConfig(te.Env, Args{Subcommand: "show", JSON: true}))
	assert.NotContains(t, te.out.String(), "abcdef123456")
	assert.Contains(t, te.out.String(), "[REDACTED]")
}
