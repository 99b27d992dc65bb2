// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/exportdesk/internal/config"
	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/history"
	"github.com/jeranaias/exportdesk/internal/source"
)

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{nil, CmdTUI},
		{[]string{"--data", "rows.json"}, CmdTUI},
		{[]string{"tui", "rows.json", "--watch"}, CmdTUI},
		{[]string{"export", "--format", "pdf"}, CmdExport},
		{[]string{"FETCH", "/api/courses"}, CmdFetch},
		{[]string{"history"}, CmdHistory},
		{[]string{"config", "show"}, CmdConfig},
		{[]string{"version"}, CmdVersion},
		{[]string{"help"}, CmdHelp},
		{[]string{"export", "--help"}, CmdHelp},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.argv), func(t *testing.T) {
			cmd, _, err := Parse(tt.argv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestParse_UnknownCommand(t *testing.T) {
	_, _, err := Parse([]string{"imprimer"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "imprimer", ve.Value)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestParse_Flags(t *testing.T) {
	_, args, err := Parse([]string{
		"export", "eleves.json",
		"--format", "excel", "--out", "/tmp/out",
		"--group-by", "classe", "--sort=nom:desc",
		"--title", "Bilan", "--json", "--overwrite",
		"--limit", "3",
	})
	require.NoError(t, err)
	assert.Equal(t, "eleves.json", args.Data)
	assert.Equal(t, "excel", args.Format)
	assert.Equal(t, "/tmp/out", args.Out)
	assert.Equal(t, "classe", args.GroupBy)
	assert.Equal(t, "nom:desc", args.Sort)
	assert.Equal(t, "Bilan", args.Title)
	assert.True(t, args.JSON)
	assert.True(t, args.Overwrite)
	assert.False(t, args.Open)
	assert.Equal(t, 3, args.Limit)
}

func TestParse_ConfigSet(t *testing.T) {
	_, args, err := Parse([]string{"config", "set", "export.author", ""})
	require.NoError(t, err)
	assert.Equal(t, "set", args.Subcommand)
	assert.Equal(t, "export.author", args.ConfigKey)
	assert.Equal(t, "", args.ConfigVal)
	assert.True(t, args.ConfigValSet)

	_, args, err = Parse([]string{"config", "set", "export.author"})
	require.NoError(t, err)
	assert.False(t, args.ConfigValSet)
}

func TestParse_BadLimit(t *testing.T) {
	_, _, err := Parse([]string{"history", "--limit", "zero"})
	assert.Error(t, err)
}

func TestParseSort(t *testing.T) {
	by, err := ParseSort("date")
	require.NoError(t, err)
	assert.Equal(t, &export.SortBy{Field: "date", Direction: export.Ascending}, by)

	by, err = ParseSort("date:DESC")
	require.NoError(t, err)
	assert.Equal(t, export.Descending, by.Direction)

	_, err = ParseSort(":desc")
	assert.Error(t, err)
	_, err = ParseSort("date:sideways")
	assert.Error(t, err)
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", ErrMissingArgument("--data", ""), ExitUsageError},
		{"config", config.ValidateErrors{{Field: "ui.theme", Message: "bad"}}, ExitConfigError},
		{"unauthorized", &source.FetchError{Type: source.ErrTypeUnauthorized, Message: "401"}, ExitAuthError},
		{"timeout", &source.FetchError{Type: source.ErrTypeTimeout, Message: "slow"}, ExitTimeout},
		{"network", &source.FetchError{Type: source.ErrTypeConnection, Message: "refused"}, ExitNetworkError},
		{"history", fmt.Errorf("get: %w", history.ErrNotFound), ExitNotFound},
		{"page size", NewCommandError("export", "pdf", export.ErrUnsupportedPageSize), ExitUsageError},
		{"export", NewCommandError("export", "pdf", errors.New("disk full")), ExitExportError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError_JSON(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, ErrMissingArgument("--url", ""), true)

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "validation_error", out["error_type"])
}

func TestHandleVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HandleVersion(Env{Stdout: &buf}, Args{}))
	assert.Contains(t, buf.String(), "exportdesk version "+Version)

	buf.Reset()
	require.NoError(t, HandleVersion(Env{Stdout: &buf}, Args{JSON: true}))
	var resp struct {
		Success bool        `json:"success"`
		Data    VersionData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, Version, resp.Data.Version)
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	for _, cmd := range []string{"export", "fetch", "history", "config"} {
		assert.Contains(t, buf.String(), "exportdesk "+cmd)
	}
}
