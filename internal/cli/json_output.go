// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/jeranaias/exportdesk/internal/history"
)

// JSONResponse is the envelope every --json command prints.
type JSONResponse struct {
	Success   bool    `json:"success"`
	Data      any     `json:"data"`
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
	Command   string  `json:"command,omitempty"`
}

// NewJSONResponse wraps data in a successful response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse wraps err in a failed response. data may carry
// partial results such as a failed export record.
func NewJSONErrorResponse(command string, err error, data any) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Data:      data,
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// Write encodes r, indented, to w.
func (r *JSONResponse) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// ExportData is printed by export and fetch.
type ExportData struct {
	ID         string `json:"id,omitempty"`
	Format     string `json:"format"`
	Path       string `json:"path,omitempty"`
	FileName   string `json:"file_name,omitempty"`
	Rows       int    `json:"rows"`
	Columns    int    `json:"columns"`
	SizeBytes  int64  `json:"size_bytes"`
	DurationMs int64  `json:"duration_ms"`
}

func exportDataFrom(run history.Run) ExportData {
	return ExportData{
		ID:         run.ID,
		Format:     run.Format,
		Path:       run.Path,
		FileName:   run.FileName,
		Rows:       run.Rows,
		Columns:    run.Columns,
		SizeBytes:  run.SizeBytes,
		DurationMs: run.Duration.Milliseconds(),
	}
}

// HistoryData is printed by history.
type HistoryData struct {
	Runs  []history.Run `json:"runs"`
	Stats history.Stats `json:"stats"`
}

// ConfigPathData is printed by config path.
type ConfigPathData struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// VersionData is printed by version.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}
