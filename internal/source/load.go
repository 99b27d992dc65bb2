// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package source

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/exportdesk/internal/export"
)

// ErrUnsupportedFile is returned for file extensions the loaders do not read.
var ErrUnsupportedFile = errors.New("unsupported file type")

// envelopeKeys are the object keys searched for a row array, in order.
var envelopeKeys = []string{"data", "rows", "items"}

// =============================================================================
// ROWS
// =============================================================================

// LoadRows reads rows from a .json or .csv file.
func LoadRows(path string) ([]export.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		rows, err := ReadJSONRows(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return rows, nil
	case ".csv":
		rows, err := ReadCSVRows(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
}

// ReadJSONRows decodes a JSON array of objects, or an object holding one.
// Numbers keep full precision until they are converted to values.
func ReadJSONRows(r io.Reader) ([]export.Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}

	items, err := rowArray(raw)
	if err != nil {
		return nil, err
	}

	maps := make([]map[string]any, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("row %d: expected an object, got %s", i, jsonKind(item))
		}
		for k, v := range obj {
			obj[k] = flatten(v)
		}
		maps[i] = obj
	}
	return export.RowsFromMaps(maps)
}

func rowArray(raw any) ([]any, error) {
	switch x := raw.(type) {
	case []any:
		return x, nil
	case map[string]any:
		for _, k := range envelopeKeys {
			if arr, ok := x[k].([]any); ok {
				return arr, nil
			}
		}
		return nil, fmt.Errorf("object has no %s array", strings.Join(envelopeKeys, "/"))
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected an array of rows, got %s", jsonKind(raw))
	}
}

// flatten turns nested JSON into compact text so every cell is a scalar.
func flatten(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return v
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ReadCSVRows reads a CSV table whose first record is the header. Cells are
// typed by content: empty is null, true/false are booleans, plain numbers are
// numbers, RFC 3339 timestamps are times, anything else stays text.
func ReadCSVRows(r io.Reader) ([]export.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows []export.Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := make(export.Row, len(header))
		for i, key := range header {
			if key == "" {
				continue
			}
			if i < len(rec) {
				row[key] = InferValue(rec[i])
			} else {
				row[key] = export.NullValue()
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// InferValue types a text cell. Numbers with a leading zero such as "007"
// stay text since they are usually codes.
func InferValue(s string) export.Value {
	t := strings.TrimSpace(s)
	if t == "" {
		return export.NullValue()
	}
	switch strings.ToLower(t) {
	case "true":
		return export.BoolValue(true)
	case "false":
		return export.BoolValue(false)
	}
	if looksNumeric(t) {
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return export.NumberValue(f)
		}
	}
	if ts, err := time.Parse(time.RFC3339, t); err == nil {
		return export.TimeValue(ts)
	}
	return export.StringValue(s)
}

func looksNumeric(s string) bool {
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return false
	}
	for _, r := range digits {
		if (r < '0' || r > '9') && r != '.' && r != 'e' && r != 'E' && r != '-' && r != '+' {
			return false
		}
	}
	return digits != ""
}

// =============================================================================
// COLUMNS AND OPTIONS
// =============================================================================

type columnsFile struct {
	Columns []export.Column `toml:"columns" json:"columns"`
}

// LoadColumns reads column definitions from JSON (an array, or an object
// with a "columns" array) or TOML ([[columns]] tables).
func LoadColumns(path string) ([]export.Column, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cf columnsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			err = json.Unmarshal(trimmed, &cf.Columns)
		} else {
			err = json.Unmarshal(trimmed, &cf)
		}
	case ".toml":
		_, err = toml.Decode(string(data), &cf)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for i, c := range cf.Columns {
		if c.DataKey == "" {
			return nil, fmt.Errorf("%s: column %d: %w", path, i, export.ErrInvalidColumn)
		}
		if c.Header == "" {
			cf.Columns[i].Header = c.DataKey
		}
	}
	return cf.Columns, nil
}

// LoadOptions decodes an options file over base. Keys the file omits keep
// base's values.
func LoadOptions(path string, base export.Options) (export.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}

	opts := base.Clone()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &opts)
	case ".toml":
		_, err = toml.Decode(string(data), &opts)
	default:
		return base, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
	if err != nil {
		return base, fmt.Errorf("%s: %w", path, err)
	}
	opts.Theme = opts.Theme.WithDefaults()
	return opts, nil
}
