// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete exportdesk configuration.
type Config struct {
	Export  ExportConfig  `toml:"export" json:"export"`
	Source  SourceConfig  `toml:"source" json:"source"`
	History HistoryConfig `toml:"history" json:"history"`
	Log     LogConfig     `toml:"log" json:"log"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// ExportConfig holds defaults applied to every export.
type ExportConfig struct {
	// OutputDir receives saved artifacts. Empty means the working directory.
	OutputDir       string `toml:"output_dir" json:"output_dir"`
	OpenAfterExport bool   `toml:"open_after_export" json:"open_after_export"`
	Overwrite       bool   `toml:"overwrite" json:"overwrite"`

	// ExcelMode is "xlsx" for real workbooks or "csv" for the legacy
	// CSV-as-Excel behavior.
	ExcelMode string `toml:"excel_mode" json:"excel_mode"`

	TimestampLayout string `toml:"timestamp_layout" json:"timestamp_layout"`
	DateLayout      string `toml:"date_layout" json:"date_layout"`

	PageSize    string       `toml:"page_size" json:"page_size"`
	Orientation string       `toml:"orientation" json:"orientation"`
	Author      string       `toml:"author" json:"author"`
	Theme       export.Theme `toml:"theme" json:"theme"`
}

// SourceConfig configures where rows come from when fetched over HTTP.
type SourceConfig struct {
	APIBaseURL       string `toml:"api_base_url" json:"api_base_url"`
	APIToken         string `toml:"api_token" json:"api_token"`
	FetchTimeoutSecs int    `toml:"fetch_timeout_secs" json:"fetch_timeout_secs"`
}

// HistoryConfig configures the export history database.
type HistoryConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	DBPath  string `toml:"db_path" json:"db_path"`
	// MaxEntries bounds the number of runs kept. 0 keeps everything.
	MaxEntries int `toml:"max_entries" json:"max_entries"`
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	Level      string `toml:"level" json:"level"`
	File       string `toml:"file" json:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups"`
	Compress   bool   `toml:"compress" json:"compress"`
}

// UIConfig holds terminal UI preferences.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme       string `toml:"theme" json:"theme"`
	PreviewRows int    `toml:"preview_rows" json:"preview_rows"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with default values. Paths under the config
// directory are left empty here and resolved by SetDefaults.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			OpenAfterExport: false,
			ExcelMode:       string(export.ExcelXLSX),
			TimestampLayout: export.TimestampLayout,
			DateLayout:      export.DateLayout,
			PageSize:        "a4",
			Orientation:     string(export.Portrait),
			Theme:           export.DefaultTheme(),
		},
		Source: SourceConfig{
			FetchTimeoutSecs: 30,
		},
		History: HistoryConfig{
			Enabled:    true,
			MaxEntries: 500,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
		UI: UIConfig{
			Theme:       "auto",
			PreviewRows: 5,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// EnvConfigPath names the variable that points at an alternate config file.
const EnvConfigPath = "EXPORTDESK_CONFIG"

// ConfigDir returns ~/.exportdesk.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".exportdesk"), nil
}

// ConfigPath returns the config file path, honoring EXPORTDESK_CONFIG.
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file if it exists and falls back to defaults when it
// does not. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		return finish(cfg)
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from path. Files ending in .json are read
// as JSON; everything else is TOML. Keys absent from the file keep their
// default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON config %s: %w", path, err)
		}
	} else {
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("decode TOML config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

const fileHeader = "# exportdesk configuration\n# Generated by exportdesk; edit with care.\n\n"

// Save writes cfg to the default config path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML. The file is created 0600 since it may hold
// the API token.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid setting found by Validate.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = []string{"trace", "debug", "info", "warn", "warning", "error"}

// Validate checks every section and returns ValidateErrors when anything is
// out of range.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Export
	switch export.ExcelMode(strings.ToLower(c.Export.ExcelMode)) {
	case export.ExcelXLSX, export.ExcelLegacyCSV:
	default:
		add("export.excel_mode", "invalid mode %q, must be one of: xlsx, csv", c.Export.ExcelMode)
	}
	if !slices.Contains(export.PageSizes, strings.ToLower(c.Export.PageSize)) {
		add("export.page_size", "invalid page size %q, must be one of: %s", c.Export.PageSize, strings.Join(export.PageSizes, ", "))
	}
	switch export.Orientation(strings.ToLower(c.Export.Orientation)) {
	case export.Portrait, export.Landscape:
	default:
		add("export.orientation", "invalid orientation %q, must be portrait or landscape", c.Export.Orientation)
	}
	if strings.TrimSpace(c.Export.TimestampLayout) == "" {
		add("export.timestamp_layout", "must not be empty")
	}
	if strings.TrimSpace(c.Export.DateLayout) == "" {
		add("export.date_layout", "must not be empty")
	}
	theme := map[string]string{
		"primary":                  c.Export.Theme.Primary,
		"secondary":                c.Export.Theme.Secondary,
		"header_background":        c.Export.Theme.HeaderBackground,
		"header_text":              c.Export.Theme.HeaderText,
		"alternate_row_background": c.Export.Theme.AlternateRowBackground,
		"text":                     c.Export.Theme.Text,
		"background":               c.Export.Theme.Background,
	}
	for _, name := range sortedKeys(theme) {
		if v := theme[name]; v != "" && !export.IsHexColor(v) {
			add("export.theme."+name, "invalid color %q, expected #rgb or #rrggbb", v)
		}
	}

	// Source
	if c.Source.APIBaseURL != "" {
		u, err := url.Parse(c.Source.APIBaseURL)
		if err != nil {
			add("source.api_base_url", "invalid URL: %v", err)
		} else if u.Scheme != "http" && u.Scheme != "https" {
			add("source.api_base_url", "scheme must be http or https, got %q", u.Scheme)
		}
	}
	if c.Source.FetchTimeoutSecs < 1 || c.Source.FetchTimeoutSecs > 600 {
		add("source.fetch_timeout_secs", "must be between 1 and 600, got %d", c.Source.FetchTimeoutSecs)
	}

	// History
	if c.History.MaxEntries < 0 {
		add("history.max_entries", "cannot be negative")
	}

	// Log
	if !slices.Contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		add("log.level", "invalid level %q, must be one of: %s", c.Log.Level, strings.Join(validLogLevels, ", "))
	}
	if c.Log.MaxSizeMB < 0 {
		add("log.max_size_mb", "cannot be negative")
	}
	if c.Log.MaxBackups < 0 {
		add("log.max_backups", "cannot be negative")
	}

	// UI
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "invalid theme %q, must be one of: auto, dark, light", c.UI.Theme)
	}
	if c.UI.PreviewRows < 1 || c.UI.PreviewRows > 50 {
		add("ui.preview_rows", "must be between 1 and 50, got %d", c.UI.PreviewRows)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills empty fields, including paths under the config directory.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Export.ExcelMode == "" {
		c.Export.ExcelMode = d.Export.ExcelMode
	}
	if c.Export.TimestampLayout == "" {
		c.Export.TimestampLayout = d.Export.TimestampLayout
	}
	if c.Export.DateLayout == "" {
		c.Export.DateLayout = d.Export.DateLayout
	}
	if c.Export.PageSize == "" {
		c.Export.PageSize = d.Export.PageSize
	}
	if c.Export.Orientation == "" {
		c.Export.Orientation = d.Export.Orientation
	}
	c.Export.Theme = c.Export.Theme.WithDefaults()

	if c.Source.FetchTimeoutSecs == 0 {
		c.Source.FetchTimeoutSecs = d.Source.FetchTimeoutSecs
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = d.Log.MaxSizeMB
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.PreviewRows == 0 {
		c.UI.PreviewRows = d.UI.PreviewRows
	}

	dir, err := ConfigDir()
	if err != nil {
		return
	}
	if c.History.DBPath == "" {
		c.History.DBPath = filepath.Join(dir, "history.db")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(dir, "exportdesk.log")
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - EXPORTDESK_OUTPUT_DIR: export.output_dir
//   - EXPORTDESK_EXCEL_MODE: export.excel_mode
//   - EXPORTDESK_LOG_LEVEL: log.level
//   - EXPORTDESK_API_TOKEN: source.api_token
//   - EXPORTDESK_API_URL: source.api_base_url
func (c *Config) ApplyEnvOverrides() {
	if dir := os.Getenv("EXPORTDESK_OUTPUT_DIR"); dir != "" {
		c.Export.OutputDir = dir
	}
	if mode := os.Getenv("EXPORTDESK_EXCEL_MODE"); mode != "" {
		c.Export.ExcelMode = strings.ToLower(mode)
	}
	if level := os.Getenv("EXPORTDESK_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if token := os.Getenv("EXPORTDESK_API_TOKEN"); token != "" {
		c.Source.APIToken = token
	}
	if u := os.Getenv("EXPORTDESK_API_URL"); u != "" {
		c.Source.APIBaseURL = u
	}
}

// =============================================================================
// EXPORT WIRING
// =============================================================================

// ExportOptions returns engine options seeded from the [export] section.
func (c *Config) ExportOptions() export.Options {
	opts := export.DefaultOptions()
	opts.PageSize = strings.ToLower(c.Export.PageSize)
	opts.Orientation = export.Orientation(strings.ToLower(c.Export.Orientation))
	opts.Author = c.Export.Author
	opts.Theme = c.Export.Theme.WithDefaults()
	return opts
}

// ExcelMode returns the configured Excel mode.
func (c *Config) ExcelMode() export.ExcelMode {
	return export.ExcelMode(strings.ToLower(c.Export.ExcelMode))
}

// SaveOptions returns where and how artifacts are written.
func (c *Config) SaveOptions() export.SaveOptions {
	return export.SaveOptions{
		OutputDir: c.Export.OutputDir,
		Overwrite: c.Export.Overwrite,
		Open:      c.Export.OpenAfterExport,
	}
}

// ApplyLayouts installs the configured timestamp and date layouts in the
// export engine.
func (c *Config) ApplyLayouts() {
	export.TimestampLayout = c.Export.TimestampLayout
	export.DateLayout = c.Export.DateLayout
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get returns the value at a dotted TOML key such as "export.page_size".
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a string value to a dotted TOML key, converting it to the
// field's type, then re-validates the config.
func (c *Config) Set(key, value string) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}

	prev := reflect.New(field.Type()).Elem()
	prev.Set(field)

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, value)
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: invalid boolean %q", key, value)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("%s: cannot set a %s", key, field.Kind())
	}

	if err := c.Validate(); err != nil {
		field.Set(prev)
		return err
	}
	return nil
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(strings.TrimSpace(key), ".")
	if len(parts) == 0 || parts[0] == "" {
		return reflect.Value{}, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("%s is not a section", strings.Join(parts[:i], "."))
		}
		idx := fieldByTag(v.Type(), part)
		if idx < 0 {
			return reflect.Value{}, fmt.Errorf("unknown key: %s", strings.Join(parts[:i+1], "."))
		}
		v = v.Field(idx)
	}
	if v.Kind() == reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%s is a section, not a key", key)
	}
	return v, nil
}

func fieldByTag(t reflect.Type, name string) int {
	for i := 0; i < t.NumField(); i++ {
		if tomlName(t.Field(i)) == name {
			return i
		}
	}
	return -1
}

func tomlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	return name
}

// AllKeys lists every settable key in dot notation, in declaration order.
func AllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := tomlName(f)
			if name == "" || name == "-" {
				continue
			}
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, prefix+name+".")
				continue
			}
			keys = append(keys, prefix+name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone returns a copy of c. Config holds no reference types, so a value copy
// is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String renders the config as TOML with the API token redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Source.APIToken != "" {
		safe.Source.APIToken = "[REDACTED]"
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return buf.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
