// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/jeranaias/exportdesk/internal/config"
	"github.com/jeranaias/exportdesk/internal/history"
)

// Version information, set at build time with -ldflags.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command is the subcommand to run.
type Command int

const (
	CmdTUI Command = iota
	CmdExport
	CmdFetch
	CmdHistory
	CmdConfig
	CmdVersion
	CmdHelp
)

var commandNames = map[string]Command{
	"tui":     CmdTUI,
	"export":  CmdExport,
	"fetch":   CmdFetch,
	"history": CmdHistory,
	"config":  CmdConfig,
	"version": CmdVersion,
	"help":    CmdHelp,
}

// Args holds parsed arguments for every command.
type Args struct {
	// Global flags
	JSON       bool
	Verbose    bool
	ConfigPath string

	// Data and export flags
	Data      string
	Columns   string
	Options   string
	Format    string
	Out       string
	GroupBy   string
	Sort      string
	Title     string
	Open      bool
	Overwrite bool
	Watch     bool

	// fetch
	URL   string
	Token string

	// history
	Limit  int
	Status string

	// config
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	// ConfigValSet distinguishes "set key ''" from a missing value.
	ConfigValSet bool

	Raw []string
}

var boolFlagNames = []string{"json", "verbose", "v", "watch", "w", "open", "overwrite", "help", "h"}

const usageText = `exportdesk - export tabular data to CSV, Excel and PDF

Usage:
  exportdesk [tui] --data FILE [options]   Open the interactive export dialog
  exportdesk export --format F --data FILE  Export without the TUI
  exportdesk fetch --url URL [--format F]   Export rows fetched from an API
  exportdesk history [--limit N]            List recent exports
  exportdesk config [show|path|init|get|set|keys]
  exportdesk version
  exportdesk help

Data options:
  --data FILE        Rows as JSON (array, or {"data": [...]}) or CSV
  --columns FILE     Column definitions (JSON or TOML)
  --options FILE     Export options (JSON or TOML) over the config defaults
  --watch, -w        Reload the TUI when the data file changes

Export options:
  --format F         csv, excel or pdf
  --out DIR          Output directory (default: export.output_dir)
  --title T          Report title
  --group-by KEY     Group rows by a column
  --sort KEY[:desc]  Sort rows by a column
  --open             Open the file once written
  --overwrite        Replace an existing file instead of numbering it

Fetch options:
  --url URL          Absolute URL, or a path under source.api_base_url
  --token T          Bearer token (default: source.api_token)

History options:
  --limit N          Number of runs to list (default: 20)
  --status S         Only "ok" or "failed" runs

Global options:
  --json             Machine-readable output
  --config FILE      Alternate config file
  --verbose, -v      Also log to stderr

Environment:
  EXPORTDESK_CONFIG, EXPORTDESK_OUTPUT_DIR, EXPORTDESK_EXCEL_MODE,
  EXPORTDESK_LOG_LEVEL, EXPORTDESK_API_URL, EXPORTDESK_API_TOKEN, NO_COLOR

Version: %s
`

// PrintUsage writes the help text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// Parse resolves the command and its flags from argv, which excludes the
// program name. No command, or a leading flag, means the TUI.
func Parse(argv []string) (Command, Args, error) {
	cmd := CmdTUI
	rest := argv
	if len(argv) > 0 && !strings.HasPrefix(argv[0], "-") {
		c, ok := commandNames[strings.ToLower(argv[0])]
		if !ok {
			return CmdHelp, Args{}, &ValidationError{
				Field:   "command",
				Value:   argv[0],
				Reason:  "unknown command",
				Example: "exportdesk help",
			}
		}
		cmd, rest = c, argv[1:]
	}

	p := NewArgParser(rest, boolFlagNames...)
	if p.BoolFlag("help", "h") {
		return CmdHelp, Args{Raw: rest}, nil
	}

	args := Args{
		JSON:       p.BoolFlag("json"),
		Verbose:    p.BoolFlag("verbose", "v"),
		ConfigPath: p.Flag("config"),
		Data:       p.Flag("data", "d"),
		Columns:    p.Flag("columns"),
		Options:    p.Flag("options"),
		Format:     p.Flag("format", "f"),
		Out:        p.Flag("out", "o"),
		GroupBy:    p.Flag("group-by"),
		Sort:       p.Flag("sort"),
		Title:      p.Flag("title"),
		Open:       p.BoolFlag("open"),
		Overwrite:  p.BoolFlag("overwrite"),
		Watch:      p.BoolFlag("watch", "w"),
		URL:        p.Flag("url"),
		Token:      p.Flag("token"),
		Status:     p.Flag("status"),
		Subcommand: p.Subcommand(),
		Raw:        rest,
	}

	limit, err := p.FlagInt("limit", 0)
	if err != nil {
		return cmd, args, err
	}
	args.Limit = limit

	switch cmd {
	case CmdConfig:
		args.ConfigKey = p.Positional(1)
		args.ConfigVal = p.Positional(2)
		args.ConfigValSet = p.PositionalCount() > 2
	case CmdFetch:
		if args.URL == "" {
			args.URL = p.Positional(0)
		}
	case CmdTUI, CmdExport:
		if args.Data == "" {
			args.Data = p.Positional(0)
		}
	}
	return cmd, args, nil
}

// Env carries the process resources commands need.
type Env struct {
	Config *config.Config
	Stdout io.Writer
	Stderr io.Writer

	// History records export runs. Nil disables recording.
	History *history.Store
}

// HandleVersion prints build information.
func HandleVersion(env Env, args Args) error {
	data := VersionData{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	if args.JSON {
		return NewJSONResponse("version", data).Write(env.Stdout)
	}
	fmt.Fprintf(env.Stdout, "exportdesk version %s\n", data.Version)
	fmt.Fprintf(env.Stdout, "  Git commit: %s\n", data.GitCommit)
	fmt.Fprintf(env.Stdout, "  Build date: %s\n", data.BuildDate)
	fmt.Fprintf(env.Stdout, "  Go:         %s\n", data.GoVersion)
	return nil
}
