// exportdesk - export tabular data to CSV, Excel and PDF from the terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/exportdesk/internal/cli"
	"github.com/jeranaias/exportdesk/internal/config"
	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/history"
	"github.com/jeranaias/exportdesk/internal/logger"
	"github.com/jeranaias/exportdesk/internal/source"
	"github.com/jeranaias/exportdesk/internal/ui/app"
	"github.com/jeranaias/exportdesk/internal/ui/components"
	"github.com/jeranaias/exportdesk/internal/ui/exportbutton"
	"github.com/jeranaias/exportdesk/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes one command and returns the process exit code. Deferred
// cleanup runs before main exits.
func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		return fail(err, args.JSON)
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		if err := cli.HandleVersion(cli.Env{Stdout: os.Stdout}, args); err != nil {
			return fail(err, args.JSON)
		}
		return cli.ExitSuccess
	}

	if args.ConfigPath != "" {
		os.Setenv(config.EnvConfigPath, args.ConfigPath)
	}
	cfg, err := config.Load()
	if err != nil {
		return fail(err, args.JSON)
	}
	cfg.ApplyLayouts()

	closer, err := logger.InitLogger(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
		// The TUI owns the terminal.
		Console: args.Verbose && cmd != cli.CmdTUI,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := cli.Env{Config: cfg, Stdout: os.Stdout, Stderr: os.Stderr}
	if store := openHistory(cfg); store != nil {
		defer store.Close()
		env.History = store
	}

	switch cmd {
	case cli.CmdTUI:
		err = runTUI(ctx, env, args)
	case cli.CmdExport:
		err = cli.HandleExport(ctx, env, args)
	case cli.CmdFetch:
		err = cli.HandleFetch(ctx, env, args)
	case cli.CmdHistory:
		err = cli.HandleHistory(ctx, env, args)
	case cli.CmdConfig:
		err = cli.HandleConfig(env, args)
	}
	if err != nil {
		logger.WithComponent("main").WithError(err).Error("command failed")
		return fail(err, args.JSON)
	}
	return cli.ExitSuccess
}

// fail reports err and returns its exit code.
func fail(err error, jsonMode bool) int {
	switch {
	case cli.Reported(err):
	case jsonMode:
		cli.DisplayError(os.Stdout, err, true)
	default:
		cli.DisplayError(os.Stderr, err, false)
	}
	return cli.GetExitCode(err)
}

// openHistory opens the run log, or returns nil when it is disabled or
// unavailable. History never blocks an export.
func openHistory(cfg *config.Config) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(cfg.History.DBPath, cfg.History.MaxEntries)
	if err != nil {
		logger.WithComponent("main").WithError(err).Warn("history unavailable")
		return nil
	}
	return store
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(ctx context.Context, env cli.Env, args cli.Args) error {
	if err := cli.RequiresTTY("start the export dialog"); err != nil {
		return err
	}

	cfg := env.Config
	in, err := cli.LoadInputs(cfg, args)
	if err != nil {
		return err
	}

	opts := app.Options{
		Theme: styles.NewThemeFor(cfg.UI.Theme),
		Button: exportbutton.Config{
			ExcelMode:   cfg.ExcelMode(),
			Save:        cfg.SaveOptions(),
			Defaults:    in.Options,
			PreviewRows: cfg.UI.PreviewRows,
		},
		Columns: in.Columns,
	}
	if env.History != nil {
		opts.Recorder = env.History
	}

	switch {
	case args.URL != "":
		client := source.NewClient(source.ClientConfig{
			BaseURL: cfg.Source.APIBaseURL,
			Token:   firstNonEmpty(args.Token, cfg.Source.APIToken),
			Timeout: time.Duration(cfg.Source.FetchTimeoutSecs) * time.Second,
		})
		opts.Source, opts.State = args.URL, components.SourceRemote
		opts.Reload = func(ctx context.Context) ([]export.Row, error) {
			return client.Fetch(ctx, args.URL)
		}
		if opts.Rows, err = client.Fetch(ctx, args.URL); err != nil {
			return cli.NewCommandError("tui", "fetch", err)
		}

	case args.Data != "":
		opts.Source, opts.State = filepath.Base(args.Data), components.SourceStatic
		opts.Reload = func(context.Context) ([]export.Row, error) {
			return source.LoadRows(args.Data)
		}
		if opts.Rows, err = source.LoadRows(args.Data); err != nil {
			return cli.NewCommandError("tui", "load data", err)
		}
		if args.Watch {
			w, err := source.NewWatcher(args.Data, source.DefaultDebounce)
			if err != nil {
				return cli.NewCommandError("tui", "watch", err)
			}
			if err := w.Watch(); err != nil {
				w.Close()
				return cli.NewCommandError("tui", "watch", err)
			}
			defer w.Close()
			opts.Watcher, opts.State = w, components.SourceWatching
		}
	}

	if _, err := export.NewDataset(opts.Rows, in.Columns); err != nil {
		return cli.NewCommandError("tui", "validate", err)
	}

	log := logger.WithComponent("main").WithField("source", opts.Source).WithField("rows", len(opts.Rows))
	log.Info("starting TUI")

	p := tea.NewProgram(app.New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	log.Info("TUI closed")
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
