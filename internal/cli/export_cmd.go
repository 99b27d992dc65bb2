// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/exportdesk/internal/config"
	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/history"
	"github.com/jeranaias/exportdesk/internal/logger"
	"github.com/jeranaias/exportdesk/internal/source"
	"github.com/jeranaias/exportdesk/internal/ui/components"
)

const recordTimeout = 5 * time.Second

// Inputs is everything an export needs besides the rows.
type Inputs struct {
	Columns []export.Column
	Options export.Options
}

// LoadInputs builds export options from the config, the --options and
// --columns files, and the inline flags, in that order of precedence.
func LoadInputs(cfg *config.Config, args Args) (Inputs, error) {
	opts := cfg.ExportOptions()
	if args.Options != "" {
		o, err := source.LoadOptions(args.Options, opts)
		if err != nil {
			return Inputs{}, NewCommandError("options", "load", err)
		}
		opts = o
	}

	if args.Columns != "" {
		cols, err := source.LoadColumns(args.Columns)
		if err != nil {
			return Inputs{}, NewCommandError("columns", "load", err)
		}
		opts.Columns = cols
	}

	if args.Title != "" {
		opts.Title = args.Title
	}
	if args.GroupBy != "" {
		opts.GroupBy = args.GroupBy
	}
	if args.Sort != "" {
		by, err := ParseSort(args.Sort)
		if err != nil {
			return Inputs{}, err
		}
		opts.SortBy = by
	}
	return Inputs{Columns: opts.Columns, Options: opts}, nil
}

// ParseSort reads "key", "key:asc" or "key:desc".
func ParseSort(s string) (*export.SortBy, error) {
	field, dir, _ := strings.Cut(strings.TrimSpace(s), ":")
	if field == "" {
		return nil, &ValidationError{Field: "--sort", Value: s, Reason: "missing column key", Example: "--sort date:desc"}
	}
	by := &export.SortBy{Field: field, Direction: export.Ascending}
	switch strings.ToLower(dir) {
	case "", "asc":
	case "desc":
		by.Direction = export.Descending
	default:
		return nil, &ValidationError{Field: "--sort", Value: s, Reason: "direction must be asc or desc", Example: "--sort date:desc"}
	}
	return by, nil
}

// HandleExport exports a data file without the TUI.
func HandleExport(ctx context.Context, env Env, args Args) error {
	if args.Data == "" {
		return ErrMissingArgument("--data", "exportdesk export --format csv --data eleves.json")
	}
	rows, err := source.LoadRows(args.Data)
	if err != nil {
		return NewCommandError("export", "load data", err)
	}
	return runExport(ctx, env, args, "export", rows)
}

// HandleFetch fetches rows from the API. With --format the rows are
// exported; without it they are printed as JSON.
func HandleFetch(ctx context.Context, env Env, args Args) error {
	if args.URL == "" {
		return ErrMissingArgument("--url", "exportdesk fetch --url /api/courses --format pdf")
	}

	token := args.Token
	if token == "" {
		token = env.Config.Source.APIToken
	}
	client := source.NewClient(source.ClientConfig{
		BaseURL: env.Config.Source.APIBaseURL,
		Token:   token,
		Timeout: time.Duration(env.Config.Source.FetchTimeoutSecs) * time.Second,
	})

	rows, err := client.Fetch(ctx, args.URL)
	if err != nil {
		return NewCommandError("fetch", args.URL, err)
	}
	logger.WithComponent("cli").WithField("url", args.URL).WithField("rows", len(rows)).Info("rows fetched")

	if args.Format == "" {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	return runExport(ctx, env, args, "fetch", rows)
}

func runExport(ctx context.Context, env Env, args Args, command string, rows []export.Row) error {
	if args.Format == "" {
		return ErrMissingArgument("--format", "--format csv|excel|pdf")
	}
	format, err := export.ParseFormat(args.Format)
	if err != nil {
		return &ValidationError{Field: "--format", Value: args.Format, Reason: "unsupported format", Example: "--format csv|excel|pdf"}
	}

	in, err := LoadInputs(env.Config, args)
	if err != nil {
		return err
	}
	if _, err := export.NewDataset(rows, in.Columns); err != nil {
		return NewCommandError(command, "validate", err)
	}

	so := env.Config.SaveOptions()
	if args.Out != "" {
		so.OutputDir = args.Out
	}
	so.Open = so.Open || args.Open
	so.Overwrite = so.Overwrite || args.Overwrite

	res := export.Execute(format, env.Config.ExcelMode(), rows, in.Options, so)
	run := record(ctx, env.History, history.FromResult(res, in.Options.Title))

	log := logger.WithComponent("cli").
		WithField("format", format).
		WithField("rows", res.Rows).
		WithField("duration", res.Duration)
	if res.Err != nil {
		log.WithError(res.Err).Error("export failed")
		cmdErr := NewCommandError(command, string(format), res.Err)
		if args.JSON {
			_ = NewJSONErrorResponse(command, cmdErr, exportDataFrom(run)).Write(env.Stdout)
			return &reportedError{err: cmdErr}
		}
		return cmdErr
	}
	log.WithField("path", res.Path).Info("export written")

	if args.JSON {
		return NewJSONResponse(command, exportDataFrom(run)).Write(env.Stdout)
	}
	fmt.Fprintf(env.Stdout, "%s Export %s terminé\n", SuccessStyle.Render("[OK]"), format.Label())
	fmt.Fprintln(env.Stdout, RenderField("Fichier", res.Path))
	fmt.Fprintln(env.Stdout, RenderField("Lignes", components.Plural(res.Rows, "ligne", "lignes")))
	fmt.Fprintln(env.Stdout, RenderField("Colonnes", components.Plural(res.Columns, "colonne", "colonnes")))
	fmt.Fprintln(env.Stdout, RenderField("Taille", components.FormatBytes(res.Size)))
	return nil
}

// record stores run, logging and ignoring store failures.
func record(ctx context.Context, store *history.Store, run history.Run) history.Run {
	if store == nil {
		return run
	}
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()
	saved, err := store.Record(ctx, run)
	if err != nil {
		logger.WithComponent("cli").WithError(err).Warn("could not record export in history")
		return run
	}
	return saved
}
