// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jeranaias/exportdesk/internal/history"
	"github.com/jeranaias/exportdesk/internal/ui/components"
)

const defaultHistoryLimit = 20

// HandleHistory lists recent export runs.
func HandleHistory(ctx context.Context, env Env, args Args) error {
	if env.History == nil {
		return NewCommandError("history", "", errors.New("history is disabled (history.enabled = false)"))
	}

	status := history.Status(args.Status)
	if status != "" && status != history.StatusOK && status != history.StatusFailed {
		return &ValidationError{Field: "--status", Value: args.Status, Reason: "must be ok or failed"}
	}
	limit := args.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}

	runs, err := env.History.List(ctx, history.ListOptions{Limit: limit, Format: args.Format, Status: status})
	if err != nil {
		return NewCommandError("history", "list", err)
	}
	stats, err := env.History.Stats(ctx)
	if err != nil {
		return NewCommandError("history", "stats", err)
	}

	if args.JSON {
		if runs == nil {
			runs = []history.Run{}
		}
		return NewJSONResponse("history", HistoryData{Runs: runs, Stats: stats}).Write(env.Stdout)
	}

	out := env.Stdout
	fmt.Fprintln(out, TitleStyle.Render("Historique des exports"))
	if len(runs) == 0 {
		fmt.Fprintln(out, DimStyle.Render("Aucun export enregistré."))
		return nil
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		target := r.Path
		if !r.Succeeded() {
			target = r.Error
		}
		rows[i] = []string{
			r.CreatedAt.Format("02/01/2006 15:04"),
			r.Format,
			RenderStatus(string(r.Status)),
			strconv.Itoa(r.Rows),
			components.FormatBytes(r.SizeBytes),
			target,
		}
	}
	fmt.Fprintln(out, RenderTable([]string{"Date", "Format", "Statut", "Lignes", "Taille", "Fichier"}, rows))
	fmt.Fprintf(out, "%s, dont %d en échec\n",
		components.Plural(stats.Total, "export", "exports"), stats.Failed)
	return nil
}
