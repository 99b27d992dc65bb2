// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/exportdesk/internal/config"
)

// HandleConfig runs the config subcommands: show, path, init, get, set
// and keys.
func HandleConfig(env Env, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(env, args)
	case "path":
		return handleConfigPath(env, args)
	case "init":
		return handleConfigInit(env, args)
	case "get":
		return handleConfigGet(env, args)
	case "set":
		return handleConfigSet(env, args)
	case "keys":
		for _, k := range config.AllKeys() {
			fmt.Fprintln(env.Stdout, k)
		}
		return nil
	default:
		return &ValidationError{
			Field:   "config subcommand",
			Value:   args.Subcommand,
			Reason:  "unknown subcommand",
			Example: "exportdesk config show|path|init|get|set|keys",
		}
	}
}

func handleConfigShow(env Env, args Args) error {
	if args.JSON {
		safe := env.Config.Clone()
		if safe.Source.APIToken != "" {
			safe.Source.APIToken = "[REDACTED]"
		}
		return NewJSONResponse("config show", safe).Write(env.Stdout)
	}
	path, _ := config.ConfigPath()
	fmt.Fprintln(env.Stdout, TitleStyle.Render("Configuration exportdesk"))
	fmt.Fprint(env.Stdout, env.Config.String())
	fmt.Fprintln(env.Stdout, RenderSeparator(40))
	fmt.Fprintln(env.Stdout, DimStyle.Render("Fichier: "+path))
	return nil
}

func handleConfigPath(env Env, args Args) error {
	path, err := config.ConfigPath()
	if err != nil {
		return NewCommandError("config", "path", err)
	}
	_, statErr := os.Stat(path)
	data := ConfigPathData{Path: path, Exists: statErr == nil}
	if args.JSON {
		return NewJSONResponse("config path", data).Write(env.Stdout)
	}
	fmt.Fprintln(env.Stdout, path)
	return nil
}

// handleConfigInit writes the current settings (defaults plus overrides)
// when no config file exists yet.
func handleConfigInit(env Env, args Args) error {
	path, err := config.ConfigPath()
	if err != nil {
		return NewCommandError("config", "init", err)
	}
	if _, err := os.Stat(path); err == nil && !args.Overwrite {
		return NewCommandError("config", "init", fmt.Errorf("%s already exists (use --overwrite)", path))
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return NewCommandError("config", "init", err)
	}
	if err := config.SaveTOML(env.Config, path); err != nil {
		return NewCommandError("config", "init", err)
	}
	if args.JSON {
		return NewJSONResponse("config init", ConfigPathData{Path: path, Exists: true}).Write(env.Stdout)
	}
	fmt.Fprintf(env.Stdout, "%s Configuration écrite dans %s\n", SuccessStyle.Render("[OK]"), path)
	return nil
}

func handleConfigGet(env Env, args Args) error {
	if args.ConfigKey == "" {
		return ErrMissingArgument("key", "exportdesk config get export.page_size")
	}
	v, err := env.Config.Get(args.ConfigKey)
	if err != nil {
		return &ValidationError{Field: "key", Value: args.ConfigKey, Reason: err.Error()}
	}
	if args.ConfigKey == "source.api_token" && v != "" {
		v = maskSecret(v.(string))
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]any{"key": args.ConfigKey, "value": v}).Write(env.Stdout)
	}
	fmt.Fprintln(env.Stdout, v)
	return nil
}

func handleConfigSet(env Env, args Args) error {
	if args.ConfigKey == "" || !args.ConfigValSet {
		return ErrMissingArgument("key value", "exportdesk config set export.page_size a3")
	}
	if err := env.Config.Set(args.ConfigKey, args.ConfigVal); err != nil {
		return err
	}
	path, err := config.ConfigPath()
	if err != nil {
		return NewCommandError("config", "set", err)
	}
	if err := config.SaveTOML(env.Config, path); err != nil {
		return NewCommandError("config", "set", err)
	}
	shown := args.ConfigVal
	if args.ConfigKey == "source.api_token" {
		shown = maskSecret(shown)
	}
	if args.JSON {
		return NewJSONResponse("config set", map[string]any{"key": args.ConfigKey, "value": shown}).Write(env.Stdout)
	}
	fmt.Fprintf(env.Stdout, "%s %s = %s\n", SuccessStyle.Render("[OK]"), args.ConfigKey, shown)
	return nil
}

// maskSecret keeps the last four characters of s.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
