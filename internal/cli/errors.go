// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/exportdesk/internal/config"
	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/history"
	"github.com/jeranaias/exportdesk/internal/source"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNetworkError = 5
	ExitNotFound     = 7
	ExitTimeout      = 8
	ExitExportError  = 9
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError wraps a failure with the command that produced it.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Action == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError reports bad user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += "\nExample: " + e.Example
	}
	return msg
}

// NewCommandError wraps err for command and action.
func NewCommandError(command, action string, err error) error {
	return &CommandError{Command: command, Action: action, Err: err}
}

// NewValidationError reports an invalid value.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// ErrMissingArgument reports a required flag or argument that was omitted.
func ErrMissingArgument(name, example string) error {
	return &ValidationError{Field: name, Reason: "required argument missing", Example: example}
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w, as JSON in JSON mode.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		out := map[string]any{
			"success":    false,
			"error":      err.Error(),
			"error_type": errorType(err),
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", ErrorStyle.Render("[ERREUR]"), err.Error())
}

// reportedError marks a failure whose JSON envelope was already printed.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already written to stdout as JSON.
func Reported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

func errorType(err error) string {
	var ve *ValidationError
	var ce *CommandError
	switch {
	case errors.As(err, &ve):
		return "validation_error"
	case errors.As(err, &ce):
		return "command_error"
	default:
		return "generic_error"
	}
}

// GetExitCode maps err to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ve *ValidationError
	var cfgErrs config.ValidateErrors
	var cfgErr config.ValidationError
	switch {
	case errors.As(err, &ve):
		return ExitUsageError
	case errors.As(err, &cfgErrs), errors.As(err, &cfgErr):
		return ExitConfigError
	case source.IsUnauthorized(err):
		return ExitAuthError
	case source.IsTimeout(err):
		return ExitTimeout
	case errors.Is(err, history.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return ExitNotFound
	}

	var fe *source.FetchError
	if errors.As(err, &fe) {
		return ExitNetworkError
	}

	if errors.Is(err, export.ErrUnsupportedFormat) ||
		errors.Is(err, export.ErrUnsupportedPageSize) ||
		errors.Is(err, export.ErrUnsupportedOrientation) ||
		errors.Is(err, export.ErrUnknownFormatter) ||
		errors.Is(err, export.ErrUnknownDataKey) {
		return ExitUsageError
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && (cmdErr.Command == "export" || cmdErr.Command == "fetch") {
		return ExitExportError
	}
	return ExitGeneralError
}
