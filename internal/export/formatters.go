// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatDataForExport maps every row through formatters keyed by data key.
// Keys without a formatter are copied unchanged. The input is not modified.
func FormatDataForExport(rows []Row, formatters map[string]func(Value) Value) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		formatted := make(Row, len(r))
		for k, v := range r {
			if f, ok := formatters[k]; ok && f != nil {
				formatted[k] = f(v)
			} else {
				formatted[k] = v
			}
		}
		out[i] = formatted
	}
	return out
}

// =============================================================================
// NAMED FORMATTERS
// =============================================================================

var (
	// ErrUnknownFormatter is returned by ParseFormatter for unknown names.
	ErrUnknownFormatter = errors.New("unknown formatter")

	// ErrFormatterInput is returned when a value does not suit its formatter.
	ErrFormatterInput = errors.New("value does not match formatter")
)

// Locale drives number grouping and letter casing in named formatters.
var Locale = language.French

// ParseFormatter builds a FormatFunc from a spec of the form "name[:arg]":
//
//	upper, lower            change letter case
//	number[:decimals]       locale-grouped number, default 0 decimals
//	percent[:decimals]      ratio times 100 with a trailing " %"
//	date[:layout]           Go time layout, default DateLayout
//	bool[:yes/no]           labels for true and false, default Oui/Non
//	prefix:s, suffix:s      wrap the display string
func ParseFormatter(spec string) (FormatFunc, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(spec), ":")
	switch strings.ToLower(name) {
	case "upper":
		c := cases.Upper(Locale)
		return func(v Value) (string, error) { return c.String(v.String()), nil }, nil
	case "lower":
		c := cases.Lower(Locale)
		return func(v Value) (string, error) { return c.String(v.String()), nil }, nil
	case "number":
		decimals, err := parseDecimals(arg, hasArg)
		if err != nil {
			return nil, err
		}
		return numberFormatter(decimals, 1, ""), nil
	case "percent":
		decimals, err := parseDecimals(arg, hasArg)
		if err != nil {
			return nil, err
		}
		return numberFormatter(decimals, 100, " %"), nil
	case "date":
		layout := DateLayout
		if hasArg && arg != "" {
			layout = arg
		}
		return dateFormatter(layout), nil
	case "bool":
		yes, no := "Oui", "Non"
		if hasArg {
			y, n, ok := strings.Cut(arg, "/")
			if !ok {
				return nil, fmt.Errorf("%w: bool expects yes/no labels, got %q", ErrUnknownFormatter, arg)
			}
			yes, no = y, n
		}
		return func(v Value) (string, error) {
			if v.Kind() != KindBool {
				return "", fmt.Errorf("%w: bool formatter got %s", ErrFormatterInput, v.Kind())
			}
			if v.Bool() {
				return yes, nil
			}
			return no, nil
		}, nil
	case "prefix":
		return func(v Value) (string, error) { return arg + v.String(), nil }, nil
	case "suffix":
		return func(v Value) (string, error) { return v.String() + arg, nil }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormatter, spec)
	}
}

func parseDecimals(arg string, hasArg bool) (int, error) {
	if !hasArg || arg == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 || n > 10 {
		return 0, fmt.Errorf("%w: bad decimal count %q", ErrUnknownFormatter, arg)
	}
	return n, nil
}

func numberFormatter(decimals int, scale float64, suffix string) FormatFunc {
	layout := fmt.Sprintf("%%.%df", decimals)
	return func(v Value) (string, error) {
		var n float64
		switch v.Kind() {
		case KindNumber:
			n = v.Float64()
		case KindString:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.Text()), 64)
			if err != nil {
				return "", fmt.Errorf("%w: %q is not a number", ErrFormatterInput, v.Text())
			}
			n = f
		default:
			return "", fmt.Errorf("%w: number formatter got %s", ErrFormatterInput, v.Kind())
		}
		p := message.NewPrinter(Locale)
		return p.Sprintf(layout, n*scale) + suffix, nil
	}
}

func dateFormatter(layout string) FormatFunc {
	return func(v Value) (string, error) {
		switch v.Kind() {
		case KindTime:
			return v.Time().Format(layout), nil
		case KindString:
			t, err := parseTimeString(v.Text())
			if err != nil {
				return "", err
			}
			return t.Format(layout), nil
		default:
			return "", fmt.Errorf("%w: date formatter got %s", ErrFormatterInput, v.Kind())
		}
	}
}

var timeInputLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func parseTimeString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not a date", ErrFormatterInput, s)
}
