// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/logger"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes fetch errors.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeUnauthorized
	ErrTypeStatus
	ErrTypeInvalidResponse
)

// FetchError is returned by Client.Fetch.
type FetchError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// IsUnauthorized reports whether err is a 401/403 from the API.
func IsUnauthorized(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Type == ErrTypeUnauthorized
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Type == ErrTypeTimeout
}

// =============================================================================
// CLIENT
// =============================================================================

// MaxResponseBytes bounds the size of a fetched document.
const MaxResponseBytes = 32 << 20

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is prefixed to relative paths passed to Fetch.
	BaseURL string

	// Token is sent as a bearer token when set.
	Token string

	// Timeout applies to each attempt (default: 30s).
	Timeout time.Duration

	// MaxRetries is the number of extra attempts after a 5xx or a
	// connection failure (default: 2). Negative disables retries.
	MaxRetries int

	// RetryDelay is the pause between attempts (default: 500ms).
	RetryDelay time.Duration
}

// Client fetches row arrays from a JSON API. It is safe for concurrent use.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient creates a client, filling zero config values with defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	switch {
	case cfg.MaxRetries == 0:
		cfg.MaxRetries = 2
	case cfg.MaxRetries < 0:
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ResolveURL joins target to the base URL unless target is already absolute.
func (c *Client) ResolveURL(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", target, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if c.config.BaseURL == "" {
		return "", fmt.Errorf("relative URL %q needs a base URL", target)
	}
	base, err := url.Parse(strings.TrimSuffix(c.config.BaseURL, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.config.BaseURL, err)
	}
	return base.ResolveReference(&url.URL{Path: strings.TrimPrefix(u.Path, "/"), RawQuery: u.RawQuery}).String(), nil
}

// Fetch GETs target and decodes the body as rows. Server errors and
// connection failures are retried; 4xx responses are not.
func (c *Client) Fetch(ctx context.Context, target string) ([]export.Row, error) {
	full, err := c.ResolveURL(target)
	if err != nil {
		return nil, &FetchError{Type: ErrTypeConnection, Message: "bad request URL", Cause: err}
	}

	log := logger.WithComponent("source").WithField("url", full)
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			log.WithError(lastErr).WithField("attempt", attempt+1).Debug("retrying fetch")
			select {
			case <-ctx.Done():
				return nil, &FetchError{Type: ErrTypeTimeout, Message: "fetch cancelled", Cause: ctx.Err()}
			case <-time.After(c.config.RetryDelay):
			}
		}

		rows, err := c.fetchOnce(ctx, full)
		if err == nil {
			log.WithField("rows", len(rows)).Info("fetched rows")
			return rows, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, full string) ([]export.Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, &FetchError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isNetTimeout(err) {
			return nil, &FetchError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
		}
		return nil, &FetchError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &FetchError{Type: ErrTypeUnauthorized, StatusCode: resp.StatusCode, Message: "not authorized: " + resp.Status}
	case resp.StatusCode != http.StatusOK:
		return nil, &FetchError{Type: ErrTypeStatus, StatusCode: resp.StatusCode, Message: "unexpected status: " + resp.Status}
	}

	rows, err := ReadJSONRows(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, &FetchError{Type: ErrTypeInvalidResponse, Message: "failed to decode rows", Cause: err}
	}
	return rows, nil
}

func retryable(err error) bool {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return false
	}
	switch fe.Type {
	case ErrTypeConnection, ErrTypeTimeout:
		return !errors.Is(fe.Cause, context.Canceled)
	case ErrTypeStatus:
		return fe.StatusCode >= 500
	default:
		return false
	}
}

func isNetTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
