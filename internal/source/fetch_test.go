// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient(base, token string) *Client {
	return NewClient(ClientConfig{BaseURL: base, Token: token, Timeout: 2 * time.Second, RetryDelay: time.Millisecond})
}

func TestFetch_DecodesRowsWithToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/courses", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 1, "name": "Anglais B1"}, {"id": 2, "name": "Allemand A2"}]`))
	}))
	defer srv.Close()

	rows, err := fastClient(srv.URL+"/api", "tok").Fetch(context.Background(), "courses")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Allemand A2", rows[1]["name"].String())
	assert.Equal(t, 1.0, rows[0]["id"].Float64())
}

func TestFetch_AbsoluteURLIgnoresBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	rows, err := fastClient("http://unused.invalid", "").Fetch(context.Background(), srv.URL+"/rows")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetch_Unauthorized(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL, "bad").Fetch(context.Background(), "/x")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"ok": true}]`))
	}))
	defer srv.Close()

	rows, err := fastClient(srv.URL, "").Fetch(context.Background(), "/x")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL, "").Fetch(context.Background(), "/x")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrTypeStatus, fe.Type)
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>login</html>`))
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL, "").Fetch(context.Background(), "/x")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrTypeInvalidResponse, fe.Type)
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond, MaxRetries: -1})
	_, err := c.Fetch(context.Background(), "/slow")
	assert.True(t, IsTimeout(err), "got %v", err)
}

func TestResolveURL(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "https://ecole.example/api/"})
	got, err := c.ResolveURL("/courses/upcoming?limit=5")
	require.NoError(t, err)
	assert.Equal(t, "https://ecole.example/api/courses/upcoming?limit=5", got)

	_, err = NewClient(ClientConfig{}).ResolveURL("courses")
	assert.Error(t, err)
}
