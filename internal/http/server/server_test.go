// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"feedviewer.app/v1/internal/config"
	"feedviewer.app/v1/internal/model"
	"feedviewer.app/v1/internal/reader/source"
	"feedviewer.app/v1/internal/template"
	"feedviewer.app/v1/internal/version"
	"feedviewer.app/v1/internal/widget"
	"feedviewer.app/v1/internal/worker"
)

func TestMain(m *testing.M) {
	os.Clearenv()
	if err := config.Load(""); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func loadConfig(t *testing.T, env ...string) {
	t.Helper()
	for i := 0; i+1 < len(env); i += 2 {
		t.Setenv(env[i], env[i+1])
	}
	require.NoError(t, config.Load(""))
	t.Cleanup(func() {
		for i := 0; i+1 < len(env); i += 2 {
			os.Unsetenv(env[i])
		}
		require.NoError(t, config.Load(""))
	})
}

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	src := source.Func(func(context.Context, string) (*model.Feed, error) {
		return &model.Feed{
			Title:   "Example",
			Entries: model.Entries{{Title: "One", URL: "https://example.com/1"}},
		}, nil
	})
	tpl := template.MustParse()
	renderer := widget.New(src, tpl)
	return NewHandler(tpl, renderer, worker.NewPool(renderer, 1))
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestProbes(t *testing.T) {
	h := newHandler(t)
	SetReady(false)
	t.Cleanup(func() { SetReady(false) })

	tests := []struct {
		target    string
		notReady  int
		afterward int
	}{
		{"/liveness", http.StatusOK, http.StatusOK},
		{"/healthz", http.StatusOK, http.StatusOK},
		{"/readiness", http.StatusServiceUnavailable, http.StatusOK},
		{"/readyz", http.StatusServiceUnavailable, http.StatusOK},
		{"/healthcheck", http.StatusServiceUnavailable, http.StatusOK},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.notReady, get(h, tt.target).Code, tt.target)
	}

	SetReady(true)
	for _, tt := range tests {
		w := get(h, tt.target)
		assert.Equal(t, tt.afterward, w.Code, tt.target)
		assert.Equal(t, "OK", w.Body.String(), tt.target)
	}
}

func TestNewHandler(t *testing.T) {
	h := newHandler(t)

	w := get(h, "/version")
	require.Equal(t, http.StatusOK, w.Code)
	var info version.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, version.New(), info)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w = get(h, "/render?url=https://example.com/feed.xml&id=example")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="rss-feed-viewer-control-example"`)
	assert.Contains(t, w.Body.String(), `href="https://example.com/1"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	assert.Equal(t, http.StatusNotFound, get(h, "/metrics").Code)
}

func TestNewHandler_basePath(t *testing.T) {
	loadConfig(t, "BASE_PATH", "/feeds")
	h := newHandler(t)

	tests := []struct {
		target string
		want   int
	}{
		{"/feeds/robots.txt", http.StatusOK},
		{"/feeds/render?url=https://example.com/feed.xml", http.StatusOK},
		{"/feeds/version", http.StatusOK},
		{"/robots.txt", http.StatusNotFound},
		{"/render?url=https://example.com/feed.xml", http.StatusNotFound},
		{"/healthz", http.StatusOK},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, get(h, tt.target).Code, tt.target)
	}
}

func TestNewHandler_metrics(t *testing.T) {
	loadConfig(t, "METRICS_COLLECTOR", "true")
	h := newHandler(t)

	tests := []struct {
		name       string
		remoteAddr string
		want       int
	}{
		{name: "allowed", remoteAddr: "127.0.0.1:4321", want: http.StatusOK},
		{name: "denied", remoteAddr: "192.0.2.1:4321", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			r.RemoteAddr = tt.remoteAddr
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestUnixListener(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "feedviewer.sock")

	l, err := unixListener(path, 0o600)
	require.NoError(t, err)
	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), stat.Mode().Perm())
	require.NoError(t, l.Close())

	require.NoError(t, os.WriteFile(path, nil, 0o600))
	l, err = unixListener(path, 0)
	require.NoError(t, err, "stale socket must be removed")
	require.NoError(t, l.Close())

	notDir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notDir, nil, 0o600))
	_, err = unixListener(filepath.Join(notDir, "feedviewer.sock"), 0)
	require.Error(t, err)
}

func TestStartWebServer_unixSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedviewer.sock")
	loadConfig(t, "LISTEN_ADDR", path)
	t.Cleanup(func() { SetReady(false) })

	listener, err := Listener()
	require.NoError(t, err)
	require.NotNil(t, listener)

	src := source.Func(func(context.Context, string) (*model.Feed, error) {
		return nil, errors.New("unreachable")
	})
	tpl := template.MustParse()
	renderer := widget.New(src, tpl)

	var g errgroup.Group
	server := StartWebServer(tpl, renderer, worker.NewPool(renderer, 1), &g,
		listener)

	client := &http.Client{Transport: &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", path)
		},
	}}

	resp, err := client.Get("http://feedviewer/readyz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	require.NoError(t, server.Shutdown(t.Context()))
	require.NoError(t, g.Wait())
}
