// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/gzhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, r *http.Request, fn func(b *Builder),
) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn(New(w, r))
	})
	handler.ServeHTTP(w, r)
	return w
}

func TestResponseHasCommonHeaders(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := serve(t, r, func(b *Builder) { b.Write() })

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
	assert.Empty(t, w.Header().Get("X-Frame-Options"))
}

func TestBuilder_Write(t *testing.T) {
	tests := []struct {
		name     string
		build    func(b *Builder)
		status   int
		body     string
		headers  map[string]string
		noHeader []string
	}{
		{
			name:   "custom status",
			build:  func(b *Builder) { b.WithStatus(http.StatusNotAcceptable).Write() },
			status: http.StatusNotAcceptable,
		},
		{
			name: "custom header",
			build: func(b *Builder) {
				b.WithHeader("X-My-Header", "Value").Write()
			},
			status:  http.StatusOK,
			headers: map[string]string{"X-My-Header": "Value"},
		},
		{
			name:   "error body",
			build:  func(b *Builder) { b.WithBody(errors.New("Some error")).Write() },
			status: http.StatusOK,
			body:   "Some error",
		},
		{
			name:   "byte body",
			build:  func(b *Builder) { b.WithBody([]byte("body")).Write() },
			status: http.StatusOK,
			body:   "body",
		},
		{
			name:     "compression",
			build:    func(b *Builder) { b.WithBody("body").Write() },
			status:   http.StatusOK,
			body:     "body",
			noHeader: []string{gzhttp.HeaderNoCompression, "ETag"},
		},
		{
			name: "compression disabled",
			build: func(b *Builder) {
				b.WithBody("body").WithoutCompression().Write()
			},
			status:  http.StatusOK,
			body:    "body",
			headers: map[string]string{gzhttp.HeaderNoCompression: "yes"},
		},
		{
			name:   "etag",
			build:  func(b *Builder) { b.WithBody("body").WithETag().Write() },
			status: http.StatusOK,
			body:   "body",
			headers: map[string]string{
				"ETag":          ETag([]byte("body")),
				"Cache-Control": "no-cache",
			},
		},
		{
			name: "etag ignored for errors",
			build: func(b *Builder) {
				b.WithStatus(http.StatusBadRequest).WithBody("bad").WithETag().
					Write()
			},
			status:   http.StatusBadRequest,
			body:     "bad",
			noHeader: []string{"ETag"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			w := serve(t, r, tt.build)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
			for k, v := range tt.headers {
				assert.Equal(t, v, w.Header().Get(k), k)
			}
			for _, k := range tt.noHeader {
				assert.Empty(t, w.Header().Get(k), k)
			}
		})
	}
}

func TestBuilder_WithETag_notModified(t *testing.T) {
	etag := ETag([]byte("widget"))
	tests := []struct {
		name        string
		ifNoneMatch string
		status      int
		body        string
	}{
		{"no header", "", http.StatusOK, "widget"},
		{"match", etag, http.StatusNotModified, ""},
		{"weak match", "W/" + etag, http.StatusNotModified, ""},
		{"list", `"abc", ` + etag, http.StatusNotModified, ""},
		{"star", "*", http.StatusNotModified, ""},
		{"mismatch", `"abc"`, http.StatusOK, "widget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.ifNoneMatch != "" {
				r.Header.Set("If-None-Match", tt.ifNoneMatch)
			}
			w := serve(t, r, func(b *Builder) {
				b.WithBody([]byte("widget")).WithETag().Write()
			})
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
			assert.Equal(t, etag, w.Header().Get("ETag"))
		})
	}
}

func TestETag(t *testing.T) {
	a := ETag([]byte("a"))
	require.NotEmpty(t, a)
	assert.Equal(t, a, ETag([]byte("a")))
	assert.NotEqual(t, a, ETag([]byte("b")))
	assert.Regexp(t, `^"[0-9a-f]+"$`, a)
}
