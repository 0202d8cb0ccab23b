// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package html

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"feedviewer.app/v1/internal/http/response"
)

func TestOK(t *testing.T) {
	body := `<div class="item">A</div>`
	r := httptest.NewRequest(http.MethodGet, "/render", nil)
	w := httptest.NewRecorder()
	OK(w, r, body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, textHTML, w.Header().Get(contentType))
	assert.Equal(t, response.ETag([]byte(body)), w.Header().Get("ETag"))
	assert.Equal(t, body, w.Body.String())

	r.Header.Set("If-None-Match", w.Header().Get("ETag"))
	w = httptest.NewRecorder()
	OK(w, r, body)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestBadRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/render", nil)
	w := httptest.NewRecorder()
	BadRequest(w, r, errors.New("invalid <url>"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, textPlain, w.Header().Get(contentType))
	assert.Equal(t, cacheNoCache, w.Header().Get(cacheControl))
	assert.Equal(t, response.ContentSecurityPolicyForUntrustedContent,
		w.Header().Get(contentSecPol))
	assert.Equal(t, "invalid &lt;url&gt;", w.Body.String())
}

func TestServerError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	ServerError(w, r, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "boom", w.Body.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r = r.WithContext(ctx)
	w = httptest.NewRecorder()
	ServerError(w, r, context.Canceled)
	assert.Equal(t, 499, w.Code)
}

func TestNotFound(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/widgets/missing", nil)
	w := httptest.NewRecorder()
	NotFound(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Page Not Found", w.Body.String())
}
