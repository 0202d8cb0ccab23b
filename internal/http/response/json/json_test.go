// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package json

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOK(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/widgets", nil)
	w := httptest.NewRecorder()
	OK(w, r, map[string]string{"name": "news"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, contentTypeHeader, w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("ETag"))
	assert.JSONEq(t, `{"name":"news"}`, w.Body.String())
}

func TestOK_marshalError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/widgets", nil)
	w := httptest.NewRecorder()
	OK(w, r, make(chan int))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "error_message")
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(w http.ResponseWriter, r *http.Request)
		status   int
		expected string
	}{
		{
			name: "bad request",
			fn: func(w http.ResponseWriter, r *http.Request) {
				BadRequest(w, r, errors.New("invalid sort"))
			},
			status:   http.StatusBadRequest,
			expected: `{"error_message":"invalid sort"}`,
		},
		{
			name:     "not found",
			fn:       NotFound,
			status:   http.StatusNotFound,
			expected: `{"error_message":"resource not found"}`,
		},
		{
			name: "server error",
			fn: func(w http.ResponseWriter, r *http.Request) {
				ServerError(w, r, errors.New("boom"))
			},
			status:   http.StatusInternalServerError,
			expected: `{"error_message":"boom"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			w := httptest.NewRecorder()
			tt.fn(w, r)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.expected, w.Body.String())
		})
	}
}
