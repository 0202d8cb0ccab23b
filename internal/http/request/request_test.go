// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package request

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryStringParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/render?url=https%3A%2F%2Fexample.com&empty=", nil)
	assert.Equal(t, "https://example.com", QueryStringParam(r, "url", "x"))
	assert.Empty(t, QueryStringParam(r, "empty", "x"))
	assert.Equal(t, "x", QueryStringParam(r, "missing", "x"))
}

func TestQueryBoolParam(t *testing.T) {
	tests := []struct {
		query    string
		expected bool
	}{
		{"page=1", true},
		{"page=true", true},
		{"page=on", true},
		{"page=YES", true},
		{"page=0", false},
		{"page=", false},
		{"page=nope", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/widgets/news?"+tt.query, nil)
			assert.Equal(t, tt.expected, QueryBoolParam(r, "page"))
		})
	}
}

func TestContextValues(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, ClientIP(r))

	r = r.WithContext(WithClientIP(context.Background(), "10.0.0.1"))
	assert.Equal(t, "10.0.0.1", ClientIP(r))
}
