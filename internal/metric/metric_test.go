// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package metric

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedviewer.app/v1/internal/config"
)

func loadConfig(t *testing.T, env map[string]string) {
	t.Helper()
	os.Clearenv()
	for k, v := range env {
		t.Setenv(k, v)
	}
	require.NoError(t, config.Load(""))
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		remoteAddr string
		username   string
		password   string
		expected   int
	}{
		{
			name:       "allowed network",
			remoteAddr: "127.0.0.1:1234",
			expected:   http.StatusOK,
		},
		{
			name:       "unix socket",
			remoteAddr: "@",
			expected:   http.StatusOK,
		},
		{
			name:       "not allowed network",
			remoteAddr: "192.168.1.1:1234",
			expected:   http.StatusNotFound,
		},
		{
			name:       "custom network",
			env:        map[string]string{"METRICS_ALLOWED_NETWORKS": "192.168.0.0/16"},
			remoteAddr: "192.168.1.1:1234",
			expected:   http.StatusOK,
		},
		{
			name: "no credentials",
			env: map[string]string{
				"METRICS_USERNAME": "user",
				"METRICS_PASSWORD": "secret",
			},
			remoteAddr: "127.0.0.1:1234",
			expected:   http.StatusNotFound,
		},
		{
			name: "invalid credentials",
			env: map[string]string{
				"METRICS_USERNAME": "user",
				"METRICS_PASSWORD": "secret",
			},
			remoteAddr: "127.0.0.1:1234",
			username:   "user",
			password:   "wrong",
			expected:   http.StatusNotFound,
		},
		{
			name: "valid credentials",
			env: map[string]string{
				"METRICS_USERNAME": "user",
				"METRICS_PASSWORD": "secret",
			},
			remoteAddr: "127.0.0.1:1234",
			username:   "user",
			password:   "secret",
			expected:   http.StatusOK,
		},
	}

	RegisterMetrics()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loadConfig(t, tt.env)
			r := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.username != "" {
				r.SetBasicAuth(tt.username, tt.password)
			}

			w := httptest.NewRecorder()
			Handler().ServeHTTP(w, r)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestRegisterMetrics(t *testing.T) {
	RegisterMetrics()
	assert.NotPanics(t, RegisterMetrics)

	h := WidgetRenderDuration.WithLabelValues(OutcomeEmptyFeed)
	h.Observe(0.1)

	var m dto.Metric
	require.NoError(t, h.(interface{ Write(*dto.Metric) error }).Write(&m))
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
}
