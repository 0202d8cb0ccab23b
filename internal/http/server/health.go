// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package server // import "feedviewer.app/v1/internal/http/server"

import (
	"net/http"
	"sync/atomic"

	"feedviewer.app/v1/internal/http/response/json"
	"feedviewer.app/v1/internal/version"
)

var ready atomic.Bool

// SetReady changes the state reported by the readiness probe. The daemon
// marks itself not ready before shutting down, so load balancers stop
// sending requests.
func SetReady(v bool) { ready.Store(v) }

func readinessProbe(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		http.Error(w, "Not Ready", http.StatusServiceUnavailable)
		return
	}
	livenessProbe(w, r)
}

func livenessProbe(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	json.OK(w, r, version.New())
}
