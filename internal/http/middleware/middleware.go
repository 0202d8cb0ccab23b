// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware // import "feedviewer.app/v1/internal/http/middleware"

import (
	"net/http"

	"feedviewer.app/v1/internal/config"
	"feedviewer.app/v1/internal/http/mux"
	"feedviewer.app/v1/internal/http/request"
)

type MiddlewareFunc = mux.MiddlewareFunc

// ClientIP stores the real client IP address in the request context. Values
// of X-Forwarded-For are used only from trusted reverse proxies.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := request.FindClientIP(r, config.Opts.TrustedProxy)
		ctx := request.WithClientIP(r.Context(), clientIP)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
