// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware // import "feedviewer.app/v1/internal/http/middleware"

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// WithCORS allows embedding widgets into pages of allowed origins with
// cross-origin GET requests. "*" allows any origin.
func WithCORS(allowedOrigins []string) MiddlewareFunc {
	c := cors.New(cors.Options{
		AllowedOrigins:   slices.Clone(allowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodHead},
		AllowedHeaders:   []string{"If-None-Match"},
		ExposedHeaders:   []string{"ETag", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           3600,
	})
	return c.Handler
}
