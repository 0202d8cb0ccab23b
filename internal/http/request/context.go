// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package request // import "feedviewer.app/v1/internal/http/request"

import (
	"context"
	"net/http"
)

// ContextKey represents a context key.
type ContextKey int

// List of context keys.
const (
	ClientIPContextKey ContextKey = iota
)

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ClientIPContextKey, ip)
}

// ClientIP returns the client IP address stored in the request context.
func ClientIP(r *http.Request) string {
	return getContextValue[string](r, ClientIPContextKey)
}

func getContextValue[T any](r *http.Request, key ContextKey) (zero T) {
	if v := r.Context().Value(key); v != nil {
		if value, ok := v.(T); ok {
			return value
		}
	}
	return zero
}
