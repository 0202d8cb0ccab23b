// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package request // import "feedviewer.app/v1/internal/http/request"

import (
	"net/http"
	"path"
	"strconv"
	"strings"

	"feedviewer.app/v1/internal/config"
)

// RequestURI returns the request URI prefixed with the configured base path.
func RequestURI(r *http.Request) string {
	if bp := config.Opts.BasePath(); bp != "" {
		return path.Join(bp, r.URL.RequestURI())
	}
	return r.URL.RequestURI()
}

// QueryStringParam returns a query string parameter or the fallback value
// when it's absent.
func QueryStringParam(r *http.Request, param, defaultValue string) string {
	if r.URL.Query().Has(param) {
		return r.URL.Query().Get(param)
	}
	return defaultValue
}

// QueryBoolParam reports whether a query string parameter is set to a truthy
// value like "1", "true" or "on".
func QueryBoolParam(r *http.Request, param string) bool {
	value := strings.TrimSpace(r.URL.Query().Get(param))
	switch strings.ToLower(value) {
	case "on", "yes":
		return true
	}
	b, _ := strconv.ParseBool(value)
	return b
}

// RouteStringParam returns a path value matched by the mux pattern.
func RouteStringParam(r *http.Request, param string) string {
	return r.PathValue(param)
}
