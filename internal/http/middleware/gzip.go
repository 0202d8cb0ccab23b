// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware // import "feedviewer.app/v1/internal/http/middleware"

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
)

// Gzip compresses responses for clients accepting gzip.
func Gzip(next http.Handler) http.Handler { return gzhttp.GzipHandler(next) }
