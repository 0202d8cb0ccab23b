// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package ui // import "feedviewer.app/v1/internal/ui"

import (
	"log/slog"
	"net/http"

	"feedviewer.app/v1/internal/config"
	hmw "feedviewer.app/v1/internal/http/middleware"
	"feedviewer.app/v1/internal/http/mux"
	"feedviewer.app/v1/internal/http/request"
	"feedviewer.app/v1/internal/logging"
	"feedviewer.app/v1/internal/template"
	"feedviewer.app/v1/internal/worker"
)

type handler struct {
	router   *mux.ServeMux
	tpl      *template.Engine
	renderer worker.Renderer
	pool     *worker.Pool
}

// Serve declares all routes of widgets.
func Serve(m *mux.ServeMux, tpl *template.Engine, renderer worker.Renderer,
	pool *worker.Pool,
) {
	m = m.Group().Use(hmw.WithCORS(config.Opts.CorsAllowedOrigins()))
	h := &handler{
		router:   m,
		tpl:      tpl,
		renderer: renderer,
		pool:     pool,
	}

	m.NameHandleFunc("GET /{$}", h.showIndexPage, "index").
		HandleFunc("GET /robots.txt", robotsTxt).
		NameHandleFunc("GET /render", h.renderWidget, "render").
		NameHandleFunc("GET /widgets", h.listWidgets, "widgets").
		NameHandleFunc("GET /widgets/{name}", h.showWidget, "widget")
}

func robotsTxt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, err := w.Write([]byte("User-agent: *\nDisallow: /"))
	if err != nil {
		logging.FromContext(r.Context()).
			Error(http.StatusText(http.StatusInternalServerError),
				slog.Any("error", err),
				slog.String("client_ip", request.ClientIP(r)),
				slog.GroupAttrs("request",
					slog.String("method", r.Method),
					slog.String("uri", r.RequestURI),
					slog.String("user_agent", r.UserAgent())))
	}
}
