// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package ui // import "feedviewer.app/v1/internal/ui"

import (
	"net/http"

	"feedviewer.app/v1/internal/config"
	hmw "feedviewer.app/v1/internal/http/middleware"
	"feedviewer.app/v1/internal/http/request"
	"feedviewer.app/v1/internal/http/response/html"
	"feedviewer.app/v1/internal/http/response/json"
	"feedviewer.app/v1/internal/model"
	"feedviewer.app/v1/internal/worker"
)

const indexTitle = "Feeds"

type widgetPreset struct {
	Name     string          `json:"name"`
	Path     string          `json:"path"`
	Settings *model.Settings `json:"settings"`
}

// listWidgets returns all widget presets with paths to render them.
func (h *handler) listWidgets(w http.ResponseWriter, r *http.Request) {
	names := config.Opts.WidgetNames()
	presets := make([]widgetPreset, len(names))
	for i, name := range names {
		s, _ := config.Opts.Widget(name)
		presets[i] = widgetPreset{
			Name:     name,
			Path:     h.router.NamedPath("widget", "name", name),
			Settings: s,
		}
	}
	json.OK(w, r, presets)
}

// showWidget renders a widget preset by name. The name is used as widget id.
func (h *handler) showWidget(w http.ResponseWriter, r *http.Request) {
	name := request.RouteStringParam(r, "name")
	s, ok := config.Opts.Widget(name)
	if !ok {
		if wantJSON(r) {
			json.NotFound(w, r)
		} else {
			html.NotFound(w, r)
		}
		return
	}
	h.writeResult(w, r, h.render(r, name, s), name)
}

// showIndexPage renders all widget presets concurrently into a standalone
// page.
func (h *handler) showIndexPage(w http.ResponseWriter, r *http.Request) {
	names := config.Opts.WidgetNames()
	jobs := make([]worker.Job, len(names))
	for i, name := range names {
		s, _ := config.Opts.Widget(name)
		jobs[i] = worker.Job{ID: name, Settings: s}
	}

	results := h.pool.Render(r.Context(), jobs)
	for _, result := range results {
		hmw.AccessLogWidget(r.Context(), result.ID, result.Outcome())
	}
	h.writePage(w, r, indexTitle, results)
}
