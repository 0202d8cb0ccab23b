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
	"feedviewer.app/v1/internal/widget"
)

const (
	paramID     = "id"
	paramFormat = "format"
	paramPage   = "page"

	formatJSON = "json"
)

// renderWidget renders a widget configured by query string parameters, using
// the same keys as widget presets.
func (h *handler) renderWidget(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	values := make(map[string]string, len(model.SettingKeys))
	for _, key := range model.SettingKeys {
		if query.Has(key) {
			values[key] = query.Get(key)
		}
	}

	s, err := model.ParseSettings(values, config.Opts.DefaultSettings())
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	id := request.QueryStringParam(r, paramID, "")
	if id == "" {
		id = widget.DefaultID(s.URL)
	} else if err := model.ValidateWidgetID(id); err != nil {
		h.badRequest(w, r, err)
		return
	}
	h.writeResult(w, r, h.render(r, id, s), "")
}

func (h *handler) badRequest(w http.ResponseWriter, r *http.Request,
	err error,
) {
	if wantJSON(r) {
		json.BadRequest(w, r, err)
		return
	}
	html.BadRequest(w, r, err)
}

func wantJSON(r *http.Request) bool {
	return request.QueryStringParam(r, paramFormat, "") == formatJSON
}

func (h *handler) render(r *http.Request, id string, s *model.Settings,
) *widget.Result {
	ctx := r.Context()
	result := h.renderer.Render(ctx, id, s)
	hmw.AccessLogWidget(ctx, id, result.Outcome())
	return result
}

// writeResult writes the rendered widget as JSON, as a standalone page with
// given title or as a fragment.
func (h *handler) writeResult(w http.ResponseWriter, r *http.Request,
	result *widget.Result, pageTitle string,
) {
	switch {
	case wantJSON(r):
		json.OK(w, r, result)
	case pageTitle != "" && request.QueryBoolParam(r, paramPage):
		h.writePage(w, r, pageTitle, []*widget.Result{result})
	default:
		html.OK(w, r, result.Bytes())
	}
}

type pageData struct {
	Title   string
	Widgets []*widget.Result
}

func (h *handler) writePage(w http.ResponseWriter, r *http.Request,
	title string, results []*widget.Result,
) {
	html.OK(w, r, h.tpl.Render("page.html", &pageData{
		Title:   title,
		Widgets: results,
	}))
}
