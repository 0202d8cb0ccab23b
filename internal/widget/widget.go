// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package widget // import "feedviewer.app/v1/internal/widget"

import (
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"feedviewer.app/v1/internal/logging"
	"feedviewer.app/v1/internal/metric"
	"feedviewer.app/v1/internal/model"
	"feedviewer.app/v1/internal/reader/fetcher"
	"feedviewer.app/v1/internal/reader/sanitizer"
	"feedviewer.app/v1/internal/reader/sorter"
	"feedviewer.app/v1/internal/reader/source"
	tpl "feedviewer.app/v1/internal/template"
)

const (
	UnknownTitle     = "Unknown Feed"
	EmptyFeedMessage = "An error has occurred, which probably means the feed is down. Try again later."
)

// ErrEmptyFeed reports a successfully fetched feed without entries.
var ErrEmptyFeed = errors.New("widget: feed has no entries")

// Renderer renders feeds into widget markup.
type Renderer struct {
	source    source.Source
	templates *tpl.Engine
}

// New returns a renderer fetching feeds from src.
func New(src source.Source, templates *tpl.Engine) *Renderer {
	return &Renderer{source: src, templates: templates}
}

// Render fetches the feed configured by s and renders it as a widget with
// given id. Fetch problems and empty feeds are rendered as an error block,
// so it always returns a result.
func (self *Renderer) Render(ctx context.Context, id string,
	s *model.Settings,
) *Result {
	start := time.Now()
	r := &Result{ID: id, FeedURL: sanitizer.SanitizeURL(s.URL)}
	log := logging.FromContext(ctx).With(
		slog.String("widget_id", id),
		slog.String("feed_url", r.FeedURL))

	feed, err := self.source.Fetch(ctx, s.URL)
	if err != nil {
		feed = nil
	}
	r.Title = template.HTML(resolveTitle(s, feed))

	switch {
	case err != nil:
		r.fail(metric.OutcomeFetchError, err, fetchErrorMessage(err))
	case feed == nil || feed.EntryCount() == 0:
		r.fail(metric.OutcomeEmptyFeed, ErrEmptyFeed, EmptyFeedMessage)
	default:
		r.Items = renderItems(feed, s)
	}
	r.Markup = template.HTML(self.templates.Render("widget.html", r))

	elapsed := time.Since(start)
	metric.WidgetRenderDuration.WithLabelValues(r.Outcome()).
		Observe(elapsed.Seconds())

	log = log.With(slog.String("outcome", r.Outcome()),
		slog.Duration("elapsed", elapsed))
	switch r.Outcome() {
	case metric.OutcomeFetchError:
		log.Warn("Unable fetch feed", slog.Any("error", r.err))
	case metric.OutcomeEmptyFeed:
		log.Info("Feed has no entries")
	default:
		metric.WidgetRenderItems.Observe(float64(len(r.Items)))
		log.Debug("Rendered widget", slog.Int("items", len(r.Items)))
	}
	return r
}

// DefaultID returns a widget id derived from the feed URL, for renders
// without a caller supplied id.
func DefaultID(feedURL string) string {
	return strconv.FormatUint(xxhash.Sum64String(feedURL), 36)
}

func (self *Result) fail(outcome string, err error, message string) {
	self.outcome = outcome
	self.err = err
	self.Error = template.HTML(html.EscapeString(message))
}

func resolveTitle(s *model.Settings, feed *model.Feed) string {
	if s.Title != "" {
		return html.EscapeString(s.Title)
	} else if feed != nil {
		if title := sanitizer.StripTags(feed.Title); title != "" {
			return title
		}
	}
	return UnknownTitle
}

func fetchErrorMessage(err error) string {
	var fetchErr *fetcher.Error
	if errors.As(err, &fetchErr) && fetchErr.Message() != "" {
		return fetchErr.Message()
	}
	return fmt.Sprint(err)
}

func renderItems(feed *model.Feed, s *model.Settings) []Item {
	entries := feed.Window(s.ClampItems())
	if sorter.Sortable(s.Sort) {
		entries = sorter.Sort(entries, s.Sort)
	}

	policy := sanitizer.NewSummaryPolicy(s.AllowedTags)
	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = Item{
			Title:   template.HTML(sanitizer.SanitizeTitle(e.Title)),
			Link:    sanitizer.SanitizeLink(e.URL),
			Summary: template.HTML(policy.Summary(e.Description)),
		}
	}
	return items
}
