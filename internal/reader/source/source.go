// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package source // import "feedviewer.app/v1/internal/reader/source"

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feedviewer.app/v1/internal/logging"
	"feedviewer.app/v1/internal/model"
	"feedviewer.app/v1/internal/reader/fetcher"
	"feedviewer.app/v1/internal/reader/parser"
)

// Source returns a parsed feed by its URL. Errors returned by Fetch are
// *fetcher.Error, so their messages can be displayed.
type Source interface {
	Fetch(ctx context.Context, feedURL string) (*model.Feed, error)
}

// Func is an adapter to use ordinary functions as Source.
type Func func(ctx context.Context, feedURL string) (*model.Feed, error)

var _ Source = Func(nil)

func (fn Func) Fetch(ctx context.Context, feedURL string) (*model.Feed,
	error,
) {
	return fn(ctx, feedURL)
}

// HTTP fetches feeds over HTTP(S), one attempt per call and without caching.
type HTTP struct {
	newRequest func() *fetcher.RequestBuilder
}

var _ Source = (*HTTP)(nil)

func NewHTTP() *HTTP { return &HTTP{newRequest: fetcher.NewRequestBuilder} }

// WithRequestBuilder sets constructor of requests, to customize them.
func (self *HTTP) WithRequestBuilder(fn func() *fetcher.RequestBuilder) *HTTP {
	self.newRequest = fn
	return self
}

func (self *HTTP) Fetch(ctx context.Context, feedURL string) (*model.Feed,
	error,
) {
	log := logging.FromContext(ctx).With(slog.String("feed_url", feedURL))
	start := time.Now()

	resp, err := self.newRequest().RequestWithContext(ctx, feedURL)
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	if fetchErr := resp.Error(); fetchErr != nil {
		return nil, fetchErr
	}

	body, fetchErr := resp.ReadBody()
	if fetchErr != nil {
		return nil, fetchErr
	}

	feed, err := parser.ParseFeed(resp.EffectiveURL(), bytes.NewReader(body))
	if err != nil {
		return nil, parseError(feedURL, err)
	}

	log.Debug("Fetched feed",
		slog.String("effective_url", resp.EffectiveURL()),
		slog.Int("size", len(body)),
		slog.Int("entries", feed.EntryCount()),
		slog.Duration("elapsed", time.Since(start)))
	return feed, nil
}

func parseError(feedURL string, err error) *fetcher.Error {
	err = fmt.Errorf("reader/source: parse %q: %w", feedURL, err)
	if errors.Is(err, parser.ErrFeedFormatNotDetected) {
		return fetcher.NewError(err,
			"The content at `%s` is not a supported feed.", feedURL)
	}
	return fetcher.NewError(err,
		"The feed at `%s` could not be parsed.", feedURL)
}
