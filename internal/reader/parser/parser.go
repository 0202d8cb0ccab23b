// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package parser // import "feedviewer.app/v1/internal/reader/parser"

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"feedviewer.app/v1/internal/model"
)

var ErrFeedFormatNotDetected = errors.New("parser: unable to detect feed format")

// ParseFeed parses RSS, Atom, RDF or JSON Feed from r and returns a
// normalized feed. Relative links are resolved against the site URL of the
// feed, or baseURL.
func ParseFeed(baseURL string, r io.Reader) (*model.Feed, error) {
	parsed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		if errors.Is(err, gofeed.ErrFeedTypeNotDetected) {
			return nil, ErrFeedFormatNotDetected
		}
		return nil, fmt.Errorf("reader/parser: parse feed: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("reader/parser: parse base URL %q: %w", baseURL,
			err)
	}

	p := universalFeed{baseURL: base, src: parsed}
	return p.Feed(), nil
}

type universalFeed struct {
	baseURL *url.URL
	src     *gofeed.Feed

	parsedSiteURL *url.URL
}

func (self *universalFeed) Feed() *model.Feed {
	feed := &model.Feed{
		Title:   self.src.Title,
		FeedURL: self.feedURL(),
		SiteURL: self.siteURL(),
	}

	if len(self.src.Items) != 0 {
		feed.Entries = make(model.Entries, len(self.src.Items))
		for i, item := range self.src.Items {
			feed.Entries[i] = self.entry(item)
		}
	}
	return feed
}

func (self *universalFeed) feedURL() string {
	link := strings.TrimSpace(self.src.FeedLink)
	if link == "" {
		return self.baseURL.String()
	}

	u, err := url.Parse(link)
	if err != nil {
		return self.baseURL.String()
	} else if u.IsAbs() {
		return link
	}
	return self.baseURL.ResolveReference(u).String()
}

func (self *universalFeed) siteURL() string {
	link := strings.TrimSpace(self.src.Link)
	if link == "" {
		return ""
	}

	u, err := url.Parse(link)
	if err != nil {
		return link
	} else if u.IsAbs() {
		self.parsedSiteURL = u
		return link
	}

	self.parsedSiteURL = self.baseURL.ResolveReference(u)
	return self.parsedSiteURL.String()
}

func (self *universalFeed) entry(item *gofeed.Item) *model.Entry {
	entry := &model.Entry{
		Title:       item.Title,
		URL:         self.entryURL(item),
		Description: item.Description,
	}

	if strings.TrimSpace(entry.Description) == "" {
		entry.Description = item.Content
	}

	switch {
	case item.PublishedParsed != nil:
		entry.Date = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		entry.Date = *item.UpdatedParsed
	}
	return entry
}

func (self *universalFeed) entryURL(item *gofeed.Item) string {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		for _, s := range item.Links {
			if s = strings.TrimSpace(s); s != "" {
				link = s
				break
			}
		}
	}

	if link == "" {
		return ""
	}

	u, err := url.Parse(link)
	switch {
	case err != nil, u.IsAbs():
		return link
	case self.parsedSiteURL != nil:
		return self.parsedSiteURL.ResolveReference(u).String()
	}
	return self.baseURL.ResolveReference(u).String()
}
