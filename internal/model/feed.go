// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package model // import "feedviewer.app/v1/internal/model"

// Feed represents a parsed feed as returned by a feed source.
type Feed struct {
	Title   string  `json:"title"`
	FeedURL string  `json:"feed_url"`
	SiteURL string  `json:"site_url"`
	Entries Entries `json:"entries,omitempty"`
}

// EntryCount returns the number of entries reported by the feed.
func (f *Feed) EntryCount() int { return len(f.Entries) }

// Window returns at most n leading entries in source order. The returned
// slice shares its backing array with the feed.
func (f *Feed) Window(n int) Entries {
	if n >= len(f.Entries) {
		return f.Entries
	}
	return f.Entries[:max(n, 0)]
}
