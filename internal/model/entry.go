// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package model // import "feedviewer.app/v1/internal/model"

import "time"

// Entry represents a feed item. A zero Date means the feed didn't provide a
// publication date.
type Entry struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Date        time.Time `json:"published_at,omitzero"`
}

// HasDate returns true if the entry carries a publication date.
func (e *Entry) HasDate() bool { return !e.Date.IsZero() }

// Entries represents a list of entries.
type Entries []*Entry

// Titles returns entry titles in order.
func (self Entries) Titles() []string {
	titles := make([]string, len(self))
	for i, e := range self {
		titles[i] = e.Title
	}
	return titles
}
