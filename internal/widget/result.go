// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package widget // import "feedviewer.app/v1/internal/widget"

import (
	"html/template"

	"feedviewer.app/v1/internal/metric"
)

// Item is a rendered feed entry. Title and Summary are sanitized HTML.
type Item struct {
	Title   template.HTML `json:"title"`
	Link    string        `json:"link,omitempty"`
	Summary template.HTML `json:"summary"`
}

// Result is the outcome of a single widget render. It carries either items
// or an error message, never both.
type Result struct {
	ID      string        `json:"id"`
	Title   template.HTML `json:"title"`
	FeedURL string        `json:"feed_url"`
	Items   []Item        `json:"items,omitempty"`
	Error   template.HTML `json:"error,omitempty"`
	Markup  template.HTML `json:"markup"`

	err     error
	outcome string
}

// Failed returns true if the widget shows an error block instead of items.
func (self *Result) Failed() bool { return self.Error != "" }

// Err returns the underlying error of a failed render.
func (self *Result) Err() error { return self.err }

// Outcome returns one of metric.OutcomeOK, metric.OutcomeFetchError or
// metric.OutcomeEmptyFeed.
func (self *Result) Outcome() string {
	if self.outcome == "" {
		return metric.OutcomeOK
	}
	return self.outcome
}

// Bytes returns the rendered markup.
func (self *Result) Bytes() []byte { return []byte(self.Markup) }

func (self *Result) String() string { return string(self.Markup) }
