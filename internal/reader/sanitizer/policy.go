// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package sanitizer // import "feedviewer.app/v1/internal/reader/sanitizer"

import (
	"strings"

	"github.com/dsh2dsh/bluemonday/v2"
	"golang.org/x/net/html"

	"feedviewer.app/v1/internal/model"
)

const (
	untitled = "Untitled"

	summaryOpen  = `<div class="summary">`
	summaryClose = `</div>`
)

var (
	allowSchemes = []string{"http", "https", "mailto"}

	titlePolicy = bluemonday.StrictPolicy()
)

// StripTags removes all HTML tags from s. Text is returned HTML-escaped.
func StripTags(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return titlePolicy.Sanitize(s)
}

// SanitizeTitle returns an HTML-escaped, tag free title or "Untitled" if
// nothing is left.
func SanitizeTitle(s string) string {
	if title := strings.TrimSpace(StripTags(s)); title != "" {
		return title
	}
	return untitled
}

// SummaryPolicy sanitizes entry descriptions keeping only allowed elements.
// It's safe for concurrent use.
type SummaryPolicy struct {
	p    *bluemonday.Policy
	tags model.AllowList
}

// NewSummaryPolicy builds a policy from the allow-list. Elements outside of
// the allow-list are removed, but their text is kept. Content of script and
// style elements is removed entirely.
func NewSummaryPolicy(tags model.AllowList) *SummaryPolicy {
	p := bluemonday.StrictPolicy()
	self := &SummaryPolicy{p: p, tags: tags.Clone()}
	if len(tags) == 0 {
		return self
	}

	p.AllowNoAttrs().OnElements(tags...)
	p.AllowAttrs("title").Globally()

	if tags.Contains("a") {
		p.AllowURLSchemes(allowSchemes...)
		p.RequireNoReferrerOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		p.AllowAttrs("href").OnElements("a")
	}

	if tags.Contains("img") {
		p.AllowURLSchemes(allowSchemes...)
		p.AllowAttrs("src", "alt").OnElements("img")
		p.AllowAttrs("height", "width").Matching(bluemonday.Number).
			OnElements("img")
	}
	return self
}

// AllowList returns the allow-list this policy was built from.
func (self *SummaryPolicy) AllowList() model.AllowList { return self.tags }

// Sanitize decodes HTML entities of s and strips disallowed elements.
func (self *SummaryPolicy) Sanitize(s string) string {
	s = strings.TrimSpace(html.UnescapeString(s))
	if s == "" {
		return s
	}
	return self.p.Sanitize(s)
}

// Summary returns sanitized s wrapped into the summary container.
func (self *SummaryPolicy) Summary(s string) string {
	return summaryOpen + self.Sanitize(s) + summaryClose
}

// SanitizeSummary is a shortcut for NewSummaryPolicy(tags).Summary(s). Use
// a SummaryPolicy directly when sanitizing many descriptions with the same
// allow-list.
func SanitizeSummary(s string, tags model.AllowList) string {
	return NewSummaryPolicy(tags).Summary(s)
}
