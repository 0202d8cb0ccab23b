// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package sanitizer // import "feedviewer.app/v1/internal/reader/sanitizer"

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

const schemePrefix = "http"

// SanitizeLink drops leading characters of s until it starts with "http"
// (case-insensitive), strips tags and escapes the rest as URL. Links without
// "http" are reduced to empty string.
//
// Some feeds prefix links with garbage like a stray quote. It isn't a URL
// validation.
func SanitizeLink(s string) string {
	return SanitizeURL(trimToScheme(s))
}

func trimToScheme(s string) string {
	for len(s) >= len(schemePrefix) {
		if strings.EqualFold(s[:len(schemePrefix)], schemePrefix) {
			return s
		}
		s = s[1:]
	}
	return ""
}

// SanitizeURL strips tags from s and escapes it as URL. Unparseable URLs are
// reduced to empty string.
func SanitizeURL(s string) string {
	s = strings.TrimSpace(html.UnescapeString(StripTags(s)))
	if s == "" {
		return ""
	}

	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return u.String()
}
