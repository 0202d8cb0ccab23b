// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package model // import "feedviewer.app/v1/internal/model"

import (
	"slices"
	"strings"
)

// AllowList holds lowercase names of HTML elements allowed in entry
// summaries.
type AllowList []string

// ParseAllowList parses comma separated tag names. Names are trimmed and
// lowercased, angle brackets are removed, empty names and duplicates are
// dropped.
func ParseAllowList(raw string) AllowList {
	var tags AllowList
	for s := range strings.SplitSeq(raw, ",") {
		s = strings.Trim(strings.TrimSpace(s), "<>/ ")
		if s == "" {
			continue
		}
		s = strings.ToLower(s)
		if !slices.Contains(tags, s) {
			tags = append(tags, s)
		}
	}
	return tags
}

func (self AllowList) Contains(tag string) bool {
	return slices.Contains(self, strings.ToLower(tag))
}

func (self AllowList) Clone() AllowList { return slices.Clone(self) }

// Raw returns the comma separated form.
func (self AllowList) Raw() string { return strings.Join(self, ",") }

// String returns the allow-list form: "<p><div><br>".
func (self AllowList) String() string {
	if len(self) == 0 {
		return ""
	}
	return "<" + strings.Join(self, "><") + ">"
}
