// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package sorter // import "feedviewer.app/v1/internal/reader/sorter"

import (
	"slices"
	"strings"

	"feedviewer.app/v1/internal/model"
)

type compareFunc func(a, b *model.Entry) int

var comparators = map[model.SortPolicy]compareFunc{
	model.SortInOrder:      byDate,
	model.SortReverseOrder: reverse(byDate),
	model.SortAZ:           byTitle,
	model.SortZA:           reverse(byTitle),
}

// Sort returns a copy of entries ordered by policy. Entries with equal keys
// keep their feed order. Unknown policies return the copy in feed order. The
// given slice is never modified.
func Sort(entries model.Entries, policy model.SortPolicy) model.Entries {
	sorted := slices.Clone(entries)
	if cmp, ok := comparators[policy]; ok {
		slices.SortStableFunc(sorted, cmp)
	}
	return sorted
}

// Sortable returns true if policy changes entries order.
func Sortable(policy model.SortPolicy) bool {
	_, ok := comparators[policy]
	return ok
}

// byDate orders entries chronologically. A missing date is the zero time, so
// such entries go first.
func byDate(a, b *model.Entry) int { return a.Date.Compare(b.Date) }

// byTitle compares titles byte by byte and falls back to the date.
func byTitle(a, b *model.Entry) int {
	if c := strings.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	return byDate(a, b)
}

func reverse(fn compareFunc) compareFunc {
	return func(a, b *model.Entry) int { return fn(b, a) }
}
