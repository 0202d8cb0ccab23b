// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package model // import "feedviewer.app/v1/internal/model"

// SortPolicy names an ordering applied to the bounded entry window.
type SortPolicy string

const (
	SortInOrder      SortPolicy = "in-order"
	SortReverseOrder SortPolicy = "reverse-order"
	SortAZ           SortPolicy = "a-z"
	SortZA           SortPolicy = "z-a"
)

var sortLabels = map[SortPolicy]string{
	SortInOrder:      "Recent First",
	SortReverseOrder: "Recent Last",
	SortAZ:           "A-Z",
	SortZA:           "Z-A",
}

// SortPolicies returns all known policies in the order they are offered to
// users.
func SortPolicies() []SortPolicy {
	return []SortPolicy{SortInOrder, SortReverseOrder, SortAZ, SortZA}
}

// Known returns true if entries must be ordered using this policy. Unknown
// policies keep feed order.
func (self SortPolicy) Known() bool {
	_, ok := sortLabels[self]
	return ok
}

// Label returns the user facing name of the policy.
//
// Note "Recent First" orders entries from the oldest to the newest one.
func (self SortPolicy) Label() string { return sortLabels[self] }
