// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package worker // import "feedviewer.app/v1/internal/worker"

import (
	"iter"
	"net/url"
	"slices"
	"strings"

	"feedviewer.app/v1/internal/model"
)

// Job is a single widget to render in a batch.
type Job struct {
	ID       string
	Settings *model.Settings
}

// Hostname returns the lowercased host of the feed URL or "" for invalid
// URLs.
func (self *Job) Hostname() string {
	u, err := url.Parse(self.Settings.URL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

type queueItem struct {
	*Job

	index int
}

func makeItems(jobs []Job) []queueItem {
	items := make([]queueItem, 0, len(jobs))
	for index := range distributeJobs(jobs) {
		items = append(items, queueItem{Job: &jobs[index], index: index})
	}
	return items
}

// distributeJobs yields indexes of jobs interleaved by host, so consecutive
// jobs hit different servers where possible. Hosts with more jobs go first.
func distributeJobs(jobs []Job) iter.Seq[int] {
	return func(yield func(int) bool) {
		var hosts [][]int
		byHost := make(map[string]int)
		for i := range jobs {
			h := jobs[i].Hostname()
			k, ok := byHost[h]
			if !ok {
				k = len(hosts)
				byHost[h] = k
				hosts = append(hosts, nil)
			}
			hosts[k] = append(hosts[k], i)
		}

		slices.SortStableFunc(hosts, func(a, b []int) int {
			return len(b) - len(a)
		})

		for i := 0; len(hosts) > 0; i++ {
			for _, indexes := range hosts {
				if i < len(indexes) && !yield(indexes[i]) {
					return
				}
			}
			hosts = slices.DeleteFunc(hosts, func(indexes []int) bool {
				return len(indexes) <= i+1
			})
		}
	}
}
