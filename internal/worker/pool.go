// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package worker // import "feedviewer.app/v1/internal/worker"

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"feedviewer.app/v1/internal/logging"
	"feedviewer.app/v1/internal/metric"
	"feedviewer.app/v1/internal/model"
	"feedviewer.app/v1/internal/widget"
)

// Renderer renders a single widget.
type Renderer interface {
	Render(ctx context.Context, id string, s *model.Settings) *widget.Result
}

// NewPool creates a pool of n workers rendering widgets with r.
func NewPool(r Renderer, n int) *Pool {
	return &Pool{renderer: r, size: max(n, 1)}
}

// Pool renders batches of widgets concurrently.
type Pool struct {
	renderer Renderer
	size     int
}

// Size returns the max number of concurrent renders.
func (self *Pool) Size() int { return self.size }

// Render renders all jobs and returns their results in the order of jobs.
// Every job gets a result, failed renders carry an error block.
func (self *Pool) Render(ctx context.Context, jobs []Job) []*widget.Result {
	log := logging.FromContext(ctx).With(slog.Int("jobs", len(jobs)))
	log.Info("worker: created a batch of widgets")

	results := make([]*widget.Result, len(jobs))
	startTime := time.Now()

	var g errgroup.Group
	g.SetLimit(self.size)
	for _, item := range makeItems(jobs) {
		g.Go(func() error {
			results[item.index] = self.render(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(startTime)
	metric.BatchRenderDuration.Observe(elapsed.Seconds())

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	log.Info("worker: rendered a batch of widgets",
		slog.Int("failed", failed),
		slog.Duration("elapsed", elapsed))
	return results
}

func (self *Pool) render(ctx context.Context, item queueItem) *widget.Result {
	log := logging.FromContext(ctx).With(slog.Int("job", item.index))
	log.Debug("worker: job received",
		slog.String("widget_id", item.ID),
		slog.String("feed_url", item.Settings.URL))
	return self.renderer.Render(logging.WithLogger(ctx, log), item.ID,
		item.Settings)
}
