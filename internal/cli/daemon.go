// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "feedviewer.app/v1/internal/cli"

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"feedviewer.app/v1/internal/config"
	"feedviewer.app/v1/internal/http/server"
	"feedviewer.app/v1/internal/metric"
	"feedviewer.app/v1/internal/template"
	"feedviewer.app/v1/internal/widget"
	"feedviewer.app/v1/internal/worker"
)

const shutdownTimeout = 5 * time.Second

func NewDaemon() *Daemon { return &Daemon{} }

// Daemon serves widgets over HTTP until it gets SIGTERM or an interrupt.
type Daemon struct {
	g          *errgroup.Group
	httpServer *http.Server
	pool       *worker.Pool
	renderer   *widget.Renderer
	templates  *template.Engine
}

func (self *Daemon) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM, os.Interrupt)
	defer cancel()

	slog.Info("Starting daemon...")
	if err := self.configure(); err != nil {
		return err
	}

	ctx, err := self.start(ctx)
	if err != nil {
		return err
	}
	return self.wait(ctx)
}

func (self *Daemon) configure() error {
	renderer, templates, err := makeRenderer()
	if err != nil {
		return err
	}
	self.renderer, self.templates = renderer, templates
	self.pool = worker.NewPool(renderer, config.Opts.WorkerPoolSize())

	slog.Info("Widget presets loaded",
		slog.Int("count", len(config.Opts.WidgetNames())),
		slog.Int("worker_pool_size", self.pool.Size()))
	return nil
}

// start serves HTTP and returns a context canceled when the server fails.
func (self *Daemon) start(ctx context.Context) (context.Context, error) {
	listener, err := server.Listener()
	if err != nil {
		return nil, err
	}

	if config.Opts.HasMetricsCollector() {
		metric.RegisterMetrics()
	}

	self.g, ctx = errgroup.WithContext(ctx)
	self.httpServer = server.StartWebServer(self.templates, self.renderer,
		self.pool, self.g, listener)
	return ctx, nil
}

func (self *Daemon) wait(ctx context.Context) error {
	<-ctx.Done()
	server.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("Shutting down the process gracefully...")
	if err := self.httpServer.Shutdown(ctx); err != nil {
		slog.Error("failed shutdown http server", slog.Any("error", err))
	}

	if err := self.g.Wait(); err != nil {
		slog.Error("process stopped with error", slog.Any("error", err))
		return fmt.Errorf("process stopped with error: %w", err)
	}
	slog.Info("Process gracefully stopped")
	return nil
}
