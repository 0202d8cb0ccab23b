// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package metric // import "feedviewer.app/v1/internal/metric"

import (
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"feedviewer.app/v1/internal/config"
	"feedviewer.app/v1/internal/http/request"
	"feedviewer.app/v1/internal/logging"
)

// Render outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeFetchError = "fetch_error"
	OutcomeEmptyFeed  = "empty_feed"
)

// Prometheus Metrics.
var (
	WidgetRenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "feedviewer",
			Name:      "widget_render_duration",
			Help:      "Time to fetch a feed and render its widget",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"outcome"},
	)

	WidgetRenderItems = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "feedviewer",
			Name:      "widget_render_items",
			Help:      "Number of entries rendered per widget",
			Buckets:   prometheus.LinearBuckets(1, 1, 20),
		},
	)

	BatchRenderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "feedviewer",
			Name:      "batch_render_duration",
			Help:      "Time to render a batch of widgets by the worker pool",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)

var registerOnce sync.Once

// RegisterMetrics registers all collectors with the default registry. It's
// safe to call it more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(WidgetRenderDuration)
		prometheus.MustRegister(WidgetRenderItems)
		prometheus.MustRegister(BatchRenderDuration)
	})
}

// Handler returns the metrics endpoint guarded by the configured basic auth
// credentials and allowed networks.
func Handler() http.Handler {
	promHandler := promhttp.Handler()
	fn := func(w http.ResponseWriter, r *http.Request) {
		if !isAllowedToAccessMetricsEndpoint(r) {
			http.NotFound(w, r)
			return
		}
		promHandler.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func isAllowedToAccessMetricsEndpoint(r *http.Request) bool {
	log := logging.FromContext(r.Context()).With(
		slog.Bool("authentication_failed", true),
		slog.String("client_ip", request.ClientIP(r)),
		slog.String("client_user_agent", r.UserAgent()),
		slog.String("client_remote_addr", r.RemoteAddr))

	needAuth := config.Opts.MetricsUsername() != "" &&
		config.Opts.MetricsPassword() != ""
	if needAuth {
		username, password, authOK := r.BasicAuth()
		switch {
		case !authOK:
			log.Warn("Metrics endpoint accessed without authentication header")
			return false
		case username == "" || password == "":
			log.Warn("Metrics endpoint accessed with empty username or password")
			return false
		case username != config.Opts.MetricsUsername() || password != config.Opts.MetricsPassword():
			log.Warn("Metrics endpoint accessed with invalid username or password")
			return false
		}
	}

	remoteIP := request.FindRemoteIP(r)
	if remoteIP == "@" {
		// Unix socket requests are always trusted.
		return true
	}

	for _, cidr := range config.Opts.MetricsAllowedNetworks() {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			log.Error("Metrics endpoint accessed with invalid CIDR",
				slog.String("cidr", cidr))
			return false
		}

		// r.RemoteAddr only, X-Forwarded-For can be spoofed.
		if network.Contains(net.ParseIP(remoteIP)) {
			return true
		}
	}
	log.Warn("Metrics endpoint accessed from a not allowed network")
	return false
}
