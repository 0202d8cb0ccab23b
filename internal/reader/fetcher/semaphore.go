// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package fetcher // import "feedviewer.app/v1/internal/reader/fetcher"

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"feedviewer.app/v1/internal/config"
	"feedviewer.app/v1/internal/logging"
)

var limitConnections = NewLimitPerServer(config.HostLimits{})

func newResponseSemaphore(r *RequestBuilder, rawURL string,
) (*ResponseSemaphore, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, NewError(
			fmt.Errorf("reader/fetcher: parse %q: %w", rawURL, err),
			"The feed URL `%s` is invalid.", rawURL)
	}

	switch u.Scheme {
	case "http", "https":
	default:
		return nil, NewError(
			fmt.Errorf("reader/fetcher: unsupported scheme of %q", rawURL),
			"The feed URL `%s` is invalid.", rawURL)
	}
	hostname := u.Hostname()

	ctx := r.Context()
	if err := r.limits.Acquire(ctx, hostname); err != nil {
		return nil, clientError(rawURL, err)
	}

	//nolint:bodyclose // ResponseSemaphore.Close() it
	resp, err := r.execute(rawURL)
	return &ResponseSemaphore{
		ResponseHandler: NewResponseHandler(rawURL, resp, err, r.maxBodySize),
		release:         func() { r.limits.Release(hostname) },
	}, nil
}

// ResponseSemaphore is a response, which holds a connection slot of its host
// until closed.
type ResponseSemaphore struct {
	*ResponseHandler

	closed  bool
	release func()
}

func (self *ResponseSemaphore) Close() {
	if self.closed {
		return
	}
	self.ResponseHandler.Close()
	self.release()
	self.release = nil
	self.closed = true
}

type hostLimiter struct {
	*semaphore.Weighted
	limiter *rate.Limiter
	refs    int
}

func newHostLimiter(limits config.HostLimits) *hostLimiter {
	r := rate.Inf
	if limits.Rate > 0 {
		r = rate.Limit(limits.Rate)
	}
	return &hostLimiter{
		Weighted: semaphore.NewWeighted(max(limits.Connections, 1)),
		limiter:  rate.NewLimiter(r, max(1, int(math.Ceil(limits.Rate)))),
	}
}

// NewLimitPerServer returns limits of concurrent connections and request rate
// per host. Zero fields of defaults are replaced by options of every host,
// see config.Options.FindHostLimits.
func NewLimitPerServer(defaults config.HostLimits) *limitHosts {
	return &limitHosts{
		defaults: defaults,
		servers:  map[string]*hostLimiter{},
	}
}

type limitHosts struct {
	defaults config.HostLimits
	servers  map[string]*hostLimiter
	mu       sync.Mutex
}

func (self *limitHosts) hostLimits(hostname string) config.HostLimits {
	limits := self.defaults
	if config.Opts == nil {
		return limits
	}

	found := config.Opts.FindHostLimits(hostname)
	if limits.Connections == 0 {
		limits.Connections = found.Connections
	}
	if limits.Rate == 0 {
		limits.Rate = found.Rate
	}
	return limits
}

func (self *limitHosts) Acquire(ctx context.Context, hostname string) error {
	self.mu.Lock()
	s := self.servers[hostname]
	if s == nil {
		s = newHostLimiter(self.hostLimits(hostname))
		self.servers[hostname] = s
	}
	s.refs++
	self.mu.Unlock()

	log := logging.FromContext(ctx).With(slog.String("hostname", hostname))
	if !s.TryAcquire(1) {
		log.Info("max connections limit reached")
		if err := s.Weighted.Acquire(ctx, 1); err != nil {
			self.unref(hostname, s)
			return fmt.Errorf(
				"reader/fetcher: acquire semaphore for host %q: %w", hostname, err)
		}
		log.Debug("acquired connection semaphore")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		self.Release(hostname)
		return fmt.Errorf(
			"reader/fetcher: wait rate limiter for host %q: %w", hostname, err)
	}
	return nil
}

func (self *limitHosts) Release(hostname string) {
	self.mu.Lock()
	s := self.servers[hostname]
	self.unrefLocked(hostname, s)
	self.mu.Unlock()
	s.Weighted.Release(1)
}

func (self *limitHosts) unref(hostname string, s *hostLimiter) {
	self.mu.Lock()
	self.unrefLocked(hostname, s)
	self.mu.Unlock()
}

func (self *limitHosts) unrefLocked(hostname string, s *hostLimiter) {
	s.refs--
	if s.refs == 0 {
		delete(self.servers, hostname)
	}
}
