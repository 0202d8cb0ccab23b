// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package fetcher // import "feedviewer.app/v1/internal/reader/fetcher"

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"feedviewer.app/v1/internal/config"
	"feedviewer.app/v1/internal/logging"
)

const defaultAcceptHeader = "application/xml, application/atom+xml, application/rss+xml, application/rdf+xml, application/feed+json, text/xml;q=0.9, */*;q=0.8"

// Request fetches requestURL using application defaults.
func Request(ctx context.Context, requestURL string) (*ResponseSemaphore,
	error,
) {
	return NewRequestBuilder().RequestWithContext(ctx, requestURL)
}

type RequestBuilder struct {
	ctx            context.Context
	headers        http.Header
	clientProxyURL *url.URL
	clientTimeout  time.Duration
	maxBodySize    int64
	limits         *limitHosts

	customizedClient bool
}

func NewRequestBuilder() *RequestBuilder {
	r := &RequestBuilder{
		headers:        make(http.Header),
		clientProxyURL: config.Opts.HTTPClientProxyURL(),
		clientTimeout:  config.Opts.HTTPClientTimeout(),
		maxBodySize:    config.Opts.HTTPClientMaxBodySize(),
		limits:         limitConnections,
	}
	return r.WithUserAgent("", config.Opts.HTTPClientUserAgent())
}

func (r *RequestBuilder) WithContext(ctx context.Context) *RequestBuilder {
	r.ctx = ctx
	return r
}

func (r *RequestBuilder) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

func (r *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	r.headers.Set(key, value)
	return r
}

func (r *RequestBuilder) WithUserAgent(userAgent string, defaultUserAgent string,
) *RequestBuilder {
	if userAgent != "" {
		r.headers.Set("User-Agent", userAgent)
	} else {
		r.headers.Set("User-Agent", defaultUserAgent)
	}
	return r
}

// WithProxyURL routes requests through proxyURL instead of HTTP_CLIENT_PROXY.
func (r *RequestBuilder) WithProxyURL(proxyURL *url.URL) *RequestBuilder {
	r.clientProxyURL = proxyURL
	r.customizedClient = true
	return r
}

func (r *RequestBuilder) WithTimeout(d time.Duration) *RequestBuilder {
	if d != r.clientTimeout {
		r.clientTimeout = d
		r.customizedClient = true
	}
	return r
}

func (r *RequestBuilder) WithMaxBodySize(n int64) *RequestBuilder {
	r.maxBodySize = n
	return r
}

func (r *RequestBuilder) Timeout() time.Duration { return r.clientTimeout }

func (r *RequestBuilder) execute(requestURL string) (*http.Response, error) {
	req, err := r.req(requestURL)
	if err != nil {
		return nil, err
	}

	var proxyURLRedacted string
	if r.clientProxyURL != nil {
		proxyURLRedacted = r.clientProxyURL.Redacted()
	}

	log := logging.FromContext(r.Context())
	log.Debug("Making outgoing request",
		slog.Bool("customized", r.customizedClient),
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.Any("headers", req.Header),
		slog.String("client_proxy_url", proxyURLRedacted))

	start := time.Now()
	resp, err := r.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("reader/fetcher: do http request: %w", err)
	}

	log.Debug("Got response",
		slog.Int("status_code", resp.StatusCode),
		slog.String("status", resp.Status),
		slog.Int64("content_length", resp.ContentLength),
		slog.String("proto", resp.Proto),
		slog.Duration("request_time", time.Since(start)))
	return resp, nil
}

var (
	defaultClient *http.Client
	onceClient    sync.Once
)

func (r *RequestBuilder) client() *http.Client {
	if r.customizedClient {
		return r.makeClient()
	}
	onceClient.Do(func() { defaultClient = r.makeClient() })
	return defaultClient
}

func (r *RequestBuilder) makeClient() *http.Client {
	return &http.Client{
		Transport: r.transport(),
		Timeout:   r.Timeout(),
	}
}

func (r *RequestBuilder) transport() http.RoundTripper {
	dialer := &net.Dialer{Timeout: r.Timeout()}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   r.Timeout(),
		DisableKeepAlives:     r.customizedClient,
		IdleConnTimeout:       10 * time.Second,
		ResponseHeaderTimeout: r.Timeout(),

		// Setting `DialContext` disables HTTP/2, this option forces the transport
		// to try HTTP/2 regardless.
		ForceAttemptHTTP2: true,
	}

	if r.clientProxyURL != nil {
		transport.Proxy = http.ProxyURL(r.clientProxyURL)
	}
	return gzhttp.Transport(transport)
}

func (r *RequestBuilder) req(requestURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet,
		requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("reader/fetcher: create http request: %w", err)
	}
	req.Header = r.headers.Clone()
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", defaultAcceptHeader)
	}
	return req, nil
}

// Request executes GET requestURL, waiting for a free connection slot and
// the rate limiter of its host. Returned error is always *Error. Close the
// response to release the slot.
func (r *RequestBuilder) Request(requestURL string) (*ResponseSemaphore,
	error,
) {
	return newResponseSemaphore(r, requestURL)
}

func (r *RequestBuilder) RequestWithContext(ctx context.Context,
	requestURL string,
) (*ResponseSemaphore, error) {
	return newResponseSemaphore(r.WithContext(ctx), requestURL)
}
