// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config // import "feedviewer.app/v1/internal/config"

import (
	"fmt"
	"maps"
	"net"
	"net/url"
	"runtime"
	"slices"
	"strings"
	"time"

	"feedviewer.app/v1/internal/model"
	"feedviewer.app/v1/internal/version"
)

var defaultUA = "FeedViewer/" + version.Version

// Option contains a key to value map of a single option. It may be used to
// output debug strings.
type Option struct {
	Key   string
	Value any
}

// Options contains configuration options.
type Options struct {
	HostLimits map[string]HostLimits `yaml:"host_limits" validate:"dive,keys,required,endkeys,required"`

	// Widgets contains named widget presets. Every preset uses the same keys
	// as the render endpoint: title, url, items, sort and allowed_tags.
	Widgets map[string]map[string]string `yaml:"widgets" validate:"dive,keys,required,endkeys,required"`

	env EnvOptions

	basePath       string
	trustedProxies []*net.IPNet
	widgets        map[string]*model.Settings
}

type HostLimits struct {
	Connections int64   `yaml:"connections" validate:"omitempty,min=0"`
	Rate        float64 `yaml:"rate" validate:"omitempty,min=0"`
}

func (self *HostLimits) withDefaults(connections int64, rate float64,
) HostLimits {
	limits := *self
	if limits.Connections == 0 {
		limits.Connections = connections
	}
	if limits.Rate == 0 {
		limits.Rate = rate
	}
	return limits
}

type EnvOptions struct {
	LogFile                string   `env:"LOG_FILE" validate:"required"`
	LogDateTime            bool     `env:"LOG_DATE_TIME"`
	LogFormat              string   `env:"LOG_FORMAT" validate:"required,oneof=human json text"`
	LogLevel               string   `env:"LOG_LEVEL" validate:"required,oneof=debug info warning error"`
	Logging                []Log    `envPrefix:"LOG" validate:"dive,required"`
	ListenAddr             string   `env:"LISTEN_ADDR" validate:"required"`
	Port                   string   `env:"PORT"`
	BasePath               string   `env:"BASE_PATH"`
	WorkerPoolSize         int      `env:"WORKER_POOL_SIZE" validate:"min=1"`
	HttpClientTimeout      int      `env:"HTTP_CLIENT_TIMEOUT" validate:"min=1"`
	HttpClientMaxBodySize  int64    `env:"HTTP_CLIENT_MAX_BODY_SIZE" validate:"min=1"`
	HttpClientProxyURL     *url.URL `env:"HTTP_CLIENT_PROXY"`
	HttpClientUserAgent    string   `env:"HTTP_CLIENT_USER_AGENT"`
	HttpServerTimeout      int      `env:"HTTP_SERVER_TIMEOUT" validate:"min=1"`
	ConnectionsPerServer   int64    `env:"CONNECTIONS_PER_SERVER" validate:"min=1"`
	RateLimitPerServer     float64  `env:"RATE_LIMIT_PER_SERVER" validate:"min=0"`
	CorsAllowedOrigins     []string `env:"CORS_ALLOWED_ORIGINS" validate:"dive,required"`
	TrustedProxies         []string `env:"TRUSTED_REVERSE_PROXY_NETWORKS" validate:"dive,required,cidr"`
	MetricsCollector       bool     `env:"METRICS_COLLECTOR"`
	MetricsAllowedNetworks []string `env:"METRICS_ALLOWED_NETWORKS" validate:"dive,required,cidr"`
	MetricsUsername        string   `env:"METRICS_USERNAME"`
	MetricsUsernameFile    *string  `env:"METRICS_USERNAME_FILE,file"`
	MetricsPassword        string   `env:"METRICS_PASSWORD"`
	MetricsPasswordFile    *string  `env:"METRICS_PASSWORD_FILE,file"`
	DefaultItems           int      `env:"DEFAULT_ITEMS" validate:"min=1,max=20"`
	DefaultSort            string   `env:"DEFAULT_SORT" validate:"oneof=in-order reverse-order a-z z-a none"`
	DefaultAllowedTags     string   `env:"DEFAULT_ALLOWED_TAGS"`
}

type Log struct {
	LogFile     string `env:"FILE" validate:"required"`
	LogDateTime bool   `env:"DATE_TIME"`
	LogFormat   string `env:"FORMAT" validate:"required,oneof=human json text"`
	LogLevel    string `env:"LEVEL" validate:"required,oneof=debug info warning error"`
}

// NewOptions returns Options with default values.
func NewOptions() *Options {
	return &Options{
		HostLimits: map[string]HostLimits{},
		Widgets:    map[string]map[string]string{},

		env: EnvOptions{
			LogFile:                "stderr",
			LogFormat:              "text",
			LogLevel:               "info",
			ListenAddr:             "127.0.0.1:8080",
			WorkerPoolSize:         max(4, runtime.GOMAXPROCS(0)),
			HttpClientTimeout:      20,
			HttpClientMaxBodySize:  15,
			HttpClientUserAgent:    defaultUA,
			HttpServerTimeout:      60,
			ConnectionsPerServer:   8,
			RateLimitPerServer:     10,
			CorsAllowedOrigins:     []string{"*"},
			MetricsAllowedNetworks: []string{"127.0.0.1/8"},
			DefaultItems:           model.DefaultItems,
			DefaultSort:            string(model.DefaultSort),
			DefaultAllowedTags:     model.DefaultAllowedTags,
		},
	}
}

func (o *Options) init() error {
	if o.env.Port != "" {
		o.env.ListenAddr = ":" + o.env.Port
	}

	if err := o.validate(); err != nil {
		return err
	}

	o.env.HttpClientMaxBodySize *= 1024 * 1024
	o.env.CorsAllowedOrigins = uniqStringList(o.env.CorsAllowedOrigins)
	o.basePath = parseBasePath(o.env.BasePath)
	o.applyFileStrings()
	if err := o.parseTrustedProxies(); err != nil {
		return err
	}
	return o.parseWidgets()
}

func (o *Options) validate() error {
	if err := Validator().Struct(&o.env); err != nil {
		return fmt.Errorf("config: failed validate: %w", err)
	}
	if err := Validator().Struct(o); err != nil {
		return fmt.Errorf("config: failed validate yaml: %w", err)
	}
	return nil
}

func uniqStringList(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	for i, s := range items {
		s = strings.TrimSpace(s)
		if s != "" {
			if _, found := seen[s]; !found {
				seen[s] = struct{}{}
			} else {
				s = ""
			}
		}
		items[i] = s
	}
	if len(seen) < len(items) {
		items = slices.DeleteFunc(items, func(s string) bool { return s == "" })
	}
	return items
}

func (o *Options) applyFileStrings() {
	opts := []struct {
		From *string
		To   *string
	}{
		{o.env.MetricsPasswordFile, &o.env.MetricsPassword},
		{o.env.MetricsUsernameFile, &o.env.MetricsUsername},
	}
	for _, opt := range opts {
		if opt.From != nil {
			*opt.To = strings.TrimSpace(*opt.From)
		}
	}
}

func (o *Options) parseTrustedProxies() error {
	o.trustedProxies = make([]*net.IPNet, len(o.env.TrustedProxies))
	for i, cidr := range o.env.TrustedProxies {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return fmt.Errorf("config: trusted proxy %q: %w", cidr, err)
		}
		o.trustedProxies[i] = network
	}
	return nil
}

func (o *Options) parseWidgets() error {
	defaults := o.DefaultSettings()
	o.widgets = make(map[string]*model.Settings, len(o.Widgets))
	for name, values := range o.Widgets {
		s, err := model.ParseSettings(values, defaults)
		if err != nil {
			return fmt.Errorf("config: widget %q: %w", name, err)
		}
		o.widgets[name] = s
	}
	return nil
}

func (o *Options) LogFile() string { return o.env.LogFile }

// LogDateTime returns true if the date/time should be displayed in log
// messages.
func (o *Options) LogDateTime() bool { return o.env.LogDateTime }

// LogFormat returns the log format.
func (o *Options) LogFormat() string { return o.env.LogFormat }

// LogLevel returns the log level.
func (o *Options) LogLevel() string { return o.env.LogLevel }

// SetLogLevel sets the log level.
func (o *Options) SetLogLevel(level string) { o.env.LogLevel = level }

// ListenAddr returns the listen address for the HTTP server.
func (o *Options) ListenAddr() string { return o.env.ListenAddr }

// BasePath returns the path prefix of all HTTP routes, without trailing
// slash.
func (o *Options) BasePath() string { return o.basePath }

// WorkerPoolSize returns the number of widgets rendered concurrently by a
// batch.
func (o *Options) WorkerPoolSize() int { return o.env.WorkerPoolSize }

// HTTPClientTimeout returns the time limit in seconds before the HTTP client
// cancel the request.
func (o *Options) HTTPClientTimeout() time.Duration {
	return time.Duration(o.env.HttpClientTimeout) * time.Second
}

// HTTPClientMaxBodySize returns the number of bytes allowed for the HTTP client
// to transfer.
func (o *Options) HTTPClientMaxBodySize() int64 {
	return o.env.HttpClientMaxBodySize
}

// HTTPClientProxyURL returns the client HTTP proxy URL if configured.
func (o *Options) HTTPClientProxyURL() *url.URL {
	return o.env.HttpClientProxyURL
}

// HTTPClientUserAgent returns the User-Agent header of feed requests.
func (o *Options) HTTPClientUserAgent() string {
	return o.env.HttpClientUserAgent
}

// HTTPServerTimeout returns the time limit in seconds before the HTTP server
// cancel the request.
func (o *Options) HTTPServerTimeout() time.Duration {
	return time.Duration(o.env.HttpServerTimeout) * time.Second
}

func (o *Options) ConnectionsPerServer() int64 {
	return o.env.ConnectionsPerServer
}

func (o *Options) RateLimitPerServer() float64 {
	return o.env.RateLimitPerServer
}

// CorsAllowedOrigins returns origins allowed to embed widgets using
// cross-origin requests.
func (o *Options) CorsAllowedOrigins() []string {
	return o.env.CorsAllowedOrigins
}

// TrustedProxy returns true if ip belongs to a trusted reverse proxy network,
// so its X-Forwarded-For header can be used.
func (o *Options) TrustedProxy(ip string) bool {
	if len(o.trustedProxies) == 0 {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, network := range o.trustedProxies {
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}

// HasMetricsCollector returns true if metrics collection is enabled.
func (o *Options) HasMetricsCollector() bool { return o.env.MetricsCollector }

// MetricsAllowedNetworks returns the list of networks allowed to connect to the
// metrics endpoint.
func (o *Options) MetricsAllowedNetworks() []string {
	return o.env.MetricsAllowedNetworks
}

func (o *Options) MetricsUsername() string { return o.env.MetricsUsername }
func (o *Options) MetricsPassword() string { return o.env.MetricsPassword }

// DefaultSettings returns widget settings used for every key missing from a
// render request or a widget preset.
func (o *Options) DefaultSettings() model.Settings {
	sort := model.SortPolicy(o.env.DefaultSort)
	if sort == "none" {
		sort = ""
	}
	return model.Settings{
		Items:       o.env.DefaultItems,
		Sort:        sort,
		AllowedTags: model.ParseAllowList(o.env.DefaultAllowedTags),
	}
}

// Widget returns preset settings by name.
func (o *Options) Widget(name string) (*model.Settings, bool) {
	s, ok := o.widgets[name]
	return s, ok
}

// WidgetNames returns sorted names of all widget presets.
func (o *Options) WidgetNames() []string {
	return slices.Sorted(maps.Keys(o.widgets))
}

func (o *Options) Logging() []Log {
	if len(o.env.Logging) == 0 {
		return []Log{{
			LogFile:     o.LogFile(),
			LogDateTime: o.LogDateTime(),
			LogFormat:   o.LogFormat(),
			LogLevel:    o.LogLevel(),
		}}
	}
	return slices.Clone(o.env.Logging)
}

// FindHostLimits returns limits configured for hostname or any of its parent
// domains, using server wide limits as defaults.
func (o *Options) FindHostLimits(hostname string) (found HostLimits) {
	for hostname != "" {
		if limits, ok := o.HostLimits[hostname]; ok {
			found = limits
			break
		}
		_, hostname, _ = strings.Cut(hostname, ".")
	}
	return found.withDefaults(o.ConnectionsPerServer(), o.RateLimitPerServer())
}

// SortedOptions returns options as a list of key value pairs, sorted by keys.
func (o *Options) SortedOptions(redactSecret bool) []Option {
	var clientProxyURLRedacted string
	if o.env.HttpClientProxyURL != nil {
		if redactSecret {
			clientProxyURLRedacted = o.env.HttpClientProxyURL.Redacted()
		} else {
			clientProxyURLRedacted = o.env.HttpClientProxyURL.String()
		}
	}

	keyValues := map[string]any{
		"BASE_PATH":                      o.BasePath(),
		"CONNECTIONS_PER_SERVER":         o.ConnectionsPerServer(),
		"CORS_ALLOWED_ORIGINS":           strings.Join(o.CorsAllowedOrigins(), ","),
		"DEFAULT_ALLOWED_TAGS":           o.env.DefaultAllowedTags,
		"DEFAULT_ITEMS":                  o.env.DefaultItems,
		"DEFAULT_SORT":                   o.env.DefaultSort,
		"HTTP_CLIENT_MAX_BODY_SIZE":      o.HTTPClientMaxBodySize(),
		"HTTP_CLIENT_PROXY":              clientProxyURLRedacted,
		"HTTP_CLIENT_TIMEOUT":            o.env.HttpClientTimeout,
		"HTTP_CLIENT_USER_AGENT":         o.HTTPClientUserAgent(),
		"HTTP_SERVER_TIMEOUT":            o.env.HttpServerTimeout,
		"LISTEN_ADDR":                    o.ListenAddr(),
		"LOG_DATE_TIME":                  o.LogDateTime(),
		"LOG_FILE":                       o.LogFile(),
		"LOG_FORMAT":                     o.LogFormat(),
		"LOG_LEVEL":                      o.LogLevel(),
		"METRICS_ALLOWED_NETWORKS":       strings.Join(o.MetricsAllowedNetworks(), ","),
		"METRICS_COLLECTOR":              o.HasMetricsCollector(),
		"METRICS_PASSWORD":               secretValue(o.MetricsPassword(), redactSecret),
		"METRICS_USERNAME":               o.MetricsUsername(),
		"RATE_LIMIT_PER_SERVER":          o.RateLimitPerServer(),
		"TRUSTED_REVERSE_PROXY_NETWORKS": strings.Join(o.env.TrustedProxies, ","),
		"WIDGETS":                        strings.Join(o.WidgetNames(), ","),
		"WORKER_POOL_SIZE":               o.WorkerPoolSize(),
	}

	sortedKeys := slices.Sorted(maps.Keys(keyValues))
	sortedOptions := make([]Option, len(sortedKeys))
	for i, key := range sortedKeys {
		sortedOptions[i] = Option{Key: key, Value: keyValues[key]}
	}
	return sortedOptions
}

// String returns all options as KEY=value lines with secrets redacted.
func (o *Options) String() string {
	var builder strings.Builder
	for _, option := range o.SortedOptions(true) {
		fmt.Fprintf(&builder, "%s=%v\n", option.Key, option.Value)
	}
	return builder.String()
}

func secretValue(value string, redactSecret bool) string {
	if redactSecret && value != "" {
		return "<secret>"
	}
	return value
}
