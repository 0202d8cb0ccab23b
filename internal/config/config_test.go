// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config // import "feedviewer.app/v1/internal/config"

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedviewer.app/v1/internal/model"
)

func parseEnvironmentVariables(t *testing.T) *Options {
	t.Helper()
	parser := NewParser()
	opts, err := parser.ParseEnvironmentVariables()
	require.NoError(t, err)
	require.NotNil(t, opts)
	return opts
}

func TestLogFileDefaultValue(t *testing.T) {
	os.Clearenv()
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, NewOptions().env.LogFile, opts.LogFile())
}

func TestLogFileWithCustomFilename(t *testing.T) {
	os.Clearenv()
	const want = "foobar.log"
	t.Setenv("LOG_FILE", want)
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, want, opts.LogFile())
}

func TestLogLevelWithCustomValue(t *testing.T) {
	os.Clearenv()
	const want = "warning"
	t.Setenv("LOG_LEVEL", want)
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, want, opts.LogLevel())
}

func TestLogLevelWithInvalidValue(t *testing.T) {
	os.Clearenv()
	t.Setenv("LOG_LEVEL", "invalid")
	_, err := NewParser().ParseEnvironmentVariables()
	require.ErrorContains(t, err, "oneof")
}

func TestLogDateTimeWithInvalidValue(t *testing.T) {
	os.Clearenv()
	t.Setenv("LOG_DATE_TIME", "invalid")
	_, err := NewParser().ParseEnvironmentVariables()
	require.ErrorContains(t, err, "invalid syntax")
}

func TestLogFormatWithInvalidValue(t *testing.T) {
	os.Clearenv()
	t.Setenv("LOG_FORMAT", "invalid")
	_, err := NewParser().ParseEnvironmentVariables()
	require.ErrorContains(t, err, "failed on the 'oneof' tag")
}

func TestListenAddr(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "default",
			want: "127.0.0.1:8080",
		},
		{
			name: "custom",
			env:  map[string]string{"LISTEN_ADDR": "foobar:3000"},
			want: "foobar:3000",
		},
		{
			name: "port overrides",
			env: map[string]string{
				"LISTEN_ADDR": "foobar:3000",
				"PORT":        "1234",
			},
			want: ":1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			opts := parseEnvironmentVariables(t)
			assert.Equal(t, tt.want, opts.ListenAddr())
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{value: "", want: ""},
		{value: "/", want: ""},
		{value: "widgets", want: "/widgets"},
		{value: "/widgets/", want: "/widgets"},
		{value: " /a/b/ ", want: "/a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			os.Clearenv()
			t.Setenv("BASE_PATH", tt.value)
			opts := parseEnvironmentVariables(t)
			assert.Equal(t, tt.want, opts.BasePath())
		})
	}
}

func TestHTTPClientOptions(t *testing.T) {
	os.Clearenv()
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, 20*time.Second, opts.HTTPClientTimeout())
	assert.Equal(t, int64(15*1024*1024), opts.HTTPClientMaxBodySize())
	assert.Equal(t, defaultUA, opts.HTTPClientUserAgent())
	assert.Nil(t, opts.HTTPClientProxyURL())

	t.Setenv("HTTP_CLIENT_TIMEOUT", "5")
	t.Setenv("HTTP_CLIENT_MAX_BODY_SIZE", "2")
	t.Setenv("HTTP_CLIENT_USER_AGENT", "test")
	t.Setenv("HTTP_CLIENT_PROXY", "http://proxy.example.org:3128")
	opts = parseEnvironmentVariables(t)
	assert.Equal(t, 5*time.Second, opts.HTTPClientTimeout())
	assert.Equal(t, int64(2*1024*1024), opts.HTTPClientMaxBodySize())
	assert.Equal(t, "test", opts.HTTPClientUserAgent())
	require.NotNil(t, opts.HTTPClientProxyURL())
	assert.Equal(t, "proxy.example.org:3128", opts.HTTPClientProxyURL().Host)

	t.Setenv("HTTP_CLIENT_TIMEOUT", "0")
	_, err := NewParser().ParseEnvironmentVariables()
	require.Error(t, err)
}

func TestCorsAllowedOrigins(t *testing.T) {
	os.Clearenv()
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, []string{"*"}, opts.CorsAllowedOrigins())

	t.Setenv("CORS_ALLOWED_ORIGINS",
		"https://a.example.com, https://b.example.com,https://a.example.com")
	opts = parseEnvironmentVariables(t)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"},
		opts.CorsAllowedOrigins())
}

func TestMetrics(t *testing.T) {
	os.Clearenv()
	opts := parseEnvironmentVariables(t)
	assert.False(t, opts.HasMetricsCollector())
	assert.Equal(t, []string{"127.0.0.1/8"}, opts.MetricsAllowedNetworks())

	t.Setenv("METRICS_COLLECTOR", "1")
	t.Setenv("METRICS_ALLOWED_NETWORKS", "10.0.0.0/8,192.168.0.0/16")
	t.Setenv("METRICS_USERNAME", "user")
	t.Setenv("METRICS_PASSWORD", "secret")
	opts = parseEnvironmentVariables(t)
	assert.True(t, opts.HasMetricsCollector())
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"},
		opts.MetricsAllowedNetworks())
	assert.Equal(t, "user", opts.MetricsUsername())
	assert.Equal(t, "secret", opts.MetricsPassword())

	t.Setenv("METRICS_ALLOWED_NETWORKS", "not a network")
	_, err := NewParser().ParseEnvironmentVariables()
	require.Error(t, err)
}

func TestMetricsPasswordFile(t *testing.T) {
	os.Clearenv()
	name := t.TempDir() + "/password"
	require.NoError(t, os.WriteFile(name, []byte("secret\n"), 0o600))
	t.Setenv("METRICS_PASSWORD_FILE", name)
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, "secret", opts.MetricsPassword())
}

func TestDefaultSettings(t *testing.T) {
	os.Clearenv()
	opts := parseEnvironmentVariables(t)
	assert.Equal(t, model.DefaultSettings(), opts.DefaultSettings())

	t.Setenv("DEFAULT_ITEMS", "3")
	t.Setenv("DEFAULT_SORT", "z-a")
	t.Setenv("DEFAULT_ALLOWED_TAGS", "p,a")
	opts = parseEnvironmentVariables(t)
	assert.Equal(t, model.Settings{
		Items:       3,
		Sort:        model.SortZA,
		AllowedTags: model.AllowList{"p", "a"},
	}, opts.DefaultSettings())

	t.Setenv("DEFAULT_SORT", "none")
	opts = parseEnvironmentVariables(t)
	assert.Empty(t, opts.DefaultSettings().Sort)

	t.Setenv("DEFAULT_SORT", "random")
	_, err := NewParser().ParseEnvironmentVariables()
	require.ErrorContains(t, err, "oneof")

	t.Setenv("DEFAULT_SORT", "a-z")
	t.Setenv("DEFAULT_ITEMS", "21")
	_, err = NewParser().ParseEnvironmentVariables()
	require.ErrorContains(t, err, "max")
}

func TestOptions_Logging(t *testing.T) {
	os.Clearenv()
	opts := parseEnvironmentVariables(t)
	want := []Log{{LogFile: "stderr", LogFormat: "text", LogLevel: "info"}}
	assert.Equal(t, want, opts.Logging())

	t.Setenv("LOG_FILE", "stdout")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_0_FILE", "stderr")
	t.Setenv("LOG_0_FORMAT", "human")
	t.Setenv("LOG_0_LEVEL", "warning")
	opts = parseEnvironmentVariables(t)
	want = []Log{{LogFile: "stderr", LogFormat: "human", LogLevel: "warning"}}
	assert.Equal(t, want, opts.Logging())
}

func TestSortedOptions(t *testing.T) {
	os.Clearenv()
	t.Setenv("METRICS_PASSWORD", "secret")
	opts := parseEnvironmentVariables(t)

	values := make(map[string]any)
	for _, opt := range opts.SortedOptions(true) {
		values[opt.Key] = opt.Value
	}
	assert.Equal(t, "<secret>", values["METRICS_PASSWORD"])
	assert.Equal(t, "127.0.0.1:8080", values["LISTEN_ADDR"])
	assert.Contains(t, opts.String(), "METRICS_PASSWORD=secret\n")
}

func TestLoadYAML(t *testing.T) {
	require.Error(t, LoadYAML("testdata/notfound.yaml", ""))
	require.Error(t, LoadYAML("", "testdata/notfound.env"))

	os.Clearenv()
	require.NoError(t, LoadYAML("", ""))
	assert.Empty(t, Opts.WidgetNames())

	require.NoError(t, LoadYAML("testdata/widgets.yaml", ""))
	assert.Equal(t, []string{"blog", "news"}, Opts.WidgetNames())

	require.NoError(t, LoadYAML("testdata/widgets.yaml",
		"testdata/widgets.env"))
	assert.Equal(t, int64(4), Opts.ConnectionsPerServer())
	//nolint:testifylint // const 1 is always 1.0
	assert.Equal(t, float64(1), Opts.RateLimitPerServer())

	require.NoError(t, Load("testdata/widgets.env"))
	assert.Equal(t, int64(4), Opts.ConnectionsPerServer())
	assert.Empty(t, Opts.WidgetNames())
}

func TestLoadYAML_errors(t *testing.T) {
	os.Clearenv()
	err := LoadYAML("testdata/invalid_widget.yaml", "")
	require.ErrorContains(t, err, `widget "broken"`)
	require.ErrorContains(t, err, "required")

	require.Error(t, LoadYAML("testdata/unknown_key.yaml", ""))
}

func TestLoadYAML_widgets(t *testing.T) {
	os.Clearenv()
	require.NoError(t, LoadYAML("testdata/widgets.yaml",
		"testdata/widgets.env"))

	news, ok := Opts.Widget("news")
	require.True(t, ok)
	assert.Equal(t, &model.Settings{
		Title:       "Latest news",
		URL:         "https://example.com/news.xml",
		Items:       10,
		Sort:        model.SortAZ,
		AllowedTags: model.ParseAllowList(model.DefaultAllowedTags),
	}, news)

	blog, ok := Opts.Widget("blog")
	require.True(t, ok)
	assert.Equal(t, &model.Settings{
		URL:         "https://example.com/blog/atom.xml",
		Items:       7,
		Sort:        model.DefaultSort,
		AllowedTags: model.AllowList{"p", "a", "img"},
	}, blog)

	_, ok = Opts.Widget("missing")
	assert.False(t, ok)
}

func TestLoadYAML_findHostLimits(t *testing.T) {
	os.Clearenv()
	require.NoError(t, LoadYAML("testdata/widgets.yaml", ""))

	tests := []struct {
		name string
		want HostLimits
	}{
		{
			name: "default",
			want: HostLimits{
				Connections: Opts.ConnectionsPerServer(),
				Rate:        Opts.RateLimitPerServer(),
			},
		},
		{
			name: "localhost",
			want: HostLimits{Connections: 3, Rate: 100},
		},
		{
			name: "a.example.com",
			want: HostLimits{Connections: Opts.ConnectionsPerServer(), Rate: 15},
		},
		{
			name: "b.example.com",
			want: HostLimits{Connections: 5, Rate: Opts.RateLimitPerServer()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Opts.FindHostLimits(tt.name))
		})
	}
}

func TestTrustedProxy(t *testing.T) {
	os.Clearenv()
	opts := parseEnvironmentVariables(t)
	assert.False(t, opts.TrustedProxy("127.0.0.1"))

	t.Setenv("TRUSTED_REVERSE_PROXY_NETWORKS", "10.0.0.0/8,fd00::/8")
	opts = parseEnvironmentVariables(t)
	assert.True(t, opts.TrustedProxy("10.1.2.3"))
	assert.True(t, opts.TrustedProxy("fd00::1"))
	assert.False(t, opts.TrustedProxy("192.168.0.1"))
	assert.False(t, opts.TrustedProxy("not an ip"))

	t.Setenv("TRUSTED_REVERSE_PROXY_NETWORKS", "10.0.0.0")
	_, err := NewParser().ParseEnvironmentVariables()
	require.Error(t, err)
}
