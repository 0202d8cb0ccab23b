// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "feedviewer.app/v1/internal/cli"

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"feedviewer.app/v1/internal/config"
)

const healthCheckTimeout = 3 * time.Second

var healthCmd = cobra.Command{
	Use:   "healthcheck auto|endpoint",
	Short: `Perform a health check on the given endpoint`,

	Long: `Perform a health check on the given endpoint.

The value "auto" checks the readiness endpoint of LISTEN_ADDR, including
unix sockets.
`,

	Example: `
$ feedviewer healthcheck http://127.0.0.1:8080/healthcheck
`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return doHealthCheck(cmd.Context(), args[0])
	},
}

func doHealthCheck(ctx context.Context, endpoint string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	client := &http.Client{Timeout: healthCheckTimeout}
	if endpoint == "auto" {
		endpoint, client = autoHealthCheck(client)
	}

	slog.Debug("Executing health check request",
		slog.String("endpoint", endpoint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("cli: health check request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("cli: health check failure: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cli: health check failed with status code %d",
			resp.StatusCode)
	}
	slog.Debug(`Health check is passing`)
	return nil
}

// autoHealthCheck returns the health check endpoint of LISTEN_ADDR and a
// client, which dials the unix socket if LISTEN_ADDR is a path.
func autoHealthCheck(client *http.Client) (string, *http.Client) {
	listenAddr := config.Opts.ListenAddr()
	path := config.Opts.BasePath() + "/healthcheck"
	if !strings.HasPrefix(listenAddr, "/") {
		host := listenAddr
		if strings.HasPrefix(host, ":") {
			host = "127.0.0.1" + host
		}
		return "http://" + host + path, client
	}

	client.Transport = &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", listenAddr)
		},
	}
	return "http://feedviewer" + path, client
}
