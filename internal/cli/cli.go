// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "feedviewer.app/v1/internal/cli"

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"feedviewer.app/v1/internal/cli/logger"
	"feedviewer.app/v1/internal/config"
	"feedviewer.app/v1/internal/reader/source"
	"feedviewer.app/v1/internal/template"
	"feedviewer.app/v1/internal/version"
	"feedviewer.app/v1/internal/widget"
)

var (
	flagConfigFile string
	flagConfigYAML string
	flagDebugMode  bool

	logCloser io.Closer
)

var Cmd = cobra.Command{
	Use:     "feedviewer",
	Short:   "Feedviewer renders RSS and Atom feeds as embeddable HTML widgets.",
	Version: version.Version,

	PersistentPreRunE: persistentPreRunE,
	RunE:              runDaemon,

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

var serveCmd = cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP service (default command)",
	Args:  cobra.ExactArgs(0),
	RunE:  runDaemon,
}

var configDumpCmd = cobra.Command{
	Use:   "config-dump",
	Short: "Print parsed configuration values",
	Args:  cobra.ExactArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), config.Opts)
	},
}

func init() {
	Cmd.PersistentFlags().StringVarP(&flagConfigFile, "config-file", "c", "",
		"Path to .env configuration file")
	Cmd.PersistentFlags().StringVarP(&flagConfigYAML, "config-yaml", "", "",
		"Path to YAML configuration file")
	Cmd.PersistentFlags().BoolVarP(&flagDebugMode, "debug", "d", false,
		"Show debug logs")

	Cmd.AddCommand(&configDumpCmd)
	Cmd.AddCommand(&healthCmd)
	Cmd.AddCommand(&infoCmd)
	Cmd.AddCommand(&renderCmd)
	Cmd.AddCommand(&renderAllCmd)
	Cmd.AddCommand(&serveCmd)
}

func persistentPreRunE(cmd *cobra.Command, args []string) error {
	// Don't show usage on app errors.
	// https://github.com/spf13/cobra/issues/340#issuecomment-378726225
	cmd.SilenceUsage = true

	if err := config.LoadYAML(flagConfigYAML, flagConfigFile); err != nil {
		return err
	} else if flagDebugMode {
		config.Opts.SetLogLevel("debug")
	}

	closer, err := logger.InitializeDefaultLogger()
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if err := NewDaemon().Run(cmd.Context()); err != nil {
		slog.Error("daemon exited with error", slog.Any("error", err))
		return err
	}
	return nil
}

func compileTemplates() (*template.Engine, error) {
	templates := template.NewEngine()
	if err := templates.ParseTemplates(); err != nil {
		return nil, err
	}
	return templates, nil
}

func makeRenderer() (*widget.Renderer, *template.Engine, error) {
	templates, err := compileTemplates()
	if err != nil {
		return nil, nil, err
	}
	return widget.New(source.NewHTTP(), templates), templates, nil
}

func Execute() {
	if err := Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
