// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "feedviewer.app/v1/internal/cli"

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"feedviewer.app/v1/internal/config"
	"feedviewer.app/v1/internal/model"
	"feedviewer.app/v1/internal/widget"
	"feedviewer.app/v1/internal/worker"
)

var ErrUnknownWidget = errors.New("unknown widget")

var renderFlags struct {
	id     string
	widget string
}

// settingFlags maps flag names to setting keys.
var settingFlags = map[string]string{
	"url":          model.SettingURL,
	"title":        model.SettingTitle,
	"items":        model.SettingItems,
	"sort":         model.SettingSort,
	"allowed-tags": model.SettingAllowedTags,
}

var renderCmd = cobra.Command{
	Use:   "render",
	Short: "Render a feed widget to stdout",

	Example: `
$ feedviewer render --url https://example.com/feed.xml --items 3
$ feedviewer render --config-yaml widgets.yaml --widget news
`,

	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, s, err := renderSettings(cmd)
		if err != nil {
			return err
		}

		renderer, _, err := makeRenderer()
		if err != nil {
			return err
		}
		return printResults(cmd.OutOrStdout(),
			renderer.Render(cmd.Context(), id, s))
	},
}

var renderAllCmd = cobra.Command{
	Use:   "render-all",
	Short: "Render all configured widgets concurrently",
	Args:  cobra.ExactArgs(0),

	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, _, err := makeRenderer()
		if err != nil {
			return err
		}

		names := config.Opts.WidgetNames()
		jobs := make([]worker.Job, len(names))
		for i, name := range names {
			s, _ := config.Opts.Widget(name)
			jobs[i] = worker.Job{ID: name, Settings: s}
		}

		pool := worker.NewPool(renderer, config.Opts.WorkerPoolSize())
		return printResults(cmd.OutOrStdout(),
			pool.Render(cmd.Context(), jobs)...)
	},
}

func init() {
	f := renderCmd.Flags()
	f.String("url", "", "Feed URL")
	f.String("title", "", "Widget title, the feed title if empty")
	f.String("items", "", fmt.Sprintf("Number of items to show, from %d to %d",
		model.MinItems, model.MaxItems))
	f.String("sort", "", `Items order: "in-order", "reverse-order", "a-z", "z-a"`)
	f.String("allowed-tags", "", "Comma-separated HTML tags allowed in summaries")
	f.StringVar(&renderFlags.id, "id", "",
		"Widget id, derived from the feed URL if empty")
	f.StringVar(&renderFlags.widget, "widget", "",
		"Name of a widget from the YAML configuration")
	renderCmd.MarkFlagsMutuallyExclusive("widget", "url")
}

// renderSettings returns the widget id and settings from either a configured
// widget or the command line flags.
func renderSettings(cmd *cobra.Command) (string, *model.Settings, error) {
	id := renderFlags.id
	if name := renderFlags.widget; name != "" {
		s, ok := config.Opts.Widget(name)
		if !ok {
			return "", nil, fmt.Errorf("cli: %w: %q", ErrUnknownWidget, name)
		}
		if id == "" {
			id = name
		}
		return id, s, nil
	}

	values := make(map[string]string, len(settingFlags))
	for flag, key := range settingFlags {
		if cmd.Flags().Changed(flag) {
			values[key], _ = cmd.Flags().GetString(flag)
		}
	}

	s, err := model.ParseSettings(values, config.Opts.DefaultSettings())
	if err != nil {
		return "", nil, err
	}

	if id == "" {
		id = widget.DefaultID(s.URL)
	} else if err := model.ValidateWidgetID(id); err != nil {
		return "", nil, err
	}
	return id, s, nil
}

// printResults writes markup of every result on its own line. Failed widgets
// are still printed, because their markup carries the error message.
func printResults(w io.Writer, results ...*widget.Result) error {
	for _, r := range results {
		if r.Failed() {
			slog.Warn("widget rendered with error",
				slog.String("id", r.ID),
				slog.String("outcome", r.Outcome()),
				slog.Any("error", r.Err()))
		}
		if _, err := fmt.Fprintln(w, r.String()); err != nil {
			return fmt.Errorf("cli: write widget %q: %w", r.ID, err)
		}
	}
	return nil
}
