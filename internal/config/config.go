// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config // import "feedviewer.app/v1/internal/config"

// Opts holds parsed configuration options.
var Opts *Options

// Load loads configuration values from a local file (if filename isn't empty)
// and from environment variables after that.
func Load(filename string) error { return LoadYAML("", filename) }

// LoadYAML loads configuration values from YAML file yamlName (if it isn't
// empty), from .env file envName (if it isn't empty) and from environment
// variables after that.
func LoadYAML(yamlName, envName string) error {
	p := NewParser()
	if yamlName != "" {
		if err := p.ParseYAML(yamlName); err != nil {
			return err
		}
	}

	var opts *Options
	var err error
	if envName != "" {
		opts, err = p.ParseEnvFile(envName)
	} else {
		opts, err = p.ParseEnvironmentVariables()
	}
	if err != nil {
		return err
	}
	Opts = opts
	return nil
}
