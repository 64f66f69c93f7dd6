// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the persisted graphload configuration, loaded from
// ~/.graphload/config.yaml (or the path given with --config). Command-line
// flags override whatever the file says.
type Config struct {
	// Store selects the target graph store.
	Store struct {
		// Engine is the store engine name. "mem" is the built-in
		// in-process store.
		Engine string `yaml:"engine"`
	} `yaml:"store"`

	// Load carries the defaults for the loading commands.
	Load struct {
		NumLoaders int `yaml:"num_loaders"`
		LoaderIdx  int `yaml:"loader_idx"`
		NumThreads int `yaml:"num_threads"`

		TxSize     int `yaml:"tx_size"`
		TxRetries  int `yaml:"tx_retries"`
		TxBackoff  int `yaml:"tx_backoff_ms"`
		TxBoffCeil int `yaml:"tx_backoff_ceil_ms"`
	} `yaml:"load"`

	// Report configures the periodic statistics reporter.
	Report struct {
		Interval time.Duration `yaml:"interval"`
		Format   string        `yaml:"format"`
	} `yaml:"report"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Store.Engine = "mem"
	cfg.Load.NumLoaders = 1
	cfg.Load.LoaderIdx = 0
	cfg.Load.NumThreads = 1
	cfg.Load.TxSize = 128
	cfg.Load.TxRetries = 10
	cfg.Load.TxBackoff = 1000
	cfg.Load.TxBoffCeil = 10000
	cfg.Report.Interval = 10 * time.Second
	cfg.Report.Format = "LFDT"
	return cfg
}

// ConfigDir returns the graphload configuration directory, ~/.graphload.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".graphload"), nil
}

// ConfigPath returns the default configuration file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadConfig reads the configuration from path, or from the default
// location when path is empty. A missing file is not an error: the defaults
// are returned, so graphload works out of the box without `graphload init`.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's own config
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration as YAML to path.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
