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
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Store.Engine != "mem" {
		t.Errorf("Store.Engine = %q, expected \"mem\"", cfg.Store.Engine)
	}
	if cfg.Load.NumLoaders != 1 {
		t.Errorf("Load.NumLoaders = %d, expected 1", cfg.Load.NumLoaders)
	}
	if cfg.Load.LoaderIdx != 0 {
		t.Errorf("Load.LoaderIdx = %d, expected 0", cfg.Load.LoaderIdx)
	}
	if cfg.Load.NumThreads != 1 {
		t.Errorf("Load.NumThreads = %d, expected 1", cfg.Load.NumThreads)
	}
	if cfg.Load.TxSize != 128 {
		t.Errorf("Load.TxSize = %d, expected 128", cfg.Load.TxSize)
	}
	if cfg.Load.TxRetries != 10 {
		t.Errorf("Load.TxRetries = %d, expected 10", cfg.Load.TxRetries)
	}
	if cfg.Load.TxBackoff != 1000 {
		t.Errorf("Load.TxBackoff = %d, expected 1000", cfg.Load.TxBackoff)
	}
	if cfg.Load.TxBoffCeil != 10000 {
		t.Errorf("Load.TxBoffCeil = %d, expected 10000", cfg.Load.TxBoffCeil)
	}
	if cfg.Report.Interval != 10*time.Second {
		t.Errorf("Report.Interval = %s, expected 10s", cfg.Report.Interval)
	}
	if cfg.Report.Format != "LFDT" {
		t.Errorf("Report.Format = %q, expected \"LFDT\"", cfg.Report.Format)
	}
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig on a missing file should not error, got: %v", err)
	}

	defaults := DefaultConfig()
	if *cfg != *defaults {
		t.Errorf("LoadConfig = %+v, expected defaults %+v", cfg, defaults)
	}
}

func TestLoadConfig_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Store.Engine = "mem"
	cfg.Load.NumThreads = 8
	cfg.Load.TxSize = 256
	cfg.Report.Interval = 5 * time.Second
	cfg.Report.Format = "lfT"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if *loaded != *cfg {
		t.Errorf("roundtrip mismatch: got %+v, expected %+v", loaded, cfg)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	content := "load:\n  num_threads: 4\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Load.NumThreads != 4 {
		t.Errorf("Load.NumThreads = %d, expected 4", cfg.Load.NumThreads)
	}
	// Everything the file does not mention keeps its default.
	if cfg.Load.TxSize != 128 {
		t.Errorf("Load.TxSize = %d, expected default 128", cfg.Load.TxSize)
	}
	if cfg.Store.Engine != "mem" {
		t.Errorf("Store.Engine = %q, expected default \"mem\"", cfg.Store.Engine)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := os.WriteFile(path, []byte("load: [not: a: map\n"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig should fail on malformed YAML")
	}
}

func TestSaveConfig_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := SaveConfig(DefaultConfig(), path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, expected 0600", perm)
	}
}
