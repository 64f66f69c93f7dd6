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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	uerrors "github.com/kraklabs/graphload/internal/errors"
	"github.com/kraklabs/graphload/internal/ui"
)

// runInit executes the 'init' CLI command, creating ~/.graphload/config.yaml.
//
// It writes the default configuration and optionally prompts for the common
// knobs in interactive mode.
//
// Flags:
//   - --force: Overwrite existing configuration (default: false)
//   - -y: Non-interactive mode, use all defaults (default: false)
//
// Examples:
//
//	graphload init       Interactive setup
//	graphload init -y    Use all defaults
func runInit(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite existing configuration")
	nonInteractive := fs.BoolP("yes", "y", false, "Non-interactive mode (use defaults)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: graphload init [options]

Creates ~/.graphload/config.yaml with the default load parameters.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	configPath, err := ConfigPath()
	if err != nil {
		uerrors.FatalError(uerrors.NewConfigError(
			"Cannot resolve the configuration path",
			err.Error(),
			"Set HOME to a writable directory",
			err,
		), globals.JSON)
	}

	if _, err := os.Stat(configPath); err == nil && !*force {
		uerrors.FatalError(uerrors.NewInputError(
			"Configuration already exists",
			fmt.Sprintf("%s is already present", configPath),
			"Use --force to overwrite it",
		), globals.JSON)
	}

	cfg := DefaultConfig()
	if !*nonInteractive {
		runInteractiveConfig(bufio.NewReader(os.Stdin), cfg)
	}

	dir, err := ConfigDir()
	if err == nil {
		err = os.MkdirAll(dir, 0750)
	}
	if err != nil {
		uerrors.FatalError(uerrors.NewIOError(
			"Cannot create the configuration directory",
			err.Error(),
			"Check permissions on your home directory",
			err,
		), globals.JSON)
	}
	if err := SaveConfig(cfg, configPath); err != nil {
		uerrors.FatalError(uerrors.NewIOError(
			"Cannot save the configuration",
			err.Error(),
			"Check permissions on "+dir,
			err,
		), globals.JSON)
	}

	ui.Successf("Created %s", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit the configuration if needed")
	fmt.Println("  2. Load nodes:      graphload nodes <dataset-dir>")
	fmt.Println("  3. Load properties: graphload props <dataset-dir>")
	fmt.Println("  4. Load edges:      graphload edges <dataset-dir>")
}

func runInteractiveConfig(reader *bufio.Reader, cfg *Config) {
	ui.Header("graphload Configuration")
	fmt.Println()

	cfg.Store.Engine = prompt(reader, "Store engine", cfg.Store.Engine)
	cfg.Load.NumThreads = promptInt(reader, "Worker threads", cfg.Load.NumThreads)
	cfg.Load.TxSize = promptInt(reader, "Lines per transaction", cfg.Load.TxSize)
	cfg.Report.Format = prompt(reader, "Report columns (L/l F/f X/x D/d T)", cfg.Report.Format)
	fmt.Println()
}

// prompt displays an interactive prompt and reads user input from stdin.
//
// If the user presses Enter without providing input, the defaultValue is
// returned.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// promptInt is prompt for integer values; non-numeric input keeps the
// default.
func promptInt(reader *bufio.Reader, label string, defaultValue int) int {
	input := prompt(reader, label, strconv.Itoa(defaultValue))
	n, err := strconv.Atoi(input)
	if err != nil {
		return defaultValue
	}
	return n
}
