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

// Package main implements the graphload CLI, a parallel bulk loader for
// LDBC SNB datasets into a graph store.
//
// Usage:
//
//	graphload init                 Create ~/.graphload/config.yaml
//	graphload nodes <dir>          Load entity files from a dataset directory
//	graphload props <dir>          Load entity-property files
//	graphload edges <dir>          Load relation files
//	graphload version              Show version information
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kraklabs/graphload/internal/ui"
	"github.com/kraklabs/graphload/pkg/loader"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags holds the flags every command respects.
type GlobalFlags struct {
	// ConfigPath overrides the default ~/.graphload/config.yaml.
	ConfigPath string

	// NoColor disables colored terminal output.
	NoColor bool

	// Quiet suppresses the periodic report lines.
	Quiet bool

	// JSON switches the final summary (and errors) to JSON. Implies Quiet.
	JSON bool
}

// main is the entry point for the graphload CLI.
//
// It parses global flags and dispatches to command handlers.
//
// Global flags:
//   - --version: Display version information and exit
//   - --config: Path to config.yaml (default: ~/.graphload/config.yaml)
//   - --no-color: Disable colored output
//   - --quiet: Suppress the periodic report
//   - --json: Machine-readable summary output (implies --quiet)
//
// Commands:
//   - init: Create ~/.graphload/config.yaml
//   - nodes: Load entity files from a dataset directory
//   - props: Load entity-property files
//   - edges: Load relation files
//   - version: Show version information
func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to config.yaml (default: ~/.graphload/config.yaml)")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
		quiet       = flag.Bool("quiet", false, "Suppress the periodic report")
		jsonOut     = flag.Bool("json", false, "Machine-readable summary output (implies --quiet)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `graphload - parallel LDBC SNB dataset loader

graphload bulk-loads the delimited files produced by the LDBC SNB data
generator into a graph store. The dataset is loaded in three phases -
nodes, then properties, then edges - and each phase can be split across
multiple loader instances and worker threads.

Usage:
  graphload [global options] <command> [options] [args]

Commands:
  init          Create ~/.graphload/config.yaml
  nodes <dir>   Load entity files from a dataset directory
  props <dir>   Load entity-property files
  edges <dir>   Load relation files
  version       Show version information

Global Options:
  --config      Path to config.yaml
  --no-color    Disable colored output
  --quiet       Suppress the periodic report
  --json        Machine-readable summary output
  --version     Show version and exit

Examples:
  graphload init                              Write the default configuration
  graphload nodes /data/sf1                   Load all entity files
  graphload props /data/sf1                   Load extra property files
  graphload edges /data/sf1                   Load all relation files
  graphload nodes /data/sf1 --num-threads 8   Eight worker threads
  graphload nodes /data/sf1 --num-loaders 4 --loader-idx 2
                                              This instance loads partition 2 of 4

Loading Order:
  1. Load nodes first:      graphload nodes <dir>
  2. Then properties:       graphload props <dir>
  3. Then edges:            graphload edges <dir>
  Properties and edges reference nodes by id; loading them before the
  nodes exist is a fatal error.

For detailed command help: graphload <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	globals := GlobalFlags{
		ConfigPath: *configPath,
		NoColor:    *noColor,
		Quiet:      *quiet || *jsonOut,
		JSON:       *jsonOut,
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "nodes":
		runLoad(loader.RoleNodes, cmdArgs, globals)
	case "props":
		runLoad(loader.RoleProps, cmdArgs, globals)
	case "edges":
		runLoad(loader.RoleEdges, cmdArgs, globals)
	case "version":
		printVersion()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("graphload version %s\n", version)
	fmt.Printf("commit: %s\n", commit)
	fmt.Printf("built: %s\n", date)
}
