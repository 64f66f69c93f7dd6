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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	uerrors "github.com/kraklabs/graphload/internal/errors"
	"github.com/kraklabs/graphload/internal/output"
	"github.com/kraklabs/graphload/internal/ui"
	"github.com/kraklabs/graphload/pkg/loader"
	"github.com/kraklabs/graphload/pkg/snb"
	"github.com/kraklabs/graphload/pkg/store"
)

// runLoad executes one loading phase (nodes, props or edges) against the
// dataset directory given as the positional argument.
//
// Flags override the config file; unset flags keep the file's values.
//
// Flags:
//   - --num-loaders: Total loader instances running in parallel
//   - --loader-idx: This instance's index in [0, num-loaders)
//   - --num-threads: Worker threads for this instance
//   - --tx-size: Lines per transaction
//   - --tx-retries: Failed commits tolerated before backoff starts
//   - --tx-backoff: Initial backoff bound, milliseconds
//   - --tx-boff-ceil: Backoff bound ceiling, milliseconds
//   - --report-interval: Cadence of the statistics report
//   - --report-fmt: Report columns (L/l F/f X/x D/d T; empty disables)
//   - --seed: Backoff jitter seed (0 seeds from the clock)
//   - --store: Store engine name
//   - --debug: Enable debug logging
//   - --metrics-addr: HTTP address for Prometheus metrics (default: disabled)
//
// Examples:
//
//	graphload nodes /data/sf1
//	graphload nodes /data/sf1 --num-threads 8 --tx-size 256
//	graphload edges /data/sf1 --num-loaders 4 --loader-idx 2
func runLoad(role loader.Role, args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet(role.String(), flag.ExitOnError)
	numLoaders := fs.Int("num-loaders", 0, "Total loader instances running in parallel")
	loaderIdx := fs.Int("loader-idx", 0, "This instance's index in [0, num-loaders)")
	numThreads := fs.Int("num-threads", 0, "Worker threads for this instance")
	txSize := fs.Int("tx-size", 0, "Lines per transaction")
	txRetries := fs.Int("tx-retries", 0, "Failed commits tolerated before backoff starts")
	txBackoff := fs.Int("tx-backoff", 0, "Initial backoff bound in milliseconds")
	txBoffCeil := fs.Int("tx-boff-ceil", 0, "Backoff bound ceiling in milliseconds")
	reportInterval := fs.Duration("report-interval", 0, "Cadence of the statistics report")
	reportFormat := fs.String("report-fmt", "", "Report columns (L/l F/f X/x D/d T; empty disables)")
	seed := fs.Int64("seed", 0, "Backoff jitter seed (0 seeds from the clock)")
	storeEngine := fs.String("store", "", "Store engine name")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: graphload %s <dataset-dir> [options]

Loads the %s files of an LDBC SNB dataset directory. The full file list
is partitioned deterministically across all loader instances and their
worker threads; every instance pointed at the same directory with the
same --num-loaders computes the identical partition.

Options:
`, role, role)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	dir := fs.Arg(0)

	cfg, err := LoadConfig(globals.ConfigPath)
	if err != nil {
		uerrors.FatalError(uerrors.NewConfigError(
			"Cannot load graphload configuration",
			err.Error(),
			"Run 'graphload init' to recreate the configuration",
			err,
		), globals.JSON)
	}

	// Flags override the file only when actually given.
	if fs.Changed("num-loaders") {
		cfg.Load.NumLoaders = *numLoaders
	}
	if fs.Changed("loader-idx") {
		cfg.Load.LoaderIdx = *loaderIdx
	}
	if fs.Changed("num-threads") {
		cfg.Load.NumThreads = *numThreads
	}
	if fs.Changed("tx-size") {
		cfg.Load.TxSize = *txSize
	}
	if fs.Changed("tx-retries") {
		cfg.Load.TxRetries = *txRetries
	}
	if fs.Changed("tx-backoff") {
		cfg.Load.TxBackoff = *txBackoff
	}
	if fs.Changed("tx-boff-ceil") {
		cfg.Load.TxBoffCeil = *txBoffCeil
	}
	if fs.Changed("report-interval") {
		cfg.Report.Interval = *reportInterval
	}
	if fs.Changed("report-fmt") {
		cfg.Report.Format = *reportFormat
	}
	if fs.Changed("store") {
		cfg.Store.Engine = *storeEngine
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	engineCfg := loader.Config{
		NumLoaders:     cfg.Load.NumLoaders,
		LoaderIdx:      cfg.Load.LoaderIdx,
		NumThreads:     cfg.Load.NumThreads,
		TxSize:         cfg.Load.TxSize,
		TxRetries:      cfg.Load.TxRetries,
		TxBackoff:      cfg.Load.TxBackoff,
		TxBoffCeil:     cfg.Load.TxBoffCeil,
		ReportInterval: cfg.Report.Interval,
		ReportFormat:   cfg.Report.Format,
		Seed:           *seed,
	}
	if globals.Quiet {
		engineCfg.ReportFormat = ""
	}
	if err := engineCfg.Validate(); err != nil {
		uerrors.FatalError(uerrors.NewInputError(
			"Invalid load parameters",
			err.Error(),
			"Adjust the flags or ~/.graphload/config.yaml",
		), globals.JSON)
	}

	// Start Prometheus metrics endpoint (optional)
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	units, err := snb.Discover(dir, role, logger)
	if err != nil {
		uerrors.FatalError(uerrors.NewIOError(
			"Cannot read the dataset directory",
			err.Error(),
			"Check the directory path and its permissions",
			err,
		), globals.JSON)
	}
	if len(units) == 0 {
		uerrors.FatalError(uerrors.NewInputError(
			"No dataset files found",
			fmt.Sprintf("%s holds no %s files matching the generator naming scheme", dir, role),
			"Point graphload at the data generator's output directory",
		), globals.JSON)
	}

	st, err := openStore(cfg.Store.Engine)
	if err != nil {
		uerrors.FatalError(err, globals.JSON)
	}
	defer st.Close()

	eng, err := loader.NewEngine(engineCfg, units, st, logger, os.Stdout)
	if err != nil {
		uerrors.FatalError(uerrors.NewInputError(
			"Invalid load parameters",
			err.Error(),
			"Adjust the flags or ~/.graphload/config.yaml",
		), globals.JSON)
	}

	// When the report is suppressed and we are on a terminal, show a
	// progress bar over the assigned files instead.
	_, assigned := loader.Partition(len(units), cfg.Load.NumLoaders, cfg.Load.LoaderIdx)
	progressDone := startProgress(ctx, NewProgressConfig(globals), eng, int64(assigned))

	result, err := eng.Run(ctx)
	cancel()
	<-progressDone
	if err != nil {
		uerrors.FatalError(classifyLoadError(err), globals.JSON)
	}

	printLoadResult(role, result, globals)
}

// openStore creates the target store for the configured engine.
func openStore(engine string) (store.Store, error) {
	switch engine {
	case "mem":
		return store.NewMemStore(), nil
	default:
		return nil, uerrors.NewConfigError(
			"Unknown store engine",
			fmt.Sprintf("store engine %q is not supported", engine),
			"Set store.engine to \"mem\" in ~/.graphload/config.yaml",
			nil,
		)
	}
}

// classifyLoadError maps engine failures to user-facing errors.
func classifyLoadError(err error) error {
	var de *loader.DataError
	if errors.As(err, &de) {
		return uerrors.NewDataError(
			"Malformed dataset line",
			de.Error(),
			"Regenerate the dataset or fix the offending line, then reload",
			err,
		)
	}
	var ce *store.CommitError
	if errors.As(err, &ce) {
		return uerrors.NewStoreError(
			"The graph store rejected a transaction",
			err.Error(),
			"Check the store's logs; the load must be restarted",
			err,
		)
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return uerrors.NewIOError(
			"Cannot read a dataset file",
			err.Error(),
			"Check the dataset directory and file permissions",
			err,
		)
	}
	return uerrors.NewInternalError(
		"Load failed unexpectedly",
		err.Error(),
		"This is a bug. Please report it at github.com/kraklabs/graphload/issues",
		err,
	)
}

// printLoadResult prints the load summary to stdout.
func printLoadResult(role loader.Role, result *loader.LoadResult, globals GlobalFlags) {
	if globals.JSON {
		if err := output.JSON(result); err != nil {
			uerrors.FatalError(err, true)
		}
		return
	}

	fmt.Println()
	ui.Header(fmt.Sprintf("Load Complete (%s)", role))
	fmt.Printf("Files Processed: %d / %d\n", result.FilesProcessed, result.FilesAssigned)
	fmt.Printf("Lines Processed: %d\n", result.LinesProcessed)
	fmt.Printf("Bytes Read: %d\n", result.BytesRead)
	if result.TxFailures > 0 {
		fmt.Printf("Tx Failures (retried): %d\n", result.TxFailures)
	}
	fmt.Printf("Duration: %s\n", result.Duration.Round(time.Millisecond))

	if result.FilesProcessed < result.FilesAssigned {
		ui.Warning("Load interrupted before all assigned files were processed")
	} else {
		ui.Successf("Loaded %d files", result.FilesProcessed)
	}
}
