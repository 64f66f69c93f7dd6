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

package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/kraklabs/graphload/pkg/store"
)

// Config carries the numeric knobs of one load run.
type Config struct {
	// NumLoaders is the total number of loader instances loading the
	// dataset in parallel; LoaderIdx identifies this instance among them,
	// starting from 0. Together they define which partition of the work
	// list this process owns.
	NumLoaders int
	LoaderIdx  int

	// NumThreads is the number of worker threads this instance's
	// partition is divided across.
	NumThreads int

	// TxSize is the number of lines loaded per transaction.
	TxSize int

	// TxRetries is the number of failed commits tolerated before every
	// further failure enters randomized backoff.
	TxRetries int

	// TxBackoff and TxBoffCeil bound the backoff sleep: the sleep is
	// uniformly random in [0, bound] milliseconds, bound starting at
	// TxBackoff, doubling per backoff cycle, capped at TxBoffCeil.
	TxBackoff  int
	TxBoffCeil int

	// ReportInterval is the cadence of the statistics reporter;
	// ReportFormat selects its columns (see Reporter). An empty format
	// disables the periodic report.
	ReportInterval time.Duration
	ReportFormat   string

	// Seed makes backoff jitter reproducible: worker i gets a generator
	// seeded with Seed+i. Zero means seed from the clock.
	Seed int64
}

// Validate checks the configuration for a runnable combination.
func (c Config) Validate() error {
	switch {
	case c.NumLoaders < 1:
		return fmt.Errorf("numLoaders must be at least 1, got %d", c.NumLoaders)
	case c.LoaderIdx < 0 || c.LoaderIdx >= c.NumLoaders:
		return fmt.Errorf("loaderIdx must be in [0, %d), got %d", c.NumLoaders, c.LoaderIdx)
	case c.NumThreads < 1:
		return fmt.Errorf("numThreads must be at least 1, got %d", c.NumThreads)
	case c.TxSize < 1:
		return fmt.Errorf("txSize must be at least 1, got %d", c.TxSize)
	case c.TxRetries < 0:
		return fmt.Errorf("txRetries must not be negative, got %d", c.TxRetries)
	case c.TxBackoff < 1:
		return fmt.Errorf("txBackoff must be at least 1ms, got %d", c.TxBackoff)
	case c.TxBoffCeil < c.TxBackoff:
		return fmt.Errorf("txBoffCeil (%d) must not be below txBackoff (%d)", c.TxBoffCeil, c.TxBackoff)
	}
	return nil
}

// LoadResult summarizes a completed load run.
type LoadResult struct {
	FilesAssigned  int64         `json:"files_assigned"`
	FilesProcessed int64         `json:"files_processed"`
	LinesProcessed int64         `json:"lines_processed"`
	BytesRead      int64         `json:"bytes_read"`
	TxFailures     int64         `json:"tx_failures"`
	Duration       time.Duration `json:"duration_ns"`
}

// Engine runs one loader instance: it computes this instance's partition of
// the work list, starts one worker goroutine per configured thread plus the
// statistics reporter, and blocks until the workers finish.
type Engine struct {
	cfg       Config
	units     []WorkUnit
	store     store.Store
	logger    *slog.Logger
	reportOut io.Writer

	stats []*ThreadStats
}

// NewEngine creates an engine over the full ordered work list. reportOut
// receives the periodic report lines.
func NewEngine(cfg Config, units []WorkUnit, st store.Store, logger *slog.Logger, reportOut io.Writer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	stats := make([]*ThreadStats, cfg.NumThreads)
	for i := range stats {
		stats[i] = &ThreadStats{}
	}

	return &Engine{
		cfg:       cfg,
		units:     units,
		store:     st,
		logger:    logger,
		reportOut: reportOut,
		stats:     stats,
	}, nil
}

// Snapshots returns a point-in-time copy of every worker's statistics, for
// progress display outside the engine's own reporter.
func (e *Engine) Snapshots() []StatsSnapshot {
	snaps := make([]StatsSnapshot, len(e.stats))
	for i, s := range e.stats {
		snaps[i] = s.Snapshot()
	}
	return snaps
}

// Run executes the load. It returns the run summary on success or on clean
// cancellation; the first fatal worker error aborts the run and is
// returned. Sessions are per-worker and never shared.
func (e *Engine) Run(ctx context.Context) (*LoadResult, error) {
	start := time.Now()

	slices := threadSlices(len(e.units), e.cfg.NumLoaders, e.cfg.LoaderIdx, e.cfg.NumThreads)
	e.logger.Info("load.start",
		"work_units", len(e.units),
		"num_loaders", e.cfg.NumLoaders,
		"loader_idx", e.cfg.LoaderIdx,
		"num_threads", e.cfg.NumThreads,
		"tx_size", e.cfg.TxSize,
		"tx_retries", e.cfg.TxRetries,
		"tx_backoff_ms", e.cfg.TxBackoff,
		"tx_backoff_ceil_ms", e.cfg.TxBoffCeil,
		"report_interval", e.cfg.ReportInterval,
		"report_format", e.cfg.ReportFormat,
	)

	workers := make([]*worker, e.cfg.NumThreads)
	sessions := make([]store.Session, e.cfg.NumThreads)
	for i, sl := range slices {
		sess, err := e.store.OpenSession()
		if err != nil {
			for _, s := range sessions[:i] {
				_ = s.Close()
			}
			return nil, fmt.Errorf("open store session for worker %d: %w", i, err)
		}
		sessions[i] = sess

		seed := e.cfg.Seed + int64(i)
		if e.cfg.Seed == 0 {
			seed = time.Now().UnixNano() + int64(i)
		}

		units := e.units[sl[0] : sl[0]+sl[1]]
		workers[i] = &worker{
			id:     i,
			units:  units,
			stats:  e.stats[i],
			logger: e.logger,
			committer: &batchCommitter{
				session:    sess,
				stats:      e.stats[i],
				logger:     e.logger,
				txSize:     e.cfg.TxSize,
				txRetries:  e.cfg.TxRetries,
				txBackoff:  e.cfg.TxBackoff,
				txBoffCeil: e.cfg.TxBoffCeil,
				rng:        rand.New(rand.NewSource(seed)),
				sleep:      sleepContext,
			},
		}
		// Assigned counts are visible before any worker or the reporter
		// starts, so completion detection never fires early.
		e.stats[i].setFilesAssigned(len(units))
	}

	// The run is cancelled as a whole when any worker hits a fatal error.
	wctx, wcancel := context.WithCancel(ctx)
	defer wcancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		fatalErr error
	)
	for _, w := range workers {
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			if err := w.run(wctx); err != nil {
				errOnce.Do(func() {
					fatalErr = err
					wcancel()
				})
			}
		}(w)
	}

	// Reporter runs on its own cadence; the main flow blocks on the
	// workers only.
	reporterDone := make(chan struct{})
	rctx, rcancel := context.WithCancel(ctx)
	defer rcancel()
	if e.cfg.ReportFormat != "" && e.reportOut != nil {
		reporter := NewReporter(e.stats, e.cfg.ReportInterval, e.cfg.ReportFormat, e.reportOut)
		go func() {
			defer close(reporterDone)
			reporter.Run(rctx)
		}()
	} else {
		close(reporterDone)
	}

	wg.Wait()
	for _, sess := range sessions {
		_ = sess.Close()
	}
	rcancel()
	<-reporterDone

	if fatalErr != nil {
		e.logger.Error("load.failed", "err", fatalErr)
		return nil, fatalErr
	}

	result := e.result(time.Since(start))
	e.logger.Info("load.complete",
		"files_processed", result.FilesProcessed,
		"files_assigned", result.FilesAssigned,
		"lines_processed", result.LinesProcessed,
		"bytes_read", result.BytesRead,
		"tx_failures", result.TxFailures,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

func (e *Engine) result(elapsed time.Duration) *LoadResult {
	result := &LoadResult{Duration: elapsed}
	for _, s := range e.stats {
		snap := s.Snapshot()
		result.FilesAssigned += snap.FilesAssigned
		result.FilesProcessed += snap.FilesProcessed
		result.LinesProcessed += snap.LinesProcessed
		result.BytesRead += snap.BytesRead
		result.TxFailures += snap.TxFailures
	}
	return result
}
