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
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsLoader holds Prometheus metrics for the loading subsystem.
type metricsLoader struct {
	once sync.Once

	linesLoaded   prometheus.Counter
	bytesRead     prometheus.Counter
	filesLoaded   prometheus.Counter
	txFailures    prometheus.Counter
	commits       prometheus.Counter
	commitErrors  prometheus.Counter
	backoffSleeps prometheus.Counter

	commitDuration  prometheus.Histogram
	backoffDuration prometheus.Histogram
}

var loadMetrics metricsLoader

func (m *metricsLoader) init() {
	m.once.Do(func() {
		m.linesLoaded = prometheus.NewCounter(prometheus.CounterOpts{Name: "graphload_lines_loaded_total", Help: "Dataset lines committed to the store"})
		m.bytesRead = prometheus.NewCounter(prometheus.CounterOpts{Name: "graphload_bytes_read_total", Help: "Bytes read from dataset files"})
		m.filesLoaded = prometheus.NewCounter(prometheus.CounterOpts{Name: "graphload_files_loaded_total", Help: "Dataset files fully loaded"})
		m.txFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "graphload_tx_failures_total", Help: "Transaction commit failures"})
		m.commits = prometheus.NewCounter(prometheus.CounterOpts{Name: "graphload_commits_total", Help: "Transaction commit attempts"})
		m.commitErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "graphload_commit_errors_total", Help: "Commit attempts that returned an error"})
		m.backoffSleeps = prometheus.NewCounter(prometheus.CounterOpts{Name: "graphload_backoff_sleeps_total", Help: "Randomized backoff sleeps taken"})

		buckets := []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.commitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "graphload_commit_seconds", Help: "Commit attempt latency", Buckets: buckets})
		m.backoffDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "graphload_backoff_sleep_seconds", Help: "Backoff sleep durations", Buckets: buckets})

		prometheus.MustRegister(
			m.linesLoaded, m.bytesRead, m.filesLoaded,
			m.txFailures, m.commits, m.commitErrors, m.backoffSleeps,
			m.commitDuration, m.backoffDuration,
		)
	})
}

// record helpers - used by the committer for metrics tracking
func recordLinesLoaded(n int) { loadMetrics.init(); loadMetrics.linesLoaded.Add(float64(n)) }
func recordBytesRead(n int)   { loadMetrics.init(); loadMetrics.bytesRead.Add(float64(n)) }
func recordFileLoaded()       { loadMetrics.init(); loadMetrics.filesLoaded.Inc() }
func recordTxFailure()        { loadMetrics.init(); loadMetrics.txFailures.Inc() }

func recordCommit(d time.Duration, ok bool) {
	loadMetrics.init()
	loadMetrics.commits.Inc()
	loadMetrics.commitDuration.Observe(d.Seconds())
	if !ok {
		loadMetrics.commitErrors.Inc()
	}
}

func recordBackoffSleep(d time.Duration) {
	loadMetrics.init()
	loadMetrics.backoffSleeps.Inc()
	loadMetrics.backoffDuration.Observe(d.Seconds())
}
