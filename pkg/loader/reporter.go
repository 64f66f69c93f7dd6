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
	"strings"
	"time"
)

// colWidth is the fixed, right-justified width of every report column.
const colWidth = "%10s"

// Reporter periodically snapshots every worker's statistics, computes rate
// deltas against the previous snapshot, and renders one report line. Which
// columns appear is controlled by the format string: uppercase characters
// select cross-worker aggregates, lowercase the per-worker breakdown.
//
//	L/l  lines processed per second
//	F/f  files processed / files assigned
//	X/x  transaction failures
//	D/d  disk read bandwidth (aggregate MB/s, per-worker KB/s)
//	T    total time elapsed, minutes
//
// Unrecognized characters are ignored. The loop terminates when, summed
// over all workers, files processed equals files assigned; cancellation
// during the inter-tick sleep ends it silently.
type Reporter struct {
	stats    []*ThreadStats
	interval time.Duration
	format   string
	out      io.Writer
}

// NewReporter creates a reporter over the given worker statistics records.
func NewReporter(stats []*ThreadStats, interval time.Duration, format string, out io.Writer) *Reporter {
	return &Reporter{stats: stats, interval: interval, format: format, out: out}
}

// Run executes the reporting loop until completion or cancellation. The
// reporter never fails the run.
func (r *Reporter) Run(ctx context.Context) {
	fmt.Fprintln(r.out, r.header())

	// Capture stats now so the first tick reports deltas right away.
	last := r.snapshotAll()
	start := time.Now()

	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		timer.Reset(r.interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		curr := r.snapshotAll()
		line, done := r.renderLine(curr, last, time.Since(start))
		fmt.Fprintln(r.out, line)
		if done {
			return
		}
		last = curr
	}
}

func (r *Reporter) snapshotAll() []StatsSnapshot {
	snaps := make([]StatsSnapshot, len(r.stats))
	for i, s := range r.stats {
		snaps[i] = s.Snapshot()
	}
	return snaps
}

// header renders the column title row: per-worker columns first ("0.l",
// "0.f", ...), then the aggregate columns.
func (r *Reporter) header() string {
	var sb strings.Builder
	for i := range r.stats {
		if strings.Contains(r.format, "l") {
			fmt.Fprintf(&sb, colWidth, fmt.Sprintf("%d.l", i))
		}
		if strings.Contains(r.format, "f") {
			fmt.Fprintf(&sb, colWidth, fmt.Sprintf("%d.f", i))
		}
		if strings.Contains(r.format, "x") {
			fmt.Fprintf(&sb, colWidth, fmt.Sprintf("%d.x", i))
		}
		if strings.Contains(r.format, "d") {
			fmt.Fprintf(&sb, colWidth, fmt.Sprintf("%d.d", i))
		}
	}
	for _, col := range []string{"L", "F", "X", "D", "T"} {
		if strings.Contains(r.format, col) {
			fmt.Fprintf(&sb, colWidth, col)
		}
	}
	return sb.String()
}

// renderLine renders one report row and reports whether loading completed.
func (r *Reporter) renderLine(curr, last []StatsSnapshot, elapsed time.Duration) (string, bool) {
	intervalSec := int64(r.interval / time.Second)
	if intervalSec < 1 {
		intervalSec = 1
	}

	var sb strings.Builder
	var (
		totalLineRate  int64
		totalByteRate  int64
		totalProcessed int64
		totalAssigned  int64
		totalFailures  int64
	)
	for i := range curr {
		lineRate := (curr[i].LinesProcessed - last[i].LinesProcessed) / intervalSec
		byteRate := (curr[i].BytesRead - last[i].BytesRead) / intervalSec

		if strings.Contains(r.format, "l") {
			fmt.Fprintf(&sb, colWidth, fmt.Sprintf("%d", lineRate))
		}
		if strings.Contains(r.format, "f") {
			fmt.Fprintf(&sb, colWidth, fmt.Sprintf("(%d/%d)", curr[i].FilesProcessed, curr[i].FilesAssigned))
		}
		if strings.Contains(r.format, "x") {
			fmt.Fprintf(&sb, colWidth, fmt.Sprintf("%d", curr[i].TxFailures))
		}
		if strings.Contains(r.format, "d") {
			fmt.Fprintf(&sb, colWidth, fmt.Sprintf("%dKB/s", byteRate/1000))
		}

		totalLineRate += lineRate
		totalByteRate += byteRate
		totalProcessed += curr[i].FilesProcessed
		totalAssigned += curr[i].FilesAssigned
		totalFailures += curr[i].TxFailures
	}

	if strings.Contains(r.format, "L") {
		fmt.Fprintf(&sb, colWidth, fmt.Sprintf("%d", totalLineRate))
	}
	if strings.Contains(r.format, "F") {
		fmt.Fprintf(&sb, colWidth, fmt.Sprintf("(%d/%d)", totalProcessed, totalAssigned))
	}
	if strings.Contains(r.format, "X") {
		fmt.Fprintf(&sb, colWidth, fmt.Sprintf("%d", totalFailures))
	}
	if strings.Contains(r.format, "D") {
		fmt.Fprintf(&sb, colWidth, fmt.Sprintf("%dMB/s", totalByteRate/1000000))
	}
	if strings.Contains(r.format, "T") {
		fmt.Fprintf(&sb, colWidth, fmt.Sprintf("%dm", int64(elapsed/time.Minute)))
	}

	return sb.String(), totalProcessed == totalAssigned
}
