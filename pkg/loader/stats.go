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

import "sync/atomic"

// ThreadStats is one worker's set of monotonically increasing counters.
// The owning worker is the only writer; the reporter takes read-only
// snapshots from a different goroutine, so every counter is atomic.
type ThreadStats struct {
	linesProcessed atomic.Int64
	bytesRead      atomic.Int64
	filesProcessed atomic.Int64
	filesAssigned  atomic.Int64
	txFailures     atomic.Int64
}

// StatsSnapshot is a point-in-time copy of a ThreadStats.
type StatsSnapshot struct {
	LinesProcessed int64
	BytesRead      int64
	FilesProcessed int64
	FilesAssigned  int64
	TxFailures     int64
}

func (s *ThreadStats) addLines(n int)         { s.linesProcessed.Add(int64(n)) }
func (s *ThreadStats) addBytes(n int)         { s.bytesRead.Add(int64(n)) }
func (s *ThreadStats) incFilesProcessed()     { s.filesProcessed.Add(1) }
func (s *ThreadStats) setFilesAssigned(n int) { s.filesAssigned.Store(int64(n)) }
func (s *ThreadStats) incTxFailures()         { s.txFailures.Add(1) }

// Snapshot returns a consistent-enough copy for progress display. Counters
// are read individually; the reporter tolerates a snapshot spanning an
// update.
func (s *ThreadStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		LinesProcessed: s.linesProcessed.Load(),
		BytesRead:      s.bytesRead.Load(),
		FilesProcessed: s.filesProcessed.Load(),
		FilesAssigned:  s.filesAssigned.Load(),
		TxFailures:     s.txFailures.Load(),
	}
}
