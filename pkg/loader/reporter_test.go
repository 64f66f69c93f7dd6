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
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_Header(t *testing.T) {
	stats := []*ThreadStats{{}, {}}
	r := NewReporter(stats, time.Second, "lfLFT", nil)

	h := r.header()
	fields := strings.Fields(h)
	assert.Equal(t, []string{"0.l", "0.f", "1.l", "1.f", "L", "F", "T"}, fields)

	// Fixed column width.
	assert.Equal(t, 7*10, len(h))
}

func TestReporter_HeaderIgnoresUnknownChars(t *testing.T) {
	stats := []*ThreadStats{{}}
	r := NewReporter(stats, time.Second, "LQ9#", nil)
	assert.Equal(t, []string{"L"}, strings.Fields(r.header()))
}

func TestReporter_RenderLineRatesAndTotals(t *testing.T) {
	s0, s1 := &ThreadStats{}, &ThreadStats{}
	r := NewReporter([]*ThreadStats{s0, s1}, 10*time.Second, "lfxdLFXDT", nil)

	s0.setFilesAssigned(3)
	s1.setFilesAssigned(2)

	last := r.snapshotAll()

	s0.addLines(100)
	s0.addBytes(20_000_000)
	s0.incFilesProcessed()
	s1.addLines(50)
	s1.addBytes(10_000_000)
	s1.incTxFailures()

	line, done := r.renderLine(r.snapshotAll(), last, 2*time.Minute)
	assert.False(t, done)

	fields := strings.Fields(line)
	require.Len(t, fields, 13)
	// Worker 0: 100 lines / 10s, 1 of 3 files, 0 failures, 2000 KB/s.
	assert.Equal(t, "10", fields[0])
	assert.Equal(t, "(1/3)", fields[1])
	assert.Equal(t, "0", fields[2])
	assert.Equal(t, "2000KB/s", fields[3])
	// Worker 1.
	assert.Equal(t, "5", fields[4])
	assert.Equal(t, "(0/2)", fields[5])
	assert.Equal(t, "1", fields[6])
	assert.Equal(t, "1000KB/s", fields[7])
	// Aggregates.
	assert.Equal(t, "15", fields[8])
	assert.Equal(t, "(1/5)", fields[9])
	assert.Equal(t, "1", fields[10])
	assert.Equal(t, "3MB/s", fields[11])
	assert.Equal(t, "2m", fields[12])
}

func TestReporter_CompletionDetection(t *testing.T) {
	s0, s1 := &ThreadStats{}, &ThreadStats{}
	r := NewReporter([]*ThreadStats{s0, s1}, time.Second, "F", nil)

	s0.setFilesAssigned(2)
	s1.setFilesAssigned(1)
	last := r.snapshotAll()

	s0.incFilesProcessed()
	_, done := r.renderLine(r.snapshotAll(), last, time.Second)
	assert.False(t, done)

	s0.incFilesProcessed()
	s1.incFilesProcessed()
	_, done = r.renderLine(r.snapshotAll(), last, time.Second)
	assert.True(t, done)
}

func TestReporter_RunStopsWhenComplete(t *testing.T) {
	s := &ThreadStats{}
	s.setFilesAssigned(1)
	s.incFilesProcessed()

	var out bytes.Buffer
	r := NewReporter([]*ThreadStats{s}, time.Millisecond, "LF", &out)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(context.Background())
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reporter did not terminate on completion")
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2) // header plus the final report line
	assert.Contains(t, lines[1], "(1/1)")
}

func TestReporter_RunStopsOnCancel(t *testing.T) {
	s := &ThreadStats{}
	s.setFilesAssigned(1) // never completes

	var out bytes.Buffer
	r := NewReporter([]*ThreadStats{s}, time.Hour, "LF", &out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reporter did not terminate on cancellation")
	}
}
