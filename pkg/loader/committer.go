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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/kraklabs/graphload/pkg/store"
)

// DataError is a fatal malformed-input error. It identifies the file, the
// 1-based line number within the file (the header is line 1), the offending
// column and value, and the raw line text.
type DataError struct {
	Path   string
	Line   int
	Column string
	Value  string
	Raw    string
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s:%d: column %q value %q: %v (line: %q)",
		e.Path, e.Line, e.Column, e.Value, e.Err, e.Raw)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// batchCommitter drives one worker's commit loop: it streams a file,
// buffers up to txSize lines, transforms them into mutations, applies them
// to the worker's session and commits, retrying with randomized exponential
// backoff on retryable commit failures.
//
// Per file it moves through: streaming (read header) → buffering →
// transforming+committing → committed | retrying | backoff | aborted.
type batchCommitter struct {
	session store.Session
	stats   *ThreadStats
	logger  *slog.Logger

	txSize     int
	txRetries  int
	txBackoff  int // initial backoff bound, milliseconds
	txBoffCeil int // backoff bound ceiling, milliseconds

	// rng provides backoff jitter; each worker owns a seeded instance so
	// backoff timing is reproducible under test.
	rng *rand.Rand

	// sleep blocks for d or until ctx is cancelled, returning false on
	// cancellation. Injected by tests.
	sleep func(ctx context.Context, d time.Duration) bool
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// processFile loads one work unit. It returns context.Canceled when
// interrupted (clean shutdown), a *DataError or I/O error when the run must
// abort, and nil on success.
func (c *batchCommitter) processFile(ctx context.Context, unit WorkUnit) error {
	f, err := os.Open(unit.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", unit.Path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)

	// The first line holds the column headers used for the rest of the
	// file.
	header, err := readLine(reader)
	if err != nil {
		return fmt.Errorf("read header line of %s: %w", unit.Path, err)
	}
	transformer := NewTransformer(unit, strings.Split(header, fieldSep))

	// Data lines start at file line 2, after the header.
	lineNo := 2

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		default:
		}

		buffer, eof, err := c.readBatch(reader)
		if err != nil {
			return fmt.Errorf("read lines of %s: %w", unit.Path, err)
		}
		if len(buffer) > 0 {
			if err := c.commitBatch(ctx, transformer, unit.Path, buffer, lineNo); err != nil {
				return err
			}
			lineNo += len(buffer)
		}
		if eof {
			break
		}
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", unit.Path, err)
	}
	c.stats.incFilesProcessed()
	recordFileLoaded()
	return nil
}

// readBatch buffers up to txSize lines. The bytes-read counter is updated
// as lines are read, before any commit attempt, since the disk read itself
// succeeded regardless of what the transaction does later.
func (c *batchCommitter) readBatch(reader *bufio.Reader) (buffer []string, eof bool, err error) {
	buffer = make([]string, 0, c.txSize)
	for len(buffer) < c.txSize {
		line, rerr := readLine(reader)
		if rerr == io.EOF {
			return buffer, true, nil
		}
		if rerr != nil {
			return nil, false, rerr
		}
		c.stats.addBytes(len(line))
		recordBytesRead(len(line))
		buffer = append(buffer, line)
	}
	return buffer, false, nil
}

// commitBatch transforms and commits one buffered batch, retrying the same
// buffer on retryable commit failures. The buffer is never re-read from
// disk: the transform is deterministic and the store treats re-submitted
// identical mutations idempotently.
//
// After more than txRetries failures, every further failure sleeps a
// uniformly random duration in [0, bound] where bound starts at txBackoff
// and doubles per backoff cycle until capped at txBoffCeil. The failure
// counter is not reset by a backoff cycle; only a successful commit ends
// the streak, and the next streak starts again at txBackoff.
func (c *batchCommitter) commitBatch(ctx context.Context, transformer *Transformer, path string, buffer []string, baseLine int) error {
	failCount := 0
	backoffMult := 1

	for {
		if err := c.applyBatch(transformer, path, buffer, baseLine); err != nil {
			return err
		}

		start := time.Now()
		err := c.session.Commit()
		recordCommit(time.Since(start), err == nil)
		if err == nil {
			c.stats.addLines(len(buffer))
			recordLinesLoaded(len(buffer))
			return nil
		}
		if !store.IsRetryable(err) {
			return fmt.Errorf("%s: lines [%d, %d]: %w", path, baseLine, baseLine+len(buffer)-1, err)
		}

		failCount++
		c.stats.incTxFailures()
		recordTxFailure()

		if failCount > c.txRetries {
			var boundMs int
			boundMs, backoffMult = nextBackoffBound(backoffMult, c.txBackoff, c.txBoffCeil)
			sleepFor := time.Duration(c.rng.Intn(boundMs+1)) * time.Millisecond

			c.logger.Debug("load.backoff.sleep",
				"path", path,
				"lines_from", baseLine,
				"lines_to", baseLine+len(buffer)-1,
				"fail_count", failCount,
				"bound_ms", boundMs,
				"sleep_ms", sleepFor.Milliseconds(),
			)
			recordBackoffSleep(sleepFor)

			if !c.sleep(ctx, sleepFor) {
				// Interrupted mid-backoff: abandon the remaining
				// buffers and files.
				return context.Canceled
			}
		}
	}
}

// nextBackoffBound computes the sleep bound for one backoff cycle and the
// multiplier for the next. The bound is mult*backoffMs while that stays
// under ceilMs, then pins at ceilMs; the multiplier stops growing once the
// ceiling is reached.
func nextBackoffBound(mult, backoffMs, ceilMs int) (boundMs, nextMult int) {
	if mult*backoffMs < ceilMs {
		return mult * backoffMs, mult * 2
	}
	return ceilMs, mult
}

// applyBatch transforms every buffered line and submits the resulting
// mutations to the session. Transform and lookup failures are fatal for the
// whole run, wrapped with the exact file position.
func (c *batchCommitter) applyBatch(transformer *Transformer, path string, buffer []string, baseLine int) error {
	for i, line := range buffer {
		muts, err := transformer.Transform(line)
		if err != nil {
			return wrapDataError(err, path, baseLine+i, line)
		}
		for _, m := range muts {
			if err := c.applyMutation(m); err != nil {
				return wrapDataError(err, path, baseLine+i, line)
			}
		}
	}
	return nil
}

func (c *batchCommitter) applyMutation(m Mutation) error {
	switch m := m.(type) {
	case CreateNode:
		return c.session.CreateNode(m.ID, m.Label, m.Props)
	case AppendProps:
		ref, err := c.session.LookupNode(m.ID)
		if err != nil {
			return &fieldError{Column: "id", Value: m.ID.String(), Err: err}
		}
		return c.session.AppendProperties(ref, m.Props)
	case CreateEdge:
		tail, err := c.session.LookupNode(m.TailID)
		if err != nil {
			return &fieldError{Column: "tail", Value: m.TailID.String(), Err: err}
		}
		head, err := c.session.LookupNode(m.HeadID)
		if err != nil {
			return &fieldError{Column: "head", Value: m.HeadID.String(), Err: err}
		}
		return c.session.CreateEdge(tail, head, m.Label, m.Props)
	default:
		return fmt.Errorf("unknown mutation type %T", m)
	}
}

func wrapDataError(err error, path string, line int, raw string) error {
	var fe *fieldError
	if errors.As(err, &fe) {
		return &DataError{
			Path:   path,
			Line:   line,
			Column: fe.Column,
			Value:  fe.Value,
			Raw:    raw,
			Err:    fe.Err,
		}
	}
	return fmt.Errorf("%s:%d: %w (line: %q)", path, line, err, raw)
}

// readLine reads one line without its terminator, tolerating both \n and
// \r\n endings and a missing final newline.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err == io.EOF {
		if line == "" {
			return "", io.EOF
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
