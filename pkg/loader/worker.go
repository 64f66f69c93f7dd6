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
	"errors"
	"log/slog"
)

// worker owns one thread's slice of the work list and executes it
// sequentially through the batch committer. Any fatal error from the
// committer propagates up: a malformed dataset is a configuration problem,
// not a transient condition, and must not be skipped.
type worker struct {
	id        int
	units     []WorkUnit
	stats     *ThreadStats
	committer *batchCommitter
	logger    *slog.Logger
}

func (w *worker) run(ctx context.Context) error {
	// Zero-length assignments start, do nothing, and terminate cleanly.
	for _, unit := range w.units {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		w.logger.Debug("load.worker.file.start", "worker", w.id, "role", unit.Role.String(), "path", unit.Path)
		if err := w.committer.processFile(ctx, unit); err != nil {
			if errors.Is(err, context.Canceled) {
				// Interrupted: clean shutdown, partial progress stands.
				return nil
			}
			w.logger.Error("load.worker.file.error", "worker", w.id, "path", unit.Path, "err", err)
			return err
		}
	}
	return nil
}
