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

package snb

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/kraklabs/graphload/pkg/loader"
)

// Discover scans dir for the dataset files of one loading phase and
// returns the ordered work list. The order is deterministic — catalog
// order, then lexicographic file name order within each catalog entry — so
// every loader instance configured against the same directory computes the
// identical list and the partition assignments line up.
//
// Catalog entries with no matching files are logged as missing; an empty
// result is not an error (the caller decides whether zero files is worth
// running with).
func Discover(dir string, role loader.Role, logger *slog.Logger) ([]loader.WorkUnit, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset directory %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var units []loader.WorkUnit
	switch role {
	case loader.RoleNodes:
		for _, entity := range Entities {
			matched := matchFiles(names, entity.Name)
			for _, name := range matched {
				units = append(units, loader.WorkUnit{
					Role:    loader.RoleNodes,
					Path:    filepath.Join(dir, name),
					IDSpace: entity.IDSpace,
					Label:   entity.Label,
				})
				logger.Info("discover.file", "kind", entity.Name+" nodes", "file", name)
			}
			if len(matched) == 0 {
				logger.Warn("discover.missing", "kind", entity.Name+" nodes")
			}
		}
	case loader.RoleProps:
		for _, ps := range PropertySets {
			matched := matchFiles(names, ps.FileStem)
			for _, name := range matched {
				units = append(units, loader.WorkUnit{
					Role:    loader.RoleProps,
					Path:    filepath.Join(dir, name),
					IDSpace: ps.Entity.IDSpace,
					Label:   ps.Entity.Label,
				})
				logger.Info("discover.file", "kind", ps.FileStem+" properties", "file", name)
			}
			if len(matched) == 0 {
				logger.Warn("discover.missing", "kind", ps.FileStem+" properties")
			}
		}
	case loader.RoleEdges:
		for _, rel := range Relations {
			stem := rel.Tail.Name + "_" + rel.Name + "_" + rel.Head.Name
			matched := matchFiles(names, stem)
			for _, name := range matched {
				units = append(units, loader.WorkUnit{
					Role:        loader.RoleEdges,
					Path:        filepath.Join(dir, name),
					TailIDSpace: rel.Tail.IDSpace,
					HeadIDSpace: rel.Head.IDSpace,
					EdgeLabel:   rel.Name,
					Directed:    rel.Directed,
				})
				logger.Info("discover.file", "kind", rel.String()+" edges", "file", name)
			}
			if len(matched) == 0 {
				logger.Warn("discover.missing", "kind", rel.String()+" edges")
			}
		}
	default:
		return nil, fmt.Errorf("unknown role %d", role)
	}

	logger.Info("discover.complete", "role", role.String(), "files", len(units))
	return units, nil
}

// matchFiles returns the sorted file names matching stem_<n>_<n>.csv.
func matchFiles(sortedNames []string, stem string) []string {
	re := regexp.MustCompile("^" + regexp.QuoteMeta(stem) + `_[0-9]+_[0-9]+\.csv$`)
	var out []string
	for _, name := range sortedNames {
		if re.MatchString(name) {
			out = append(out, name)
		}
	}
	return out
}
