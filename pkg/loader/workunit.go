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

// Package loader implements the parallel ingestion engine: it partitions a
// discovered list of dataset files across loader instances and worker
// threads, streams each file through a per-role line transformer, commits
// mutations to the graph store in bounded transactional batches with
// retry/backoff, and reports per-worker statistics on a fixed cadence.
package loader

// Role is the semantic role a dataset file plays.
type Role int

const (
	// RoleNodes marks a file whose lines each create one new node.
	RoleNodes Role = iota

	// RoleProps marks a file whose lines append properties to existing
	// nodes.
	RoleProps

	// RoleEdges marks a file whose lines each create one edge (two for
	// undirected relations).
	RoleEdges
)

func (r Role) String() string {
	switch r {
	case RoleNodes:
		return "nodes"
	case RoleProps:
		return "props"
	case RoleEdges:
		return "edges"
	default:
		return "unknown"
	}
}

// WorkUnit is an immutable descriptor of one file plus the type information
// resolved from the catalog. It is constructed once at startup and owned by
// exactly one worker after partitioning.
type WorkUnit struct {
	Role Role
	Path string

	// Entity info, set for RoleNodes and RoleProps.
	IDSpace uint64
	Label   string

	// Relation info, set for RoleEdges.
	TailIDSpace uint64
	HeadIDSpace uint64
	EdgeLabel   string
	Directed    bool
}
