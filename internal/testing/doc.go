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

// Package testing provides test helpers for graphload integration tests.
//
// It offers dataset fixture builders (generator-style delimited files laid
// out in a temporary directory) and an in-memory graph store pre-seeded
// with nodes, so loader-level tests do not repeat fixture plumbing.
//
// # Quick Start
//
// Use SetupTestStore to create a seeded in-memory store:
//
//	func TestMyFeature(t *testing.T) {
//	    st := testing.SetupTestStore(t,
//	        testing.Node(4, 933, "Person"),
//	        testing.Node(4, 1129, "Person"),
//	    )
//
//	    // Store holds two committed Person nodes...
//	}
//
// # Dataset Fixtures
//
// WriteDatasetFile writes one generator-named file; NewDatasetDir lays out
// a whole directory of them:
//
//	dir := testing.NewDatasetDir(t, map[string][]string{
//	    "person_0_0.csv": {"id|firstName", "933|Mahinda"},
//	})
package testing
