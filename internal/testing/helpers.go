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

package testing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kraklabs/graphload/pkg/store"
)

// SeedNode describes one node to pre-commit into a test store.
type SeedNode struct {
	ID    store.NodeID
	Label string
	Props []store.Property
}

// Node builds a SeedNode for SetupTestStore.
//
// Example:
//
//	testing.Node(4, 933, "Person")
func Node(idSpace, id uint64, label string, props ...store.Property) SeedNode {
	return SeedNode{
		ID:    store.NodeID{IDSpace: idSpace, ID: id},
		Label: label,
		Props: props,
	}
}

// SetupTestStore creates an in-memory graph store with the given nodes
// already committed. The store is closed when the test finishes.
//
// Example:
//
//	st := testing.SetupTestStore(t,
//	    testing.Node(4, 933, "Person"),
//	    testing.Node(6, 17, "Post"),
//	)
func SetupTestStore(t *testing.T, nodes ...SeedNode) *store.MemStore {
	t.Helper()

	st := store.NewMemStore()
	t.Cleanup(func() {
		_ = st.Close()
	})

	if len(nodes) == 0 {
		return st
	}

	sess, err := st.OpenSession()
	if err != nil {
		t.Fatalf("failed to open seed session: %v", err)
	}
	defer sess.Close()

	for _, n := range nodes {
		if err := sess.CreateNode(n.ID, n.Label, n.Props); err != nil {
			t.Fatalf("failed to seed node %s: %v", n.ID, err)
		}
	}
	if err := sess.Commit(); err != nil {
		t.Fatalf("failed to commit seed nodes: %v", err)
	}

	return st
}

// WriteDatasetFile writes one delimited dataset file into dir. Lines are
// given without terminators; the header comes first.
//
// Example:
//
//	testing.WriteDatasetFile(t, dir, "person_0_0.csv",
//	    "id|firstName",
//	    "933|Mahinda",
//	)
func WriteDatasetFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dataset file %s: %v", name, err)
	}
	return path
}

// NewDatasetDir lays out a dataset directory from a name-to-lines map and
// returns its path. The directory is removed when the test finishes.
//
// Example:
//
//	dir := testing.NewDatasetDir(t, map[string][]string{
//	    "person_0_0.csv":              {"id|firstName", "933|Mahinda"},
//	    "person_knows_person_0_0.csv": {"Person.id|Person.id", "933|1129"},
//	})
func NewDatasetDir(t *testing.T, files map[string][]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, lines := range files {
		WriteDatasetFile(t, dir, name, lines...)
	}
	return dir
}
