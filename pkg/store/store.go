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

// Package store defines the graph store boundary used by the loader.
//
// The loader never talks to a concrete database directly; it drives a
// Session, which buffers vertex and edge mutations locally and writes them
// in one batch at Commit time. Commit failures are classified as retryable
// (conflict, timeout) or fatal, and the loader's retry policy keys off that
// classification via IsRetryable.
//
// MemStore is the in-process implementation, used by tests and by the
// `mem` store engine of the CLI.
package store

import (
	"errors"
	"fmt"
)

// NodeID is a composite vertex identifier. IDSpace is the small numeric tag
// that distinguishes identifier numbering between entity types sharing a
// numeric range; ID is the per-type integer parsed from the dataset.
type NodeID struct {
	IDSpace uint64
	ID      uint64
}

// String renders the id as "idspace:id", the form used in diagnostics.
func (n NodeID) String() string {
	return fmt.Sprintf("%d:%d", n.IDSpace, n.ID)
}

// Property is a single named property value. Values are always stored as
// text; typed columns (dates) are converted to text by the loader before
// they reach the store. Multi-valued columns produce one Property per
// element under the same name.
type Property struct {
	Name  string
	Value string
}

// NodeRef is an opaque handle to an existing node. A ref is only valid
// within the Session that returned it.
type NodeRef interface {
	ID() NodeID
}

// Session is one worker's transactional context. Mutations are buffered
// locally and written at Commit. A Session must not be shared across
// goroutines; each loader worker holds its own.
type Session interface {
	// LookupNode resolves an existing node by its composite identifier.
	// Returns ErrNotFound if no such node has been committed.
	LookupNode(id NodeID) (NodeRef, error)

	// CreateNode buffers creation of a new node with the given label and
	// properties.
	CreateNode(id NodeID, label string, props []Property) error

	// AppendProperties buffers additional properties on an existing node.
	AppendProperties(ref NodeRef, props []Property) error

	// CreateEdge buffers a directed edge from tail to head.
	CreateEdge(tail, head NodeRef, label string, props []Property) error

	// Commit writes all buffered mutations in one transaction and begins
	// the next. On failure the transaction is rolled back and the buffer
	// discarded; the caller re-applies its mutations before committing
	// again. Failures satisfying IsRetryable are conflicts or timeouts;
	// anything else is fatal.
	Commit() error

	// Close releases the session. Uncommitted mutations are discarded.
	Close() error
}

// Store hands out sessions. Implementations must allow concurrent sessions
// from different goroutines.
type Store interface {
	OpenSession() (Session, error)
	Close() error
}

// ErrNotFound is returned by LookupNode when the node does not exist.
var ErrNotFound = errors.New("node not found")

// CommitError reports a failed Commit. Retryable marks conflicts and
// timeouts, which the loader retries with backoff.
type CommitError struct {
	Reason    string
	Retryable bool
	Err       error
}

func (e *CommitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("commit failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("commit failed: %s", e.Reason)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a commit failure the loader may retry.
func IsRetryable(err error) bool {
	var ce *CommitError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}
