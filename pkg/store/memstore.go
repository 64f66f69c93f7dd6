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

package store

import (
	"fmt"
	"sync"
)

// MemStore is an in-memory graph store. It implements the full Session
// contract, including multi-valued properties (repeated property names
// append to a value list, they do not overwrite).
//
// MemStore is safe for concurrent sessions. Commits are idempotent per
// mutation: re-creating a node with the same id overwrites it, re-adding an
// identical edge replaces it, so a retried batch does not duplicate data.
type MemStore struct {
	mu    sync.RWMutex
	nodes map[NodeID]*memNode
	edges map[memEdgeKey][]Property
}

type memNode struct {
	id    NodeID
	label string
	props map[string][]string
}

type memEdgeKey struct {
	tail, head NodeID
	label      string
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes: make(map[NodeID]*memNode),
		edges: make(map[memEdgeKey][]Property),
	}
}

// OpenSession returns a new buffered session against this store.
func (s *MemStore) OpenSession() (Session, error) {
	return &memSession{store: s}, nil
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error {
	return nil
}

// NodeCount returns the number of committed nodes.
func (s *MemStore) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of committed distinct edges.
func (s *MemStore) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// NodeProperties returns a copy of the committed property lists of a node,
// or nil if the node does not exist.
func (s *MemStore) NodeProperties(id NodeID) map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(n.props))
	for k, v := range n.props {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// NodeLabel returns the label of a committed node, or "" if absent.
func (s *MemStore) NodeLabel(id NodeID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.nodes[id]; ok {
		return n.label
	}
	return ""
}

// EdgeProperties returns the committed properties of the edge
// tail-[label]->head, or nil if no such edge exists.
func (s *MemStore) EdgeProperties(tail, head NodeID, label string) []Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	props, ok := s.edges[memEdgeKey{tail: tail, head: head, label: label}]
	if !ok {
		return nil
	}
	return append([]Property(nil), props...)
}

// memRef is the NodeRef handed out by memSession lookups.
type memRef struct {
	id NodeID
}

func (r memRef) ID() NodeID { return r.id }

// memOp is one buffered mutation.
type memOp struct {
	kind  byte // 'n' create node, 'p' append props, 'e' create edge
	id    NodeID
	head  NodeID
	label string
	props []Property
}

type memSession struct {
	store  *MemStore
	ops    []memOp
	closed bool
}

func (s *memSession) LookupNode(id NodeID) (NodeRef, error) {
	if s.closed {
		return nil, fmt.Errorf("session closed")
	}
	s.store.mu.RLock()
	_, ok := s.store.nodes[id]
	s.store.mu.RUnlock()
	if ok {
		return memRef{id: id}, nil
	}
	// A node buffered in this session is visible to its own lookups, the
	// way a store-side transaction would see its own writes.
	for _, op := range s.ops {
		if op.kind == 'n' && op.id == id {
			return memRef{id: id}, nil
		}
	}
	return nil, fmt.Errorf("node %s: %w", id, ErrNotFound)
}

func (s *memSession) CreateNode(id NodeID, label string, props []Property) error {
	if s.closed {
		return fmt.Errorf("session closed")
	}
	s.ops = append(s.ops, memOp{kind: 'n', id: id, label: label, props: props})
	return nil
}

func (s *memSession) AppendProperties(ref NodeRef, props []Property) error {
	if s.closed {
		return fmt.Errorf("session closed")
	}
	s.ops = append(s.ops, memOp{kind: 'p', id: ref.ID(), props: props})
	return nil
}

func (s *memSession) CreateEdge(tail, head NodeRef, label string, props []Property) error {
	if s.closed {
		return fmt.Errorf("session closed")
	}
	s.ops = append(s.ops, memOp{kind: 'e', id: tail.ID(), head: head.ID(), label: label, props: props})
	return nil
}

func (s *memSession) Commit() error {
	if s.closed {
		return fmt.Errorf("session closed")
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	// Validate before applying so a failed commit leaves the store
	// untouched and the buffer rolled back, per the Session contract.
	created := make(map[NodeID]bool)
	for _, op := range s.ops {
		switch op.kind {
		case 'n':
			created[op.id] = true
		case 'p':
			if _, ok := s.store.nodes[op.id]; !ok && !created[op.id] {
				s.ops = s.ops[:0]
				return &CommitError{Reason: fmt.Sprintf("append to missing node %s", op.id)}
			}
		}
	}

	for _, op := range s.ops {
		switch op.kind {
		case 'n':
			n := &memNode{id: op.id, label: op.label, props: make(map[string][]string)}
			for _, p := range op.props {
				n.props[p.Name] = append(n.props[p.Name], p.Value)
			}
			s.store.nodes[op.id] = n
		case 'p':
			n := s.store.nodes[op.id]
			for _, p := range op.props {
				n.props[p.Name] = append(n.props[p.Name], p.Value)
			}
		case 'e':
			key := memEdgeKey{tail: op.id, head: op.head, label: op.label}
			s.store.edges[key] = append([]Property(nil), op.props...)
		}
	}
	s.ops = s.ops[:0]
	return nil
}

func (s *memSession) Close() error {
	s.ops = nil
	s.closed = true
	return nil
}
