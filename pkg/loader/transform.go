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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kraklabs/graphload/pkg/store"
)

const (
	// fieldSep separates columns within a dataset line.
	fieldSep = "|"

	// arraySep separates elements of a multi-valued column value.
	arraySep = ";"

	// Date-typed column values. Dates are stored as the decimal text form
	// of milliseconds since the Unix epoch, the form benchmark queries
	// expect back, so the conversion cost is paid at load time.
	birthdayLayout = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05.000-0700"
)

// Mutation is one graph mutation request produced from a dataset line.
type Mutation interface {
	mutation()
}

// CreateNode requests creation of a new node.
type CreateNode struct {
	ID    store.NodeID
	Label string
	Props []store.Property
}

// AppendProps requests appending properties to an existing node, resolved
// by its composite identifier.
type AppendProps struct {
	ID    store.NodeID
	Props []store.Property
}

// CreateEdge requests creation of one directed edge between two existing
// nodes, resolved by their composite identifiers.
type CreateEdge struct {
	TailID store.NodeID
	HeadID store.NodeID
	Label  string
	Props  []store.Property
}

func (CreateNode) mutation()  {}
func (AppendProps) mutation() {}
func (CreateEdge) mutation()  {}

// fieldError is a per-column transform failure. The committer wraps it into
// a DataError carrying the file, line number and raw line text.
type fieldError struct {
	Column string
	Value  string
	Err    error
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("column %q value %q: %v", e.Column, e.Value, e.Err)
}

func (e *fieldError) Unwrap() error {
	return e.Err
}

// Transformer turns raw delimited lines of one file into mutation requests.
// It is constructed once per file from the work unit's resolved type info
// and the header-derived field names, and holds no mutable state, so a
// retried batch transforms to identical requests.
type Transformer struct {
	unit       WorkUnit
	fieldNames []string
}

// NewTransformer creates the transformer for one file. fieldNames are the
// column names from the file's header line, in column order.
func NewTransformer(unit WorkUnit, fieldNames []string) *Transformer {
	return &Transformer{unit: unit, fieldNames: fieldNames}
}

// Transform converts one raw line into its mutation requests: one
// CreateNode for a node line, one AppendProps for a property line, one or
// two CreateEdges for a relation line (two when the relation is
// undirected). Any per-column failure aborts the line.
func (t *Transformer) Transform(line string) ([]Mutation, error) {
	switch t.unit.Role {
	case RoleNodes:
		return t.transformNode(line)
	case RoleProps:
		return t.transformProps(line)
	case RoleEdges:
		return t.transformEdge(line)
	default:
		return nil, fmt.Errorf("unknown work unit role %d", t.unit.Role)
	}
}

func (t *Transformer) transformNode(line string) ([]Mutation, error) {
	values := strings.Split(line, fieldSep)
	if err := t.checkWidth(values); err != nil {
		return nil, err
	}

	var (
		id    store.NodeID
		hasID bool
		props []store.Property
	)
	for j, value := range values {
		name := t.fieldNames[j]
		switch name {
		case "id":
			local, err := parseID(value)
			if err != nil {
				return nil, &fieldError{Column: name, Value: value, Err: err}
			}
			id = store.NodeID{IDSpace: t.unit.IDSpace, ID: local}
			hasID = true
		default:
			converted, err := convertColumn(name, value)
			if err != nil {
				return nil, &fieldError{Column: name, Value: value, Err: err}
			}
			props = append(props, converted...)
		}
	}
	if !hasID {
		return nil, &fieldError{Column: "id", Value: "", Err: fmt.Errorf("missing identifier column")}
	}

	return []Mutation{CreateNode{ID: id, Label: t.unit.Label, Props: props}}, nil
}

func (t *Transformer) transformProps(line string) ([]Mutation, error) {
	values := strings.Split(line, fieldSep)
	if err := t.checkWidth(values); err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, &fieldError{Column: t.fieldNames[0], Value: line, Err: fmt.Errorf("property line has no value columns")}
	}

	local, err := parseID(values[0])
	if err != nil {
		return nil, &fieldError{Column: t.fieldNames[0], Value: values[0], Err: err}
	}
	id := store.NodeID{IDSpace: t.unit.IDSpace, ID: local}

	var props []store.Property
	for j := 1; j < len(values); j++ {
		converted, err := convertColumn(t.fieldNames[j], values[j])
		if err != nil {
			return nil, &fieldError{Column: t.fieldNames[j], Value: values[j], Err: err}
		}
		props = append(props, converted...)
	}

	return []Mutation{AppendProps{ID: id, Props: props}}, nil
}

func (t *Transformer) transformEdge(line string) ([]Mutation, error) {
	values := strings.Split(line, fieldSep)
	if err := t.checkWidth(values); err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, &fieldError{Column: t.fieldNames[0], Value: line, Err: fmt.Errorf("relation line has fewer than two identifier columns")}
	}

	tailLocal, err := parseID(values[0])
	if err != nil {
		return nil, &fieldError{Column: t.fieldNames[0], Value: values[0], Err: err}
	}
	headLocal, err := parseID(values[1])
	if err != nil {
		return nil, &fieldError{Column: t.fieldNames[1], Value: values[1], Err: err}
	}
	tail := store.NodeID{IDSpace: t.unit.TailIDSpace, ID: tailLocal}
	head := store.NodeID{IDSpace: t.unit.HeadIDSpace, ID: headLocal}

	// Relation properties get the date conversions but never the
	// multi-value split; relation files carry only scalar columns.
	var props []store.Property
	for j := 2; j < len(values); j++ {
		name := t.fieldNames[j]
		value := values[j]
		switch name {
		case "creationDate", "joinDate":
			ms, err := parseDateTimeMillis(value)
			if err != nil {
				return nil, &fieldError{Column: name, Value: value, Err: err}
			}
			props = append(props, store.Property{Name: name, Value: strconv.FormatInt(ms, 10)})
		default:
			props = append(props, store.Property{Name: name, Value: value})
		}
	}

	muts := []Mutation{CreateEdge{TailID: tail, HeadID: head, Label: t.unit.EdgeLabel, Props: props}}
	if !t.unit.Directed {
		// The store does not assume edge symmetry; materialize the
		// reverse direction explicitly with the same property set.
		muts = append(muts, CreateEdge{TailID: head, HeadID: tail, Label: t.unit.EdgeLabel, Props: props})
	}
	return muts, nil
}

// checkWidth rejects lines with more columns than the header declared.
func (t *Transformer) checkWidth(values []string) error {
	if len(values) > len(t.fieldNames) {
		return &fieldError{
			Column: fmt.Sprintf("#%d", len(t.fieldNames)),
			Value:  values[len(t.fieldNames)],
			Err:    fmt.Errorf("line has %d columns, header has %d", len(values), len(t.fieldNames)),
		}
	}
	return nil
}

// convertColumn applies the by-name value transforms shared by node and
// property lines. Multi-valued columns may produce zero or several
// properties; everything else produces exactly one.
func convertColumn(name, value string) ([]store.Property, error) {
	switch name {
	case "birthday":
		ms, err := parseDateMillis(value)
		if err != nil {
			return nil, err
		}
		return []store.Property{{Name: name, Value: strconv.FormatInt(ms, 10)}}, nil
	case "creationDate", "joinDate":
		ms, err := parseDateTimeMillis(value)
		if err != nil {
			return nil, err
		}
		return []store.Property{{Name: name, Value: strconv.FormatInt(ms, 10)}}, nil
	case "emails", "speaks":
		var props []store.Property
		for _, elem := range strings.Split(value, arraySep) {
			if elem == "" {
				continue
			}
			props = append(props, store.Property{Name: name, Value: elem})
		}
		return props, nil
	default:
		return []store.Property{{Name: name, Value: value}}, nil
	}
}

// parseID parses the per-type integer part of a composite identifier.
func parseID(value string) (uint64, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed identifier: %w", err)
	}
	return id, nil
}

// parseDateMillis parses a calendar date (YYYY-MM-DD, UTC) to milliseconds
// since the epoch.
func parseDateMillis(value string) (int64, error) {
	t, err := time.Parse(birthdayLayout, value)
	if err != nil {
		return 0, fmt.Errorf("unparsable date: %w", err)
	}
	return t.UnixMilli(), nil
}

// parseDateTimeMillis parses an ISO-8601 timestamp with milliseconds and
// zone offset (YYYY-MM-DDThh:mm:ss.sss+hhmm) to milliseconds since the
// epoch.
func parseDateTimeMillis(value string) (int64, error) {
	t, err := time.Parse(dateTimeLayout, value)
	if err != nil {
		return 0, fmt.Errorf("unparsable timestamp: %w", err)
	}
	return t.UnixMilli(), nil
}
