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
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/graphload/pkg/store"
)

func testConfig() Config {
	return Config{
		NumLoaders:     1,
		LoaderIdx:      0,
		NumThreads:     1,
		TxSize:         128,
		TxRetries:      10,
		TxBackoff:      1000,
		TxBoffCeil:     10000,
		ReportInterval: 10 * time.Second,
		ReportFormat:   "",
		Seed:           1,
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	bad := func(mutate func(*Config)) Config {
		cfg := testConfig()
		mutate(&cfg)
		return cfg
	}
	cases := []Config{
		bad(func(c *Config) { c.NumLoaders = 0 }),
		bad(func(c *Config) { c.LoaderIdx = -1 }),
		bad(func(c *Config) { c.LoaderIdx = 1 }),
		bad(func(c *Config) { c.NumThreads = 0 }),
		bad(func(c *Config) { c.TxSize = 0 }),
		bad(func(c *Config) { c.TxRetries = -1 }),
		bad(func(c *Config) { c.TxBackoff = 0 }),
		bad(func(c *Config) { c.TxBoffCeil = 999 }),
	}
	for i, cfg := range cases {
		assert.Error(t, cfg.Validate(), "case %d", i)
	}
}

func TestEngine_LoadsNodesAndEdges(t *testing.T) {
	personFile := writeDataFile(t, "person_0_0.csv",
		"id|firstName|birthday",
		"1|Mahinda|1989-12-04",
		"2|Jan|1990-01-01",
		"3|Ali|1991-06-15",
	)
	knowsFile := writeDataFile(t, "person_knows_person_0_0.csv",
		"Person.id|Person.id|creationDate",
		"1|2|2010-03-17T23:32:10.447+0000",
		"2|3|2010-03-17T23:32:10.447+0000",
	)

	st := store.NewMemStore()
	cfg := testConfig()
	cfg.NumThreads = 2

	// Nodes first: edges resolve their endpoints against committed nodes.
	nodeUnits := []WorkUnit{
		{Role: RoleNodes, Path: personFile, IDSpace: 4, Label: "Person"},
	}
	eng, err := NewEngine(cfg, nodeUnits, st, quietLogger(), nil)
	require.NoError(t, err)
	res, err := eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.FilesProcessed)
	assert.Equal(t, int64(3), res.LinesProcessed)
	assert.Equal(t, 3, st.NodeCount())

	edgeUnits := []WorkUnit{
		{Role: RoleEdges, Path: knowsFile, TailIDSpace: 4, HeadIDSpace: 4, EdgeLabel: "knows", Directed: false},
	}
	eng, err = NewEngine(cfg, edgeUnits, st, quietLogger(), nil)
	require.NoError(t, err)
	res, err = eng.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.LinesProcessed)

	// Undirected relations are stored in both directions.
	assert.Equal(t, 4, st.EdgeCount())
	props := st.EdgeProperties(store.NodeID{IDSpace: 4, ID: 2}, store.NodeID{IDSpace: 4, ID: 1}, "knows")
	require.Len(t, props, 1)
	assert.Equal(t, "1268868730447", props[0].Value)

	nodeProps := st.NodeProperties(store.NodeID{IDSpace: 4, ID: 1})
	require.NotNil(t, nodeProps)
	assert.Equal(t, []string{"628732800000"}, nodeProps["birthday"])
}

func TestEngine_AppendsMultiValuedProps(t *testing.T) {
	personFile := writeDataFile(t, "person_0_0.csv",
		"id|firstName",
		"1|Mahinda",
	)
	emailFile := writeDataFile(t, "person_email_emailaddress_0_0.csv",
		"Person.id|email",
		"1|a@x.com",
		"1|b@y.org",
	)

	st := store.NewMemStore()
	cfg := testConfig()

	nodeUnits := []WorkUnit{{Role: RoleNodes, Path: personFile, IDSpace: 4, Label: "Person"}}
	eng, err := NewEngine(cfg, nodeUnits, st, quietLogger(), nil)
	require.NoError(t, err)
	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	propUnits := []WorkUnit{{Role: RoleProps, Path: emailFile, IDSpace: 4, Label: "Person"}}
	eng, err = NewEngine(cfg, propUnits, st, quietLogger(), nil)
	require.NoError(t, err)
	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	props := st.NodeProperties(store.NodeID{IDSpace: 4, ID: 1})
	require.NotNil(t, props)
	assert.Equal(t, []string{"a@x.com", "b@y.org"}, props["email"])
}

func TestEngine_PartitionedInstancesShareNothing(t *testing.T) {
	// Two loader instances over the same five-file work list must process
	// disjoint subsets that together cover everything.
	var units []WorkUnit
	for i := 0; i < 5; i++ {
		path := writeDataFile(t, fmt.Sprintf("person_%d_0.csv", i),
			"id|firstName",
			fmt.Sprintf("%d|P%d", i+1, i+1),
		)
		units = append(units, WorkUnit{Role: RoleNodes, Path: path, IDSpace: 4, Label: "Person"})
	}

	st := store.NewMemStore()
	var totalAssigned, totalProcessed int64
	for loaderIdx := 0; loaderIdx < 2; loaderIdx++ {
		cfg := testConfig()
		cfg.NumLoaders = 2
		cfg.LoaderIdx = loaderIdx
		cfg.NumThreads = 2

		eng, err := NewEngine(cfg, units, st, quietLogger(), nil)
		require.NoError(t, err)
		res, err := eng.Run(context.Background())
		require.NoError(t, err)
		totalAssigned += res.FilesAssigned
		totalProcessed += res.FilesProcessed
	}

	assert.Equal(t, int64(5), totalAssigned)
	assert.Equal(t, int64(5), totalProcessed)
	// Every node created exactly once proves no file was loaded twice.
	assert.Equal(t, 5, st.NodeCount())
}

func TestEngine_FatalDataErrorAbortsRun(t *testing.T) {
	good := writeDataFile(t, "person_0_0.csv", "id", "1")
	broken := writeDataFile(t, "person_1_0.csv", "id|birthday", "2|bogus")

	st := store.NewMemStore()
	cfg := testConfig()
	cfg.NumThreads = 2

	units := []WorkUnit{
		{Role: RoleNodes, Path: good, IDSpace: 4, Label: "Person"},
		{Role: RoleNodes, Path: broken, IDSpace: 4, Label: "Person"},
	}
	eng, err := NewEngine(cfg, units, st, quietLogger(), nil)
	require.NoError(t, err)

	_, err = eng.Run(context.Background())
	require.Error(t, err)
	var de *DataError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, broken, de.Path)
}

func TestEngine_MissingPropTargetIsFatal(t *testing.T) {
	emailFile := writeDataFile(t, "person_email_emailaddress_0_0.csv",
		"Person.id|email",
		"99|a@x.com",
	)

	st := store.NewMemStore()
	units := []WorkUnit{{Role: RoleProps, Path: emailFile, IDSpace: 4, Label: "Person"}}
	eng, err := NewEngine(testConfig(), units, st, quietLogger(), nil)
	require.NoError(t, err)

	_, err = eng.Run(context.Background())
	require.Error(t, err)
	var de *DataError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "id", de.Column)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEngine_ReporterOutput(t *testing.T) {
	personFile := writeDataFile(t, "person_0_0.csv", "id", "1")

	st := store.NewMemStore()
	cfg := testConfig()
	cfg.ReportInterval = time.Millisecond
	cfg.ReportFormat = "LF"

	var out bytes.Buffer
	units := []WorkUnit{{Role: RoleNodes, Path: personFile, IDSpace: 4, Label: "Person"}}
	eng, err := NewEngine(cfg, units, st, quietLogger(), &out)
	require.NoError(t, err)

	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, out.String(), "L")
	assert.Contains(t, out.String(), "F")
}

func TestEngine_Snapshots(t *testing.T) {
	personFile := writeDataFile(t, "person_0_0.csv", "id", "1", "2")

	st := store.NewMemStore()
	units := []WorkUnit{{Role: RoleNodes, Path: personFile, IDSpace: 4, Label: "Person"}}
	eng, err := NewEngine(testConfig(), units, st, quietLogger(), nil)
	require.NoError(t, err)

	_, err = eng.Run(context.Background())
	require.NoError(t, err)

	snaps := eng.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, int64(2), snaps[0].LinesProcessed)
	assert.Equal(t, int64(1), snaps[0].FilesAssigned)
	assert.Equal(t, int64(1), snaps[0].FilesProcessed)
}
