// Copyright 2024 The Rulecube Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cubetest_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/cube/cubetest"
)

func loadFixture(t *testing.T) *cubetest.Server {
	t.Helper()
	data, err := os.ReadFile("../../rule/testdata/d_cube.yaml")
	require.NoError(t, err)
	server, err := cubetest.Load(data)
	require.NoError(t, err)
	return server
}

func TestLoadWiresDatabaseAndCubes(t *testing.T) {
	server := loadFixture(t)
	db := server.SoleDatabase()
	require.NotNil(t, db)
	require.Equal(t, "Sales", db.Name())

	d := db.FindCubeByName("D")
	require.NotNil(t, d)
	require.Len(t, d.Dimensions(), 3)
	require.Equal(t, db, d.Database())
	require.Equal(t, server, db.Server())
}

func TestLoadPopulatesBaseCells(t *testing.T) {
	server := loadFixture(t)
	d := server.Cube("Sales", "D")
	require.NotNil(t, d)

	year := d.Dimensions()[0]
	product := d.Dimensions()[1]
	measure := d.Dimensions()[2]

	path := cube.CellPath{Coordinates: []cube.Identifier{
		year.FindElementByName("2023").Identifier(),
		product.FindElementByName("A").Identifier(),
		measure.FindElementByName("Units").Identifier(),
	}}
	v, err := d.GetCellValue(path, nil, nil)
	require.NoError(t, err)
	require.True(t, v.Found)
	require.Equal(t, 100.0, v.Double)
}

func TestBaseElementsAndAncestorsWalkHierarchy(t *testing.T) {
	server := loadFixture(t)
	d := server.Cube("Sales", "D")
	year := d.Dimensions()[0]

	all := year.FindElementByName("AllYears")
	base := year.BaseElements(all)
	require.Len(t, base, 2)

	y2023 := year.FindElementByName("2023")
	ancestors := year.Ancestors(y2023)
	names := make([]string, len(ancestors))
	for i, e := range ancestors {
		names[i] = e.Name()
	}
	require.Contains(t, names, "2023")
	require.Contains(t, names, "AllYears")
}

func TestMarkerRegistrationRoundTrip(t *testing.T) {
	server := loadFixture(t)
	d := server.Cube("Sales", "D")

	m := "a marker value"
	d.AddFromMarker(m)
	require.Equal(t, []any{m}, d.FromMarkers())
	d.RemoveFromMarker(m)
	require.Empty(t, d.FromMarkers())
}

func TestSoleDatabaseOfFixtureWithoutCubesIsNotNil(t *testing.T) {
	server, err := cubetest.Load([]byte("database: Empty\n"))
	require.NoError(t, err)
	require.NotNil(t, server.SoleDatabase())
}
