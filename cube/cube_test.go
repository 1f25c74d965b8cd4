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

package cube_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedox/rulecube/cube"
)

func TestIDSetDedupAndSort(t *testing.T) {
	s := cube.NewIDSet(5, 1, 3, 1, 5)
	require.Equal(t, cube.IDSet{1, 3, 5}, s)
}

func TestIDSetContains(t *testing.T) {
	s := cube.NewIDSet(1, 2, 3)
	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(4))
}

func TestIDSetUnionIntersectComplement(t *testing.T) {
	a := cube.NewIDSet(1, 2, 3)
	b := cube.NewIDSet(2, 3, 4)

	assert.Equal(t, cube.NewIDSet(1, 2, 3, 4), a.Union(b))
	assert.Equal(t, cube.NewIDSet(2, 3), a.Intersect(b))

	universe := cube.NewIDSet(1, 2, 3, 4, 5)
	assert.Equal(t, cube.NewIDSet(4, 5), a.Complement(universe))
}

func TestAreaCloneIsIndependent(t *testing.T) {
	a := cube.Area{cube.NewIDSet(1, 2), nil}
	clone := a.Clone()
	clone[0][0] = 99
	assert.Equal(t, cube.Identifier(1), a[0][0], "mutating the clone must not affect the original")
}

func TestIsInArea(t *testing.T) {
	area := cube.Area{cube.NewIDSet(1), nil, cube.NewIDSet(7, 8)}
	in := cube.CellPath{Coordinates: []cube.Identifier{1, 42, 8}}
	out := cube.CellPath{Coordinates: []cube.Identifier{2, 42, 8}}

	assert.True(t, cube.IsInArea(in, area))
	assert.False(t, cube.IsInArea(out, area))
}
