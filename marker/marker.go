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

// Package marker implements the cross-cube dependency record of
// spec.md §4.7 (C7): a Marker tells the cube storage layer "a cell in
// toCube depends on this set of base cells in fromCube", so that a
// write to fromCube can invalidate or recompute the dependent toCube
// cells. Grounded line-for-line on
// original_source/Olap/RuleMarker.{h,cpp}'s two constructors.
package marker

import (
	"fmt"

	"github.com/jedox/rulecube/ast"
	"github.com/jedox/rulecube/cube"
)

// Marker is the Go analogue of RuleMarker: fromCube/toCube plus the
// permutation/fixed/mapping arrays that let the cube layer translate a
// changed fromCube base cell into the toCube cells that depend on it.
type Marker struct {
	FromCube cube.Cube
	ToCube   cube.Cube

	// FromBase holds, per fromCube dimension, the unfolded base
	// element ids the marker depends on; an empty set means
	// unrestricted (every base element of that dimension).
	FromBase cube.Area

	// Permutations holds, per toCube dimension, either the index into
	// FromBase/fromCube.Dimensions() supplying that dimension's
	// coordinate, or cube.NoIdentifier when the dimension is pinned to
	// a constant (see Fixed).
	Permutations []cube.Identifier

	// Fixed holds, per toCube dimension, the pinned element id when
	// Permutations[i] == cube.NoIdentifier.
	Fixed []cube.Identifier

	// UseMapping is set on every marker FromPaloMarker builds (and on
	// none FromArea builds): Mapping then translates a fromCube element
	// id into the like-named toCube element id.
	UseMapping bool
	// Mapping is indexed [toDimensionPosition][fromElementIdentifier]
	// -> toElementIdentifier, or cube.NoMapping if no like-named
	// element exists. It is populated for every permuted (unpinned)
	// toCube position, including one whose from and to Dimension are
	// the same object, where it is the identity; pinned positions
	// stay nil.
	Mapping [][]cube.Identifier
}

func (m *Marker) String() string {
	return fmt.Sprintf("MARKER from '%s' to '%s'", m.FromCube.Name(), m.ToCube.Name())
}

// unfoldBase unfolds a single-coordinate area restriction s into the
// set of base element ids of dim it denotes, or nil ("unrestricted")
// if s is empty. Internal markers ([[...]] sources) always restrict a
// dimension to at most one element, the shape RuleMarker's first
// constructor assumes.
func unfoldBase(dim cube.Dimension, s cube.IDSet) cube.IDSet {
	if len(s) == 0 {
		return nil
	}
	e := dim.FindElement(s[0])
	if e == nil {
		return nil
	}
	base := dim.BaseElements(e)
	ids := make(cube.IDSet, 0, len(base))
	for _, b := range base {
		ids = append(ids, b.Identifier())
	}
	return cube.NewIDSet(ids...)
}

// FromArea builds a same-cube marker for a [[...]] source reference
// (PALO.MARKER calls, same-cube or not, go through FromPaloMarker):
// the toArea pins every
// dimension it restricts, and the from/to dimension lists are
// identical (RuleMarker's first constructor permits no permutation).
func FromArea(c cube.Cube, fromArea, toArea cube.Area) *Marker {
	dims := c.Dimensions()
	nd := len(dims)

	m := &Marker{
		FromCube:     c,
		ToCube:       c,
		Permutations: make([]cube.Identifier, nd),
		Fixed:        make([]cube.Identifier, nd),
	}
	for i := range m.Permutations {
		m.Permutations[i] = cube.Identifier(i)
	}
	for i, dim := range dims {
		var s cube.IDSet
		if i < len(fromArea) {
			s = fromArea[i]
		}
		m.FromBase = append(m.FromBase, unfoldBase(dim, s))
	}
	for i := 0; i < nd && i < len(toArea); i++ {
		s := toArea[i]
		if len(s) != 0 {
			m.Fixed[i] = s[0]
			m.Permutations[i] = cube.NoIdentifier
		}
	}
	return m
}

// pathEntry classifies one PALO.MARKER path argument: either a
// constant fromCube element name, or a dimension-name variable.
type pathEntry struct {
	constant string
	variable string
}

// FromPaloMarker builds a cross-cube marker for a PALO.MARKER(db, cube,
// coord1, coord2, ...) call, grounded on RuleMarker's second
// constructor. path must already be validated to have one entry per
// fromCube dimension (package builtin's ResolveTarget checks this, and
// package rule calls it before FromPaloMarker).
func FromPaloMarker(fromCube, toCube cube.Cube, path []ast.Expr, toArea cube.Area) (*Marker, error) {
	entries := make([]pathEntry, len(path))
	for i, p := range path {
		switch n := p.(type) {
		case *ast.String:
			entries[i] = pathEntry{constant: n.Value}
		case *ast.Variable:
			entries[i] = pathEntry{variable: n.Name}
		}
	}

	toDims := toCube.Dimensions()

	// A variable may become constant because the destination area
	// already pins the same dimension — collapse it before building
	// fromBase (spec.md §4.7).
	for i := range entries {
		name := entries[i].variable
		if name == "" {
			continue
		}
		variableDim := toCube.Database().FindDimensionByName(name)
		if variableDim == nil {
			return nil, fmt.Errorf("marker: cannot find variable dimension '%s'", name)
		}
		pos := -1
		for d, td := range toDims {
			if td == variableDim {
				pos = d
				break
			}
		}
		if pos < 0 {
			return nil, fmt.Errorf("marker: cannot find variable dimension '%s'", name)
		}
		if pos < len(toArea) && len(toArea[pos]) != 0 {
			elem := variableDim.FindElement(toArea[pos][0])
			if elem == nil {
				return nil, fmt.Errorf("marker: dangling element id in destination area for dimension '%s'", name)
			}
			entries[i].variable = ""
			entries[i].constant = elem.Name()
		}
	}

	fromDims := fromCube.Dimensions()
	m := &Marker{FromCube: fromCube, ToCube: toCube}
	for i, dim := range fromDims {
		if i >= len(entries) || entries[i].constant == "" {
			m.FromBase = append(m.FromBase, nil)
			continue
		}
		e := dim.FindElementByName(entries[i].constant)
		if e == nil {
			return nil, fmt.Errorf("marker: unknown element '%s' in dimension '%s'", entries[i].constant, dim.Name())
		}
		base := dim.BaseElements(e)
		ids := make(cube.IDSet, 0, len(base))
		for _, b := range base {
			ids = append(ids, b.Identifier())
		}
		m.FromBase = append(m.FromBase, cube.NewIDSet(ids...))
	}

	varDims := make([]cube.Dimension, len(entries))
	for i, entry := range entries {
		if entry.variable == "" {
			continue
		}
		varDims[i] = toCube.Database().FindDimensionByName(entry.variable)
	}

	nd := len(toDims)
	m.Permutations = make([]cube.Identifier, nd)
	m.Fixed = make([]cube.Identifier, nd)

	type dimPair struct{ from, to cube.Dimension }
	dimPairs := make([]dimPair, nd)

	for f := 0; f < nd; f++ {
		var s cube.IDSet
		if f < len(toArea) {
			s = toArea[f]
		}
		if len(s) != 0 {
			m.Fixed[f] = s[0]
			m.Permutations[f] = cube.NoIdentifier
			continue
		}

		td := toDims[f]
		pos := -1
		for v, vd := range varDims {
			if vd == td {
				pos = v
				break
			}
		}
		if pos < 0 {
			return nil, fmt.Errorf("marker: cannot find variable dimension '%s'", td.Name())
		}
		m.Permutations[f] = cube.Identifier(pos)
		dimPairs[f] = dimPair{from: fromDims[pos], to: td}
	}

	m.UseMapping = true
	m.Mapping = make([][]cube.Identifier, nd)

	for f, p := range dimPairs {
		if p.from == nil {
			continue
		}
		fd, td := p.from, p.to
		mm := make([]cube.Identifier, int(fd.MaximalIdentifier())+1)
		for i := range mm {
			mm[i] = cube.NoMapping
		}
		for _, fe := range fd.Elements() {
			te := td.FindElementByName(fe.Name())
			if te == nil {
				continue
			}
			mm[fe.Identifier()] = te.Identifier()
		}
		m.Mapping[f] = mm
	}

	return m, nil
}
