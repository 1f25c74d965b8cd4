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

package ast

import (
	"fmt"

	"github.com/jedox/rulecube/cube"
)

// NameElem is one "by name" element description inside [...] or {{...}}
// (spec.md §4.2). Both fields nil represents an empty placeholder
// between commas, preserving positional indexing.
type NameElem struct {
	Dim  *string
	Elem *string
}

// IDElem is one "by id" element description inside {...} or {{...}}
// (spec.md §4.2). DimID < 0 encodes an unqualified reference via
// dimID' = -(dimID+1); ElemID < 0 means "no restriction on this
// dimension".
type IDElem struct {
	DimID  int
	ElemID int
}

// Resolved is the outcome of validating an area description against a
// cube: the five parallel vectors of spec.md §4.2 plus the canonical
// Area and any fully-pinned fast path.
type Resolved struct {
	DimensionIDs    []cube.Identifier
	ElementIDs      []cube.Identifier
	IsRestricted    []bool
	IsQualified     []bool
	ElementSequence []int

	NodeArea               cube.Area
	UnrestrictedDimensions bool
	FixedCellPath          *cube.CellPath // non-nil iff every dimension is pinned
}

func newResolved(n int, k int) *Resolved {
	r := &Resolved{
		DimensionIDs:    make([]cube.Identifier, n),
		ElementIDs:      make([]cube.Identifier, n),
		IsRestricted:    make([]bool, n),
		IsQualified:     make([]bool, n),
		ElementSequence: make([]int, k),
		NodeArea:        make(cube.Area, n),
	}
	for i := range r.ElementSequence {
		r.ElementSequence[i] = -1
	}
	return r
}

func (r *Resolved) finish(c cube.Cube) {
	for d, restricted := range r.IsRestricted {
		if restricted {
			r.NodeArea[d] = cube.NewIDSet(r.ElementIDs[d])
		} else {
			r.UnrestrictedDimensions = true
		}
	}
	if !r.UnrestrictedDimensions {
		coords := make([]cube.Identifier, len(r.ElementIDs))
		copy(coords, r.ElementIDs)
		r.FixedCellPath = &cube.CellPath{Coordinates: coords}
	}
}

// ResolveByName implements the name-based area resolution algorithm of
// spec.md §4.2, grounded on
// original_source/Parser/AreaNode.cpp:AreaNode::validateNamesArea.
//
// Pass one binds every element that carries an explicit dimension
// name. Pass two resolves the remaining, unqualified elements:
// position k first tries cube dimension k, then (k+1)%N, (k+2)%N, …,
// stopping at the first *remaining* dimension whose element-name
// lookup succeeds.
func ResolveByName(c cube.Cube, elems []NameElem) (*Resolved, error) {
	dims := c.Dimensions()
	n := len(dims)
	r := newResolved(n, len(elems))

	dim2pos := make(map[cube.Dimension]int, n)
	remaining := make(map[cube.Dimension]bool, n)
	for i, d := range dims {
		dim2pos[d] = i
		remaining[d] = true
		r.DimensionIDs[i] = d.Identifier()
	}

	// pass one: elements with an explicit dimension name
	for pos, e := range elems {
		if e.Dim == nil {
			continue
		}
		var dim cube.Dimension
		for _, d := range dims {
			if d.Name() == *e.Dim {
				dim = d
				break
			}
		}
		if dim == nil {
			return nil, fmt.Errorf("dimension '%s' not found", *e.Dim)
		}
		dimp, ok := dim2pos[dim]
		if !ok {
			return nil, fmt.Errorf("dimension '%s' is not a cube dimension", *e.Dim)
		}
		if e.Elem != nil {
			elm := dim.FindElementByName(*e.Elem)
			if elm == nil {
				return nil, fmt.Errorf("element '%s' not found", *e.Elem)
			}
			r.ElementIDs[dimp] = elm.Identifier()
			r.IsRestricted[dimp] = true
			r.IsQualified[dimp] = true
			r.ElementSequence[pos] = dimp
		} else {
			r.IsRestricted[dimp] = false
		}
		delete(remaining, dim)
	}

	// pass two: unqualified elements, positional then round-robin
	for pos, e := range elems {
		if e.Dim != nil || e.Elem == nil {
			continue
		}
		if pos >= n {
			return nil, fmt.Errorf("too many dimensions")
		}
		var elm cube.Element
		dim := dims[pos]
		if remaining[dim] {
			elm = dim.FindElementByName(*e.Elem)
		}
		if elm == nil {
			found := false
			for offset := 1; offset < n; offset++ {
				dimp := (pos + offset) % n
				d := dims[dimp]
				if !remaining[d] {
					continue
				}
				if cand := d.FindElementByName(*e.Elem); cand != nil {
					dim, elm, found = d, cand, true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("element '%s' not found", *e.Elem)
			}
		}
		dimp := dim2pos[dim]
		delete(remaining, dim)
		r.DimensionIDs[dimp] = dim.Identifier()
		r.ElementIDs[dimp] = elm.Identifier()
		r.IsRestricted[dimp] = true
		r.IsQualified[dimp] = false
		r.ElementSequence[pos] = dimp
	}

	r.finish(c)
	return r, nil
}

// ResolveByID implements the id-based area resolution of spec.md §4.2.
// Each IDElem names its cube position explicitly (qualified, DimID>=0)
// or via the unqualified encoding DimID'=-(DimID+1); there is no
// round-robin for the id form since a position is always explicit.
func ResolveByID(c cube.Cube, elems []IDElem) (*Resolved, error) {
	dims := c.Dimensions()
	n := len(dims)
	r := newResolved(n, len(elems))

	for i, d := range dims {
		r.DimensionIDs[i] = d.Identifier()
	}

	for pos, e := range elems {
		qualified := e.DimID >= 0
		dimp := e.DimID
		if !qualified {
			dimp = -(e.DimID + 1)
		}
		if dimp < 0 || dimp >= n {
			return nil, fmt.Errorf("dimension position %d out of range", dimp)
		}
		if e.ElemID < 0 {
			r.IsRestricted[dimp] = false
			r.ElementSequence[pos] = dimp
			continue
		}
		dim := dims[dimp]
		elm := dim.FindElement(cube.Identifier(e.ElemID))
		if elm == nil {
			return nil, fmt.Errorf("element id %d not found in dimension '%s'", e.ElemID, dim.Name())
		}
		r.ElementIDs[dimp] = elm.Identifier()
		r.IsRestricted[dimp] = true
		r.IsQualified[dimp] = qualified
		r.ElementSequence[pos] = dimp
	}

	r.finish(c)
	return r, nil
}
