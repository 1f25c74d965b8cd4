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

// Package cubetest is an in-memory fake of the cube package's
// collaborator interfaces (spec.md §6), loadable from a YAML fixture
// the way the teacher's test harness loads txtar fixtures: one file
// per scenario, human-editable, diffable in review.
package cubetest

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jedox/rulecube/cube"
)

// Element is the in-memory cube.Element implementation.
type Element struct {
	id   cube.Identifier
	name string
	typ  cube.ElementType
}

func (e *Element) Identifier() cube.Identifier { return e.id }
func (e *Element) Name() string                { return e.name }
func (e *Element) Type() cube.ElementType      { return e.typ }

// Dimension is the in-memory cube.Dimension implementation. Elements
// may form a consolidation hierarchy via ElementSpec.Children; Ancestors
// and BaseElements walk that hierarchy.
type Dimension struct {
	name     string
	id       cube.Identifier
	elements []*Element
	byID     map[cube.Identifier]*Element
	byName   map[string]*Element
	children map[cube.Identifier][]cube.Identifier
	parents  map[cube.Identifier][]cube.Identifier
}

func (d *Dimension) Name() string                 { return d.name }
func (d *Dimension) Identifier() cube.Identifier   { return d.id }
func (d *Dimension) Elements() []cube.Element {
	out := make([]cube.Element, len(d.elements))
	for i, e := range d.elements {
		out[i] = e
	}
	return out
}

func (d *Dimension) FindElement(id cube.Identifier) cube.Element {
	if e, ok := d.byID[id]; ok {
		return e
	}
	return nil
}

func (d *Dimension) FindElementByName(name string) cube.Element {
	if e, ok := d.byName[name]; ok {
		return e
	}
	return nil
}

func (d *Dimension) MaximalIdentifier() cube.Identifier {
	var max cube.Identifier
	for _, e := range d.elements {
		if e.id > max {
			max = e.id
		}
	}
	return max
}

// BaseElements returns elem's non-consolidated descendants, or {elem}
// if it is itself a base element.
func (d *Dimension) BaseElements(elem cube.Element) []cube.Element {
	e, ok := elem.(*Element)
	if !ok {
		return nil
	}
	if e.typ != cube.Consolidated {
		return []cube.Element{e}
	}
	var out []cube.Element
	seen := map[cube.Identifier]bool{}
	var walk func(id cube.Identifier)
	walk = func(id cube.Identifier) {
		if seen[id] {
			return
		}
		seen[id] = true
		child, ok := d.byID[id]
		if !ok {
			return
		}
		if child.typ != cube.Consolidated {
			out = append(out, child)
			return
		}
		for _, cid := range d.children[id] {
			walk(cid)
		}
	}
	for _, cid := range d.children[e.id] {
		walk(cid)
	}
	return out
}

// Ancestors returns elem and every consolidated element that contains
// it, transitively (spec.md §3, used by markers' ancestor closure).
func (d *Dimension) Ancestors(elem cube.Element) []cube.Element {
	e, ok := elem.(*Element)
	if !ok {
		return nil
	}
	out := []cube.Element{e}
	seen := map[cube.Identifier]bool{e.id: true}
	queue := []cube.Identifier{e.id}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, pid := range d.parents[id] {
			if seen[pid] {
				continue
			}
			seen[pid] = true
			if p, ok := d.byID[pid]; ok {
				out = append(out, p)
			}
			queue = append(queue, pid)
		}
	}
	return out
}

// Cube is the in-memory cube.Cube implementation: a sparse map of
// CellPath to CellValueType, plus marker registration bookkeeping
// mirroring MarkerStorage's add/remove calls.
type Cube struct {
	name     string
	token    uint64
	dims     []cube.Dimension
	db       *Database
	cells    map[string]cube.CellValueType

	fromMarkers []any
	toMarkers   []any
}

func (c *Cube) Name() string              { return c.name }
func (c *Cube) Token() uint64              { return c.token }
func (c *Cube) Dimensions() []cube.Dimension { return c.dims }
func (c *Cube) Database() cube.Database    { return c.db }

func pathKey(path cube.CellPath) string {
	var b strings.Builder
	for i, id := range path.Coordinates {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}

func (c *Cube) GetCellValue(path cube.CellPath, user any, history cube.History) (cube.CellValueType, error) {
	if v, ok := c.cells[pathKey(path)]; ok {
		v.Found = true
		return v, nil
	}
	return cube.CellValueType{}, nil
}

// SetCellValue installs a base value for path, for use by tests
// constructing a fixture's stored (non-rule) data.
func (c *Cube) SetCellValue(path cube.CellPath, v cube.CellValueType) {
	if c.cells == nil {
		c.cells = map[string]cube.CellValueType{}
	}
	v.Found = true
	c.cells[pathKey(path)] = v
}

func (c *Cube) AddFromMarker(m any)    { c.fromMarkers = append(c.fromMarkers, m) }
func (c *Cube) RemoveFromMarker(m any) { c.fromMarkers = removeMarker(c.fromMarkers, m) }
func (c *Cube) AddToMarker(m any)      { c.toMarkers = append(c.toMarkers, m) }
func (c *Cube) RemoveToMarker(m any)   { c.toMarkers = removeMarker(c.toMarkers, m) }

// FromMarkers returns every marker currently registered as depending
// on this cube (test introspection).
func (c *Cube) FromMarkers() []any { return c.fromMarkers }

// ToMarkers returns every marker currently registered as targeting
// this cube (test introspection).
func (c *Cube) ToMarkers() []any { return c.toMarkers }

func removeMarker(list []any, m any) []any {
	out := list[:0]
	for _, x := range list {
		if x != m {
			out = append(out, x)
		}
	}
	return out
}

// Database is the in-memory cube.Database implementation.
type Database struct {
	name   string
	dims   map[string]*Dimension
	cubes  map[string]*Cube
	server *Server
}

func (db *Database) Name() string { return db.name }

func (db *Database) FindDimensionByName(name string) cube.Dimension {
	if d, ok := db.dims[name]; ok {
		return d
	}
	return nil
}

func (db *Database) FindCubeByName(name string) cube.Cube {
	if c, ok := db.cubes[name]; ok {
		return c
	}
	return nil
}

func (db *Database) Server() cube.Server { return db.server }

// Server is the in-memory cube.Server implementation.
type Server struct {
	databases map[string]*Database
}

func (s *Server) FindDatabaseByName(name string) cube.Database {
	if db, ok := s.databases[name]; ok {
		return db
	}
	return nil
}

// Cube looks up a cube by database and cube name, for test setup code
// that needs a concrete *Cube rather than the cube.Cube interface.
func (s *Server) Cube(database, name string) *Cube {
	db, ok := s.databases[database]
	if !ok {
		return nil
	}
	return db.cubes[name]
}

// SoleDatabase returns the fixture's one Database. Load always builds
// exactly one (a fixture describes a single database), so callers that
// only know the cube name — not the database name — can reach it
// directly.
func (s *Server) SoleDatabase() *Database {
	for _, db := range s.databases {
		return db
	}
	return nil
}

// ---- YAML fixture loading ----

// Fixture is the top-level shape of a cubetest YAML file (spec.md §8
// end-to-end scenarios load their cube this way).
type Fixture struct {
	Database   string               `yaml:"database"`
	Dimensions []DimensionSpec      `yaml:"dimensions"`
	Cubes      []CubeSpec           `yaml:"cubes"`
}

// DimensionSpec describes one dimension and its elements.
type DimensionSpec struct {
	Name     string        `yaml:"name"`
	Elements []ElementSpec `yaml:"elements"`
}

// ElementSpec describes one element; Type is "numeric" (default),
// "string", or "consolidated". Children names other elements in the
// same dimension this one consolidates.
type ElementSpec struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Children []string `yaml:"children"`
}

// CubeSpec describes one cube: its ordered dimension list and any
// pre-populated base cells.
type CubeSpec struct {
	Name       string     `yaml:"name"`
	Dimensions []string   `yaml:"dimensions"`
	Cells      []CellSpec `yaml:"cells"`
}

// CellSpec pre-populates one base cell by element name path.
type CellSpec struct {
	Path   []string `yaml:"path"`
	Double *float64 `yaml:"double"`
	String *string  `yaml:"string"`
}

// Load parses a YAML fixture into a fully-wired Server with one
// Database holding every dimension and cube the fixture describes.
func Load(data []byte) (*Server, error) {
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("cubetest: %w", err)
	}

	db := &Database{name: fx.Database, dims: map[string]*Dimension{}, cubes: map[string]*Cube{}}
	server := &Server{databases: map[string]*Database{fx.Database: db}}
	db.server = server

	for dimIdx, ds := range fx.Dimensions {
		dim := &Dimension{
			name:     ds.Name,
			id:       cube.Identifier(dimIdx),
			byID:     map[cube.Identifier]*Element{},
			byName:   map[string]*Element{},
			children: map[cube.Identifier][]cube.Identifier{},
			parents:  map[cube.Identifier][]cube.Identifier{},
		}
		for i, es := range ds.Elements {
			var typ cube.ElementType
			switch es.Type {
			case "string":
				typ = cube.String
			case "consolidated":
				typ = cube.Consolidated
			default:
				typ = cube.Numeric
			}
			e := &Element{id: cube.Identifier(i), name: es.Name, typ: typ}
			dim.elements = append(dim.elements, e)
			dim.byID[e.id] = e
			dim.byName[e.name] = e
		}
		for _, es := range ds.Elements {
			parent := dim.byName[es.Name]
			for _, childName := range es.Children {
				child, ok := dim.byName[childName]
				if !ok {
					return nil, fmt.Errorf("cubetest: dimension %q: unknown child %q of %q", ds.Name, childName, es.Name)
				}
				dim.children[parent.id] = append(dim.children[parent.id], child.id)
				dim.parents[child.id] = append(dim.parents[child.id], parent.id)
			}
		}
		db.dims[ds.Name] = dim
	}

	for _, cs := range fx.Cubes {
		c := &Cube{name: cs.Name, db: db, cells: map[string]cube.CellValueType{}}
		for _, dname := range cs.Dimensions {
			dim, ok := db.dims[dname]
			if !ok {
				return nil, fmt.Errorf("cubetest: cube %q: unknown dimension %q", cs.Name, dname)
			}
			c.dims = append(c.dims, dim)
		}
		for _, cell := range cs.Cells {
			path, err := resolvePath(c.dims, cell.Path)
			if err != nil {
				return nil, fmt.Errorf("cubetest: cube %q: %w", cs.Name, err)
			}
			switch {
			case cell.Double != nil:
				c.SetCellValue(path, cube.CellValueType{Type: cube.Numeric, Double: *cell.Double})
			case cell.String != nil:
				c.SetCellValue(path, cube.CellValueType{Type: cube.String, Str: *cell.String})
			}
		}
		db.cubes[cs.Name] = c
	}

	return server, nil
}

func resolvePath(dims []cube.Dimension, names []string) (cube.CellPath, error) {
	if len(names) != len(dims) {
		return cube.CellPath{}, fmt.Errorf("path length %d does not match %d dimensions", len(names), len(dims))
	}
	coords := make([]cube.Identifier, len(names))
	for i, name := range names {
		e := dims[i].FindElementByName(name)
		if e == nil {
			return cube.CellPath{}, fmt.Errorf("unknown element %q in dimension %q", name, dims[i].Name())
		}
		coords[i] = e.Identifier()
	}
	return cube.CellPath{Coordinates: coords}, nil
}
