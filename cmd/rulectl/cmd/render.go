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

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/internal/eval"
	"github.com/jedox/rulecube/parser"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [expr-file]",
		Short: "evaluate a standalone expression against a cell path",
		Long: `Render parses and validates an expression (not a full rule) against
the named fixture cube, evaluates it at --path (one element name per
cube dimension, comma-separated), and prints the result. Reads from
stdin if expr-file is omitted or "-".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadFixtureCube(cmd)
			if err != nil {
				return err
			}
			pathFlag, _ := cmd.Flags().GetString("path")
			path, err := resolvePathFlag(c, pathFlag)
			if err != nil {
				return err
			}

			filename, src, err := readSource(args)
			if err != nil {
				return err
			}

			d := parser.NewDriver(parser.WithCube(c))
			expr, err := d.ParseExpr(filename, src)
			if err != nil {
				return err
			}

			ctx := &eval.Context{Cube: c}
			result := expr.Eval(ctx, path)
			fmt.Println(renderValue(result))
			return nil
		},
	}
	addFixtureFlags(cmd)
	cmd.Flags().String("path", "", "comma-separated element name per cube dimension")
	cmd.MarkFlagRequired("path")
	return cmd
}

func resolvePathFlag(c cube.Cube, flag string) (cube.CellPath, error) {
	dims := c.Dimensions()
	names := strings.Split(flag, ",")
	if len(names) != len(dims) {
		return cube.CellPath{}, fmt.Errorf("--path has %d entries, cube has %d dimensions", len(names), len(dims))
	}
	coords := make([]cube.Identifier, len(names))
	for i, name := range names {
		e := dims[i].FindElementByName(strings.TrimSpace(name))
		if e == nil {
			return cube.CellPath{}, fmt.Errorf("dimension %q has no element %q", dims[i].Name(), name)
		}
		coords[i] = e.Identifier()
	}
	return cube.CellPath{Coordinates: coords}, nil
}

func renderValue(v eval.Value) string {
	switch v.Type {
	case eval.Numeric:
		return v.Decimal.Text('f')
	case eval.String:
		return v.String0()
	case eval.Stet:
		return "STET"
	case eval.Continue:
		return "CONTINUE"
	default:
		return ""
	}
}
