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
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/cube/cubetest"
)

// addFixtureFlags registers the --fixture/--cube flags that every
// cube-bound subcommand (validate, render) shares.
func addFixtureFlags(cmd *cobra.Command) {
	cmd.Flags().String("fixture", "", "path to a cubetest YAML fixture")
	cmd.Flags().String("cube", "", "cube name within the fixture's database")
	cmd.MarkFlagRequired("fixture")
	cmd.MarkFlagRequired("cube")
}

// loadFixtureCube reads the --fixture/--cube flags and returns the
// named cube.Cube from the loaded fixture.
func loadFixtureCube(cmd *cobra.Command) (cube.Cube, error) {
	path, _ := cmd.Flags().GetString("fixture")
	cubeName, _ := cmd.Flags().GetString("cube")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	server, err := cubetest.Load(data)
	if err != nil {
		return nil, fmt.Errorf("loading fixture: %w", err)
	}

	db := server.SoleDatabase()
	if db == nil {
		return nil, fmt.Errorf("fixture %q has no database", path)
	}
	c := db.FindCubeByName(cubeName)
	if c == nil {
		return nil, fmt.Errorf("cube %q not found in fixture %q", cubeName, path)
	}
	return c, nil
}

// readSource reads rule/expression text from a file argument, or from
// stdin when args is empty or "-".
func readSource(args []string) (filename string, src []byte, err error) {
	if len(args) == 0 || args[0] == "-" {
		src, err = io.ReadAll(os.Stdin)
		return "stdin", src, err
	}
	src, err = os.ReadFile(args[0])
	return args[0], src, err
}
