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

	"github.com/spf13/cobra"

	"github.com/jedox/rulecube/parser"
	"github.com/jedox/rulecube/rule"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "validate a rule against a fixture cube and report optimizer state",
		Long: `Validate parses and fully validates a rule against the named fixture
cube, registers it, and reports whether the optimizer found a STET
restriction or recognized it as linear. Reads from stdin if file is
omitted or "-".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadFixtureCube(cmd)
			if err != nil {
				return err
			}
			filename, src, err := readSource(args)
			if err != nil {
				return err
			}

			d := parser.NewDriver(parser.WithCube(c))
			expr, err := d.ParseRule(filename, src)
			if err != nil {
				return err
			}

			r, err := rule.New(1, c, expr)
			if err != nil {
				return err
			}
			defer r.Remove()

			fmt.Println("ok")
			fmt.Printf("restricted: %v\n", r.IsRestrictedRule())
			fmt.Printf("linear: %v\n", r.IsLinearRule())
			return nil
		},
	}
	addFixtureFlags(cmd)
	return cmd
}
