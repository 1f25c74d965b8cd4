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

	"github.com/jedox/rulecube/internal/builtin"
	"github.com/jedox/rulecube/parser"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "parse a rule in parse-only mode and print its rendered form",
		Long: `Parse checks syntax and validates calls against the full built-in
whitelist, without binding to a cube. Destinations, sources and
variables are accepted unresolved. Reads from stdin if file is omitted
or "-".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename, src, err := readSource(args)
			if err != nil {
				return err
			}
			xml, _ := cmd.Flags().GetBool("xml")

			d := parser.NewDriver(parser.WithWhitelist(builtin.Full().Names()...))
			rule, err := d.ParseRule(filename, src)
			if err != nil {
				return err
			}
			if xml {
				fmt.Print(rule.RenderXMLString(true))
			} else {
				fmt.Println(rule.RenderString())
			}
			return nil
		},
	}
	cmd.Flags().Bool("xml", false, "print the XML tree form instead of the single-line form")
	return cmd
}
