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

// Package cmd implements rulectl's subcommands, following the
// teacher's cmd/cue/cmd layout: one newXCmd constructor per
// subcommand file, wired together in newRootCmd.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rulectl",
		Short:         "rulectl parses, validates and evaluates rule expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	for _, sub := range []*cobra.Command{
		newParseCmd(),
		newValidateCmd(),
		newRenderCmd(),
	} {
		root.AddCommand(sub)
	}

	return root
}

// Main runs rulectl and returns the process exit code.
func Main() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
