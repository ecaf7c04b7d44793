// Copyright 2025 Antenore Gatta
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
)

// patternsCmd represents the patterns command
var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "List the effective ignore patterns",
	Long: `List every pattern consulted with the current flags, in evaluation order,
with the ignore source each one came from.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()

		p := newPrinter(cmd.OutOrStdout())
		if !quiet {
			p.heading(fmt.Sprintf("Project root: %s", svc.ProjectRoot()))
		}

		rules := svc.Rules(filterOptions())
		if len(rules) == 0 {
			if !quiet {
				p.line("No ignore patterns.")
			}
			return nil
		}
		for _, r := range rules {
			p.rule(r)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(patternsCmd)
}
