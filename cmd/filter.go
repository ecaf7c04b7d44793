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

var filterReport bool

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter [paths...]",
	Short: "Print the paths that are not ignored",
	Long: `Filter candidate paths through the project's ignore rules and print the
ones that are kept, one per line, in input order. Paths come from the
arguments or, when there are none, from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := readPaths(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		svc, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()

		kept, ignored, err := filterPaths(svc, paths, filterOptions())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, p := range kept {
			fmt.Fprintln(out, p)
		}
		if filterReport && !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d paths ignored\n", ignored, len(paths))
		}
		return nil
	},
}

func init() {
	filterCmd.Flags().BoolVar(&filterReport, "report", false, "Print how many paths were ignored to stderr")
	rootCmd.AddCommand(filterCmd)
}
