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
	"github.com/spf13/cobra"
)

// explainCmd represents the explain command
var explainCmd = &cobra.Command{
	Use:   "explain <path>...",
	Short: "Show the rule that decides each path",
	Long: `For each path, print whether it is ignored together with the pattern that
decided it and the ignore source the pattern came from. A path no rule
applies to is kept.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := newService()
		if err != nil {
			return err
		}
		defer cleanup()

		resolved, err := rootPaths(svc.ProjectRoot(), args)
		if err != nil {
			return err
		}

		opts := filterOptions()
		p := newPrinter(cmd.OutOrStdout())
		for i, path := range resolved {
			v, ok := svc.Explain(path, opts)
			p.explanation(args[i], v, ok)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}
