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
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var checkFail bool

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <path>...",
	Short: "Show whether each path is ignored",
	Args:  cobra.MinimumNArgs(1),
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
		ignored := 0
		for i, path := range resolved {
			isIgnored := svc.ShouldIgnoreFile(path, opts)
			if isIgnored {
				ignored++
			}
			if !quiet {
				p.verdict(args[i], isIgnored)
			}
		}

		if checkFail && ignored > 0 {
			return errors.Errorf("%d of %d paths ignored", ignored, len(args))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkFail, "fail", false, "Exit with an error if any path is ignored")
	rootCmd.AddCommand(checkCmd)
}
