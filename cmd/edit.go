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
	"path/filepath"

	"github.com/antenore/discover/internal/editor"
	"github.com/antenore/discover/internal/ignore"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// editCmd represents the edit command
var editCmd = &cobra.Command{
	Use:   "edit [file[:line]]",
	Short: "Open an ignore file in your editor",
	Long: `Open an ignore file of the project in $EDITOR, creating it if needed.
Without an argument the custom ignore file is opened when one is configured,
.geminiignore otherwise. Relative names are taken from the project root.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := configManager.Get().IgnoreFileName
		if target == "" {
			target = ignore.DefaultIgnoreFileName
		}
		line := 0
		if len(args) == 1 {
			target, line = editor.ParseFileAndLine(args[0])
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(rootDir, target)
		}

		log := logrus.NewEntry(logger)
		ed, err := editor.FindEditor(log)
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{"editor": ed, "file": target}).Debug("opening ignore file")
		return editor.Open(cmd.Context(), ed, target, line, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
