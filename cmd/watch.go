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
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/antenore/discover/internal/discovery"
	"github.com/spf13/cobra"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Re-filter paths whenever an ignore file changes",
	Long: `Print the kept paths, then watch .gitignore, .git/info/exclude,
.geminiignore and the custom ignore file, printing the kept paths again
after every change. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := readPaths(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		opts, cleanup := serviceOptions()
		defer cleanup()

		reloader, err := discovery.NewReloader(opts, watchDebounce())
		if err != nil {
			return err
		}
		defer reloader.Stop()

		p := newPrinter(cmd.OutOrStdout())
		var mu sync.Mutex
		show := func(svc *discovery.Service, changed bool) error {
			kept, ignored, err := filterPaths(svc, paths, filterOptions())
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if changed && !quiet {
				p.heading("# ignore rules changed")
			}
			for _, path := range kept {
				p.line(path)
			}
			if !quiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d paths ignored\n", ignored, len(paths))
			}
			return nil
		}

		if err := show(reloader.Service(), false); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		started, err := reloader.Start(ctx, func(svc *discovery.Service, err error) {
			if err != nil {
				logger.WithError(err).Error("ignore files could not be reloaded, keeping previous rules")
				return
			}
			if err := show(svc, true); err != nil {
				logger.WithError(err).Error("failed to filter paths")
			}
		})
		if err != nil {
			return err
		}
		if !started {
			logger.Warn("file watching is not supported on this platform")
			return nil
		}

		logger.WithField("files", reloader.IgnoreFiles()).Info("watching ignore files")
		<-ctx.Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
