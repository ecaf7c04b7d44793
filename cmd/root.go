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
	"os"
	"path/filepath"
	"time"

	"github.com/antenore/discover/internal/cache"
	"github.com/antenore/discover/internal/config"
	"github.com/antenore/discover/internal/discovery"
	"github.com/antenore/discover/internal/files"
	"github.com/antenore/discover/internal/gitutil"
	"github.com/antenore/discover/internal/ignore"
	"github.com/antenore/discover/internal/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	rootDir        string
	ignoreFile     string
	noGitIgnore    bool
	noGeminiIgnore bool
	noCache        bool
	verbose        bool
	quiet          bool

	// Set up by initConfig before any command runs
	configManager *config.Manager
	logger        *logrus.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "discover",
	Short: "Filter project paths through .gitignore and .geminiignore rules",
	Long: `discover decides which files of a project should be looked at by
indexing, search and context tools. It layers the repository's git ignore
rules, a .geminiignore file and an optional custom ignore file, and filters
candidate paths through them.

Paths are read from the command line or, when none are given, from stdin:

  git ls-files --cached --others | discover filter`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project root (default: enclosing git work tree, else the current directory)")
	rootCmd.PersistentFlags().StringVar(&ignoreFile, "ignore-file", "", "Extra ignore file, relative to the root (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&noGitIgnore, "no-git-ignore", false, "Do not apply .gitignore rules")
	rootCmd.PersistentFlags().BoolVar(&noGeminiIgnore, "no-gemini-ignore", false, "Do not apply .geminiignore rules")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Read ignore files without the pattern cache")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Quiet mode")
}

func initConfig(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(rootDir)
	if err != nil {
		return err
	}
	rootDir = root

	configManager = config.NewManager(rootDir)
	loadErr := configManager.Load()

	cfg := configManager.Get()

	// Command-line flags take precedence
	if ignoreFile != "" {
		if err := config.ValidateIgnoreFileName(ignoreFile); err != nil {
			return err
		}
		cfg.IgnoreFileName = ignoreFile
	}
	if noCache {
		cfg.CacheEnabled = false
	}

	level := cfg.LogLevel
	switch {
	case verbose:
		level = "debug"
	case quiet:
		level = "error"
	}
	logger, err = logging.New(level, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	if loadErr != nil {
		logger.WithError(loadErr).Warn("failed to load config, using defaults")
	}
	return nil
}

// resolveRoot picks the project root: the flag when given, otherwise the
// top of the enclosing git work tree, otherwise the working directory.
func resolveRoot(flag string) (string, error) {
	if flag != "" {
		abs, err := filepath.Abs(flag)
		if err != nil {
			return "", errors.Wrapf(err, "failed to resolve root %s", flag)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", errors.Wrapf(err, "invalid root %s", flag)
		}
		if !info.IsDir() {
			return "", errors.Errorf("root %s is not a directory", flag)
		}
		return abs, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "failed to get working directory")
	}
	if top, err := gitutil.FindRoot(wd); err == nil {
		return top, nil
	}
	return wd, nil
}

// filterOptions combines the config switches with the command-line flags.
func filterOptions() discovery.FilterOptions {
	cfg := configManager.Get()
	return discovery.FilterOptions{
		DisableGitIgnore:    noGitIgnore || !cfg.RespectGitIgnore,
		DisableGeminiIgnore: noGeminiIgnore || !cfg.RespectGeminiIgnore,
	}
}

// serviceOptions builds the discovery options for the current configuration.
// The returned cleanup closes the pattern cache, if one was opened.
func serviceOptions() (discovery.Options, func()) {
	cfg := configManager.Get()
	log := logrus.NewEntry(logger)

	fl := &files.Loader{MaxFileSize: cfg.MaxIgnoreFileSize}
	var loader ignore.Loader = fl
	cleanup := func() {}

	if cfg.CacheEnabled {
		store, err := cache.OpenStore(configManager.GetCachePath())
		if err != nil {
			log.WithError(err).Warn("pattern cache unavailable, keeping it in memory only")
		}
		cached := cache.NewLoader(fl, store, log)
		loader = cached
		cleanup = func() {
			stats := cached.Stats()
			log.WithFields(logrus.Fields{
				"memory_hits": stats.MemoryHits,
				"store_hits":  stats.StoreHits,
				"misses":      stats.Misses,
			}).Debug("pattern cache")
			if store != nil {
				store.Close()
			}
		}
	}

	return discovery.Options{
		ProjectRoot:    rootDir,
		IgnoreFileName: cfg.IgnoreFileName,
		Loader:         loader,
		Logger:         log,
	}, cleanup
}

// newService builds a discovery service for the current configuration.
func newService() (*discovery.Service, func(), error) {
	opts, cleanup := serviceOptions()
	svc, err := discovery.New(opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

func watchDebounce() time.Duration {
	return time.Duration(configManager.GetWatchDebounce()) * time.Millisecond
}
