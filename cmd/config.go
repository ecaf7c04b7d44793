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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antenore/discover/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configInitProject bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage discover configuration",
	Long:  `Initialize and manage discover configuration: ignore sources, cache and watch settings.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	Long: `Write the default settings to ~/.discover/config.yaml, or with --project to
.discover/config.yaml under the project root.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current merged configuration from all sources.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd.OutOrStdout())
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  `Set a configuration value. Valid keys: ` + strings.Join(config.Keys, ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitProject, "project", false, "Write the project config instead of the global one")

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigInit(in io.Reader, out io.Writer) error {
	path := configManager.GlobalPath()
	exists := configManager.GlobalConfigExists()
	if configInitProject {
		path = configManager.ProjectPath()
		exists = configManager.ProjectConfigExists()
	}

	// Check if config already exists
	if exists {
		fmt.Fprintf(out, "%s already exists. Overwrite? (y/N): ", path)
		response, _ := bufio.NewReader(in).ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(out, "Configuration unchanged.")
			return nil
		}
	}

	cfg := config.Default()
	save := configManager.SaveGlobal
	if configInitProject {
		save = configManager.SaveProject
	}
	if err := save(&cfg); err != nil {
		return errors.Wrap(err, "failed to save configuration")
	}

	fmt.Fprintf(out, "Configuration written to %s\n", path)
	return nil
}

func runConfigShow(out io.Writer) error {
	// Reload config to get latest
	if err := configManager.Load(); err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	cfg := configManager.Get()
	p := newPrinter(out)

	p.heading("Current Configuration")
	p.line("")

	// Show config sources
	if configManager.GlobalConfigExists() {
		p.line("Global config:  " + configManager.GlobalPath())
	}
	if configManager.ProjectConfigExists() {
		p.line("Project config: " + configManager.ProjectPath())
	}
	for _, env := range []string{"DISCOVER_IGNORE_FILE", "DISCOVER_LOG_LEVEL", "DISCOVER_CACHE"} {
		if os.Getenv(env) != "" {
			p.line("Environment:    " + env)
		}
	}
	p.line("Project root:   " + rootDir)
	p.line("Cache database: " + configManager.GetCachePath())
	p.line("")

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to render configuration")
	}
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigSet(out io.Writer, key, value string) error {
	// Load current config
	if err := configManager.Load(); err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	// Create a copy to modify
	newCfg := *configManager.Get()
	if err := config.Set(&newCfg, key, value); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s set to: %s\n", key, value)

	// Determine where to save
	if configManager.ProjectConfigExists() {
		if err := configManager.SaveProject(&newCfg); err != nil {
			return errors.Wrap(err, "failed to save project configuration")
		}
		fmt.Fprintf(out, "   Saved to project config: %s\n", configManager.ProjectPath())
	} else if configManager.GlobalConfigExists() {
		if err := configManager.SaveGlobal(&newCfg); err != nil {
			return errors.Wrap(err, "failed to save global configuration")
		}
		fmt.Fprintf(out, "   Saved to global config: %s\n", configManager.GlobalPath())
	} else {
		if err := configManager.SaveGlobal(&newCfg); err != nil {
			return errors.Wrap(err, "failed to save global configuration")
		}
		fmt.Fprintf(out, "   Created global config: %s\n", configManager.GlobalPath())
	}

	return nil
}
