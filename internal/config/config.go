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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	IgnoreFileName      string `yaml:"ignore_file_name,omitempty"`      // Extra ignore file, always respected
	RespectGitIgnore    bool   `yaml:"respect_git_ignore"`
	RespectGeminiIgnore bool   `yaml:"respect_gemini_ignore"`
	CacheEnabled        bool   `yaml:"cache_enabled"`                   // Persist parsed ignore files in sqlite
	CachePath           string `yaml:"cache_path,omitempty"`
	WatchDebounce       int    `yaml:"watch_debounce,omitempty"`        // Debounce time in ms
	MaxIgnoreFileSize   int64  `yaml:"max_ignore_file_size,omitempty"`  // Bytes
	LogLevel            string `yaml:"log_level,omitempty"`
}

const (
	dirName        = ".discover"
	configFileName = "config.yaml"
	cacheFileName  = "cache.db"
)

var (
	defaultConfig = Config{
		RespectGitIgnore:    true,
		RespectGeminiIgnore: true,
		CacheEnabled:        true,
		WatchDebounce:       100,
		MaxIgnoreFileSize:   1024 * 1024,
		LogLevel:            "warn",
	}
)

// Default returns a copy of the built-in defaults.
func Default() Config {
	return defaultConfig
}

type Manager struct {
	globalConfig  *Config
	projectConfig *Config
	mergedConfig  *Config
	globalPath    string
	projectPath   string
	homeDir       string
}

// NewManager returns a manager for ~/.discover/config.yaml and
// <projectRoot>/.discover/config.yaml.
func NewManager(projectRoot string) *Manager {
	home, err := homedir.Dir()
	if err != nil {
		home = "."
	}
	return NewManagerWithHome(home, projectRoot)
}

// NewManagerWithHome is NewManager with an explicit home directory.
func NewManagerWithHome(home, projectRoot string) *Manager {
	if projectRoot == "" {
		projectRoot = "."
	}
	return &Manager{
		globalPath:  filepath.Join(home, dirName, configFileName),
		projectPath: filepath.Join(projectRoot, dirName, configFileName),
		homeDir:     home,
	}
}

func (m *Manager) Load() error {
	m.globalConfig = nil
	m.projectConfig = nil

	// Load global config
	global := &Config{}
	if err := m.loadConfigFile(m.globalPath, global); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load global config: %w", err)
		}
	} else {
		if err := global.Validate(); err != nil {
			return fmt.Errorf("invalid global config: %w", err)
		}
		m.globalConfig = global
	}

	// Load project config
	project := &Config{}
	if err := m.loadConfigFile(m.projectPath, project); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load project config: %w", err)
		}
	} else {
		if err := project.Validate(); err != nil {
			return fmt.Errorf("invalid project config: %w", err)
		}
		m.projectConfig = project
	}

	// Merge configurations
	m.mergedConfig = m.mergeConfigs()

	// Apply environment variables (highest priority)
	if err := m.applyEnvironmentOverrides(); err != nil {
		return err
	}

	// Validate final merged config
	if err := m.mergedConfig.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func (m *Manager) loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Start with defaults
	*cfg = defaultConfig

	// Unmarshal YAML, overriding defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	return nil
}

func (m *Manager) mergeConfigs() *Config {
	merged := defaultConfig

	// Project settings override global ones. Files start from the defaults,
	// so booleans are copied as loaded.
	for _, cfg := range []*Config{m.globalConfig, m.projectConfig} {
		if cfg == nil {
			continue
		}
		if cfg.IgnoreFileName != "" {
			merged.IgnoreFileName = cfg.IgnoreFileName
		}
		merged.RespectGitIgnore = cfg.RespectGitIgnore
		merged.RespectGeminiIgnore = cfg.RespectGeminiIgnore
		merged.CacheEnabled = cfg.CacheEnabled
		if cfg.CachePath != "" {
			merged.CachePath = cfg.CachePath
		}
		if cfg.WatchDebounce != 0 {
			merged.WatchDebounce = cfg.WatchDebounce
		}
		if cfg.MaxIgnoreFileSize != 0 {
			merged.MaxIgnoreFileSize = cfg.MaxIgnoreFileSize
		}
		if cfg.LogLevel != "" {
			merged.LogLevel = cfg.LogLevel
		}
	}

	return &merged
}

func (m *Manager) applyEnvironmentOverrides() error {
	if name := os.Getenv("DISCOVER_IGNORE_FILE"); name != "" {
		m.mergedConfig.IgnoreFileName = name
	}
	if level := os.Getenv("DISCOVER_LOG_LEVEL"); level != "" {
		m.mergedConfig.LogLevel = level
	}
	if cache := os.Getenv("DISCOVER_CACHE"); cache != "" {
		enabled, err := strconv.ParseBool(cache)
		if err != nil {
			return fmt.Errorf("invalid DISCOVER_CACHE value '%s': %w", cache, err)
		}
		m.mergedConfig.CacheEnabled = enabled
	}
	return nil
}

func (m *Manager) Get() *Config {
	if m.mergedConfig == nil {
		cfg := defaultConfig
		m.mergedConfig = &cfg
	}
	return m.mergedConfig
}

// GetCachePath returns the configured cache database, ~/.discover/cache.db by default.
func (m *Manager) GetCachePath() string {
	cfg := m.Get()
	if cfg.CachePath != "" {
		if expanded, err := homedir.Expand(cfg.CachePath); err == nil {
			return expanded
		}
		return cfg.CachePath
	}
	return filepath.Join(m.homeDir, dirName, cacheFileName)
}

// GetWatchDebounce returns the debounce time for ignore-file watching in milliseconds
func (m *Manager) GetWatchDebounce() int {
	cfg := m.Get()
	if cfg.WatchDebounce == 0 {
		return defaultConfig.WatchDebounce
	}
	return cfg.WatchDebounce
}

func (m *Manager) GlobalPath() string {
	return m.globalPath
}

func (m *Manager) ProjectPath() string {
	return m.projectPath
}

func (m *Manager) SaveGlobal(cfg *Config) error {
	return saveConfig(m.globalPath, cfg)
}

func (m *Manager) SaveProject(cfg *Config) error {
	return saveConfig(m.projectPath, cfg)
}

func saveConfig(path string, cfg *Config) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// InitGlobalConfig writes the defaults to the global config file.
func (m *Manager) InitGlobalConfig() error {
	cfg := defaultConfig
	return m.SaveGlobal(&cfg)
}

func (m *Manager) GlobalConfigExists() bool {
	_, err := os.Stat(m.globalPath)
	return err == nil
}

func (m *Manager) ProjectConfigExists() bool {
	_, err := os.Stat(m.projectPath)
	return err == nil
}

// Set parses value for the dash-separated key (as used on the command line)
// and stores it in cfg after validation.
func Set(cfg *Config, key, value string) error {
	updated := *cfg

	switch key {
	case "ignore-file-name":
		updated.IgnoreFileName = value
	case "respect-git-ignore", "respect-gemini-ignore", "cache-enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s value: %s", key, value)
		}
		switch key {
		case "respect-git-ignore":
			updated.RespectGitIgnore = b
		case "respect-gemini-ignore":
			updated.RespectGeminiIgnore = b
		default:
			updated.CacheEnabled = b
		}
	case "cache-path":
		updated.CachePath = value
	case "watch-debounce":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid watch-debounce value: %s", value)
		}
		updated.WatchDebounce = n
	case "max-ignore-file-size":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid max-ignore-file-size value: %s", value)
		}
		updated.MaxIgnoreFileSize = n
	case "log-level":
		updated.LogLevel = value
	default:
		return fmt.Errorf("unknown config key: %s. Valid keys: %s", key, strings.Join(Keys, ", "))
	}

	if err := updated.Validate(); err != nil {
		return err
	}
	*cfg = updated
	return nil
}

// Keys lists the keys accepted by Set.
var Keys = []string{
	"ignore-file-name",
	"respect-git-ignore",
	"respect-gemini-ignore",
	"cache-enabled",
	"cache-path",
	"watch-debounce",
	"max-ignore-file-size",
	"log-level",
}

// Validation functions

// ValidateIgnoreFileName checks the custom ignore file name stays inside the project
func ValidateIgnoreFileName(name string) error {
	if name == "" {
		return nil // Empty is ok, no custom file
	}
	if filepath.IsAbs(name) {
		return fmt.Errorf("ignore_file_name must be relative to the project root, got: %s", name)
	}
	clean := filepath.ToSlash(filepath.Clean(name))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("ignore_file_name must name a file inside the project, got: %s", name)
	}
	return nil
}

// ValidateWatchDebounce checks if debounce time is valid
func ValidateWatchDebounce(debounce int) error {
	if debounce < 0 {
		return fmt.Errorf("watch_debounce cannot be negative, got: %d", debounce)
	}
	if debounce > 5000 {
		return fmt.Errorf("watch_debounce too high (max 5000ms), got: %d", debounce)
	}
	return nil
}

// ValidateMaxIgnoreFileSize checks the ignore file size limit
func ValidateMaxIgnoreFileSize(size int64) error {
	if size < 0 {
		return fmt.Errorf("max_ignore_file_size cannot be negative, got: %d", size)
	}
	if size > 64*1024*1024 {
		return fmt.Errorf("max_ignore_file_size too high (max 64MiB), got: %d", size)
	}
	return nil
}

// ValidateLogLevel checks the level is one logrus understands
func ValidateLogLevel(level string) error {
	if level == "" {
		return nil // Empty is ok, will use default
	}
	if _, err := logrus.ParseLevel(level); err != nil {
		return fmt.Errorf("invalid log_level '%s'. Valid levels are: trace, debug, info, warn, error, fatal, panic", level)
	}
	return nil
}

// Validate performs validation on the entire config
func (c *Config) Validate() error {
	if err := ValidateIgnoreFileName(c.IgnoreFileName); err != nil {
		return err
	}

	if err := ValidateWatchDebounce(c.WatchDebounce); err != nil {
		return err
	}

	if err := ValidateMaxIgnoreFileSize(c.MaxIgnoreFileSize); err != nil {
		return err
	}

	if err := ValidateLogLevel(c.LogLevel); err != nil {
		return err
	}

	return nil
}
