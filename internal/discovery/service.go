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

// Package discovery decides which candidate paths of a project should be
// kept for indexing, search and context collection.
package discovery

import (
	"path/filepath"

	"github.com/antenore/discover/internal/gitutil"
	"github.com/antenore/discover/internal/ignore"
	"github.com/antenore/discover/internal/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options configures a Service.
type Options struct {
	ProjectRoot string
	// IgnoreFileName names an extra ignore file that is always respected.
	IgnoreFileName string
	// IsGitRepository decides whether version-control rules apply.
	// Defaults to gitutil.IsGitRepository.
	IsGitRepository func(root string) bool
	// Loader reads ignore files. Defaults to reading from disk.
	Loader ignore.Loader
	Logger *logrus.Entry
}

// FilterOptions selects which ignore sources a query honours. The zero value
// respects every source. The custom ignore file cannot be switched off.
type FilterOptions struct {
	DisableGitIgnore    bool
	DisableGeminiIgnore bool
}

// DefaultFilterOptions respects every ignore source.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{}
}

// RespectGitIgnore reports whether version-control rules apply.
func (o FilterOptions) RespectGitIgnore() bool {
	return !o.DisableGitIgnore
}

// RespectGeminiIgnore reports whether tool-specific rules apply.
func (o FilterOptions) RespectGeminiIgnore() bool {
	return !o.DisableGeminiIgnore
}

// FilterReport is the result of FilterFilesWithReport.
type FilterReport struct {
	FilteredPaths []string
	IgnoredCount  int
}

// Service holds the ignore filters of one project root. All filters are built
// from the ignore files as they are at construction time; a Service never
// refreshes, so pick up edits by building a new one (see Reloader).
// A Service is safe for concurrent use.
type Service struct {
	projectRoot string

	gitFilter      *ignore.SourceFilter
	geminiFilter   *ignore.SourceFilter
	customFilter   *ignore.SourceFilter
	combinedFilter *ignore.CombinedFilter
}

// New builds the filters for opts.ProjectRoot. Any failure reading an existing
// ignore file is returned; missing files are not errors.
func New(opts Options) (*Service, error) {
	root := opts.ProjectRoot
	if root == "" {
		root = "."
	}
	projectRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve project root %s", root)
	}

	isGitRepository := opts.IsGitRepository
	if isGitRepository == nil {
		isGitRepository = gitutil.IsGitRepository
	}
	log := logging.OrDiscard(opts.Logger).WithFields(logrus.Fields{
		"component": "discovery",
		"root":      projectRoot,
	})

	var loaderOpts []ignore.Option
	if opts.Loader != nil {
		loaderOpts = append(loaderOpts, ignore.WithLoader(opts.Loader))
	}

	s := &Service{projectRoot: projectRoot}

	if isGitRepository(projectRoot) {
		s.gitFilter, err = ignore.NewGitFilter(projectRoot, loaderOpts...)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build git ignore filter")
		}
	}

	s.geminiFilter, err = ignore.NewSourceFilter(projectRoot, ignore.DefaultIgnoreFileName, loaderOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build gemini ignore filter")
	}

	if opts.IgnoreFileName != "" {
		s.customFilter, err = ignore.NewSourceFilter(projectRoot, opts.IgnoreFileName, loaderOpts...)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build custom ignore filter")
		}
	}

	if s.gitFilter != nil {
		sources := []ignore.PatternSource{{
			Name:     s.geminiFilter.Name(),
			Patterns: s.geminiFilter.Patterns(),
		}}
		if s.customFilter != nil {
			sources = append(sources, ignore.PatternSource{
				Name:     s.customFilter.Name(),
				Patterns: s.customFilter.Patterns(),
			})
		}
		s.combinedFilter = ignore.NewCombinedFilter(s.gitFilter, sources...)
	}

	fields := logrus.Fields{
		"git":    s.gitFilter != nil,
		"gemini": len(s.geminiFilter.Rules()),
	}
	if s.customFilter != nil {
		fields["custom"] = len(s.customFilter.Rules())
	}
	if s.combinedFilter != nil {
		fields["combined"] = len(s.combinedFilter.Rules())
	}
	log.WithFields(fields).Debug("file discovery filters built")

	return s, nil
}

// ProjectRoot returns the absolute root all patterns are relative to.
func (s *Service) ProjectRoot() string {
	return s.projectRoot
}

// GitFilter returns the version-control filter, nil outside a repository.
func (s *Service) GitFilter() *ignore.SourceFilter {
	return s.gitFilter
}

// GeminiFilter returns the tool-specific filter.
func (s *Service) GeminiFilter() *ignore.SourceFilter {
	return s.geminiFilter
}

// CustomFilter returns the custom filter, nil when no name was configured.
func (s *Service) CustomFilter() *ignore.SourceFilter {
	return s.customFilter
}

// CombinedFilter returns the merged filter, nil outside a repository.
func (s *Service) CombinedFilter() *ignore.CombinedFilter {
	return s.combinedFilter
}

// FilterFiles returns the paths that are not ignored, in input order.
// Duplicates are kept.
func (s *Service) FilterFiles(paths []string, opts FilterOptions) []string {
	filtered := make([]string, 0, len(paths))
	for _, path := range paths {
		if !s.isIgnored(path, opts) {
			filtered = append(filtered, path)
		}
	}
	return filtered
}

// FilterFilesWithReport filters like FilterFiles and counts what was dropped.
func (s *Service) FilterFilesWithReport(paths []string, opts FilterOptions) FilterReport {
	filtered := s.FilterFiles(paths, opts)
	return FilterReport{
		FilteredPaths: filtered,
		IgnoredCount:  len(paths) - len(filtered),
	}
}

// ShouldIgnoreFile reports whether path would be dropped by FilterFiles.
func (s *Service) ShouldIgnoreFile(path string, opts FilterOptions) bool {
	return len(s.FilterFiles([]string{path}, opts)) == 0
}

// Explain returns the verdict of the rule that decides path under opts. When
// several filters are consulted the first one ignoring the path wins;
// otherwise the last applicable negation is reported. ok is false when no
// rule applies at all.
func (s *Service) Explain(path string, opts FilterOptions) (ignore.Verdict, bool) {
	var last ignore.Verdict
	found := false
	for _, f := range s.consulted(opts) {
		v, ok := f.Explain(path)
		if !ok {
			continue
		}
		if v.Ignored {
			return v, true
		}
		last, found = v, true
	}
	if !found {
		return ignore.Verdict{Path: path}, false
	}
	return last, true
}

// Rules lists the rules consulted under opts, in the order the filters are
// asked.
func (s *Service) Rules(opts FilterOptions) ignore.RuleSet {
	var rules ignore.RuleSet
	for _, f := range s.consulted(opts) {
		rules = rules.Append(f.Rules())
	}
	return rules
}

func (s *Service) isIgnored(path string, opts FilterOptions) bool {
	for _, f := range s.consulted(opts) {
		if f.IsIgnored(path) {
			return true
		}
	}
	return false
}

// consulted lists the filters checked for opts, in decision order. The merged
// filter replaces all others when both switches are on; otherwise each
// enabled source is asked separately and any "ignored" wins.
func (s *Service) consulted(opts FilterOptions) []ignore.Filter {
	if opts.RespectGitIgnore() && opts.RespectGeminiIgnore() && s.combinedFilter != nil {
		return []ignore.Filter{s.combinedFilter}
	}

	var filters []ignore.Filter
	if opts.RespectGitIgnore() && s.gitFilter != nil {
		filters = append(filters, s.gitFilter)
	}
	if opts.RespectGeminiIgnore() && s.geminiFilter != nil {
		filters = append(filters, s.geminiFilter)
	}
	if s.customFilter != nil {
		filters = append(filters, s.customFilter)
	}
	return filters
}
