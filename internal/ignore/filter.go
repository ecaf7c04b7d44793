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

// Package ignore implements gitignore-style rule matching for flat path lists.
package ignore

import (
	"path/filepath"

	"github.com/antenore/discover/internal/files"
	"github.com/pkg/errors"
)

const (
	// DefaultIgnoreFileName is the tool-specific ignore file.
	DefaultIgnoreFileName = ".geminiignore"
	// GitIgnoreFileName is the version-control ignore file at the root.
	GitIgnoreFileName = ".gitignore"
	// GitExcludeFileName holds repository-local excludes.
	GitExcludeFileName = ".git/info/exclude"

	builtinSource = "builtin"
)

// Filter classifies paths against one or more ignore sources.
type Filter interface {
	IsIgnored(path string) bool
	Patterns() []string
	Rules() RuleSet
	Explain(path string) (Verdict, bool)
}

var (
	_ Filter = (*SourceFilter)(nil)
	_ Filter = (*CombinedFilter)(nil)
)

// Loader reads the raw lines of an ignore file. A missing file must yield no
// lines and a nil error.
type Loader interface {
	Load(root, name string) ([]string, error)
}

// Verdict describes the rule that decided a path.
type Verdict struct {
	Path    string
	Pattern string
	Source  string
	Ignored bool
}

type options struct {
	loader Loader
	extra  []string
	source string
}

// Option configures a SourceFilter.
type Option func(*options)

// WithLoader replaces the default disk loader.
func WithLoader(l Loader) Option {
	return func(o *options) {
		if l != nil {
			o.loader = l
		}
	}
}

// WithPatterns appends inline patterns after the file's own lines.
func WithPatterns(patterns ...string) Option {
	return func(o *options) {
		o.extra = append(o.extra, patterns...)
	}
}

// WithSourceName overrides the source name reported by Explain.
func WithSourceName(name string) Option {
	return func(o *options) {
		o.source = name
	}
}

func buildOptions(opts []Option) *options {
	o := &options{loader: files.NewLoader()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SourceFilter answers ignore queries for a single ignore source. It reads its
// files once, at construction, and never refreshes them.
type SourceFilter struct {
	root  string
	name  string
	rules RuleSet
}

// NewSourceFilter loads root/fileName and compiles its lines. An empty
// fileName selects DefaultIgnoreFileName. A missing file is not an error.
func NewSourceFilter(root, fileName string, opts ...Option) (*SourceFilter, error) {
	if fileName == "" {
		fileName = DefaultIgnoreFileName
	}
	o := buildOptions(opts)
	if o.source == "" {
		o.source = fileName
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve root %s", root)
	}

	lines, err := o.loader.Load(absRoot, fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", fileName)
	}

	rules := CompileRuleSet(o.source, lines).Append(CompileRuleSet(o.source, o.extra))
	return &SourceFilter{root: absRoot, name: fileName, rules: rules}, nil
}

// NewGitFilter builds the version-control filter: the .git directory itself,
// then .git/info/exclude, then the root .gitignore.
func NewGitFilter(root string, opts ...Option) (*SourceFilter, error) {
	o := buildOptions(opts)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve root %s", root)
	}

	rules := CompileRuleSet(builtinSource, []string{".git"})
	for _, name := range []string{GitExcludeFileName, GitIgnoreFileName} {
		lines, err := o.loader.Load(absRoot, name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", name)
		}
		rules = rules.Append(CompileRuleSet(name, lines))
	}

	source := o.source
	if source == "" {
		source = GitIgnoreFileName
	}
	rules = rules.Append(CompileRuleSet(source, o.extra))

	return &SourceFilter{root: absRoot, name: GitIgnoreFileName, rules: rules}, nil
}

// NewSourceFilterFromLines builds a filter from in-memory lines.
func NewSourceFilterFromLines(root, source string, lines []string) *SourceFilter {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = filepath.Clean(root)
	}
	return &SourceFilter{root: absRoot, name: source, rules: CompileRuleSet(source, lines)}
}

// Root returns the absolute directory patterns are relative to.
func (f *SourceFilter) Root() string {
	return f.root
}

// Name returns the ignore file name the filter was built from.
func (f *SourceFilter) Name() string {
	return f.name
}

// Rules returns the compiled rules in evaluation order.
func (f *SourceFilter) Rules() RuleSet {
	return f.rules
}

// Patterns returns the raw non-comment, non-blank lines in file order,
// followed by any inline patterns.
func (f *SourceFilter) Patterns() []string {
	return f.rules.Patterns()
}

// IsIgnored reports whether path is ignored. Paths outside the root are never
// ignored.
func (f *SourceFilter) IsIgnored(path string) bool {
	return isIgnored(f.root, f.rules, path)
}

// Explain returns the rule deciding path, if any rule applies.
func (f *SourceFilter) Explain(path string) (Verdict, bool) {
	return explain(f.root, f.rules, path)
}

// PatternSource is a named list of raw patterns layered onto a base filter.
type PatternSource struct {
	Name     string
	Patterns []string
}

// CombinedFilter evaluates a base filter's rules followed by any number of
// supplementary sources as one last-match-wins list, so a negation in a later
// source can re-include a path excluded by an earlier one and the reverse.
type CombinedFilter struct {
	root    string
	sources []PatternSource
	rules   RuleSet
}

// NewCombinedFilter appends sources, in order, after base's rules.
func NewCombinedFilter(base *SourceFilter, sources ...PatternSource) *CombinedFilter {
	rules := base.rules
	for _, src := range sources {
		rules = rules.Append(CompileRuleSet(src.Name, src.Patterns))
	}
	return &CombinedFilter{
		root:    base.root,
		sources: append([]PatternSource(nil), sources...),
		rules:   rules,
	}
}

// Root returns the base filter's root.
func (c *CombinedFilter) Root() string {
	return c.root
}

// Sources returns the supplementary sources in layering order.
func (c *CombinedFilter) Sources() []PatternSource {
	return c.sources
}

// Rules returns the merged rules in evaluation order.
func (c *CombinedFilter) Rules() RuleSet {
	return c.rules
}

func (c *CombinedFilter) Patterns() []string {
	return c.rules.Patterns()
}

func (c *CombinedFilter) IsIgnored(path string) bool {
	return isIgnored(c.root, c.rules, path)
}

func (c *CombinedFilter) Explain(path string) (Verdict, bool) {
	return explain(c.root, c.rules, path)
}

func isIgnored(root string, rules RuleSet, path string) bool {
	if len(rules) == 0 {
		return false
	}
	segs, isDir, ok := relativeSegments(root, path)
	if !ok {
		return false
	}
	return rules.Ignored(segs, isDir)
}

func explain(root string, rules RuleSet, path string) (Verdict, bool) {
	segs, isDir, ok := relativeSegments(root, path)
	if !ok {
		return Verdict{Path: path}, false
	}
	r, ok := rules.Match(segs, isDir)
	if !ok {
		return Verdict{Path: path}, false
	}
	return Verdict{
		Path:    path,
		Pattern: r.Raw,
		Source:  r.Source,
		Ignored: !r.Negate,
	}, true
}
