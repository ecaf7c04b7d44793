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

package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/antenore/discover/internal/ignore"
	"github.com/go-git/go-git/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	fullPath := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0644))
}

func alwaysGit(string) bool { return true }
func neverGit(string) bool  { return false }

// newProject lays out a root with all three ignore sources.
func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*.log\nnode_modules/\n")
	writeFile(t, root, ".geminiignore", "secrets/\n!keep.log\n")
	writeFile(t, root, ".aiignore", "private.txt\n")
	return root
}

var candidates = []string{
	"src/main.go",
	"a.log",
	"keep.log",
	"node_modules/pkg/index.js",
	"secrets/key.pem",
	"private.txt",
	".git/config",
}

func TestNew(t *testing.T) {
	t.Run("git repository builds every filter", func(t *testing.T) {
		root := newProject(t)
		svc, err := New(Options{ProjectRoot: root, IgnoreFileName: ".aiignore", IsGitRepository: alwaysGit})
		require.NoError(t, err)

		assert.Equal(t, root, svc.ProjectRoot())
		require.NotNil(t, svc.GitFilter())
		require.NotNil(t, svc.GeminiFilter())
		require.NotNil(t, svc.CustomFilter())
		require.NotNil(t, svc.CombinedFilter())

		want := []string{".git", "*.log", "node_modules/", "secrets/", "!keep.log", "private.txt"}
		if diff := cmp.Diff(want, svc.CombinedFilter().Patterns()); diff != "" {
			t.Errorf("combined patterns mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("outside a repository", func(t *testing.T) {
		root := newProject(t)
		svc, err := New(Options{ProjectRoot: root, IsGitRepository: neverGit})
		require.NoError(t, err)

		assert.Nil(t, svc.GitFilter())
		assert.Nil(t, svc.CombinedFilter())
		assert.Nil(t, svc.CustomFilter())
		assert.NotNil(t, svc.GeminiFilter())
	})

	t.Run("relative root is made absolute", func(t *testing.T) {
		svc, err := New(Options{ProjectRoot: ".", IsGitRepository: neverGit})
		require.NoError(t, err)

		wd, err := os.Getwd()
		require.NoError(t, err)
		assert.Equal(t, wd, svc.ProjectRoot())
	})

	t.Run("unreadable ignore file", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".geminiignore"), 0755))

		_, err := New(Options{ProjectRoot: root, IsGitRepository: neverGit})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gemini ignore filter")
	})

	t.Run("loader errors are returned", func(t *testing.T) {
		_, err := New(Options{
			ProjectRoot:     t.TempDir(),
			IsGitRepository: alwaysGit,
			Loader:          errLoader{},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "git ignore filter")
	})

	t.Run("injected loader", func(t *testing.T) {
		svc, err := New(Options{
			ProjectRoot:     t.TempDir(),
			IsGitRepository: alwaysGit,
			Loader: mapLoader{
				".gitignore":    {"dist/"},
				".geminiignore": {"*.snap"},
			},
		})
		require.NoError(t, err)

		assert.True(t, svc.ShouldIgnoreFile("dist/bundle.js", FilterOptions{}))
		assert.True(t, svc.ShouldIgnoreFile("ui/__snapshots__/a.snap", FilterOptions{}))
		assert.False(t, svc.ShouldIgnoreFile("ui/app.tsx", FilterOptions{}))
	})
}

type mapLoader map[string][]string

func (m mapLoader) Load(root, name string) ([]string, error) {
	return m[name], nil
}

type errLoader struct{}

func (errLoader) Load(root, name string) ([]string, error) {
	return nil, errors.New("disk on fire")
}

func TestFilterFiles(t *testing.T) {
	tests := []struct {
		name   string
		isGit  func(string) bool
		custom string
		opts   FilterOptions
		want   []string
	}{
		{
			name:   "all sources merged",
			isGit:  alwaysGit,
			custom: ".aiignore",
			want:   []string{"src/main.go", "keep.log"},
		},
		{
			name:   "gemini disabled",
			isGit:  alwaysGit,
			custom: ".aiignore",
			opts:   FilterOptions{DisableGeminiIgnore: true},
			want:   []string{"src/main.go", "secrets/key.pem"},
		},
		{
			name:   "git disabled",
			isGit:  alwaysGit,
			custom: ".aiignore",
			opts:   FilterOptions{DisableGitIgnore: true},
			want:   []string{"src/main.go", "a.log", "keep.log", "node_modules/pkg/index.js", ".git/config"},
		},
		{
			name:   "custom file is always respected",
			isGit:  alwaysGit,
			custom: ".aiignore",
			opts:   FilterOptions{DisableGitIgnore: true, DisableGeminiIgnore: true},
			want:   []string{"src/main.go", "a.log", "keep.log", "node_modules/pkg/index.js", "secrets/key.pem", ".git/config"},
		},
		{
			name:  "not a repository",
			isGit: neverGit,
			want:  []string{"src/main.go", "a.log", "keep.log", "node_modules/pkg/index.js", "private.txt", ".git/config"},
		},
		{
			name:  "nothing respected",
			isGit: neverGit,
			opts:  FilterOptions{DisableGitIgnore: true, DisableGeminiIgnore: true},
			want:  candidates,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newProject(t)
			svc, err := New(Options{ProjectRoot: root, IgnoreFileName: tt.custom, IsGitRepository: tt.isGit})
			require.NoError(t, err)

			got := svc.FilterFiles(candidates, tt.opts)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterFiles mismatch (-want +got):\n%s", diff)
			}

			// Filtering is idempotent
			again := svc.FilterFiles(got, tt.opts)
			if diff := cmp.Diff(got, again); diff != "" {
				t.Errorf("second pass changed result (-first +second):\n%s", diff)
			}

			for _, path := range candidates {
				kept := false
				for _, g := range got {
					kept = kept || g == path
				}
				assert.Equal(t, !kept, svc.ShouldIgnoreFile(path, tt.opts), path)
			}
		})
	}
}

func TestFilterFilesOrderAndDuplicates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".geminiignore", "*.tmp\n")

	svc, err := New(Options{ProjectRoot: root, IsGitRepository: neverGit})
	require.NoError(t, err)

	got := svc.FilterFiles([]string{"b.go", "x.tmp", "a.go", "b.go"}, FilterOptions{})
	assert.Equal(t, []string{"b.go", "a.go", "b.go"}, got)

	empty := svc.FilterFiles(nil, FilterOptions{})
	if diff := cmp.Diff([]string{}, empty, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("empty input mismatch:\n%s", diff)
	}
}

func TestFilterFilesWithReport(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*.log\n")

	svc, err := New(Options{ProjectRoot: root, IsGitRepository: alwaysGit})
	require.NoError(t, err)

	report := svc.FilterFilesWithReport([]string{"a.log", "b.ts"}, FilterOptions{})
	want := FilterReport{FilteredPaths: []string{"b.ts"}, IgnoredCount: 1}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	paths := []string{"a.log", "b.log", "c.go"}
	report = svc.FilterFilesWithReport(paths, FilterOptions{})
	assert.Equal(t, len(paths), len(report.FilteredPaths)+report.IgnoredCount)
}

func TestAbsolutePaths(t *testing.T) {
	root := newProject(t)
	svc, err := New(Options{ProjectRoot: root, IsGitRepository: alwaysGit})
	require.NoError(t, err)

	assert.True(t, svc.ShouldIgnoreFile(filepath.Join(root, "debug.log"), FilterOptions{}))
	assert.False(t, svc.ShouldIgnoreFile(filepath.Join(root, "src", "main.go"), FilterOptions{}))
	assert.False(t, svc.ShouldIgnoreFile("/elsewhere/debug.log", FilterOptions{}))
}

func TestExplain(t *testing.T) {
	root := newProject(t)
	svc, err := New(Options{ProjectRoot: root, IgnoreFileName: ".aiignore", IsGitRepository: alwaysGit})
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		opts   FilterOptions
		want   ignore.Verdict
		wantOK bool
	}{
		{
			name:   "ignored by gitignore",
			path:   "a.log",
			want:   ignore.Verdict{Path: "a.log", Pattern: "*.log", Source: ".gitignore", Ignored: true},
			wantOK: true,
		},
		{
			name:   "re-included by geminiignore",
			path:   "keep.log",
			want:   ignore.Verdict{Path: "keep.log", Pattern: "!keep.log", Source: ".geminiignore"},
			wantOK: true,
		},
		{
			name:   "git directory",
			path:   ".git/HEAD",
			want:   ignore.Verdict{Path: ".git/HEAD", Pattern: ".git", Source: "builtin", Ignored: true},
			wantOK: true,
		},
		{
			name:   "separate filters, git wins",
			path:   "keep.log",
			opts:   FilterOptions{DisableGeminiIgnore: true},
			want:   ignore.Verdict{Path: "keep.log", Pattern: "*.log", Source: ".gitignore", Ignored: true},
			wantOK: true,
		},
		{
			name:   "custom source",
			path:   "private.txt",
			opts:   FilterOptions{DisableGitIgnore: true, DisableGeminiIgnore: true},
			want:   ignore.Verdict{Path: "private.txt", Pattern: "private.txt", Source: ".aiignore", Ignored: true},
			wantOK: true,
		},
		{
			name: "no rule applies",
			path: "src/main.go",
			want: ignore.Verdict{Path: "src/main.go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := svc.Explain(tt.path, tt.opts)
			assert.Equal(t, tt.wantOK, ok)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Explain mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, svc.ShouldIgnoreFile(tt.path, tt.opts), got.Ignored)
		})
	}
}

func TestFilterOptions(t *testing.T) {
	opts := DefaultFilterOptions()
	assert.True(t, opts.RespectGitIgnore())
	assert.True(t, opts.RespectGeminiIgnore())

	opts.DisableGitIgnore = true
	assert.False(t, opts.RespectGitIgnore())
	assert.True(t, opts.RespectGeminiIgnore())
}

func TestRules(t *testing.T) {
	root := newProject(t)
	svc, err := New(Options{ProjectRoot: root, IgnoreFileName: ".aiignore", IsGitRepository: alwaysGit})
	require.NoError(t, err)

	tests := []struct {
		name    string
		opts    FilterOptions
		sources []string
	}{
		{
			name:    "merged",
			sources: []string{"builtin", ".gitignore", ".gitignore", ".geminiignore", ".geminiignore", ".aiignore"},
		},
		{
			name:    "custom only",
			opts:    FilterOptions{DisableGitIgnore: true, DisableGeminiIgnore: true},
			sources: []string{".aiignore"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range svc.Rules(tt.opts) {
				got = append(got, r.Source)
			}
			assert.Equal(t, tt.sources, got)
		})
	}
}

func TestFilterFilesNegatedDirectories(t *testing.T) {
	tests := []struct {
		name      string
		gitignore string
		gemini    string
		paths     []string
		want      []string
	}{
		{
			name:      "whitelist idiom",
			gitignore: "*\n!*/\n!*.go\n",
			paths:     []string{"src/readme.txt", "src/main.go", "README.md", "cmd/"},
			want:      []string{"src/main.go", "cmd/"},
		},
		{
			name:      "negated parent in tool file",
			gitignore: "*.log\n*.txt\n",
			gemini:    "!logs/\n!dir\n",
			paths:     []string{"logs/debug.log", "dir/a.txt", "logs/", "dir/main.go"},
			want:      []string{"logs/", "dir/main.go"},
		},
		{
			name:      "re-included directory",
			gitignore: "build/\n",
			gemini:    "!build/\n",
			paths:     []string{"build/app.js", "src/app.js"},
			want:      []string{"build/app.js", "src/app.js"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			_, err := git.PlainInit(root, false)
			require.NoError(t, err)
			writeFile(t, root, ".gitignore", tt.gitignore)
			if tt.gemini != "" {
				writeFile(t, root, ".geminiignore", tt.gemini)
			}

			svc, err := New(Options{ProjectRoot: root})
			require.NoError(t, err)
			require.NotNil(t, svc.CombinedFilter())

			got := svc.FilterFiles(tt.paths, DefaultFilterOptions())
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterFiles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
