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

package ignore

import (
	"strings"
	"testing"

	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/stretchr/testify/assert"
)

// The cases below are ones where the reference gitignore library and this
// engine are expected to agree.
func TestParityWithGoGitignore(t *testing.T) {
	content := `# Test gitignore
*.log
node_modules/
dist
*.tmp
/build/
src/test/
`
	lines := strings.Split(content, "\n")
	reference := gitignore.CompileIgnoreLines(lines...)
	rules := CompileRuleSet(".gitignore", lines)

	paths := []string{
		"app.log",
		"debug.log",
		"logs/app.log",
		"main.go",
		"node_modules/package.json",
		"node_modules/lib/index.js",
		"dist",
		"dist/main.js",
		"temp.tmp",
		"src/temp.tmp",
		"build/output",
		"scripts/build/test",
		"src/test/helper.go",
		"test/main.go",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			want := reference.MatchesPath(path)
			got := isIgnored(testRoot, rules, path)
			assert.Equal(t, want, got)
		})
	}
}

func TestParitySinglePatterns(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
	}{
		{"*.log", "test.log"},
		{"*.log", "main.go"},
		{"node_modules/", "node_modules/test.js"},
		{"node_modules/", "src/node_modules/lib.js"},
		{"node_modules/", "modules/test.js"},
		{"dist", "dist"},
		{"dist", "dist/main.js"},
		{"dist", "mydist"},
		{"*.tmp", "src/temp.tmp"},
		{"*.tmp", "temp.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			want := gitignore.CompileIgnoreLines(tt.pattern).MatchesPath(tt.path)
			assert.Equal(t, want, ignoredBy([]string{tt.pattern}, tt.path))
		})
	}
}
