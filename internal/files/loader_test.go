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

package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Load(t *testing.T) {
	loader := NewLoader()

	t.Run("missing file yields no lines", func(t *testing.T) {
		lines, err := loader.Load(t.TempDir(), ".geminiignore")
		require.NoError(t, err)
		assert.Nil(t, lines)
	})

	t.Run("reads lines", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("# c\n*.log\n\nbuild/\n"), 0644))

		lines, err := loader.Load(root, ".gitignore")
		require.NoError(t, err)
		assert.Equal(t, []string{"# c", "*.log", "", "build/"}, lines)
	})

	t.Run("nested name", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "info"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "info", "exclude"), []byte("secret\n"), 0644))

		lines, err := loader.Load(root, ".git/info/exclude")
		require.NoError(t, err)
		assert.Equal(t, []string{"secret"}, lines)
	})

	t.Run("directory instead of file", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(root, ".geminiignore"), 0755))

		_, err := loader.Load(root, ".geminiignore")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is a directory, not an ignore file")
	})

	t.Run("too large", func(t *testing.T) {
		root := t.TempDir()
		small := &Loader{MaxFileSize: 8}
		require.NoError(t, os.WriteFile(filepath.Join(root, ".geminiignore"), []byte(strings.Repeat("a", 32)), 0644))

		_, err := small.Load(root, ".geminiignore")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrFileTooLarge))
	})

	t.Run("binary", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, ".geminiignore"), []byte{'a', 0, 'b'}, 0644))

		_, err := loader.Load(root, ".geminiignore")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrBinaryFile))
	})
}

func TestLoader_Stat(t *testing.T) {
	loader := NewLoader()
	root := t.TempDir()

	_, exists, err := loader.Stat(root, ".gitignore")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n"), 0644))

	stamp, exists, err := loader.Stat(root, ".gitignore")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(6), stamp.Size)
	assert.Equal(t, filepath.Join(root, ".gitignore"), stamp.Path)
	assert.False(t, stamp.ModTime.IsZero())
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "empty", content: "", want: nil},
		{name: "only newline", content: "\n", want: nil},
		{name: "no trailing newline", content: "a\nb", want: []string{"a", "b"}},
		{name: "crlf", content: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "old mac", content: "a\rb", want: []string{"a", "b"}},
		{name: "bom", content: "\xEF\xBB\xBF*.log\n", want: []string{"*.log"}},
		{name: "blank lines kept", content: "a\n\nb\n", want: []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines([]byte(tt.content)))
		})
	}
}
