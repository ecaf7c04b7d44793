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
	"path"
	"path/filepath"
	"strings"
)

// relativeSegments converts p into slash separated segments relative to root.
// Relative inputs are taken as relative to root already. ok is false for the
// root itself, empty input and anything that resolves outside root.
// A trailing separator marks the path as a directory.
func relativeSegments(root, p string) (segs []string, isDir bool, ok bool) {
	if p == "" {
		return nil, false, false
	}

	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil, false, false
		}
		isDir = strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(filepath.Separator))
		p = rel
	}

	p = filepath.ToSlash(p)
	if strings.HasSuffix(p, "/") {
		isDir = true
	}

	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/") {
		return nil, false, false
	}

	return strings.Split(p, "/"), isDir, true
}
