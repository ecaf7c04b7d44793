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

package gitutil

import (
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/pkg/errors"
)

// IsGitRepository reports whether dir is inside a git work tree. Any error
// opening the repository counts as "not a repository".
func IsGitRepository(dir string) bool {
	_, err := FindRoot(dir)
	return err == nil
}

// FindRoot returns the top-level directory of the work tree containing dir.
func FindRoot(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", dir)
	}

	repo, err := git.PlainOpenWithOptions(absDir, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return "", errors.Wrapf(err, "%s is not inside a git repository", absDir)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", errors.Wrapf(err, "%s has no work tree", absDir)
	}

	return wt.Filesystem.Root(), nil
}
