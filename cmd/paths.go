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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/antenore/discover/internal/discovery"
	"github.com/pkg/errors"
)

// readPaths returns args, or the non-blank lines of in when args is empty.
func readPaths(args []string, in io.Reader) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	var paths []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read paths from stdin")
	}
	return paths, nil
}

// rootPaths maps paths as typed by the user (relative to the working
// directory) to paths the service understands. Nothing changes when the
// working directory is the project root.
func rootPaths(root string, paths []string) ([]string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get working directory")
	}
	if filepath.Clean(wd) == filepath.Clean(root) {
		return paths, nil
	}

	out := make([]string, len(paths))
	for i, p := range paths {
		if filepath.IsAbs(p) {
			out[i] = p
			continue
		}
		abs := filepath.Join(wd, p)
		if strings.HasSuffix(p, "/") {
			abs += "/"
		}
		out[i] = abs
	}
	return out, nil
}

// filterPaths filters paths and returns the kept ones as the user typed them.
func filterPaths(svc *discovery.Service, paths []string, opts discovery.FilterOptions) ([]string, int, error) {
	resolved, err := rootPaths(svc.ProjectRoot(), paths)
	if err != nil {
		return nil, 0, err
	}

	report := svc.FilterFilesWithReport(resolved, opts)

	// FilterFiles keeps input order, so kept paths line up with the input.
	kept := make([]string, 0, len(report.FilteredPaths))
	j := 0
	for i, p := range resolved {
		if j < len(report.FilteredPaths) && report.FilteredPaths[j] == p {
			kept = append(kept, paths[i])
			j++
		}
	}
	return kept, report.IgnoredCount, nil
}
