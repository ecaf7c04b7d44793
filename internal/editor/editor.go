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

// Package editor opens files in the user's editor.
package editor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNoEditor is returned when neither $EDITOR, $VISUAL nor a common editor
// can be found.
var ErrNoEditor = errors.New("no editor found, set the EDITOR environment variable")

var commonEditors = []string{"nvim", "vim", "vi", "nano", "emacs", "code"}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// FindEditor returns $EDITOR or $VISUAL when it can be run, otherwise the
// first common editor found on PATH.
func FindEditor(log *logrus.Entry) (string, error) {
	// Try environment variables first
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}

	if editor != "" {
		if _, err := lookPath(editor); err == nil {
			return editor, nil
		}
		if log != nil {
			log.WithField("editor", editor).Warn("editor not found, searching for alternatives")
		}
	}

	for _, e := range commonEditors {
		if _, err := lookPath(e); err == nil {
			return e, nil
		}
	}
	return "", ErrNoEditor
}

// Args returns the arguments that open file at line (0 for none) in editor.
func Args(editor, file string, line int) []string {
	if line <= 0 {
		return []string{file}
	}

	switch base := filepath.Base(editor); {
	case strings.Contains(base, "vim"), base == "vi", base == "emacs", base == "nano":
		return []string{fmt.Sprintf("+%d", line), file}
	case base == "code":
		return []string{"--goto", fmt.Sprintf("%s:%d", file, line)}
	default:
		return []string{file}
	}
}

// Open runs editor on file and waits for it to exit. Parent directories of
// file are created first.
func Open(ctx context.Context, editor, file string, line int, stdin io.Reader, stdout, stderr io.Writer) error {
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}

	c := exec.CommandContext(ctx, editor, Args(editor, file, line)...)
	c.Stdin = stdin
	c.Stdout = stdout
	c.Stderr = stderr
	if err := c.Run(); err != nil {
		return errors.Wrapf(err, "%s exited with an error", editor)
	}
	return nil
}

// ParseFileAndLine splits "file:line". The suffix is only taken as a line
// number when it parses as one.
func ParseFileAndLine(input string) (string, int) {
	lastColon := strings.LastIndex(input, ":")
	if lastColon == -1 {
		return input, 0
	}

	line, err := strconv.Atoi(input[lastColon+1:])
	if err != nil || line < 0 {
		return input, 0
	}
	return input[:lastColon], line
}
