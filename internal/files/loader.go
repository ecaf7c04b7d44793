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
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrFileTooLarge is returned for ignore files above Loader.MaxFileSize.
	ErrFileTooLarge = errors.New("ignore file too large")
	// ErrBinaryFile is returned when an ignore file contains NUL bytes.
	ErrBinaryFile = errors.New("binary ignore file")
)

// DefaultMaxFileSize bounds how much of an ignore file is read.
const DefaultMaxFileSize = 1024 * 1024

// Loader reads ignore files relative to a project root.
type Loader struct {
	MaxFileSize int64
}

func NewLoader() *Loader {
	return &Loader{
		MaxFileSize: DefaultMaxFileSize,
	}
}

// FileStamp identifies one version of an ignore file on disk.
type FileStamp struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// Stat returns the stamp of root/name. exists is false when the file is missing.
func (l *Loader) Stat(root, name string) (stamp FileStamp, exists bool, err error) {
	path := filepath.Join(root, name)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileStamp{Path: path}, false, nil
		}
		return FileStamp{}, false, errors.Wrapf(err, "failed to stat %s", path)
	}

	if info.IsDir() {
		return FileStamp{}, false, errors.Errorf("%s is a directory, not an ignore file", path)
	}

	return FileStamp{
		Path:    path,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, true, nil
}

// Load returns the lines of root/name. A missing file yields no lines and no
// error. Comments and blank lines are kept; compiling them is the caller's job.
func (l *Loader) Load(root, name string) ([]string, error) {
	stamp, exists, err := l.Stat(root, name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	maxSize := l.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if stamp.Size > maxSize {
		return nil, errors.Wrapf(ErrFileTooLarge, "%s is %d bytes (max: %d)", stamp.Path, stamp.Size, maxSize)
	}

	file, err := os.Open(stamp.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", stamp.Path)
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", stamp.Path)
	}

	if isBinary(content) {
		return nil, errors.Wrapf(ErrBinaryFile, "%s", stamp.Path)
	}

	return SplitLines(content), nil
}

// SplitLines normalises a UTF-8 BOM and CRLF or CR line endings, then splits
// content into lines. A trailing newline does not produce an empty last line.
func SplitLines(content []byte) []string {
	content = bytes.TrimPrefix(content, []byte("\xEF\xBB\xBF"))
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// isBinary looks for a NUL byte in the first 512 bytes.
func isBinary(content []byte) bool {
	if len(content) > 512 {
		content = content[:512]
	}
	return bytes.IndexByte(content, 0) >= 0
}
