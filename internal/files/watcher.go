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
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/antenore/discover/internal/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is used when NewWatcher is given a zero delay.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to a set of files, including files that do not
// exist yet. It watches each file's parent directory and filters events by
// path, since editors often save by rename and ignore files come and go.
type Watcher struct {
	watcher       *fsnotify.Watcher // nil on unsupported platforms
	watchedPaths  map[string]bool
	watchedDirs   map[string]int
	debounceTimer *time.Timer
	debounceDelay time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	mu            sync.Mutex
	supported     bool
	log           *logrus.Entry
}

// NewWatcher creates a watcher. When the platform cannot watch files the
// returned watcher is inert rather than an error.
func NewWatcher(debounceDelay time.Duration, log *logrus.Entry) (*Watcher, error) {
	if debounceDelay == 0 {
		debounceDelay = DefaultDebounce
	}

	w := &Watcher{
		watchedPaths:  make(map[string]bool),
		watchedDirs:   make(map[string]int),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		supported:     true,
		log:           logging.OrDiscard(log).WithField("component", "watcher"),
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.supported = false
		w.log.WithError(err).Warn("file watching not supported on this platform, ignore file changes need a restart")
		return w, nil
	}

	w.watcher = watcher
	return w, nil
}

// IsSupported returns true if file watching is supported on this platform
func (w *Watcher) IsSupported() bool {
	return w.supported && w.watcher != nil
}

// DebounceDelay returns the quiet period before changes are reported.
func (w *Watcher) DebounceDelay() time.Duration {
	return w.debounceDelay
}

// Watch adds a file to the watch list. The file need not exist, but its
// parent directory must.
func (w *Watcher) Watch(path string) error {
	if !w.IsSupported() {
		return nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve %s", path)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watchedPaths[absPath] {
		return nil
	}

	dir := filepath.Dir(absPath)
	if w.watchedDirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
	}
	w.watchedDirs[dir]++
	w.watchedPaths[absPath] = true
	return nil
}

// Unwatch removes a file from the watch list
func (w *Watcher) Unwatch(path string) error {
	if !w.IsSupported() {
		return nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve %s", path)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.watchedPaths[absPath] {
		return nil
	}
	delete(w.watchedPaths, absPath)

	dir := filepath.Dir(absPath)
	w.watchedDirs[dir]--
	if w.watchedDirs[dir] <= 0 {
		delete(w.watchedDirs, dir)
		if err := w.watcher.Remove(dir); err != nil {
			return errors.Wrapf(err, "failed to stop watching %s", dir)
		}
	}
	return nil
}

// WatchedPaths returns the watched files, sorted.
func (w *Watcher) WatchedPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.watchedPaths))
	for path := range w.watchedPaths {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (w *Watcher) isWatched(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watchedPaths[path]
}

// Start delivers batches of changed paths to onChange until ctx is done or
// Stop is called. Bursts of events are coalesced over the debounce delay.
func (w *Watcher) Start(ctx context.Context, onChange func([]string)) {
	if !w.IsSupported() {
		return
	}

	go w.processEvents(ctx, onChange)
}

func (w *Watcher) processEvents(ctx context.Context, onChange func([]string)) {
	pending := make(map[string]bool)
	var mu sync.Mutex

	flush := func() {
		if ctx.Err() != nil {
			return
		}
		mu.Lock()
		paths := make([]string, 0, len(pending))
		for path := range pending {
			paths = append(paths, path)
		}
		pending = make(map[string]bool)
		mu.Unlock()

		if len(paths) > 0 {
			sort.Strings(paths)
			onChange(paths)
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.stopDebounce()
			return

		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			absPath, err := filepath.Abs(event.Name)
			if err != nil || !w.isWatched(absPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			w.log.WithFields(logrus.Fields{
				"path": absPath,
				"op":   event.Op.String(),
			}).Debug("ignore file changed")

			mu.Lock()
			pending[absPath] = true
			w.mu.Lock()
			if w.debounceTimer != nil {
				w.debounceTimer.Stop()
			}
			w.debounceTimer = time.AfterFunc(w.debounceDelay, flush)
			w.mu.Unlock()
			mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("file watcher error")
		}
	}
}

// stopDebounce drops any batch waiting for the debounce delay.
func (w *Watcher) stopDebounce() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
}

// Stop stops the file watcher
func (w *Watcher) Stop() error {
	if !w.IsSupported() {
		return nil
	}

	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)

		w.stopDebounce()
		err = w.watcher.Close()
	})
	return err
}
