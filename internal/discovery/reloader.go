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
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/antenore/discover/internal/files"
	"github.com/antenore/discover/internal/ignore"
	"github.com/antenore/discover/internal/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Reloader keeps a current Service for a project root and replaces it with a
// freshly built one whenever one of the root's ignore files changes.
// Callers grab Service() per batch of queries; a Service in hand never changes.
type Reloader struct {
	opts    Options
	current atomic.Pointer[Service]
	watcher *files.Watcher
	log     *logrus.Entry

	mu       sync.Mutex
	onReload func(*Service, error)
}

// NewReloader builds the initial Service and a watcher for its ignore files.
func NewReloader(opts Options, debounce time.Duration) (*Reloader, error) {
	svc, err := New(opts)
	if err != nil {
		return nil, err
	}
	opts.ProjectRoot = svc.ProjectRoot()

	log := logging.OrDiscard(opts.Logger)
	watcher, err := files.NewWatcher(debounce, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create ignore file watcher")
	}

	r := &Reloader{
		opts:    opts,
		watcher: watcher,
		log:     log.WithField("component", "reloader"),
	}
	r.current.Store(svc)
	return r, nil
}

// Service returns the most recently built Service.
func (r *Reloader) Service() *Service {
	return r.current.Load()
}

// IgnoreFiles lists the files whose changes trigger a reload.
func (r *Reloader) IgnoreFiles() []string {
	root := r.opts.ProjectRoot
	paths := []string{
		filepath.Join(root, ignore.GitIgnoreFileName),
		filepath.Join(root, ignore.DefaultIgnoreFileName),
	}
	if info, err := os.Stat(filepath.Join(root, filepath.Dir(ignore.GitExcludeFileName))); err == nil && info.IsDir() {
		paths = append(paths, filepath.Join(root, ignore.GitExcludeFileName))
	}
	if r.opts.IgnoreFileName != "" {
		paths = append(paths, filepath.Join(root, r.opts.IgnoreFileName))
	}
	return paths
}

// Reload rebuilds the Service now. On failure the previous Service stays.
func (r *Reloader) Reload() (*Service, error) {
	svc, err := New(r.opts)
	if err != nil {
		r.log.WithError(err).Warn("keeping previous ignore rules")
		return r.current.Load(), err
	}
	r.current.Store(svc)
	r.log.Debug("ignore rules reloaded")
	return svc, nil
}

// Start watches the ignore files and calls onReload (if not nil) after each
// rebuild attempt. It returns false when the platform cannot watch files.
func (r *Reloader) Start(ctx context.Context, onReload func(*Service, error)) (bool, error) {
	if !r.watcher.IsSupported() {
		return false, nil
	}

	for _, path := range r.IgnoreFiles() {
		if _, err := os.Stat(filepath.Dir(path)); err != nil {
			r.log.WithField("path", path).Debug("parent directory missing, not watching")
			continue
		}
		if err := r.watcher.Watch(path); err != nil {
			return false, err
		}
	}

	r.mu.Lock()
	r.onReload = onReload
	r.mu.Unlock()

	r.watcher.Start(ctx, func(changed []string) {
		r.log.WithField("files", changed).Info("ignore files changed")
		svc, err := r.Reload()

		r.mu.Lock()
		cb := r.onReload
		r.mu.Unlock()
		if cb != nil {
			cb(svc, err)
		}
	})
	return true, nil
}

// Stop stops watching.
func (r *Reloader) Stop() error {
	return r.watcher.Stop()
}
