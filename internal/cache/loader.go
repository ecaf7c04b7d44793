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

package cache

import (
	"sync/atomic"

	"github.com/antenore/discover/internal/files"
	"github.com/antenore/discover/internal/logging"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"
)

type location struct {
	root string
	path string
}

type entry struct {
	key   Key
	lines []string
}

// Stats counts how Load requests were served.
type Stats struct {
	MemoryHits int64
	StoreHits  int64
	Misses     int64
}

// Loader serves ignore-file lines from memory, then from the sqlite store,
// then from disk. Entries are keyed by (root, path, modification time, size),
// so an edited file is always a miss; nothing is ever served stale.
type Loader struct {
	files *files.Loader
	store *Store
	mem   *xsync.MapOf[location, entry]
	log   *logrus.Entry

	memoryHits atomic.Int64
	storeHits  atomic.Int64
	misses     atomic.Int64
}

// NewLoader wraps fl. store may be nil for a memory-only cache.
func NewLoader(fl *files.Loader, store *Store, log *logrus.Entry) *Loader {
	if fl == nil {
		fl = files.NewLoader()
	}
	return &Loader{
		files: fl,
		store: store,
		mem:   xsync.NewMapOf[location, entry](),
		log:   logging.OrDiscard(log).WithField("component", "cache"),
	}
}

// Load implements ignore.Loader.
func (l *Loader) Load(root, name string) ([]string, error) {
	stamp, exists, err := l.files.Stat(root, name)
	if err != nil {
		return nil, err
	}
	loc := location{root: root, path: name}
	if !exists {
		l.mem.Delete(loc)
		return nil, nil
	}

	key := Key{
		Root:    root,
		Path:    name,
		ModTime: stamp.ModTime.UnixNano(),
		Size:    stamp.Size,
	}

	if e, ok := l.mem.Load(loc); ok && e.key == key {
		l.memoryHits.Add(1)
		return e.lines, nil
	}

	if l.store != nil {
		lines, ok, err := l.store.Get(key)
		if err != nil {
			l.log.WithError(err).Warn("ignoring unreadable cache entry")
		} else if ok {
			l.storeHits.Add(1)
			l.mem.Store(loc, entry{key: key, lines: lines})
			return lines, nil
		}
	}

	lines, err := l.files.Load(root, name)
	if err != nil {
		return nil, err
	}
	l.misses.Add(1)
	l.mem.Store(loc, entry{key: key, lines: lines})

	if l.store != nil {
		if err := l.store.Put(key, lines); err != nil {
			l.log.WithError(err).Warn("failed to persist ignore patterns")
		}
	}

	l.log.WithFields(logrus.Fields{
		"root":  root,
		"file":  name,
		"lines": len(lines),
	}).Debug("loaded ignore file from disk")

	return lines, nil
}

// Stats returns hit and miss counters since the loader was created.
func (l *Loader) Stats() Stats {
	return Stats{
		MemoryHits: l.memoryHits.Load(),
		StoreHits:  l.storeHits.Load(),
		Misses:     l.misses.Load(),
	}
}

// Len returns the number of files held in memory.
func (l *Loader) Len() int {
	return l.mem.Size()
}
