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
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Key identifies one version of one ignore file under one project root.
type Key struct {
	Root    string
	Path    string
	ModTime int64 // unix nanoseconds
	Size    int64
}

// Store persists raw ignore-file lines in sqlite so separate processes
// working on the same root can skip re-reading unchanged files.
type Store struct {
	db     *sql.DB
	dbPath string
}

// OpenStore opens (creating if needed) the cache database at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create cache directory")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open cache database")
	}

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to initialize cache schema")
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ignore_patterns (
		root TEXT NOT NULL,
		path TEXT NOT NULL,
		mod_time INTEGER NOT NULL,
		size INTEGER NOT NULL,
		lines TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (root, path)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.dbPath
}

// Get returns the cached lines for key. A row whose stamp differs from key
// is stale and reported as a miss.
func (s *Store) Get(key Key) ([]string, bool, error) {
	var modTime, size int64
	var encoded string
	err := s.db.QueryRow(`
		SELECT mod_time, size, lines
		FROM ignore_patterns
		WHERE root = ? AND path = ?
	`, key.Root, key.Path).Scan(&modTime, &size, &encoded)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to query cache")
	}

	if modTime != key.ModTime || size != key.Size {
		return nil, false, nil
	}

	var lines []string
	if err := json.Unmarshal([]byte(encoded), &lines); err != nil {
		return nil, false, errors.Wrapf(err, "corrupt cache entry for %s", key.Path)
	}

	return lines, true, nil
}

// Put records lines for key, replacing any older version of the same file.
func (s *Store) Put(key Key, lines []string) error {
	if lines == nil {
		lines = []string{}
	}
	encoded, err := json.Marshal(lines)
	if err != nil {
		return errors.Wrap(err, "failed to encode cache entry")
	}

	_, err = s.db.Exec(`
		INSERT INTO ignore_patterns (root, path, mod_time, size, lines, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(root, path) DO UPDATE SET
			mod_time = excluded.mod_time,
			size = excluded.size,
			lines = excluded.lines,
			updated_at = CURRENT_TIMESTAMP
	`, key.Root, key.Path, key.ModTime, key.Size, string(encoded))

	return errors.Wrap(err, "failed to write cache entry")
}

// Purge removes every entry recorded for root and returns how many went.
func (s *Store) Purge(root string) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM ignore_patterns WHERE root = ?`, root)
	if err != nil {
		return 0, errors.Wrap(err, "failed to purge cache")
	}
	return result.RowsAffected()
}

// Count returns the number of cached files.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM ignore_patterns`).Scan(&count)
	return count, errors.Wrap(err, "failed to count cache entries")
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
