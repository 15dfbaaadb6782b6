// Package pagestore persists raw HTML pages on disk, keyed by the final
// path segment of their source URL. File presence is the only record of
// "already fetched": the crawler checks Contains before issuing any
// network call, so re-running a crawl re-derives what is missing from
// what is present.
package pagestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Role selects which cache subdirectory a page belongs to.
type Role string

const (
	RoleStandings Role = "standings"
	RoleScores    Role = "scores"
)

// Store is a filesystem key-value store for cached pages. It is kept
// behind an explicit Contains/Put contract so a real index (manifest
// file, database) could replace it without touching crawl control flow.
type Store struct {
	dataDir string
}

// New creates a Store rooted at dataDir, creating the role directories
// if they don't exist.
func New(dataDir string) (*Store, error) {
	for _, role := range []Role{RoleStandings, RoleScores} {
		dir := filepath.Join(dataDir, string(role))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s directory: %w", role, err)
		}
	}

	return &Store{dataDir: dataDir}, nil
}

// DataDir returns the root directory of the store.
func (s *Store) DataDir() string {
	return s.dataDir
}

// PathFor derives the on-disk path for a URL: the final /-delimited
// segment of the URL under the role directory. Box-score filenames
// carry the game date in their first 8 characters, so the segment is
// taken verbatim.
func (s *Store) PathFor(role Role, url string) string {
	segment := url
	if idx := strings.LastIndex(url, "/"); idx >= 0 {
		segment = url[idx+1:]
	}
	return filepath.Join(s.dataDir, string(role), segment)
}

// Contains reports whether a page is already cached at path.
func (s *Store) Contains(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Put writes a page's raw HTML to path.
func (s *Store) Put(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}
	return nil
}

// Read returns the raw HTML cached at path.
func (s *Store) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading page: %w", err)
	}
	return string(data), nil
}

// List returns the paths of all cached .html pages for a role, sorted
// by filename.
func (s *Store) List(role Role) ([]string, error) {
	dir := filepath.Join(s.dataDir, string(role))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", role, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}
