// Package local provides a source adapter for the local filesystem.
package local

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
	"github.com/tessera-search/tessera/internal/logger"
)

// Ensure Connector implements the interfaces.
var (
	_ driven.SourceAdapter    = (*Connector)(nil)
	_ driven.WatchableAdapter = (*Connector)(nil)
)

// Config holds configuration for the local filesystem connector.
type Config struct {
	// Excludes are doublestar glob patterns matched against the path
	// relative to the enumerated root (e.g. "**/.git/**", "*.tmp").
	Excludes []string
}

// Connector enumerates files under a local path. The source string is a
// file or directory path; directories are walked recursively.
type Connector struct {
	excludes []string
}

// New creates a new local filesystem connector.
func New(cfg Config) *Connector {
	return &Connector{excludes: cfg.Excludes}
}

// Kind returns the source kind this connector serves.
func (c *Connector) Kind() domain.SourceKind {
	return domain.SourceLocal
}

// Enumerate walks the source path and streams every regular file.
// Hidden directories are skipped; classification of individual files is the
// caller's concern.
func (c *Connector) Enumerate(ctx context.Context, source string) (<-chan domain.RawItem, <-chan error) {
	items := make(chan domain.RawItem)
	errs := make(chan error, 1)

	go func() {
		defer close(items)
		defer close(errs)

		root, err := filepath.Abs(source)
		if err != nil {
			errs <- fmt.Errorf("resolve path %s: %w", source, err)
			return
		}

		info, err := os.Stat(root)
		if err != nil {
			errs <- fmt.Errorf("stat %s: %w", source, err)
			return
		}

		if !info.IsDir() {
			// Exclude globs apply to single-file sources the same way
			// they apply to walked files.
			if c.excluded(filepath.Base(root)) {
				logger.Debug("Excluding %s", root)
				return
			}
			select {
			case <-ctx.Done():
			case items <- domain.RawItem{DocumentID: root, Path: root}:
			}
			return
		}

		walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				if path != root && strings.HasPrefix(entry.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !entry.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if c.excluded(rel) {
				logger.Debug("Excluding %s", path)
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case items <- domain.RawItem{DocumentID: path, Path: path}:
				return nil
			}
		})
		if walkErr != nil && ctx.Err() == nil {
			errs <- fmt.Errorf("walk %s: %w", source, walkErr)
		}
	}()

	return items, errs
}

// Watch reports filesystem changes under the source path. Each pulse on the
// returned channel means "something changed, re-enumerate"; events are not
// itemised. The watcher shuts down when the context is cancelled.
func (c *Connector) Watch(ctx context.Context, source string) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	root, err := filepath.Abs(source)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("resolve path %s: %w", source, err)
	}

	// Watch the root and every subdirectory; fsnotify is not recursive.
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", source, err)
	}

	changes := make(chan struct{}, 1)
	go func() {
		defer close(changes)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// New directories must be added to the watch set.
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := watcher.Add(event.Name); err != nil {
							logger.Warn("Failed to watch %s: %v", event.Name, err)
						}
					}
				}
				select {
				case changes <- struct{}{}:
				default: // a pulse is already pending
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	return changes, nil
}

// excluded reports whether a relative path matches any exclude pattern.
func (c *Connector) excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
