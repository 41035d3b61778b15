// Copyright (C) 2025 Sceneforge Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package templates serves the reference scene files that are bundled
// into generation prompts. The library snapshots every *.py file in a
// directory and can hot-reload when the directory changes on disk.
package templates

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce batches bursts of filesystem events into one reload.
const reloadDebounce = 200 * time.Millisecond

// Library holds the current set of reference templates.
//
// # Thread Safety
//
// Safe for concurrent use. Reads take a snapshot under RLock; the
// watcher goroutine is the only writer.
type Library struct {
	dir    string
	logger *slog.Logger

	mu        sync.RWMutex
	templates map[string]string

	stopOnce sync.Once
	done     chan struct{}
}

// NewLibrary loads the reference templates from dir.
//
// # Description
//
// A missing directory yields an empty library rather than an error:
// generation still works, just without reference bundles. Unreadable
// individual files are skipped.
//
// # Inputs
//   - dir: Directory holding *.py reference scenes.
//   - logger: Destination for reload logs; nil uses slog.Default.
func NewLibrary(dir string, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	lib := &Library{
		dir:    dir,
		logger: logger,
		done:   make(chan struct{}),
	}
	lib.reload()
	return lib
}

// Names returns the template filenames in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded templates.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.templates)
}

// Bundle renders all templates as one prompt section, each file under
// a "[name (full text)]" banner, in filename order.
func (l *Library) Bundle() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)

	chunks := make([]string, 0, len(names))
	for _, name := range names {
		chunks = append(chunks, fmt.Sprintf("[%s (full text)]\n%s", name, l.templates[name]))
	}
	return strings.Join(chunks, "\n")
}

// Watch hot-reloads the library on filesystem changes until ctx is
// canceled or Stop is called. Events are debounced so an editor save
// storm causes one reload.
//
// # Outputs
//   - error: Non-nil when the watcher cannot be created or the
//     directory cannot be watched.
func (l *Library) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", l.dir, err)
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				return
			case <-l.done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".py" {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(reloadDebounce)
					timerC = timer.C
				} else {
					timer.Reset(reloadDebounce)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("template watcher error", slog.String("error", err.Error()))
			case <-timerC:
				timer = nil
				timerC = nil
				l.reload()
			}
		}
	}()
	return nil
}

// Stop terminates a running watcher.
func (l *Library) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}

// reload snapshots the directory contents.
func (l *Library) reload() {
	loaded := make(map[string]string)

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		l.logger.Warn("template directory unreadable",
			slog.String("dir", l.dir),
			slog.String("error", err.Error()))
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".py" {
			continue
		}
		content, err := os.ReadFile(filepath.Join(l.dir, entry.Name()))
		if err != nil {
			l.logger.Warn("skipping unreadable template",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()))
			continue
		}
		loaded[entry.Name()] = string(content)
	}

	l.mu.Lock()
	l.templates = loaded
	l.mu.Unlock()

	l.logger.Info("reference templates loaded",
		slog.String("dir", l.dir),
		slog.Int("count", len(loaded)))
}
