// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"giftshuffle/internal/models"
)

// Watcher caches the directory scan of a DirProvider and drops the cache
// whenever anything under the themes root changes. It implements Provider
// so a Resolver can use it in place of the plain scan.
type Watcher struct {
	dir *DirProvider
	fsw *fsnotify.Watcher

	mu     sync.Mutex
	cached []models.Theme
	valid  bool

	// OnChange, if set, runs after each invalidation.
	OnChange func()

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher over dir. Call Start to begin watching.
func NewWatcher(dir *DirProvider) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	return &Watcher{
		dir:    dir,
		fsw:    fsw,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

func (w *Watcher) Name() string { return w.dir.Name() }

// List returns the cached scan, rescanning when the cache was invalidated.
func (w *Watcher) List(ctx context.Context) ([]models.Theme, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.valid {
		return append([]models.Theme(nil), w.cached...), nil
	}

	items, err := w.dir.Scan(ctx)
	if err != nil {
		return nil, err
	}
	w.cached = items
	w.valid = true
	return append([]models.Theme(nil), items...), nil
}

func (w *Watcher) Find(ctx context.Context, id int64) (*models.Theme, error) {
	items, err := w.List(ctx)
	if err != nil {
		return nil, err
	}
	return findIn(items, id), nil
}

// Invalidate drops the cached scan.
func (w *Watcher) Invalidate() {
	w.mu.Lock()
	w.valid = false
	w.cached = nil
	w.mu.Unlock()

	if w.OnChange != nil {
		w.OnChange()
	}
}

// Start watches the root and each theme directory. It returns once the
// watches are registered; events are handled on a background goroutine
// until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.fsw.Add(w.dir.Root()); err != nil {
		return fmt.Errorf("watch themes root %s: %w", w.dir.Root(), err)
	}
	w.addSubdirs()

	// running means the event loop owns doneCh; Stop waits on it.
	w.running = true
	slog.Info("watching themes directory", "root", w.dir.Root())
	go w.run(ctx)
	return nil
}

// Stop ends the event loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.fsw.Close(); err != nil {
		slog.Warn("failed to close themes watcher", "error", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("themes watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	slog.Debug("themes directory changed", "path", event.Name, "op", event.Op.String())

	// New theme directories need their own watch to see manifest edits.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fsw.Add(event.Name); err != nil {
				slog.Debug("failed to watch theme directory", "path", event.Name, "error", err)
			}
		}
	}
	w.Invalidate()
}

func (w *Watcher) addSubdirs() {
	entries, err := os.ReadDir(w.dir.Root())
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := w.dir.PathFor(e.Name())
		if p == "" {
			continue
		}
		if err := w.fsw.Add(p); err != nil {
			slog.Debug("failed to watch theme directory", "path", p, "error", err)
		}
	}
}
