// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package source

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/exportdesk/internal/export"
	"github.com/jeranaias/exportdesk/internal/logger"
)

// DefaultDebounce is how long a file must be quiet before it is reloaded.
const DefaultDebounce = 250 * time.Millisecond

// Update carries the result of reloading a watched data file.
type Update struct {
	Path string
	Rows []export.Row
	Err  error
}

// Watcher reloads a data file whenever it changes on disk. Bursts of events
// (editors often write, chmod and rename in quick succession) are collapsed
// into a single reload once the file has been quiet for the debounce period.
type Watcher struct {
	path     string
	load     func(string) ([]export.Row, error)
	watcher  *fsnotify.Watcher
	debounce time.Duration
	updates  chan Update

	mu      sync.Mutex
	pending time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for path. A debounce of zero uses
// DefaultDebounce.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     abs,
		load:     LoadRows,
		watcher:  fsw,
		debounce: debounce,
		updates:  make(chan Update, 1),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching. The parent directory is watched rather than the file
// itself so that replace-by-rename saves are still seen.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.wg.Add(2)
	go w.processEvents()
	go w.processPending()
	return nil
}

// Updates delivers reload results. Only the latest result is kept when the
// receiver falls behind.
func (w *Watcher) Updates() <-chan Update {
	return w.updates
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	log := logger.WithComponent("watcher")

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.mu.Lock()
				w.pending = time.Now()
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("file watcher error")
		}
	}
}

func (w *Watcher) processPending() {
	defer w.wg.Done()

	tick := w.debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if due {
				w.reload()
			}
		}
	}
}

func (w *Watcher) reload() {
	rows, err := w.load(w.path)
	if err != nil {
		logger.WithComponent("watcher").WithError(err).WithField("path", w.path).Warn("reload failed")
	}
	u := Update{Path: w.path, Rows: rows, Err: err}

	// Replace a stale undelivered update with the newer one.
	select {
	case w.updates <- u:
	default:
		select {
		case <-w.updates:
		default:
		}
		select {
		case w.updates <- u:
		case <-w.ctx.Done():
		}
	}
}

// Done is closed once Close has been called.
func (w *Watcher) Done() <-chan struct{} {
	return w.ctx.Done()
}

// Close stops the watcher and waits for its goroutines to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
