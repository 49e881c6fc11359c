// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package knowledge

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// HOLDER
// =============================================================================

// Holder publishes the active base to concurrent readers.
type Holder struct {
	p atomic.Pointer[Base]
}

// NewHolder creates a holder publishing b.
func NewHolder(b *Base) *Holder {
	h := &Holder{}
	h.p.Store(b)
	return h
}

// Base returns the active base.
func (h *Holder) Base() *Base {
	return h.p.Load()
}

// Swap replaces the active base.
func (h *Holder) Swap(b *Base) {
	h.p.Store(b)
}

// =============================================================================
// FILE WATCHER
// =============================================================================

// DefaultDebounce is how long a file must stay quiet before reloading.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a knowledge file into a Holder when it changes.
// Files that fail to parse are logged and the previous base stays active.
type Watcher struct {
	path     string
	holder   *Holder
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onReload func(*Base, error)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher creates a watcher for path. onReload, if non-nil, is called
// after every reload attempt.
func NewWatcher(path string, holder *Holder, debounce time.Duration, onReload func(*Base, error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     filepath.Clean(path),
		holder:   holder,
		watcher:  fw,
		debounce: debounce,
		onReload: onReload,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching. The parent directory is watched so editors that
// replace the file by rename are picked up.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.wg.Add(1)
	go w.processEvents()
	return nil
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("KNOWLEDGE_WATCH_ERROR | path=%s err=%v", w.path, err)
		}
	}
}

func (w *Watcher) reload() {
	b, err := LoadFile(w.path)
	if err != nil {
		log.Printf("KNOWLEDGE_RELOAD_FAILED | path=%s err=%v", w.path, err)
	} else {
		w.holder.Swap(b)
		log.Printf("KNOWLEDGE_RELOADED | path=%s categories=%d", w.path, b.Len())
	}
	if w.onReload != nil {
		w.onReload(b, err)
	}
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
