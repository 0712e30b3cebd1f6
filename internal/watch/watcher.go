// Package watch re-runs the checker when source documents change on disk.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const triggerBuffer = 8

// Watcher observes the directories behind a set of source paths or globs and
// emits one trigger per debounce window listing the documents that changed.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	literals map[string]bool

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	hashMu sync.Mutex
	hashes map[string]string

	triggers chan []string
	dropped  atomic.Int64
}

// New builds a watcher over the directories that contain the given paths or
// globs. Directories that do not exist yet are skipped with a warning.
func New(patterns []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 400 * time.Millisecond
	}

	w := &Watcher{
		watcher:  fsw,
		logger:   logger,
		debounce: debounce,
		literals: map[string]bool{},
		pending:  map[string]fsnotify.Op{},
		hashes:   map[string]string{},
		triggers: make(chan []string, triggerBuffer),
	}

	seen := map[string]bool{}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		base := p
		if strings.ContainsAny(p, "*?[{") {
			base, _ = doublestar.SplitPattern(filepath.ToSlash(p))
		} else {
			w.literals[filepath.Clean(p)] = true
			base = filepath.Dir(p)
		}
		base = filepath.Clean(base)
		if seen[base] {
			continue
		}
		seen[base] = true
		info, err := os.Stat(base)
		if err != nil || !info.IsDir() {
			logger.Warn("not watching missing directory", "dir", base)
			continue
		}
		if err := fsw.Add(base); err != nil {
			logger.Warn("failed to watch directory", "dir", base, "error", err)
			continue
		}
		logger.Debug("watching directory", "dir", base)
	}

	return w, nil
}

// Triggers returns the channel of change batches. Each batch holds the
// cleaned paths whose content actually changed since the last trigger.
func (w *Watcher) Triggers() <-chan []string { return w.triggers }

// Start runs the event loop until ctx is done or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *Watcher) Stop() error { return w.watcher.Close() }

// DroppedTriggers reports batches discarded because the consumer lagged.
func (w *Watcher) DroppedTriggers() int64 { return w.dropped.Load() }

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.triggers)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if !w.literals[path] && strings.ToLower(filepath.Ext(path)) != ".md" {
		return
	}
	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()
	w.logger.Debug("document change detected", "path", path, "op", event.Op.String())
}

func (w *Watcher) flush() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	batch := w.pending
	w.pending = map[string]fsnotify.Op{}
	w.pendingMu.Unlock()

	var changed []string
	for path, op := range batch {
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			w.hashMu.Lock()
			delete(w.hashes, path)
			w.hashMu.Unlock()
			changed = append(changed, path)
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				changed = append(changed, path)
			}
			continue
		}
		sum := contentHash(content)
		w.hashMu.Lock()
		prev, had := w.hashes[path]
		w.hashes[path] = sum
		w.hashMu.Unlock()
		if had && prev == sum {
			// touched but unchanged
			continue
		}
		changed = append(changed, path)
	}
	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)

	select {
	case w.triggers <- changed:
	default:
		n := w.dropped.Add(1)
		w.logger.Warn("trigger channel full, dropping batch", "paths", len(changed), "total_dropped", n)
	}
}

// Prime records the current content hash for a path so an initial run does
// not immediately re-trigger on the first fsnotify echo.
func (w *Watcher) Prime(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		return
	}
	w.hashMu.Lock()
	w.hashes[filepath.Clean(path)] = contentHash(content)
	w.hashMu.Unlock()
}

func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
