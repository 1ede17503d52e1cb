// Package watch runs an incremental sync whenever files under a project
// change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rbxsync/rbxsync-server/internal/models"
)

// DefaultDebounce is how long the tree must stay quiet before a sync runs.
const DefaultDebounce = 500 * time.Millisecond

// Syncer runs one sync. *orchestration.Service implements it.
type Syncer interface {
	Sync(ctx context.Context, req models.SyncRequest) (*models.SyncResult, error)
}

// Watcher watches a project tree recursively. Directories whose name starts
// with a dot are skipped, which keeps .rbxsync and .git out.
type Watcher struct {
	root     string
	syncer   Syncer
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	running bool
	runs    int
}

// New creates a watcher for root. Nothing is watched until Run.
func New(root string, syncer Syncer, debounce time.Duration) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat project directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		root:     root,
		syncer:   syncer,
		debounce: debounce,
		watcher:  fw,
	}, nil
}

// Runs reports how many syncs have been started.
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Run watches until ctx is done. Syncs run on the calling goroutine, so
// they never overlap; changes made during a sync schedule the next one.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()
	defer w.watcher.Close()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	log.Printf(`{"level":"info","message":"watching project","project_dir":"%s","debounce":"%s"}`, w.root, w.debounce)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						log.Printf(`{"level":"warn","message":"failed to watch new directory","path":"%s","error":"%v"}`, event.Name, err)
					}
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf(`{"level":"warn","message":"watcher error","error":"%v"}`, err)

		case <-timer.C:
			w.sync(ctx)
		}
	}
}

func (w *Watcher) sync(ctx context.Context) {
	w.mu.Lock()
	w.runs++
	w.mu.Unlock()

	res, err := w.syncer.Sync(ctx, models.SyncRequest{ProjectDir: w.root})
	if err != nil {
		var partial *models.PartialBatchError
		if !errors.As(err, &partial) {
			log.Printf(`{"level":"error","message":"auto-sync failed","project_dir":"%s","error":"%v"}`, w.root, err)
			return
		}
	}
	switch {
	case res == nil:
	case res.Skipped:
		log.Printf(`{"level":"info","message":"auto-sync skipped","reason":"%s"}`, res.Reason)
	case len(res.Errors) > 0:
		log.Printf(`{"level":"warn","message":"auto-sync partially applied","applied":%d,"failed":%d}`, res.Applied, len(res.Errors))
	case res.Upserts > 0 || res.Deletes > 0:
		log.Printf(`{"level":"info","message":"auto-sync applied","upserts":%d,"files_modified":%d}`, res.Upserts, res.FilesModified)
	}
}

// relevant drops chmod-only events and anything inside a dot directory.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return false
		}
	}
	return true
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Removed between event and walk.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}
