package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/causegraph/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	// ChangeTypeDocument means the document was written or replaced.
	ChangeTypeDocument ChangeType = iota
	// ChangeTypeRemoved means the document was removed or renamed away.
	ChangeTypeRemoved
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeDocument:
		return "document"
	case ChangeTypeRemoved:
		return "removed"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(t))
	}
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// batchWindow is how long raw events are collected before being passed on.
const batchWindow = 100 * time.Millisecond

// FileWatcher watches a graph document for changes. The containing
// directory is watched so editors that save by rename are noticed.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan ChangeEvent
	done    chan struct{}
}

// NewFileWatcher creates a new file system watcher for the document at path
func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: watcher,
		path:    abs,
		events:  make(chan ChangeEvent, 100),
		done:    make(chan struct{}),
	}

	return fw, nil
}

// Start begins watching for file changes
func (fw *FileWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logging.Info("started watching graph document", "path", fw.path)

	// Process events
	go fw.processEvents(ctx)

	return nil
}

// classify maps an fsnotify event on the document to a change type.
func classify(op fsnotify.Op) (ChangeType, bool) {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ChangeTypeRemoved, true
	case op.Has(fsnotify.Write), op.Has(fsnotify.Create):
		return ChangeTypeDocument, true
	default:
		return 0, false
	}
}

// processEvents processes file system events and batches them by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	// Batch events to avoid sending one event per write
	batches := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() {
		for _, t := range []ChangeType{ChangeTypeRemoved, ChangeTypeDocument} {
			if len(batches[t]) == 0 {
				continue
			}
			fw.events <- ChangeEvent{
				Type:      t,
				Paths:     batches[t],
				Timestamp: time.Now(),
			}
			delete(batches, t)
		}
	}

	defer func() {
		fw.watcher.Close()
		close(fw.events)
		close(fw.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// Only the document itself is relevant
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			t, ok := classify(event.Op)
			if !ok {
				continue
			}
			logging.Trace("document event", "op", event.Op.String(), "type", t.String())
			batches[t] = append(batches[t], event.Name)
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Done is closed once the watcher has shut down.
func (fw *FileWatcher) Done() <-chan struct{} {
	return fw.done
}
