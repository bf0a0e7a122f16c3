// Package handbook provides the static handbook PDF as an ingestion
// source, with optional change notification via filesystem events.
package handbook

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/campuswatch/watcher/internal/core/domain"
	"github.com/campuswatch/watcher/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.HandbookSource = (*Connector)(nil)

// Connector reads the handbook file from disk.
type Connector struct {
	path    string
	log     *zap.Logger
	watcher *fsnotify.Watcher
}

// New creates a handbook connector for the file at path.
func New(path string, log *zap.Logger) *Connector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{path: path, log: log}
}

// Load reads the handbook file. A missing file wraps domain.ErrNotFound.
func (c *Connector) Load(_ context.Context) (*domain.RawPage, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("handbook %s: %w", c.path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read handbook: %w", err)
	}

	return &domain.RawPage{
		URL:      c.path,
		MIMEType: "application/pdf",
		Content:  data,
	}, nil
}

// Watch emits a signal whenever the handbook file is written or
// replaced. Editors often save via rename, so the watch is on the
// parent directory and events are filtered by filename.
func (c *Connector) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	c.watcher = watcher

	changes := make(chan struct{}, 1)
	target := filepath.Clean(c.path)

	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				c.log.Info("handbook changed", zap.String("path", c.path))
				// Coalesce bursts; a pending signal is enough.
				select {
				case changes <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.log.Warn("handbook watch error", zap.Error(err))
			}
		}
	}()

	return changes, nil
}

// Close stops the filesystem watcher if one is running.
func (c *Connector) Close() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}
