// Package watch monitors an inbox directory for dropped DICOM or protocol
// files. Events are debounced until a drop settles, then the whole batch is
// handed off in one call, so a multi-gigabyte copy in progress is never
// ingested half-written.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"dicomschema/internal/logging"
)

// DefaultSettle is the quiet period a drop must hold before ingestion.
const DefaultSettle = 2 * time.Second

// Handler receives one settled batch of paths.
type Handler func(paths []string)

// Watcher watches one inbox directory, including subdirectories created
// after the watch starts.
type Watcher struct {
	dir     string
	settle  time.Duration
	handler Handler
	logger  *slog.Logger
}

// New validates the inbox directory and builds a watcher.
func New(dir string, settle time.Duration, handler Handler, logger *slog.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch handler required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("inbox directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("inbox path %s is not a directory", dir)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		dir:     dir,
		settle:  settle,
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "watch"),
	}, nil
}

// Run watches until ctx is cancelled. The handler runs on the watch
// goroutine; a slow handler delays the next batch, never loses it.
func (w *Watcher) Run(ctx context.Context) error {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer notifier.Close()

	if err := notifier.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching inbox", logging.String("dir", w.dir))

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.settle)
	if !timer.Stop() {
		<-timer.C
	}
	timerArmed := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-notifier.Events:
			if !ok {
				return errors.New("watch event channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				// A dropped directory: watch it too and ingest the whole tree.
				if err := notifier.Add(event.Name); err != nil {
					w.logger.Warn("watch subdirectory", logging.Error(err))
				}
			}
			pending[event.Name] = struct{}{}
			if timerArmed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.settle)
			timerArmed = true

		case err, ok := <-notifier.Errors:
			if !ok {
				return errors.New("watch error channel closed")
			}
			w.logger.Warn("watch error", logging.Error(err))

		case <-timer.C:
			timerArmed = false
			batch := make([]string, 0, len(pending))
			for path := range pending {
				if _, err := os.Stat(path); err != nil {
					continue
				}
				batch = append(batch, path)
			}
			pending = make(map[string]struct{})
			if len(batch) == 0 {
				continue
			}
			sort.Strings(batch)
			w.logger.Info("drop settled", logging.Int(logging.FieldFileCount, len(batch)))
			w.handler(batch)
		}
	}
}
