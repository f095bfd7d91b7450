package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"voicenotes/internal/logging"
)

// audioExtensions are the input file types handed to the pipeline. Anything
// else appearing in the input directory is ignored.
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
	".aac":  true,
	".opus": true,
	".webm": true,
}

// Watcher consumes file-creation events for one input directory,
// non-recursive, and feeds them to a single worker goroutine. Processing is
// strictly one file at a time: the long-running transcription and structuring
// calls make concurrent pipeline runs pointless, and serializing them guards
// the placement check-then-rename step without extra locking.
type Watcher struct {
	inputDir string
	pipeline *Pipeline
	log      *logging.Logger
	queue    chan string
}

func NewWatcher(inputDir string, p *Pipeline, log *logging.Logger) *Watcher {
	return &Watcher{
		inputDir: inputDir,
		pipeline: p,
		log:      log,
		queue:    make(chan string, 64),
	}
}

// Run blocks until ctx is cancelled, dispatching each created audio file
// through the pipeline. A stage failure for one file is logged by the
// pipeline and does not stop the watch.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.inputDir); err != nil {
		return fmt.Errorf("watch %s: %w", w.inputDir, err)
	}
	w.log.Info("watching", map[string]any{"dir": w.inputDir})

	go w.worker(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) {
				continue
			}
			if !audioExtensions[strings.ToLower(filepath.Ext(ev.Name))] {
				continue
			}
			select {
			case w.queue <- ev.Name:
			default:
				w.log.Error("event_dropped", fmt.Errorf("queue full"), map[string]any{"file": ev.Name})
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch_error", err, nil)
		}
	}
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			// Process logs its own stage failures; nothing to do with the
			// error here beyond moving on to the next file.
			_ = w.pipeline.Process(ctx, path)
		}
	}
}
