package checklist

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/Iron-Ham/claudia/internal/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/sourcegraph/conc"
)

// DefaultDebounce collapses the burst of events many editors emit per save.
const DefaultDebounce = 50 * time.Millisecond

// Watcher reports checklist progress as the child edits the task document.
// It is an observer only: the supervisor still asks the Oracle directly
// when it needs a decision.
type Watcher struct {
	watcher  *fsnotify.Watcher
	oracle   *Oracle
	target   string
	debounce time.Duration
	logger   *logging.Logger

	mu         sync.Mutex
	onProgress func(Counts)
	last       Counts
	seen       bool

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       conc.WaitGroup
}

// NewWatcher creates a watcher for the oracle's document. The document's
// directory is watched rather than the file itself so that editors which
// save by renaming a temp file are still noticed.
func NewWatcher(oracle *Oracle, logger *logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	return &Watcher{
		watcher:  fw,
		oracle:   oracle,
		target:   filepath.Clean(oracle.Path()),
		debounce: DefaultDebounce,
		logger:   logger.WithComponent("checklist"),
		stopCh:   make(chan struct{}),
	}, nil
}

// SetProgressCallback sets the function called with fresh counts whenever
// they differ from the last observed counts.
func (w *Watcher) SetProgressCallback(cb func(Counts)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onProgress = cb
}

// Start records the initial counts and begins watching.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.target)); err != nil {
		return err
	}
	w.refresh()
	w.wg.Go(w.watchLoop)
	return nil
}

// Stop ends the watch loop and releases the underlying watcher. It is safe
// to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
		w.wg.Wait()
	})
}

// watchLoop processes filesystem events
func (w *Watcher) watchLoop() {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.refresh()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("checklist watch error", "error", err.Error())
		}
	}
}

// refresh re-reads the document and notifies on change.
func (w *Watcher) refresh() {
	counts, err := w.oracle.Counts()
	if err != nil {
		// Mid-save the file can briefly be missing.
		w.logger.Debug("checklist read failed", "path", w.target, "error", err.Error())
		return
	}

	w.mu.Lock()
	changed := !w.seen || counts != w.last
	w.last = counts
	w.seen = true
	cb := w.onProgress
	w.mu.Unlock()

	if !changed {
		return
	}
	w.logger.Info("checklist progress",
		"checked", counts.Checked,
		"unchecked", counts.Unchecked,
		"complete", counts.Complete(),
	)
	if cb != nil {
		cb(counts)
	}
}
