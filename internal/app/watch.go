package app

import (
	"os"
	"path/filepath"
	"time"
)

// FileWatcher polls a file and calls back each time its modification time
// moves past the last one seen. It is used to re-validate a document that
// is being edited elsewhere.
type FileWatcher struct {
	path          string
	lastMod       time.Time
	checkInterval time.Duration
	stopCh        chan struct{}
	onChange      func(path string) // Called from the watch goroutine
}

// NewFileWatcher creates a watcher for path. A file that does not exist yet
// is reported once it appears.
func NewFileWatcher(path string, checkInterval time.Duration) *FileWatcher {
	// Resolve symlinks so edits through the link target are seen
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}
	w := &FileWatcher{path: path, checkInterval: checkInterval, stopCh: make(chan struct{})}
	if info, err := os.Stat(path); err == nil {
		w.lastMod = info.ModTime()
	}
	return w
}

// OnChange sets the callback. It runs on the watcher goroutine; use
// appropriate synchronization when touching shared state.
func (w *FileWatcher) OnChange(callback func(path string)) {
	w.onChange = callback
}

// Start begins polling in a background goroutine.
func (w *FileWatcher) Start() {
	// Create a fresh stop channel in case we're restarting
	w.stopCh = make(chan struct{})
	go w.watchLoop(w.stopCh)
}

// Stop stops the watcher goroutine.
func (w *FileWatcher) Stop() {
	close(w.stopCh)
}

func (w *FileWatcher) watchLoop(stop chan struct{}) {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if w.Check() && w.onChange != nil {
				w.onChange(w.path)
			}
		}
	}
}

// Check reports whether the file changed since the last check and moves
// the baseline forward.
func (w *FileWatcher) Check() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	if !info.ModTime().After(w.lastMod) {
		return false
	}
	w.lastMod = info.ModTime()
	return true
}

// Path returns the watched file.
func (w *FileWatcher) Path() string {
	return w.path
}
