package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/myleshyson/lsprotocol-go/protocol"

	"sharpbridge/mcp-csharp-bridge/logger"
	"sharpbridge/mcp-csharp-bridge/utils"
)

// watchedExtensions are the files the language server cares about hearing
// about; everything else on disk is noise.
var watchedExtensions = map[string]bool{
	".cs":     true,
	".csproj": true,
	".sln":    true,
	".xaml":   true,
	".props":  true,
	".targets": true,
}

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	"bin": true, "obj": true, ".git": true, ".vs": true, "node_modules": true,
}

// Watcher observes the workspace tree and forwards relevant file events as
// workspace/didChangeWatchedFiles notifications.
type Watcher struct {
	fsw    *fsnotify.Watcher
	notify func([]protocol.FileEvent) error
	done   chan struct{}
}

// NewWatcher starts watching root recursively. notify is called from the
// watcher goroutine for each batch of relevant events.
func NewWatcher(root string, notify func([]protocol.FileEvent) error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{fsw: fsw, notify: notify, done: make(chan struct{})}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree; keep walking
		}
		if !d.IsDir() {
			return nil
		}
		if skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if addErr := fsw.Add(path); addErr != nil {
			logger.Debug("Watcher: cannot watch " + path + ": " + addErr.Error())
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error: " + err.Error())
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories must be added to the watch set; fsnotify is not
	// recursive on its own.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !skippedDirs[filepath.Base(event.Name)] {
				if err := w.fsw.Add(event.Name); err != nil {
					logger.Debug("Watcher: cannot watch " + event.Name + ": " + err.Error())
				}
			}
			return
		}
	}

	ext := strings.ToLower(filepath.Ext(event.Name))
	if !watchedExtensions[ext] {
		return
	}

	var changeType protocol.FileChangeType
	switch {
	case event.Op.Has(fsnotify.Create):
		changeType = protocol.FileChangeTypeCreated
	case event.Op.Has(fsnotify.Write):
		changeType = protocol.FileChangeTypeChanged
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		changeType = protocol.FileChangeTypeDeleted
	default:
		return
	}

	uri := utils.NormalizeURI(event.Name)
	if err := w.notify([]protocol.FileEvent{{
		Uri:  protocol.DocumentUri(uri),
		Type: changeType,
	}}); err != nil {
		logger.Debug("Watcher: didChangeWatchedFiles failed: " + err.Error())
	}
}
