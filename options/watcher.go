package options

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/richinsley/rendergraph/logger"
)

// Watcher reloads the settings table of a pipeline file whenever the file is
// written. The directory is watched rather than the file so that editors
// replacing the file are seen.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	settings chan map[string]bool
	done     chan bool
	finished chan bool
}

// Watch starts watching a pipeline file.
func Watch(path string) (*Watcher, error) {
	path = filepath.Clean(path)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     path,
		watcher:  fw,
		settings: make(chan map[string]bool, 1),
		done:     make(chan bool),
		finished: make(chan bool),
	}
	go w.watch()

	logger.Logger().Info("watcher: watching", "file", path)
	return w, nil
}

// Settings returns the channel new settings are delivered on. Only the most
// recent settings are kept if the channel is not read.
func (w *Watcher) Settings() <-chan map[string]bool {
	return w.settings
}

func (w *Watcher) watch() {
	defer close(w.finished)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			switch {
			case event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create:
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Logger().Warn("watcher: error", "file", w.path, "err", err)
		}
	}
}

func (w *Watcher) reload() {
	p, err := LoadPipeline(w.path)
	if err != nil {
		// editors may write the file in several steps; the last write wins
		logger.Logger().Warn("watcher: reload failed", "err", err)
		return
	}

	settings := p.Settings
	if settings == nil {
		settings = map[string]bool{}
	}

	// replace any settings that have not been read yet
	select {
	case <-w.settings:
	default:
	}
	w.settings <- settings

	logger.Logger().Debug("watcher: reloaded", "file", w.path)
}

// Close stops watching.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	<-w.finished
	return err
}
