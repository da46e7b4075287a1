package project

import (
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// reloadDelay groups the burst of events an editor save produces.
const reloadDelay = 100 * time.Millisecond

// ShaderWatcher queues a module reload whenever a file under
// <dir>/<module>/ changes.
type ShaderWatcher struct {
	dir     string
	queue   *Queue
	reload  func(module string) error
	watcher *fsnotify.Watcher
	done    chan struct{}
	stopped chan struct{}
}

// WatchShaders starts watching the shader directory of every module.
func (p *Project) WatchShaders() (*ShaderWatcher, error) {
	return WatchShaders(p.paths.Shaders, p.modules, p.queue, p.ReloadModule)
}

func WatchShaders(dir string, modules []string, q *Queue, reload func(module string) error) (*ShaderWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "shader watcher")
	}
	w := &ShaderWatcher{
		dir:     dir,
		queue:   q,
		reload:  reload,
		watcher: watcher,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, m := range modules {
		// each platform directory holds the files that change
		for _, sub := range []string{filepath.Join(dir, m), filepath.Join(dir, m, "glsl")} {
			if err := watcher.Add(sub); err != nil {
				log.Printf("watch %s: %v", sub, err)
			}
		}
	}
	go w.loop()
	return w, nil
}

// moduleOf maps a changed path to the module directory it belongs to.
func (w *ShaderWatcher) moduleOf(path string) (string, bool) {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 || parts[0] == "" {
		return "", false
	}
	return parts[0], true
}

func (w *ShaderWatcher) loop() {
	defer close(w.stopped)
	pending := make(map[string]bool)
	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	for {
		select {
		case <-w.done:
			timer.Stop()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if m, ok := w.moduleOf(event.Name); ok {
				pending[m] = true
				timer.Reset(reloadDelay)
			}
		case <-timer.C:
			for m := range pending {
				module := m
				err := w.queue.Push(func() error {
					if err := w.reload(module); err != nil {
						log.Printf("reload shader module %s: %v", module, err)
						return err
					}
					return nil
				})
				if err != nil {
					return
				}
			}
			pending = make(map[string]bool)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("shader watcher: %v", err)
		}
	}
}

func (w *ShaderWatcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	<-w.stopped
	return err
}
