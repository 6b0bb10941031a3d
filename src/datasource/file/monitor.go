// monitor.go
package file

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor watches one raw data file for replacement or rewrite.
type FileMonitor struct {
	target  string
	watcher *fsnotify.Watcher
	lastMod time.Time
}

// NewFileMonitor watches the directory holding path, so a file that is
// created later or replaced by rename is still picked up.
func NewFileMonitor(path string) (*FileMonitor, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, err
	}

	m := &FileMonitor{target: target, watcher: watcher}
	if info, err := os.Stat(target); err == nil {
		m.lastMod = info.ModTime()
	}
	return m, nil
}

// Target is the absolute path being watched.
func (m *FileMonitor) Target() string { return m.target }

func (m *FileMonitor) Close() error { return m.watcher.Close() }

// Watch calls handler once the target has been quiet for debounce after a
// write, and only when its modification time moved forward. handler runs on
// the watch goroutine, so calls never overlap. Watch returns nil when ctx is
// done and the watcher's error otherwise.
func (m *FileMonitor) Watch(ctx context.Context, debounce time.Duration, handler func(string)) error {
	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != m.target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(debounce)
				pending = true
			}
		case <-timer.C:
			if !pending {
				continue
			}
			pending = false

			info, err := os.Stat(m.target)
			if err != nil || !info.ModTime().After(m.lastMod) {
				continue
			}
			m.lastMod = info.ModTime()
			handler(m.target)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// SetupSignalHandler cancels on SIGINT or SIGTERM. notify, when set, sees the
// signal first.
func SetupSignalHandler(cancel context.CancelFunc, notify func(os.Signal)) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		signal.Stop(sigChan)
		if notify != nil {
			notify(sig)
		}
		cancel()
	}()
}
