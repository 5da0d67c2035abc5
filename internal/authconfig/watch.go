package authconfig

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchFunc receives each (re)load of a watched config. err is set when
// the file could not be read or parsed; cfg and res are then zero.
type WatchFunc func(cfg *Config, res Result, err error)

// Watch loads path, reports it to fn, and reports it again after every
// write, create or rename touching the file. It blocks until ctx is
// cancelled. The parent directory is watched so editors that replace
// the file on save are still followed.
func Watch(ctx context.Context, path string, fn WatchFunc) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching config directory: %w", err)
	}

	report(abs, fn)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed")
			}

			if filepath.Clean(event.Name) != abs {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				report(abs, fn)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed")
			}
			return fmt.Errorf("watching config: %w", err)
		}
	}
}

func report(path string, fn WatchFunc) {
	cfg, err := Load(path)
	if err != nil {
		fn(nil, Result{}, err)
		return
	}

	fn(cfg, Validate(cfg), nil)
}
