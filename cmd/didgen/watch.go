package main

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watch runs gen once and again after every change to path, until ctx is
// done. The parent directory is watched so editors that replace the file on
// save keep triggering runs. Failed runs are logged and watching continues.
func watch(ctx context.Context, logger *slog.Logger, path string, gen func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	runOnce := func(reason string) {
		logger.Debug("generating", "input", abs, "reason", reason)
		if err := gen(); err != nil {
			logger.Error("generation failed", "input", abs, "err", err)
		}
	}
	runOnce("start")
	logger.Info("watching for changes", "input", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			runOnce(ev.Op.String())
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}
