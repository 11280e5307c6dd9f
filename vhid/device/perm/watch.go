package perm

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/allape/gogger"
	"github.com/fsnotify/fsnotify"
)

var l = gogger.New("vhid.device.perm")

// WaitForNode blocks until Check passes on path or the timeout elapses.
// It covers the window where udev has not created the node yet; a node that
// exists with wrong permissions fails immediately, waiting cannot fix that.
func WaitForNode(path string, timeout time.Duration) error {
	err := Check(path)
	if err == nil {
		return nil
	}
	if pe, ok := err.(*Error); !ok || pe.Reason != ReasonNodeMissing {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	// the node may have appeared between Check and watcher.Add
	if err := Check(path); err == nil {
		return nil
	}

	l.Info().Println("waiting for device node:", path)

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-deadline.C:
			return fmt.Errorf("timed out waiting for %s", path)
		case ev, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed while waiting for %s", path)
			}
			if ev.Name == path && ev.Op&fsnotify.Create == fsnotify.Create {
				if err := Check(path); err == nil {
					return nil
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed while waiting for %s", path)
			}
			l.Warn().Println("watch error:", err)
		}
	}
}
