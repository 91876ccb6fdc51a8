package lockfile

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchWake signals the Phase Watcher's discovery loop to re-probe the
// candidate list immediately, rather than waiting out a full
// lcuDiscoveryInterval tick. fsnotify watches the parent directory of each
// candidate (the lockfile itself may not exist yet) and wakes on any
// create/remove/write; the ticker remains the fallback for platforms or
// paths where the watch cannot be established.
func WatchWake(ctx context.Context, candidates []string, interval time.Duration) <-chan struct{} {
	wake := make(chan struct{}, 1)
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		dirs := make(map[string]struct{})
		for _, candidate := range candidates {
			dirs[filepath.Dir(candidate)] = struct{}{}
		}
		for dir := range dirs {
			// Best-effort: a directory that doesn't exist yet simply never fires;
			// the ticker below still covers discovery in that case.
			_ = watcher.Add(dir)
		}
		go func() {
			defer watcher.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-watcher.Events:
					if !ok {
						return
					}
					notify(wake)
				case _, ok := <-watcher.Errors:
					if !ok {
						return
					}
				}
			}
		}()
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				notify(wake)
			}
		}
	}()

	return wake
}

func notify(wake chan<- struct{}) {
	select {
	case wake <- struct{}{}:
	default:
	}
}
