package adapter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pslkit/psl-test-adapter/discovery"
	"github.com/pslkit/psl-test-adapter/framework/helpers"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last change before reloading.
const DefaultDebounce = 500 * time.Millisecond

// Watch reloads the tests whenever a procedure file changes, then fires Autorun if the load
// succeeded. Bursts of changes are coalesced. It returns when ctx is done or the adapter is
// disposed.
func (a *Adapter) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Join(a.workspaceRoot, discovery.ProcedureDirectory)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	a.logger.Printf("Watching %s", dir)

	reload := make(chan struct{}, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range reload {
			if err := a.Load(ctx); err == nil {
				a.autorun.Fire(struct{}{})
			}
		}
	}()
	defer func() {
		close(reload)
		wg.Wait()
	}()

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isProcedureChange(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			timerC = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Printf("Watcher error: %s", err)
		case <-timerC:
			timerC = nil
			if !helpers.NonBlockingSend(reload, struct{}{}) {
				a.logger.Printf("Reload already pending")
			}
		}
	}
}

func isProcedureChange(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, ".PROC") {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
